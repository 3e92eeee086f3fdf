package handler

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"study-planner-lite/internal/hub"
	"study-planner-lite/internal/middleware"
)

const (
	changesPongWait  = 60 * time.Second
	changesWriteWait = 10 * time.Second
	changesReadLimit = 64 * 1024
)

// ChangesHandler streams change notifications for the caller's rows. It runs
// behind RequireSession.
//
// Clients may send {"type":"ping"} (answered with {"type":"pong"}) and
// {"type":"subscribe","tables":["todos"]} to narrow the feed.
type ChangesHandler struct {
	Hub *hub.Hub
}

type feedRequest struct {
	Type   string   `json:"type"`
	Tables []string `json:"tables,omitempty"`
}

type feedReply struct {
	Type   string   `json:"type"`
	Tables []string `json:"tables,omitempty"`
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// wsWriter serializes writes; gorilla connections allow one concurrent writer.
type wsWriter struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (w *wsWriter) Write(message []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.conn.SetWriteDeadline(time.Now().Add(changesWriteWait))
	return w.conn.WriteMessage(websocket.TextMessage, message)
}

func (w *wsWriter) writeJSON(v any) error {
	out, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return w.Write(out)
}

func (w *wsWriter) ping() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(changesWriteWait))
}

func (w *wsWriter) Close() error {
	return w.conn.Close()
}

func (h *ChangesHandler) Serve(c *gin.Context) {
	userID, ok := middleware.UserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}

	writer := &wsWriter{conn: ws}
	conn := &hub.Connection{UserID: userID, Writer: writer}
	h.Hub.Register(conn)
	defer func() {
		h.Hub.Unregister(conn)
		_ = ws.Close()
	}()

	ws.SetReadLimit(changesReadLimit)
	ws.SetReadDeadline(time.Now().Add(changesPongWait))
	ws.SetPongHandler(func(string) error {
		ws.SetReadDeadline(time.Now().Add(changesPongWait))
		return nil
	})

	done := make(chan struct{})
	defer close(done)
	go keepAlive(writer, done)

	for {
		_, data, err := ws.ReadMessage()
		if err != nil {
			return
		}

		var req feedRequest
		if err := json.Unmarshal(data, &req); err != nil {
			continue
		}
		switch req.Type {
		case "ping":
			_ = writer.writeJSON(feedReply{Type: "pong"})
		case "subscribe":
			conn.Subscribe(req.Tables...)
			_ = writer.writeJSON(feedReply{Type: "subscribed", Tables: req.Tables})
		}
	}
}

func keepAlive(writer *wsWriter, done <-chan struct{}) {
	ticker := time.NewTicker(changesPongWait * 9 / 10)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if err := writer.ping(); err != nil {
				_ = writer.Close()
				return
			}
		}
	}
}
