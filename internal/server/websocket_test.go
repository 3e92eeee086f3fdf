package server

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"study-planner-lite/internal/supabase/supabasetest"
)

func TestChangeFeed(t *testing.T) {
	app := newTestApp(t, supabasetest.New(t), nil)
	cookies := signUp(t, app)

	srv := httptest.NewServer(app.router)
	defer srv.Close()

	header := http.Header{}
	for _, ck := range cookies {
		header.Add("Cookie", ck.Name+"="+ck.Value)
	}
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/changes"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, header)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer conn.Close()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	if err := conn.WriteJSON(map[string]any{"type": "ping"}); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}
	var pong map[string]any
	if err := conn.ReadJSON(&pong); err != nil {
		t.Fatalf("ReadJSON: %v", err)
	}
	if pong["type"] != "pong" {
		t.Fatalf("expected pong, got %v", pong)
	}

	if err := conn.WriteJSON(map[string]any{"type": "subscribe", "tables": []string{"todos"}}); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}
	var ack map[string]any
	if err := conn.ReadJSON(&ack); err != nil {
		t.Fatalf("ReadJSON: %v", err)
	}
	if ack["type"] != "subscribed" {
		t.Fatalf("expected subscribed, got %v", ack)
	}

	w := app.do(t, http.MethodPost, "/api/todos", map[string]any{"title": "Read"}, cookies)
	if w.Code != http.StatusOK {
		t.Fatalf("create: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var created map[string]any
	decode(t, w, &created)

	var change map[string]any
	if err := conn.ReadJSON(&change); err != nil {
		t.Fatalf("ReadJSON: %v", err)
	}
	if change["type"] != "changed" || change["table"] != "todos" || change["op"] != "upsert" || change["id"] != created["id"] {
		t.Fatalf("unexpected change %v", change)
	}
}
