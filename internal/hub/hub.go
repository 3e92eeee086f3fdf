// Package hub fans change notifications out to each user's open
// connections.
package hub

import (
	"encoding/json"
	"sync"
)

type Writer interface {
	Write(message []byte) error
	Close() error
}

type Connection struct {
	UserID string
	Writer Writer

	mu     sync.RWMutex
	tables map[string]struct{}
}

// Subscribe limits the connection to changes on the named tables. No tables
// means every table.
func (c *Connection) Subscribe(tables ...string) {
	set := make(map[string]struct{}, len(tables))
	for _, t := range tables {
		if t != "" {
			set[t] = struct{}{}
		}
	}
	c.mu.Lock()
	c.tables = set
	c.mu.Unlock()
}

// Wants reports whether changes on table should reach the connection.
func (c *Connection) Wants(table string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if len(c.tables) == 0 {
		return true
	}
	_, ok := c.tables[table]
	return ok
}

const (
	OpUpsert = "upsert"
	OpDelete = "delete"
)

// Change tells a client that a row it owns was written and should be
// refetched.
type Change struct {
	Type  string `json:"type"`
	Table string `json:"table"`
	Op    string `json:"op"`
	ID    string `json:"id,omitempty"`
}

func NewChange(table, op, id string) Change {
	return Change{Type: "changed", Table: table, Op: op, ID: id}
}

type Hub struct {
	mu          sync.RWMutex
	connections map[string]map[*Connection]struct{}
}

func New() *Hub {
	return &Hub{connections: make(map[string]map[*Connection]struct{})}
}

func (h *Hub) Register(conn *Connection) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.connections[conn.UserID] == nil {
		h.connections[conn.UserID] = make(map[*Connection]struct{})
	}
	h.connections[conn.UserID][conn] = struct{}{}
}

func (h *Hub) Unregister(conn *Connection) {
	h.mu.Lock()
	defer h.mu.Unlock()

	set := h.connections[conn.UserID]
	if set == nil {
		return
	}
	delete(set, conn)
	if len(set) == 0 {
		delete(h.connections, conn.UserID)
	}
}

// Connections returns how many connections userID has open.
func (h *Hub) Connections(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.connections[userID])
}

// Publish sends change to every connection of userID. A nil Hub or an empty
// userID is a no-op.
func (h *Hub) Publish(userID string, change Change) {
	if h == nil || userID == "" {
		return
	}
	message, err := json.Marshal(change)
	if err != nil {
		return
	}
	h.deliver(userID, message, func(c *Connection) bool { return c.Wants(change.Table) })
}

// Broadcast writes message to every connection of userID and drops the ones
// that fail.
func (h *Hub) Broadcast(userID string, message []byte) {
	h.deliver(userID, message, nil)
}

func (h *Hub) deliver(userID string, message []byte, want func(*Connection) bool) {
	h.mu.RLock()
	set := h.connections[userID]
	conns := make([]*Connection, 0, len(set))
	for c := range set {
		if want == nil || want(c) {
			conns = append(conns, c)
		}
	}
	h.mu.RUnlock()

	var failed []*Connection
	for _, c := range conns {
		if err := c.Writer.Write(message); err != nil {
			failed = append(failed, c)
		}
	}
	for _, c := range failed {
		_ = c.Writer.Close()
		h.Unregister(c)
	}
}
