package hub

import (
	"encoding/json"
	"errors"
	"testing"
)

type testWriter struct {
	writes int
	last   []byte
	fail   bool
	closed bool
}

func (w *testWriter) Write(message []byte) error {
	w.writes++
	w.last = message
	if w.fail {
		return errors.New("write failed")
	}
	return nil
}

func (w *testWriter) Close() error {
	w.closed = true
	return nil
}

func TestHub_RegisterBroadcastUnregister(t *testing.T) {
	h := New()
	w1 := &testWriter{}
	c1 := &Connection{UserID: "u", Writer: w1}

	h.Register(c1)
	if h.Connections("u") != 1 {
		t.Fatalf("expected 1 connection, got %d", h.Connections("u"))
	}
	h.Broadcast("u", []byte("x"))
	if w1.writes != 1 {
		t.Fatalf("expected 1 write, got %d", w1.writes)
	}

	h.Unregister(c1)
	h.Broadcast("u", []byte("x"))
	if w1.writes != 1 {
		t.Fatalf("expected no more writes, got %d", w1.writes)
	}
}

func TestHub_RemovesFailedConnections(t *testing.T) {
	h := New()
	w1 := &testWriter{fail: true}
	c1 := &Connection{UserID: "u", Writer: w1}
	h.Register(c1)

	h.Broadcast("u", []byte("x"))
	h.Broadcast("u", []byte("x"))
	if w1.writes != 1 {
		t.Fatalf("expected only 1 write before removal, got %d", w1.writes)
	}
	if !w1.closed {
		t.Fatalf("expected failed connection to be closed")
	}
}

func TestHub_PublishOnlyReachesOwner(t *testing.T) {
	h := New()
	mine := &testWriter{}
	theirs := &testWriter{}
	h.Register(&Connection{UserID: "u1", Writer: mine})
	h.Register(&Connection{UserID: "u2", Writer: theirs})

	h.Publish("u1", NewChange("todos", OpUpsert, "t1"))
	if theirs.writes != 0 {
		t.Fatalf("other user received %d writes", theirs.writes)
	}
	var got Change
	if err := json.Unmarshal(mine.last, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got != (Change{Type: "changed", Table: "todos", Op: "upsert", ID: "t1"}) {
		t.Fatalf("unexpected change %+v", got)
	}

	var nilHub *Hub
	nilHub.Publish("u1", NewChange("todos", OpDelete, "t1"))
	h.Publish("", NewChange("todos", OpDelete, "t1"))
	if mine.writes != 1 {
		t.Fatalf("expected a single write, got %d", mine.writes)
	}
}

func TestHub_PublishHonoursSubscriptions(t *testing.T) {
	h := New()
	todosOnly := &testWriter{}
	everything := &testWriter{}
	c := &Connection{UserID: "u", Writer: todosOnly}
	c.Subscribe("todos")
	h.Register(c)
	h.Register(&Connection{UserID: "u", Writer: everything})

	h.Publish("u", NewChange("events", OpUpsert, "e1"))
	h.Publish("u", NewChange("todos", OpDelete, "t1"))

	if todosOnly.writes != 1 {
		t.Fatalf("expected 1 write for the todos subscriber, got %d", todosOnly.writes)
	}
	if everything.writes != 2 {
		t.Fatalf("expected 2 writes for the unfiltered connection, got %d", everything.writes)
	}

	c.Subscribe()
	if !c.Wants("events") {
		t.Fatalf("an empty subscription should accept every table")
	}
}
