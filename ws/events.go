package ws

import (
	"encoding/json"
	"log/slog"
	"time"
)

// Message types exchanged over the feed.
const (
	TypeHistoryChanged = "history_changed"
	TypePing           = "ping"
	TypePong           = "pong"
)

// Event is a message pushed to an owner's live clients.
type Event struct {
	Type      string    `json:"type"`
	Action    string    `json:"action,omitempty"`
	ItemID    string    `json:"item_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Publish encodes ev and broadcasts it to every connection of owner.
func (m *Manager) Publish(owner string, ev Event) int {
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now().UTC()
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		slog.Error("encoding ws event", "source", "ws", "error", err)
		return 0
	}
	return m.Broadcast(owner, payload)
}

// HistoryChanged tells owner's clients to refresh their history list.
func (m *Manager) HistoryChanged(owner, action, itemID string) {
	if m.Count(owner) == 0 {
		return
	}
	sent := m.Publish(owner, Event{Type: TypeHistoryChanged, Action: action, ItemID: itemID})
	slog.Debug("history change published", "source", "ws", "owner", owner, "action", action, "clients", sent)
}
