// Package live broadcasts collector events to connected dashboard clients
// over WebSocket: session lifecycle and sync status changes.
package live

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"

	ws "github.com/coder/websocket"

	"github.com/gamewell/collector/internal/model"
)

// Event is one real-time message pushed to dashboard clients.
type Event struct {
	Type    string            `json:"type"`
	Session *model.Session    `json:"session,omitempty"`
	Status  *model.SyncStatus `json:"status,omitempty"`
}

// Feed maintains the set of connected clients and fans events out to them.
type Feed struct {
	mu      sync.RWMutex
	clients map[*client]struct{}
	logger  *slog.Logger
}

// NewFeed creates an empty feed.
func NewFeed(logger *slog.Logger) *Feed {
	return &Feed{
		clients: make(map[*client]struct{}),
		logger:  logger,
	}
}

// SessionStarted broadcasts a session_started event. Satisfies the
// tracker's Notifier.
func (f *Feed) SessionStarted(s *model.Session) {
	f.broadcast(Event{Type: "session_started", Session: s})
}

// SessionEnded broadcasts a session_ended event.
func (f *Feed) SessionEnded(s *model.Session) {
	f.broadcast(Event{Type: "session_ended", Session: s})
}

// SyncStatusChanged broadcasts the engine's new status.
func (f *Feed) SyncStatusChanged(status model.SyncStatus) {
	f.broadcast(Event{Type: "sync_status", Status: &status})
}

// ClientCount returns the number of connected dashboard clients.
func (f *Feed) ClientCount() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.clients)
}

func (f *Feed) broadcast(event Event) {
	data, err := json.Marshal(event)
	if err != nil {
		f.logger.Error("marshal event", "error", err)
		return
	}

	f.mu.RLock()
	defer f.mu.RUnlock()
	for c := range f.clients {
		select {
		case c.send <- data:
		default:
			// Slow client: drop rather than block the tracker.
		}
	}
}

func (f *Feed) register(c *client) {
	f.mu.Lock()
	f.clients[c] = struct{}{}
	f.mu.Unlock()
}

func (f *Feed) unregister(c *client) {
	f.mu.Lock()
	if _, ok := f.clients[c]; ok {
		delete(f.clients, c)
		close(c.send)
	}
	f.mu.Unlock()
}

// Handler returns an HTTP handler that upgrades the connection and streams
// events until the client disconnects.
func (f *Feed) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := ws.Accept(w, r, &ws.AcceptOptions{
			// The feed only serves the local dashboard process.
			InsecureSkipVerify: true,
		})
		if err != nil {
			f.logger.Warn("websocket accept", "error", err)
			return
		}

		c := newClient(f, conn)
		c.run(r.Context())
	}
}
