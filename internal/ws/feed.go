// Package ws bridges ledger subscriptions to dashboard WebSocket clients.
package ws

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/steadypath/steadypath/pkg/metrics"
	"github.com/steadypath/steadypath/pkg/models"
)

const writeTimeout = 5 * time.Second

// FeedMessage is the frame pushed to dashboard clients.
type FeedMessage struct {
	Type    string                     `json:"type"` // "snapshot" or "update"
	Records []*models.EscalationRecord `json:"records"`
}

// Feed fans escalation history updates out to connected WebSocket
// clients. It holds the latest snapshot so new clients are primed
// immediately on connect.
type Feed struct {
	logger   *zap.Logger
	upgrader websocket.Upgrader

	mu       sync.Mutex
	clients  map[*websocket.Conn]struct{}
	snapshot []*models.EscalationRecord
}

// NewFeed creates an empty feed.
func NewFeed(logger *zap.Logger) *Feed {
	return &Feed{
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		clients: make(map[*websocket.Conn]struct{}),
	}
}

// Publish replaces the snapshot and pushes an update frame to every
// connected client. It is the ledger subscriber.
func (f *Feed) Publish(records []*models.EscalationRecord) {
	payload, err := json.Marshal(FeedMessage{Type: "update", Records: records})
	if err != nil {
		f.logger.Error("Feed marshal failed", zap.Error(err))
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.snapshot = records
	for conn := range f.clients {
		_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			f.logger.Warn("Feed client write failed, dropping client", zap.Error(err))
			f.drop(conn)
		}
	}
}

// Handle upgrades one HTTP request into a feed connection and sends the
// current snapshot.
func (f *Feed) Handle(w http.ResponseWriter, r *http.Request) {
	conn, err := f.upgrader.Upgrade(w, r, nil)
	if err != nil {
		f.logger.Warn("Feed upgrade failed", zap.Error(err))
		return
	}

	// All writes to a conn happen under f.mu: gorilla conns do not
	// support concurrent writers, and Publish writes under the same lock.
	f.mu.Lock()
	f.clients[conn] = struct{}{}
	metrics.FeedClients.Inc()
	snapshot, err := json.Marshal(FeedMessage{Type: "snapshot", Records: f.snapshot})
	if err == nil {
		_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := conn.WriteMessage(websocket.TextMessage, snapshot); err != nil {
			f.logger.Warn("Feed snapshot write failed", zap.Error(err))
			f.drop(conn)
			f.mu.Unlock()
			return
		}
	}
	f.mu.Unlock()

	// Reader loop exists only to detect close.
	go func() {
		defer func() {
			f.mu.Lock()
			f.drop(conn)
			f.mu.Unlock()
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

// Prime seeds the snapshot from the ledger at startup, before any append.
func (f *Feed) Prime(records []*models.EscalationRecord) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.snapshot = records
}

// drop removes a client; caller holds f.mu.
func (f *Feed) drop(conn *websocket.Conn) {
	if _, ok := f.clients[conn]; !ok {
		return
	}
	delete(f.clients, conn)
	_ = conn.Close()
	metrics.FeedClients.Dec()
}
