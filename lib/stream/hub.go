// Copyright 2026 The Chronon Authors
// SPDX-License-Identifier: Apache-2.0

package stream

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/chronon-foundation/chronon/lib/trace"
)

// Message is one websocket frame: a trace entry tagged with the run it
// belongs to, so a client watching multiple concurrent runs can
// demultiplex.
type Message struct {
	Run      string      `json:"run"`
	Scenario string      `json:"scenario"`
	Entry    trace.Entry `json:"entry"`
}

// Hub manages websocket clients and broadcasts trace entries to all of
// them. Safe for concurrent use.
type Hub struct {
	logger   *slog.Logger
	upgrader websocket.Upgrader

	// CountChanged, when set before the hub starts serving, is called
	// with the new client count after every connect and disconnect.
	// Called without the hub lock held.
	CountChanged func(count int)

	mu      sync.RWMutex
	clients map[*websocket.Conn]bool
}

// NewHub returns an empty hub. A nil logger falls back to
// slog.Default().
func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		logger: logger,
		upgrader: websocket.Upgrader{
			// The trace service is a local development tool; viewers
			// connect from file:// dashboards and localhost pages.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		clients: make(map[*websocket.Conn]bool),
	}
}

// HandleWebSocket upgrades the HTTP connection and registers the
// client until it disconnects.
func (h *Hub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "error", err)
		return
	}

	h.mu.Lock()
	h.clients[conn] = true
	count := len(h.clients)
	h.mu.Unlock()
	h.logger.Debug("websocket client connected", "remote", conn.RemoteAddr())
	h.notifyCount(count)

	// Read loop: the client sends nothing we care about, but reading
	// is how we learn the connection died.
	go func() {
		defer func() {
			h.mu.Lock()
			delete(h.clients, conn)
			count := len(h.clients)
			h.mu.Unlock()
			conn.Close()
			h.logger.Debug("websocket client disconnected", "remote", conn.RemoteAddr())
			h.notifyCount(count)
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

// Broadcast sends one message to every connected client. The JSON is
// marshalled once. A client whose write fails is closed; its read
// loop performs the unregistration.
//
// Broadcast takes the write lock: gorilla connections do not support
// concurrent writers, so concurrent runs' broadcasts are serialized
// here.
func (h *Hub) Broadcast(message Message) {
	data, err := json.Marshal(message)
	if err != nil {
		h.logger.Error("marshalling stream message", "error", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	for conn := range h.clients {
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			h.logger.Warn("websocket write failed", "remote", conn.RemoteAddr(), "error", err)
			conn.Close()
			// No delete during iteration — the read goroutine cleans up.
		}
	}
}

func (h *Hub) notifyCount(count int) {
	if h.CountChanged != nil {
		h.CountChanged(count)
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
