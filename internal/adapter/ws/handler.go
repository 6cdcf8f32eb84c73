// Package ws implements the WebSocket adapter that streams run progress to the browser.
package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
)

const (
	writeTimeout = 5 * time.Second
	// sendQueue is how many messages a connection may fall behind before
	// it is dropped.
	sendQueue = 32
)

// Message is the envelope for all WebSocket messages.
type Message struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
	scope   string
}

// conn wraps a single WebSocket connection subscribed to one run. Messages
// are queued on send and written by the connection's own writer.
type conn struct {
	ws     *websocket.Conn
	cancel context.CancelFunc
	runID  string
	send   chan []byte
}

// Hub manages all active WebSocket connections and broadcasts messages.
type Hub struct {
	mu           sync.RWMutex
	conns        map[*conn]struct{}
	allowOrigins []string
}

// NewHub creates a new WebSocket hub. allowOrigins lists extra origin
// patterns accepted besides same-origin requests.
func NewHub(allowOrigins ...string) *Hub {
	return &Hub{
		conns:        make(map[*conn]struct{}),
		allowOrigins: allowOrigins,
	}
}

// HandleWS upgrades the request to a WebSocket subscribed to the run named
// by the required run_id query parameter.
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	runID := r.URL.Query().Get("run_id")
	if _, err := uuid.Parse(runID); err != nil {
		http.Error(w, "run_id must be a UUID", http.StatusBadRequest)
		return
	}

	ws, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: h.allowOrigins,
	})
	if err != nil {
		slog.Error("websocket accept failed", "error", err)
		return
	}

	ctx, cancel := context.WithCancel(context.WithoutCancel(r.Context()))
	c := &conn{ws: ws, cancel: cancel, runID: runID, send: make(chan []byte, sendQueue)}

	h.mu.Lock()
	h.conns[c] = struct{}{}
	h.mu.Unlock()

	slog.Info("websocket connected", "remote", r.RemoteAddr, "run_id", runID)

	go h.writeLoop(ctx, c)

	// Read loop (to detect disconnects and consume pings)
	go func() {
		defer func() {
			h.remove(c)
			_ = ws.Close(websocket.StatusNormalClosure, "")
		}()
		for {
			if _, _, err := ws.Read(ctx); err != nil {
				return
			}
		}
	}()
}

// writeLoop drains the connection's queue until the connection is removed.
func (h *Hub) writeLoop(ctx context.Context, c *conn) {
	for {
		select {
		case <-ctx.Done():
			return
		case data := <-c.send:
			wctx, cancel := context.WithTimeout(ctx, writeTimeout)
			err := c.ws.Write(wctx, websocket.MessageText, data)
			cancel()
			if err != nil {
				slog.Debug("websocket write failed", "run_id", c.runID, "error", err)
				h.remove(c)
				return
			}
		}
	}
}

// Broadcast queues a message for every connection watching its run, or for
// every connection when the message has no run. It never waits on a client:
// a connection whose queue is full is dropped.
func (h *Hub) Broadcast(ctx context.Context, msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		slog.Error("websocket marshal failed", "error", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.conns {
		if msg.scope != "" && c.runID != msg.scope {
			continue
		}
		select {
		case c.send <- data:
		default:
			slog.WarnContext(ctx, "websocket client too slow, disconnecting", "run_id", c.runID)
			go h.remove(c)
		}
	}
}

// ConnectionCount returns the number of active connections.
func (h *Hub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.conns {
		c.cancel()
		_ = c.ws.Close(websocket.StatusGoingAway, "server shutting down")
		delete(h.conns, c)
	}
}

func (h *Hub) remove(c *conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.conns[c]; ok {
		c.cancel()
		delete(h.conns, c)
		slog.Info("websocket disconnected", "run_id", c.runID)
	}
}
