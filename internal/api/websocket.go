package api

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"

	"nhooyr.io/websocket"
)

// ──────────────────── WebSocket Hub ────────────────────

// WSHub fans job events out to connected admin clients. It satisfies the
// queue's notifier interface, so workers broadcast through it without
// knowing about HTTP.
type WSHub struct {
	mu      sync.RWMutex
	clients map[*WSClient]struct{}
}

// WSClient is one connected dashboard. Outbound messages go through a
// buffered channel; a full buffer drops the message and bumps a counter
// instead of stalling the worker that emitted it.
type WSClient struct {
	conn    *websocket.Conn
	send    chan []byte
	dropped atomic.Int64
}

type WSMessage struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

func NewWSHub() *WSHub {
	return &WSHub{clients: make(map[*WSClient]struct{})}
}

func wsEncode(event string, data interface{}) ([]byte, bool) {
	msg, err := json.Marshal(WSMessage{Event: event, Data: data})
	return msg, err == nil
}

// Broadcast sends an event to every connected client. Sends happen under
// the read lock so leave, which closes the channel, cannot race them.
func (h *WSHub) Broadcast(event string, data interface{}) {
	msg, ok := wsEncode(event, data)
	if !ok {
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.clients {
		client.offer(msg)
	}
}

func (h *WSHub) join(c *WSClient) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c] = struct{}{}
	return len(h.clients)
}

func (h *WSHub) leave(c *WSClient) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; ok {
		close(c.send)
		delete(h.clients, c)
	}
	return len(h.clients)
}

func (h *WSHub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// offer enqueues without blocking; a full buffer drops the message.
func (c *WSClient) offer(msg []byte) {
	select {
	case c.send <- msg:
	default:
		c.dropped.Add(1)
	}
}

// writePump drains the send buffer onto the wire until the hub closes it
// or the peer goes away.
func (c *WSClient) writePump(ctx context.Context) {
	defer c.conn.Close(websocket.StatusNormalClosure, "")
	for msg := range c.send {
		if err := c.conn.Write(ctx, websocket.MessageText, msg); err != nil {
			return
		}
	}
}

// ──────────────────── WebSocket Handler ────────────────────

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	if s.authService.Enabled() {
		token := r.URL.Query().Get("token")
		if token == "" {
			token = strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		}
		if token == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		if err := s.authService.Verify(token); err != nil {
			http.Error(w, "invalid token", http.StatusUnauthorized)
			return
		}
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		log.Printf("WebSocket: accept failed: %v", err)
		return
	}

	client := &WSClient{conn: conn, send: make(chan []byte, 64)}
	log.Printf("WebSocket client connected (%d active)", s.wsHub.join(client))

	// A fresh client gets a job-stats snapshot so the dashboard paints
	// without waiting for the next event.
	if stats, err := s.queue.Stats(); err == nil {
		if msg, ok := wsEncode("jobs:stats", stats); ok {
			client.offer(msg)
		}
	}

	ctx := r.Context()
	go client.writePump(ctx)

	// Inbound frames carry nothing; reading just detects the close.
	for {
		if _, _, err := conn.Read(ctx); err != nil {
			break
		}
	}

	active := s.wsHub.leave(client)
	if n := client.dropped.Load(); n > 0 {
		log.Printf("WebSocket client disconnected, %d message(s) dropped (%d active)", n, active)
	} else {
		log.Printf("WebSocket client disconnected (%d active)", active)
	}
}
