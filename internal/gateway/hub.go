// Package gateway is the presentation boundary: a REST API for user
// actions (asset/timeframe selection, chart type, manual levels, analysis
// trigger) and a WebSocket stream of session events for the charting
// client. Layout, styling and fullscreen handling live entirely in the
// client.
package gateway

import (
	"context"
	"log"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"marketviz/internal/bus"
)

// Hub manages WebSocket clients and fans session events out to them.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]bool
	latest  map[bus.EventType][]byte // last envelope per event type
	seq     int64

	// OnClientCount is called with the connection count on every
	// register/unregister (optional, metrics).
	OnClientCount func(n int)
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{
		clients: make(map[*Client]bool),
		latest:  make(map[bus.EventType][]byte),
	}
}

// Run consumes session events from the fan-out bus and broadcasts them.
// Blocks until ctx is cancelled or eventCh is closed.
func (h *Hub) Run(ctx context.Context, eventCh <-chan bus.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-eventCh:
			if !ok {
				return
			}
			h.broadcast(ev)
		}
	}
}

// broadcast wraps the event in an envelope and sends it to every client.
// Hand-crafted JSON framing around pre-encoded payloads keeps this off the
// reflection path on every tick.
func (h *Hub) broadcast(ev bus.Event) {
	payload := encodePayload(ev)
	if payload == nil {
		return
	}

	now := time.Now().UTC()

	h.mu.Lock()
	h.seq++
	seq := h.seq
	h.mu.Unlock()

	buf := make([]byte, 0, len(payload)+128)
	buf = append(buf, `{"type":"`...)
	buf = append(buf, ev.Type...)
	buf = append(buf, `","symbol":"`...)
	buf = append(buf, ev.Symbol...)
	buf = append(buf, `","tf":"`...)
	buf = append(buf, ev.TF...)
	buf = append(buf, `","data":`...)
	buf = append(buf, payload...)
	buf = append(buf, `,"ts":"`...)
	buf = now.AppendFormat(buf, time.RFC3339Nano)
	buf = append(buf, `","seq":`...)
	buf = strconv.AppendInt(buf, seq, 10)
	buf = append(buf, '}')

	h.mu.Lock()
	h.latest[ev.Type] = buf
	h.mu.Unlock()

	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.clients {
		select {
		case client.send <- buf:
		default: // slow client — drop this update
		}
	}
}

// HandleWS registers an upgraded connection and starts its pumps.
func (h *Hub) HandleWS(conn *websocket.Conn) {
	client := &Client{
		conn: conn,
		send: make(chan []byte, 256),
		hub:  h,
	}
	conn.EnableWriteCompression(true)

	h.mu.Lock()
	h.clients[client] = true
	count := len(h.clients)
	h.mu.Unlock()

	log.Printf("[gateway] ws client connected (%d total)", count)
	if h.OnClientCount != nil {
		h.OnClientCount(count)
	}

	go h.replayLatest(client)
	go client.writePump()
	go client.readPump()
}

// replayLatest pushes the most recent envelope of each event type so a
// freshly connected client renders without waiting for the next tick.
// Holding the read lock excludes RemoveClient's channel close, and the
// membership check skips clients that already disconnected.
func (h *Hub) replayLatest(c *Client) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if !h.clients[c] {
		return
	}
	for _, buf := range h.latest {
		select {
		case c.send <- buf:
		default:
		}
	}
}

// RemoveClient removes a client from the hub. The send channel is closed
// under the write lock so it cannot race the locked sends in broadcast
// and replayLatest.
func (h *Hub) RemoveClient(c *Client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.clients, c)
	count := len(h.clients)
	close(c.send)
	h.mu.Unlock()

	if h.OnClientCount != nil {
		h.OnClientCount(count)
	}
}

// ClientCount returns the number of connected WS clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
