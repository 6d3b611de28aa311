package events

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"dental-dashboard/internal/metrics"

	"golang.org/x/net/websocket"
)

const clientBuffer = 32

// Frame is what a dashboard receives over the websocket.
type Frame struct {
	Type  string          `json:"type"` // "event", "pong"
	Event string          `json:"event,omitempty"`
	Data  json.RawMessage `json:"data,omitempty"`
}

type inbound struct {
	Type string `json:"type"` // "ping"
}

type wsClient struct {
	conn *websocket.Conn
	send chan Frame
}

// Hub fans applied push events out to connected dashboards.
type Hub struct {
	log     *slog.Logger
	metrics *metrics.RealtimeMetrics

	mu      sync.RWMutex
	clients map[*wsClient]struct{}
}

func NewHub(log *slog.Logger, m *metrics.RealtimeMetrics) *Hub {
	return &Hub{
		log:     log.With(slog.String("component", "events.Hub")),
		metrics: m,
		clients: make(map[*wsClient]struct{}),
	}
}

func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	websocket.Handler(h.serve).ServeHTTP(w, r)
}

// Broadcast never blocks: a client whose buffer is full misses the event and
// catches up on its next fetch.
func (h *Hub) Broadcast(ev Event) {
	frame := Frame{Type: "event", Event: ev.Name, Data: ev.Data}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.clients {
		select {
		case c.send <- frame:
		default:
			h.log.Warn("client buffer full, dropping event", slog.String("event", ev.Name))
		}
	}
}

func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for c := range h.clients {
		_ = c.conn.Close()
	}
}

func (h *Hub) serve(conn *websocket.Conn) {
	// hijacked connections keep the http server's read/write deadlines
	_ = conn.SetDeadline(time.Time{})

	c := &wsClient{conn: conn, send: make(chan Frame, clientBuffer)}

	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
	h.metrics.ConnectionOpened()

	done := make(chan struct{})
	go h.writeLoop(c, done)

	defer func() {
		h.mu.Lock()
		delete(h.clients, c)
		h.mu.Unlock()
		h.metrics.ConnectionClosed()
		close(done)
		_ = conn.Close()
	}()

	h.log.Debug("dashboard connected", slog.String("remote_addr", conn.Request().RemoteAddr))

	for {
		var msg inbound
		if err := websocket.JSON.Receive(conn, &msg); err != nil {
			h.log.Debug("dashboard disconnected", slog.String("error", err.Error()))
			return
		}

		if msg.Type == "ping" {
			select {
			case c.send <- Frame{Type: "pong"}:
			default:
			}
		}
	}
}

func (h *Hub) writeLoop(c *wsClient, done <-chan struct{}) {
	for {
		select {
		case <-done:
			return
		case frame := <-c.send:
			if err := websocket.JSON.Send(c.conn, frame); err != nil {
				_ = c.conn.Close()
				return
			}
		}
	}
}
