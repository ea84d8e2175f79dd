package server

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/ayusman/vigil/internal/event"
	"github.com/ayusman/vigil/internal/monitor"
	"github.com/ayusman/vigil/internal/server/api"
)

const writeWait = 2 * time.Second

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow local connections
	},
}

// Message is pushed to websocket clients. Status is attached to every
// message when a monitor is configured.
type Message struct {
	Type   string          `json:"type"`
	Event  *event.Event    `json:"event,omitempty"`
	Status *monitor.Status `json:"status,omitempty"`
}

// Hub pushes monitor events to websocket clients. It implements
// event.Listener.
type Hub struct {
	monitor api.Monitor
	log     zerolog.Logger
	clients map[*websocket.Conn]bool
	mu      sync.Mutex
}

// NewHub creates a Hub. monitor may be nil.
func NewHub(monitor api.Monitor, log zerolog.Logger) *Hub {
	return &Hub{
		monitor: monitor,
		log:     log.With().Str("component", "ws").Logger(),
		clients: make(map[*websocket.Conn]bool),
	}
}

// ServeHTTP handles WebSocket upgrade requests. The client receives the
// current status right away and then one message per event.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn().Err(err).Msg("websocket upgrade error")
		return
	}
	defer conn.Close()

	h.mu.Lock()
	h.clients[conn] = true
	if h.monitor != nil {
		h.send(conn, h.encode(Message{Type: "status"}))
	}
	h.mu.Unlock()

	defer func() {
		h.mu.Lock()
		delete(h.clients, conn)
		h.mu.Unlock()
	}()

	// Keep connection alive by reading messages
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
}

// HandleEvent broadcasts e to all connected clients.
func (h *Hub) HandleEvent(e event.Event) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if len(h.clients) == 0 {
		return
	}

	msg := h.encode(Message{Type: "event", Event: &e})
	for conn := range h.clients {
		h.send(conn, msg)
	}
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// encode attaches the current status and marshals msg. Callers hold h.mu.
func (h *Hub) encode(msg Message) []byte {
	if h.monitor != nil {
		status := h.monitor.Status()
		msg.Status = &status
	}
	data, _ := json.Marshal(msg)
	return data
}

// send writes one message, dropping the client on failure. Callers hold h.mu.
func (h *Hub) send(conn *websocket.Conn, data []byte) {
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		h.log.Debug().Err(err).Msg("dropping websocket client")
		conn.Close()
		delete(h.clients, conn)
	}
}
