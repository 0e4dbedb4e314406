package dashboard

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// Hub fans broadcast messages out to every connected dashboard websocket
// client — adapted from internal/api/websocket.go's Hub (mutex-guarded
// client set; Broadcast writes to each client directly, with no queue).
type Hub struct {
	mu       sync.Mutex
	clients  map[*websocket.Conn]struct{}
	upgrader websocket.Upgrader
	log      *logrus.Entry
}

// NewHub builds an empty Hub. Origin checking is intentionally permissive
// (spec Non-goals: no authentication/multi-tenant isolation for this surface).
func NewHub(log *logrus.Entry) *Hub {
	return &Hub{
		clients: make(map[*websocket.Conn]struct{}),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		log: log,
	}
}

// ServeWS upgrades one HTTP connection into a tracked websocket client.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.WithError(err).Warn("dashboard: websocket upgrade failed")
		return
	}
	h.mu.Lock()
	h.clients[conn] = struct{}{}
	h.mu.Unlock()

	go h.readLoop(conn)
}

// readLoop drains (and discards) client frames purely to detect disconnects;
// this hub is broadcast-only, clients never publish.
func (h *Hub) readLoop(conn *websocket.Conn) {
	defer h.remove(conn)
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) remove(conn *websocket.Conn) {
	h.mu.Lock()
	delete(h.clients, conn)
	h.mu.Unlock()
	conn.Close()
}

// Broadcast marshals v to JSON and sends it to every connected client,
// dropping any client whose write fails.
func (h *Hub) Broadcast(v any) {
	body, err := json.Marshal(v)
	if err != nil {
		h.log.WithError(err).Error("dashboard: broadcast marshal failed")
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.clients {
		if err := conn.WriteMessage(websocket.TextMessage, body); err != nil {
			delete(h.clients, conn)
			conn.Close()
		}
	}
}
