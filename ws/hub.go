package ws

import (
	"context"
	"net/http"
	"sync"

	"github.com/dgavriliu/lataverna/api/web"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// Hub fans events out to every connected admin client. Used to surface
// new reservations in the back office without polling.
type Hub struct {
	log      logrus.FieldLogger
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*websocket.Conn]bool
}

func NewHub(log logrus.FieldLogger, origin string) *Hub {
	return &Hub{
		log: log,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return origin == "" || r.Header.Get("Origin") == origin
			},
		},
		clients: make(map[*websocket.Conn]bool),
	}
}

// HandleSubscribe upgrades the connection and keeps it registered until
// the client goes away. Clients only listen; inbound frames are drained
// and dropped.
func (h *Hub) HandleSubscribe() web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		conn, err := h.upgrader.Upgrade(w, r, nil)
		if err != nil {
			// Upgrade already wrote the error response.
			return nil
		}

		h.mu.Lock()
		h.clients[conn] = true
		h.mu.Unlock()

		go func() {
			defer h.drop(conn)
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()

		return nil
	}
}

func (h *Hub) drop(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[conn] {
		delete(h.clients, conn)
		conn.Close()
	}
}

// Broadcast sends v as JSON to every client, dropping the ones that fail.
func (h *Hub) Broadcast(v any) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for conn := range h.clients {
		if err := conn.WriteJSON(v); err != nil {
			h.log.Warnf("ws: dropping client: %v", err)
			delete(h.clients, conn)
			conn.Close()
		}
	}
}

func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for conn := range h.clients {
		conn.Close()
		delete(h.clients, conn)
	}
}
