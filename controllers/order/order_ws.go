package orderControllers

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/adilind/coffee-shop-api/services"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// EventHub fans order state transitions out to connected admin dashboards.
// It implements services.OrderNotifier.
type EventHub struct {
	mu      sync.Mutex
	clients map[*websocket.Conn]bool
}

func NewEventHub() *EventHub {
	return &EventHub{clients: make(map[*websocket.Conn]bool)}
}

// GET /admin/orders/ws
func (h *EventHub) Handler(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	h.mu.Lock()
	h.clients[conn] = true
	h.mu.Unlock()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			h.mu.Lock()
			delete(h.clients, conn)
			h.mu.Unlock()
			break
		}
	}
}

func (h *EventHub) NotifyOrderEvent(event services.OrderEvent) {
	data, err := json.Marshal(event)
	if err != nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.clients {
		client.WriteMessage(websocket.TextMessage, data)
	}
}
