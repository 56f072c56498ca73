package services

import "github.com/adilind/coffee-shop-api/models"

const (
	EventOrderCreated   = "order-created"
	EventOrderCompleted = "order-completed"
	EventOrderCancelled = "order-cancelled"
)

type OrderEvent struct {
	Type  string       `json:"type"`
	Order models.Order `json:"order"`
}

// OrderNotifier receives order state transitions for the admin live feed.
// Implementations must not block.
type OrderNotifier interface {
	NotifyOrderEvent(event OrderEvent)
}

func notify(n OrderNotifier, eventType string, order models.Order) {
	if n != nil {
		n.NotifyOrderEvent(OrderEvent{Type: eventType, Order: order})
	}
}
