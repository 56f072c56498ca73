package services

import (
	"context"
	"errors"
	"log"

	"github.com/adilind/coffee-shop-api/models"
	"github.com/adilind/coffee-shop-api/stores"
)

type OrderService struct {
	orders   stores.OrderStore
	notifier OrderNotifier
}

func NewOrderService(orders stores.OrderStore, notifier OrderNotifier) *OrderService {
	return &OrderService{orders: orders, notifier: notifier}
}

// Get returns the order. Non-admin callers only ever see their own orders;
// someone else's order id answers not-found, not forbidden, so order ids
// leak nothing.
func (s *OrderService) Get(ctx context.Context, id Identity, orderID string) (models.Order, error) {
	order, err := s.orders.Get(ctx, orderID)
	if errors.Is(err, stores.ErrOrderNotFound) {
		return models.Order{}, NotFound(CodeOrderNotFound, "order not found")
	}
	if err != nil {
		return models.Order{}, Upstream("failed to fetch order", err)
	}
	if !id.Admin() && order.UserID != id.UserID {
		log.Printf("order ownership violation: user %s on order %s", id.UserID, orderID)
		return models.Order{}, NotFound(CodeOrderNotFound, "order not found")
	}
	return order, nil
}

// ListForUser returns the caller's orders newest first.
func (s *OrderService) ListForUser(ctx context.Context, id Identity) ([]models.Order, error) {
	orders, err := s.orders.ListByUser(ctx, id.UserID)
	if err != nil {
		return nil, Upstream("failed to list orders", err)
	}
	return orders, nil
}

// Cancel moves a pending order to cancelled. Terminal orders reject the
// attempt; there is no other way out of pending besides payment.
func (s *OrderService) Cancel(ctx context.Context, id Identity, orderID string) (models.Order, error) {
	if _, err := s.Get(ctx, id, orderID); err != nil {
		return models.Order{}, err
	}

	updated, err := s.orders.TransitionFromPending(ctx, orderID, func(o *models.Order) {
		o.Status = models.OrderStatusCancelled
	})
	if errors.Is(err, stores.ErrOrderNotPending) {
		return models.Order{}, Conflict(CodeOrderNotPending, "order has already been processed")
	}
	if errors.Is(err, stores.ErrOrderNotFound) {
		return models.Order{}, NotFound(CodeOrderNotFound, "order not found")
	}
	if err != nil {
		return models.Order{}, Upstream("failed to cancel order", err)
	}

	notify(s.notifier, EventOrderCancelled, updated)
	return updated, nil
}
