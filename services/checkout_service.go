package services

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/adilind/coffee-shop-api/models"
	"github.com/adilind/coffee-shop-api/stores"
)

var (
	taxRate               = decimal.NewFromFloat(0.08)
	freeShippingThreshold = decimal.NewFromFloat(50)
	flatShippingRate      = decimal.NewFromFloat(9.99)
)

type CheckoutService struct {
	carts    stores.CartStore
	orders   stores.OrderStore
	tokens   stores.TokenStore
	activity *ActivityService
	notifier OrderNotifier
}

func NewCheckoutService(carts stores.CartStore, orders stores.OrderStore, tokens stores.TokenStore, activity *ActivityService, notifier OrderNotifier) *CheckoutService {
	return &CheckoutService{
		carts:    carts,
		orders:   orders,
		tokens:   tokens,
		activity: activity,
		notifier: notifier,
	}
}

// CreateOrder snapshots the cart into a pending order and makes it durable
// before returning. Prices are the ones captured at add-to-cart time; the
// catalog is not re-read here. The cart is NOT cleared until payment
// succeeds, so an abandoned payment can resume with the same cart. The
// returned token is the short-lived handoff to the payment step.
func (s *CheckoutService) CreateOrder(ctx context.Context, id Identity, info models.CustomerInfo) (models.Order, string, error) {
	if strings.TrimSpace(info.Name) == "" ||
		strings.TrimSpace(info.Email) == "" ||
		strings.TrimSpace(info.Address) == "" {
		return models.Order{}, "", Validation(CodeInvalidCustomerInfo, "name, email and address are required")
	}

	cart, err := s.carts.GetCart(ctx, id.UserID)
	if err != nil {
		return models.Order{}, "", Upstream("failed to fetch cart", err)
	}
	if len(cart.Items) == 0 {
		return models.Order{}, "", Validation(CodeEmptyCart, "cart is empty, nothing to checkout")
	}

	items := make([]models.OrderItem, 0, len(cart.Items))
	for _, line := range cart.Items {
		items = append(items, models.OrderItem{
			ProductID:    line.ProductID,
			Title:        line.Title,
			UnitPrice:    line.UnitPrice,
			Quantity:     line.Quantity,
			LineSubtotal: line.UnitPrice.Mul(decimal.NewFromInt(int64(line.Quantity))),
		})
	}
	subtotal, tax, shipping, total := computeTotals(items)

	order := models.Order{
		ID:          uuid.NewString(),
		UserID:      id.UserID,
		Items:       items,
		Subtotal:    subtotal,
		Tax:         tax,
		Shipping:    shipping,
		TotalAmount: total,
		Customer:    info,
		Status:      models.OrderStatusPending,
		CreatedAt:   time.Now(),
	}
	if err := s.orders.Create(ctx, &order); err != nil {
		return models.Order{}, "", Upstream("failed to create order", err)
	}

	token := uuid.NewString()
	if err := s.tokens.Put(ctx, token, order.ID, stores.CheckoutTokenTTL); err != nil {
		// The order is already durable; payment can still proceed by id.
		log.Printf("checkout token store error: %v", err)
		token = ""
	}

	if err := s.activity.Record(ctx, id, models.ActivityCheckout, models.ActivityDetails{
		"order_id": order.ID,
	}); err != nil {
		log.Printf("activity record error: %v", err)
	}
	notify(s.notifier, EventOrderCreated, order)

	return order, token, nil
}

// computeTotals implements the fixed pricing rules: 8% tax rounded half-up
// to cents, $9.99 flat shipping waived on subtotals above $50.
func computeTotals(items []models.OrderItem) (subtotal, tax, shipping, total decimal.Decimal) {
	subtotal = decimal.Zero
	for _, item := range items {
		subtotal = subtotal.Add(item.LineSubtotal)
	}
	tax = subtotal.Mul(taxRate).Round(2)
	shipping = flatShippingRate
	if subtotal.GreaterThan(freeShippingThreshold) {
		shipping = decimal.Zero
	}
	total = subtotal.Add(tax).Add(shipping)
	return subtotal, tax, shipping, total
}
