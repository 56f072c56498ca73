package services

import (
	"context"
	"errors"
	"log"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/adilind/coffee-shop-api/models"
	"github.com/adilind/coffee-shop-api/stores"
)

var (
	expiryPattern = regexp.MustCompile(`^(0?[1-9]|1[0-2])/[0-9]{2}$`)
	cvvPattern    = regexp.MustCompile(`^[0-9]{3,4}$`)
	digitsPattern = regexp.MustCompile(`^[0-9]+$`)
)

// CardInput is card-shaped payment input. Nothing here ever reaches a real
// processor; validation is entirely local.
type CardInput struct {
	CardNumber     string `json:"card_number"`
	Expiry         string `json:"expiry"` // MM/YY
	CVV            string `json:"cvv"`
	CardholderName string `json:"cardholder_name"`
}

type PaymentService struct {
	orders   stores.OrderStore
	carts    stores.CartStore
	tokens   stores.TokenStore
	activity *ActivityService
	notifier OrderNotifier
}

func NewPaymentService(orders stores.OrderStore, carts stores.CartStore, tokens stores.TokenStore, activity *ActivityService, notifier OrderNotifier) *PaymentService {
	return &PaymentService{
		orders:   orders,
		carts:    carts,
		tokens:   tokens,
		activity: activity,
		notifier: notifier,
	}
}

// ResolveToken maps a checkout token back to its order id. An expired or
// unknown token is a not-found, never a crash.
func (s *PaymentService) ResolveToken(ctx context.Context, token string) (string, error) {
	orderID, err := s.tokens.Resolve(ctx, token)
	if errors.Is(err, stores.ErrTokenNotFound) {
		return "", NotFound(CodeCheckoutExpired, "checkout session expired, start checkout again")
	}
	if err != nil {
		return "", Upstream("failed to resolve checkout token", err)
	}
	return orderID, nil
}

// ProcessPayment charges a pending order. Validation failure leaves the
// order pending and retryable; success is the only transition out of
// pending to completed, applied at most once even under concurrent retries.
func (s *PaymentService) ProcessPayment(ctx context.Context, id Identity, orderID string, card CardInput) (models.Order, error) {
	order, err := s.orders.Get(ctx, orderID)
	if errors.Is(err, stores.ErrOrderNotFound) {
		return models.Order{}, NotFound(CodeOrderNotFound, "order not found")
	}
	if err != nil {
		return models.Order{}, Upstream("failed to fetch order", err)
	}
	if !id.Admin() && order.UserID != id.UserID {
		log.Printf("payment ownership violation: user %s on order %s", id.UserID, orderID)
		return models.Order{}, NotFound(CodeOrderNotFound, "order not found")
	}
	if order.Status != models.OrderStatusPending {
		return models.Order{}, Conflict(CodeOrderNotPending, "order has already been processed")
	}

	digits, vErr := validateCard(card)
	if vErr != nil {
		s.emit(ctx, id, models.ActivityPaymentFailure, models.ActivityDetails{
			"order_id": orderID,
			"reason":   vErr.Code,
		})
		return models.Order{}, vErr
	}

	updated, err := s.orders.TransitionFromPending(ctx, orderID, func(o *models.Order) {
		now := time.Now()
		o.Status = models.OrderStatusCompleted
		o.CompletedAt = &now
		o.Payment = &models.PaymentReceipt{
			Method:        "card",
			MaskedLast4:   digits[len(digits)-4:],
			TransactionID: uuid.NewString(),
			ProcessedAt:   now,
		}
	})
	if errors.Is(err, stores.ErrOrderNotPending) {
		// Lost the race against a concurrent charge. No mutation happened.
		return models.Order{}, Conflict(CodeOrderNotPending, "order has already been processed")
	}
	if errors.Is(err, stores.ErrOrderNotFound) {
		return models.Order{}, NotFound(CodeOrderNotFound, "order not found")
	}
	if err != nil {
		return models.Order{}, Upstream("failed to complete order", err)
	}

	if _, err := s.carts.Mutate(ctx, updated.UserID, func(cart *models.Cart) error {
		cart.Items = nil
		return nil
	}); err != nil {
		log.Printf("cart clear after payment error: %v", err)
	}

	s.emit(ctx, id, models.ActivityPaymentSuccess, models.ActivityDetails{
		"order_id":       updated.ID,
		"transaction_id": updated.Payment.TransactionID,
	})
	notify(s.notifier, EventOrderCompleted, updated)

	return updated, nil
}

func validateCard(card CardInput) (string, *Error) {
	digits := strings.Join(strings.Fields(card.CardNumber), "")
	if len(digits) < 13 || len(digits) > 19 || !digitsPattern.MatchString(digits) {
		return "", Validation(CodeInvalidCardNumber, "card number must be 13-19 digits")
	}
	// Expiry-in-the-past is deliberately not checked.
	if !expiryPattern.MatchString(card.Expiry) {
		return "", Validation(CodeInvalidExpiry, "expiry must be in MM/YY format")
	}
	if !cvvPattern.MatchString(card.CVV) {
		return "", Validation(CodeInvalidCVV, "cvv must be 3-4 digits")
	}
	return digits, nil
}

func (s *PaymentService) emit(ctx context.Context, id Identity, activityType models.ActivityType, details models.ActivityDetails) {
	if err := s.activity.Record(ctx, id, activityType, details); err != nil {
		log.Printf("activity record error: %v", err)
	}
}
