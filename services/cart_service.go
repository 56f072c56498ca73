package services

import (
	"context"
	"errors"
	"log"
	"strconv"
	"time"

	"github.com/adilind/coffee-shop-api/models"
	"github.com/adilind/coffee-shop-api/stores"
)

type CartService struct {
	carts    stores.CartStore
	catalog  stores.CatalogReader
	activity *ActivityService
}

func NewCartService(carts stores.CartStore, catalog stores.CatalogReader, activity *ActivityService) *CartService {
	return &CartService{carts: carts, catalog: catalog, activity: activity}
}

// GetCart returns the caller's cart, creating an empty one on first access.
func (s *CartService) GetCart(ctx context.Context, id Identity) (models.Cart, error) {
	cart, err := s.carts.GetCart(ctx, id.UserID)
	if err != nil {
		return models.Cart{}, Upstream("failed to fetch cart", err)
	}
	return cart, nil
}

// AddItem re-validates the product against the catalog, then increments an
// existing line or inserts a new one with title/price snapshotted now.
func (s *CartService) AddItem(ctx context.Context, id Identity, productID string, quantityDelta int) (models.Cart, error) {
	if quantityDelta <= 0 {
		return models.Cart{}, Validation(CodeInvalidQuantity, "quantity must be a positive integer")
	}

	product, err := s.catalog.GetProduct(ctx, productID)
	if errors.Is(err, stores.ErrProductNotFound) {
		return models.Cart{}, NotFound(CodeProductNotFound, "product does not exist")
	}
	if err != nil {
		return models.Cart{}, Upstream("failed to validate product", err)
	}
	if !product.InStock {
		return models.Cart{}, Conflict(CodeOutOfStock, "product is out of stock")
	}

	cart, err := s.carts.Mutate(ctx, id.UserID, func(cart *models.Cart) error {
		if line := cart.Find(productID); line != nil {
			line.Quantity += quantityDelta
			return nil
		}
		cart.Items = append(cart.Items, models.CartItem{
			ProductID: product.ID,
			Title:     product.Title,
			UnitPrice: product.Price,
			Quantity:  quantityDelta,
			AddedAt:   time.Now(),
		})
		return nil
	})
	if err != nil {
		return models.Cart{}, Upstream("failed to update cart", err)
	}

	s.emit(ctx, id, models.ActivityAddToCart, models.ActivityDetails{
		"product_id": productID,
		"quantity":   strconv.Itoa(quantityDelta),
	})
	return cart, nil
}

// SetQuantity sets the line to newQuantity; anything below 1 removes the
// line entirely, so a quantity of zero is never stored.
func (s *CartService) SetQuantity(ctx context.Context, id Identity, productID string, newQuantity int) (models.Cart, error) {
	removed := false
	cart, err := s.carts.Mutate(ctx, id.UserID, func(cart *models.Cart) error {
		line := cart.Find(productID)
		if line == nil {
			return NotFound(CodeItemNotInCart, "product is not in the cart")
		}
		if newQuantity <= 0 {
			removeLine(cart, productID)
			removed = true
			return nil
		}
		line.Quantity = newQuantity
		return nil
	})
	if err != nil {
		return models.Cart{}, asServiceError(err, "failed to update cart")
	}

	activityType := models.ActivityUpdateCart
	if removed {
		activityType = models.ActivityRemoveFromCart
	}
	s.emit(ctx, id, activityType, models.ActivityDetails{
		"product_id": productID,
		"quantity":   strconv.Itoa(newQuantity),
	})
	return cart, nil
}

// RemoveItem deletes the line; removing an absent line is a no-op success.
func (s *CartService) RemoveItem(ctx context.Context, id Identity, productID string) (models.Cart, error) {
	cart, err := s.carts.Mutate(ctx, id.UserID, func(cart *models.Cart) error {
		removeLine(cart, productID)
		return nil
	})
	if err != nil {
		return models.Cart{}, Upstream("failed to update cart", err)
	}

	s.emit(ctx, id, models.ActivityRemoveFromCart, models.ActivityDetails{
		"product_id": productID,
	})
	return cart, nil
}

// ClearCart empties all lines; idempotent.
func (s *CartService) ClearCart(ctx context.Context, id Identity) (models.Cart, error) {
	cart, err := s.carts.Mutate(ctx, id.UserID, func(cart *models.Cart) error {
		cart.Items = nil
		return nil
	})
	if err != nil {
		return models.Cart{}, Upstream("failed to clear cart", err)
	}

	s.emit(ctx, id, models.ActivityClearCart, nil)
	return cart, nil
}

func removeLine(cart *models.Cart, productID string) {
	for i := range cart.Items {
		if cart.Items[i].ProductID == productID {
			cart.Items = append(cart.Items[:i], cart.Items[i+1:]...)
			return
		}
	}
}

// emit records the audit entry for a successful mutation. A failed audit
// write is logged but does not undo the mutation.
func (s *CartService) emit(ctx context.Context, id Identity, activityType models.ActivityType, details models.ActivityDetails) {
	if err := s.activity.Record(ctx, id, activityType, details); err != nil {
		log.Printf("activity record error: %v", err)
	}
}

// asServiceError keeps tagged errors intact and wraps everything else as
// an upstream failure.
func asServiceError(err error, message string) error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Upstream(message, err)
}
