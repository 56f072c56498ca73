package stores

import (
	"context"
	"errors"
	"time"

	"github.com/adilind/coffee-shop-api/models"
)

var (
	ErrProductNotFound = errors.New("product not found")
	ErrOrderNotFound   = errors.New("order not found")
	ErrOrderNotPending = errors.New("order is not pending")
	ErrUserNotFound    = errors.New("user not found")
	ErrUserExists      = errors.New("user already exists")
	ErrTokenNotFound   = errors.New("checkout token not found or expired")
)

// CartStore persists one cart per user. Mutate runs fn under the owner's
// write lock so concurrent mutations of the same cart never interleave;
// different users' carts are independent.
type CartStore interface {
	GetCart(ctx context.Context, userID string) (models.Cart, error)
	Mutate(ctx context.Context, userID string, fn func(cart *models.Cart) error) (models.Cart, error)
}

// OrderStore is an append-create ledger. TransitionFromPending atomically
// checks that the order is still pending before applying fn; a concurrent
// second transition observes ErrOrderNotPending.
type OrderStore interface {
	Create(ctx context.Context, order *models.Order) error
	Get(ctx context.Context, orderID string) (models.Order, error)
	ListByUser(ctx context.Context, userID string) ([]models.Order, error)
	TransitionFromPending(ctx context.Context, orderID string, fn func(order *models.Order)) (models.Order, error)
}

type ActivityFilter struct {
	UsernamePrefix string
	From           *time.Time
	To             *time.Time
}

// ActivityStore is append-only; Query returns entries newest first.
type ActivityStore interface {
	Insert(ctx context.Context, entry *models.ActivityLog) error
	Query(ctx context.Context, filter ActivityFilter) ([]models.ActivityLog, error)
}

// CatalogReader is the read-only product lookup used to validate cart adds.
type CatalogReader interface {
	GetProduct(ctx context.Context, productID string) (models.Product, error)
	ListProducts(ctx context.Context) ([]models.Product, error)
}

type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	GetByUsername(ctx context.Context, username string) (models.User, error)
}

// TokenStore maps short-lived checkout tokens to order ids. Resolve after
// the TTL has elapsed returns ErrTokenNotFound.
type TokenStore interface {
	Put(ctx context.Context, token, orderID string, ttl time.Duration) error
	Resolve(ctx context.Context, token string) (string, error)
}
