package stores

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/adilind/coffee-shop-api/models"
)

// MemoryStores is the dependency-free driver used by the unit tests and by
// STORE_DRIVER=memory dev runs. Semantics mirror the Postgres driver: one
// cart per user with serialized mutations, an exactly-once pending
// transition, append-only activity.
type MemoryStores struct {
	Carts    *MemoryCartStore
	Orders   *MemoryOrderStore
	Activity *MemoryActivityStore
	Catalog  *MemoryCatalog
	Users    *MemoryUserStore
}

func NewMemoryStores() *MemoryStores {
	return &MemoryStores{
		Carts:    NewMemoryCartStore(),
		Orders:   NewMemoryOrderStore(),
		Activity: &MemoryActivityStore{},
		Catalog:  &MemoryCatalog{products: make(map[string]models.Product)},
		Users:    &MemoryUserStore{users: make(map[string]models.User)},
	}
}

type MemoryCartStore struct {
	mu    sync.Mutex
	carts map[string]*models.Cart
	// locks serializes read-modify-write per user. One entry per cart in
	// carts, never evicted: a goroutine may still hold a handed-out mutex.
	locks map[string]*sync.Mutex
	seq   uint
}

func NewMemoryCartStore() *MemoryCartStore {
	return &MemoryCartStore{
		carts: make(map[string]*models.Cart),
		locks: make(map[string]*sync.Mutex),
	}
}

func (s *MemoryCartStore) userLock(userID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[userID]
	if !ok {
		l = &sync.Mutex{}
		s.locks[userID] = l
	}
	return l
}

func (s *MemoryCartStore) load(userID string) *models.Cart {
	s.mu.Lock()
	defer s.mu.Unlock()
	cart, ok := s.carts[userID]
	if !ok {
		s.seq++
		cart = &models.Cart{
			CartID:    s.seq,
			UserID:    userID,
			CreatedAt: time.Now(),
			UpdatedAt: time.Now(),
		}
		s.carts[userID] = cart
	}
	return cart
}

func (s *MemoryCartStore) GetCart(_ context.Context, userID string) (models.Cart, error) {
	l := s.userLock(userID)
	l.Lock()
	defer l.Unlock()
	return copyCart(s.load(userID)), nil
}

func (s *MemoryCartStore) Mutate(_ context.Context, userID string, fn func(cart *models.Cart) error) (models.Cart, error) {
	l := s.userLock(userID)
	l.Lock()
	defer l.Unlock()

	cart := s.load(userID)
	scratch := copyCart(cart)
	if err := fn(&scratch); err != nil {
		return models.Cart{}, err
	}
	scratch.UpdatedAt = time.Now()
	*cart = copyCart(&scratch)
	return scratch, nil
}

func copyCart(c *models.Cart) models.Cart {
	out := *c
	out.Items = append([]models.CartItem(nil), c.Items...)
	return out
}

type MemoryOrderStore struct {
	mu     sync.Mutex
	orders []models.Order
}

func NewMemoryOrderStore() *MemoryOrderStore {
	return &MemoryOrderStore{}
}

func (s *MemoryOrderStore) Create(_ context.Context, order *models.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orders = append(s.orders, copyOrder(order))
	return nil
}

func (s *MemoryOrderStore) find(orderID string) *models.Order {
	for i := range s.orders {
		if s.orders[i].ID == orderID {
			return &s.orders[i]
		}
	}
	return nil
}

func (s *MemoryOrderStore) Get(_ context.Context, orderID string) (models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	order := s.find(orderID)
	if order == nil {
		return models.Order{}, ErrOrderNotFound
	}
	return copyOrder(order), nil
}

func (s *MemoryOrderStore) ListByUser(_ context.Context, userID string) ([]models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Order
	for i := range s.orders {
		if s.orders[i].UserID == userID {
			out = append(out, copyOrder(&s.orders[i]))
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (s *MemoryOrderStore) TransitionFromPending(_ context.Context, orderID string, fn func(order *models.Order)) (models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	order := s.find(orderID)
	if order == nil {
		return models.Order{}, ErrOrderNotFound
	}
	if order.Status != models.OrderStatusPending {
		return models.Order{}, ErrOrderNotPending
	}
	fn(order)
	return copyOrder(order), nil
}

func copyOrder(o *models.Order) models.Order {
	out := *o
	out.Items = append([]models.OrderItem(nil), o.Items...)
	if o.Payment != nil {
		receipt := *o.Payment
		out.Payment = &receipt
	}
	if o.CompletedAt != nil {
		at := *o.CompletedAt
		out.CompletedAt = &at
	}
	return out
}

type MemoryActivityStore struct {
	mu      sync.Mutex
	entries []models.ActivityLog
	seq     uint
}

func (s *MemoryActivityStore) Insert(_ context.Context, entry *models.ActivityLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	entry.ID = s.seq
	s.entries = append(s.entries, *entry)
	return nil
}

func (s *MemoryActivityStore) Query(_ context.Context, filter ActivityFilter) ([]models.ActivityLog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.ActivityLog
	for _, e := range s.entries {
		if filter.UsernamePrefix != "" && !strings.HasPrefix(e.Username, filter.UsernamePrefix) {
			continue
		}
		if filter.From != nil && e.Timestamp.Before(*filter.From) {
			continue
		}
		if filter.To != nil && e.Timestamp.After(*filter.To) {
			continue
		}
		out = append(out, e)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.After(out[j].Timestamp)
	})
	return out, nil
}

type MemoryCatalog struct {
	mu       sync.RWMutex
	products map[string]models.Product
}

func (s *MemoryCatalog) Seed(products []models.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range products {
		s.products[p.ID] = p
	}
}

func (s *MemoryCatalog) GetProduct(_ context.Context, productID string) (models.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.products[productID]
	if !ok {
		return models.Product{}, ErrProductNotFound
	}
	return p, nil
}

func (s *MemoryCatalog) ListProducts(_ context.Context) ([]models.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Product, 0, len(s.products))
	for _, p := range s.products {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Title < out[j].Title })
	return out, nil
}

type MemoryUserStore struct {
	mu    sync.Mutex
	users map[string]models.User
}

func (s *MemoryUserStore) Create(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Username == user.Username || u.Email == user.Email {
			return ErrUserExists
		}
	}
	s.users[user.Username] = *user
	return nil
}

func (s *MemoryUserStore) GetByUsername(_ context.Context, username string) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[username]
	if !ok {
		return models.User{}, ErrUserNotFound
	}
	return u, nil
}
