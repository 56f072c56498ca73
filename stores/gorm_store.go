package stores

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/adilind/coffee-shop-api/models"
)

// GormStores bundles the Postgres-backed implementations sharing one
// connection pool.
type GormStores struct {
	Carts    *GormCartStore
	Orders   *GormOrderStore
	Activity *GormActivityStore
	Catalog  *GormCatalog
	Users    *GormUserStore
}

func NewGormStores(db *gorm.DB) *GormStores {
	return &GormStores{
		Carts:    &GormCartStore{db: db},
		Orders:   &GormOrderStore{db: db},
		Activity: &GormActivityStore{db: db},
		Catalog:  &GormCatalog{db: db},
		Users:    &GormUserStore{db: db},
	}
}

type GormCartStore struct {
	db *gorm.DB
}

func (s *GormCartStore) GetCart(ctx context.Context, userID string) (models.Cart, error) {
	var cart models.Cart
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		FirstOrCreate(&cart, models.Cart{UserID: userID}).Error
	if err != nil {
		return models.Cart{}, fmt.Errorf("fetch cart: %w", err)
	}
	if err := s.db.WithContext(ctx).
		Where("cart_id = ?", cart.CartID).
		Order("id ASC").
		Find(&cart.Items).Error; err != nil {
		return models.Cart{}, fmt.Errorf("fetch cart items: %w", err)
	}
	return cart, nil
}

// Mutate locks the cart row for the whole read-modify-write so two requests
// for the same user cannot interleave. Lines are replaced wholesale, which
// keeps insertion order stable via the serial id.
func (s *GormCartStore) Mutate(ctx context.Context, userID string, fn func(cart *models.Cart) error) (models.Cart, error) {
	var out models.Cart
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var cart models.Cart
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("user_id = ?", userID).
			FirstOrCreate(&cart, models.Cart{UserID: userID}).Error; err != nil {
			return err
		}
		if err := tx.Where("cart_id = ?", cart.CartID).
			Order("id ASC").
			Find(&cart.Items).Error; err != nil {
			return err
		}

		if err := fn(&cart); err != nil {
			return err
		}

		if err := tx.Where("cart_id = ?", cart.CartID).
			Delete(&models.CartItem{}).Error; err != nil {
			return err
		}
		for i := range cart.Items {
			cart.Items[i].ID = 0
			cart.Items[i].CartID = cart.CartID
		}
		if len(cart.Items) > 0 {
			if err := tx.Create(&cart.Items).Error; err != nil {
				return err
			}
		}
		if err := tx.Model(&models.Cart{}).
			Where("cart_id = ?", cart.CartID).
			Update("updated_at", time.Now()).Error; err != nil {
			return err
		}
		out = cart
		return nil
	})
	if err != nil {
		return models.Cart{}, err
	}
	return out, nil
}

type GormOrderStore struct {
	db *gorm.DB
}

func (s *GormOrderStore) Create(ctx context.Context, order *models.Order) error {
	if err := s.db.WithContext(ctx).Create(order).Error; err != nil {
		return fmt.Errorf("create order: %w", err)
	}
	return nil
}

func (s *GormOrderStore) Get(ctx context.Context, orderID string) (models.Order, error) {
	var order models.Order
	err := s.db.WithContext(ctx).
		Preload("Items").
		First(&order, "id = ?", orderID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.Order{}, ErrOrderNotFound
	}
	if err != nil {
		return models.Order{}, fmt.Errorf("fetch order: %w", err)
	}
	return order, nil
}

func (s *GormOrderStore) ListByUser(ctx context.Context, userID string) ([]models.Order, error) {
	var orders []models.Order
	if err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Preload("Items").
		Order("created_at DESC").
		Find(&orders).Error; err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return orders, nil
}

// TransitionFromPending locks the order row, rejects anything that is no
// longer pending, then persists whatever fn applied. Two concurrent calls
// for the same order therefore yield exactly one success.
func (s *GormOrderStore) TransitionFromPending(ctx context.Context, orderID string, fn func(order *models.Order)) (models.Order, error) {
	var out models.Order
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var order models.Order
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&order, "id = ?", orderID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrOrderNotFound
		}
		if err != nil {
			return err
		}
		if order.Status != models.OrderStatusPending {
			return ErrOrderNotPending
		}
		if err := tx.Where("order_id = ?", order.ID).
			Order("id ASC").
			Find(&order.Items).Error; err != nil {
			return err
		}

		fn(&order)

		if err := tx.Omit(clause.Associations).Save(&order).Error; err != nil {
			return err
		}
		out = order
		return nil
	})
	if err != nil {
		return models.Order{}, err
	}
	return out, nil
}

type GormActivityStore struct {
	db *gorm.DB
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike quotes LIKE metacharacters so a username prefix matches
// literally instead of as a pattern.
func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

func (s *GormActivityStore) Insert(ctx context.Context, entry *models.ActivityLog) error {
	if err := s.db.WithContext(ctx).Create(entry).Error; err != nil {
		return fmt.Errorf("insert activity: %w", err)
	}
	return nil
}

func (s *GormActivityStore) Query(ctx context.Context, filter ActivityFilter) ([]models.ActivityLog, error) {
	q := s.db.WithContext(ctx).Model(&models.ActivityLog{})
	if filter.UsernamePrefix != "" {
		q = q.Where(`username LIKE ? ESCAPE '\'`, escapeLike(filter.UsernamePrefix)+"%")
	}
	if filter.From != nil {
		q = q.Where("timestamp >= ?", *filter.From)
	}
	if filter.To != nil {
		q = q.Where("timestamp <= ?", *filter.To)
	}
	var entries []models.ActivityLog
	if err := q.Order("timestamp DESC").Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("query activity: %w", err)
	}
	return entries, nil
}

type GormCatalog struct {
	db *gorm.DB
}

func (s *GormCatalog) GetProduct(ctx context.Context, productID string) (models.Product, error) {
	var product models.Product
	err := s.db.WithContext(ctx).First(&product, "id = ?", productID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.Product{}, ErrProductNotFound
	}
	if err != nil {
		return models.Product{}, fmt.Errorf("fetch product: %w", err)
	}
	return product, nil
}

func (s *GormCatalog) ListProducts(ctx context.Context) ([]models.Product, error) {
	var products []models.Product
	if err := s.db.WithContext(ctx).Order("title ASC").Find(&products).Error; err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return products, nil
}

type GormUserStore struct {
	db *gorm.DB
}

func (s *GormUserStore) Create(ctx context.Context, user *models.User) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.User
		err := tx.Where("username = ? OR email = ?", user.Username, user.Email).
			First(&existing).Error
		if err == nil {
			return ErrUserExists
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		return tx.Create(user).Error
	})
}

func (s *GormUserStore) GetByUsername(ctx context.Context, username string) (models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Where("username = ?", username).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.User{}, ErrUserNotFound
	}
	if err != nil {
		return models.User{}, fmt.Errorf("fetch user: %w", err)
	}
	return user, nil
}
