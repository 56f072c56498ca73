package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Cart struct {
	CartID    uint       `gorm:"primaryKey" json:"-"`
	UserID    string     `gorm:"uniqueIndex" json:"user_id"` // Enforces ONE cart per user
	Items     []CartItem `gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE" json:"items"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// CartItem is a single product line. Title and UnitPrice are snapshots taken
// at add-to-cart time; later catalog changes do not affect them.
type CartItem struct {
	ID        uint            `gorm:"primaryKey" json:"-"`
	CartID    uint            `gorm:"index" json:"-"`
	ProductID string          `gorm:"index" json:"product_id"`
	Title     string          `json:"title"`
	UnitPrice decimal.Decimal `gorm:"type:numeric(10,2)" json:"unit_price"`
	Quantity  int             `json:"quantity"`
	AddedAt   time.Time       `json:"added_at"`
}

// Find returns the line for productID, or nil if the cart has none.
func (c *Cart) Find(productID string) *CartItem {
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			return &c.Items[i]
		}
	}
	return nil
}
