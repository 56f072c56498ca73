package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Product struct {
	ID          string          `gorm:"primaryKey" json:"id"`
	Title       string          `gorm:"not null" json:"title"`
	Description string          `json:"description"`
	Price       decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"price"`
	Image       string          `json:"image"`
	InStock     bool            `gorm:"default:true" json:"in_stock"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}
