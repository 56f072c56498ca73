package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"   // Created by checkout, awaiting payment
	OrderStatusCompleted OrderStatus = "completed" // Paid successfully
	OrderStatusCancelled OrderStatus = "cancelled" // Cancelled before payment
	OrderStatusFailed    OrderStatus = "failed"    // Abandoned after a terminal payment rejection
)

// Terminal reports whether s permits no further transitions.
func (s OrderStatus) Terminal() bool {
	return s == OrderStatusCompleted || s == OrderStatusCancelled || s == OrderStatusFailed
}

type Order struct {
	ID          string          `gorm:"primaryKey" json:"id"`
	UserID      string          `gorm:"index;not null" json:"user_id"`
	Items       []OrderItem     `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items"`
	Subtotal    decimal.Decimal `gorm:"type:numeric(10,2)" json:"subtotal"`
	Tax         decimal.Decimal `gorm:"type:numeric(10,2)" json:"tax"`
	Shipping    decimal.Decimal `gorm:"type:numeric(10,2)" json:"shipping"`
	TotalAmount decimal.Decimal `gorm:"type:numeric(10,2)" json:"total_amount"`
	Customer    CustomerInfo    `gorm:"embedded;embeddedPrefix:customer_" json:"customer"`
	Status      OrderStatus     `gorm:"type:VARCHAR(20);default:'pending'" json:"status"`
	Payment     *PaymentReceipt `gorm:"embedded;embeddedPrefix:payment_" json:"payment,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	CompletedAt *time.Time      `json:"completed_at,omitempty"`
}

// OrderItem is an immutable snapshot of a cart line at checkout time.
type OrderItem struct {
	ID           uint            `gorm:"primaryKey" json:"-"`
	OrderID      string          `gorm:"index" json:"-"`
	ProductID    string          `json:"product_id"`
	Title        string          `json:"title"`
	UnitPrice    decimal.Decimal `gorm:"type:numeric(10,2)" json:"unit_price"`
	Quantity     int             `json:"quantity"`
	LineSubtotal decimal.Decimal `gorm:"type:numeric(10,2)" json:"line_subtotal"`
}

type CustomerInfo struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Address string `json:"address"`
	Phone   string `json:"phone,omitempty"`
}

type PaymentReceipt struct {
	Method        string    `json:"method"`
	MaskedLast4   string    `json:"masked_last4"`
	TransactionID string    `json:"transaction_id"`
	ProcessedAt   time.Time `json:"processed_at"`
}
