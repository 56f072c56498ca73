package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

type ActivityType string

const (
	ActivityLogin          ActivityType = "login"
	ActivityLogout         ActivityType = "logout"
	ActivityRegister       ActivityType = "register"
	ActivityAddToCart      ActivityType = "add-to-cart"
	ActivityUpdateCart     ActivityType = "update-cart"
	ActivityRemoveFromCart ActivityType = "remove-from-cart"
	ActivityClearCart      ActivityType = "clear-cart"
	ActivityCheckout       ActivityType = "checkout"
	ActivityPaymentSuccess ActivityType = "payment-success"
	ActivityPaymentFailure ActivityType = "payment-failure"
)

// ActivityDetails is a free-form key/value bag stored as a JSON column.
type ActivityDetails map[string]string

func (d ActivityDetails) Value() (driver.Value, error) {
	if d == nil {
		return "{}", nil
	}
	b, err := json.Marshal(d)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (d *ActivityDetails) Scan(value interface{}) error {
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, d)
	case string:
		return json.Unmarshal([]byte(v), d)
	case nil:
		*d = nil
		return nil
	default:
		return errors.New("unsupported activity details column type")
	}
}

// ActivityLog is an append-only audit record. Rows are never updated or deleted.
type ActivityLog struct {
	ID            uint            `gorm:"primaryKey" json:"id"`
	UserID        string          `gorm:"index" json:"user_id"`
	Username      string          `gorm:"index" json:"username"`
	ActivityType  ActivityType    `gorm:"type:VARCHAR(30);not null" json:"activity_type"`
	Details       ActivityDetails `gorm:"type:text" json:"details"`
	Timestamp     time.Time       `gorm:"index" json:"timestamp"`
	SourceAddress string          `json:"source_address"`
}
