package models

import (
	"time"
)

// PaymentOrder is the gateway-side order identity. Immutable once created;
// written only by the order service.
type PaymentOrder struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`

	ExternalOrderID string `gorm:"type:varchar(100);uniqueIndex;not null" json:"external_order_id"`
	// Amount in minor currency units (paise, cents)
	Amount   int64  `gorm:"not null" json:"amount"`
	Currency string `gorm:"type:varchar(3);not null" json:"currency"`
	Receipt  string `gorm:"type:varchar(100)" json:"receipt"`
}
