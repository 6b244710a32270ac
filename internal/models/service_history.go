package models

import (
	"time"
)

// ServiceHistory records a payment outcome applied to a service case.
// Rows are append-only; the reconciler writes one per terminal transition
// inside the same transaction as the PaymentRecord update.
type ServiceHistory struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`

	ServiceCaseID uint `gorm:"index" json:"service_case_id"`
	CustomerID    uint `gorm:"index" json:"customer_id"`

	PaymentStatus     string `gorm:"type:varchar(20)" json:"payment_status"`
	ExternalPaymentID string `gorm:"type:varchar(100)" json:"external_payment_id"`
	AmountPaid        int64  `json:"amount_paid"`
	Currency          string `gorm:"type:varchar(3)" json:"currency"`
	Channel           string `gorm:"type:varchar(100)" json:"channel"` // e.g., "card", "upi", "netbanking"

	// Relationships
	ServiceCase ServiceCase `gorm:"foreignKey:ServiceCaseID" json:"service_case,omitempty"`
	Customer    Customer    `gorm:"foreignKey:CustomerID" json:"customer,omitempty"`
}
