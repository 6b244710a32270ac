package models

import (
	"time"
)

// PaymentStatus is the lifecycle state of a PaymentRecord.
type PaymentStatus string

const (
	PaymentPending PaymentStatus = "pending"
	// PaymentVerified is the in-process stage between signature check and the
	// durable transition. It is never persisted: the row goes pending to
	// terminal in one conditional update, so a crash in between leaves the
	// row pending for the sweep worker to repair.
	PaymentVerified  PaymentStatus = "verified"
	PaymentCompleted PaymentStatus = "completed"
	PaymentFailed    PaymentStatus = "failed"
	PaymentCancelled PaymentStatus = "cancelled"
)

// Terminal reports whether no further transition is permitted.
func (s PaymentStatus) Terminal() bool {
	return s == PaymentCompleted || s == PaymentFailed || s == PaymentCancelled
}

// PaymentRecord is the local ledger entry, one per checkout attempt.
// Created pending by the order service, mutated only by the reconciler
// through a conditional status update, never deleted (audit trail) - hence
// no soft-delete column.
type PaymentRecord struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	ServiceCaseID   uint   `gorm:"index" json:"service_case_id"`
	ExternalOrderID string `gorm:"type:varchar(100);uniqueIndex;not null" json:"external_order_id"`
	// Empty until a payment is confirmed
	ExternalPaymentID string `gorm:"type:varchar(100);index" json:"external_payment_id"`

	Status PaymentStatus `gorm:"type:varchar(20);not null;index" json:"status"`
	// Amount in minor currency units (paise, cents)
	Amount   int64  `gorm:"not null" json:"amount"`
	Currency string `gorm:"type:varchar(3);not null" json:"currency"`

	// Payment instrument metadata, set on completion
	Method            string `gorm:"type:varchar(50)" json:"method"`
	InstrumentLast4   string `gorm:"type:varchar(4)" json:"instrument_last4"`
	InstrumentNetwork string `gorm:"type:varchar(50)" json:"instrument_network"`

	CustomerName    string `gorm:"type:varchar(255)" json:"customer_name"`
	CustomerEmail   string `gorm:"type:varchar(255)" json:"customer_email"`
	CustomerContact string `gorm:"type:varchar(50)" json:"customer_contact"`

	FailureReason string     `gorm:"type:text" json:"failure_reason"`
	CompletedAt   *time.Time `json:"completed_at,omitempty"`

	// Payment-link checkout, set when the record was created for a link
	PaymentLinkID  string `gorm:"type:varchar(100)" json:"payment_link_id"`
	PaymentLinkURL string `gorm:"type:varchar(255)" json:"payment_link_url"`
}
