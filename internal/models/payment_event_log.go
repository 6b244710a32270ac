package models

import (
	"encoding/json"
	"time"
)

type PaymentGateway string

const (
	PaymentGatewayRazorpay PaymentGateway = "razorpay"
	PaymentGatewayDemo     PaymentGateway = "demo"
)

// PaymentEventLog is the audit trail of every payment event the reconciler
// received, including duplicates and conflicts. The idempotency key columns
// (external_order_id, external_payment_id, declared_outcome) are indexed for
// operator queries; dedup itself is enforced by the record's conditional
// status update, not here.
type PaymentEventLog struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`

	PaymentGateway    PaymentGateway `gorm:"type:varchar(50);not null" json:"payment_gateway"`
	ExternalOrderID   string         `gorm:"type:varchar(100);index:idx_event_idempotency_key,priority:1" json:"external_order_id"`
	ExternalPaymentID string         `gorm:"type:varchar(100);index:idx_event_idempotency_key,priority:2" json:"external_payment_id"`
	DeclaredOutcome   string         `gorm:"type:varchar(20);index:idx_event_idempotency_key,priority:3" json:"declared_outcome"`
	Source            string         `gorm:"type:varchar(20)" json:"source"` // "client-callback", "webhook", "sweep"
	Result            string         `gorm:"type:varchar(20)" json:"result"`

	RawPayload json.RawMessage `gorm:"type:jsonb" json:"raw_payload"`
}
