package models

import (
	"time"

	"gorm.io/gorm"
)

// Case-level payment status, mirrored from the PaymentRecord by the
// reconciler. A case must never disagree with its payment record.
const (
	CasePaymentPending   = "pending"
	CasePaymentPaid      = "paid"
	CasePaymentFailed    = "failed"
	CasePaymentCancelled = "cancelled"
)

// ServiceCase represents a booked service for a customer
type ServiceCase struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	CustomerID        uint `gorm:"index" json:"customer_id"`
	ServiceOfferingID uint `gorm:"index" json:"service_offering_id"`

	Notes         string    `gorm:"type:text" json:"notes"`
	ScheduledAt   time.Time `json:"scheduled_at"`
	PaymentStatus string    `gorm:"type:varchar(20);default:'pending'" json:"payment_status"`

	// Relationships
	Customer Customer         `gorm:"foreignKey:CustomerID" json:"customer,omitempty"`
	Offering ServiceOffering  `gorm:"foreignKey:ServiceOfferingID" json:"offering,omitempty"`
	History  []ServiceHistory `gorm:"foreignKey:ServiceCaseID" json:"history,omitempty"`
}
