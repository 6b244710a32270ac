package models

import (
	"time"

	"gorm.io/gorm"
)

// ServiceOffering is a priced catalog entry a customer can book
type ServiceOffering struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	Name        string `gorm:"type:varchar(255)" json:"name"`
	Description string `gorm:"type:text" json:"description"`
	Category    string `gorm:"type:varchar(50)" json:"category"` // e.g., "insurance", "grooming", "vet"
	// Price in minor currency units (paise, cents). Integer arithmetic only.
	Price    int64  `gorm:"not null" json:"price"`
	Currency string `gorm:"type:varchar(3)" json:"currency"`
	IsActive bool   `gorm:"default:true" json:"is_active"`

	// Relationships
	ServiceCases []ServiceCase `gorm:"foreignKey:ServiceOfferingID" json:"service_cases,omitempty"`
}
