package models

import (
	"time"

	"gorm.io/gorm"
)

// Customer represents a pet owner in the system
type Customer struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	Name    string `gorm:"type:varchar(255)" json:"name"`
	Phone   string `gorm:"type:varchar(50)" json:"phone"`
	Email   string `gorm:"type:varchar(255);uniqueIndex" json:"email"`
	PetName string `gorm:"type:varchar(255)" json:"pet_name"`
	PetType string `gorm:"type:varchar(50)" json:"pet_type"` // e.g., "dog", "cat"

	// Relationships
	ServiceCases []ServiceCase `gorm:"foreignKey:CustomerID" json:"service_cases,omitempty"`
}
