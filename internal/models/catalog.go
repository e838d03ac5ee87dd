package models

import (
	"time"

	"gorm.io/datatypes"
)

type ServiceCategory struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"size:255;not null;uniqueIndex" json:"name"`
	Description string    `gorm:"type:text" json:"description"`
	Icon        string    `gorm:"size:64" json:"icon"`
	CreatedAt   time.Time `json:"createdAt"`
}

func (ServiceCategory) TableName() string {
	return "service_categories"
}

// Service is a purchasable catalog entry. Price is authoritative at checkout time.
type Service struct {
	ID              uint              `gorm:"primaryKey" json:"id"`
	CategoryID      uint              `gorm:"not null;index" json:"categoryId"`
	Name            string            `gorm:"size:255;not null" json:"name"`
	Description     string            `gorm:"type:text" json:"description"`
	Price           Money             `gorm:"type:decimal(10,2);not null" json:"price"`
	IsRecurring     bool              `gorm:"not null" json:"isRecurring"`
	RecurringPeriod string            `gorm:"size:20" json:"recurringPeriod,omitempty"` // monthly | yearly
	IsActive        bool              `gorm:"not null;index" json:"isActive"`
	Metadata        datatypes.JSONMap `json:"metadata,omitempty"`
	CreatedAt       time.Time         `json:"createdAt"`
	UpdatedAt       time.Time         `json:"updatedAt"`

	Category *ServiceCategory `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
}

func (Service) TableName() string {
	return "services"
}
