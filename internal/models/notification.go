package models

import (
	"time"

	"gorm.io/datatypes"
)

type Notification struct {
	ID        uint              `gorm:"primaryKey" json:"id"`
	UserID    string            `gorm:"size:191;not null;index" json:"userId"`
	Type      string            `gorm:"size:50;not null;index" json:"type"`
	Title     string            `gorm:"size:255" json:"title"`
	Body      string            `gorm:"type:text" json:"body"`
	Data      datatypes.JSONMap `json:"data,omitempty"`
	ReadAt    *time.Time        `json:"readAt"`
	CreatedAt time.Time         `json:"createdAt"`
}

func (Notification) TableName() string {
	return "notifications"
}
