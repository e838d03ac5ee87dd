package models

import (
	"time"

	"gorm.io/datatypes"
)

type AuditLog struct {
	ID         uint              `gorm:"primaryKey" json:"id"`
	UserID     *string           `gorm:"size:191;index" json:"userId"`
	Action     string            `gorm:"size:100;not null;index" json:"action"`
	Resource   string            `gorm:"size:100;index" json:"resource"`
	ResourceID string            `gorm:"size:100;index" json:"resourceId"`
	IP         string            `gorm:"size:45" json:"ip"`
	UserAgent  string            `gorm:"size:512" json:"userAgent"`
	Metadata   datatypes.JSONMap `json:"metadata,omitempty"`
	CreatedAt  time.Time         `json:"createdAt"`
}

func (AuditLog) TableName() string {
	return "audit_logs"
}
