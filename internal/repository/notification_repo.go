package repository

import (
	"context"
	"time"

	"seragon/internal/models"

	"gorm.io/gorm"
)

type NotificationRepository struct {
	db *gorm.DB
}

func NewNotificationRepository(db *gorm.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

func (r *NotificationRepository) Create(ctx context.Context, n *models.Notification) error {
	return r.db.WithContext(ctx).Create(n).Error
}

func (r *NotificationRepository) ListByUserID(ctx context.Context, userID string, limit, offset int) ([]models.Notification, error) {
	var list []models.Notification
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at DESC, id DESC").Limit(limit).Offset(offset).Find(&list).Error
	return list, err
}

// MarkRead reports whether a notification owned by userID was updated.
func (r *NotificationRepository) MarkRead(ctx context.Context, id uint, userID string) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.Notification{}).
		Where("id = ? AND user_id = ?", id, userID).
		Update("read_at", time.Now())
	return res.RowsAffected > 0, res.Error
}
