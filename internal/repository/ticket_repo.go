package repository

import (
	"context"
	"errors"
	"time"

	"seragon/internal/models"

	"gorm.io/gorm"
)

var ErrTicketNumberTaken = errors.New("ticket number already in use")

type TicketRepository struct {
	db *gorm.DB
}

func NewTicketRepository(db *gorm.DB) *TicketRepository {
	return &TicketRepository{db: db}
}

func (r *TicketRepository) Create(ctx context.Context, t *models.SupportTicket) error {
	err := r.db.WithContext(ctx).Create(t).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrTicketNumberTaken
	}
	return err
}

func (r *TicketRepository) ListByUserID(ctx context.Context, userID string) ([]models.SupportTicket, error) {
	var list []models.SupportTicket
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at DESC, id DESC").Find(&list).Error
	return list, err
}

func (r *TicketRepository) GetByID(ctx context.Context, id uint) (*models.SupportTicket, error) {
	var t models.SupportTicket
	err := r.db.WithContext(ctx).First(&t, id).Error
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// GetByNumber loads a ticket with its conversation in posting order.
func (r *TicketRepository) GetByNumber(ctx context.Context, number string) (*models.SupportTicket, error) {
	var t models.SupportTicket
	err := r.db.WithContext(ctx).
		Preload("Messages", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC, id ASC") }).
		Where("ticket_number = ?", number).
		First(&t).Error
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *TicketRepository) ListAll(ctx context.Context, status string, limit, offset int) ([]models.SupportTicket, int64, error) {
	q := r.db.WithContext(ctx).Model(&models.SupportTicket{})
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var list []models.SupportTicket
	err := q.Preload("User").Order("created_at DESC, id DESC").Limit(limit).Offset(offset).Find(&list).Error
	return list, total, err
}

func (r *TicketRepository) Update(ctx context.Context, id uint, fields map[string]interface{}) error {
	fields["updated_at"] = time.Now()
	return r.db.WithContext(ctx).Model(&models.SupportTicket{}).Where("id = ?", id).Updates(fields).Error
}

// AddMessage appends to the conversation and touches the ticket in one transaction.
func (r *TicketRepository) AddMessage(ctx context.Context, m *models.SupportTicketMessage) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(m).Error; err != nil {
			return err
		}
		return tx.Model(&models.SupportTicket{}).Where("id = ?", m.TicketID).Update("updated_at", time.Now()).Error
	})
}
