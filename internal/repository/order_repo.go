package repository

import (
	"context"
	"errors"
	"time"

	"seragon/internal/domain"
	"seragon/internal/models"

	"gorm.io/gorm"
)

var (
	ErrOrderNumberTaken = errors.New("order number already in use")
	ErrCheckoutKeyTaken = errors.New("checkout key already used")
	ErrStaleOrder       = errors.New("order status changed concurrently")
)

type OrderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

// Create persists the order with its items and, when key is set, the checkout key
// in a single transaction. The key is claimed first so a concurrent duplicate
// checkout fails with ErrCheckoutKeyTaken before an order row is written. Keys
// that expired before key.CreatedAt are reclaimed.
func (r *OrderRepository) Create(ctx context.Context, order *models.Order, key *models.CheckoutKey) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if key != nil {
			if err := tx.Where("user_id = ? AND token = ? AND expires_at <= ?", key.UserID, key.Token, key.CreatedAt).
				Delete(&models.CheckoutKey{}).Error; err != nil {
				return err
			}
			if err := tx.Create(key).Error; err != nil {
				if errors.Is(err, gorm.ErrDuplicatedKey) {
					return ErrCheckoutKeyTaken
				}
				return err
			}
		}
		if err := tx.Create(order).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrOrderNumberTaken
			}
			return err
		}
		if key != nil {
			key.OrderID = order.ID
			if err := tx.Model(key).Update("order_id", order.ID).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// FindCheckoutKey returns the live key record, or nil when it is missing or expired.
func (r *OrderRepository) FindCheckoutKey(ctx context.Context, userID, token string, now time.Time) (*models.CheckoutKey, error) {
	var k models.CheckoutKey
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND token = ? AND expires_at > ?", userID, token, now).
		First(&k).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &k, nil
}

func (r *OrderRepository) GetByID(ctx context.Context, id uint) (*models.Order, error) {
	var o models.Order
	err := r.db.WithContext(ctx).Preload("Items").First(&o, id).Error
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *OrderRepository) GetByOrderNumber(ctx context.Context, number string) (*models.Order, error) {
	var o models.Order
	err := r.db.WithContext(ctx).Preload("Items").Where("order_number = ?", number).First(&o).Error
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// ListByUserID returns a customer's orders, newest first.
func (r *OrderRepository) ListByUserID(ctx context.Context, userID string) ([]models.Order, error) {
	var list []models.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Find(&list).Error
	return list, err
}

// ListAll returns the global order view with the owning user attached.
func (r *OrderRepository) ListAll(ctx context.Context, status string, limit, offset int) ([]models.Order, int64, error) {
	q := r.db.WithContext(ctx).Model(&models.Order{})
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var list []models.Order
	err := q.Preload("Items").Preload("User").
		Order("created_at DESC, id DESC").
		Limit(limit).Offset(offset).
		Find(&list).Error
	return list, total, err
}

// ApplyPaymentClaim records the customer's transaction reference and moves the
// order to processing/pending_verification, provided its status is still from.
func (r *OrderRepository) ApplyPaymentClaim(ctx context.Context, id uint, from domain.OrderStatus, reference string) error {
	res := r.db.WithContext(ctx).Model(&models.Order{}).
		Where("id = ? AND status = ?", id, from).
		Updates(map[string]interface{}{
			"payment_reference": reference,
			"status":            domain.OrderProcessing,
			"payment_status":    domain.PaymentPendingVerification,
			"updated_at":        time.Now(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrStaleOrder
	}
	return nil
}

// UpdateStatus is a compare-and-set on the order status.
func (r *OrderRepository) UpdateStatus(ctx context.Context, id uint, from, to domain.OrderStatus, payment domain.PaymentStatus) error {
	res := r.db.WithContext(ctx).Model(&models.Order{}).
		Where("id = ? AND status = ?", id, from).
		Updates(map[string]interface{}{
			"status":         to,
			"payment_status": payment,
			"updated_at":     time.Now(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrStaleOrder
	}
	return nil
}

func (r *OrderRepository) SetPaymentProof(ctx context.Context, id uint, url string) error {
	return r.db.WithContext(ctx).Model(&models.Order{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"payment_proof_url": url, "updated_at": time.Now()}).Error
}
