package service

import (
	"context"
	"fmt"

	"seragon/internal/domain"
	"seragon/internal/logger"
	"seragon/internal/models"
	"seragon/internal/repository"

	"go.uber.org/zap"
	"gorm.io/datatypes"
)

// Pusher delivers live events to connected clients.
type Pusher interface {
	BroadcastToUser(userID string, payload interface{})
	BroadcastToRole(role string, payload interface{})
	BroadcastToUserAndRole(userID, role string, payload interface{})
}

type NotificationService struct {
	repo *repository.NotificationRepository
	push Pusher
}

func NewNotificationService(repo *repository.NotificationRepository, push Pusher) *NotificationService {
	return &NotificationService{repo: repo, push: push}
}

func (s *NotificationService) Notify(ctx context.Context, userID, notifType, title, body string, data map[string]interface{}) error {
	n := &models.Notification{
		UserID: userID,
		Type:   notifType,
		Title:  title,
		Body:   body,
		Data:   datatypes.JSONMap(data),
	}
	if err := s.repo.Create(ctx, n); err != nil {
		return err
	}
	if s.push != nil {
		s.push.BroadcastToUser(userID, map[string]interface{}{"type": "notification", "notification": n})
	}
	return nil
}

func (s *NotificationService) List(ctx context.Context, userID string, limit, offset int) ([]models.Notification, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.ListByUserID(ctx, userID, limit, offset)
}

func (s *NotificationService) MarkRead(ctx context.Context, id uint, userID string) error {
	ok, err := s.repo.MarkRead(ctx, id, userID)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: notification %d", domain.ErrNotFound, id)
	}
	return nil
}

type orderEvent struct {
	Type          string               `json:"type"`
	Event         string               `json:"event"`
	OrderID       uint                 `json:"orderId"`
	OrderNumber   string               `json:"orderNumber"`
	UserID        string               `json:"userId"`
	Status        domain.OrderStatus   `json:"status"`
	PaymentStatus domain.PaymentStatus `json:"paymentStatus"`
	PreviousState domain.OrderStatus   `json:"previousStatus,omitempty"`
	TotalAmount   models.Money         `json:"totalAmount"`
}

func newOrderEvent(event string, o *models.Order) orderEvent {
	return orderEvent{
		Type:          "order_status",
		Event:         event,
		OrderID:       o.ID,
		OrderNumber:   o.OrderNumber,
		UserID:        o.UserID,
		Status:        o.Status,
		PaymentStatus: o.PaymentStatus,
		TotalAmount:   o.TotalAmount,
	}
}

// OrderCreated tells admins a new order is waiting for payment.
func (s *NotificationService) OrderCreated(ctx context.Context, o *models.Order) {
	if s.push != nil {
		s.push.BroadcastToRole(domain.RoleAdmin, newOrderEvent(domain.NotifOrderCreated, o))
	}
}

func (s *NotificationService) PaymentClaimed(ctx context.Context, o *models.Order) {
	err := s.repo.Create(ctx, &models.Notification{
		UserID: o.UserID,
		Type:   domain.NotifPaymentClaimed,
		Title:  "Payment submitted",
		Body:   fmt.Sprintf("We received your payment details for order %s and will verify them shortly.", o.OrderNumber),
		Data:   datatypes.JSONMap{"orderId": o.ID, "orderNumber": o.OrderNumber},
	})
	if err != nil {
		logger.Warn(ctx, "notification write failed", zap.String("order_number", o.OrderNumber), zap.Error(err))
	}
	if s.push != nil {
		s.push.BroadcastToUserAndRole(o.UserID, domain.RoleAdmin, newOrderEvent(domain.NotifPaymentClaimed, o))
	}
}

func (s *NotificationService) OrderStatusChanged(ctx context.Context, o *models.Order, from domain.OrderStatus) {
	err := s.repo.Create(ctx, &models.Notification{
		UserID: o.UserID,
		Type:   domain.NotifOrderStatusChanged,
		Title:  "Order " + string(o.Status),
		Body:   fmt.Sprintf("Order %s is now %s.", o.OrderNumber, o.Status),
		Data: datatypes.JSONMap{
			"orderId":        o.ID,
			"orderNumber":    o.OrderNumber,
			"status":         string(o.Status),
			"paymentStatus":  string(o.PaymentStatus),
			"previousStatus": string(from),
		},
	})
	if err != nil {
		logger.Warn(ctx, "notification write failed", zap.String("order_number", o.OrderNumber), zap.Error(err))
	}
	if s.push != nil {
		ev := newOrderEvent(domain.NotifOrderStatusChanged, o)
		ev.PreviousState = from
		s.push.BroadcastToUserAndRole(o.UserID, domain.RoleAdmin, ev)
	}
}
