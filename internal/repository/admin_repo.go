package repository

import (
	"context"

	"seragon/internal/domain"
	"seragon/internal/models"

	"gorm.io/gorm"
)

type DashboardStats struct {
	TotalOrders    int64        `json:"totalOrders"`
	TotalRevenue   models.Money `json:"totalRevenue"`
	ActiveServices int64        `json:"activeServices"`
	OpenTickets    int64        `json:"openTickets"`
}

type AdminRepository struct {
	db *gorm.DB
}

func NewAdminRepository(db *gorm.DB) *AdminRepository {
	return &AdminRepository{db: db}
}

// GetDashboardStats scopes orders and tickets to userID when it is non-empty.
// Revenue only counts orders whose payment was verified. Without a user scope,
// open tickets means tickets still in the open status.
func (r *AdminRepository) GetDashboardStats(ctx context.Context, userID string) (*DashboardStats, error) {
	db := r.db.WithContext(ctx)
	var s DashboardStats

	orders := db.Model(&models.Order{})
	if userID != "" {
		orders = orders.Where("user_id = ?", userID)
	}
	if err := orders.Count(&s.TotalOrders).Error; err != nil {
		return nil, err
	}

	var rev struct{ Total models.Money }
	revenue := db.Model(&models.Order{}).
		Select("COALESCE(SUM(total_amount), 0) AS total").
		Where("payment_status = ?", domain.PaymentSucceeded)
	if userID != "" {
		revenue = revenue.Where("user_id = ?", userID)
	}
	if err := revenue.Scan(&rev).Error; err != nil {
		return nil, err
	}
	s.TotalRevenue = models.NewMoney(rev.Total.Decimal)

	if err := db.Model(&models.Service{}).Where("is_active = ?", true).Count(&s.ActiveServices).Error; err != nil {
		return nil, err
	}

	tickets := db.Model(&models.SupportTicket{})
	if userID != "" {
		tickets = tickets.Where("user_id = ? AND status IN ?", userID, []string{domain.TicketOpen, domain.TicketInProgress})
	} else {
		tickets = tickets.Where("status = ?", domain.TicketOpen)
	}
	if err := tickets.Count(&s.OpenTickets).Error; err != nil {
		return nil, err
	}
	return &s, nil
}
