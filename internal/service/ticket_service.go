package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"seragon/internal/domain"
	"seragon/internal/logger"
	"seragon/internal/models"
	"seragon/internal/repository"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	ticketStatuses   = []string{domain.TicketOpen, domain.TicketInProgress, domain.TicketResolved, domain.TicketClosed}
	ticketPriorities = []string{domain.PriorityLow, domain.PriorityMedium, domain.PriorityHigh, domain.PriorityUrgent}
)

type TicketService struct {
	repo   *repository.TicketRepository
	notify *NotificationService
	now    func() time.Time
}

func NewTicketService(repo *repository.TicketRepository, notify *NotificationService) *TicketService {
	return &TicketService{repo: repo, notify: notify, now: time.Now}
}

type CreateTicketInput struct {
	Subject     string
	Description string
	Priority    string
}

func (s *TicketService) Create(ctx context.Context, userID string, in CreateTicketInput) (*models.SupportTicket, error) {
	subject := strings.TrimSpace(in.Subject)
	description := strings.TrimSpace(in.Description)
	if subject == "" || description == "" {
		return nil, fmt.Errorf("%w: subject and description are required", domain.ErrInvalidArgument)
	}
	priority := strings.ToLower(strings.TrimSpace(in.Priority))
	if priority == "" {
		priority = domain.PriorityMedium
	}
	if !slices.Contains(ticketPriorities, priority) {
		return nil, fmt.Errorf("%w: unknown priority %q", domain.ErrInvalidArgument, in.Priority)
	}
	t := &models.SupportTicket{
		UserID:      userID,
		Subject:     subject,
		Description: description,
		Status:      domain.TicketOpen,
		Priority:    priority,
	}
	for attempt := 0; ; attempt++ {
		t.ID = 0
		t.TicketNumber = humanNumber("TKT", s.now())
		err := s.repo.Create(ctx, t)
		if err == nil {
			return t, nil
		}
		if !errors.Is(err, repository.ErrTicketNumberTaken) || attempt > 0 {
			return nil, err
		}
	}
}

func (s *TicketService) ListMine(ctx context.Context, userID string) ([]models.SupportTicket, error) {
	return s.repo.ListByUserID(ctx, userID)
}

// Get returns a ticket with its messages to its owner or an admin.
func (s *TicketService) Get(ctx context.Context, actor Actor, number string) (*models.SupportTicket, error) {
	t, err := s.repo.GetByNumber(ctx, number)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: ticket %s", domain.ErrNotFound, number)
		}
		return nil, err
	}
	if t.UserID != actor.UserID && !actor.IsAdmin() {
		return nil, fmt.Errorf("%w: ticket belongs to another user", domain.ErrForbidden)
	}
	return t, nil
}

func (s *TicketService) AddMessage(ctx context.Context, actor Actor, number, message string) (*models.SupportTicketMessage, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, fmt.Errorf("%w: message is required", domain.ErrInvalidArgument)
	}
	t, err := s.Get(ctx, actor, number)
	if err != nil {
		return nil, err
	}
	if t.Status == domain.TicketClosed {
		return nil, fmt.Errorf("%w: ticket is closed", domain.ErrInvalidTransition)
	}
	m := &models.SupportTicketMessage{
		TicketID: t.ID,
		UserID:   actor.UserID,
		Message:  message,
		IsStaff:  actor.IsAdmin() && actor.UserID != t.UserID,
	}
	if err := s.repo.AddMessage(ctx, m); err != nil {
		return nil, err
	}
	if m.IsStaff && s.notify != nil {
		err := s.notify.Notify(ctx, t.UserID, domain.NotifTicketReply, "New reply on "+t.TicketNumber, t.Subject,
			map[string]interface{}{"ticketNumber": t.TicketNumber})
		if err != nil {
			logger.Warn(ctx, "ticket reply notification failed", zap.Error(err))
		}
	}
	return m, nil
}

type TicketPage struct {
	Tickets []models.SupportTicket `json:"tickets"`
	Total   int64                  `json:"total"`
	Limit   int                    `json:"limit"`
	Offset  int                    `json:"offset"`
}

func (s *TicketService) ListAll(ctx context.Context, actor Actor, status string, limit, offset int) (*TicketPage, error) {
	if !actor.IsAdmin() {
		return nil, fmt.Errorf("%w: admin access required", domain.ErrForbidden)
	}
	if status != "" && !slices.Contains(ticketStatuses, status) {
		return nil, fmt.Errorf("%w: unknown ticket status %q", domain.ErrInvalidArgument, status)
	}
	if limit <= 0 {
		limit = defaultAdminPageSize
	}
	if limit > maxAdminPageSize {
		limit = maxAdminPageSize
	}
	if offset < 0 {
		offset = 0
	}
	list, total, err := s.repo.ListAll(ctx, status, limit, offset)
	if err != nil {
		return nil, err
	}
	return &TicketPage{Tickets: list, Total: total, Limit: limit, Offset: offset}, nil
}

type UpdateTicketInput struct {
	Status     *string
	Priority   *string
	AssignedTo *string
}

// Update is the admin triage write. An empty AssignedTo clears the assignee.
func (s *TicketService) Update(ctx context.Context, actor Actor, id uint, in UpdateTicketInput) (*models.SupportTicket, error) {
	if !actor.IsAdmin() {
		return nil, fmt.Errorf("%w: admin access required", domain.ErrForbidden)
	}
	fields := map[string]interface{}{}
	if in.Status != nil {
		if !slices.Contains(ticketStatuses, *in.Status) {
			return nil, fmt.Errorf("%w: unknown ticket status %q", domain.ErrInvalidArgument, *in.Status)
		}
		fields["status"] = *in.Status
	}
	if in.Priority != nil {
		if !slices.Contains(ticketPriorities, *in.Priority) {
			return nil, fmt.Errorf("%w: unknown priority %q", domain.ErrInvalidArgument, *in.Priority)
		}
		fields["priority"] = *in.Priority
	}
	if in.AssignedTo != nil {
		if a := strings.TrimSpace(*in.AssignedTo); a != "" {
			fields["assigned_to"] = a
		} else {
			fields["assigned_to"] = nil
		}
	}
	if len(fields) == 0 {
		return nil, fmt.Errorf("%w: nothing to update", domain.ErrInvalidArgument)
	}
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: ticket %d", domain.ErrNotFound, id)
		}
		return nil, err
	}
	if err := s.repo.Update(ctx, id, fields); err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, id)
}
