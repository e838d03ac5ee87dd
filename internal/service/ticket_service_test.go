package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"seragon/internal/domain"
	"seragon/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pushed struct {
	target  string
	payload interface{}
}

type fakePusher struct {
	mu   sync.Mutex
	sent []pushed
}

func (p *fakePusher) record(target string, payload interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sent = append(p.sent, pushed{target: target, payload: payload})
}

func (p *fakePusher) BroadcastToUser(userID string, payload interface{}) {
	p.record("user:"+userID, payload)
}

func (p *fakePusher) BroadcastToRole(role string, payload interface{}) {
	p.record("role:"+role, payload)
}

func (p *fakePusher) BroadcastToUserAndRole(userID, role string, payload interface{}) {
	p.record("user:"+userID+"+role:"+role, payload)
}

func (p *fakePusher) targets() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.sent))
	for _, s := range p.sent {
		out = append(out, s.target)
	}
	return out
}

func newTicketFixture(t *testing.T) (*TicketService, *NotificationService, *fakePusher) {
	t.Helper()
	db := newTestDB(t)
	push := &fakePusher{}
	notify := NewNotificationService(repository.NewNotificationRepository(db), push)
	return NewTicketService(repository.NewTicketRepository(db), notify), notify, push
}

func TestTicketCreate(t *testing.T) {
	svc, _, _ := newTicketFixture(t)
	ctx := context.Background()

	tk, err := svc.Create(ctx, customer.UserID, CreateTicketInput{Subject: " Server down ", Description: "It crashed"})
	require.NoError(t, err)
	assert.Regexp(t, `^TKT-\d{8}-[0-9A-F]{8}$`, tk.TicketNumber)
	assert.Equal(t, "Server down", tk.Subject)
	assert.Equal(t, domain.TicketOpen, tk.Status)
	assert.Equal(t, domain.PriorityMedium, tk.Priority)

	_, err = svc.Create(ctx, customer.UserID, CreateTicketInput{Subject: "x", Description: "y", Priority: "whenever"})
	assert.True(t, errors.Is(err, domain.ErrInvalidArgument))
	_, err = svc.Create(ctx, customer.UserID, CreateTicketInput{Subject: "", Description: "y"})
	assert.True(t, errors.Is(err, domain.ErrInvalidArgument))

	mine, err := svc.ListMine(ctx, customer.UserID)
	require.NoError(t, err)
	assert.Len(t, mine, 1)
	theirs, err := svc.ListMine(ctx, intruder.UserID)
	require.NoError(t, err)
	assert.Empty(t, theirs)
}

func TestTicketConversation(t *testing.T) {
	svc, notify, push := newTicketFixture(t)
	ctx := context.Background()
	tk, err := svc.Create(ctx, customer.UserID, CreateTicketInput{Subject: "Plugin help", Description: "Need a hand", Priority: domain.PriorityHigh})
	require.NoError(t, err)

	_, err = svc.Get(ctx, intruder, tk.TicketNumber)
	assert.True(t, errors.Is(err, domain.ErrForbidden))
	_, err = svc.AddMessage(ctx, intruder, tk.TicketNumber, "hi")
	assert.True(t, errors.Is(err, domain.ErrForbidden))
	_, err = svc.Get(ctx, customer, "TKT-00000000-NONE")
	assert.True(t, errors.Is(err, domain.ErrNotFound))

	m, err := svc.AddMessage(ctx, customer, tk.TicketNumber, "any update?")
	require.NoError(t, err)
	assert.False(t, m.IsStaff)
	assert.Empty(t, push.targets())

	m, err = svc.AddMessage(ctx, staff, tk.TicketNumber, "on it")
	require.NoError(t, err)
	assert.True(t, m.IsStaff)
	assert.Equal(t, []string{"user:" + customer.UserID}, push.targets())

	got, err := svc.Get(ctx, customer, tk.TicketNumber)
	require.NoError(t, err)
	assert.Len(t, got.Messages, 2)

	notes, err := notify.List(ctx, customer.UserID, 0, 0)
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, domain.NotifTicketReply, notes[0].Type)
	assert.Equal(t, tk.TicketNumber, notes[0].Data["ticketNumber"])

	_, err = svc.AddMessage(ctx, customer, tk.TicketNumber, "   ")
	assert.True(t, errors.Is(err, domain.ErrInvalidArgument))
}

func TestTicketAdminTriage(t *testing.T) {
	svc, _, _ := newTicketFixture(t)
	ctx := context.Background()
	tk, err := svc.Create(ctx, customer.UserID, CreateTicketInput{Subject: "Refund", Description: "Wrong plan"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, intruder.UserID, CreateTicketInput{Subject: "Logo", Description: "Colour change"})
	require.NoError(t, err)

	_, err = svc.ListAll(ctx, customer, "", 10, 0)
	assert.True(t, errors.Is(err, domain.ErrForbidden))
	page, err := svc.ListAll(ctx, staff, domain.TicketOpen, 10, 0)
	require.NoError(t, err)
	assert.EqualValues(t, 2, page.Total)
	_, err = svc.ListAll(ctx, staff, "archived", 10, 0)
	assert.True(t, errors.Is(err, domain.ErrInvalidArgument))

	status, assignee := domain.TicketInProgress, "local:admin@seragon.test"
	updated, err := svc.Update(ctx, staff, tk.ID, UpdateTicketInput{Status: &status, AssignedTo: &assignee})
	require.NoError(t, err)
	assert.Equal(t, domain.TicketInProgress, updated.Status)
	require.NotNil(t, updated.AssignedTo)
	assert.Equal(t, assignee, *updated.AssignedTo)

	empty := ""
	updated, err = svc.Update(ctx, staff, tk.ID, UpdateTicketInput{AssignedTo: &empty})
	require.NoError(t, err)
	assert.Nil(t, updated.AssignedTo)

	_, err = svc.Update(ctx, customer, tk.ID, UpdateTicketInput{Status: &status})
	assert.True(t, errors.Is(err, domain.ErrForbidden))
	_, err = svc.Update(ctx, staff, tk.ID, UpdateTicketInput{})
	assert.True(t, errors.Is(err, domain.ErrInvalidArgument))
	_, err = svc.Update(ctx, staff, 9999, UpdateTicketInput{Status: &status})
	assert.True(t, errors.Is(err, domain.ErrNotFound))

	closed := domain.TicketClosed
	_, err = svc.Update(ctx, staff, tk.ID, UpdateTicketInput{Status: &closed})
	require.NoError(t, err)
	_, err = svc.AddMessage(ctx, customer, tk.TicketNumber, "hello?")
	assert.True(t, errors.Is(err, domain.ErrInvalidTransition))
	got, err := svc.Get(ctx, staff, tk.TicketNumber)
	require.NoError(t, err)
	assert.Empty(t, got.Messages)
}
