package service

import (
	"context"
	"errors"
	"testing"

	"seragon/internal/domain"
	"seragon/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotificationService_OrderLifecycleEvents(t *testing.T) {
	f := newOrderFixture(t)
	push := &fakePusher{}
	notify := NewNotificationService(repository.NewNotificationRepository(f.db), push)
	f.svc.SetEvents(notify)
	ctx := context.Background()

	o := f.checkout(t, customer.UserID, CheckoutLine{ServiceID: f.catalog.Starter.ID, Quantity: 1})
	_, err := f.svc.SubmitPaymentClaim(ctx, o.ID, customer.UserID, "UTR-N")
	require.NoError(t, err)
	_, err = f.svc.TransitionOrderStatus(ctx, staff, o.ID, domain.OrderCompleted, "")
	require.NoError(t, err)

	both := "user:" + customer.UserID + "+role:" + domain.RoleAdmin
	assert.Equal(t, []string{"role:" + domain.RoleAdmin, both, both}, push.targets())

	last, ok := push.sent[2].payload.(orderEvent)
	require.True(t, ok)
	assert.Equal(t, "order_status", last.Type)
	assert.Equal(t, domain.OrderCompleted, last.Status)
	assert.Equal(t, domain.OrderProcessing, last.PreviousState)
	assert.Equal(t, o.OrderNumber, last.OrderNumber)

	notes, err := notify.List(ctx, customer.UserID, 10, 0)
	require.NoError(t, err)
	require.Len(t, notes, 2)
	types := []string{notes[0].Type, notes[1].Type}
	assert.ElementsMatch(t, []string{domain.NotifPaymentClaimed, domain.NotifOrderStatusChanged}, types)

	others, err := notify.List(ctx, intruder.UserID, 10, 0)
	require.NoError(t, err)
	assert.Empty(t, others)
}

func TestNotificationService_MarkRead(t *testing.T) {
	db := newTestDB(t)
	notify := NewNotificationService(repository.NewNotificationRepository(db), nil)
	ctx := context.Background()

	require.NoError(t, notify.Notify(ctx, customer.UserID, domain.NotifTicketReply, "Reply", "body", nil))
	notes, err := notify.List(ctx, customer.UserID, 500, -1)
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Nil(t, notes[0].ReadAt)

	err = notify.MarkRead(ctx, notes[0].ID, intruder.UserID)
	assert.True(t, errors.Is(err, domain.ErrNotFound))

	require.NoError(t, notify.MarkRead(ctx, notes[0].ID, customer.UserID))
	notes, err = notify.List(ctx, customer.UserID, 10, 0)
	require.NoError(t, err)
	assert.NotNil(t, notes[0].ReadAt)
}
