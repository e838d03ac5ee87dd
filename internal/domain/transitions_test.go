package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateTransition_AllowedEdges(t *testing.T) {
	cases := []struct {
		from    OrderStatus
		to      OrderStatus
		payment PaymentStatus
	}{
		{OrderPending, OrderProcessing, PaymentPendingVerification},
		{OrderPending, OrderCancelled, PaymentCancelled},
		{OrderProcessing, OrderCompleted, PaymentSucceeded},
		{OrderProcessing, OrderCancelled, PaymentFailed},
		{OrderProcessing, OrderRefunded, PaymentSucceeded},
	}
	for _, tc := range cases {
		t.Run(string(tc.from)+"_to_"+string(tc.to), func(t *testing.T) {
			require.NoError(t, ValidateTransition(tc.from, tc.to, tc.payment))
		})
	}
}

func TestValidateTransition_TerminalStatesRejectEverything(t *testing.T) {
	for _, from := range []OrderStatus{OrderCompleted, OrderCancelled, OrderRefunded} {
		assert.True(t, from.Terminal())
		for _, to := range []OrderStatus{OrderPending, OrderProcessing, OrderCompleted, OrderCancelled, OrderRefunded} {
			err := ValidateTransition(from, to, DefaultPaymentStatus(to, true))
			require.Error(t, err, "%s -> %s", from, to)
			assert.True(t, errors.Is(err, ErrInvalidTransition))
		}
	}
}

func TestValidateTransition_SkippingProcessingIsRejected(t *testing.T) {
	err := ValidateTransition(OrderPending, OrderCompleted, PaymentSucceeded)
	require.ErrorIs(t, err, ErrInvalidTransition)
}

func TestValidateTransition_MismatchedPaymentStatus(t *testing.T) {
	err := ValidateTransition(OrderProcessing, OrderCompleted, PaymentFailed)
	require.ErrorIs(t, err, ErrInvalidTransition)
}

func TestValidateTransition_UnknownValues(t *testing.T) {
	require.ErrorIs(t, ValidateTransition(OrderPending, OrderStatus("shipped"), PaymentPending), ErrInvalidArgument)
	require.ErrorIs(t, ValidateTransition(OrderPending, OrderProcessing, PaymentStatus("maybe")), ErrInvalidArgument)
}

func TestDefaultPaymentStatus(t *testing.T) {
	assert.Equal(t, PaymentPendingVerification, DefaultPaymentStatus(OrderProcessing, false))
	assert.Equal(t, PaymentSucceeded, DefaultPaymentStatus(OrderCompleted, true))
	assert.Equal(t, PaymentFailed, DefaultPaymentStatus(OrderCancelled, true))
	assert.Equal(t, PaymentCancelled, DefaultPaymentStatus(OrderCancelled, false))
}

func TestCanClaimPayment(t *testing.T) {
	assert.True(t, CanClaimPayment(OrderPending))
	assert.True(t, CanClaimPayment(OrderProcessing))
	assert.False(t, CanClaimPayment(OrderCompleted))
	assert.False(t, CanClaimPayment(OrderCancelled))
	assert.False(t, CanClaimPayment(OrderRefunded))
}
