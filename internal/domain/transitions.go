package domain

import (
	"fmt"
	"slices"
)

var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderPending:    {OrderProcessing, OrderCancelled},
	OrderProcessing: {OrderCompleted, OrderCancelled, OrderRefunded},
	OrderCompleted:  {},
	OrderCancelled:  {},
	OrderRefunded:   {},
}

var paymentStatusesFor = map[OrderStatus][]PaymentStatus{
	OrderPending:    {PaymentPending},
	OrderProcessing: {PaymentPendingVerification},
	OrderCompleted:  {PaymentSucceeded},
	OrderCancelled:  {PaymentFailed, PaymentCancelled},
	OrderRefunded:   {PaymentSucceeded},
}

func (s OrderStatus) Valid() bool {
	_, ok := orderTransitions[s]
	return ok
}

func (s OrderStatus) Terminal() bool {
	next, ok := orderTransitions[s]
	return ok && len(next) == 0
}

func (p PaymentStatus) Valid() bool {
	switch p {
	case PaymentPending, PaymentPendingVerification, PaymentSucceeded, PaymentFailed, PaymentCancelled:
		return true
	}
	return false
}

// CanTransition reports whether an admin may move an order from one status to another.
func CanTransition(from, to OrderStatus) bool {
	return slices.Contains(orderTransitions[from], to)
}

// CanClaimPayment reports whether a customer may (re)submit a payment reference.
func CanClaimPayment(current OrderStatus) bool {
	return current == OrderPending || current == OrderProcessing
}

// DefaultPaymentStatus picks the payment status paired with a target order status
// when the admin does not name one. claimed reports whether a payment reference exists.
func DefaultPaymentStatus(to OrderStatus, claimed bool) PaymentStatus {
	switch to {
	case OrderProcessing:
		return PaymentPendingVerification
	case OrderCompleted, OrderRefunded:
		return PaymentSucceeded
	case OrderCancelled:
		if claimed {
			return PaymentFailed
		}
		return PaymentCancelled
	}
	return PaymentPending
}

// ValidateTransition checks the order edge and the resulting (status, payment status) pair.
func ValidateTransition(from, to OrderStatus, payment PaymentStatus) error {
	if !to.Valid() {
		return fmt.Errorf("%w: unknown order status %q", ErrInvalidArgument, to)
	}
	if !payment.Valid() {
		return fmt.Errorf("%w: unknown payment status %q", ErrInvalidArgument, payment)
	}
	if !CanTransition(from, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}
	if !slices.Contains(paymentStatusesFor[to], payment) {
		return fmt.Errorf("%w: payment status %s is not allowed with order status %s", ErrInvalidTransition, payment, to)
	}
	return nil
}
