package domain

const (
	RoleCustomer = "customer"
	RoleAdmin    = "admin"
)

// OrderStatus is the fulfilment state of an order.
type OrderStatus string

const (
	OrderPending    OrderStatus = "pending"
	OrderProcessing OrderStatus = "processing"
	OrderCompleted  OrderStatus = "completed"
	OrderCancelled  OrderStatus = "cancelled"
	OrderRefunded   OrderStatus = "refunded"
)

// PaymentStatus is the money state of an order, tracked separately from fulfilment.
type PaymentStatus string

const (
	PaymentPending             PaymentStatus = "pending"
	PaymentPendingVerification PaymentStatus = "pending_verification"
	PaymentSucceeded           PaymentStatus = "succeeded"
	PaymentFailed              PaymentStatus = "failed"
	PaymentCancelled           PaymentStatus = "cancelled"
)

const (
	PaymentMethodUPI    = "upi"
	PaymentMethodStripe = "stripe"
	PaymentMethodPayPal = "paypal"
)

const (
	TicketOpen       = "open"
	TicketInProgress = "in_progress"
	TicketResolved   = "resolved"
	TicketClosed     = "closed"
)

const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
	PriorityUrgent = "urgent"
)

const (
	ProviderReplit  = "replit"
	ProviderDiscord = "discord"
	ProviderGoogle  = "google"
	ProviderLocal   = "local"
)

const (
	NotifOrderCreated       = "ORDER_CREATED"
	NotifPaymentClaimed     = "PAYMENT_CLAIMED"
	NotifOrderStatusChanged = "ORDER_STATUS_CHANGED"
	NotifTicketReply        = "TICKET_REPLY"
)
