package models

import (
	"time"

	"seragon/internal/domain"

	"gorm.io/datatypes"
)

// BillingInfo is the contact snapshot taken at checkout, independent of the live user profile.
type BillingInfo struct {
	FirstName       string `json:"firstName"`
	LastName        string `json:"lastName"`
	Email           string `json:"email"`
	DiscordUsername string `json:"discordUsername,omitempty"`
}

type Order struct {
	ID               uint                             `gorm:"primaryKey" json:"id"`
	UserID           string                           `gorm:"size:191;not null;index" json:"userId"`
	OrderNumber      string                           `gorm:"size:40;not null;uniqueIndex:idx_orders_order_number" json:"orderNumber"`
	Status           domain.OrderStatus               `gorm:"size:20;not null;index" json:"status"`
	TotalAmount      Money                            `gorm:"type:decimal(10,2);not null" json:"totalAmount"`
	Currency         string                           `gorm:"size:3;not null" json:"currency"`
	PaymentStatus    domain.PaymentStatus             `gorm:"size:30;not null;index" json:"paymentStatus"`
	PaymentMethod    string                           `gorm:"size:20;not null" json:"paymentMethod"`
	PaymentReference string                           `gorm:"size:128" json:"paymentReference,omitempty"`
	PaymentProofURL  string                           `gorm:"size:512" json:"paymentProofUrl,omitempty"`
	BillingInfo      datatypes.JSONType[BillingInfo] `json:"billingInfo"`
	Notes            string                           `gorm:"type:text" json:"notes,omitempty"`
	CreatedAt        time.Time                        `gorm:"index" json:"createdAt"`
	UpdatedAt        time.Time                        `json:"updatedAt"`

	Items []OrderItem `gorm:"foreignKey:OrderID" json:"items"`
	User  *User       `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

func (Order) TableName() string {
	return "orders"
}

// OrderItem captures the catalog price at checkout so later price edits never rewrite history.
type OrderItem struct {
	ID          uint              `gorm:"primaryKey" json:"id"`
	OrderID     uint              `gorm:"not null;index" json:"orderId"`
	ServiceID   uint              `gorm:"not null;index" json:"serviceId"`
	ServiceName string            `gorm:"size:255;not null" json:"serviceName"`
	Quantity    int               `gorm:"not null" json:"quantity"`
	UnitPrice   Money             `gorm:"type:decimal(10,2);not null" json:"unitPrice"`
	TotalPrice  Money             `gorm:"type:decimal(10,2);not null" json:"totalPrice"`
	Metadata    datatypes.JSONMap `json:"metadata,omitempty"`
	CreatedAt   time.Time         `json:"createdAt"`

	Service *Service `gorm:"foreignKey:ServiceID" json:"service,omitempty"`
}

func (OrderItem) TableName() string {
	return "order_items"
}

// CheckoutKey remembers which order a client idempotency key produced.
type CheckoutKey struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    string    `gorm:"size:191;not null;uniqueIndex:idx_checkout_keys_user_key" json:"userId"`
	Token     string    `gorm:"size:128;not null;uniqueIndex:idx_checkout_keys_user_key" json:"token"`
	OrderID   uint      `gorm:"not null" json:"orderId"`
	ExpiresAt time.Time `gorm:"not null;index" json:"expiresAt"`
	CreatedAt time.Time `json:"createdAt"`
}

func (CheckoutKey) TableName() string {
	return "checkout_keys"
}
