package payment

import (
	"errors"

	"github.com/shopspring/decimal"
)

var ErrNotConfigured = errors.New("payment rail not configured")

// PaymentRequest carries what a rail needs to describe how an order is paid.
type PaymentRequest struct {
	OrderNumber string
	Amount      decimal.Decimal
	Currency    string
}

// Descriptor tells the buyer where and how much to pay.
type Descriptor struct {
	UPIID       string `json:"upiId"`
	UPIURL      string `json:"upiUrl"`
	Amount      string `json:"amount"`
	OrderNumber string `json:"orderNumber"`
	QRCodeData  string `json:"qrCodeData"`
}

// Provider builds payment instructions; it never moves money itself.
type Provider interface {
	Method() string
	Describe(req PaymentRequest) (*Descriptor, error)
}
