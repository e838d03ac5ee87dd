package payment

import (
	"fmt"
	"net/url"
	"strings"
)

var _ Provider = (*UPIProvider)(nil)

// UPIProvider renders upi://pay deep links for a single merchant VPA.
type UPIProvider struct {
	MerchantID   string
	MerchantName string
}

func NewUPIProvider(merchantID, merchantName string) *UPIProvider {
	return &UPIProvider{
		MerchantID:   strings.TrimSpace(merchantID),
		MerchantName: strings.TrimSpace(merchantName),
	}
}

func (p *UPIProvider) Method() string { return "upi" }

func (p *UPIProvider) Configured() bool { return p != nil && p.MerchantID != "" }

// Describe formats the amount with exactly two fraction digits and embeds the
// order number in the transaction note.
func (p *UPIProvider) Describe(req PaymentRequest) (*Descriptor, error) {
	if !p.Configured() {
		return nil, ErrNotConfigured
	}
	if req.OrderNumber == "" {
		return nil, fmt.Errorf("order number required")
	}
	if req.Amount.IsNegative() {
		return nil, fmt.Errorf("negative amount %s", req.Amount)
	}
	amount := req.Amount.StringFixed(2)
	currency := req.Currency
	if currency == "" {
		currency = "INR"
	}
	link := fmt.Sprintf("upi://pay?pa=%s&pn=%s&am=%s&cu=%s&tn=%s",
		url.QueryEscape(p.MerchantID),
		url.QueryEscape(p.MerchantName),
		amount,
		url.QueryEscape(currency),
		url.QueryEscape("Order "+req.OrderNumber),
	)
	return &Descriptor{
		UPIID:       p.MerchantID,
		UPIURL:      link,
		Amount:      amount,
		OrderNumber: req.OrderNumber,
		QRCodeData:  link,
	}, nil
}
