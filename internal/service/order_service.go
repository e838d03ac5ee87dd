package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"seragon/config"
	"seragon/internal/domain"
	"seragon/internal/logger"
	"seragon/internal/models"
	"seragon/internal/repository"
	"seragon/pkg/cloudinary"
	"seragon/pkg/payment"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	maxIdempotencyKeyLen = 128
	maxReferenceLen      = 128
	defaultAdminPageSize = 50
	maxAdminPageSize     = 200
	maxLineQuantity      = 1000
)

// maxAmount is the largest value a decimal(10,2) money column holds.
var maxAmount = decimal.New(1, 8).Sub(decimal.New(1, -2))

// Actor is the authenticated caller of a service operation.
type Actor struct {
	UserID string
	Role   string
}

func (a Actor) IsAdmin() bool { return a.Role == domain.RoleAdmin }

type CheckoutLine struct {
	ServiceID uint `json:"serviceId"`
	Quantity  int  `json:"quantity"`
}

type CheckoutRequest struct {
	UserID         string
	Lines          []CheckoutLine
	Billing        models.BillingInfo
	PaymentMethod  string
	Notes          string
	IdempotencyKey string
}

type CheckoutResult struct {
	Order    *models.Order
	UPIID    string
	Replayed bool
}

// OrderEvents receives committed order changes. Implementations must not block for long.
type OrderEvents interface {
	OrderCreated(ctx context.Context, o *models.Order)
	PaymentClaimed(ctx context.Context, o *models.Order)
	OrderStatusChanged(ctx context.Context, o *models.Order, from domain.OrderStatus)
}

// CheckoutKeyCache fronts the checkout key table. Errors are logged and ignored.
type CheckoutKeyCache interface {
	Get(ctx context.Context, userID, token string) (uint, bool, error)
	Set(ctx context.Context, userID, token string, orderID uint, ttl time.Duration) error
}

type OrderService struct {
	orders   *repository.OrderRepository
	catalog  *repository.CatalogRepository
	audit    *repository.AuditLogRepository
	upi      *payment.UPIProvider
	currency string
	window   time.Duration
	maxLines int

	cache    CheckoutKeyCache
	events   OrderEvents
	uploader cloudinary.Uploader
	folder   string

	now            func() time.Time
	newOrderNumber func(time.Time) string
}

func NewOrderService(
	orders *repository.OrderRepository,
	catalog *repository.CatalogRepository,
	audit *repository.AuditLogRepository,
	upi *payment.UPIProvider,
	paymentCfg config.PaymentConfig,
	checkoutCfg config.CheckoutConfig,
) *OrderService {
	currency := strings.ToUpper(paymentCfg.Currency)
	if currency == "" {
		currency = "INR"
	}
	window := checkoutCfg.IdempotencyWindow
	if window <= 0 {
		window = 24 * time.Hour
	}
	maxLines := checkoutCfg.MaxLineItems
	if maxLines <= 0 {
		maxLines = 50
	}
	return &OrderService{
		orders:         orders,
		catalog:        catalog,
		audit:          audit,
		upi:            upi,
		currency:       currency,
		window:         window,
		maxLines:       maxLines,
		now:            time.Now,
		newOrderNumber: NewOrderNumber,
	}
}

func (s *OrderService) SetCache(c CheckoutKeyCache) { s.cache = c }

func (s *OrderService) SetEvents(e OrderEvents) { s.events = e }

func (s *OrderService) SetUploader(u cloudinary.Uploader, folder string) {
	s.uploader = u
	s.folder = folder
}

// NewOrderNumber returns SRG-<yyyymmdd>-<8 upper-case hex chars>.
func NewOrderNumber(now time.Time) string {
	return humanNumber("SRG", now)
}

func humanNumber(prefix string, now time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
	return fmt.Sprintf("%s-%s-%s", prefix, now.UTC().Format("20060102"), suffix)
}

func (s *OrderService) merchantID() string {
	if s.upi == nil {
		return ""
	}
	return s.upi.MerchantID
}

// CreateOrder prices every line from the catalog and persists the order and its
// items atomically. A repeated idempotency key within the window returns the
// original order instead of creating another.
func (s *OrderService) CreateOrder(ctx context.Context, req CheckoutRequest) (*CheckoutResult, error) {
	key := strings.TrimSpace(req.IdempotencyKey)
	if len(key) > maxIdempotencyKeyLen {
		return nil, fmt.Errorf("%w: idempotency key longer than %d characters", domain.ErrInvalidArgument, maxIdempotencyKeyLen)
	}
	if req.UserID == "" {
		return nil, fmt.Errorf("%w: user id required", domain.ErrInvalidArgument)
	}
	if key != "" {
		if o, err := s.replay(ctx, req.UserID, key); err != nil || o != nil {
			if err != nil {
				return nil, err
			}
			return &CheckoutResult{Order: o, UPIID: s.merchantID(), Replayed: true}, nil
		}
	}

	order, err := s.buildOrder(ctx, req)
	if err != nil {
		return nil, err
	}

	for attempt := 0; ; attempt++ {
		now := s.now()
		order.OrderNumber = s.newOrderNumber(now)
		var ck *models.CheckoutKey
		if key != "" {
			ck = &models.CheckoutKey{UserID: req.UserID, Token: key, ExpiresAt: now.Add(s.window), CreatedAt: now}
		}
		err = s.orders.Create(ctx, order, ck)
		if err == nil {
			break
		}
		resetOrderIDs(order)
		switch {
		case errors.Is(err, repository.ErrOrderNumberTaken) && attempt == 0:
			logger.Warn(ctx, "order number collision, regenerating", zap.String("order_number", order.OrderNumber))
			continue
		case errors.Is(err, repository.ErrCheckoutKeyTaken):
			o, rerr := s.replay(ctx, req.UserID, key)
			if rerr != nil {
				return nil, rerr
			}
			if o == nil {
				return nil, fmt.Errorf("%w: checkout already in progress for this idempotency key", domain.ErrConflict)
			}
			return &CheckoutResult{Order: o, UPIID: s.merchantID(), Replayed: true}, nil
		default:
			return nil, fmt.Errorf("create order: %w", err)
		}
	}

	if key != "" && s.cache != nil {
		if err := s.cache.Set(ctx, req.UserID, key, order.ID, s.window); err != nil {
			logger.Warn(ctx, "checkout key cache set failed", zap.Error(err))
		}
	}
	s.recordAudit(ctx, &req.UserID, "order_created", order.ID, map[string]interface{}{
		"orderNumber": order.OrderNumber,
		"totalAmount": order.TotalAmount.String(),
	})
	if s.events != nil {
		s.events.OrderCreated(ctx, order)
	}
	return &CheckoutResult{Order: order, UPIID: s.merchantID()}, nil
}

func resetOrderIDs(o *models.Order) {
	o.ID = 0
	for i := range o.Items {
		o.Items[i].ID = 0
		o.Items[i].OrderID = 0
	}
}

func (s *OrderService) buildOrder(ctx context.Context, req CheckoutRequest) (*models.Order, error) {
	method := strings.ToLower(strings.TrimSpace(req.PaymentMethod))
	if method == "" {
		method = domain.PaymentMethodUPI
	}
	if method != domain.PaymentMethodUPI {
		return nil, fmt.Errorf("%w: unsupported payment method %q", domain.ErrInvalidArgument, req.PaymentMethod)
	}
	if len(req.Lines) == 0 {
		return nil, fmt.Errorf("%w: at least one item is required", domain.ErrInvalidArgument)
	}
	if len(req.Lines) > s.maxLines {
		return nil, fmt.Errorf("%w: at most %d items per order", domain.ErrInvalidArgument, s.maxLines)
	}
	billing := req.Billing
	billing.FirstName = strings.TrimSpace(billing.FirstName)
	billing.LastName = strings.TrimSpace(billing.LastName)
	billing.Email = strings.TrimSpace(billing.Email)
	billing.DiscordUsername = strings.TrimSpace(billing.DiscordUsername)
	if billing.FirstName == "" || billing.Email == "" {
		return nil, fmt.Errorf("%w: billing first name and email are required", domain.ErrInvalidArgument)
	}

	ids := make([]uint, 0, len(req.Lines))
	for _, l := range req.Lines {
		if l.Quantity < 1 || l.Quantity > maxLineQuantity {
			return nil, fmt.Errorf("%w: quantity must be between 1 and %d", domain.ErrInvalidArgument, maxLineQuantity)
		}
		ids = append(ids, l.ServiceID)
	}
	services, err := s.catalog.GetServicesByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load services: %w", err)
	}

	total := decimal.Zero
	items := make([]models.OrderItem, 0, len(req.Lines))
	for _, l := range req.Lines {
		svc, ok := services[l.ServiceID]
		if !ok || !svc.IsActive {
			return nil, fmt.Errorf("%w: service %d is unknown or unavailable", domain.ErrInvalidLineItem, l.ServiceID)
		}
		line := svc.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
		total = total.Add(line)
		if total.GreaterThan(maxAmount) {
			return nil, fmt.Errorf("%w: order total exceeds %s", domain.ErrInvalidArgument, maxAmount.StringFixed(2))
		}
		items = append(items, models.OrderItem{
			ServiceID:   svc.ID,
			ServiceName: svc.Name,
			Quantity:    l.Quantity,
			UnitPrice:   models.NewMoney(svc.Price.Decimal),
			TotalPrice:  models.NewMoney(line),
		})
	}

	return &models.Order{
		UserID:        req.UserID,
		Status:        domain.OrderPending,
		PaymentStatus: domain.PaymentPending,
		PaymentMethod: method,
		TotalAmount:   models.NewMoney(total),
		Currency:      s.currency,
		BillingInfo:   datatypes.NewJSONType(billing),
		Notes:         strings.TrimSpace(req.Notes),
		Items:         items,
	}, nil
}

// replay resolves a live idempotency key to its order, or nil when the key is unused.
func (s *OrderService) replay(ctx context.Context, userID, key string) (*models.Order, error) {
	if s.cache != nil {
		id, ok, err := s.cache.Get(ctx, userID, key)
		if err != nil {
			logger.Warn(ctx, "checkout key cache get failed", zap.Error(err))
		} else if ok {
			o, err := s.orders.GetByID(ctx, id)
			if err == nil && o.UserID == userID {
				return o, nil
			}
		}
	}
	ck, err := s.orders.FindCheckoutKey(ctx, userID, key, s.now())
	if err != nil {
		return nil, fmt.Errorf("lookup checkout key: %w", err)
	}
	if ck == nil || ck.OrderID == 0 {
		return nil, nil
	}
	o, err := s.orders.GetByID(ctx, ck.OrderID)
	if err != nil {
		return nil, fmt.Errorf("load replayed order: %w", err)
	}
	if s.cache != nil {
		if ttl := ck.ExpiresAt.Sub(s.now()); ttl > 0 {
			if err := s.cache.Set(ctx, userID, key, o.ID, ttl); err != nil {
				logger.Warn(ctx, "checkout key cache set failed", zap.Error(err))
			}
		}
	}
	return o, nil
}

func (s *OrderService) loadOwned(ctx context.Context, orderID uint, userID string) (*models.Order, error) {
	o, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: order %d", domain.ErrNotFound, orderID)
		}
		return nil, err
	}
	if o.UserID != userID {
		return nil, fmt.Errorf("%w: order belongs to another user", domain.ErrForbidden)
	}
	return o, nil
}

// IssuePaymentReference describes how to pay for an order. It never mutates the order.
func (s *OrderService) IssuePaymentReference(ctx context.Context, orderID uint, userID string) (*payment.Descriptor, error) {
	o, err := s.loadOwned(ctx, orderID, userID)
	if err != nil {
		return nil, err
	}
	d, err := s.upi.Describe(payment.PaymentRequest{
		OrderNumber: o.OrderNumber,
		Amount:      o.TotalAmount.Decimal,
		Currency:    o.Currency,
	})
	if errors.Is(err, payment.ErrNotConfigured) {
		return nil, fmt.Errorf("%w: UPI payments are not configured", domain.ErrUnavailable)
	}
	return d, err
}

// SubmitPaymentClaim stores the buyer's transaction reference and moves the order
// to processing/pending_verification. The reference is unverified.
func (s *OrderService) SubmitPaymentClaim(ctx context.Context, orderID uint, userID, reference string) (*models.Order, error) {
	reference = strings.TrimSpace(reference)
	if reference == "" {
		return nil, fmt.Errorf("%w: transaction id is required", domain.ErrInvalidArgument)
	}
	if len(reference) > maxReferenceLen {
		return nil, fmt.Errorf("%w: transaction id longer than %d characters", domain.ErrInvalidArgument, maxReferenceLen)
	}
	o, err := s.loadOwned(ctx, orderID, userID)
	if err != nil {
		return nil, err
	}
	if !domain.CanClaimPayment(o.Status) {
		return nil, fmt.Errorf("%w: cannot submit payment for a %s order", domain.ErrInvalidTransition, o.Status)
	}
	if err := s.orders.ApplyPaymentClaim(ctx, o.ID, o.Status, reference); err != nil {
		if errors.Is(err, repository.ErrStaleOrder) {
			return nil, fmt.Errorf("%w: order changed, retry", domain.ErrConflict)
		}
		return nil, err
	}
	updated, err := s.orders.GetByID(ctx, o.ID)
	if err != nil {
		return nil, err
	}
	s.recordAudit(ctx, &userID, "payment_claimed", o.ID, map[string]interface{}{
		"from":      string(o.Status),
		"reference": reference,
	})
	if s.events != nil {
		s.events.PaymentClaimed(ctx, updated)
	}
	return updated, nil
}

// TransitionOrderStatus is the admin-only status write, checked against the transition table.
// An empty payment status picks the default paired with the target status.
func (s *OrderService) TransitionOrderStatus(ctx context.Context, actor Actor, orderID uint, to domain.OrderStatus, paymentStatus domain.PaymentStatus) (*models.Order, error) {
	if !actor.IsAdmin() {
		return nil, fmt.Errorf("%w: admin access required", domain.ErrForbidden)
	}
	o, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: order %d", domain.ErrNotFound, orderID)
		}
		return nil, err
	}
	if paymentStatus == "" {
		paymentStatus = domain.DefaultPaymentStatus(to, o.PaymentReference != "")
	}
	if err := domain.ValidateTransition(o.Status, to, paymentStatus); err != nil {
		return nil, err
	}
	from := o.Status
	if err := s.orders.UpdateStatus(ctx, o.ID, from, to, paymentStatus); err != nil {
		if errors.Is(err, repository.ErrStaleOrder) {
			return nil, fmt.Errorf("%w: order changed, retry", domain.ErrConflict)
		}
		return nil, err
	}
	updated, err := s.orders.GetByID(ctx, o.ID)
	if err != nil {
		return nil, err
	}
	s.recordAudit(ctx, &actor.UserID, "order_status_changed", o.ID, map[string]interface{}{
		"from":          string(from),
		"to":            string(to),
		"paymentStatus": string(paymentStatus),
	})
	logger.Info(ctx, "order status changed",
		zap.String("order_number", o.OrderNumber),
		zap.String("from", string(from)),
		zap.String("to", string(to)),
		zap.String("admin_id", actor.UserID),
	)
	if s.events != nil {
		s.events.OrderStatusChanged(ctx, updated, from)
	}
	return updated, nil
}

// GetOrder returns an order by number to its owner or to an admin.
func (s *OrderService) GetOrder(ctx context.Context, actor Actor, orderNumber string) (*models.Order, error) {
	o, err := s.orders.GetByOrderNumber(ctx, orderNumber)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: order %s", domain.ErrNotFound, orderNumber)
		}
		return nil, err
	}
	if o.UserID != actor.UserID && !actor.IsAdmin() {
		return nil, fmt.Errorf("%w: order belongs to another user", domain.ErrForbidden)
	}
	return o, nil
}

// ListOrders returns the caller's own orders, newest first.
func (s *OrderService) ListOrders(ctx context.Context, userID string) ([]models.Order, error) {
	return s.orders.ListByUserID(ctx, userID)
}

type OrderPage struct {
	Orders []models.Order `json:"orders"`
	Total  int64          `json:"total"`
	Limit  int            `json:"limit"`
	Offset int            `json:"offset"`
}

// ListAllOrders is the admin view across all users.
func (s *OrderService) ListAllOrders(ctx context.Context, actor Actor, status string, limit, offset int) (*OrderPage, error) {
	if !actor.IsAdmin() {
		return nil, fmt.Errorf("%w: admin access required", domain.ErrForbidden)
	}
	if status != "" && !domain.OrderStatus(status).Valid() {
		return nil, fmt.Errorf("%w: unknown order status %q", domain.ErrInvalidArgument, status)
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
	list, total, err := s.orders.ListAll(ctx, status, limit, offset)
	if err != nil {
		return nil, err
	}
	return &OrderPage{Orders: list, Total: total, Limit: limit, Offset: offset}, nil
}

// OrderHistory returns the audit trail of one order for admins.
func (s *OrderService) OrderHistory(ctx context.Context, actor Actor, orderID uint) ([]models.AuditLog, error) {
	if !actor.IsAdmin() {
		return nil, fmt.Errorf("%w: admin access required", domain.ErrForbidden)
	}
	if _, err := s.orders.GetByID(ctx, orderID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: order %d", domain.ErrNotFound, orderID)
		}
		return nil, err
	}
	if s.audit == nil {
		return []models.AuditLog{}, nil
	}
	return s.audit.ListByResource(ctx, "order", strconv.FormatUint(uint64(orderID), 10))
}

// AttachPaymentProof uploads a transfer screenshot for an unpaid order the caller owns.
func (s *OrderService) AttachPaymentProof(ctx context.Context, userID, orderNumber string, file io.Reader) (*models.Order, error) {
	if s.uploader == nil {
		return nil, fmt.Errorf("%w: uploads are not configured", domain.ErrUnavailable)
	}
	o, err := s.GetOrder(ctx, Actor{UserID: userID}, orderNumber)
	if err != nil {
		return nil, err
	}
	if !domain.CanClaimPayment(o.Status) {
		return nil, fmt.Errorf("%w: cannot attach proof to a %s order", domain.ErrInvalidTransition, o.Status)
	}
	url, err := s.uploader.UploadImage(ctx, file, s.folder, fmt.Sprintf("%s-%d", strings.ToLower(o.OrderNumber), s.now().Unix()))
	if err != nil {
		return nil, fmt.Errorf("upload payment proof: %w", err)
	}
	if err := s.orders.SetPaymentProof(ctx, o.ID, url); err != nil {
		return nil, err
	}
	o.PaymentProofURL = url
	s.recordAudit(ctx, &userID, "payment_proof_uploaded", o.ID, map[string]interface{}{"url": url})
	return o, nil
}

func (s *OrderService) recordAudit(ctx context.Context, userID *string, action string, orderID uint, meta map[string]interface{}) {
	if s.audit == nil {
		return
	}
	err := s.audit.Create(ctx, &models.AuditLog{
		UserID:     userID,
		Action:     action,
		Resource:   "order",
		ResourceID: strconv.FormatUint(uint64(orderID), 10),
		Metadata:   datatypes.JSONMap(meta),
	})
	if err != nil {
		logger.Warn(ctx, "audit log write failed", zap.String("action", action), zap.Error(err))
	}
}
