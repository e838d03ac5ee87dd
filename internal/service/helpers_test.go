package service

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"seragon/config"
	"seragon/internal/database"
	"seragon/internal/domain"
	"seragon/internal/models"
	"seragon/internal/repository"
	"seragon/pkg/payment"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := database.NewDB(&config.DatabaseConfig{
		Driver: "sqlite",
		DSN:    fmt.Sprintf("file:%s?mode=memory&cache=shared", name),
	})
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

type catalogFixture struct {
	Starter  models.Service // 8.99, active
	Logo     models.Service // 49.99, active
	Retired  models.Service // inactive
	Category models.ServiceCategory
}

func seedTestCatalog(t *testing.T, db *gorm.DB) catalogFixture {
	t.Helper()
	f := catalogFixture{Category: models.ServiceCategory{Name: "Server Hosting"}}
	require.NoError(t, db.Create(&f.Category).Error)
	f.Starter = models.Service{CategoryID: f.Category.ID, Name: "Starter Server", Price: models.MustMoney("8.99"), IsActive: true, IsRecurring: true, RecurringPeriod: "month"}
	f.Logo = models.Service{CategoryID: f.Category.ID, Name: "Server Logo", Price: models.MustMoney("49.99"), IsActive: true}
	f.Retired = models.Service{CategoryID: f.Category.ID, Name: "Legacy Plan", Price: models.MustMoney("1.00"), IsActive: false}
	for _, s := range []*models.Service{&f.Starter, &f.Logo, &f.Retired} {
		require.NoError(t, db.Create(s).Error)
	}
	return f
}

type recordedEvent struct {
	kind   string
	number string
	status domain.OrderStatus
	from   domain.OrderStatus
}

type eventRecorder struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (r *eventRecorder) add(e recordedEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *eventRecorder) OrderCreated(_ context.Context, o *models.Order) {
	r.add(recordedEvent{kind: "created", number: o.OrderNumber, status: o.Status})
}

func (r *eventRecorder) PaymentClaimed(_ context.Context, o *models.Order) {
	r.add(recordedEvent{kind: "claimed", number: o.OrderNumber, status: o.Status})
}

func (r *eventRecorder) OrderStatusChanged(_ context.Context, o *models.Order, from domain.OrderStatus) {
	r.add(recordedEvent{kind: "status", number: o.OrderNumber, status: o.Status, from: from})
}

func (r *eventRecorder) kinds() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.kind)
	}
	return out
}

type memoryKeyCache struct {
	mu      sync.Mutex
	entries map[string]uint
	gets    int
	failGet bool
}

func newMemoryKeyCache() *memoryKeyCache {
	return &memoryKeyCache{entries: map[string]uint{}}
}

func (m *memoryKeyCache) Get(_ context.Context, userID, token string) (uint, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gets++
	if m.failGet {
		return 0, false, fmt.Errorf("cache down")
	}
	id, ok := m.entries[userID+"|"+token]
	return id, ok, nil
}

func (m *memoryKeyCache) Set(_ context.Context, userID, token string, orderID uint, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[userID+"|"+token] = orderID
	return nil
}

type fakeUploader struct {
	folder, publicID string
	body             string
}

func (f *fakeUploader) UploadImage(_ context.Context, file io.Reader, folder, publicID string) (string, error) {
	b, err := io.ReadAll(file)
	if err != nil {
		return "", err
	}
	f.folder, f.publicID, f.body = folder, publicID, string(b)
	return "https://res.cloudinary.com/demo/image/upload/" + folder + "/" + publicID + ".png", nil
}

type orderFixture struct {
	db      *gorm.DB
	svc     *OrderService
	catalog catalogFixture
	events  *eventRecorder
	clock   time.Time
}

func newOrderFixture(t *testing.T) *orderFixture {
	t.Helper()
	db := newTestDB(t)
	f := &orderFixture{
		db:      db,
		catalog: seedTestCatalog(t, db),
		events:  &eventRecorder{},
		clock:   time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC),
	}
	f.svc = NewOrderService(
		repository.NewOrderRepository(db),
		repository.NewCatalogRepository(db),
		repository.NewAuditLogRepository(db),
		payment.NewUPIProvider("seragon@upi", "Seragon"),
		config.PaymentConfig{Currency: "inr"},
		config.CheckoutConfig{IdempotencyWindow: time.Hour, MaxLineItems: 5},
	)
	f.svc.now = func() time.Time { return f.clock }
	f.svc.SetEvents(f.events)
	return f
}

var (
	customer = Actor{UserID: "replit:alice", Role: domain.RoleCustomer}
	intruder = Actor{UserID: "discord:mallory", Role: domain.RoleCustomer}
	staff    = Actor{UserID: "local:admin@seragon.test", Role: domain.RoleAdmin}
)

func billing() models.BillingInfo {
	return models.BillingInfo{FirstName: "Alice", LastName: "Doe", Email: "alice@example.com", DiscordUsername: "alice#1"}
}

func (f *orderFixture) checkout(t *testing.T, userID string, lines ...CheckoutLine) *models.Order {
	t.Helper()
	res, err := f.svc.CreateOrder(context.Background(), CheckoutRequest{
		UserID:        userID,
		Lines:         lines,
		Billing:       billing(),
		PaymentMethod: "upi",
	})
	require.NoError(t, err)
	return res.Order
}

func (f *orderFixture) reload(t *testing.T, id uint) *models.Order {
	t.Helper()
	var o models.Order
	require.NoError(t, f.db.First(&o, id).Error)
	return &o
}

func (f *orderFixture) count(t *testing.T, model interface{}) int64 {
	t.Helper()
	var n int64
	require.NoError(t, f.db.Model(model).Count(&n).Error)
	return n
}
