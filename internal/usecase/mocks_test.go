package usecase_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"danicandles/internal/domain/model"
	repo "danicandles/internal/repository"
	"danicandles/internal/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// =====================
// TxManager / TxRepos mocks
// =====================

// TxManagerMock は WithinTx の中で渡す repos を固定して unit テストを回す
type TxManagerMock struct {
	mock.Mock
	Repos repo.TxRepos
}

func (m *TxManagerMock) WithinTx(ctx context.Context, fn func(r repo.TxRepos) error) error {
	// 呼ばれた事実だけ記録（ctxの具体値は問わない）
	m.Called(ctx)
	return fn(m.Repos)
}

type TxReposMock struct {
	orders        repo.OrderRepository
	orderItems    repo.OrderItemRepository
	products      repo.ProductRepository
	outbox        repo.OutboxRepository
	webhookEvents repo.WebhookEventRepository
	auditLogs     repo.AuditLogRepository
}

func (r *TxReposMock) Orders() repo.OrderRepository               { return r.orders }
func (r *TxReposMock) OrderItems() repo.OrderItemRepository       { return r.orderItems }
func (r *TxReposMock) Products() repo.ProductRepository           { return r.products }
func (r *TxReposMock) Outbox() repo.OutboxRepository              { return r.outbox }
func (r *TxReposMock) WebhookEvents() repo.WebhookEventRepository { return r.webhookEvents }
func (r *TxReposMock) AuditLogs() repo.AuditLogRepository         { return r.auditLogs }

// =====================
// Repository mocks
// =====================

type OrderRepoMock struct{ mock.Mock }

func (m *OrderRepoMock) FindByID(ctx context.Context, orderID string) (model.Order, error) {
	args := m.Called(ctx, orderID)
	o, _ := args.Get(0).(model.Order)
	return o, args.Error(1)
}

func (m *OrderRepoMock) ListByUserID(ctx context.Context, userID string, page int, limit int) ([]model.Order, int64, error) {
	args := m.Called(ctx, userID, page, limit)
	orders, _ := args.Get(0).([]model.Order)
	return orders, args.Get(1).(int64), args.Error(2)
}

func (m *OrderRepoMock) Create(ctx context.Context, order model.Order) (string, error) {
	args := m.Called(ctx, order)
	return args.String(0), args.Error(1)
}

func (m *OrderRepoMock) MarkPaid(ctx context.Context, orderID string, p repo.PaymentUpdate) error {
	args := m.Called(ctx, orderID, p)
	return args.Error(0)
}

func (m *OrderRepoMock) UpdateStatus(ctx context.Context, orderID string, from model.OrderStatus, to model.OrderStatus) error {
	args := m.Called(ctx, orderID, from, to)
	return args.Error(0)
}

func (m *OrderRepoMock) SetCheckoutSession(ctx context.Context, orderID string, sessionID string) error {
	args := m.Called(ctx, orderID, sessionID)
	return args.Error(0)
}

func (m *OrderRepoMock) ListAdmin(ctx context.Context, f repo.AdminOrderListFilter) ([]model.Order, int64, error) {
	args := m.Called(ctx, f)
	orders, _ := args.Get(0).([]model.Order)
	return orders, args.Get(1).(int64), args.Error(2)
}

type OrderItemRepoMock struct{ mock.Mock }

func (m *OrderItemRepoMock) CreateBulk(ctx context.Context, orderID string, items []model.OrderItem) error {
	args := m.Called(ctx, orderID, items)
	return args.Error(0)
}

func (m *OrderItemRepoMock) ListByOrderID(ctx context.Context, orderID string) ([]model.OrderItem, error) {
	args := m.Called(ctx, orderID)
	items, _ := args.Get(0).([]model.OrderItem)
	return items, args.Error(1)
}

type ProductRepoMock struct{ mock.Mock }

func (m *ProductRepoMock) ListPublic(ctx context.Context, q repo.ProductListQuery) ([]model.Product, int64, error) {
	args := m.Called(ctx, q)
	ps, _ := args.Get(0).([]model.Product)
	return ps, args.Get(1).(int64), args.Error(2)
}

func (m *ProductRepoMock) FindBySlug(ctx context.Context, slug string) (model.Product, error) {
	args := m.Called(ctx, slug)
	p, _ := args.Get(0).(model.Product)
	return p, args.Error(1)
}

func (m *ProductRepoMock) FindByIDs(ctx context.Context, ids []string) ([]model.Product, error) {
	args := m.Called(ctx, ids)
	ps, _ := args.Get(0).([]model.Product)
	return ps, args.Error(1)
}

type OutboxRepoMock struct{ mock.Mock }

func (m *OutboxRepoMock) Enqueue(ctx context.Context, msg model.OutboxMessage) (bool, error) {
	args := m.Called(ctx, msg)
	return args.Bool(0), args.Error(1)
}

func (m *OutboxRepoMock) ClaimDue(ctx context.Context, now time.Time, limit int, lease time.Duration) ([]model.OutboxMessage, error) {
	panic("not used in usecase tests")
}

func (m *OutboxRepoMock) MarkSent(ctx context.Context, id int64, at time.Time) error {
	panic("not used in usecase tests")
}

func (m *OutboxRepoMock) MarkRetry(ctx context.Context, id int64, lastErr string, next time.Time) error {
	panic("not used in usecase tests")
}

func (m *OutboxRepoMock) MarkFailed(ctx context.Context, id int64, lastErr string) error {
	panic("not used in usecase tests")
}

// topicごとに積まれたメッセージ
func (m *OutboxRepoMock) enqueuedTopics() []string {
	var topics []string
	for _, c := range m.Calls {
		if c.Method == "Enqueue" {
			topics = append(topics, c.Arguments.Get(1).(model.OutboxMessage).Topic)
		}
	}
	return topics
}

func (m *OutboxRepoMock) enqueued(topic string) (model.OutboxMessage, bool) {
	for _, c := range m.Calls {
		if c.Method != "Enqueue" {
			continue
		}
		msg := c.Arguments.Get(1).(model.OutboxMessage)
		if msg.Topic == topic {
			return msg, true
		}
	}
	return model.OutboxMessage{}, false
}

type WebhookEventRepoMock struct{ mock.Mock }

func (m *WebhookEventRepoMock) Record(ctx context.Context, ev model.WebhookEvent) (bool, error) {
	args := m.Called(ctx, ev)
	return args.Bool(0), args.Error(1)
}

type AuditRepoMock struct{ mock.Mock }

func (m *AuditRepoMock) Create(ctx context.Context, log model.AuditLog) error {
	args := m.Called(ctx, log)
	return args.Error(0)
}

func (m *AuditRepoMock) ListForResource(ctx context.Context, resourceType model.AuditResourceType, resourceID string, limit int) ([]model.AuditLog, error) {
	args := m.Called(ctx, resourceType, resourceID, limit)
	logs, _ := args.Get(0).([]model.AuditLog)
	return logs, args.Error(1)
}

type ProfileRepoMock struct{ mock.Mock }

func (m *ProfileRepoMock) FindByID(ctx context.Context, userID string) (model.Profile, error) {
	args := m.Called(ctx, userID)
	p, _ := args.Get(0).(model.Profile)
	return p, args.Error(1)
}

func (m *ProfileRepoMock) CreateIfAbsent(ctx context.Context, p model.Profile) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *ProfileRepoMock) PromoteByEmails(ctx context.Context, emails []string, role model.Role) (int64, error) {
	args := m.Called(ctx, emails, role)
	return args.Get(0).(int64), args.Error(1)
}

// =====================
// Port mocks
// =====================

type PaymentGatewayMock struct{ mock.Mock }

func (m *PaymentGatewayMock) CreateCheckoutSession(ctx context.Context, p usecase.CheckoutSessionParams) (usecase.CheckoutSession, error) {
	args := m.Called(ctx, p)
	s, _ := args.Get(0).(usecase.CheckoutSession)
	return s, args.Error(1)
}

func (m *PaymentGatewayMock) ParseWebhook(payload []byte, signature string) (usecase.PaymentEvent, error) {
	args := m.Called(payload, signature)
	ev, _ := args.Get(0).(usecase.PaymentEvent)
	return ev, args.Error(1)
}

type EmailSenderMock struct{ mock.Mock }

func (m *EmailSenderMock) Send(ctx context.Context, msg usecase.EmailMessage) (string, error) {
	args := m.Called(ctx, msg)
	return args.String(0), args.Error(1)
}

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

type fixedIDs struct{ id string }

func (g fixedIDs) NewID() string { return g.id }

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

const (
	testOrderID   = "8d0f5c1a-6b1e-4c38-9a55-1f0e1b2c3d4e"
	testUserID    = "0b6f7d2e-1111-4a2b-8c3d-9e8f7a6b5c4d"
	testProductA  = "a1a1a1a1-0000-4000-8000-00000000000a"
	testProductB  = "b2b2b2b2-0000-4000-8000-00000000000b"
	testAdminID   = "ad000000-0000-4000-8000-0000000000ad"
	testAdminMail = "dani@example.com"
)

// =====================
// Helper: error contains（HTTPErrorの実装詳細に依存しない）
// =====================

func assertErrContains(t *testing.T, err error, wantSubstr string) {
	t.Helper()
	if assert.Error(t, err) {
		assert.True(t, strings.Contains(err.Error(), wantSubstr), "err=%q want contains %q", err.Error(), wantSubstr)
	}
}

func assertStatus(t *testing.T, err error, want int) {
	t.Helper()
	he, ok := usecase.AsHTTPError(err)
	if assert.True(t, ok, "want HTTPError, got %v", err) {
		assert.Equal(t, want, he.Status)
	}
}
