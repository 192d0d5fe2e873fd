package usecase_test

import (
	"context"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"storefront/internal/cart"
	"storefront/internal/domain/model"
	"storefront/internal/events"
	repo "storefront/internal/repository"

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
	orders     repo.OrderRepository
	orderItems repo.OrderItemRepository
	menuItems  repo.MenuItemRepository
	auditLogs  repo.AuditLogRepository
}

func (r *TxReposMock) Orders() repo.OrderRepository         { return r.orders }
func (r *TxReposMock) OrderItems() repo.OrderItemRepository { return r.orderItems }
func (r *TxReposMock) MenuItems() repo.MenuItemRepository   { return r.menuItems }
func (r *TxReposMock) AuditLogs() repo.AuditLogRepository   { return r.auditLogs }

// =====================
// Repository mocks
// =====================

type OrderRepoMock struct{ mock.Mock }

func (m *OrderRepoMock) FindByID(ctx context.Context, orderID int64) (model.Order, error) {
	args := m.Called(ctx, orderID)
	o, _ := args.Get(0).(model.Order)
	return o, args.Error(1)
}

func (m *OrderRepoMock) Create(ctx context.Context, order model.Order) (int64, error) {
	args := m.Called(ctx, order)
	return args.Get(0).(int64), args.Error(1)
}

func (m *OrderRepoMock) UpdateStatus(ctx context.Context, orderID int64, status model.OrderStatus) error {
	args := m.Called(ctx, orderID, status)
	return args.Error(0)
}

func (m *OrderRepoMock) FindByIdempotencyKey(ctx context.Context, sessionID, key string) (model.Order, bool, error) {
	args := m.Called(ctx, sessionID, key)
	o, _ := args.Get(0).(model.Order)
	return o, args.Bool(1), args.Error(2)
}

func (m *OrderRepoMock) ListAdmin(ctx context.Context, f repo.AdminOrderListFilter) ([]model.Order, int64, error) {
	args := m.Called(ctx, f)
	orders, _ := args.Get(0).([]model.Order)
	return orders, args.Get(1).(int64), args.Error(2)
}

func (m *OrderRepoMock) Recent(ctx context.Context, limit int) ([]model.Order, error) {
	args := m.Called(ctx, limit)
	orders, _ := args.Get(0).([]model.Order)
	return orders, args.Error(1)
}

func (m *OrderRepoMock) Count(ctx context.Context, status *model.OrderStatus) (int64, error) {
	args := m.Called(ctx, status)
	return args.Get(0).(int64), args.Error(1)
}

type OrderItemRepoMock struct{ mock.Mock }

func (m *OrderItemRepoMock) CreateBulk(ctx context.Context, orderID int64, items []model.OrderItem) error {
	args := m.Called(ctx, orderID, items)
	return args.Error(0)
}

func (m *OrderItemRepoMock) ListByOrderID(ctx context.Context, orderID int64) ([]repo.OrderItemView, error) {
	args := m.Called(ctx, orderID)
	items, _ := args.Get(0).([]repo.OrderItemView)
	return items, args.Error(1)
}

type MenuItemRepoMock struct{ mock.Mock }

func (m *MenuItemRepoMock) List(ctx context.Context, q repo.MenuItemListQuery) ([]model.MenuItem, error) {
	args := m.Called(ctx, q)
	items, _ := args.Get(0).([]model.MenuItem)
	return items, args.Error(1)
}

func (m *MenuItemRepoMock) Latest(ctx context.Context, limit int) ([]model.MenuItem, error) {
	args := m.Called(ctx, limit)
	items, _ := args.Get(0).([]model.MenuItem)
	return items, args.Error(1)
}

func (m *MenuItemRepoMock) FindByID(ctx context.Context, id int64) (model.MenuItem, error) {
	args := m.Called(ctx, id)
	item, _ := args.Get(0).(model.MenuItem)
	return item, args.Error(1)
}

func (m *MenuItemRepoMock) FindByIDs(ctx context.Context, ids []int64) ([]model.MenuItem, error) {
	panic("not used in usecase tests")
}

func (m *MenuItemRepoMock) Create(ctx context.Context, item model.MenuItem) (model.MenuItem, error) {
	args := m.Called(ctx, item)
	out, _ := args.Get(0).(model.MenuItem)
	return out, args.Error(1)
}

func (m *MenuItemRepoMock) Update(ctx context.Context, item model.MenuItem) error {
	args := m.Called(ctx, item)
	return args.Error(0)
}

func (m *MenuItemRepoMock) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MenuItemRepoMock) Count(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MenuItemRepoMock) CountByCategory(ctx context.Context, categoryID int64) (int64, error) {
	panic("not used in usecase tests")
}

type CategoryRepoMock struct{ mock.Mock }

func (m *CategoryRepoMock) List(ctx context.Context) ([]model.Category, error) {
	args := m.Called(ctx)
	cats, _ := args.Get(0).([]model.Category)
	return cats, args.Error(1)
}

func (m *CategoryRepoMock) FindByID(ctx context.Context, id int64) (model.Category, error) {
	args := m.Called(ctx, id)
	c, _ := args.Get(0).(model.Category)
	return c, args.Error(1)
}

func (m *CategoryRepoMock) Create(ctx context.Context, c model.Category) (model.Category, error) {
	args := m.Called(ctx, c)
	out, _ := args.Get(0).(model.Category)
	return out, args.Error(1)
}

func (m *CategoryRepoMock) Update(ctx context.Context, c model.Category) error {
	args := m.Called(ctx, c)
	return args.Error(0)
}

func (m *CategoryRepoMock) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *CategoryRepoMock) Count(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

type AuditRepoMock struct{ mock.Mock }

func (m *AuditRepoMock) Create(ctx context.Context, log model.AuditLog) error {
	args := m.Called(ctx, log)
	return args.Error(0)
}

func (m *AuditRepoMock) List(ctx context.Context, filter repo.AuditLogFilter) ([]model.AuditLog, error) {
	args := m.Called(ctx, filter)
	logs, _ := args.Get(0).([]model.AuditLog)
	return logs, args.Error(1)
}

type UserRepoMock struct{ mock.Mock }

func (m *UserRepoMock) Create(ctx context.Context, user *model.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *UserRepoMock) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	args := m.Called(ctx, email)
	u, _ := args.Get(0).(*model.User)
	return u, args.Error(1)
}

func (m *UserRepoMock) FindByID(ctx context.Context, id int64) (*model.User, error) {
	args := m.Called(ctx, id)
	u, _ := args.Get(0).(*model.User)
	return u, args.Error(1)
}

func (m *UserRepoMock) Update(ctx context.Context, user *model.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *UserRepoMock) IncrementTokenVersion(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// =====================
// その他の依存
// =====================

type PublisherMock struct{ mock.Mock }

func (m *PublisherMock) PublishOrderPlaced(ctx context.Context, ev events.OrderPlaced) error {
	args := m.Called(ctx, ev)
	return args.Error(0)
}

func (m *PublisherMock) PublishOrderStatusChanged(ctx context.Context, ev events.OrderStatusChanged) error {
	args := m.Called(ctx, ev)
	return args.Error(0)
}

type ImageStoreMock struct{ mock.Mock }

func (m *ImageStoreMock) Put(ctx context.Context, filename string, contentType string, r io.Reader, size int64) (string, error) {
	args := m.Called(ctx, filename, contentType, size)
	return args.String(0), args.Error(1)
}

// セッションごとにメモリへ保存する
type memoryPersisters struct {
	mu    sync.Mutex
	carts map[string]*cart.MemoryPersister
}

func newMemoryPersisters() *memoryPersisters {
	return &memoryPersisters{carts: map[string]*cart.MemoryPersister{}}
}

func (p *memoryPersisters) For(sessionID string) cart.Persister {
	return p.get(sessionID)
}

func (p *memoryPersisters) get(sessionID string) *cart.MemoryPersister {
	p.mu.Lock()
	defer p.mu.Unlock()
	mp, ok := p.carts[sessionID]
	if !ok {
		mp = cart.NewMemoryPersister()
		p.carts[sessionID] = mp
	}
	return mp
}

// 読み込みに時間がかかる保存先（Redisの往復くらい）
type slowPersisters struct {
	*memoryPersisters
	delay time.Duration
}

func (p *slowPersisters) For(sessionID string) cart.Persister {
	return slowPersister{Persister: p.get(sessionID), delay: p.delay}
}

type slowPersister struct {
	cart.Persister
	delay time.Duration
}

func (p slowPersister) Load(ctx context.Context) ([]cart.Line, error) {
	time.Sleep(p.delay)
	return p.Persister.Load(ctx)
}

// 通知を記録するだけ
type recordingNotifier struct {
	mu        sync.Mutex
	published []cart.Snapshot
}

func (n *recordingNotifier) Publish(ctx context.Context, sessionID string, snap cart.Snapshot) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.published = append(n.published, snap)
	return nil
}

func (n *recordingNotifier) Subscribe(ctx context.Context, sessionID string) (<-chan cart.Snapshot, func()) {
	ch := make(chan cart.Snapshot)
	return ch, func() {}
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.published)
}

// =====================
// Helper: error contains（HTTPErrorの実装詳細に依存しない）
// =====================

func assertErrContains(t *testing.T, err error, wantSubstr string) {
	t.Helper()
	if assert.Error(t, err) {
		assert.True(t, strings.Contains(err.Error(), wantSubstr), "err=%q want contains %q", err.Error(), wantSubstr)
	}
}

func strPtr(s string) *string { return &s }

var fixedTime = time.Date(2025, 1, 2, 12, 0, 0, 0, time.UTC)
