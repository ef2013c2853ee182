package store_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/DRSN-tech/storefront-shell/internal/domain"
	"github.com/DRSN-tech/storefront-shell/internal/events"
	"github.com/DRSN-tech/storefront-shell/internal/persist"
	"github.com/DRSN-tech/storefront-shell/internal/store"
	"github.com/DRSN-tech/storefront-shell/pkg/clock"
	"github.com/DRSN-tech/storefront-shell/pkg/logger"
)

var errBackend = errors.New("backend unavailable")

type fakeAuth struct {
	mu sync.Mutex

	session    *domain.AuthSession
	loginErr   error
	logoutErr  error
	refreshErr error
	valid      bool

	logouts   int
	refreshes []string
}

func (f *fakeAuth) Login(context.Context, domain.Credentials) (*domain.AuthSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.loginErr != nil {
		return nil, f.loginErr
	}
	return f.session, nil
}

func (f *fakeAuth) Register(ctx context.Context, _ domain.RegisterRequest) (*domain.AuthSession, error) {
	return f.Login(ctx, domain.Credentials{})
}

func (f *fakeAuth) Logout(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.logouts++
	return f.logoutErr
}

func (f *fakeAuth) Refresh(_ context.Context, refreshToken string) (*domain.AuthSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refreshes = append(f.refreshes, refreshToken)
	if f.refreshErr != nil {
		return nil, f.refreshErr
	}
	return &domain.AuthSession{Token: "access-2", RefreshToken: "refresh-2"}, nil
}

func (f *fakeAuth) Verify(context.Context) (*domain.User, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.valid {
		return nil, false, nil
	}
	return f.session.User, true, nil
}

func (f *fakeAuth) RequestPasswordReset(context.Context, string) error { return nil }

func (f *fakeAuth) ConfirmPasswordReset(context.Context, domain.PasswordResetConfirm) error {
	return nil
}

// blockingCatalog отдаёт каждый вызов ListProducts в calls и отвечает тем, что тест пришлёт в reply.
type blockingCatalog struct {
	calls chan pendingList
}

type pendingList struct {
	filters domain.ProductFilters
	reply   chan []domain.Product
}

func newBlockingCatalog() *blockingCatalog {
	return &blockingCatalog{calls: make(chan pendingList, 4)}
}

func (c *blockingCatalog) ListProducts(ctx context.Context, f domain.ProductFilters, page, limit int) (*domain.ProductPage, error) {
	call := pendingList{filters: f, reply: make(chan []domain.Product, 1)}
	c.calls <- call

	select {
	case items := <-call.reply:
		return &domain.ProductPage{Items: items, Total: len(items), Page: page, Limit: limit}, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (c *blockingCatalog) GetProduct(context.Context, string) (*domain.Product, error) {
	return nil, errBackend
}

func (c *blockingCatalog) ListCategories(context.Context) ([]domain.Category, error) {
	return []domain.Category{{ID: "c-1", Name: "Kitchen", Slug: "kitchen"}}, nil
}

type fakeOrders struct {
	mu      sync.Mutex
	orders  map[string]domain.Order
	created []domain.CreateOrderRequest
	synced  [][]domain.CartItem
}

func newFakeOrders(orders ...domain.Order) *fakeOrders {
	f := &fakeOrders{orders: make(map[string]domain.Order)}
	for _, o := range orders {
		f.orders[o.ID] = o
	}
	return f
}

func (f *fakeOrders) ListOrders(_ context.Context, userID string) ([]domain.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Order
	for _, o := range f.orders {
		if o.UserID == userID {
			out = append(out, o)
		}
	}
	return out, nil
}

func (f *fakeOrders) GetOrder(_ context.Context, id string) (*domain.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders[id]
	if !ok {
		return nil, errBackend
	}
	return &o, nil
}

func (f *fakeOrders) CreateOrder(_ context.Context, req domain.CreateOrderRequest) (*domain.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created = append(f.created, req)
	o := domain.Order{ID: "o-new", UserID: "u-1", Items: req.Items, Status: domain.OrderPending}
	f.orders[o.ID] = o
	return &o, nil
}

func (f *fakeOrders) UpdateStatus(_ context.Context, id string, status domain.OrderStatus) (*domain.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders[id]
	if !ok {
		return nil, errBackend
	}
	o.Status = status
	f.orders[id] = o
	return &o, nil
}

func (f *fakeOrders) CancelOrder(ctx context.Context, id string) (*domain.Order, error) {
	return f.UpdateStatus(ctx, id, domain.OrderCancelled)
}

func (f *fakeOrders) SyncCart(_ context.Context, items []domain.CartItem) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.synced = append(f.synced, items)
	return nil
}

type fixture struct {
	store   *store.Store
	bus     *events.Bus
	clock   *clock.FakeClock
	storage *persist.MemoryStorage
	adapter *persist.Adapter
	auth    *fakeAuth
	orders  *fakeOrders
}

func newFixture(t *testing.T, mutate ...func(*store.Deps)) *fixture {
	t.Helper()
	return newFixtureWithStorage(t, persist.NewMemoryStorage(), mutate...)
}

func newFixtureWithStorage(t *testing.T, storage *persist.MemoryStorage, mutate ...func(*store.Deps)) *fixture {
	t.Helper()

	log := logger.NewNopLogger()
	adapter, err := persist.NewAdapter(storage, "storefront-state", log)
	if err != nil {
		t.Fatal(err)
	}

	f := &fixture{
		bus:     events.NewBus(log),
		clock:   clock.Fake(time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)),
		storage: storage,
		adapter: adapter,
		auth: &fakeAuth{
			session: &domain.AuthSession{
				User:         &domain.User{ID: "u-1", Email: "ann@example.com", Name: "Ann"},
				Token:        "access-1",
				RefreshToken: "refresh-1",
			},
			valid: true,
		},
		orders: newFakeOrders(),
	}

	deps := store.Deps{
		Auth:    f.auth,
		Orders:  f.orders,
		Persist: adapter,
		Bus:     f.bus,
		Clock:   f.clock,
		Logger:  log,
	}
	for _, m := range mutate {
		m(&deps)
	}

	var seq atomic.Int64
	f.store = store.New(context.Background(), deps, store.WithIDGenerator(func() string {
		return fmt.Sprintf("id-%d", seq.Add(1))
	}))
	return f
}

func product(id string, price domain.Money, stock int) domain.Product {
	return domain.Product{ID: id, Name: "Product " + id, Price: price, Stock: stock}
}
