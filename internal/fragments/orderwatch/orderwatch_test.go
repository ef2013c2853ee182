package orderwatch_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/DRSN-tech/storefront-shell/internal/domain"
	"github.com/DRSN-tech/storefront-shell/internal/events"
	"github.com/DRSN-tech/storefront-shell/internal/fragments/orderwatch"
	"github.com/DRSN-tech/storefront-shell/internal/host"
	"github.com/DRSN-tech/storefront-shell/internal/infrastructure/api"
	"github.com/DRSN-tech/storefront-shell/internal/store"
	"github.com/DRSN-tech/storefront-shell/pkg/clock"
	"github.com/DRSN-tech/storefront-shell/pkg/logger"
)

const interval = time.Minute

type fakeOrders struct {
	mu     sync.Mutex
	status domain.OrderStatus
	calls  chan string
}

func (f *fakeOrders) setStatus(s domain.OrderStatus) {
	f.mu.Lock()
	f.status = s
	f.mu.Unlock()
}

func (f *fakeOrders) ListOrders(_ context.Context, userID string) ([]domain.Order, error) {
	f.mu.Lock()
	status := f.status
	f.mu.Unlock()

	f.calls <- userID
	return []domain.Order{{ID: "o-1", UserID: userID, Status: status}}, nil
}

func (f *fakeOrders) GetOrder(context.Context, string) (*domain.Order, error) { return nil, nil }

func (f *fakeOrders) CreateOrder(context.Context, domain.CreateOrderRequest) (*domain.Order, error) {
	return nil, nil
}

func (f *fakeOrders) UpdateStatus(context.Context, string, domain.OrderStatus) (*domain.Order, error) {
	return nil, nil
}

func (f *fakeOrders) CancelOrder(context.Context, string) (*domain.Order, error) { return nil, nil }

func (f *fakeOrders) SyncCart(context.Context, []domain.CartItem) error { return nil }

type fixture struct {
	host   *host.Host
	store  *store.Store
	bus    *events.Bus
	clock  *clock.FakeClock
	orders *fakeOrders
}

func setup(t *testing.T) *fixture {
	t.Helper()

	log := logger.NewNopLogger()
	clk := clock.Fake(time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC))
	bus := events.NewBus(log)
	orders := &fakeOrders{status: domain.OrderPending, calls: make(chan string, 8)}
	st := store.New(context.Background(), store.Deps{Orders: orders, Bus: bus, Clock: clk, Logger: log})
	h := host.New(host.Deps{Store: st, Clients: &api.Clients{}, Bus: bus, Logger: log, Clock: clk})
	t.Cleanup(func() { _ = h.Close(context.Background()) })

	return &fixture{host: h, store: st, bus: bus, clock: clk, orders: orders}
}

func (f *fixture) tick(t *testing.T) {
	t.Helper()
	f.clock.WaitForTimers(1)
	f.clock.Advance(interval)
}

func (f *fixture) waitFetch(t *testing.T) {
	t.Helper()
	select {
	case <-f.orders.calls:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for orders fetch")
	}
}

func TestPublishesStatusChanges(t *testing.T) {
	f := setup(t)
	f.store.SetState(func(s *store.State) { s.Auth.User = &domain.User{ID: "u-1"} })

	changed := make(chan events.OrderStatusChanged, 4)
	events.On(f.bus, func(ev events.OrderStatusChanged) { changed <- ev })

	if err := f.host.Mount(context.Background(), orderwatch.New(orderwatch.WithInterval(interval))); err != nil {
		t.Fatal(err)
	}

	f.tick(t)
	f.waitFetch(t)

	f.orders.setStatus(domain.OrderShipped)
	f.tick(t)
	f.waitFetch(t)

	select {
	case ev := <-changed:
		if ev.OrderID != "o-1" || ev.From != domain.OrderPending || ev.To != domain.OrderShipped {
			t.Fatalf("event = %+v", ev)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("status change was not published")
	}
}

func TestSkipsWhileAnonymous(t *testing.T) {
	f := setup(t)

	if err := f.host.Mount(context.Background(), orderwatch.New(orderwatch.WithInterval(interval))); err != nil {
		t.Fatal(err)
	}

	f.tick(t)
	// следующий таймер ставится только после пропущенной итерации
	f.clock.WaitForTimers(1)

	select {
	case <-f.orders.calls:
		t.Fatal("orders fetched without a session")
	default:
	}
}

func TestUnmountStopsWatching(t *testing.T) {
	f := setup(t)
	f.store.SetState(func(s *store.State) { s.Auth.User = &domain.User{ID: "u-1"} })

	if err := f.host.Mount(context.Background(), orderwatch.New(orderwatch.WithInterval(interval))); err != nil {
		t.Fatal(err)
	}
	f.clock.WaitForTimers(1)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := f.host.Unmount(ctx, orderwatch.Name); err != nil {
		t.Fatal(err)
	}

	f.clock.Advance(interval)
	select {
	case <-f.orders.calls:
		t.Fatal("orders fetched after unmount")
	default:
	}
}
