package transport_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/DRSN-tech/storefront-shell/internal/cfg"
	"github.com/DRSN-tech/storefront-shell/internal/domain"
	"github.com/DRSN-tech/storefront-shell/internal/persist"
	"github.com/DRSN-tech/storefront-shell/internal/transport"
	"github.com/DRSN-tech/storefront-shell/pkg/clock"
	"github.com/DRSN-tech/storefront-shell/pkg/logger"
)

type recorder struct {
	mu            sync.Mutex
	notifications []domain.Notification
	evictions     int
	navigations   []string
	loading       []bool
}

func (r *recorder) Push(n domain.Notification) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notifications = append(r.notifications, n)
	return "n"
}

func (r *recorder) Evict() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.evictions++
}

func (r *recorder) Navigate(path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.navigations = append(r.navigations, path)
}

func (r *recorder) SetGlobalLoading(loading bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.loading = append(r.loading, loading)
}

type fixture struct {
	factory *transport.Factory
	adapter *persist.Adapter
	clk     *clock.FakeClock
	rec     *recorder
	delays  []time.Duration
	mu      sync.Mutex
}

func newFixture(t *testing.T, baseURL string) *fixture {
	t.Helper()

	adapter, err := persist.NewAdapter(persist.NewMemoryStorage(), "state", logger.NewNopLogger())
	if err != nil {
		t.Fatal(err)
	}

	f := &fixture{
		adapter: adapter,
		clk:     clock.Fake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)),
		rec:     &recorder{},
	}

	policy := transport.DefaultRetryPolicy()
	policy.OnRetry = func(_ int, delay time.Duration, _ error) {
		f.mu.Lock()
		f.delays = append(f.delays, delay)
		f.mu.Unlock()
	}

	f.factory = transport.NewFactory(transport.FactoryConfig{
		Services: map[string]cfg.ServiceCfg{
			cfg.ServiceOrders: {BaseURL: baseURL, Timeout: 5 * time.Second},
		},
		Retry:         policy,
		SlowThreshold: 3 * time.Second,
		RedirectDelay: 1500 * time.Millisecond,
		LoginPath:     "/login",
	}, adapter, f.clk, logger.NewNopLogger())

	f.factory.Hooks().Bind(transport.Sinks{
		Notifier:  f.rec,
		Evictor:   f.rec,
		Navigator: f.rec,
		Loading:   f.rec,
	})

	return f
}

func (f *fixture) login(t *testing.T, token string) {
	t.Helper()
	err := f.adapter.WriteAuth(context.Background(), persist.AuthPartition{
		Token:           &token,
		User:            &domain.User{ID: "u-1"},
		IsAuthenticated: true,
	})
	if err != nil {
		t.Fatal(err)
	}
}

func TestRetryBacksOffExponentiallyThenSucceeds(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) <= 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`{"id":"o-1","status":"pending"}`))
	}))
	defer srv.Close()

	f := newFixture(t, srv.URL)

	done := make(chan error, 1)
	var order domain.Order
	go func() {
		done <- f.factory.Orders().Get(context.Background(), "/o-1", nil, &order)
	}()

	want := []time.Duration{time.Second, 2 * time.Second, 4 * time.Second}
	for _, d := range want {
		f.clk.WaitForTimers(1)
		f.clk.Advance(d)
	}

	if err := <-done; err != nil {
		t.Fatalf("Get: %v", err)
	}
	if hits.Load() != 4 {
		t.Fatalf("hits = %d, want 4", hits.Load())
	}
	if order.ID != "o-1" {
		t.Fatalf("order = %+v", order)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.delays) != 3 {
		t.Fatalf("delays = %v, want %v", f.delays, want)
	}
	for i := range want {
		if f.delays[i] != want[i] {
			t.Fatalf("delays = %v, want %v", f.delays, want)
		}
	}
}

func TestNotFoundIsNotRetried(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"message":"order not found"}`))
	}))
	defer srv.Close()

	f := newFixture(t, srv.URL)
	err := f.factory.Orders().Get(context.Background(), "/missing", nil, nil)

	if !transport.IsStatus(err, http.StatusNotFound) {
		t.Fatalf("err = %v, want 404 APIError", err)
	}
	var apiErr *transport.APIError
	if !errors.As(err, &apiErr) || apiErr.Message != "order not found" || apiErr.Service != cfg.ServiceOrders {
		t.Fatalf("apiErr = %+v", apiErr)
	}
	if hits.Load() != 1 {
		t.Fatalf("hits = %d, want 1", hits.Load())
	}
	if len(f.rec.notifications) != 1 || f.rec.notifications[0].Type != domain.NotificationError {
		t.Fatalf("notifications = %+v, want one error toast", f.rec.notifications)
	}
}

func TestRetryExhaustionSurfacesLastError(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	f := newFixture(t, srv.URL)
	done := make(chan error, 1)
	go func() { done <- f.factory.Orders().Get(context.Background(), "/", nil, nil) }()

	for i := 1; i <= 3; i++ {
		f.clk.WaitForTimers(1)
		f.clk.Advance(time.Duration(1<<(i-1)) * time.Second)
	}

	err := <-done
	if transport.CategoryOf(err) != transport.CategoryServer {
		t.Fatalf("err = %v, want server error", err)
	}
	if hits.Load() != 4 {
		t.Fatalf("hits = %d, want 4 (1 + 3 retries)", hits.Load())
	}
	if len(f.rec.notifications) != 1 {
		t.Fatalf("expected a single toast for the final failure, got %d", len(f.rec.notifications))
	}
}

func TestRetryReplaysRequestBody(t *testing.T) {
	var (
		hits   atomic.Int32
		bodies = make(chan string, 2)
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		bodies <- string(b)
		if hits.Add(1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	f := newFixture(t, srv.URL)
	done := make(chan error, 1)
	go func() {
		done <- f.factory.Orders().Post(context.Background(), "/", map[string]string{"note": "gift"}, nil)
	}()

	f.clk.WaitForTimers(1)
	f.clk.Advance(time.Second)

	if err := <-done; err != nil {
		t.Fatalf("Post: %v", err)
	}
	first, second := <-bodies, <-bodies
	if first != second || first != `{"note":"gift"}` {
		t.Fatalf("bodies = %q, %q", first, second)
	}
}

func TestCancellationStopsRetrying(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	f := newFixture(t, srv.URL)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- f.factory.Orders().Get(ctx, "/", nil, nil) }()

	f.clk.WaitForTimers(1)
	cancel()

	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if hits.Load() != 1 {
		t.Fatalf("hits = %d, want 1", hits.Load())
	}
}

func TestAuthTokenAndRequestIDInjected(t *testing.T) {
	headers := make(chan http.Header, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		headers <- r.Header.Clone()
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	f := newFixture(t, srv.URL)
	f.login(t, "tok-123")

	if err := f.factory.Orders().Get(context.Background(), "/", nil, nil); err != nil {
		t.Fatal(err)
	}

	h := <-headers
	if got := h.Get("Authorization"); got != "Bearer tok-123" {
		t.Fatalf("Authorization = %q", got)
	}
	if h.Get(transport.HeaderRequestID) == "" {
		t.Fatal("X-Request-ID missing")
	}
}

func TestUnauthorizedEvictsSession(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	f := newFixture(t, srv.URL)
	f.login(t, "expired")

	err := f.factory.Orders().Get(context.Background(), "/", nil, nil)
	if !transport.IsUnauthorized(err) {
		t.Fatalf("err = %v, want 401", err)
	}
	if hits.Load() != 1 {
		t.Fatalf("401 must not be retried, hits = %d", hits.Load())
	}

	auth, found, err := f.adapter.ReadAuth(context.Background())
	if err != nil || !found {
		t.Fatalf("ReadAuth: found=%v err=%v", found, err)
	}
	if auth.IsAuthenticated || auth.Token != nil || auth.User != nil {
		t.Fatalf("persisted auth = %+v, want logged out", auth)
	}
	if f.rec.evictions != 1 {
		t.Fatalf("evictions = %d, want 1", f.rec.evictions)
	}
	if len(f.rec.notifications) != 1 {
		t.Fatalf("notifications = %+v", f.rec.notifications)
	}
	n := f.rec.notifications[0]
	if n.Title != "Session expired" || n.Action == nil || n.Action.Href != "/login" {
		t.Fatalf("notification = %+v", n)
	}

	f.clk.Advance(1499 * time.Millisecond)
	if len(f.rec.navigations) != 0 {
		t.Fatal("redirected before the delay elapsed")
	}
	f.clk.Advance(time.Millisecond)
	if len(f.rec.navigations) != 1 || f.rec.navigations[0] != "/login" {
		t.Fatalf("navigations = %v", f.rec.navigations)
	}
}

func TestUnauthorizedWithoutTokenDoesNotEvict(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	f := newFixture(t, srv.URL)
	err := f.factory.Orders().Post(context.Background(), "/login", map[string]string{"email": "a"}, nil)
	if !transport.IsUnauthorized(err) {
		t.Fatalf("err = %v", err)
	}
	if f.rec.evictions != 0 || f.clk.Pending() != 0 {
		t.Fatal("anonymous 401 must not trigger eviction")
	}
}

func TestLoadingCounterTransitions(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	f := newFixture(t, srv.URL)
	if err := f.factory.Orders().Get(context.Background(), "/", nil, nil); err != nil {
		t.Fatal(err)
	}

	if len(f.rec.loading) != 2 || !f.rec.loading[0] || f.rec.loading[1] {
		t.Fatalf("loading transitions = %v, want [true false]", f.rec.loading)
	}
	if f.factory.InFlight() != 0 {
		t.Fatalf("in flight = %d", f.factory.InFlight())
	}
}

func TestNestedRetryPassesThrough(t *testing.T) {
	clk := clock.Fake(time.Now())
	calls := 0
	inner := func(req *http.Request) (*http.Response, error) {
		calls++
		return nil, &transport.APIError{StatusCode: 500, Category: transport.CategoryServer}
	}

	policy := transport.RetryPolicy{MaxRetries: 0}
	h := transport.Chain(inner,
		transport.Retry("outer", policy, clk, logger.NewNopLogger()),
		transport.Retry("inner", transport.DefaultRetryPolicy(), clk, logger.NewNopLogger()),
	)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if _, err := h(req); err == nil {
		t.Fatal("expected error")
	}
	if calls != 1 {
		t.Fatalf("calls = %d, want 1: inner retry stage must defer to the outer one", calls)
	}
}

func TestFactoryBuildsConfiguredServices(t *testing.T) {
	conf := (&cfg.ServicesCfg{}).ByName()
	adapter, _ := persist.NewAdapter(persist.NewMemoryStorage(), "k", logger.NewNopLogger())
	f := transport.NewFactory(transport.FactoryConfig{Services: conf}, adapter, clock.Real(), logger.NewNopLogger())

	if got := len(f.Services()); got != 6 {
		t.Fatalf("services = %d, want 6", got)
	}
	for _, c := range []*transport.Client{f.Catalog(), f.Orders(), f.Customers(), f.Payments(), f.Auth(), f.Notifications()} {
		if c == nil {
			t.Fatal("missing service client")
		}
	}
}
