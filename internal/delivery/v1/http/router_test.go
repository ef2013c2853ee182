package http_test

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	v1http "github.com/DRSN-tech/storefront-shell/internal/delivery/v1/http"
	"github.com/DRSN-tech/storefront-shell/internal/domain"
	"github.com/DRSN-tech/storefront-shell/internal/events"
	"github.com/DRSN-tech/storefront-shell/internal/host"
	"github.com/DRSN-tech/storefront-shell/internal/infrastructure/api"
	"github.com/DRSN-tech/storefront-shell/internal/store"
	"github.com/DRSN-tech/storefront-shell/internal/transport"
	"github.com/DRSN-tech/storefront-shell/pkg/clock"
	"github.com/DRSN-tech/storefront-shell/pkg/logger"
	"github.com/go-chi/chi/v5"
)

type fakeAuth struct {
	store.AuthAPI
	err error
}

func (f *fakeAuth) Login(_ context.Context, creds domain.Credentials) (*domain.AuthSession, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &domain.AuthSession{User: &domain.User{ID: "u-1", Email: creds.Email}, Token: "t", RefreshToken: "r"}, nil
}

func (f *fakeAuth) Logout(context.Context) error { return nil }

type fixture struct {
	handler http.Handler
	store   *store.Store
	bus     *events.Bus
	auth    *fakeAuth
}

func setup(t *testing.T) *fixture {
	t.Helper()

	log := logger.NewNopLogger()
	clk := clock.Fake(time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC))
	bus := events.NewBus(log)
	auth := &fakeAuth{}
	st := store.New(context.Background(), store.Deps{Auth: auth, Bus: bus, Clock: clk, Logger: log})
	h := host.New(host.Deps{Store: st, Clients: &api.Clients{}, Bus: bus, Logger: log, Clock: clk})

	r := chi.NewRouter()
	v1http.NewRouter(r, log).Init(v1http.Deps{Host: h, Store: st, Bus: bus, Clock: clk})

	return &fixture{handler: r, store: st, bus: bus, auth: auth}
}

func (f *fixture) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

const mugJSON = `{"id":"p-1","name":"Mug","price":"30.00","stock":3}`

func TestCartEndpoints(t *testing.T) {
	f := setup(t)

	rec := f.do(t, http.MethodPost, "/api/v1/cart/items", `{"product":`+mugJSON+`,"quantity":2}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("add: %d %s", rec.Code, rec.Body)
	}
	var cart store.CartState
	if err := json.Unmarshal(rec.Body.Bytes(), &cart); err != nil {
		t.Fatal(err)
	}
	// 60.00 + 6.00 налога, доставка бесплатна
	if cart.ItemCount != 2 || cart.Total != domain.NewMoney(66, 0) {
		t.Fatalf("cart = %+v", cart)
	}

	rec = f.do(t, http.MethodPatch, "/api/v1/cart/items/p-1", `{"quantity":10}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("patch: %d %s", rec.Code, rec.Body)
	}
	if got := f.store.GetState().Cart.ItemCount; got != 3 {
		t.Fatalf("quantity must clamp to stock, item count = %d", got)
	}

	if rec := f.do(t, http.MethodPatch, "/api/v1/cart/items/ghost", `{"quantity":1}`); rec.Code != http.StatusNotFound {
		t.Fatalf("patch missing: %d", rec.Code)
	}

	if rec := f.do(t, http.MethodDelete, "/api/v1/cart/items/p-1", ""); rec.Code != http.StatusNoContent {
		t.Fatalf("delete: %d", rec.Code)
	}
	if got := len(f.store.GetState().Cart.Items); got != 0 {
		t.Fatalf("items after delete = %d", got)
	}
}

func TestCartValidation(t *testing.T) {
	f := setup(t)

	tests := []struct {
		body string
		code int
	}{
		{`{"product":` + mugJSON + `,"quantity":0}`, http.StatusBadRequest},
		{`{"product":{"id":"p-2","price":"1.00","stock":0},"quantity":1}`, http.StatusConflict},
		{`{"product":{"id":"p-3","price":"1.001","stock":1},"quantity":1}`, http.StatusBadRequest},
		{`{"product":` + mugJSON + `,"quantity":1,"extra":true}`, http.StatusBadRequest},
		{`{"product":{"price":"1.00","stock":1},"quantity":1}`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		if rec := f.do(t, http.MethodPost, "/api/v1/cart/items", tt.body); rec.Code != tt.code {
			t.Errorf("body %s: code = %d, want %d (%s)", tt.body, rec.Code, tt.code, rec.Body)
		}
	}
	if len(f.store.GetState().Cart.Items) != 0 {
		t.Fatal("rejected requests must not change the cart")
	}
}

func TestClearCart(t *testing.T) {
	f := setup(t)
	f.do(t, http.MethodPost, "/api/v1/cart/items", `{"product":`+mugJSON+`,"quantity":1}`)

	if rec := f.do(t, http.MethodDelete, "/api/v1/cart", ""); rec.Code != http.StatusNoContent {
		t.Fatalf("clear: %d", rec.Code)
	}
	if st := f.store.GetState().Cart; len(st.Items) != 0 || st.Total != 0 {
		t.Fatalf("cart = %+v", st)
	}
}

func TestLoginAndLogout(t *testing.T) {
	f := setup(t)

	rec := f.do(t, http.MethodPost, "/api/v1/auth/login", `{"email":"ada@example.com","password":"secret"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("login: %d %s", rec.Code, rec.Body)
	}
	if !f.store.GetState().Auth.IsAuthenticated {
		t.Fatal("store must be authenticated after login")
	}

	state := f.do(t, http.MethodGet, "/api/v1/state", "")
	if strings.Contains(state.Body.String(), `"t"`) || strings.Contains(state.Body.String(), "refreshToken") {
		t.Fatalf("state leaks tokens: %s", state.Body)
	}

	rec = f.do(t, http.MethodPost, "/api/v1/auth/logout", "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"remoteOk":true`) {
		t.Fatalf("logout: %d %s", rec.Code, rec.Body)
	}
	if f.store.GetState().Auth.IsAuthenticated {
		t.Fatal("store must be logged out")
	}
}

func TestLoginRejected(t *testing.T) {
	f := setup(t)
	f.auth.err = &transport.APIError{
		Service:    "auth",
		StatusCode: http.StatusUnauthorized,
		Message:    "invalid credentials",
		Category:   transport.CategoryUnauthorized,
	}

	rec := f.do(t, http.MethodPost, "/api/v1/auth/login", `{"email":"ada@example.com","password":"nope"}`)
	if rec.Code != http.StatusUnauthorized || !strings.Contains(rec.Body.String(), "invalid credentials") {
		t.Fatalf("login: %d %s", rec.Code, rec.Body)
	}
}

func TestThemeAndContract(t *testing.T) {
	f := setup(t)

	if rec := f.do(t, http.MethodPut, "/api/v1/ui/theme", `{"theme":"neon"}`); rec.Code != http.StatusBadRequest {
		t.Fatalf("invalid theme: %d", rec.Code)
	}
	if rec := f.do(t, http.MethodPut, "/api/v1/ui/theme", `{"theme":"dark"}`); rec.Code != http.StatusOK {
		t.Fatalf("theme: %d %s", rec.Code, rec.Body)
	}
	if f.store.GetState().UI.Theme != domain.ThemeDark {
		t.Fatalf("theme = %s", f.store.GetState().UI.Theme)
	}

	rec := f.do(t, http.MethodGet, "/api/v1/contract", "")
	var c v1http.ContractResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &c); err != nil {
		t.Fatal(err)
	}
	if c.Version != host.ContractVersion {
		t.Fatalf("contract = %+v", c)
	}
}

func TestEventStream(t *testing.T) {
	f := setup(t)
	srv := httptest.NewServer(f.handler)
	t.Cleanup(srv.Close)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/api/v1/events?kinds=order:created", nil)
	res, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer res.Body.Close()

	if ct := res.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("content type = %s", ct)
	}

	r := bufio.NewReader(res.Body)
	if line, _ := r.ReadString('\n'); line != ": connected\n" {
		t.Fatalf("first line = %q", line)
	}
	r.ReadString('\n')

	// не входит в kinds и не должно попасть в поток
	f.bus.Publish(events.AuthLogout{UserID: "u-1"})
	f.bus.Publish(events.OrderCreated{Order: domain.Order{ID: "o-1"}})

	var lines []string
	for len(lines) < 3 {
		line, err := r.ReadString('\n')
		if err != nil {
			t.Fatal(err)
		}
		lines = append(lines, strings.TrimSuffix(line, "\n"))
	}

	if !strings.HasPrefix(lines[0], "id: ") || lines[1] != "event: order:created" || !strings.Contains(lines[2], `"id":"o-1"`) {
		t.Fatalf("event = %q", lines)
	}
}

func TestEventStreamUnknownKind(t *testing.T) {
	f := setup(t)

	if rec := f.do(t, http.MethodGet, "/api/v1/events?kinds=order:shipped", ""); rec.Code != http.StatusBadRequest {
		t.Fatalf("code = %d", rec.Code)
	}
}
