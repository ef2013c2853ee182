package store_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DRSN-tech/storefront-shell/internal/domain"
	"github.com/DRSN-tech/storefront-shell/internal/events"
	"github.com/DRSN-tech/storefront-shell/pkg/e"
	"github.com/golang-jwt/jwt/v5"
)

func TestLoginPublishesOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	var got []events.AuthLogin
	events.On(f.bus, func(ev events.AuthLogin) { got = append(got, ev) })

	user, err := f.store.Auth().Login(ctx, domain.Credentials{Email: "ann@example.com", Password: "secret"})
	if err != nil {
		t.Fatal(err)
	}

	late := 0
	events.On(f.bus, func(events.AuthLogin) { late++ })

	if len(got) != 1 || got[0].User.ID != "u-1" || user.ID != "u-1" {
		t.Fatalf("events = %+v", got)
	}
	if late != 0 {
		t.Fatal("late subscriber received an earlier event")
	}

	st := f.store.GetState().Auth
	if !st.IsAuthenticated || st.Token == nil || *st.Token != "access-1" || st.IsLoading {
		t.Fatalf("auth state = %+v", st)
	}

	saved, ok, err := f.adapter.ReadAuth(ctx)
	if err != nil || !ok || saved.Token == nil || *saved.Token != "access-1" {
		t.Fatalf("persisted auth = %+v, %v, %v", saved, ok, err)
	}
}

func TestLoginFailureRecordsError(t *testing.T) {
	f := newFixture(t)
	f.auth.loginErr = errBackend

	_, err := f.store.Auth().Login(context.Background(), domain.Credentials{})
	if !errors.Is(err, errBackend) {
		t.Fatalf("err = %v", err)
	}

	st := f.store.GetState().Auth
	if st.IsAuthenticated || st.IsLoading || st.Error == "" {
		t.Fatalf("auth state = %+v", st)
	}

	f.store.Auth().ClearError()
	if f.store.GetState().Auth.Error != "" {
		t.Fatal("error not cleared")
	}
}

func TestRegisterPublishesRegisterThenLogin(t *testing.T) {
	f := newFixture(t)

	var kinds []events.Kind
	for _, k := range []events.Kind{events.KindAuthRegister, events.KindAuthLogin} {
		f.bus.Subscribe(k, func(ev events.Event) { kinds = append(kinds, ev.Kind()) })
	}

	if _, err := f.store.Auth().Register(context.Background(), domain.RegisterRequest{Name: "Ann"}); err != nil {
		t.Fatal(err)
	}
	if len(kinds) != 2 || kinds[0] != events.KindAuthRegister || kinds[1] != events.KindAuthLogin {
		t.Fatalf("kinds = %v", kinds)
	}
}

func TestLogoutAlwaysClearsLocalState(t *testing.T) {
	for _, remoteErr := range []error{nil, errBackend} {
		f := newFixture(t)
		ctx := context.Background()
		f.auth.logoutErr = remoteErr

		if _, err := f.store.Auth().Login(ctx, domain.Credentials{}); err != nil {
			t.Fatal(err)
		}
		_ = f.store.Cart().AddItem(product("p-1", domain.NewMoney(30, 0), 5), 2)

		var logouts []events.AuthLogout
		events.On(f.bus, func(ev events.AuthLogout) { logouts = append(logouts, ev) })

		res := f.store.Auth().Logout(ctx)
		if res.RemoteOK != (remoteErr == nil) {
			t.Fatalf("RemoteOK = %v with remote error %v", res.RemoteOK, remoteErr)
		}
		if remoteErr != nil && !errors.Is(res.RemoteErr, remoteErr) {
			t.Fatalf("RemoteErr = %v", res.RemoteErr)
		}

		st := f.store.GetState()
		if st.Auth.IsAuthenticated || st.Auth.User != nil || st.Auth.Token != nil || st.Auth.RefreshToken != nil {
			t.Fatalf("auth = %+v", st.Auth)
		}
		if len(st.Cart.Items) != 0 || st.Cart.Total != 0 {
			t.Fatalf("cart = %+v", st.Cart)
		}
		if len(logouts) != 1 || logouts[0].UserID != "u-1" {
			t.Fatalf("logout events = %+v", logouts)
		}

		saved := f.adapter.Load(ctx)
		if saved.Auth.IsAuthenticated || saved.Auth.Token != nil || len(saved.Cart.Items) != 0 {
			t.Fatalf("persisted = %+v", saved)
		}
	}
}

func TestRefreshWithoutTokenLogsOut(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, _ = f.store.Auth().Login(ctx, domain.Credentials{})
	f.store.Auth().SetToken(nil, nil)

	err := f.store.Auth().RefreshAuthToken(ctx)
	if !errors.Is(err, e.ErrNoRefreshToken) {
		t.Fatalf("err = %v, want ErrNoRefreshToken", err)
	}
	if f.store.Auth().IsAuthenticated() {
		t.Fatal("must be logged out")
	}
}

func TestRefreshFailureLogsOut(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, _ = f.store.Auth().Login(ctx, domain.Credentials{})
	f.auth.refreshErr = errBackend

	if err := f.store.Auth().RefreshAuthToken(ctx); !errors.Is(err, errBackend) {
		t.Fatalf("err = %v", err)
	}
	if f.store.Auth().IsAuthenticated() || f.auth.logouts != 1 {
		t.Fatalf("authenticated = %v, remote logouts = %d", f.store.Auth().IsAuthenticated(), f.auth.logouts)
	}
}

func TestRefreshRotatesTokens(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, _ = f.store.Auth().Login(ctx, domain.Credentials{})

	refreshed := 0
	events.On(f.bus, func(ev events.AuthTokenRefreshed) {
		if ev.UserID == "u-1" {
			refreshed++
		}
	})

	if err := f.store.Auth().RefreshAuthToken(ctx); err != nil {
		t.Fatal(err)
	}

	st := f.store.GetState().Auth
	if *st.Token != "access-2" || *st.RefreshToken != "refresh-2" || !st.IsAuthenticated {
		t.Fatalf("auth = %+v", st)
	}
	if refreshed != 1 || len(f.auth.refreshes) != 1 || f.auth.refreshes[0] != "refresh-1" {
		t.Fatalf("refreshed = %d, calls = %v", refreshed, f.auth.refreshes)
	}
}

func TestVerifySessionInvalidLogsOut(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, _ = f.store.Auth().Login(ctx, domain.Credentials{})
	f.auth.valid = false

	ok, err := f.store.Auth().VerifySession(ctx)
	if err != nil || ok {
		t.Fatalf("VerifySession = %v, %v", ok, err)
	}
	if f.store.Auth().IsAuthenticated() {
		t.Fatal("invalid session must log out")
	}
}

func TestEvictKeepsCart(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, _ = f.store.Auth().Login(ctx, domain.Credentials{})
	_ = f.store.Cart().AddItem(product("p-1", domain.NewMoney(30, 0), 5), 1)

	logouts := 0
	events.On(f.bus, func(events.AuthLogout) { logouts++ })

	f.store.Auth().Evict()
	f.store.Auth().Evict()

	st := f.store.GetState()
	if st.Auth.IsAuthenticated || st.Auth.Token != nil {
		t.Fatalf("auth = %+v", st.Auth)
	}
	if len(st.Cart.Items) != 1 {
		t.Fatal("eviction must not clear the cart")
	}
	if logouts != 1 {
		t.Fatalf("logout events = %d, want 1", logouts)
	}
	if f.auth.logouts != 0 {
		t.Fatal("eviction must not call the remote logout")
	}
}

func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "u-1",
		"exp": exp.Unix(),
	}).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatal(err)
	}
	return token
}

func TestEnsureFreshToken(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if err := f.store.Auth().EnsureFreshToken(ctx, time.Minute); !errors.Is(err, e.ErrNotAuthenticated) {
		t.Fatalf("err = %v, want ErrNotAuthenticated", err)
	}

	_, _ = f.store.Auth().Login(ctx, domain.Credentials{})
	refresh := "refresh-1"

	fresh := signedToken(t, f.clock.Now().Add(time.Hour))
	f.store.Auth().SetToken(&fresh, &refresh)
	if err := f.store.Auth().EnsureFreshToken(ctx, time.Minute); err != nil || len(f.auth.refreshes) != 0 {
		t.Fatalf("fresh token: err = %v, refreshes = %v", err, f.auth.refreshes)
	}

	expiring := signedToken(t, f.clock.Now().Add(30*time.Second))
	f.store.Auth().SetToken(&expiring, &refresh)
	if err := f.store.Auth().EnsureFreshToken(ctx, time.Minute); err != nil || len(f.auth.refreshes) != 1 {
		t.Fatalf("expiring token: err = %v, refreshes = %v", err, f.auth.refreshes)
	}

	opaque := "opaque-token"
	f.store.Auth().SetToken(&opaque, &refresh)
	if err := f.store.Auth().EnsureFreshToken(ctx, time.Minute); err != nil || len(f.auth.refreshes) != 1 {
		t.Fatalf("opaque token: err = %v, refreshes = %v", err, f.auth.refreshes)
	}
}
