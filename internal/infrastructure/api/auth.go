package api

import (
	"context"

	"github.com/DRSN-tech/storefront-shell/internal/domain"
	"github.com/DRSN-tech/storefront-shell/internal/transport"
	"github.com/DRSN-tech/storefront-shell/pkg/e"
	"github.com/jimlawless/whereami"
)

type AuthClient struct {
	c *transport.Client
}

func NewAuthClient(c *transport.Client) *AuthClient {
	return &AuthClient{c: c}
}

func (a *AuthClient) Login(ctx context.Context, creds domain.Credentials) (*domain.AuthSession, error) {
	var session domain.AuthSession
	if err := a.c.Post(ctx, "/login", creds, &session); err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return &session, nil
}

func (a *AuthClient) Register(ctx context.Context, req domain.RegisterRequest) (*domain.AuthSession, error) {
	var session domain.AuthSession
	if err := a.c.Post(ctx, "/register", req, &session); err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return &session, nil
}

func (a *AuthClient) Logout(ctx context.Context) error {
	if err := a.c.Post(ctx, "/logout", nil, nil); err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return nil
}

func (a *AuthClient) Refresh(ctx context.Context, refreshToken string) (*domain.AuthSession, error) {
	var session domain.AuthSession
	body := map[string]string{"refreshToken": refreshToken}
	if err := a.c.Post(ctx, "/refresh", body, &session); err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return &session, nil
}

// Verify проверяет текущий токен. valid == false: сессия недействительна.
func (a *AuthClient) Verify(ctx context.Context) (*domain.User, bool, error) {
	var res struct {
		Valid bool         `json:"valid"`
		User  *domain.User `json:"user"`
	}
	if err := a.c.Post(ctx, "/verify", nil, &res); err != nil {
		return nil, false, e.Wrap(whereami.WhereAmI(), err)
	}

	return res.User, res.Valid, nil
}

func (a *AuthClient) RequestPasswordReset(ctx context.Context, email string) error {
	if err := a.c.Post(ctx, "/password-reset/request", map[string]string{"email": email}, nil); err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return nil
}

func (a *AuthClient) ConfirmPasswordReset(ctx context.Context, req domain.PasswordResetConfirm) error {
	if err := a.c.Post(ctx, "/password-reset/confirm", req, nil); err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return nil
}
