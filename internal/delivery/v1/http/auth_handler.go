package http

import (
	"net/http"

	"github.com/DRSN-tech/storefront-shell/internal/domain"
	"github.com/DRSN-tech/storefront-shell/internal/store"
	"github.com/DRSN-tech/storefront-shell/pkg/logger"
)

type AuthHandler struct {
	store  *store.Store
	logger logger.Logger
}

func NewAuthHandler(st *store.Store, logger logger.Logger) *AuthHandler {
	return &AuthHandler{store: st, logger: logger}
}

type LogoutResponse struct {
	// RemoteOK == false: сервис авторизации не подтвердил выход, локальная сессия всё равно сброшена.
	RemoteOK bool `json:"remoteOk"`
}

// login
//
//	@Summary		Вход
//	@Tags			auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		domain.Credentials	true	"Email и пароль"
//	@Success		200		{object}	domain.User
//	@Failure		401		{object}	ErrorResponse	"Неверные учётные данные"
//	@Failure		502		{object}	ErrorResponse	"Сервис авторизации недоступен"
//	@Router			/auth/login [post]
func (a *AuthHandler) login(w http.ResponseWriter, r *http.Request) {
	var creds domain.Credentials
	if err := decodeJSON(w, r, &creds); err != nil {
		a.logger.Warnf("%d %s: %s", http.StatusBadRequest, e400, err.Error())
		WriteError(w, err)
		return
	}

	user, err := a.store.Auth().Login(r.Context(), creds)
	if err != nil {
		a.logger.Warnf("login failed: %s", err.Error())
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, user)
}

// logout
//
//	@Summary		Выход
//	@Description	Локальная сессия сбрасывается всегда, даже если сервис авторизации ответил ошибкой
//	@Tags			auth
//	@Produce		json
//	@Success		200	{object}	LogoutResponse
//	@Router			/auth/logout [post]
func (a *AuthHandler) logout(w http.ResponseWriter, r *http.Request) {
	res := a.store.Auth().Logout(r.Context())
	WriteSuccess(w, http.StatusOK, LogoutResponse{RemoteOK: res.RemoteOK})
}
