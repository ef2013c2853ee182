package store

import (
	"context"
	"time"

	"github.com/DRSN-tech/storefront-shell/internal/domain"
	"github.com/DRSN-tech/storefront-shell/internal/events"
	"github.com/DRSN-tech/storefront-shell/pkg/e"
	"github.com/golang-jwt/jwt/v5"
	"github.com/jimlawless/whereami"
)

// AuthSlice — вход, выход и обновление токенов.
//
// Состояния: anonymous -> (Login/Register) -> authenticated -> (Logout/Evict) -> anonymous.
// Неудачный RefreshAuthToken всегда завершается выходом.
type AuthSlice struct {
	s *Store
}

// LogoutResult — итог выхода. Локальное состояние очищается всегда; RemoteOK сообщает,
// принял ли выход сервер.
type LogoutResult struct {
	RemoteOK  bool
	RemoteErr error
}

func (a *AuthSlice) Login(ctx context.Context, creds domain.Credentials) (*domain.User, error) {
	if a.s.deps.Auth == nil {
		return nil, e.Wrap(whereami.WhereAmI(), e.ErrNoClient)
	}

	a.begin()
	sess, err := a.s.deps.Auth.Login(ctx, creds)
	if err != nil {
		a.fail(err)
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	user := a.establish(sess)
	a.s.publish(events.AuthLogin{User: *user})
	return user, nil
}

// Register создаёт учётную запись и сразу входит в неё.
func (a *AuthSlice) Register(ctx context.Context, req domain.RegisterRequest) (*domain.User, error) {
	if a.s.deps.Auth == nil {
		return nil, e.Wrap(whereami.WhereAmI(), e.ErrNoClient)
	}

	a.begin()
	sess, err := a.s.deps.Auth.Register(ctx, req)
	if err != nil {
		a.fail(err)
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	user := a.establish(sess)
	a.s.publish(events.AuthRegister{User: *user})
	a.s.publish(events.AuthLogin{User: *user})
	return user, nil
}

// Logout вызывает выход на сервере и очищает локальную сессию независимо от его результата.
// Вместе с auth очищаются корзина и срезы, принадлежащие пользователю (заказы, профиль, платежи).
func (a *AuthSlice) Logout(ctx context.Context) LogoutResult {
	var res LogoutResult
	if a.s.deps.Auth == nil {
		res.RemoteErr = e.ErrNoClient
	} else if err := a.s.deps.Auth.Logout(ctx); err != nil {
		res.RemoteErr = e.Wrap(whereami.WhereAmI(), err)
		a.s.logger.Warnf("remote logout failed, clearing local session anyway: %v", err)
	} else {
		res.RemoteOK = true
	}

	var userID string
	a.s.gens.invalidate()
	a.s.update(func(st *State) {
		if st.Auth.User != nil {
			userID = st.Auth.User.ID
		}

		st.Auth = AuthState{}
		st.Cart = CartState{Items: []domain.CartItem{}}
		st.Orders = OrdersState{}
		st.Customer = CustomerState{}
		st.Payment = PaymentState{}
	})

	a.s.publish(events.AuthLogout{UserID: userID})
	return res
}

// RefreshAuthToken меняет пару токенов. Без refresh-токена и при любой ошибке сервера выполняется выход.
func (a *AuthSlice) RefreshAuthToken(ctx context.Context) error {
	if a.s.deps.Auth == nil {
		return e.Wrap(whereami.WhereAmI(), e.ErrNoClient)
	}

	var refresh string
	a.s.read(func(st *State) {
		if st.Auth.RefreshToken != nil {
			refresh = *st.Auth.RefreshToken
		}
	})
	if refresh == "" {
		a.Logout(ctx)
		return e.Wrap(whereami.WhereAmI(), e.ErrNoRefreshToken)
	}

	sess, err := a.s.deps.Auth.Refresh(ctx, refresh)
	if err != nil {
		a.Logout(ctx)
		return e.Wrap(whereami.WhereAmI(), err)
	}

	var userID string
	a.s.update(func(st *State) {
		st.Auth.Token = optional(sess.Token)
		if sess.RefreshToken != "" {
			st.Auth.RefreshToken = optional(sess.RefreshToken)
		}
		if sess.User != nil {
			st.Auth.User = sess.User.Clone()
		}
		if st.Auth.User != nil {
			userID = st.Auth.User.ID
		}
	})

	a.s.publish(events.AuthTokenRefreshed{UserID: userID})
	return nil
}

// VerifySession проверяет токен на сервере. Недействительная сессия завершается выходом.
// Сетевые ошибки возвращаются как есть, сессия при этом не трогается.
func (a *AuthSlice) VerifySession(ctx context.Context) (bool, error) {
	if a.s.deps.Auth == nil {
		return false, e.Wrap(whereami.WhereAmI(), e.ErrNoClient)
	}

	user, valid, err := a.s.deps.Auth.Verify(ctx)
	if err != nil {
		return false, e.Wrap(whereami.WhereAmI(), err)
	}
	if !valid {
		a.Logout(ctx)
		return false, nil
	}

	if user != nil {
		a.SetUser(user)
	}
	return true, nil
}

// EnsureFreshToken обновляет токен, если до его истечения осталось меньше skew.
// Непрозрачные токены и токены без exp не проверяются.
func (a *AuthSlice) EnsureFreshToken(ctx context.Context, skew time.Duration) error {
	var token string
	a.s.read(func(st *State) {
		if st.Auth.Token != nil {
			token = *st.Auth.Token
		}
	})
	if token == "" {
		return e.Wrap(whereami.WhereAmI(), e.ErrNotAuthenticated)
	}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return nil
	}

	if a.s.clock.Now().Add(skew).Before(exp.Time) {
		return nil
	}

	a.s.logger.Debugf("access token expires at %s, refreshing", exp.Time.Format(time.RFC3339))
	return a.RefreshAuthToken(ctx)
}

func (a *AuthSlice) RequestPasswordReset(ctx context.Context, email string) error {
	if a.s.deps.Auth == nil {
		return e.Wrap(whereami.WhereAmI(), e.ErrNoClient)
	}

	a.begin()
	err := a.s.deps.Auth.RequestPasswordReset(ctx, email)
	a.finish(err)
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return nil
}

func (a *AuthSlice) ConfirmPasswordReset(ctx context.Context, req domain.PasswordResetConfirm) error {
	if a.s.deps.Auth == nil {
		return e.Wrap(whereami.WhereAmI(), e.ErrNoClient)
	}

	a.begin()
	err := a.s.deps.Auth.ConfirmPasswordReset(ctx, req)
	a.finish(err)
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return nil
}

// SetUser заменяет пользователя. nil переводит срез в anonymous, токены при этом не трогаются.
func (a *AuthSlice) SetUser(user *domain.User) {
	a.s.update(func(st *State) {
		st.Auth.User = user.Clone()
	})
}

// SetToken заменяет пару токенов; nil очищает соответствующий токен.
func (a *AuthSlice) SetToken(token, refreshToken *string) {
	a.s.update(func(st *State) {
		st.Auth.Token = cloneString(token)
		st.Auth.RefreshToken = cloneString(refreshToken)
	})
}

func (a *AuthSlice) SetError(msg string) {
	a.s.update(func(st *State) {
		st.Auth.Error = msg
	})
}

func (a *AuthSlice) ClearError() {
	a.SetError("")
}

// Evict сбрасывает сессию после отказа сервера (401). В отличие от Logout сервер не вызывается,
// корзина остаётся.
func (a *AuthSlice) Evict() {
	var userID string
	a.s.gens.invalidate()
	changed := a.s.update(func(st *State) {
		if st.Auth.User != nil {
			userID = st.Auth.User.ID
		}
		st.Auth = AuthState{}
	})

	if changed && userID != "" {
		a.s.logger.Infof("session of user %s evicted", userID)
		a.s.publish(events.AuthLogout{UserID: userID})
	}
}

// IsAuthenticated — текущее значение без копирования всего состояния.
func (a *AuthSlice) IsAuthenticated() bool {
	var ok bool
	a.s.read(func(st *State) {
		ok = st.Auth.IsAuthenticated
	})

	return ok
}

// UserID возвращает id текущего пользователя или пустую строку.
func (a *AuthSlice) UserID() string {
	var id string
	a.s.read(func(st *State) {
		if st.Auth.User != nil {
			id = st.Auth.User.ID
		}
	})

	return id
}

func (a *AuthSlice) begin() {
	a.s.update(func(st *State) {
		st.Auth.IsLoading = true
		st.Auth.Error = ""
	})
}

func (a *AuthSlice) fail(err error) {
	a.s.update(func(st *State) {
		st.Auth.IsLoading = false
		st.Auth.Error = errorText(err)
	})
}

func (a *AuthSlice) finish(err error) {
	if err != nil {
		a.fail(err)
		return
	}

	a.s.update(func(st *State) {
		st.Auth.IsLoading = false
	})
}

func (a *AuthSlice) establish(sess *domain.AuthSession) *domain.User {
	user := sess.User.Clone()
	if user == nil {
		user = &domain.User{}
	}

	a.s.update(func(st *State) {
		st.Auth = AuthState{
			User:         user.Clone(),
			Token:        optional(sess.Token),
			RefreshToken: optional(sess.RefreshToken),
		}
	})

	return user
}

// optional переводит пустую строку в nil.
func optional(s string) *string {
	if s == "" {
		return nil
	}

	return &s
}
