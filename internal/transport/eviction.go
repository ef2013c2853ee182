package transport

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/DRSN-tech/storefront-shell/internal/domain"
	"github.com/DRSN-tech/storefront-shell/internal/persist"
	"github.com/DRSN-tech/storefront-shell/pkg/clock"
	"github.com/DRSN-tech/storefront-shell/pkg/logger"
)

// AuthWriter перезаписывает сохранённый auth-раздел.
type AuthWriter interface {
	WriteAuth(ctx context.Context, auth persist.AuthPartition) error
}

// Eviction выполняет принудительный выход по 401: пишет в хранилище разлогиненный auth-раздел,
// сбрасывает живое состояние, показывает «Session expired» и через RedirectDelay уводит на LoginPath.
type Eviction struct {
	auth          AuthWriter
	hooks         *Hooks
	clk           clock.Clock
	redirectDelay time.Duration
	loginPath     string
	log           logger.Logger

	redirecting atomic.Bool
}

func NewEviction(auth AuthWriter, hooks *Hooks, clk clock.Clock, redirectDelay time.Duration, loginPath string, log logger.Logger) *Eviction {
	return &Eviction{
		auth:          auth,
		hooks:         hooks,
		clk:           clk,
		redirectDelay: redirectDelay,
		loginPath:     loginPath,
		log:           log,
	}
}

// Trigger выполняет вытеснение. Пока переход на страницу входа ожидает, повторные 401
// только перезаписывают хранилище.
func (ev *Eviction) Trigger(ctx context.Context) {
	// запись не должна зависеть от отмены исходного запроса
	writeCtx := context.WithoutCancel(ctx)
	if err := ev.auth.WriteAuth(writeCtx, persist.LoggedOut()); err != nil {
		ev.log.Errorf(err, "failed to persist evicted auth state")
	}
	ev.hooks.evict()

	if !ev.redirecting.CompareAndSwap(false, true) {
		return
	}

	ev.log.Warnf("session expired, redirecting to %s in %s", ev.loginPath, ev.redirectDelay)
	ev.hooks.notify(domain.Notification{
		Type:      domain.NotificationWarning,
		Title:     "Session expired",
		Message:   "Please log in again to continue.",
		CreatedAt: ev.clk.Now(),
		Action:    &domain.NotificationAction{Label: "Log in", Href: ev.loginPath},
	})

	ev.clk.AfterFunc(ev.redirectDelay, func() {
		ev.redirecting.Store(false)
		ev.hooks.navigate(ev.loginPath)
	})
}
