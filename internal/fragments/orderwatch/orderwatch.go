// Package orderwatch периодически перечитывает заказы пользователя. Смену статуса
// публикует OrdersSlice.FetchOrders (order:status-changed).
package orderwatch

import (
	"context"
	"errors"
	"time"

	"github.com/DRSN-tech/storefront-shell/internal/host"
	"github.com/DRSN-tech/storefront-shell/pkg/e"
	"github.com/jimlawless/whereami"
)

const (
	Name            = "orderwatch"
	DefaultInterval = 30 * time.Second
)

type Option func(*Fragment)

func WithInterval(d time.Duration) Option {
	return func(f *Fragment) {
		if d > 0 {
			f.interval = d
		}
	}
}

type Fragment struct {
	interval time.Duration
}

func New(opts ...Option) *Fragment {
	f := &Fragment{interval: DefaultInterval}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func (f *Fragment) Name() string     { return Name }
func (f *Fragment) Requires() string { return "v1.1.0" }

func (f *Fragment) Mount(ctx context.Context, c host.Contract) (host.Unmount, error) {
	ctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	done := make(chan struct{})

	go f.watch(ctx, c, done)
	c.Logger().Infof("order watch started, interval %s", f.interval)

	return func(uctx context.Context) error {
		cancel()
		select {
		case <-done:
			return nil
		case <-uctx.Done():
			return e.Wrap(whereami.WhereAmI(), uctx.Err())
		}
	}, nil
}

func (f *Fragment) watch(ctx context.Context, c host.Contract, done chan<- struct{}) {
	defer close(done)

	orders := c.Store().Orders()
	auth := c.Store().Auth()
	log := c.Logger()

	for {
		select {
		case <-ctx.Done():
			return
		case <-c.Clock().After(f.interval):
		}

		if !auth.IsAuthenticated() {
			continue
		}

		err := orders.FetchOrders(ctx)
		switch {
		case err == nil, errors.Is(err, e.ErrSuperseded), errors.Is(err, context.Canceled):
		default:
			log.Warnf("order watch: failed to refresh orders: %v", err)
		}
	}
}

var _ host.Fragment = (*Fragment)(nil)
