// Package cartsync зеркалит корзину в подресурс /cart сервиса заказов, пока пользователь
// авторизован. При входе (и при монтировании с уже активной сессией) отправляется вся
// корзина целиком, дальше только разница между соседними состояниями.
package cartsync

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/DRSN-tech/storefront-shell/internal/domain"
	"github.com/DRSN-tech/storefront-shell/internal/events"
	"github.com/DRSN-tech/storefront-shell/internal/host"
	"github.com/DRSN-tech/storefront-shell/internal/store"
	"github.com/DRSN-tech/storefront-shell/pkg/e"
	"github.com/DRSN-tech/storefront-shell/pkg/logger"
	"github.com/jimlawless/whereami"
)

const (
	Name             = "cartsync"
	defaultQueueSize = 64
)

// CartAPI — часть api.OrdersClient, которая нужна фрагменту.
type CartAPI interface {
	SyncCart(ctx context.Context, items []domain.CartItem) error
	AddCartItem(ctx context.Context, productID string, quantity int) error
	UpdateCartItem(ctx context.Context, productID string, quantity int) error
	RemoveCartItem(ctx context.Context, productID string) error
}

type Option func(*Fragment)

// WithAPI подменяет клиент сервиса заказов.
func WithAPI(api CartAPI) Option {
	return func(f *Fragment) { f.api = api }
}

func WithQueueSize(n int) Option {
	return func(f *Fragment) {
		if n > 0 {
			f.queueSize = n
		}
	}
}

type Fragment struct {
	api       CartAPI
	queueSize int
}

func New(opts ...Option) *Fragment {
	f := &Fragment{queueSize: defaultQueueSize}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func (f *Fragment) Name() string     { return Name }
func (f *Fragment) Requires() string { return "v1.0.0" }

type opKind int

const (
	opSync opKind = iota
	opAdd
	opUpdate
	opRemove
)

type op struct {
	kind      opKind
	productID string
	quantity  int
	items     []domain.CartItem // для opSync: корзина на момент постановки в очередь
}

type syncer struct {
	api    CartAPI
	store  *store.Store
	logger logger.Logger

	ops   chan op
	stop  chan struct{}
	done  chan struct{}
	dirty atomic.Bool

	stopOnce sync.Once
}

func (f *Fragment) Mount(ctx context.Context, c host.Contract) (host.Unmount, error) {
	api := f.api
	if api == nil {
		if c.Clients() == nil || c.Clients().Orders == nil {
			return nil, e.Wrap(whereami.WhereAmI(), e.ErrNoClient)
		}
		api = c.Clients().Orders
	}

	s := &syncer{
		api:    api,
		store:  c.Store(),
		logger: c.Logger(),
		ops:    make(chan op, f.queueSize),
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	go s.run(runCtx)

	unwatch := c.Store().Subscribe(s.onChange)
	unlogin := events.On(c.Bus(), func(events.AuthLogin) {
		s.enqueue(s.fullSync())
	})

	if c.Store().Auth().IsAuthenticated() {
		s.enqueue(s.fullSync())
	}

	return func(ctx context.Context) error {
		unlogin()
		unwatch()
		s.stopOnce.Do(func() { close(s.stop) })
		defer cancel()

		select {
		case <-s.done:
			return nil
		case <-ctx.Done():
			return e.Wrap(whereami.WhereAmI(), ctx.Err())
		}
	}, nil
}

// onChange переводит разницу корзин в операции. Переходы входа и выхода пропускаются:
// вход покрывается полной синхронизацией, выход сбрасывает корзину только локально.
func (s *syncer) onChange(state, prev store.State) {
	if !state.Auth.IsAuthenticated || !prev.Auth.IsAuthenticated {
		return
	}

	for _, o := range diff(prev.Cart.Items, state.Cart.Items) {
		s.enqueue(o)
	}
}

func (s *syncer) fullSync() op {
	return op{kind: opSync, items: s.store.GetState().Cart.Items}
}

func diff(prev, next []domain.CartItem) []op {
	before := make(map[string]int, len(prev))
	for _, it := range prev {
		before[it.Product.ID] = it.Quantity
	}

	var out []op
	after := make(map[string]struct{}, len(next))
	for _, it := range next {
		after[it.Product.ID] = struct{}{}
		q, ok := before[it.Product.ID]
		switch {
		case !ok:
			out = append(out, op{kind: opAdd, productID: it.Product.ID, quantity: it.Quantity})
		case q != it.Quantity:
			out = append(out, op{kind: opUpdate, productID: it.Product.ID, quantity: it.Quantity})
		}
	}
	for _, it := range prev {
		if _, ok := after[it.Product.ID]; !ok {
			out = append(out, op{kind: opRemove, productID: it.Product.ID})
		}
	}

	return out
}

// enqueue не блокирует издателя. При переполненной очереди операция теряется,
// и после разбора очереди выполняется полная синхронизация.
func (s *syncer) enqueue(o op) {
	select {
	case <-s.stop:
		return
	default:
	}

	select {
	case s.ops <- o:
	default:
		s.dirty.Store(true)
		s.logger.Warnf("cart sync queue is full, falling back to full sync")
	}
}

func (s *syncer) run(ctx context.Context) {
	defer close(s.done)

	for {
		select {
		case o := <-s.ops:
			s.apply(ctx, o)
		case <-s.stop:
			for {
				select {
				case o := <-s.ops:
					s.apply(ctx, o)
				default:
					return
				}
			}
		}

		if len(s.ops) == 0 && s.dirty.CompareAndSwap(true, false) {
			s.apply(ctx, s.fullSync())
		}
	}
}

func (s *syncer) apply(ctx context.Context, o op) {
	if !s.store.Auth().IsAuthenticated() {
		return
	}

	var err error
	switch o.kind {
	case opSync:
		err = s.api.SyncCart(ctx, o.items)
		if err == nil {
			s.logger.Debugf("cart synced: %d lines", len(o.items))
		}
	case opAdd:
		err = s.api.AddCartItem(ctx, o.productID, o.quantity)
	case opUpdate:
		err = s.api.UpdateCartItem(ctx, o.productID, o.quantity)
	case opRemove:
		err = s.api.RemoveCartItem(ctx, o.productID)
	}

	if err != nil {
		s.logger.Warnf("cart sync (%d) for product %q failed: %v", o.kind, o.productID, err)
	}
}

var _ host.Fragment = (*Fragment)(nil)
