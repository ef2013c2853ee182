// Package store содержит единственный на процесс контейнер состояния витрины.
//
// Состояние разделено на срезы (auth, cart, products, orders, customer, payment,
// notifications, ui). Каждая мутация применяется целиком под мьютексом к копии состояния
// и сразу видна через GetState. Подписчики и сохранение в хранилище вызываются после
// фиксации, в порядке фиксации, из одного цикла доставки: мутация, сделанная из подписчика,
// ставится в очередь, а не выполняется вложенно.
package store

import (
	"context"
	"fmt"
	"reflect"
	"sync"
	"sync/atomic"
	"time"

	"github.com/DRSN-tech/storefront-shell/internal/events"
	"github.com/DRSN-tech/storefront-shell/internal/persist"
	"github.com/DRSN-tech/storefront-shell/pkg/clock"
	"github.com/DRSN-tech/storefront-shell/pkg/logger"
	"github.com/google/uuid"
)

// Listener получает новое и предыдущее состояние. Оба значения только для чтения.
type Listener func(state, prev State)

// Deps — зависимости контейнера. API-клиенты и Persister могут быть nil
// (соответствующие операции тогда недоступны или состояние не сохраняется).
type Deps struct {
	Auth          AuthAPI
	Catalog       CatalogAPI
	Orders        OrdersAPI
	Customers     CustomersAPI
	Payments      PaymentsAPI
	Notifications NotificationsAPI

	Persist Persister
	Bus     *events.Bus
	Clock   clock.Clock
	Logger  logger.Logger
}

type Option func(*Store)

// WithIDGenerator подменяет генератор идентификаторов строк корзины и уведомлений.
func WithIDGenerator(gen func() string) Option {
	return func(s *Store) {
		s.newID = gen
	}
}

// WithPersistTimeout ограничивает время одной записи в хранилище.
func WithPersistTimeout(d time.Duration) Option {
	return func(s *Store) {
		s.persistTimeout = d
	}
}

type change struct {
	prev, next State
}

type listenerEntry struct {
	fn     Listener
	active atomic.Bool
}

type Store struct {
	deps   Deps
	bus    *events.Bus
	clock  clock.Clock
	logger logger.Logger
	newID  func() string

	persistTimeout time.Duration

	mu      sync.Mutex
	state   State
	pending []change

	drainMu sync.Mutex

	listenersMu sync.RWMutex
	listeners   []*listenerEntry

	gens *generations

	auth          *AuthSlice
	cart          *CartSlice
	products      *ProductsSlice
	orders        *OrdersSlice
	customer      *CustomerSlice
	payment       *PaymentSlice
	notifications *NotificationsSlice
	ui            *UISlice
}

// New создаёт контейнер и восстанавливает сохранённые разделы (auth, cart, ui).
func New(ctx context.Context, deps Deps, opts ...Option) *Store {
	if deps.Clock == nil {
		deps.Clock = clock.Real()
	}
	if deps.Logger == nil {
		deps.Logger = logger.NewNopLogger()
	}
	if deps.Bus == nil {
		deps.Bus = events.NewBus(deps.Logger)
	}

	s := &Store{
		deps:           deps,
		bus:            deps.Bus,
		clock:          deps.Clock,
		logger:         deps.Logger,
		newID:          uuid.NewString,
		persistTimeout: 5 * time.Second,
		state:          initialState(),
		gens:           newGenerations(),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.auth = &AuthSlice{s: s}
	s.cart = &CartSlice{s: s}
	s.products = &ProductsSlice{s: s}
	s.orders = &OrdersSlice{s: s}
	s.customer = &CustomerSlice{s: s}
	s.payment = &PaymentSlice{s: s}
	s.notifications = &NotificationsSlice{s: s}
	s.ui = &UISlice{s: s}

	if deps.Persist != nil {
		s.rehydrate(deps.Persist.Load(ctx))
	}

	return s
}

func (s *Store) rehydrate(loaded persist.Loaded) {
	if loaded.HasAuth {
		s.state.Auth.User = loaded.Auth.User
		s.state.Auth.Token = loaded.Auth.Token
		s.state.Auth.RefreshToken = loaded.Auth.RefreshToken
	}
	if loaded.HasCart {
		s.state.Cart.Items = loaded.Cart.Items
	}
	if loaded.HasUI {
		s.state.UI.Theme = loaded.UI.Theme
	}

	normalize(&s.state)
	s.logger.Debugf("state rehydrated: auth=%t cart=%t (%d items) ui=%t",
		loaded.HasAuth, loaded.HasCart, len(s.state.Cart.Items), loaded.HasUI)
}

func (s *Store) Auth() *AuthSlice                   { return s.auth }
func (s *Store) Cart() *CartSlice                   { return s.cart }
func (s *Store) Products() *ProductsSlice           { return s.products }
func (s *Store) Orders() *OrdersSlice               { return s.orders }
func (s *Store) Customer() *CustomerSlice           { return s.customer }
func (s *Store) Payment() *PaymentSlice             { return s.payment }
func (s *Store) Notifications() *NotificationsSlice { return s.notifications }
func (s *Store) UI() *UISlice                       { return s.ui }

// Bus возвращает шину, в которую срезы публикуют события.
func (s *Store) Bus() *events.Bus {
	return s.bus
}

// GetState возвращает глубокую копию текущего состояния.
func (s *Store) GetState() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

// SetState применяет произвольную мутацию. Производные поля (итоги корзины,
// IsAuthenticated, UnreadCount) пересчитываются после fn.
func (s *Store) SetState(fn func(*State)) {
	s.update(fn)
}

// Subscribe регистрирует подписчика. Возвращённая функция отписывает его; повторный вызов безопасен.
func (s *Store) Subscribe(l Listener) func() {
	entry := &listenerEntry{fn: l}
	entry.active.Store(true)

	s.listenersMu.Lock()
	s.listeners = append(s.listeners, entry)
	s.listenersMu.Unlock()

	return func() {
		if !entry.active.CompareAndSwap(true, false) {
			return
		}

		s.listenersMu.Lock()
		defer s.listenersMu.Unlock()
		for i, le := range s.listeners {
			if le == entry {
				s.listeners = append(s.listeners[:i:i], s.listeners[i+1:]...)
				break
			}
		}
	}
}

// Snapshot возвращает сохраняемые разделы текущего состояния.
func (s *Store) Snapshot() persist.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return snapshotOf(s.state)
}

// update применяет fn к копии состояния. Если состояние не изменилось, подписчики
// не вызываются и запись в хранилище не делается. Возвращает true при изменении.
func (s *Store) update(fn func(*State)) bool {
	s.mu.Lock()
	next := s.state.Clone()
	fn(&next)
	normalize(&next)

	if reflect.DeepEqual(s.state, next) {
		s.mu.Unlock()
		return false
	}

	prev := s.state
	s.state = next
	s.pending = append(s.pending, change{prev: prev, next: next})
	s.mu.Unlock()

	s.drain()
	return true
}

// read выполняет fn над текущим состоянием под мьютексом.
func (s *Store) read(fn func(st *State)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(&s.state)
}

// drain доставляет накопленные изменения. Доставляет только одна горутина за раз;
// остальные оставляют свои изменения в очереди для неё.
func (s *Store) drain() {
	for {
		if !s.drainMu.TryLock() {
			return
		}

		for {
			c, ok := s.dequeue()
			if !ok {
				break
			}
			s.dispatch(c)
		}
		s.drainMu.Unlock()

		s.mu.Lock()
		empty := len(s.pending) == 0
		s.mu.Unlock()
		if empty {
			return
		}
	}
}

func (s *Store) dequeue() (change, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.pending) == 0 {
		return change{}, false
	}

	c := s.pending[0]
	s.pending[0] = change{}
	s.pending = s.pending[1:]
	return c, true
}

func (s *Store) dispatch(c change) {
	s.listenersMu.RLock()
	listeners := append([]*listenerEntry(nil), s.listeners...)
	s.listenersMu.RUnlock()

	for _, le := range listeners {
		if !le.active.Load() {
			continue
		}
		s.callListener(le.fn, c)
	}

	s.persist(c)
}

func (s *Store) callListener(fn Listener, c change) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Errorf(fmt.Errorf("panic: %v", r), "state listener failed")
		}
	}()

	fn(c.next, c.prev)
}

func (s *Store) persist(c change) {
	if s.deps.Persist == nil {
		return
	}

	next := snapshotOf(c.next)
	if reflect.DeepEqual(snapshotOf(c.prev), next) {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.persistTimeout)
	defer cancel()

	if err := s.deps.Persist.Save(ctx, next); err != nil {
		s.logger.Errorf(err, "failed to persist state")
	}
}

func (s *Store) publish(ev events.Event) {
	s.bus.Publish(ev)
}

// snapshotOf выделяет сохраняемые поля: auth (токены, пользователь), cart (строки и итоги), ui (тема).
func snapshotOf(st State) persist.Snapshot {
	return persist.Snapshot{
		Auth: persist.AuthPartition{
			Token:           st.Auth.Token,
			RefreshToken:    st.Auth.RefreshToken,
			User:            st.Auth.User,
			IsAuthenticated: st.Auth.IsAuthenticated,
		},
		Cart: persist.CartPartition{
			Items:     st.Cart.Items,
			Subtotal:  st.Cart.Subtotal,
			Tax:       st.Cart.Tax,
			Shipping:  st.Cart.Shipping,
			Total:     st.Cart.Total,
			ItemCount: st.Cart.ItemCount,
		},
		UI: persist.UIPartition{Theme: st.UI.Theme},
	}
}

// normalize восстанавливает производные поля.
func normalize(st *State) {
	st.Auth.IsAuthenticated = st.Auth.User != nil
	recomputeCart(&st.Cart)
	st.Notifications.UnreadCount = countUnread(st.Notifications.Items)
}
