package host

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/DRSN-tech/storefront-shell/internal/events"
	"github.com/DRSN-tech/storefront-shell/internal/infrastructure/api"
	"github.com/DRSN-tech/storefront-shell/internal/store"
	"github.com/DRSN-tech/storefront-shell/pkg/clock"
	"github.com/DRSN-tech/storefront-shell/pkg/e"
	"github.com/DRSN-tech/storefront-shell/pkg/logger"
	"github.com/expr-lang/expr/vm"
)

type Deps struct {
	Store   *store.Store
	Clients *api.Clients
	Bus     *events.Bus
	Logger  logger.Logger
	Clock   clock.Clock
	// OnMountChange вызывается после каждого монтирования и размонтирования.
	OnMountChange func(name string, mounted bool)
}

type rule struct {
	entry   ManifestEntry
	program *vm.Program
}

type mounted struct {
	fragment Fragment
	unmount  Unmount
}

// Host монтирует зарегистрированные фрагменты по манифесту и перемонтирует их,
// когда меняется результат условий when.
//
// Монтирование может происходить внутри рассылки store: фрагмент, меняющий состояние
// в Mount, получит повторную оценку условий после выхода из Mount, а не рекурсивно.
type Host struct {
	contract *contract
	logger   logger.Logger
	notify   func(name string, mounted bool)

	// ops сериализует монтирование и размонтирование.
	ops sync.Mutex

	mu       sync.Mutex
	ctx      context.Context
	registry map[string]Fragment
	rules    []rule
	mounted  map[string]*mounted
	order    []string
	lastEnv  *Env
	pending  *Env
	unwatch  func()
}

func New(deps Deps) *Host {
	if deps.Logger == nil {
		deps.Logger = logger.NewNopLogger()
	}
	if deps.Clock == nil {
		deps.Clock = clock.Real()
	}

	return &Host{
		contract: &contract{
			store:   deps.Store,
			clients: deps.Clients,
			bus:     deps.Bus,
			logger:  deps.Logger,
			clock:   deps.Clock,
		},
		logger:   deps.Logger,
		notify:   deps.OnMountChange,
		ctx:      context.Background(),
		registry: make(map[string]Fragment),
		mounted:  make(map[string]*mounted),
	}
}

// Contract возвращает контракт, который получают фрагменты.
func (h *Host) Contract() Contract {
	return h.contract
}

// Register делает фрагмент доступным для манифеста.
func (h *Host) Register(fragments ...Fragment) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, f := range fragments {
		h.registry[f.Name()] = f
	}
}

// Registered возвращает имена зарегистрированных фрагментов по алфавиту.
func (h *Host) Registered() []string {
	h.mu.Lock()
	defer h.mu.Unlock()

	names := make([]string, 0, len(h.registry))
	for name := range h.registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Mount монтирует фрагмент напрямую, без манифеста.
func (h *Host) Mount(ctx context.Context, f Fragment) error {
	h.ops.Lock()
	err := h.mount(ctx, f)
	h.ops.Unlock()

	h.flush()
	return err
}

// Unmount размонтирует фрагмент по имени. Несмонтированный фрагмент: no-op.
func (h *Host) Unmount(ctx context.Context, name string) error {
	h.ops.Lock()
	err := h.unmount(ctx, name)
	h.ops.Unlock()

	h.flush()
	return err
}

// Mounted возвращает имена смонтированных фрагментов в порядке монтирования.
func (h *Host) Mounted() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.order...)
}

// Apply применяет манифест: компилирует условия, подписывается на изменения состояния
// и приводит набор смонтированных фрагментов в соответствие. ctx используется для
// всех последующих монтирований, пока хост не закрыт.
func (h *Host) Apply(ctx context.Context, m *Manifest) error {
	rules := make([]rule, 0, len(m.Fragments))

	h.mu.Lock()
	for _, entry := range m.Fragments {
		if _, ok := h.registry[entry.Name]; !ok {
			h.mu.Unlock()
			return fmt.Errorf("%w: %s", e.ErrFragmentUnknown, entry.Name)
		}

		program, err := compileCondition(entry.When)
		if err != nil {
			h.mu.Unlock()
			return fmt.Errorf("fragment %s: %w", entry.Name, err)
		}
		rules = append(rules, rule{entry: entry, program: program})
	}

	h.ctx = ctx
	h.rules = rules
	h.lastEnv = nil
	st := h.contract.store
	if h.unwatch == nil && st != nil {
		h.unwatch = st.Subscribe(func(state, _ store.State) {
			h.evaluate(state)
		})
	}
	h.mu.Unlock()

	if st != nil {
		h.evaluate(st.GetState())
	}
	return nil
}

// ApplyAll монтирует все зарегистрированные фрагменты без условий.
func (h *Host) ApplyAll(ctx context.Context) error {
	m := &Manifest{}
	for _, name := range h.Registered() {
		m.Fragments = append(m.Fragments, ManifestEntry{Name: name})
	}

	return h.Apply(ctx, m)
}

// Close снимает подписку на состояние и размонтирует всё в обратном порядке.
func (h *Host) Close(ctx context.Context) error {
	h.ops.Lock()
	defer h.ops.Unlock()

	h.mu.Lock()
	if h.unwatch != nil {
		h.unwatch()
		h.unwatch = nil
	}
	h.rules = nil
	h.pending = nil
	order := append([]string(nil), h.order...)
	h.mu.Unlock()

	var errs []error
	for i := len(order) - 1; i >= 0; i-- {
		if err := h.unmount(ctx, order[i]); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

// evaluate ставит в очередь пересчёт условий, если их входные данные изменились.
func (h *Host) evaluate(st store.State) {
	env := envOf(st)

	h.mu.Lock()
	if h.rules == nil || (h.lastEnv != nil && *h.lastEnv == env) {
		h.mu.Unlock()
		return
	}
	h.lastEnv = &env
	h.pending = &env
	h.mu.Unlock()

	h.flush()
}

// flush применяет отложенный пересчёт. Если операции уже выполняются (в том числе
// выше по стеку), пересчёт подхватит их владелец после освобождения ops.
func (h *Host) flush() {
	for {
		if !h.ops.TryLock() {
			return
		}

		h.mu.Lock()
		env, rules, ctx := h.pending, h.rules, h.ctx
		h.pending = nil
		h.mu.Unlock()

		if env != nil {
			h.reconcile(ctx, rules, *env)
		}
		h.ops.Unlock()

		h.mu.Lock()
		more := h.pending != nil
		h.mu.Unlock()
		if !more {
			return
		}
	}
}

func (h *Host) reconcile(ctx context.Context, rules []rule, env Env) {
	for _, r := range rules {
		name := r.entry.Name
		want := r.entry.IsEnabled()
		if want {
			ok, err := evalCondition(r.program, env)
			if err != nil {
				h.logger.Errorf(err, "failed to evaluate condition of fragment %s", name)
				continue
			}
			want = ok
		}

		h.mu.Lock()
		_, isMounted := h.mounted[name]
		f := h.registry[name]
		h.mu.Unlock()

		switch {
		case want && !isMounted:
			if err := h.mount(ctx, f); err != nil {
				h.logger.Errorf(err, "failed to mount fragment %s", name)
			}
		case !want && isMounted:
			if err := h.unmount(ctx, name); err != nil {
				h.logger.Errorf(err, "failed to unmount fragment %s", name)
			}
		}
	}
}

// mount и unmount вызываются под ops.
func (h *Host) mount(ctx context.Context, f Fragment) error {
	name := f.Name()

	h.mu.Lock()
	_, exists := h.mounted[name]
	h.mu.Unlock()
	if exists {
		return fmt.Errorf("%w: %s", e.ErrFragmentMounted, name)
	}
	if missing := h.contract.missing(); len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", e.ErrContractIncomplete, strings.Join(missing, ", "))
	}
	if err := Compatible(ContractVersion, f.Requires()); err != nil {
		return fmt.Errorf("fragment %s: %w", name, err)
	}

	unmount, err := f.Mount(ctx, h.contract)
	if err != nil {
		return fmt.Errorf("fragment %s: %w", name, err)
	}

	h.mu.Lock()
	h.mounted[name] = &mounted{fragment: f, unmount: unmount}
	h.order = append(h.order, name)
	h.mu.Unlock()

	h.logger.Infof("fragment %s mounted (requires %s, host %s)", name, f.Requires(), ContractVersion)
	if h.notify != nil {
		h.notify(name, true)
	}
	return nil
}

func (h *Host) unmount(ctx context.Context, name string) error {
	h.mu.Lock()
	m, ok := h.mounted[name]
	if ok {
		delete(h.mounted, name)
		for i, n := range h.order {
			if n == name {
				h.order = append(h.order[:i:i], h.order[i+1:]...)
				break
			}
		}
	}
	h.mu.Unlock()

	if !ok {
		return nil
	}
	if h.notify != nil {
		defer h.notify(name, false)
	}
	if m.unmount != nil {
		if err := m.unmount(ctx); err != nil {
			return fmt.Errorf("fragment %s: %w", name, err)
		}
	}

	h.logger.Infof("fragment %s unmounted", name)
	return nil
}
