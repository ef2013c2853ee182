package transport

import (
	"net/http"
	"sort"
	"time"

	"github.com/DRSN-tech/storefront-shell/internal/cfg"
	"github.com/DRSN-tech/storefront-shell/pkg/clock"
	"github.com/DRSN-tech/storefront-shell/pkg/logger"
)

// AuthStore — сохранённый auth-раздел, из которого транспорт читает токен и в который пишет при 401.
type AuthStore interface {
	AuthSource
	AuthWriter
}

// FactoryConfig — параметры всех клиентов фабрики.
type FactoryConfig struct {
	Services      map[string]cfg.ServiceCfg
	Retry         RetryPolicy
	SlowThreshold time.Duration
	RedirectDelay time.Duration
	LoginPath     string
	// HTTPClient используется как шаблон: у каждого сервиса своя копия со своим Timeout.
	HTTPClient *http.Client
}

// Factory держит по одному клиенту на сервис, общие Hooks и счётчик запросов в полёте.
type Factory struct {
	clients  map[string]*Client
	hooks    *Hooks
	inflight *InFlight
	eviction *Eviction
}

// NewFactory собирает клиенты. Цепочка каждого, от внешней стадии к внутренней:
// InFlight → Toast → Retry → Classify → Timing → Authenticate → http.Client.Do.
func NewFactory(conf FactoryConfig, auth AuthStore, clk clock.Clock, log logger.Logger) *Factory {
	hooks := NewHooks()
	inflight := NewInFlight(hooks)
	eviction := NewEviction(auth, hooks, clk, conf.RedirectDelay, conf.LoginPath, log)

	base := conf.HTTPClient
	if base == nil {
		base = &http.Client{}
	}

	f := &Factory{
		clients:  make(map[string]*Client, len(conf.Services)),
		hooks:    hooks,
		inflight: inflight,
		eviction: eviction,
	}

	for name, svc := range conf.Services {
		httpClient := *base
		httpClient.Timeout = svc.Timeout

		handler := Chain(
			httpClient.Do,
			inflight.Interceptor(),
			Toast(hooks, clk),
			Retry(name, conf.Retry, clk, log),
			Classify(name, eviction, log),
			Timing(name, clk, conf.SlowThreshold, log),
			Authenticate(auth, log),
		)

		f.clients[name] = NewClient(name, svc.BaseURL, handler)
	}

	return f
}

// Client возвращает клиент сервиса или nil, если сервис не настроен.
func (f *Factory) Client(service string) *Client {
	return f.clients[service]
}

func (f *Factory) Catalog() *Client       { return f.clients[cfg.ServiceCatalog] }
func (f *Factory) Orders() *Client        { return f.clients[cfg.ServiceOrders] }
func (f *Factory) Customers() *Client     { return f.clients[cfg.ServiceCustomers] }
func (f *Factory) Payments() *Client      { return f.clients[cfg.ServicePayments] }
func (f *Factory) Auth() *Client          { return f.clients[cfg.ServiceAuth] }
func (f *Factory) Notifications() *Client { return f.clients[cfg.ServiceNotifications] }

// Services возвращает имена настроенных сервисов в алфавитном порядке.
func (f *Factory) Services() []string {
	names := make([]string, 0, len(f.clients))
	for name := range f.clients {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Hooks — точка позднего связывания с контейнером состояния.
func (f *Factory) Hooks() *Hooks {
	return f.hooks
}

// InFlight возвращает число запросов в полёте по всем сервисам.
func (f *Factory) InFlight() int64 {
	return f.inflight.Count()
}
