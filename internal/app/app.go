package app

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	config "github.com/DRSN-tech/storefront-shell/internal/cfg"
	v1Grpc "github.com/DRSN-tech/storefront-shell/internal/delivery/v1/grpc"
	v1Http "github.com/DRSN-tech/storefront-shell/internal/delivery/v1/http"
	"github.com/DRSN-tech/storefront-shell/internal/events"
	"github.com/DRSN-tech/storefront-shell/internal/fragments/cartsync"
	"github.com/DRSN-tech/storefront-shell/internal/fragments/notifier"
	"github.com/DRSN-tech/storefront-shell/internal/fragments/orderwatch"
	"github.com/DRSN-tech/storefront-shell/internal/host"
	"github.com/DRSN-tech/storefront-shell/internal/infrastructure/api"
	"github.com/DRSN-tech/storefront-shell/internal/infrastructure/kafka"
	"github.com/DRSN-tech/storefront-shell/internal/persist"
	"github.com/DRSN-tech/storefront-shell/internal/store"
	"github.com/DRSN-tech/storefront-shell/internal/transport"
	"github.com/DRSN-tech/storefront-shell/pkg/clock"
	"github.com/DRSN-tech/storefront-shell/pkg/closer"
	"github.com/DRSN-tech/storefront-shell/pkg/e"
	"github.com/DRSN-tech/storefront-shell/pkg/logger"
	"github.com/go-chi/chi/v5"
	"github.com/jimlawless/whereami"
)

const (
	shutdownTimeout     = 10 * time.Second
	forcedCloseTimeout  = 3 * time.Second
	sessionCheckTimeout = 5 * time.Second
	kafkaTopicTimeout   = 10 * time.Second
)

// App — корень композиции: по одному экземпляру хранилища, транспорта, шины, store и хоста.
type App struct {
	cfg    *config.Config
	logger logger.Logger
	clock  clock.Clock
	closer *closer.Closer

	adapter *persist.Adapter
	factory *transport.Factory
	clients *api.Clients
	bus     *events.Bus
	store   *store.Store
	host    *host.Host
	bridge  *kafka.Bridge

	health  *v1Grpc.HealthService
	grpcSrv *v1Grpc.GRPCServer
	httpSrv *v1Http.Server
}

func NewApp(ctx context.Context, cfg *config.Config, log logger.Logger) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	a := &App{
		cfg:    cfg,
		logger: log,
		clock:  clock.Real(),
		closer: closer.NewCloser(forcedCloseTimeout),
	}

	storage, err := a.initStorage(ctx)
	if err != nil {
		a.closeOnError()
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	a.adapter, err = persist.NewAdapter(storage, cfg.Storage.Key, log)
	if err != nil {
		a.closeOnError()
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	a.factory = transport.NewFactory(transport.FactoryConfig{
		Services: cfg.Services.ByName(),
		Retry: transport.RetryPolicy{
			MaxRetries: cfg.Retry.MaxRetries,
			BaseDelay:  cfg.Retry.BaseDelay,
			MaxDelay:   cfg.Retry.MaxDelay,
			Jitter:     cfg.Retry.Jitter,
			Seed:       cfg.Retry.JitterSeed,
		},
		SlowThreshold: cfg.Transport.SlowRequestThreshold,
		RedirectDelay: cfg.Transport.RedirectDelay,
		LoginPath:     cfg.Transport.LoginPath,
	}, a.adapter, a.clock, log)
	a.clients = api.NewClients(a.factory)
	a.bus = events.NewBus(log)

	a.store = store.New(ctx, store.Deps{
		Auth:          a.clients.Auth,
		Catalog:       a.clients.Catalog,
		Orders:        a.clients.Orders,
		Customers:     a.clients.Customers,
		Payments:      a.clients.Payments,
		Notifications: a.clients.Notifications,
		Persist:       a.adapter,
		Bus:           a.bus,
		Clock:         a.clock,
		Logger:        log,
	})

	// клиенты созданы раньше store; эффекты транспорта подключаются здесь
	a.factory.Hooks().Bind(transport.Sinks{
		Notifier:  a.store.Notifications(),
		Evictor:   a.store.Auth(),
		Navigator: a.store.UI(),
		Loading:   a.store.UI(),
	})

	a.health = v1Grpc.NewHealthService(log)
	a.host = host.New(host.Deps{
		Store:         a.store,
		Clients:       a.clients,
		Bus:           a.bus,
		Logger:        log,
		Clock:         a.clock,
		OnMountChange: a.health.FragmentChanged,
	})
	a.host.Register(
		notifier.New(),
		cartsync.New(),
		orderwatch.New(orderwatch.WithInterval(cfg.Host.OrderWatchInterval)),
	)

	if cfg.Kafka != nil {
		a.initKafka()
	}

	a.grpcSrv = v1Grpc.NewGRPCServer(cfg.Grpc, log)
	a.grpcSrv.RegisterServices(a.health)

	r := chi.NewRouter()
	a.httpSrv = v1Http.NewServer(r, cfg.Http)
	v1Http.NewRouter(r, log).Init(v1Http.Deps{
		Host:    a.host,
		Store:   a.store,
		Bus:     a.bus,
		Clock:   a.clock,
		Closing: a.httpSrv.Closing(),
	})

	log.Infof("storefront shell initialized: storage=%s services=%v", cfg.Storage.Backend, a.factory.Services())
	return a, nil
}

func (a *App) initKafka() {
	producer := kafka.NewProducer(a.logger, a.cfg.Kafka)
	if err := producer.EnsureTopic(kafkaTopicTimeout); err != nil {
		a.logger.Warnf("failed to ensure kafka topic %s: %v", a.cfg.Kafka.Topic, err)
	}
	a.closer.Add("kafka producer", producer.Close)

	bc := kafka.DefaultBridgeConfig()
	bc.QueueSize = a.cfg.Kafka.QueueSize
	bc.BatchSize = a.cfg.Kafka.BatchSize
	bc.BaseDelay = a.cfg.Kafka.RetryDelay
	a.bridge = kafka.NewBridge(a.bus, producer, a.clock, a.logger, bc)
}

// Run запускает фрагменты и серверы и блокируется до сигнала остановки или фатальной ошибки.
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if a.bridge != nil {
		a.bridge.Start(ctx)
		a.closer.Add("kafka bridge", a.bridge.Stop)
	}

	a.verifySession(ctx)

	a.closer.Add("fragments", a.host.Close)
	if err := a.mountFragments(ctx); err != nil {
		a.logger.Errorf(err, "failed to mount fragments")
		a.shutdown()
		return err
	}

	grpcErrCh := make(chan error, 1)
	go func() {
		a.logger.Infof("gRPC server starting on %s:%s", a.cfg.Grpc.NetworkMode, a.cfg.Grpc.Port)
		if err := a.grpcSrv.Start(); err != nil {
			a.logger.Errorf(err, "gRPC server failed")
			grpcErrCh <- err
		}
	}()
	a.closer.Add("grpc server", a.grpcSrv.Stop)

	errCh := make(chan error, 1)
	go func() {
		a.logger.Infof("HTTP server started on port %s", a.cfg.Http.Port)
		if err := a.httpSrv.Run(); err != nil {
			a.logger.Errorf(err, "HTTP server failed")
			errCh <- err
		}
	}()
	a.closer.Add("http server", a.httpSrv.Stop)

	a.health.Serving()
	a.closer.Add("health", func(context.Context) error {
		a.health.Shutdown()
		return nil
	})

	var appErr error
	select {
	case appErr = <-errCh:
		a.logger.Errorf(appErr, "HTTP server fatal error")
	case appErr = <-grpcErrCh:
		a.logger.Errorf(appErr, "gRPC server fatal error")
	case <-ctx.Done():
		a.logger.Infof("Received shutdown signal, stopping gracefully...")
	}

	a.shutdown()
	return appErr
}

// mountFragments применяет манифест из HostCfg.ManifestPath или монтирует все встроенные фрагменты.
func (a *App) mountFragments(ctx context.Context) error {
	if a.cfg.Host.ManifestPath == "" {
		return a.host.ApplyAll(ctx)
	}

	m, err := host.LoadManifest(a.cfg.Host.ManifestPath)
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return a.host.Apply(ctx, m)
}

// verifySession проверяет восстановленную из хранилища сессию. Недействительная сессия
// сбрасывается внутри VerifySession.
func (a *App) verifySession(ctx context.Context) {
	if !a.store.Auth().IsAuthenticated() {
		return
	}

	ctx, cancel := context.WithTimeout(ctx, sessionCheckTimeout)
	defer cancel()

	valid, err := a.store.Auth().VerifySession(ctx)
	switch {
	case err != nil:
		a.logger.Warnf("failed to verify restored session: %v", err)
	case !valid:
		a.logger.Infof("restored session is no longer valid, signed out")
	}
}

func (a *App) shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := a.closer.Close(ctx); err != nil {
		a.logger.Errorf(err, "shutdown finished with errors")
		return
	}

	a.logger.Infof("Application shutdown complete")
}

func (a *App) closeOnError() {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := a.closer.Close(ctx); err != nil {
		a.logger.Warnf("cleanup after failed start: %v", err)
	}
}
