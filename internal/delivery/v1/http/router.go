package http

import (
	_ "github.com/DRSN-tech/storefront-shell/docs" // описание API для swagger
	"github.com/DRSN-tech/storefront-shell/internal/events"
	"github.com/DRSN-tech/storefront-shell/internal/host"
	"github.com/DRSN-tech/storefront-shell/internal/store"
	"github.com/DRSN-tech/storefront-shell/pkg/clock"
	"github.com/DRSN-tech/storefront-shell/pkg/logger"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	httpSwagger "github.com/swaggo/http-swagger/v2"
)

type Router struct {
	router *chi.Mux
	logger logger.Logger
}

func NewRouter(router *chi.Mux, logger logger.Logger) *Router {
	return &Router{router: router, logger: logger}
}

type Deps struct {
	Host  *host.Host
	Store *store.Store
	Bus   *events.Bus
	Clock clock.Clock
	// Closing завершает SSE-потоки при остановке сервера; может быть nil.
	Closing <-chan struct{}
}

func (r *Router) Init(deps Deps) {
	r.router.Use(middleware.RequestID, middleware.Recoverer)

	r.router.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	r.router.Route("/api/v1", func(v1 chi.Router) {
		registerHostRoutes(v1, NewHostHandler(deps.Host, deps.Store, r.logger))
		registerCartRoutes(v1, NewCartHandler(deps.Store, r.logger))
		registerAuthRoutes(v1, NewAuthHandler(deps.Store, r.logger))
		registerEventRoutes(v1, NewEventsHandler(deps.Bus, deps.Clock, deps.Closing, r.logger))
	})
}

func registerHostRoutes(router chi.Router, h *HostHandler) {
	router.Get("/contract", h.getContract)
	router.Get("/state", h.getState)
	router.Put("/ui/theme", h.setTheme)
}

func registerCartRoutes(router chi.Router, h *CartHandler) {
	router.Route("/cart", func(cr chi.Router) {
		cr.Delete("/", h.clearCart)
		cr.Post("/items", h.addItem)
		cr.Patch("/items/{productID}", h.updateQuantity)
		cr.Delete("/items/{productID}", h.removeItem)
	})
}

func registerAuthRoutes(router chi.Router, h *AuthHandler) {
	router.Route("/auth", func(ar chi.Router) {
		ar.Post("/login", h.login)
		ar.Post("/logout", h.logout)
	})
}

func registerEventRoutes(router chi.Router, h *EventsHandler) {
	router.Get("/events", h.stream)
}
