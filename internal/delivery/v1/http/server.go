package http

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/DRSN-tech/storefront-shell/internal/cfg"
)

// readHeaderTimeout ограничивает чтение заголовков отдельно от ReadTimeout:
// SSE-подписчики держат соединение дольше WriteTimeout только на запись.
const readHeaderTimeout = 5 * time.Second

type Server struct {
	httpServer *http.Server
	closing    chan struct{}
}

func NewServer(handler http.Handler, cfg *cfg.HTTPConfig) *Server {
	s := &Server{
		closing: make(chan struct{}),
		httpServer: &http.Server{
			Addr:              ":" + cfg.Port,
			Handler:           handler,
			ReadTimeout:       cfg.ReadTimeout,
			ReadHeaderTimeout: readHeaderTimeout,
			WriteTimeout:      cfg.WriteTimeout,
			IdleTimeout:       cfg.IdleTimeout,
		},
	}

	var once sync.Once
	s.httpServer.RegisterOnShutdown(func() {
		once.Do(func() { close(s.closing) })
	})

	return s
}

// Closing закрывается в начале Stop. Долгие потоки (SSE) завершаются по нему,
// иначе Shutdown ждал бы их до истечения контекста.
func (s *Server) Closing() <-chan struct{} {
	return s.closing
}

// Run слушает порт из конфигурации. После Stop возвращает nil.
func (s *Server) Run() error {
	lis, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return err
	}

	return s.Serve(lis)
}

func (s *Server) Serve(lis net.Listener) error {
	if err := s.httpServer.Serve(lis); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}

// Stop дожидается завершения активных запросов, пока жив ctx, затем закрывает соединения.
func (s *Server) Stop(ctx context.Context) error {
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return s.httpServer.Close()
	}

	return nil
}
