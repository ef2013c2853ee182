package http_test

import (
	"bufio"
	"context"
	"io"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/DRSN-tech/storefront-shell/internal/cfg"
	v1http "github.com/DRSN-tech/storefront-shell/internal/delivery/v1/http"
	"github.com/DRSN-tech/storefront-shell/internal/events"
	"github.com/DRSN-tech/storefront-shell/pkg/clock"
	"github.com/DRSN-tech/storefront-shell/pkg/logger"
	"github.com/go-chi/chi/v5"
)

func TestServerStopEndsEventStreams(t *testing.T) {
	log := logger.NewNopLogger()
	r := chi.NewRouter()
	srv := v1http.NewServer(r, &cfg.HTTPConfig{Port: "0", WriteTimeout: time.Second})
	v1http.NewRouter(r, log).Init(v1http.Deps{
		Bus:     events.NewBus(log),
		Clock:   clock.Real(),
		Closing: srv.Closing(),
	})

	lis, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	served := make(chan error, 1)
	go func() { served <- srv.Serve(lis) }()

	res, err := http.Get("http://" + lis.Addr().String() + "/api/v1/events")
	if err != nil {
		t.Fatal(err)
	}
	defer res.Body.Close()

	body := bufio.NewReader(res.Body)
	if line, _ := body.ReadString('\n'); line != ": connected\n" {
		t.Fatalf("first line = %q", line)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Stop(ctx); err != nil {
		t.Fatalf("Stop: %v", err)
	}

	if _, err := io.ReadAll(body); err != nil {
		t.Fatalf("stream did not end cleanly: %v", err)
	}
	if err := <-served; err != nil {
		t.Fatalf("Serve = %v, want nil after Stop", err)
	}

	select {
	case <-srv.Closing():
	default:
		t.Fatal("Closing must be closed after Stop")
	}
}
