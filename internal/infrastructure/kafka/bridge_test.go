package kafka

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/DRSN-tech/storefront-shell/internal/domain"
	"github.com/DRSN-tech/storefront-shell/internal/events"
	"github.com/DRSN-tech/storefront-shell/pkg/clock"
	"github.com/DRSN-tech/storefront-shell/pkg/logger"
	"github.com/segmentio/kafka-go"
)

type fakeWriter struct {
	mu      sync.Mutex
	errs    []error
	written []kafka.Message
	calls   chan int
}

func newFakeWriter(errs ...error) *fakeWriter {
	return &fakeWriter{errs: errs, calls: make(chan int, 16)}
}

func (w *fakeWriter) Write(_ context.Context, msgs ...kafka.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	var err error
	if len(w.errs) > 0 {
		err, w.errs = w.errs[0], w.errs[1:]
	}
	if err == nil {
		w.written = append(w.written, msgs...)
	}
	w.calls <- len(msgs)
	return err
}

func (w *fakeWriter) messages() []kafka.Message {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]kafka.Message(nil), w.written...)
}

func newTestBridge(t *testing.T, w Writer, clk clock.Clock) (*Bridge, *events.Bus) {
	t.Helper()

	log := logger.NewNopLogger()
	bus := events.NewBus(log)
	b := NewBridge(bus, w, clk, log, BridgeConfig{MaxRetries: 2, BaseDelay: time.Second, MaxDelay: 10 * time.Second})
	b.newID = func() string { return "evt-1" }
	return b, bus
}

func TestEnvelopeRoundTrip(t *testing.T) {
	at := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	ev := events.OrderStatusChanged{OrderID: "o-1", From: domain.OrderPending, To: domain.OrderShipped}

	data, err := EncodeEnvelope("evt-1", at, ev)
	if err != nil {
		t.Fatal(err)
	}

	env, err := DecodeEnvelope(data)
	if err != nil {
		t.Fatal(err)
	}
	if env.EventID != "evt-1" || env.Kind != events.KindOrderStatusChanged || !env.OccurredAt.Equal(at) {
		t.Fatalf("envelope = %+v", env)
	}
	if env.Payload["orderId"] != "o-1" || env.Payload["to"] != "shipped" {
		t.Fatalf("payload = %v", env.Payload)
	}
}

func TestBridgeForwardsEvents(t *testing.T) {
	w := newFakeWriter()
	b, bus := newTestBridge(t, w, clock.Real())
	b.Start(context.Background())

	bus.Publish(events.AuthLogin{User: domain.User{ID: "u-1"}})
	<-w.calls

	if err := b.Stop(context.Background()); err != nil {
		t.Fatal(err)
	}

	msgs := w.messages()
	if len(msgs) != 1 || string(msgs[0].Key) != "u-1" {
		t.Fatalf("messages = %+v", msgs)
	}
	env, err := DecodeEnvelope(msgs[0].Value)
	if err != nil || env.Kind != events.KindAuthLogin {
		t.Fatalf("envelope = %+v, err = %v", env, err)
	}

	if bus.Subscribers(events.KindAuthLogin) != 0 {
		t.Fatal("bridge still subscribed after Stop")
	}
}

func TestBridgeRetriesTemporaryErrors(t *testing.T) {
	clk := clock.Fake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	w := newFakeWriter(errors.New("dial tcp: connection refused"), kafka.LeaderNotAvailable)
	b, bus := newTestBridge(t, w, clk)
	b.cfg.Jitter = 0
	b.Start(context.Background())

	bus.Publish(events.OrderCreated{Order: domain.Order{ID: "o-1"}})

	<-w.calls
	clk.WaitForTimers(1)
	clk.Advance(time.Second)

	<-w.calls
	clk.WaitForTimers(1)
	clk.Advance(2 * time.Second)

	<-w.calls
	if err := b.Stop(context.Background()); err != nil {
		t.Fatal(err)
	}

	if msgs := w.messages(); len(msgs) != 1 || string(msgs[0].Key) != "o-1" {
		t.Fatalf("messages = %+v", msgs)
	}
}

func TestBridgeDropsOnPermanentError(t *testing.T) {
	w := newFakeWriter(kafka.MessageSizeTooLarge)
	b, bus := newTestBridge(t, w, clock.Real())
	b.Start(context.Background())

	bus.Publish(events.AuthLogout{UserID: "u-1"})
	<-w.calls

	if err := b.Stop(context.Background()); err != nil {
		t.Fatal(err)
	}
	if len(w.messages()) != 0 {
		t.Fatal("permanent failure must not be retried")
	}
	if len(w.calls) != 0 {
		t.Fatalf("unexpected extra writes: %d", len(w.calls))
	}
}

func TestIsRetryableError(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{nil, false},
		{errors.New("read: connection reset by peer"), true},
		{kafka.RequestTimedOut, true},
		{kafka.TopicAuthorizationFailed, false},
		{context.DeadlineExceeded, true},
		{errors.New("invalid message"), false},
	}

	for _, tt := range tests {
		if got := isRetryableError(tt.err); got != tt.want {
			t.Errorf("isRetryableError(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}
}
