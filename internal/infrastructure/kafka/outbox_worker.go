package kafka

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/DRSN-tech/storefront-shell/internal/events"
	"github.com/DRSN-tech/storefront-shell/pkg/clock"
	"github.com/DRSN-tech/storefront-shell/pkg/jitter"
	"github.com/DRSN-tech/storefront-shell/pkg/logger"
	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
)

// BridgeConfig — размеры очереди и политика повторов отправки.
type BridgeConfig struct {
	QueueSize  int
	BatchSize  int
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
	Jitter     float64
}

func DefaultBridgeConfig() BridgeConfig {
	return BridgeConfig{
		QueueSize:  1024,
		BatchSize:  10,
		MaxRetries: 5,
		BaseDelay:  500 * time.Millisecond,
		MaxDelay:   30 * time.Second,
		Jitter:     jitter.DefaultJitter,
	}
}

// Writer — то, куда мост отправляет пачки. Реализуется *Producer.
type Writer interface {
	Write(ctx context.Context, msgs ...kafka.Message) error
}

// Bridge подписывается на все события шины и пересылает их в топик.
//
// Публикация на шине синхронная, поэтому обработчик только кодирует событие и кладёт его
// в outbox (ограниченную очередь). Отправкой занимается одна фоновая горутина; временные
// ошибки брокера повторяются с экспоненциальной задержкой, при переполнении очереди
// событие отбрасывается с предупреждением.
type Bridge struct {
	bus    *events.Bus
	writer Writer
	clock  clock.Clock
	logger logger.Logger
	cfg    BridgeConfig
	newID  func() string

	outbox chan kafka.Message
	stop   chan struct{}
	wg     sync.WaitGroup

	mu          sync.Mutex
	unsubscribe []func()
	stopOnce    sync.Once
}

func NewBridge(bus *events.Bus, writer Writer, clk clock.Clock, logger logger.Logger, cfg BridgeConfig) *Bridge {
	def := DefaultBridgeConfig()
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = def.QueueSize
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = def.BatchSize
	}
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = def.BaseDelay
	}

	return &Bridge{
		bus:    bus,
		writer: writer,
		clock:  clk,
		logger: logger,
		cfg:    cfg,
		newID:  uuid.NewString,
		outbox: make(chan kafka.Message, cfg.QueueSize),
		stop:   make(chan struct{}),
	}
}

// Start подписывает мост на все виды событий и запускает отправку.
func (b *Bridge) Start(ctx context.Context) {
	b.mu.Lock()
	for _, kind := range events.Kinds() {
		b.unsubscribe = append(b.unsubscribe, b.bus.Subscribe(kind, b.enqueue))
	}
	b.mu.Unlock()

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		b.run(ctx)
	}()

	b.logger.Infof("Kafka bridge started for %d event kinds", len(events.Kinds()))
}

// Stop отписывается от шины, отправляет то, что уже в очереди, и ждёт завершения горутины.
func (b *Bridge) Stop(ctx context.Context) error {
	b.stopOnce.Do(func() {
		b.mu.Lock()
		for _, unsub := range b.unsubscribe {
			unsub()
		}
		b.unsubscribe = nil
		b.mu.Unlock()

		close(b.stop)
	})

	done := make(chan struct{})
	go func() {
		b.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Pending — число событий, ждущих отправки.
func (b *Bridge) Pending() int {
	return len(b.outbox)
}

func (b *Bridge) enqueue(ev events.Event) {
	value, err := EncodeEnvelope(b.newID(), b.clock.Now(), ev)
	if err != nil {
		b.logger.Errorf(err, "failed to encode %s event", ev.Kind())
		return
	}

	msg := kafka.Message{Key: []byte(partitionKey(ev)), Value: value}
	select {
	case b.outbox <- msg:
	default:
		b.logger.Warnf("Kafka outbox is full (%d), dropping %s event", cap(b.outbox), ev.Kind())
	}
}

func (b *Bridge) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			b.logger.Infof("Kafka bridge stopped by context cancellation, %d events not sent", len(b.outbox))
			return
		case <-b.stop:
			b.flush(ctx)
			return
		case msg := <-b.outbox:
			b.send(ctx, b.collect(msg))
		}
	}
}

// collect добирает из очереди то, что уже там лежит, до размера пачки.
func (b *Bridge) collect(first kafka.Message) []kafka.Message {
	batch := []kafka.Message{first}
	for len(batch) < b.cfg.BatchSize {
		select {
		case msg := <-b.outbox:
			batch = append(batch, msg)
		default:
			return batch
		}
	}

	return batch
}

func (b *Bridge) flush(ctx context.Context) {
	for {
		select {
		case msg := <-b.outbox:
			b.send(ctx, b.collect(msg))
		default:
			return
		}
	}
}

func (b *Bridge) send(ctx context.Context, batch []kafka.Message) {
	for attempt := 1; ; attempt++ {
		err := b.writer.Write(ctx, batch...)
		if err == nil {
			return
		}

		if !isRetryableError(err) {
			b.logger.Errorf(err, "Permanent Kafka failure, dropping %d events", len(batch))
			return
		}
		if attempt > b.cfg.MaxRetries {
			b.logger.Errorf(err, "Kafka retries exhausted after %d attempts, dropping %d events", attempt, len(batch))
			return
		}

		delay := jitter.ExponentialBackoff(b.cfg.BaseDelay, b.cfg.MaxDelay, attempt, b.cfg.Jitter)
		b.logger.Warnf("Temporary Kafka failure, retry %d in %v: %v", attempt, delay, err)

		select {
		case <-b.clock.After(delay):
		case <-ctx.Done():
			return
		}
	}
}

func isRetryableError(err error) bool {
	if err == nil {
		return false
	}

	var kerr kafka.Error
	if errors.As(err, &kerr) {
		return kerr.Temporary()
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	errStr := strings.ToLower(err.Error())
	retryablePhrases := []string{
		"connection refused",
		"i/o timeout",
		"network is unreachable",
		"broker not available",
		"connection reset",
		"broken pipe",
		"no such host",
	}
	for _, phrase := range retryablePhrases {
		if strings.Contains(errStr, phrase) {
			return true
		}
	}

	return false
}
