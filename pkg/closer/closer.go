package closer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

const defaultForcedTimeout = 2 * time.Second

// Func закрывает один ресурс.
type Func func(ctx context.Context) error

type namedFunc struct {
	name string
	f    Func
}

// Closer закрывает зарегистрированные ресурсы в обратном порядке регистрации.
// Ресурсы, до которых очередь не дошла за время ctx, закрываются принудительно и параллельно.
type Closer struct {
	mu            sync.Mutex
	funcs         []namedFunc
	once          sync.Once
	forcedTimeout time.Duration
}

// NewCloser создаёт Closer. forcedTimeout ограничивает принудительное закрытие (0: 2s).
func NewCloser(forcedTimeout time.Duration) *Closer {
	if forcedTimeout <= 0 {
		forcedTimeout = defaultForcedTimeout
	}

	return &Closer{forcedTimeout: forcedTimeout}
}

// Add регистрирует ресурс. name попадает в ошибку, если закрытие не удалось.
func (c *Closer) Add(name string, f Func) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.funcs = append(c.funcs, namedFunc{name: name, f: f})
}

// Close закрывает все ресурсы один раз. Ошибки отдельных ресурсов объединяются через errors.Join
// и доступны через errors.Is.
func (c *Closer) Close(ctx context.Context) error {
	var err error
	c.once.Do(func() {
		c.mu.Lock()
		funcs := c.funcs
		c.funcs = nil
		c.mu.Unlock()

		closed, errs := c.gracefulClose(ctx, funcs)
		if closed == len(funcs) {
			err = errors.Join(errs...)
			return
		}

		remaining := funcs[:len(funcs)-closed]
		errs = append(errs, c.forcedClose(remaining)...)
		err = fmt.Errorf("shutdown interrupted after %d/%d resources: %w", closed, len(funcs), errors.Join(errs...))
	})

	return err
}

// gracefulClose идёт с конца списка и возвращает, сколько ресурсов успело закрыться до отмены ctx.
// Ресурс, на котором сработала отмена, считается незакрытым.
func (c *Closer) gracefulClose(ctx context.Context, funcs []namedFunc) (int, []error) {
	var errs []error
	for i := len(funcs) - 1; i >= 0; i-- {
		nf := funcs[i]
		done := make(chan error, 1)
		go func() {
			done <- nf.f(ctx)
		}()

		select {
		case err := <-done:
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", nf.name, err))
			}
		case <-ctx.Done():
			return len(funcs) - 1 - i, errs
		}
	}

	return len(funcs), errs
}

func (c *Closer) forcedClose(funcs []namedFunc) []error {
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)

	ctx, cancel := context.WithTimeout(context.Background(), c.forcedTimeout)
	defer cancel()

	for _, nf := range funcs {
		nf := nf
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := nf.f(ctx); err != nil {
				mu.Lock()
				errs = append(errs, fmt.Errorf("forced %s: %w", nf.name, err))
				mu.Unlock()
			}
		}()
	}

	wg.Wait()
	return errs
}
