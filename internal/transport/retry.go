package transport

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"net/http"
	"sync"
	"time"

	"github.com/DRSN-tech/storefront-shell/pkg/clock"
	"github.com/DRSN-tech/storefront-shell/pkg/jitter"
	"github.com/DRSN-tech/storefront-shell/pkg/logger"
)

// RetryPolicy — параметры повтора. Задержка перед n-м повтором: BaseDelay * 2^(n-1),
// не больше MaxDelay (0: без ограничения), плюс джиттер до Jitter*delay.
type RetryPolicy struct {
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
	Jitter     float64
	// Seed, если не 0, фиксирует генератор джиттера: одинаковые Seed дают одинаковые задержки.
	Seed int64
	// OnRetry вызывается перед ожиданием каждого повтора.
	OnRetry func(retry int, delay time.Duration, err error)
}

// DefaultRetryPolicy — 3 повтора с задержками 1s, 2s, 4s.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxRetries: 3, BaseDelay: time.Second}
}

// Delay возвращает задержку перед повтором номер retry (с единицы).
func (p RetryPolicy) Delay(retry int) time.Duration {
	return jitter.ExponentialBackoff(p.BaseDelay, p.MaxDelay, retry, p.Jitter)
}

// delayFunc возвращает функцию задержек стадии Retry. При Seed != 0 у стадии свой генератор,
// общий для всех её запросов.
func (p RetryPolicy) delayFunc() func(retry int) time.Duration {
	if p.Seed == 0 {
		return p.Delay
	}

	var mu sync.Mutex
	rng := rand.New(rand.NewSource(p.Seed))
	return func(retry int) time.Duration {
		mu.Lock()
		defer mu.Unlock()
		return jitter.DurationWithSeed(jitter.Exponential(p.BaseDelay, p.MaxDelay, retry), p.Jitter, rng)
	}
}

// Retry повторяет запросы, завершившиеся ошибкой с Retryable() == true. Другие 4xx и отмена
// вызывающим не повторяются. Счётчик попыток живёт в контексте запроса, поэтому вложенная
// стадия Retry пропускает запрос без собственных повторов.
func Retry(service string, policy RetryPolicy, clk clock.Clock, log logger.Logger) Interceptor {
	delayOf := policy.delayFunc()
	return func(next Handler) Handler {
		return func(req *http.Request) (*http.Response, error) {
			if _, nested := req.Context().Value(retryStateKey).(*retryState); nested {
				return next(req)
			}

			state := &retryState{}
			ctx := context.WithValue(req.Context(), retryStateKey, state)
			original := req.WithContext(ctx)

			for {
				attemptReq, err := rewind(original, state.attempt)
				if err != nil {
					return nil, err
				}

				resp, err := next(attemptReq)
				if err == nil {
					if state.attempt > 0 {
						log.Infof("[%s] %s %s succeeded after %d retries", service, req.Method, req.URL.Path, state.attempt)
					}
					return resp, nil
				}

				if state.attempt >= policy.MaxRetries || !shouldRetry(ctx, err) {
					return resp, err
				}

				state.attempt++
				delay := delayOf(state.attempt)
				if policy.OnRetry != nil {
					policy.OnRetry(state.attempt, delay, err)
				}
				log.Warnf("[%s] %s %s failed (%v), retry %d/%d in %s",
					service, req.Method, req.URL.Path, err, state.attempt, policy.MaxRetries, delay)

				select {
				case <-clk.After(delay):
				case <-ctx.Done():
					return nil, ctx.Err()
				}
			}
		}
	}
}

func shouldRetry(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return false
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Retryable()
	}

	return false
}

// rewind готовит копию запроса для очередной попытки, перечитывая тело через GetBody.
func rewind(req *http.Request, attempt int) (*http.Request, error) {
	if attempt == 0 {
		return req.Clone(req.Context()), nil
	}

	r := req.Clone(req.Context())
	if req.Body == nil || req.Body == http.NoBody {
		return r, nil
	}
	if req.GetBody == nil {
		return nil, fmt.Errorf("transport: request body of %s %s cannot be replayed", req.Method, req.URL.Path)
	}

	body, err := req.GetBody()
	if err != nil {
		return nil, fmt.Errorf("transport: replay request body: %w", err)
	}
	r.Body = body
	return r, nil
}
