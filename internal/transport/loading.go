package transport

import (
	"net/http"
	"sync"
	"sync/atomic"
)

// InFlight считает запросы в полёте и сообщает приёмнику переходы 0 → 1 и 1 → 0.
type InFlight struct {
	hooks *Hooks
	n     atomic.Int64

	mu    sync.Mutex
	dirty atomic.Bool
	last  bool
}

func NewInFlight(hooks *Hooks) *InFlight {
	return &InFlight{hooks: hooks}
}

// Count возвращает число запросов в полёте.
func (f *InFlight) Count() int64 {
	return f.n.Load()
}

// Interceptor — внешняя стадия цепочки; считает логический запрос один раз, вместе со всеми повторами.
func (f *InFlight) Interceptor() Interceptor {
	return func(next Handler) Handler {
		return func(req *http.Request) (*http.Response, error) {
			f.n.Add(1)
			f.publish()
			defer func() {
				f.n.Add(-1)
				f.publish()
			}()

			return next(req)
		}
	}
}

// publish передаёт приёмнику актуальное значение. Если публикация уже идёт в другой горутине
// (или выше по стеку этой), она перечитает счётчик после своего вызова.
func (f *InFlight) publish() {
	f.dirty.Store(true)
	for f.dirty.Load() {
		if !f.mu.TryLock() {
			return
		}

		f.dirty.Store(false)
		loading := f.n.Load() > 0
		if loading != f.last {
			f.last = loading
			f.hooks.setLoading(loading)
		}
		f.mu.Unlock()
	}
}
