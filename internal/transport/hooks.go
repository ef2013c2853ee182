package transport

import (
	"sync"

	"github.com/DRSN-tech/storefront-shell/internal/domain"
)

// Notifier показывает уведомление пользователю.
type Notifier interface {
	Push(n domain.Notification) string
}

// Evictor сбрасывает auth-поля живого состояния после 401.
type Evictor interface {
	Evict()
}

// Navigator переводит пользователя на другой маршрут.
type Navigator interface {
	Navigate(path string)
}

// LoadingSink получает признак «есть запросы в полёте».
type LoadingSink interface {
	SetGlobalLoading(loading bool)
}

// Sinks — приёмники побочных эффектов транспорта.
type Sinks struct {
	Notifier  Notifier
	Evictor   Evictor
	Navigator Navigator
	Loading   LoadingSink
}

// Hooks связывает транспорт с контейнером состояния после создания обоих.
// До Bind все эффекты, кроме записи в хранилище, пропускаются.
type Hooks struct {
	mu    sync.RWMutex
	sinks Sinks
}

func NewHooks() *Hooks {
	return &Hooks{}
}

// Bind задаёт приёмники. nil-поля отключают соответствующий эффект.
func (h *Hooks) Bind(s Sinks) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.sinks = s
}

func (h *Hooks) get() Sinks {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.sinks
}

func (h *Hooks) notify(n domain.Notification) {
	if s := h.get().Notifier; s != nil {
		s.Push(n)
	}
}

func (h *Hooks) evict() {
	if s := h.get().Evictor; s != nil {
		s.Evict()
	}
}

func (h *Hooks) navigate(path string) {
	if s := h.get().Navigator; s != nil {
		s.Navigate(path)
	}
}

func (h *Hooks) setLoading(loading bool) {
	if s := h.get().Loading; s != nil {
		s.SetGlobalLoading(loading)
	}
}
