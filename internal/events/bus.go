package events

import (
	"fmt"
	"reflect"
	"sync"
	"sync/atomic"

	"github.com/DRSN-tech/storefront-shell/pkg/logger"
)

// Handler получает событие синхронно, в горутине издателя.
type Handler func(Event)

type subscription struct {
	handler Handler
	active  atomic.Bool
}

// Bus — синхронная шина в памяти процесса. Обработчики одного имени вызываются
// в порядке подписки; паника обработчика логируется и не прерывает рассылку.
type Bus struct {
	mu       sync.RWMutex
	handlers map[Kind][]*subscription
	logger   logger.Logger
}

func NewBus(logger logger.Logger) *Bus {
	return &Bus{
		handlers: make(map[Kind][]*subscription),
		logger:   logger,
	}
}

// Subscribe регистрирует обработчик и возвращает функцию отписки. Повторный вызов отписки безопасен.
func (b *Bus) Subscribe(kind Kind, h Handler) func() {
	sub := &subscription{handler: h}
	sub.active.Store(true)

	b.mu.Lock()
	b.handlers[kind] = append(b.handlers[kind], sub)
	b.mu.Unlock()

	return func() {
		if !sub.active.CompareAndSwap(true, false) {
			return
		}

		b.mu.Lock()
		defer b.mu.Unlock()
		subs := b.handlers[kind]
		for i, s := range subs {
			if s == sub {
				b.handlers[kind] = append(subs[:i:i], subs[i+1:]...)
				break
			}
		}
		if len(b.handlers[kind]) == 0 {
			delete(b.handlers, kind)
		}
	}
}

// Publish вызывает всех текущих подписчиков ev.Kind(). Подписавшиеся во время рассылки
// получат только следующие события.
func (b *Bus) Publish(ev Event) {
	if ev == nil {
		return
	}

	kind := ev.Kind()
	b.mu.RLock()
	subs := append([]*subscription(nil), b.handlers[kind]...)
	b.mu.RUnlock()

	for _, sub := range subs {
		if !sub.active.Load() {
			continue
		}
		b.dispatch(kind, sub.handler, ev)
	}
}

// Subscribers возвращает число подписчиков на kind.
func (b *Bus) Subscribers(kind Kind) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.handlers[kind])
}

func (b *Bus) dispatch(kind Kind, h Handler, ev Event) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Errorf(fmt.Errorf("panic: %v", r), "event handler for %s failed", kind)
		}
	}()

	h(ev)
}

// On подписывает типизированный обработчик на событие типа T. T может быть и указателем
// на событие: обработчик получит адрес копии опубликованного значения.
//
//	unsubscribe := events.On(bus, func(ev events.AuthLogin) { ... })
func On[T Event](b *Bus, fn func(T)) func() {
	typ := reflect.TypeOf((*T)(nil)).Elem()
	switch typ.Kind() {
	case reflect.Interface:
		panic(fmt.Sprintf("events.On: %s is an interface, use Bus.Subscribe", typ))
	case reflect.Pointer:
	default:
		var zero T
		return b.Subscribe(zero.Kind(), func(ev Event) {
			if typed, ok := ev.(T); ok {
				fn(typed)
			}
		})
	}

	elem := typ.Elem()
	kind := reflect.New(elem).Interface().(Event).Kind()
	return b.Subscribe(kind, func(ev Event) {
		if typed, ok := ev.(T); ok {
			fn(typed)
			return
		}

		v := reflect.ValueOf(ev)
		if v.Type() != elem {
			return
		}
		ptr := reflect.New(elem)
		ptr.Elem().Set(v)
		fn(ptr.Interface().(T))
	})
}
