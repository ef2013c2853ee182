// Package clock даёт подменяемый источник времени.
//
// Всё, что читает текущее время или ждёт (ретраи, таймеры редиректа, опрос заказов),
// получает Clock параметром. В продакшене это Real(), в тестах Fake(), время в котором
// двигается только через Advance.
package clock

import "time"

// Clock абстрагирует операции со временем.
type Clock interface {
	Now() time.Time
	// After возвращает канал, в который придёт время через d. При d <= 0: сразу.
	After(d time.Duration) <-chan time.Time
	// AfterFunc вызывает f через d. Вызов можно отменить через Timer.Stop.
	AfterFunc(d time.Duration, f func()) *Timer
}

// Timer — отменяемый отложенный вызов.
type Timer struct {
	stop func() bool
}

// Stop отменяет вызов. Возвращает false, если вызов уже произошёл или был отменён.
func (t *Timer) Stop() bool {
	if t == nil || t.stop == nil {
		return false
	}

	return t.stop()
}

// Real возвращает Clock на стандартном пакете time.
func Real() Clock {
	return realClock{}
}

type realClock struct{}

func (realClock) Now() time.Time {
	return time.Now()
}

func (realClock) After(d time.Duration) <-chan time.Time {
	return time.After(d)
}

func (realClock) AfterFunc(d time.Duration, f func()) *Timer {
	t := time.AfterFunc(d, f)
	return &Timer{stop: t.Stop}
}
