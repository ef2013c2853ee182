// Package jitter считает задержки экспоненциального отступления (backoff) и при необходимости
// добавляет к ним случайный разброс, чтобы повторные запросы разных клиентов не приходили одновременно.
package jitter

import (
	"math/rand"
	"sync"
	"time"
)

// DefaultJitter — стандартный коэффициент джиттера (50%)
const DefaultJitter = 0.5

var (
	globalRand = rand.New(rand.NewSource(time.Now().UnixNano()))
	randMutex  sync.Mutex
)

// Duration возвращает продолжительность с применённым джиттером.
// Результат находится в диапазоне [d, d*(1+jitterFactor)]. При jitterFactor <= 0 возвращает d как есть.
func Duration(d time.Duration, jitterFactor float64) time.Duration {
	if jitterFactor <= 0 {
		return d
	}

	randMutex.Lock()
	jitter := globalRand.Float64() * jitterFactor * float64(d)
	randMutex.Unlock()
	return d + time.Duration(jitter)
}

// DurationWithSeed возвращает продолжительность с джиттером, используя заданный генератор случайных чисел.
func DurationWithSeed(d time.Duration, jitterFactor float64, rng *rand.Rand) time.Duration {
	if jitterFactor <= 0 {
		return d
	}

	return d + time.Duration(rng.Float64()*jitterFactor*float64(d))
}

// Exponential возвращает base * 2^(attempt-1) для attempt >= 1, ограниченное max (max <= 0: без ограничения).
// Нумерация попыток с единицы: первая повторная попытка ждёт base.
func Exponential(base, max time.Duration, attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}

	backoff := base
	for i := 1; i < attempt; i++ {
		backoff *= 2
		if max > 0 && backoff > max {
			return max
		}
	}

	if max > 0 && backoff > max {
		return max
	}

	return backoff
}

// ExponentialBackoff вычисляет экспоненциальное отступление с джиттером.
// attempt — номер повторной попытки, начиная с 1.
func ExponentialBackoff(base, max time.Duration, attempt int, jitterFactor float64) time.Duration {
	return Duration(Exponential(base, max, attempt), jitterFactor)
}
