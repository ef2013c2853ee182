package jitter

import (
	"math/rand"
	"testing"
	"time"
)

func TestExponential(t *testing.T) {
	tests := []struct {
		name    string
		base    time.Duration
		max     time.Duration
		attempt int
		want    time.Duration
	}{
		{"first retry waits base", time.Second, 0, 1, time.Second},
		{"second retry doubles", time.Second, 0, 2, 2 * time.Second},
		{"third retry", time.Second, 0, 3, 4 * time.Second},
		{"zero attempt treated as first", time.Second, 0, 0, time.Second},
		{"capped", time.Second, 3 * time.Second, 3, 3 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Exponential(tt.base, tt.max, tt.attempt); got != tt.want {
				t.Fatalf("Exponential(%v, %v, %d) = %v, want %v", tt.base, tt.max, tt.attempt, got, tt.want)
			}
		})
	}
}

func TestDurationWithoutJitterIsExact(t *testing.T) {
	if got := ExponentialBackoff(time.Second, 0, 3, 0); got != 4*time.Second {
		t.Fatalf("got %v, want 4s", got)
	}
}

func TestDurationWithSeedBounds(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 100; i++ {
		got := DurationWithSeed(time.Second, DefaultJitter, rng)
		if got < time.Second || got > 1500*time.Millisecond {
			t.Fatalf("jittered duration %v outside [1s, 1.5s]", got)
		}
	}
}
