package clock_test

import (
	"testing"
	"time"

	"github.com/DRSN-tech/storefront-shell/pkg/clock"
)

var epoch = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

func TestFakeAfterFiresOnlyAtDeadline(t *testing.T) {
	c := clock.Fake(epoch)
	ch := c.After(time.Second)

	c.Advance(999 * time.Millisecond)
	select {
	case <-ch:
		t.Fatal("timer fired before deadline")
	default:
	}

	c.Advance(time.Millisecond)
	select {
	case got := <-ch:
		if !got.Equal(epoch.Add(time.Second)) {
			t.Fatalf("fired at %v, want %v", got, epoch.Add(time.Second))
		}
	default:
		t.Fatal("timer did not fire at deadline")
	}
}

func TestFakeAfterFuncStop(t *testing.T) {
	c := clock.Fake(epoch)
	called := false
	timer := c.AfterFunc(time.Second, func() { called = true })

	if !timer.Stop() {
		t.Fatal("Stop on pending timer returned false")
	}
	c.Advance(2 * time.Second)
	if called {
		t.Fatal("stopped callback was invoked")
	}
	if c.Pending() != 0 {
		t.Fatalf("pending = %d, want 0", c.Pending())
	}
}

func TestFakeWaitForTimers(t *testing.T) {
	c := clock.Fake(epoch)
	done := make(chan struct{})

	go func() {
		<-c.After(5 * time.Second)
		close(done)
	}()

	c.WaitForTimers(1)
	c.Advance(5 * time.Second)
	<-done
}
