package kernel

import (
	"testing"
	"time"
)

func TestValidRTCRate(t *testing.T) {
	cases := []struct {
		rate uint32
		want bool
	}{
		{0, false},
		{1, false},
		{2, true},
		{3, false},
		{1024, true},
		{2048, false},
	}
	for _, c := range cases {
		if got := validRTCRate(c.rate); got != c.want {
			t.Errorf("validRTCRate(%d) = %v, want %v", c.rate, got, c.want)
		}
	}
}

func TestRTCWaitForTick(t *testing.T) {
	r := NewRTC()

	done := make(chan struct{})
	go func() {
		r.WaitForTick(FreqMaxHz) // period == 1 reference tick
		close(done)
	}()

	// Give the waiter a moment to start blocking before ticking.
	time.Sleep(10 * time.Millisecond)
	r.Tick()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("WaitForTick did not return after a single reference tick at max rate")
	}
}

func TestRTCOnTickFiresOncePerTick(t *testing.T) {
	r := NewRTC()

	var count int
	r.SetOnTick(func() { count++ })

	r.Tick()
	r.Tick()
	r.Tick()

	if count != 3 {
		t.Fatalf("expected onTick to fire 3 times, got %d", count)
	}

	r.SetOnTick(nil)
	r.Tick()
	if count != 3 {
		t.Fatalf("expected onTick not to fire after being cleared, got count %d", count)
	}
}

func TestRTCWaitForTickRequiresFullPeriod(t *testing.T) {
	r := NewRTC()

	done := make(chan struct{})
	go func() {
		r.WaitForTick(FreqMaxHz / 4) // period == 4 reference ticks
		close(done)
	}()

	time.Sleep(10 * time.Millisecond)
	for i := 0; i < 3; i++ {
		r.Tick()
	}

	select {
	case <-done:
		t.Fatalf("WaitForTick returned after only 3 of 4 required ticks")
	case <-time.After(50 * time.Millisecond):
	}

	r.Tick()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("WaitForTick did not return after the 4th tick")
	}
}
