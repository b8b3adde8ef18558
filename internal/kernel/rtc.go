package kernel

import "sync/atomic"

// RTC frequency bounds, grounded directly on devices/rtc.c's FREQ_* and
// the 1024 Hz hardware ceiling the kernel never exceeds.
const (
	FreqMinHz     = 2
	FreqMaxHz     = 1024
	FreqDefaultHz = 2
)

func validRTCRate(rate uint32) bool {
	if rate < FreqMinHz || rate > FreqMaxHz {
		return false
	}
	return rate&(rate-1) == 0 // power of two
}

// RTC is the virtualized real-time-clock device. A single 1024 Hz
// reference counter is advanced by Tick (driven by a dedicated PIT-rate
// ticker, separate from the scheduler's quantum ticker); WaitForTick
// blocks a caller until the counter has advanced far enough for the
// caller's chosen virtual rate, exactly mirroring rtc_read's period =
// FREQ_1024Hz/file->inode busy-wait, translated into a wait on a buffered
// channel instead of a spin loop.
type RTC struct {
	numInterrupts atomic.Uint64
	tickCh        chan struct{}
	onTick        atomic.Pointer[func()]
}

// NewRTC returns an RTC with its reference counter at zero.
func NewRTC() *RTC {
	return &RTC{tickCh: make(chan struct{}, 1)}
}

// SetOnTick installs a hook invoked on every 1024 Hz tick, e.g. to drive an
// audible click for an interactive frontend. Pass nil to remove it.
func (r *RTC) SetOnTick(fn func()) {
	if fn == nil {
		r.onTick.Store(nil)
		return
	}
	r.onTick.Store(&fn)
}

// Tick advances the 1024 Hz reference counter by one and wakes any readers
// blocked in WaitForTick. Called once per PIT tick.
func (r *RTC) Tick() {
	r.numInterrupts.Add(1)
	select {
	case r.tickCh <- struct{}{}:
	default:
	}
	if fn := r.onTick.Load(); fn != nil {
		(*fn)()
	}
}

// WaitForTick blocks until the reference counter has advanced by
// FreqMaxHz/rate ticks since the call began. rate must already have been
// validated (validRTCRate) by the caller; WaitForTick itself does not
// check it. A rate of 0 is treated as FreqDefaultHz, a rate above
// FreqMaxHz gives a period of 0 and returns at once, and any other rate
// waits FreqMaxHz/rate ticks (integer division).
func (r *RTC) WaitForTick(rate uint32) {
	if rate == 0 {
		rate = FreqDefaultHz
	}
	period := uint64(FreqMaxHz / rate)
	start := r.numInterrupts.Load()
	for r.numInterrupts.Load()-start < period {
		<-r.tickCh
	}
}
