package rangefinder

import "time"

// Timer is the microsecond clock a Meter times pulses against. Abstracting
// it lets tests script pulse timing without real delays.
type Timer interface {
	// NowMicros returns a monotonic microsecond reading.
	NowMicros() int64

	// Delay blocks for the given number of microseconds.
	Delay(us int64)
}

// realTimer reads the monotonic clock. Delay spins rather than sleeping:
// the delays involved are a few tens of microseconds, well under the
// scheduler's sleep granularity.
type realTimer struct {
	base time.Time
}

// NewRealTimer creates a Timer backed by the monotonic clock.
func NewRealTimer() Timer {
	return &realTimer{base: time.Now()}
}

func (t *realTimer) NowMicros() int64 {
	return time.Since(t.base).Microseconds()
}

func (t *realTimer) Delay(us int64) {
	deadline := t.NowMicros() + us
	for t.NowMicros() < deadline {
	}
}

// FakeTimer is a scripted clock for tests. Every NowMicros call advances the
// reading by Step, simulating the time a poll iteration takes; Delay
// advances it by the requested amount and records the call.
type FakeTimer struct {
	// Now is the current microsecond reading.
	Now int64

	// Step is how far Now advances per NowMicros call.
	Step int64

	// Delays records every Delay call.
	Delays []int64
}

func (t *FakeTimer) NowMicros() int64 {
	v := t.Now
	t.Now += t.Step
	return v
}

func (t *FakeTimer) Delay(us int64) {
	t.Delays = append(t.Delays, us)
	t.Now += us
}
