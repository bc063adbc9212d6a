// Package status provides a thread-safe snapshot of the parking-guide
// daemon for the HTTP diagnostics page. The run loop writes it once per
// tick; HTTP handlers read it concurrently.
package status

import (
	"sync"
	"time"

	"github.com/garagist/parking-guide/internal/guide"
)

// Config contains daemon configuration for display.
type Config struct {
	Chip          string
	SensorName    string
	IndicatorName string
	PollMs        int64
	AmbientDeciC  int
	HTTPAddr      string
	Simulated     bool
}

// Snapshot is a point-in-time view of daemon state.
// It is a value type — safe to use after the lock is released.
type Snapshot struct {
	Phase         guide.Phase
	PreviousPhase guide.Phase
	Direction     guide.Direction
	DistanceMm    int
	Band          guide.Band
	Counters      guide.Counters
	StartTime     time.Time
	Now           time.Time
	Config        Config
}

// Uptime returns the duration since the daemon started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// OutOfRange reports whether the last sample was the unknown sentinel.
func (s Snapshot) OutOfRange() bool {
	return s.DistanceMm == guide.DistanceUnknown
}

// Tracker holds mutable daemon state behind an RWMutex.
type Tracker struct {
	mu   sync.RWMutex
	snap Snapshot
}

// NewTracker creates a Tracker with the given start time and config.
func NewTracker(startTime time.Time, cfg Config) *Tracker {
	return &Tracker{
		snap: Snapshot{
			Phase:         guide.PhaseInvalid,
			PreviousPhase: guide.PhaseInvalid,
			DistanceMm:    guide.DistanceUnknown,
			StartTime:     startTime,
			Config:        cfg,
		},
	}
}

// Update records the classifier state after a tick.
func (t *Tracker) Update(m *guide.Machine) {
	t.mu.Lock()
	t.snap.Phase = m.Phase()
	t.snap.PreviousPhase = m.PreviousPhase()
	t.snap.Direction = m.LastDirection()
	t.snap.DistanceMm = m.LastDistanceMm()
	t.snap.Band = m.LastBand()
	t.snap.Counters = m.Counters()
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the daemon state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	t.mu.RUnlock()
	s.Now = time.Now()
	return s
}
