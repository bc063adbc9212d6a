// Package device holds the result vocabulary and signal conventions shared by
// the hardware-facing packages (rangefinder, trafficlight).
package device

import "errors"

// Sentinel results returned by sensor and indicator operations.
// Callers dispatch with errors.Is; nil means OK.
var (
	// ErrBusy: the device is already initialized. Deinit must be called
	// before Init can succeed again.
	ErrBusy = errors.New("device busy: already initialized")

	// ErrBadParam: a configuration value is invalid.
	ErrBadParam = errors.New("invalid parameter")

	// ErrNotReady: the operation requires Init to have been called first.
	ErrNotReady = errors.New("device not ready: not initialized")

	// ErrTimeout: the device did not respond within the expected window.
	ErrTimeout = errors.New("device timeout")

	// ErrDevice: the device is absent or in an error state.
	ErrDevice = errors.New("device error")
)

// Polarity maps a logical "active" line state to a physical level.
type Polarity int

const (
	// ActiveHigh: logical active = physical high.
	ActiveHigh Polarity = iota
	// ActiveLow: logical active = physical low.
	ActiveLow
)

// Level translates a logical active/inactive state into the physical line
// level for this polarity.
func (p Polarity) Level(active bool) bool {
	if p == ActiveLow {
		return !active
	}
	return active
}

// Active translates a physical line level into the logical state for this
// polarity.
func (p Polarity) Active(level bool) bool {
	if p == ActiveLow {
		return !level
	}
	return level
}

func (p Polarity) String() string {
	switch p {
	case ActiveHigh:
		return "active-high"
	case ActiveLow:
		return "active-low"
	default:
		return "unknown"
	}
}
