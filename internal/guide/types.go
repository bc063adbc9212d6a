// Package guide contains the motion-classification state machine that turns
// successive distance samples into traffic light commands. The logic here
// never sleeps and never reads the clock; time arrives as explicit values so
// tests can drive it deterministically.
package guide

import (
	"fmt"
	"math"
	"time"

	"github.com/garagist/parking-guide/internal/device"
)

// DistanceUnknown is the sentinel distance recorded before the first sample
// and whenever the sensor times out (subject out of range).
const DistanceUnknown = math.MaxInt32

// Phase is a state of the machine.
type Phase int

const (
	PhaseInvalid Phase = iota
	PhaseInitializing
	PhaseIdle
	PhaseError
	PhaseApproaching
	PhaseRetreating
)

func (p Phase) String() string {
	switch p {
	case PhaseInvalid:
		return "invalid"
	case PhaseInitializing:
		return "initializing"
	case PhaseIdle:
		return "idle"
	case PhaseError:
		return "error"
	case PhaseApproaching:
		return "approaching"
	case PhaseRetreating:
		return "retreating"
	default:
		return "unknown"
	}
}

// Direction classifies the subject's movement between two samples.
type Direction int

const (
	Stopped Direction = iota
	// Forward: the distance shrank, the subject is approaching.
	Forward
	// Backward: the distance grew, the subject is retreating.
	Backward
)

func (d Direction) String() string {
	switch d {
	case Stopped:
		return "stopped"
	case Forward:
		return "forward"
	case Backward:
		return "backward"
	default:
		return "unknown"
	}
}

// Band is the distance range a sample falls in, each mapped to one indicator
// color or off.
type Band int

const (
	// BandOut: beyond the maximum threshold, all lights off.
	BandOut Band = iota
	// BandFar: green.
	BandFar
	// BandMedium: yellow.
	BandMedium
	// BandNear: red.
	BandNear
)

func (b Band) String() string {
	switch b {
	case BandOut:
		return "out-of-range"
	case BandFar:
		return "far"
	case BandMedium:
		return "medium"
	case BandNear:
		return "near"
	default:
		return "unknown"
	}
}

// Thresholds configures the classifier. Immutable once the machine is
// created.
type Thresholds struct {
	// MaxDistanceMm: beyond this the subject is out of range.
	MaxDistanceMm int
	// FarMm: above this (and within max) the subject is far.
	FarMm int
	// NearMm: at or below this the subject is near.
	NearMm int
	// MovingDistanceMm is the minimum distance delta that counts as
	// genuine motion rather than sensor noise.
	MovingDistanceMm int
	// MovingTime is the minimum time delta before motion is classified.
	MovingTime time.Duration
	// HoldingTime is how long the subject must hold still before a moving
	// phase reverts to idle.
	HoldingTime time.Duration
}

func (t Thresholds) validate() error {
	if t.NearMm <= 0 || t.NearMm >= t.FarMm || t.FarMm >= t.MaxDistanceMm {
		return fmt.Errorf("%w: distance thresholds must satisfy 0 < near(%d) < far(%d) < max(%d)",
			device.ErrBadParam, t.NearMm, t.FarMm, t.MaxDistanceMm)
	}
	if t.MovingDistanceMm <= 0 {
		return fmt.Errorf("%w: moving distance threshold %dmm", device.ErrBadParam, t.MovingDistanceMm)
	}
	if t.MovingTime <= 0 || t.HoldingTime <= 0 {
		return fmt.Errorf("%w: moving time %v, holding time %v", device.ErrBadParam, t.MovingTime, t.HoldingTime)
	}
	return nil
}

// BandFor maps a distance to its band. Evaluated top-down, first match wins;
// a distance exactly at a threshold falls in the lower band.
func (t Thresholds) BandFor(distanceMm int) Band {
	switch {
	case distanceMm > t.MaxDistanceMm:
		return BandOut
	case distanceMm > t.FarMm:
		return BandFar
	case distanceMm > t.NearMm:
		return BandMedium
	default:
		return BandNear
	}
}

// DirectionFor classifies movement from the deltas between two consecutive
// samples. Pure: identical inputs always yield identical outputs.
func (t Thresholds) DirectionFor(deltaT time.Duration, deltaDMm int) Direction {
	if deltaT <= t.MovingTime {
		return Stopped
	}
	if abs(deltaDMm) <= t.MovingDistanceMm {
		return Stopped
	}
	if deltaDMm > 0 {
		return Backward
	}
	return Forward
}

// Counters accumulates per-process tick statistics.
type Counters struct {
	Ticks        int
	Timeouts     int
	DeviceErrors int
	Approaches   int
	Retreats     int
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
