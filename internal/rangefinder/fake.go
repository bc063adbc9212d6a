package rangefinder

import (
	"fmt"

	"github.com/garagist/parking-guide/internal/device"
)

// Reading is a single scripted measurement outcome.
type Reading struct {
	DistanceMm int
	Err        error
}

// FakeSensor returns scripted readings for tests and simulation.
type FakeSensor struct {
	// Readings contains the scripted outcomes. Each measurement consumes
	// the next reading; once exhausted, the last reading repeats.
	Readings []Reading

	// InitError, if set, will be returned by Init.
	InitError error

	// Measurements counts measurement calls.
	Measurements int

	// LastAmbientTemp records the temperature of the last measurement.
	LastAmbientTemp int

	name     string
	initDone bool
	index    int
}

// NewFakeSensor creates a FakeSensor with the given readings.
func NewFakeSensor(readings ...Reading) *FakeSensor {
	return &FakeSensor{Readings: readings}
}

// Distances is a convenience constructor scripting successful readings only.
func Distances(mm ...int) *FakeSensor {
	readings := make([]Reading, len(mm))
	for i, d := range mm {
		readings[i] = Reading{DistanceMm: d}
	}
	return NewFakeSensor(readings...)
}

// Init follows the real sensor's contract: Busy when already initialized,
// BadParam on an empty name.
func (f *FakeSensor) Init(cfg Config) error {
	if f.InitError != nil {
		return f.InitError
	}
	if f.initDone {
		return device.ErrBusy
	}
	if cfg.Name == "" {
		return fmt.Errorf("%w: empty sensor name", device.ErrBadParam)
	}
	f.name = cfg.Name
	f.initDone = true
	return nil
}

// IsInitialized reports whether Init has succeeded.
func (f *FakeSensor) IsInitialized() bool {
	return f.initDone
}

// Deinit clears the initialized flag.
func (f *FakeSensor) Deinit() {
	f.name = ""
	f.initDone = false
}

// MeasureDistance measures at the default ambient temperature.
func (f *FakeSensor) MeasureDistance() (int, error) {
	return f.MeasureDistanceAt(DefaultAmbientTemperature)
}

// MeasureDistanceAt returns the next scripted reading.
func (f *FakeSensor) MeasureDistanceAt(ambientTemp int) (int, error) {
	if !f.initDone {
		return 0, device.ErrNotReady
	}
	f.Measurements++
	f.LastAmbientTemp = ambientTemp

	if len(f.Readings) == 0 {
		return 0, device.ErrTimeout
	}
	r := f.Readings[f.index]
	if f.index < len(f.Readings)-1 {
		f.index++
	}
	return r.DistanceMm, r.Err
}

// Reset rewinds the script and counters. The initialized flag is kept.
func (f *FakeSensor) Reset() {
	f.index = 0
	f.Measurements = 0
	f.LastAmbientTemp = 0
}
