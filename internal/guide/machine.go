package guide

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/garagist/parking-guide/internal/device"
	"github.com/garagist/parking-guide/internal/rangefinder"
	"github.com/garagist/parking-guide/internal/trafficlight"
)

// restartDelay is how long the machine waits before a cold restart after a
// device error, giving the hardware a moment to settle.
const restartDelay = time.Second

// Config wires a Machine to its collaborators.
type Config struct {
	// Sensor supplies distance samples.
	Sensor rangefinder.Sensor
	// Light receives indicator commands.
	Light trafficlight.TrafficLight
	// Thresholds configures classification.
	Thresholds Thresholds
	// AmbientTemp is the temperature passed to measurements, in
	// deci-degrees Celsius. Zero means the sensor default.
	AmbientTemp int
	// Logger receives per-tick diagnostics. Nil means slog.Default.
	Logger *slog.Logger

	// Restart performs a cold process restart. Called after a device
	// error. Nil means log and exit non-zero, leaving the supervisor to
	// bring the process back.
	Restart func()
	// Sleep delays before Restart runs. Nil means time.Sleep.
	Sleep func(time.Duration)
	// Fatal halts the process with a diagnostic. Called on sequencing
	// errors that recovery cannot fix. Nil means log and exit non-zero.
	Fatal func(msg string, args ...any)
}

// Machine is the motion classifier. It owns its state exclusively: only
// Update mutates it, and Update is never called concurrently.
type Machine struct {
	sensor      rangefinder.Sensor
	light       trafficlight.TrafficLight
	thresholds  Thresholds
	ambientTemp int
	logger      *slog.Logger
	restart     func()
	sleep       func(time.Duration)
	fatal       func(msg string, args ...any)

	initDone      bool
	phase         Phase
	prevPhase     Phase
	prevDistance  int
	prevTime      time.Time
	lastDistance  int
	lastDirection Direction
	lastBand      Band
	counters      Counters
}

// New creates a Machine. The sensor and light must be non-nil and the
// thresholds consistent (device.ErrBadParam otherwise).
func New(cfg Config) (*Machine, error) {
	if cfg.Sensor == nil || cfg.Light == nil {
		return nil, fmt.Errorf("%w: machine needs a sensor and a light", device.ErrBadParam)
	}
	if err := cfg.Thresholds.validate(); err != nil {
		return nil, err
	}

	m := &Machine{
		sensor:      cfg.Sensor,
		light:       cfg.Light,
		thresholds:  cfg.Thresholds,
		ambientTemp: cfg.AmbientTemp,
		logger:      cfg.Logger,
		restart:     cfg.Restart,
		sleep:       cfg.Sleep,
		fatal:       cfg.Fatal,
		phase:       PhaseInvalid,
		prevPhase:   PhaseInvalid,
	}
	if m.ambientTemp == 0 {
		m.ambientTemp = rangefinder.DefaultAmbientTemperature
	}
	if m.logger == nil {
		m.logger = slog.Default()
	}
	if m.sleep == nil {
		m.sleep = time.Sleep
	}
	if m.fatal == nil {
		m.fatal = func(msg string, args ...any) {
			m.logger.Error(msg, args...)
			os.Exit(1)
		}
	}
	if m.restart == nil {
		m.restart = func() {
			m.logger.Error("no restart hook configured, exiting for supervisor restart")
			os.Exit(1)
		}
	}
	return m, nil
}

// Init arms the machine. The first Update after Init runs the indicator
// self-test.
func (m *Machine) Init() error {
	if m.initDone {
		return device.ErrBusy
	}
	m.phase = PhaseInitializing
	m.prevPhase = PhaseInvalid
	m.prevDistance = DistanceUnknown
	m.prevTime = time.Time{}
	m.lastDistance = DistanceUnknown
	m.initDone = true
	return nil
}

// Phase returns the current phase.
func (m *Machine) Phase() Phase { return m.phase }

// PreviousPhase returns the phase before the last transition.
func (m *Machine) PreviousPhase() Phase { return m.prevPhase }

// LastDistanceMm returns the distance used on the last tick
// (DistanceUnknown when the subject was out of range).
func (m *Machine) LastDistanceMm() int { return m.lastDistance }

// LastDirection returns the direction classified on the last tick.
func (m *Machine) LastDirection() Direction { return m.lastDirection }

// LastBand returns the band of the last sample.
func (m *Machine) LastBand() Band { return m.lastBand }

// Counters returns a copy of the tick statistics.
func (m *Machine) Counters() Counters { return m.counters }

// Update runs one tick: measure, classify direction, transition, command
// the indicator. It must be called periodically from a single goroutine.
func (m *Machine) Update(now time.Time) {
	if !m.initDone {
		m.fatal("state machine updated before Init")
		return
	}

	distance := m.measureDistance()

	deltaT := now.Sub(m.prevTime)
	deltaD := distance - m.prevDistance
	direction := m.thresholds.DirectionFor(deltaT, deltaD)

	m.logger.Debug("tick",
		"phase", m.phase,
		"distance_mm", distance,
		"delta_t", deltaT,
		"delta_d_mm", deltaD,
		"direction", direction)

	// Previous distance updates unconditionally, before transition logic.
	// On the very first tick it replaces the unknown sentinel, so that
	// tick trivially classifies as movement.
	m.prevDistance = distance
	m.counters.Ticks++
	m.lastDistance = distance
	m.lastDirection = direction
	m.lastBand = m.thresholds.BandFor(distance)

	next := m.phase

	switch m.phase {
	case PhaseInitializing:
		m.prevTime = now
		next = PhaseIdle
		if err := m.testLights(); err != nil {
			next = PhaseError
		}

	case PhaseIdle:
		m.prevTime = now
		switch direction {
		case Stopped:
			m.allLightsOff()
		case Backward:
			next = PhaseRetreating
		case Forward:
			next = PhaseApproaching
		}

	case PhaseApproaching, PhaseRetreating:
		if err := m.setLights(distance); err != nil {
			next = PhaseError
			break
		}
		switch direction {
		case Stopped:
			if deltaT > m.thresholds.HoldingTime {
				m.allLightsOff()
				next = PhaseIdle
			}
		case Backward:
			m.prevTime = now
			next = PhaseRetreating
		case Forward:
			m.prevTime = now
			next = PhaseApproaching
		}

	case PhaseInvalid:
		next = PhaseError

	case PhaseError:
		m.fatal("error phase re-entered",
			"previous_phase", m.prevPhase,
			"distance_mm", distance,
			"direction", direction)
		return

	default:
		next = PhaseError
	}

	if next == PhaseApproaching && m.phase != PhaseApproaching {
		m.counters.Approaches++
	}
	if next == PhaseRetreating && m.phase != PhaseRetreating {
		m.counters.Retreats++
	}
	if next != m.phase {
		m.logger.Info("phase transition", "from", m.phase, "to", next, "distance_mm", distance)
	}

	m.prevPhase = m.phase
	m.phase = next
}

// measureDistance samples the sensor and applies the error policy: timeout
// reads as out-of-range, a device error restarts the process after a short
// delay, a sequencing error halts.
func (m *Machine) measureDistance() int {
	distance, err := m.sensor.MeasureDistanceAt(m.ambientTemp)
	switch {
	case err == nil:
		return distance

	case errors.Is(err, device.ErrTimeout):
		// Nothing in range. Report the sentinel so band mapping turns
		// the lights off.
		m.counters.Timeouts++
		m.logger.Debug("measurement timeout, subject out of range")
		return DistanceUnknown

	case errors.Is(err, device.ErrDevice):
		m.counters.DeviceErrors++
		m.logger.Error("sensor device error, restarting", "err", err)
		m.sleep(restartDelay)
		m.restart()
		return DistanceUnknown

	case errors.Is(err, device.ErrNotReady):
		// Init was not called before the run loop started.
		m.fatal("sensor not initialized before update loop", "err", err)
		return DistanceUnknown

	default:
		m.fatal("unexpected measurement result", "err", err)
		return DistanceUnknown
	}
}

// testLights runs the indicator self-test once, during initialization.
func (m *Machine) testLights() error {
	m.logger.Info("testing lights")
	if err := m.light.SelfTest(); err != nil {
		m.logger.Error("lights test failed", "err", err)
		return err
	}
	m.logger.Info("lights test completed")
	return nil
}

// setLights maps the sample's band to an indicator command.
func (m *Machine) setLights(distanceMm int) error {
	switch m.thresholds.BandFor(distanceMm) {
	case BandOut:
		return m.light.SetAllLightsOff()
	case BandFar:
		return m.light.TurnOn(trafficlight.Green)
	case BandMedium:
		return m.light.TurnOn(trafficlight.Yellow)
	default:
		return m.light.TurnOn(trafficlight.Red)
	}
}

func (m *Machine) allLightsOff() {
	if err := m.light.SetAllLightsOff(); err != nil {
		m.logger.Warn("all lights off", "err", err)
	}
}
