// Package rangefinder measures distance with a pulse-timed ultrasonic sensor.
// A measurement drives a trigger line, then times how long the echo line
// stays active; the elapsed time converts to millimeters through a
// temperature-compensated speed-of-sound model.
package rangefinder

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/garagist/parking-guide/internal/device"
	"github.com/garagist/parking-guide/internal/gpio"
)

// DefaultAmbientTemperature is assumed when no temperature is supplied,
// in deci-degrees Celsius (200 = 20.0 degrees).
const DefaultAmbientTemperature = 200

// Config is the wiring for a sensor.
type Config struct {
	// Name is a symbolic name for the sensor.
	Name string
	// TriggerLine is the chip offset of the trigger output.
	TriggerLine int
	// EchoLine is the chip offset of the echo input.
	EchoLine int
}

// Sensor is the distance measurement capability consumed by the guide state
// machine. Errors are the sentinels from internal/device.
type Sensor interface {
	// Init claims the trigger and echo lines. Returns device.ErrBusy if
	// already initialized, device.ErrBadParam on invalid wiring.
	Init(cfg Config) error

	// IsInitialized reports whether Init has succeeded.
	IsInitialized() bool

	// Deinit releases the lines.
	Deinit()

	// MeasureDistance measures at the default ambient temperature.
	MeasureDistance() (int, error)

	// MeasureDistanceAt measures at the given ambient temperature in
	// deci-degrees Celsius. Returns the distance in millimeters, or
	// device.ErrTimeout when no echo arrived within the window sized for
	// the calibrated maximum distance.
	MeasureDistanceAt(ambientTemp int) (int, error)
}

// Calibration holds the immutable timing and range parameters of a sensor
// model.
type Calibration struct {
	// MinTriggerPulseUs is the minimum trigger pulse duration in
	// microseconds.
	MinTriggerPulseUs int64
	// MinDistanceMm is the minimum detectable distance.
	MinDistanceMm int
	// MaxDistanceMm is the maximum detectable distance. It sizes the echo
	// wait window.
	MaxDistanceMm int
	// TriggerPolarity maps logical trigger active to a physical level.
	TriggerPolarity device.Polarity
	// EchoPolarity maps the physical echo level to logical active.
	EchoPolarity device.Polarity
}

func (c Calibration) validate() error {
	if c.MinTriggerPulseUs <= 0 {
		return fmt.Errorf("%w: trigger pulse duration %dus", device.ErrBadParam, c.MinTriggerPulseUs)
	}
	if c.MinDistanceMm >= c.MaxDistanceMm {
		return fmt.Errorf("%w: distance range %d..%dmm", device.ErrBadParam, c.MinDistanceMm, c.MaxDistanceMm)
	}
	return nil
}

// Meter is a Sensor implementation that busy-polls two binary lines.
// A measurement blocks the calling goroutine for up to roughly twice the
// round-trip time of the calibrated maximum distance.
type Meter struct {
	chip   gpio.Chip
	cal    Calibration
	timer  Timer
	logger *slog.Logger

	name     string
	trigger  gpio.Output
	echo     gpio.Input
	initDone bool
}

// NewMeter creates a Meter for the given chip and calibration.
// Returns device.ErrBadParam if the calibration is inconsistent.
func NewMeter(chip gpio.Chip, cal Calibration, logger *slog.Logger) (*Meter, error) {
	if err := cal.validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Meter{
		chip:   chip,
		cal:    cal,
		timer:  NewRealTimer(),
		logger: logger,
	}, nil
}

// SetTimer replaces the microsecond clock. Intended for tests.
func (m *Meter) SetTimer(t Timer) {
	m.timer = t
}

// Calibration returns the meter's calibration parameters.
func (m *Meter) Calibration() Calibration {
	return m.cal
}

// Init claims the trigger and echo lines described by cfg.
func (m *Meter) Init(cfg Config) error {
	if m.initDone {
		return device.ErrBusy
	}
	if cfg.Name == "" {
		return fmt.Errorf("%w: empty sensor name", device.ErrBadParam)
	}
	if cfg.TriggerLine < 0 || cfg.EchoLine < 0 || cfg.TriggerLine == cfg.EchoLine {
		return fmt.Errorf("%w: trigger line %d, echo line %d", device.ErrBadParam, cfg.TriggerLine, cfg.EchoLine)
	}

	trigger, err := m.chip.RequestOutput(cfg.TriggerLine, m.cal.TriggerPolarity.Level(false))
	if err != nil {
		return errors.Join(device.ErrDevice, err)
	}
	echo, err := m.chip.RequestInput(cfg.EchoLine)
	if err != nil {
		trigger.Close()
		return errors.Join(device.ErrDevice, err)
	}

	m.name = cfg.Name
	m.trigger = trigger
	m.echo = echo
	m.initDone = true
	return nil
}

// IsInitialized reports whether the meter holds its lines.
func (m *Meter) IsInitialized() bool {
	return m.initDone
}

// Deinit releases the lines and clears the initialized flag.
func (m *Meter) Deinit() {
	if !m.initDone {
		return
	}
	if err := m.trigger.Close(); err != nil {
		m.logger.Warn("close trigger line", "sensor", m.name, "err", err)
	}
	if err := m.echo.Close(); err != nil {
		m.logger.Warn("close echo line", "sensor", m.name, "err", err)
	}
	m.name = ""
	m.trigger = nil
	m.echo = nil
	m.initDone = false
}

// MeasureDistance measures at the default ambient temperature.
func (m *Meter) MeasureDistance() (int, error) {
	return m.MeasureDistanceAt(DefaultAmbientTemperature)
}

// MeasureDistanceAt triggers a measurement and times the echo pulse.
func (m *Meter) MeasureDistanceAt(ambientTemp int) (int, error) {
	if !m.initDone {
		return 0, device.ErrNotReady
	}

	if err := m.triggerMeasurement(); err != nil {
		return 0, err
	}
	return m.readDistance(ambientTemp)
}

// triggerMeasurement drives the trigger pulse: a settle gap, the minimum
// pulse duration active, then another settle gap.
func (m *Meter) triggerMeasurement() error {
	if err := m.setTrigger(false); err != nil {
		return err
	}
	m.timer.Delay(m.cal.MinTriggerPulseUs / 5)

	if err := m.setTrigger(true); err != nil {
		return err
	}
	m.timer.Delay(m.cal.MinTriggerPulseUs)

	if err := m.setTrigger(false); err != nil {
		return err
	}
	m.timer.Delay(m.cal.MinTriggerPulseUs / 5)
	return nil
}

// readDistance waits for the echo pulse and converts its duration.
// The wait window is derived from the calibrated maximum distance so a
// calibration change retunes the worst-case latency.
func (m *Meter) readDistance(ambientTemp int) (int, error) {
	maxWaitUs := DistanceToTime(ambientTemp, m.cal.MaxDistanceMm)
	m.logger.Debug("echo wait window", "sensor", m.name, "max_wait_us", maxWaitUs)

	active := false
	start := m.timer.NowMicros()
	end := start + maxWaitUs
	now := start

	// Rising edge of the echo pulse.
	for !active && now < end {
		a, err := m.echoActive()
		if err != nil {
			return 0, err
		}
		active = a
		now = m.timer.NowMicros()
	}

	// No rising edge: the sensor may be absent, broken, or there is
	// nothing in range. The cases are indistinguishable here.
	if !active {
		m.logger.Debug("timeout waiting for echo rising edge", "sensor", m.name)
		return 0, device.ErrTimeout
	}

	echoStartUs := m.timer.NowMicros()
	end = m.timer.NowMicros() + maxWaitUs

	// Falling edge of the echo pulse.
	for active && now < end {
		a, err := m.echoActive()
		if err != nil {
			return 0, err
		}
		active = a
		now = m.timer.NowMicros()
	}

	if active {
		m.logger.Debug("timeout waiting for echo falling edge", "sensor", m.name)
		return 0, device.ErrTimeout
	}

	pulseUs := now - echoStartUs
	distance := TimeToDistance(ambientTemp, pulseUs)
	m.logger.Debug("echo pulse timed", "sensor", m.name, "pulse_us", pulseUs, "distance_mm", distance)
	return distance, nil
}

func (m *Meter) setTrigger(active bool) error {
	if err := m.trigger.Set(m.cal.TriggerPolarity.Level(active)); err != nil {
		return errors.Join(device.ErrDevice, err)
	}
	return nil
}

func (m *Meter) echoActive() (bool, error) {
	level, err := m.echo.Get()
	if err != nil {
		return false, errors.Join(device.ErrDevice, err)
	}
	return m.cal.EchoPolarity.Active(level), nil
}
