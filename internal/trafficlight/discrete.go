package trafficlight

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/garagist/parking-guide/internal/device"
	"github.com/garagist/parking-guide/internal/gpio"
)

// Config is the wiring for a discrete-LED indicator.
type Config struct {
	// Name is a symbolic name for the indicator.
	Name string
	// RedLine, YellowLine, GreenLine are the chip offsets of the three
	// output lines.
	RedLine    int
	YellowLine int
	GreenLine  int
	// Polarity applies to all three lines.
	Polarity device.Polarity
	// SelfTestDwell is how long each light stays lit during SelfTest.
	// Zero means DefaultSelfTestDwell.
	SelfTestDwell time.Duration
}

// Discrete drives three LEDs over GPIO output lines.
type Discrete struct {
	chip   gpio.Chip
	logger *slog.Logger
	sleep  func(time.Duration)

	name     string
	polarity device.Polarity
	dwell    time.Duration
	lines    map[Light]gpio.Output
	initDone bool
}

// NewDiscrete creates a Discrete indicator on the given chip.
func NewDiscrete(chip gpio.Chip, logger *slog.Logger) *Discrete {
	if logger == nil {
		logger = slog.Default()
	}
	return &Discrete{
		chip:   chip,
		logger: logger,
		sleep:  time.Sleep,
	}
}

// SetSleep replaces the dwell sleep used by SelfTest. Intended for tests.
func (d *Discrete) SetSleep(sleep func(time.Duration)) {
	d.sleep = sleep
}

// Init claims the three output lines and turns every light off.
func (d *Discrete) Init(cfg Config) error {
	if d.initDone {
		return device.ErrBusy
	}
	if cfg.Name == "" {
		return fmt.Errorf("%w: empty indicator name", device.ErrBadParam)
	}
	if cfg.RedLine == cfg.YellowLine || cfg.RedLine == cfg.GreenLine || cfg.YellowLine == cfg.GreenLine {
		return fmt.Errorf("%w: indicator lines must be distinct (%d, %d, %d)",
			device.ErrBadParam, cfg.RedLine, cfg.YellowLine, cfg.GreenLine)
	}

	offsets := map[Light]int{Red: cfg.RedLine, Yellow: cfg.YellowLine, Green: cfg.GreenLine}
	lines := make(map[Light]gpio.Output, len(offsets))
	for _, light := range Lights {
		out, err := d.chip.RequestOutput(offsets[light], cfg.Polarity.Level(false))
		if err != nil {
			for _, claimed := range lines {
				claimed.Close()
			}
			return errors.Join(device.ErrDevice, err)
		}
		lines[light] = out
	}

	d.name = cfg.Name
	d.polarity = cfg.Polarity
	d.dwell = cfg.SelfTestDwell
	if d.dwell <= 0 {
		d.dwell = DefaultSelfTestDwell
	}
	d.lines = lines
	d.initDone = true
	return nil
}

// IsInitialized reports whether Init has succeeded.
func (d *Discrete) IsInitialized() bool {
	return d.initDone
}

// Deinit turns the lights off and releases the lines.
func (d *Discrete) Deinit() {
	if !d.initDone {
		return
	}
	if err := d.SetAllLightsOff(); err != nil {
		d.logger.Warn("lights off during deinit", "indicator", d.name, "err", err)
	}
	for light, line := range d.lines {
		if err := line.Close(); err != nil {
			d.logger.Warn("close light line", "indicator", d.name, "light", light, "err", err)
		}
	}
	d.name = ""
	d.lines = nil
	d.initDone = false
}

// TurnOn lights the selected light, extinguishing the other two.
func (d *Discrete) TurnOn(light Light) error {
	return d.SetState(light, On)
}

// TurnOff extinguishes the selected light.
func (d *Discrete) TurnOff(light Light) error {
	return d.SetState(light, Off)
}

// SetState turns a light on or off. Turning a light on extinguishes the
// others so a single color is ever showing.
func (d *Discrete) SetState(light Light, state LightState) error {
	if !d.initDone {
		return device.ErrNotReady
	}
	if _, ok := d.lines[light]; !ok {
		return fmt.Errorf("%w: light %d", device.ErrBadParam, light)
	}

	if state == Off {
		return d.driveLine(light, false)
	}
	for _, l := range Lights {
		if err := d.driveLine(l, l == light); err != nil {
			return err
		}
	}
	return nil
}

// GetState reads back whether the selected light is lit.
func (d *Discrete) GetState(light Light) (LightState, error) {
	if !d.initDone {
		return Off, device.ErrNotReady
	}
	line, ok := d.lines[light]
	if !ok {
		return Off, fmt.Errorf("%w: light %d", device.ErrBadParam, light)
	}
	level, err := line.Get()
	if err != nil {
		return Off, errors.Join(device.ErrDevice, err)
	}
	if d.polarity.Active(level) {
		return On, nil
	}
	return Off, nil
}

// SetAllLightsOff extinguishes every light.
func (d *Discrete) SetAllLightsOff() error {
	if !d.initDone {
		return device.ErrNotReady
	}
	for _, l := range Lights {
		if err := d.driveLine(l, false); err != nil {
			return err
		}
	}
	return nil
}

// SelfTest cycles red, yellow, green with the configured dwell each,
// reading each state back, then turns all lights off. It blocks for three
// dwell periods.
func (d *Discrete) SelfTest() error {
	if !d.initDone {
		return device.ErrNotReady
	}
	for _, light := range Lights {
		if err := d.TurnOn(light); err != nil {
			return err
		}
		state, err := d.GetState(light)
		if err != nil {
			return err
		}
		if state != On {
			return fmt.Errorf("%w: light %s did not come on", device.ErrDevice, light)
		}
		d.sleep(d.dwell)
	}
	return d.SetAllLightsOff()
}

func (d *Discrete) driveLine(light Light, active bool) error {
	if err := d.lines[light].Set(d.polarity.Level(active)); err != nil {
		return errors.Join(device.ErrDevice, err)
	}
	return nil
}
