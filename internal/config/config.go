// Package config loads the wiring and threshold configuration for the
// parking-guide daemon from a YAML file. Values not present in the file keep
// their defaults.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/garagist/parking-guide/internal/device"
	"github.com/garagist/parking-guide/internal/gpio"
	"github.com/garagist/parking-guide/internal/guide"
	"github.com/garagist/parking-guide/internal/rangefinder"
	"github.com/garagist/parking-guide/internal/trafficlight"
)

// Sensor describes the ultrasonic sensor wiring.
type Sensor struct {
	Name        string `yaml:"name"`
	TriggerLine int    `yaml:"trigger_line"`
	EchoLine    int    `yaml:"echo_line"`
}

// Indicator describes the traffic light wiring.
type Indicator struct {
	Name            string `yaml:"name"`
	RedLine         int    `yaml:"red_line"`
	YellowLine      int    `yaml:"yellow_line"`
	GreenLine       int    `yaml:"green_line"`
	Polarity        string `yaml:"polarity"` // "active-high" or "active-low"
	SelfTestDwellMs int    `yaml:"self_test_dwell_ms"`
}

// Thresholds describes the motion classification thresholds.
type Thresholds struct {
	MaxDistanceMm    int `yaml:"max_distance_mm"`
	FarMm            int `yaml:"far_mm"`
	NearMm           int `yaml:"near_mm"`
	MovingDistanceMm int `yaml:"moving_distance_mm"`
	MovingTimeMs     int `yaml:"moving_time_ms"`
	HoldingTimeMs    int `yaml:"holding_time_ms"`
}

// Config is the full daemon configuration.
type Config struct {
	Chip             string     `yaml:"chip"`
	Sensor           Sensor     `yaml:"sensor"`
	Indicator        Indicator  `yaml:"indicator"`
	Thresholds       Thresholds `yaml:"thresholds"`
	AmbientTempDeciC int        `yaml:"ambient_temperature_decic"`
}

// Default returns the configuration used when no file overrides it.
func Default() Config {
	return Config{
		Chip: "gpiochip0",
		Sensor: Sensor{
			Name:        "front-ranger",
			TriggerLine: gpio.DefaultTriggerLine,
			EchoLine:    gpio.DefaultEchoLine,
		},
		Indicator: Indicator{
			Name:            "guide-light",
			RedLine:         gpio.DefaultRedLine,
			YellowLine:      gpio.DefaultYellowLine,
			GreenLine:       gpio.DefaultGreenLine,
			Polarity:        "active-high",
			SelfTestDwellMs: 500,
		},
		Thresholds: Thresholds{
			MaxDistanceMm:    3000,
			FarMm:            1500,
			NearMm:           250,
			MovingDistanceMm: 50,
			MovingTimeMs:     100,
			HoldingTimeMs:    2000,
		},
		AmbientTempDeciC: rangefinder.DefaultAmbientTemperature,
	}
}

// Load reads a YAML file over the defaults. An empty path returns the
// defaults unchanged.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, cfg.Validate()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the parts the domain constructors do not: names, the
// polarity spelling, and the threshold ordering.
func (c Config) Validate() error {
	if c.Chip == "" {
		return fmt.Errorf("%w: empty chip name", device.ErrBadParam)
	}
	if c.Sensor.Name == "" {
		return fmt.Errorf("%w: empty sensor name", device.ErrBadParam)
	}
	if c.Indicator.Name == "" {
		return fmt.Errorf("%w: empty indicator name", device.ErrBadParam)
	}
	if _, err := c.IndicatorPolarity(); err != nil {
		return err
	}
	t := c.Thresholds
	if !(0 < t.NearMm && t.NearMm < t.FarMm && t.FarMm < t.MaxDistanceMm) {
		return fmt.Errorf("%w: thresholds must satisfy 0 < near(%d) < far(%d) < max(%d)",
			device.ErrBadParam, t.NearMm, t.FarMm, t.MaxDistanceMm)
	}
	if t.MovingDistanceMm <= 0 || t.MovingTimeMs <= 0 || t.HoldingTimeMs <= 0 {
		return fmt.Errorf("%w: movement thresholds must be positive", device.ErrBadParam)
	}
	return nil
}

// IndicatorPolarity parses the indicator polarity field.
func (c Config) IndicatorPolarity() (device.Polarity, error) {
	switch c.Indicator.Polarity {
	case "", "active-high":
		return device.ActiveHigh, nil
	case "active-low":
		return device.ActiveLow, nil
	default:
		return device.ActiveHigh, fmt.Errorf("%w: polarity %q (want active-high or active-low)",
			device.ErrBadParam, c.Indicator.Polarity)
	}
}

// SensorConfig converts to the rangefinder wiring.
func (c Config) SensorConfig() rangefinder.Config {
	return rangefinder.Config{
		Name:        c.Sensor.Name,
		TriggerLine: c.Sensor.TriggerLine,
		EchoLine:    c.Sensor.EchoLine,
	}
}

// IndicatorConfig converts to the trafficlight wiring.
func (c Config) IndicatorConfig() (trafficlight.Config, error) {
	polarity, err := c.IndicatorPolarity()
	if err != nil {
		return trafficlight.Config{}, err
	}
	return trafficlight.Config{
		Name:          c.Indicator.Name,
		RedLine:       c.Indicator.RedLine,
		YellowLine:    c.Indicator.YellowLine,
		GreenLine:     c.Indicator.GreenLine,
		Polarity:      polarity,
		SelfTestDwell: time.Duration(c.Indicator.SelfTestDwellMs) * time.Millisecond,
	}, nil
}

// GuideThresholds converts to the classifier thresholds.
func (c Config) GuideThresholds() guide.Thresholds {
	return guide.Thresholds{
		MaxDistanceMm:    c.Thresholds.MaxDistanceMm,
		FarMm:            c.Thresholds.FarMm,
		NearMm:           c.Thresholds.NearMm,
		MovingDistanceMm: c.Thresholds.MovingDistanceMm,
		MovingTime:       time.Duration(c.Thresholds.MovingTimeMs) * time.Millisecond,
		HoldingTime:      time.Duration(c.Thresholds.HoldingTimeMs) * time.Millisecond,
	}
}
