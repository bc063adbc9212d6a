package rangefinder

import (
	"log/slog"

	"github.com/garagist/parking-guide/internal/device"
	"github.com/garagist/parking-guide/internal/gpio"
)

// HC-SR04 module parameters, from the datasheet.
const (
	hcsr04MinTriggerPulseUs = 10
	hcsr04MinDistanceMm     = 20
	hcsr04MaxDistanceMm     = 4000
)

// HCSR04Calibration returns the calibration for an HC-SR04 ultrasonic
// ranging module: 10us trigger pulse, 20mm..4000mm range, active-high
// trigger and echo.
func HCSR04Calibration() Calibration {
	return Calibration{
		MinTriggerPulseUs: hcsr04MinTriggerPulseUs,
		MinDistanceMm:     hcsr04MinDistanceMm,
		MaxDistanceMm:     hcsr04MaxDistanceMm,
		TriggerPolarity:   device.ActiveHigh,
		EchoPolarity:      device.ActiveHigh,
	}
}

// NewHCSR04 creates a Meter calibrated for an HC-SR04 module.
func NewHCSR04(chip gpio.Chip, logger *slog.Logger) (*Meter, error) {
	return NewMeter(chip, HCSR04Calibration(), logger)
}
