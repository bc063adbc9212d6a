// Package trafficlight drives a three-light indicator (red, yellow, green).
// The discrete implementation uses one GPIO output line per light; the fake
// records commands for tests.
package trafficlight

import "time"

// Light selects one of the three lights.
type Light int

const (
	Red Light = iota
	Yellow
	Green
)

func (l Light) String() string {
	switch l {
	case Red:
		return "red"
	case Yellow:
		return "yellow"
	case Green:
		return "green"
	default:
		return "unknown"
	}
}

// Lights lists all lights in self-test order.
var Lights = []Light{Red, Yellow, Green}

// LightState is the on/off state of a single light.
type LightState int

const (
	Off LightState = iota
	On
)

func (s LightState) String() string {
	if s == On {
		return "on"
	}
	return "off"
}

// DefaultSelfTestDwell is how long each light stays lit during a self-test.
const DefaultSelfTestDwell = 500 * time.Millisecond

// TrafficLight is the indicator capability consumed by the guide state
// machine. Only one light is ever on at a time: TurnOn extinguishes the
// other two.
type TrafficLight interface {
	// TurnOn lights the selected light and turns the others off.
	TurnOn(light Light) error

	// TurnOff extinguishes the selected light.
	TurnOff(light Light) error

	// SetState turns the selected light on or off. Turning a light on
	// extinguishes the others.
	SetState(light Light, state LightState) error

	// GetState reads back the state of the selected light.
	GetState(light Light) (LightState, error)

	// SetAllLightsOff extinguishes every light.
	SetAllLightsOff() error

	// SelfTest cycles each light once with a fixed dwell, then turns all
	// lights off.
	SelfTest() error
}
