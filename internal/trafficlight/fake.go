package trafficlight

// Command records a single indicator call for test assertions.
type Command struct {
	// Op is one of "on", "off", "all-off", "self-test".
	Op    string
	Light Light
}

// Fake is a TrafficLight test double that records every command.
type Fake struct {
	// Commands contains every call, in order.
	Commands []Command

	// States tracks the current state of each light.
	States map[Light]LightState

	// CommandError, if set, will be returned by the drive methods.
	CommandError error

	// SelfTestError, if set, will be returned by SelfTest.
	SelfTestError error

	// SelfTests counts SelfTest calls.
	SelfTests int
}

// NewFake creates a Fake with all lights off.
func NewFake() *Fake {
	return &Fake{States: map[Light]LightState{Red: Off, Yellow: Off, Green: Off}}
}

// TurnOn records the command and lights only the selected light.
func (f *Fake) TurnOn(light Light) error {
	if f.CommandError != nil {
		return f.CommandError
	}
	f.Commands = append(f.Commands, Command{Op: "on", Light: light})
	for _, l := range Lights {
		f.States[l] = Off
	}
	f.States[light] = On
	return nil
}

// TurnOff records the command and extinguishes the selected light.
func (f *Fake) TurnOff(light Light) error {
	if f.CommandError != nil {
		return f.CommandError
	}
	f.Commands = append(f.Commands, Command{Op: "off", Light: light})
	f.States[light] = Off
	return nil
}

// SetState dispatches to TurnOn or TurnOff.
func (f *Fake) SetState(light Light, state LightState) error {
	if state == On {
		return f.TurnOn(light)
	}
	return f.TurnOff(light)
}

// GetState returns the tracked state.
func (f *Fake) GetState(light Light) (LightState, error) {
	if f.CommandError != nil {
		return Off, f.CommandError
	}
	return f.States[light], nil
}

// SetAllLightsOff records the command and extinguishes everything.
func (f *Fake) SetAllLightsOff() error {
	if f.CommandError != nil {
		return f.CommandError
	}
	f.Commands = append(f.Commands, Command{Op: "all-off"})
	for _, l := range Lights {
		f.States[l] = Off
	}
	return nil
}

// SelfTest records the command.
func (f *Fake) SelfTest() error {
	f.SelfTests++
	f.Commands = append(f.Commands, Command{Op: "self-test"})
	return f.SelfTestError
}

// Lit returns the light currently on, or -1 if all are off.
func (f *Fake) Lit() Light {
	for _, l := range Lights {
		if f.States[l] == On {
			return l
		}
	}
	return -1
}

// LastCommand returns the most recent command, or a zero Command if none.
func (f *Fake) LastCommand() Command {
	if len(f.Commands) == 0 {
		return Command{}
	}
	return f.Commands[len(f.Commands)-1]
}

// Reset clears recorded commands and states.
func (f *Fake) Reset() {
	f.Commands = nil
	f.SelfTests = 0
	f.CommandError = nil
	f.SelfTestError = nil
	for _, l := range Lights {
		f.States[l] = Off
	}
}
