//go:build linux

package gpio

import (
	"fmt"

	"github.com/warthog618/go-gpiocdev"
)

// RealChip requests lines from an actual GPIO controller using the Linux
// GPIO character device.
type RealChip struct {
	chip *gpiocdev.Chip
}

// NewRealChip opens the named GPIO chip (e.g. "gpiochip0").
func NewRealChip(name string) (*RealChip, error) {
	chip, err := gpiocdev.NewChip(name)
	if err != nil {
		return nil, fmt.Errorf("open gpio chip %s: %w", name, err)
	}
	return &RealChip{chip: chip}, nil
}

// RequestInput requests the line at offset as an input.
// Lines are pulled down to match Pi boot defaults so a disconnected sensor
// reads low rather than floating.
func (c *RealChip) RequestInput(offset int) (Input, error) {
	line, err := c.chip.RequestLine(offset, gpiocdev.AsInput, gpiocdev.WithPullDown)
	if err != nil {
		return nil, fmt.Errorf("request input line %d: %w", offset, err)
	}
	return &realInput{line: line}, nil
}

// RequestOutput requests the line at offset as an output driven to initial.
func (c *RealChip) RequestOutput(offset int, initial bool) (Output, error) {
	line, err := c.chip.RequestLine(offset, gpiocdev.AsOutput(levelValue(initial)))
	if err != nil {
		return nil, fmt.Errorf("request output line %d: %w", offset, err)
	}
	return &realOutput{line: line}, nil
}

// Close releases the chip. Lines requested from it must be closed first.
func (c *RealChip) Close() error {
	if err := c.chip.Close(); err != nil {
		return fmt.Errorf("close chip: %w", err)
	}
	return nil
}

type realInput struct {
	line *gpiocdev.Line
}

func (i *realInput) Get() (bool, error) {
	v, err := i.line.Value()
	if err != nil {
		return false, fmt.Errorf("read line: %w", err)
	}
	return v != 0, nil
}

// Close reconfigures the line to input with pull-down (the Pi boot default)
// before releasing it, so external hardware sees a quiet line afterwards.
func (i *realInput) Close() error {
	if err := i.line.Reconfigure(gpiocdev.AsInput); err != nil {
		i.line.Close()
		return fmt.Errorf("reconfigure line: %w", err)
	}
	return i.line.Close()
}

type realOutput struct {
	line *gpiocdev.Line
}

func (o *realOutput) Get() (bool, error) {
	v, err := o.line.Value()
	if err != nil {
		return false, fmt.Errorf("read line: %w", err)
	}
	return v != 0, nil
}

func (o *realOutput) Set(value bool) error {
	if err := o.line.SetValue(levelValue(value)); err != nil {
		return fmt.Errorf("set line: %w", err)
	}
	return nil
}

// Close returns the line to a high-impedance input before releasing it.
func (o *realOutput) Close() error {
	if err := o.line.Reconfigure(gpiocdev.AsInput); err != nil {
		o.line.Close()
		return fmt.Errorf("reconfigure line: %w", err)
	}
	return o.line.Close()
}

func levelValue(high bool) int {
	if high {
		return 1
	}
	return 0
}
