package gpio

import (
	"errors"
	"fmt"
)

// FakeInput is a test double that returns scripted line levels.
type FakeInput struct {
	// Levels contains scripted raw levels. Each call to Get consumes the
	// next level; once exhausted, the last level repeats.
	Levels []bool

	// LevelFunc, if set, overrides Levels and computes the level per call.
	LevelFunc func() bool

	// GetError, if set, will be returned by Get.
	GetError error

	// Closed tracks if Close was called.
	Closed bool

	index int
}

// NewFakeInput creates a FakeInput with the given scripted levels.
func NewFakeInput(levels ...bool) *FakeInput {
	return &FakeInput{Levels: levels}
}

// Get returns the next scripted level.
func (f *FakeInput) Get() (bool, error) {
	if f.GetError != nil {
		return false, f.GetError
	}
	if f.LevelFunc != nil {
		return f.LevelFunc(), nil
	}
	if len(f.Levels) == 0 {
		return false, errors.New("no levels configured")
	}
	level := f.Levels[f.index]
	if f.index < len(f.Levels)-1 {
		f.index++
	}
	return level, nil
}

// Close marks the input as closed.
func (f *FakeInput) Close() error {
	f.Closed = true
	return nil
}

// Reset rewinds the script and clears the closed flag.
func (f *FakeInput) Reset() {
	f.index = 0
	f.Closed = false
}

// FakeOutput records every level driven on the line.
type FakeOutput struct {
	// Level is the most recently driven level.
	Level bool

	// History contains every level passed to Set, in order.
	History []bool

	// SetError, if set, will be returned by Set.
	SetError error

	// GetError, if set, will be returned by Get.
	GetError error

	// Closed tracks if Close was called.
	Closed bool
}

// Get returns the most recently driven level.
func (f *FakeOutput) Get() (bool, error) {
	if f.GetError != nil {
		return false, f.GetError
	}
	return f.Level, nil
}

// Set records the driven level.
func (f *FakeOutput) Set(value bool) error {
	if f.SetError != nil {
		return f.SetError
	}
	f.Level = value
	f.History = append(f.History, value)
	return nil
}

// Close marks the output as closed.
func (f *FakeOutput) Close() error {
	f.Closed = true
	return nil
}

// FakeChip hands out fake lines keyed by offset. Lines are created on first
// request and remembered, so tests can inspect them afterwards.
type FakeChip struct {
	Inputs  map[int]*FakeInput
	Outputs map[int]*FakeOutput

	// RequestError, if set, will be returned by both request methods.
	RequestError error

	// Closed tracks if Close was called.
	Closed bool
}

// NewFakeChip creates an empty FakeChip.
func NewFakeChip() *FakeChip {
	return &FakeChip{
		Inputs:  make(map[int]*FakeInput),
		Outputs: make(map[int]*FakeOutput),
	}
}

// RequestInput returns the fake input registered at offset, creating a
// low-level one if none exists.
func (c *FakeChip) RequestInput(offset int) (Input, error) {
	if c.RequestError != nil {
		return nil, fmt.Errorf("request input line %d: %w", offset, c.RequestError)
	}
	in, ok := c.Inputs[offset]
	if !ok {
		in = NewFakeInput(false)
		c.Inputs[offset] = in
	}
	return in, nil
}

// RequestOutput returns the fake output registered at offset, creating one
// if none exists, and drives it to initial.
func (c *FakeChip) RequestOutput(offset int, initial bool) (Output, error) {
	if c.RequestError != nil {
		return nil, fmt.Errorf("request output line %d: %w", offset, c.RequestError)
	}
	out, ok := c.Outputs[offset]
	if !ok {
		out = &FakeOutput{}
		c.Outputs[offset] = out
	}
	if err := out.Set(initial); err != nil {
		return nil, err
	}
	return out, nil
}

// Close marks the chip as closed.
func (c *FakeChip) Close() error {
	c.Closed = true
	return nil
}
