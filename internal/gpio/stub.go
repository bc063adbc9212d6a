//go:build !linux

package gpio

import "errors"

var errUnsupported = errors.New("gpio: not supported on this platform (requires Linux)")

// RealChip is not available on non-Linux platforms.
type RealChip struct{}

// NewRealChip returns an error on non-Linux platforms.
func NewRealChip(name string) (*RealChip, error) {
	return nil, errUnsupported
}

// RequestInput is not implemented on non-Linux platforms.
func (c *RealChip) RequestInput(offset int) (Input, error) {
	return nil, errUnsupported
}

// RequestOutput is not implemented on non-Linux platforms.
func (c *RealChip) RequestOutput(offset int, initial bool) (Output, error) {
	return nil, errUnsupported
}

// Close is not implemented on non-Linux platforms.
func (c *RealChip) Close() error {
	return nil
}
