// Package gpio provides binary line access with hardware abstraction.
// The real implementation uses the Linux GPIO character device.
// The fake implementation allows testing without hardware.
package gpio

// Input reads the physical level of a single binary line.
type Input interface {
	// Get returns the raw line level (true = high).
	Get() (bool, error)

	// Close releases the line.
	Close() error
}

// Output drives the physical level of a single binary line.
type Output interface {
	// Set drives the raw line level (true = high).
	Set(value bool) error

	// Get returns the level the line is currently driven to.
	Get() (bool, error)

	// Close releases the line.
	Close() error
}

// Chip requests lines from a GPIO controller by offset.
type Chip interface {
	RequestInput(offset int) (Input, error)
	RequestOutput(offset int, initial bool) (Output, error)
	Close() error
}

// Default line assignments (BCM numbering).
const (
	DefaultTriggerLine = 23
	DefaultEchoLine    = 24
	DefaultRedLine     = 17
	DefaultYellowLine  = 27
	DefaultGreenLine   = 22
)
