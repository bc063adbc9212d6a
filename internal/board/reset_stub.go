//go:build !linux

package board

import "errors"

// Restart is only supported on Linux targets.
func Restart() error {
	return errors.New("board: process restart unsupported on this platform")
}
