//go:build linux

package board

import (
	"os"

	"golang.org/x/sys/unix"
)

// Restart replaces the current process with a fresh copy of itself,
// preserving arguments and environment. It only returns on failure.
func Restart() error {
	exe, err := os.Executable()
	if err != nil {
		return err
	}
	return unix.Exec(exe, os.Args, os.Environ())
}
