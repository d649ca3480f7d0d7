//go:build !windows

package commands

import (
	"errors"
	"fmt"
	"os"
	"syscall"
)

// stopProcess sends SIGTERM, or SIGKILL when force is set. SIGTERM is
// handled by 'start' as a graceful shutdown.
func stopProcess(process *os.Process, pid int, force bool) error {
	sig := syscall.SIGTERM
	if force {
		sig = syscall.SIGKILL
	}

	fmt.Printf("Sending %s to process %d...\n", sigName(sig), pid)

	switch err := process.Signal(sig); {
	case errors.Is(err, os.ErrProcessDone):
		return errProcessDone
	case err != nil:
		return fmt.Errorf("failed to send %s: %w", sigName(sig), err)
	}
	return nil
}

func sigName(sig syscall.Signal) string {
	if sig == syscall.SIGKILL {
		return "SIGKILL"
	}
	return "SIGTERM"
}
