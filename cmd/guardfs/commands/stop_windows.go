//go:build windows

package commands

import (
	"errors"
	"fmt"
	"os"
)

// stopProcess terminates the server process. Windows has no SIGTERM, so
// graceful and forced stops both kill the process.
func stopProcess(process *os.Process, pid int, force bool) error {
	if !force {
		fmt.Println("Graceful shutdown is not available on Windows, terminating process")
	}
	fmt.Printf("Terminating process %d...\n", pid)

	err := process.Kill()
	if errors.Is(err, os.ErrProcessDone) {
		return errProcessDone
	}
	if err != nil {
		return fmt.Errorf("failed to terminate process: %w", err)
	}
	return nil
}
