//go:build windows

package commands

import (
	"fmt"
	"os"
)

// isProcessRunning reports whether the PID file names a live process.
// On Windows FindProcess opens a handle, which fails for exited processes.
func isProcessRunning(pidPath string) (int, bool) {
	pid, err := readPidFile(pidPath)
	if err != nil {
		return 0, false
	}
	process, err := os.FindProcess(pid)
	if err != nil {
		return 0, false
	}
	_ = process.Release()
	return pid, true
}

func startDaemon() error {
	return fmt.Errorf("daemon mode is not supported on Windows\nUse 'guardfs start --foreground' or run it as a service")
}
