//go:build !windows

package commands

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"syscall"
	"time"

	"github.com/marmos91/guardfs/pkg/apiclient"
	"github.com/marmos91/guardfs/pkg/config"
)

// isProcessRunning reads a PID from pidPath and probes it with signal 0.
func isProcessRunning(pidPath string) (int, bool) {
	pid, err := readPidFile(pidPath)
	if err != nil {
		return 0, false
	}

	process, err := os.FindProcess(pid)
	if err != nil {
		return 0, false
	}
	if err := process.Signal(syscall.Signal(0)); err != nil {
		return 0, false
	}
	return pid, true
}

// startDaemon re-executes the binary in foreground mode in its own session,
// with stdout and stderr appended to the log file, then waits until the API
// answers /health.
func startDaemon() error {
	// Load before forking so configuration errors surface on the terminal.
	cfg, err := config.MustLoad(GetConfigFile())
	if err != nil {
		return err
	}

	pidPath := pidFile
	if pidPath == "" {
		pidPath = GetDefaultPidFile()
	}
	if pid, running := isProcessRunning(pidPath); running {
		return fmt.Errorf("guardfs is already running (PID %d)\nUse 'guardfs stop' to stop the running instance", pid)
	}
	_ = os.Remove(pidPath)

	logPath := logFile
	if logPath == "" {
		logPath = GetDefaultLogFile()
	}
	for _, dir := range []string{filepath.Dir(pidPath), filepath.Dir(logPath)} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create state directory: %w", err)
		}
	}

	executable, err := os.Executable()
	if err != nil {
		return fmt.Errorf("failed to get executable path: %w", err)
	}

	daemonArgs := []string{"start", "--foreground", "--pid-file", pidPath}
	if GetConfigFile() != "" {
		daemonArgs = append(daemonArgs, "--config", GetConfigFile())
	}

	logHandle, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer func() { _ = logHandle.Close() }()

	child := exec.Command(executable, daemonArgs...)
	child.Stdout = logHandle
	child.Stderr = logHandle
	child.SysProcAttr = &syscall.SysProcAttr{Setsid: true}

	if err := child.Start(); err != nil {
		return fmt.Errorf("failed to start daemon: %w", err)
	}
	pid := child.Process.Pid

	exited := make(chan error, 1)
	go func() { exited <- child.Wait() }()

	client := apiclient.New(fmt.Sprintf("http://localhost:%d", cfg.API.Port)).WithTimeout(time.Second)
	if err := waitForHealthy(client, exited, 10*time.Second); err != nil {
		return fmt.Errorf("%w\nSee %s for details", err, logPath)
	}

	fmt.Printf("guardfs started in background (PID %d)\n", pid)
	fmt.Printf("  API:      %s\n", client.BaseURL())
	fmt.Printf("  PID file: %s\n", pidPath)
	fmt.Printf("  Log file: %s\n", logPath)
	fmt.Println("\nUse 'guardfs stop' to stop the server")
	fmt.Println("Use 'guardfs status' to check server status")

	return nil
}

// waitForHealthy polls the health endpoint until it answers, the child
// exits, or timeout elapses.
func waitForHealthy(client *apiclient.Client, exited <-chan error, timeout time.Duration) error {
	deadline := time.After(timeout)
	tick := time.NewTicker(200 * time.Millisecond)
	defer tick.Stop()

	for {
		select {
		case err := <-exited:
			if err == nil {
				return fmt.Errorf("server exited during startup")
			}
			return fmt.Errorf("server exited during startup: %w", err)
		case <-deadline:
			return fmt.Errorf("server did not become healthy within %s", timeout)
		case <-tick.C:
			if _, err := client.Health(); err == nil {
				return nil
			}
		}
	}
}
