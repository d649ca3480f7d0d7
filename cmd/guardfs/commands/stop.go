package commands

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var errProcessDone = errors.New("process already finished")

var (
	stopPidFile string
	stopForce   bool
	stopWait    time.Duration
)

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the guardfs server",
	Long: `Stop a running guardfs server.

The server is asked to shut down gracefully: it stops accepting requests,
ends every session and closes their handles. stop then waits up to --wait
for the process to exit and removes the PID file. Use --force to kill the
process immediately.

Examples:
  # Stop server (uses default PID file)
  guardfs stop

  # Give a busy server more time
  guardfs stop --wait 1m

  # Force stop (SIGKILL)
  guardfs stop --force`,
	RunE: runStop,
}

func init() {
	stopCmd.Flags().StringVar(&stopPidFile, "pid-file", "", "Path to PID file (default: $XDG_STATE_HOME/guardfs/guardfs.pid)")
	stopCmd.Flags().BoolVarP(&stopForce, "force", "f", false, "Kill the process instead of shutting down gracefully")
	stopCmd.Flags().DurationVar(&stopWait, "wait", 30*time.Second, "How long to wait for the process to exit (0 returns immediately)")
}

func runStop(cmd *cobra.Command, args []string) error {
	pidPath := stopPidFile
	if pidPath == "" {
		pidPath = GetDefaultPidFile()
	}

	pid, err := readPidFile(pidPath)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("PID file not found: %s\n\nIs the server running?", pidPath)
		}
		return fmt.Errorf("failed to read PID file: %w", err)
	}

	if _, running := isProcessRunning(pidPath); !running {
		fmt.Printf("Server is not running (stale PID %d), removing PID file\n", pid)
		_ = os.Remove(pidPath)
		return nil
	}

	process, err := os.FindProcess(pid)
	if err != nil {
		return fmt.Errorf("failed to find process %d: %w", pid, err)
	}

	if err := stopProcess(process, pid, stopForce); err != nil {
		if errors.Is(err, errProcessDone) {
			fmt.Println("Server already stopped")
			_ = os.Remove(pidPath)
			return nil
		}
		return err
	}

	if stopWait <= 0 {
		fmt.Println("Shutdown signal sent.")
		return nil
	}

	if !waitForExit(pidPath, stopWait) {
		return fmt.Errorf("server (PID %d) still running after %s\nUse 'guardfs stop --force' to kill it", pid, stopWait)
	}

	// The server removes its PID file on a clean exit; a killed one cannot.
	_ = os.Remove(pidPath)
	fmt.Println("Server stopped")
	return nil
}

// waitForExit polls the process named by pidPath until it is gone or
// timeout elapses.
func waitForExit(pidPath string, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for {
		if _, running := isProcessRunning(pidPath); !running {
			return true
		}
		if time.Now().After(deadline) {
			return false
		}
		time.Sleep(100 * time.Millisecond)
	}
}
