package commands

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/marmos91/guardfs/internal/cli/output"
	"github.com/marmos91/guardfs/pkg/apiclient"
)

var (
	statusOutput  string
	statusPidFile string
	statusAPIPort int
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show server status",
	Long: `Display the current status of the guardfs server.

This command checks the PID file and calls the health endpoint, then
displays uptime, live sessions, stored files, and open handles.

Examples:
  # Check status (uses default settings)
  guardfs status

  # Check status with custom API port
  guardfs status --api-port 9080

  # Output as JSON
  guardfs status --output json`,
	RunE: runStatus,
}

func init() {
	statusCmd.Flags().StringVar(&statusPidFile, "pid-file", "", "Path to PID file (default: $XDG_STATE_HOME/guardfs/guardfs.pid)")
	statusCmd.Flags().IntVar(&statusAPIPort, "api-port", 8080, "API server port")
	statusCmd.Flags().StringVarP(&statusOutput, "output", "o", "table", "Output format (table|json|yaml)")
}

// ServerStatus represents the server status information.
type ServerStatus struct {
	Running     bool      `json:"running" yaml:"running"`
	PID         int       `json:"pid,omitempty" yaml:"pid,omitempty"`
	Message     string    `json:"message" yaml:"message"`
	StartedAt   time.Time `json:"started_at,omitempty" yaml:"started_at,omitempty"`
	Uptime      string    `json:"uptime,omitempty" yaml:"uptime,omitempty"`
	Healthy     bool      `json:"healthy" yaml:"healthy"`
	Sessions    int       `json:"sessions" yaml:"sessions"`
	Files       int       `json:"files" yaml:"files"`
	OpenHandles int       `json:"open_handles" yaml:"open_handles"`
}

func runStatus(cmd *cobra.Command, args []string) error {
	format, err := output.ParseFormat(statusOutput)
	if err != nil {
		return err
	}

	pidPath := statusPidFile
	if pidPath == "" {
		pidPath = GetDefaultPidFile()
	}

	pid, running := isProcessRunning(pidPath)
	client := apiclient.New(fmt.Sprintf("http://localhost:%d", statusAPIPort)).WithTimeout(2 * time.Second)

	status := collectStatus(client, pid, running)

	switch format {
	case output.FormatJSON:
		return output.PrintJSON(os.Stdout, status)
	case output.FormatYAML:
		return output.PrintYAML(os.Stdout, status)
	default:
		printStatusTable(status)
	}

	return nil
}

// collectStatus merges the PID probe with the health endpoint, which also
// answers for servers running in the foreground without a PID file.
func collectStatus(client *apiclient.Client, pid int, running bool) ServerStatus {
	status := ServerStatus{Message: "Server is not running"}
	if running {
		status.Running = true
		status.PID = pid
	}

	health, err := client.Health()
	if err != nil {
		if status.Running {
			status.Message = "Server process exists but health check failed"
		}
		return status
	}

	status.Running = true
	status.Healthy = true
	status.StartedAt = health.StartedAt
	status.Uptime = health.Uptime
	status.Sessions = health.Sessions
	status.Files = health.Files
	status.OpenHandles = health.OpenHandles
	status.Message = "Server is running and healthy"
	return status
}

func printStatusTable(status ServerStatus) {
	fmt.Println()
	fmt.Println("guardfs Server Status")
	fmt.Println("=====================")
	fmt.Println()

	if !status.Running {
		fmt.Printf("  Status:     \033[31m○ Stopped\033[0m\n")
		fmt.Println()
		fmt.Printf("  %s\n", status.Message)
		fmt.Println()
		return
	}

	if status.Healthy {
		fmt.Printf("  Status:     \033[32m● Running\033[0m\n")
	} else {
		fmt.Printf("  Status:     \033[33m● Running (unhealthy)\033[0m\n")
	}
	if status.PID > 0 {
		fmt.Printf("  PID:        %d\n", status.PID)
	}
	if !status.StartedAt.IsZero() {
		fmt.Printf("  Started:    %s\n", status.StartedAt.Local().Format(time.RFC1123))
		fmt.Printf("  Uptime:     %s\n", output.FormatDuration(time.Since(status.StartedAt)))
	}
	if status.Healthy {
		fmt.Printf("  Sessions:   %d\n", status.Sessions)
		fmt.Printf("  Files:      %d\n", status.Files)
		fmt.Printf("  Handles:    %d open\n", status.OpenHandles)
	}

	fmt.Println()
	fmt.Printf("  %s\n", status.Message)
	fmt.Println()
}
