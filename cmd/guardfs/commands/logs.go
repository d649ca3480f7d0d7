package commands

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/marmos91/guardfs/internal/logger"
	"github.com/marmos91/guardfs/pkg/config"
)

var (
	logsFollow bool
	logsLines  int
	logsSince  string
	logsFile   string
)

var logsCmd = &cobra.Command{
	Use:   "logs",
	Short: "Tail server logs",
	Long: `Display and optionally follow the guardfs server logs.

This command reads the log file from the configuration (logging.output) or,
when the server logs to stdout/stderr, the daemon log file.

Examples:
  # Show last 100 lines (default)
  guardfs logs

  # Show last 50 lines
  guardfs logs -n 50

  # Follow logs in real-time
  guardfs logs -f

  # Show logs since a specific time
  guardfs logs --since "2024-01-15T10:00:00Z"`,
	RunE: runLogs,
}

func init() {
	logsCmd.Flags().BoolVarP(&logsFollow, "follow", "f", false, "Follow log output")
	logsCmd.Flags().IntVarP(&logsLines, "lines", "n", 100, "Number of lines to show")
	logsCmd.Flags().StringVar(&logsSince, "since", "", "Show logs since timestamp (RFC3339 format)")
	logsCmd.Flags().StringVar(&logsFile, "log-file", "", "Read this file instead of the configured one")
}

func runLogs(cmd *cobra.Command, args []string) error {
	path, err := resolveLogFile()
	if err != nil {
		return err
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return fmt.Errorf("log file not found: %s\nThe server may not have started yet or is logging elsewhere", path)
	}

	var sinceTime time.Time
	if logsSince != "" {
		sinceTime, err = time.Parse(time.RFC3339, logsSince)
		if err != nil {
			return fmt.Errorf("invalid --since format (use RFC3339): %w", err)
		}
	}

	if logsFollow {
		return followLogs(path, logsLines, sinceTime)
	}
	return showLogs(os.Stdout, path, logsLines, sinceTime)
}

func resolveLogFile() (string, error) {
	if logsFile != "" {
		return logsFile, nil
	}

	cfg, err := config.Load(GetConfigFile())
	if err != nil {
		return "", fmt.Errorf("failed to load config: %w", err)
	}

	switch strings.ToLower(cfg.Logging.Output) {
	case "stdout", "stderr", "":
		// Daemon mode redirects both streams to the default log file.
		return GetDefaultLogFile(), nil
	default:
		return cfg.Logging.Output, nil
	}
}

// showLogs writes the last n lines of the log file at or after since.
func showLogs(w io.Writer, path string, n int, since time.Time) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer func() { _ = file.Close() }()

	lines, err := tailLines(file, n, since)
	if err != nil {
		return err
	}
	for _, line := range lines {
		_, _ = fmt.Fprintln(w, line)
	}
	return nil
}

// tailLines keeps a ring of the last n matching lines.
func tailLines(r io.Reader, n int, since time.Time) ([]string, error) {
	if n <= 0 {
		return nil, nil
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	ring := make([]string, 0, n)
	next := 0
	for scanner.Scan() {
		line := scanner.Text()
		if !since.IsZero() {
			if ts := extractTimestamp(line); !ts.IsZero() && ts.Before(since) {
				continue
			}
		}
		if len(ring) < n {
			ring = append(ring, line)
			continue
		}
		ring[next] = line
		next = (next + 1) % n
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading log file: %w", err)
	}

	return append(ring[next:], ring[:next]...), nil
}

// followLogs prints the tail of the file and then every line appended to it.
func followLogs(path string, initialLines int, since time.Time) error {
	if err := showLogs(os.Stdout, path, initialLines, since); err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	if err := watcher.Add(path); err != nil {
		return fmt.Errorf("failed to watch log file: %w", err)
	}

	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer func() { _ = file.Close() }()

	if _, err := file.Seek(0, io.SeekEnd); err != nil {
		return fmt.Errorf("failed to seek to end of log file: %w", err)
	}
	reader := bufio.NewReader(file)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	fmt.Fprintf(os.Stderr, "Following %s (Ctrl+C to stop)...\n", path)

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Has(fsnotify.Write) {
				for {
					line, err := reader.ReadString('\n')
					if err != nil {
						// Partial line stays buffered until the next write.
						if line != "" {
							fmt.Print(line)
						}
						break
					}
					fmt.Print(line)
				}
			}
			if event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
				fmt.Fprintln(os.Stderr, "Log file was rotated or removed, stopping")
				return nil
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			return fmt.Errorf("watcher error: %w", err)
		}
	}
}

// extractTimestamp reads the time of a log line in either the text format
// ("[2006-01-02 15:04:05] [INFO] ...") or the JSON format ("time" field).
func extractTimestamp(line string) time.Time {
	if strings.HasPrefix(line, "[") && len(line) > len(logger.TimestampLayout)+1 {
		stamp := line[1 : len(logger.TimestampLayout)+1]
		if t, err := time.ParseInLocation(logger.TimestampLayout, stamp, time.Local); err == nil {
			return t
		}
	}

	if strings.HasPrefix(line, "{") {
		var rec struct {
			Time time.Time `json:"time"`
		}
		if err := json.Unmarshal([]byte(line), &rec); err == nil {
			return rec.Time
		}
	}

	if len(line) >= 20 {
		if end := strings.IndexByte(line, ' '); end > 0 {
			if t, err := time.Parse(time.RFC3339Nano, line[:end]); err == nil {
				return t
			}
		}
	}

	return time.Time{}
}
