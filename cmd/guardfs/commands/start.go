package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/marmos91/guardfs/internal/logger"
	"github.com/marmos91/guardfs/internal/telemetry"
	"github.com/marmos91/guardfs/pkg/api"
	"github.com/marmos91/guardfs/pkg/config"
)

var (
	foreground bool
	pidFile    string
	logFile    string
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the guardfs server",
	Long: `Start the guardfs server with the specified configuration.

By default, the server runs in the background (daemon mode). Use --foreground
to run in the foreground for debugging or when managed by a process supervisor.

The store lives in memory: files do not survive a restart.

Examples:
  # Start in background (default)
  guardfs start

  # Start in foreground
  guardfs start --foreground

  # Start with custom config file
  guardfs start --config /etc/guardfs/config.yaml

  # Start with environment variable overrides
  GUARDFS_LOGGING_LEVEL=DEBUG guardfs start --foreground`,
	RunE: runStart,
}

func init() {
	startCmd.Flags().BoolVarP(&foreground, "foreground", "f", false, "Run in foreground (default: background/daemon mode)")
	startCmd.Flags().StringVar(&pidFile, "pid-file", "", "Path to PID file (default: $XDG_STATE_HOME/guardfs/guardfs.pid)")
	startCmd.Flags().StringVar(&logFile, "log-file", "", "Path to log file for daemon mode (default: $XDG_STATE_HOME/guardfs/guardfs.log)")
}

func runStart(cmd *cobra.Command, args []string) error {
	if !foreground {
		return startDaemon()
	}

	cfg, err := config.MustLoad(GetConfigFile())
	if err != nil {
		return err
	}

	if err := InitLogger(cfg); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	telemetryShutdown, err := telemetry.Init(ctx, cfg.Telemetry.TracingConfig(Version))
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	defer func() {
		// ctx is cancelled by then; flush with a fresh deadline
		flushCtx, flushCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer flushCancel()
		if err := telemetryShutdown(flushCtx); err != nil {
			logger.Error("telemetry shutdown error", logger.Err(err))
		}
	}()

	profilingShutdown, err := telemetry.InitProfiling(cfg.Telemetry.ProfilingSettings(Version))
	if err != nil {
		return fmt.Errorf("failed to initialize profiling: %w", err)
	}
	defer func() {
		if err := profilingShutdown(); err != nil {
			logger.Error("profiling shutdown error", logger.Err(err))
		}
	}()

	fmt.Println("guardfs - in-memory file store with a delete guard")
	logger.Info("Log level", "level", cfg.Logging.Level, "format", cfg.Logging.Format)
	logger.Info("Configuration loaded", "source", getConfigSource(GetConfigFile()))
	if telemetry.IsEnabled() {
		logger.Info("Telemetry enabled", "endpoint", cfg.Telemetry.Endpoint, "sample_rate", cfg.Telemetry.SampleRate)
	} else {
		logger.Info("Telemetry disabled")
	}
	if cfg.Telemetry.Profiling.Enabled {
		logger.Info("Profiling enabled", "endpoint", cfg.Telemetry.Profiling.Endpoint, "profile_types", cfg.Telemetry.Profiling.ProfileTypes)
	}

	metricsResult := config.InitializeMetrics(cfg)

	fileStore := config.CreateStore(cfg, metricsResult.Metrics)
	logger.Info("Store initialized",
		"capacity", cfg.Store.Capacity.String(),
		"max_files", cfg.Store.MaxFiles,
		"max_handles", cfg.Store.MaxHandles)

	apiServer := api.NewServer(cfg.API, fileStore)

	if pidFile != "" {
		if err := writePidFile(pidFile); err != nil {
			return fmt.Errorf("failed to write PID file: %w", err)
		}
		defer func() { _ = os.Remove(pidFile) }()
	}

	serverDone := make(chan error, 2)
	go func() {
		serverDone <- apiServer.Start(ctx)
	}()

	if metricsResult.Server != nil {
		logger.Info("Metrics enabled", "port", cfg.Metrics.Port)
		go func() {
			if err := metricsResult.Server.Start(ctx); err != nil {
				serverDone <- err
			}
		}()
	} else {
		logger.Info("Metrics collection disabled")
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	logger.Info("Server is running. Press Ctrl+C to stop.")

	select {
	case <-sigChan:
		logger.Info("Shutdown signal received, initiating graceful shutdown")
		cancel()

		select {
		case err := <-serverDone:
			if err != nil {
				logger.Error("Server shutdown error", logger.Err(err))
				return err
			}
		case <-time.After(cfg.ShutdownTimeout):
			logger.Warn("Shutdown timeout exceeded", "timeout", cfg.ShutdownTimeout)
			return fmt.Errorf("shutdown timed out after %s", cfg.ShutdownTimeout)
		}
		logger.Info("Server stopped gracefully")

	case err := <-serverDone:
		cancel()
		if err != nil {
			logger.Error("Server error", logger.Err(err))
			return err
		}
		logger.Info("Server stopped")
	}

	return nil
}
