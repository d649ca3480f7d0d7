package config

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/marmos91/guardfs/pkg/config"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration file",
	Long: `Validate the guardfs configuration file.

Checks for syntax errors, missing required fields, and invalid values.

Examples:
  # Validate default config
  guardfs config validate

  # Validate specific config file
  guardfs config validate --config /etc/guardfs/config.yaml`,
	RunE: runConfigValidate,
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	configPath, _ := cmd.Flags().GetString("config")

	cfg, err := config.MustLoad(configPath)
	if err != nil {
		return err
	}

	displayPath := configPath
	if displayPath == "" {
		displayPath = config.GetDefaultConfigPath()
	}

	printValidation(cmd.OutOrStdout(), displayPath, cfg)
	return nil
}

func printValidation(w io.Writer, path string, cfg *config.Config) {
	_, _ = fmt.Fprintf(w, "Configuration file: %s\n", path)
	_, _ = fmt.Fprintln(w, "Validation: OK")

	if warnings := configWarnings(cfg); len(warnings) > 0 {
		_, _ = fmt.Fprintln(w, "\nWarnings:")
		for _, warning := range warnings {
			_, _ = fmt.Fprintf(w, "  - %s\n", warning)
		}
	}

	_, _ = fmt.Fprintf(w, "\nConfiguration summary:\n")
	_, _ = fmt.Fprintf(w, "  API port:        %d\n", cfg.API.Port)
	_, _ = fmt.Fprintf(w, "  Store capacity:  %s\n", limit(cfg.Store.Capacity.String(), cfg.Store.Capacity == 0))
	_, _ = fmt.Fprintf(w, "  Max files:       %s\n", limit(fmt.Sprint(cfg.Store.MaxFiles), cfg.Store.MaxFiles == 0))
	_, _ = fmt.Fprintf(w, "  Max handles:     %s\n", limit(fmt.Sprint(cfg.Store.MaxHandles), cfg.Store.MaxHandles == 0))
	_, _ = fmt.Fprintf(w, "  Max file size:   %s\n", cfg.Store.MaxFileSize)
	_, _ = fmt.Fprintf(w, "  Log level:       %s\n", cfg.Logging.Level)
}

// configWarnings lists settings that load fine but are likely mistakes.
func configWarnings(cfg *config.Config) []string {
	var warnings []string

	if cfg.Store.Capacity == 0 {
		warnings = append(warnings, "Store capacity is unlimited - memory use is bounded only by the host")
	}
	if cfg.Metrics.Enabled && cfg.Metrics.Port == cfg.API.Port {
		warnings = append(warnings, fmt.Sprintf("Metrics and API both use port %d", cfg.API.Port))
	}
	if cfg.API.MaxIOSize > 0 && cfg.Store.Capacity > 0 && cfg.API.MaxIOSize > cfg.Store.Capacity {
		warnings = append(warnings, "api.max_io_size exceeds store.capacity")
	}
	if cfg.API.MaxSessions == 0 {
		warnings = append(warnings, "Session count is unlimited")
	}

	return warnings
}

func limit(value string, unlimited bool) string {
	if unlimited {
		return "unlimited"
	}
	return value
}
