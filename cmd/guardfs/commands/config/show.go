package config

import (
	"github.com/spf13/cobra"

	"github.com/marmos91/guardfs/internal/cli/output"
	"github.com/marmos91/guardfs/pkg/config"
)

var (
	showOutput   string
	showDefaults bool
)

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Display current configuration",
	Long: `Display the effective guardfs configuration, after environment
overrides and defaults are applied.

By default outputs YAML format. Use --output to change format.

Examples:
  # Show config as YAML
  guardfs config show

  # Show as JSON
  guardfs config show --output json

  # Show the built-in defaults
  guardfs config show --defaults`,
	RunE: runConfigShow,
}

func init() {
	showCmd.Flags().StringVarP(&showOutput, "output", "o", "yaml", "Output format (yaml|json)")
	showCmd.Flags().BoolVar(&showDefaults, "defaults", false, "Show built-in defaults instead of the loaded file")
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	format, err := output.ParseFormat(showOutput)
	if err != nil {
		return err
	}

	var cfg *config.Config
	if showDefaults {
		cfg = config.GetDefaultConfig()
	} else {
		configPath, _ := cmd.Flags().GetString("config")
		if cfg, err = config.MustLoad(configPath); err != nil {
			return err
		}
	}

	if format == output.FormatJSON {
		return output.PrintJSON(cmd.OutOrStdout(), cfg)
	}
	return output.PrintYAML(cmd.OutOrStdout(), cfg)
}
