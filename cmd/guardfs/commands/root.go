// Package commands holds the guardfs server CLI.
package commands

import (
	"github.com/spf13/cobra"

	"github.com/marmos91/guardfs/cmd/guardfs/commands/config"
)

// Build metadata, set through -ldflags by main.
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "guardfs",
	Short: "In-memory file store with a delete guard",
	Long: `guardfs is an in-memory file store served over HTTP. Files are
accessed through numbered handles, and a file with open handles cannot be
deleted: the delete fails with status -1 (Busy) and the file stays intact.

Every client session keeps the status of its last operation, the way a
shell exposes $?. Use gfsctl to talk to a running server.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// GetRootCmd exposes the root command to tests.
func GetRootCmd() *cobra.Command {
	return rootCmd
}

// GetConfigFile returns the value of --config, empty when unset.
func GetConfigFile() string {
	return cfgFile
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $XDG_CONFIG_HOME/guardfs/config.yaml)")

	rootCmd.AddCommand(
		startCmd,
		stopCmd,
		statusCmd,
		logsCmd,
		initCmd,
		config.Cmd,
		versionCmd,
		completionCmd,
	)
	rootCmd.CompletionOptions.DisableDefaultCmd = true
}
