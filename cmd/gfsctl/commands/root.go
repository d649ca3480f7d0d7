// Package commands implements the CLI commands for the gfsctl client.
package commands

import (
	"github.com/spf13/cobra"

	"github.com/marmos91/guardfs/cmd/gfsctl/cmdutil"
	sessioncmd "github.com/marmos91/guardfs/cmd/gfsctl/commands/session"
	"github.com/marmos91/guardfs/internal/cli/completion"
)

var (
	// Version information injected at build time.
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "gfsctl",
	Short: "guardfs control - file store client",
	Long: `gfsctl is the command-line client for guardfs servers.

File commands run in a session that gfsctl creates on first use and
remembers between invocations, so handles opened by one command can be used
by the next. Every session keeps the status of its last operation:
'gfsctl status' prints it, and gfsctl exits with the negated status
(1 for Busy, 2 for NotFound, ...).

Use "gfsctl [command] --help" for more information about a command.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// Sync flags to cmdutil.Flags for subcommands
		cmdutil.Flags.ServerURL, _ = cmd.Flags().GetString("server")
		cmdutil.Flags.Session, _ = cmd.Flags().GetString("session")
		cmdutil.Flags.Ephemeral, _ = cmd.Flags().GetBool("ephemeral")
		cmdutil.Flags.StateFile, _ = cmd.Flags().GetString("state-file")
		cmdutil.Flags.Output, _ = cmd.Flags().GetString("output")
		cmdutil.Flags.NoColor, _ = cmd.Flags().GetBool("no-color")
		cmdutil.Flags.Verbose, _ = cmd.Flags().GetBool("verbose")
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

// GetRootCmd returns the root command for testing purposes.
func GetRootCmd() *cobra.Command {
	return rootCmd
}

func init() {
	// Global persistent flags
	rootCmd.PersistentFlags().String("server", "", "Server URL (default: $GFSCTL_SERVER, saved default, or "+cmdutil.DefaultServerURL+")")
	rootCmd.PersistentFlags().String("session", "", "Run in this session instead of the saved one")
	rootCmd.PersistentFlags().Bool("ephemeral", false, "Run without a session (status is not kept; opened handles are never reclaimed)")
	rootCmd.PersistentFlags().String("state-file", "", "Client state file (default: $XDG_CONFIG_HOME/gfsctl/state.json)")
	rootCmd.PersistentFlags().StringP("output", "o", "table", "Output format (table|json|yaml)")
	rootCmd.PersistentFlags().Bool("no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose output")

	// File commands
	rootCmd.AddCommand(openCmd)
	rootCmd.AddCommand(lsCmd)
	rootCmd.AddCommand(statCmd)
	rootCmd.AddCommand(rmCmd)
	rootCmd.AddCommand(mvCmd)
	rootCmd.AddCommand(catCmd)
	rootCmd.AddCommand(putCmd)

	// Handle commands
	rootCmd.AddCommand(closeCmd)
	rootCmd.AddCommand(readCmd)
	rootCmd.AddCommand(writeCmd)
	rootCmd.AddCommand(seekCmd)
	rootCmd.AddCommand(truncateCmd)
	rootCmd.AddCommand(flushCmd)
	rootCmd.AddCommand(fstatCmd)

	// Store and session commands
	rootCmd.AddCommand(dfCmd)
	rootCmd.AddCommand(formatCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(useCmd)
	rootCmd.AddCommand(healthCmd)
	rootCmd.AddCommand(sessioncmd.Cmd)

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(completion.NewCommand("gfsctl"))

	// Hide the default completion command (we provide our own)
	rootCmd.CompletionOptions.DisableDefaultCmd = true
}
