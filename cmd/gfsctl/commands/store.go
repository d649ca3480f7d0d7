package commands

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/marmos91/guardfs/cmd/gfsctl/cmdutil"
	"github.com/marmos91/guardfs/internal/bytesize"
	"github.com/marmos91/guardfs/internal/cli/output"
	"github.com/marmos91/guardfs/pkg/apiclient"
)

var dfCmd = &cobra.Command{
	Use:   "df",
	Short: "Show store capacity usage",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		var space *apiclient.SpaceInfo
		err := cmdutil.RunInSession(func(c *apiclient.Client) error {
			var err error
			space, err = c.Space()
			return err
		})
		if err != nil {
			return err
		}
		return cmdutil.PrintKeyValue(cmd.OutOrStdout(), space, spacePairs(*space))
	},
}

func spacePairs(s apiclient.SpaceInfo) [][2]string {
	return [][2]string{
		{"Total", sizeOrUnlimited(s.Total)},
		{"Used", bytesize.ByteSize(s.Used).HumanString()},
		{"Free", sizeOrUnlimited(s.Free)},
		{"Files", countOf(s.Files, s.MaxFiles)},
		{"Open handles", countOf(s.OpenHandles, s.MaxHandles)},
	}
}

func sizeOrUnlimited(n uint64) string {
	if n == 0 {
		return "unlimited"
	}
	return bytesize.ByteSize(n).HumanString()
}

func countOf(n, max int) string {
	if max == 0 {
		return strconv.Itoa(n)
	}
	return fmt.Sprintf("%d / %d", n, max)
}

var formatForce bool

var formatCmd = &cobra.Command{
	Use:   "format",
	Short: "Remove every file from the store",
	Long: `Remove every file from the store.

Formatting fails with status -1 (Busy) while any handle is open.

Examples:
  # Format after confirmation
  gfsctl format

  # Format without prompting
  gfsctl format --force`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmdutil.RunWithConfirmation("Remove every file from the store", formatForce, func() error {
			err := cmdutil.RunInSession(func(c *apiclient.Client) error {
				return c.Format()
			})
			if err != nil {
				return err
			}
			cmdutil.PrintSuccess(cmd.OutOrStdout(), "Store formatted")
			return nil
		})
	},
}

func init() {
	formatCmd.Flags().BoolVarP(&formatForce, "force", "f", false, "Skip confirmation prompt")
}

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check server health",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, _, err := cmdutil.GetClient()
		if err != nil {
			return err
		}
		health, err := client.Health()
		if err != nil {
			return fmt.Errorf("server %s is unreachable: %w", client.BaseURL(), err)
		}
		return cmdutil.PrintKeyValue(cmd.OutOrStdout(), health, [][2]string{
			{"Server", client.BaseURL()},
			{"Service", health.Service},
			{"Uptime", output.FormatDuration(durationSeconds(health.UptimeSec))},
			{"Sessions", strconv.Itoa(health.Sessions)},
			{"Files", strconv.Itoa(health.Files)},
			{"Open handles", strconv.Itoa(health.OpenHandles)},
		})
	},
}

var useCmd = &cobra.Command{
	Use:   "use SERVER_URL",
	Short: "Set the default server",
	Long: `Save SERVER_URL as the server used when --server and $GFSCTL_SERVER are
not set.

Examples:
  gfsctl use http://guardfs.internal:8080`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := cmdutil.OpenState()
		if err != nil {
			return err
		}
		if err := st.SetDefaultServer(apiclient.New(args[0]).BaseURL()); err != nil {
			return err
		}
		cmdutil.PrintSuccess(cmd.OutOrStdout(), fmt.Sprintf("Default server set to %s", args[0]))
		return nil
	},
}
