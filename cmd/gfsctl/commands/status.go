package commands

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/marmos91/guardfs/cmd/gfsctl/cmdutil"
	"github.com/marmos91/guardfs/pkg/apiclient"
)

var (
	statusReset    bool
	statusExitCode bool
	statusQuiet    bool
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the status of the last operation",
	Long: `Show the status register of the current session: the status of the
last operation it ran (0 on success, negative on failure).

Examples:
  # After a failed delete
  gfsctl rm /busy; gfsctl status
  -1 Busy: ...

  # Print only the number
  gfsctl status -q

  # Exit with the negated status, like $? of the last operation
  gfsctl status --exit-code

  # Clear the register
  gfsctl status --reset`,
	Args: cobra.NoArgs,
	RunE: runStatus,
}

func init() {
	statusCmd.Flags().BoolVar(&statusReset, "reset", false, "Reset the status to 0 after printing it")
	statusCmd.Flags().BoolVar(&statusExitCode, "exit-code", false, "Exit with the negated status")
	statusCmd.Flags().BoolVarP(&statusQuiet, "quiet", "q", false, "Print only the status number")
}

func runStatus(cmd *cobra.Command, args []string) error {
	if cmdutil.Flags.Ephemeral {
		return errors.New("status needs a session; drop --ephemeral")
	}

	var status *apiclient.SessionStatus
	err := cmdutil.RunInSession(func(c *apiclient.Client) error {
		var err error
		if status, err = c.SessionStatus(c.Session()); err != nil || !statusReset {
			return err
		}
		_, err = c.ResetStatus(c.Session())
		return err
	})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if statusQuiet {
		_, err = fmt.Fprintln(out, status.Status)
	} else {
		err = cmdutil.PrintKeyValue(out, status, statusPairs(*status))
	}
	if err != nil {
		return err
	}

	if statusExitCode && status.Status != 0 {
		return &cmdutil.ExitError{
			Code: -status.Status,
			Err:  fmt.Errorf("last operation failed with status %d", status.Status),
		}
	}
	return nil
}

func statusPairs(s apiclient.SessionStatus) [][2]string {
	last := strconv.Itoa(s.Status)
	if s.Code != "" {
		last += " " + s.Code
	}
	pairs := [][2]string{
		{"Session", s.SessionID},
		{"Status", last},
	}
	if s.Error != "" {
		pairs = append(pairs, [2]string{"Error", s.Error})
	}
	return append(pairs,
		[2]string{"Operations", strconv.FormatUint(s.Operations, 10)},
		[2]string{"Open handles", formatHandles(s.OpenHandles)},
		[2]string{"Last used", s.LastUsed.Local().Format(time.RFC3339)},
	)
}

func formatHandles(ids []uint64) string {
	if len(ids) == 0 {
		return "-"
	}
	out := ""
	for i, id := range ids {
		if i > 0 {
			out += ","
		}
		out += strconv.FormatUint(id, 10)
	}
	return out
}

func durationSeconds(sec int64) time.Duration {
	return time.Duration(sec) * time.Second
}
