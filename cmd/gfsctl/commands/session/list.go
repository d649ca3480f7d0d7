package session

import (
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/marmos91/guardfs/cmd/gfsctl/cmdutil"
	"github.com/marmos91/guardfs/pkg/apiclient"
)

// SessionList is a list of sessions for table rendering.
type SessionList []apiclient.SessionInfo

// Headers implements TableRenderer.
func (sl SessionList) Headers() []string {
	return []string{"SESSION", "LAST STATUS", "OPERATIONS", "HANDLES", "LAST USED"}
}

// Rows implements TableRenderer.
func (sl SessionList) Rows() [][]string {
	rows := make([][]string, 0, len(sl))
	for _, s := range sl {
		rows = append(rows, []string{
			s.ID,
			strconv.Itoa(s.LastStatus),
			strconv.FormatUint(s.Operations, 10),
			strconv.Itoa(len(s.OpenHandles)),
			s.LastUsed.Local().Format(time.DateTime),
		})
	}
	return rows
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List sessions on the server",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, _, err := cmdutil.GetClient()
		if err != nil {
			return err
		}
		sessions, err := client.ListSessions()
		if err != nil {
			return err
		}
		return cmdutil.PrintOutput(cmd.OutOrStdout(), sessions, len(sessions) == 0, "No sessions.", SessionList(sessions))
	},
}
