package session

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/marmos91/guardfs/cmd/gfsctl/cmdutil"
)

var newCmd = &cobra.Command{
	Use:   "new",
	Short: "Start a new session",
	Long: `Start a new session and make it the one later commands run in.
The previous session is left running; end it with 'gfsctl session end'
to close its handles.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, st, err := cmdutil.GetClient()
		if err != nil {
			return err
		}
		client, err = cmdutil.NewSession(client, st)
		if err != nil {
			return err
		}
		return cmdutil.PrintResult(cmd.OutOrStdout(),
			map[string]string{"session_id": client.Session(), "server": client.BaseURL()},
			fmt.Sprintf("Session %s on %s", client.Session(), client.BaseURL()))
	},
}
