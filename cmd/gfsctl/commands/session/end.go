package session

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/marmos91/guardfs/cmd/gfsctl/cmdutil"
	"github.com/marmos91/guardfs/pkg/apiclient"
)

var endCmd = &cobra.Command{
	Use:   "end [SESSION_ID]",
	Short: "End a session and close its handles",
	Long: `End SESSION_ID, or the saved session when no id is given. The server
closes every handle the session still holds.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, st, err := cmdutil.GetClient()
		if err != nil {
			return err
		}

		id := cmdutil.Flags.Session
		if len(args) == 1 {
			id = args[0]
		}
		saved, savedErr := st.Session(client.BaseURL())
		if id == "" {
			if savedErr != nil {
				return savedErr
			}
			id = saved.ID
		}

		closed, err := client.EndSession(id)
		if err != nil && apiclient.StatusOf(err) != apiclient.StatusNotFound {
			return err
		}
		if savedErr == nil && saved.ID == id {
			if err := st.ClearSession(client.BaseURL()); err != nil {
				return err
			}
		}
		if err != nil {
			return fmt.Errorf("session %s was already gone: %w", id, err)
		}

		return cmdutil.PrintResult(cmd.OutOrStdout(),
			map[string]any{"session_id": id, "closed_handles": closed},
			fmt.Sprintf("Ended session %s (%d handles closed)", id, closed))
	},
}
