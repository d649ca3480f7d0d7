package session

import (
	"github.com/spf13/cobra"

	"github.com/marmos91/guardfs/cmd/gfsctl/cmdutil"
	"github.com/marmos91/guardfs/internal/cli/state"
)

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the saved session for the server",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, st, err := cmdutil.GetClient()
		if err != nil {
			return err
		}
		saved, err := st.Session(client.BaseURL())
		if err != nil {
			return err
		}
		return cmdutil.PrintKeyValue(cmd.OutOrStdout(), struct {
			Server string `json:"server" yaml:"server"`
			*state.Session
		}{client.BaseURL(), saved}, [][2]string{
			{"Server", client.BaseURL()},
			{"Session", saved.ID},
			{"Created", saved.CreatedAt.Local().Format("2006-01-02 15:04:05")},
		})
	},
}
