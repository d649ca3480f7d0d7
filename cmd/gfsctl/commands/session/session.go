// Package session implements session management commands.
package session

import (
	"github.com/spf13/cobra"
)

// Cmd is the parent command for session management.
var Cmd = &cobra.Command{
	Use:   "session",
	Short: "Manage sessions",
	Long: `Manage the server-side sessions gfsctl runs commands in.

A session keeps the status of its last operation and the handles it opened.
Ending a session closes those handles.`,
}

func init() {
	Cmd.AddCommand(newCmd)
	Cmd.AddCommand(showCmd)
	Cmd.AddCommand(endCmd)
	Cmd.AddCommand(listCmd)
}
