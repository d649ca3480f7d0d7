// Package config holds the "guardfs config" subcommands.
package config

import (
	"github.com/spf13/cobra"
)

// Cmd groups the commands that inspect and edit the server configuration.
var Cmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect and edit the server configuration",
	Long: `Inspect and edit the guardfs server configuration.

A fresh file is created with 'guardfs init'. The subcommands below read the
file named by --config, or the default location when it is omitted.`,
}

func init() {
	Cmd.AddCommand(editCmd, validateCmd, showCmd, schemaCmd)
}
