package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/marmos91/guardfs/pkg/config"
)

var (
	initForce bool
	initPrint bool
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default configuration file",
	Long: `Write the default guardfs configuration to disk.

The file goes to $XDG_CONFIG_HOME/guardfs/config.yaml unless --config names
another path. An existing file is left alone unless --force is given.

Examples:
  guardfs init
  guardfs init --config /etc/guardfs/config.yaml --force
  guardfs init --print > guardfs.yaml`,
	RunE: runInit,
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "Overwrite an existing config file")
	initCmd.Flags().BoolVar(&initPrint, "print", false, "Print the default config to stdout instead of writing it")
}

func runInit(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	if initPrint {
		data, err := config.RenderDefault()
		if err != nil {
			return err
		}
		_, err = out.Write(data)
		return err
	}

	path := GetConfigFile()
	var err error
	if path == "" {
		path, err = config.InitConfig(initForce)
	} else {
		err = config.InitConfigToPath(path, initForce)
	}
	if err != nil {
		return fmt.Errorf("failed to initialize config: %w", err)
	}

	_, _ = fmt.Fprintf(out, "Wrote %s\n\n", path)
	_, _ = fmt.Fprintln(out, "Store limits (capacity, max_files, max_handles) default to unlimited; max_file_size defaults to 1Gi.")
	_, _ = fmt.Fprintf(out, "Start the server:  guardfs start --config %s\n", path)
	_, _ = fmt.Fprintln(out, "Try it out:        gfsctl open /hello")
	return nil
}
