package commands

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/marmos91/guardfs/cmd/gfsctl/cmdutil"
	"github.com/marmos91/guardfs/internal/cli/output"
	"github.com/marmos91/guardfs/pkg/apiclient"
)

// handleCommand builds a command whose first argument is a handle.
func handleCommand(use, short string, argsCheck cobra.PositionalArgs, run func(cmd *cobra.Command, c *apiclient.Client, h uint64, args []string) error) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  argsCheck,
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := cmdutil.ParseHandle(args[0])
			if err != nil {
				return err
			}
			return cmdutil.RunInSession(func(c *apiclient.Client) error {
				return run(cmd, c, h, args[1:])
			})
		},
	}
}

var closeCmd = handleCommand("close HANDLE", "Close a handle", cobra.ExactArgs(1),
	func(cmd *cobra.Command, c *apiclient.Client, h uint64, _ []string) error {
		if err := c.Close(h); err != nil {
			return err
		}
		cmdutil.PrintSuccess(cmd.OutOrStdout(), fmt.Sprintf("Closed handle %d", h))
		return nil
	})

var flushCmd = handleCommand("flush HANDLE", "Flush a handle", cobra.ExactArgs(1),
	func(cmd *cobra.Command, c *apiclient.Client, h uint64, _ []string) error {
		return c.Flush(h)
	})

var fstatCmd = handleCommand("fstat HANDLE", "Show a handle's position and file", cobra.ExactArgs(1),
	func(cmd *cobra.Command, c *apiclient.Client, h uint64, _ []string) error {
		info, err := c.FStat(h)
		if err != nil {
			return err
		}
		pairs := append([][2]string{
			{"Handle", strconv.FormatUint(info.Handle, 10)},
			{"Position", strconv.FormatInt(info.Position, 10)},
			{"EOF", strconv.FormatBool(info.EOF)},
		}, fileInfoPairs(info.File)...)
		return cmdutil.PrintKeyValue(cmd.OutOrStdout(), info, pairs)
	})

var seekWhence string

var seekCmd = handleCommand("seek HANDLE OFFSET", "Move a handle's position", cobra.ExactArgs(2),
	func(cmd *cobra.Command, c *apiclient.Client, h uint64, args []string) error {
		offset, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid offset %q", args[0])
		}
		pos, err := c.Seek(h, offset, seekWhence)
		if err != nil {
			return err
		}
		return cmdutil.PrintResult(cmd.OutOrStdout(), map[string]int64{"position": pos}, strconv.FormatInt(pos, 10))
	})

var truncateCmd = handleCommand("truncate HANDLE SIZE", "Resize the file behind a handle", cobra.ExactArgs(2),
	func(cmd *cobra.Command, c *apiclient.Client, h uint64, args []string) error {
		size, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid size %q", args[0])
		}
		return c.Truncate(h, size)
	})

var readCount int

var readCmd = handleCommand("read HANDLE", "Read from a handle", cobra.ExactArgs(1),
	func(cmd *cobra.Command, c *apiclient.Client, h uint64, _ []string) error {
		res, err := c.Read(h, readCount)
		if err != nil {
			return err
		}
		format, err := cmdutil.GetOutputFormatParsed()
		if err != nil {
			return err
		}
		if format != output.FormatTable {
			return cmdutil.PrintResult(cmd.OutOrStdout(), res, "")
		}
		_, err = cmd.OutOrStdout().Write(res.Data)
		return err
	})

var writeFile string

var writeCmd = &cobra.Command{
	Use:   "write HANDLE [DATA]",
	Short: "Write to a handle",
	Long: `Write DATA at the handle position. Without DATA the bytes come from
--file, or from stdin when neither is given.

Examples:
  gfsctl write 3 "hello"
  gfsctl write 3 --file ./blob.bin
  echo hello | gfsctl write 3`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		h, err := cmdutil.ParseHandle(args[0])
		if err != nil {
			return err
		}
		data, err := writeData(cmd.InOrStdin(), args[1:])
		if err != nil {
			return err
		}

		var n int
		err = cmdutil.RunInSession(func(c *apiclient.Client) error {
			var err error
			n, err = c.Write(h, data)
			return err
		})
		if err != nil {
			return err
		}
		return cmdutil.PrintResult(cmd.OutOrStdout(), map[string]int{"written": n}, strconv.Itoa(n))
	},
}

func init() {
	seekCmd.Long = `Move the position of HANDLE to OFFSET relative to --whence and print
the new position. Pass negative offsets after "--": gfsctl seek 3 -w end -- -4`
	seekCmd.Flags().StringVarP(&seekWhence, "whence", "w", "set", "Seek origin (set|cur|end)")
	readCmd.Flags().IntVarP(&readCount, "count", "n", 4096, "Maximum number of bytes to read")
	writeCmd.Flags().StringVarP(&writeFile, "file", "f", "", "Read data from this file")
}

// writeData picks the payload from the DATA argument, --file or stdin.
func writeData(stdin io.Reader, args []string) ([]byte, error) {
	switch {
	case len(args) > 0 && writeFile != "":
		return nil, fmt.Errorf("pass either DATA or --file, not both")
	case len(args) > 0:
		return []byte(args[0]), nil
	case writeFile != "":
		return os.ReadFile(writeFile)
	default:
		return io.ReadAll(stdin)
	}
}
