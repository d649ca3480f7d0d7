package commands

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/marmos91/guardfs/cmd/gfsctl/cmdutil"
	"github.com/marmos91/guardfs/pkg/apiclient"
)

var openFlags []string

var openCmd = &cobra.Command{
	Use:   "open NAME",
	Short: "Open a file and print its handle",
	Long: `Open a file in the current session and print the new handle.

Without --flags the file is created if missing and opened for reading and
writing. Flags: read (r), write (w), create (c), truncate (t), append (a),
excl (x).

While the handle is open the file cannot be deleted.

Examples:
  # Create or open /notes
  gfsctl open /notes

  # Open read-only, failing if missing
  gfsctl open /notes --flags read

  # Create exclusively
  gfsctl open /lock --flags write,create,excl`,
	Args: cobra.ExactArgs(1),
	RunE: runOpen,
}

func init() {
	openCmd.Flags().StringSliceVarP(&openFlags, "flags", "f", nil, "Open flags (comma-separated)")
}

func runOpen(cmd *cobra.Command, args []string) error {
	var handle uint64
	err := cmdutil.RunInSession(func(c *apiclient.Client) error {
		var err error
		handle, err = c.Open(args[0], openFlags...)
		return err
	})
	if err != nil {
		return err
	}
	return cmdutil.PrintResult(cmd.OutOrStdout(), map[string]uint64{"handle": handle}, strconv.FormatUint(handle, 10))
}

// FileList is a list of files for table rendering.
type FileList []apiclient.FileInfo

// Headers implements TableRenderer.
func (fl FileList) Headers() []string {
	return []string{"NAME", "SIZE", "OPEN", "MODIFIED"}
}

// Rows implements TableRenderer.
func (fl FileList) Rows() [][]string {
	rows := make([][]string, 0, len(fl))
	for _, f := range fl {
		rows = append(rows, []string{
			f.Name,
			strconv.FormatInt(f.Size, 10),
			strconv.Itoa(f.OpenCount),
			f.ModifiedAt.Local().Format(time.DateTime),
		})
	}
	return rows
}

var lsCmd = &cobra.Command{
	Use:     "ls",
	Aliases: []string{"list"},
	Short:   "List files",
	Long: `List every file in the store with its size and open handle count.

Examples:
  # List files as table
  gfsctl ls

  # List as JSON
  gfsctl ls -o json`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		var files []apiclient.FileInfo
		err := cmdutil.RunInSession(func(c *apiclient.Client) error {
			var err error
			files, err = c.List()
			return err
		})
		if err != nil {
			return err
		}
		return cmdutil.PrintOutput(cmd.OutOrStdout(), files, len(files) == 0, "No files.", FileList(files))
	},
}

var statCmd = &cobra.Command{
	Use:   "stat NAME",
	Short: "Show file details",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var info *apiclient.FileInfo
		err := cmdutil.RunInSession(func(c *apiclient.Client) error {
			var err error
			info, err = c.Stat(args[0])
			return err
		})
		if err != nil {
			return err
		}
		return cmdutil.PrintKeyValue(cmd.OutOrStdout(), info, fileInfoPairs(*info))
	},
}

func fileInfoPairs(f apiclient.FileInfo) [][2]string {
	return [][2]string{
		{"Name", f.Name},
		{"Size", strconv.FormatInt(f.Size, 10)},
		{"Open handles", strconv.Itoa(f.OpenCount)},
		{"Generation", strconv.FormatUint(f.Generation, 10)},
		{"Created", f.CreatedAt.Local().Format(time.RFC3339)},
		{"Modified", f.ModifiedAt.Local().Format(time.RFC3339)},
	}
}

var rmCmd = &cobra.Command{
	Use:     "rm NAME",
	Aliases: []string{"delete"},
	Short:   "Delete a file",
	Long: `Delete a file.

A file with open handles is never deleted: the command fails with status
-1 (Busy) and exit code 1, and the file keeps its content.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		err := cmdutil.RunInSession(func(c *apiclient.Client) error {
			return c.Delete(args[0])
		})
		if err != nil {
			return err
		}
		cmdutil.PrintSuccess(cmd.OutOrStdout(), fmt.Sprintf("Deleted %s", args[0]))
		return nil
	},
}

var mvCmd = &cobra.Command{
	Use:     "mv OLD NEW",
	Aliases: []string{"rename"},
	Short:   "Rename a file",
	Long: `Rename a file. Open handles follow the file to its new name.
The target must not exist.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		err := cmdutil.RunInSession(func(c *apiclient.Client) error {
			return c.Rename(args[0], args[1])
		})
		if err != nil {
			return err
		}
		cmdutil.PrintSuccess(cmd.OutOrStdout(), fmt.Sprintf("Renamed %s to %s", args[0], args[1]))
		return nil
	},
}

var catChunk int

var catCmd = &cobra.Command{
	Use:   "cat NAME",
	Short: "Print a file's content",
	Long: `Open NAME read-only, copy its content to stdout and close it again.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmdutil.RunInSession(func(c *apiclient.Client) error {
			return catFile(c, args[0], catChunk, cmd.OutOrStdout())
		})
	},
}

var putChunk int

var putCmd = &cobra.Command{
	Use:   "put NAME [FILE]",
	Short: "Store a local file (or stdin) under NAME",
	Long: `Create or truncate NAME and write the content of FILE, or stdin when
FILE is omitted or "-". The handle is closed when the copy finishes.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		src := io.Reader(cmd.InOrStdin())
		if len(args) == 2 && args[1] != "-" {
			f, err := os.Open(args[1])
			if err != nil {
				return err
			}
			defer func() { _ = f.Close() }()
			src = f
		}

		var written int64
		err := cmdutil.RunInSession(func(c *apiclient.Client) error {
			var err error
			written, err = putFile(c, args[0], src, putChunk)
			return err
		})
		if err != nil {
			return err
		}
		cmdutil.PrintSuccess(cmd.OutOrStdout(), fmt.Sprintf("Wrote %d bytes to %s", written, args[0]))
		return nil
	},
}

func init() {
	catCmd.Flags().IntVar(&catChunk, "chunk", 64*1024, "Bytes per read request")
	putCmd.Flags().IntVar(&putChunk, "chunk", 1024*1024, "Bytes per write request")
}

// catFile streams name to w through a read-only handle.
func catFile(c *apiclient.Client, name string, chunk int, w io.Writer) (err error) {
	h, err := c.Open(name, "read")
	if err != nil {
		return err
	}
	defer func() {
		if cerr := c.Close(h); err == nil {
			err = cerr
		}
	}()

	for {
		res, err := c.Read(h, chunk)
		if err != nil {
			return err
		}
		if _, err := w.Write(res.Data); err != nil {
			return err
		}
		if res.EOF || res.Count == 0 {
			return nil
		}
	}
}

// putFile replaces name with the content of r.
func putFile(c *apiclient.Client, name string, r io.Reader, chunk int) (total int64, err error) {
	h, err := c.Open(name, "write", "create", "truncate")
	if err != nil {
		return 0, err
	}
	defer func() {
		if cerr := c.Close(h); err == nil {
			err = cerr
		}
	}()

	buf := make([]byte, chunk)
	for {
		n, rerr := io.ReadFull(r, buf)
		if n > 0 {
			written, err := c.Write(h, buf[:n])
			total += int64(written)
			if err != nil {
				return total, err
			}
		}
		switch rerr {
		case nil:
		case io.EOF, io.ErrUnexpectedEOF:
			return total, nil
		default:
			return total, rerr
		}
	}
}
