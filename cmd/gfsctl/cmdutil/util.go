// Package cmdutil provides shared utilities for gfsctl commands.
package cmdutil

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/marmos91/guardfs/internal/cli/output"
	"github.com/marmos91/guardfs/internal/cli/prompt"
	"github.com/marmos91/guardfs/internal/cli/state"
	"github.com/marmos91/guardfs/pkg/apiclient"
)

// DefaultServerURL is used when neither --server, GFSCTL_SERVER nor a saved
// default names a server.
const DefaultServerURL = "http://localhost:8080"

// EnvServer overrides the saved default server.
const EnvServer = "GFSCTL_SERVER"

// Flags stores global flag values accessible by subcommands.
var Flags = &GlobalFlags{}

// GlobalFlags holds the global flag values.
type GlobalFlags struct {
	ServerURL string
	Session   string
	Ephemeral bool
	StateFile string
	Output    string
	NoColor   bool
	Verbose   bool
}

// OpenState loads the client state file from --state-file or its default path.
func OpenState() (*state.Store, error) {
	path := Flags.StateFile
	if path == "" {
		var err error
		if path, err = state.DefaultPath(); err != nil {
			return nil, err
		}
	}
	return state.Open(path)
}

// ServerURL resolves the server from --server, GFSCTL_SERVER, the saved
// default and finally DefaultServerURL.
func ServerURL(st *state.Store) string {
	if Flags.ServerURL != "" {
		return Flags.ServerURL
	}
	if env := os.Getenv(EnvServer); env != "" {
		return env
	}
	if st != nil && st.DefaultServer() != "" {
		return st.DefaultServer()
	}
	return DefaultServerURL
}

// GetClient returns a client without a session. Requests run in throwaway
// server-side sessions.
func GetClient() (*apiclient.Client, *state.Store, error) {
	st, err := OpenState()
	if err != nil {
		return nil, nil, err
	}
	return apiclient.New(ServerURL(st)), st, nil
}

// GetSessionClient returns a client bound to the session that commands share
// between invocations. The session comes from --session, or from the state
// file, and is created on first use. With --ephemeral no session is used.
func GetSessionClient() (*apiclient.Client, error) {
	client, st, err := GetClient()
	if err != nil {
		return nil, err
	}

	switch {
	case Flags.Ephemeral:
		return client, nil
	case Flags.Session != "":
		return client.WithSession(Flags.Session), nil
	}

	saved, err := st.Session(client.BaseURL())
	if err == nil {
		return client.WithSession(saved.ID), nil
	}
	if !errors.Is(err, state.ErrNoSession) {
		return nil, err
	}
	return NewSession(client, st)
}

// NewSession registers a new server-side session and remembers it.
func NewSession(client *apiclient.Client, st *state.Store) (*apiclient.Client, error) {
	sess, err := client.CreateSession()
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	if err := st.SetSession(client.BaseURL(), sess.ID); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}
	Verbosef("Created session %s\n", sess.ID)
	return client.WithSession(sess.ID), nil
}

// RunInSession runs fn with the shared session client. When the server no
// longer knows a saved session, the session is replaced and fn retried once.
// The server rejects unknown sessions before running the operation, so the
// retry never repeats work.
func RunInSession(fn func(*apiclient.Client) error) error {
	client, err := GetSessionClient()
	if err != nil {
		return err
	}

	err = fn(client)
	if !apiclient.IsSessionNotFound(err) || Flags.Session != "" || Flags.Ephemeral {
		return err
	}

	st, stErr := OpenState()
	if stErr != nil {
		return err
	}
	Verbosef("Session %s expired, creating a new one\n", client.Session())
	fresh, newErr := NewSession(apiclient.New(client.BaseURL()), st)
	if newErr != nil {
		return err
	}
	return fn(fresh)
}

// ParseHandle parses a handle argument.
func ParseHandle(arg string) (uint64, error) {
	h, err := strconv.ParseUint(arg, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid handle %q: must be a non-negative integer", arg)
	}
	return h, nil
}

// ExitCode maps a command error to a process exit code. Store failures exit
// with the negated status (Busy exits 1, NotFound 2, ...), so scripts can
// branch on the same codes the API reports. Other errors exit 1 unless they
// are unknown store errors, which exit 100.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var apiErr *apiclient.APIError
	if errors.As(err, &apiErr) && apiErr.Status < 0 {
		return -apiErr.Status
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return 1
}

// ExitError ends the process with Code without being a store failure.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string { return e.Err.Error() }

func (e *ExitError) Unwrap() error { return e.Err }

// GetOutputFormatParsed returns the parsed output format.
func GetOutputFormatParsed() (output.Format, error) {
	return output.ParseFormat(Flags.Output)
}

// IsColorDisabled returns whether color output is disabled.
func IsColorDisabled() bool {
	return Flags.NoColor
}

// Verbosef prints to stderr when --verbose is set.
func Verbosef(format string, args ...any) {
	if Flags.Verbose {
		fmt.Fprintf(os.Stderr, format, args...)
	}
}

// PrintOutput prints data in the specified format (JSON, YAML, or table).
// For table format, it displays emptyMsg if data is empty, otherwise uses the tableRenderer.
func PrintOutput(w io.Writer, data any, isEmpty bool, emptyMsg string, tableRenderer output.TableRenderer) error {
	format, err := GetOutputFormatParsed()
	if err != nil {
		return err
	}

	switch format {
	case output.FormatJSON:
		return output.PrintJSON(w, data)
	case output.FormatYAML:
		return output.PrintYAML(w, data)
	default:
		if isEmpty {
			_, _ = fmt.Fprintln(w, emptyMsg)
			return nil
		}
		return output.PrintTable(w, tableRenderer)
	}
}

// PrintKeyValue prints data as JSON/YAML, or as "key: value" pairs in table format.
func PrintKeyValue(w io.Writer, data any, pairs [][2]string) error {
	format, err := GetOutputFormatParsed()
	if err != nil {
		return err
	}

	switch format {
	case output.FormatJSON:
		return output.PrintJSON(w, data)
	case output.FormatYAML:
		return output.PrintYAML(w, data)
	default:
		return output.KeyValue(w, pairs)
	}
}

// PrintResult prints data as JSON/YAML, or the plain line in table format.
func PrintResult(w io.Writer, data any, line string) error {
	format, err := GetOutputFormatParsed()
	if err != nil {
		return err
	}

	switch format {
	case output.FormatJSON:
		return output.PrintJSON(w, data)
	case output.FormatYAML:
		return output.PrintYAML(w, data)
	default:
		_, err := fmt.Fprintln(w, line)
		return err
	}
}

// PrintSuccess prints a success message if the output format is table.
func PrintSuccess(w io.Writer, msg string) {
	format, err := GetOutputFormatParsed()
	if err != nil || format != output.FormatTable {
		return
	}
	output.NewPrinter(w, format, !IsColorDisabled()).Success(msg)
}

// RunWithConfirmation prompts for confirmation (unless force is true) and runs fn.
func RunWithConfirmation(label string, force bool, fn func() error) error {
	confirmed, err := prompt.ConfirmWithForce(label, force)
	if err != nil {
		if errors.Is(err, prompt.ErrAborted) {
			fmt.Println("\nAborted.")
			return nil
		}
		return err
	}
	if !confirmed {
		fmt.Println("Aborted.")
		return nil
	}
	return fn()
}
