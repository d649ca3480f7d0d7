package store

import (
	"strings"

	storeerrors "github.com/marmos91/guardfs/pkg/store/errors"
	"github.com/marmos91/guardfs/pkg/store/handle"
)

// OpenFlag controls how Open resolves a name and what the resulting handle
// may do.
type OpenFlag uint32

const (
	// OpenRead grants read access.
	OpenRead OpenFlag = 1 << iota

	// OpenWrite grants write and truncate access.
	OpenWrite

	// OpenCreate creates the file when it does not exist.
	OpenCreate

	// OpenTruncate empties existing content. Requires OpenWrite.
	OpenTruncate

	// OpenAppend positions every write at end of file. Requires OpenWrite.
	OpenAppend

	// OpenExcl makes OpenCreate fail when the file already exists.
	OpenExcl
)

// OpenCreateOrOpen is the flag set used by CreateOrOpen.
const OpenCreateOrOpen = OpenRead | OpenWrite | OpenCreate

var flagNames = []struct {
	flag OpenFlag
	name string
}{
	{OpenRead, "read"},
	{OpenWrite, "write"},
	{OpenCreate, "create"},
	{OpenTruncate, "truncate"},
	{OpenAppend, "append"},
	{OpenExcl, "excl"},
}

// Has reports whether all bits of other are set.
func (f OpenFlag) Has(other OpenFlag) bool {
	return f&other == other
}

// String returns the flag names joined by '|'.
func (f OpenFlag) String() string {
	if f == 0 {
		return "none"
	}
	var parts []string
	for _, fn := range flagNames {
		if f.Has(fn.flag) {
			parts = append(parts, fn.name)
		}
	}
	return strings.Join(parts, "|")
}

// ParseOpenFlags parses a list of flag names ("read", "write", "create",
// "truncate", "append", "excl") or their single-letter forms (r, w, c, t,
// a, x). An empty list yields OpenCreateOrOpen.
func ParseOpenFlags(names []string) (OpenFlag, error) {
	if len(names) == 0 {
		return OpenCreateOrOpen, nil
	}

	var flags OpenFlag
	for _, raw := range names {
		switch strings.ToLower(strings.TrimSpace(raw)) {
		case "read", "r":
			flags |= OpenRead
		case "write", "w":
			flags |= OpenWrite
		case "create", "c":
			flags |= OpenCreate
		case "truncate", "trunc", "t":
			flags |= OpenTruncate
		case "append", "a":
			flags |= OpenAppend
		case "excl", "x":
			flags |= OpenExcl
		case "":
		default:
			return 0, storeerrors.NewInvalidArgumentError("unknown open flag: " + raw)
		}
	}
	return flags, nil
}

// validate checks flag combinations.
func (f OpenFlag) validate() error {
	if !f.Has(OpenRead) && !f.Has(OpenWrite) {
		return storeerrors.NewInvalidArgumentError("open requires read or write access")
	}
	if f.Has(OpenTruncate) && !f.Has(OpenWrite) {
		return storeerrors.NewInvalidArgumentError("truncate requires write access")
	}
	if f.Has(OpenAppend) && !f.Has(OpenWrite) {
		return storeerrors.NewInvalidArgumentError("append requires write access")
	}
	if f.Has(OpenExcl) && !f.Has(OpenCreate) {
		return storeerrors.NewInvalidArgumentError("excl requires create")
	}
	return nil
}

// access converts open flags to the access mode recorded on the handle.
func (f OpenFlag) access() handle.Access {
	var a handle.Access
	if f.Has(OpenRead) {
		a |= handle.AccessRead
	}
	if f.Has(OpenWrite) {
		a |= handle.AccessWrite
	}
	if f.Has(OpenAppend) {
		a |= handle.AccessAppend
	}
	return a
}
