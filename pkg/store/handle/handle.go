// Package handle implements the handle table of the file store: the
// authoritative record of which handles are live, which file each one
// references and how many live handles each file name has.
//
// The table is pure in-memory bookkeeping. It knows nothing about file
// content; the store consults it to decide whether a file may be deleted.
package handle

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"

	storeerrors "github.com/marmos91/guardfs/pkg/store/errors"
)

// ID identifies a live handle. IDs are drawn from a counter that only moves
// forward, so an ID is never issued twice during the lifetime of a table.
type ID uint64

// Access describes what a handle may do with the file it references.
type Access uint8

const (
	// AccessRead allows reading through the handle.
	AccessRead Access = 1 << iota

	// AccessWrite allows writing and truncating through the handle.
	AccessWrite

	// AccessAppend moves the position to end of file before every write.
	AccessAppend
)

// CanRead reports whether the access mode includes read permission.
func (a Access) CanRead() bool { return a&AccessRead != 0 }

// CanWrite reports whether the access mode includes write permission.
func (a Access) CanWrite() bool { return a&AccessWrite != 0 }

// Appends reports whether writes always go to end of file.
func (a Access) Appends() bool { return a&AccessAppend != 0 }

// String returns a compact rwa-style representation.
func (a Access) String() string {
	b := []byte("---")
	if a.CanRead() {
		b[0] = 'r'
	}
	if a.CanWrite() {
		b[1] = 'w'
	}
	if a.Appends() {
		b[2] = 'a'
	}
	return string(b)
}

// Handle is a live registration in the table.
//
// Name and Access are immutable once the handle is registered. The position
// is updated by the store through Offset/SetOffset.
type Handle struct {
	ID       ID
	Name     string
	Access   Access
	OpenedAt time.Time

	offset atomic.Int64
}

// Offset returns the current file position of the handle.
func (h *Handle) Offset() int64 {
	return h.offset.Load()
}

// SetOffset moves the file position of the handle.
func (h *Handle) SetOffset(off int64) {
	h.offset.Store(off)
}

// Table maps handle IDs to the file they reference and keeps a live
// open count per file name.
//
// Thread Safety: all methods are safe for concurrent use.
type Table struct {
	mu sync.RWMutex

	// handles maps live handle IDs to their registration.
	handles map[ID]*Handle

	// byName maps a file name to the set of live handle IDs referencing it.
	// The open count of a name is the size of its set; empty sets are removed.
	byName map[string]map[ID]struct{}

	// maxHandles caps the number of live handles. Zero means unlimited.
	maxHandles int

	nextID atomic.Uint64
}

// NewTable creates an empty handle table. maxHandles limits the number of
// simultaneously live handles; zero disables the limit.
func NewTable(maxHandles int) *Table {
	if maxHandles < 0 {
		maxHandles = 0
	}
	return &Table{
		handles:    make(map[ID]*Handle),
		byName:     make(map[string]map[ID]struct{}),
		maxHandles: maxHandles,
	}
}

// generateID returns the next handle ID. The first ID issued is 1, so the
// zero value never identifies a live handle.
func (t *Table) generateID() ID {
	return ID(t.nextID.Add(1))
}

// RegisterOpen allocates a fresh handle for name and increments the open
// count of name. It fails with ResourceExhausted only when a handle limit
// is configured and reached.
func (t *Table) RegisterOpen(name string, access Access) (*Handle, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.maxHandles > 0 && len(t.handles) >= t.maxHandles {
		return nil, storeerrors.NewResourceExhaustedError("open handles", uint64(t.maxHandles))
	}

	h := &Handle{
		ID:       t.generateID(),
		Name:     name,
		Access:   access,
		OpenedAt: time.Now(),
	}
	t.handles[h.ID] = h

	set, ok := t.byName[name]
	if !ok {
		set = make(map[ID]struct{})
		t.byName[name] = set
	}
	set[h.ID] = struct{}{}

	return h, nil
}

// Release marks id as no longer live, decrements the open count of the file
// it referenced and returns that file's name. Releasing an ID that is not
// live (already released or never issued) fails with InvalidHandle and
// changes nothing.
func (t *Table) Release(id ID) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	h, ok := t.handles[id]
	if !ok {
		return "", storeerrors.NewInvalidHandleError(uint64(id))
	}
	delete(t.handles, id)

	if set, ok := t.byName[h.Name]; ok {
		delete(set, id)
		if len(set) == 0 {
			delete(t.byName, h.Name)
		}
	}

	return h.Name, nil
}

// OpenCount returns the number of live handles referencing name. Unknown
// names have an open count of zero.
func (t *Table) OpenCount(name string) int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.byName[name])
}

// Get returns the live handle registered under id.
func (t *Table) Get(id ID) (*Handle, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	h, ok := t.handles[id]
	return h, ok
}

// Lookup returns the name of the file referenced by a live handle.
func (t *Table) Lookup(id ID) (string, bool) {
	h, ok := t.Get(id)
	if !ok {
		return "", false
	}
	return h.Name, true
}

// Len returns the total number of live handles.
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.handles)
}

// Handles returns the live handle IDs referencing name in ascending order.
func (t *Table) Handles(name string) []ID {
	t.mu.RLock()
	set := t.byName[name]
	ids := make([]ID, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	t.mu.RUnlock()

	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
