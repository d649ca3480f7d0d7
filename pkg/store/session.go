package store

import (
	"fmt"
	"sort"
	"sync"
	"time"

	storeerrors "github.com/marmos91/guardfs/pkg/store/errors"
	"github.com/marmos91/guardfs/pkg/store/handle"
)

// Session is a caller's view of a Store that remembers the status of the
// last operation it performed, the way a shell exposes $?.
//
// A session also tracks the handles it opened so they can be released when
// the session ends. Handles are not private to a session: any session may
// use or close any live handle.
type Session struct {
	store *Store

	mu         sync.Mutex
	lastStatus int
	lastErr    error
	opened     map[handle.ID]struct{}
	closed     bool
	createdAt  time.Time
	lastUsed   time.Time
	operations uint64
}

// NewSession creates a session over s with a clean status register.
func NewSession(s *Store) *Session {
	now := time.Now()
	return &Session{
		store:     s,
		opened:    make(map[handle.ID]struct{}),
		createdAt: now,
		lastUsed:  now,
	}
}

// record stores the outcome of an operation and returns err unchanged.
func (ss *Session) record(err error) error {
	ss.mu.Lock()
	defer ss.mu.Unlock()

	ss.lastStatus = storeerrors.StatusOf(err)
	ss.lastErr = err
	ss.lastUsed = time.Now()
	ss.operations++
	return err
}

// Reject records err as the outcome of an operation refused before it
// reached the store, such as a request with malformed arguments.
func (ss *Session) Reject(err error) error {
	return ss.record(err)
}

// LastStatus returns the status code of the last operation: 0 on success,
// a negative code otherwise (Busy is -1).
func (ss *Session) LastStatus() int {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	return ss.lastStatus
}

// LastError returns the error of the last operation, or nil.
func (ss *Session) LastError() error {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	return ss.lastErr
}

// ResetStatus clears the status register.
func (ss *Session) ResetStatus() {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	ss.lastStatus = storeerrors.StatusOK
	ss.lastErr = nil
}

// SessionStats is a point-in-time summary of a session.
type SessionStats struct {
	LastStatus  int         `json:"last_status"`
	Operations  uint64      `json:"operations"`
	OpenHandles []handle.ID `json:"open_handles"`
	CreatedAt   time.Time   `json:"created_at"`
	LastUsed    time.Time   `json:"last_used"`
}

// Stats returns a summary of the session.
func (ss *Session) Stats() SessionStats {
	ss.mu.Lock()
	defer ss.mu.Unlock()

	ids := make([]handle.ID, 0, len(ss.opened))
	for id := range ss.opened {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	return SessionStats{
		LastStatus:  ss.lastStatus,
		Operations:  ss.operations,
		OpenHandles: ids,
		CreatedAt:   ss.createdAt,
		LastUsed:    ss.lastUsed,
	}
}

// LastUsed returns when the session last performed an operation.
func (ss *Session) LastUsed() time.Time {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	return ss.lastUsed
}

// track records id as owned by the session. It reports false once the
// session has ended, in which case the caller must release the handle.
func (ss *Session) track(id handle.ID) bool {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	if ss.closed {
		return false
	}
	ss.opened[id] = struct{}{}
	return true
}

func (ss *Session) untrack(id handle.ID) {
	ss.mu.Lock()
	delete(ss.opened, id)
	ss.mu.Unlock()
}

// CloseAll ends the session: it releases every handle the session opened
// that is still live and returns how many were closed. Opens still in flight
// release their handle instead of handing it out. The status register is
// not touched.
func (ss *Session) CloseAll() int {
	ss.mu.Lock()
	ids := make([]handle.ID, 0, len(ss.opened))
	for id := range ss.opened {
		ids = append(ids, id)
	}
	ss.opened = make(map[handle.ID]struct{})
	ss.closed = true
	ss.mu.Unlock()

	closed := 0
	for _, id := range ids {
		if err := ss.store.Close(id); err == nil {
			closed++
		}
	}
	return closed
}

// ============================================================================
// Store Operations
// ============================================================================

// CreateOrOpen is Store.CreateOrOpen with status recording.
func (ss *Session) CreateOrOpen(name string) (handle.ID, error) {
	return ss.Open(name, OpenCreateOrOpen)
}

// Open is Store.Open with status recording.
func (ss *Session) Open(name string, flags OpenFlag) (handle.ID, error) {
	id, err := ss.store.Open(name, flags)
	if err == nil && !ss.track(id) {
		_ = ss.store.Close(id)
		err = fmt.Errorf("session ended during open: %w", storeerrors.NewInvalidHandleError(uint64(id)))
		id = 0
	}
	return id, ss.record(err)
}

// Write is Store.Write with status recording.
func (ss *Session) Write(id handle.ID, data []byte) (int, error) {
	n, err := ss.store.Write(id, data)
	return n, ss.record(err)
}

// Read is Store.Read with status recording.
func (ss *Session) Read(id handle.ID, count int) ([]byte, error) {
	data, err := ss.store.Read(id, count)
	return data, ss.record(err)
}

// Seek is Store.Seek with status recording.
func (ss *Session) Seek(id handle.ID, offset int64, whence int) (int64, error) {
	pos, err := ss.store.Seek(id, offset, whence)
	return pos, ss.record(err)
}

// Tell is Store.Tell with status recording.
func (ss *Session) Tell(id handle.ID) (int64, error) {
	pos, err := ss.store.Tell(id)
	return pos, ss.record(err)
}

// EOF is Store.EOF with status recording.
func (ss *Session) EOF(id handle.ID) (bool, error) {
	eof, err := ss.store.EOF(id)
	return eof, ss.record(err)
}

// Truncate is Store.Truncate with status recording.
func (ss *Session) Truncate(id handle.ID, size int64) error {
	return ss.record(ss.store.Truncate(id, size))
}

// Flush is Store.Flush with status recording.
func (ss *Session) Flush(id handle.ID) error {
	return ss.record(ss.store.Flush(id))
}

// Close is Store.Close with status recording.
func (ss *Session) Close(id handle.ID) error {
	err := ss.store.Close(id)
	if err == nil {
		ss.untrack(id)
	}
	return ss.record(err)
}

// Delete is Store.Delete with status recording.
func (ss *Session) Delete(name string) error {
	return ss.record(ss.store.Delete(name))
}

// Rename is Store.Rename with status recording.
func (ss *Session) Rename(oldName, newName string) error {
	return ss.record(ss.store.Rename(oldName, newName))
}

// Stat is Store.Stat with status recording.
func (ss *Session) Stat(name string) (FileInfo, error) {
	info, err := ss.store.Stat(name)
	return info, ss.record(err)
}

// FStat is Store.FStat with status recording.
func (ss *Session) FStat(id handle.ID) (FileInfo, error) {
	info, err := ss.store.FStat(id)
	return info, ss.record(err)
}

// List is Store.List with status recording.
func (ss *Session) List() []FileInfo {
	infos := ss.store.List()
	_ = ss.record(nil)
	return infos
}

// Space is Store.Space with status recording.
func (ss *Session) Space() SpaceInfo {
	info := ss.store.Space()
	_ = ss.record(nil)
	return info
}

// Format is Store.Format with status recording.
func (ss *Session) Format() error {
	return ss.record(ss.store.Format())
}
