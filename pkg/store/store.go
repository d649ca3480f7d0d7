// Package store implements an in-memory file store whose delete operation is
// guarded by the number of open handles on each file.
//
// The store owns the file namespace (name -> record) and delegates handle
// bookkeeping to a handle.Table. A file that has at least one live handle
// cannot be deleted, renamed or formatted away: those operations fail fast
// with a Busy error instead of waiting.
//
// Locking:
//   - mu guards the namespace. Inserting or removing a name takes the write
//     lock. Every other operation, including handle registration, holds the
//     read lock, so a delete can never interleave with an open of the same
//     name.
//   - each record has its own mutex for content and timestamps, so I/O on
//     different files proceeds independently.
//   - the handle table has its own lock and is always acquired after mu.
package store

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/marmos91/guardfs/internal/logger"
	"github.com/marmos91/guardfs/pkg/metrics"
	storeerrors "github.com/marmos91/guardfs/pkg/store/errors"
	"github.com/marmos91/guardfs/pkg/store/handle"
)

// Operation names used for logging and metrics.
const (
	OpOpen     = "open"
	OpWrite    = "write"
	OpRead     = "read"
	OpSeek     = "seek"
	OpTell     = "tell"
	OpEOF      = "eof"
	OpTruncate = "truncate"
	OpFlush    = "flush"
	OpClose    = "close"
	OpDelete   = "delete"
	OpRename   = "rename"
	OpStat     = "stat"
	OpFStat    = "fstat"
	OpList     = "list"
	OpSpace    = "space"
	OpFormat   = "format"
)

// fileRecord is the in-memory representation of a stored file.
type fileRecord struct {
	mu sync.RWMutex

	name       string
	data       []byte
	generation uint64
	createdAt  time.Time
	modifiedAt time.Time
}

// FileInfo describes a file at the time it was inspected.
type FileInfo struct {
	Name       string    `json:"name"`
	Size       int64     `json:"size"`
	OpenCount  int       `json:"open_count"`
	Generation uint64    `json:"generation"`
	CreatedAt  time.Time `json:"created_at"`
	ModifiedAt time.Time `json:"modified_at"`
}

// SpaceInfo reports capacity usage. Total and Free are zero when the store
// has no capacity limit.
type SpaceInfo struct {
	Total       uint64 `json:"total"`
	Used        uint64 `json:"used"`
	Free        uint64 `json:"free"`
	Files       int    `json:"files"`
	MaxFiles    int    `json:"max_files"`
	OpenHandles int    `json:"open_handles"`
	MaxHandles  int    `json:"max_handles"`
}

// Store is an in-memory file store with a handle-count delete guard.
//
// Thread Safety: all methods are safe for concurrent use.
type Store struct {
	mu    sync.RWMutex
	files map[string]*fileRecord

	// generation is incremented for every record created. Protected by mu (write).
	generation uint64

	// usedBytes is the total content size across all records.
	usedBytes atomic.Uint64

	handles *handle.Table
	config  Config
	metrics *metrics.Metrics
}

// New creates an empty store. m may be nil to disable metrics.
func New(config Config, m *metrics.Metrics) *Store {
	config.applyDefaults()

	return &Store{
		files:   make(map[string]*fileRecord),
		handles: handle.NewTable(config.MaxHandles),
		config:  config,
		metrics: m,
	}
}

// Config returns the effective configuration of the store.
func (s *Store) Config() Config {
	return s.config
}

// Handles exposes the handle table for diagnostics.
func (s *Store) Handles() *handle.Table {
	return s.handles
}

// OpenCount returns the number of live handles referencing name.
func (s *Store) OpenCount(name string) int {
	return s.handles.OpenCount(name)
}

// ============================================================================
// Namespace Operations
// ============================================================================

// CreateOrOpen opens name for reading and writing, creating an empty file
// when it does not exist.
func (s *Store) CreateOrOpen(name string) (handle.ID, error) {
	return s.Open(name, OpenCreateOrOpen)
}

// Open resolves name according to flags and registers a new handle on it.
func (s *Store) Open(name string, flags OpenFlag) (id handle.ID, err error) {
	start := time.Now()
	defer func() { s.observe(OpOpen, start, err) }()

	if err := s.validateName(name); err != nil {
		return 0, err
	}
	if err := flags.validate(); err != nil {
		return 0, err
	}

	s.mu.RLock()
	rec, exists := s.files[name]
	if exists {
		id, err = s.openExisting(rec, flags)
		s.mu.RUnlock()
		return id, err
	}
	s.mu.RUnlock()

	if !flags.Has(OpenCreate) {
		return 0, storeerrors.NewNotFoundError(name)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Another caller may have created the file between the two locks.
	if rec, exists := s.files[name]; exists {
		return s.openExisting(rec, flags)
	}

	if s.config.MaxFiles > 0 && len(s.files) >= s.config.MaxFiles {
		s.metrics.ObserveLimitHit("files")
		return 0, storeerrors.NewResourceExhaustedError("files", uint64(s.config.MaxFiles))
	}

	h, err := s.registerHandle(name, flags)
	if err != nil {
		return 0, err
	}

	now := time.Now()
	s.generation++
	s.files[name] = &fileRecord{
		name:       name,
		generation: s.generation,
		createdAt:  now,
		modifiedAt: now,
	}
	s.metrics.SetFiles(len(s.files))

	logger.Debug("File created",
		logger.Filename(name),
		logger.Handle(uint64(h.ID)),
		logger.Generation(s.generation),
		logger.Flags(flags.String()))

	return h.ID, nil
}

// openExisting registers a handle on an existing record. Callers hold s.mu
// (read or write).
func (s *Store) openExisting(rec *fileRecord, flags OpenFlag) (handle.ID, error) {
	if flags.Has(OpenCreate | OpenExcl) {
		return 0, storeerrors.NewAlreadyExistsError(rec.name)
	}

	h, err := s.registerHandle(rec.name, flags)
	if err != nil {
		return 0, err
	}

	if flags.Has(OpenTruncate) {
		rec.mu.Lock()
		s.releaseBytes(uint64(len(rec.data)))
		rec.data = nil
		rec.modifiedAt = time.Now()
		rec.mu.Unlock()
	}

	logger.Debug("File opened",
		logger.Filename(rec.name),
		logger.Handle(uint64(h.ID)),
		logger.OpenCount(s.handles.OpenCount(rec.name)),
		logger.Flags(flags.String()))

	return h.ID, nil
}

func (s *Store) registerHandle(name string, flags OpenFlag) (*handle.Handle, error) {
	h, err := s.handles.RegisterOpen(name, flags.access())
	if err != nil {
		if storeerrors.IsResourceExhaustedError(err) {
			s.metrics.ObserveLimitHit("handles")
		}
		return nil, err
	}
	s.metrics.SetOpenHandles(s.handles.Len())
	return h, nil
}

// Close releases a handle. Closing a handle that is not live fails with
// InvalidHandle and changes nothing.
func (s *Store) Close(id handle.ID) (err error) {
	start := time.Now()
	defer func() { s.observe(OpClose, start, err) }()

	name, err := s.handles.Release(id)
	if err != nil {
		return err
	}
	s.metrics.SetOpenHandles(s.handles.Len())

	logger.Debug("File closed",
		logger.Filename(name),
		logger.Handle(uint64(id)),
		logger.OpenCount(s.handles.OpenCount(name)))

	return nil
}

// Delete removes name from the store.
//
// It fails with NotFound when the file does not exist and with Busy when the
// file has live handles, in which case the file and its handles are left
// untouched. After a successful delete the name may be reused; a new file
// created under it starts empty.
func (s *Store) Delete(name string) (err error) {
	start := time.Now()
	defer func() { s.observe(OpDelete, start, err) }()

	s.mu.Lock()
	defer s.mu.Unlock()

	rec, exists := s.files[name]
	if !exists {
		return storeerrors.NewNotFoundError(name)
	}

	if count := s.handles.OpenCount(name); count > 0 {
		s.metrics.ObserveBusyDelete()
		logger.Warn("Delete rejected: file is open",
			logger.Filename(name),
			logger.OpenCount(count),
			logger.Status(storeerrors.StatusBusy))
		return storeerrors.NewBusyError(name, count)
	}

	delete(s.files, name)

	rec.mu.Lock()
	s.releaseBytes(uint64(len(rec.data)))
	rec.data = nil
	rec.mu.Unlock()

	s.metrics.SetFiles(len(s.files))

	logger.Debug("File deleted", logger.Filename(name), logger.Generation(rec.generation))
	return nil
}

// Rename moves a closed file to a new name.
func (s *Store) Rename(oldName, newName string) (err error) {
	start := time.Now()
	defer func() { s.observe(OpRename, start, err) }()

	if err := s.validateName(newName); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rec, exists := s.files[oldName]
	if !exists {
		return storeerrors.NewNotFoundError(oldName)
	}
	if count := s.handles.OpenCount(oldName); count > 0 {
		return storeerrors.NewBusyError(oldName, count)
	}
	if oldName == newName {
		return nil
	}
	if _, taken := s.files[newName]; taken {
		return storeerrors.NewAlreadyExistsError(newName)
	}

	delete(s.files, oldName)
	rec.mu.Lock()
	rec.name = newName
	rec.mu.Unlock()
	s.files[newName] = rec

	logger.Debug("File renamed", logger.OldName(oldName), logger.NewName(newName))
	return nil
}

// Stat returns information about a file by name.
func (s *Store) Stat(name string) (info FileInfo, err error) {
	start := time.Now()
	defer func() { s.observe(OpStat, start, err) }()

	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, exists := s.files[name]
	if !exists {
		return FileInfo{}, storeerrors.NewNotFoundError(name)
	}
	return s.fileInfo(rec), nil
}

// List returns information about every file, sorted by name.
func (s *Store) List() []FileInfo {
	start := time.Now()
	defer s.observe(OpList, start, nil)

	s.mu.RLock()
	defer s.mu.RUnlock()

	infos := make([]FileInfo, 0, len(s.files))
	for _, rec := range s.files {
		infos = append(infos, s.fileInfo(rec))
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos
}

// Space reports capacity usage.
func (s *Store) Space() SpaceInfo {
	start := time.Now()
	defer s.observe(OpSpace, start, nil)

	s.mu.RLock()
	files := len(s.files)
	s.mu.RUnlock()

	used := s.usedBytes.Load()
	info := SpaceInfo{
		Total:       s.config.Capacity,
		Used:        used,
		Files:       files,
		MaxFiles:    s.config.MaxFiles,
		OpenHandles: s.handles.Len(),
		MaxHandles:  s.config.MaxHandles,
	}
	if s.config.Capacity > used {
		info.Free = s.config.Capacity - used
	}
	return info
}

// Format removes every file. It fails with Busy while any handle is open.
func (s *Store) Format() (err error) {
	start := time.Now()
	defer func() { s.observe(OpFormat, start, err) }()

	s.mu.Lock()
	defer s.mu.Unlock()

	if open := s.handles.Len(); open > 0 {
		return storeerrors.NewBusyError("", open)
	}

	removed := len(s.files)
	s.files = make(map[string]*fileRecord)
	s.usedBytes.Store(0)
	s.metrics.SetFiles(0)
	s.metrics.SetBytesStored(0)

	logger.Info("Store formatted", "files_removed", removed)
	return nil
}

// ============================================================================
// Helpers
// ============================================================================

// fileInfo snapshots rec. Callers hold s.mu.
func (s *Store) fileInfo(rec *fileRecord) FileInfo {
	rec.mu.RLock()
	defer rec.mu.RUnlock()

	return FileInfo{
		Name:       rec.name,
		Size:       int64(len(rec.data)),
		OpenCount:  s.handles.OpenCount(rec.name),
		Generation: rec.generation,
		CreatedAt:  rec.createdAt,
		ModifiedAt: rec.modifiedAt,
	}
}

func (s *Store) validateName(name string) error {
	if name == "" {
		return storeerrors.NewInvalidArgumentError("file name cannot be empty")
	}
	if len(name) > s.config.MaxNameLength {
		return storeerrors.NewInvalidArgumentError("file name too long")
	}
	for i := 0; i < len(name); i++ {
		if name[i] == 0 {
			return storeerrors.NewInvalidArgumentError("file name contains NUL byte")
		}
	}
	return nil
}

// reserveBytes accounts for n additional content bytes, failing when the
// configured capacity would be exceeded.
func (s *Store) reserveBytes(n uint64) error {
	if n == 0 {
		return nil
	}
	for {
		used := s.usedBytes.Load()
		if s.config.Capacity > 0 && used+n > s.config.Capacity {
			s.metrics.ObserveLimitHit("bytes")
			return storeerrors.NewResourceExhaustedError("capacity", s.config.Capacity)
		}
		if s.usedBytes.CompareAndSwap(used, used+n) {
			s.metrics.SetBytesStored(used + n)
			return nil
		}
	}
}

func (s *Store) releaseBytes(n uint64) {
	if n == 0 {
		return
	}
	for {
		used := s.usedBytes.Load()
		next := uint64(0)
		if used > n {
			next = used - n
		}
		if s.usedBytes.CompareAndSwap(used, next) {
			s.metrics.SetBytesStored(next)
			return
		}
	}
}

func (s *Store) observe(op string, start time.Time, err error) {
	s.metrics.ObserveOperation(op, err, time.Since(start))
	if err != nil {
		logger.Debug("Store operation failed",
			logger.Operation(op),
			logger.Status(storeerrors.StatusOf(err)),
			logger.Err(err))
	}
}
