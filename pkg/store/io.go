package store

import (
	"io"
	"time"

	"github.com/marmos91/guardfs/internal/logger"
	storeerrors "github.com/marmos91/guardfs/pkg/store/errors"
	"github.com/marmos91/guardfs/pkg/store/handle"
)

// ============================================================================
// Handle I/O
// ============================================================================

// withRecord resolves a live handle to its record and runs fn while holding
// the namespace read lock, so the record cannot be removed underneath fn.
// fn is responsible for locking rec.mu.
func (s *Store) withRecord(id handle.ID, fn func(h *handle.Handle, rec *fileRecord) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	h, ok := s.handles.Get(id)
	if !ok {
		return storeerrors.NewInvalidHandleError(uint64(id))
	}

	rec, exists := s.files[h.Name]
	if !exists {
		// Unreachable while the delete guard holds; report the handle as stale.
		return storeerrors.NewInvalidHandleError(uint64(id))
	}

	return fn(h, rec)
}

// Write writes data at the handle position and advances it. Consecutive
// writes through a fresh handle therefore append in call order. Writing past
// end of file zero-fills the gap. When the file would outgrow MaxFileSize or
// the configured capacity would be exceeded nothing is written.
func (s *Store) Write(id handle.ID, data []byte) (n int, err error) {
	start := time.Now()
	defer func() { s.observe(OpWrite, start, err) }()

	err = s.withRecord(id, func(h *handle.Handle, rec *fileRecord) error {
		if !h.Access.CanWrite() {
			return storeerrors.NewAccessDeniedError("handle not open for writing")
		}

		rec.mu.Lock()
		defer rec.mu.Unlock()

		pos := h.Offset()
		if h.Access.Appends() {
			pos = int64(len(rec.data))
		}

		if err := s.checkFileSize(pos, int64(len(data))); err != nil {
			return err
		}
		end := pos + int64(len(data))

		if grow := end - int64(len(rec.data)); grow > 0 {
			// Bytes are charged only once the buffer exists.
			grown := growBuffer(rec.data, int(end))
			if err := s.reserveBytes(uint64(grow)); err != nil {
				return err
			}
			rec.data = grown
		}

		n = copy(rec.data[pos:end], data)
		h.SetOffset(end)
		rec.modifiedAt = time.Now()

		s.metrics.ObserveBytesWritten(n)
		logger.Debug("Write",
			logger.Handle(uint64(id)),
			logger.Filename(rec.name),
			logger.Offset(pos),
			logger.BytesWritten(n))
		return nil
	})
	if err != nil {
		return 0, err
	}
	return n, nil
}

// checkFileSize fails when writing length bytes at pos would leave the file
// larger than MaxFileSize. pos and length are non-negative.
func (s *Store) checkFileSize(pos, length int64) error {
	limit := int64(s.config.MaxFileSize)
	if length > limit || pos > limit-length {
		s.metrics.ObserveLimitHit("file_size")
		return storeerrors.NewResourceExhaustedError("file_size", s.config.MaxFileSize)
	}
	return nil
}

// growBuffer extends buf to size, zero-filling new bytes.
func growBuffer(buf []byte, size int) []byte {
	if size <= cap(buf) {
		old := len(buf)
		buf = buf[:size]
		clear(buf[old:])
		return buf
	}
	grown := make([]byte, size, max(size, 2*cap(buf)))
	copy(grown, buf)
	return grown
}

// Read returns up to count bytes from the handle position and advances it.
// At end of file it returns an empty slice and no error.
func (s *Store) Read(id handle.ID, count int) (data []byte, err error) {
	start := time.Now()
	defer func() { s.observe(OpRead, start, err) }()

	if count < 0 {
		return nil, storeerrors.NewInvalidArgumentError("read count cannot be negative")
	}

	err = s.withRecord(id, func(h *handle.Handle, rec *fileRecord) error {
		if !h.Access.CanRead() {
			return storeerrors.NewAccessDeniedError("handle not open for reading")
		}

		rec.mu.RLock()
		defer rec.mu.RUnlock()

		pos := h.Offset()
		size := int64(len(rec.data))
		if pos >= size {
			data = []byte{}
			return nil
		}

		end := pos + min(int64(count), size-pos)
		data = make([]byte, end-pos)
		copy(data, rec.data[pos:end])
		h.SetOffset(end)

		s.metrics.ObserveBytesRead(len(data))
		logger.Debug("Read",
			logger.Handle(uint64(id)),
			logger.Filename(rec.name),
			logger.Offset(pos),
			logger.BytesRead(len(data)))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return data, nil
}

// Seek moves the handle position. whence is io.SeekStart, io.SeekCurrent or
// io.SeekEnd. Positions beyond end of file are allowed up to MaxFileSize;
// negative positions are not.
func (s *Store) Seek(id handle.ID, offset int64, whence int) (pos int64, err error) {
	start := time.Now()
	defer func() { s.observe(OpSeek, start, err) }()

	err = s.withRecord(id, func(h *handle.Handle, rec *fileRecord) error {
		var base int64
		switch whence {
		case io.SeekStart:
		case io.SeekCurrent:
			base = h.Offset()
		case io.SeekEnd:
			rec.mu.RLock()
			base = int64(len(rec.data))
			rec.mu.RUnlock()
		default:
			return storeerrors.NewInvalidArgumentError("invalid whence")
		}

		limit := int64(s.config.MaxFileSize)
		switch {
		case offset > limit-base:
			return storeerrors.NewInvalidArgumentError("position beyond maximum file size")
		case offset < -base:
			return storeerrors.NewInvalidArgumentError("negative position")
		}
		pos = base + offset
		h.SetOffset(pos)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return pos, nil
}

// Tell returns the handle position.
func (s *Store) Tell(id handle.ID) (pos int64, err error) {
	start := time.Now()
	defer func() { s.observe(OpTell, start, err) }()

	h, ok := s.handles.Get(id)
	if !ok {
		return 0, storeerrors.NewInvalidHandleError(uint64(id))
	}
	return h.Offset(), nil
}

// EOF reports whether the handle position is at or past end of file.
func (s *Store) EOF(id handle.ID) (eof bool, err error) {
	start := time.Now()
	defer func() { s.observe(OpEOF, start, err) }()

	err = s.withRecord(id, func(h *handle.Handle, rec *fileRecord) error {
		rec.mu.RLock()
		defer rec.mu.RUnlock()
		eof = h.Offset() >= int64(len(rec.data))
		return nil
	})
	return eof, err
}

// Truncate resizes the file through a write handle. Growing zero-fills.
// Positions of handles are not changed.
func (s *Store) Truncate(id handle.ID, size int64) (err error) {
	start := time.Now()
	defer func() { s.observe(OpTruncate, start, err) }()

	if size < 0 {
		return storeerrors.NewInvalidArgumentError("size cannot be negative")
	}

	return s.withRecord(id, func(h *handle.Handle, rec *fileRecord) error {
		if !h.Access.CanWrite() {
			return storeerrors.NewAccessDeniedError("handle not open for writing")
		}

		rec.mu.Lock()
		defer rec.mu.Unlock()

		current := int64(len(rec.data))
		switch {
		case size > current:
			if err := s.checkFileSize(0, size); err != nil {
				return err
			}
			grown := growBuffer(rec.data, int(size))
			if err := s.reserveBytes(uint64(size - current)); err != nil {
				return err
			}
			rec.data = grown
		case size < current:
			s.releaseBytes(uint64(current - size))
			rec.data = rec.data[:size]
		}
		rec.modifiedAt = time.Now()

		logger.Debug("Truncate", logger.Handle(uint64(id)), logger.Filename(rec.name), logger.Size(size))
		return nil
	})
}

// Flush validates the handle. Content lives in memory, so there is nothing
// to write back.
func (s *Store) Flush(id handle.ID) (err error) {
	start := time.Now()
	defer func() { s.observe(OpFlush, start, err) }()

	if _, ok := s.handles.Get(id); !ok {
		return storeerrors.NewInvalidHandleError(uint64(id))
	}
	return nil
}

// FStat returns information about the file referenced by a live handle.
func (s *Store) FStat(id handle.ID) (info FileInfo, err error) {
	start := time.Now()
	defer func() { s.observe(OpFStat, start, err) }()

	err = s.withRecord(id, func(_ *handle.Handle, rec *fileRecord) error {
		info = s.fileInfo(rec)
		return nil
	})
	return info, err
}
