package handlers

import (
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/marmos91/guardfs/internal/logger"
	"github.com/marmos91/guardfs/internal/telemetry"
	"github.com/marmos91/guardfs/pkg/store"
	storeerrors "github.com/marmos91/guardfs/pkg/store/errors"
	"github.com/marmos91/guardfs/pkg/store/handle"
)

// WriteRequest is the body of POST /handles/{id}/write. Data travels as
// standard base64 in JSON.
type WriteRequest struct {
	Data []byte `json:"data"`
}

// SeekRequest is the body of POST /handles/{id}/seek. Whence is "set"
// (default), "cur" or "end".
type SeekRequest struct {
	Offset int64  `json:"offset"`
	Whence string `json:"whence,omitempty"`
}

// TruncateRequest is the body of POST /handles/{id}/truncate.
type TruncateRequest struct {
	Size int64 `json:"size"`
}

// HandleResponse describes a live handle and the file behind it.
type HandleResponse struct {
	Result
	Handle   handle.ID       `json:"handle"`
	Position int64           `json:"position"`
	EOF      bool            `json:"eof"`
	File     *store.FileInfo `json:"file,omitempty"`
}

// WriteResponse reports the bytes accepted by a write.
type WriteResponse struct {
	Result
	Written int `json:"written"`
}

// ReadResponse carries the bytes returned by a read as base64. EOF is set
// when fewer bytes than requested were available.
type ReadResponse struct {
	Result
	Data  []byte `json:"data"`
	Count int    `json:"count"`
	EOF   bool   `json:"eof"`
}

// SeekResponse reports the new handle position.
type SeekResponse struct {
	Result
	Position int64 `json:"position"`
}

// ParseWhence converts a whence name to io.SeekStart, io.SeekCurrent or
// io.SeekEnd.
func ParseWhence(s string) (int, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "set", "start", "0":
		return io.SeekStart, nil
	case "cur", "current", "1":
		return io.SeekCurrent, nil
	case "end", "2":
		return io.SeekEnd, nil
	default:
		return 0, storeerrors.NewInvalidArgumentError("invalid whence: " + s)
	}
}

// FStat handles GET /api/v1/handles/{id}.
func (h *StoreHandler) FStat(w http.ResponseWriter, r *http.Request) {
	sess, ok := sessionOrError(w, r)
	if !ok {
		return
	}
	id, ok := handleIDOrError(w, r)
	if !ok {
		return
	}

	op := beginOp(r, "fstat", telemetry.Handle(uint64(id)))
	info, err := sess.FStat(id)
	var (
		pos int64
		eof bool
	)
	if err == nil {
		pos, err = sess.Tell(id)
	}
	if err == nil {
		eof, err = sess.EOF(id)
	}
	op.end(err, logger.Handle(uint64(id)))
	if err != nil {
		WriteError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, HandleResponse{
		Result:   OK,
		Handle:   id,
		Position: pos,
		EOF:      eof,
		File:     &info,
	})
}

// Write handles POST /api/v1/handles/{id}/write.
func (h *StoreHandler) Write(w http.ResponseWriter, r *http.Request) {
	sess, ok := sessionOrError(w, r)
	if !ok {
		return
	}
	id, ok := handleIDOrError(w, r)
	if !ok {
		return
	}
	if h.maxIOSize > 0 {
		// base64 inflates by 4/3; leave room for the JSON envelope.
		r.Body = http.MaxBytesReader(w, r.Body, int64(h.maxIOSize)/3*4+4096)
	}
	var req WriteRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}

	op := beginOp(r, "write", telemetry.Handle(uint64(id)), telemetry.Count(len(req.Data)))
	if h.maxIOSize > 0 && len(req.Data) > h.maxIOSize {
		err := sess.Reject(storeerrors.NewInvalidArgumentError(
			"write of " + strconv.Itoa(len(req.Data)) + " bytes exceeds max_io_size"))
		op.end(err, logger.Handle(uint64(id)))
		WriteError(w, err)
		return
	}

	n, err := sess.Write(id, req.Data)
	op.span.SetAttributes(telemetry.BytesWritten(n))
	op.end(err, logger.Handle(uint64(id)), logger.BytesWritten(n))
	if err != nil {
		WriteError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, WriteResponse{Result: OK, Written: n})
}

// Read handles GET /api/v1/handles/{id}/read?count=.
func (h *StoreHandler) Read(w http.ResponseWriter, r *http.Request) {
	sess, ok := sessionOrError(w, r)
	if !ok {
		return
	}
	id, ok := handleIDOrError(w, r)
	if !ok {
		return
	}

	op := beginOp(r, "read", telemetry.Handle(uint64(id)))
	count, err := strconv.Atoi(r.URL.Query().Get("count"))
	switch {
	case err != nil:
		err = storeerrors.NewInvalidArgumentError("count must be an integer")
	case h.maxIOSize > 0 && count > h.maxIOSize:
		err = storeerrors.NewInvalidArgumentError("read of " + strconv.Itoa(count) + " bytes exceeds max_io_size")
	}
	if err != nil {
		err = sess.Reject(err)
		op.end(err, logger.Handle(uint64(id)))
		WriteError(w, err)
		return
	}
	op.span.SetAttributes(telemetry.Count(count))

	data, err := sess.Read(id, count)
	op.span.SetAttributes(telemetry.BytesRead(len(data)))
	op.end(err, logger.Handle(uint64(id)), logger.Count(count), logger.BytesRead(len(data)))
	if err != nil {
		WriteError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, ReadResponse{
		Result: OK,
		Data:   data,
		Count:  len(data),
		EOF:    len(data) < count,
	})
}

// Seek handles POST /api/v1/handles/{id}/seek.
func (h *StoreHandler) Seek(w http.ResponseWriter, r *http.Request) {
	sess, ok := sessionOrError(w, r)
	if !ok {
		return
	}
	id, ok := handleIDOrError(w, r)
	if !ok {
		return
	}
	var req SeekRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}

	op := beginOp(r, "seek", telemetry.Handle(uint64(id)), telemetry.Offset(req.Offset))
	whence, err := ParseWhence(req.Whence)
	if err != nil {
		err = sess.Reject(err)
		op.end(err, logger.Handle(uint64(id)))
		WriteError(w, err)
		return
	}

	pos, err := sess.Seek(id, req.Offset, whence)
	op.end(err, logger.Handle(uint64(id)), logger.Offset(pos))
	if err != nil {
		WriteError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, SeekResponse{Result: OK, Position: pos})
}

// Truncate handles POST /api/v1/handles/{id}/truncate.
func (h *StoreHandler) Truncate(w http.ResponseWriter, r *http.Request) {
	sess, ok := sessionOrError(w, r)
	if !ok {
		return
	}
	id, ok := handleIDOrError(w, r)
	if !ok {
		return
	}
	var req TruncateRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}

	op := beginOp(r, "truncate", telemetry.Handle(uint64(id)), telemetry.Size(req.Size))
	err := sess.Truncate(id, req.Size)
	op.end(err, logger.Handle(uint64(id)), logger.Size(req.Size))
	if err != nil {
		WriteError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, OK)
}

// Flush handles POST /api/v1/handles/{id}/flush.
func (h *StoreHandler) Flush(w http.ResponseWriter, r *http.Request) {
	sess, ok := sessionOrError(w, r)
	if !ok {
		return
	}
	id, ok := handleIDOrError(w, r)
	if !ok {
		return
	}

	op := beginOp(r, "flush", telemetry.Handle(uint64(id)))
	err := sess.Flush(id)
	op.end(err, logger.Handle(uint64(id)))
	if err != nil {
		WriteError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, OK)
}

// Close handles POST /api/v1/handles/{id}/close.
func (h *StoreHandler) Close(w http.ResponseWriter, r *http.Request) {
	sess, ok := sessionOrError(w, r)
	if !ok {
		return
	}
	id, ok := handleIDOrError(w, r)
	if !ok {
		return
	}

	op := beginOp(r, "close", telemetry.Handle(uint64(id)))
	err := sess.Close(id)
	op.end(err, logger.Handle(uint64(id)))
	if err != nil {
		WriteError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, OK)
}
