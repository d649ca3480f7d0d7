package handlers

import (
	"net/http"

	"github.com/marmos91/guardfs/internal/logger"
	"github.com/marmos91/guardfs/internal/telemetry"
	"github.com/marmos91/guardfs/pkg/store"
	"github.com/marmos91/guardfs/pkg/store/handle"
)

// StoreHandler serves the namespace and handle operations. The session an
// operation runs in is resolved by the session middleware.
type StoreHandler struct {
	maxIOSize int
}

// NewStoreHandler creates a store handler. maxIOSize bounds the bytes moved
// by a single read or write request; zero means unbounded.
func NewStoreHandler(maxIOSize int) *StoreHandler {
	return &StoreHandler{maxIOSize: maxIOSize}
}

// OpenRequest is the body of POST /files/open. Empty Flags means
// create-or-open for reading and writing.
type OpenRequest struct {
	Name  string   `json:"name"`
	Flags []string `json:"flags,omitempty"`
}

// NameRequest is the body of POST /files/delete.
type NameRequest struct {
	Name string `json:"name"`
}

// RenameRequest is the body of POST /files/rename.
type RenameRequest struct {
	Old string `json:"old"`
	New string `json:"new"`
}

// OpenResponse carries the handle issued by open.
type OpenResponse struct {
	Result
	Handle handle.ID `json:"handle"`
}

// FileResponse carries the metadata of one file.
type FileResponse struct {
	Result
	File *store.FileInfo `json:"file,omitempty"`
}

// ListResponse lists every file in the store.
type ListResponse struct {
	Result
	Files []store.FileInfo `json:"files"`
}

// SpaceResponse reports capacity usage.
type SpaceResponse struct {
	Result
	Space store.SpaceInfo `json:"space"`
}

// List handles GET /api/v1/files.
func (h *StoreHandler) List(w http.ResponseWriter, r *http.Request) {
	sess, ok := sessionOrError(w, r)
	if !ok {
		return
	}

	op := beginOp(r, "list")
	files := sess.List()
	op.end(nil, "files", len(files))

	WriteJSON(w, http.StatusOK, ListResponse{Result: OK, Files: files})
}

// Open handles POST /api/v1/files/open.
func (h *StoreHandler) Open(w http.ResponseWriter, r *http.Request) {
	sess, ok := sessionOrError(w, r)
	if !ok {
		return
	}
	var req OpenRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}

	op := beginOp(r, "open", telemetry.Filename(req.Name))
	flags, err := store.ParseOpenFlags(req.Flags)
	if err != nil {
		err = sess.Reject(err)
		op.end(err, logger.Filename(req.Name))
		WriteError(w, err)
		return
	}
	op.span.SetAttributes(telemetry.Flags(flags.String()))

	id, err := sess.Open(req.Name, flags)
	op.end(err, logger.Filename(req.Name), logger.Flags(flags.String()), logger.Handle(uint64(id)))
	if err != nil {
		WriteError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, OpenResponse{Result: OK, Handle: id})
}

// Stat handles GET /api/v1/files/stat?name=.
func (h *StoreHandler) Stat(w http.ResponseWriter, r *http.Request) {
	sess, ok := sessionOrError(w, r)
	if !ok {
		return
	}
	name := r.URL.Query().Get("name")

	op := beginOp(r, "stat", telemetry.Filename(name))
	info, err := sess.Stat(name)
	op.end(err, logger.Filename(name))
	if err != nil {
		WriteError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, FileResponse{Result: OK, File: &info})
}

// Delete handles POST /api/v1/files/delete. A file with open handles is
// refused with Busy (-1, HTTP 409) and left untouched.
func (h *StoreHandler) Delete(w http.ResponseWriter, r *http.Request) {
	sess, ok := sessionOrError(w, r)
	if !ok {
		return
	}
	var req NameRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}

	op := beginOp(r, "delete", telemetry.Filename(req.Name))
	err := sess.Delete(req.Name)
	op.end(err, logger.Filename(req.Name))
	if err != nil {
		WriteError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, OK)
}

// Rename handles POST /api/v1/files/rename.
func (h *StoreHandler) Rename(w http.ResponseWriter, r *http.Request) {
	sess, ok := sessionOrError(w, r)
	if !ok {
		return
	}
	var req RenameRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}

	op := beginOp(r, "rename", telemetry.Filename(req.Old), telemetry.NewName(req.New))
	err := sess.Rename(req.Old, req.New)
	op.end(err, logger.OldName(req.Old), logger.NewName(req.New))
	if err != nil {
		WriteError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, OK)
}

// Space handles GET /api/v1/space.
func (h *StoreHandler) Space(w http.ResponseWriter, r *http.Request) {
	sess, ok := sessionOrError(w, r)
	if !ok {
		return
	}

	op := beginOp(r, "space")
	space := sess.Space()
	op.end(nil)

	WriteJSON(w, http.StatusOK, SpaceResponse{Result: OK, Space: space})
}

// Format handles POST /api/v1/format. It fails with Busy while any handle
// is open.
func (h *StoreHandler) Format(w http.ResponseWriter, r *http.Request) {
	sess, ok := sessionOrError(w, r)
	if !ok {
		return
	}

	op := beginOp(r, "format")
	err := sess.Format()
	op.end(err)
	if err != nil {
		WriteError(w, err)
		return
	}

	logger.InfoCtx(r.Context(), "Store formatted")
	WriteJSON(w, http.StatusOK, OK)
}
