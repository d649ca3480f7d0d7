// Package errors provides the typed errors returned by the file store and the
// stable numeric status codes callers observe for them.
//
// It is a leaf package so that the handle table, the store and the API layer
// can all share the same error values without import cycles.
package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCode represents the type of error that occurred.
type ErrorCode int

const (
	// ErrNotFound indicates the named file does not exist.
	ErrNotFound ErrorCode = iota + 1

	// ErrInvalidHandle indicates the handle is closed, unknown or was never issued.
	ErrInvalidHandle

	// ErrBusy indicates the file still has open handles.
	ErrBusy

	// ErrResourceExhausted indicates a configured capacity ceiling was hit
	// (bytes, files or open handles).
	ErrResourceExhausted

	// ErrAlreadyExists indicates the target name is taken.
	ErrAlreadyExists

	// ErrInvalidArgument indicates an invalid argument was provided.
	ErrInvalidArgument

	// ErrAccessDenied indicates the handle was not opened with the access
	// mode the operation requires.
	ErrAccessDenied
)

// Status codes reported through the last-status register.
const (
	StatusOK                = 0
	StatusBusy              = -1
	StatusNotFound          = -2
	StatusInvalidHandle     = -3
	StatusResourceExhausted = -4
	StatusAlreadyExists     = -5
	StatusInvalidArgument   = -6
	StatusAccessDenied      = -7
	StatusUnknown           = -100
)

// String returns a human-readable name for the error code.
func (e ErrorCode) String() string {
	switch e {
	case ErrNotFound:
		return "NotFound"
	case ErrInvalidHandle:
		return "InvalidHandle"
	case ErrBusy:
		return "Busy"
	case ErrResourceExhausted:
		return "ResourceExhausted"
	case ErrAlreadyExists:
		return "AlreadyExists"
	case ErrInvalidArgument:
		return "InvalidArgument"
	case ErrAccessDenied:
		return "AccessDenied"
	default:
		return fmt.Sprintf("Unknown(%d)", e)
	}
}

// Status returns the numeric status code for the error code.
func (e ErrorCode) Status() int {
	switch e {
	case ErrBusy:
		return StatusBusy
	case ErrNotFound:
		return StatusNotFound
	case ErrInvalidHandle:
		return StatusInvalidHandle
	case ErrResourceExhausted:
		return StatusResourceExhausted
	case ErrAlreadyExists:
		return StatusAlreadyExists
	case ErrInvalidArgument:
		return StatusInvalidArgument
	case ErrAccessDenied:
		return StatusAccessDenied
	default:
		return StatusUnknown
	}
}

// StoreError represents a file store error with an error code.
type StoreError struct {
	Code    ErrorCode
	Message string
	Name    string
}

// Error implements the error interface.
func (e *StoreError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("%s: %s (name: %s)", e.Code, e.Message, e.Name)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// ============================================================================
// Factory Functions
// ============================================================================

// NewNotFoundError creates a NotFound error.
func NewNotFoundError(name string) *StoreError {
	return &StoreError{
		Code:    ErrNotFound,
		Message: "file not found",
		Name:    name,
	}
}

// NewInvalidHandleError creates an InvalidHandle error.
func NewInvalidHandleError(id uint64) *StoreError {
	return &StoreError{
		Code:    ErrInvalidHandle,
		Message: fmt.Sprintf("invalid file handle %d", id),
	}
}

// NewBusyError creates a Busy error for a file with openCount live handles.
func NewBusyError(name string, openCount int) *StoreError {
	return &StoreError{
		Code:    ErrBusy,
		Message: fmt.Sprintf("file has %d open handle(s)", openCount),
		Name:    name,
	}
}

// NewResourceExhaustedError creates a ResourceExhausted error.
func NewResourceExhaustedError(resource string, limit uint64) *StoreError {
	return &StoreError{
		Code:    ErrResourceExhausted,
		Message: fmt.Sprintf("%s limit reached (max: %d)", resource, limit),
	}
}

// NewAlreadyExistsError creates an AlreadyExists error.
func NewAlreadyExistsError(name string) *StoreError {
	return &StoreError{
		Code:    ErrAlreadyExists,
		Message: "already exists",
		Name:    name,
	}
}

// NewInvalidArgumentError creates an InvalidArgument error.
func NewInvalidArgumentError(message string) *StoreError {
	return &StoreError{
		Code:    ErrInvalidArgument,
		Message: message,
	}
}

// NewAccessDeniedError creates an AccessDenied error.
func NewAccessDeniedError(reason string) *StoreError {
	return &StoreError{
		Code:    ErrAccessDenied,
		Message: reason,
	}
}

// ============================================================================
// Error Type Checking Helpers
// ============================================================================

// CodeOf returns the error code carried by err, looking through wrapped
// errors. The second return value is false when err is not a StoreError.
func CodeOf(err error) (ErrorCode, bool) {
	var storeErr *StoreError
	if stderrors.As(err, &storeErr) {
		return storeErr.Code, true
	}
	return 0, false
}

// StatusOf maps err to its numeric status. nil maps to StatusOK and errors
// that are not StoreErrors map to StatusUnknown.
func StatusOf(err error) int {
	if err == nil {
		return StatusOK
	}
	code, ok := CodeOf(err)
	if !ok {
		return StatusUnknown
	}
	return code.Status()
}

func hasCode(err error, want ErrorCode) bool {
	code, ok := CodeOf(err)
	return ok && code == want
}

// IsNotFoundError returns true if the error is a NotFound error.
func IsNotFoundError(err error) bool {
	return hasCode(err, ErrNotFound)
}

// IsInvalidHandleError returns true if the error is an InvalidHandle error.
func IsInvalidHandleError(err error) bool {
	return hasCode(err, ErrInvalidHandle)
}

// IsBusyError returns true if the error is a Busy error.
func IsBusyError(err error) bool {
	return hasCode(err, ErrBusy)
}

// IsResourceExhaustedError returns true if the error is a ResourceExhausted error.
func IsResourceExhaustedError(err error) bool {
	return hasCode(err, ErrResourceExhausted)
}

// IsAlreadyExistsError returns true if the error is an AlreadyExists error.
func IsAlreadyExistsError(err error) bool {
	return hasCode(err, ErrAlreadyExists)
}

// IsInvalidArgumentError returns true if the error is an InvalidArgument error.
func IsInvalidArgumentError(err error) bool {
	return hasCode(err, ErrInvalidArgument)
}

// IsAccessDeniedError returns true if the error is an AccessDenied error.
func IsAccessDeniedError(err error) bool {
	return hasCode(err, ErrAccessDenied)
}
