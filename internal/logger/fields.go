package logger

import (
	"log/slog"
)

// Standard field keys for structured logging. Use these keys consistently so
// logs can be aggregated and queried by field.
const (
	// ========================================================================
	// Distributed Tracing
	// ========================================================================
	KeyTraceID = "trace_id"
	KeySpanID  = "span_id"

	// ========================================================================
	// Store Operations
	// ========================================================================
	KeyOperation  = "operation"  // Store operation: open, write, delete, ...
	KeyHandle     = "handle"     // Handle ID
	KeyFilename   = "filename"   // File name in the store namespace
	KeyOldName    = "old_name"   // Source name for rename
	KeyNewName    = "new_name"   // Destination name for rename
	KeyFlags      = "flags"      // Open flags
	KeyOpenCount  = "open_count" // Live handles on a file
	KeyGeneration = "generation" // File record generation
	KeyStatus     = "status"     // Numeric store status ($?)
	KeySize       = "size"       // File size in bytes

	// ========================================================================
	// I/O Operations
	// ========================================================================
	KeyOffset       = "offset"
	KeyCount        = "count"
	KeyBytesRead    = "bytes_read"
	KeyBytesWritten = "bytes_written"

	// ========================================================================
	// HTTP & Sessions
	// ========================================================================
	KeyRequestID  = "request_id"
	KeySessionID  = "session_id"
	KeyClientIP   = "client_ip"
	KeyMethod     = "method"
	KeyPath       = "path"
	KeyHTTPStatus = "http_status"

	// ========================================================================
	// Operation Metadata
	// ========================================================================
	KeyDurationMs = "duration_ms"
	KeyError      = "error"
)

// ============================================================================
// Field constructors
// ============================================================================

// Operation returns a slog.Attr for the store operation name
func Operation(op string) slog.Attr {
	return slog.String(KeyOperation, op)
}

// Handle returns a slog.Attr for a handle ID
func Handle(id uint64) slog.Attr {
	return slog.Uint64(KeyHandle, id)
}

// Filename returns a slog.Attr for a file name
func Filename(name string) slog.Attr {
	return slog.String(KeyFilename, name)
}

// OldName returns a slog.Attr for the source of a rename
func OldName(name string) slog.Attr {
	return slog.String(KeyOldName, name)
}

// NewName returns a slog.Attr for the destination of a rename
func NewName(name string) slog.Attr {
	return slog.String(KeyNewName, name)
}

// Flags returns a slog.Attr for open flags
func Flags(flags string) slog.Attr {
	return slog.String(KeyFlags, flags)
}

// OpenCount returns a slog.Attr for the number of live handles on a file
func OpenCount(n int) slog.Attr {
	return slog.Int(KeyOpenCount, n)
}

// Generation returns a slog.Attr for a file record generation
func Generation(g uint64) slog.Attr {
	return slog.Uint64(KeyGeneration, g)
}

// Status returns a slog.Attr for a numeric store status
func Status(code int) slog.Attr {
	return slog.Int(KeyStatus, code)
}

// Size returns a slog.Attr for a size in bytes
func Size(n int64) slog.Attr {
	return slog.Int64(KeySize, n)
}

// Offset returns a slog.Attr for a file offset
func Offset(off int64) slog.Attr {
	return slog.Int64(KeyOffset, off)
}

// Count returns a slog.Attr for a requested byte count
func Count(n int) slog.Attr {
	return slog.Int(KeyCount, n)
}

// BytesRead returns a slog.Attr for bytes read
func BytesRead(n int) slog.Attr {
	return slog.Int(KeyBytesRead, n)
}

// BytesWritten returns a slog.Attr for bytes written
func BytesWritten(n int) slog.Attr {
	return slog.Int(KeyBytesWritten, n)
}

// SessionID returns a slog.Attr for a session ID
func SessionID(id string) slog.Attr {
	return slog.String(KeySessionID, id)
}

// RequestID returns a slog.Attr for an HTTP request ID
func RequestID(id string) slog.Attr {
	return slog.String(KeyRequestID, id)
}

// ClientIP returns a slog.Attr for a client IP address
func ClientIP(ip string) slog.Attr {
	return slog.String(KeyClientIP, ip)
}

// DurationMs returns a slog.Attr for a duration in milliseconds
func DurationMs(ms float64) slog.Attr {
	return slog.Float64(KeyDurationMs, ms)
}

// Err returns a slog.Attr for an error. A nil error yields an empty Attr,
// which handlers drop.
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.String(KeyError, err.Error())
}
