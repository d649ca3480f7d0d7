package logger

import (
	"context"
	"time"
)

type contextKey struct{}

var logContextKey = contextKey{}

// LogContext carries the fields every log line of one API request shares.
// Values are treated as immutable: the With* methods return modified copies,
// so a context can be handed to concurrent goroutines.
type LogContext struct {
	TraceID   string
	SpanID    string
	RequestID string
	SessionID string // X-Session-ID, empty for ephemeral sessions
	Operation string // store operation: open, write, delete, ...
	ClientIP  string
	StartTime time.Time
}

// WithContext returns a new context with the given LogContext
func WithContext(ctx context.Context, lc *LogContext) context.Context {
	return context.WithValue(ctx, logContextKey, lc)
}

// FromContext retrieves the LogContext from context, or nil if not present
func FromContext(ctx context.Context) *LogContext {
	if ctx == nil {
		return nil
	}
	lc, _ := ctx.Value(logContextKey).(*LogContext)
	return lc
}

// NewLogContext starts the log context of a request from clientIP.
func NewLogContext(clientIP string) *LogContext {
	return &LogContext{
		ClientIP:  clientIP,
		StartTime: time.Now(),
	}
}

// Clone creates a copy of the LogContext
func (lc *LogContext) Clone() *LogContext {
	if lc == nil {
		return nil
	}
	clone := *lc
	return &clone
}

func (lc *LogContext) with(set func(*LogContext)) *LogContext {
	clone := lc.Clone()
	if clone != nil {
		set(clone)
	}
	return clone
}

// WithOperation returns a copy naming the store operation being served.
func (lc *LogContext) WithOperation(op string) *LogContext {
	return lc.with(func(c *LogContext) { c.Operation = op })
}

// WithSession returns a copy bound to sessionID.
func (lc *LogContext) WithSession(sessionID string) *LogContext {
	return lc.with(func(c *LogContext) { c.SessionID = sessionID })
}

// WithTrace returns a copy carrying the active span's identifiers.
func (lc *LogContext) WithTrace(traceID, spanID string) *LogContext {
	return lc.with(func(c *LogContext) {
		c.TraceID = traceID
		c.SpanID = spanID
	})
}

// DurationMs returns the duration since StartTime in milliseconds
func (lc *LogContext) DurationMs() float64 {
	if lc == nil || lc.StartTime.IsZero() {
		return 0
	}
	return Duration(lc.StartTime)
}

// fields returns the non-empty fields as slog key/value pairs, followed by args.
func (lc *LogContext) fields(args []any) []any {
	if lc == nil {
		return args
	}

	pairs := [...]struct{ key, value string }{
		{KeyTraceID, lc.TraceID},
		{KeySpanID, lc.SpanID},
		{KeyRequestID, lc.RequestID},
		{KeySessionID, lc.SessionID},
		{KeyOperation, lc.Operation},
		{KeyClientIP, lc.ClientIP},
	}

	out := make([]any, 0, 2*len(pairs)+len(args))
	for _, p := range pairs {
		if p.value != "" {
			out = append(out, p.key, p.value)
		}
	}
	return append(out, args...)
}
