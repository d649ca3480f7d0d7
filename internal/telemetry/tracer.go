package telemetry

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Span attribute keys.
const (
	AttrClientIP  = "client.ip"
	AttrSessionID = "guardfs.session_id"

	AttrOperation    = "store.operation"
	AttrHandle       = "store.handle"
	AttrFilename     = "store.filename"
	AttrNewName      = "store.new_name"
	AttrFlags        = "store.flags"
	AttrOffset       = "store.offset"
	AttrCount        = "store.count"
	AttrSize         = "store.size"
	AttrStatus       = "store.status"
	AttrBytesRead    = "store.bytes_read"
	AttrBytesWritten = "store.bytes_written"
)

func ClientIP(ip string) attribute.KeyValue { return attribute.String(AttrClientIP, ip) }
func SessionID(id string) attribute.KeyValue { return attribute.String(AttrSessionID, id) }
func Operation(op string) attribute.KeyValue { return attribute.String(AttrOperation, op) }
func Handle(id uint64) attribute.KeyValue { return attribute.Int64(AttrHandle, int64(id)) }
func Filename(name string) attribute.KeyValue { return attribute.String(AttrFilename, name) }
func NewName(name string) attribute.KeyValue { return attribute.String(AttrNewName, name) }
func Flags(flags string) attribute.KeyValue { return attribute.String(AttrFlags, flags) }
func Offset(off int64) attribute.KeyValue { return attribute.Int64(AttrOffset, off) }
func Count(n int) attribute.KeyValue { return attribute.Int(AttrCount, n) }
func Size(n int64) attribute.KeyValue { return attribute.Int64(AttrSize, n) }
func Status(code int) attribute.KeyValue { return attribute.Int(AttrStatus, code) }
func BytesRead(n int) attribute.KeyValue { return attribute.Int(AttrBytesRead, n) }
func BytesWritten(n int) attribute.KeyValue { return attribute.Int(AttrBytesWritten, n) }

// StartStoreSpan starts a span named "store.<operation>" carrying the
// operation attribute plus attrs.
func StartStoreSpan(ctx context.Context, operation string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	all := make([]attribute.KeyValue, 0, len(attrs)+1)
	all = append(all, Operation(operation))
	all = append(all, attrs...)
	return StartSpan(ctx, "store."+operation,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(all...),
	)
}

// EndStoreSpan records the numeric status on span, marks failures and ends it.
func EndStoreSpan(span trace.Span, status int, err error) {
	span.SetAttributes(Status(status))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
