package handlers

import (
	"context"
	"net/http"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/marmos91/guardfs/internal/logger"
	"github.com/marmos91/guardfs/internal/telemetry"
	"github.com/marmos91/guardfs/pkg/api/sessions"
	storeerrors "github.com/marmos91/guardfs/pkg/store/errors"
)

// storeOp tracks one store operation performed on behalf of a request.
type storeOp struct {
	ctx  context.Context
	span trace.Span
	name string
}

// beginOp starts the span for operation name and tags the request log
// context with it.
func beginOp(r *http.Request, name string, attrs ...attribute.KeyValue) *storeOp {
	ctx := r.Context()
	if id, _ := sessions.FromContext(ctx); id != "" {
		attrs = append(attrs, telemetry.SessionID(id))
	}

	ctx, span := telemetry.StartStoreSpan(ctx, name, attrs...)
	if lc := logger.FromContext(ctx); lc != nil {
		lc = lc.WithOperation(name)
		if telemetry.IsEnabled() {
			lc = lc.WithTrace(telemetry.TraceID(ctx), telemetry.SpanID(ctx))
		}
		ctx = logger.WithContext(ctx, lc)
	}
	return &storeOp{ctx: ctx, span: span, name: name}
}

// end records the outcome of the operation on its span and in the log.
func (op *storeOp) end(err error, fields ...any) {
	status := storeerrors.StatusOf(err)
	telemetry.EndStoreSpan(op.span, status, err)

	fields = append(fields, logger.Status(status))
	if err != nil {
		logger.InfoCtx(op.ctx, "Operation failed", append(fields, logger.Err(err))...)
		return
	}
	logger.DebugCtx(op.ctx, "Operation completed", fields...)
}
