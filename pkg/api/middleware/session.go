// Package middleware provides HTTP middleware for the guardfs API.
package middleware

import (
	"net"
	"net/http"

	chimw "github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/marmos91/guardfs/internal/logger"
	"github.com/marmos91/guardfs/internal/telemetry"
	"github.com/marmos91/guardfs/pkg/api/handlers"
	"github.com/marmos91/guardfs/pkg/api/sessions"
	"github.com/marmos91/guardfs/pkg/store"
)

// SessionHeader carries the session a request runs in.
const SessionHeader = "X-Session-ID"

// SessionFromRequest returns the X-Session-ID header value, if any.
func SessionFromRequest(r *http.Request) string {
	return r.Header.Get(SessionHeader)
}

// Session resolves the X-Session-ID header against registry and binds the
// session to the request context.
//
// Requests without the header run in an ephemeral session whose status is
// discarded after the request. Handles opened that way belong to no session:
// they stay open until closed by id. Unknown session IDs are rejected with 404.
func Session(registry *sessions.Registry) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := SessionFromRequest(r)

			var sess *store.Session
			if id == "" {
				sess = store.NewSession(registry.Store())
			} else {
				var err error
				sess, err = registry.Get(id)
				if err != nil {
					logger.DebugCtx(r.Context(), "Unknown session", logger.SessionID(id))
					handlers.SessionNotFound(w, id)
					return
				}
			}

			ctx := sessions.WithSession(r.Context(), id, sess)
			if lc := logger.FromContext(ctx); lc != nil && id != "" {
				ctx = logger.WithContext(ctx, lc.WithSession(id))
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequestContext attaches a logger.LogContext carrying the request ID and
// client IP, and wraps the request in a span when tracing is enabled.
// It must run after chi's RequestID and RealIP middleware.
func RequestContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		lc := logger.NewLogContext(clientIP(r.RemoteAddr))
		lc.RequestID = chimw.GetReqID(ctx)

		if telemetry.IsEnabled() {
			var span trace.Span
			ctx, span = telemetry.StartSpan(ctx, "http "+r.Method,
				trace.WithSpanKind(trace.SpanKindServer),
				trace.WithAttributes(
					telemetry.ClientIP(lc.ClientIP),
					attribute.String("http.method", r.Method),
					attribute.String("http.target", r.URL.Path),
				))
			defer span.End()
			lc = lc.WithTrace(telemetry.TraceID(ctx), telemetry.SpanID(ctx))
		}

		next.ServeHTTP(w, r.WithContext(logger.WithContext(ctx, lc)))
	})
}

func clientIP(remoteAddr string) string {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		return remoteAddr
	}
	return host
}
