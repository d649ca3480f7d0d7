package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/marmos91/guardfs/internal/logger"
	"github.com/marmos91/guardfs/pkg/api/handlers"
	apimw "github.com/marmos91/guardfs/pkg/api/middleware"
	"github.com/marmos91/guardfs/pkg/api/sessions"
)

// NewRouter creates and configures the chi router with all middleware and routes.
//
// The router is configured with:
//   - Request ID middleware for request tracking
//   - Real IP extraction for proper client identification
//   - Request log context and tracing
//   - Custom request logging using the internal logger
//   - Panic recovery to prevent server crashes
//   - Request timeout to prevent hung requests
//
// Store routes live under /api/v1 and run in the session named by the
// X-Session-ID header.
func NewRouter(config APIConfig, registry *sessions.Registry) http.Handler {
	config.ApplyDefaults()

	r := chi.NewRouter()

	// Middleware stack - order matters
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(apimw.RequestContext)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(config.RequestTimeout))

	healthHandler := handlers.NewHealthHandler(registry)
	sessionHandler := handlers.NewSessionHandler(registry)
	storeHandler := handlers.NewStoreHandler(int(config.MaxIOSize.Uint64()))

	r.Get("/health", healthHandler.Liveness)

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/sessions", func(r chi.Router) {
			r.Post("/", sessionHandler.Create)
			r.Get("/", sessionHandler.List)
			r.Delete("/{id}", sessionHandler.End)
			r.Get("/{id}/status", sessionHandler.Status)
			r.Delete("/{id}/status", sessionHandler.ResetStatus)
		})

		r.Group(func(r chi.Router) {
			r.Use(apimw.Session(registry))

			r.Route("/files", func(r chi.Router) {
				r.Get("/", storeHandler.List)
				r.Get("/stat", storeHandler.Stat)
				r.Post("/open", storeHandler.Open)
				r.Post("/delete", storeHandler.Delete)
				r.Post("/rename", storeHandler.Rename)
			})

			r.Route("/handles/{id}", func(r chi.Router) {
				r.Get("/", storeHandler.FStat)
				r.Get("/read", storeHandler.Read)
				r.Post("/write", storeHandler.Write)
				r.Post("/seek", storeHandler.Seek)
				r.Post("/truncate", storeHandler.Truncate)
				r.Post("/flush", storeHandler.Flush)
				r.Post("/close", storeHandler.Close)
			})

			r.Get("/space", storeHandler.Space)
			r.Post("/format", storeHandler.Format)
		})
	})

	// Root redirect to health for convenience
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/health", http.StatusTemporaryRedirect)
	})

	return r
}

// requestLogger is a custom middleware that logs requests using the internal logger.
//
// It logs:
//   - Request start (DEBUG level): method, path
//   - Request completion (INFO level): method, path, status, duration
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ctx := r.Context()

		logger.DebugCtx(ctx, "API request started",
			logger.KeyMethod, r.Method,
			logger.KeyPath, r.URL.Path,
		)

		// Wrap response writer to capture status code
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		logger.InfoCtx(ctx, "API request completed",
			logger.KeyMethod, r.Method,
			logger.KeyPath, r.URL.Path,
			logger.KeyHTTPStatus, ww.Status(),
			"bytes", ww.BytesWritten(),
			logger.DurationMs(logger.Duration(start)),
		)
	})
}
