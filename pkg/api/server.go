package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/marmos91/guardfs/internal/logger"
	"github.com/marmos91/guardfs/pkg/api/sessions"
	"github.com/marmos91/guardfs/pkg/store"
)

// Server provides the HTTP server for the store API.
//
// Endpoints:
//   - GET /health: Liveness probe
//   - /api/v1/sessions: Session lifecycle and status register
//   - /api/v1/files, /api/v1/handles/{id}: Store operations
//   - GET /api/v1/space, POST /api/v1/format
//
// The server supports graceful shutdown with configurable timeout.
type Server struct {
	server       *http.Server
	registry     *sessions.Registry
	config       APIConfig
	shutdownOnce sync.Once

	mu       sync.Mutex
	listener net.Listener
}

// NewServer creates a new API HTTP server over s.
//
// The server is created in a stopped state. Call Start() to begin serving requests.
//
// Defaults are applied here to ensure the server works correctly even when
// created directly (e.g., in tests). This is idempotent with the defaults
// applied during config loading.
func NewServer(config APIConfig, s *store.Store) *Server {
	config.ApplyDefaults()

	registry := sessions.NewRegistry(s, config.MaxSessions, config.SessionIdleTimeout)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", config.Port),
		Handler:      NewRouter(config, registry),
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
		IdleTimeout:  config.IdleTimeout,
	}

	return &Server{
		server:   server,
		registry: registry,
		config:   config,
	}
}

// Start starts the API HTTP server and blocks until the context is cancelled
// or an error occurs. Idle sessions are reaped while the server runs.
//
// When the context is cancelled, Start initiates graceful shutdown and returns.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.server.Addr)
	if err != nil {
		return fmt.Errorf("API server failed to listen: %w", err)
	}
	s.mu.Lock()
	s.listener = ln
	s.mu.Unlock()

	reapCtx, stopReaper := context.WithCancel(ctx)
	defer stopReaper()
	go s.registry.Run(reapCtx, reapInterval(s.config.SessionIdleTimeout))

	errChan := make(chan error, 1)
	go func() {
		logger.Info("API server listening", "port", s.Port())
		logger.Debug("API endpoints available",
			"health", fmt.Sprintf("http://localhost:%d/health", s.Port()),
			"api", fmt.Sprintf("http://localhost:%d/api/v1", s.Port()),
		)

		if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			select {
			case errChan <- err:
			default:
				// Context was cancelled, error is not needed
			}
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("API server shutdown signal received")
		// Don't use the cancelled ctx as it would cause immediate shutdown
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.Stop(shutdownCtx)
	case err := <-errChan:
		return fmt.Errorf("API server failed: %w", err)
	}
}

// Stop initiates graceful shutdown of the API server and ends every session,
// closing the handles they hold.
//
// Stop is safe to call multiple times and safe to call concurrently with Start().
func (s *Server) Stop(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		logger.Debug("API server shutdown initiated")

		if err := s.server.Shutdown(ctx); err != nil {
			shutdownErr = fmt.Errorf("API server shutdown error: %w", err)
			logger.Error("API server shutdown error", logger.Err(err))
		} else {
			logger.Info("API server stopped gracefully")
		}

		if closed := s.registry.CloseAll(); closed > 0 {
			logger.Info("Closed handles of remaining sessions", "handles", closed)
		}
	})
	return shutdownErr
}

// Port returns the TCP port the server is listening on. Before Start it
// returns the configured port.
func (s *Server) Port() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		if addr, ok := s.listener.Addr().(*net.TCPAddr); ok {
			return addr.Port
		}
	}
	return s.config.Port
}

// Handler returns the HTTP handler serving the API.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Sessions returns the session registry.
func (s *Server) Sessions() *sessions.Registry {
	return s.registry
}

// reapInterval checks for idle sessions often enough that a session outlives
// its idle timeout by at most a tenth of it, bounded to [1s, 1m].
func reapInterval(idle time.Duration) time.Duration {
	interval := idle / 10
	if interval < time.Second {
		interval = time.Second
	}
	if interval > time.Minute {
		interval = time.Minute
	}
	return interval
}
