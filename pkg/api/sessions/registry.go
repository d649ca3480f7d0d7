// Package sessions keeps the server-side store sessions addressed by the
// X-Session-ID header.
//
// Each registered session owns a status register and the handles it opened.
// Sessions that stay unused longer than the idle timeout are reaped and their
// handles closed, so abandoned clients cannot pin files forever.
package sessions

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/marmos91/guardfs/internal/logger"
	"github.com/marmos91/guardfs/pkg/store"
)

var (
	// ErrNotFound is returned for unknown or malformed session IDs.
	ErrNotFound = errors.New("session not found")

	// ErrLimit is returned by Create when MaxSessions sessions are live.
	ErrLimit = errors.New("session limit reached")
)

// Info describes a registered session.
type Info struct {
	ID string `json:"session_id"`
	store.SessionStats
}

// Registry maps session IDs to store sessions.
//
// Thread Safety: all methods are safe for concurrent use.
type Registry struct {
	store       *store.Store
	maxSessions int
	idleTimeout time.Duration

	mu       sync.RWMutex
	sessions map[string]*store.Session
}

// NewRegistry creates a registry over s. maxSessions of zero means unlimited;
// idleTimeout of zero disables reaping.
func NewRegistry(s *store.Store, maxSessions int, idleTimeout time.Duration) *Registry {
	return &Registry{
		store:       s,
		maxSessions: maxSessions,
		idleTimeout: idleTimeout,
		sessions:    make(map[string]*store.Session),
	}
}

// Store returns the store sessions operate on.
func (r *Registry) Store() *store.Store {
	return r.store
}

// Create registers a new session and returns its ID.
func (r *Registry) Create() (string, *store.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.maxSessions > 0 && len(r.sessions) >= r.maxSessions {
		return "", nil, ErrLimit
	}

	id := uuid.NewString()
	sess := store.NewSession(r.store)
	r.sessions[id] = sess

	logger.Debug("Session created", logger.SessionID(id), "sessions", len(r.sessions))
	return id, sess, nil
}

// Get returns the session registered under id.
func (r *Registry) Get(id string) (*store.Session, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}

	r.mu.RLock()
	sess, ok := r.sessions[id]
	r.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	return sess, nil
}

// Remove ends the session, closing every handle it still holds. It returns
// the number of handles closed.
func (r *Registry) Remove(id string) (int, error) {
	r.mu.Lock()
	sess, ok := r.sessions[id]
	delete(r.sessions, id)
	r.mu.Unlock()

	if !ok {
		return 0, ErrNotFound
	}

	closed := sess.CloseAll()
	logger.Debug("Session ended", logger.SessionID(id), "closed_handles", closed)
	return closed, nil
}

// Len returns the number of registered sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// List returns every registered session ordered by creation time.
func (r *Registry) List() []Info {
	r.mu.RLock()
	infos := make([]Info, 0, len(r.sessions))
	for id, sess := range r.sessions {
		infos = append(infos, Info{ID: id, SessionStats: sess.Stats()})
	}
	r.mu.RUnlock()

	sort.Slice(infos, func(i, j int) bool {
		if infos[i].CreatedAt.Equal(infos[j].CreatedAt) {
			return infos[i].ID < infos[j].ID
		}
		return infos[i].CreatedAt.Before(infos[j].CreatedAt)
	})
	return infos
}

// Reap removes sessions idle since before now minus the idle timeout and
// returns how many were removed.
func (r *Registry) Reap(now time.Time) int {
	if r.idleTimeout <= 0 {
		return 0
	}
	cutoff := now.Add(-r.idleTimeout)

	r.mu.Lock()
	var idle []*store.Session
	for id, sess := range r.sessions {
		if sess.LastUsed().Before(cutoff) {
			idle = append(idle, sess)
			delete(r.sessions, id)
			logger.Info("Session expired", logger.SessionID(id))
		}
	}
	r.mu.Unlock()

	for _, sess := range idle {
		sess.CloseAll()
	}
	return len(idle)
}

// Run reaps idle sessions every interval until ctx is cancelled.
func (r *Registry) Run(ctx context.Context, interval time.Duration) {
	if r.idleTimeout <= 0 || interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if n := r.Reap(now); n > 0 {
				logger.Debug("Reaped idle sessions", "count", n)
			}
		}
	}
}

// CloseAll ends every session. Used on shutdown.
func (r *Registry) CloseAll() int {
	r.mu.Lock()
	all := r.sessions
	r.sessions = make(map[string]*store.Session)
	r.mu.Unlock()

	closed := 0
	for _, sess := range all {
		closed += sess.CloseAll()
	}
	return closed
}

type contextKey struct{}

type entry struct {
	id   string
	sess *store.Session
}

// WithSession returns a context carrying sess under id. An empty id marks an
// ephemeral session that is not registered.
func WithSession(ctx context.Context, id string, sess *store.Session) context.Context {
	return context.WithValue(ctx, contextKey{}, entry{id: id, sess: sess})
}

// FromContext returns the session stored by WithSession, or nil.
func FromContext(ctx context.Context) (string, *store.Session) {
	e, ok := ctx.Value(contextKey{}).(entry)
	if !ok {
		return "", nil
	}
	return e.id, e.sess
}
