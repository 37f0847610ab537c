// Package registry holds live access sessions in memory. Sessions are a
// single-process concern: the registry is the only writer and hands out
// snapshots, never references into its own map.
//
// Error Contract:
//   - CodeNotFound for unknown or expired sessions (the attached State says
//     which, when known)
//   - CodeInvalidTransition when a session is terminal or the requested
//     transition is illegal
package registry

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"sentinel/internal/platform/metrics"
	"sentinel/internal/session/models"
	id "sentinel/pkg/domain"
	dErrors "sentinel/pkg/domain-errors"
	ksync "sentinel/pkg/platform/sync"
)

// Registry is the in-memory session arena. Map membership is guarded by a
// RWMutex wrapped around the sharded per-session locks: all state mutation for
// one session happens under that session's keyed lock, so scans on the same
// session serialize in arrival order while unrelated sessions never contend.
type Registry struct {
	mu       sync.RWMutex
	sessions map[id.SessionID]*models.Session
	// terminal holds ids of ended sessions awaiting reclamation. Session
	// state is only read under the per-session lock; Create drains this set
	// instead of inspecting state itself.
	terminal map[id.SessionID]struct{}

	locks   *ksync.KeyedMutex
	ttl     time.Duration
	now     func() time.Time
	logger  *slog.Logger
	metrics *metrics.Metrics
	expired func(*models.Session)
}

// Option configures a Registry.
type Option func(*Registry)

// WithLogger overrides the default logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Registry) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithMetrics enables session lifecycle metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Registry) {
		r.metrics = m
	}
}

// WithNowFunc overrides the clock. The time source is injected for
// testability (no hidden time.Now() calls).
func WithNowFunc(now func() time.Time) Option {
	return func(r *Registry) {
		if now != nil {
			r.now = now
		}
	}
}

// WithExpiredFunc registers a callback invoked exactly once per session when
// it transitions to expired, whether lazily at touch time or from a sweep.
// The callback runs with a snapshot and must not call back into the registry.
func WithExpiredFunc(fn func(*models.Session)) Option {
	return func(r *Registry) {
		if fn != nil {
			r.expired = fn
		}
	}
}

// New constructs an empty registry. Sessions expire ttl after creation.
func New(ttl time.Duration, opts ...Option) (*Registry, error) {
	if ttl <= 0 {
		return nil, dErrors.New(dErrors.CodeValidation, "session TTL must be positive")
	}
	r := &Registry{
		sessions: make(map[id.SessionID]*models.Session),
		terminal: make(map[id.SessionID]struct{}),
		locks:    ksync.NewKeyedMutex(),
		ttl:      ttl,
		now:      time.Now,
		logger:   slog.Default(),
		expired:  func(*models.Session) {},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Create mints a new session in the waiting_vendors state. Sessions that
// ended since the last call are reclaimed opportunistically so an idle
// registry does not grow without bound between sweeps.
func (r *Registry) Create(_ context.Context, gateID *id.GateID) (*models.Session, error) {
	now := r.now()
	session := models.NewSession(gateID, now, r.ttl)

	r.mu.Lock()
	for key := range r.terminal {
		delete(r.sessions, key)
		delete(r.terminal, key)
	}
	r.sessions[session.ID] = session
	r.mu.Unlock()

	if r.metrics != nil {
		r.metrics.SessionsStarted.Inc()
		r.metrics.ActiveSessions.Inc()
	}
	r.logger.Info("session created",
		"session_id", session.ID,
		"expires_at", session.ExpiresAt,
	)
	return session.Snapshot(), nil
}

// Get returns a snapshot of the session, applying lazy expiry first. Terminal
// sessions are still returned; callers decide whether that matters.
func (r *Registry) Get(_ context.Context, sessionID id.SessionID) (*models.Session, error) {
	key := sessionID.String()
	r.locks.Lock(key)
	defer r.locks.Unlock(key)

	session, err := r.fetch(sessionID)
	if err != nil {
		return nil, err
	}
	r.expireIfDue(session)
	return session.Snapshot(), nil
}

// Update runs fn against the live session under its per-session lock and
// returns a post-mutation snapshot. Lazy expiry happens before fn: touching
// an expired session yields CodeNotFound with state "expired", and terminal
// sessions yield CodeInvalidTransition. fn may perform reads (authorization
// lookups) while holding the lock; that is what serializes a session's scans.
func (r *Registry) Update(_ context.Context, sessionID id.SessionID, fn func(*models.Session) error) (*models.Session, error) {
	key := sessionID.String()
	r.locks.Lock(key)
	defer r.locks.Unlock(key)

	session, err := r.fetch(sessionID)
	if err != nil {
		return nil, err
	}
	if r.expireIfDue(session) {
		return nil, dErrors.NewWithState(dErrors.CodeNotFound,
			"session has expired", models.StateExpired.String())
	}
	if session.State.IsTerminal() {
		return nil, dErrors.NewWithState(dErrors.CodeInvalidTransition,
			"session is "+session.State.String(), session.State.String())
	}
	if err := fn(session); err != nil {
		return nil, err
	}
	if session.State.IsTerminal() {
		r.markTerminal(session.ID)
	}
	return session.Snapshot(), nil
}

// Cancel aborts a session before approval.
func (r *Registry) Cancel(_ context.Context, sessionID id.SessionID) (*models.Session, error) {
	key := sessionID.String()
	r.locks.Lock(key)
	defer r.locks.Unlock(key)

	session, err := r.fetch(sessionID)
	if err != nil {
		return nil, err
	}
	if r.expireIfDue(session) {
		return nil, dErrors.NewWithState(dErrors.CodeNotFound,
			"session has expired", models.StateExpired.String())
	}
	if err := session.Cancel(); err != nil {
		return nil, err
	}
	r.markTerminal(session.ID)
	r.ended(models.StateCancelled)
	r.logger.Info("session cancelled", "session_id", session.ID)
	return session.Snapshot(), nil
}

// Complete closes out an approved session once the unlock sequence finished.
// It is the unconditional tail of the unlock flow: a session that expired
// while the door hardware was busy is left alone rather than reported as an
// error, since the flow cannot act on it anyway.
func (r *Registry) Complete(_ context.Context, sessionID id.SessionID) error {
	key := sessionID.String()
	r.locks.Lock(key)
	defer r.locks.Unlock(key)

	session, err := r.fetch(sessionID)
	if err != nil {
		return err
	}
	if session.State == models.StateExpired {
		r.logger.Warn("session expired before unlock flow completed", "session_id", session.ID)
		return nil
	}
	if err := session.Complete(); err != nil {
		return err
	}
	r.markTerminal(session.ID)
	r.ended(models.StateCompleted)
	r.logger.Info("session completed", "session_id", session.ID)
	return nil
}

// Sweep expires overdue sessions and removes terminal ones. Lazy expiry at
// touch time already keeps individual sessions correct; the sweep exists so
// abandoned sessions still get their expiry recorded and their memory back.
func (r *Registry) Sweep(_ context.Context, now time.Time) (int, error) {
	r.mu.RLock()
	ids := make([]id.SessionID, 0, len(r.sessions))
	for key := range r.sessions {
		ids = append(ids, key)
	}
	r.mu.RUnlock()

	removed := 0
	for _, sessionID := range ids {
		key := sessionID.String()
		r.locks.Lock(key)
		session, err := r.fetch(sessionID)
		if err != nil {
			r.locks.Unlock(key)
			continue
		}
		if session.Expired(now) {
			r.markExpired(session)
		}
		terminal := session.State.IsTerminal()
		r.locks.Unlock(key)

		if terminal {
			r.mu.Lock()
			delete(r.sessions, sessionID)
			delete(r.terminal, sessionID)
			r.mu.Unlock()
			removed++
		}
	}
	return removed, nil
}

// Len reports the number of sessions currently held, terminal included.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

func (r *Registry) fetch(sessionID id.SessionID) (*models.Session, error) {
	r.mu.RLock()
	session, ok := r.sessions[sessionID]
	r.mu.RUnlock()
	if !ok {
		return nil, dErrors.New(dErrors.CodeNotFound, "session not found")
	}
	return session, nil
}

// expireIfDue applies lazy expiry under the caller-held session lock and
// reports whether the session is now expired.
func (r *Registry) expireIfDue(session *models.Session) bool {
	if session.Expired(r.now()) {
		r.markExpired(session)
	}
	return session.State == models.StateExpired
}

// markTerminal queues an ended session for reclamation by Create. Called
// while holding the session's keyed lock.
func (r *Registry) markTerminal(sessionID id.SessionID) {
	r.mu.Lock()
	r.terminal[sessionID] = struct{}{}
	r.mu.Unlock()
}

func (r *Registry) markExpired(session *models.Session) {
	if err := session.Expire(); err != nil {
		return
	}
	r.markTerminal(session.ID)
	r.ended(models.StateExpired)
	r.logger.Info("session expired", "session_id", session.ID)
	r.expired(session.Snapshot())
}

func (r *Registry) ended(state models.State) {
	if r.metrics == nil {
		return
	}
	r.metrics.SessionsEnded.WithLabelValues(state.String()).Inc()
	r.metrics.ActiveSessions.Dec()
}
