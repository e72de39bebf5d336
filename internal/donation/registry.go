package donation

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrSessionNotFound is returned for unknown or expired session IDs.
var ErrSessionNotFound = errors.New("donation session not found")

type session struct {
	mu       sync.Mutex
	machine  *Machine
	lastUsed time.Time
}

// Registry owns the machines of all live donation sessions.
type Registry struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]*session
	now      func() time.Time
	onExpire func(id uuid.UUID)
	logger   *slog.Logger
}

// NewRegistry creates an empty registry.
func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{
		sessions: make(map[uuid.UUID]*session),
		now:      time.Now,
		logger:   logger,
	}
}

// Create registers a fresh machine and returns its session ID.
func (r *Registry) Create() uuid.UUID {
	id := uuid.New()
	r.mu.Lock()
	r.sessions[id] = &session{machine: NewMachine(), lastUsed: r.now()}
	r.mu.Unlock()
	return id
}

// Do runs fn with exclusive access to the session's machine.
func (r *Registry) Do(id uuid.UUID, fn func(m *Machine) error) error {
	r.mu.Lock()
	s, ok := r.sessions[id]
	r.mu.Unlock()
	if !ok {
		return ErrSessionNotFound
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastUsed = r.now()
	return fn(s.machine)
}

// Remove drops a session. It reports whether the session existed.
func (r *Registry) Remove(id uuid.UUID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.sessions[id]
	delete(r.sessions, id)
	return ok
}

// OnExpire sets a hook called for every session Sweep removes. It runs
// without registry locks held.
func (r *Registry) OnExpire(fn func(id uuid.UUID)) {
	r.mu.Lock()
	r.onExpire = fn
	r.mu.Unlock()
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Sweep drops sessions idle for longer than ttl and returns how many went.
func (r *Registry) Sweep(ttl time.Duration) int {
	cutoff := r.now().Add(-ttl)

	r.mu.Lock()
	var expired []uuid.UUID
	for id, s := range r.sessions {
		s.mu.Lock()
		idle := s.lastUsed.Before(cutoff)
		s.mu.Unlock()
		if idle {
			delete(r.sessions, id)
			expired = append(expired, id)
		}
	}
	hook := r.onExpire
	r.mu.Unlock()

	if hook != nil {
		for _, id := range expired {
			hook(id)
		}
	}
	return len(expired)
}

// RunSweeper calls Sweep every interval until ctx is done.
func (r *Registry) RunSweeper(ctx context.Context, interval, ttl time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := r.Sweep(ttl); n > 0 {
				r.logger.Info("expired donation sessions removed",
					slog.Int("removed", n),
					slog.Int("remaining", r.Len()),
				)
			}
		}
	}
}
