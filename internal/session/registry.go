package session

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Session pairs a [Context] with the mutex that serializes the single
// session's requests (spec §5: "the registry guarantees at most one
// in-flight request per session").
type Session struct {
	ID      string
	Context *Context

	mu         sync.Mutex
	lastAccess time.Time
}

// Lock acquires the session's request-serialization lock. Callers (the
// Request Pipeline) must hold it for the duration of one request.
func (s *Session) Lock() { s.mu.Lock() }

// Unlock releases the session's request-serialization lock.
func (s *Session) Unlock() { s.mu.Unlock() }

// Registry is the Session Registry: it allocates UUIDv4 session IDs, owns
// the session-ID → [Session] map, and reclaims idle sessions.
type Registry struct {
	mu          sync.RWMutex
	sessions    map[string]*Session
	idleTimeout time.Duration
	history     int

	done     chan struct{}
	stopOnce sync.Once
}

// NewRegistry creates a Registry whose sessions are evicted after
// idleTimeout of inactivity and whose conversation history caps at
// historyLimit turns. It starts a background sweeper that runs every
// sweepInterval.
func NewRegistry(idleTimeout time.Duration, historyLimit int, sweepInterval time.Duration) *Registry {
	if idleTimeout <= 0 {
		idleTimeout = 30 * time.Minute
	}
	if sweepInterval <= 0 {
		sweepInterval = time.Minute
	}
	r := &Registry{
		sessions:    make(map[string]*Session),
		idleTimeout: idleTimeout,
		history:     historyLimit,
		done:        make(chan struct{}),
	}
	go r.sweepLoop(sweepInterval)
	return r
}

// GetOrCreate resolves id to an existing session, or creates one. An empty
// id allocates a fresh UUIDv4. A non-empty id that isn't already tracked is
// honored as-is (e.g. a client resuming with a previously issued ID). Each
// call opportunistically reclaims idle sessions before resolving.
func (r *Registry) GetOrCreate(id string) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.sweepLocked()

	if id != "" {
		if s, ok := r.sessions[id]; ok {
			s.lastAccess = time.Now()
			return s
		}
	} else {
		id = uuid.NewString()
	}

	s := &Session{
		ID:         id,
		Context:    newContext(id, r.history),
		lastAccess: time.Now(),
	}
	r.sessions[id] = s
	return s
}

// End removes a session from the registry.
func (r *Registry) End(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id)
}

// Sweep reclaims every session idle longer than the configured timeout.
func (r *Registry) Sweep() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sweepLocked()
}

// Count returns the number of tracked sessions.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

func (r *Registry) sweepLocked() {
	cutoff := time.Now().Add(-r.idleTimeout)
	for id, s := range r.sessions {
		if s.lastAccess.Before(cutoff) {
			delete(r.sessions, id)
		}
	}
}

func (r *Registry) sweepLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-r.done:
			return
		case <-ticker.C:
			before := r.Count()
			r.Sweep()
			if after := r.Count(); after < before {
				slog.Info("session registry: reclaimed idle sessions", "reclaimed", before-after, "remaining", after)
			}
		}
	}
}

// Stop stops the background sweeper.
func (r *Registry) Stop() {
	r.stopOnce.Do(func() { close(r.done) })
}
