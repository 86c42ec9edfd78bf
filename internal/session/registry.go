package session

import (
	"context"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// minCleanupTTL is the smallest allowed retention TTL to prevent
// degenerate ticker intervals.
const minCleanupTTL = time.Millisecond

// Session represents one running (or recently finished) agent run. The
// embedded context is cancelled when a stop is requested, which the agent
// loop observes at its next step boundary.
type Session struct {
	ID        string
	CreatedAt time.Time

	mu            sync.Mutex
	running       bool
	stopRequested bool
	finishedAt    time.Time
	cancel        context.CancelFunc
}

// RequestStop cancels the session context. Safe to call multiple times.
func (s *Session) RequestStop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopRequested {
		return
	}
	s.stopRequested = true
	s.cancel()
	log.Printf("[Session] Stop requested for %s", s.ID)
}

// StopRequested reports whether a stop has been requested.
func (s *Session) StopRequested() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopRequested
}

// Running reports whether the agent run is still in progress.
func (s *Session) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// MarkCompleted records the end of the run and releases the context.
func (s *Session) MarkCompleted() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return
	}
	s.running = false
	s.finishedAt = time.Now()
	s.cancel()
}

// Registry is a thread-safe in-memory registry of agent sessions.
// Finished sessions are retained for a short TTL so late status queries
// still resolve, then evicted by a background goroutine. Single-process
// only; sessions are not shared across replicas.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	ttl      time.Duration
	done     chan struct{}
}

// NewRegistry creates a registry that retains finished sessions for ttl.
// Call Close when the registry is no longer needed.
func NewRegistry(ttl time.Duration) *Registry {
	if ttl < minCleanupTTL {
		ttl = minCleanupTTL
	}
	r := &Registry{
		sessions: make(map[string]*Session),
		ttl:      ttl,
		done:     make(chan struct{}),
	}
	go r.cleanupLoop()
	return r
}

// Create registers a new session derived from parent. The returned
// context is cancelled when the session is stopped or completed.
func (r *Registry) Create(parent context.Context) (*Session, context.Context) {
	ctx, cancel := context.WithCancel(parent)
	s := &Session{
		ID:        uuid.NewString(),
		CreatedAt: time.Now(),
		running:   true,
		cancel:    cancel,
	}

	r.mu.Lock()
	r.sessions[s.ID] = s
	r.mu.Unlock()

	log.Printf("[Session] Created %s", s.ID)
	return s, ctx
}

// Get returns a session by ID.
func (r *Registry) Get(id string) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[id]
	return s, ok
}

// Stop requests a stop for the given session. Returns false if the
// session does not exist or already finished.
func (r *Registry) Stop(id string) bool {
	r.mu.RLock()
	s, ok := r.sessions[id]
	r.mu.RUnlock()
	if !ok || !s.Running() {
		return false
	}
	s.RequestStop()
	return true
}

// StopAll requests a stop for every running session and returns how many
// were signalled.
func (r *Registry) StopAll() int {
	r.mu.RLock()
	sessions := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		sessions = append(sessions, s)
	}
	r.mu.RUnlock()

	count := 0
	for _, s := range sessions {
		if s.Running() {
			s.RequestStop()
			count++
		}
	}
	log.Printf("[Session] Stopped %d sessions", count)
	return count
}

// Remove deletes a session regardless of state.
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id)
}

// Active returns the IDs of all running sessions, sorted for stable
// output.
func (r *Registry) Active() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var ids []string
	for id, s := range r.sessions {
		if s.Running() {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

// Count returns the total number of tracked sessions.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Close stops the background cleanup goroutine. Safe to call multiple
// times.
func (r *Registry) Close() {
	select {
	case <-r.done:
	default:
		close(r.done)
	}
}

// cleanupLoop evicts finished sessions whose retention TTL has passed.
func (r *Registry) cleanupLoop() {
	ticker := time.NewTicker(r.ttl / 2)
	defer ticker.Stop()
	for {
		select {
		case <-r.done:
			return
		case <-ticker.C:
			cutoff := time.Now().Add(-r.ttl)
			r.mu.Lock()
			for id, s := range r.sessions {
				s.mu.Lock()
				expired := !s.running && s.finishedAt.Before(cutoff)
				s.mu.Unlock()
				if expired {
					delete(r.sessions, id)
				}
			}
			r.mu.Unlock()
		}
	}
}
