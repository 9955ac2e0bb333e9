package bridgeserver

import (
	"net"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Session is one connected client: its socket plus the handle used to join
// its worker during shutdown.
type Session struct {
	ID      string
	Conn    net.Conn
	Started time.Time

	// done is closed by the worker when it exits.
	done chan struct{}

	// writeMu serializes response writes to the socket.
	writeMu sync.Mutex
}

// Done returns a channel closed when the session's worker has exited.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Registry tracks live client sessions under one lock. Shutdown snapshots
// the map and does the closing and joining outside the lock so other
// register/unregister calls are never blocked behind teardown.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*Session
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[string]*Session),
	}
}

// Register adds a new session for conn and returns it.
func (r *Registry) Register(conn net.Conn) *Session {
	sess := &Session{
		ID:      uuid.NewString(),
		Conn:    conn,
		Started: time.Now(),
		done:    make(chan struct{}),
	}

	r.mu.Lock()
	r.sessions[sess.ID] = sess
	r.mu.Unlock()

	return sess
}

// Unregister removes the session with the given id.
func (r *Registry) Unregister(id string) {
	r.mu.Lock()
	delete(r.sessions, id)
	r.mu.Unlock()
}

// Snapshot returns the current sessions without holding the lock for the
// caller's iteration.
func (r *Registry) Snapshot() []*Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]*Session, 0, len(r.sessions))
	for _, sess := range r.sessions {
		out = append(out, sess)
	}
	return out
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Clear removes all sessions.
func (r *Registry) Clear() {
	r.mu.Lock()
	r.sessions = make(map[string]*Session)
	r.mu.Unlock()
}
