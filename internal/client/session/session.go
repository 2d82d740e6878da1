// Package session holds the in-process authentication state of the client.
//
// A Session is derived state: it is never persisted and is rebuilt on every
// start from the stored credential plus a server round trip. It is passed
// explicitly to every component that needs it.
package session

import (
	"sync"

	"github.com/dmitrijs2005/uniportal/internal/client/models"
)

// State is the verification state of a session.
type State int

const (
	StateUnknown State = iota
	StateAuthenticated
	StateUnauthenticated
)

func (s State) String() string {
	switch s {
	case StateAuthenticated:
		return "authenticated"
	case StateUnauthenticated:
		return "unauthenticated"
	default:
		return "unknown"
	}
}

// Session is safe for concurrent use.
type Session struct {
	mu sync.RWMutex

	state    State
	resolved bool
	role     models.Role
	dash     models.DashboardContext
	profile  models.Profile

	// epoch changes on logout and navigation; loads started under an older
	// epoch must drop their results.
	epoch uint64

	scratch map[string]string
}

func New() *Session {
	return &Session{scratch: make(map[string]string)}
}

func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

func (s *Session) Authenticated() bool {
	return s.State() == StateAuthenticated
}

// MarkAuthenticated flips the session to authenticated with the role still
// unresolved and starts a new epoch, so nothing loaded for an earlier login
// is kept.
func (s *Session) MarkAuthenticated() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = StateAuthenticated
	s.resolved = false
	s.role = models.RoleUnknown
	s.dash = models.ContextNeutral
	s.profile = models.Profile{}
	s.epoch++
}

// Resolve records the role and profile returned by the server. It is a
// no-op unless the session is authenticated.
func (s *Session) Resolve(p models.Profile, role models.Role, dash models.DashboardContext) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateAuthenticated {
		return
	}
	s.resolved = true
	s.role = role
	s.dash = dash
	s.profile = p
}

// MarkUnauthenticated drops authentication, role and profile and starts a
// new epoch.
func (s *Session) MarkUnauthenticated() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = StateUnauthenticated
	s.resolved = false
	s.role = models.RoleUnknown
	s.dash = models.ContextNeutral
	s.profile = models.Profile{}
	s.epoch++
}

// Resolved reports whether a role has been resolved for the current login.
func (s *Session) Resolved() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.resolved
}

func (s *Session) Role() models.Role {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.role
}

// Context is ContextNeutral until a role is resolved.
func (s *Session) Context() models.DashboardContext {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dash
}

func (s *Session) Profile() models.Profile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.profile
}

func (s *Session) Epoch() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.epoch
}

// Advance starts a new epoch and returns it. Called on navigation.
func (s *Session) Advance() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.epoch++
	return s.epoch
}

// Current reports whether epoch is still the current one.
func (s *Session) Current(epoch uint64) bool {
	return s.Epoch() == epoch
}

// Put stores a transient value for the lifetime of the login.
func (s *Session) Put(key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scratch[key] = value
}

func (s *Session) Value(key string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.scratch[key]
	return v, ok
}

// ClearScratch drops every transient value.
func (s *Session) ClearScratch() {
	s.mu.Lock()
	defer s.mu.Unlock()
	clear(s.scratch)
}
