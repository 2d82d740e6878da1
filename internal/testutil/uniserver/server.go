// Package uniserver is an in-memory fake of the university REST API for
// tests. It issues real HS256 JWTs, enforces the role permissions of the
// real service and can be told to fail individual routes.
package uniserver

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/uniportal/internal/netx"
	"github.com/go-chi/chi/v5"
)

// Seeded accounts.
const (
	AdminUsername     = "admin_user"
	AdminPassword     = "admin123"
	ProfessorUsername = "professor1"
	ProfessorPassword = "prof123"
	StudentUsername   = "student1"
	StudentPassword   = "student123"
)

type failure struct {
	status int
	body   any
}

type Server struct {
	mu sync.Mutex

	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time

	enveloped  bool
	pageSize   int
	cookieOnly bool

	failures map[string]failure
	hits     map[string]int

	db *store
}

type Option func(*Server)

// WithEnvelope makes list endpoints answer with {"count","next","results"}
// envelopes of pageSize items (0 means everything on one page).
func WithEnvelope(pageSize int) Option {
	return func(s *Server) {
		s.enveloped = true
		s.pageSize = pageSize
	}
}

func WithAccessTTL(d time.Duration) Option {
	return func(s *Server) { s.accessTTL = d }
}

// WithCookieOnlyTokens omits the tokens from the login body, leaving them
// only in Set-Cookie headers.
func WithCookieOnlyTokens() Option {
	return func(s *Server) { s.cookieOnly = true }
}

func WithClock(now func() time.Time) Option {
	return func(s *Server) { s.now = now }
}

func New(opts ...Option) *Server {
	s := &Server{
		secret:     []byte("uniserver-test-secret"),
		accessTTL:  15 * time.Minute,
		refreshTTL: 7 * 24 * time.Hour,
		now:        time.Now,
		failures:   make(map[string]failure),
		hits:       make(map[string]int),
	}
	for _, o := range opts {
		o(s)
	}
	s.db = newStore(s.now)
	return s
}

// Start serves a new fake on an httptest server that is closed with the
// test.
func Start(t testing.TB, opts ...Option) (*Server, *httptest.Server) {
	t.Helper()
	s := New(opts...)
	ts := httptest.NewServer(s.Router())
	t.Cleanup(ts.Close)
	return s, ts
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(s.track)

	r.Post("/api/auth/token/", s.handleObtainToken)
	r.Post("/api/auth/token/refresh/", s.handleRefresh)
	r.With(s.authMiddleware).Post("/api/auth/logout/", s.handleLogout)
	r.With(s.authMiddleware).Get("/api/auth/sessions/", s.handleSessions)
	r.With(s.authMiddleware).Post("/api/auth/sessions/{id}/revoke/", s.handleRevokeSession)

	r.Route("/api/university", func(r chi.Router) {
		r.Use(s.authMiddleware)
		r.Get("/dashboard/", s.handleDashboard)
		r.Get("/{collection}/", s.handleList)
		r.Post("/{collection}/", s.handleCreate)
		r.Get("/{collection}/{id}/", s.handleGet)
		r.Patch("/{collection}/{id}/", s.handleUpdate)
		r.Delete("/{collection}/{id}/", s.handleDelete)
	})
	return r
}

func routeKey(method, path string) string {
	return method + " " + path
}

// Fail makes every request to method+path answer with status and body until
// Recover is called.
func (s *Server) Fail(method, path string, status int, body any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[routeKey(method, path)] = failure{status: status, body: body}
}

func (s *Server) Recover(method, path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.failures, routeKey(method, path))
}

// Hits counts requests received for method+path, failed ones included.
func (s *Server) Hits(method, path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits[routeKey(method, path)]
}

func (s *Server) track(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := routeKey(r.Method, r.URL.Path)
		s.mu.Lock()
		s.hits[key]++
		f, failing := s.failures[key]
		s.mu.Unlock()

		if failing {
			writeJSON(w, f.status, f.body)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func decodeJSON(r *http.Request, out any) error {
	return json.NewDecoder(r.Body).Decode(out)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	netx.WriteJSON(w, status, payload)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeDetail(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"detail": msg})
}

// AddUser creates an account without a profile. Its dashboard role is the
// generic "user".
func (s *Server) AddUser(username, password string) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	s.db.addAccount(account{Username: username, Password: password})
}
