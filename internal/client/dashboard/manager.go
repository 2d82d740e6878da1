// Package dashboard implements the three role-scoped dashboard views. A view
// owns its entity cache and edit state and is discarded on close or logout.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/uniportal/internal/client/cache"
	"github.com/dmitrijs2005/uniportal/internal/client/client"
	"github.com/dmitrijs2005/uniportal/internal/client/models"
	"github.com/dmitrijs2005/uniportal/internal/client/services"
	"github.com/dmitrijs2005/uniportal/internal/client/session"
	"github.com/dmitrijs2005/uniportal/internal/client/tokenstore"
	"github.com/dmitrijs2005/uniportal/internal/logging"
)

var (
	ErrAccessDenied = errors.New("access denied")
	ErrClosed       = errors.New("dashboard closed")
)

// Manager opens dashboard views for the current session. At most one view
// is open at a time.
type Manager struct {
	client client.Client
	tokens tokenstore.Store
	sess   *session.Session
	auth   services.AuthService
	log    logging.Logger

	mu      sync.Mutex
	current *View
}

func NewManager(c client.Client, tokens tokenstore.Store, sess *session.Session, auth services.AuthService, log logging.Logger) *Manager {
	return &Manager{client: c, tokens: tokens, sess: sess, auth: auth, log: log}
}

// Open closes the current view, checks access to want and loads a new view.
// Access is denied when the session is not authenticated or its resolved
// context differs from want. A login whose role is still unresolved is
// resolved first.
func (m *Manager) Open(ctx context.Context, want models.DashboardContext) (*View, error) {
	m.Close()

	if err := m.resolve(ctx); err != nil {
		return nil, err
	}
	if have := m.sess.Context(); want == models.ContextNeutral || have != want {
		return nil, fmt.Errorf("%w: %s dashboard", ErrAccessDenied, want)
	}

	v := m.newView(want)
	if err := v.Reload(ctx); err != nil {
		v.Close()
		return nil, err
	}

	m.mu.Lock()
	m.current = v
	m.mu.Unlock()
	m.log.Info(ctx, "dashboard opened", "context", want.String())
	return v, nil
}

// OpenOwn opens the dashboard of the session's role, resolving it first if
// needed.
func (m *Manager) OpenOwn(ctx context.Context) (*View, error) {
	if err := m.resolve(ctx); err != nil {
		return nil, err
	}
	return m.Open(ctx, m.sess.Context())
}

func (m *Manager) resolve(ctx context.Context) error {
	if !m.sess.Authenticated() {
		return fmt.Errorf("%w: not logged in", ErrAccessDenied)
	}
	if m.sess.Resolved() {
		return nil
	}
	_, _, err := m.auth.ResolveRole(ctx)
	return err
}

// Current returns the open view, or nil. A view whose session has ended is
// closed and dropped.
func (m *Manager) Current() *View {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current != nil && !m.current.live() {
		m.current = nil
	}
	return m.current
}

// Close closes the open view, if any.
func (m *Manager) Close() {
	m.mu.Lock()
	v := m.current
	m.current = nil
	m.mu.Unlock()
	if v != nil {
		v.Close()
	}
}

func (m *Manager) newView(dash models.DashboardContext) *View {
	base, cancel := context.WithCancel(context.Background())
	c := cache.New(m.client, m.tokens, m.sess, cache.LayoutFor(dash), m.log)
	return &View{
		m:      m,
		dash:   dash,
		cache:  c,
		mut:    services.NewMutationService(m.client, m.tokens, c, m.log),
		epoch:  m.sess.Epoch(),
		base:   base,
		cancel: cancel,
		edit:   models.NotEditing{},
	}
}
