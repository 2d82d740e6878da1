// Package cache holds the role-scoped entity cache behind a dashboard view.
// One Cache is parameterized by a Layout; every Load replaces the whole
// snapshot.
package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/uniportal/internal/client/client"
	"github.com/dmitrijs2005/uniportal/internal/client/models"
	"github.com/dmitrijs2005/uniportal/internal/client/session"
	"github.com/dmitrijs2005/uniportal/internal/client/tokenstore"
	"github.com/dmitrijs2005/uniportal/internal/logging"
	"golang.org/x/sync/errgroup"
)

// ErrStale is returned by Load when the session moved to a new epoch while
// the load was in flight. The results are dropped.
var ErrStale = errors.New("load discarded: session changed")

type Cache struct {
	client client.Client
	tokens tokenstore.Store
	sess   *session.Session
	layout Layout
	log    logging.Logger

	mu   sync.RWMutex
	snap Snapshot
}

func New(c client.Client, tokens tokenstore.Store, sess *session.Session, layout Layout, log logging.Logger) *Cache {
	return &Cache{client: c, tokens: tokens, sess: sess, layout: layout, log: log}
}

func (c *Cache) Layout() Layout { return c.layout }

// Snapshot returns the current snapshot. Item slices are shared and must
// not be modified.
func (c *Cache) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snap
}

// Reset drops every cached collection.
func (c *Cache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.snap = Snapshot{}
}

// Load fetches every collection of the layout concurrently. A collection
// that fails is left empty and unloaded while the others populate. Only an
// auth failure is returned; the snapshot is then left as it was.
func (c *Cache) Load(ctx context.Context) error {
	epoch := c.sess.Epoch()

	cred, err := c.tokens.Get(ctx)
	if err != nil {
		return fmt.Errorf("load: %w", err)
	}
	if cred == nil {
		return fmt.Errorf("load: no stored credential: %w", client.ErrUnauthorized)
	}

	var next Snapshot
	g, gctx := errgroup.WithContext(ctx)
	for _, coll := range c.layout {
		coll := coll // per-iteration copy (go1.22 loopvar semantics under go 1.21)
		switch coll {
		case models.Faculties:
			g.Go(func() error { return fetch(gctx, c, *cred, coll, &next.Faculties) })
		case models.Subjects:
			g.Go(func() error { return fetch(gctx, c, *cred, coll, &next.Subjects) })
		case models.Professors:
			g.Go(func() error { return fetch(gctx, c, *cred, coll, &next.Professors) })
		case models.Students:
			g.Go(func() error { return fetch(gctx, c, *cred, coll, &next.Students) })
		case models.Administrators:
			g.Go(func() error { return fetch(gctx, c, *cred, coll, &next.Administrators) })
		case models.Enrollments:
			g.Go(func() error { return fetch(gctx, c, *cred, coll, &next.Enrollments) })
		}
	}
	if err := g.Wait(); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.sess.Current(epoch) {
		return ErrStale
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	c.snap = next
	return nil
}

// fetch fills dst. It returns an error only for auth failures so the group
// keeps the other collections going.
func fetch[T any](ctx context.Context, c *Cache, cred models.Credential, coll models.Collection, dst *Collection[T]) error {
	raw, err := c.client.List(ctx, cred, coll)
	if err == nil {
		dst.Items, err = client.DecodeItems[T](raw)
	}
	if err != nil {
		dst.Items, dst.Err = nil, err
		if client.IsAuth(err) {
			return err
		}
		c.log.Warn(ctx, "collection not loaded", "collection", coll, "error", err)
		return nil
	}
	dst.Loaded = true
	return nil
}
