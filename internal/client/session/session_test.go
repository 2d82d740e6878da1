package session

import (
	"sync"
	"testing"

	"github.com/dmitrijs2005/uniportal/internal/client/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSession_Lifecycle(t *testing.T) {
	s := New()
	require.Equal(t, StateUnknown, s.State())
	require.False(t, s.Authenticated())

	first := s.Epoch()
	s.MarkAuthenticated()
	require.True(t, s.Authenticated())
	require.False(t, s.Resolved())
	assert.False(t, s.Current(first))
	require.Equal(t, models.ContextNeutral, s.Context())

	p := models.Profile{Username: "student1", Role: "student"}
	s.Resolve(p, models.RoleStudent, models.ContextStudent)
	require.True(t, s.Resolved())
	assert.Equal(t, models.RoleStudent, s.Role())
	assert.Equal(t, models.ContextStudent, s.Context())
	assert.Equal(t, p, s.Profile())

	before := s.Epoch()
	s.MarkUnauthenticated()
	assert.Equal(t, StateUnauthenticated, s.State())
	assert.False(t, s.Resolved())
	assert.Equal(t, models.ContextNeutral, s.Context())
	assert.Equal(t, models.Profile{}, s.Profile())
	assert.False(t, s.Current(before))
}

func TestSession_ResolveIgnoredWhenUnauthenticated(t *testing.T) {
	s := New()
	s.Resolve(models.Profile{Role: "administrator"}, models.RoleAdministrator, models.ContextAdministrator)
	assert.False(t, s.Resolved())
	assert.Equal(t, models.ContextNeutral, s.Context())
}

func TestSession_Advance(t *testing.T) {
	s := New()
	e := s.Epoch()
	require.True(t, s.Current(e))
	next := s.Advance()
	assert.Equal(t, e+1, next)
	assert.False(t, s.Current(e))
	assert.True(t, s.Current(next))
}

func TestSession_Scratch(t *testing.T) {
	s := New()
	s.Put("draft", "x")
	v, ok := s.Value("draft")
	require.True(t, ok)
	assert.Equal(t, "x", v)

	s.ClearScratch()
	_, ok = s.Value("draft")
	assert.False(t, ok)
}

func TestSession_ConcurrentUse(t *testing.T) {
	s := New()
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.MarkAuthenticated()
			s.Put("k", "v")
			_ = s.Context()
			s.Advance()
			s.MarkUnauthenticated()
		}()
	}
	wg.Wait()
	assert.Equal(t, uint64(32), s.Epoch())
}
