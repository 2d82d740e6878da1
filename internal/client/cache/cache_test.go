package cache

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/dmitrijs2005/uniportal/internal/client/client"
	"github.com/dmitrijs2005/uniportal/internal/client/models"
	"github.com/dmitrijs2005/uniportal/internal/client/session"
	"github.com/dmitrijs2005/uniportal/internal/client/tokenstore"
	"github.com/dmitrijs2005/uniportal/internal/logging"
	"github.com/dmitrijs2005/uniportal/internal/testutil/uniserver"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	srv    *uniserver.Server
	client *client.HTTPClient
	tokens *tokenstore.MemoryStore
	sess   *session.Session
}

func login(t *testing.T, user, pass string, opts ...uniserver.Option) *fixture {
	t.Helper()
	srv, ts := uniserver.Start(t, opts...)
	c, err := client.NewHTTPClient(ts.URL)
	require.NoError(t, err)

	ctx := context.Background()
	cred, err := c.ObtainToken(ctx, []byte(user), []byte(pass))
	require.NoError(t, err)
	tokens := tokenstore.NewMemoryStore()
	require.NoError(t, tokens.Set(ctx, cred))
	sess := session.New()
	sess.MarkAuthenticated()
	return &fixture{srv: srv, client: c, tokens: tokens, sess: sess}
}

func (f *fixture) cache(dash models.DashboardContext) *Cache {
	return New(f.client, f.tokens, f.sess, LayoutFor(dash), logging.Discard())
}

func TestLayoutFor(t *testing.T) {
	assert.Len(t, LayoutFor(models.ContextAdministrator), 6)
	assert.Equal(t, Layout{models.Faculties, models.Subjects, models.Enrollments}, LayoutFor(models.ContextProfessor))
	assert.Equal(t, Layout{models.Faculties, models.Subjects, models.Students, models.Enrollments}, LayoutFor(models.ContextStudent))
	assert.Empty(t, LayoutFor(models.ContextNeutral))

	l := LayoutFor(models.ContextProfessor)
	l[0] = models.Administrators
	assert.False(t, LayoutFor(models.ContextProfessor).Has(models.Administrators))
}

func TestLoad_Student(t *testing.T) {
	f := login(t, uniserver.StudentUsername, uniserver.StudentPassword)
	c := f.cache(models.ContextStudent)

	require.NoError(t, c.Load(context.Background()))
	snap := c.Snapshot()

	assert.True(t, snap.Faculties.Loaded)
	assert.True(t, snap.Subjects.Loaded)
	assert.True(t, snap.Students.Loaded)
	assert.True(t, snap.Enrollments.Loaded)
	assert.False(t, snap.Professors.Loaded)
	assert.False(t, snap.Administrators.Loaded)

	assert.Equal(t, 3, snap.Subjects.Len())
	require.Equal(t, 1, snap.Enrollments.Len())
	assert.Equal(t, int64(1), snap.Enrollments.Items[0].Subject)

	me, ok := snap.StudentByUsername(uniserver.StudentUsername)
	require.True(t, ok)
	assert.True(t, snap.EnrolledIn(me.ID, 1))
	assert.False(t, snap.EnrolledIn(me.ID, 3))
}

func TestLoad_Administrator(t *testing.T) {
	f := login(t, uniserver.AdminUsername, uniserver.AdminPassword)
	c := f.cache(models.ContextAdministrator)

	require.NoError(t, c.Load(context.Background()))
	snap := c.Snapshot()
	for _, coll := range c.Layout() {
		loaded, err := snap.Status(coll)
		assert.True(t, loaded, coll)
		assert.NoError(t, err, coll)
	}
	assert.Equal(t, 2, snap.Count(models.Faculties))
	assert.Equal(t, 1, snap.Count(models.Administrators))
	assert.Equal(t, 2, snap.ProfessorCourseCount(1))
}

func TestLoad_EnvelopeAndRawNormalizeIdentically(t *testing.T) {
	raw := login(t, uniserver.AdminUsername, uniserver.AdminPassword)
	paged := login(t, uniserver.AdminUsername, uniserver.AdminPassword, uniserver.WithEnvelope(1))

	a := raw.cache(models.ContextAdministrator)
	b := paged.cache(models.ContextAdministrator)
	require.NoError(t, a.Load(context.Background()))
	require.NoError(t, b.Load(context.Background()))

	ignoreDates := cmpopts.IgnoreFields(models.Enrollment{}, "EnrolledDate")
	if diff := cmp.Diff(a.Snapshot(), b.Snapshot(), ignoreDates, cmpopts.EquateErrors()); diff != "" {
		t.Fatalf("snapshots differ (-raw +envelope):\n%s", diff)
	}
}

func TestLoad_FailedCollectionDegradesAlone(t *testing.T) {
	f := login(t, uniserver.StudentUsername, uniserver.StudentPassword)
	f.srv.Fail(http.MethodGet, "/api/university/subjects/", http.StatusInternalServerError, nil)
	c := f.cache(models.ContextStudent)

	require.NoError(t, c.Load(context.Background()))
	snap := c.Snapshot()

	assert.False(t, snap.Subjects.Loaded)
	assert.Empty(t, snap.Subjects.Items)
	assert.ErrorIs(t, snap.Subjects.Err, client.ErrServer)
	assert.True(t, snap.Enrollments.Loaded)
	assert.True(t, snap.Faculties.Loaded)

	f.srv.Recover(http.MethodGet, "/api/university/subjects/")
	require.NoError(t, c.Load(context.Background()))
	assert.True(t, c.Snapshot().Subjects.Loaded)
}

func TestLoad_AuthFailureIsReturned(t *testing.T) {
	f := login(t, uniserver.StudentUsername, uniserver.StudentPassword)
	c := f.cache(models.ContextStudent)
	require.NoError(t, c.Load(context.Background()))
	before := c.Snapshot()

	f.srv.Fail(http.MethodGet, "/api/university/enrollments/", http.StatusUnauthorized, map[string]string{"detail": "expired"})
	err := c.Load(context.Background())
	require.ErrorIs(t, err, client.ErrUnauthorized)
	assert.Equal(t, before.Subjects.Len(), c.Snapshot().Subjects.Len())
}

func TestLoad_NoCredential(t *testing.T) {
	c := New(nil, tokenstore.NewMemoryStore(), session.New(), LayoutFor(models.ContextStudent), logging.Discard())
	assert.ErrorIs(t, c.Load(context.Background()), client.ErrUnauthorized)
}

// advancingClient moves the session to a new epoch while answering List.
type advancingClient struct {
	client.Client
	sess *session.Session
}

func (a advancingClient) List(context.Context, models.Credential, models.Collection) ([]json.RawMessage, error) {
	a.sess.Advance()
	return []json.RawMessage{json.RawMessage(`{"id":1,"name":"CS"}`)}, nil
}

func TestLoad_StaleResultsDiscarded(t *testing.T) {
	ctx := context.Background()
	sess := session.New()
	sess.MarkAuthenticated()
	tokens := tokenstore.NewMemoryStore()
	require.NoError(t, tokens.Set(ctx, models.Credential{Access: "a"}))

	c := New(advancingClient{sess: sess}, tokens, sess, Layout{models.Faculties}, logging.Discard())
	require.ErrorIs(t, c.Load(ctx), ErrStale)
	assert.False(t, c.Snapshot().Faculties.Loaded)
	assert.Empty(t, c.Snapshot().Faculties.Items)
}

func TestReset(t *testing.T) {
	f := login(t, uniserver.StudentUsername, uniserver.StudentPassword)
	c := f.cache(models.ContextStudent)
	require.NoError(t, c.Load(context.Background()))

	c.Reset()
	assert.Equal(t, Snapshot{}, c.Snapshot())
}
