package services

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/dmitrijs2005/uniportal/internal/client/client"
	"github.com/dmitrijs2005/uniportal/internal/client/models"
	"github.com/dmitrijs2005/uniportal/internal/client/tokenstore"
	"github.com/dmitrijs2005/uniportal/internal/logging"
	"github.com/dmitrijs2005/uniportal/internal/testutil/uniserver"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loggedIn(t *testing.T, user, pass string) (*env, MutationService, *fakeReloader) {
	t.Helper()
	e := newEnv(t)
	_, _, err := e.auth.Login(context.Background(), user, []byte(pass))
	require.NoError(t, err)
	rl := &fakeReloader{}
	return e, NewMutationService(e.client, e.tokens, rl, logging.Discard()), rl
}

func newFakeMutations(t *testing.T, f *fakeClient, rl Reloader) MutationService {
	t.Helper()
	tokens := tokenstore.NewMemoryStore()
	require.NoError(t, tokens.Set(context.Background(), models.Credential{Access: "a"}))
	return NewMutationService(f, tokens, rl, logging.Discard())
}

func TestCreate_ReloadsAfterSuccess(t *testing.T) {
	_, m, rl := loggedIn(t, uniserver.AdminUsername, uniserver.AdminPassword)

	out, err := m.Create(context.Background(), models.KindFaculty, models.Payload{"name": "Mathematics"})
	require.NoError(t, err)
	assert.Equal(t, 1, rl.count())

	var f models.Faculty
	require.NoError(t, json.Unmarshal(out, &f))
	assert.Equal(t, "Mathematics", f.Name)
}

func TestCreate_FailureDoesNotReload(t *testing.T) {
	_, m, rl := loggedIn(t, uniserver.AdminUsername, uniserver.AdminPassword)

	_, err := m.Create(context.Background(), models.KindSubject, models.Payload{"credits": 3})
	var apiErr *client.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, client.KindValidation, apiErr.Kind)
	assert.Contains(t, apiErr.Fields, "name")
	assert.Zero(t, rl.count())
}

func TestDelete_ForbiddenForStudent(t *testing.T) {
	_, m, rl := loggedIn(t, uniserver.StudentUsername, uniserver.StudentPassword)

	err := m.Delete(context.Background(), models.KindSubject, 1)
	require.ErrorIs(t, err, client.ErrValidation)
	assert.Zero(t, rl.count())
}

func TestMutation_RequiresCredential(t *testing.T) {
	f := &fakeClient{}
	m := NewMutationService(f, tokenstore.NewMemoryStore(), &fakeReloader{}, logging.Discard())

	_, err := m.Create(context.Background(), models.KindFaculty, models.Payload{})
	require.ErrorIs(t, err, ErrNotAuthenticated)
	assert.Zero(t, f.count("Create"))
}

func TestMutation_UnknownKind(t *testing.T) {
	f := &fakeClient{}
	m := newFakeMutations(t, f, &fakeReloader{})

	err := m.Delete(context.Background(), models.Kind("course"), 1)
	require.Error(t, err)
	assert.Zero(t, f.count("Delete"))
}

func TestReloadFailure(t *testing.T) {
	ok := func(models.Collection, any) (json.RawMessage, error) { return json.RawMessage(`{"id":1}`), nil }

	t.Run("non-auth is swallowed", func(t *testing.T) {
		rl := &fakeReloader{err: client.ErrServer}
		m := newFakeMutations(t, &fakeClient{create: ok}, rl)
		_, err := m.Create(context.Background(), models.KindFaculty, models.Payload{"name": "X"})
		require.NoError(t, err)
		assert.Equal(t, 1, rl.count())
	})

	t.Run("auth is returned", func(t *testing.T) {
		rl := &fakeReloader{err: client.ErrUnauthorized}
		m := newFakeMutations(t, &fakeClient{create: ok}, rl)
		_, err := m.Create(context.Background(), models.KindFaculty, models.Payload{"name": "X"})
		require.ErrorIs(t, err, client.ErrUnauthorized)
	})
}

func TestAssignSubjects_PartialFailure(t *testing.T) {
	e, m, rl := loggedIn(t, uniserver.AdminUsername, uniserver.AdminPassword)
	ctx := context.Background()

	res, err := m.AssignSubjects(ctx, 1, []int64{2, 99, 3})
	require.NoError(t, err)
	assert.Equal(t, []int64{2, 3}, res.Succeeded)
	require.Len(t, res.Failed, 1)
	assert.Equal(t, int64(99), res.Failed[0].SubjectID)
	assert.Equal(t, 1, rl.count())
	for _, id := range []string{"2", "99", "3"} {
		assert.Equal(t, 1, e.srv.Hits(http.MethodPatch, "/api/university/subjects/"+id+"/"))
	}

	cred := e.stored(t)
	raw, err := e.client.List(ctx, *cred, models.Subjects)
	require.NoError(t, err)
	subjects, err := client.DecodeItems[models.Subject](raw)
	require.NoError(t, err)
	for _, s := range subjects {
		assert.Equal(t, int64(1), s.ProfessorID(), s.Name)
	}
}

func TestAssignSubjects_StopsAfterAuthFailure(t *testing.T) {
	var sent []int64
	f := &fakeClient{update: func(_ models.Collection, id int64, _ any) (json.RawMessage, error) {
		sent = append(sent, id)
		if id == 2 {
			return nil, client.ErrUnauthorized
		}
		return json.RawMessage(`{}`), nil
	}}
	rl := &fakeReloader{}
	m := newFakeMutations(t, f, rl)

	res, err := m.AssignSubjects(context.Background(), 7, []int64{1, 2, 3, 4})
	require.ErrorIs(t, err, client.ErrUnauthorized)
	assert.Equal(t, []int64{1, 2}, sent)
	assert.Equal(t, []int64{1}, res.Succeeded)
	require.Len(t, res.Failed, 3)
	for i, want := range []int64{2, 3, 4} {
		assert.Equal(t, want, res.Failed[i].SubjectID)
		assert.ErrorIs(t, res.Failed[i].Err, client.ErrUnauthorized)
	}
	assert.Equal(t, 1, rl.count())
}

func TestAssignSubjects_NothingSucceededNoReload(t *testing.T) {
	f := &fakeClient{update: func(models.Collection, int64, any) (json.RawMessage, error) {
		return nil, client.ErrValidation
	}}
	rl := &fakeReloader{}
	m := newFakeMutations(t, f, rl)

	res, err := m.AssignSubjects(context.Background(), 7, []int64{1, 2})
	require.NoError(t, err)
	assert.Empty(t, res.Succeeded)
	assert.Len(t, res.Failed, 2)
	assert.Zero(t, rl.count())
}

func TestEnroll(t *testing.T) {
	_, m, rl := loggedIn(t, uniserver.StudentUsername, uniserver.StudentPassword)
	ctx := context.Background()

	require.NoError(t, m.Enroll(ctx, 1, 3))
	assert.Equal(t, 1, rl.count())

	err := m.Enroll(ctx, 1, 1)
	require.ErrorIs(t, err, ErrAlreadyEnrolled)
	assert.ErrorIs(t, err, client.ErrConflict)
	assert.Equal(t, 1, rl.count())
}

func TestGrade_ValidatesBeforeSending(t *testing.T) {
	f := &fakeClient{}
	m := newFakeMutations(t, f, &fakeReloader{})
	ctx := context.Background()

	require.ErrorIs(t, m.Grade(ctx, 1, models.Grade("E"), nil), models.ErrInvalidGrade)
	over := 101.0
	require.ErrorIs(t, m.Grade(ctx, 1, models.GradeA, &over), models.ErrInvalidScore)
	under := -0.5
	require.ErrorIs(t, m.Grade(ctx, 1, models.GradeA, &under), models.ErrInvalidScore)
	assert.Zero(t, f.count("Update"))
}

func TestGrade_SendsGradeAndScore(t *testing.T) {
	var got models.Payload
	f := &fakeClient{update: func(coll models.Collection, id int64, payload any) (json.RawMessage, error) {
		assert.Equal(t, models.Enrollments, coll)
		assert.Equal(t, int64(4), id)
		got = payload.(models.Payload)
		return json.RawMessage(`{}`), nil
	}}
	rl := &fakeReloader{}
	m := newFakeMutations(t, f, rl)

	score := 88.5
	require.NoError(t, m.Grade(context.Background(), 4, models.Grade("b"), &score))
	assert.Equal(t, models.Payload{"grade": models.GradeB, "score": 88.5}, got)
	assert.Equal(t, 1, rl.count())
}

func TestGrade_Professor(t *testing.T) {
	e, m, _ := loggedIn(t, uniserver.ProfessorUsername, uniserver.ProfessorPassword)
	ctx := context.Background()

	score := 92.0
	require.NoError(t, m.Grade(ctx, 1, models.GradeA, &score))

	raw, err := e.client.List(ctx, *e.stored(t), models.Enrollments)
	require.NoError(t, err)
	list, err := client.DecodeItems[models.Enrollment](raw)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, models.GradeA, list[0].Grade)
	require.NotNil(t, list[0].Score)
	assert.InDelta(t, 92.0, *list[0].Score, 0.001)
}
