package models

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signed(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("k"))
	require.NoError(t, err)
	return s
}

func TestContextFor_Whitelist(t *testing.T) {
	known := map[string]DashboardContext{
		"administrator": ContextAdministrator,
		"professor":     ContextProfessor,
		"student":       ContextStudent,
	}
	seen := map[DashboardContext]bool{}
	for s, want := range known {
		got := ContextFor(ParseRole(s))
		assert.Equal(t, want, got, s)
		seen[got] = true
	}
	assert.Len(t, seen, 3)

	for _, s := range []string{"user", "", "Administrator", "admin", "student ", "root"} {
		for i := 0; i < 2; i++ {
			assert.Equal(t, ContextNeutral, ContextFor(ParseRole(s)), s)
		}
	}
}

func TestParseContext(t *testing.T) {
	for _, c := range []DashboardContext{ContextAdministrator, ContextProfessor, ContextStudent, ContextNeutral} {
		got, ok := ParseContext(c.String())
		require.True(t, ok)
		assert.Equal(t, c, got)
	}
	_, ok := ParseContext("dean")
	assert.False(t, ok)
}

func TestParseKind(t *testing.T) {
	k, err := ParseKind("subjects")
	require.NoError(t, err)
	assert.Equal(t, KindSubject, k)

	k, err = ParseKind("enrollment")
	require.NoError(t, err)
	c, err := k.Collection()
	require.NoError(t, err)
	assert.Equal(t, Enrollments, c)

	_, err = ParseKind("course")
	require.Error(t, err)
	_, err = Kind("course").Collection()
	require.Error(t, err)
}

func TestParseGrade(t *testing.T) {
	g, err := ParseGrade(" b ")
	require.NoError(t, err)
	assert.Equal(t, GradeB, g)

	g, err = ParseGrade("-")
	require.NoError(t, err)
	assert.Equal(t, NotGraded, g)

	_, err = ParseGrade("E")
	require.ErrorIs(t, err, ErrInvalidGrade)
}

func TestValidateScore(t *testing.T) {
	ok, low, high := 88.5, -1.0, 100.5
	require.NoError(t, ValidateScore(nil))
	require.NoError(t, ValidateScore(&ok))
	require.ErrorIs(t, ValidateScore(&low), ErrInvalidScore)
	require.ErrorIs(t, ValidateScore(&high), ErrInvalidScore)
}

func TestCredential_AccessExpiry(t *testing.T) {
	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	c := Credential{Access: signed(t, jwt.MapClaims{"exp": exp.Unix()})}

	got, ok := c.AccessExpiry()
	require.True(t, ok)
	assert.True(t, got.Equal(exp))
	assert.False(t, c.ExpiredAt(time.Now()))
	assert.True(t, c.ExpiredAt(exp.Add(time.Second)))
}

func TestCredential_OpaqueTokenHasNoExpiry(t *testing.T) {
	for _, c := range []Credential{{}, {Access: "opaque"}, {Access: signed(t, jwt.MapClaims{"sub": "1"})}} {
		_, ok := c.AccessExpiry()
		assert.False(t, ok)
		assert.False(t, c.ExpiredAt(time.Now()))
	}
	assert.True(t, Credential{}.IsZero())
	assert.False(t, Credential{Access: "a"}.IsZero())
}

func TestEditState_String(t *testing.T) {
	states := []EditState{NotEditing{}, Creating{Kind: KindSubject}, Editing{Kind: KindFaculty, ID: 3}}
	assert.Equal(t, "not editing", states[0].String())
	assert.Equal(t, "creating subject", states[1].String())
	assert.Equal(t, "editing faculty #3", states[2].String())
}
