package uniserver

import (
	"bytes"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func doReq(t *testing.T, method, url, token string, body any) (*http.Response, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, url, &buf)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out map[string]any
	_ = json.NewDecoder(resp.Body).Decode(&out)
	return resp, out
}

func login(t *testing.T, base, user, pass string) string {
	t.Helper()
	resp, out := doReq(t, http.MethodPost, base+"/api/auth/token/", "", map[string]string{"username": user, "password": pass})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	return out["access"].(string)
}

func TestLoginAndDashboardRoles(t *testing.T) {
	_, ts := Start(t)

	for user, pass := range map[string]string{
		AdminUsername:     AdminPassword,
		ProfessorUsername: ProfessorPassword,
		StudentUsername:   StudentPassword,
	} {
		token := login(t, ts.URL, user, pass)
		resp, out := doReq(t, http.MethodGet, ts.URL+"/api/university/dashboard/", token, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, user, out["username"])
	}
}

func TestLogin_BadCredentials(t *testing.T) {
	_, ts := Start(t)
	resp, out := doReq(t, http.MethodPost, ts.URL+"/api/auth/token/", "", map[string]string{"username": "x", "password": "y"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "Invalid credentials", out["error"])
}

func TestLogoutRevokesToken(t *testing.T) {
	_, ts := Start(t)
	token := login(t, ts.URL, StudentUsername, StudentPassword)

	resp, _ := doReq(t, http.MethodPost, ts.URL+"/api/auth/logout/", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = doReq(t, http.MethodGet, ts.URL+"/api/university/dashboard/", token, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestDuplicateEnrollmentIsUniqueSetError(t *testing.T) {
	_, ts := Start(t)
	token := login(t, ts.URL, StudentUsername, StudentPassword)

	resp, out := doReq(t, http.MethodPost, ts.URL+"/api/university/enrollments/", token, map[string]int{"student": 1, "subject": 1})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, []any{msgUniqueSet}, out["non_field_errors"])
}

func TestStudentCannotWriteSubjects(t *testing.T) {
	_, ts := Start(t)
	token := login(t, ts.URL, StudentUsername, StudentPassword)

	resp, _ := doReq(t, http.MethodPost, ts.URL+"/api/university/subjects/", token, map[string]any{"name": "X", "faculty": 1})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestNestedUserErrors(t *testing.T) {
	_, ts := Start(t)
	token := login(t, ts.URL, AdminUsername, AdminPassword)

	resp, out := doReq(t, http.MethodPost, ts.URL+"/api/university/students/", token,
		map[string]any{"user": map[string]string{"username": StudentUsername, "password": "p"}})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	user, ok := out["user"].(map[string]any)
	require.True(t, ok)
	assert.NotEmpty(t, user["username"])
}

func TestFailAndHits(t *testing.T) {
	s, ts := Start(t)
	s.Fail(http.MethodPost, "/api/auth/logout/", http.StatusServiceUnavailable, nil)

	resp, _ := doReq(t, http.MethodPost, ts.URL+"/api/auth/logout/", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Equal(t, 1, s.Hits(http.MethodPost, "/api/auth/logout/"))

	s.Recover(http.MethodPost, "/api/auth/logout/")
	resp, _ = doReq(t, http.MethodPost, ts.URL+"/api/auth/logout/", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
