package client

import (
	"net/http/httptest"
	"testing"

	"github.com/dmitrijs2005/uniportal/internal/client/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthorizers(t *testing.T) {
	cred := models.Credential{Access: "a", Refresh: "r"}

	req := httptest.NewRequest("GET", "/", nil)
	BearerAuthorizer{}.Authorize(req, cred)
	assert.Equal(t, "Bearer a", req.Header.Get("Authorization"))
	assert.Empty(t, req.Cookies())

	req = httptest.NewRequest("GET", "/", nil)
	CookieAuthorizer{}.Authorize(req, cred)
	assert.Empty(t, req.Header.Get("Authorization"))
	ck, err := req.Cookie("access_token")
	require.NoError(t, err)
	assert.Equal(t, "a", ck.Value)
	ck, err = req.Cookie("refresh_token")
	require.NoError(t, err)
	assert.Equal(t, "r", ck.Value)

	req = httptest.NewRequest("GET", "/", nil)
	BearerAuthorizer{}.Authorize(req, models.Credential{})
	assert.Empty(t, req.Header.Get("Authorization"))
}

func TestAuthorizerFor(t *testing.T) {
	a, err := AuthorizerFor("")
	require.NoError(t, err)
	assert.IsType(t, BearerAuthorizer{}, a)

	a, err = AuthorizerFor(TransportCookie)
	require.NoError(t, err)
	assert.IsType(t, CookieAuthorizer{}, a)

	_, err = AuthorizerFor("basic")
	assert.Error(t, err)
}
