package client

import (
	"fmt"
	"net/http"

	"github.com/dmitrijs2005/uniportal/internal/client/models"
	"github.com/dmitrijs2005/uniportal/internal/common"
)

// Authorizer attaches a credential to an outgoing request.
type Authorizer interface {
	Authorize(req *http.Request, cred models.Credential)
}

// Transport names accepted by AuthorizerFor.
const (
	TransportBearer = "bearer"
	TransportCookie = "cookie"
)

// BearerAuthorizer sends "Authorization: Bearer <access>".
type BearerAuthorizer struct{}

func (BearerAuthorizer) Authorize(req *http.Request, cred models.Credential) {
	if cred.Access == "" {
		return
	}
	req.Header.Set(common.AuthorizationHeaderName, common.BearerPrefix+cred.Access)
}

// CookieAuthorizer sends the pair as the access_token and refresh_token
// cookies.
type CookieAuthorizer struct{}

func (CookieAuthorizer) Authorize(req *http.Request, cred models.Credential) {
	if cred.Access != "" {
		req.AddCookie(&http.Cookie{Name: common.AccessTokenCookieName, Value: cred.Access})
	}
	if cred.Refresh != "" {
		req.AddCookie(&http.Cookie{Name: common.RefreshTokenCookieName, Value: cred.Refresh})
	}
}

// AuthorizerFor returns the authorizer for a transport name. The empty name
// selects bearer.
func AuthorizerFor(transport string) (Authorizer, error) {
	switch transport {
	case "", TransportBearer:
		return BearerAuthorizer{}, nil
	case TransportCookie:
		return CookieAuthorizer{}, nil
	default:
		return nil, fmt.Errorf("unknown credential transport %q", transport)
	}
}
