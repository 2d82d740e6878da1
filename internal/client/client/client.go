package client

import (
	"context"
	"encoding/json"

	"github.com/dmitrijs2005/uniportal/internal/client/models"
)

// Client is the contract of the university REST API as the client uses it.
// Every authenticated call takes the credential explicitly; the client
// itself holds no token state.
type Client interface {
	ObtainToken(ctx context.Context, username, password []byte) (models.Credential, error)
	RefreshToken(ctx context.Context, cred models.Credential) (models.Credential, error)
	Logout(ctx context.Context, cred models.Credential) error

	Dashboard(ctx context.Context, cred models.Credential) (models.Profile, error)
	Sessions(ctx context.Context, cred models.Credential) ([]models.AuthSession, error)
	RevokeSession(ctx context.Context, cred models.Credential, id int64) error

	// List returns every item of a collection in server order, following
	// pagination.
	List(ctx context.Context, cred models.Credential, coll models.Collection) ([]json.RawMessage, error)
	Create(ctx context.Context, cred models.Credential, coll models.Collection, payload any) (json.RawMessage, error)
	Update(ctx context.Context, cred models.Credential, coll models.Collection, id int64, payload any) (json.RawMessage, error)
	Delete(ctx context.Context, cred models.Credential, coll models.Collection, id int64) error

	Close() error
}
