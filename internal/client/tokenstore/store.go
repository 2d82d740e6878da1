// Package tokenstore keeps the current credential pair. It performs no
// validation; deciding whether a credential is still accepted is the
// session verifier's job.
package tokenstore

import (
	"context"

	"github.com/dmitrijs2005/uniportal/internal/client/models"
)

// Store holds at most one credential.
type Store interface {
	// Set replaces the stored credential.
	Set(ctx context.Context, cred models.Credential) error
	// Get returns the stored credential, or nil when there is none.
	Get(ctx context.Context) (*models.Credential, error)
	// Clear removes the credential. It is not an error to clear an empty
	// store.
	Clear(ctx context.Context) error
}
