package tokenstore

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/uniportal/internal/client/models"
	"github.com/dmitrijs2005/uniportal/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/uniportal/internal/dbx"
)

// Metadata keys.
const (
	KeyAccessToken  = "access_token"
	KeyRefreshToken = "refresh_token"
)

// SQLiteStore persists the credential in the metadata table so that it
// survives process restarts.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

func (s *SQLiteStore) Set(ctx context.Context, cred models.Credential) error {
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := metadata.NewSQLiteRepository(tx)
		if err := repo.Set(ctx, KeyAccessToken, []byte(cred.Access)); err != nil {
			return fmt.Errorf("store credential: %w", err)
		}
		if cred.Refresh == "" {
			return repo.Delete(ctx, KeyRefreshToken)
		}
		if err := repo.Set(ctx, KeyRefreshToken, []byte(cred.Refresh)); err != nil {
			return fmt.Errorf("store credential: %w", err)
		}
		return nil
	})
}

func (s *SQLiteStore) Get(ctx context.Context) (*models.Credential, error) {
	repo := metadata.NewSQLiteRepository(s.db)

	access, err := repo.Get(ctx, KeyAccessToken)
	if err != nil {
		return nil, fmt.Errorf("load credential: %w", err)
	}
	if len(access) == 0 {
		return nil, nil
	}
	refresh, err := repo.Get(ctx, KeyRefreshToken)
	if err != nil {
		return nil, fmt.Errorf("load credential: %w", err)
	}
	return &models.Credential{Access: string(access), Refresh: string(refresh)}, nil
}

func (s *SQLiteStore) Clear(ctx context.Context) error {
	if err := metadata.NewSQLiteRepository(s.db).Delete(ctx, KeyAccessToken, KeyRefreshToken); err != nil {
		return fmt.Errorf("clear credential: %w", err)
	}
	return nil
}
