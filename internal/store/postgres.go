package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/linkrelay/linkrelay/internal/credentials"
)

// PostgresStore is a PostgreSQL implementation of credentials.Store.
//
// Schema:
//
//	CREATE TABLE user_credentials (
//	    user_id    BIGINT PRIMARY KEY,
//	    api_key    TEXT NOT NULL,
//	    usage      BIGINT NOT NULL DEFAULT 0,
//	    updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
//	);
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgreSQL-backed credential store.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (p *PostgresStore) Get(ctx context.Context, userID int64) (string, error) {
	query := `SELECT api_key FROM user_credentials WHERE user_id = $1`

	var apiKey string

	err := p.pool.QueryRow(ctx, query, userID).Scan(&apiKey)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", credentials.ErrNotFound
		}

		return "", err
	}

	return apiKey, nil
}

func (p *PostgresStore) Set(ctx context.Context, userID int64, apiKey string) error {
	query := `
		INSERT INTO user_credentials (user_id, api_key, usage, updated_at)
		VALUES ($1, $2, 0, now())
		ON CONFLICT (user_id) DO UPDATE
		SET api_key = EXCLUDED.api_key, usage = 0, updated_at = now()
	`

	_, err := p.pool.Exec(ctx, query, userID, apiKey)

	return err
}

func (p *PostgresStore) Delete(ctx context.Context, userID int64) error {
	query := `DELETE FROM user_credentials WHERE user_id = $1`

	_, err := p.pool.Exec(ctx, query, userID)

	return err
}

func (p *PostgresStore) AddUsage(ctx context.Context, userID int64, delta int64) (int64, error) {
	query := `
		UPDATE user_credentials
		SET usage = usage + $2, updated_at = now()
		WHERE user_id = $1
		RETURNING usage
	`

	var count int64

	err := p.pool.QueryRow(ctx, query, userID, delta).Scan(&count)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, credentials.ErrNotFound
		}

		return 0, err
	}

	return count, nil
}

func (p *PostgresStore) Usage(ctx context.Context, userID int64) (int64, error) {
	query := `SELECT usage FROM user_credentials WHERE user_id = $1`

	var count int64

	err := p.pool.QueryRow(ctx, query, userID).Scan(&count)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, nil
		}

		return 0, err
	}

	return count, nil
}

// Compile-time check.
var _ credentials.Store = (*PostgresStore)(nil)
