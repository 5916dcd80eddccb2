// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taibuivan/memberportal/internal/platform/sec"
)

// PostgresStore persists sessions in the portal_sessions table created by
// the migrations under data/migrations.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a Postgres-backed [Store].
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

/*
Load retrieves the session row for key.

Returns:
  - Session: The stored record
  - error: ErrNoSession if no row exists, or query errors
*/
func (store *PostgresStore) Load(ctx context.Context, key string) (Session, error) {
	const query = `
		SELECT access_token, refresh_token, role, updated_at
		FROM portal_sessions
		WHERE session_key = $1`

	var record Session
	var role string

	err := store.pool.QueryRow(ctx, query, key).Scan(
		&record.AccessToken,
		&record.RefreshToken,
		&role,
		&record.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Session{}, ErrNoSession
		}
		return Session{}, fmt.Errorf("postgres_session_get_failed: %w", err)
	}

	record.Role = sec.Role(role)
	return record, nil
}

/*
Save upserts the whole session row for key in one statement.

Returns:
  - error: Storage failures
*/
func (store *PostgresStore) Save(ctx context.Context, key string, record Session) error {
	const query = `
		INSERT INTO portal_sessions (session_key, access_token, refresh_token, role, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (session_key) DO UPDATE SET
			access_token  = EXCLUDED.access_token,
			refresh_token = EXCLUDED.refresh_token,
			role          = EXCLUDED.role,
			updated_at    = EXCLUDED.updated_at`

	_, err := store.pool.Exec(ctx, query,
		key,
		record.AccessToken,
		record.RefreshToken,
		string(record.Role),
		record.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres_session_upsert_failed: %w", err)
	}

	return nil
}

/*
Delete removes the session row for key. Missing rows are not an error.

Returns:
  - error: Deletion failures
*/
func (store *PostgresStore) Delete(ctx context.Context, key string) error {
	const query = `DELETE FROM portal_sessions WHERE session_key = $1`

	if _, err := store.pool.Exec(ctx, query, key); err != nil {
		return fmt.Errorf("postgres_session_delete_failed: %w", err)
	}

	return nil
}

/*
Replace updates the session row for key only while it still holds refreshToken.

Returns:
  - error: ErrSessionChanged if no row matched, or query errors
*/
func (store *PostgresStore) Replace(ctx context.Context, key, refreshToken string, record Session) error {
	const query = `
		UPDATE portal_sessions SET
			access_token  = $3,
			refresh_token = $4,
			role          = $5,
			updated_at    = $6
		WHERE session_key = $1 AND refresh_token = $2`

	result, err := store.pool.Exec(ctx, query,
		key,
		refreshToken,
		record.AccessToken,
		record.RefreshToken,
		string(record.Role),
		record.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres_session_replace_failed: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrSessionChanged
	}

	return nil
}

// DeleteIf removes the session row for key only while it still holds refreshToken.
func (store *PostgresStore) DeleteIf(ctx context.Context, key, refreshToken string) error {
	const query = `DELETE FROM portal_sessions WHERE session_key = $1 AND refresh_token = $2`

	result, err := store.pool.Exec(ctx, query, key, refreshToken)
	if err != nil {
		return fmt.Errorf("postgres_session_delete_failed: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrSessionChanged
	}

	return nil
}
