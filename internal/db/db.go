// Package db provides PostgreSQL storage for account quota usage.
package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jonathan/mapleads/internal/types"
)

// Schema creates the quota table. It is safe to run repeatedly.
const Schema = `
CREATE TABLE IF NOT EXISTS quota_usage (
	account    TEXT PRIMARY KEY,
	day        TEXT NOT NULL,
	count      INTEGER NOT NULL DEFAULT 0 CHECK (count >= 0),
	tier       TEXT NOT NULL DEFAULT 'free',
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

// DB wraps a PostgreSQL connection pool
type DB struct {
	pool *pgxpool.Pool
}

// Connect establishes a connection pool to the database
func Connect(ctx context.Context, databaseURL string) (*DB, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Verify connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{pool: pool}, nil
}

// Close closes the connection pool
func (db *DB) Close() {
	if db.pool != nil {
		db.pool.Close()
	}
}

// Migrate creates the tables used by the quota gate.
func (db *DB) Migrate(ctx context.Context) error {
	if _, err := db.pool.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("failed to migrate quota schema: %w", err)
	}
	return nil
}

// Get returns the quota state of account, or the zero state if none is stored.
func (db *DB) Get(ctx context.Context, account string) (types.QuotaState, error) {
	var state types.QuotaState
	var tier string
	err := db.pool.QueryRow(ctx,
		`SELECT day, count, tier FROM quota_usage WHERE account = $1`,
		account,
	).Scan(&state.Date, &state.Count, &tier)
	if errors.Is(err, pgx.ErrNoRows) {
		return types.QuotaState{}, nil
	}
	if err != nil {
		return types.QuotaState{}, fmt.Errorf("failed to get quota: %w", err)
	}
	state.Tier = types.Tier(tier)
	return state, nil
}

// Set stores the quota state of account.
func (db *DB) Set(ctx context.Context, account string, state types.QuotaState) error {
	tier := state.Tier
	if tier == "" {
		tier = types.TierFree
	}
	_, err := db.pool.Exec(ctx,
		`INSERT INTO quota_usage (account, day, count, tier)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (account) DO UPDATE SET day = $2, count = $3, tier = $4, updated_at = NOW()`,
		account, state.Date, state.Count, string(tier),
	)
	if err != nil {
		return fmt.Errorf("failed to set quota: %w", err)
	}
	return nil
}

// Delete removes the quota row of account.
func (db *DB) Delete(ctx context.Context, account string) error {
	_, err := db.pool.Exec(ctx, `DELETE FROM quota_usage WHERE account = $1`, account)
	if err != nil {
		return fmt.Errorf("failed to delete quota: %w", err)
	}
	return nil
}
