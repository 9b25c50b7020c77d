package quota

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	_ "modernc.org/sqlite" // registers the "sqlite" driver

	"github.com/jonathan/mapleads/internal/types"
)

// MemoryStore keeps quota state in process memory.
type MemoryStore struct {
	mu     sync.Mutex
	states map[string]types.QuotaState
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{states: make(map[string]types.QuotaState)}
}

func (m *MemoryStore) Get(_ context.Context, account string) (types.QuotaState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.states[account], nil
}

func (m *MemoryStore) Set(_ context.Context, account string, state types.QuotaState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.states[account] = state
	return nil
}

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS quota_usage (
	account    TEXT PRIMARY KEY,
	day        TEXT NOT NULL,
	count      INTEGER NOT NULL DEFAULT 0 CHECK (count >= 0),
	tier       TEXT NOT NULL DEFAULT 'free',
	updated_at TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);`

// SQLiteStore keeps quota state in a local SQLite file.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (creating if needed) the quota database at path.
// Use ":memory:" for a throwaway store.
func OpenSQLite(ctx context.Context, path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open quota database: %w", err)
	}
	// a single connection keeps ":memory:" databases shared and serializes writers
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create quota schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) Get(ctx context.Context, account string) (types.QuotaState, error) {
	var state types.QuotaState
	var tier string
	err := s.db.QueryRowContext(ctx,
		`SELECT day, count, tier FROM quota_usage WHERE account = ?`, account,
	).Scan(&state.Date, &state.Count, &tier)
	if errors.Is(err, sql.ErrNoRows) {
		return types.QuotaState{}, nil
	}
	if err != nil {
		return types.QuotaState{}, fmt.Errorf("failed to query quota: %w", err)
	}
	state.Tier = types.Tier(tier)
	return state, nil
}

func (s *SQLiteStore) Set(ctx context.Context, account string, state types.QuotaState) error {
	tier := state.Tier
	if tier == "" {
		tier = types.TierFree
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO quota_usage (account, day, count, tier)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT (account) DO UPDATE SET day = excluded.day, count = excluded.count,
		 	tier = excluded.tier, updated_at = CURRENT_TIMESTAMP`,
		account, state.Date, state.Count, string(tier),
	)
	if err != nil {
		return fmt.Errorf("failed to save quota: %w", err)
	}
	return nil
}
