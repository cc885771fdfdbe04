// Package postgres persists session snapshots to PostgreSQL as JSON blobs,
// one row per session.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib" // pgx database/sql driver

	"euclidcore/pkg/domain"
)

// Compile-time contract assertion.
var _ domain.SpaceArchive = (*Store)(nil)

// Store is a snapshot-per-save PostgreSQL archive.
type Store struct {
	db *sql.DB
}

// NewStore connects with the given DSN and ensures the snapshots table.
func NewStore(dsn string) (*Store, error) {
	if dsn == "" {
		return nil, errors.New("postgres dsn is required")
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS snapshots (
		session_id TEXT PRIMARY KEY,
		payload JSONB NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create snapshots table: %w", err)
	}
	return &Store{db: db}, nil
}

// DB exposes the underlying handle for tests.
func (s *Store) DB() *sql.DB { return s.db }

// Close releases the connection pool.
func (s *Store) Close() error { return s.db.Close() }

// SaveSnapshot upserts the session's snapshot.
func (s *Store) SaveSnapshot(ctx context.Context, sessionID string, space domain.ConstructionSpace) error {
	payload, err := json.Marshal(space)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO snapshots (session_id, payload, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (session_id) DO UPDATE SET payload = EXCLUDED.payload, updated_at = EXCLUDED.updated_at`,
		sessionID, payload)
	if err != nil {
		return fmt.Errorf("upsert snapshot: %w", err)
	}
	return nil
}

// LoadLatest returns the stored snapshot for a session, validated before it
// may be restored.
func (s *Store) LoadLatest(ctx context.Context, sessionID string) (domain.ConstructionSpace, bool, error) {
	var payload []byte
	err := s.db.QueryRowContext(ctx, `SELECT payload FROM snapshots WHERE session_id = $1`, sessionID).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ConstructionSpace{}, false, nil
	}
	if err != nil {
		return domain.ConstructionSpace{}, false, fmt.Errorf("select snapshot: %w", err)
	}
	snapshot := domain.NewConstructionSpace()
	if err := json.Unmarshal(payload, &snapshot); err != nil {
		return domain.ConstructionSpace{}, false, fmt.Errorf("decode snapshot: %w", err)
	}
	if err := domain.ValidateSnapshot(snapshot); err != nil {
		return domain.ConstructionSpace{}, false, err
	}
	return snapshot, true, nil
}

// Sessions lists session ids with stored snapshots, sorted.
func (s *Store) Sessions(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT session_id FROM snapshots ORDER BY session_id`)
	if err != nil {
		return nil, fmt.Errorf("select sessions: %w", err)
	}
	defer func() { _ = rows.Close() }()
	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		out = append(out, id)
	}
	return out, rows.Err()
}
