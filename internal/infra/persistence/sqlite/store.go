// Package sqlite persists session snapshots to an embedded SQLite file as
// JSON blobs, one row per session.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // pure go sqlite driver

	"euclidcore/pkg/domain"
)

// Compile-time contract assertion.
var _ domain.SpaceArchive = (*Store)(nil)

// Store is a snapshot-per-save SQLite archive.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore opens (or creates) the archive database at path.
func NewStore(path string) (*Store, error) {
	if path == "" {
		path = "euclidcore.db"
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("create dirs: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS snapshots (
		session_id TEXT PRIMARY KEY,
		payload BLOB NOT NULL,
		updated_at TEXT NOT NULL
	)`); err != nil {
		return nil, fmt.Errorf("create snapshots table: %w", err)
	}
	return &Store{db: db, path: path}, nil
}

// DB exposes the underlying handle for tests.
func (s *Store) DB() *sql.DB { return s.db }

// Close releases the database handle.
func (s *Store) Close() error { return s.db.Close() }

// SaveSnapshot upserts the session's snapshot.
func (s *Store) SaveSnapshot(ctx context.Context, sessionID string, space domain.ConstructionSpace) error {
	payload, err := json.Marshal(space)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO snapshots (session_id, payload, updated_at)
		VALUES (?, ?, datetime('now'))
		ON CONFLICT(session_id) DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at`,
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
	err := s.db.QueryRowContext(ctx, `SELECT payload FROM snapshots WHERE session_id = ?`, sessionID).Scan(&payload)
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
