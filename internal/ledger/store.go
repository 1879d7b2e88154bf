// Package ledger persists completed proxies to SQLite so a project reopened
// later can reuse proxies generated by an earlier run instead of re-encoding.
// A file lock serializes access when several montage processes share one
// ledger.
package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	_ "modernc.org/sqlite"

	"montage/internal/faults"
)

// Record is one persisted proxy mapping.
type Record struct {
	SourceID  string
	ProxyID   string
	Profile   string
	CreatedAt time.Time
}

// Store manages ledger persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	lock *flock.Flock
	path string
}

// Open initializes or connects to the ledger database under dir and acquires
// its file lock.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("ensure ledger directory: %w", err)
	}

	lock := flock.New(filepath.Join(dir, "ledger.lock"))
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire ledger lock: %w", err)
	}
	if !locked {
		return nil, faults.Wrap(faults.ErrState, "ledger", "open", "another process holds the ledger", nil)
	}

	dbPath := filepath.Join(dir, "proxies.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		_ = lock.Unlock()
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			_ = lock.Unlock()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, lock: lock, path: dbPath}
	if err := store.applyMigrations(context.Background()); err != nil {
		_ = db.Close()
		_ = lock.Unlock()
		return nil, err
	}
	return store, nil
}

func (s *Store) applyMigrations(ctx context.Context) error {
	const schema = `
CREATE TABLE IF NOT EXISTS proxies (
    source_id  TEXT PRIMARY KEY,
    proxy_id   TEXT NOT NULL UNIQUE,
    profile    TEXT NOT NULL,
    created_at TEXT NOT NULL
);`
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("apply ledger schema: %w", err)
	}
	return nil
}

// Close releases the database connection and the file lock.
func (s *Store) Close() error {
	if s == nil {
		return nil
	}
	var dbErr error
	if s.db != nil {
		dbErr = s.db.Close()
	}
	if s.lock != nil {
		if err := s.lock.Unlock(); err != nil && dbErr == nil {
			dbErr = err
		}
	}
	return dbErr
}

// Put records a completed proxy. An existing record for the source is
// replaced, which covers regeneration with a different profile.
func (s *Store) Put(ctx context.Context, rec Record) error {
	if rec.SourceID == "" || rec.ProxyID == "" {
		return faults.Wrap(faults.ErrConfiguration, "ledger", "put", "record missing identifiers", nil)
	}
	created := rec.CreatedAt
	if created.IsZero() {
		created = time.Now().UTC()
	}
	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO proxies (source_id, proxy_id, profile, created_at)
         VALUES (?, ?, ?, ?)
         ON CONFLICT(source_id) DO UPDATE SET
             proxy_id = excluded.proxy_id,
             profile = excluded.profile,
             created_at = excluded.created_at`,
		rec.SourceID,
		rec.ProxyID,
		rec.Profile,
		created.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert proxy record: %w", err)
	}
	return nil
}

// Get returns the record for a source, or faults.ErrNotFound.
func (s *Store) Get(ctx context.Context, sourceID string) (Record, error) {
	row := s.db.QueryRowContext(
		ctx,
		`SELECT source_id, proxy_id, profile, created_at FROM proxies WHERE source_id = ?`,
		sourceID,
	)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, faults.Wrap(faults.ErrNotFound, "ledger", "get", sourceID, nil)
	}
	return rec, err
}

// Delete removes the record for a source, reporting whether one existed.
func (s *Store) Delete(ctx context.Context, sourceID string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM proxies WHERE source_id = ?`, sourceID)
	if err != nil {
		return false, fmt.Errorf("delete proxy record: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}

// List returns every record ordered by source identifier.
func (s *Store) List(ctx context.Context) ([]Record, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT source_id, proxy_id, profile, created_at FROM proxies ORDER BY source_id`,
	)
	if err != nil {
		return nil, fmt.Errorf("query proxy records: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate proxy records: %w", err)
	}
	return records, nil
}

type scannable interface {
	Scan(dest ...any) error
}

func scanRecord(row scannable) (Record, error) {
	var rec Record
	var created string
	if err := row.Scan(&rec.SourceID, &rec.ProxyID, &rec.Profile, &created); err != nil {
		return Record{}, err
	}
	parsed, err := time.Parse(time.RFC3339Nano, created)
	if err != nil {
		return Record{}, fmt.Errorf("parse created_at %q: %w", created, err)
	}
	rec.CreatedAt = parsed
	return rec, nil
}
