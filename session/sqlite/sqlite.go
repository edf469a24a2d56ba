// Package sqlite provides durable core.RecordStore and core.ArtifactStore
// implementations on SQLite using the pure Go modernc driver.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/hupe1980/loanmesh/artifact"
	"github.com/hupe1980/loanmesh/core"
)

// Store keeps application records as JSON documents and artifacts as blobs.
type Store struct {
	db *sql.DB
}

var (
	_ core.RecordStore   = (*Store)(nil)
	_ core.ArtifactStore = (*ArtifactStore)(nil)
)

// Open opens (and creates when missing) the database at path. Use ":memory:"
// for a private in-memory database.
func Open(path string) (*Store, error) {
	dsn := path
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
		dsn = path + "?_journal=WAL&_sync=NORMAL&_busy_timeout=5000"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if path == ":memory:" {
		// Every connection would get its own empty database.
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(5 * time.Minute)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	s := &Store{db: db}
	if err := s.initSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return s, nil
}

func (s *Store) initSchema() error {
	query := `
	PRAGMA busy_timeout = 5000;
	CREATE TABLE IF NOT EXISTS records (
		session_id TEXT PRIMARY KEY,
		stage TEXT NOT NULL,
		status TEXT NOT NULL,
		data TEXT NOT NULL,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_records_updated ON records(updated_at);

	CREATE TABLE IF NOT EXISTS artifacts (
		session_id TEXT NOT NULL,
		artifact_id TEXT NOT NULL,
		data BLOB NOT NULL,
		created_at INTEGER NOT NULL,
		PRIMARY KEY (session_id, artifact_id)
	);
	`
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Close releases the database.
func (s *Store) Close() error { return s.db.Close() }

// Ping verifies database connectivity.
func (s *Store) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

// Create implements core.RecordStore.
func (s *Store) Create(ctx context.Context, rec *core.Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode record: %w", err)
	}
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO records (session_id, stage, status, data, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(session_id) DO NOTHING`,
		rec.SessionID, string(rec.Stage), string(rec.Status), string(data),
		rec.CreatedAt.UnixNano(), rec.UpdatedAt.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("insert record: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	} else if n == 0 {
		return fmt.Errorf("%w: %s", core.ErrRecordExists, rec.SessionID)
	}
	return nil
}

// Get implements core.RecordStore.
func (s *Store) Get(ctx context.Context, sessionID string) (*core.Record, error) {
	var data string
	err := s.db.QueryRowContext(ctx, `SELECT data FROM records WHERE session_id = ?`, sessionID).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", core.ErrRecordNotFound, sessionID)
	}
	if err != nil {
		return nil, fmt.Errorf("query record: %w", err)
	}
	var rec core.Record
	if err := json.Unmarshal([]byte(data), &rec); err != nil {
		return nil, fmt.Errorf("decode record %s: %w", sessionID, err)
	}
	return &rec, nil
}

// Put implements core.RecordStore.
func (s *Store) Put(ctx context.Context, rec *core.Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode record: %w", err)
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE records SET stage = ?, status = ?, data = ?, updated_at = ?
		WHERE session_id = ?`,
		string(rec.Stage), string(rec.Status), string(data), rec.UpdatedAt.UnixNano(), rec.SessionID,
	)
	if err != nil {
		return fmt.Errorf("update record: %w", err)
	}
	return expectOne(res, core.ErrRecordNotFound, rec.SessionID)
}

// Delete implements core.RecordStore. Artifacts of the session are removed
// with the record.
func (s *Store) Delete(ctx context.Context, sessionID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, `DELETE FROM records WHERE session_id = ?`, sessionID)
	if err != nil {
		return fmt.Errorf("delete record: %w", err)
	}
	if err := expectOne(res, core.ErrRecordNotFound, sessionID); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM artifacts WHERE session_id = ?`, sessionID); err != nil {
		return fmt.Errorf("delete artifacts: %w", err)
	}
	return tx.Commit()
}

// Artifacts returns an artifact store backed by the same database.
func (s *Store) Artifacts() *ArtifactStore { return &ArtifactStore{db: s.db} }

// ArtifactStore implements core.ArtifactStore on the artifacts table.
type ArtifactStore struct {
	db *sql.DB
}

// Save implements core.ArtifactStore.
func (a *ArtifactStore) Save(sessionID, artifactID string, data []byte) error {
	if data == nil {
		data = []byte{}
	}
	_, err := a.db.Exec(`
		INSERT INTO artifacts (session_id, artifact_id, data, created_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(session_id, artifact_id) DO UPDATE SET data = excluded.data`,
		sessionID, artifactID, data, time.Now().UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("save artifact: %w", err)
	}
	return nil
}

// Get implements core.ArtifactStore.
func (a *ArtifactStore) Get(sessionID, artifactID string) ([]byte, error) {
	var data []byte
	err := a.db.QueryRow(`SELECT data FROM artifacts WHERE session_id = ? AND artifact_id = ?`,
		sessionID, artifactID).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, artifact.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query artifact: %w", err)
	}
	return data, nil
}

// List implements core.ArtifactStore.
func (a *ArtifactStore) List(sessionID string) ([]string, error) {
	rows, err := a.db.Query(`SELECT artifact_id FROM artifacts WHERE session_id = ? ORDER BY artifact_id`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list artifacts: %w", err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan artifact: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Delete implements core.ArtifactStore.
func (a *ArtifactStore) Delete(sessionID, artifactID string) error {
	res, err := a.db.Exec(`DELETE FROM artifacts WHERE session_id = ? AND artifact_id = ?`, sessionID, artifactID)
	if err != nil {
		return fmt.Errorf("delete artifact: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	} else if n == 0 {
		return artifact.ErrNotFound
	}
	return nil
}

func expectOne(res sql.Result, notFound error, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", notFound, id)
	}
	return nil
}
