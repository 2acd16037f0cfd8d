package gateway

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // sqlite driver

	"github.com/custodia-labs/connectord/internal/core/domain"
	"github.com/custodia-labs/connectord/internal/gateway/migrations"
)

// SQLite is a durable domain.IndexGateway backed by a single sqlite file,
// for single-node deployments that must survive a process restart.
type SQLite struct {
	db *sql.DB
}

// NewSQLite opens (creating if absent) the database at path and runs
// pending migrations.
func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	s := &SQLite{db: db}
	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *SQLite) Close() error { return s.db.Close() }

func (s *SQLite) migrate(fsys embed.FS) error {
	if _, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`); err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var current int
	if err := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&current); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fsys.ReadDir(".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}
	var upFiles []string
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".up.sql") {
			upFiles = append(upFiles, e.Name())
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}
		if version <= current {
			continue
		}
		body, err := fsys.ReadFile(name)
		if err != nil {
			return fmt.Errorf("reading %s: %w", name, err)
		}
		if _, err := s.db.Exec(string(body)); err != nil {
			return fmt.Errorf("applying %s: %w", name, err)
		}
		if _, err := s.db.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording %s: %w", name, err)
		}
	}
	return nil
}

// Get returns the document stored at (index, id).
func (s *SQLite) Get(ctx context.Context, index, id string) (domain.RawDoc, error) {
	var body string
	err := s.db.QueryRowContext(ctx, "SELECT body FROM documents WHERE idx = ? AND id = ?", index, id).Scan(&body)
	if err == sql.ErrNoRows {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrTransport, err)
	}
	return decodeDoc(body)
}

// Update merges patch into the stored document, retrying on a version
// conflict up to retryOnConflict times before giving up.
func (s *SQLite) Update(ctx context.Context, index, id string, patch domain.RawDoc, retryOnConflict int) error {
	for attempt := 0; attempt <= retryOnConflict; attempt++ {
		ok, err := s.tryUpdate(ctx, index, id, patch)
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
	}
	return domain.ErrConflictExhausted
}

func (s *SQLite) tryUpdate(ctx context.Context, index, id string, patch domain.RawDoc) (bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("%w: %v", domain.ErrTransport, err)
	}
	defer tx.Rollback()

	var body string
	var version int
	err = tx.QueryRowContext(ctx, "SELECT body, version FROM documents WHERE idx = ? AND id = ?", index, id).Scan(&body, &version)
	if err == sql.ErrNoRows {
		return false, domain.ErrNotFound
	}
	if err != nil {
		return false, fmt.Errorf("%w: %v", domain.ErrTransport, err)
	}

	doc, err := decodeDoc(body)
	if err != nil {
		return false, err
	}
	merge(doc, patch)
	newBody, err := json.Marshal(doc)
	if err != nil {
		return false, fmt.Errorf("%w: %v", domain.ErrTransport, err)
	}

	res, err := tx.ExecContext(ctx,
		"UPDATE documents SET body = ?, version = ? WHERE idx = ? AND id = ? AND version = ?",
		string(newBody), version+1, index, id, version)
	if err != nil {
		return false, fmt.Errorf("%w: %v", domain.ErrTransport, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%w: %v", domain.ErrTransport, err)
	}
	if n == 0 {
		// lost the race between the select and the update; caller retries
		return false, nil
	}
	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("%w: %v", domain.ErrTransport, err)
	}
	return true, nil
}

// Index inserts doc under a generated id.
func (s *SQLite) Index(ctx context.Context, index string, doc domain.RawDoc) (string, error) {
	id := uuid.NewString()
	body, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrTransport, err)
	}
	_, err = s.db.ExecContext(ctx, "INSERT INTO documents (idx, id, body, version) VALUES (?, ?, ?, 1)", index, id, string(body))
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrTransport, err)
	}
	return id, nil
}

// Query loads every document in index and filters it application-side; an
// embedded-database stand-in for a real cluster's query DSL.
func (s *SQLite) Query(ctx context.Context, index string, filter domain.QueryFilter) (domain.DocStream, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT id, body FROM documents WHERE idx = ? ORDER BY id", index)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrTransport, err)
	}
	defer rows.Close()

	stream := &memoryStream{}
	for rows.Next() {
		var id, body string
		if err := rows.Scan(&id, &body); err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrTransport, err)
		}
		doc, err := decodeDoc(body)
		if err != nil {
			return nil, err
		}
		if filter.Predicate != nil && !filter.Predicate(id, doc) {
			continue
		}
		stream.ids = append(stream.ids, id)
		stream.docs = append(stream.docs, doc)
	}
	return stream, rows.Err()
}

// DeleteByQuery deletes every document in index matching filter.
func (s *SQLite) DeleteByQuery(ctx context.Context, index string, filter domain.QueryFilter) (int, error) {
	stream, err := s.Query(ctx, index, filter)
	if err != nil {
		return 0, err
	}
	defer stream.Close()

	n := 0
	for stream.Next(ctx) {
		id, _ := stream.Doc()
		if _, err := s.db.ExecContext(ctx, "DELETE FROM documents WHERE idx = ? AND id = ?", index, id); err != nil {
			return n, fmt.Errorf("%w: %v", domain.ErrTransport, err)
		}
		n++
	}
	return n, nil
}

// Refresh is a no-op: sqlite reads always observe committed writes.
func (s *SQLite) Refresh(ctx context.Context, index string) error { return nil }

// Count returns the number of documents stored under index.
func (s *SQLite) Count(ctx context.Context, index string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM documents WHERE idx = ?", index).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", domain.ErrTransport, err)
	}
	return n, nil
}

func decodeDoc(body string) (domain.RawDoc, error) {
	var doc domain.RawDoc
	if err := json.Unmarshal([]byte(body), &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrTransport, err)
	}
	return doc, nil
}
