package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/cognicore/sbc/pkg/sbc/journal"
)

// sqliteStore implements the journal.Store interface using SQLite
type sqliteStore struct {
	db   *sql.DB
	path string
}

type migration struct {
	Version     int
	Description string
	SQL         string
}

var migrations = []migration{
	{
		Version:     1,
		Description: "journal_entries: per-session operation log",
		SQL: `
CREATE TABLE journal_entries (
	id         TEXT PRIMARY KEY,
	session_id TEXT NOT NULL,
	seq        INTEGER NOT NULL,
	op         TEXT NOT NULL,
	subject    TEXT NOT NULL DEFAULT '',
	detail     TEXT NOT NULL DEFAULT '',
	result     TEXT NOT NULL DEFAULT '',
	at         INTEGER NOT NULL,
	UNIQUE(session_id, seq)
);

CREATE INDEX idx_journal_session ON journal_entries(session_id, seq);
`,
	},
}

// OpenSQLite opens (or creates) a journal database with WAL mode enabled
// and applies pending migrations. ":memory:" opens a private in-memory journal.
func OpenSQLite(ctx context.Context, path string) (journal.Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("create journal dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if path == ":memory:" {
		// every pooled connection would otherwise see its own empty database
		db.SetMaxOpenConns(1)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			db.Close()
			return nil, fmt.Errorf("pragma %q: %w", p, err)
		}
	}

	if err := migrate(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return &sqliteStore{db: db, path: path}, nil
}

// Close closes the database connection
func (s *sqliteStore) Close() error {
	return s.db.Close()
}

func migrate(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS schema_versions (
	version     INTEGER PRIMARY KEY,
	description TEXT NOT NULL,
	applied_at  INTEGER NOT NULL DEFAULT (strftime('%s', 'now') * 1000)
)`)
	if err != nil {
		return fmt.Errorf("create schema_versions: %w", err)
	}

	for _, m := range migrations {
		var count int
		err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM schema_versions WHERE version = ?", m.Version).Scan(&count)
		if err != nil {
			return fmt.Errorf("check migration %d: %w", m.Version, err)
		}
		if count > 0 {
			continue
		}

		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin migration %d: %w", m.Version, err)
		}

		if _, err := tx.ExecContext(ctx, m.SQL); err != nil {
			tx.Rollback()
			return fmt.Errorf("migration %d (%s): %w", m.Version, m.Description, err)
		}

		if _, err := tx.ExecContext(ctx,
			"INSERT INTO schema_versions (version, description) VALUES (?, ?)",
			m.Version, m.Description,
		); err != nil {
			tx.Rollback()
			return fmt.Errorf("record migration %d: %w", m.Version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %d: %w", m.Version, err)
		}
	}

	return nil
}

// schemaVersion returns the latest applied migration.
func (s *sqliteStore) schemaVersion(ctx context.Context) (int, error) {
	var version int
	err := s.db.QueryRowContext(ctx, "SELECT COALESCE(MAX(version), 0) FROM schema_versions").Scan(&version)
	return version, err
}

// Append inserts one entry
func (s *sqliteStore) Append(ctx context.Context, e journal.Entry) error {
	const stmt = `
INSERT INTO journal_entries (id, session_id, seq, op, subject, detail, result, at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
`
	_, err := s.db.ExecContext(ctx, stmt,
		e.ID, e.SessionID, e.Seq, string(e.Op), e.Subject, e.Detail, e.Result, e.At.UnixMilli())
	if err != nil {
		return fmt.Errorf("append entry %s: %w", e.ID, err)
	}
	return nil
}

// List returns the last limit entries of a session, oldest first.
func (s *sqliteStore) List(ctx context.Context, sessionID string, limit int) ([]journal.Entry, error) {
	query := `
SELECT id, session_id, seq, op, subject, detail, result, at FROM (
	SELECT * FROM journal_entries WHERE session_id = ? ORDER BY seq DESC LIMIT ?
) ORDER BY seq ASC
`
	if limit <= 0 {
		limit = -1 // sqlite: no limit
	}

	rows, err := s.db.QueryContext(ctx, query, sessionID, limit)
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	defer rows.Close()

	var out []journal.Entry
	for rows.Next() {
		var (
			e  journal.Entry
			op string
			at int64
		)
		if err := rows.Scan(&e.ID, &e.SessionID, &e.Seq, &op, &e.Subject, &e.Detail, &e.Result, &at); err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		e.Op = journal.Op(op)
		e.At = time.UnixMilli(at)
		out = append(out, e)
	}
	return out, rows.Err()
}

// Sessions summarizes recorded sessions, most recent first.
func (s *sqliteStore) Sessions(ctx context.Context) ([]journal.SessionSummary, error) {
	const query = `
SELECT session_id, COUNT(*), MIN(at), MAX(at)
FROM journal_entries
GROUP BY session_id
ORDER BY MAX(at) DESC, session_id DESC
`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var out []journal.SessionSummary
	for rows.Next() {
		var (
			sum         journal.SessionSummary
			first, last int64
		)
		if err := rows.Scan(&sum.SessionID, &sum.Entries, &first, &last); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		sum.FirstAt = time.UnixMilli(first)
		sum.LastAt = time.UnixMilli(last)
		out = append(out, sum)
	}
	return out, rows.Err()
}
