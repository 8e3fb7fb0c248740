package index

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"scout/internal/config"
	"scout/internal/folders"
)

// Entry is one derived record keyed by the file path that produced it.
type Entry struct {
	Path      string
	Kind      string
	Content   string
	IndexedAt time.Time
}

// Store manages derived-record persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

const schemaSQL = `
CREATE TABLE IF NOT EXISTS index_entries (
    path TEXT PRIMARY KEY,
    kind TEXT NOT NULL DEFAULT '',
    content TEXT,
    indexed_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_index_entries_path ON index_entries(path);
`

// Open initializes or connects to the index database.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	dbPath := filepath.Join(cfg.Paths.DataDir, "index.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	if _, err := db.ExecContext(context.Background(), schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create index schema: %w", err)
	}
	return &Store{db: db, path: dbPath}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the index database location on disk.
func (s *Store) Path() string {
	return s.path
}

// Put upserts a derived record for a path.
func (s *Store) Put(ctx context.Context, entry Entry) error {
	normalized, err := folders.NormalizePath(entry.Path)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO index_entries (path, kind, content, indexed_at) VALUES (?, ?, ?, ?)
         ON CONFLICT(path) DO UPDATE SET kind = excluded.kind, content = excluded.content, indexed_at = excluded.indexed_at`,
		normalized, entry.Kind, nullableString(entry.Content), now.Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("upsert index entry: %w", err)
	}
	return nil
}

// CountByPrefix returns how many records live at or under path.
func (s *Store) CountByPrefix(ctx context.Context, path string) (int64, error) {
	normalized, err := folders.NormalizePath(path)
	if err != nil {
		return 0, err
	}
	var count int64
	row := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM index_entries WHERE path = ? OR path LIKE ? ESCAPE '\'`,
		normalized, likePrefixPattern(normalized))
	if err := row.Scan(&count); err != nil {
		return 0, fmt.Errorf("count by prefix: %w", err)
	}
	return count, nil
}

// CleanByPathPrefix deletes every record whose path equals path or starts
// with path plus a separator, returning the count deleted. A repeat call with
// no new matches returns 0. The delete is a single statement, so concurrent
// readers never observe a partial purge.
func (s *Store) CleanByPathPrefix(ctx context.Context, path string) (int64, error) {
	normalized, err := folders.NormalizePath(path)
	if err != nil {
		return 0, err
	}
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM index_entries WHERE path = ? OR path LIKE ? ESCAPE '\'`,
		normalized, likePrefixPattern(normalized))
	if err != nil {
		return 0, fmt.Errorf("%w: clean by path prefix: %v", ErrUnavailable, err)
	}
	deleted, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%w: clean by path prefix: %v", ErrUnavailable, err)
	}
	return deleted, nil
}

func likePrefixPattern(path string) string {
	escaped := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(path)
	return escaped + string(filepath.Separator) + "%"
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

// ErrUnavailable marks cleanup failures caused by the index store itself.
var ErrUnavailable = errors.New("index store unavailable")
