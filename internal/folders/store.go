package folders

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"scout/internal/config"
)

// Store manages directory registry persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the registry database and applies the schema.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	dbPath := filepath.Join(cfg.Paths.DataDir, "folders.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
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
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// GetByID fetches a directory by identifier. Returns nil when absent.
func (s *Store) GetByID(ctx context.Context, id string) (*Directory, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+directoryColumns+` FROM directories WHERE id = ?`, id)
	dir, err := scanDirectory(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get directory: %w", err)
	}
	return dir, nil
}

// GetByPath fetches a directory by normalized path. Returns nil when absent.
func (s *Store) GetByPath(ctx context.Context, path string) (*Directory, error) {
	normalized, err := NormalizePath(path)
	if err != nil {
		return nil, err
	}
	row := s.db.QueryRowContext(ctx, `SELECT `+directoryColumns+` FROM directories WHERE path = ?`, normalized)
	dir, err := scanDirectory(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get directory by path: %w", err)
	}
	return dir, nil
}

// List returns every directory ordered by creation time.
func (s *Store) List(ctx context.Context) ([]*Directory, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+directoryColumns+` FROM directories ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("list directories: %w", err)
	}
	defer rows.Close()

	var dirs []*Directory
	for rows.Next() {
		dir, err := scanDirectory(rows)
		if err != nil {
			return nil, err
		}
		dirs = append(dirs, dir)
	}
	return dirs, rows.Err()
}

// listChildren returns the direct blacklist children of a root in creation order.
func (s *Store) listChildren(ctx context.Context, parentID string) ([]*Directory, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+directoryColumns+` FROM directories WHERE parent_id = ? ORDER BY created_at, id`, parentID)
	if err != nil {
		return nil, fmt.Errorf("list children: %w", err)
	}
	defer rows.Close()

	var dirs []*Directory
	for rows.Next() {
		dir, err := scanDirectory(rows)
		if err != nil {
			return nil, err
		}
		dirs = append(dirs, dir)
	}
	return dirs, rows.Err()
}

const directoryColumns = "id, path, alias, auth_status, is_blacklist, parent_id, is_common_folder, created_at, updated_at"

func scanDirectory(scanner interface{ Scan(dest ...any) error }) (*Directory, error) {
	var (
		id         string
		path       string
		alias      sql.NullString
		authStatus string
		blacklist  sql.NullInt64
		parentID   sql.NullString
		common     sql.NullInt64
		createdRaw string
		updatedRaw string
	)

	if err := scanner.Scan(&id, &path, &alias, &authStatus, &blacklist, &parentID, &common, &createdRaw, &updatedRaw); err != nil {
		return nil, err
	}

	dir := &Directory{
		ID:             id,
		Path:           path,
		Alias:          alias.String,
		AuthStatus:     AuthStatus(authStatus),
		IsBlacklist:    blacklist.Int64 != 0,
		ParentID:       parentID.String,
		IsCommonFolder: common.Int64 != 0,
	}
	if created, err := parseTimeString(createdRaw); err == nil {
		dir.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw); err == nil {
		dir.UpdatedAt = updated
	}
	return dir, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}
