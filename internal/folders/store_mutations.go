package folders

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Add registers a new whitelist root. The path must not equal or overlap any
// existing top-level entry.
func (s *Store) Add(ctx context.Context, path, alias string) (*Directory, error) {
	normalized, err := NormalizePath(path)
	if err != nil {
		return nil, err
	}

	existing, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	for _, dir := range existing {
		if dir.Path == normalized {
			return nil, fmt.Errorf("%w: %s", ErrDuplicatePath, normalized)
		}
		if dir.ParentID == "" && (IsSubpath(dir.Path, normalized) || IsSubpath(normalized, dir.Path)) {
			return nil, fmt.Errorf("%w: %s overlaps root %s", ErrDuplicatePath, normalized, dir.Path)
		}
	}

	dir := &Directory{
		ID:         uuid.NewString(),
		Path:       normalized,
		Alias:      strings.TrimSpace(alias),
		AuthStatus: AuthPending,
	}
	if err := s.insert(ctx, dir); err != nil {
		return nil, err
	}
	return s.GetByID(ctx, dir.ID)
}

// AddBlacklistChild registers a blacklist entry beneath an existing whitelist
// root.
func (s *Store) AddBlacklistChild(ctx context.Context, parentID, path, alias string) (*Directory, error) {
	parent, err := s.GetByID(ctx, parentID)
	if err != nil {
		return nil, err
	}
	if parent == nil || parent.ParentID != "" || parent.IsBlacklist {
		return nil, fmt.Errorf("%w: %s", ErrInvalidParent, parentID)
	}

	normalized, err := NormalizePath(path)
	if err != nil {
		return nil, err
	}
	if !IsSubpath(parent.Path, normalized) {
		return nil, fmt.Errorf("%w: %s is not under %s", ErrNotSubpath, normalized, parent.Path)
	}

	siblings, err := s.listChildren(ctx, parent.ID)
	if err != nil {
		return nil, err
	}
	for _, sibling := range siblings {
		if Covers(sibling.Path, normalized) || Covers(normalized, sibling.Path) {
			return nil, fmt.Errorf("%w: %s", ErrAlreadyBlacklisted, normalized)
		}
	}

	dir := &Directory{
		ID:          uuid.NewString(),
		Path:        normalized,
		Alias:       strings.TrimSpace(alias),
		AuthStatus:  AuthPending,
		IsBlacklist: true,
		ParentID:    parent.ID,
	}
	if err := s.insert(ctx, dir); err != nil {
		return nil, err
	}
	return s.GetByID(ctx, dir.ID)
}

// Delete removes a directory. Deleting a whitelist root cascades to its
// blacklist children: descendant ids are collected first, then the whole
// batch is deleted in one transaction. Storage-engine cascade semantics are
// deliberately not relied on.
func (s *Store) Delete(ctx context.Context, id string) ([]*Directory, error) {
	dir, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if dir == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if dir.IsCommonFolder {
		return nil, fmt.Errorf("%w: %s", ErrProtectedFolder, dir.Path)
	}

	removed := []*Directory{dir}
	if dir.ParentID == "" {
		children, err := s.listChildren(ctx, dir.ID)
		if err != nil {
			return nil, err
		}
		removed = append(removed, children...)
	}

	ids := make([]any, 0, len(removed))
	for _, entry := range removed {
		ids = append(ids, entry.ID)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin delete tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	query := `DELETE FROM directories WHERE id IN (` + makePlaceholders(len(ids)) + `)`
	if _, err := tx.ExecContext(ctx, query, ids...); err != nil {
		return nil, fmt.Errorf("delete directories: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit delete: %w", err)
	}
	return removed, nil
}

// ToggleBlacklist flips is_blacklist on a top-level directory in place. This
// is the only structural mutation permitted on common folders.
func (s *Store) ToggleBlacklist(ctx context.Context, id string, desired bool) (*Directory, error) {
	dir, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if dir == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if dir.ParentID != "" {
		return nil, fmt.Errorf("%w: %s is not a top-level directory", ErrInvalidParent, id)
	}

	now := time.Now().UTC()
	_, err = s.db.ExecContext(ctx,
		`UPDATE directories SET is_blacklist = ?, updated_at = ? WHERE id = ?`,
		boolToInt(desired), now.Format(time.RFC3339Nano), id)
	if err != nil {
		return nil, fmt.Errorf("toggle blacklist: %w", err)
	}
	return s.GetByID(ctx, id)
}

// SetAuthStatus updates the per-directory authorization status.
func (s *Store) SetAuthStatus(ctx context.Context, id string, status AuthStatus) error {
	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx,
		`UPDATE directories SET auth_status = ?, updated_at = ? WHERE id = ?`,
		string(status), now.Format(time.RFC3339Nano), id)
	if err != nil {
		return fmt.Errorf("set auth status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

// SeedCommonFolders inserts the configured common folders as protected
// whitelist entries. Paths that already exist or overlap an existing root are
// skipped, so seeding is idempotent across restarts.
func (s *Store) SeedCommonFolders(ctx context.Context, paths []string) (int, error) {
	existing, err := s.List(ctx)
	if err != nil {
		return 0, err
	}

	added := 0
	for _, path := range paths {
		normalized, err := NormalizePath(path)
		if err != nil {
			return added, err
		}
		conflict := false
		for _, dir := range existing {
			if dir.Path == normalized || (dir.ParentID == "" && (IsSubpath(dir.Path, normalized) || IsSubpath(normalized, dir.Path))) {
				conflict = true
				break
			}
		}
		if conflict {
			continue
		}
		dir := &Directory{
			ID:             uuid.NewString(),
			Path:           normalized,
			AuthStatus:     AuthPending,
			IsCommonFolder: true,
		}
		if err := s.insert(ctx, dir); err != nil {
			return added, err
		}
		existing = append(existing, dir)
		added++
	}
	return added, nil
}

func (s *Store) insert(ctx context.Context, dir *Directory) error {
	now := time.Now().UTC()
	timestamp := now.Format(time.RFC3339Nano)
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO directories (
            id, path, alias, auth_status, is_blacklist, parent_id,
            is_common_folder, created_at, updated_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		dir.ID,
		dir.Path,
		nullableString(dir.Alias),
		string(dir.AuthStatus),
		boolToInt(dir.IsBlacklist),
		nullableString(dir.ParentID),
		boolToInt(dir.IsCommonFolder),
		timestamp,
		timestamp,
	)
	if err != nil {
		return fmt.Errorf("insert directory: %w", err)
	}
	return nil
}

func makePlaceholders(count int) string {
	if count <= 0 {
		return ""
	}
	placeholders := make([]byte, 0, count*2)
	for i := 0; i < count; i++ {
		if i > 0 {
			placeholders = append(placeholders, ',')
		}
		placeholders = append(placeholders, '?')
	}
	return string(placeholders)
}
