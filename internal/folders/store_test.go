package folders_test

import (
	"context"
	"errors"
	"testing"

	"scout/internal/folders"
	"scout/internal/testsupport"
)

func TestAddAndListHierarchy(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	first := testsupport.AddWhitelist(t, store, "/Users/a/Documents")
	second := testsupport.AddWhitelist(t, store, "/Users/a/Projects")

	if first.AuthStatus != folders.AuthPending {
		t.Fatalf("expected pending auth status, got %s", first.AuthStatus)
	}

	hierarchy, err := store.ListHierarchy(ctx)
	if err != nil {
		t.Fatalf("ListHierarchy: %v", err)
	}
	if len(hierarchy.Entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(hierarchy.Entries))
	}
	if hierarchy.Entries[0].Folder.ID != first.ID || hierarchy.Entries[1].Folder.ID != second.ID {
		t.Fatal("hierarchy not in creation order")
	}
}

func TestAddRejectsDuplicateAndOverlap(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	testsupport.AddWhitelist(t, store, "/Users/a/Documents")

	cases := []struct {
		name string
		path string
	}{
		{name: "exact duplicate", path: "/Users/a/Documents"},
		{name: "uncleaned duplicate", path: "/Users/a/Documents/"},
		{name: "nested under existing root", path: "/Users/a/Documents/work"},
		{name: "encloses existing root", path: "/Users/a"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := store.Add(ctx, tc.path, ""); !errors.Is(err, folders.ErrDuplicatePath) {
				t.Fatalf("expected ErrDuplicatePath, got %v", err)
			}
		})
	}
}

func TestAddBlacklistChildValidation(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	root := testsupport.AddWhitelist(t, store, "/Users/a/Documents")

	if _, err := store.AddBlacklistChild(ctx, "missing-id", "/Users/a/Documents/tmp", ""); !errors.Is(err, folders.ErrInvalidParent) {
		t.Fatalf("expected ErrInvalidParent, got %v", err)
	}
	if _, err := store.AddBlacklistChild(ctx, root.ID, "/Users/a/Other", ""); !errors.Is(err, folders.ErrNotSubpath) {
		t.Fatalf("expected ErrNotSubpath, got %v", err)
	}

	child, err := store.AddBlacklistChild(ctx, root.ID, "/Users/a/Documents/tmp", "scratch")
	if err != nil {
		t.Fatalf("AddBlacklistChild: %v", err)
	}
	if !child.IsBlacklist || child.ParentID != root.ID {
		t.Fatalf("unexpected child record: %#v", child)
	}

	// Equal, nested, and enclosing paths are all already covered.
	for _, path := range []string{
		"/Users/a/Documents/tmp",
		"/Users/a/Documents/tmp/cache",
		"/Users/a/Documents",
	} {
		_, err := store.AddBlacklistChild(ctx, root.ID, path, "")
		if path == "/Users/a/Documents" {
			if !errors.Is(err, folders.ErrNotSubpath) {
				t.Fatalf("expected ErrNotSubpath for parent path, got %v", err)
			}
			continue
		}
		if !errors.Is(err, folders.ErrAlreadyBlacklisted) {
			t.Fatalf("expected ErrAlreadyBlacklisted for %s, got %v", path, err)
		}
	}

	// A blacklist entry can never serve as a parent.
	if _, err := store.AddBlacklistChild(ctx, child.ID, "/Users/a/Documents/tmp/deep", ""); !errors.Is(err, folders.ErrInvalidParent) {
		t.Fatalf("expected ErrInvalidParent for blacklist parent, got %v", err)
	}
}

func TestBlacklistParentInvariant(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	root := testsupport.AddWhitelist(t, store, "/Users/a/Documents")
	for _, path := range []string{"/Users/a/Documents/tmp", "/Users/a/Documents/build"} {
		if _, err := store.AddBlacklistChild(ctx, root.ID, path, ""); err != nil {
			t.Fatalf("AddBlacklistChild(%s): %v", path, err)
		}
	}

	all, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	for _, dir := range all {
		if !dir.IsBlacklist {
			continue
		}
		parent, err := store.GetByID(ctx, dir.ParentID)
		if err != nil || parent == nil {
			t.Fatalf("blacklist %s has no parent: %v", dir.Path, err)
		}
		if !folders.IsSubpath(parent.Path, dir.Path) {
			t.Fatalf("parent path %s is not a strict prefix of %s", parent.Path, dir.Path)
		}
	}
}

func TestDeleteCascadesToChildren(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	root := testsupport.AddWhitelist(t, store, "/Users/a/Documents")
	for _, path := range []string{"/Users/a/Documents/tmp", "/Users/a/Documents/node_modules"} {
		if _, err := store.AddBlacklistChild(ctx, root.ID, path, ""); err != nil {
			t.Fatalf("AddBlacklistChild(%s): %v", path, err)
		}
	}

	removed, err := store.Delete(ctx, root.ID)
	if err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if len(removed) != 3 {
		t.Fatalf("expected 3 removed records, got %d", len(removed))
	}

	all, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(all) != 0 {
		t.Fatalf("expected empty registry, got %d entries", len(all))
	}
}

func TestDeleteMissingAndProtected(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	if _, err := store.Delete(ctx, "missing-id"); !errors.Is(err, folders.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	if _, err := store.SeedCommonFolders(ctx, []string{"/Users/a/Desktop"}); err != nil {
		t.Fatalf("SeedCommonFolders: %v", err)
	}
	common, err := store.GetByPath(ctx, "/Users/a/Desktop")
	if err != nil || common == nil {
		t.Fatalf("expected seeded common folder, got %v (%v)", common, err)
	}
	if !common.IsCommonFolder {
		t.Fatal("seeded folder not marked common")
	}

	// Protected in both toggle states.
	if _, err := store.Delete(ctx, common.ID); !errors.Is(err, folders.ErrProtectedFolder) {
		t.Fatalf("expected ErrProtectedFolder, got %v", err)
	}
	if _, err := store.ToggleBlacklist(ctx, common.ID, true); err != nil {
		t.Fatalf("ToggleBlacklist: %v", err)
	}
	if _, err := store.Delete(ctx, common.ID); !errors.Is(err, folders.ErrProtectedFolder) {
		t.Fatalf("expected ErrProtectedFolder after toggle, got %v", err)
	}
}

func TestToggleBlacklistFlipsInPlace(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	if _, err := store.SeedCommonFolders(ctx, []string{"/Users/a/Desktop"}); err != nil {
		t.Fatalf("SeedCommonFolders: %v", err)
	}
	common, _ := store.GetByPath(ctx, "/Users/a/Desktop")

	toggled, err := store.ToggleBlacklist(ctx, common.ID, true)
	if err != nil {
		t.Fatalf("ToggleBlacklist(true): %v", err)
	}
	if !toggled.IsBlacklist {
		t.Fatal("expected is_blacklist=true")
	}
	if !toggled.UpdatedAt.After(common.UpdatedAt) {
		t.Fatal("expected updated_at to advance")
	}

	back, err := store.ToggleBlacklist(ctx, common.ID, false)
	if err != nil {
		t.Fatalf("ToggleBlacklist(false): %v", err)
	}
	if back.IsBlacklist {
		t.Fatal("expected is_blacklist=false")
	}
}

func TestSeedCommonFoldersIdempotent(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	paths := []string{"/Users/a/Desktop", "/Users/a/Documents"}
	added, err := store.SeedCommonFolders(ctx, paths)
	if err != nil {
		t.Fatalf("SeedCommonFolders: %v", err)
	}
	if added != 2 {
		t.Fatalf("expected 2 seeded, got %d", added)
	}

	added, err = store.SeedCommonFolders(ctx, paths)
	if err != nil {
		t.Fatalf("SeedCommonFolders second run: %v", err)
	}
	if added != 0 {
		t.Fatalf("expected 0 on reseed, got %d", added)
	}
}

func TestSetAuthStatus(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	dir := testsupport.AddWhitelist(t, store, "/Users/a/Documents")
	if err := store.SetAuthStatus(ctx, dir.ID, folders.AuthAuthorized); err != nil {
		t.Fatalf("SetAuthStatus: %v", err)
	}
	updated, err := store.GetByID(ctx, dir.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if updated.AuthStatus != folders.AuthAuthorized {
		t.Fatalf("expected authorized, got %s", updated.AuthStatus)
	}

	if err := store.SetAuthStatus(ctx, "missing-id", folders.AuthAuthorized); !errors.Is(err, folders.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCheckHealth(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	testsupport.AddWhitelist(t, store, "/Users/a/Documents")

	health, err := store.CheckHealth(ctx)
	if err != nil {
		t.Fatalf("CheckHealth: %v", err)
	}
	if !health.DatabaseExists || !health.DatabaseReadable || !health.TableExists {
		t.Fatalf("unexpected health: %#v", health)
	}
	if health.TotalDirectories != 1 {
		t.Fatalf("expected 1 directory, got %d", health.TotalDirectories)
	}
	if !health.IntegrityCheck {
		t.Fatal("expected integrity check to pass")
	}
}
