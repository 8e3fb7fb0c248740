package api_test

import (
	"context"
	"testing"
	"time"

	"scout/internal/api"
	"scout/internal/changes"
	"scout/internal/folders"
	"scout/internal/testsupport"
)

func TestFromDirectoryFormatsTimestamps(t *testing.T) {
	created := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
	dir := &folders.Directory{
		ID:         "abc",
		Path:       "/home/u/Projects",
		Alias:      "projects",
		AuthStatus: folders.AuthAuthorized,
		CreatedAt:  created,
		UpdatedAt:  created.Add(time.Hour),
	}

	dto := api.FromDirectory(dir)
	if dto.ID != "abc" || dto.Path != "/home/u/Projects" {
		t.Fatalf("unexpected dto: %+v", dto)
	}
	if dto.AuthStatus != string(folders.AuthAuthorized) {
		t.Fatalf("auth status = %s", dto.AuthStatus)
	}
	if dto.CreatedAt != "2026-03-14T09:26:53.000Z" {
		t.Fatalf("created at = %s", dto.CreatedAt)
	}
	if dto.UpdatedAt != "2026-03-14T10:26:53.000Z" {
		t.Fatalf("updated at = %s", dto.UpdatedAt)
	}
}

func TestFromMutationIncludesRemovedRecords(t *testing.T) {
	resp := api.FromMutation(changes.Result{
		Removed: []*folders.Directory{
			{ID: "a", Path: "/home/u/Projects"},
			{ID: "b", Path: "/home/u/Projects/vendor"},
		},
	})
	if resp.Folder != nil {
		t.Fatal("no folder expected for delete results")
	}
	if len(resp.Removed) != 2 {
		t.Fatalf("removed = %v", resp.Removed)
	}
}

func TestFolderServiceHierarchy(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	root := t.TempDir()
	added := testsupport.AddWhitelist(t, store, root)

	svc := api.NewFolderService(store)
	hierarchy, err := svc.Hierarchy(ctx)
	if err != nil {
		t.Fatalf("hierarchy: %v", err)
	}
	if len(hierarchy.Folders) != 1 || hierarchy.Folders[0].Folder.ID != added.ID {
		t.Fatalf("unexpected hierarchy: %+v", hierarchy)
	}

	dto, err := svc.Describe(ctx, added.ID)
	if err != nil || dto == nil {
		t.Fatalf("describe: %v %v", dto, err)
	}
	if missing, err := svc.Describe(ctx, "nope"); err != nil || missing != nil {
		t.Fatalf("expected nil for unknown id, got %v %v", missing, err)
	}
}
