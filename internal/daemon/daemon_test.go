package daemon_test

import (
	"context"
	"errors"
	"net/http"
	"path/filepath"
	"testing"

	"scout/internal/apiclient"
	"scout/internal/daemon"
	"scout/internal/logging"
	"scout/internal/testsupport"
)

func startDaemon(t *testing.T, opts ...testsupport.ConfigOption) (*daemon.Daemon, *apiclient.Client) {
	t.Helper()
	cfg := testsupport.NewConfig(t, opts...)
	store := testsupport.MustOpenStore(t, cfg)
	idx := testsupport.MustOpenIndex(t, cfg)

	d, err := daemon.New(cfg, store, idx, logging.NewNop())
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("daemon.Start: %v", err)
	}
	t.Cleanup(func() { _ = d.Close() })

	return d, apiclient.New(d.APIAddr(), "")
}

func TestDaemonLifecycleAndFolderAPI(t *testing.T) {
	_, client := startDaemon(t)
	ctx := context.Background()

	status, err := client.Status(ctx)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if !status.Running {
		t.Fatal("daemon should report running")
	}
	if status.RegistryDBPath == "" || status.LockFilePath == "" {
		t.Fatalf("status missing paths: %+v", status)
	}

	root := t.TempDir()
	parent := filepath.Join(root, "projects")

	added, err := client.AddFolder(ctx, parent, "projects")
	if err != nil {
		t.Fatalf("add folder: %v", err)
	}
	if added.Folder == nil || added.Folder.Path != parent {
		t.Fatalf("unexpected add response: %+v", added)
	}
	if added.Folder.AuthStatus != "pending" {
		t.Fatalf("new folder auth status = %s", added.Folder.AuthStatus)
	}

	// Duplicate registration is rejected with a conflict.
	if _, err := client.AddFolder(ctx, parent, ""); err == nil {
		t.Fatal("duplicate add should fail")
	} else {
		var apiErr *apiclient.APIError
		if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusConflict {
			t.Fatalf("expected 409, got %v", err)
		}
	}

	child := filepath.Join(parent, "vendor")
	blacklisted, err := client.AddBlacklist(ctx, added.Folder.ID, child, "")
	if err != nil {
		t.Fatalf("add blacklist: %v", err)
	}
	if blacklisted.Folder == nil || !blacklisted.Folder.IsBlacklist {
		t.Fatalf("unexpected blacklist response: %+v", blacklisted)
	}

	hierarchy, err := client.Folders(ctx)
	if err != nil {
		t.Fatalf("folders: %v", err)
	}
	if len(hierarchy.Folders) != 1 {
		t.Fatalf("expected one group, got %+v", hierarchy.Folders)
	}
	group := hierarchy.Folders[0]
	if group.Folder.ID != added.Folder.ID || len(group.Blacklist) != 1 {
		t.Fatalf("unexpected hierarchy group: %+v", group)
	}

	removed, err := client.RemoveFolder(ctx, added.Folder.ID)
	if err != nil {
		t.Fatalf("remove folder: %v", err)
	}
	if len(removed.Removed) != 2 {
		t.Fatalf("expected cascade of 2, got %+v", removed.Removed)
	}

	if _, err := client.Folder(ctx, added.Folder.ID); err == nil {
		t.Fatal("removed folder should not resolve")
	} else {
		var apiErr *apiclient.APIError
		if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusNotFound {
			t.Fatalf("expected 404, got %v", err)
		}
	}
}

func TestDaemonSeedsAndProtectsCommonFolders(t *testing.T) {
	common := filepath.Join(t.TempDir(), "Documents")
	_, client := startDaemon(t, testsupport.WithCommonFolders(common))
	ctx := context.Background()

	hierarchy, err := client.Folders(ctx)
	if err != nil {
		t.Fatalf("folders: %v", err)
	}
	if len(hierarchy.Folders) != 1 || !hierarchy.Folders[0].Folder.IsCommonFolder {
		t.Fatalf("expected seeded common folder, got %+v", hierarchy.Folders)
	}
	id := hierarchy.Folders[0].Folder.ID

	// Common folders cannot be deleted, only toggled.
	if _, err := client.RemoveFolder(ctx, id); err == nil {
		t.Fatal("deleting a common folder should fail")
	} else {
		var apiErr *apiclient.APIError
		if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusConflict {
			t.Fatalf("expected 409, got %v", err)
		}
	}

	toggled, err := client.ToggleFolder(ctx, id, true)
	if err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if toggled.Folder == nil || !toggled.Folder.IsBlacklist {
		t.Fatalf("unexpected toggle response: %+v", toggled)
	}

	restored, err := client.ToggleFolder(ctx, id, false)
	if err != nil {
		t.Fatalf("toggle back: %v", err)
	}
	if restored.Folder.IsBlacklist {
		t.Fatal("folder should be whitelisted again")
	}
}

func TestDaemonQueuePermissionAndCleanupEndpoints(t *testing.T) {
	_, client := startDaemon(t)
	ctx := context.Background()

	queue, err := client.Queue(ctx)
	if err != nil {
		t.Fatalf("queue: %v", err)
	}
	if queue.Processing {
		t.Fatal("queue should be idle")
	}

	if _, err := client.Permission(ctx); err != nil {
		t.Fatalf("permission: %v", err)
	}
	if _, err := client.RequestPermission(ctx); err != nil {
		t.Fatalf("request permission: %v", err)
	}
	refreshed, err := client.RefreshPermission(ctx)
	if err != nil {
		t.Fatalf("refresh permission: %v", err)
	}
	if refreshed.Granted {
		t.Fatal("probe against missing sentinel paths must not report a grant")
	}

	monitoring, err := client.RestartMonitoring(ctx)
	if err != nil {
		t.Fatalf("restart monitoring: %v", err)
	}
	if len(monitoring.WatchedRoots) != 0 {
		t.Fatalf("empty registry should watch nothing, got %v", monitoring.WatchedRoots)
	}

	cleanup, err := client.Cleanup(ctx, filepath.Join(t.TempDir(), "nowhere"))
	if err != nil {
		t.Fatalf("cleanup: %v", err)
	}
	if cleanup.Deleted != 0 {
		t.Fatalf("cleanup of unindexed path deleted %d", cleanup.Deleted)
	}
}

func TestDaemonEnforcesSingleInstance(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	idx := testsupport.MustOpenIndex(t, cfg)

	first, err := daemon.New(cfg, store, idx, logging.NewNop())
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	if err := first.Start(context.Background()); err != nil {
		t.Fatalf("first start: %v", err)
	}
	defer func() { _ = first.Close() }()

	secondStore := testsupport.MustOpenStore(t, cfg)
	secondIdx := testsupport.MustOpenIndex(t, cfg)
	second, err := daemon.New(cfg, secondStore, secondIdx, logging.NewNop())
	if err != nil {
		t.Fatalf("daemon.New second: %v", err)
	}
	if err := second.Start(context.Background()); err == nil {
		second.Stop()
		t.Fatal("second daemon instance should fail to start")
	}
}

func TestDaemonAPIRequiresToken(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Paths.APIToken = "secret"
	store := testsupport.MustOpenStore(t, cfg)
	idx := testsupport.MustOpenIndex(t, cfg)

	d, err := daemon.New(cfg, store, idx, logging.NewNop())
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer func() { _ = d.Close() }()

	ctx := context.Background()
	anonymous := apiclient.New(d.APIAddr(), "")
	if _, err := anonymous.Status(ctx); err == nil {
		t.Fatal("request without token should be rejected")
	} else {
		var apiErr *apiclient.APIError
		if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %v", err)
		}
	}

	authed := apiclient.New(d.APIAddr(), "secret")
	if _, err := authed.Status(ctx); err != nil {
		t.Fatalf("authorized request failed: %v", err)
	}
}
