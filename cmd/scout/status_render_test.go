package main

import (
	"fmt"
	"io"
	"strings"
	"testing"

	"scout/internal/api"
)

func TestRenderStatusLineNoColor(t *testing.T) {
	got := renderStatusLine("Daemon", statusError, "not running", false)
	want := fmt.Sprintf("%s%-*s %s", statusIndent, statusLabelWidth, "Daemon:", "[ERROR] not running")
	if got != want {
		t.Fatalf("renderStatusLine mismatch\n got: %q\nwant: %q", got, want)
	}
}

func TestRenderStatusLineWithColor(t *testing.T) {
	got := renderStatusLine("Daemon", statusOK, "running", true)
	if !strings.HasPrefix(got, ansiGreen) {
		t.Fatalf("expected green prefix, got %q", got)
	}
	if !strings.HasSuffix(got, ansiReset) {
		t.Fatalf("expected reset suffix, got %q", got)
	}
}

func TestShouldColorizeNonFile(t *testing.T) {
	if shouldColorize(io.Discard) {
		t.Fatal("expected non-file writer to disable color")
	}
}

func TestBuildFolderRows(t *testing.T) {
	hierarchy := &api.HierarchyResponse{
		Folders: []api.FolderGroup{
			{
				Folder: api.Folder{
					ID:         "aaaaaaaa-1111-2222-3333-444444444444",
					Path:       "/home/user/Documents",
					Alias:      "Docs",
					AuthStatus: "authorized",
				},
				Blacklist: []api.Folder{
					{
						ID:          "bbbbbbbb-1111-2222-3333-444444444444",
						Path:        "/home/user/Documents/private",
						AuthStatus:  "authorized",
						IsBlacklist: true,
					},
				},
			},
		},
	}

	rows := buildFolderRows(hierarchy)
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[0][0] != "aaaaaaaa" {
		t.Fatalf("expected truncated id, got %q", rows[0][0])
	}
	if rows[0][3] != "whitelist" || rows[1][3] != "blacklist" {
		t.Fatalf("unexpected kinds: %q / %q", rows[0][3], rows[1][3])
	}
	if !strings.HasPrefix(rows[1][1], "  ") {
		t.Fatalf("expected indented blacklist path, got %q", rows[1][1])
	}
}
