package watcher_test

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"sync"
	"testing"
	"time"

	"scout/internal/logging"
	"scout/internal/testsupport"
	"scout/internal/watcher"
)

func newTestWatcher(t *testing.T) *watcher.Watcher {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	w := watcher.New(cfg, logging.NewNop())
	t.Cleanup(w.Close)
	return w
}

func awaitNotification(t *testing.T, w *watcher.Watcher) watcher.Notification {
	t.Helper()
	select {
	case n, ok := <-w.Notifications():
		if !ok {
			t.Fatal("notification channel closed")
		}
		return n
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for notification")
		return watcher.Notification{}
	}
}

func assertSilent(t *testing.T, w *watcher.Watcher, window time.Duration) {
	t.Helper()
	select {
	case n := <-w.Notifications():
		t.Fatalf("unexpected notification for root %s: %v", n.Root, n.Paths)
	case <-time.After(window):
	}
}

func writeFile(t *testing.T, path string) {
	t.Helper()
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestWatcherReconfigureRoundTrip(t *testing.T) {
	w := newTestWatcher(t)
	ctx := context.Background()

	rootA := t.TempDir()
	rootB := t.TempDir()

	w.Reconfigure(ctx, watcher.WatchSet{
		rootA: {},
		rootB: {},
	})
	want := []string{rootA, rootB}
	if rootB < rootA {
		want = []string{rootB, rootA}
	}
	if got := w.ActiveRoots(); !reflect.DeepEqual(got, want) {
		t.Fatalf("active roots = %v, want %v", got, want)
	}

	w.Reconfigure(ctx, watcher.WatchSet{rootB: {}})
	if got := w.ActiveRoots(); !reflect.DeepEqual(got, []string{rootB}) {
		t.Fatalf("active roots after removal = %v, want [%s]", got, rootB)
	}

	w.Reconfigure(ctx, watcher.WatchSet{})
	if got := w.ActiveRoots(); len(got) != 0 {
		t.Fatalf("active roots after clearing = %v, want none", got)
	}
}

func TestWatcherCoalescesBurstIntoOneNotification(t *testing.T) {
	w := newTestWatcher(t)
	ctx := context.Background()

	root := t.TempDir()
	w.Reconfigure(ctx, watcher.WatchSet{root: {}})

	first := filepath.Join(root, "a.txt")
	second := filepath.Join(root, "b.txt")
	writeFile(t, first)
	writeFile(t, second)

	n := awaitNotification(t, w)
	if n.Root != root {
		t.Fatalf("notification root = %s, want %s", n.Root, root)
	}
	seen := make(map[string]bool, len(n.Paths))
	for _, p := range n.Paths {
		seen[p] = true
	}
	if !seen[first] || !seen[second] {
		t.Fatalf("notification paths %v missing %s or %s", n.Paths, first, second)
	}
	if !sortedStrings(n.Paths) {
		t.Fatalf("notification paths not sorted: %v", n.Paths)
	}

	// The window closed with the report; nothing further is pending.
	assertSilent(t, w, 200*time.Millisecond)
}

func TestWatcherRemovalCancelsPendingWindow(t *testing.T) {
	w := newTestWatcher(t)
	ctx := context.Background()

	root := t.TempDir()
	w.Reconfigure(ctx, watcher.WatchSet{root: {}})

	writeFile(t, filepath.Join(root, "pending.txt"))
	// Remove the root while its debounce window is still open.
	w.Reconfigure(ctx, watcher.WatchSet{})

	assertSilent(t, w, 300*time.Millisecond)
}

func TestWatcherFiltersExcludedPaths(t *testing.T) {
	w := newTestWatcher(t)
	ctx := context.Background()

	root := t.TempDir()
	excluded := filepath.Join(root, "cache")
	if err := os.Mkdir(excluded, 0o755); err != nil {
		t.Fatalf("mkdir excluded: %v", err)
	}

	w.Reconfigure(ctx, watcher.WatchSet{
		root: {Excludes: []string{excluded}},
	})

	writeFile(t, filepath.Join(excluded, "ignored.txt"))
	kept := filepath.Join(root, "kept.txt")
	writeFile(t, kept)

	n := awaitNotification(t, w)
	for _, p := range n.Paths {
		if p == excluded || filepath.Dir(p) == excluded {
			t.Fatalf("excluded path leaked into notification: %v", n.Paths)
		}
	}
	found := false
	for _, p := range n.Paths {
		if p == kept {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected %s in notification, got %v", kept, n.Paths)
	}
}

func TestWatcherDegradedRootDoesNotAffectOthers(t *testing.T) {
	w := newTestWatcher(t)
	ctx := context.Background()

	var mu sync.Mutex
	var degradedRoots []string
	w.SetOnDegraded(func(root, reason string) {
		mu.Lock()
		degradedRoots = append(degradedRoots, root)
		mu.Unlock()
	})

	healthy := t.TempDir()
	missing := filepath.Join(t.TempDir(), "does-not-exist")

	w.Reconfigure(ctx, watcher.WatchSet{
		healthy: {},
		missing: {},
	})

	if got := w.ActiveRoots(); !reflect.DeepEqual(got, []string{healthy}) {
		t.Fatalf("active roots = %v, want [%s]", got, healthy)
	}
	degraded := w.DegradedRoots()
	if _, ok := degraded[missing]; !ok {
		t.Fatalf("expected %s in degraded roots, got %v", missing, degraded)
	}
	mu.Lock()
	callbacks := append([]string(nil), degradedRoots...)
	mu.Unlock()
	if len(callbacks) != 1 || callbacks[0] != missing {
		t.Fatalf("degraded callback roots = %v, want [%s]", callbacks, missing)
	}

	// The healthy root still reports events.
	writeFile(t, filepath.Join(healthy, "alive.txt"))
	n := awaitNotification(t, w)
	if n.Root != healthy {
		t.Fatalf("notification root = %s, want %s", n.Root, healthy)
	}

	// Re-adding the same missing root after creating it clears the mark.
	if err := os.Mkdir(missing, 0o755); err != nil {
		t.Fatalf("mkdir missing root: %v", err)
	}
	w.Reconfigure(ctx, watcher.WatchSet{healthy: {}})
	w.Reconfigure(ctx, watcher.WatchSet{healthy: {}, missing: {}})
	if degraded := w.DegradedRoots(); len(degraded) != 0 {
		t.Fatalf("degraded roots not cleared: %v", degraded)
	}
}

func TestWatcherSeesNewSubdirectories(t *testing.T) {
	w := newTestWatcher(t)
	ctx := context.Background()

	root := t.TempDir()
	w.Reconfigure(ctx, watcher.WatchSet{root: {}})

	sub := filepath.Join(root, "nested")
	if err := os.Mkdir(sub, 0o755); err != nil {
		t.Fatalf("mkdir nested: %v", err)
	}
	// Drain the notification for the mkdir itself.
	awaitNotification(t, w)

	inner := filepath.Join(sub, "inner.txt")
	writeFile(t, inner)
	n := awaitNotification(t, w)
	found := false
	for _, p := range n.Paths {
		if p == inner {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected %s in notification, got %v", inner, n.Paths)
	}
}

func sortedStrings(values []string) bool {
	for i := 1; i < len(values); i++ {
		if values[i-1] > values[i] {
			return false
		}
	}
	return true
}

func TestWatcherKeptRootRetainsPendingWindow(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithDebounceMs(300))
	w := watcher.New(cfg, logging.NewNop())
	t.Cleanup(w.Close)
	ctx := context.Background()

	rootA := t.TempDir()
	rootB := t.TempDir()

	w.Reconfigure(ctx, watcher.WatchSet{rootA: {}})

	burst := filepath.Join(rootA, "burst.txt")
	writeFile(t, burst)

	// Reconfigure while rootA's debounce window is still armed. The kept
	// root must keep its pending events rather than being restarted.
	w.Reconfigure(ctx, watcher.WatchSet{rootA: {}, rootB: {}})

	n := awaitNotification(t, w)
	if n.Root != rootA {
		t.Fatalf("notification root = %s, want %s", n.Root, rootA)
	}
	found := false
	for _, p := range n.Paths {
		if p == burst {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected %s in coalesced paths, got %v", burst, n.Paths)
	}
	if got := w.ActiveRoots(); len(got) != 2 {
		t.Fatalf("active roots = %v, want both roots", got)
	}
}

func TestWatcherCloseDuringPendingWindow(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithDebounceMs(50))
	w := watcher.New(cfg, logging.NewNop())
	ctx := context.Background()

	root := t.TempDir()
	w.Reconfigure(ctx, watcher.WatchSet{root: {}})
	writeFile(t, filepath.Join(root, "pending.txt"))

	// Closing while a debounce timer is armed must not panic even if the
	// timer callback is already past its cancellation check.
	w.Close()

	assertSilent(t, w, 200*time.Millisecond)
}

func TestWatcherReconfigureDropsDegradedMark(t *testing.T) {
	w := newTestWatcher(t)
	ctx := context.Background()

	healthy := t.TempDir()
	missing := filepath.Join(t.TempDir(), "gone")

	w.Reconfigure(ctx, watcher.WatchSet{healthy: {}, missing: {}})
	if _, ok := w.DegradedRoots()[missing]; !ok {
		t.Fatalf("expected %s to be marked degraded", missing)
	}

	w.Reconfigure(ctx, watcher.WatchSet{healthy: {}})
	if degraded := w.DegradedRoots(); len(degraded) != 0 {
		t.Fatalf("degraded roots after removal = %v, want none", degraded)
	}
}
