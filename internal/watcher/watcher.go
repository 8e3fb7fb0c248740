package watcher

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"scout/internal/config"
	"scout/internal/folders"
	"scout/internal/logging"
)

// Notification is one coalesced change report for a watched root.
type Notification struct {
	Root  string
	Paths []string
	At    time.Time
}

// RootConfig describes one entry in the desired watch set.
type RootConfig struct {
	// Excludes are blacklisted subpaths whose events are filtered out.
	Excludes []string
}

// WatchSet maps watch roots to their configuration.
type WatchSet map[string]RootConfig

// Clone returns a deep copy so callers can hand the set across goroutines.
func (ws WatchSet) Clone() WatchSet {
	clone := make(WatchSet, len(ws))
	for root, cfg := range ws {
		clone[root] = RootConfig{Excludes: append([]string(nil), cfg.Excludes...)}
	}
	return clone
}

// Watcher owns the live fsnotify registrations. Failure of one root never
// affects the others: a root whose OS registration fails is marked degraded
// and reported, while the remaining roots keep operating.
type Watcher struct {
	logger   *slog.Logger
	debounce time.Duration

	notifications chan Notification
	onDegraded    func(root, reason string)

	mu       sync.Mutex
	roots    map[string]*rootWatch
	degraded map[string]string
	closed   bool
}

// New builds a watcher with the configured debounce window and notification
// buffer. No roots are watched until the first Reconfigure call.
func New(cfg *config.Config, logger *slog.Logger) *Watcher {
	return &Watcher{
		logger:        logging.NewComponentLogger(logger, "watcher"),
		debounce:      cfg.DebounceWindow(),
		notifications: make(chan Notification, cfg.Watcher.EventBuffer),
		roots:         make(map[string]*rootWatch),
		degraded:      make(map[string]string),
	}
}

// Notifications returns the shared ordered channel of coalesced reports.
// Within one root, notifications preserve the temporal order of the raw
// bursts; no ordering holds across roots.
func (w *Watcher) Notifications() <-chan Notification {
	return w.notifications
}

// SetOnDegraded registers the callback invoked when a root registration
// fails. Must be set before the first Reconfigure.
func (w *Watcher) SetOnDegraded(fn func(root, reason string)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onDegraded = fn
}

// ActiveRoots returns the currently watched roots, sorted.
func (w *Watcher) ActiveRoots() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	roots := make([]string, 0, len(w.roots))
	for root := range w.roots {
		roots = append(roots, root)
	}
	sort.Strings(roots)
	return roots
}

// DegradedRoots returns the roots that failed registration, with reasons.
func (w *Watcher) DegradedRoots() map[string]string {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make(map[string]string, len(w.degraded))
	for root, reason := range w.degraded {
		out[root] = reason
	}
	return out
}

// Reconfigure applies the symmetric difference between the current and
// desired root sets. Removed roots are stopped with their pending windows
// canceled (nothing is emitted for a canceled window); added roots start
// idle; roots present in both sets keep any armed debounce timer untouched,
// only their exclusion lists are refreshed.
func (w *Watcher) Reconfigure(ctx context.Context, desired WatchSet) {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}

	var stopped []*rootWatch
	for root, rw := range w.roots {
		if _, keep := desired[root]; !keep {
			stopped = append(stopped, rw)
			delete(w.roots, root)
		}
	}

	// A degraded root that is no longer wanted is not degraded, it is gone.
	for root := range w.degraded {
		if _, keep := desired[root]; !keep {
			delete(w.degraded, root)
		}
	}

	type pendingStart struct {
		root string
		cfg  RootConfig
	}
	var starts []pendingStart
	for root, cfg := range desired {
		if rw, ok := w.roots[root]; ok {
			rw.setExcludes(cfg.Excludes)
			continue
		}
		delete(w.degraded, root)
		starts = append(starts, pendingStart{root: root, cfg: cfg})
	}
	onDegraded := w.onDegraded
	w.mu.Unlock()

	for _, rw := range stopped {
		rw.stop()
		w.logger.Debug("stopped watching root", logging.String(logging.FieldRoot, rw.root))
	}

	for _, start := range starts {
		rw, err := w.startRoot(ctx, start.root, start.cfg)
		if err != nil {
			reason := err.Error()
			w.mu.Lock()
			w.degraded[start.root] = reason
			w.mu.Unlock()
			w.logger.Warn("root registration failed; continuing with remaining roots",
				logging.String(logging.FieldRoot, start.root),
				logging.Error(err),
				logging.String(logging.FieldEventType, "root_degraded"),
			)
			if onDegraded != nil {
				onDegraded(start.root, reason)
			}
			continue
		}
		w.mu.Lock()
		if w.closed {
			w.mu.Unlock()
			rw.stop()
			return
		}
		w.roots[start.root] = rw
		w.mu.Unlock()
		w.logger.Debug("watching root", logging.String(logging.FieldRoot, start.root))
	}
}

// Close stops every root. The notification channel is left open because a
// timer callback may still be completing a send; consumers stop through
// their own context, never by observing channel closure.
func (w *Watcher) Close() {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	w.closed = true
	roots := make([]*rootWatch, 0, len(w.roots))
	for _, rw := range w.roots {
		roots = append(roots, rw)
	}
	w.roots = make(map[string]*rootWatch)
	w.mu.Unlock()

	for _, rw := range roots {
		rw.stop()
	}
}

func (w *Watcher) startRoot(ctx context.Context, root string, cfg RootConfig) (*rootWatch, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	rw := &rootWatch{
		root:     root,
		owner:    w,
		fw:       fw,
		done:     make(chan struct{}),
		pending:  make(map[string]struct{}),
		excludes: append([]string(nil), cfg.Excludes...),
	}
	rw.ctx, rw.cancel = context.WithCancel(ctx)

	if err := fw.Add(root); err != nil {
		fw.Close()
		rw.cancel()
		return nil, err
	}
	rw.addSubdirectories(root)

	go rw.loop()
	return rw, nil
}

// rootWatch is the per-root debounce state machine. Idle until a raw event
// arms the timer; further events reset it; the timer firing emits one
// coalesced notification and returns to idle.
type rootWatch struct {
	root  string
	owner *Watcher
	fw    *fsnotify.Watcher

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}

	mu       sync.Mutex
	excludes []string
	pending  map[string]struct{}
	timer    *time.Timer
	canceled bool
}

func (rw *rootWatch) loop() {
	defer close(rw.done)
	for {
		select {
		case <-rw.ctx.Done():
			return
		case evt, ok := <-rw.fw.Events:
			if !ok {
				return
			}
			rw.handleEvent(evt)
		case err, ok := <-rw.fw.Errors:
			if !ok {
				return
			}
			rw.owner.logger.Warn("watch error",
				logging.String(logging.FieldRoot, rw.root),
				logging.Error(err),
			)
		}
	}
}

func (rw *rootWatch) handleEvent(evt fsnotify.Event) {
	path := filepath.Clean(evt.Name)
	if rw.isExcluded(path) {
		return
	}

	// fsnotify registrations are per-directory; new directories must be
	// added before events inside them can be seen.
	if evt.Op&fsnotify.Create != 0 {
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			if err := rw.fw.Add(path); err != nil {
				rw.owner.logger.Debug("subdirectory registration failed",
					logging.String(logging.FieldPath, path),
					logging.Error(err),
				)
			}
		}
	}

	rw.mu.Lock()
	defer rw.mu.Unlock()
	if rw.canceled {
		return
	}
	rw.pending[path] = struct{}{}
	if rw.timer == nil {
		rw.timer = time.AfterFunc(rw.owner.debounce, rw.fire)
	} else {
		rw.timer.Reset(rw.owner.debounce)
	}
}

func (rw *rootWatch) fire() {
	rw.mu.Lock()
	if rw.canceled || len(rw.pending) == 0 {
		rw.timer = nil
		rw.mu.Unlock()
		return
	}
	paths := make([]string, 0, len(rw.pending))
	for path := range rw.pending {
		paths = append(paths, path)
	}
	rw.pending = make(map[string]struct{})
	rw.timer = nil
	rw.mu.Unlock()

	sort.Strings(paths)
	notification := Notification{Root: rw.root, Paths: paths, At: time.Now().UTC()}
	select {
	case rw.owner.notifications <- notification:
	case <-rw.ctx.Done():
	}
}

func (rw *rootWatch) stop() {
	rw.cancel()

	rw.mu.Lock()
	rw.canceled = true
	if rw.timer != nil {
		rw.timer.Stop()
		rw.timer = nil
	}
	rw.pending = nil
	rw.mu.Unlock()

	_ = rw.fw.Close()
	<-rw.done
}

func (rw *rootWatch) setExcludes(excludes []string) {
	rw.mu.Lock()
	rw.excludes = append([]string(nil), excludes...)
	rw.mu.Unlock()
}

func (rw *rootWatch) isExcluded(path string) bool {
	rw.mu.Lock()
	defer rw.mu.Unlock()
	for _, exclude := range rw.excludes {
		if folders.Covers(exclude, path) {
			return true
		}
	}
	return false
}

func (rw *rootWatch) addSubdirectories(root string) {
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() || path == root {
			return nil
		}
		if rw.isExcluded(path) {
			return filepath.SkipDir
		}
		if err := rw.fw.Add(path); err != nil {
			rw.owner.logger.Debug("subdirectory registration failed",
				logging.String(logging.FieldPath, path),
				logging.Error(err),
			)
		}
		return nil
	})
}
