package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/gofrs/flock"

	"scout/internal/changes"
	"scout/internal/config"
	"scout/internal/events"
	"scout/internal/folders"
	"scout/internal/index"
	"scout/internal/logging"
	"scout/internal/monitor"
	"scout/internal/notifications"
	"scout/internal/permission"
	"scout/internal/watcher"
)

// Daemon coordinates the background services and enforces single-instance
// execution through a lock file.
type Daemon struct {
	cfg    *config.Config
	logger *slog.Logger

	store       *folders.Store
	index       *index.Store
	cleaner     *index.Cleaner
	gate        *permission.Gate
	watcher     *watcher.Watcher
	coordinator *monitor.Coordinator
	queue       *changes.Queue
	bus         *events.Bus
	notifier    notifications.Service

	logPath  string
	lockPath string
	lock     *flock.Flock

	api *apiServer

	running atomic.Bool
	ctx     context.Context
	cancel  context.CancelFunc
}

// Status represents daemon runtime information.
type Status struct {
	Running        bool
	PID            int
	RegistryDBPath string
	IndexDBPath    string
	LockFilePath   string
	Granted        bool
	WatchedRoots   []string
	DegradedRoots  map[string]string
	Queue          changes.Status
}

// New constructs a daemon with fully wired dependencies. The caller owns the
// registry and index stores and closes them through Close.
func New(cfg *config.Config, store *folders.Store, idx *index.Store, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil || store == nil || idx == nil || logger == nil {
		return nil, errors.New("daemon requires config, stores, and logger")
	}

	bus := events.NewBus(cfg.Watcher.EventBuffer, logger)
	cleaner := index.NewCleaner(idx, logger)
	gate := permission.NewGate(cfg, permission.NewAccessProber(nil), logger)
	w := watcher.New(cfg, logger)
	coordinator := monitor.New(store, gate, w, bus, logger)
	queue := changes.NewQueue(store, coordinator, cleaner, bus, logger)

	lockPath := filepath.Join(cfg.Paths.LogDir, "scoutd.lock")
	d := &Daemon{
		cfg:         cfg,
		logger:      logger,
		store:       store,
		index:       idx,
		cleaner:     cleaner,
		gate:        gate,
		watcher:     w,
		coordinator: coordinator,
		queue:       queue,
		bus:         bus,
		notifier:    notifications.NewService(cfg),
		logPath:     filepath.Join(cfg.Paths.LogDir, "scout.log"),
		lockPath:    lockPath,
		lock:        flock.New(lockPath),
	}

	server, err := newAPIServer(cfg, d, logger)
	if err != nil {
		return nil, err
	}
	d.api = server

	// The coordinator reconciles on grant before this hook runs, so newly
	// covered folders are watched before the user is told about them.
	coordinator.SetOnGrant(func(ctx context.Context) {
		if err := d.notifier.NotifyPermissionGranted(ctx); err != nil {
			logger.Debug("permission grant notification failed", logging.Error(err))
		}
	})
	return d, nil
}

// Start acquires the daemon lock, seeds common folders, and brings every
// service online. The watch set is rebuilt from the registry before the API
// starts accepting requests.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another scout daemon instance is already running")
	}

	d.ctx, d.cancel = context.WithCancel(ctx)

	if added, err := d.store.SeedCommonFolders(d.ctx, d.cfg.Folders.CommonFolders); err != nil {
		d.logger.Warn("common folder seeding incomplete", logging.Error(err))
	} else if added > 0 {
		d.logger.Info("seeded common folders", logging.Int("added", added))
	}

	if err := d.queue.Start(d.ctx); err != nil {
		return d.failStart(fmt.Errorf("start change queue: %w", err))
	}
	if err := d.coordinator.Start(d.ctx); err != nil {
		d.queue.Stop()
		return d.failStart(fmt.Errorf("start monitor: %w", err))
	}
	if err := d.coordinator.Restart(d.ctx); err != nil {
		d.logger.Warn("initial reconciliation failed", logging.Error(err))
	}

	go d.forwardEvents(d.ctx)

	if d.api != nil {
		if err := d.api.start(d.ctx); err != nil {
			d.coordinator.Stop()
			d.queue.Stop()
			return d.failStart(err)
		}
	}

	d.running.Store(true)
	d.logger.Info("scout daemon started",
		logging.String("lock", d.lockPath),
		logging.Int("roots", len(d.watcher.ActiveRoots())),
	)
	return nil
}

func (d *Daemon) failStart(err error) error {
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.ctx = nil
	_ = d.lock.Unlock()
	return err
}

// Stop halts background processing and releases the daemon lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	if d.api != nil {
		d.api.stop()
	}
	d.queue.Stop()
	d.coordinator.Stop()
	d.watcher.Close()
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.ctx = nil
	d.running.Store(false)
	d.logger.Info("scout daemon stopped")
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	var errs []error
	if d.store != nil {
		errs = append(errs, d.store.Close())
	}
	if d.index != nil {
		errs = append(errs, d.index.Close())
	}
	return errors.Join(errs...)
}

// Enqueue submits a config change and waits for its outcome. Serialization
// and validation happen in the change queue.
func (d *Daemon) Enqueue(ctx context.Context, req changes.Request) (changes.Result, error) {
	reply := d.queue.Enqueue(req)
	select {
	case result := <-reply:
		return result, nil
	case <-ctx.Done():
		return changes.Result{}, ctx.Err()
	}
}

// QueueStatus reports change queue diagnostics.
func (d *Daemon) QueueStatus() changes.Status {
	return d.queue.Status()
}

// PermissionGranted reports the cached blanket grant state.
func (d *Daemon) PermissionGranted() bool {
	return d.gate.Check()
}

// RequestPermission triggers the OS consent flow and background polling.
func (d *Daemon) RequestPermission(ctx context.Context) {
	d.gate.Request(ctx)
}

// RefreshPermission re-probes the OS grant. Called on host focus signals.
func (d *Daemon) RefreshPermission(ctx context.Context) bool {
	return d.gate.Refresh(ctx)
}

// RestartMonitoring rebuilds the watch set from the registry. Called by the
// boundary after host resume.
func (d *Daemon) RestartMonitoring(ctx context.Context) error {
	return d.coordinator.Restart(ctx)
}

// Cleanup removes indexed content at or under the given path.
func (d *Daemon) Cleanup(ctx context.Context, path string) (int64, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return 0, errors.New("cleanup path is required")
	}
	normalized, err := folders.NormalizePath(trimmed)
	if err != nil {
		return 0, err
	}
	return d.cleaner.CleanByPathPrefix(ctx, normalized)
}

// DatabaseHealth returns registry database diagnostics.
func (d *Daemon) DatabaseHealth(ctx context.Context) (folders.DatabaseHealth, error) {
	return d.store.CheckHealth(ctx)
}

// TestNotification triggers a test notification using the current configuration.
func (d *Daemon) TestNotification(ctx context.Context) (bool, string, error) {
	if strings.TrimSpace(d.cfg.Notifications.NtfyTopic) == "" {
		return false, "ntfy topic not configured", nil
	}
	if err := d.notifier.TestNotification(ctx); err != nil {
		return false, "failed to send notification", err
	}
	return true, "test notification sent", nil
}

// LogPath returns the path to the daemon log file.
func (d *Daemon) LogPath() string {
	return d.logPath
}

// APIAddr returns the bound API listen address, or empty when the API is
// disabled or not yet started.
func (d *Daemon) APIAddr() string {
	return d.api.addr()
}

// Events exposes the boundary event bus.
func (d *Daemon) Events() *events.Bus {
	return d.bus
}

// Status returns the current daemon status.
func (d *Daemon) Status(ctx context.Context) Status {
	return Status{
		Running:        d.running.Load(),
		PID:            os.Getpid(),
		RegistryDBPath: d.store.Path(),
		IndexDBPath:    d.index.Path(),
		LockFilePath:   d.lockPath,
		Granted:        d.gate.Check(),
		WatchedRoots:   d.watcher.ActiveRoots(),
		DegradedRoots:  d.watcher.DegradedRoots(),
		Queue:          d.queue.Status(),
	}
}

// forwardEvents turns selected bus events into user notifications.
func (d *Daemon) forwardEvents(ctx context.Context) {
	evts, cancel := d.bus.Subscribe()
	defer cancel()
	for {
		select {
		case <-ctx.Done():
			return
		case evt, ok := <-evts:
			if !ok {
				return
			}
			switch evt.Kind {
			case events.KindDegradedRoot:
				if err := d.notifier.NotifyDegradedRoot(ctx, evt.Path, evt.Reason); err != nil {
					d.logger.Debug("degraded root notification failed", logging.Error(err))
				}
			case events.KindMonitoringRestarted:
				if err := d.notifier.NotifyMonitoringRestarted(ctx, len(d.watcher.ActiveRoots())); err != nil {
					d.logger.Debug("restart notification failed", logging.Error(err))
				}
			}
		}
	}
}
