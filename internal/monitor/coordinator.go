// Package monitor recomputes the desired watch set from the directory
// registry and the permission gate, and reconciles the debounced watcher
// against it. All reconciliations run through one critical section so the
// watch set is never rebuilt by two callers concurrently.
package monitor

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"scout/internal/events"
	"scout/internal/folders"
	"scout/internal/logging"
	"scout/internal/permission"
	"scout/internal/watcher"
)

// Coordinator owns the WatchSet. It is the only component that mutates it,
// and it always rebuilds it from the store: no cached watch state survives a
// restart.
type Coordinator struct {
	store   *folders.Store
	gate    *permission.Gate
	watcher *watcher.Watcher
	bus     *events.Bus
	logger  *slog.Logger

	onChanges func(watcher.Notification)
	onGrant   func(context.Context)

	reconcileMu sync.Mutex
	stateMu     sync.Mutex
	current     watcher.WatchSet

	runMu   sync.Mutex
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// New wires the coordinator and registers itself for degraded-root reports
// and permission grants.
func New(store *folders.Store, gate *permission.Gate, w *watcher.Watcher, bus *events.Bus, logger *slog.Logger) *Coordinator {
	c := &Coordinator{
		store:   store,
		gate:    gate,
		watcher: w,
		bus:     bus,
		logger:  logging.NewComponentLogger(logger, "monitor"),
		current: make(watcher.WatchSet),
	}
	w.SetOnDegraded(c.reportDegraded)
	gate.SetOnGrant(func(ctx context.Context) {
		if err := c.Reconcile(ctx); err != nil {
			c.logger.Warn("reconcile after permission grant failed", logging.Error(err))
		}
		if fn := c.onGrant; fn != nil {
			fn(ctx)
		}
	})
	return c
}

// SetOnChanges registers the consumer of coalesced change notifications
// (normally the content indexing pipeline).
func (c *Coordinator) SetOnChanges(fn func(watcher.Notification)) {
	c.onChanges = fn
}

// SetOnGrant registers a callback invoked after a permission grant has been
// reconciled, so the new roots are already watched when it runs. Must be set
// before Start.
func (c *Coordinator) SetOnGrant(fn func(context.Context)) {
	c.onGrant = fn
}

// Start launches the notification forwarding loop.
func (c *Coordinator) Start(ctx context.Context) error {
	c.runMu.Lock()
	defer c.runMu.Unlock()
	if c.running {
		return fmt.Errorf("monitor already running")
	}
	runCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.running = true

	c.wg.Add(1)
	go c.forwardNotifications(runCtx)
	return nil
}

// Stop halts the forwarding loop.
func (c *Coordinator) Stop() {
	c.runMu.Lock()
	if !c.running {
		c.runMu.Unlock()
		return
	}
	cancel := c.cancel
	c.running = false
	c.cancel = nil
	c.runMu.Unlock()

	cancel()
	c.wg.Wait()
}

// Reconcile recomputes the watch set from the registry and permission gate
// and applies it to the watcher. Triggered after every applied config change.
func (c *Coordinator) Reconcile(ctx context.Context) error {
	c.reconcileMu.Lock()
	defer c.reconcileMu.Unlock()
	return c.reconcileLocked(ctx)
}

// Restart forces a full reconciliation and announces it. The boundary calls
// this after host resume, and the daemon calls it once at startup so the
// watch set is always rebuilt from persisted state.
func (c *Coordinator) Restart(ctx context.Context) error {
	c.reconcileMu.Lock()
	defer c.reconcileMu.Unlock()

	if err := c.reconcileLocked(ctx); err != nil {
		return err
	}
	c.bus.Publish(events.Event{Kind: events.KindMonitoringRestarted})
	c.logger.Info("monitoring restarted",
		logging.Int("roots", len(c.WatchSet())),
		logging.String(logging.FieldEventType, "monitoring_restarted"),
	)
	return nil
}

// WatchSet returns a copy of the current desired watch set.
func (c *Coordinator) WatchSet() watcher.WatchSet {
	c.stateMu.Lock()
	defer c.stateMu.Unlock()
	return c.current.Clone()
}

func (c *Coordinator) reconcileLocked(ctx context.Context) error {
	desired, err := c.computeWatchSet(ctx)
	if err != nil {
		return fmt.Errorf("compute watch set: %w", err)
	}

	c.watcher.Reconfigure(ctx, desired)

	c.stateMu.Lock()
	c.current = desired.Clone()
	c.stateMu.Unlock()
	return nil
}

// computeWatchSet derives the watch roots: every top-level whitelist entry
// that is authorized (individually, or implicitly through the blanket
// permission), with its blacklist children as exclusions.
func (c *Coordinator) computeWatchSet(ctx context.Context) (watcher.WatchSet, error) {
	hierarchy, err := c.store.ListHierarchy(ctx)
	if err != nil {
		return nil, err
	}

	blanket := c.gate.Check()
	desired := make(watcher.WatchSet)
	for _, entry := range hierarchy.Entries {
		root := entry.Folder
		if root.IsBlacklist {
			continue
		}
		if !blanket && root.AuthStatus != folders.AuthAuthorized {
			continue
		}
		excludes := make([]string, 0, len(entry.Blacklist))
		for _, child := range entry.Blacklist {
			excludes = append(excludes, child.Path)
		}
		desired[root.Path] = watcher.RootConfig{Excludes: excludes}
	}
	return desired, nil
}

func (c *Coordinator) forwardNotifications(ctx context.Context) {
	defer c.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case notification, ok := <-c.watcher.Notifications():
			if !ok {
				return
			}
			c.logger.Debug("coalesced change",
				logging.String(logging.FieldRoot, notification.Root),
				logging.Int("paths", len(notification.Paths)),
			)
			if c.onChanges != nil {
				c.onChanges(notification)
			}
		}
	}
}

func (c *Coordinator) reportDegraded(root, reason string) {
	c.bus.Publish(events.Event{Kind: events.KindDegradedRoot, Path: root, Reason: reason})
}
