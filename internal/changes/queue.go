package changes

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"scout/internal/events"
	"scout/internal/folders"
	"scout/internal/logging"
)

// Reconciler is the monitoring coordinator surface the queue needs.
type Reconciler interface {
	Reconcile(ctx context.Context) error
}

// Cleaner purges derived index records under a path prefix.
type Cleaner interface {
	CleanByPathPrefix(ctx context.Context, path string) (int64, error)
}

// Queue applies config change requests to the directory store in strict
// FIFO order. The consumer parks while the queue is empty; it never
// busy-polls.
type Queue struct {
	store      *folders.Store
	reconciler Reconciler
	cleaner    Cleaner
	bus        *events.Bus
	logger     *slog.Logger

	mu         sync.Mutex
	pending    []*Request
	processing bool
	lastErr    error

	signal chan struct{}

	runMu   sync.Mutex
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewQueue builds an empty queue. Queue contents are never persisted; a
// restart starts with an empty queue against the persisted registry.
func NewQueue(store *folders.Store, reconciler Reconciler, cleaner Cleaner, bus *events.Bus, logger *slog.Logger) *Queue {
	return &Queue{
		store:      store,
		reconciler: reconciler,
		cleaner:    cleaner,
		bus:        bus,
		logger:     logging.NewComponentLogger(logger, "change-queue"),
		signal:     make(chan struct{}, 1),
	}
}

// Enqueue appends a request and returns its reply channel. Enqueue never
// fails and never blocks; validation happens when the consumer applies the
// request.
func (q *Queue) Enqueue(req Request) <-chan Result {
	req.reply = make(chan Result, 1)

	q.mu.Lock()
	q.pending = append(q.pending, &req)
	q.mu.Unlock()

	select {
	case q.signal <- struct{}{}:
	default:
	}
	return req.reply
}

// Status reports queue length, whether a request is in flight, and the most
// recent application error.
func (q *Queue) Status() Status {
	q.mu.Lock()
	defer q.mu.Unlock()
	status := Status{
		QueueLength: len(q.pending),
		Processing:  q.processing,
	}
	if q.lastErr != nil {
		status.LastError = q.lastErr.Error()
	}
	return status
}

// Start launches the single consumer goroutine.
func (q *Queue) Start(ctx context.Context) error {
	q.runMu.Lock()
	defer q.runMu.Unlock()
	if q.running {
		return errors.New("change queue already running")
	}
	runCtx, cancel := context.WithCancel(ctx)
	q.cancel = cancel
	q.running = true

	q.wg.Add(1)
	go q.consume(runCtx)
	return nil
}

// Stop halts the consumer after the in-flight request finishes.
func (q *Queue) Stop() {
	q.runMu.Lock()
	if !q.running {
		q.runMu.Unlock()
		return
	}
	cancel := q.cancel
	q.running = false
	q.cancel = nil
	q.runMu.Unlock()

	cancel()
	q.wg.Wait()
}

func (q *Queue) consume(ctx context.Context) {
	defer q.wg.Done()
	for {
		if !q.applyNext(ctx) {
			select {
			case <-ctx.Done():
				return
			case <-q.signal:
			}
		}
		if ctx.Err() != nil {
			return
		}
	}
}

// applyNext consumes exactly one request. It reports whether a request was
// available.
func (q *Queue) applyNext(ctx context.Context) bool {
	q.mu.Lock()
	if len(q.pending) == 0 {
		q.mu.Unlock()
		return false
	}
	req := q.pending[0]
	q.pending = q.pending[1:]
	q.processing = true
	q.mu.Unlock()

	result := q.apply(ctx, req)

	q.mu.Lock()
	q.processing = false
	if result.Err != nil {
		q.lastErr = result.Err
	}
	q.mu.Unlock()

	req.reply <- result

	if result.Err != nil {
		q.logger.Warn("config change rejected",
			logging.String(logging.FieldRequestKind, string(req.Kind)),
			logging.Error(result.Err),
		)
		return true
	}

	q.afterApply(ctx, req, result)
	return true
}

func (q *Queue) apply(ctx context.Context, req *Request) Result {
	switch req.Kind {
	case KindAddWhitelist:
		dir, err := q.store.Add(ctx, req.Path, req.Alias)
		return Result{Directory: dir, Err: err}
	case KindAddBlacklist:
		dir, err := q.store.AddBlacklistChild(ctx, req.ParentID, req.Path, req.Alias)
		return Result{Directory: dir, Err: err}
	case KindDeleteWhitelist, KindDeleteBlacklist:
		removed, err := q.store.Delete(ctx, req.DirectoryID)
		return Result{Removed: removed, Err: err}
	case KindCommonToBlacklist:
		dir, err := q.store.ToggleBlacklist(ctx, req.DirectoryID, true)
		return Result{Directory: dir, Err: err}
	case KindCommonToWhitelist:
		dir, err := q.store.ToggleBlacklist(ctx, req.DirectoryID, false)
		return Result{Directory: dir, Err: err}
	default:
		return Result{Err: fmt.Errorf("unknown request kind %q", req.Kind)}
	}
}

// afterApply runs the post-success obligations: reconcile the watch set,
// announce the registry change, and purge index rows for kinds that shrank
// the trusted surface. Cleanup failure is reported and left for the next
// cleanup call; it never unwinds the applied change.
func (q *Queue) afterApply(ctx context.Context, req *Request, result Result) {
	if err := q.reconciler.Reconcile(ctx); err != nil {
		q.logger.Warn("reconciliation after config change failed",
			logging.String(logging.FieldRequestKind, string(req.Kind)),
			logging.Error(err),
		)
	}

	changedPath := req.Path
	if changedPath == "" && result.Directory != nil {
		changedPath = result.Directory.Path
	}
	if changedPath == "" && len(result.Removed) > 0 {
		changedPath = result.Removed[0].Path
	}
	q.bus.Publish(events.Event{Kind: events.KindDirectoryChanged, Path: changedPath})

	if _, removing := surfaceRemoving[req.Kind]; !removing {
		return
	}
	for _, path := range cleanupPaths(req, result) {
		if _, err := q.cleaner.CleanByPathPrefix(ctx, path); err != nil {
			q.logger.Warn("cleanup after config change failed",
				logging.String(logging.FieldPath, path),
				logging.Error(err),
			)
		}
	}
}

func cleanupPaths(req *Request, result Result) []string {
	switch req.Kind {
	case KindDeleteWhitelist, KindDeleteBlacklist:
		// The root's prefix covers its children, but the explicit list keeps
		// cleanup correct even for a lone blacklist deletion.
		paths := make([]string, 0, len(result.Removed))
		for _, dir := range result.Removed {
			paths = append(paths, dir.Path)
		}
		return paths
	default:
		if result.Directory != nil {
			return []string{result.Directory.Path}
		}
		if req.Path != "" {
			return []string{req.Path}
		}
		return nil
	}
}
