package permission

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"scout/internal/config"
	"scout/internal/logging"
)

// Gate is the cached view of the blanket OS grant. Check serves the cache;
// Refresh re-probes (the grant can change outside this process, e.g. while
// the app is unfocused); Request triggers the consent flow and polls for the
// outcome with a fixed interval and a fixed attempt bound.
type Gate struct {
	prober       Prober
	logger       *slog.Logger
	pollInterval time.Duration
	maxAttempts  int

	mu      sync.Mutex
	granted bool
	polling bool

	onGrant func(context.Context)
}

// NewGate builds a permission gate. The initial cached value comes from one
// synchronous probe; probe errors leave the gate ungranted.
func NewGate(cfg *config.Config, prober Prober, logger *slog.Logger) *Gate {
	g := &Gate{
		prober:       prober,
		logger:       logging.NewComponentLogger(logger, "permission-gate"),
		pollInterval: cfg.PermissionPollInterval(),
		maxAttempts:  cfg.Permission.PollMaxAttempts,
	}
	g.Refresh(context.Background())
	return g
}

// SetOnGrant registers a callback invoked once whenever a refresh or poll
// flips the cached value to granted. Used by the monitoring coordinator to
// reconcile the watch set.
func (g *Gate) SetOnGrant(fn func(context.Context)) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.onGrant = fn
}

// Check returns the cached grant state without touching the OS.
func (g *Gate) Check() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.granted
}

// Refresh re-probes the OS grant and updates the cache. Call on host focus
// regained signals. Returns the refreshed value.
func (g *Gate) Refresh(ctx context.Context) bool {
	granted, err := g.prober.Probe(ctx)
	if err != nil {
		g.logger.Warn("permission probe failed; keeping cached state",
			logging.Error(err),
			logging.String(logging.FieldEventType, "permission_probe_failed"),
		)
		return g.Check()
	}
	g.update(ctx, granted)
	return granted
}

// Request triggers the OS consent flow and returns immediately. A background
// poll then watches for the grant with a bounded, fixed-interval retry loop.
// Exhausting the bound is reported, not fatal: authorization simply remains
// per-directory until the user retries or the app restarts.
func (g *Gate) Request(ctx context.Context) {
	g.mu.Lock()
	if g.granted || g.polling {
		g.mu.Unlock()
		return
	}
	g.polling = true
	g.mu.Unlock()

	if err := g.prober.RequestAccess(ctx); err != nil {
		g.logger.Warn("permission request trigger failed",
			logging.Error(err),
			logging.String(logging.FieldEventType, "permission_request_failed"),
		)
	}

	go g.pollForGrant(ctx)
}

func (g *Gate) pollForGrant(ctx context.Context) {
	defer func() {
		g.mu.Lock()
		g.polling = false
		g.mu.Unlock()
	}()

	ticker := time.NewTicker(g.pollInterval)
	defer ticker.Stop()

	for attempt := 1; attempt <= g.maxAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		granted, err := g.prober.Probe(ctx)
		if err != nil {
			g.logger.Debug("permission poll probe failed", logging.Error(err), logging.Int("attempt", attempt))
			continue
		}
		if granted {
			g.logger.Info("blanket permission granted",
				logging.Int("attempt", attempt),
				logging.String(logging.FieldEventType, "permission_granted"),
			)
			g.update(ctx, true)
			return
		}
	}

	g.logger.Info("permission poll exhausted without grant; per-directory authorization stays in effect",
		logging.Int("attempts", g.maxAttempts),
		logging.String(logging.FieldEventType, "permission_poll_exhausted"),
	)
}

func (g *Gate) update(ctx context.Context, granted bool) {
	g.mu.Lock()
	flipped := granted && !g.granted
	g.granted = granted
	fn := g.onGrant
	g.mu.Unlock()

	if flipped && fn != nil {
		fn(ctx)
	}
}
