package index

import (
	"context"
	"log/slog"

	"scout/internal/logging"
)

// Cleaner deletes derived records under a path prefix. It depends only on
// the index store and a path string, so a failed cleanup can never corrupt
// queue or watcher state; stale rows simply remain until the next call.
type Cleaner struct {
	store  *Store
	logger *slog.Logger
}

// NewCleaner builds a cleanup coordinator over the index store.
func NewCleaner(store *Store, logger *slog.Logger) *Cleaner {
	return &Cleaner{
		store:  store,
		logger: logging.NewComponentLogger(logger, "index-cleaner"),
	}
}

// CleanByPathPrefix removes records at or under path and returns the count
// deleted. Idempotent: repeating the call with no intervening writes
// returns 0.
func (c *Cleaner) CleanByPathPrefix(ctx context.Context, path string) (int64, error) {
	deleted, err := c.store.CleanByPathPrefix(ctx, path)
	if err != nil {
		c.logger.Warn("index cleanup failed; stale rows remain until next cleanup",
			logging.Error(err),
			logging.String(logging.FieldPath, path),
			logging.String(logging.FieldEventType, "index_cleanup_failed"),
		)
		return 0, err
	}
	if deleted > 0 {
		c.logger.Info("purged index records",
			logging.String(logging.FieldPath, path),
			logging.Int64("deleted", deleted),
			logging.String(logging.FieldEventType, "index_cleanup"),
		)
	}
	return deleted, nil
}
