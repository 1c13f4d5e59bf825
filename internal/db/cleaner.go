package db

import (
	"context"
	"database/sql"
	"time"

	"go.uber.org/zap"
)

// StartStaleSearchCleaner deletes unsaved search queries that have not been
// used within the retention window, checking on the given interval. Saved
// searches are never touched.
func StartStaleSearchCleaner(
	ctx context.Context,
	db *sql.DB,
	interval time.Duration,
	retention time.Duration,
	log *zap.Logger,
) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				cutoff := time.Now().Add(-retention)
				res, err := db.ExecContext(ctx, `
                    DELETE FROM searches
                     WHERE saved = false
                       AND last_used < $1
                `, cutoff)
				if err != nil {
					log.Error("failed to clean stale searches", zap.Error(err))
					continue
				}
				if rows, _ := res.RowsAffected(); rows > 0 {
					log.Info("cleaned stale searches", zap.Int64("removed", rows))
				}
			}
		}
	}()
}
