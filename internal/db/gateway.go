package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/avolkov/profilekeeper/internal/metrics"
)

// Gateway demarcates per-unit-of-work transactions over a bounded pool.
// Every exit path returns the connection to the pool.
type Gateway struct {
	db   *sql.DB
	log  *zap.Logger
	sink metrics.Sink
}

// NewGateway wraps db with transaction helpers. sink receives transaction
// lifecycle counters.
func NewGateway(db *sql.DB, log *zap.Logger, sink metrics.Sink) *Gateway {
	return &Gateway{db: db, log: log, sink: sink}
}

// RunInTransaction acquires a pooled connection, begins a transaction and
// runs fn inside it. The transaction commits when fn returns nil and rolls
// back otherwise. A rollback failure is logged, never swallowed into the
// returned error: callers get the failure that triggered the rollback.
func (g *Gateway) RunInTransaction(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := g.db.BeginTx(ctx, nil)
	if err != nil {
		g.sink.Increment("db.tx.begin.error")
		return fmt.Errorf("begin tx: %w", err)
	}
	g.sink.Increment("db.tx.begin")

	if err := fn(tx); err != nil {
		g.rollback(tx)
		return err
	}

	if err := tx.Commit(); err != nil {
		g.sink.Increment("db.tx.commit.error")
		return fmt.Errorf("commit tx: %w", err)
	}
	g.sink.Increment("db.tx.commit")
	return nil
}

// RunInReadTransaction runs fn in a transaction that always rolls back.
// Nothing is mutated, and rollback is cheaper than commit under concurrent
// writers.
func (g *Gateway) RunInReadTransaction(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := g.db.BeginTx(ctx, nil)
	if err != nil {
		g.sink.Increment("db.tx.begin.error")
		return fmt.Errorf("begin tx: %w", err)
	}
	g.sink.Increment("db.tx.begin")

	ferr := fn(tx)
	g.rollback(tx)
	return ferr
}

func (g *Gateway) rollback(tx *sql.Tx) {
	if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		g.sink.Increment("db.tx.rollback.error")
		g.log.Error("transaction rollback failed", zap.Error(err))
		return
	}
	g.sink.Increment("db.tx.rollback")
}

// IsUnavailable reports whether err indicates the pool itself is gone, as
// opposed to a single failed connection. database/sql does not export its
// closed-pool error.
func IsUnavailable(err error) bool {
	return err != nil && strings.Contains(err.Error(), "sql: database is closed")
}

// StartPoolGauges periodically reports pool occupancy gauges until ctx is
// canceled.
func (g *Gateway) StartPoolGauges(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				stats := g.db.Stats()
				g.sink.Gauge("db.pool.open", float64(stats.OpenConnections))
				g.sink.Gauge("db.pool.idle", float64(stats.Idle))
				g.sink.Gauge("db.pool.in_use", float64(stats.InUse))
				// WaitCount is cumulative since process start, not a depth.
				g.sink.Gauge("db.pool.wait_count", float64(stats.WaitCount))
			}
		}
	}()
}
