package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"go.uber.org/zap"

	"github.com/avolkov/profilekeeper/internal/metrics"
)

func setupGateway(t *testing.T) (*Gateway, sqlmock.Sqlmock, func()) {
	dbMock, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to open sqlmock database: %v", err)
	}
	gw := NewGateway(dbMock, zap.NewNop(), metrics.NopSink{})
	cleanup := func() {
		dbMock.Close()
	}
	return gw, mock, cleanup
}

func TestRunInTransaction_CommitsOnSuccess(t *testing.T) {
	gw, mock, cleanup := setupGateway(t)
	defer cleanup()

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE something").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := gw.RunInTransaction(context.Background(), func(tx *sql.Tx) error {
		_, err := tx.Exec("UPDATE something")
		return err
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestRunInTransaction_RollsBackOnFailure(t *testing.T) {
	gw, mock, cleanup := setupGateway(t)
	defer cleanup()

	wantErr := errors.New("handler failed")

	mock.ExpectBegin()
	mock.ExpectRollback()

	err := gw.RunInTransaction(context.Background(), func(tx *sql.Tx) error {
		return wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Fatalf("RunInTransaction error = %v; want %v", err, wantErr)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestRunInTransaction_RollbackFailureKeepsOriginalError(t *testing.T) {
	gw, mock, cleanup := setupGateway(t)
	defer cleanup()

	wantErr := errors.New("handler failed")

	mock.ExpectBegin()
	mock.ExpectRollback().WillReturnError(fmt.Errorf("rollback broke"))

	err := gw.RunInTransaction(context.Background(), func(tx *sql.Tx) error {
		return wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Fatalf("RunInTransaction error = %v; want %v", err, wantErr)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestRunInTransaction_BeginFailure(t *testing.T) {
	gw, mock, cleanup := setupGateway(t)
	defer cleanup()

	mock.ExpectBegin().WillReturnError(errors.New("no connections"))

	err := gw.RunInTransaction(context.Background(), func(tx *sql.Tx) error {
		t.Fatal("unit of work must not run when begin fails")
		return nil
	})
	if err == nil {
		t.Fatal("expected error, got nil")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestRunInReadTransaction_AlwaysRollsBack(t *testing.T) {
	gw, mock, cleanup := setupGateway(t)
	defer cleanup()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT 1").WillReturnRows(sqlmock.NewRows([]string{"one"}).AddRow(1))
	mock.ExpectRollback()

	err := gw.RunInReadTransaction(context.Background(), func(tx *sql.Tx) error {
		var one int
		return tx.QueryRow("SELECT 1").Scan(&one)
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestRunInReadTransaction_PropagatesCallbackError(t *testing.T) {
	gw, mock, cleanup := setupGateway(t)
	defer cleanup()

	wantErr := errors.New("read failed")

	mock.ExpectBegin()
	mock.ExpectRollback()

	err := gw.RunInReadTransaction(context.Background(), func(tx *sql.Tx) error {
		return wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Fatalf("RunInReadTransaction error = %v; want %v", err, wantErr)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

// recordingSink captures gauge names for assertions.
type recordingSink struct {
	mu     sync.Mutex
	gauges map[string]float64
}

func (s *recordingSink) Increment(string) {}

func (s *recordingSink) Gauge(name string, value float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gauges == nil {
		s.gauges = map[string]float64{}
	}
	s.gauges[name] = value
}

func (s *recordingSink) names() map[string]bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := map[string]bool{}
	for name := range s.gauges {
		out[name] = true
	}
	return out
}

func TestStartPoolGauges_ReportsCumulativeWaitCountByName(t *testing.T) {
	dbMock, _, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to open sqlmock database: %v", err)
	}
	defer dbMock.Close()

	sink := &recordingSink{}
	gw := NewGateway(dbMock, zap.NewNop(), sink)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	gw.StartPoolGauges(ctx, time.Millisecond)

	deadline := time.Now().Add(time.Second)
	for len(sink.names()) == 0 {
		if time.Now().After(deadline) {
			t.Fatal("no gauges reported before deadline")
		}
		time.Sleep(time.Millisecond)
	}

	names := sink.names()
	for _, want := range []string{"db.pool.open", "db.pool.idle", "db.pool.in_use", "db.pool.wait_count"} {
		if !names[want] {
			t.Errorf("gauge %q not reported (got %v)", want, names)
		}
	}
	if names["db.pool.waiting"] {
		t.Error("cumulative wait counter must not be reported under a depth-gauge name")
	}
}

func TestIsUnavailable(t *testing.T) {
	gw, _, cleanup := setupGateway(t)
	cleanup()

	err := gw.RunInTransaction(context.Background(), func(tx *sql.Tx) error { return nil })
	if !IsUnavailable(err) {
		t.Errorf("IsUnavailable(%v) = false; want true after pool close", err)
	}

	if IsUnavailable(errors.New("connection reset")) {
		t.Error("IsUnavailable reported an ordinary error as pool loss")
	}
	if IsUnavailable(nil) {
		t.Error("IsUnavailable(nil) = true")
	}
}
