// Package postgres is the durable substitution for the in-memory event
// log. It implements the same eventlog.EventLog contract against a
// real database.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/lib/pq"

	"github.com/timelinecore/microfeed/internal/core/domainerr"
	"github.com/timelinecore/microfeed/internal/core/events"
)

const connectPingTimeout = 5 * time.Second

// Adapter implements eventlog.EventLog for PostgreSQL.
type Adapter struct {
	db *sql.DB
}

// NewAdapter opens a connection pool against dsn and pings it. It does
// not check that the events table exists; migrations are run separately
// (see internal/migrations).
func NewAdapter(dsn string, maxOpenConns, maxIdleConns int) (*Adapter, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres database: %w", err)
	}

	db.SetMaxOpenConns(maxOpenConns)
	db.SetMaxIdleConns(maxIdleConns)
	db.SetConnMaxLifetime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(context.Background(), connectPingTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping postgres database: %w", err)
	}

	slog.Info("[eventlog/postgres] adapter initialized",
		"max_open_conns", maxOpenConns,
		"max_idle_conns", maxIdleConns,
	)

	return &Adapter{db: db}, nil
}

// DB returns the underlying *sql.DB, so other components (e.g. migrations,
// health checks) can share the same connection pool.
func (a *Adapter) DB() *sql.DB { return a.db }

// Close closes the connection pool.
func (a *Adapter) Close() error { return a.db.Close() }

// Ping reports whether the database is reachable, satisfying
// server.Pinger for health checks.
func (a *Adapter) Ping(ctx context.Context) error { return a.db.PingContext(ctx) }

// wrapAppendErr maps a failure from within Append to ErrDeadline if it was
// caused by ctx's deadline or cancellation, or to ErrLogAppendFailed
// otherwise.
func wrapAppendErr(ctx context.Context, err error) error {
	if ctx.Err() != nil || errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return domainerr.Wrap(domainerr.ErrDeadline, err)
	}
	return domainerr.Wrap(domainerr.ErrLogAppendFailed, err)
}

// Append appends evts atomically for aggregateId inside one transaction,
// serialized against other appenders to the same aggregate via an
// advisory lock (see queryLockAggregate).
func (a *Adapter) Append(ctx context.Context, aggregateId string, evts []events.DomainEvent) error {
	if err := ctx.Err(); err != nil {
		return domainerr.Wrap(domainerr.ErrDeadline, err)
	}
	if len(evts) == 0 {
		return nil
	}

	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return wrapAppendErr(ctx, err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, queryLockAggregate, aggregateId); err != nil {
		return wrapAppendErr(ctx, err)
	}

	var current uint64
	if err := tx.QueryRowContext(ctx, queryMaxVersion, aggregateId).Scan(&current); err != nil {
		return wrapAppendErr(ctx, err)
	}

	for i, e := range evts {
		if e.Version != current+uint64(i)+1 {
			return domainerr.ErrVersionConflict
		}
	}

	for _, e := range evts {
		body, err := marshalBody(e)
		if err != nil {
			return domainerr.Wrap(domainerr.ErrLogAppendFailed, err)
		}
		if _, err := tx.ExecContext(ctx, queryInsertEvent,
			string(e.EventId), e.AggregateId, string(e.Kind), e.Version, e.OccurredAt, body,
		); err != nil {
			return wrapAppendErr(ctx, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return wrapAppendErr(ctx, err)
	}
	return nil
}

func (a *Adapter) Read(ctx context.Context, aggregateId string) ([]events.DomainEvent, error) {
	rows, err := a.db.QueryContext(ctx, queryReadStream, aggregateId)
	if err != nil {
		return nil, fmt.Errorf("read stream: %w", err)
	}
	defer rows.Close()
	return collectRows(rows)
}

func (a *Adapter) ReadAll(ctx context.Context) ([]events.DomainEvent, error) {
	rows, err := a.db.QueryContext(ctx, queryReadAll)
	if err != nil {
		return nil, fmt.Errorf("read all: %w", err)
	}
	defer rows.Close()
	return collectRows(rows)
}

func (a *Adapter) Exists(ctx context.Context, aggregateId string) (bool, error) {
	var exists bool
	if err := a.db.QueryRowContext(ctx, queryExists, aggregateId).Scan(&exists); err != nil {
		return false, fmt.Errorf("exists: %w", err)
	}
	return exists, nil
}

func collectRows(rows *sql.Rows) ([]events.DomainEvent, error) {
	var out []events.DomainEvent
	for rows.Next() {
		e, err := scanEventRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return out, nil
}
