package postgres

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/timelinecore/microfeed/internal/core/domainerr"
	"github.com/timelinecore/microfeed/internal/core/events"
	"github.com/timelinecore/microfeed/internal/core/ids"
)

func newMockAdapter(t *testing.T) (*Adapter, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return &Adapter{db: db}, mock
}

func TestAdapter_Append_Success(t *testing.T) {
	a, mock := newMockAdapter(t)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	evt := events.DomainEvent{
		EventId:        ids.NewEventId(),
		AggregateId:    "user-1",
		Kind:           events.KindUserRegistered,
		Version:        1,
		OccurredAt:     now,
		UserRegistered: &events.UserRegisteredBody{Username: "alice"},
	}

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(queryLockAggregate)).WithArgs("user-1").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta(queryMaxVersion)).WithArgs("user-1").
		WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(uint64(0)))
	mock.ExpectExec(regexp.QuoteMeta(queryInsertEvent)).
		WithArgs(string(evt.EventId), "user-1", "UserRegistered", uint64(1), now, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	err := a.Append(context.Background(), "user-1", []events.DomainEvent{evt})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAdapter_Append_VersionConflict(t *testing.T) {
	a, mock := newMockAdapter(t)
	evt := events.DomainEvent{
		EventId:        ids.NewEventId(),
		AggregateId:    "user-1",
		Kind:           events.KindUserRegistered,
		Version:        5,
		UserRegistered: &events.UserRegisteredBody{Username: "alice"},
	}

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(queryLockAggregate)).WithArgs("user-1").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta(queryMaxVersion)).WithArgs("user-1").
		WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(uint64(0)))
	mock.ExpectRollback()

	err := a.Append(context.Background(), "user-1", []events.DomainEvent{evt})
	require.ErrorIs(t, err, domainerr.ErrVersionConflict)
}

func TestAdapter_Append_DeadlineAlreadyExceededReturnsErrDeadline(t *testing.T) {
	a, mock := newMockAdapter(t)
	evt := events.DomainEvent{
		EventId:        ids.NewEventId(),
		AggregateId:    "user-1",
		Kind:           events.KindUserRegistered,
		Version:        1,
		UserRegistered: &events.UserRegisteredBody{Username: "alice"},
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := a.Append(ctx, "user-1", []events.DomainEvent{evt})
	require.ErrorIs(t, err, domainerr.ErrDeadline)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAdapter_Append_DriverReportsDeadlineExceededMidFlight(t *testing.T) {
	a, mock := newMockAdapter(t)
	evt := events.DomainEvent{
		EventId:        ids.NewEventId(),
		AggregateId:    "user-1",
		Kind:           events.KindUserRegistered,
		Version:        1,
		UserRegistered: &events.UserRegisteredBody{Username: "alice"},
	}

	// Simulates the deadline expiring while the advisory-lock query is in
	// flight: ctx isn't Done() yet when Append is called, but the driver
	// surfaces context.DeadlineExceeded from the query itself.
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(queryLockAggregate)).WithArgs("user-1").
		WillReturnError(context.DeadlineExceeded)
	mock.ExpectRollback()

	err := a.Append(context.Background(), "user-1", []events.DomainEvent{evt})
	require.ErrorIs(t, err, domainerr.ErrDeadline)
	require.NotErrorIs(t, err, domainerr.ErrLogAppendFailed)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAdapter_ReadAll(t *testing.T) {
	a, mock := newMockAdapter(t)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	rows := sqlmock.NewRows([]string{"event_id", "aggregate_id", "kind", "version", "occurred_at", "body"}).
		AddRow("evt-1", "user-1", "UserRegistered", uint64(1), now, []byte(`{"username":"alice"}`))
	mock.ExpectQuery(regexp.QuoteMeta(queryReadAll)).WillReturnRows(rows)

	got, err := a.ReadAll(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, "alice", got[0].UserRegistered.Username)
}
