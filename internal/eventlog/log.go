// Package eventlog defines the append-only, per-aggregate event log
// that is the sole owner of authoritative state.
package eventlog

import (
	"context"

	"github.com/timelinecore/microfeed/internal/core/events"
)

// EventLog is the authoritative append-only store. Per-aggregate append
// order equals per-aggregate version order; ReadAll's global order is
// stable under replay because OccurredAt (plus insertion order as a
// tiebreak) is recorded verbatim at append time.
type EventLog interface {
	// Append appends evts atomically in order for aggregateId. Each
	// event's Version must equal lastKnownVersion+k for the k-th
	// element, or the call fails with domainerr.ErrVersionConflict.
	Append(ctx context.Context, aggregateId string, evts []events.DomainEvent) error

	// Read returns aggregateId's stream in version order.
	Read(ctx context.Context, aggregateId string) ([]events.DomainEvent, error)

	// ReadAll returns every event ever appended, ordered by OccurredAt,
	// ties broken by insertion order.
	ReadAll(ctx context.Context) ([]events.DomainEvent, error)

	// Exists reports whether aggregateId has any appended events.
	Exists(ctx context.Context, aggregateId string) (bool, error)
}
