package eventlog

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/timelinecore/microfeed/internal/core/domainerr"
	"github.com/timelinecore/microfeed/internal/core/events"
	"github.com/timelinecore/microfeed/internal/core/lockshard"
)

// storedEvent pairs a DomainEvent with the monotonic insertion sequence
// used to break OccurredAt ties in ReadAll.
type storedEvent struct {
	event events.DomainEvent
	seq   uint64
}

type stream struct {
	mu     sync.Mutex
	events []storedEvent
}

// InMemory is the reference EventLog: per-aggregate streams guarded by a
// fixed lock-shard table so concurrent appends to different aggregates
// proceed in parallel.
type InMemory struct {
	shards  *lockshard.Table
	streams sync.Map // string -> *stream
	seq     atomic.Uint64
}

// NewInMemory returns an empty in-memory event log.
func NewInMemory() *InMemory {
	return &InMemory{shards: lockshard.New()}
}

func (l *InMemory) streamFor(aggregateId string) *stream {
	v, _ := l.streams.LoadOrStore(aggregateId, &stream{})
	return v.(*stream)
}

func (l *InMemory) Append(ctx context.Context, aggregateId string, evts []events.DomainEvent) error {
	if err := ctx.Err(); err != nil {
		return domainerr.Wrap(domainerr.ErrDeadline, err)
	}
	if len(evts) == 0 {
		return nil
	}

	var appendErr error
	l.shards.With(aggregateId, func() {
		s := l.streamFor(aggregateId)
		s.mu.Lock()
		defer s.mu.Unlock()

		expected := uint64(len(s.events))
		for i, e := range evts {
			if e.Version != expected+uint64(i)+1 {
				appendErr = domainerr.ErrVersionConflict
				return
			}
		}
		for _, e := range evts {
			s.events = append(s.events, storedEvent{event: e, seq: l.seq.Add(1)})
		}
	})
	return appendErr
}

func (l *InMemory) Read(ctx context.Context, aggregateId string) ([]events.DomainEvent, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	v, ok := l.streams.Load(aggregateId)
	if !ok {
		return nil, nil
	}
	s := v.(*stream)
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]events.DomainEvent, len(s.events))
	for i, se := range s.events {
		out[i] = se.event
	}
	return out, nil
}

func (l *InMemory) ReadAll(ctx context.Context) ([]events.DomainEvent, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var all []storedEvent
	l.streams.Range(func(_, v interface{}) bool {
		s := v.(*stream)
		s.mu.Lock()
		all = append(all, s.events...)
		s.mu.Unlock()
		return true
	})

	sort.Slice(all, func(i, j int) bool {
		ti, tj := all[i].event.OccurredAt, all[j].event.OccurredAt
		if ti.Equal(tj) {
			return all[i].seq < all[j].seq
		}
		return ti.Before(tj)
	})

	out := make([]events.DomainEvent, len(all))
	for i, se := range all {
		out[i] = se.event
	}
	return out, nil
}

func (l *InMemory) Exists(ctx context.Context, aggregateId string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	v, ok := l.streams.Load(aggregateId)
	if !ok {
		return false, nil
	}
	s := v.(*stream)
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.events) > 0, nil
}
