package aggregate

import (
	"github.com/timelinecore/microfeed/internal/core/domainerr"
	"github.com/timelinecore/microfeed/internal/core/events"
	"github.com/timelinecore/microfeed/internal/core/ids"
)

// FollowRelationship is the write-side aggregate for one directed follow
// edge. States: Absent (implicit) → Active → Ended (terminal; a fresh
// relationship id is required to re-follow).
type FollowRelationship struct {
	id         ids.RelationshipId
	followerId ids.UserId
	followeeId ids.UserId
	active     bool
	version    uint64
	uncommitted []events.DomainEvent
}

// NewFollowRelationship returns an empty, not-yet-started relationship aggregate for id.
func NewFollowRelationship(id ids.RelationshipId) *FollowRelationship {
	return &FollowRelationship{id: id}
}

// RehydrateFollowRelationship rebuilds a relationship by applying events in version order.
func RehydrateFollowRelationship(id ids.RelationshipId, stream []events.DomainEvent) (*FollowRelationship, error) {
	if len(stream) == 0 || stream[0].Kind != events.KindFollowStarted {
		return nil, domainerr.ErrEmptyStream
	}
	f := NewFollowRelationship(id)
	for _, e := range stream {
		f.apply(e)
	}
	return f, nil
}

func (f *FollowRelationship) apply(e events.DomainEvent) {
	switch e.Kind {
	case events.KindFollowStarted:
		f.followerId = e.FollowStarted.FollowerId
		f.followeeId = e.FollowStarted.FolloweeId
		f.active = true
	case events.KindFollowEnded:
		f.active = false
	}
	f.version = e.Version
}

func (f *FollowRelationship) Version() uint64      { return f.version }
func (f *FollowRelationship) FollowerId() ids.UserId { return f.followerId }
func (f *FollowRelationship) FolloweeId() ids.UserId { return f.followeeId }
func (f *FollowRelationship) Active() bool         { return f.active }

// Start emits FollowStarted; fails SelfFollow if the ids are equal.
// Only valid on an aggregate with no prior events.
func (f *FollowRelationship) Start(followerId, followeeId ids.UserId) error {
	if f.version != 0 {
		return domainerr.ErrAggregateAlreadyExists
	}
	if followerId == followeeId {
		return domainerr.ErrSelfFollow
	}
	e := events.DomainEvent{
		EventId:     ids.NewEventId(),
		AggregateId: string(f.id),
		Kind:        events.KindFollowStarted,
		Version:     f.version + 1,
		OccurredAt:  Now().UTC(),
		FollowStarted: &events.FollowStartedBody{
			FollowerId: followerId,
			FolloweeId: followeeId,
		},
	}
	f.apply(e)
	f.uncommitted = append(f.uncommitted, e)
	return nil
}

// End emits FollowEnded if the relationship is active, otherwise fails NotFollowing.
func (f *FollowRelationship) End() error {
	if !f.active {
		return domainerr.ErrNotFollowing
	}
	e := events.DomainEvent{
		EventId:     ids.NewEventId(),
		AggregateId: string(f.id),
		Kind:        events.KindFollowEnded,
		Version:     f.version + 1,
		OccurredAt:  Now().UTC(),
		FollowEnded: &events.FollowEndedBody{
			FollowerId: f.followerId,
			FolloweeId: f.followeeId,
		},
	}
	f.apply(e)
	f.uncommitted = append(f.uncommitted, e)
	return nil
}

// Drain returns and clears the uncommitted event buffer.
func (f *FollowRelationship) Drain() []events.DomainEvent {
	out := f.uncommitted
	f.uncommitted = nil
	return out
}
