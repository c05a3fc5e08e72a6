// Package aggregate implements the three write-side aggregates — User,
// Post, FollowRelationship — as event-sourced decision objects: each
// rehydrates from its own event stream, exposes decision methods that
// emit new events and apply them to itself in one atomic step, and
// drains the uncommitted buffer for the caller to append.
package aggregate

import (
	"github.com/timelinecore/microfeed/internal/core/domainerr"
	"github.com/timelinecore/microfeed/internal/core/events"
	"github.com/timelinecore/microfeed/internal/core/ids"
)

// User is the write-side aggregate for a registered account.
type User struct {
	id       ids.UserId
	username string
	version  uint64
	uncommitted []events.DomainEvent
}

// NewUser returns an empty, not-yet-created User aggregate for id.
func NewUser(id ids.UserId) *User {
	return &User{id: id}
}

// RehydrateUser rebuilds a User by applying events in version order.
func RehydrateUser(id ids.UserId, stream []events.DomainEvent) (*User, error) {
	if len(stream) == 0 || stream[0].Kind != events.KindUserRegistered {
		return nil, domainerr.ErrEmptyStream
	}
	u := NewUser(id)
	for _, e := range stream {
		u.apply(e)
	}
	return u, nil
}

func (u *User) apply(e events.DomainEvent) {
	switch e.Kind {
	case events.KindUserRegistered:
		u.username = e.UserRegistered.Username
	}
	u.version = e.Version
}

// Version returns the current applied version, 0 for a never-created aggregate.
func (u *User) Version() uint64 { return u.version }

// Username returns the currently applied username.
func (u *User) Username() string { return u.username }

// Register emits UserRegistered. Only valid on an aggregate with no
// prior events (version 0).
func (u *User) Register(username string) error {
	if u.version != 0 {
		return domainerr.ErrAggregateAlreadyExists
	}
	e := events.DomainEvent{
		EventId:     ids.NewEventId(),
		AggregateId: string(u.id),
		Kind:        events.KindUserRegistered,
		Version:     u.version + 1,
		OccurredAt:  Now().UTC(),
		UserRegistered: &events.UserRegisteredBody{
			Username: username,
		},
	}
	u.apply(e)
	u.uncommitted = append(u.uncommitted, e)
	return nil
}

// Drain returns and clears the uncommitted event buffer.
func (u *User) Drain() []events.DomainEvent {
	out := u.uncommitted
	u.uncommitted = nil
	return out
}
