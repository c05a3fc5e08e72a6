// Package events defines the closed set of domain events that make up
// the authoritative log, modelled as a tagged variant rather than an
// open class hierarchy: the projector and aggregates dispatch on Kind.
package events

import (
	"time"

	"github.com/timelinecore/microfeed/internal/core/ids"
)

// Kind discriminates the event body carried by a DomainEvent.
type Kind string

const (
	KindUserRegistered Kind = "UserRegistered"
	KindPostPublished  Kind = "PostPublished"
	KindPostRetracted  Kind = "PostRetracted"
	KindFollowStarted  Kind = "FollowStarted"
	KindFollowEnded    Kind = "FollowEnded"
)

// DomainEvent is the common header carried by every event, plus a body
// that is populated according to Kind. Exactly one of the body fields
// applies per Kind; the rest are the zero value.
type DomainEvent struct {
	EventId     ids.EventId
	AggregateId string
	Kind        Kind
	Version     uint64
	OccurredAt  time.Time

	UserRegistered *UserRegisteredBody
	PostPublished  *PostPublishedBody
	PostRetracted  *PostRetractedBody
	FollowStarted  *FollowStartedBody
	FollowEnded    *FollowEndedBody
}

type UserRegisteredBody struct {
	Username string
}

type PostPublishedBody struct {
	AuthorId    ids.UserId
	Body        string
	PublishedAt time.Time
}

// PostRetractedBody is empty; OccurredAt on the header suffices.
type PostRetractedBody struct{}

type FollowStartedBody struct {
	FollowerId ids.UserId
	FolloweeId ids.UserId
}

type FollowEndedBody struct {
	FollowerId ids.UserId
	FolloweeId ids.UserId
}
