package aggregate

import (
	"time"

	"github.com/timelinecore/microfeed/internal/core/domainerr"
	"github.com/timelinecore/microfeed/internal/core/events"
	"github.com/timelinecore/microfeed/internal/core/ids"
)

// Post is the write-side aggregate for a single post.
// States: Draft (implicit) → Published → Retracted (terminal).
type Post struct {
	id          ids.PostId
	authorId    ids.UserId
	body        string
	publishedAt time.Time
	retracted   bool
	version     uint64
	uncommitted []events.DomainEvent
}

// NewPost returns an empty, not-yet-published Post aggregate for id.
func NewPost(id ids.PostId) *Post {
	return &Post{id: id}
}

// RehydratePost rebuilds a Post by applying events in version order.
func RehydratePost(id ids.PostId, stream []events.DomainEvent) (*Post, error) {
	if len(stream) == 0 || stream[0].Kind != events.KindPostPublished {
		return nil, domainerr.ErrEmptyStream
	}
	p := NewPost(id)
	for _, e := range stream {
		p.apply(e)
	}
	return p, nil
}

func (p *Post) apply(e events.DomainEvent) {
	switch e.Kind {
	case events.KindPostPublished:
		p.authorId = e.PostPublished.AuthorId
		p.body = e.PostPublished.Body
		p.publishedAt = e.PostPublished.PublishedAt
	case events.KindPostRetracted:
		p.retracted = true
	}
	p.version = e.Version
}

func (p *Post) Version() uint64        { return p.version }
func (p *Post) AuthorId() ids.UserId   { return p.authorId }
func (p *Post) Body() string           { return p.body }
func (p *Post) PublishedAt() time.Time { return p.publishedAt }
func (p *Post) Retracted() bool        { return p.retracted }

// Publish emits PostPublished. Only valid on an aggregate with no prior events.
func (p *Post) Publish(authorId ids.UserId, body string) error {
	if p.version != 0 {
		return domainerr.ErrAggregateAlreadyExists
	}
	now := Now().UTC()
	e := events.DomainEvent{
		EventId:     ids.NewEventId(),
		AggregateId: string(p.id),
		Kind:        events.KindPostPublished,
		Version:     p.version + 1,
		OccurredAt:  now,
		PostPublished: &events.PostPublishedBody{
			AuthorId:    authorId,
			Body:        body,
			PublishedAt: now,
		},
	}
	p.apply(e)
	p.uncommitted = append(p.uncommitted, e)
	return nil
}

// Retract emits PostRetracted, unless the post is already retracted.
func (p *Post) Retract() error {
	if p.retracted {
		return domainerr.ErrAlreadyRetracted
	}
	e := events.DomainEvent{
		EventId:       ids.NewEventId(),
		AggregateId:   string(p.id),
		Kind:          events.KindPostRetracted,
		Version:       p.version + 1,
		OccurredAt:    Now().UTC(),
		PostRetracted: &events.PostRetractedBody{},
	}
	p.apply(e)
	p.uncommitted = append(p.uncommitted, e)
	return nil
}

// Drain returns and clears the uncommitted event buffer.
func (p *Post) Drain() []events.DomainEvent {
	out := p.uncommitted
	p.uncommitted = nil
	return out
}
