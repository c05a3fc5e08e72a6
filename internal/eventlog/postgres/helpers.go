package postgres

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/timelinecore/microfeed/internal/core/events"
	"github.com/timelinecore/microfeed/internal/core/ids"
)

// wireBody is the on-disk JSON shape of an event body. Exactly the
// fields relevant to Kind are populated; this keeps the persisted
// record self-describing while the header columns (event_id,
// aggregate_id, kind, version, occurred_at) stay first-class SQL
// columns.
type wireBody struct {
	Username    string    `json:"username,omitempty"`
	AuthorId    string    `json:"author_id,omitempty"`
	Body        string    `json:"body,omitempty"`
	PublishedAt time.Time `json:"published_at,omitempty"`
	FollowerId  string    `json:"follower_id,omitempty"`
	FolloweeId  string    `json:"followee_id,omitempty"`
}

func marshalBody(e events.DomainEvent) ([]byte, error) {
	var w wireBody
	switch e.Kind {
	case events.KindUserRegistered:
		w.Username = e.UserRegistered.Username
	case events.KindPostPublished:
		w.AuthorId = string(e.PostPublished.AuthorId)
		w.Body = e.PostPublished.Body
		w.PublishedAt = e.PostPublished.PublishedAt
	case events.KindPostRetracted:
		// no fields
	case events.KindFollowStarted:
		w.FollowerId = string(e.FollowStarted.FollowerId)
		w.FolloweeId = string(e.FollowStarted.FolloweeId)
	case events.KindFollowEnded:
		w.FollowerId = string(e.FollowEnded.FollowerId)
		w.FolloweeId = string(e.FollowEnded.FolloweeId)
	default:
		return nil, fmt.Errorf("marshal event body: unknown kind %q", e.Kind)
	}
	return json.Marshal(w)
}

func unmarshalBody(kind events.Kind, data []byte) (events.DomainEvent, error) {
	var w wireBody
	if err := json.Unmarshal(data, &w); err != nil {
		return events.DomainEvent{}, fmt.Errorf("unmarshal event body: %w", err)
	}

	e := events.DomainEvent{Kind: kind}
	switch kind {
	case events.KindUserRegistered:
		e.UserRegistered = &events.UserRegisteredBody{Username: w.Username}
	case events.KindPostPublished:
		e.PostPublished = &events.PostPublishedBody{
			AuthorId:    ids.UserId(w.AuthorId),
			Body:        w.Body,
			PublishedAt: w.PublishedAt,
		}
	case events.KindPostRetracted:
		e.PostRetracted = &events.PostRetractedBody{}
	case events.KindFollowStarted:
		e.FollowStarted = &events.FollowStartedBody{
			FollowerId: ids.UserId(w.FollowerId),
			FolloweeId: ids.UserId(w.FolloweeId),
		}
	case events.KindFollowEnded:
		e.FollowEnded = &events.FollowEndedBody{
			FollowerId: ids.UserId(w.FollowerId),
			FolloweeId: ids.UserId(w.FolloweeId),
		}
	default:
		return events.DomainEvent{}, fmt.Errorf("unmarshal event body: unknown kind %q", kind)
	}
	return e, nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanEventRow(row scanner) (events.DomainEvent, error) {
	var (
		eventId, aggregateId, kind string
		version                    uint64
		occurredAt                 time.Time
		body                       []byte
	)
	if err := row.Scan(&eventId, &aggregateId, &kind, &version, &occurredAt, &body); err != nil {
		return events.DomainEvent{}, fmt.Errorf("scan event row: %w", err)
	}

	e, err := unmarshalBody(events.Kind(kind), body)
	if err != nil {
		return events.DomainEvent{}, err
	}
	e.EventId = ids.EventId(eventId)
	e.AggregateId = aggregateId
	e.Version = version
	e.OccurredAt = occurredAt
	return e, nil
}
