// Package ids generates and validates the opaque identifiers used across
// the timeline core: UserId, PostId, RelationshipId and event ids.
package ids

import "github.com/google/uuid"

// UserId identifies a User aggregate.
type UserId string

// PostId identifies a Post aggregate.
type PostId string

// RelationshipId identifies a FollowRelationship aggregate.
type RelationshipId string

// EventId identifies a single domain event, unique per event.
type EventId string

// NewUserId returns a fresh 128-bit random user id.
func NewUserId() UserId { return UserId(uuid.NewString()) }

// NewPostId returns a fresh 128-bit random post id.
func NewPostId() PostId { return PostId(uuid.NewString()) }

// NewRelationshipId returns a fresh 128-bit random relationship id.
func NewRelationshipId() RelationshipId { return RelationshipId(uuid.NewString()) }

// NewEventId returns a fresh 128-bit random event id.
func NewEventId() EventId { return EventId(uuid.NewString()) }
