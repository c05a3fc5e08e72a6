// Package command implements the write-side handlers: validate,
// load aggregate, decide, append, project.
package command

import (
	"context"

	"golang.org/x/sync/singleflight"

	"github.com/timelinecore/microfeed/internal/aggregate"
	"github.com/timelinecore/microfeed/internal/core/domainerr"
	"github.com/timelinecore/microfeed/internal/core/events"
	"github.com/timelinecore/microfeed/internal/core/ids"
	"github.com/timelinecore/microfeed/internal/core/lockshard"
	"github.com/timelinecore/microfeed/internal/core/value"
	"github.com/timelinecore/microfeed/internal/eventlog"
	"github.com/timelinecore/microfeed/internal/projector"
	"github.com/timelinecore/microfeed/internal/readstore"
)

// Handlers implements the command surface described in the exposed
// interface: RegisterUser, PublishPost, RetractPost, StartFollow,
// EndFollow.
type Handlers struct {
	log       eventlog.EventLog
	store     readstore.Store
	projector *projector.Projector
	locks     *lockshard.Table

	// rehydrateGroup routes stream reads through singleflight keyed by
	// aggregate id. readStream is only called while that aggregate's
	// lock shard is held, so reads of one aggregate never overlap and
	// each command reads the stream from the log itself.
	rehydrateGroup singleflight.Group
}

// New builds a command Handlers over the given log, read store and
// projector.
func New(log eventlog.EventLog, store readstore.Store, proj *projector.Projector) *Handlers {
	return &Handlers{
		log:       log,
		store:     store,
		projector: proj,
		locks:     lockshard.New(),
	}
}

// readStream loads an aggregate's stream through rehydrateGroup.
func (h *Handlers) readStream(ctx context.Context, aggregateId string) ([]events.DomainEvent, error) {
	res, err, _ := h.rehydrateGroup.Do(aggregateId, func() (interface{}, error) {
		return h.log.Read(ctx, aggregateId)
	})
	if err != nil {
		return nil, err
	}
	return res.([]events.DomainEvent), nil
}

// RegisterUser creates a new user with the given username.
func (h *Handlers) RegisterUser(ctx context.Context, username string) (ids.UserId, error) {
	if ctx.Err() != nil {
		return "", domainerr.ErrDeadline
	}

	uname, err := value.NewUsername(username)
	if err != nil {
		return "", err
	}

	// The uniqueness precondition and the create must be one atomic
	// step: lock on the username itself, not on the freshly-generated
	// user id, since two concurrent callers racing on the same username
	// would otherwise each generate a distinct id and see the
	// precondition pass before either commits.
	var userId ids.UserId
	var appendErr, projErr error
	h.locks.With("username:"+uname.String(), func() {
		if _, exists := h.store.FindProfileByUsername(uname.String()); exists {
			appendErr = domainerr.ErrUsernameTaken
			return
		}

		userId = ids.NewUserId()
		user := aggregate.NewUser(userId)
		if err := user.Register(uname.String()); err != nil {
			appendErr = err
			return
		}
		drained := user.Drain()
		if err := h.log.Append(ctx, string(userId), drained); err != nil {
			appendErr = err
			return
		}
		for _, e := range drained {
			if err := h.projector.Project(ctx, e); err != nil {
				projErr = err
				return
			}
		}
	})
	if appendErr != nil {
		return "", appendErr
	}
	if projErr != nil {
		return "", projErr
	}
	return userId, nil
}

// PublishPost publishes a new post authored by authorId.
func (h *Handlers) PublishPost(ctx context.Context, authorId ids.UserId, bodyText string) (ids.PostId, error) {
	if ctx.Err() != nil {
		return "", domainerr.ErrDeadline
	}

	body, err := value.NewPostBody(bodyText)
	if err != nil {
		return "", err
	}
	if _, exists := h.store.GetProfile(authorId); !exists {
		return "", domainerr.ErrUserNotFound
	}

	postId := ids.NewPostId()
	var appendErr, projErr error
	h.locks.With(string(postId), func() {
		post := aggregate.NewPost(postId)
		if err := post.Publish(authorId, body.String()); err != nil {
			appendErr = err
			return
		}
		drained := post.Drain()
		if err := h.log.Append(ctx, string(postId), drained); err != nil {
			appendErr = err
			return
		}
		for _, e := range drained {
			if err := h.projector.Project(ctx, e); err != nil {
				projErr = err
				return
			}
		}
	})
	if appendErr != nil {
		return "", appendErr
	}
	if projErr != nil {
		return "", projErr
	}
	return postId, nil
}

// RetractPost retracts postId if callerId is its author.
func (h *Handlers) RetractPost(ctx context.Context, postId ids.PostId, callerId ids.UserId) error {
	if ctx.Err() != nil {
		return domainerr.ErrDeadline
	}

	existing, exists := h.store.GetPost(postId)
	if !exists {
		return domainerr.ErrPostNotFound
	}
	if existing.AuthorId != callerId {
		return domainerr.ErrUnauthorized
	}

	var appendErr, projErr error
	h.locks.With(string(postId), func() {
		stream, err := h.readStream(ctx, string(postId))
		if err != nil {
			appendErr = err
			return
		}
		post, err := aggregate.RehydratePost(postId, stream)
		if err != nil {
			appendErr = err
			return
		}
		if err := post.Retract(); err != nil {
			appendErr = err
			return
		}
		drained := post.Drain()
		if err := h.log.Append(ctx, string(postId), drained); err != nil {
			appendErr = err
			return
		}
		for _, e := range drained {
			if err := h.projector.Project(ctx, e); err != nil {
				projErr = err
				return
			}
		}
	})
	if appendErr != nil {
		return appendErr
	}
	return projErr
}

// StartFollow makes followerId follow followeeId.
func (h *Handlers) StartFollow(ctx context.Context, followerId, followeeId ids.UserId) (ids.RelationshipId, error) {
	if ctx.Err() != nil {
		return "", domainerr.ErrDeadline
	}

	if _, exists := h.store.GetProfile(followerId); !exists {
		return "", domainerr.ErrUserNotFound
	}
	if _, exists := h.store.GetProfile(followeeId); !exists {
		return "", domainerr.ErrUserNotFound
	}
	if followerId == followeeId {
		return "", domainerr.ErrSelfFollow
	}

	// The "at most one active relationship per ordered pair" precondition
	// and the create must be one atomic step: lock on the ordered pair
	// itself, not on the freshly-generated relationship id, since two
	// concurrent StartFollow(a, b) calls would otherwise each generate a
	// distinct relationship id and see the precondition pass before
	// either commits.
	pairKey := "follow:" + string(followerId) + ":" + string(followeeId)
	var relId ids.RelationshipId
	var appendErr, projErr error
	h.locks.With(pairKey, func() {
		if h.store.IsFollowing(followerId, followeeId) {
			appendErr = domainerr.ErrAlreadyFollowing
			return
		}

		relId = ids.NewRelationshipId()
		rel := aggregate.NewFollowRelationship(relId)
		if err := rel.Start(followerId, followeeId); err != nil {
			appendErr = err
			return
		}
		drained := rel.Drain()
		if err := h.log.Append(ctx, string(relId), drained); err != nil {
			appendErr = err
			return
		}
		for _, e := range drained {
			if err := h.projector.Project(ctx, e); err != nil {
				projErr = err
				return
			}
		}
	})
	if appendErr != nil {
		return "", appendErr
	}
	if projErr != nil {
		return "", projErr
	}
	return relId, nil
}

// EndFollow makes followerId stop following followeeId.
func (h *Handlers) EndFollow(ctx context.Context, followerId, followeeId ids.UserId) error {
	if ctx.Err() != nil {
		return domainerr.ErrDeadline
	}

	if _, exists := h.store.GetProfile(followerId); !exists {
		return domainerr.ErrUserNotFound
	}
	if _, exists := h.store.GetProfile(followeeId); !exists {
		return domainerr.ErrUserNotFound
	}
	relId, exists := h.store.RelationshipOf(followerId, followeeId)
	if !exists {
		return domainerr.ErrNotFollowing
	}

	var appendErr, projErr error
	h.locks.With(string(relId), func() {
		stream, err := h.readStream(ctx, string(relId))
		if err != nil {
			appendErr = err
			return
		}
		rel, err := aggregate.RehydrateFollowRelationship(relId, stream)
		if err != nil {
			appendErr = err
			return
		}
		if err := rel.End(); err != nil {
			appendErr = err
			return
		}
		drained := rel.Drain()
		if err := h.log.Append(ctx, string(relId), drained); err != nil {
			appendErr = err
			return
		}
		for _, e := range drained {
			if err := h.projector.Project(ctx, e); err != nil {
				projErr = err
				return
			}
		}
	})
	if appendErr != nil {
		return appendErr
	}
	return projErr
}
