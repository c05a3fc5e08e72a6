// Package projector turns appended domain events into read-store
// mutations. A single Project call is the linearization point for one
// event: every read visible after it returns reflects that event's
// full effect, or none of it.
package projector

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/timelinecore/microfeed/internal/core/domainerr"
	"github.com/timelinecore/microfeed/internal/core/events"
	"github.com/timelinecore/microfeed/internal/core/ids"
	"github.com/timelinecore/microfeed/internal/eventlog"
	"github.com/timelinecore/microfeed/internal/readstore"
)

// Observer receives a notification after each event is projected. It
// must not block the caller for long; it exists for logging/metrics,
// not for control flow.
type Observer func(events.DomainEvent)

// Projector applies events to a Store one at a time, in the order it
// is given them.
type Projector struct {
	store        readstore.Store
	cache        *readstore.FeedCache
	fanoutLimit  int
	observer     Observer
	logger       *slog.Logger
}

// New builds a Projector. fanoutLimit bounds how many followers are
// updated concurrently during PostPublished fan-out; a value <= 0
// means unbounded.
func New(store readstore.Store, cache *readstore.FeedCache, fanoutLimit int, logger *slog.Logger) *Projector {
	if logger == nil {
		logger = slog.Default()
	}
	return &Projector{store: store, cache: cache, fanoutLimit: fanoutLimit, logger: logger}
}

// SetObserver installs (or clears, with nil) the projector's
// observation hook.
func (p *Projector) SetObserver(obs Observer) {
	p.observer = obs
}

// Project applies a single event to the read store.
func (p *Projector) Project(ctx context.Context, e events.DomainEvent) error {
	var err error
	switch e.Kind {
	case events.KindUserRegistered:
		err = p.projectUserRegistered(e)
	case events.KindPostPublished:
		err = p.projectPostPublished(ctx, e)
	case events.KindPostRetracted:
		err = p.projectPostRetracted(e)
	case events.KindFollowStarted:
		err = p.projectFollowStarted(e)
	case events.KindFollowEnded:
		err = p.projectFollowEnded(e)
	default:
		err = fmt.Errorf("projector: unknown event kind %q", e.Kind)
	}
	if err != nil {
		return domainerr.Wrap(domainerr.ErrProjectionFailed, err)
	}

	p.logger.Debug("projected event", "kind", e.Kind, "aggregate_id", e.AggregateId, "version", e.Version)
	if p.observer != nil {
		p.observer(e)
	}
	return nil
}

// ProjectAll applies a batch of events in order, stopping at the first
// failure.
func (p *Projector) ProjectAll(ctx context.Context, evts []events.DomainEvent) error {
	for _, e := range evts {
		if err := p.Project(ctx, e); err != nil {
			return err
		}
	}
	return nil
}

func (p *Projector) projectUserRegistered(e events.DomainEvent) error {
	if e.UserRegistered == nil {
		return fmt.Errorf("UserRegistered event missing body")
	}
	userId := ids.UserId(e.AggregateId)
	p.store.SaveProfile(readstore.UserProfile{
		UserId:   userId,
		Username: e.UserRegistered.Username,
	})
	return nil
}

func (p *Projector) projectPostPublished(ctx context.Context, e events.DomainEvent) error {
	body := e.PostPublished
	if body == nil {
		return fmt.Errorf("PostPublished event missing body")
	}
	postId := ids.PostId(e.AggregateId)

	author, ok := p.store.GetProfile(body.AuthorId)
	if !ok {
		return fmt.Errorf("post %s published by unknown author %s", postId, body.AuthorId)
	}

	p.store.SavePost(readstore.Post{
		PostId:         postId,
		AuthorId:       body.AuthorId,
		AuthorUsername: author.Username,
		Body:           body.Body,
		PublishedAt:    body.PublishedAt,
	})

	if p.store.IsCelebrity(body.AuthorId) {
		p.store.MarkCelebrityPost(postId, body.AuthorId)
		p.invalidateFollowers(body.AuthorId)
		return nil
	}

	followers := p.store.Incoming(body.AuthorId)
	if err := p.fanOut(ctx, followers, postId); err != nil {
		return err
	}
	return nil
}

// fanOut pushes postId onto every follower's timeline, bounded by
// fanoutLimit concurrent workers, and joins before returning so the
// projection step stays a single linearization point.
func (p *Projector) fanOut(ctx context.Context, followers []ids.UserId, postId ids.PostId) error {
	if len(followers) == 0 {
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	if p.fanoutLimit > 0 {
		g.SetLimit(p.fanoutLimit)
	}
	for _, followerId := range followers {
		followerId := followerId
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			p.store.PushTimeline(followerId, postId, maxTimelineOf(p.store))
			p.cache.Invalidate(followerId)
			return nil
		})
	}
	return g.Wait()
}

func (p *Projector) projectPostRetracted(e events.DomainEvent) error {
	postId := ids.PostId(e.AggregateId)
	post, ok := p.store.GetPost(postId)
	if !ok {
		return nil
	}

	if authorId, wasCeleb := p.store.CelebrityAuthorOf(postId); wasCeleb {
		p.store.ForgetCelebrityPost(postId)
		p.invalidateFollowers(authorId)
	} else {
		for _, followerId := range p.store.Incoming(post.AuthorId) {
			p.store.RemoveFromTimeline(followerId, postId)
			p.cache.Invalidate(followerId)
		}
	}

	p.store.DeletePost(postId)
	return nil
}

func (p *Projector) projectFollowStarted(e events.DomainEvent) error {
	body := e.FollowStarted
	if body == nil {
		return fmt.Errorf("FollowStarted event missing body")
	}
	relationshipId := ids.RelationshipId(e.AggregateId)

	p.store.AddEdge(body.FollowerId, body.FolloweeId, relationshipId)

	if p.store.IsCelebrity(body.FolloweeId) {
		for _, post := range p.store.ListPostsByAuthor(body.FolloweeId) {
			p.store.MarkCelebrityPost(post.PostId, body.FolloweeId)
		}
	} else {
		posts := p.store.ListPostsByAuthor(body.FolloweeId)
		for i := len(posts) - 1; i >= 0; i-- {
			p.store.PushTimeline(body.FollowerId, posts[i].PostId, maxTimelineOf(p.store))
		}
	}

	p.cache.Invalidate(body.FollowerId)
	return nil
}

func (p *Projector) projectFollowEnded(e events.DomainEvent) error {
	body := e.FollowEnded
	if body == nil {
		return fmt.Errorf("FollowEnded event missing body")
	}

	p.store.RemoveEdge(body.FollowerId, body.FolloweeId)

	if !p.store.IsCelebrity(body.FolloweeId) {
		p.store.RemoveAuthorFromTimeline(body.FollowerId, body.FolloweeId)
	}

	p.cache.Invalidate(body.FollowerId)
	return nil
}

func (p *Projector) invalidateFollowers(authorId ids.UserId) {
	for _, followerId := range p.store.Incoming(authorId) {
		p.cache.Invalidate(followerId)
	}
}

// maxTimelineBound is an interface narrowing over readstore.InMemory's
// MaxTimeline accessor, satisfied without importing the concrete type.
type maxTimelineBound interface {
	MaxTimeline() int
}

func maxTimelineOf(store readstore.Store) int {
	if b, ok := store.(maxTimelineBound); ok {
		return b.MaxTimeline()
	}
	return 0
}

// Replay reads every event from log and projects it in order onto p's
// store, then clears p's feed cache. It does not clear the store first.
// Used on startup recovery, against a freshly built store.
func Replay(ctx context.Context, log eventlog.EventLog, p *Projector) error {
	all, err := log.ReadAll(ctx)
	if err != nil {
		return fmt.Errorf("replay: read event log: %w", err)
	}
	if err := p.ProjectAll(ctx, all); err != nil {
		return fmt.Errorf("replay: project events: %w", err)
	}
	if p.cache != nil {
		p.cache.InvalidateAll()
	}
	return nil
}
