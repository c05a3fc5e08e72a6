package projector

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/timelinecore/microfeed/internal/core/events"
	"github.com/timelinecore/microfeed/internal/core/ids"
	"github.com/timelinecore/microfeed/internal/readstore"
)

func newTestProjector(celebrityThreshold, maxTimeline int) (*Projector, *readstore.InMemory) {
	store := readstore.NewInMemory(celebrityThreshold, maxTimeline)
	cache := readstore.NewFeedCache(100)
	return New(store, cache, 8, nil), store
}

func userRegistered(userId ids.UserId, username string) events.DomainEvent {
	return events.DomainEvent{
		EventId:        ids.NewEventId(),
		AggregateId:    string(userId),
		Kind:           events.KindUserRegistered,
		Version:        1,
		OccurredAt:     time.Now(),
		UserRegistered: &events.UserRegisteredBody{Username: username},
	}
}

func postPublished(postId ids.PostId, authorId ids.UserId, body string, at time.Time) events.DomainEvent {
	return events.DomainEvent{
		EventId:     ids.NewEventId(),
		AggregateId: string(postId),
		Kind:        events.KindPostPublished,
		Version:     1,
		OccurredAt:  at,
		PostPublished: &events.PostPublishedBody{
			AuthorId:    authorId,
			Body:        body,
			PublishedAt: at,
		},
	}
}

func followStarted(relId ids.RelationshipId, follower, followee ids.UserId) events.DomainEvent {
	return events.DomainEvent{
		EventId:     ids.NewEventId(),
		AggregateId: string(relId),
		Kind:        events.KindFollowStarted,
		Version:     1,
		OccurredAt:  time.Now(),
		FollowStarted: &events.FollowStartedBody{
			FollowerId: follower,
			FolloweeId: followee,
		},
	}
}

func followEnded(relId ids.RelationshipId, follower, followee ids.UserId) events.DomainEvent {
	return events.DomainEvent{
		EventId:     ids.NewEventId(),
		AggregateId: string(relId),
		Kind:        events.KindFollowEnded,
		Version:     2,
		OccurredAt:  time.Now(),
		FollowEnded: &events.FollowEndedBody{
			FollowerId: follower,
			FolloweeId: followee,
		},
	}
}

// Scenario 1: basic fan-out.
func TestProjector_BasicFanOut(t *testing.T) {
	p, store := newTestProjector(3, 5)
	ctx := context.Background()

	alice, bob := ids.NewUserId(), ids.NewUserId()
	require.NoError(t, p.Project(ctx, userRegistered(alice, "alice")))
	require.NoError(t, p.Project(ctx, userRegistered(bob, "bob")))
	require.NoError(t, p.Project(ctx, followStarted(ids.NewRelationshipId(), bob, alice)))

	postId := ids.NewPostId()
	require.NoError(t, p.Project(ctx, postPublished(postId, alice, "hi", time.Now())))

	require.Equal(t, []ids.PostId{postId}, store.GetTimeline(bob))
	require.Empty(t, store.GetTimeline(alice))
}

// Scenario 2: backfill on follow.
func TestProjector_BackfillOnFollow(t *testing.T) {
	p, store := newTestProjector(3, 5)
	ctx := context.Background()

	alice, bob := ids.NewUserId(), ids.NewUserId()
	require.NoError(t, p.Project(ctx, userRegistered(alice, "alice")))
	require.NoError(t, p.Project(ctx, userRegistered(bob, "bob")))

	base := time.Now()
	p1, p2, p3 := ids.NewPostId(), ids.NewPostId(), ids.NewPostId()
	require.NoError(t, p.Project(ctx, postPublished(p1, alice, "p1", base)))
	require.NoError(t, p.Project(ctx, postPublished(p2, alice, "p2", base.Add(time.Second))))
	require.NoError(t, p.Project(ctx, postPublished(p3, alice, "p3", base.Add(2*time.Second))))

	require.NoError(t, p.Project(ctx, followStarted(ids.NewRelationshipId(), bob, alice)))

	require.Equal(t, []ids.PostId{p3, p2, p1}, store.GetTimeline(bob))
}

// Scenario 3: unfollow cleanup.
func TestProjector_UnfollowCleanup(t *testing.T) {
	p, store := newTestProjector(3, 5)
	ctx := context.Background()

	alice, bob := ids.NewUserId(), ids.NewUserId()
	require.NoError(t, p.Project(ctx, userRegistered(alice, "alice")))
	require.NoError(t, p.Project(ctx, userRegistered(bob, "bob")))

	postId := ids.NewPostId()
	require.NoError(t, p.Project(ctx, postPublished(postId, alice, "p1", time.Now())))

	relId := ids.NewRelationshipId()
	require.NoError(t, p.Project(ctx, followStarted(relId, bob, alice)))
	require.Equal(t, []ids.PostId{postId}, store.GetTimeline(bob))

	require.NoError(t, p.Project(ctx, followEnded(relId, bob, alice)))
	require.Empty(t, store.GetTimeline(bob))
}

// Scenario 4: celebrity path.
func TestProjector_CelebrityPath(t *testing.T) {
	p, store := newTestProjector(3, 5)
	ctx := context.Background()

	star := ids.NewUserId()
	require.NoError(t, p.Project(ctx, userRegistered(star, "star")))

	fans := make([]ids.UserId, 4)
	for i := range fans {
		fans[i] = ids.NewUserId()
		require.NoError(t, p.Project(ctx, userRegistered(fans[i], "fan")))
		require.NoError(t, p.Project(ctx, followStarted(ids.NewRelationshipId(), fans[i], star)))
	}
	require.True(t, store.IsCelebrity(star))

	postId := ids.NewPostId()
	require.NoError(t, p.Project(ctx, postPublished(postId, star, "boom", time.Now())))

	for _, fan := range fans {
		require.NotContains(t, store.GetTimeline(fan), postId)
		require.Contains(t, store.CelebrityPostsOf(store.Outgoing(fan)), postId)
	}
}

// Scenario 5: retraction removes from feeds.
func TestProjector_RetractionRemovesFromFeeds(t *testing.T) {
	p, store := newTestProjector(3, 5)
	ctx := context.Background()

	alice, bob := ids.NewUserId(), ids.NewUserId()
	require.NoError(t, p.Project(ctx, userRegistered(alice, "alice")))
	require.NoError(t, p.Project(ctx, userRegistered(bob, "bob")))
	require.NoError(t, p.Project(ctx, followStarted(ids.NewRelationshipId(), bob, alice)))

	postId := ids.NewPostId()
	require.NoError(t, p.Project(ctx, postPublished(postId, alice, "hi", time.Now())))
	require.NoError(t, p.Project(ctx, events.DomainEvent{
		EventId:       ids.NewEventId(),
		AggregateId:   string(postId),
		Kind:          events.KindPostRetracted,
		Version:       2,
		OccurredAt:    time.Now(),
		PostRetracted: &events.PostRetractedBody{},
	}))

	require.Empty(t, store.GetTimeline(bob))
	_, exists := store.GetPost(postId)
	require.False(t, exists)
}

// Scenario 6: replay determinism.
func TestReplay_Determinism(t *testing.T) {
	ctx := context.Background()
	alice, bob := ids.NewUserId(), ids.NewUserId()
	postId := ids.NewPostId()
	relId := ids.NewRelationshipId()

	recorded := []events.DomainEvent{
		userRegistered(alice, "alice"),
		userRegistered(bob, "bob"),
		followStarted(relId, bob, alice),
		postPublished(postId, alice, "hi", time.Now()),
	}

	p1, store1 := newTestProjector(3, 5)
	for _, e := range recorded {
		require.NoError(t, p1.Project(ctx, e))
	}

	p2, store2 := newTestProjector(3, 5)
	require.NoError(t, p2.ProjectAll(ctx, recorded))

	require.Equal(t, store1.GetTimeline(bob), store2.GetTimeline(bob))
	require.ElementsMatch(t, store1.ListProfiles(), store2.ListProfiles())
}
