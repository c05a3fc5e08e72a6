// Package readstore holds the projected read-side state: profiles,
// posts, the follow graph, materialized per-user timelines, and the
// celebrity post index. All of it is derived — rebuildable by replaying
// the event log through the projector.
package readstore

import (
	"github.com/timelinecore/microfeed/internal/core/ids"
)

// Store is everything the projector writes to and the query handlers
// read from.
type Store interface {
	// Profiles
	SaveProfile(p UserProfile)
	GetProfile(userId ids.UserId) (UserProfile, bool)
	FindProfileByUsername(username string) (UserProfile, bool)
	ListProfiles() []UserProfile

	// Posts
	SavePost(p Post)
	GetPost(postId ids.PostId) (Post, bool)
	DeletePost(postId ids.PostId)
	ListPostsByAuthor(authorId ids.UserId) []Post // newest first

	// Follow graph
	AddEdge(follower, followee ids.UserId, relationshipId ids.RelationshipId)
	RemoveEdge(follower, followee ids.UserId)
	Outgoing(userId ids.UserId) []ids.UserId
	Incoming(userId ids.UserId) []ids.UserId
	IsFollowing(follower, followee ids.UserId) bool
	RelationshipOf(follower, followee ids.UserId) (ids.RelationshipId, bool)

	// Timeline
	PushTimeline(ownerId ids.UserId, postId ids.PostId, maxLen int)
	RemoveFromTimeline(ownerId ids.UserId, postId ids.PostId)
	RemoveAuthorFromTimeline(ownerId ids.UserId, authorId ids.UserId)
	GetTimeline(ownerId ids.UserId) []ids.PostId

	// Celebrity index
	MarkCelebrityPost(postId ids.PostId, authorId ids.UserId)
	ForgetCelebrityPost(postId ids.PostId)
	CelebrityPostsOf(authorIds []ids.UserId) []ids.PostId
	IsCelebrity(userId ids.UserId) bool
	CelebrityAuthorOf(postId ids.PostId) (ids.UserId, bool)
}
