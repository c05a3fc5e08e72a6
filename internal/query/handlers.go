// Package query implements the read-only surface: ListUsers, GetFeed,
// PostsByAuthor, IsFollowing.
package query

import (
	"sort"

	"github.com/timelinecore/microfeed/internal/core/ids"
	"github.com/timelinecore/microfeed/internal/readstore"
)

// Handlers implements the query surface over a Store and its feed
// cache.
type Handlers struct {
	store readstore.Store
	cache *readstore.FeedCache
}

// New builds query Handlers over the given store and feed cache.
func New(store readstore.Store, cache *readstore.FeedCache) *Handlers {
	return &Handlers{store: store, cache: cache}
}

// ListUsers returns every registered profile.
func (h *Handlers) ListUsers() []readstore.UserProfile {
	return h.store.ListProfiles()
}

// GetFeed assembles userId's home feed: their materialized timeline
// merged with celebrity posts from users they follow, deduplicated,
// newest first.
func (h *Handlers) GetFeed(userId ids.UserId) []readstore.Post {
	if cached, ok := h.cache.Get(userId); ok {
		return cached
	}

	materialized := h.store.GetTimeline(userId)
	celebs := h.store.CelebrityPostsOf(h.store.Outgoing(userId))

	seen := make(map[ids.PostId]struct{}, len(materialized)+len(celebs))
	var posts []readstore.Post

	appendResolved := func(postId ids.PostId) {
		if _, dup := seen[postId]; dup {
			return
		}
		seen[postId] = struct{}{}
		if p, ok := h.store.GetPost(postId); ok {
			posts = append(posts, p)
		}
	}

	for _, postId := range materialized {
		appendResolved(postId)
	}
	for _, postId := range celebs {
		appendResolved(postId)
	}

	sort.Slice(posts, func(i, j int) bool {
		if posts[i].PublishedAt.Equal(posts[j].PublishedAt) {
			return posts[i].PostId < posts[j].PostId
		}
		return posts[i].PublishedAt.After(posts[j].PublishedAt)
	})

	h.cache.Put(userId, posts)
	return posts
}

// PostsByAuthor returns authorId's posts, newest first.
func (h *Handlers) PostsByAuthor(authorId ids.UserId) []readstore.Post {
	return h.store.ListPostsByAuthor(authorId)
}

// IsFollowing reports whether a currently follows b.
func (h *Handlers) IsFollowing(a, b ids.UserId) bool {
	return h.store.IsFollowing(a, b)
}
