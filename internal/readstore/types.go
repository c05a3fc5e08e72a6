package readstore

import (
	"sort"
	"time"

	"github.com/timelinecore/microfeed/internal/core/ids"
)

// UserProfile is the read-side projection of a registered user.
type UserProfile struct {
	UserId   ids.UserId
	Username string
}

// Post is the read-side projection of a published post.
type Post struct {
	PostId         ids.PostId
	AuthorId       ids.UserId
	AuthorUsername string
	Body           string
	PublishedAt    time.Time
}

// sortPostsNewestFirst orders by PublishedAt descending, ties broken by
// PostId ascending.
func sortPostsNewestFirst(posts []Post) {
	sort.Slice(posts, func(i, j int) bool {
		if posts[i].PublishedAt.Equal(posts[j].PublishedAt) {
			return posts[i].PostId < posts[j].PostId
		}
		return posts[i].PublishedAt.After(posts[j].PublishedAt)
	})
}
