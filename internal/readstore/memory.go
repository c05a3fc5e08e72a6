package readstore

import (
	"sync"

	"github.com/timelinecore/microfeed/internal/core/ids"
)

type edgeKey struct {
	follower ids.UserId
	followee ids.UserId
}

// InMemory is the reference read store: plain maps guarded by one
// RWMutex. Spec §5 allows a coarse projector lock as the atomicity
// boundary for a single projection step, and queries need nothing
// beyond per-map read consistency — one lock covers both cleanly.
type InMemory struct {
	mu sync.RWMutex

	celebrityThreshold int
	maxTimeline        int

	profilesById       map[ids.UserId]UserProfile
	profilesByUsername map[string]ids.UserId

	posts map[ids.PostId]Post

	outgoing map[ids.UserId]map[ids.UserId]struct{}
	incoming map[ids.UserId]map[ids.UserId]struct{}
	edges    map[edgeKey]ids.RelationshipId

	timelines map[ids.UserId][]ids.PostId

	celebrityPosts map[ids.PostId]ids.UserId
}

// NewInMemory returns an empty read store using the given tunables.
func NewInMemory(celebrityThreshold, maxTimeline int) *InMemory {
	return &InMemory{
		celebrityThreshold: celebrityThreshold,
		maxTimeline:        maxTimeline,
		profilesById:       make(map[ids.UserId]UserProfile),
		profilesByUsername: make(map[string]ids.UserId),
		posts:              make(map[ids.PostId]Post),
		outgoing:           make(map[ids.UserId]map[ids.UserId]struct{}),
		incoming:           make(map[ids.UserId]map[ids.UserId]struct{}),
		edges:              make(map[edgeKey]ids.RelationshipId),
		timelines:          make(map[ids.UserId][]ids.PostId),
		celebrityPosts:     make(map[ids.PostId]ids.UserId),
	}
}

func (s *InMemory) SaveProfile(p UserProfile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profilesById[p.UserId] = p
	s.profilesByUsername[p.Username] = p.UserId
}

func (s *InMemory) GetProfile(userId ids.UserId) (UserProfile, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.profilesById[userId]
	return p, ok
}

func (s *InMemory) FindProfileByUsername(username string) (UserProfile, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	uid, ok := s.profilesByUsername[username]
	if !ok {
		return UserProfile{}, false
	}
	p, ok := s.profilesById[uid]
	return p, ok
}

func (s *InMemory) ListProfiles() []UserProfile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]UserProfile, 0, len(s.profilesById))
	for _, p := range s.profilesById {
		out = append(out, p)
	}
	return out
}

func (s *InMemory) SavePost(p Post) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.posts[p.PostId] = p
}

func (s *InMemory) GetPost(postId ids.PostId) (Post, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.posts[postId]
	return p, ok
}

func (s *InMemory) DeletePost(postId ids.PostId) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.posts, postId)
}

// ListPostsByAuthor returns authorId's posts newest first.
func (s *InMemory) ListPostsByAuthor(authorId ids.UserId) []Post {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Post
	for _, p := range s.posts {
		if p.AuthorId == authorId {
			out = append(out, p)
		}
	}
	sortPostsNewestFirst(out)
	return out
}

func (s *InMemory) AddEdge(follower, followee ids.UserId, relationshipId ids.RelationshipId) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.outgoing[follower] == nil {
		s.outgoing[follower] = make(map[ids.UserId]struct{})
	}
	s.outgoing[follower][followee] = struct{}{}

	if s.incoming[followee] == nil {
		s.incoming[followee] = make(map[ids.UserId]struct{})
	}
	s.incoming[followee][follower] = struct{}{}

	s.edges[edgeKey{follower, followee}] = relationshipId
}

func (s *InMemory) RemoveEdge(follower, followee ids.UserId) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.outgoing[follower], followee)
	delete(s.incoming[followee], follower)
	delete(s.edges, edgeKey{follower, followee})
}

func (s *InMemory) Outgoing(userId ids.UserId) []ids.UserId {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return setToSlice(s.outgoing[userId])
}

func (s *InMemory) Incoming(userId ids.UserId) []ids.UserId {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return setToSlice(s.incoming[userId])
}

func (s *InMemory) IsFollowing(follower, followee ids.UserId) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.outgoing[follower][followee]
	return ok
}

func (s *InMemory) RelationshipOf(follower, followee ids.UserId) (ids.RelationshipId, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rid, ok := s.edges[edgeKey{follower, followee}]
	return rid, ok
}

// PushTimeline inserts postId at the front of ownerId's timeline, then
// truncates to maxLen (spec's MAX_TIMELINE bound).
func (s *InMemory) PushTimeline(ownerId ids.UserId, postId ids.PostId, maxLen int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	line := append([]ids.PostId{postId}, s.timelines[ownerId]...)
	if maxLen > 0 && len(line) > maxLen {
		line = line[:maxLen]
	}
	s.timelines[ownerId] = line
}

func (s *InMemory) RemoveFromTimeline(ownerId ids.UserId, postId ids.PostId) {
	s.mu.Lock()
	defer s.mu.Unlock()

	line := s.timelines[ownerId]
	out := line[:0:0]
	for _, id := range line {
		if id != postId {
			out = append(out, id)
		}
	}
	s.timelines[ownerId] = out
}

// RemoveAuthorFromTimeline drops every entry authored by authorId from
// ownerId's timeline.
func (s *InMemory) RemoveAuthorFromTimeline(ownerId ids.UserId, authorId ids.UserId) {
	s.mu.Lock()
	line := s.timelines[ownerId]
	toDrop := make([]ids.PostId, 0, len(line))
	for _, pid := range line {
		if p, ok := s.posts[pid]; ok && p.AuthorId == authorId {
			toDrop = append(toDrop, pid)
		}
	}
	dropSet := make(map[ids.PostId]struct{}, len(toDrop))
	for _, pid := range toDrop {
		dropSet[pid] = struct{}{}
	}
	out := line[:0:0]
	for _, pid := range line {
		if _, drop := dropSet[pid]; !drop {
			out = append(out, pid)
		}
	}
	s.timelines[ownerId] = out
	s.mu.Unlock()
}

func (s *InMemory) GetTimeline(ownerId ids.UserId) []ids.PostId {
	s.mu.RLock()
	defer s.mu.RUnlock()
	line := s.timelines[ownerId]
	out := make([]ids.PostId, len(line))
	copy(out, line)
	return out
}

func (s *InMemory) MarkCelebrityPost(postId ids.PostId, authorId ids.UserId) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.celebrityPosts[postId] = authorId
}

func (s *InMemory) ForgetCelebrityPost(postId ids.PostId) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.celebrityPosts, postId)
}

func (s *InMemory) CelebrityPostsOf(authorIds []ids.UserId) []ids.PostId {
	s.mu.RLock()
	defer s.mu.RUnlock()

	authors := make(map[ids.UserId]struct{}, len(authorIds))
	for _, a := range authorIds {
		authors[a] = struct{}{}
	}
	var out []ids.PostId
	for postId, authorId := range s.celebrityPosts {
		if _, ok := authors[authorId]; ok {
			out = append(out, postId)
		}
	}
	return out
}

func (s *InMemory) IsCelebrity(userId ids.UserId) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.incoming[userId]) >= s.celebrityThreshold
}

func (s *InMemory) CelebrityAuthorOf(postId ids.PostId) (ids.UserId, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.celebrityPosts[postId]
	return a, ok
}

// MaxTimeline returns the configured timeline truncation bound.
func (s *InMemory) MaxTimeline() int { return s.maxTimeline }

func setToSlice(set map[ids.UserId]struct{}) []ids.UserId {
	out := make([]ids.UserId, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	return out
}
