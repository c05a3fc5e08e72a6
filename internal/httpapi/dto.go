package httpapi

import (
	"time"

	"github.com/timelinecore/microfeed/internal/core/ids"
	"github.com/timelinecore/microfeed/internal/readstore"
)

type registerUserRequest struct {
	Username string `json:"username" binding:"required"`
}

type registerUserResponse struct {
	UserId ids.UserId `json:"user_id"`
}

type publishPostRequest struct {
	AuthorId ids.UserId `json:"author_id" binding:"required"`
	Body     string     `json:"body" binding:"required"`
}

type publishPostResponse struct {
	PostId ids.PostId `json:"post_id"`
}

type retractPostRequest struct {
	CallerId ids.UserId `json:"caller_id" binding:"required"`
}

type startFollowRequest struct {
	FollowerId ids.UserId `json:"follower_id" binding:"required"`
	FolloweeId ids.UserId `json:"followee_id" binding:"required"`
}

type startFollowResponse struct {
	RelationshipId ids.RelationshipId `json:"relationship_id"`
}

type endFollowRequest struct {
	FollowerId ids.UserId `json:"follower_id" binding:"required"`
	FolloweeId ids.UserId `json:"followee_id" binding:"required"`
}

type userProfileDTO struct {
	UserId   ids.UserId `json:"user_id"`
	Username string     `json:"username"`
}

type postDTO struct {
	PostId         ids.PostId `json:"post_id"`
	AuthorId       ids.UserId `json:"author_id"`
	AuthorUsername string     `json:"author_username"`
	Body           string     `json:"body"`
	PublishedAt    time.Time  `json:"published_at"`
}

func toProfileDTO(p readstore.UserProfile) userProfileDTO {
	return userProfileDTO{UserId: p.UserId, Username: p.Username}
}

func toPostDTO(p readstore.Post) postDTO {
	return postDTO{
		PostId:         p.PostId,
		AuthorId:       p.AuthorId,
		AuthorUsername: p.AuthorUsername,
		Body:           p.Body,
		PublishedAt:    p.PublishedAt,
	}
}

func toPostDTOs(posts []readstore.Post) []postDTO {
	out := make([]postDTO, len(posts))
	for i, p := range posts {
		out[i] = toPostDTO(p)
	}
	return out
}
