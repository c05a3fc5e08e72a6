// Package httpapi exposes the command/query surface over HTTP with
// gin, using a Service.RegisterRoutes(gin.IRouter) convention so the
// route surface can be mounted under any gin router or group.
package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/timelinecore/microfeed/internal/command"
	"github.com/timelinecore/microfeed/internal/core/domainerr"
	"github.com/timelinecore/microfeed/internal/core/ids"
	"github.com/timelinecore/microfeed/internal/query"
)

// Service wires command and query handlers into gin routes.
type Service struct {
	commands *command.Handlers
	queries  *query.Handlers
}

// NewService builds a Service over the given command and query
// handlers.
func NewService(commands *command.Handlers, queries *query.Handlers) *Service {
	return &Service{commands: commands, queries: queries}
}

// RegisterRoutes mounts the command/query surface under r.
func (s *Service) RegisterRoutes(r gin.IRouter) {
	v1 := r.Group("/v1")
	{
		v1.POST("/users", s.handleRegisterUser)
		v1.GET("/users", s.handleListUsers)

		v1.POST("/posts", s.handlePublishPost)
		v1.DELETE("/posts/:postId", s.handleRetractPost)
		v1.GET("/posts", s.handlePostsByAuthor)

		v1.POST("/follows", s.handleStartFollow)
		v1.DELETE("/follows", s.handleEndFollow)
		v1.GET("/follows/status", s.handleIsFollowing)

		v1.GET("/users/:userId/feed", s.handleGetFeed)
	}
}

func (s *Service) handleRegisterUser(c *gin.Context) {
	var req registerUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, domainerr.ErrInvalidUsername)
		return
	}
	userId, err := s.commands.RegisterUser(c.Request.Context(), req.Username)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, registerUserResponse{UserId: userId})
}

func (s *Service) handleListUsers(c *gin.Context) {
	profiles := s.queries.ListUsers()
	out := make([]userProfileDTO, len(profiles))
	for i, p := range profiles {
		out[i] = toProfileDTO(p)
	}
	c.JSON(http.StatusOK, out)
}

func (s *Service) handlePublishPost(c *gin.Context) {
	var req publishPostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, domainerr.ErrInvalidBody)
		return
	}
	postId, err := s.commands.PublishPost(c.Request.Context(), req.AuthorId, req.Body)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, publishPostResponse{PostId: postId})
}

func (s *Service) handleRetractPost(c *gin.Context) {
	postId := ids.PostId(c.Param("postId"))
	var req retractPostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, domainerr.ErrUnauthorized)
		return
	}
	if err := s.commands.RetractPost(c.Request.Context(), postId, req.CallerId); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Service) handlePostsByAuthor(c *gin.Context) {
	authorId := ids.UserId(c.Query("author_id"))
	if authorId == "" {
		writeError(c, domainerr.ErrUserNotFound)
		return
	}
	posts := s.queries.PostsByAuthor(authorId)
	c.JSON(http.StatusOK, toPostDTOs(posts))
}

func (s *Service) handleStartFollow(c *gin.Context) {
	var req startFollowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, domainerr.ErrSelfFollow)
		return
	}
	relId, err := s.commands.StartFollow(c.Request.Context(), req.FollowerId, req.FolloweeId)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, startFollowResponse{RelationshipId: relId})
}

func (s *Service) handleEndFollow(c *gin.Context) {
	var req endFollowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, domainerr.ErrNotFollowing)
		return
	}
	if err := s.commands.EndFollow(c.Request.Context(), req.FollowerId, req.FolloweeId); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Service) handleIsFollowing(c *gin.Context) {
	a := ids.UserId(c.Query("follower_id"))
	b := ids.UserId(c.Query("followee_id"))
	c.JSON(http.StatusOK, gin.H{"is_following": s.queries.IsFollowing(a, b)})
}

func (s *Service) handleGetFeed(c *gin.Context) {
	userId := ids.UserId(c.Param("userId"))
	posts := s.queries.GetFeed(userId)
	c.JSON(http.StatusOK, toPostDTOs(posts))
}
