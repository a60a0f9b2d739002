package server

import (
	"scrolla/internal/models"
	"scrolla/internal/notifications"
	"scrolla/internal/service"

	"github.com/gofiber/fiber/v2"
)

// profileResponse is a profile plus live presence.
type profileResponse struct {
	*models.UserProfile
	Online bool `json:"online"`
}

// GetUserProfile handles GET /api/users/:id
// @Summary Get user profile
// @Description Profile with follower counts; is_following is set for authenticated viewers
// @Tags users
// @Produce json
// @Param id path int true "User ID"
// @Success 200 {object} profileResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /users/{id} [get]
func (s *Server) GetUserProfile(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}

	ctx := c.UserContext()
	profile, err := s.userService.GetProfile(ctx, id, currentUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(profileResponse{UserProfile: profile, Online: s.hub.IsOnline(ctx, id)})
}

// UpdateUserProfile handles PUT /api/users/:id
// @Summary Update user profile
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Param request body object{username=string,bio=string,avatar=string,kids_mode=bool} true "Fields to change"
// @Success 200 {object} models.UserProfile
// @Failure 400 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Router /users/{id} [put]
func (s *Server) UpdateUserProfile(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}

	var req struct {
		Username *string `json:"username"`
		Bio      *string `json:"bio"`
		Avatar   *string `json:"avatar"`
		KidsMode *bool   `json:"kids_mode"`
	}
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	profile, err := s.userService.UpdateProfile(c.UserContext(), service.UpdateProfileInput{
		ActorID:  currentUserID(c),
		UserID:   id,
		Username: req.Username,
		Bio:      req.Bio,
		Avatar:   req.Avatar,
		KidsMode: req.KidsMode,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(profile)
}

// FollowUser handles POST /api/users/:id/follow
// @Summary Follow a user
// @Tags users
// @Security BearerAuth
// @Param id path int true "User ID"
// @Success 200 {object} object{following=bool}
// @Failure 400 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /users/{id}/follow [post]
func (s *Server) FollowUser(c *fiber.Ctx) error {
	targetID, err := parseID(c, "id")
	if err != nil {
		return nil
	}

	ctx := c.UserContext()
	userID := currentUserID(c)
	if err := s.followService.Follow(ctx, userID, targetID); err != nil {
		return respondError(c, err)
	}

	if follower, err := s.userService.GetUserByID(ctx, userID); err == nil {
		s.publishUserEvent(ctx, targetID, notifications.EventUserFollowed, fiber.Map{
			"follower": userSummary(*follower),
		})
	}
	return c.JSON(fiber.Map{"following": true})
}

// UnfollowUser handles DELETE /api/users/:id/follow
// @Summary Unfollow a user
// @Tags users
// @Security BearerAuth
// @Param id path int true "User ID"
// @Success 200 {object} object{following=bool}
// @Failure 404 {object} models.ErrorResponse
// @Router /users/{id}/follow [delete]
func (s *Server) UnfollowUser(c *fiber.Ctx) error {
	targetID, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	if err := s.followService.Unfollow(c.UserContext(), currentUserID(c), targetID); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"following": false})
}

// GetFollowers handles GET /api/users/:id/followers
// @Summary List followers
// @Tags users
// @Produce json
// @Param id path int true "User ID"
// @Param limit query int false "Page size (max 100)"
// @Param page query int false "Page number"
// @Success 200 {array} models.User
// @Router /users/{id}/followers [get]
func (s *Server) GetFollowers(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	p := parsePagination(c)
	users, err := s.followService.ListFollowers(c.UserContext(), id, p.Limit, p.Page)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(users)
}

// GetFollowing handles GET /api/users/:id/following
// @Summary List followed users
// @Tags users
// @Produce json
// @Param id path int true "User ID"
// @Param limit query int false "Page size (max 100)"
// @Param page query int false "Page number"
// @Success 200 {array} models.User
// @Router /users/{id}/following [get]
func (s *Server) GetFollowing(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	p := parsePagination(c)
	users, err := s.followService.ListFollowing(c.UserContext(), id, p.Limit, p.Page)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(users)
}

// GetSavedPosts handles GET /api/users/me/saved
// @Summary Saved posts
// @Tags users
// @Produce json
// @Security BearerAuth
// @Param limit query int false "Page size (max 100)"
// @Param page query int false "Page number"
// @Success 200 {object} service.PostPage
// @Router /users/me/saved [get]
func (s *Server) GetSavedPosts(c *fiber.Ctx) error {
	p := parsePagination(c)
	page, err := s.postService.ListSaved(c.UserContext(), currentUserID(c), p.Limit, p.Page)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(page)
}
