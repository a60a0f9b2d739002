package server

import (
	"context"

	"scrolla/internal/notifications"
	"scrolla/internal/service"

	"github.com/gofiber/fiber/v2"
)

type postRequest struct {
	Content  *string   `json:"content"`
	Images   *[]string `json:"images"`
	Mood     *string   `json:"mood"`
	Hashtags *[]string `json:"hashtags"`
	KidSafe  *bool     `json:"kid_safe"`
}

// GetPosts handles GET /api/posts
// @Summary Browse the feed
// @Description Reverse-chronological posts filtered by mood and kid safety
// @Tags posts
// @Produce json
// @Param mood query string false "Mood filter, or all"
// @Param kidSafe query bool false "Only kid-safe posts"
// @Param limit query int false "Page size (max 100)"
// @Param page query int false "Page number"
// @Success 200 {object} service.PostPage
// @Failure 400 {object} models.ErrorResponse
// @Router /posts [get]
func (s *Server) GetPosts(c *fiber.Ctx) error {
	p := parsePagination(c)
	page, err := s.postService.ListPosts(c.UserContext(), service.ListPostsInput{
		Mood:     c.Query("mood"),
		KidSafe:  c.QueryBool("kidSafe", false),
		Limit:    p.Limit,
		Page:     p.Page,
		ViewerID: currentUserID(c),
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(page)
}

// GetUserPosts handles GET /api/posts/user/:userId
// @Summary Posts by author
// @Tags posts
// @Produce json
// @Param userId path int true "Author ID"
// @Param limit query int false "Page size (max 100)"
// @Param page query int false "Page number"
// @Success 200 {object} service.PostPage
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/user/{userId} [get]
func (s *Server) GetUserPosts(c *fiber.Ctx) error {
	authorID, err := parseID(c, "userId")
	if err != nil {
		return nil
	}
	p := parsePagination(c)
	page, err := s.postService.ListUserPosts(c.UserContext(), authorID, p.Limit, p.Page, currentUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(page)
}

// GetPost handles GET /api/posts/:id
// @Summary Get a post
// @Tags posts
// @Produce json
// @Param id path int true "Post ID"
// @Success 200 {object} models.Post
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/{id} [get]
func (s *Server) GetPost(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	post, err := s.postService.GetPost(c.UserContext(), id, currentUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(post)
}

// CreatePost handles POST /api/posts
// @Summary Create a post
// @Tags posts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body object{content=string,images=[]string,mood=string,hashtags=[]string,kid_safe=bool} true "Post"
// @Success 201 {object} models.Post
// @Failure 400 {object} models.ErrorResponse
// @Router /posts [post]
func (s *Server) CreatePost(c *fiber.Ctx) error {
	var req postRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	in := service.CreatePostInput{UserID: currentUserID(c)}
	if req.Content != nil {
		in.Content = *req.Content
	}
	if req.Images != nil {
		in.Images = *req.Images
	}
	if req.Mood != nil {
		in.Mood = *req.Mood
	}
	if req.Hashtags != nil {
		in.Hashtags = *req.Hashtags
	}
	if req.KidSafe != nil {
		in.KidSafe = *req.KidSafe
	}

	ctx := c.UserContext()
	post, err := s.postService.CreatePost(ctx, in)
	if err != nil {
		return respondError(c, err)
	}
	s.publishBroadcastEvent(ctx, notifications.EventPostCreated, post)
	return c.Status(fiber.StatusCreated).JSON(post)
}

// UpdatePost handles PUT /api/posts/:id
// @Summary Edit a post
// @Tags posts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Post ID"
// @Param request body object{content=string,images=[]string,mood=string,hashtags=[]string,kid_safe=bool} true "Fields to change"
// @Success 200 {object} models.Post
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/{id} [put]
func (s *Server) UpdatePost(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	var req postRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	ctx := c.UserContext()
	post, err := s.postService.UpdatePost(ctx, service.UpdatePostInput{
		UserID:   currentUserID(c),
		PostID:   id,
		Content:  req.Content,
		Images:   req.Images,
		Mood:     req.Mood,
		Hashtags: req.Hashtags,
		KidSafe:  req.KidSafe,
	})
	if err != nil {
		return respondError(c, err)
	}
	s.publishBroadcastEvent(ctx, notifications.EventPostUpdated, post)
	return c.JSON(post)
}

// DeletePost handles DELETE /api/posts/:id
// @Summary Delete a post
// @Tags posts
// @Security BearerAuth
// @Param id path int true "Post ID"
// @Success 200 {object} object{message=string}
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/{id} [delete]
func (s *Server) DeletePost(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}

	ctx := c.UserContext()
	post, err := s.postService.DeletePost(ctx, currentUserID(c), id)
	if err != nil {
		return respondError(c, err)
	}
	s.publishBroadcastEvent(ctx, notifications.EventPostDeleted, fiber.Map{"id": post.ID})
	return c.JSON(fiber.Map{"message": "Post deleted"})
}

// LikePost handles POST /api/posts/:id/like
// @Summary Toggle like
// @Tags posts
// @Produce json
// @Security BearerAuth
// @Param id path int true "Post ID"
// @Success 200 {object} service.ToggleResult
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/{id}/like [post]
func (s *Server) LikePost(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}

	ctx := c.UserContext()
	res, err := s.postService.ToggleLike(ctx, currentUserID(c), id)
	if err != nil {
		return respondError(c, err)
	}
	s.publishBroadcastEvent(ctx, notifications.EventPostLiked, fiber.Map{
		"post_id":    id,
		"like_count": res.LikeCount,
	})
	return c.JSON(res)
}

// SavePost handles POST /api/posts/:id/save
// @Summary Toggle save
// @Tags posts
// @Produce json
// @Security BearerAuth
// @Param id path int true "Post ID"
// @Success 200 {object} object{saved=bool}
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/{id}/save [post]
func (s *Server) SavePost(c *fiber.Ctx) error {
	return s.toggleHandler(c, "saved", s.postService.ToggleSave)
}

// HidePost handles POST /api/posts/:id/hide
// @Summary Toggle hide
// @Tags posts
// @Produce json
// @Security BearerAuth
// @Param id path int true "Post ID"
// @Success 200 {object} object{hidden=bool}
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/{id}/hide [post]
func (s *Server) HidePost(c *fiber.Ctx) error {
	return s.toggleHandler(c, "hidden", s.postService.ToggleHide)
}

// ReportPost handles POST /api/posts/:id/report
// @Summary Toggle report
// @Tags posts
// @Produce json
// @Security BearerAuth
// @Param id path int true "Post ID"
// @Success 200 {object} object{reported=bool}
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/{id}/report [post]
func (s *Server) ReportPost(c *fiber.Ctx) error {
	return s.toggleHandler(c, "reported", s.postService.Report)
}

func (s *Server) toggleHandler(
	c *fiber.Ctx, key string, toggle func(ctx context.Context, userID, postID uint) (bool, error),
) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	on, err := toggle(c.UserContext(), currentUserID(c), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{key: on})
}
