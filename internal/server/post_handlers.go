package server

import (
	"chapel/internal/models"
	"chapel/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GetPosts handles GET /api/posts
// @Summary List published posts
// @Description Newest first; drafts are never included
// @Tags posts
// @Produce json
// @Param category query string false "Category filter"
// @Success 200 {array} models.Post
// @Failure 400 {object} models.ErrorResponse
// @Router /posts [get]
func (s *Server) GetPosts(c *fiber.Ctx) error {
	posts, err := s.postService.ListPublished(c.UserContext(), c.Query("category"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(posts)
}

// GetPost handles GET /api/posts/:id
// @Summary Get a published post
// @Tags posts
// @Produce json
// @Param id path string true "Post ID"
// @Success 200 {object} models.Post
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/{id} [get]
func (s *Server) GetPost(c *fiber.Ctx) error {
	post, err := s.postService.GetPublished(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(post)
}

// AdminListPosts handles GET /api/admin/posts
// @Summary List all posts including drafts
// @Tags admin
// @Security BearerAuth
// @Produce json
// @Success 200 {array} models.Post
// @Router /admin/posts [get]
func (s *Server) AdminListPosts(c *fiber.Ctx) error {
	posts, err := s.postService.ListAll(c.UserContext(), userIDFrom(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(posts)
}

// CreatePost handles POST /api/admin/posts
// @Summary Create a post
// @Tags admin
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body models.PostInput true "Post"
// @Success 201 {object} models.Post
// @Failure 400 {object} models.ErrorResponse
// @Router /admin/posts [post]
func (s *Server) CreatePost(c *fiber.Ctx) error {
	ctx := c.UserContext()
	userID := userIDFrom(c)

	var input models.PostInput
	if err := c.BodyParser(&input); err != nil {
		return badRequest(c, "Invalid request body")
	}

	author, err := s.profileService.GetProfile(ctx, userID)
	if err != nil {
		return respondError(c, err)
	}

	post, err := s.postService.CreatePost(ctx, service.CreatePostInput{
		ActorID:    userID,
		AuthorName: author.DisplayName(),
		Post:       input,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(post)
}

// UpdatePost handles PATCH /api/admin/posts/:id
// @Summary Update a post
// @Description Partial update; also used to publish, unpublish, feature and unfeature
// @Tags admin
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "Post ID"
// @Param request body models.PostPatch true "Changes"
// @Success 200 {object} models.Post
// @Failure 404 {object} models.ErrorResponse
// @Router /admin/posts/{id} [patch]
func (s *Server) UpdatePost(c *fiber.Ctx) error {
	var patch models.PostPatch
	if err := c.BodyParser(&patch); err != nil {
		return badRequest(c, "Invalid request body")
	}

	post, err := s.postService.UpdatePost(c.UserContext(), userIDFrom(c), c.Params("id"), patch)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(post)
}

// DeletePost handles DELETE /api/admin/posts/:id
// @Summary Delete a post and its comments
// @Tags admin
// @Security BearerAuth
// @Param id path string true "Post ID"
// @Success 204
// @Failure 404 {object} models.ErrorResponse
// @Router /admin/posts/{id} [delete]
func (s *Server) DeletePost(c *fiber.Ctx) error {
	if err := s.postService.DeletePost(c.UserContext(), userIDFrom(c), c.Params("id")); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
