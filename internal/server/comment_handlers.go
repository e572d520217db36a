package server

import (
	"chapel/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GetComments handles GET /api/posts/:id/comments
// @Summary Approved comments of a post
// @Description Oldest first; an unknown post has no comments
// @Tags posts
// @Produce json
// @Param id path string true "Post ID"
// @Success 200 {array} models.Comment
// @Router /posts/{id}/comments [get]
func (s *Server) GetComments(c *fiber.Ctx) error {
	comments, err := s.commentService.ListApproved(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(comments)
}

// SubmitComment handles POST /api/posts/:id/comments
// @Summary Submit a comment
// @Description The comment is stored unapproved and stays hidden until moderated
// @Tags posts
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "Post ID"
// @Param request body object{content=string} true "Comment"
// @Success 201 {object} models.Comment
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/{id}/comments [post]
func (s *Server) SubmitComment(c *fiber.Ctx) error {
	ctx := c.UserContext()
	userID := userIDFrom(c)

	var req struct {
		Content string `json:"content"`
	}
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	author, err := s.profileService.GetProfile(ctx, userID)
	if err != nil {
		return respondError(c, err)
	}

	comment, err := s.commentService.SubmitComment(ctx, service.SubmitCommentInput{
		UserID:   userID,
		UserName: author.DisplayName(),
		PostID:   c.Params("id"),
		Content:  req.Content,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(comment)
}

// AdminListComments handles GET /api/admin/comments
// @Summary Comments for moderation
// @Tags admin
// @Security BearerAuth
// @Produce json
// @Param filter query string false "pending (default), approved or all"
// @Success 200 {array} models.ModerationComment
// @Failure 400 {object} models.ErrorResponse
// @Router /admin/comments [get]
func (s *Server) AdminListComments(c *fiber.Ctx) error {
	comments, err := s.commentService.ListForModeration(c.UserContext(), userIDFrom(c), c.Query("filter"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(comments)
}

// PendingCommentCount handles GET /api/admin/comments/pending-count
// @Summary Number of comments awaiting moderation
// @Tags admin
// @Security BearerAuth
// @Produce json
// @Success 200 {object} object{count=int}
// @Router /admin/comments/pending-count [get]
func (s *Server) PendingCommentCount(c *fiber.Ctx) error {
	count, err := s.commentService.PendingCount(c.UserContext(), userIDFrom(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"count": count})
}

// ApproveComment handles POST /api/admin/comments/:id/approve
// @Summary Approve a comment
// @Tags admin
// @Security BearerAuth
// @Produce json
// @Param id path string true "Comment ID"
// @Success 200 {object} models.Comment
// @Failure 404 {object} models.ErrorResponse
// @Router /admin/comments/{id}/approve [post]
func (s *Server) ApproveComment(c *fiber.Ctx) error {
	comment, err := s.commentService.Approve(c.UserContext(), userIDFrom(c), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(comment)
}

// RejectComment handles DELETE /api/admin/comments/:id
// @Summary Reject (delete) a comment
// @Tags admin
// @Security BearerAuth
// @Param id path string true "Comment ID"
// @Success 204
// @Failure 404 {object} models.ErrorResponse
// @Router /admin/comments/{id} [delete]
func (s *Server) RejectComment(c *fiber.Ctx) error {
	if err := s.commentService.Reject(c.UserContext(), userIDFrom(c), c.Params("id")); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
