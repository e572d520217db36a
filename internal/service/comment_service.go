package service

import (
	"context"

	"chapel/internal/models"
	"chapel/internal/repository"
	"chapel/internal/validation"
)

type CommentService struct {
	commentRepo repository.CommentRepository
	postRepo    repository.PostRepository
	audit       *AuditService
	isAdmin     AdminCheck
}

type SubmitCommentInput struct {
	UserID   string
	UserName string
	PostID   string
	Content  string
}

func NewCommentService(
	commentRepo repository.CommentRepository,
	postRepo repository.PostRepository,
	audit *AuditService,
	isAdmin AdminCheck,
) *CommentService {
	return &CommentService{
		commentRepo: commentRepo,
		postRepo:    postRepo,
		audit:       audit,
		isAdmin:     isAdmin,
	}
}

// SubmitComment stores a pending comment on a published post, admins included.
func (s *CommentService) SubmitComment(ctx context.Context, in SubmitCommentInput) (*models.Comment, error) {
	if in.UserID == "" {
		return nil, models.NewUnauthorizedError("Authentication required")
	}
	content := validation.SanitizeText(in.Content)
	if err := validation.ValidateCommentContent(content); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if _, err := s.postRepo.GetPublished(ctx, in.PostID); err != nil {
		return nil, err
	}

	comment := &models.Comment{
		PostID:   in.PostID,
		UserID:   in.UserID,
		UserName: in.UserName,
		Content:  content,
		Approved: false,
	}
	if err := s.commentRepo.Create(ctx, comment); err != nil {
		return nil, err
	}

	s.audit.Record(ctx, in.UserID, models.ActionCommentSubmitted, models.TargetComment, comment.ID, map[string]any{
		"post_id": in.PostID,
	})
	return comment, nil
}

// ListApproved returns the approved comments of postID. An unknown or draft
// post yields its approved comments, possibly none, never NOT_FOUND.
func (s *CommentService) ListApproved(ctx context.Context, postID string) ([]models.Comment, error) {
	return s.commentRepo.ListApprovedByPost(ctx, postID)
}

func (s *CommentService) ListForModeration(ctx context.Context, actorID, filter string) ([]models.ModerationComment, error) {
	if err := requireAdmin(ctx, s.isAdmin, actorID); err != nil {
		return nil, err
	}
	f, ok := models.ParseCommentFilter(filter)
	if !ok {
		return nil, models.NewValidationError("filter must be one of: all, pending, approved")
	}
	return s.commentRepo.ListForModeration(ctx, f)
}

// Approve publishes a pending comment. Approving twice succeeds without a second audit row.
func (s *CommentService) Approve(ctx context.Context, actorID, id string) (*models.Comment, error) {
	if err := requireAdmin(ctx, s.isAdmin, actorID); err != nil {
		return nil, err
	}
	current, err := s.commentRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if current.Approved {
		return current, nil
	}

	approved, err := s.commentRepo.Approve(ctx, id)
	if err != nil {
		return nil, err
	}
	s.audit.Record(ctx, actorID, models.ActionCommentApproved, models.TargetComment, id, nil)
	return approved, nil
}

// Reject deletes the comment permanently; the audit row keeps what was removed.
func (s *CommentService) Reject(ctx context.Context, actorID, id string) error {
	if err := requireAdmin(ctx, s.isAdmin, actorID); err != nil {
		return err
	}
	removed, err := s.commentRepo.Delete(ctx, id)
	if err != nil {
		return err
	}
	s.audit.Record(ctx, actorID, models.ActionCommentRejected, models.TargetComment, id, removed)
	return nil
}

func (s *CommentService) PendingCount(ctx context.Context, actorID string) (int64, error) {
	if err := requireAdmin(ctx, s.isAdmin, actorID); err != nil {
		return 0, err
	}
	return s.commentRepo.CountPending(ctx)
}
