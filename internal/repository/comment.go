package repository

import (
	"context"
	"errors"

	"chapel/internal/models"
	"chapel/internal/observability"

	"gorm.io/gorm"
)

// CommentRepository defines interface for comment operations
type CommentRepository interface {
	Create(ctx context.Context, comment *models.Comment) error
	GetByID(ctx context.Context, id string) (*models.Comment, error)
	ListApprovedByPost(ctx context.Context, postID string) ([]models.Comment, error)
	ListForModeration(ctx context.Context, filter models.CommentFilter) ([]models.ModerationComment, error)
	Approve(ctx context.Context, id string) (*models.Comment, error)
	Delete(ctx context.Context, id string) (*models.Comment, error)
	CountPending(ctx context.Context) (int64, error)
}

type commentRepository struct {
	db  *gorm.DB
	log *observability.RepoLogger
}

// NewCommentRepository creates a new CommentRepository
func NewCommentRepository(db *gorm.DB) CommentRepository {
	return &commentRepository{db: db, log: observability.NewRepoLogger("comments")}
}

// Create always stores the comment unapproved.
func (r *commentRepository) Create(ctx context.Context, comment *models.Comment) error {
	comment.Approved = false
	if err := r.db.WithContext(ctx).Create(comment).Error; err != nil {
		r.log.LogError(ctx, err, "create")
		return models.NewInternalError(err)
	}
	r.log.LogCreate(ctx, map[string]any{"comment_id": comment.ID, "post_id": comment.PostID})
	return nil
}

func (r *commentRepository) GetByID(ctx context.Context, id string) (*models.Comment, error) {
	var comment models.Comment
	if err := r.db.WithContext(ctx).First(&comment, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Comment", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &comment, nil
}

// ListApprovedByPost returns the public thread of a post, oldest first.
func (r *commentRepository) ListApprovedByPost(ctx context.Context, postID string) ([]models.Comment, error) {
	defer observability.TrackQuery("list_approved", "comments")()
	comments := []models.Comment{}
	err := readDB(r.db).WithContext(ctx).
		Where("post_id = ? AND approved = ?", postID, true).
		Order("created_at ASC").
		Find(&comments).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return comments, nil
}

// ListForModeration joins each comment with its post title, newest first.
func (r *commentRepository) ListForModeration(ctx context.Context, filter models.CommentFilter) ([]models.ModerationComment, error) {
	defer observability.TrackQuery("list_moderation", "comments")()

	q := r.db.WithContext(ctx).
		Table("comments").
		Select("comments.*, COALESCE(blog_posts.title, '') AS post_title").
		Joins("LEFT JOIN blog_posts ON blog_posts.id = comments.post_id")
	switch filter {
	case models.CommentFilterPending:
		q = q.Where("comments.approved = ?", false)
	case models.CommentFilterApproved:
		q = q.Where("comments.approved = ?", true)
	}

	rows := []models.ModerationComment{}
	if err := q.Order("comments.created_at DESC").Scan(&rows).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return rows, nil
}

// Approve sets approved=true. Approving an approved comment is a no-op.
func (r *commentRepository) Approve(ctx context.Context, id string) (*models.Comment, error) {
	var comment models.Comment
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&comment, "id = ?", id).Error; err != nil {
			return err
		}
		if comment.Approved {
			return nil
		}
		comment.Approved = true
		return tx.Model(&comment).Update("approved", true).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Comment", id)
		}
		r.log.LogError(ctx, err, "approve")
		return nil, models.NewInternalError(err)
	}
	r.log.LogUpdate(ctx, map[string]any{"comment_id": id, "approved": true})
	return &comment, nil
}

// Delete hard-deletes the comment and returns what was removed.
func (r *commentRepository) Delete(ctx context.Context, id string) (*models.Comment, error) {
	var comment models.Comment
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&comment, "id = ?", id).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Comment{}, "id = ?", id).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Comment", id)
		}
		r.log.LogError(ctx, err, "delete")
		return nil, models.NewInternalError(err)
	}
	r.log.LogDelete(ctx, map[string]any{"comment_id": id})
	return &comment, nil
}

func (r *commentRepository) CountPending(ctx context.Context) (int64, error) {
	var n int64
	if err := readDB(r.db).WithContext(ctx).Model(&models.Comment{}).Where("approved = ?", false).Count(&n).Error; err != nil {
		return 0, models.NewInternalError(err)
	}
	return n, nil
}
