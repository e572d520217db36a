package repository

import (
	"context"
	"errors"

	"chapel/internal/models"
	"chapel/internal/observability"

	"gorm.io/gorm"
)

// PostRepository defines the interface for blog post data operations
type PostRepository interface {
	Create(ctx context.Context, post *models.Post) error
	GetByID(ctx context.Context, id string) (*models.Post, error)
	GetPublished(ctx context.Context, id string) (*models.Post, error)
	ListPublished(ctx context.Context, filter models.PostFilter) ([]models.Post, error)
	ListAll(ctx context.Context) ([]models.Post, error)
	Update(ctx context.Context, id string, patch models.PostPatch) (*models.Post, error)
	Delete(ctx context.Context, id string) (*models.Post, error)
}

type postRepository struct {
	db  *gorm.DB
	log *observability.RepoLogger
}

// NewPostRepository creates a new post repository
func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{db: db, log: observability.NewRepoLogger("blog_posts")}
}

func (r *postRepository) Create(ctx context.Context, post *models.Post) error {
	defer observability.TrackQuery("create", "blog_posts")()
	if err := r.db.WithContext(ctx).Create(post).Error; err != nil {
		r.log.LogError(ctx, err, "create")
		return models.NewInternalError(err)
	}
	r.log.LogCreate(ctx, map[string]any{"post_id": post.ID, "published": post.Published})
	return nil
}

func (r *postRepository) GetByID(ctx context.Context, id string) (*models.Post, error) {
	var post models.Post
	if err := r.db.WithContext(ctx).First(&post, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Post", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &post, nil
}

// GetPublished hides drafts behind the same not-found error as a missing row.
func (r *postRepository) GetPublished(ctx context.Context, id string) (*models.Post, error) {
	var post models.Post
	err := readDB(r.db).WithContext(ctx).
		Where("id = ? AND published = ?", id, true).
		First(&post).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Post", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &post, nil
}

// ListPublished returns published posts newest first, without a limit.
func (r *postRepository) ListPublished(ctx context.Context, filter models.PostFilter) ([]models.Post, error) {
	ctx, span := observability.GetTraceLayer().TraceRepositoryMethod(ctx, "ListPublished", "blog_posts")
	defer span.End()
	defer observability.TrackQuery("list_published", "blog_posts")()

	q := readDB(r.db).WithContext(ctx).Where("published = ?", true)
	if filter.Category != "" {
		q = q.Where("category = ?", filter.Category)
	}
	posts := []models.Post{}
	if err := q.Order("created_at DESC").Find(&posts).Error; err != nil {
		span.RecordError(err)
		return nil, models.NewInternalError(err)
	}
	return posts, nil
}

func (r *postRepository) ListAll(ctx context.Context) ([]models.Post, error) {
	defer observability.TrackQuery("list_all", "blog_posts")()
	posts := []models.Post{}
	if err := r.db.WithContext(ctx).Order("created_at DESC").Find(&posts).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return posts, nil
}

// Update applies the non-nil patch fields and returns the stored row.
func (r *postRepository) Update(ctx context.Context, id string, patch models.PostPatch) (*models.Post, error) {
	defer observability.TrackQuery("update", "blog_posts")()

	var post models.Post
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&post, "id = ?", id).Error; err != nil {
			return err
		}
		if patch.Empty() {
			return nil
		}
		if err := tx.Model(&post).Updates(patch.Columns()).Error; err != nil {
			return err
		}
		return tx.First(&post, "id = ?", id).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Post", id)
		}
		r.log.LogError(ctx, err, "update")
		return nil, models.NewInternalError(err)
	}
	r.log.LogUpdate(ctx, map[string]any{"post_id": id, "columns": len(patch.Columns())})
	return &post, nil
}

// Delete removes the post and its comments, returning the removed row.
func (r *postRepository) Delete(ctx context.Context, id string) (*models.Post, error) {
	defer observability.TrackQuery("delete", "blog_posts")()

	var post models.Post
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&post, "id = ?", id).Error; err != nil {
			return err
		}
		if err := tx.Where("post_id = ?", id).Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Post{}, "id = ?", id).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Post", id)
		}
		r.log.LogError(ctx, err, "delete")
		return nil, models.NewInternalError(err)
	}
	r.log.LogDelete(ctx, map[string]any{"post_id": id})
	return &post, nil
}
