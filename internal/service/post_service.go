package service

import (
	"context"
	"slices"

	"chapel/internal/models"
	"chapel/internal/observability"
	"chapel/internal/repository"
	"chapel/internal/validation"
)

type PostService struct {
	postRepo repository.PostRepository
	audit    *AuditService
	isAdmin  AdminCheck
}

type CreatePostInput struct {
	ActorID    string
	AuthorName string
	Post       models.PostInput
}

func NewPostService(postRepo repository.PostRepository, audit *AuditService, isAdmin AdminCheck) *PostService {
	return &PostService{
		postRepo: postRepo,
		audit:    audit,
		isAdmin:  isAdmin,
	}
}

// ListPublished never returns drafts, whoever asks.
func (s *PostService) ListPublished(ctx context.Context, category string) ([]models.Post, error) {
	if category != "" && !slices.Contains(models.Categories, category) {
		return nil, models.NewValidationError("Unknown category")
	}
	return s.postRepo.ListPublished(ctx, models.PostFilter{Category: category})
}

func (s *PostService) GetPublished(ctx context.Context, id string) (*models.Post, error) {
	return s.postRepo.GetPublished(ctx, id)
}

// ListAll includes drafts and is admin-only.
func (s *PostService) ListAll(ctx context.Context, actorID string) ([]models.Post, error) {
	if err := requireAdmin(ctx, s.isAdmin, actorID); err != nil {
		return nil, err
	}
	return s.postRepo.ListAll(ctx)
}

func (s *PostService) CreatePost(ctx context.Context, in CreatePostInput) (*models.Post, error) {
	ctx, span := observability.GetTraceLayer().TraceServiceCall(ctx, "PostService", "CreatePost")
	defer span.End()

	if err := requireAdmin(ctx, s.isAdmin, in.ActorID); err != nil {
		return nil, err
	}
	if err := validation.Struct(in.Post); err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	post := &models.Post{
		Title:      in.Post.Title,
		Content:    in.Post.Content,
		Excerpt:    in.Post.Excerpt,
		Category:   in.Post.Category,
		AuthorID:   in.ActorID,
		AuthorName: in.AuthorName,
		Featured:   in.Post.Featured,
		Published:  in.Post.Published,
	}
	if err := s.postRepo.Create(ctx, post); err != nil {
		return nil, err
	}

	s.audit.Record(ctx, in.ActorID, models.ActionPostCreated, models.TargetPost, post.ID, map[string]any{
		"title":     post.Title,
		"published": post.Published,
	})
	return post, nil
}

// UpdatePost applies a partial update. Flag flips are audited as their own actions.
func (s *PostService) UpdatePost(ctx context.Context, actorID, id string, patch models.PostPatch) (*models.Post, error) {
	if err := requireAdmin(ctx, s.isAdmin, actorID); err != nil {
		return nil, err
	}
	if err := validation.Struct(patch); err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	before, err := s.postRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	after, err := s.postRepo.Update(ctx, id, patch)
	if err != nil {
		return nil, err
	}

	for _, action := range postActions(before, after, patch) {
		s.audit.Record(ctx, actorID, action, models.TargetPost, id, nil)
	}
	return after, nil
}

// DeletePost removes the post and its comments; the audit row keeps a snapshot.
func (s *PostService) DeletePost(ctx context.Context, actorID, id string) error {
	if err := requireAdmin(ctx, s.isAdmin, actorID); err != nil {
		return err
	}
	removed, err := s.postRepo.Delete(ctx, id)
	if err != nil {
		return err
	}
	s.audit.Record(ctx, actorID, models.ActionPostDeleted, models.TargetPost, id, removed)
	return nil
}

func postActions(before, after *models.Post, patch models.PostPatch) []string {
	var actions []string
	if before.Published != after.Published {
		if after.Published {
			actions = append(actions, models.ActionPostPublished)
		} else {
			actions = append(actions, models.ActionPostUnpublished)
		}
	}
	if before.Featured != after.Featured {
		if after.Featured {
			actions = append(actions, models.ActionPostFeatured)
		} else {
			actions = append(actions, models.ActionPostUnfeatured)
		}
	}
	if patch.Title != nil || patch.Content != nil || patch.Excerpt != nil || patch.Category != nil {
		actions = append(actions, models.ActionPostUpdated)
	}
	return actions
}
