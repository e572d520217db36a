// Package content reads and writes profiles, posts and comments through the API.
// Nothing is cached; every call goes to the backend and errors come back unchanged.
package content

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"chapel/internal/backend"
	"chapel/internal/models"
	"chapel/internal/validation"
)

// ErrNotSignedIn is returned before any network call when a write needs an author.
var ErrNotSignedIn = errors.New("sign in to comment")

// API is the backend surface the repository uses. *backend.Client implements it.
type API interface {
	ListPublishedPosts(ctx context.Context, category string) ([]models.Post, error)
	GetPublishedPost(ctx context.Context, id string) (*models.Post, error)
	ListAllPosts(ctx context.Context) ([]models.Post, error)
	CreatePost(ctx context.Context, in models.PostInput) (*models.Post, error)
	UpdatePost(ctx context.Context, id string, patch models.PostPatch) (*models.Post, error)
	DeletePost(ctx context.Context, id string) error

	ListComments(ctx context.Context, postID string) ([]models.Comment, error)
	SubmitComment(ctx context.Context, postID, content string) (*models.Comment, error)
	ListModerationComments(ctx context.Context, filter models.CommentFilter) ([]models.ModerationComment, error)
	PendingCommentCount(ctx context.Context) (int64, error)
	ApproveComment(ctx context.Context, id string) (*models.Comment, error)
	RejectComment(ctx context.Context, id string) error

	ListProfiles(ctx context.Context) ([]models.Profile, error)
	GetProfile(ctx context.Context, id string) (*models.Profile, error)
	SetRole(ctx context.Context, id string, role models.Role) (*models.Profile, error)

	ListAuditEvents(ctx context.Context, q backend.AuditQuery) ([]models.ModerationEvent, error)
}

// Repository is the client-side accessor over the three tables.
type Repository struct {
	api    API
	logger *slog.Logger
}

// NewRepository wraps api. A nil logger uses slog.Default().
func NewRepository(api API, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{api: api, logger: logger}
}

func (r *Repository) logFailure(ctx context.Context, op string, err error) {
	if err != nil {
		r.logger.DebugContext(ctx, "content call failed", slog.String("op", op), slog.String("error", err.Error()))
	}
}

// ListPublishedPosts returns published posts, newest first.
func (r *Repository) ListPublishedPosts(ctx context.Context, filter models.PostFilter) ([]models.Post, error) {
	posts, err := r.api.ListPublishedPosts(ctx, filter.Category)
	r.logFailure(ctx, "list_published_posts", err)
	return posts, err
}

func (r *Repository) GetPublishedPost(ctx context.Context, id string) (*models.Post, error) {
	post, err := r.api.GetPublishedPost(ctx, id)
	r.logFailure(ctx, "get_published_post", err)
	return post, err
}

// ListAllPosts includes drafts. The backend refuses non-admins.
func (r *Repository) ListAllPosts(ctx context.Context) ([]models.Post, error) {
	posts, err := r.api.ListAllPosts(ctx)
	r.logFailure(ctx, "list_all_posts", err)
	return posts, err
}

func (r *Repository) CreatePost(ctx context.Context, in models.PostInput) (*models.Post, error) {
	post, err := r.api.CreatePost(ctx, in)
	r.logFailure(ctx, "create_post", err)
	return post, err
}

func (r *Repository) UpdatePost(ctx context.Context, id string, patch models.PostPatch) (*models.Post, error) {
	post, err := r.api.UpdatePost(ctx, id, patch)
	r.logFailure(ctx, "update_post", err)
	return post, err
}

func (r *Repository) DeletePost(ctx context.Context, id string) error {
	err := r.api.DeletePost(ctx, id)
	r.logFailure(ctx, "delete_post", err)
	return err
}

// ListCommentsForPost returns the approved comments of a post, oldest first.
func (r *Repository) ListCommentsForPost(ctx context.Context, postID string) ([]models.Comment, error) {
	comments, err := r.api.ListComments(ctx, postID)
	r.logFailure(ctx, "list_comments", err)
	return comments, err
}

// ListCommentsForModeration returns comments with their post title, newest first.
func (r *Repository) ListCommentsForModeration(ctx context.Context, filter models.CommentFilter) ([]models.ModerationComment, error) {
	comments, err := r.api.ListModerationComments(ctx, filter)
	r.logFailure(ctx, "list_moderation_comments", err)
	return comments, err
}

func (r *Repository) PendingCommentCount(ctx context.Context) (int64, error) {
	n, err := r.api.PendingCommentCount(ctx)
	r.logFailure(ctx, "pending_comment_count", err)
	return n, err
}

// SubmitComment posts a comment that stays hidden until approved.
// The backend stamps the author from the access token; authorID and authorName
// only gate the call locally and are checked against what comes back.
func (r *Repository) SubmitComment(ctx context.Context, postID, authorID, authorName, content string) (*models.Comment, error) {
	if strings.TrimSpace(authorID) == "" {
		return nil, ErrNotSignedIn
	}
	if err := validation.ValidateCommentContent(content); err != nil {
		return nil, err
	}
	comment, err := r.api.SubmitComment(ctx, postID, content)
	if err != nil {
		r.logFailure(ctx, "submit_comment", err)
		return nil, err
	}
	if comment.UserID != authorID {
		r.logger.WarnContext(ctx, "comment author differs from session",
			slog.String("session_user", authorID), slog.String("comment_user", comment.UserID),
			slog.String("session_name", authorName))
	}
	return comment, nil
}

// ApproveComment is idempotent: approving an approved comment succeeds.
func (r *Repository) ApproveComment(ctx context.Context, id string) (*models.Comment, error) {
	comment, err := r.api.ApproveComment(ctx, id)
	r.logFailure(ctx, "approve_comment", err)
	return comment, err
}

// RejectComment deletes the comment.
func (r *Repository) RejectComment(ctx context.Context, id string) error {
	err := r.api.RejectComment(ctx, id)
	r.logFailure(ctx, "reject_comment", err)
	return err
}

func (r *Repository) ListProfiles(ctx context.Context) ([]models.Profile, error) {
	profiles, err := r.api.ListProfiles(ctx)
	r.logFailure(ctx, "list_profiles", err)
	return profiles, err
}

func (r *Repository) GetProfile(ctx context.Context, id string) (*models.Profile, error) {
	profile, err := r.api.GetProfile(ctx, id)
	r.logFailure(ctx, "get_profile", err)
	return profile, err
}

// SetUserRole changes a profile's role. The backend refuses to demote the last admin.
func (r *Repository) SetUserRole(ctx context.Context, userID string, role models.Role) (*models.Profile, error) {
	if !role.Valid() {
		return nil, fmt.Errorf("unknown role %q", role)
	}
	profile, err := r.api.SetRole(ctx, userID, role)
	r.logFailure(ctx, "set_user_role", err)
	return profile, err
}

// ListAuditEvents returns the moderation trail, newest first.
func (r *Repository) ListAuditEvents(ctx context.Context, q backend.AuditQuery) ([]models.ModerationEvent, error) {
	events, err := r.api.ListAuditEvents(ctx, q)
	r.logFailure(ctx, "list_audit_events", err)
	return events, err
}
