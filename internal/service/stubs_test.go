package service

import (
	"context"
	"sync"
	"testing"

	"chapel/internal/models"
	"chapel/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// postRepoStub is an in-memory repository.PostRepository.
type postRepoStub struct {
	posts     map[string]*models.Post
	createErr error
}

func newPostRepoStub(posts ...*models.Post) *postRepoStub {
	s := &postRepoStub{posts: map[string]*models.Post{}}
	for _, p := range posts {
		s.posts[p.ID] = p
	}
	return s
}

func (s *postRepoStub) Create(_ context.Context, post *models.Post) error {
	if s.createErr != nil {
		return s.createErr
	}
	if post.ID == "" {
		post.ID = "generated"
	}
	cp := *post
	s.posts[post.ID] = &cp
	return nil
}

func (s *postRepoStub) GetByID(_ context.Context, id string) (*models.Post, error) {
	p, ok := s.posts[id]
	if !ok {
		return nil, models.NewNotFoundError("Post", id)
	}
	cp := *p
	return &cp, nil
}

func (s *postRepoStub) GetPublished(ctx context.Context, id string) (*models.Post, error) {
	p, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !p.Published {
		return nil, models.NewNotFoundError("Post", id)
	}
	return p, nil
}

func (s *postRepoStub) ListPublished(_ context.Context, filter models.PostFilter) ([]models.Post, error) {
	var out []models.Post
	for _, p := range s.posts {
		if p.Published && (filter.Category == "" || filter.Category == p.Category) {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (s *postRepoStub) ListAll(_ context.Context) ([]models.Post, error) {
	var out []models.Post
	for _, p := range s.posts {
		out = append(out, *p)
	}
	return out, nil
}

func (s *postRepoStub) Update(ctx context.Context, id string, patch models.PostPatch) (*models.Post, error) {
	p, ok := s.posts[id]
	if !ok {
		return nil, models.NewNotFoundError("Post", id)
	}
	patch.Apply(p)
	return s.GetByID(ctx, id)
}

func (s *postRepoStub) Delete(_ context.Context, id string) (*models.Post, error) {
	p, ok := s.posts[id]
	if !ok {
		return nil, models.NewNotFoundError("Post", id)
	}
	delete(s.posts, id)
	return p, nil
}

// commentRepoStub is an in-memory repository.CommentRepository.
type commentRepoStub struct {
	comments map[string]*models.Comment
	approves int
}

func newCommentRepoStub(comments ...*models.Comment) *commentRepoStub {
	s := &commentRepoStub{comments: map[string]*models.Comment{}}
	for _, c := range comments {
		s.comments[c.ID] = c
	}
	return s
}

func (s *commentRepoStub) Create(_ context.Context, c *models.Comment) error {
	c.Approved = false
	if c.ID == "" {
		c.ID = "c-new"
	}
	cp := *c
	s.comments[c.ID] = &cp
	return nil
}

func (s *commentRepoStub) GetByID(_ context.Context, id string) (*models.Comment, error) {
	c, ok := s.comments[id]
	if !ok {
		return nil, models.NewNotFoundError("Comment", id)
	}
	cp := *c
	return &cp, nil
}

func (s *commentRepoStub) ListApprovedByPost(_ context.Context, postID string) ([]models.Comment, error) {
	var out []models.Comment
	for _, c := range s.comments {
		if c.PostID == postID && c.Approved {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (s *commentRepoStub) ListForModeration(_ context.Context, f models.CommentFilter) ([]models.ModerationComment, error) {
	var out []models.ModerationComment
	for _, c := range s.comments {
		if f == models.CommentFilterPending && c.Approved || f == models.CommentFilterApproved && !c.Approved {
			continue
		}
		out = append(out, models.ModerationComment{Comment: *c})
	}
	return out, nil
}

func (s *commentRepoStub) Approve(ctx context.Context, id string) (*models.Comment, error) {
	c, ok := s.comments[id]
	if !ok {
		return nil, models.NewNotFoundError("Comment", id)
	}
	s.approves++
	c.Approved = true
	return s.GetByID(ctx, id)
}

func (s *commentRepoStub) Delete(_ context.Context, id string) (*models.Comment, error) {
	c, ok := s.comments[id]
	if !ok {
		return nil, models.NewNotFoundError("Comment", id)
	}
	delete(s.comments, id)
	return c, nil
}

func (s *commentRepoStub) CountPending(_ context.Context) (int64, error) {
	var n int64
	for _, c := range s.comments {
		if !c.Approved {
			n++
		}
	}
	return n, nil
}

// auditRepoStub records events in memory.
type auditRepoStub struct {
	mu     sync.Mutex
	events []models.ModerationEvent
}

func (s *auditRepoStub) Record(_ context.Context, e *models.ModerationEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, *e)
	return nil
}

func (s *auditRepoStub) List(_ context.Context, _ repository.AuditFilter) ([]models.ModerationEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.ModerationEvent(nil), s.events...), nil
}

func (s *auditRepoStub) actions() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.events))
	for _, e := range s.events {
		out = append(out, e.Action)
	}
	return out
}

type publisherStub struct {
	payloads []string
}

func (p *publisherStub) PublishModeration(_ context.Context, payload string) error {
	p.payloads = append(p.payloads, payload)
	return nil
}

// adminsOnly treats the listed user IDs as admins.
func adminsOnly(ids ...string) AdminCheck {
	set := map[string]bool{}
	for _, id := range ids {
		set[id] = true
	}
	return func(_ context.Context, userID string) (bool, error) {
		return set[userID], nil
	}
}

func assertCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	assert.Equal(t, code, models.ErrorCode(err))
}
