package moderation

import (
	"context"
	"slices"
	"sync"

	"chapel/internal/backend"
	"chapel/internal/models"
)

type fakePosts struct {
	mu      sync.Mutex
	posts   []models.Post
	gate    chan struct{}
	err     error
	deletes []string
}

func (f *fakePosts) ListAllPosts(ctx context.Context) ([]models.Post, error) {
	f.mu.Lock()
	gate := f.gate
	f.mu.Unlock()
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.posts), f.err
}

func (f *fakePosts) CreatePost(_ context.Context, in models.PostInput) (*models.Post, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	p := models.Post{ID: "new", Title: in.Title, Content: in.Content, Excerpt: in.Excerpt, Category: in.Category, Published: in.Published}
	f.posts = append([]models.Post{p}, f.posts...)
	return &p, nil
}

func (f *fakePosts) UpdatePost(_ context.Context, id string, patch models.PostPatch) (*models.Post, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	for i := range f.posts {
		if f.posts[i].ID == id {
			patch.Apply(&f.posts[i])
			p := f.posts[i]
			return &p, nil
		}
	}
	return nil, &backend.APIError{Status: 404, Code: models.CodeNotFound}
}

func (f *fakePosts) DeletePost(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletes = append(f.deletes, id)
	if f.err != nil {
		return f.err
	}
	i := slices.IndexFunc(f.posts, func(p models.Post) bool { return p.ID == id })
	if i < 0 {
		return &backend.APIError{Status: 404, Code: models.CodeNotFound}
	}
	f.posts = slices.Delete(f.posts, i, i+1)
	return nil
}

type fakeComments struct {
	mu       sync.Mutex
	comments []models.ModerationComment
	filters  []models.CommentFilter
	rejected []string
}

func (f *fakeComments) ListCommentsForModeration(_ context.Context, filter models.CommentFilter) ([]models.ModerationComment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.filters = append(f.filters, filter)
	var out []models.ModerationComment
	for _, c := range f.comments {
		switch {
		case filter == models.CommentFilterAll,
			filter == models.CommentFilterPending && !c.Approved,
			filter == models.CommentFilterApproved && c.Approved:
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeComments) PendingCommentCount(context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, c := range f.comments {
		if !c.Approved {
			n++
		}
	}
	return n, nil
}

func (f *fakeComments) ApproveComment(_ context.Context, id string) (*models.Comment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.comments {
		if f.comments[i].ID == id {
			f.comments[i].Approved = true
			c := f.comments[i].Comment
			return &c, nil
		}
	}
	return nil, &backend.APIError{Status: 404, Code: models.CodeNotFound}
}

func (f *fakeComments) RejectComment(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rejected = append(f.rejected, id)
	f.comments = slices.DeleteFunc(f.comments, func(c models.ModerationComment) bool { return c.ID == id })
	return nil
}

type fakeProfiles struct {
	profiles []models.Profile
}

func (f *fakeProfiles) ListProfiles(context.Context) ([]models.Profile, error) {
	return slices.Clone(f.profiles), nil
}

func (f *fakeProfiles) SetUserRole(_ context.Context, id string, role models.Role) (*models.Profile, error) {
	admins := 0
	for _, p := range f.profiles {
		if p.Role == models.RoleAdmin {
			admins++
		}
	}
	for i := range f.profiles {
		if f.profiles[i].ID != id {
			continue
		}
		if f.profiles[i].Role == models.RoleAdmin && role != models.RoleAdmin && admins == 1 {
			return nil, &backend.APIError{Status: 409, Code: models.CodeConflict}
		}
		f.profiles[i].Role = role
		p := f.profiles[i]
		return &p, nil
	}
	return nil, &backend.APIError{Status: 404, Code: models.CodeNotFound}
}

func comment(id string, approved bool) models.ModerationComment {
	return models.ModerationComment{
		Comment:   models.Comment{ID: id, PostID: "p1", UserID: "u1", UserName: "Lecteur", Content: "Amen " + id, Approved: approved},
		PostTitle: "Grace",
	}
}
