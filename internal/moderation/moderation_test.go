package moderation

import (
	"context"
	"errors"
	"testing"
	"time"

	"chapel/internal/backend"
	"chapel/internal/models"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ids[T any](items []T, id func(T) string) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, id(it))
	}
	return out
}

func postIDs(posts []models.Post) []string {
	return ids(posts, func(p models.Post) string { return p.ID })
}

func commentIDs(comments []models.ModerationComment) []string {
	return ids(comments, func(c models.ModerationComment) string { return c.ID })
}

var refuse = ConfirmFunc(func(context.Context, string) (bool, error) { return false, nil })

func TestPostManager_ToggleAndFeature(t *testing.T) {
	store := &fakePosts{posts: []models.Post{{ID: "a", Title: "A"}, {ID: "b", Title: "B", Published: true}}}
	m := NewPostManager(store, nil)
	ctx := context.Background()
	require.NoError(t, m.Load(ctx))

	p, err := m.TogglePublished(ctx, "a")
	require.NoError(t, err)
	assert.True(t, p.Published)

	_, err = m.SetPublished(ctx, "b", true)
	require.NoError(t, err, "setting the current value is a no-op success")

	_, err = m.SetFeatured(ctx, "a", true)
	require.NoError(t, err)

	want := []models.Post{
		{ID: "a", Title: "A", Published: true, Featured: true},
		{ID: "b", Title: "B", Published: true},
	}
	if diff := cmp.Diff(want, m.Posts()); diff != "" {
		t.Errorf("posts mismatch (-want +got):\n%s", diff)
	}

	_, err = m.TogglePublished(ctx, "zzz")
	assert.ErrorIs(t, err, ErrUnknownItem)
}

func TestPostManager_FailedUpdateLeavesListUntouched(t *testing.T) {
	store := &fakePosts{posts: []models.Post{{ID: "a", Title: "A"}}}
	m := NewPostManager(store, nil)
	ctx := context.Background()
	require.NoError(t, m.Load(ctx))
	before := m.Posts()

	store.err = &backend.APIError{Status: 403, Code: models.CodeForbidden}
	_, err := m.TogglePublished(ctx, "a")
	assert.True(t, backend.IsForbidden(err))
	assert.Empty(t, cmp.Diff(before, m.Posts()))
}

func TestPostManager_Save(t *testing.T) {
	store := &fakePosts{posts: []models.Post{{ID: "a", Title: "A", Category: models.CategoryNews}}}
	m := NewPostManager(store, nil)
	ctx := context.Background()
	require.NoError(t, m.Load(ctx))

	created, err := m.Save(ctx, "", models.PostInput{Title: "Nouveau", Content: "c", Excerpt: "e"})
	require.NoError(t, err)
	assert.Equal(t, "new", created.ID)
	assert.Equal(t, []string{"new", "a"}, postIDs(m.Posts()))

	updated, err := m.Save(ctx, "a", models.PostInput{Title: "A2", Content: "c2", Excerpt: "e2", Published: true})
	require.NoError(t, err)
	assert.Equal(t, "A2", updated.Title)
	assert.Equal(t, models.CategoryNews, updated.Category, "empty category keeps the current one")
	assert.True(t, m.Posts()[1].Published)
}

func TestPostManager_Delete(t *testing.T) {
	store := &fakePosts{posts: []models.Post{{ID: "a"}, {ID: "b"}}}
	m := NewPostManager(store, nil)
	ctx := context.Background()
	require.NoError(t, m.Load(ctx))

	assert.ErrorIs(t, m.Delete(ctx, "a", refuse), ErrCancelled)
	assert.ErrorIs(t, m.Delete(ctx, "a", nil), ErrCancelled)
	assert.Empty(t, store.deletes, "no call without confirmation")

	boom := errors.New("prompt closed")
	err := m.Delete(ctx, "a", ConfirmFunc(func(context.Context, string) (bool, error) { return false, boom }))
	assert.ErrorIs(t, err, boom)

	err = m.Delete(ctx, "missing-id", AutoConfirm)
	assert.True(t, backend.IsNotFound(err))
	assert.Equal(t, []string{"a", "b"}, postIDs(m.Posts()), "failed delete leaves the list")

	var prompt string
	require.NoError(t, m.Delete(ctx, "a", ConfirmFunc(func(_ context.Context, p string) (bool, error) {
		prompt = p
		return true, nil
	})))
	assert.Contains(t, prompt, "Supprimer")
	assert.Equal(t, []string{"b"}, postIDs(m.Posts()))
}

func TestPostManager_DropsStaleLoad(t *testing.T) {
	store := &fakePosts{posts: []models.Post{{ID: "a"}}, gate: make(chan struct{})}
	m := NewPostManager(store, nil)

	errc := make(chan error, 1)
	go func() { errc <- m.Load(context.Background()) }()

	// Wait for the load to be in flight before resetting.
	require.Eventually(t, func() bool {
		m.gen.mu.Lock()
		defer m.gen.mu.Unlock()
		return m.gen.n == 1
	}, time.Second, time.Millisecond)
	m.Reset()
	close(store.gate)

	assert.ErrorIs(t, <-errc, ErrStale)
	assert.Empty(t, m.Posts())

	require.NoError(t, m.Load(context.Background()))
	assert.Equal(t, []string{"a"}, postIDs(m.Posts()))
}

func TestCommentManager_Workflow(t *testing.T) {
	store := &fakeComments{comments: []models.ModerationComment{comment("c1", false), comment("c2", false), comment("c3", true)}}
	m := NewCommentManager(store, nil)
	ctx := context.Background()

	assert.Equal(t, models.CommentFilterPending, m.Filter())
	require.NoError(t, m.Load(ctx))
	assert.Equal(t, []string{"c1", "c2"}, commentIDs(m.Comments()))

	n, err := m.PendingCount(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	require.NoError(t, m.Approve(ctx, "c1"))
	assert.Equal(t, []string{"c2"}, commentIDs(m.Comments()), "approved comments leave the pending list")
	require.NoError(t, m.Approve(ctx, "c1"), "approving twice succeeds")

	require.NoError(t, m.SetFilter(ctx, models.CommentFilterAll))
	require.NoError(t, m.Approve(ctx, "c2"))
	want := []models.ModerationComment{comment("c1", true), comment("c2", true), comment("c3", true)}
	if diff := cmp.Diff(want, m.Comments()); diff != "" {
		t.Errorf("comments mismatch (-want +got):\n%s", diff)
	}

	assert.ErrorIs(t, m.Reject(ctx, "c3", refuse), ErrCancelled)
	require.NoError(t, m.Reject(ctx, "c3", AutoConfirm))
	assert.Equal(t, []string{"c1", "c2"}, commentIDs(m.Comments()))
	assert.Equal(t, []string{"c3"}, store.rejected)

	assert.Error(t, m.SetFilter(ctx, "spam"))
	assert.Equal(t, models.CommentFilterAll, m.Filter())
	assert.Equal(t, []models.CommentFilter{models.CommentFilterPending, models.CommentFilterAll}, store.filters)

	err = m.Approve(ctx, "gone")
	assert.True(t, backend.IsNotFound(err))
}

func TestUserManager_SetRole(t *testing.T) {
	store := &fakeProfiles{profiles: []models.Profile{
		{ID: "admin", Email: "pasteur@chapel.local", Role: models.RoleAdmin},
		{ID: "u1", Email: "u1@chapel.local", Role: models.RoleUser},
	}}
	m := NewUserManager(store)
	ctx := context.Background()
	require.NoError(t, m.Load(ctx))

	_, err := m.SetRole(ctx, "admin", models.RoleUser)
	assert.True(t, backend.IsConflict(err), "last admin cannot be demoted")

	p, err := m.SetRole(ctx, "u1", models.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, p.Role)

	_, err = m.SetRole(ctx, "admin", models.RoleUser)
	require.NoError(t, err, "self-demotion allowed while another admin exists")

	want := []models.Profile{
		{ID: "admin", Email: "pasteur@chapel.local", Role: models.RoleUser},
		{ID: "u1", Email: "u1@chapel.local", Role: models.RoleAdmin},
	}
	if diff := cmp.Diff(want, m.Profiles()); diff != "" {
		t.Errorf("profiles mismatch (-want +got):\n%s", diff)
	}

	m.Reset()
	assert.Empty(t, m.Profiles())
}
