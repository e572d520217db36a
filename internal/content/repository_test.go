package content_test

import (
	"context"
	"testing"

	"chapel/internal/backend"
	"chapel/internal/content"
	"chapel/internal/models"
	"chapel/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func repoFor(t *testing.T, b *testutil.Backend, email string) *content.Repository {
	t.Helper()
	c := backend.New(b.URL, testutil.AnonKey)
	if email != "" {
		_, err := c.SignIn(context.Background(), email, testutil.Password)
		require.NoError(t, err)
	}
	return content.NewRepository(c, nil)
}

func TestListPublishedPosts_NeverIncludesDrafts(t *testing.T) {
	b := testutil.NewBackend(t)
	admin := b.CreateUser(t, "pasteur@chapel.local", "Pasteur", models.RoleAdmin)
	b.CreateUser(t, "lecteur@chapel.local", "Lecteur", models.RoleUser)

	b.CreatePost(t, admin, true, func(p *models.Post) { p.Category = models.CategoryMeditation })
	b.CreatePost(t, admin, true, func(p *models.Post) { p.Category = models.CategoryNews })
	b.CreatePost(t, admin, false, func(p *models.Post) { p.Category = models.CategoryNews })

	for _, email := range []string{"", "lecteur@chapel.local", "pasteur@chapel.local"} {
		repo := repoFor(t, b, email)
		posts, err := repo.ListPublishedPosts(context.Background(), models.PostFilter{})
		require.NoError(t, err, email)
		require.Len(t, posts, 2, email)
		for _, p := range posts {
			assert.True(t, p.Published, email)
		}
		assert.False(t, posts[0].CreatedAt.Before(posts[1].CreatedAt), "newest first")

		news, err := repo.ListPublishedPosts(context.Background(), models.PostFilter{Category: models.CategoryNews})
		require.NoError(t, err)
		require.Len(t, news, 1)
		assert.Equal(t, models.CategoryNews, news[0].Category)
	}
}

func TestSubmitComment_AlwaysPending(t *testing.T) {
	b := testutil.NewBackend(t)
	admin := b.CreateUser(t, "pasteur@chapel.local", "Pasteur", models.RoleAdmin)
	post := b.CreatePost(t, admin, true)

	repo := repoFor(t, b, admin.Email)
	c, err := repo.SubmitComment(context.Background(), post.ID, admin.ID, "Pasteur", "Amen")
	require.NoError(t, err)
	assert.False(t, c.Approved)
	assert.Equal(t, admin.ID, c.UserID)
	assert.Equal(t, "Pasteur", c.UserName)

	_, err = repo.SubmitComment(context.Background(), post.ID, "", "", "Amen")
	assert.ErrorIs(t, err, content.ErrNotSignedIn)

	_, err = repo.SubmitComment(context.Background(), post.ID, admin.ID, "Pasteur", "   ")
	require.Error(t, err)

	anon := repoFor(t, b, "")
	_, err = anon.SubmitComment(context.Background(), post.ID, "forged", "Forged", "Amen")
	assert.True(t, backend.IsUnauthorized(err), "got %v", err)
}

func TestListCommentsForPost_OnlyApproved(t *testing.T) {
	b := testutil.NewBackend(t)
	admin := b.CreateUser(t, "pasteur@chapel.local", "Pasteur", models.RoleAdmin)
	reader := b.CreateUser(t, "lecteur@chapel.local", "Lecteur", models.RoleUser)
	post := b.CreatePost(t, admin, true)

	approved := b.CreateComment(t, reader, post, true)
	b.CreateComment(t, reader, post, false)
	b.CreateComment(t, admin, post, false)

	comments, err := repoFor(t, b, "").ListCommentsForPost(context.Background(), post.ID)
	require.NoError(t, err)
	require.Len(t, comments, 1)
	assert.Equal(t, approved.ID, comments[0].ID)

	moderation, err := repoFor(t, b, admin.Email).ListCommentsForModeration(context.Background(), models.CommentFilterAll)
	require.NoError(t, err)
	assert.Len(t, moderation, 3)
}

func TestListCommentsForPost_MissingPostIsEmpty(t *testing.T) {
	b := testutil.NewBackend(t)
	admin := b.CreateUser(t, "pasteur@chapel.local", "Pasteur", models.RoleAdmin)
	draft := b.CreatePost(t, admin, false)
	approved := b.CreateComment(t, admin, draft, true)

	comments, err := repoFor(t, b, "").ListCommentsForPost(context.Background(), "missing-id")
	require.NoError(t, err)
	assert.Empty(t, comments)

	comments, err = repoFor(t, b, admin.Email).ListCommentsForPost(context.Background(), draft.ID)
	require.NoError(t, err)
	require.Len(t, comments, 1)
	assert.Equal(t, approved.ID, comments[0].ID)
}

func TestSetUserRole_PromotedUserSeesDrafts(t *testing.T) {
	b := testutil.NewBackend(t)
	admin := b.CreateUser(t, "pasteur@chapel.local", "Pasteur", models.RoleAdmin)
	u1 := b.CreateUser(t, "u1@chapel.local", "Membre", models.RoleUser)
	draft := b.CreatePost(t, admin, false)

	member := repoFor(t, b, u1.Email)
	_, err := member.ListAllPosts(context.Background())
	assert.True(t, backend.IsForbidden(err), "got %v", err)

	_, err = member.SetUserRole(context.Background(), u1.ID, models.RoleAdmin)
	assert.True(t, backend.IsForbidden(err), "got %v", err)

	updated, err := repoFor(t, b, admin.Email).SetUserRole(context.Background(), u1.ID, models.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, updated.Role)

	posts, err := member.ListAllPosts(context.Background())
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, draft.ID, posts[0].ID)
	assert.False(t, posts[0].Published)

	_, err = member.SetUserRole(context.Background(), u1.ID, models.Role("owner"))
	require.Error(t, err)
}

func TestDeletePost_MissingSurfacesNotFound(t *testing.T) {
	b := testutil.NewBackend(t)
	admin := b.CreateUser(t, "pasteur@chapel.local", "Pasteur", models.RoleAdmin)

	err := repoFor(t, b, admin.Email).DeletePost(context.Background(), "missing-id")
	assert.True(t, backend.IsNotFound(err), "got %v", err)
}

func TestProfilesAndAudit(t *testing.T) {
	b := testutil.NewBackend(t)
	admin := b.CreateUser(t, "pasteur@chapel.local", "Pasteur", models.RoleAdmin)
	reader := b.CreateUser(t, "lecteur@chapel.local", "Lecteur", models.RoleUser)
	post := b.CreatePost(t, admin, true)
	comment := b.CreateComment(t, reader, post, false)

	repo := repoFor(t, b, admin.Email)
	ctx := context.Background()

	p, err := repo.GetProfile(ctx, reader.ID)
	require.NoError(t, err)
	assert.Equal(t, "Lecteur", p.DisplayName())

	_, err = repoFor(t, b, reader.Email).GetProfile(ctx, admin.ID)
	assert.True(t, backend.IsForbidden(err), "got %v", err)

	n, err := repo.PendingCommentCount(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	require.NoError(t, repo.RejectComment(ctx, comment.ID))

	events, err := repo.ListAuditEvents(ctx, backend.AuditQuery{TargetID: comment.ID})
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, models.ActionCommentRejected, events[0].Action)
	assert.Contains(t, events[0].Detail, comment.Content)
}
