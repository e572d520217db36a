package backend_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"chapel/internal/backend"
	"chapel/internal/config"
	"chapel/internal/models"
	"chapel/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newClient(b *testutil.Backend) *backend.Client {
	return backend.New(b.URL, testutil.AnonKey)
}

func TestNew_NormalizesBaseURL(t *testing.T) {
	tests := map[string]string{
		"http://h:1":       "http://h:1/api",
		"http://h:1/":      "http://h:1/api",
		"http://h:1/api":   "http://h:1/api",
		" http://h:1/api/": "http://h:1/api",
	}
	for in, want := range tests {
		assert.Equal(t, want, backend.New(in, "k").BaseURL(), in)
	}
}

func TestNewFromConfig_RequiresBothValues(t *testing.T) {
	_, err := backend.NewFromConfig(&config.ClientConfig{BackendURL: "http://h"})
	require.ErrorIs(t, err, config.ErrMissingClientConfig)
	assert.Contains(t, err.Error(), "CHAPEL_ANON_KEY")

	c, err := backend.NewFromConfig(&config.ClientConfig{BackendURL: "http://h", AnonKey: "k", RequestTimeout: time.Second})
	require.NoError(t, err)
	assert.Equal(t, "k", c.AnonKey())
}

func TestSignUpSignInSignOut(t *testing.T) {
	b := testutil.NewBackend(t)
	c := newClient(b)
	ctx := context.Background()

	s, err := c.SignUp(ctx, "a@x.com", "pw123456", "Alice")
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", s.User.Email)
	require.NotNil(t, s.Profile)
	assert.Equal(t, models.RoleUser, s.Profile.Role)
	assert.Equal(t, "Alice", s.Profile.DisplayName())
	assert.Equal(t, s.AccessToken, c.Token())

	_, err = c.SignUp(ctx, "a@x.com", "pw123456", "Alice")
	assert.True(t, backend.IsConflict(err), "got %v", err)

	user, profile, err := c.CurrentUser(ctx)
	require.NoError(t, err)
	assert.Equal(t, s.User.ID, user.ID)
	assert.Equal(t, s.User.ID, profile.ID)

	revoked := c.Token()
	require.NoError(t, c.SignOut(ctx))
	assert.Empty(t, c.Token())

	c.SetToken(revoked)
	_, _, err = c.CurrentUser(ctx)
	assert.True(t, backend.IsUnauthorized(err), "got %v", err)

	_, err = c.SignIn(ctx, "a@x.com", "wrong-password")
	assert.True(t, backend.IsUnauthorized(err), "got %v", err)

	_, err = c.SignIn(ctx, "A@X.com", "pw123456")
	require.NoError(t, err)
}

func TestPostsAndComments(t *testing.T) {
	b := testutil.NewBackend(t)
	ctx := context.Background()
	admin := b.CreateUser(t, "pasteur@chapel.local", "Pasteur", models.RoleAdmin)
	reader := b.CreateUser(t, "lecteur@chapel.local", "Lecteur", models.RoleUser)

	published := b.CreatePost(t, admin, true)
	draft := b.CreatePost(t, admin, false)

	anon := newClient(b)
	posts, err := anon.ListPublishedPosts(ctx, "")
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, published.ID, posts[0].ID)

	_, err = anon.GetPublishedPost(ctx, draft.ID)
	assert.True(t, backend.IsNotFound(err), "got %v", err)

	_, err = anon.ListAllPosts(ctx)
	assert.True(t, backend.IsUnauthorized(err), "got %v", err)

	rc := newClient(b)
	_, err = rc.SignIn(ctx, reader.Email, testutil.Password)
	require.NoError(t, err)
	_, err = rc.ListAllPosts(ctx)
	assert.True(t, backend.IsForbidden(err), "got %v", err)

	comment, err := rc.SubmitComment(ctx, published.ID, "Amen")
	require.NoError(t, err)
	assert.False(t, comment.Approved)
	assert.Equal(t, reader.ID, comment.UserID)

	list, err := anon.ListComments(ctx, published.ID)
	require.NoError(t, err)
	assert.Empty(t, list)

	ac := newClient(b)
	_, err = ac.SignIn(ctx, admin.Email, testutil.Password)
	require.NoError(t, err)

	count, err := ac.PendingCommentCount(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)

	pending, err := ac.ListModerationComments(ctx, models.CommentFilterPending)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, published.Title, pending[0].PostTitle)

	approved, err := ac.ApproveComment(ctx, comment.ID)
	require.NoError(t, err)
	assert.True(t, approved.Approved)

	list, err = anon.ListComments(ctx, published.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)

	require.NoError(t, ac.DeletePost(ctx, draft.ID))
	err = ac.DeletePost(ctx, "missing-id")
	assert.True(t, backend.IsNotFound(err), "got %v", err)

	events, err := ac.ListAuditEvents(ctx, backend.AuditQuery{Action: models.ActionCommentApproved})
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, comment.ID, events[0].TargetID)
	assert.Equal(t, admin.ID, events[0].ActorID)
}

func TestAdminWrites(t *testing.T) {
	b := testutil.NewBackend(t)
	ctx := context.Background()
	admin := b.CreateUser(t, "pasteur@chapel.local", "Pasteur", models.RoleAdmin)
	member := b.CreateUser(t, "u1@chapel.local", "Membre", models.RoleUser)

	ac := newClient(b)
	_, err := ac.SignIn(ctx, admin.Email, testutil.Password)
	require.NoError(t, err)

	post, err := ac.CreatePost(ctx, models.PostInput{Title: "Grace", Content: "Texte", Excerpt: "Résumé"})
	require.NoError(t, err)
	assert.Equal(t, models.DefaultPostCategory, post.Category)
	assert.Equal(t, "Pasteur", post.AuthorName)
	assert.False(t, post.Published)

	publish := true
	post, err = ac.UpdatePost(ctx, post.ID, models.PostPatch{Published: &publish})
	require.NoError(t, err)
	assert.True(t, post.Published)

	_, err = ac.CreatePost(ctx, models.PostInput{Title: "", Content: "x", Excerpt: "y"})
	assert.True(t, backend.IsValidation(err), "got %v", err)

	profiles, err := ac.ListProfiles(ctx)
	require.NoError(t, err)
	assert.Len(t, profiles, 2)

	promoted, err := ac.SetRole(ctx, member.ID, models.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, promoted.Role)

	_, err = ac.SetRole(ctx, member.ID, models.Role("owner"))
	assert.True(t, backend.IsValidation(err), "got %v", err)

	ticket, err := ac.IssueWSTicket(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, ticket)
}

func TestAPIErrorDecoding(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "k", r.Header.Get("apikey"))
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte(`{"error":"Email already registered","code":"CONFLICT","details":"a@x.com"}`))
	}))
	defer ts.Close()

	c := backend.New(ts.URL, "k")
	c.SetToken("tok")
	_, err := c.MyProfile(context.Background())

	var apiErr *backend.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusConflict, apiErr.Status)
	assert.Equal(t, models.CodeConflict, apiErr.Code)
	assert.Equal(t, "Email already registered (CONFLICT): a@x.com", apiErr.Error())
	assert.True(t, backend.IsConflict(err))
	assert.False(t, backend.IsNotFound(err))
}

func TestAPIErrorDecoding_RateLimited(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Retry-After", "600")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":"rate limit exceeded","code":"RATE_LIMITED"}`))
	}))
	defer ts.Close()

	_, err := backend.New(ts.URL, "k").SignUp(context.Background(), "b@x.com", "pw123456", "Bob")
	assert.True(t, backend.IsRateLimited(err), "got %v", err)
	assert.False(t, backend.IsValidation(err))
}

func TestNetworkError(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	url := ts.URL
	ts.Close()

	_, err := backend.New(url, "k").ListPublishedPosts(context.Background(), "")
	require.Error(t, err)
	assert.True(t, backend.IsNetwork(err))
	assert.False(t, backend.IsNotFound(err))
}
