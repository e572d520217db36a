package service

import (
	"context"
	"strings"
	"testing"

	"chapel/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommentService_SubmitCommentStartsPending(t *testing.T) {
	t.Parallel()

	posts := newPostRepoStub(
		&models.Post{ID: "p1", Published: true},
		&models.Post{ID: "draft"},
	)
	comments := newCommentRepoStub()
	svc := NewCommentService(comments, posts, nil, adminsOnly("admin"))
	ctx := context.Background()

	c, err := svc.SubmitComment(ctx, SubmitCommentInput{UserID: "admin", UserName: "Admin", PostID: "p1", Content: "Amen"})
	require.NoError(t, err)
	assert.False(t, c.Approved, "admin comments are moderated too")

	_, err = svc.SubmitComment(ctx, SubmitCommentInput{UserID: "u1", PostID: "draft", Content: "hi"})
	assertCode(t, err, models.CodeNotFound)

	_, err = svc.SubmitComment(ctx, SubmitCommentInput{UserID: "u1", PostID: "p1", Content: "   "})
	assertCode(t, err, models.CodeValidation)

	_, err = svc.SubmitComment(ctx, SubmitCommentInput{UserID: "u1", PostID: "p1", Content: strings.Repeat("x", 5001)})
	assertCode(t, err, models.CodeValidation)

	_, err = svc.SubmitComment(ctx, SubmitCommentInput{PostID: "p1", Content: "anon"})
	assertCode(t, err, models.CodeUnauthorized)

	_, err = svc.SubmitComment(ctx, SubmitCommentInput{UserID: "u1", PostID: "p1", Content: "<script>x</script>"})
	assertCode(t, err, models.CodeValidation)

	c, err = svc.SubmitComment(ctx, SubmitCommentInput{UserID: "u1", PostID: "p1", Content: "<b>Gloire</b> à l'Éternel"})
	require.NoError(t, err)
	assert.Equal(t, "Gloire à l'Éternel", c.Content)
}

func TestCommentService_ListApproved(t *testing.T) {
	t.Parallel()

	posts := newPostRepoStub(&models.Post{ID: "p1", Published: true})
	comments := newCommentRepoStub(
		&models.Comment{ID: "c1", PostID: "p1"},
		&models.Comment{ID: "c2", PostID: "p1", Approved: true},
		&models.Comment{ID: "c3", PostID: "p1"},
	)
	svc := NewCommentService(comments, posts, nil, nil)

	got, err := svc.ListApproved(context.Background(), "p1")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "c2", got[0].ID)
}

func TestCommentService_ListApproved_MissingOrDraftPost(t *testing.T) {
	t.Parallel()

	posts := newPostRepoStub(&models.Post{ID: "draft", Published: false})
	comments := newCommentRepoStub(&models.Comment{ID: "c1", PostID: "draft", Approved: true})
	svc := NewCommentService(comments, posts, nil, nil)

	got, err := svc.ListApproved(context.Background(), "missing")
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = svc.ListApproved(context.Background(), "draft")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "c1", got[0].ID)
}

func TestCommentService_ApproveTwiceIsNoOp(t *testing.T) {
	t.Parallel()

	audit := &auditRepoStub{}
	comments := newCommentRepoStub(&models.Comment{ID: "c1", PostID: "p1"})
	svc := NewCommentService(comments, newPostRepoStub(), NewAuditService(audit, nil, nil), adminsOnly("admin"))
	ctx := context.Background()

	first, err := svc.Approve(ctx, "admin", "c1")
	require.NoError(t, err)
	assert.True(t, first.Approved)

	second, err := svc.Approve(ctx, "admin", "c1")
	require.NoError(t, err)
	assert.True(t, second.Approved)

	assert.Equal(t, 1, comments.approves)
	assert.Equal(t, []string{models.ActionCommentApproved}, audit.actions())

	_, err = svc.Approve(ctx, "u1", "c1")
	assertCode(t, err, models.CodeForbidden)
}

func TestCommentService_RejectAndModerationList(t *testing.T) {
	t.Parallel()

	audit := &auditRepoStub{}
	comments := newCommentRepoStub(
		&models.Comment{ID: "c1", PostID: "p1", Content: "spam"},
		&models.Comment{ID: "c2", PostID: "p1", Approved: true},
	)
	svc := NewCommentService(comments, newPostRepoStub(), NewAuditService(audit, nil, nil), adminsOnly("admin"))
	ctx := context.Background()

	pending, err := svc.ListForModeration(ctx, "admin", "")
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "c1", pending[0].ID)

	_, err = svc.ListForModeration(ctx, "admin", "rejected")
	assertCode(t, err, models.CodeValidation)

	n, err := svc.PendingCount(ctx, "admin")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	require.NoError(t, svc.Reject(ctx, "admin", "c1"))
	assertCode(t, svc.Reject(ctx, "admin", "c1"), models.CodeNotFound)
	require.Len(t, audit.events, 1)
	assert.Contains(t, audit.events[0].Detail, "spam")
}
