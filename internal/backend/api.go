package backend

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"chapel/internal/models"
)

// User is the identity half of a session.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// Session is returned by sign-up and sign-in.
type Session struct {
	AccessToken string          `json:"access_token"`
	TokenType   string          `json:"token_type"`
	ExpiresIn   int64           `json:"expires_in"`
	User        User            `json:"user"`
	Profile     *models.Profile `json:"profile"`
}

// AuditQuery filters the moderation audit trail.
type AuditQuery struct {
	ActorID    string
	Action     string
	TargetType string
	TargetID   string
	Since      time.Time
	Limit      int
}

// SignUp registers a new account and stores the returned token.
func (c *Client) SignUp(ctx context.Context, email, password, fullName string) (*Session, error) {
	var s Session
	err := c.do(ctx, http.MethodPost, "/auth/signup", nil, map[string]string{
		"email": email, "password": password, "full_name": fullName,
	}, &s)
	if err != nil {
		return nil, err
	}
	c.SetToken(s.AccessToken)
	return &s, nil
}

// SignIn authenticates and stores the returned token.
func (c *Client) SignIn(ctx context.Context, email, password string) (*Session, error) {
	var s Session
	err := c.do(ctx, http.MethodPost, "/auth/login", nil, map[string]string{
		"email": email, "password": password,
	}, &s)
	if err != nil {
		return nil, err
	}
	c.SetToken(s.AccessToken)
	return &s, nil
}

// SignOut revokes the token server-side. The local token is always cleared.
func (c *Client) SignOut(ctx context.Context) error {
	if c.Token() == "" {
		return nil
	}
	err := c.do(ctx, http.MethodPost, "/auth/logout", nil, nil, nil)
	c.SetToken("")
	return err
}

// CurrentUser returns the identity behind the current token.
func (c *Client) CurrentUser(ctx context.Context) (*User, *models.Profile, error) {
	var out struct {
		User    User           `json:"user"`
		Profile models.Profile `json:"profile"`
	}
	if err := c.do(ctx, http.MethodGet, "/auth/user", nil, nil, &out); err != nil {
		return nil, nil, err
	}
	return &out.User, &out.Profile, nil
}

// ChangePassword replaces the signed-in user's password.
func (c *Client) ChangePassword(ctx context.Context, current, next string) error {
	return c.do(ctx, http.MethodPost, "/auth/password", nil, map[string]string{
		"current_password": current, "new_password": next,
	}, nil)
}

func (c *Client) MyProfile(ctx context.Context) (*models.Profile, error) {
	var p models.Profile
	if err := c.do(ctx, http.MethodGet, "/profiles/me", nil, nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *Client) UpdateMyProfile(ctx context.Context, patch models.ProfilePatch) (*models.Profile, error) {
	var p models.Profile
	if err := c.do(ctx, http.MethodPatch, "/profiles/me", nil, patch, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *Client) GetProfile(ctx context.Context, id string) (*models.Profile, error) {
	var p models.Profile
	if err := c.do(ctx, http.MethodGet, "/profiles/"+url.PathEscape(id), nil, nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// ListProfiles is admin-only.
func (c *Client) ListProfiles(ctx context.Context) ([]models.Profile, error) {
	var out []models.Profile
	if err := c.do(ctx, http.MethodGet, "/profiles", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// SetRole is admin-only.
func (c *Client) SetRole(ctx context.Context, id string, role models.Role) (*models.Profile, error) {
	var p models.Profile
	path := "/profiles/" + url.PathEscape(id) + "/role"
	if err := c.do(ctx, http.MethodPatch, path, nil, map[string]models.Role{"role": role}, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// ListPublishedPosts returns published posts, newest first.
func (c *Client) ListPublishedPosts(ctx context.Context, category string) ([]models.Post, error) {
	var q url.Values
	if category != "" {
		q = url.Values{"category": {category}}
	}
	var out []models.Post
	if err := c.do(ctx, http.MethodGet, "/posts", q, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetPublishedPost(ctx context.Context, id string) (*models.Post, error) {
	var p models.Post
	if err := c.do(ctx, http.MethodGet, "/posts/"+url.PathEscape(id), nil, nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// ListAllPosts includes drafts and is admin-only.
func (c *Client) ListAllPosts(ctx context.Context) ([]models.Post, error) {
	var out []models.Post
	if err := c.do(ctx, http.MethodGet, "/admin/posts", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreatePost(ctx context.Context, in models.PostInput) (*models.Post, error) {
	var p models.Post
	if err := c.do(ctx, http.MethodPost, "/admin/posts", nil, in, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *Client) UpdatePost(ctx context.Context, id string, patch models.PostPatch) (*models.Post, error) {
	var p models.Post
	if err := c.do(ctx, http.MethodPatch, "/admin/posts/"+url.PathEscape(id), nil, patch, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *Client) DeletePost(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/admin/posts/"+url.PathEscape(id), nil, nil, nil)
}

// ListComments returns the approved comments of a published post, oldest first.
func (c *Client) ListComments(ctx context.Context, postID string) ([]models.Comment, error) {
	var out []models.Comment
	if err := c.do(ctx, http.MethodGet, "/posts/"+url.PathEscape(postID)+"/comments", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// SubmitComment posts a comment as the signed-in user; it comes back unapproved.
func (c *Client) SubmitComment(ctx context.Context, postID, content string) (*models.Comment, error) {
	var out models.Comment
	path := "/posts/" + url.PathEscape(postID) + "/comments"
	if err := c.do(ctx, http.MethodPost, path, nil, map[string]string{"content": content}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ListModerationComments(ctx context.Context, filter models.CommentFilter) ([]models.ModerationComment, error) {
	var out []models.ModerationComment
	q := url.Values{"filter": {string(filter)}}
	if err := c.do(ctx, http.MethodGet, "/admin/comments", q, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) PendingCommentCount(ctx context.Context) (int64, error) {
	var out struct {
		Count int64 `json:"count"`
	}
	if err := c.do(ctx, http.MethodGet, "/admin/comments/pending-count", nil, nil, &out); err != nil {
		return 0, err
	}
	return out.Count, nil
}

func (c *Client) ApproveComment(ctx context.Context, id string) (*models.Comment, error) {
	var out models.Comment
	if err := c.do(ctx, http.MethodPost, "/admin/comments/"+url.PathEscape(id)+"/approve", nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) RejectComment(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/admin/comments/"+url.PathEscape(id), nil, nil, nil)
}

func (c *Client) ListAuditEvents(ctx context.Context, q AuditQuery) ([]models.ModerationEvent, error) {
	v := url.Values{}
	for key, val := range map[string]string{
		"actor_id": q.ActorID, "action": q.Action, "target_type": q.TargetType, "target_id": q.TargetID,
	} {
		if val != "" {
			v.Set(key, val)
		}
	}
	if !q.Since.IsZero() {
		v.Set("since", q.Since.UTC().Format(time.RFC3339))
	}
	if q.Limit > 0 {
		v.Set("limit", strconv.Itoa(q.Limit))
	}
	var out []models.ModerationEvent
	if err := c.do(ctx, http.MethodGet, "/admin/audit", v, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// IssueWSTicket returns a single-use ticket for the moderation feed.
func (c *Client) IssueWSTicket(ctx context.Context) (string, error) {
	var out struct {
		Ticket string `json:"ticket"`
	}
	if err := c.do(ctx, http.MethodPost, "/ws/ticket", nil, nil, &out); err != nil {
		return "", err
	}
	return out.Ticket, nil
}
