package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"chapel/internal/models"

	"github.com/gorilla/websocket"
)

// Feed event types sent on the moderation websocket.
const (
	FeedConnected  = "connected"
	FeedModeration = "moderation_event"
)

// FeedEvent is one message from the moderation feed. Moderation is set for
// moderation_event messages.
type FeedEvent struct {
	Type       string                  `json:"type"`
	Payload    json.RawMessage         `json:"payload"`
	Moderation *models.ModerationEvent `json:"-"`
}

var (
	// ErrFeedClosed is returned when the server closed the feed normally.
	ErrFeedClosed = errors.New("moderation feed closed")
	// ErrFeedRevoked is returned when the server dropped the feed because the
	// signed-in user is no longer an admin.
	ErrFeedRevoked = errors.New("moderation feed revoked")
)

func (c *Client) feedURL(ticket string) (string, error) {
	u, err := url.Parse(c.baseURL + "/ws/moderation")
	if err != nil {
		return "", fmt.Errorf("parse feed url: %w", err)
	}
	switch strings.ToLower(u.Scheme) {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	q := u.Query()
	q.Set("apikey", c.anonKey)
	q.Set("ticket", ticket)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// WatchModeration opens the admin moderation feed and calls handle for every
// message until ctx ends, the server closes the feed or handle returns an error.
func (c *Client) WatchModeration(ctx context.Context, handle func(FeedEvent) error) error {
	ticket, err := c.IssueWSTicket(ctx)
	if err != nil {
		return fmt.Errorf("issue ticket: %w", err)
	}
	target, err := c.feedURL(ticket)
	if err != nil {
		return err
	}

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, target, nil)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		if resp != nil && resp.StatusCode >= http.StatusBadRequest {
			return &APIError{Status: resp.StatusCode, Message: "moderation feed refused"}
		}
		return fmt.Errorf("%w: dial moderation feed: %v", ErrNetwork, err)
	}
	defer func() { _ = conn.Close() }()

	stop := context.AfterFunc(ctx, func() {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), closeDeadline())
		_ = conn.Close()
	})
	defer stop()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return ErrFeedClosed
			}
			if websocket.IsCloseError(err, websocket.ClosePolicyViolation) {
				return ErrFeedRevoked
			}
			return fmt.Errorf("%w: read moderation feed: %v", ErrNetwork, err)
		}

		var ev FeedEvent
		if err := json.Unmarshal(data, &ev); err != nil {
			c.logger.WarnContext(ctx, "undecodable feed message", slog.String("error", err.Error()))
			continue
		}
		if ev.Type == FeedModeration {
			var m models.ModerationEvent
			if err := json.Unmarshal(ev.Payload, &m); err == nil {
				ev.Moderation = &m
			}
		}
		if err := handle(ev); err != nil {
			return err
		}
	}
}

func closeDeadline() time.Time { return time.Now().Add(time.Second) }
