// Package notifications provides real-time notification delivery and management.
package notifications

import (
	"context"
	"log/slog"
	"runtime/debug"

	"chapel/internal/middleware"

	"github.com/redis/go-redis/v9"
)

// ModerationChannel carries moderation events to every API instance.
const ModerationChannel = "moderation:events"

// Notifier provides helpers to publish notifications into Redis channels
type Notifier struct {
	rdb *redis.Client
}

// NewNotifier creates a new Notifier instance using the provided Redis client.
func NewNotifier(rdb *redis.Client) *Notifier {
	return &Notifier{rdb: rdb}
}

// PublishModeration sends an encoded moderation event to all instances.
func (n *Notifier) PublishModeration(ctx context.Context, payload string) error {
	if n == nil || n.rdb == nil {
		return nil
	}
	return n.rdb.Publish(ctx, ModerationChannel, payload).Err()
}

// StartModerationSubscriber subscribes to the moderation channel and calls onMessage
// for each incoming payload until ctx is cancelled.
func (n *Notifier) StartModerationSubscriber(ctx context.Context, onMessage func(payload string)) error {
	if n == nil || n.rdb == nil {
		return nil
	}
	sub := n.rdb.Subscribe(ctx, ModerationChannel)
	// Wait for the subscription confirmation so publishes right after start are not lost.
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return err
	}
	ch := sub.Channel()

	go func() {
		defer func() { _ = sub.Close() }()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				func() {
					defer func() {
						if r := recover(); r != nil {
							middleware.Logger.Error("panic in moderation subscriber",
								slog.Any("panic", r), slog.String("stack", string(debug.Stack())))
						}
					}()
					onMessage(msg.Payload)
				}()
			}
		}
	}()

	return nil
}
