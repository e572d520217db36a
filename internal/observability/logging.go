// Package observability provides logging, metrics, and tracing.
package observability

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"sync/atomic"

	"gorm.io/gorm"
)

var base atomic.Pointer[slog.Logger]

func init() {
	base.Store(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})))
}

// SetLogger routes repository, feed and async logs through l.
// The middleware package installs its request-aware logger here at startup.
func SetLogger(l *slog.Logger) {
	if l != nil {
		base.Store(l)
	}
}

func logger() *slog.Logger { return base.Load() }

// LoggingConfig defines which types of automated logging are enabled.
type LoggingConfig struct {
	EnableRepoLogging bool
	EnableFeedLogging bool
}

// Config holds the current logging configuration.
var Config = LoggingConfig{
	EnableRepoLogging: true,
	EnableFeedLogging: true,
}

// RepoLogger logs writes against one content table.
type RepoLogger struct {
	table string
}

// NewRepoLogger creates a RepoLogger for table.
func NewRepoLogger(table string) *RepoLogger {
	return &RepoLogger{table: table}
}

func (l *RepoLogger) log(ctx context.Context, operation string, fields map[string]any) {
	if !Config.EnableRepoLogging {
		return
	}
	attrs := []any{
		slog.String("table", l.table),
		slog.String("operation", operation),
	}
	for k, v := range fields {
		attrs = append(attrs, slog.Any(k, v))
	}
	logger().InfoContext(ctx, "repository "+operation, attrs...)
}

// LogCreate logs an inserted row.
func (l *RepoLogger) LogCreate(ctx context.Context, fields map[string]any) {
	l.log(ctx, "create", fields)
}

// LogUpdate logs an updated row.
func (l *RepoLogger) LogUpdate(ctx context.Context, fields map[string]any) {
	l.log(ctx, "update", fields)
}

// LogDelete logs a deleted row.
func (l *RepoLogger) LogDelete(ctx context.Context, fields map[string]any) {
	l.log(ctx, "delete", fields)
}

// LogError logs a failed repository operation. A missing row is an expected
// outcome for lookups by id and only logs at debug level.
func (l *RepoLogger) LogError(ctx context.Context, err error, operation string) {
	if !Config.EnableRepoLogging || err == nil {
		return
	}
	level := slog.LevelError
	if errors.Is(err, gorm.ErrRecordNotFound) {
		level = slog.LevelDebug
	}
	logger().Log(ctx, level, "repository error",
		slog.String("table", l.table),
		slog.String("operation", operation),
		slog.String("error", err.Error()),
	)
}

// FeedLogger logs the lifecycle of moderation feed connections.
type FeedLogger struct {
	hub string
}

// NewFeedLogger creates a FeedLogger for the named hub.
func NewFeedLogger(hub string) *FeedLogger {
	return &FeedLogger{hub: hub}
}

// LogConnect logs an admin joining the feed.
func (l *FeedLogger) LogConnect(ctx context.Context, userID string, open int) {
	if !Config.EnableFeedLogging {
		return
	}
	logger().InfoContext(ctx, "feed connected",
		slog.String("hub", l.hub),
		slog.String("user_id", userID),
		slog.Int("open_connections", open),
	)
}

// LogDisconnect logs a feed connection ending.
func (l *FeedLogger) LogDisconnect(ctx context.Context, userID, reason string) {
	if !Config.EnableFeedLogging {
		return
	}
	logger().InfoContext(ctx, "feed disconnected",
		slog.String("hub", l.hub),
		slog.String("user_id", userID),
		slog.String("reason", reason),
	)
}

// LogRevoked logs the feed connections closed because userID lost the admin role.
func (l *FeedLogger) LogRevoked(ctx context.Context, userID string, closed int) {
	if !Config.EnableFeedLogging || closed == 0 {
		return
	}
	logger().WarnContext(ctx, "feed access revoked",
		slog.String("hub", l.hub),
		slog.String("user_id", userID),
		slog.Int("closed_connections", closed),
	)
}

// LogError logs a feed read or write failure.
func (l *FeedLogger) LogError(ctx context.Context, userID string, err error, op string) {
	if !Config.EnableFeedLogging {
		return
	}
	logger().ErrorContext(ctx, "feed error",
		slog.String("hub", l.hub),
		slog.String("user_id", userID),
		slog.String("op", op),
		slog.String("error", err.Error()),
	)
}

// LogAsyncOperationError logs an error in an asynchronous operation.
func LogAsyncOperationError(ctx context.Context, operation string, err error, fields map[string]any) {
	attrs := []any{
		slog.String("operation", operation),
		slog.String("type", "async_error"),
		slog.String("error", err.Error()),
	}
	for k, v := range fields {
		attrs = append(attrs, slog.Any(k, v))
	}
	logger().ErrorContext(ctx, "async operation failed", attrs...)
}
