package database

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"chapel/internal/middleware"

	"github.com/jackc/pgx/v5"
)

// WaitForPostgres pings the server with a raw pgx connection until it answers or ctx ends.
func WaitForPostgres(ctx context.Context, dsn string, interval time.Duration) error {
	if interval <= 0 {
		interval = time.Second
	}

	attempt := 0
	for {
		attempt++
		err := pingOnce(ctx, dsn)
		if err == nil {
			return nil
		}
		middleware.Logger.Info("waiting for postgres",
			slog.Int("attempt", attempt),
			slog.String("error", err.Error()),
		)

		select {
		case <-ctx.Done():
			return fmt.Errorf("postgres not ready after %d attempts: %w", attempt, err)
		case <-time.After(interval):
		}
	}
}

func pingOnce(ctx context.Context, dsn string) error {
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	conn, err := pgx.Connect(pingCtx, dsn)
	if err != nil {
		return err
	}
	defer conn.Close(context.Background())

	return conn.Ping(pingCtx)
}
