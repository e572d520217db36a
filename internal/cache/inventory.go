package cache

import (
	"context"
	"time"
)

const (
	ProfileKeyPrefix   = "profile:"
	BlacklistKeyPrefix = "blacklist:"
	WSTicketKeyPrefix  = "ws_ticket:"
)

const (
	ProfileTTL  = 5 * time.Minute
	WSTicketTTL = 60 * time.Second
)

// ProfileKey caches a profile row; role checks read it on every privileged request.
func ProfileKey(userID string) string {
	return ProfileKeyPrefix + userID
}

// BlacklistKey marks a revoked access token by its JTI.
func BlacklistKey(jti string) string {
	return BlacklistKeyPrefix + jti
}

// WSTicketKey holds a single-use websocket ticket.
func WSTicketKey(ticket string) string {
	return WSTicketKeyPrefix + ticket
}

func Invalidate(ctx context.Context, key string) {
	if client != nil {
		client.Del(ctx, key)
	}
}

func InvalidateProfile(ctx context.Context, userID string) {
	Invalidate(ctx, ProfileKey(userID))
}
