package cache

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const (
	PrefKeyPrefix     = "prefs:%s"
	UserEventsPrefix  = "events:user:%s"
	UserEventsPattern = "events:user:*"
)

func PrefKey(name string) string {
	return fmt.Sprintf(PrefKeyPrefix, name)
}

func UserEventsChannel(userID string) string {
	return fmt.Sprintf(UserEventsPrefix, userID)
}

// Invalidate deletes key. A nil client is a no-op.
func Invalidate(ctx context.Context, client *redis.Client, key string) error {
	if client == nil {
		return nil
	}
	return client.Del(ctx, key).Err()
}
