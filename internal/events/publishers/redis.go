package publishers

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"custody/internal/events/models"
)

// ChannelPrefix namespaces pub/sub channels: custody.<Type>.
const ChannelPrefix = "custody."

// RedisPubSub is the subset of *redis.Client the Redis publisher needs.
type RedisPubSub interface {
	Publish(ctx context.Context, channel string, message any) *redis.IntCmd
}

// Redis fans notifications out to live subscribers. Pub/sub has no replay, so
// it complements rather than replaces the Kafka stream.
type Redis struct {
	client RedisPubSub
}

func NewRedis(client RedisPubSub) *Redis {
	return &Redis{client: client}
}

func (r *Redis) Publish(ctx context.Context, batch []*models.Envelope) error {
	for _, env := range batch {
		payload, err := json.Marshal(env)
		if err != nil {
			return fmt.Errorf("marshal envelope %s: %w", env.ID, err)
		}
		if err := r.client.Publish(ctx, Channel(env.Type), payload).Err(); err != nil {
			return fmt.Errorf("publish %s: %w", env.Type, err)
		}
	}
	return nil
}

// Channel returns the pub/sub channel for a notification type.
func Channel(t models.Type) string {
	return ChannelPrefix + string(t)
}
