package scheduler

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const noncePrefix = "trainer:action-token:"

// RedisNonceStore remembers redeemed action token ids until they expire.
type RedisNonceStore struct {
	client *redis.Client
}

func NewRedisNonceStore(client *redis.Client) *RedisNonceStore {
	return &RedisNonceStore{client: client}
}

func (s *RedisNonceStore) Consume(ctx context.Context, id string, ttl time.Duration) (bool, error) {
	return s.client.SetNX(ctx, noncePrefix+id, 1, ttl).Result()
}
