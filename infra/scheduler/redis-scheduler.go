package scheduler

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/SundayYogurt/trainer_service/internal/domain"
	"github.com/redis/go-redis/v9"
)

const defaultQueueKey = "trainer:tasks"

// RedisScheduler keeps delayed tasks in a sorted set scored by run time.
// The member is the task JSON, so scheduling the same task twice keeps one
// entry and moves its run time.
type RedisScheduler struct {
	client *redis.Client
	key    string
}

func NewRedisScheduler(client *redis.Client, key string) *RedisScheduler {
	if key == "" {
		key = defaultQueueKey
	}
	return &RedisScheduler{client: client, key: key}
}

func (s *RedisScheduler) Schedule(ctx context.Context, task domain.ScheduledTask) error {
	member, err := json.Marshal(task)
	if err != nil {
		return err
	}
	return s.client.ZAdd(ctx, s.key, redis.Z{
		Score:  float64(task.RunAt.Unix()),
		Member: string(member),
	}).Err()
}

// Due claims tasks by removing them; only the caller whose ZREM succeeds
// gets the task.
func (s *RedisScheduler) Due(ctx context.Context, now time.Time, limit int) ([]domain.ScheduledTask, error) {
	if limit <= 0 {
		limit = 50
	}
	members, err := s.client.ZRangeByScoreWithScores(ctx, s.key, &redis.ZRangeBy{
		Min:   "-inf",
		Max:   strconv.FormatInt(now.Unix(), 10),
		Count: int64(limit),
	}).Result()
	if err != nil {
		return nil, err
	}

	tasks := make([]domain.ScheduledTask, 0, len(members))
	for _, z := range members {
		raw, ok := z.Member.(string)
		if !ok {
			continue
		}
		removed, err := s.client.ZRem(ctx, s.key, raw).Result()
		if err != nil {
			return tasks, err
		}
		if removed == 0 {
			continue
		}

		var task domain.ScheduledTask
		if err := json.Unmarshal([]byte(raw), &task); err != nil {
			return tasks, fmt.Errorf("decode task %q: %w", raw, err)
		}
		task.RunAt = time.Unix(int64(z.Score), 0)
		tasks = append(tasks, task)
	}
	return tasks, nil
}

func (s *RedisScheduler) Len(ctx context.Context) (int64, error) {
	return s.client.ZCard(ctx, s.key).Result()
}
