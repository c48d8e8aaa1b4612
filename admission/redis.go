package admission

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "feedbackbot:ratelimit:"

type redisClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
}

// RedisStore shares rate limit entries between bot replicas. Keys expire
// after ttl, which makes an old entry equivalent to an absent one.
type RedisStore struct {
	client redisClient
	ttl    time.Duration
}

func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func redisKey(userID string) string {
	return redisKeyPrefix + userID
}

func (s *RedisStore) LastAccepted(ctx context.Context, userID string) (time.Time, bool, error) {
	nanos, err := s.client.Get(ctx, redisKey(userID)).Int64()
	if errors.Is(err, redis.Nil) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, err
	}
	return time.Unix(0, nanos), true, nil
}

// SetLastAccepted stores at unless a later entry is already present.
func (s *RedisStore) SetLastAccepted(ctx context.Context, userID string, at time.Time) error {
	prev, ok, err := s.LastAccepted(ctx, userID)
	if err != nil {
		return err
	}
	if ok && at.Before(prev) {
		return nil
	}
	return s.client.Set(ctx, redisKey(userID), at.UnixNano(), s.ttl).Err()
}
