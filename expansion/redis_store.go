package expansion

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nasermirzaei89/nexus/discuss"
	"github.com/redis/go-redis/v9"
)

const (
	defaultKeyPrefix = "expansion:"
	// DefaultTTL bounds how long an abandoned view survives without being closed.
	DefaultTTL = 12 * time.Hour
)

const valueExpanded = "1"

var toggleScript = redis.NewScript(`
local next = '1'
if redis.call('HGET', KEYS[1], ARGV[1]) == '1' then
	next = '0'
end
redis.call('HSET', KEYS[1], ARGV[1], next)
redis.call('EXPIRE', KEYS[1], ARGV[2])
return tonumber(next)
`)

// RedisStore keeps each view as a Redis hash of comment id to "1" or "0".
type RedisStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

var _ Store = (*RedisStore)(nil)

func NewRedisStore(ctx context.Context, redisURL string, ttl time.Duration) (*RedisStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err = client.Ping(pingCtx).Err()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return NewRedisStoreWithClient(client, ttl), nil
}

func NewRedisStoreWithClient(client *redis.Client, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	return &RedisStore{
		client: client,
		prefix: defaultKeyPrefix,
		ttl:    ttl,
	}
}

func (s *RedisStore) key(view string) string {
	return s.prefix + view
}

func (s *RedisStore) Show(ctx context.Context, view string, comments []*discuss.Comment) error {
	key := s.key(view)

	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, comment := range comments {
			if !expandedByDefault(comment) {
				continue
			}

			pipe.HSetNX(ctx, key, comment.ID, valueExpanded)
		}

		pipe.Expire(ctx, key, s.ttl)

		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to apply expansion defaults: %w", err)
	}

	return nil
}

func (s *RedisStore) Toggle(ctx context.Context, view, commentID string) (bool, error) {
	next, err := toggleScript.Run(ctx, s.client, []string{s.key(view)}, commentID, int(s.ttl.Seconds())).Int()
	if err != nil {
		return false, fmt.Errorf("failed to toggle expansion: %w", err)
	}

	return next == 1, nil
}

func (s *RedisStore) Expanded(ctx context.Context, view, commentID string) (bool, error) {
	value, err := s.client.HGet(ctx, s.key(view), commentID).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}

		return false, fmt.Errorf("failed to get expansion: %w", err)
	}

	return value == valueExpanded, nil
}

func (s *RedisStore) Snapshot(ctx context.Context, view string) (map[string]bool, error) {
	values, err := s.client.HGetAll(ctx, s.key(view)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get expansion state: %w", err)
	}

	state := make(map[string]bool, len(values))
	for commentID, value := range values {
		state[commentID] = value == valueExpanded
	}

	return state, nil
}

func (s *RedisStore) Close(ctx context.Context, view string) error {
	err := s.client.Del(ctx, s.key(view)).Err()
	if err != nil {
		return fmt.Errorf("failed to clear expansion state: %w", err)
	}

	return nil
}

// Ping checks if Redis is reachable.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *RedisStore) Shutdown() error {
	return s.client.Close()
}
