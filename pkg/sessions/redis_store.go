package sessions

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

const (
	redisKeyPrefix = "catalog:session:"

	redisDialTimeout  = 3 * time.Second
	redisReadTimeout  = 2 * time.Second
	redisWriteTimeout = 2 * time.Second
	redisPingTimeout  = 2 * time.Second
)

// NewRedisClient parses a redis:// URL and checks the server is reachable.
func NewRedisClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	options, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, errors.Wrap(err, "invalid redis url")
	}
	options.PoolSize = 10
	options.MinIdleConns = 2
	options.DialTimeout = redisDialTimeout
	options.ReadTimeout = redisReadTimeout
	options.WriteTimeout = redisWriteTimeout

	client := redis.NewClient(options)

	pingCtx, cancel := context.WithTimeout(ctx, redisPingTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.Wrap(err, "redis ping failed")
	}

	return client, nil
}

// RedisStore keeps each session in a string key that expires with it.
type RedisStore struct {
	client redis.UniversalClient
}

func NewRedisStore(client redis.UniversalClient) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Load(ctx context.Context, key string) (Data, error) {
	raw, err := s.client.Get(ctx, redisKeyPrefix+key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, errors.WithStack(err)
	}
	return decode(raw)
}

func (s *RedisStore) Save(ctx context.Context, key string, data Data, ttl time.Duration) error {
	raw, err := encode(data)
	if err != nil {
		return err
	}
	return errors.WithStack(s.client.Set(ctx, redisKeyPrefix+key, raw, ttl).Err())
}

func (s *RedisStore) Delete(ctx context.Context, key string) error {
	return errors.WithStack(s.client.Del(ctx, redisKeyPrefix+key).Err())
}

// Close releases the client's connection pool.
func (s *RedisStore) Close() error {
	return errors.WithStack(s.client.Close())
}
