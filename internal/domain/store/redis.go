package store

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"photopipe-server-go/internal/platform/config"
	"photopipe-server-go/internal/platform/errors"
	"photopipe-server-go/internal/platform/logging"
)

// RedisStore keeps outputs in Redis with native TTL expiry, for
// multi-node deployments where every node must serve every output.
type RedisStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
	logger *logging.Logger
}

func NewRedisStore(cfg config.StorageConfig, logger *logging.Logger) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Username: cfg.Redis.Username,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, errors.Wrap(errors.KindStorage, "store.redis", "connect to redis", err)
	}

	prefix := cfg.Redis.Prefix
	if prefix == "" {
		prefix = "photopipe:output:"
	}
	return &RedisStore{client: client, prefix: prefix, ttl: cfg.TTL, logger: logger}, nil
}

func (s *RedisStore) key(key string) string  { return s.prefix + key }
func (s *RedisStore) meta(key string) string { return s.prefix + key + ":ct" }

func (s *RedisStore) Save(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	pipe := s.client.TxPipeline()
	pipe.Set(ctx, s.key(key), data, s.ttl)
	pipe.Set(ctx, s.meta(key), contentType, s.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return "", errors.Wrap(errors.KindStorage, "store.redis", "save output", err)
	}
	return fmt.Sprintf("/outputs/%s", key), nil
}

func (s *RedisStore) Load(ctx context.Context, key string) ([]byte, string, error) {
	data, err := s.client.Get(ctx, s.key(key)).Bytes()
	if err == redis.Nil {
		return nil, "", ErrNotFound
	}
	if err != nil {
		return nil, "", errors.Wrap(errors.KindStorage, "store.redis", "load output", err)
	}

	contentType, err := s.client.Get(ctx, s.meta(key)).Result()
	if err != nil && err != redis.Nil {
		return nil, "", errors.Wrap(errors.KindStorage, "store.redis", "load content type", err)
	}
	return data, contentType, nil
}

func (s *RedisStore) Delete(ctx context.Context, key string) error {
	n, err := s.client.Del(ctx, s.key(key), s.meta(key)).Result()
	if err != nil {
		return errors.Wrap(errors.KindStorage, "store.redis", "delete output", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Cleanup is a no-op: redis expires keys natively.
func (s *RedisStore) Cleanup(ctx context.Context) (int, error) { return 0, nil }

func (s *RedisStore) Close() error { return s.client.Close() }
