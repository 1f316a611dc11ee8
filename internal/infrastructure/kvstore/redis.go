package kvstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/manorfm/identity-server/internal/domain"
	"github.com/redis/go-redis/v9"
)

// RedisBackend shares entries between server instances. Expiry is delegated
// to Redis and Take maps onto GETDEL.
type RedisBackend struct {
	rdb redis.UniversalClient
}

// NewRedisBackend wraps an existing client
func NewRedisBackend(rdb redis.UniversalClient) *RedisBackend {
	return &RedisBackend{rdb: rdb}
}

// NewRedisClient opens a client for addr and verifies it answers
func NewRedisClient(ctx context.Context, addr, password string, db int) (redis.UniversalClient, error) {
	rdb := redis.NewUniversalClient(&redis.UniversalOptions{
		Addrs:    []string{addr},
		Password: password,
		DB:       db,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("error connecting to redis: %w", err)
	}
	return rdb, nil
}

// Ping reports whether the server is reachable
func (r *RedisBackend) Ping(ctx context.Context) error {
	return r.rdb.Ping(ctx).Err()
}

func (r *RedisBackend) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return r.rdb.Set(ctx, key, value, ttl).Err()
}

func (r *RedisBackend) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := r.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrNotFound
	}
	return data, err
}

func (r *RedisBackend) GetDel(ctx context.Context, key string) ([]byte, error) {
	data, err := r.rdb.GetDel(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrNotFound
	}
	return data, err
}

func (r *RedisBackend) Del(ctx context.Context, key string) error {
	return r.rdb.Del(ctx, key).Err()
}
