// Package cache keeps fetched posts in Redis so that several machines can
// share one post cache.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ppiankov/serialbinder/internal/config"
	"github.com/ppiankov/serialbinder/internal/source"
)

// ErrEmptyAddress is returned when the Redis address is not configured.
var ErrEmptyAddress = errors.New("redis address is required")

const (
	connectionTimeout = 5 * time.Second
	defaultKeyPrefix  = "serialbinder"
)

// Redis implements source.Cache on a Redis server. Posts are stored as JSON
// under "<prefix>:post:<id>".
type Redis struct {
	client *redis.Client
	prefix string
}

// Connect dials the configured server and verifies the connection.
func Connect(cfg config.RedisConfig) (*Redis, error) {
	if cfg.Address == "" {
		return nil, ErrEmptyAddress
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), connectionTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return New(client, cfg.KeyPrefix), nil
}

// New wraps an existing client. An empty prefix uses "serialbinder".
func New(client *redis.Client, prefix string) *Redis {
	if prefix == "" {
		prefix = defaultKeyPrefix
	}
	return &Redis{client: client, prefix: prefix}
}

func (r *Redis) key(id string) string {
	return r.prefix + ":post:" + id
}

// Get returns the cached post. A missing key is not an error.
func (r *Redis) Get(ctx context.Context, id string) (source.Post, bool, error) {
	data, err := r.client.Get(ctx, r.key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return source.Post{}, false, nil
	}
	if err != nil {
		return source.Post{}, false, fmt.Errorf("redis get %s: %w", id, err)
	}

	var p source.Post
	if err := json.Unmarshal(data, &p); err != nil {
		return source.Post{}, false, fmt.Errorf("decode cached post %s: %w", id, err)
	}
	return p, true, nil
}

// Set stores p. A zero ttl keeps it until deleted.
func (r *Redis) Set(ctx context.Context, id string, p source.Post, ttl time.Duration) error {
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode post %s: %w", id, err)
	}
	if err := r.client.Set(ctx, r.key(id), data, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", id, err)
	}
	return nil
}

// Delete removes the post. Deleting a missing post is not an error.
func (r *Redis) Delete(ctx context.Context, id string) error {
	if err := r.client.Del(ctx, r.key(id)).Err(); err != nil {
		return fmt.Errorf("redis del %s: %w", id, err)
	}
	return nil
}

// Ping checks that the server is reachable.
func (r *Redis) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *Redis) Close() error {
	return r.client.Close()
}
