// Package revalidate tells whatever renders pages that a path has changed.
// Every mutation of the thread tree ends with a Revalidate call for the
// path the client passed in.
package revalidate

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	Channel   = "revalidate"
	keyPrefix = "revalidate:"
)

// Redis bumps a per path version counter and publishes the path on Channel.
// Renderers either subscribe or compare the counter with the one they cached.
type Redis struct {
	client *redis.Client
}

func New(redisURL string) (*Redis, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	return &Redis{client: client}, nil
}

func NewWithClient(client *redis.Client) *Redis {
	return &Redis{client: client}
}

func Key(path string) string {
	return keyPrefix + path
}

func (r *Redis) Revalidate(ctx context.Context, path string) error {
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, Key(path))
		pipe.Publish(ctx, Channel, path)
		return nil
	})
	if err != nil {
		return fmt.Errorf("revalidate %s: %w", path, err)
	}
	return nil
}

// Version returns how many times path was revalidated, zero if never.
func (r *Redis) Version(ctx context.Context, path string) (int64, error) {
	v, err := r.client.Get(ctx, Key(path)).Int64()
	if err == redis.Nil {
		return 0, nil
	}
	return v, err
}

func (r *Redis) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *Redis) Close() error {
	return r.client.Close()
}

// Noop is used when no redis is configured.
type Noop struct{}

func (Noop) Revalidate(ctx context.Context, path string) error { return nil }
