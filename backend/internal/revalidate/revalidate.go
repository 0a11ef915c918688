// Package revalidate emits "content under this path is stale" signals
// after mutations. Consumers (page caches, edge caches) live elsewhere;
// only the trigger contract is owned here.
package revalidate

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/wam-dev/threads/shared/logger"
)

const (
	Channel   = "threads:revalidate"
	keyPrefix = "revalidate:"
)

type Revalidator interface {
	Revalidate(ctx context.Context, path string) error
}

// Redis bumps a per-path version counter and publishes the path, so both
// polling and subscribed consumers see the signal.
type Redis struct {
	client *redis.Client
}

func NewRedis(redisURL string) (*Redis, error) {
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

func NewRedisWithClient(client *redis.Client) *Redis {
	return &Redis{client: client}
}

func (r *Redis) Revalidate(ctx context.Context, path string) error {
	pipe := r.client.TxPipeline()
	pipe.Incr(ctx, keyPrefix+path)
	pipe.Publish(ctx, Channel, path)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("revalidate %s: %w", path, err)
	}
	logger.Log.Debug("revalidation published", "path", path)
	return nil
}

// Version returns how many times path has been revalidated.
func (r *Redis) Version(ctx context.Context, path string) (int64, error) {
	v, err := r.client.Get(ctx, keyPrefix+path).Int64()
	if err == redis.Nil {
		return 0, nil
	}
	return v, err
}

func (r *Redis) Close() error {
	return r.client.Close()
}

// Recorder keeps signals in memory. Used when no Redis is configured.
type Recorder struct {
	mu    sync.Mutex
	paths []string
}

func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) Revalidate(ctx context.Context, path string) error {
	r.mu.Lock()
	r.paths = append(r.paths, path)
	r.mu.Unlock()
	logger.Log.Info("revalidate path", "path", path)
	return nil
}

// Paths returns a copy of all recorded paths in order.
func (r *Recorder) Paths() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.paths...)
}
