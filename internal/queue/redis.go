package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	redis "github.com/redis/go-redis/v9"

	"github.com/videoflix/vod/internal/config"
)

// RedisQueue is a Queue backed by a Redis list. LPUSH/BRPOP gives FIFO order
// and survives producer and worker restarts.
type RedisQueue struct {
	client         *redis.Client
	key            string
	dequeueTimeout time.Duration
}

// NewRedisQueue connects to Redis and verifies the connection.
func NewRedisQueue(ctx context.Context, cfg config.RedisConfig) (*RedisQueue, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &RedisQueue{
		client:         client,
		key:            cfg.QueueKey,
		dequeueTimeout: cfg.DequeueTimeout,
	}, nil
}

// Enqueue pushes a job onto the queue. Any error means the job was not
// accepted and the producer must surface the failure.
func (q *RedisQueue) Enqueue(ctx context.Context, p Payload) error {
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	if err := q.client.LPush(ctx, q.key, data).Err(); err != nil {
		return fmt.Errorf("queue unavailable: %w", err)
	}

	return nil
}

// Dequeue blocks until a job is available or ctx is done. The block timeout
// bounds each BRPOP so shutdown is observed promptly.
func (q *RedisQueue) Dequeue(ctx context.Context) (*Payload, error) {
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		res, err := q.client.BRPop(ctx, q.dequeueTimeout, q.key).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				continue
			}
			return nil, fmt.Errorf("failed to dequeue: %w", err)
		}

		// BRPOP returns [key, value].
		var p Payload
		if err := json.Unmarshal([]byte(res[1]), &p); err != nil {
			return nil, fmt.Errorf("failed to unmarshal payload: %w", err)
		}
		return &p, nil
	}
}

// Depth returns the number of pending jobs.
func (q *RedisQueue) Depth(ctx context.Context) (int64, error) {
	depth, err := q.client.LLen(ctx, q.key).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to read queue depth: %w", err)
	}
	return depth, nil
}

// Health checks queue health
func (q *RedisQueue) Health(ctx context.Context) error {
	return q.client.Ping(ctx).Err()
}

// Close closes the Redis connection.
func (q *RedisQueue) Close() error {
	return q.client.Close()
}
