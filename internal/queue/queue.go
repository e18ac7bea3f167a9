// Package queue moves scoring requests between the ingestion pipeline and
// the scoring worker over a Redis list.
package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ScoreRequest asks the worker to (re)score one job.
type ScoreRequest struct {
	JobID      string    `json:"job_id"`
	EnqueuedAt time.Time `json:"enqueued_at"`
}

// Publisher pushes scoring requests onto the queue.
type Publisher struct {
	client    *redis.Client
	queueName string
}

// NewPublisher creates a queue publisher.
func NewPublisher(client *redis.Client, queueName string) *Publisher {
	if queueName == "" {
		queueName = "scoring:requests"
	}
	return &Publisher{client: client, queueName: queueName}
}

// Publish pushes a single request.
func (p *Publisher) Publish(ctx context.Context, req ScoreRequest) error {
	data, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}
	if err := p.client.LPush(ctx, p.queueName, data).Err(); err != nil {
		return fmt.Errorf("lpush: %w", err)
	}
	return nil
}

// PublishBatch pushes many requests in one pipeline round trip.
func (p *Publisher) PublishBatch(ctx context.Context, reqs []ScoreRequest) error {
	if len(reqs) == 0 {
		return nil
	}
	pipe := p.client.Pipeline()
	for _, req := range reqs {
		data, err := json.Marshal(req)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		pipe.LPush(ctx, p.queueName, data)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("pipeline exec: %w", err)
	}
	return nil
}

// QueueLength returns the number of pending requests.
func (p *Publisher) QueueLength(ctx context.Context) (int64, error) {
	return p.client.LLen(ctx, p.queueName).Result()
}

// Consumer pops scoring requests off the queue.
type Consumer struct {
	client    *redis.Client
	queueName string
	timeout   time.Duration
}

// NewConsumer creates a queue consumer.
func NewConsumer(client *redis.Client, queueName string, timeout time.Duration) *Consumer {
	if queueName == "" {
		queueName = "scoring:requests"
	}
	if timeout == 0 {
		timeout = 5 * time.Second
	}
	return &Consumer{client: client, queueName: queueName, timeout: timeout}
}

// ConsumeBatch pops up to maxBatch requests. It blocks with BRPOP for the
// first item so idle workers do not spin, then drains the rest with RPOP.
// Returns an empty slice on timeout.
func (c *Consumer) ConsumeBatch(ctx context.Context, maxBatch int) ([]ScoreRequest, error) {
	reqs := make([]ScoreRequest, 0, maxBatch)

	result, err := c.client.BRPop(ctx, c.timeout, c.queueName).Result()
	if err != nil {
		if err == redis.Nil {
			return reqs, nil
		}
		return nil, fmt.Errorf("brpop: %w", err)
	}

	if len(result) >= 2 {
		var req ScoreRequest
		if err := json.Unmarshal([]byte(result[1]), &req); err == nil {
			reqs = append(reqs, req)
		}
	}

	for i := 1; i < maxBatch; i++ {
		result, err := c.client.RPop(ctx, c.queueName).Result()
		if err != nil {
			if err == redis.Nil {
				break
			}
			return reqs, fmt.Errorf("rpop: %w", err)
		}

		var req ScoreRequest
		if err := json.Unmarshal([]byte(result), &req); err != nil {
			continue // skip malformed entries
		}
		reqs = append(reqs, req)
	}

	return reqs, nil
}
