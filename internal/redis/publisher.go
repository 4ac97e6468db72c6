package redis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultPublishTimeout = 5 * time.Second

// Publisher fans inbox events out over pub/sub. Every publish carries its
// own deadline so a stalled broker cannot pin a dispatch goroutine.
type Publisher struct {
	client  *redis.Client
	timeout time.Duration
}

func NewPublisher(client *redis.Client) *Publisher {
	return &Publisher{client: client, timeout: defaultPublishTimeout}
}

func (p *Publisher) Publish(ctx context.Context, channel string, payload []byte) error {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	return p.client.Publish(ctx, channel, payload).Err()
}
