package realtime

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-redis/redis/v8"

	"github.com/hanneswrnr/glasschadenmelden/internal/logger"
)

// RedisFeed backs the Feed contract with Redis pub/sub so that viewers
// connected to different instances still receive each other's inserts.
type RedisFeed struct {
	client *redis.Client
}

func NewRedisFeed(addr string, db int) (*RedisFeed, error) {
	client := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   db,
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("redis unavailable at %s: %w", addr, err)
	}

	return &RedisFeed{client: client}, nil
}

func channelForClaim(claimID string) string {
	return "chat:claim:" + claimID
}

type redisSubscription struct {
	pubsub *redis.PubSub
	cancel context.CancelFunc
}

func (s *redisSubscription) Close() {
	s.cancel()
	_ = s.pubsub.Close()
}

func (f *RedisFeed) Subscribe(claimID string, fn Handler) (Subscription, error) {
	ctx, cancel := context.WithCancel(context.Background())
	pubsub := f.client.Subscribe(ctx, channelForClaim(claimID))

	// Force the subscription to be established before returning so no
	// insert published right after Subscribe can be missed.
	if _, err := pubsub.Receive(ctx); err != nil {
		cancel()
		_ = pubsub.Close()
		return nil, fmt.Errorf("failed to subscribe to claim channel: %w", err)
	}

	go func() {
		for msg := range pubsub.Channel() {
			var event MessageEvent
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				logger.Warn("realtime redis: malformed event payload", "error", err)
				continue
			}
			fn(event)
		}
	}()

	return &redisSubscription{pubsub: pubsub, cancel: cancel}, nil
}

func (f *RedisFeed) Publish(ctx context.Context, event MessageEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return f.client.Publish(ctx, channelForClaim(event.ClaimID), payload).Err()
}
