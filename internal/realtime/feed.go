package realtime

import (
	"context"
	"time"
)

// MessageEvent is the payload delivered on a claim's feed when a message has
// been persisted. It carries only persisted fields; sender identity and
// attachments are resolved by the receiving session.
type MessageEvent struct {
	ID        string    `json:"id"`
	ClaimID   string    `json:"claim_id"`
	SenderID  string    `json:"sender_id"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

// Handler receives feed events. Handlers run on the feed's own goroutine and
// must not block.
type Handler func(event MessageEvent)

// Subscription is a live binding of a handler to one claim's feed.
type Subscription interface {
	// Close releases the subscription. Idempotent.
	Close()
}

// Feed is the publish/subscribe channel scoped per claim. Any transport
// satisfying this contract can back the chat: the in-process hub, Redis
// pub/sub, or anything else that delivers inserts to subscribed viewers.
type Feed interface {
	Subscribe(claimID string, fn Handler) (Subscription, error)
	Publish(ctx context.Context, event MessageEvent) error
}
