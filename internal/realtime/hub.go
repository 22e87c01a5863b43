package realtime

import (
	"context"
	"sync"

	"github.com/hanneswrnr/glasschadenmelden/internal/logger"
)

const subscriberBuffer = 64

// Hub is the in-process Feed used in single-instance deployments.
type Hub struct {
	mu          sync.RWMutex
	subscribers map[string]map[*hubSubscription]struct{} // claimID -> subs
}

func NewHub() *Hub {
	return &Hub{
		subscribers: make(map[string]map[*hubSubscription]struct{}),
	}
}

type hubSubscription struct {
	hub     *Hub
	claimID string
	events  chan MessageEvent
	once    sync.Once
}

func (s *hubSubscription) Close() {
	s.once.Do(func() {
		s.hub.mu.Lock()
		if subs, ok := s.hub.subscribers[s.claimID]; ok {
			delete(subs, s)
			if len(subs) == 0 {
				delete(s.hub.subscribers, s.claimID)
			}
		}
		s.hub.mu.Unlock()
		close(s.events)
	})
}

// Subscribe registers a handler for one claim's inserts. The handler runs on
// a dedicated goroutine fed from a buffered channel.
func (h *Hub) Subscribe(claimID string, fn Handler) (Subscription, error) {
	sub := &hubSubscription{
		hub:     h,
		claimID: claimID,
		events:  make(chan MessageEvent, subscriberBuffer),
	}

	h.mu.Lock()
	if _, ok := h.subscribers[claimID]; !ok {
		h.subscribers[claimID] = make(map[*hubSubscription]struct{})
	}
	h.subscribers[claimID][sub] = struct{}{}
	h.mu.Unlock()

	go func() {
		for event := range sub.events {
			fn(event)
		}
	}()

	return sub, nil
}

// Publish fans an event out to every subscriber of the event's claim.
// A subscriber whose buffer is full drops the event rather than blocking
// the publisher; such a subscriber re-syncs on its next history load.
func (h *Hub) Publish(ctx context.Context, event MessageEvent) error {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for sub := range h.subscribers[event.ClaimID] {
		select {
		case sub.events <- event:
		default:
			logger.Warn("realtime hub: subscriber buffer full, event dropped",
				"claim_id", event.ClaimID, "message_id", event.ID)
		}
	}
	return nil
}

// SubscriberCount returns the number of live subscriptions for a claim.
func (h *Hub) SubscriberCount(claimID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers[claimID])
}
