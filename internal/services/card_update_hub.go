package services

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// CardUpdateHub fans Redis pub/sub card updates out to many SSE clients over a
// single Redis subscription.
type CardUpdateHub struct {
	redis       *redis.Client
	channelName string

	mu          sync.RWMutex
	subscribers map[chan []byte]struct{}
}

// NewCardUpdateHub starts relaying until ctx is cancelled
func NewCardUpdateHub(ctx context.Context, redis *redis.Client, channel string) *CardUpdateHub {
	hub := &CardUpdateHub{
		redis:       redis,
		channelName: channel,
		subscribers: make(map[chan []byte]struct{}),
	}

	go hub.run(ctx)

	return hub
}

func (h *CardUpdateHub) run(ctx context.Context) {
	for {
		pubsub := h.redis.Subscribe(ctx, h.channelName)
		ch := pubsub.Channel(redis.WithChannelSize(1024))

	relay:
		for {
			select {
			case <-ctx.Done():
				_ = pubsub.Close()
				return
			case msg, ok := <-ch:
				if !ok {
					break relay
				}
				h.broadcast([]byte(msg.Payload))
			}
		}

		_ = pubsub.Close()

		// Back off before resubscribing after a dropped connection
		select {
		case <-ctx.Done():
			return
		case <-time.After(time.Second):
		}
	}
}

func (h *CardUpdateHub) broadcast(payload []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for sub := range h.subscribers {
		select {
		case sub <- payload:
		default:
			// Slow subscriber: drop its oldest message
			select {
			case <-sub:
			default:
			}
			select {
			case sub <- payload:
			default:
			}
		}
	}
}

// Subscribe registers a new listener and returns a channel plus cleanup function.
func (h *CardUpdateHub) Subscribe() (<-chan []byte, func()) {
	ch := make(chan []byte, 64)

	h.mu.Lock()
	h.subscribers[ch] = struct{}{}
	h.mu.Unlock()

	unsubscribe := func() {
		h.mu.Lock()
		if _, ok := h.subscribers[ch]; ok {
			delete(h.subscribers, ch)
			close(ch)
		}
		h.mu.Unlock()
	}

	return ch, unsubscribe
}

// Subscribers reports the number of connected listeners
func (h *CardUpdateHub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers)
}
