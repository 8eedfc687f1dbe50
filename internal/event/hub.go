package event

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"
)

// Hub fans published events out to every currently registered channel. Each
// channel has its own bounded outbound queue, so one slow or blocked client
// never stalls delivery to the others: a channel whose queue overflows is
// disconnected instead.
type Hub struct {
	mu       sync.Mutex
	channels map[*Channel]struct{}
	events   chan Event
}

func NewHub() *Hub {
	return &Hub{
		channels: make(map[*Channel]struct{}),
		events:   make(chan Event, 256),
	}
}

// Register adds a channel to the fan-out set.
func (h *Hub) Register(c *Channel) {
	h.mu.Lock()
	h.channels[c] = struct{}{}
	total := len(h.channels)
	h.mu.Unlock()
	log.Info().Str("channel_id", c.id.String()).Int("total_channels", total).Msg("realtime channel registered")
}

// Unregister removes a channel and shuts its outbound queue down. Safe to
// call more than once; after it returns no further publish reaches the
// channel.
func (h *Hub) Unregister(c *Channel) {
	h.mu.Lock()
	delete(h.channels, c)
	remaining := len(h.channels)
	h.mu.Unlock()

	c.shutdown()
	log.Info().Str("channel_id", c.id.String()).Int("total_channels", remaining).Msg("realtime channel unregistered")
}

// Publish queues an event for delivery to every channel registered at the
// time the event is dispatched.
func (h *Hub) Publish(event Event) {
	h.events <- event
}

// Run dispatches published events until the context is canceled. A single
// dispatch goroutine drains the publish queue, so each channel sees events
// in publish order.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case event := <-h.events:
			h.broadcast(event)
		case <-ctx.Done():
			return
		}
	}
}

func (h *Hub) broadcast(event Event) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for c := range h.channels {
		if !c.enqueue(event) {
			// The channel's queue is full; cut it loose rather than block
			// everyone else. The channel's own lock serializes this close
			// against unicasts from its still-running read pump.
			delete(h.channels, c)
			c.shutdown()
			log.Warn().Str("channel_id", c.id.String()).Msg("realtime channel queue overflow, disconnecting")
		}
	}
}
