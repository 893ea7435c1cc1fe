// Package hub fans advisory packets out to any number of independently paced
// consumers. Each consumer gets its own bounded queue; a stalled consumer
// loses its own packets but can never block the producer or starve the rest.
package hub

import (
	crand "crypto/rand"
	"encoding/hex"
	"sync"

	"pitcall-engine/internal/advisory"
)

// SubscriberBuffer is the per-consumer queue depth. When a consumer's queue
// is full the newest packet is dropped for that consumer only.
const SubscriberBuffer = 16

// Hub is the broadcast point between the engine loop and its consumers.
// Safe for concurrent Subscribe/Unsubscribe/Publish.
type Hub struct {
	mu          sync.Mutex
	subscribers map[string]chan advisory.Packet
	last        *advisory.Packet
	closed      bool
}

// New creates an empty hub.
func New() *Hub {
	return &Hub{subscribers: make(map[string]chan advisory.Packet)}
}

// randomID generates a subscriber ID (8 byte random hex encoded value).
func randomID() string {
	b := make([]byte, 8)
	crand.Read(b)
	return hex.EncodeToString(b)
}

// Subscribe registers a new consumer and returns its ID and receive channel.
// If a packet has already been published, the consumer finds it queued ahead
// of anything published later, so a late joiner is never blank.
func (h *Hub) Subscribe() (string, <-chan advisory.Packet) {
	id := randomID()
	ch := make(chan advisory.Packet, SubscriberBuffer)

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		close(ch)
		return id, ch
	}
	if h.last != nil {
		ch <- *h.last
	}
	h.subscribers[id] = ch
	return id, ch
}

// Unsubscribe detaches a consumer and closes its channel. Unknown IDs are a
// no-op, so detach-on-disconnect is safe to call twice.
func (h *Hub) Unsubscribe(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if ch, ok := h.subscribers[id]; ok {
		close(ch)
		delete(h.subscribers, id)
	}
}

// Publish delivers a packet to every subscriber without ever blocking: a
// consumer whose queue is full simply misses this packet. The packet is also
// retained for replay to future subscribers.
func (h *Hub) Publish(pkt advisory.Packet) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.last = &pkt
	for _, ch := range h.subscribers {
		select {
		case ch <- pkt:
		default:
			// consumer queue full; drop for this consumer only
		}
	}
}

// Last returns the most recently published packet, if any.
func (h *Hub) Last() (advisory.Packet, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.last == nil {
		return advisory.Packet{}, false
	}
	return *h.last, true
}

// SubscriberCount reports how many consumers are currently attached.
func (h *Hub) SubscriberCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subscribers)
}

// Close detaches all consumers and rejects further publishes.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for id, ch := range h.subscribers {
		close(ch)
		delete(h.subscribers, id)
	}
}
