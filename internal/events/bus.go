package events

import (
	"log"
	"sync"
)

// subscriberBuffer bounds the per-subscriber queue. A slow reader drops
// messages rather than blocking the producer.
const subscriberBuffer = 64

// Bus fans typed events out to every subscriber of a session.
//
// Publish is safe to call from the background analysis goroutine while
// listeners subscribe and unsubscribe concurrently. Delivery is
// at-most-once: publishing to a session with no subscribers is a no-op,
// and a full subscriber queue loses the message for that subscriber only.
type Bus struct {
	mu       sync.Mutex
	sessions map[string][]chan Event
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{sessions: make(map[string][]chan Event)}
}

// Subscribe registers a new bounded queue for a session and returns the
// receive channel. The channel is closed by Unsubscribe or Close.
func (b *Bus) Subscribe(sessionID string) <-chan Event {
	ch := make(chan Event, subscriberBuffer)
	b.mu.Lock()
	b.sessions[sessionID] = append(b.sessions[sessionID], ch)
	count := len(b.sessions[sessionID])
	b.mu.Unlock()
	log.Printf("[bus] subscribed to session %s (%d clients)", sessionID, count)
	return ch
}

// Unsubscribe removes a subscriber queue and closes it. When the last
// subscriber leaves, the session entry is dropped so idle sessions hold
// no memory.
func (b *Bus) Unsubscribe(sessionID string, ch <-chan Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	subs := b.sessions[sessionID]
	for i, sub := range subs {
		if sub == ch {
			b.sessions[sessionID] = append(subs[:i], subs[i+1:]...)
			close(sub)
			break
		}
	}
	if len(b.sessions[sessionID]) == 0 {
		delete(b.sessions, sessionID)
	}
}

// Publish enqueues the event onto every current subscriber of the session.
// It never blocks: a subscriber whose queue is full misses this event.
func (b *Bus) Publish(sessionID string, ev Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, sub := range b.sessions[sessionID] {
		select {
		case sub <- ev:
		default:
			log.Printf("[bus] dropping %s event for slow subscriber on session %s", ev.Type, sessionID)
		}
	}
}

// Close terminates the event stream for a session, closing every subscriber
// channel. Used by the producer after the terminal phase_change is sent.
func (b *Bus) Close(sessionID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, sub := range b.sessions[sessionID] {
		close(sub)
	}
	delete(b.sessions, sessionID)
}

// SubscriberCount reports how many queues are registered for a session.
func (b *Bus) SubscriberCount(sessionID string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.sessions[sessionID])
}
