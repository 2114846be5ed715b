// Package pubsub provides the in-process event bus distributing mutation
// outcomes to live subscribers. A Bus is constructed per server instance and
// injected; it is never a package-level singleton, so tests can substitute a
// recorder.
package pubsub

import (
	"context"
	"sync"
)

// Event is an opaque published payload.
type Event interface{}

// Publisher is the write side of the bus, as seen by mutation handlers.
type Publisher interface {
	Publish(topic string, event Event)
}

// Broker is the full bus surface the resolver layer depends on: publishing
// mutation outcomes and subscribing to filtered streams.
type Broker interface {
	Publisher
	Subscribe(ctx context.Context, topic string) <-chan Event
}

// Bus delivers published events to every active subscriber of a topic. Each
// subscriber drains its own unbounded FIFO queue, so publishers never block
// and per-topic order is preserved per subscriber.
type Bus struct {
	mu     sync.RWMutex
	nextID int
	topics map[string]map[int]*subscriber
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{topics: make(map[string]map[int]*subscriber)}
}

var _ Broker = (*Bus)(nil)

// Publish delivers the event to all current subscribers of the topic.
func (b *Bus) Publish(topic string, event Event) {
	b.mu.RLock()
	subs := make([]*subscriber, 0, len(b.topics[topic]))
	for _, sub := range b.topics[topic] {
		subs = append(subs, sub)
	}
	b.mu.RUnlock()

	for _, sub := range subs {
		sub.enqueue(event)
	}
}

// Subscribe registers a subscriber for the topic. The returned channel is
// closed when ctx ends.
func (b *Bus) Subscribe(ctx context.Context, topic string) <-chan Event {
	sub := &subscriber{
		out:  make(chan Event),
		wake: make(chan struct{}, 1),
	}

	b.mu.Lock()
	b.nextID++
	id := b.nextID
	if _, ok := b.topics[topic]; !ok {
		b.topics[topic] = make(map[int]*subscriber)
	}
	b.topics[topic][id] = sub
	b.mu.Unlock()

	go func() {
		defer func() {
			b.mu.Lock()
			delete(b.topics[topic], id)
			if len(b.topics[topic]) == 0 {
				delete(b.topics, topic)
			}
			b.mu.Unlock()
			sub.close()
		}()
		sub.run(ctx)
	}()

	return sub.out
}

type subscriber struct {
	mu     sync.Mutex
	queue  []Event
	closed bool
	out    chan Event
	wake   chan struct{}
}

func (s *subscriber) enqueue(event Event) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.queue = append(s.queue, event)
	s.mu.Unlock()

	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *subscriber) run(ctx context.Context) {
	for {
		s.mu.Lock()
		var next Event
		hasNext := len(s.queue) > 0
		if hasNext {
			next = s.queue[0]
			s.queue = s.queue[1:]
		}
		s.mu.Unlock()

		if hasNext {
			select {
			case s.out <- next:
				continue
			case <-ctx.Done():
				return
			}
		}

		select {
		case <-s.wake:
		case <-ctx.Done():
			return
		}
	}
}

func (s *subscriber) close() {
	s.mu.Lock()
	s.closed = true
	s.queue = nil
	s.mu.Unlock()
	close(s.out)
}
