package event

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
)

// Handler consumes published events. Handlers run on the
// subscription's own goroutine, never on the publisher's.
type Handler func(ctx context.Context, evt Event)

// Subscription is an active registration on the bus.
type Subscription interface {
	// Unsubscribe removes the subscription and stops its worker.
	Unsubscribe()
}

// Bus is an in-process pub/sub fan-out. Publish never blocks: when a
// subscriber's buffer is full the event is dropped for that
// subscriber, so a slow display layer cannot stall a timer loop.
type Bus struct {
	mu     sync.RWMutex
	subs   map[string]*subscription
	buffer int
	closed atomic.Bool

	// OnDrop, when set, observes events dropped for a full subscriber.
	OnDrop func(evt Event, subscriberID string)
}

// subscription carries one subscriber's queue and worker.
type subscription struct {
	id      string
	types   map[string]bool // empty means all types
	handler Handler
	events  chan Event
	done    chan struct{}
	bus     *Bus
	once    sync.Once
}

// DefaultBuffer is the per-subscription queue size.
const DefaultBuffer = 256

// NewBus creates a bus with the given per-subscription buffer.
// A non-positive buffer uses DefaultBuffer.
func NewBus(buffer int) *Bus {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	return &Bus{
		subs:   make(map[string]*subscription),
		buffer: buffer,
	}
}

// Subscribe registers a handler for the given event types.
// An empty type list subscribes to every event.
func (b *Bus) Subscribe(types []string, handler Handler) Subscription {
	sub := &subscription{
		id:      uuid.New().String(),
		types:   make(map[string]bool, len(types)),
		handler: handler,
		events:  make(chan Event, b.buffer),
		done:    make(chan struct{}),
		bus:     b,
	}
	for _, t := range types {
		sub.types[t] = true
	}

	b.mu.Lock()
	b.subs[sub.id] = sub
	b.mu.Unlock()

	go sub.run()
	return sub
}

// SubscribeAll registers a handler for every event type.
func (b *Bus) SubscribeAll(handler Handler) Subscription {
	return b.Subscribe(nil, handler)
}

// Publish fans the event out to every matching subscriber.
// Returns false if the bus is closed.
func (b *Bus) Publish(evt Event) bool {
	if b.closed.Load() {
		return false
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, sub := range b.subs {
		if len(sub.types) > 0 && !sub.types[evt.Type()] {
			continue
		}
		select {
		case sub.events <- evt:
		default:
			if b.OnDrop != nil {
				b.OnDrop(evt, sub.id)
			}
		}
	}
	return true
}

// Close stops every subscription. Publish after Close is a no-op.
func (b *Bus) Close() {
	if !b.closed.CompareAndSwap(false, true) {
		return
	}

	b.mu.Lock()
	subs := make([]*subscription, 0, len(b.subs))
	for _, sub := range b.subs {
		subs = append(subs, sub)
	}
	b.subs = make(map[string]*subscription)
	b.mu.Unlock()

	for _, sub := range subs {
		sub.stop()
	}
}

// Unsubscribe implements Subscription.
func (s *subscription) Unsubscribe() {
	s.bus.mu.Lock()
	delete(s.bus.subs, s.id)
	s.bus.mu.Unlock()
	s.stop()
}

func (s *subscription) stop() {
	s.once.Do(func() { close(s.done) })
}

// run delivers queued events until the subscription stops.
func (s *subscription) run() {
	ctx := context.Background()
	for {
		select {
		case <-s.done:
			return
		case evt := <-s.events:
			s.handler(ctx, evt)
		}
	}
}
