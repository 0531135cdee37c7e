// Package events provides a lightweight pub/sub event bus for media
// lifecycle observability. Publishing never blocks store operations:
// events are queued and dispatched by a small worker pool, and listener
// panics are contained.
package events

import "sync"

const (
	defaultWorkerPoolSize  = 4
	defaultEventBufferSize = 256
)

// Listener is a function that handles events.
type Listener func(*Event)

// Option configures an EventBus.
type Option func(*EventBus)

// WithWorkerPoolSize sets the number of dispatch workers.
// Values below 1 keep the default.
func WithWorkerPoolSize(n int) Option {
	return func(eb *EventBus) {
		if n > 0 {
			eb.poolSize = n
		}
	}
}

// WithEventBufferSize sets the publish queue capacity.
// Values below 1 keep the default.
func WithEventBufferSize(n int) Option {
	return func(eb *EventBus) {
		if n > 0 {
			eb.bufferSize = n
		}
	}
}

type subscription struct {
	id       uint64
	listener Listener
}

// EventBus manages event distribution to listeners.
type EventBus struct {
	mu              sync.RWMutex
	listeners       map[EventType][]subscription
	globalListeners []subscription
	nextID          uint64
	closed          bool

	poolSize   int
	bufferSize int

	queue chan *Event
	wg    sync.WaitGroup
}

// NewEventBus creates a new event bus and starts its dispatch workers.
func NewEventBus(opts ...Option) *EventBus {
	eb := &EventBus{
		listeners:  make(map[EventType][]subscription),
		poolSize:   defaultWorkerPoolSize,
		bufferSize: defaultEventBufferSize,
	}
	for _, opt := range opts {
		opt(eb)
	}

	eb.queue = make(chan *Event, eb.bufferSize)
	for range eb.poolSize {
		eb.wg.Add(1)
		go eb.worker()
	}
	return eb
}

// Subscribe registers a listener for a specific event type and returns a
// function that removes it again.
func (eb *EventBus) Subscribe(eventType EventType, listener Listener) func() {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	eb.nextID++
	id := eb.nextID
	eb.listeners[eventType] = append(eb.listeners[eventType], subscription{id: id, listener: listener})

	return func() {
		eb.mu.Lock()
		defer eb.mu.Unlock()
		subs := eb.listeners[eventType]
		for i := range subs {
			if subs[i].id == id {
				eb.listeners[eventType] = append(subs[:i], subs[i+1:]...)
				return
			}
		}
	}
}

// SubscribeAll registers a listener for all event types and returns a
// function that removes it again.
func (eb *EventBus) SubscribeAll(listener Listener) func() {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	eb.nextID++
	id := eb.nextID
	eb.globalListeners = append(eb.globalListeners, subscription{id: id, listener: listener})

	return func() {
		eb.mu.Lock()
		defer eb.mu.Unlock()
		for i := range eb.globalListeners {
			if eb.globalListeners[i].id == id {
				eb.globalListeners = append(eb.globalListeners[:i], eb.globalListeners[i+1:]...)
				return
			}
		}
	}
}

// Publish queues an event for delivery. It reports false when the bus is
// closed or the queue is full; events are never worth blocking a store
// operation for.
func (eb *EventBus) Publish(event *Event) bool {
	eb.mu.RLock()
	defer eb.mu.RUnlock()

	if eb.closed {
		return false
	}

	select {
	case eb.queue <- event:
		return true
	default:
		return false
	}
}

// Close stops accepting events and waits until all queued events have been
// delivered. It is safe to call more than once.
func (eb *EventBus) Close() {
	eb.mu.Lock()
	if eb.closed {
		eb.mu.Unlock()
		return
	}
	eb.closed = true
	eb.mu.Unlock()

	close(eb.queue)
	eb.wg.Wait()
}

// Clear removes all listeners (primarily for tests).
func (eb *EventBus) Clear() {
	eb.mu.Lock()
	defer eb.mu.Unlock()
	eb.listeners = make(map[EventType][]subscription)
	eb.globalListeners = nil
}

func (eb *EventBus) worker() {
	defer eb.wg.Done()
	for event := range eb.queue {
		eb.dispatch(event)
	}
}

func (eb *EventBus) dispatch(event *Event) {
	eb.mu.RLock()
	typeSubs := eb.listeners[event.Type]
	specific := make([]subscription, len(typeSubs))
	copy(specific, typeSubs)

	global := make([]subscription, len(eb.globalListeners))
	copy(global, eb.globalListeners)
	eb.mu.RUnlock()

	for _, sub := range specific {
		safeInvoke(sub.listener, event)
	}
	for _, sub := range global {
		safeInvoke(sub.listener, event)
	}
}

func safeInvoke(listener Listener, event *Event) {
	defer func() { _ = recover() }()
	listener(event)
}
