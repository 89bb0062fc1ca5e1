package observability

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// Event is a published notification.
type Event struct {
	Type string
	Data map[string]interface{}
}

// EventBus implements the EventPublisher interface. Every event is logged at
// debug level and delivered to all current subscribers.
type EventBus struct {
	mu          sync.RWMutex
	subscribers map[int]chan Event
	nextID      int
	buffer      int
}

// NewEventBus creates a new event bus. Subscriber channels hold up to buffer events.
func NewEventBus(buffer int) *EventBus {
	return &EventBus{
		subscribers: make(map[int]chan Event),
		buffer:      buffer,
	}
}

// Publish publishes an event with the given type and data. Slow subscribers
// miss events rather than block the publisher.
func (e *EventBus) Publish(ctx context.Context, eventType string, data map[string]interface{}) {
	fields := make([]zap.Field, 0, len(data))
	for k, v := range data {
		if k == "snapshot" {
			continue
		}
		fields = append(fields, zap.Any(k, v))
	}
	FromContext(ctx).Debug(eventType, fields...)

	event := Event{Type: eventType, Data: data}

	e.mu.RLock()
	defer e.mu.RUnlock()
	for _, ch := range e.subscribers {
		select {
		case ch <- event:
		default:
		}
	}
}

// Subscribe registers a new subscriber. The returned function unsubscribes
// and closes the channel.
func (e *EventBus) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, e.buffer)

	e.mu.Lock()
	id := e.nextID
	e.nextID++
	e.subscribers[id] = ch
	e.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			e.mu.Lock()
			delete(e.subscribers, id)
			e.mu.Unlock()
			close(ch)
		})
	}
}
