package events

import (
	"context"
	"sync"

	log "github.com/sirupsen/logrus"
)

// Handler is a function that handles events
type Handler func(ctx context.Context, event Event)

// Bus manages event subscriptions and dispatching
type Bus struct {
	mu       sync.RWMutex
	handlers map[EventType][]Handler
	inflight sync.WaitGroup
}

// NewBus creates a new event bus
func NewBus() *Bus {
	return &Bus{
		handlers: make(map[EventType][]Handler),
	}
}

// Subscribe adds a handler for a specific event type
func (b *Bus) Subscribe(eventType EventType, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.handlers[eventType] = append(b.handlers[eventType], handler)

	log.WithFields(log.Fields{
		"eventType":    eventType,
		"handlerCount": len(b.handlers[eventType]),
	}).Debug("Subscribed handler to event type")
}

// SubscribeAll adds a handler for every known event type
func (b *Bus) SubscribeAll(handler Handler) {
	for _, eventType := range AllEventTypes() {
		b.Subscribe(eventType, handler)
	}
}

// Emit publishes an event to all registered handlers.
// Handlers run asynchronously and a panicking handler is recovered and logged.
func (b *Bus) Emit(ctx context.Context, event Event) {
	b.mu.RLock()
	handlers := make([]Handler, len(b.handlers[event.Type()]))
	copy(handlers, b.handlers[event.Type()])
	b.mu.RUnlock()

	log.WithFields(log.Fields{
		"eventType":    event.Type(),
		"handlerCount": len(handlers),
	}).Debug("Emitting event to handlers")

	for i, handler := range handlers {
		b.inflight.Add(1)
		go func(h Handler, handlerIndex int) {
			defer b.inflight.Done()
			defer func() {
				if r := recover(); r != nil {
					log.WithFields(log.Fields{
						"eventType":    event.Type(),
						"handlerIndex": handlerIndex,
						"panic":        r,
					}).Error("Event handler panicked")
				}
			}()
			h(ctx, event)
		}(handler, i)
	}
}

// Wait blocks until every handler started so far has returned
func (b *Bus) Wait() {
	b.inflight.Wait()
}

// TransactionalBus holds events raised inside a unit of work until it commits
type TransactionalBus struct {
	real    *Bus
	pending []Event
}

func NewTransactionalBus(real *Bus) *TransactionalBus {
	return &TransactionalBus{real: real}
}

func (b *TransactionalBus) Publish(e Event) {
	log.WithFields(log.Fields{
		"eventType":    e.Type(),
		"pendingCount": len(b.pending),
	}).Debug("Adding event to transactional bus pending queue")
	b.pending = append(b.pending, e)
}

// Flush emits pending events. Called after a successful commit.
func (b *TransactionalBus) Flush(ctx context.Context) error {
	log.WithField("pendingEventCount", len(b.pending)).Debug("Flushing pending events")

	// Handlers outlive the request or transaction context
	eventCtx := context.WithoutCancel(ctx)

	for _, ev := range b.pending {
		b.real.Emit(eventCtx, ev)
	}
	b.pending = nil
	return nil
}

// Discard drops pending events after a rollback
func (b *TransactionalBus) Discard() {
	b.pending = nil
}

// Pending returns the number of buffered events
func (b *TransactionalBus) Pending() int {
	return len(b.pending)
}
