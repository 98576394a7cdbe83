// Package eventbus provides implementations of the EventBus interface.
// This package contains the synchronous event bus implementation.
package eventbus

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/tejashwikalptaru/wavesync/internal/domain"
	"github.com/tejashwikalptaru/wavesync/internal/ports"
)

// ErrClosed is returned by Close when the bus was already closed.
var ErrClosed = errors.New("event bus already closed")

// SyncEventBus is a synchronous implementation of the FilteringEventBus interface.
// Events are delivered on the publisher's goroutine, in subscription order,
// type-specific handlers before wildcard handlers.
//
// The render loop publishes time updates from its tick, so handlers must
// return quickly.
type SyncEventBus struct {
	logger *slog.Logger

	mu       sync.RWMutex
	byType   map[domain.EventType][]subscription
	wildcard []subscription
	closed   bool

	idCounter uint64
	published atomic.Uint64
	panics    atomic.Uint64
}

type subscription struct {
	id      domain.SubscriptionID
	filter  ports.EventFilter
	handler domain.EventHandler
}

// NewSyncEventBus creates a new synchronous event bus.
func NewSyncEventBus() *SyncEventBus {
	return &SyncEventBus{
		byType: make(map[domain.EventType][]subscription),
	}
}

// SetLogger sets the logger for this event bus.
// This should be called after construction before using the event bus.
func (bus *SyncEventBus) SetLogger(logger *slog.Logger) {
	bus.mu.Lock()
	defer bus.mu.Unlock()
	bus.logger = logger
}

// Publish delivers an event to the subscribers of its type and to wildcard
// subscribers. Publishing on a closed bus is a no-op.
//
// Panics in handlers are recovered and logged, but do not stop other handlers
// from being called.
func (bus *SyncEventBus) Publish(event domain.Event) {
	if event == nil {
		return
	}

	bus.mu.RLock()
	if bus.closed {
		bus.mu.RUnlock()
		return
	}
	typed := bus.byType[event.Type()]
	targets := make([]subscription, 0, len(typed)+len(bus.wildcard))
	targets = append(targets, typed...)
	targets = append(targets, bus.wildcard...)
	logger := bus.logger
	bus.mu.RUnlock()

	bus.published.Add(1)
	for _, sub := range targets {
		if sub.filter != nil && !sub.filter(event) {
			continue
		}
		bus.deliver(logger, sub, event)
	}
}

func (bus *SyncEventBus) deliver(logger *slog.Logger, sub subscription, event domain.Event) {
	defer func() {
		if r := recover(); r != nil {
			bus.panics.Add(1)
			if logger != nil {
				logger.Error("event handler panicked",
					slog.Any("panic", r),
					slog.String("event_type", string(event.Type())),
					slog.String("subscription", string(sub.id)))
			}
		}
	}()

	sub.handler(event)
}

// Subscribe registers a handler for events of the specified type.
// Returns a unique subscription ID that can be used to unsubscribe.
func (bus *SyncEventBus) Subscribe(eventType domain.EventType, handler domain.EventHandler) domain.SubscriptionID {
	return bus.add(eventType, nil, handler, false)
}

// SubscribeFiltered registers a handler that only sees events passing filter.
func (bus *SyncEventBus) SubscribeFiltered(eventType domain.EventType, filter ports.EventFilter, handler domain.EventHandler) domain.SubscriptionID {
	return bus.add(eventType, filter, handler, false)
}

// SubscribeAll registers a handler that receives all events regardless of type.
func (bus *SyncEventBus) SubscribeAll(handler domain.EventHandler) domain.SubscriptionID {
	return bus.add("", nil, handler, true)
}

func (bus *SyncEventBus) add(eventType domain.EventType, filter ports.EventFilter, handler domain.EventHandler, all bool) domain.SubscriptionID {
	if handler == nil {
		panic("event handler cannot be nil")
	}

	bus.mu.Lock()
	defer bus.mu.Unlock()

	if bus.closed {
		panic("cannot subscribe to closed event bus")
	}

	bus.idCounter++
	sub := subscription{filter: filter, handler: handler}
	if all {
		sub.id = domain.SubscriptionID(fmt.Sprintf("sub-all-%d", bus.idCounter))
		bus.wildcard = append(bus.wildcard, sub)
		return sub.id
	}

	sub.id = domain.SubscriptionID(fmt.Sprintf("sub-%s-%d", eventType, bus.idCounter))
	// Copy on write so Publish can deliver from a snapshot without holding the lock.
	subs := make([]subscription, 0, len(bus.byType[eventType])+1)
	subs = append(subs, bus.byType[eventType]...)
	bus.byType[eventType] = append(subs, sub)
	return sub.id
}

// Unsubscribe removes a previously registered handler. Unknown IDs are ignored.
// Delivery order of the remaining handlers is preserved.
func (bus *SyncEventBus) Unsubscribe(id domain.SubscriptionID) {
	bus.mu.Lock()
	defer bus.mu.Unlock()

	for eventType, subs := range bus.byType {
		if kept, ok := without(subs, id); ok {
			if len(kept) == 0 {
				delete(bus.byType, eventType)
			} else {
				bus.byType[eventType] = kept
			}
			return
		}
	}

	if kept, ok := without(bus.wildcard, id); ok {
		bus.wildcard = kept
	}
}

func without(subs []subscription, id domain.SubscriptionID) ([]subscription, bool) {
	for i, sub := range subs {
		if sub.id == id {
			kept := make([]subscription, 0, len(subs)-1)
			kept = append(kept, subs[:i]...)
			return append(kept, subs[i+1:]...), true
		}
	}
	return subs, false
}

// HasSubscribers returns true if an event of this type would reach any handler.
func (bus *SyncEventBus) HasSubscribers(eventType domain.EventType) bool {
	bus.mu.RLock()
	defer bus.mu.RUnlock()

	return len(bus.byType[eventType]) > 0 || len(bus.wildcard) > 0
}

// Close shuts down the event bus and drops all subscriptions.
// Returns ErrClosed if already closed.
func (bus *SyncEventBus) Close() error {
	bus.mu.Lock()
	defer bus.mu.Unlock()

	if bus.closed {
		return ErrClosed
	}

	bus.closed = true
	bus.byType = make(map[domain.EventType][]subscription)
	bus.wildcard = nil

	return nil
}

// SubscriberCount returns the number of active subscriptions, wildcard included.
func (bus *SyncEventBus) SubscriberCount() int {
	bus.mu.RLock()
	defer bus.mu.RUnlock()

	count := len(bus.wildcard)
	for _, subs := range bus.byType {
		count += len(subs)
	}
	return count
}

// Stats returns how many events were published and how many handlers panicked.
func (bus *SyncEventBus) Stats() (published, panics uint64) {
	return bus.published.Load(), bus.panics.Load()
}

// Verify that SyncEventBus implements the FilteringEventBus interface
var _ ports.FilteringEventBus = (*SyncEventBus)(nil)
