package ports

import (
	"github.com/tejashwikalptaru/wavesync/internal/domain"
)

// EventBus carries the engine's notifications (playback, time, duration,
// errors, lifecycle) to whoever listens: the presenter, the preference
// service, the recent window. Implementations must be safe for concurrent use.
//
//	subID := bus.Subscribe(domain.EventTimeUpdate, func(event domain.Event) {
//	    e := event.(domain.TimeUpdateEvent)
//	    view.SetTime(e.CurrentTime)
//	})
//	defer bus.Unsubscribe(subID)
type EventBus interface {
	// Publish delivers event to every matching subscriber. Handlers run on
	// the publishing goroutine and must return quickly.
	Publish(event domain.Event)

	// Subscribe registers handler for one event type.
	Subscribe(eventType domain.EventType, handler domain.EventHandler) domain.SubscriptionID

	// Unsubscribe is a no-op for unknown IDs.
	Unsubscribe(id domain.SubscriptionID)

	// SubscribeAll registers handler for every event type.
	SubscribeAll(handler domain.EventHandler) domain.SubscriptionID

	// HasSubscribers reports whether publishing eventType would reach anyone.
	// The frame loop uses it to skip per-frame time updates.
	HasSubscribers(eventType domain.EventType) bool

	Close() error
}

// EventFilter decides whether a subscriber sees an event.
type EventFilter func(event domain.Event) bool

// FilteringEventBus adds filtered subscriptions.
type FilteringEventBus interface {
	EventBus

	// SubscribeFiltered registers handler for events of eventType that pass filter.
	SubscribeFiltered(eventType domain.EventType, filter EventFilter, handler domain.EventHandler) domain.SubscriptionID
}
