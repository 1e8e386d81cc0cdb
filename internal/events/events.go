// Package events provides in-process pub/sub for booking domain events.
package events

import (
	"sync"
	"time"
)

// Event types emitted by the booking lifecycle.
const (
	TypeBookingCreated  = "booking.created"
	TypeBookingApproved = "booking.approved"
	TypeBookingRejected = "booking.rejected"
	TypePaymentAttached = "payment.attached"
)

// Event is a lightweight domain event describing a booking group change.
type Event struct {
	Type       string
	GroupID    string
	PropertyID int64
	ActorID    int64
	Detail     string
	CreatedAt  time.Time
}

// Handler reacts to an event.
type Handler func(event Event)

// Bus provides in-process pub/sub for booking events.
type Bus struct {
	subscribers map[string][]Handler
	mu          sync.RWMutex
}

// NewBus constructs an empty bus.
func NewBus() *Bus {
	return &Bus{subscribers: make(map[string][]Handler)}
}

// Subscribe registers a handler for a given event type.
func (b *Bus) Subscribe(eventType string, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers[eventType] = append(b.subscribers[eventType], handler)
}

// Publish notifies subscribers of the event type. Handlers run synchronously;
// the caller decides the concurrency model.
func (b *Bus) Publish(event Event) {
	b.mu.RLock()
	handlers := append([]Handler(nil), b.subscribers[event.Type]...)
	b.mu.RUnlock()

	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}

	for _, handler := range handlers {
		handler(event)
	}
}
