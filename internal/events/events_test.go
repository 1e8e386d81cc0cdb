package events

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBusDeliversToSubscribers(t *testing.T) {
	bus := NewBus()

	var approved []Event
	bus.Subscribe(TypeBookingApproved, func(e Event) {
		approved = append(approved, e)
	})

	var rejected int
	bus.Subscribe(TypeBookingRejected, func(Event) { rejected++ })

	bus.Publish(Event{Type: TypeBookingApproved, GroupID: "g1", ActorID: 42})
	bus.Publish(Event{Type: TypeBookingCreated, GroupID: "g2"})

	assert.Len(t, approved, 1)
	assert.Equal(t, "g1", approved[0].GroupID)
	assert.Equal(t, int64(42), approved[0].ActorID)
	assert.False(t, approved[0].CreatedAt.IsZero(), "publish stamps CreatedAt")
	assert.Zero(t, rejected, "other types are not delivered")
}

func TestBusMultipleHandlers(t *testing.T) {
	bus := NewBus()

	calls := 0
	bus.Subscribe(TypePaymentAttached, func(Event) { calls++ })
	bus.Subscribe(TypePaymentAttached, func(Event) { calls++ })

	bus.Publish(Event{Type: TypePaymentAttached, GroupID: "g1"})
	assert.Equal(t, 2, calls)
}

func TestBusNoSubscribers(t *testing.T) {
	bus := NewBus()
	// Publishing with no subscribers must not panic.
	bus.Publish(Event{Type: TypeBookingCreated, GroupID: "g1"})
}
