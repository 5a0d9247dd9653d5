package events

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iwtcode/robotAdapter/internal/middleware/logging"
)

func TestEmitOrderAndFilter(t *testing.T) {
	bus := NewBus(logging.Discard())

	var got []string
	bus.Subscribe(func(e Event) { got = append(got, "all:"+e.Type.String()) })
	bus.SubscribeTypes(func(e Event) { got = append(got, "conn:"+e.Type.String()) }, Connected)
	bus.SubscribeTypes(func(e Event) { got = append(got, "disc:"+e.Type.String()) }, Disconnected)

	bus.Emit(Event{Type: Connected, IP: "10.0.0.5"})
	bus.Emit(Event{Type: Disconnected, IP: "10.0.0.5"})

	assert.Equal(t, []string{
		"all:connected", "conn:connected",
		"all:disconnected", "disc:disconnected",
	}, got)
}

func TestEmitFillsTimestamp(t *testing.T) {
	bus := NewBus(logging.Discard())
	var evt Event
	bus.Subscribe(func(e Event) { evt = e })

	bus.Emit(Event{Type: Connected, SessionID: "s1", Handle: 42})

	assert.False(t, evt.Timestamp.IsZero())
	assert.Equal(t, "s1", evt.SessionID)
	assert.Equal(t, 42, evt.Handle)
}

func TestUnsubscribe(t *testing.T) {
	bus := NewBus(logging.Discard())
	calls := 0
	id := bus.Subscribe(func(Event) { calls++ })

	require.True(t, bus.Unsubscribe(id))
	assert.False(t, bus.Unsubscribe(id))
	assert.Zero(t, bus.Len())

	bus.Emit(Event{Type: Connected})
	assert.Zero(t, calls)
}

func TestPanickingSubscriberIsIsolated(t *testing.T) {
	bus := NewBus(logging.Discard())
	bus.Subscribe(func(Event) { panic("boom") })
	reached := false
	bus.Subscribe(func(Event) { reached = true })

	assert.NotPanics(t, func() { bus.Emit(Event{Type: Disconnected}) })
	assert.True(t, reached)
}

func TestSubscriberMayUnsubscribeDuringEmit(t *testing.T) {
	bus := NewBus(logging.Discard())
	var id SubscriberID
	calls := 0
	id = bus.Subscribe(func(Event) {
		calls++
		bus.Unsubscribe(id)
	})

	bus.Emit(Event{Type: Connected})
	bus.Emit(Event{Type: Connected})
	assert.Equal(t, 1, calls)
}
