package bus

import (
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPublishSync(t *testing.T) {
	b := NewEventBus()
	var calls atomic.Int32
	b.SubscribeMultiple([]EventType{EventTypeAvatarReady, EventTypeAvatarUnloaded}, func(e Event) {
		calls.Add(1)
	})
	b.Subscribe(EventTypeAvatarReady, func(e Event) {
		assert.Equal(t, "a1", e.Data["id"])
		calls.Add(1)
	})

	b.PublishSync(Event{Type: EventTypeAvatarReady, Data: map[string]any{"id": "a1"}})
	assert.Equal(t, int32(2), calls.Load())

	b.PublishSync(Event{Type: EventTypeFeedConnected})
	assert.Equal(t, int32(2), calls.Load(), "no handlers for feed events")

	b.PublishSync(Event{Type: EventTypeAvatarUnloaded})
	assert.Equal(t, int32(3), calls.Load())
}
