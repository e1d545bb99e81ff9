package stats

import (
	"testing"
	"time"

	"github.com/asaskevich/EventBus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHub_SubscriberCap(t *testing.T) {
	h, err := NewHub(EventBus.New(), 2)
	require.NoError(t, err)
	defer h.Close()

	_, cancel1, err := h.Subscribe()
	require.NoError(t, err)
	_, _, err = h.Subscribe()
	require.NoError(t, err)

	_, _, err = h.Subscribe()
	assert.ErrorIs(t, err, ErrTooManySubscribers)

	// A departing subscriber frees a slot.
	cancel1()
	_, _, err = h.Subscribe()
	assert.NoError(t, err)
	assert.Equal(t, 2, h.Count())
}

func TestHub_BroadcastViaBus(t *testing.T) {
	bus := EventBus.New()
	h, err := NewHub(bus, 10)
	require.NoError(t, err)
	defer h.Close()

	ch, cancel, err := h.Subscribe()
	require.NoError(t, err)
	defer cancel()

	ts := int64(1234)
	bus.Publish(TopicSnapshot, Snapshot{Timestamp: &ts})

	select {
	case snap := <-ch:
		require.NotNil(t, snap.Timestamp)
		assert.Equal(t, ts, *snap.Timestamp)
	case <-time.After(time.Second):
		t.Fatal("snapshot not delivered")
	}
}

func TestHub_SlowSubscriberDropsFrames(t *testing.T) {
	bus := EventBus.New()
	h, err := NewHub(bus, 10)
	require.NoError(t, err)
	defer h.Close()

	ch, cancel, err := h.Subscribe()
	require.NoError(t, err)
	defer cancel()

	one, two := int64(1), int64(2)
	bus.Publish(TopicSnapshot, Snapshot{Timestamp: &one})
	bus.Publish(TopicSnapshot, Snapshot{Timestamp: &two})

	snap := <-ch
	assert.Equal(t, one, *snap.Timestamp, "buffer holds the oldest undelivered frame")
	select {
	case <-ch:
		t.Fatal("second frame should have been dropped")
	default:
	}
}

func TestHub_CancelIsIdempotent(t *testing.T) {
	h, err := NewHub(EventBus.New(), 1)
	require.NoError(t, err)
	defer h.Close()

	_, cancel, err := h.Subscribe()
	require.NoError(t, err)
	cancel()
	cancel()
	assert.Equal(t, 0, h.Count())
}
