package stats

import (
	"sync"

	"github.com/asaskevich/EventBus"

	"lobsterboard-server-go/internal/platform/errors"
)

// ErrTooManySubscribers is returned when the SSE connection cap is hit.
var ErrTooManySubscribers = errors.New(errors.KindTransport, "stats", "Too many SSE connections")

// Hub fans snapshots from the event bus out to SSE subscribers. A slow
// subscriber drops snapshots instead of stalling the broadcast; stats
// are periodic so a missed frame is replaced two seconds later.
type Hub struct {
	bus EventBus.Bus
	max int

	mu     sync.Mutex
	subs   map[int]chan Snapshot
	nextID int
}

func NewHub(bus EventBus.Bus, maxSubscribers int) (*Hub, error) {
	h := &Hub{
		bus:  bus,
		max:  maxSubscribers,
		subs: map[int]chan Snapshot{},
	}
	if err := bus.Subscribe(TopicSnapshot, h.broadcast); err != nil {
		return nil, errors.Wrap(errors.KindBootstrap, "stats.hub", "subscribe snapshot topic", err)
	}
	return h, nil
}

// Subscribe registers a listener. The returned cancel func must be
// called when the connection closes.
func (h *Hub) Subscribe() (<-chan Snapshot, func(), error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if len(h.subs) >= h.max {
		return nil, nil, ErrTooManySubscribers
	}
	id := h.nextID
	h.nextID++
	ch := make(chan Snapshot, 1)
	h.subs[id] = ch

	cancel := func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if _, ok := h.subs[id]; ok {
			delete(h.subs, id)
			close(ch)
		}
	}
	return ch, cancel, nil
}

// Count reports the number of live subscribers.
func (h *Hub) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// Close detaches the hub from the bus and ends every subscriber.
func (h *Hub) Close() {
	_ = h.bus.Unsubscribe(TopicSnapshot, h.broadcast)

	h.mu.Lock()
	defer h.mu.Unlock()
	for id, ch := range h.subs {
		delete(h.subs, id)
		close(ch)
	}
}

func (h *Hub) broadcast(s Snapshot) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, ch := range h.subs {
		select {
		case ch <- s:
		default:
		}
	}
}
