package evad

import (
	"sync"
	"time"
)

// EventType tells what changed about a run.
type EventType string

const (
	// EventSnapshot is the first event of a watch stream.
	EventSnapshot EventType = "snapshot"
	// EventProgress follows every evaluated generation.
	EventProgress EventType = "progress"
	// EventStatus follows every status transition.
	EventStatus EventType = "status"
)

// Event is one change of a run.
type Event struct {
	Type      EventType
	Run       Run
	Timestamp time.Time
}

func (ev Event) fields() map[string]any {
	return map[string]any{
		"type":      string(ev.Type),
		"timestamp": ev.Timestamp.UTC().Format(time.RFC3339Nano),
		"run":       runFields(ev.Run),
	}
}

type subscription struct {
	runID string
	ch    chan Event
}

// EventHub fans run events out to subscribers and forwarders. Subscribers
// that fall behind lose progress events; status events evict the oldest
// buffered event instead of being dropped.
type EventHub struct {
	mu         sync.RWMutex
	subs       map[*subscription]struct{}
	forwarders []func(Event)
}

func NewEventHub() *EventHub {
	return &EventHub{
		subs: make(map[*subscription]struct{}),
	}
}

// Subscribe returns a channel of events for runID ("" for every run) and a
// function that ends the subscription and closes the channel.
func (h *EventHub) Subscribe(runID string, buffer int) (<-chan Event, func()) {
	if buffer < 1 {
		buffer = 1
	}
	sub := &subscription{runID: runID, ch: make(chan Event, buffer)}

	h.mu.Lock()
	h.subs[sub] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	return sub.ch, func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, sub)
			close(sub.ch)
			h.mu.Unlock()
		})
	}
}

// Forward registers fn to be called synchronously for every event.
func (h *EventHub) Forward(fn func(Event)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.forwarders = append(h.forwarders, fn)
}

// Publish delivers ev without blocking on slow subscribers.
func (h *EventHub) Publish(ev Event) {
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now()
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, fn := range h.forwarders {
		fn(ev)
	}
	for sub := range h.subs {
		if sub.runID != "" && sub.runID != ev.Run.ID {
			continue
		}
		select {
		case sub.ch <- ev:
			continue
		default:
		}
		if ev.Type != EventStatus {
			continue
		}
		select {
		case <-sub.ch:
		default:
		}
		select {
		case sub.ch <- ev:
		default:
		}
	}
}

// Subscribers returns the number of open subscriptions.
func (h *EventHub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}
