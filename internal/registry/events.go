package registry

import (
	"sync"
	"time"
)

// EventType names a registry change.
type EventType string

const (
	EventRefreshed EventType = "refreshed"
	EventReset     EventType = "reset"
	EventLoaded    EventType = "loaded"
	EventUnloaded  EventType = "unloaded"
	EventSelected  EventType = "selected"
	EventProps     EventType = "props"
	EventAuth      EventType = "auth"
	EventSource    EventType = "source"
)

// Event describes one change to the registry state.
type Event struct {
	Type   EventType `json:"type"`
	AppID  string    `json:"app_id,omitempty"`
	Epoch  uint64    `json:"epoch"`
	Detail string    `json:"detail,omitempty"`
	Time   time.Time `json:"time"`
}

const subscriberBuffer = 64

// broker fans events out to subscribers. Slow subscribers miss events
// rather than stalling state changes.
type broker struct {
	mu     sync.Mutex
	nextID int
	subs   map[int]chan Event
}

func newBroker() *broker {
	return &broker{subs: make(map[int]chan Event)}
}

func (b *broker) subscribe() (<-chan Event, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	ch := make(chan Event, subscriberBuffer)
	b.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			delete(b.subs, id)
			close(ch)
		})
	}
}

func (b *broker) publish(ev Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, ch := range b.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}

func (b *broker) count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}
