package hub

import (
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"

	"github.com/mattjoyce/signalhub/internal/signal"
)

// Event is one entry on the live feed.
type Event struct {
	ID   int64     `json:"id"`
	Type string    `json:"type"`
	At   time.Time `json:"at"`
	Data []byte    `json:"data"` // JSON payload
}

// Feed is the hub's own activity stream: a ring buffer for late clients plus
// live fan-out. Fan-out runs through a Signal[Event], so the feed is itself a
// consumer of the dispatch machinery it reports on.
type Feed struct {
	nextID atomic.Int64

	mu    sync.Mutex
	ring  []Event
	start int
	size  int

	stream *signal.Signal[Event]
}

func NewFeed(capacity int) *Feed {
	if capacity <= 0 {
		capacity = 100
	}
	return &Feed{
		ring:   make([]Event, capacity),
		stream: signal.New(signal.WithName[Event]("hub.feed")),
	}
}

func (f *Feed) Publish(eventType string, data any) {
	id := f.nextID.Add(1)

	payload := []byte("{}")
	if data != nil {
		if b, err := json.Marshal(data); err == nil {
			payload = b
		}
	}

	ev := Event{
		ID:   id,
		Type: eventType,
		At:   time.Now().UTC(),
		Data: payload,
	}

	f.mu.Lock()
	f.pushLocked(ev)
	f.mu.Unlock()

	f.stream.Emit(ev)
}

// Subscribe returns a buffered channel of future events and a cancel func.
// Slow consumers never block publishers: events are dropped when the channel
// is full. After cancel the channel is closed and receives nothing further.
func (f *Feed) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, 32)

	var mu sync.Mutex
	closed := false

	tok := f.stream.Connect(func(ev Event) error {
		mu.Lock()
		defer mu.Unlock()
		if closed {
			return nil
		}
		select {
		case ch <- ev:
		default:
			// Don't let slow clients block producers.
		}
		return nil
	})

	cancel := func() {
		f.stream.Disconnect(tok)
		mu.Lock()
		if !closed {
			closed = true
			close(ch)
		}
		mu.Unlock()
	}

	return ch, cancel
}

// SnapshotSince returns buffered events with ID > lastID, oldest-first.
// If lastID is 0, the full ring buffer snapshot is returned.
func (f *Feed) SnapshotSince(lastID int64) []Event {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]Event, 0, f.size)
	for i := 0; i < f.size; i++ {
		ev := f.ring[(f.start+i)%len(f.ring)]
		if lastID == 0 || ev.ID > lastID {
			out = append(out, ev)
		}
	}
	return out
}

func (f *Feed) pushLocked(ev Event) {
	capacity := len(f.ring)
	if capacity == 0 {
		return
	}

	if f.size < capacity {
		idx := (f.start + f.size) % capacity
		f.ring[idx] = ev
		f.size++
		return
	}

	// Overwrite oldest.
	f.ring[f.start] = ev
	f.start = (f.start + 1) % capacity
}
