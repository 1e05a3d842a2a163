package hub

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFeedSnapshotSince(t *testing.T) {
	f := NewFeed(10)
	for i := 1; i <= 5; i++ {
		f.Publish("test.event", map[string]int{"n": i})
	}

	all := f.SnapshotSince(0)
	require.Len(t, all, 5)
	assert.Equal(t, int64(1), all[0].ID)
	assert.Equal(t, int64(5), all[4].ID)

	tail := f.SnapshotSince(3)
	require.Len(t, tail, 2)
	assert.Equal(t, int64(4), tail[0].ID)
	assert.Equal(t, int64(5), tail[1].ID)
}

func TestFeedRingOverwritesOldest(t *testing.T) {
	f := NewFeed(3)
	for i := 1; i <= 5; i++ {
		f.Publish("test.event", nil)
	}

	events := f.SnapshotSince(0)
	require.Len(t, events, 3)
	assert.Equal(t, int64(3), events[0].ID, "oldest two events were overwritten")
	assert.Equal(t, int64(5), events[2].ID)
}

func TestFeedSubscribeReceivesLiveEvents(t *testing.T) {
	f := NewFeed(10)

	ch, cancel := f.Subscribe()
	defer cancel()

	f.Publish("emission.completed", map[string]string{"signal": "a"})
	f.Publish("emission.failed", nil)

	ev := <-ch
	assert.Equal(t, "emission.completed", ev.Type)
	assert.Contains(t, string(ev.Data), "a")

	ev = <-ch
	assert.Equal(t, "emission.failed", ev.Type)
}

func TestFeedCancelClosesChannel(t *testing.T) {
	f := NewFeed(10)

	ch, cancel := f.Subscribe()
	cancel()

	_, open := <-ch
	assert.False(t, open)

	// Publishing after cancel must not panic on the closed channel.
	require.NotPanics(t, func() {
		f.Publish("test.event", nil)
	})
}

func TestFeedCancelIdempotent(t *testing.T) {
	f := NewFeed(10)
	_, cancel := f.Subscribe()
	cancel()
	require.NotPanics(t, cancel)
}

func TestFeedSlowConsumerDoesNotBlock(t *testing.T) {
	f := NewFeed(10)

	// Never read from the channel; its buffer fills and overflow is dropped.
	_, cancel := f.Subscribe()
	defer cancel()

	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			f.Publish("test.flood", fmt.Sprintf("event-%d", i))
		}
		close(done)
	}()

	<-done // would deadlock if a full subscriber channel blocked Publish
}

func TestFeedMultipleSubscribers(t *testing.T) {
	f := NewFeed(10)

	ch1, cancel1 := f.Subscribe()
	ch2, cancel2 := f.Subscribe()
	defer cancel1()
	defer cancel2()

	f.Publish("test.event", nil)

	ev1 := <-ch1
	ev2 := <-ch2
	assert.Equal(t, ev1.ID, ev2.ID)
}
