package hub

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mattjoyce/signalhub/internal/executor"
	"github.com/mattjoyce/signalhub/internal/journal"
)

// memJournal records journal calls in memory.
type memJournal struct {
	mu         sync.Mutex
	emissions  []journal.Emission
	deliveries []journal.Delivery
}

func (m *memJournal) RecordEmission(_ context.Context, em journal.Emission, ds []journal.Delivery) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.emissions = append(m.emissions, em)
	m.deliveries = append(m.deliveries, ds...)
	return nil
}

func (m *memJournal) RecordDelivery(_ context.Context, d journal.Delivery) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deliveries = append(m.deliveries, d)
	return nil
}

func (m *memJournal) deliveryCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.deliveries)
}

func TestHubEmitDispatchesAndJournals(t *testing.T) {
	jrnl := &memJournal{}
	h := New(nil, jrnl, NewFeed(10))

	var got []string
	h.Connect("order.created", func(p json.RawMessage) error {
		got = append(got, string(p))
		return nil
	})

	res, err := h.Emit(context.Background(), "order.created", json.RawMessage(`{"id":7}`))
	require.NoError(t, err)

	assert.Equal(t, "order.created", res.Signal)
	assert.Equal(t, journal.ModeSync, res.Mode)
	assert.Equal(t, 1, res.Subscribers)
	assert.Equal(t, 1, res.Delivered)
	assert.Empty(t, res.Failures)
	assert.Equal(t, []string{`{"id":7}`}, got)

	require.Len(t, jrnl.emissions, 1)
	assert.Equal(t, res.EmissionID, jrnl.emissions[0].ID)
	assert.Equal(t, journal.ModeSync, jrnl.emissions[0].Mode)
	require.Len(t, jrnl.deliveries, 1)
	assert.Equal(t, journal.OutcomeOK, jrnl.deliveries[0].Outcome)
}

func TestHubEmitCollectsFailures(t *testing.T) {
	jrnl := &memJournal{}
	h := New(nil, jrnl, NewFeed(10))

	h.Connect("x", func(json.RawMessage) error { return nil })
	tokBad := h.Connect("x", func(json.RawMessage) error { return errors.New("nope") })

	res, err := h.Emit(context.Background(), "x", json.RawMessage(`1`))
	require.NoError(t, err, "subscriber failures never fail the emit call")

	assert.Equal(t, 2, res.Subscribers)
	assert.Equal(t, 1, res.Delivered)
	require.Len(t, res.Failures, 1)
	assert.Equal(t, string(tokBad), res.Failures[0].Token)
	assert.Equal(t, "nope", res.Failures[0].Error)

	require.Len(t, jrnl.emissions, 1)
	assert.Equal(t, 1, jrnl.emissions[0].Failures)
}

func TestHubEmitPublishesFeedEvent(t *testing.T) {
	feed := NewFeed(10)
	h := New(nil, nil, feed)

	h.Connect("a", func(json.RawMessage) error { return nil })
	_, err := h.Emit(context.Background(), "a", nil)
	require.NoError(t, err)

	events := feed.SnapshotSince(0)
	require.Len(t, events, 1)
	assert.Equal(t, "emission.completed", events[0].Type)

	h.Connect("a", func(json.RawMessage) error { return errors.New("bad") })
	_, err = h.Emit(context.Background(), "a", nil)
	require.NoError(t, err)

	events = feed.SnapshotSince(0)
	require.Len(t, events, 2)
	assert.Equal(t, "emission.failed", events[1].Type)
}

func TestHubEmitEmptyName(t *testing.T) {
	h := New(nil, nil, nil)
	_, err := h.Emit(context.Background(), "", nil)
	assert.Error(t, err)
}

func TestHubDisconnect(t *testing.T) {
	h := New(nil, nil, nil)

	var calls int
	tok := h.Connect("s", func(json.RawMessage) error {
		calls++
		return nil
	})

	assert.True(t, h.Disconnect(tok))
	assert.False(t, h.Disconnect(tok), "second disconnect is a no-op")

	_, err := h.Emit(context.Background(), "s", nil)
	require.NoError(t, err)
	assert.Zero(t, calls)
}

func TestHubSignalsSorted(t *testing.T) {
	h := New(nil, nil, nil)
	h.Connect("zeta", func(json.RawMessage) error { return nil })
	h.Connect("alpha", func(json.RawMessage) error { return nil })
	h.Connect("alpha", func(json.RawMessage) error { return nil })

	infos := h.Signals()
	require.Len(t, infos, 2)
	assert.Equal(t, "alpha", infos[0].Name)
	assert.Equal(t, 2, infos[0].Subscribers)
	assert.Equal(t, "zeta", infos[1].Name)
	assert.Equal(t, 1, infos[1].Subscribers)

	st := h.Stats()
	assert.Equal(t, 2, st.Signals)
	assert.Equal(t, 3, st.Subscribers)
}

func TestHubEmitAsync(t *testing.T) {
	exec := executor.New(executor.WithQueueSize(16))
	require.NoError(t, exec.Start())
	defer exec.Stop()

	jrnl := &memJournal{}
	h := New(exec, jrnl, NewFeed(10))

	var mu sync.Mutex
	var got []string
	h.Connect("job.done", func(p json.RawMessage) error {
		mu.Lock()
		got = append(got, string(p))
		mu.Unlock()
		return nil
	})
	h.Connect("job.done", func(json.RawMessage) error {
		return errors.New("async fail")
	})

	res, err := h.EmitAsync(context.Background(), "job.done", json.RawMessage(`"ok"`))
	require.NoError(t, err)
	assert.Equal(t, journal.ModeAsync, res.Mode)
	assert.Equal(t, 2, res.Submitted)

	require.True(t, h.WaitIdle(2*time.Second))
	// Deliveries are journaled from the worker; poll for both rows.
	require.Eventually(t, func() bool {
		return jrnl.deliveryCount() == 2
	}, 2*time.Second, 10*time.Millisecond)

	mu.Lock()
	assert.Equal(t, []string{`"ok"`}, got)
	mu.Unlock()

	jrnl.mu.Lock()
	defer jrnl.mu.Unlock()
	require.Len(t, jrnl.emissions, 1)
	assert.Equal(t, journal.ModeAsync, jrnl.emissions[0].Mode)
	outcomes := map[journal.Outcome]int{}
	for _, d := range jrnl.deliveries {
		outcomes[d.Outcome]++
	}
	assert.Equal(t, 1, outcomes[journal.OutcomeOK])
	assert.Equal(t, 1, outcomes[journal.OutcomeFailed])
}

func TestHubEmitAsyncStoppedExecutor(t *testing.T) {
	exec := executor.New()
	require.NoError(t, exec.Start())
	exec.Stop()

	h := New(exec, nil, NewFeed(10))
	h.Connect("s", func(json.RawMessage) error { return nil })

	res, err := h.EmitAsync(context.Background(), "s", nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrExecutorStopped)
	assert.Zero(t, res.Submitted)
}

func TestHubEmitAsyncNoExecutor(t *testing.T) {
	h := New(nil, nil, nil)
	_, err := h.EmitAsync(context.Background(), "s", nil)
	assert.Error(t, err)
}
