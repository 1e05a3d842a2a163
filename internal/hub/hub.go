// Package hub manages named JSON signals on top of the typed dispatch core.
//
// The hub owns one Signal[json.RawMessage] per registered name, tracks which
// signal each token belongs to, journals every emission, and publishes
// activity events to its live feed.
package hub

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mattjoyce/signalhub/internal/executor"
	"github.com/mattjoyce/signalhub/internal/journal"
	"github.com/mattjoyce/signalhub/internal/log"
	"github.com/mattjoyce/signalhub/internal/signal"
)

// ErrExecutorStopped is returned by EmitAsync once the executor no longer
// accepts tasks.
var ErrExecutorStopped = errors.New("hub: executor stopped")

// Journal is the persistence surface the hub needs. Satisfied by
// *journal.Journal; nil-able for tests and journal-less setups.
type Journal interface {
	RecordEmission(ctx context.Context, em journal.Emission, deliveries []journal.Delivery) error
	RecordDelivery(ctx context.Context, d journal.Delivery) error
}

// FailureInfo is one failed delivery in an EmitResult.
type FailureInfo struct {
	Token string `json:"token"`
	Error string `json:"error"`
}

// EmitResult summarizes one hub emission.
type EmitResult struct {
	EmissionID  string        `json:"emission_id"`
	Signal      string        `json:"signal"`
	Mode        journal.Mode  `json:"mode"`
	Subscribers int           `json:"subscribers"`
	Delivered   int           `json:"delivered"`
	Submitted   int           `json:"submitted"`
	Failures    []FailureInfo `json:"failures,omitempty"`
}

// SignalInfo describes one registered signal.
type SignalInfo struct {
	Name        string `json:"name"`
	Subscribers int    `json:"subscribers"`
}

// Stats is an aggregate view for health reporting.
type Stats struct {
	Signals     int
	Subscribers int
}

// Hub is the named-signal registry.
type Hub struct {
	exec   *executor.Executor
	jrnl   Journal
	feed   *Feed
	logger *slog.Logger

	mu      sync.Mutex
	signals map[string]*signal.Signal[json.RawMessage]
	tokens  map[signal.Token]string // token -> signal name
}

// New creates a hub. exec may be nil when async emission is not needed;
// jrnl may be nil to disable journaling.
func New(exec *executor.Executor, jrnl Journal, feed *Feed) *Hub {
	if feed == nil {
		feed = NewFeed(256)
	}
	return &Hub{
		exec:    exec,
		jrnl:    jrnl,
		feed:    feed,
		logger:  log.WithComponent("hub"),
		signals: make(map[string]*signal.Signal[json.RawMessage]),
		tokens:  make(map[signal.Token]string),
	}
}

// Feed returns the hub's activity stream.
func (h *Hub) Feed() *Feed {
	return h.feed
}

// Signal returns the signal registered under name, creating it on first use.
func (h *Hub) Signal(name string) *signal.Signal[json.RawMessage] {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.signalLocked(name)
}

func (h *Hub) signalLocked(name string) *signal.Signal[json.RawMessage] {
	sig, ok := h.signals[name]
	if !ok {
		sig = signal.New(signal.WithName[json.RawMessage](name))
		h.signals[name] = sig
	}
	return sig
}

// Connect registers fn on the named signal and returns its token.
func (h *Hub) Connect(name string, fn signal.Handler[json.RawMessage]) signal.Token {
	h.mu.Lock()
	sig := h.signalLocked(name)
	h.mu.Unlock()

	tok := sig.Connect(fn)

	h.mu.Lock()
	h.tokens[tok] = name
	h.mu.Unlock()

	h.logger.Debug("subscriber connected", "signal", name, "token", string(tok))
	return tok
}

// Disconnect removes the subscription for tok, wherever it is connected.
// Unknown or already-removed tokens are a silent no-op.
func (h *Hub) Disconnect(tok signal.Token) bool {
	h.mu.Lock()
	name, ok := h.tokens[tok]
	if ok {
		delete(h.tokens, tok)
	}
	sig := h.signals[name]
	h.mu.Unlock()

	if !ok || sig == nil {
		return false
	}
	removed := sig.Disconnect(tok)
	if removed {
		h.logger.Debug("subscriber disconnected", "signal", name, "token", string(tok))
	}
	return removed
}

// Emit dispatches payload synchronously to every subscriber of name. The
// result carries per-subscriber failures; it is never an error for some
// subscribers to fail.
func (h *Hub) Emit(ctx context.Context, name string, payload json.RawMessage) (*EmitResult, error) {
	if name == "" {
		return nil, fmt.Errorf("signal name is empty")
	}
	sig := h.Signal(name)

	emissionID := uuid.NewString()
	rep := sig.Emit(payload)

	res := &EmitResult{
		EmissionID:  emissionID,
		Signal:      name,
		Mode:        journal.ModeSync,
		Subscribers: rep.Total(),
		Delivered:   rep.Delivered(),
	}
	deliveries := make([]journal.Delivery, 0, rep.Total())
	for _, d := range rep.Deliveries {
		jd := journal.Delivery{
			EmissionID: emissionID,
			Token:      string(d.Token),
			Outcome:    journal.OutcomeOK,
		}
		if d.Err != nil {
			msg := d.Err.Error()
			jd.Outcome = journal.OutcomeFailed
			jd.Error = &msg
			res.Failures = append(res.Failures, FailureInfo{Token: string(d.Token), Error: msg})
		}
		deliveries = append(deliveries, jd)
	}

	h.record(ctx, journal.Emission{
		ID:          emissionID,
		Signal:      name,
		Mode:        journal.ModeSync,
		Payload:     payload,
		Subscribers: rep.Total(),
		Failures:    len(res.Failures),
	}, deliveries)

	eventType := "emission.completed"
	if len(res.Failures) > 0 {
		eventType = "emission.failed"
	}
	h.feed.Publish(eventType, res)

	return res, nil
}

// EmitAsync submits one task per subscriber of name to the executor and
// returns once all tasks are queued. Delivery outcomes are journaled and fed
// as the tasks complete on the executor worker.
func (h *Hub) EmitAsync(ctx context.Context, name string, payload json.RawMessage) (*EmitResult, error) {
	if name == "" {
		return nil, fmt.Errorf("signal name is empty")
	}
	if h.exec == nil {
		return nil, fmt.Errorf("hub has no executor")
	}
	sig := h.Signal(name)

	emissionID := uuid.NewString()
	emLogger := log.WithEmission(emissionID)

	submitted, err := sig.EmitAsync(payload, h.exec, func(tok signal.Token, derr error) {
		jd := journal.Delivery{
			EmissionID: emissionID,
			Token:      string(tok),
			Outcome:    journal.OutcomeOK,
		}
		if derr != nil {
			msg := derr.Error()
			jd.Outcome = journal.OutcomeFailed
			jd.Error = &msg
		}
		// Journaling happens on the executor worker, after the emitting
		// request may be long gone.
		if h.jrnl != nil {
			if jerr := h.jrnl.RecordDelivery(context.Background(), jd); jerr != nil {
				emLogger.Error("failed to journal delivery", "error", jerr)
			}
		}
		h.feed.Publish("delivery.completed", map[string]any{
			"emission_id": emissionID,
			"signal":      name,
			"token":       string(tok),
			"outcome":     string(jd.Outcome),
		})
	})

	res := &EmitResult{
		EmissionID:  emissionID,
		Signal:      name,
		Mode:        journal.ModeAsync,
		Subscribers: sig.Len(),
		Submitted:   submitted,
	}

	h.record(ctx, journal.Emission{
		ID:          emissionID,
		Signal:      name,
		Mode:        journal.ModeAsync,
		Payload:     payload,
		Subscribers: submitted,
	}, nil)

	if err != nil {
		if errors.Is(err, executor.ErrClosed) {
			return res, fmt.Errorf("%w: %d of %d tasks submitted", ErrExecutorStopped, submitted, res.Subscribers)
		}
		return res, err
	}

	h.feed.Publish("task.submitted", res)
	return res, nil
}

func (h *Hub) record(ctx context.Context, em journal.Emission, deliveries []journal.Delivery) {
	if h.jrnl == nil {
		return
	}
	if err := h.jrnl.RecordEmission(ctx, em, deliveries); err != nil {
		h.logger.Error("failed to journal emission", "emission_id", em.ID, "signal", em.Signal, "error", err)
	}
}

// Signals lists registered signals sorted by name.
func (h *Hub) Signals() []SignalInfo {
	h.mu.Lock()
	defer h.mu.Unlock()

	out := make([]SignalInfo, 0, len(h.signals))
	for name, sig := range h.signals {
		out = append(out, SignalInfo{Name: name, Subscribers: sig.Len()})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Stats returns aggregate counts for health reporting.
func (h *Hub) Stats() Stats {
	h.mu.Lock()
	defer h.mu.Unlock()

	st := Stats{Signals: len(h.signals)}
	for _, sig := range h.signals {
		st.Subscribers += sig.Len()
	}
	return st
}

// WaitIdle blocks until the executor backlog is empty or the timeout
// elapses. Intended for tests and shutdown diagnostics.
func (h *Hub) WaitIdle(timeout time.Duration) bool {
	if h.exec == nil {
		return true
	}
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if h.exec.Pending() == 0 {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return h.exec.Pending() == 0
}
