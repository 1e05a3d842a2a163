// Package heartbeat emits a periodic system.heartbeat signal through the hub
// so consumers (the event feed, the watch TUI) can tell a quiet hub from a
// dead one.
package heartbeat

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/mattjoyce/signalhub/internal/hub"
	"github.com/mattjoyce/signalhub/internal/log"
)

// SignalName is the well-known heartbeat signal.
const SignalName = "system.heartbeat"

// Emitter is the hub surface the heartbeat needs.
type Emitter interface {
	Emit(ctx context.Context, name string, payload json.RawMessage) (*hub.EmitResult, error)
}

// Beat is the heartbeat payload.
type Beat struct {
	Seq int64     `json:"seq"`
	At  time.Time `json:"at"`
}

// Heartbeat drives the periodic emission loop.
type Heartbeat struct {
	emitter  Emitter
	interval time.Duration
	logger   *slog.Logger
	stopCh   chan struct{}
	wg       sync.WaitGroup
	seq      int64
}

// New creates a heartbeat with the given interval.
func New(emitter Emitter, interval time.Duration) *Heartbeat {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &Heartbeat{
		emitter:  emitter,
		interval: interval,
		logger:   log.WithComponent("heartbeat"),
		stopCh:   make(chan struct{}),
	}
}

// Start begins the tick loop.
func (h *Heartbeat) Start(ctx context.Context) {
	h.logger.Info("starting heartbeat", "interval", h.interval)
	h.wg.Add(1)
	go h.tickLoop(ctx)
}

// Stop gracefully stops the heartbeat.
func (h *Heartbeat) Stop() {
	h.logger.Info("stopping heartbeat")
	close(h.stopCh)
	h.wg.Wait()
	h.logger.Info("heartbeat stopped")
}

func (h *Heartbeat) tickLoop(ctx context.Context) {
	defer h.wg.Done()

	// Initial beat immediately.
	h.beat(ctx)

	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			h.beat(ctx)
		case <-h.stopCh:
			return
		case <-ctx.Done():
			return
		}
	}
}

func (h *Heartbeat) beat(ctx context.Context) {
	h.seq++
	payload, err := json.Marshal(Beat{Seq: h.seq, At: time.Now().UTC()})
	if err != nil {
		h.logger.Error("failed to marshal beat", "error", err)
		return
	}

	if _, err := h.emitter.Emit(ctx, SignalName, payload); err != nil {
		h.logger.Error("heartbeat emission failed", "seq", h.seq, "error", err)
	}
}
