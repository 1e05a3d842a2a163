package executor

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/mattjoyce/signalhub/internal/log"
)

// ErrClosed is returned by Submit once the executor has stopped.
var ErrClosed = errors.New("executor closed")

// Task is a unit of deferred work.
type Task func()

// StopPolicy controls what happens to queued tasks on Stop.
type StopPolicy string

const (
	// PolicyDrain runs all accepted tasks before Stop returns.
	PolicyDrain StopPolicy = "drain"
	// PolicyDiscard abandons queued tasks on Stop.
	PolicyDiscard StopPolicy = "discard"
)

// ParsePolicy validates a policy string from configuration.
func ParsePolicy(s string) (StopPolicy, error) {
	switch StopPolicy(s) {
	case PolicyDrain, PolicyDiscard:
		return StopPolicy(s), nil
	case "":
		return PolicyDrain, nil
	default:
		return "", fmt.Errorf("unknown stop policy %q (want drain or discard)", s)
	}
}

const (
	stateIdle int32 = iota
	stateRunning
	stateStopped
)

const defaultQueueSize = 256

// Executor is a serial task queue with one worker goroutine.
type Executor struct {
	logger    *slog.Logger
	policy    StopPolicy
	queueSize int

	tasks chan Task
	quit  chan struct{}
	done  chan struct{}

	state    atomic.Int32
	executed atomic.Int64
	stopOnce sync.Once
}

// Option configures an Executor.
type Option func(*Executor)

// WithQueueSize sets the task buffer capacity. Submit blocks once the buffer
// is full.
func WithQueueSize(n int) Option {
	return func(e *Executor) {
		if n > 0 {
			e.queueSize = n
		}
	}
}

// WithStopPolicy sets the shutdown policy.
func WithStopPolicy(p StopPolicy) Option {
	return func(e *Executor) {
		e.policy = p
	}
}

// New creates an executor in the Idle state.
func New(opts ...Option) *Executor {
	e := &Executor{
		logger:    log.WithComponent("executor"),
		policy:    PolicyDrain,
		queueSize: defaultQueueSize,
		quit:      make(chan struct{}),
		done:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.tasks = make(chan Task, e.queueSize)
	return e
}

// Start launches the worker. It returns an error if the executor is already
// running or has been stopped.
func (e *Executor) Start() error {
	if !e.state.CompareAndSwap(stateIdle, stateRunning) {
		if e.state.Load() == stateStopped {
			return ErrClosed
		}
		return errors.New("executor already started")
	}

	e.logger.Info("worker started", "queue_size", e.queueSize, "stop_policy", string(e.policy))
	go e.run()
	return nil
}

func (e *Executor) run() {
	defer close(e.done)
	defer e.logger.Info("worker stopped", "executed", e.executed.Load())

	for {
		select {
		case t := <-e.tasks:
			e.exec(t)
		case <-e.quit:
			if e.policy == PolicyDrain {
				e.drainBacklog()
			} else if n := len(e.tasks); n > 0 {
				e.logger.Warn("discarding queued tasks", "count", n)
			}
			return
		}
	}
}

// drainBacklog runs everything already buffered, then returns.
func (e *Executor) drainBacklog() {
	for {
		select {
		case t := <-e.tasks:
			e.exec(t)
		default:
			return
		}
	}
}

func (e *Executor) exec(t Task) {
	defer func() {
		if rec := recover(); rec != nil {
			e.logger.Error("task panicked", "panic", rec)
		}
	}()
	t()
	e.executed.Add(1)
}

// Submit queues a task for execution. Acceptance order equals execution
// order. Once accepted a task runs to completion under PolicyDrain even if
// Stop is called immediately afterwards.
func (e *Executor) Submit(task func()) error {
	if task == nil {
		return errors.New("nil task")
	}
	if e.state.Load() == stateStopped {
		return ErrClosed
	}

	select {
	case e.tasks <- task:
		return nil
	case <-e.quit:
		return ErrClosed
	}
}

// Stop transitions to Stopped and, when the worker is running, blocks until
// it exits. Under PolicyDrain that means every accepted task has executed.
// Stop is idempotent.
func (e *Executor) Stop() {
	e.stopOnce.Do(func() {
		prev := e.state.Swap(stateStopped)
		close(e.quit)
		if prev == stateRunning {
			<-e.done
		}
	})
}

// Running reports whether the worker is active.
func (e *Executor) Running() bool {
	return e.state.Load() == stateRunning
}

// Stopped reports whether the executor reached its terminal state.
func (e *Executor) Stopped() bool {
	return e.state.Load() == stateStopped
}

// State returns the lifecycle state as a string for observability surfaces.
func (e *Executor) State() string {
	switch e.state.Load() {
	case stateRunning:
		return "running"
	case stateStopped:
		return "stopped"
	default:
		return "idle"
	}
}

// Pending returns the number of tasks accepted but not yet started.
func (e *Executor) Pending() int {
	return len(e.tasks)
}

// Executed returns the number of tasks run to completion.
func (e *Executor) Executed() int64 {
	return e.executed.Load()
}
