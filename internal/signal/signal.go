package signal

import (
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/mattjoyce/signalhub/internal/log"
)

// Token identifies a single subscription. It is valid for exactly one
// subscription and becomes stale once disconnected.
type Token string

// Handler is a subscriber callback. A non-nil return is recorded as a
// delivery failure for that subscriber only.
type Handler[T any] func(T) error

// Runner accepts tasks for deferred execution. Submit returns an error when
// the runner no longer accepts work.
type Runner interface {
	Submit(task func()) error
}

// DoneFunc observes the outcome of one asynchronous delivery.
type DoneFunc func(tok Token, err error)

type subscriber[T any] struct {
	token Token
	fn    Handler[T]
}

// Signal is a typed event channel. The zero value is not usable; use New.
type Signal[T any] struct {
	name      string
	onFailure func(Token, error)

	mu   sync.Mutex
	subs []subscriber[T]
}

// Option configures a Signal.
type Option[T any] func(*Signal[T])

// WithName sets the signal name used in logs and failure reports.
func WithName[T any](name string) Option[T] {
	return func(s *Signal[T]) {
		s.name = name
	}
}

// WithFailureObserver replaces the default failure observer. The observer is
// called once per failed delivery, for both synchronous and asynchronous
// emissions.
func WithFailureObserver[T any](fn func(Token, error)) Option[T] {
	return func(s *Signal[T]) {
		s.onFailure = fn
	}
}

// New creates an empty signal.
func New[T any](opts ...Option[T]) *Signal[T] {
	s := &Signal[T]{name: "anonymous"}
	for _, opt := range opts {
		opt(s)
	}
	if s.onFailure == nil {
		s.onFailure = func(tok Token, err error) {
			log.WithSignal(s.name).Warn("subscriber failed", "token", string(tok), "error", err)
		}
	}
	return s
}

// Name returns the signal name.
func (s *Signal[T]) Name() string {
	return s.name
}

// Connect appends fn to the subscriber list and returns its token.
func (s *Signal[T]) Connect(fn Handler[T]) Token {
	tok := Token(uuid.NewString())

	s.mu.Lock()
	s.subs = append(s.subs, subscriber[T]{token: tok, fn: fn})
	s.mu.Unlock()

	return tok
}

// Disconnect removes the subscription for tok. It returns false when the
// token is unknown or already removed; a second call is a no-op. A removed
// subscriber is excluded from subsequent emissions but still receives any
// emission already in flight.
func (s *Signal[T]) Disconnect(tok Token) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, sub := range s.subs {
		if sub.token == tok {
			s.subs = append(s.subs[:i], s.subs[i+1:]...)
			return true
		}
	}
	return false
}

// Len returns the current subscriber count.
func (s *Signal[T]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subs)
}

// snapshot copies the subscriber list so emission iterates a stable sequence
// while connects/disconnects remain possible, including from handlers.
func (s *Signal[T]) snapshot() []subscriber[T] {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := make([]subscriber[T], len(s.subs))
	copy(snap, s.subs)
	return snap
}

// Emit invokes every subscriber with v, in connection order, and blocks until
// all of them have run. Failures are isolated per subscriber and collected
// into the report; dispatch always continues to the remaining subscribers.
func (s *Signal[T]) Emit(v T) *Report {
	snap := s.snapshot()

	rep := &Report{Signal: s.name, Deliveries: make([]Delivery, 0, len(snap))}
	for _, sub := range snap {
		err := invoke(sub.fn, v)
		rep.Deliveries = append(rep.Deliveries, Delivery{Token: sub.token, Err: err})
		if err != nil {
			s.onFailure(sub.token, err)
		}
	}
	return rep
}

// EmitAsync wraps each subscriber invocation as a task and submits it to
// runner in connection order, returning the number of tasks accepted. It does
// not wait for any task to run. onDone, when non-nil, is called on the
// runner's worker after each delivery.
//
// When the runner rejects a submission the error is returned along with the
// count of tasks accepted before the rejection; those tasks still run.
func (s *Signal[T]) EmitAsync(v T, runner Runner, onDone DoneFunc) (int, error) {
	if runner == nil {
		return 0, errors.New("nil runner")
	}

	snap := s.snapshot()
	for i, sub := range snap {
		sub := sub
		err := runner.Submit(func() {
			derr := invoke(sub.fn, v)
			if derr != nil {
				s.onFailure(sub.token, derr)
			}
			if onDone != nil {
				onDone(sub.token, derr)
			}
		})
		if err != nil {
			return i, fmt.Errorf("submit delivery for %s: %w", s.name, err)
		}
	}
	return len(snap), nil
}

// invoke runs one handler, converting a panic into an error so a misbehaving
// subscriber cannot take down the emitter.
func invoke[T any](fn Handler[T], v T) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("subscriber panic: %v", rec)
		}
	}()
	return fn(v)
}
