// Package executor provides a single-worker FIFO task queue.
//
// Tasks submitted with Submit run one at a time, in submission order, on a
// dedicated worker goroutine. The lifecycle is Idle -> Start -> Running ->
// Stop -> Stopped, and Stopped is terminal. Submit after Stop returns
// ErrClosed.
//
// Stop behavior is a policy choice made at construction time:
//   - PolicyDrain (default): Stop runs every task already accepted before
//     returning, so no accepted task is silently dropped.
//   - PolicyDiscard: Stop abandons the backlog and returns as soon as the
//     in-flight task (if any) finishes.
//
// A task that panics is recovered and logged; it never stops the worker.
package executor
