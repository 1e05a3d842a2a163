// Package signal implements typed in-process signal channels with ordered
// subscriber dispatch.
//
// A Signal[T] owns an ordered list of subscribers. Connect appends a handler
// and returns an opaque Token; Disconnect removes the handler for a token and
// is an idempotent no-op for unknown tokens. Emit invokes every subscriber
// synchronously, in connection order, against a snapshot of the list taken
// when the emission starts:
//   - handlers connected during an emission are not invoked until the next one
//   - handlers disconnected during an emission still receive the current one
//   - a handler error or panic is captured per subscriber and never prevents
//     the remaining subscribers from running
//
// EmitAsync submits one task per subscriber to a Runner (see package executor)
// in connection order and returns without waiting. Execution order follows the
// runner's FIFO discipline and happens on the runner's worker, not the
// emitting goroutine. A task that was already submitted runs to completion
// even if its token is disconnected afterwards.
//
// Delivery is at-most-once per subscriber per emission; there are no retries.
package signal
