package signal

import (
	"errors"
	"fmt"
)

// Delivery records the outcome for one subscriber within one emission.
type Delivery struct {
	Token Token
	Err   error
}

// Report aggregates the per-subscriber outcomes of a synchronous emission.
// One subscriber's failure never masks another's; the caller decides whether
// an aggregate failure is fatal.
type Report struct {
	Signal     string
	Deliveries []Delivery
}

// Total returns the number of subscribers invoked.
func (r *Report) Total() int {
	return len(r.Deliveries)
}

// Delivered returns the number of subscribers that completed without error.
func (r *Report) Delivered() int {
	n := 0
	for _, d := range r.Deliveries {
		if d.Err == nil {
			n++
		}
	}
	return n
}

// Failed returns the deliveries that ended in an error or recovered panic.
func (r *Report) Failed() []Delivery {
	var out []Delivery
	for _, d := range r.Deliveries {
		if d.Err != nil {
			out = append(out, d)
		}
	}
	return out
}

// Err joins all delivery failures into one error, or returns nil when every
// subscriber succeeded.
func (r *Report) Err() error {
	var errs []error
	for _, d := range r.Deliveries {
		if d.Err != nil {
			errs = append(errs, fmt.Errorf("token %s: %w", d.Token, d.Err))
		}
	}
	return errors.Join(errs...)
}
