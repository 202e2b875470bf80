// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package vq

import (
	"runtime"

	"code.hybscloud.com/spin"
)

// Attempt is the outcome of one pass of an optimistic operation.
type Attempt uint8

const (
	// AttemptDone ends the operation: it committed, or hit a terminal
	// full/empty condition, or answered a query.
	AttemptDone Attempt = iota

	// AttemptInconsistent means the snapshot was not yet published by the
	// last committed writer. Nothing was changed.
	AttemptInconsistent

	// AttemptLost means the counter swap lost to another goroutine.
	// Nothing was changed.
	AttemptLost
)

// String returns the attempt name.
func (a Attempt) String() string {
	switch a {
	case AttemptDone:
		return "done"
	case AttemptInconsistent:
		return "inconsistent"
	case AttemptLost:
		return "lost"
	}
	return "unknown"
}

const (
	// DefaultRetryLimit is the attempt budget of one operation.
	DefaultRetryLimit = 1 << 16

	// DefaultSpinLimit is how many failed attempts pause the CPU before
	// the policy starts yielding the processor instead.
	DefaultSpinLimit = 4
)

// RetryPolicy bounds the spin loop shared by every queue operation.
//
// After each failed attempt the policy backs off: the first Spins failures
// issue a CPU pause through [spin.Wait], later ones yield with
// [runtime.Gosched]. Once Limit attempts have failed, the operation gives up.
type RetryPolicy struct {
	Limit int
	Spins int
}

// DefaultRetryPolicy returns the policy used when none is configured.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{Limit: DefaultRetryLimit, Spins: DefaultSpinLimit}
}

// Run calls attempt with the zero-based attempt number until it returns
// [AttemptDone] or the budget is spent. It returns the number of attempts
// made and whether the operation finished. No backoff follows the last
// attempt.
func (p RetryPolicy) Run(attempt func(n int) Attempt) (int, bool) {
	limit := p.Limit
	if limit <= 0 {
		limit = DefaultRetryLimit
	}
	sw := spin.Wait{}
	for n := 0; ; n++ {
		if attempt(n) == AttemptDone {
			return n + 1, true
		}
		if n+1 >= limit {
			return limit, false
		}
		if n < p.Spins {
			sw.Once()
		} else {
			runtime.Gosched()
		}
	}
}
