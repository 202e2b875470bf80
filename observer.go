// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package vq

import (
	"context"
	"log/slog"
	"time"
)

// Event describes one failed attempt of an operation.
type Event struct {
	Op      Op
	Outcome Attempt       // AttemptInconsistent or AttemptLost
	Counter uint64        // counter value the attempt observed
	Attempt int           // zero-based attempt number
	Elapsed time.Duration // time since the queue was built
}

// Observer receives advisory diagnostics from a queue.
//
// Observers never influence queue semantics. They are called from the
// goroutine running the operation, so implementations must be safe for
// concurrent use and should return quickly.
type Observer interface {
	// Contended is called for every failed attempt when the queue was
	// built with Verbose.
	Contended(ev Event)

	// Exhausted is called when an operation gives up after spending its
	// whole retry budget.
	Exhausted(op Op, attempts int)
}

// NopObserver discards all diagnostics.
type NopObserver struct{}

func (NopObserver) Contended(Event)    {}
func (NopObserver) Exhausted(Op, int) {}

// LogObserver writes diagnostics to a structured logger.
// Contention is logged at debug level, exhaustion at warn level.
//
// It is the observer of every queue built without [Builder.Observe].
type LogObserver struct {
	logger *slog.Logger // nil: slog.Default at call time
}

// NewLogObserver returns an observer logging to logger, or to
// [slog.Default] if logger is nil.
func NewLogObserver(logger *slog.Logger) *LogObserver {
	return &LogObserver{logger: logger}
}

func (o *LogObserver) log() *slog.Logger {
	if o.logger == nil {
		return slog.Default()
	}
	return o.logger
}

func (o *LogObserver) Contended(ev Event) {
	logger := o.log()
	if !logger.Enabled(context.Background(), slog.LevelDebug) {
		return
	}
	logger.Debug("vq: contention",
		slog.String("op", ev.Op.String()),
		slog.String("outcome", ev.Outcome.String()),
		slog.Uint64("counter", ev.Counter),
		slog.Int("attempt", ev.Attempt),
		slog.Duration("elapsed", ev.Elapsed),
	)
}

func (o *LogObserver) Exhausted(op Op, attempts int) {
	o.log().Warn("vq: retry budget exhausted",
		slog.String("op", op.String()),
		slog.Int("attempts", attempts),
	)
}
