// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package bench drives queues with concurrent workloads, checks that no
// element is lost or duplicated, and reports timings.
package bench

import (
	"fmt"
	"math/bits"
	"strings"
	"time"

	"code.hybscloud.com/vq"
)

// Target is the queue surface the harness drives.
type Target = vq.Queue[uint64]

// Impl is a named queue factory.
type Impl struct {
	Name        string
	New         func(capacity int) Target
	MaxCapacity int // Largest capacity New accepts
}

// maxCapacity is the largest power of 2 an int holds.
const maxCapacity = 1 << (bits.UintSize - 2)

// queue returns a queue holding at least n items, or an error if the
// implementation cannot address that many.
func (impl Impl) queue(n int) (Target, error) {
	c, err := capacityFor(n, impl.MaxCapacity)
	if err != nil {
		return nil, fmt.Errorf("bench: %s: %w", impl.Name, err)
	}
	return impl.New(c), nil
}

// ImplNames lists the implementations known to NewImpl, baseline first.
var ImplNames = []string{"mutex", "packed", "packed-strict", "split", "split-strict"}

// NewImpl returns the factory for name. Versioned queues report to obs;
// with verbose set they report every contention event.
func NewImpl(name string, obs vq.Observer, verbose bool) (Impl, error) {
	configure := func(b *vq.Builder) *vq.Builder {
		if obs != nil {
			b.Observe(obs)
		}
		if verbose {
			b.Verbose()
		}
		return b
	}
	var newQueue func(capacity int) Target
	limit := maxCapacity
	switch name {
	case "mutex":
		newQueue = func(capacity int) Target {
			return vq.NewMutex[uint64](capacity)
		}
	case "packed":
		limit = codecLimit(vq.LayoutPacked)
		newQueue = func(capacity int) Target {
			return vq.Build[uint64](configure(vq.New(capacity).Packed()))
		}
	case "packed-strict":
		limit = codecLimit(vq.LayoutPacked)
		newQueue = func(capacity int) Target {
			return vq.Build[uint64](configure(vq.New(capacity).Packed().Strict()))
		}
	case "split":
		limit = codecLimit(vq.LayoutSplit)
		newQueue = func(capacity int) Target {
			return vq.Build[uint64](configure(vq.New(capacity).Split()))
		}
	case "split-strict":
		limit = codecLimit(vq.LayoutSplit)
		newQueue = func(capacity int) Target {
			return vq.Build[uint64](configure(vq.New(capacity).Split().Strict()))
		}
	default:
		return Impl{}, fmt.Errorf("bench: unknown implementation %q (want one of %s)", name, strings.Join(ImplNames, ", "))
	}
	return Impl{Name: name, New: newQueue, MaxCapacity: limit}, nil
}

// Config sizes a workload.
type Config struct {
	Threads    int           // Concurrent workers
	Iterations int           // Rounds per run
	Items      int           // Items per worker per round
	Timeout    time.Duration // Zero means no deadline
}

// Total returns the number of items across all workers.
func (c Config) Total() int {
	return c.Threads * c.Items
}

func (c Config) validate() error {
	if c.Threads < 1 || c.Iterations < 1 || c.Items < 1 {
		return fmt.Errorf("bench: threads, iterations and items must be positive: %+v", c)
	}
	return nil
}

// Result is the outcome of one workload run.
type Result struct {
	Name       string        `json:"name"`
	Workload   string        `json:"workload"`
	Threads    int           `json:"threads"`
	Iterations int           `json:"iterations"`
	Items      int           `json:"items"`
	Elapsed    time.Duration `json:"elapsed_ns"`
	Ops        uint64        `json:"ops"`
	Exhausted  uint64        `json:"exhausted"` // Operations that ran out of retries
}

// PerOp returns the mean time per operation in microseconds.
func (r Result) PerOp() float64 {
	if r.Ops == 0 {
		return 0
	}
	return float64(r.Elapsed.Microseconds()) / float64(r.Ops)
}

// codecLimit is the capacity bound of layout's default codec, clamped to
// an int.
func codecLimit(layout vq.Layout) int {
	return int(min(vq.DefaultCodec(layout).MaxCapacity(), uint64(maxCapacity)))
}

// capacityFor rounds n up to the next power of 2, which must not exceed
// limit.
func capacityFor(n, limit int) (int, error) {
	if n < 1 {
		return 0, fmt.Errorf("need at least one slot, got %d", n)
	}
	if n > limit {
		return 0, fmt.Errorf("%d items exceed the maximum capacity %d", n, limit)
	}
	return 1 << bits.Len(uint(n-1)), nil
}
