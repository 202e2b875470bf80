// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package vq

import (
	"time"

	"code.hybscloud.com/atomix"
	"golang.org/x/sys/cpu"
)

// Versioned is a lock-free multi-producer multi-consumer bounded queue
// arbitrated by a version counter.
//
// Every operation reads the counter and the cursor word(s), checks that the
// cursor carries the counter's version, computes the next cursor and then
// tries to swap the counter to the next version. The swap is the only
// arbitration point: of all attempts that observed the same version exactly
// one commits, and the rest retry. The winner writes (push) or reads (pop)
// its slot and then publishes the new cursor. Until that publish, readers
// see a cursor tagged with an older version and retry, so no one acts on a
// half-finished mutation.
//
// Operations are linearizable at the counter swap. They are lock-free but
// not starvation-free; an operation that keeps losing gives up after its
// retry budget and returns [ErrExhausted].
//
// The O type parameter fixes the counter's memory ordering at compile time;
// see [Ordering].
//
// Memory: 8 bytes per slot plus four cache lines of cursor state.
type Versioned[T Word, O Ordering] struct {
	_        cpu.CacheLinePad
	counter  atomix.Uint64 // Version counter
	_        cpu.CacheLinePad
	back     atomix.Uint64 // Packed cursor, or version|back when split
	_        cpu.CacheLinePad
	front    atomix.Uint64 // version|front when split, unused when packed
	_        cpu.CacheLinePad
	ring     ring
	codec    Codec
	capacity uint64
	retry    RetryPolicy
	observer Observer
	verbose  bool
	start    time.Time
	order    O
}

// NewVersioned creates a queue with the packed layout and default widths.
// Panics unless capacity is a power of two.
//
// Example:
//
//	q := vq.NewVersioned[uint64, vq.Relaxed](1024)
func NewVersioned[T Word, O Ordering](capacity int) *Versioned[T, O] {
	return newVersioned[T, O](New(capacity).opts)
}

func newVersioned[T Word, O Ordering](opts Options) *Versioned[T, O] {
	checkCapacity(opts.capacity)
	codec, err := opts.codec()
	if err != nil {
		panic(err)
	}
	n := uint64(opts.capacity)
	if n > codec.MaxCapacity() {
		panic("vq: capacity exceeds the offset field")
	}

	observer := opts.observer
	if observer == nil {
		observer = NewLogObserver(nil)
	}
	q := &Versioned[T, O]{
		ring:     newRing(n),
		codec:    codec,
		capacity: n,
		retry:    opts.retry,
		observer: observer,
		verbose:  opts.verbose,
		start:    time.Now(),
	}

	words := codec.Encode(Cursor{Version: 0, Back: 0, Front: n})
	q.back.StoreRelaxed(words[0])
	q.front.StoreRelaxed(words[1])
	q.counter.StoreRelease(0)
	return q
}

// observe reads the counter and cursor words and decodes them.
// A snapshot whose fill level is out of range was stitched together from
// different mutations and is reported as inconsistent.
func (q *Versioned[T, O]) observe() (uint64, Cursor, bool) {
	counter := q.order.loadCounter(&q.counter)
	var words [2]uint64
	words[0] = q.back.LoadAcquire()
	if q.codec.layout == LayoutSplit {
		words[1] = q.front.LoadAcquire()
	}
	cur, ok := q.codec.Decode(counter, words)
	if ok && q.codec.Distance(cur) > q.capacity {
		ok = false
	}
	return counter, cur, ok
}

func (q *Versioned[T, O]) publish(op Op, cur Cursor) {
	i, w := q.codec.Publish(op, cur)
	if i == 0 {
		q.back.StoreRelease(w)
		return
	}
	q.front.StoreRelease(w)
}

func (q *Versioned[T, O]) contended(op Op, outcome Attempt, counter uint64, attempt int) Attempt {
	if q.verbose {
		q.observer.Contended(Event{
			Op:      op,
			Outcome: outcome,
			Counter: counter,
			Attempt: attempt,
			Elapsed: time.Since(q.start),
		})
	}
	return outcome
}

// Enqueue appends elem.
// Returns ErrWouldBlock if the queue is full, ErrExhausted if the retry
// budget ran out.
func (q *Versioned[T, O]) Enqueue(elem T) error {
	full := false
	attempts, ok := q.retry.Run(func(attempt int) Attempt {
		counter, cur, consistent := q.observe()
		if !consistent {
			return q.contended(OpPush, AttemptInconsistent, counter, attempt)
		}
		if cur.Front == cur.Back {
			full = true
			return AttemptDone
		}

		next := cur
		next.Version = q.codec.Next(cur.Version)
		next.Back = q.codec.Advance(cur.Back)
		if !q.order.casCounter(&q.counter, counter, next.Version) {
			return q.contended(OpPush, AttemptLost, counter, attempt)
		}

		q.ring.store(cur.Back, uint64(elem))
		q.publish(OpPush, next)
		return AttemptDone
	})
	if !ok {
		q.observer.Exhausted(OpPush, attempts)
		return ErrExhausted
	}
	if full {
		return ErrWouldBlock
	}
	return nil
}

// Dequeue removes and returns the front element.
// Returns (zero, ErrWouldBlock) if the queue is empty, (zero, ErrExhausted)
// if the retry budget ran out.
func (q *Versioned[T, O]) Dequeue() (T, error) {
	empty := false
	var elem uint64
	attempts, ok := q.retry.Run(func(attempt int) Attempt {
		counter, cur, consistent := q.observe()
		if !consistent {
			return q.contended(OpPop, AttemptInconsistent, counter, attempt)
		}
		if q.codec.Distance(cur) == q.capacity {
			empty = true
			return AttemptDone
		}

		next := cur
		next.Version = q.codec.Next(cur.Version)
		next.Front = q.codec.Advance(cur.Front)
		if !q.order.casCounter(&q.counter, counter, next.Version) {
			return q.contended(OpPop, AttemptLost, counter, attempt)
		}

		// The slot must be read before the new front is published; after
		// that a producer may reuse it.
		elem = q.ring.load(cur.Front)
		q.publish(OpPop, next)
		return AttemptDone
	})
	if !ok {
		q.observer.Exhausted(OpPop, attempts)
		var zero T
		return zero, ErrExhausted
	}
	if empty {
		var zero T
		return zero, ErrWouldBlock
	}
	return T(elem), nil
}

// PushBack appends elem and reports whether it was added.
func (q *Versioned[T, O]) PushBack(elem T) bool {
	return q.Enqueue(elem) == nil
}

// PopFront removes and returns the front element, or the zero value if the
// queue is empty or the retry budget ran out.
func (q *Versioned[T, O]) PopFront() T {
	elem, _ := q.Dequeue()
	return elem
}

// query retries until it sees a consistent cursor.
func (q *Versioned[T, O]) query(op Op) (Cursor, bool) {
	var cur Cursor
	attempts, ok := q.retry.Run(func(attempt int) Attempt {
		counter, snap, consistent := q.observe()
		if !consistent {
			return q.contended(op, AttemptInconsistent, counter, attempt)
		}
		cur = snap
		return AttemptDone
	})
	if !ok {
		q.observer.Exhausted(op, attempts)
	}
	return cur, ok
}

// Size returns the number of queued elements, or 0 if no consistent
// snapshot was seen within the retry budget.
func (q *Versioned[T, O]) Size() int {
	cur, ok := q.query(OpSize)
	if !ok {
		return 0
	}
	return int(q.capacity - q.codec.Distance(cur))
}

// Empty reports whether the queue is empty, or false if no consistent
// snapshot was seen within the retry budget.
func (q *Versioned[T, O]) Empty() bool {
	cur, ok := q.query(OpEmpty)
	return ok && q.codec.Distance(cur) == q.capacity
}

// Full reports whether the queue is full, or false if no consistent
// snapshot was seen within the retry budget.
func (q *Versioned[T, O]) Full() bool {
	cur, ok := q.query(OpFull)
	return ok && cur.Front == cur.Back
}

// Cap returns the queue capacity.
func (q *Versioned[T, O]) Cap() int {
	return int(q.capacity)
}

// Snapshot returns a consistent decoded cursor, or false if none was seen
// within the retry budget.
func (q *Versioned[T, O]) Snapshot() (Cursor, bool) {
	return q.query(OpSnapshot)
}

// Version returns the current value of the version counter.
func (q *Versioned[T, O]) Version() uint64 {
	return q.counter.LoadAcquire()
}

// Tags returns the version tags of the published back and front words.
// In the packed layout both are the tag of the single cursor word.
func (q *Versioned[T, O]) Tags() (back, front uint64) {
	return q.codec.Tags([2]uint64{q.back.LoadAcquire(), q.front.LoadAcquire()})
}

// Codec returns the cursor codec in use.
func (q *Versioned[T, O]) Codec() Codec {
	return q.codec
}

// Ordering returns the name of the counter ordering, "relaxed" or "acqrel".
func (q *Versioned[T, O]) Ordering() string {
	return q.order.name()
}
