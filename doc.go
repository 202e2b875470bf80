// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package vq provides a bounded lock-free FIFO queue arbitrated by a version
// counter.
//
// Any number of goroutines may push and pop concurrently. No operation ever
// holds a lock: each one reads the queue state, validates it, computes the
// next state and races to commit it with a single compare-and-swap on the
// version counter. Losers redo the (cheap) computation.
//
// # Quick Start
//
//	q := vq.Build[uint64](vq.New(1024))
//
//	q.PushBack(42)
//	v := q.PopFront()
//
// Or with explicit results:
//
//	if err := q.Enqueue(42); vq.IsWouldBlock(err) {
//	    // full
//	}
//	v, err := q.Dequeue()
//	if vq.IsWouldBlock(err) {
//	    // empty
//	}
//
// # Protocol
//
// The queue keeps a version counter and a cursor (version, back, front).
// Back is the next write offset and front the next read offset. Front
// starts at the capacity N and back at 0, so:
//
//	empty  ⇔  front - back == N
//	full   ⇔  front == back
//	size   =  N - (front - back)
//
// with arithmetic modulo the offset field. Every push or pop:
//
//  1. loads the counter and the cursor word(s)
//  2. retries unless the cursor carries the counter's version
//  3. returns immediately if the queue is full (push) or empty (pop)
//  4. swaps the counter from v to v+1; on failure backs off and retries
//  5. stores the element (push) or loads it (pop)
//  6. publishes the new cursor tagged v+1
//
// Between steps 4 and 6 readers see a cursor tagged v while the counter says
// v+1 and keep retrying, so no one acts on a half-finished mutation.
// Operations are linearizable at the counter swap.
//
// # Configuration
//
// The protocol has three axes, chosen through [Builder]:
//
//	Packed() / Split()   cursor layout, see [Layout]
//	Widths(o, v)         offset and version field widths
//	Strict()             [AcqRel] instead of [Relaxed] counter ordering
//
// The packed layout keeps the whole cursor in one word, which limits the
// field widths (default 24-bit offsets, 16-bit versions). The split layout
// gives back and front their own words (default 32/32). Offset width bounds
// capacity at 2^(offsetBits-1). Version width bounds how many mutations may
// pass before a version tag repeats; keep it wide enough that no goroutine
// can stall across a full wrap.
//
// The ordering is a type parameter of [Versioned], so it is a compile-time
// choice:
//
//	q := vq.BuildStrict[uint64](vq.New(1024).Strict())   // *Versioned[uint64, AcqRel]
//	q := vq.NewVersioned[uint64, vq.Relaxed](1024)
//
// # Retry Budget
//
// Operations are lock-free, not wait-free. Each one gets [DefaultRetryLimit]
// attempts; between attempts it pauses the CPU for the first few failures
// and yields the processor after that. An operation that runs out of
// attempts gives up without changing the queue.
//
// # Error Handling
//
// [Versioned.Enqueue] and [Versioned.Dequeue] return [ErrWouldBlock] for a
// full or empty queue and [ErrExhausted] when the retry budget ran out.
// [Versioned.PushBack] and [Versioned.PopFront] fold both into false or the
// zero value. Because zero is also a valid element, prefer Dequeue when
// zero may be pushed.
//
//	backoff := iox.Backoff{}
//	for {
//	    err := q.Enqueue(item)
//	    if err == nil {
//	        break
//	    }
//	    if !vq.IsNonFailure(err) && !vq.IsExhausted(err) {
//	        return err
//	    }
//	    backoff.Wait()
//	}
//
// # Diagnostics
//
// An [Observer] installed with [Builder.Observe] is told about exhausted
// operations. With [Builder.Verbose] it also receives every failed attempt,
// marked [AttemptInconsistent] (the last writer has not published yet) or
// [AttemptLost] (the counter swap lost). [LogObserver] writes them to a
// [log/slog] logger. Queues built without an observer log exhaustion at
// warn level to [log/slog.Default]; install [NopObserver] to silence them.
//
// # Reference Queue
//
// [Mutex] implements the same [Queue] contract with a single mutex. It is
// the baseline for differential tests and benchmarks.
//
// # Dependencies
//
// This package uses [code.hybscloud.com/atomix] for atomic primitives with
// explicit memory ordering, [code.hybscloud.com/spin] for CPU pause
// instructions, [code.hybscloud.com/iox] for semantic errors, and
// [golang.org/x/sys/cpu] for cache line padding.
package vq
