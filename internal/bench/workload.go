// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package bench

import (
	"context"
	"fmt"
	"sync"
	"time"

	"code.hybscloud.com/atomix"
	"code.hybscloud.com/iox"
	"code.hybscloud.com/vq"
	"github.com/valyala/fastrand"
)

// Workload names.
const (
	WorkloadSingle    = "single"
	WorkloadRoundTrip = "roundtrip"
	WorkloadMixed     = "mixed"
)

// Workloads lists the workload names accepted by the CLI.
var Workloads = []string{WorkloadSingle, WorkloadRoundTrip, WorkloadMixed}

// Single pushes n items from one goroutine and then pops them all,
// timing each phase separately.
func Single(ctx context.Context, impl Impl, n int) (push, pop Result, err error) {
	if n < 1 {
		return push, pop, fmt.Errorf("bench: single needs at least one item, got %d", n)
	}
	q, err := impl.queue(n)
	if err != nil {
		return push, pop, err
	}
	push = Result{Name: impl.Name, Workload: WorkloadSingle + ":push", Threads: 1, Iterations: 1, Items: n, Ops: uint64(n)}
	pop = Result{Name: impl.Name, Workload: WorkloadSingle + ":pop", Threads: 1, Iterations: 1, Items: n, Ops: uint64(n)}

	if size := q.Size(); size != 0 {
		return push, pop, fmt.Errorf("bench: %s: fresh queue has size %d", impl.Name, size)
	}

	b := iox.Backoff{}
	start := time.Now()
	for i := 1; i <= n; i++ {
		if err := pushOne(ctx, q, uint64(i), &b, &push.Exhausted); err != nil {
			return push, pop, err
		}
	}
	push.Elapsed = time.Since(start)
	if size := q.Size(); size != n {
		return push, pop, fmt.Errorf("bench: %s: size %d after %d pushes", impl.Name, size, n)
	}

	start = time.Now()
	for i := 1; i <= n; i++ {
		v, err := popOne(ctx, q, &b, &pop.Exhausted)
		if err != nil {
			return push, pop, err
		}
		if v != uint64(i) {
			return push, pop, fmt.Errorf("bench: %s: popped %d, want %d", impl.Name, v, i)
		}
	}
	pop.Elapsed = time.Since(start)
	if !q.Empty() {
		return push, pop, fmt.Errorf("bench: %s: not empty after draining", impl.Name)
	}
	return push, pop, nil
}

// RoundTrip pre-fills a queue with Threads*Items distinct values. In each
// iteration every worker pops Items values and pushes them back. At the end
// the queue must hold exactly the prefilled values, each once.
func RoundTrip(ctx context.Context, impl Impl, cfg Config) (Result, error) {
	if err := cfg.validate(); err != nil {
		return Result{}, err
	}
	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}

	total := cfg.Total()
	q, err := impl.queue(total)
	if err != nil {
		return Result{}, err
	}
	res := Result{
		Name:       impl.Name,
		Workload:   WorkloadRoundTrip,
		Threads:    cfg.Threads,
		Iterations: cfg.Iterations,
		Items:      cfg.Items,
		Ops:        uint64(total) * uint64(cfg.Iterations),
	}

	var want Fingerprint
	for i := 1; i <= total; i++ {
		if err := q.Enqueue(uint64(i)); err != nil {
			return res, fmt.Errorf("bench: %s: prefill %d: %w", impl.Name, i, err)
		}
		want.Add(uint64(i))
	}
	if size := q.Size(); size != total {
		return res, fmt.Errorf("bench: %s: size %d after prefill, want %d", impl.Name, size, total)
	}

	start := time.Now()
	for iter := range cfg.Iterations {
		exhausted, err := runWorkers(ctx, cfg.Threads, func(ctx context.Context, _ int) (uint64, error) {
			var exhausted uint64
			b := iox.Backoff{}
			held := make([]uint64, 0, cfg.Items)
			for range cfg.Items {
				v, err := popOne(ctx, q, &b, &exhausted)
				if err != nil {
					return exhausted, err
				}
				held = append(held, v)
			}
			for _, v := range held {
				if err := pushOne(ctx, q, v, &b, &exhausted); err != nil {
					return exhausted, err
				}
			}
			return exhausted, nil
		})
		res.Exhausted += exhausted
		if err != nil {
			return res, fmt.Errorf("bench: %s: iteration %d: %w", impl.Name, iter, err)
		}
		if size := q.Size(); size != total {
			return res, fmt.Errorf("bench: %s: iteration %d: size %d, want %d", impl.Name, iter, size, total)
		}
	}
	res.Elapsed = time.Since(start)

	seen := make(map[uint64]struct{}, total)
	var got Fingerprint
	b := iox.Backoff{}
	for range total {
		v, err := popOne(ctx, q, &b, &res.Exhausted)
		if err != nil {
			return res, fmt.Errorf("bench: %s: drain: %w", impl.Name, err)
		}
		if v == 0 || v > uint64(total) {
			return res, fmt.Errorf("bench: %s: drained foreign value %d", impl.Name, v)
		}
		if _, dup := seen[v]; dup {
			return res, fmt.Errorf("bench: %s: value %d drained twice", impl.Name, v)
		}
		seen[v] = struct{}{}
		got.Add(v)
	}
	if got != want {
		return res, fmt.Errorf("bench: %s: fingerprint %+v, want %+v", impl.Name, got, want)
	}
	if !q.Empty() {
		return res, fmt.Errorf("bench: %s: not empty after drain", impl.Name)
	}
	return res, nil
}

// Mixed runs workers that each perform Iterations*Items random operations,
// pushing fresh values or popping with equal probability. Full and empty
// outcomes are expected. Afterwards everything pushed must equal everything
// popped plus what is left in the queue.
func Mixed(ctx context.Context, impl Impl, cfg Config) (Result, error) {
	if err := cfg.validate(); err != nil {
		return Result{}, err
	}
	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}

	q, err := impl.queue(cfg.Total())
	if err != nil {
		return Result{}, err
	}
	opsPerWorker := cfg.Iterations * cfg.Items
	res := Result{
		Name:       impl.Name,
		Workload:   WorkloadMixed,
		Threads:    cfg.Threads,
		Iterations: cfg.Iterations,
		Items:      cfg.Items,
		Ops:        uint64(cfg.Threads) * uint64(opsPerWorker),
	}

	pushed := make([]Fingerprint, cfg.Threads)
	popped := make([]Fingerprint, cfg.Threads)
	start := time.Now()
	exhausted, err := runWorkers(ctx, cfg.Threads, func(ctx context.Context, id int) (uint64, error) {
		var exhausted uint64
		var seq uint64
		for i := range opsPerWorker {
			if i&1023 == 0 {
				if err := ctx.Err(); err != nil {
					return exhausted, err
				}
			}
			if fastrand.Uint32n(2) == 0 {
				seq++
				v := uint64(id+1)<<32 | seq
				switch err := q.Enqueue(v); {
				case err == nil:
					pushed[id].Add(v)
				case vq.IsExhausted(err):
					exhausted++
				}
				continue
			}
			v, err := q.Dequeue()
			switch {
			case err == nil:
				popped[id].Add(v)
			case vq.IsExhausted(err):
				exhausted++
			}
		}
		return exhausted, nil
	})
	res.Elapsed = time.Since(start)
	res.Exhausted = exhausted
	if err != nil {
		return res, fmt.Errorf("bench: %s: %w", impl.Name, err)
	}

	var in, out Fingerprint
	for id := range cfg.Threads {
		in = in.Merge(pushed[id])
		out = out.Merge(popped[id])
	}
	b := iox.Backoff{}
	for {
		v, err := q.Dequeue()
		if err == nil {
			out.Add(v)
			continue
		}
		if vq.IsWouldBlock(err) {
			break
		}
		if cerr := ctx.Err(); cerr != nil {
			return res, fmt.Errorf("bench: %s: drain: %w", impl.Name, cerr)
		}
		b.Wait()
	}
	if in != out {
		return res, fmt.Errorf("bench: %s: pushed %+v, popped and drained %+v", impl.Name, in, out)
	}
	return res, nil
}

// runWorkers runs work on n goroutines and waits for all of them. It
// returns the summed exhaustion counts and the first error, if any.
func runWorkers(ctx context.Context, n int, work func(ctx context.Context, id int) (uint64, error)) (uint64, error) {
	var wg sync.WaitGroup
	var exhausted atomix.Uint64
	errs := make(chan error, n)
	wg.Add(n)
	for id := range n {
		go func() {
			defer wg.Done()
			x, err := work(ctx, id)
			exhausted.Add(x)
			if err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)
	return exhausted.Load(), <-errs
}

// pushOne enqueues v, backing off while the queue is full or contended.
func pushOne(ctx context.Context, q Target, v uint64, b *iox.Backoff, exhausted *uint64) error {
	for {
		err := q.Enqueue(v)
		if err == nil {
			b.Reset()
			return nil
		}
		if vq.IsExhausted(err) {
			*exhausted++
		} else if !vq.IsWouldBlock(err) {
			return err
		}
		if cerr := ctx.Err(); cerr != nil {
			return fmt.Errorf("push %d: %w", v, cerr)
		}
		b.Wait()
	}
}

// popOne dequeues one value, backing off while the queue is empty or
// contended.
func popOne(ctx context.Context, q Target, b *iox.Backoff, exhausted *uint64) (uint64, error) {
	for {
		v, err := q.Dequeue()
		if err == nil {
			b.Reset()
			return v, nil
		}
		if vq.IsExhausted(err) {
			*exhausted++
		} else if !vq.IsWouldBlock(err) {
			return 0, err
		}
		if cerr := ctx.Err(); cerr != nil {
			return 0, fmt.Errorf("pop: %w", cerr)
		}
		b.Wait()
	}
}
