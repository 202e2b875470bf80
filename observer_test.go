// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package vq_test

import (
	"bytes"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"code.hybscloud.com/vq"
)

// recorder collects diagnostics from concurrent operations.
type recorder struct {
	mu        sync.Mutex
	events    []vq.Event
	exhausted []vq.Op
}

func (r *recorder) Contended(ev vq.Event) {
	r.mu.Lock()
	r.events = append(r.events, ev)
	r.mu.Unlock()
}

func (r *recorder) Exhausted(op vq.Op, _ int) {
	r.mu.Lock()
	r.exhausted = append(r.exhausted, op)
	r.mu.Unlock()
}

// =============================================================================
// Log Observer
// =============================================================================

func TestLogObserver(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	obs := vq.NewLogObserver(logger)

	obs.Contended(vq.Event{
		Op:      vq.OpPop,
		Outcome: vq.AttemptLost,
		Counter: 41,
		Attempt: 3,
		Elapsed: 2 * time.Millisecond,
	})
	out := buf.String()
	for _, want := range []string{"level=DEBUG", "vq: contention", "op=pop_front", "outcome=lost", "counter=41", "attempt=3", "elapsed=2ms"} {
		if !strings.Contains(out, want) {
			t.Fatalf("Contended: output %q missing %q", out, want)
		}
	}

	buf.Reset()
	obs.Exhausted(vq.OpPush, 65536)
	out = buf.String()
	for _, want := range []string{"level=WARN", "vq: retry budget exhausted", "op=push_back", "attempts=65536"} {
		if !strings.Contains(out, want) {
			t.Fatalf("Exhausted: output %q missing %q", out, want)
		}
	}
}

func TestLogObserverSkipsDebugWhenDisabled(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo}))
	obs := vq.NewLogObserver(logger)

	obs.Contended(vq.Event{Op: vq.OpPush, Outcome: vq.AttemptInconsistent})
	if buf.Len() != 0 {
		t.Fatalf("Contended at info level: got %q, want nothing", buf.String())
	}
	obs.Exhausted(vq.OpSize, 1)
	if buf.Len() == 0 {
		t.Fatal("Exhausted at info level: got nothing")
	}
}

func TestNewLogObserverNilLogger(t *testing.T) {
	if vq.NewLogObserver(nil) == nil {
		t.Fatal("NewLogObserver(nil): got nil")
	}
}

// =============================================================================
// Observer Wiring
// =============================================================================

func TestObserverQuietWithoutContention(t *testing.T) {
	rec := &recorder{}
	q := vq.BuildRelaxed[uint64](vq.New(4).Observe(rec).Verbose())
	for i := range 4 {
		q.PushBack(uint64(i))
	}
	q.PushBack(99) // full is not contention
	for range 5 {
		q.PopFront()
	}
	q.Size()

	if len(rec.events) != 0 || len(rec.exhausted) != 0 {
		t.Fatalf("single goroutine: got %d events, %d exhausted, want none", len(rec.events), len(rec.exhausted))
	}
}

func TestObserverSeesContention(t *testing.T) {
	if vq.RaceEnabled {
		t.Skip("skip: stress test")
	}
	const (
		workers = 8
		ops     = 20000
	)
	for _, layout := range layouts {
		t.Run(layout.String(), func(t *testing.T) {
			rec := &recorder{}
			b := vq.New(64).Observe(rec).Verbose()
			if layout == vq.LayoutSplit {
				b.Split()
			}
			q := vq.BuildRelaxed[uint64](b)

			var wg sync.WaitGroup
			wg.Add(workers)
			for w := range workers {
				go func() {
					defer wg.Done()
					for i := range ops {
						if (w+i)&1 == 0 {
							q.Enqueue(uint64(i))
						} else {
							q.Dequeue()
						}
					}
				}()
			}
			wg.Wait()

			rec.mu.Lock()
			defer rec.mu.Unlock()
			for _, ev := range rec.events {
				if ev.Outcome != vq.AttemptInconsistent && ev.Outcome != vq.AttemptLost {
					t.Fatalf("event outcome: got %v", ev.Outcome)
				}
				if ev.Op != vq.OpPush && ev.Op != vq.OpPop {
					t.Fatalf("event op: got %v", ev.Op)
				}
				if ev.Attempt < 0 || ev.Elapsed < 0 {
					t.Fatalf("event: got %+v", ev)
				}
			}
			t.Logf("%s: %d contention events, %d exhausted", layout, len(rec.events), len(rec.exhausted))
		})
	}
}

// TestExhaustionUnderContention gives every operation a single attempt so
// that lost swaps surface as ErrExhausted. Each one must be reported to the
// observer and leave the queue unchanged.
func TestExhaustionUnderContention(t *testing.T) {
	if vq.RaceEnabled {
		t.Skip("skip: stress test")
	}
	const (
		workers = 8
		ops     = 20000
	)
	for _, layout := range layouts {
		t.Run(layout.String(), func(t *testing.T) {
			rec := &recorder{}
			b := vq.New(64).RetryLimit(1).SpinLimit(0).Observe(rec)
			if layout == vq.LayoutSplit {
				b.Split()
			}
			q := vq.BuildRelaxed[uint64](b)

			type tally struct {
				pushed, popped          uint64 // sums of values
				nPushed, nPopped        int
				pushExhaust, popExhaust int
			}
			tallies := make([]tally, workers)

			var wg sync.WaitGroup
			wg.Add(workers)
			for w := range workers {
				go func() {
					defer wg.Done()
					tl := &tallies[w]
					for i := range ops {
						if (w+i)&1 == 0 {
							v := uint64(w+1)<<32 | uint64(i)
							switch err := q.Enqueue(v); {
							case err == nil:
								tl.pushed += v
								tl.nPushed++
							case vq.IsExhausted(err):
								tl.pushExhaust++
							case !vq.IsWouldBlock(err):
								t.Errorf("Enqueue: %v", err)
								return
							}
							continue
						}
						v, err := q.Dequeue()
						switch {
						case err == nil:
							tl.popped += v
							tl.nPopped++
						case vq.IsExhausted(err):
							if v != 0 {
								t.Errorf("Dequeue exhausted with value %d", v)
								return
							}
							tl.popExhaust++
						case !vq.IsWouldBlock(err):
							t.Errorf("Dequeue: %v", err)
							return
						}
					}
				}()
			}
			wg.Wait()

			var total tally
			for _, tl := range tallies {
				total.pushed += tl.pushed
				total.popped += tl.popped
				total.nPushed += tl.nPushed
				total.nPopped += tl.nPopped
				total.pushExhaust += tl.pushExhaust
				total.popExhaust += tl.popExhaust
			}
			// One goroutine left, so a single attempt always suffices.
			for {
				v, err := q.Dequeue()
				if err != nil {
					break
				}
				total.popped += v
				total.nPopped++
			}
			if !q.Empty() {
				t.Fatal("Empty after drain: got false")
			}
			if total.nPushed != total.nPopped || total.pushed != total.popped {
				t.Fatalf("conservation: pushed %d (sum %d), popped %d (sum %d)",
					total.nPushed, total.pushed, total.nPopped, total.popped)
			}

			rec.mu.Lock()
			defer rec.mu.Unlock()
			var pushes, pops int
			for _, op := range rec.exhausted {
				switch op {
				case vq.OpPush:
					pushes++
				case vq.OpPop:
					pops++
				default:
					t.Fatalf("Exhausted op: got %v", op)
				}
			}
			if pushes != total.pushExhaust || pops != total.popExhaust {
				t.Fatalf("observer saw %d/%d push/pop exhaustions, callers saw %d/%d",
					pushes, pops, total.pushExhaust, total.popExhaust)
			}
			t.Logf("%s: %d push and %d pop exhaustions", layout, pushes, pops)
		})
	}
}

func TestObserverNotVerbose(t *testing.T) {
	if vq.RaceEnabled {
		t.Skip("skip: stress test")
	}
	rec := &recorder{}
	q := vq.BuildRelaxed[uint64](vq.New(64).Observe(rec))

	var wg sync.WaitGroup
	wg.Add(4)
	for range 4 {
		go func() {
			defer wg.Done()
			for i := range 10000 {
				q.Enqueue(uint64(i))
				q.Dequeue()
			}
		}()
	}
	wg.Wait()

	rec.mu.Lock()
	defer rec.mu.Unlock()
	if len(rec.events) != 0 {
		t.Fatalf("without Verbose: got %d contention events, want 0", len(rec.events))
	}
}
