// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Command vqbench measures queue throughput and checks conservation.
//
// Usage:
//
//	vqbench -impl mutex,packed,split -workload roundtrip -threads 8 -iters 10 -items 1024
//	vqbench -workload single -single-items 8388608 -json
//	vqbench -workload mixed -db runs.db -verbose
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"slices"
	"strings"
	"time"

	"code.hybscloud.com/vq"
	"code.hybscloud.com/vq/internal/bench"
)

type config struct {
	impls       []string
	workloads   []string
	cfg         bench.Config
	singleItems int
	json        bool
	db          string
	verbose     bool
}

func parseFlags(args []string, stderr io.Writer) (config, error) {
	fs := flag.NewFlagSet("vqbench", flag.ContinueOnError)
	fs.SetOutput(stderr)

	impls := fs.String("impl", strings.Join(bench.ImplNames, ","), "comma-separated implementations: "+strings.Join(bench.ImplNames, ", "))
	workloads := fs.String("workload", bench.WorkloadSingle+","+bench.WorkloadRoundTrip, "comma-separated workloads: "+strings.Join(bench.Workloads, ", "))
	threads := fs.Int("threads", 8, "concurrent workers")
	iters := fs.Int("iters", 10, "iterations per run")
	items := fs.Int("items", 1024, "items per worker per iteration")
	singleItems := fs.Int("single-items", 1<<20, "items for the single-goroutine workload")
	timeout := fs.Duration("timeout", time.Minute, "deadline per run (0 disables)")
	asJSON := fs.Bool("json", false, "write results as JSON instead of a table")
	db := fs.String("db", "", "append results to this SQLite database")
	verbose := fs.Bool("verbose", false, "log every contention event")

	if err := fs.Parse(args); err != nil {
		return config{}, err
	}
	c := config{
		impls:       splitList(*impls),
		workloads:   splitList(*workloads),
		singleItems: *singleItems,
		json:        *asJSON,
		db:          *db,
		verbose:     *verbose,
		cfg: bench.Config{
			Threads:    *threads,
			Iterations: *iters,
			Items:      *items,
			Timeout:    *timeout,
		},
	}
	for _, w := range c.workloads {
		switch w {
		case bench.WorkloadSingle, bench.WorkloadRoundTrip, bench.WorkloadMixed:
		default:
			return config{}, fmt.Errorf("unknown workload %q", w)
		}
	}
	single := slices.Contains(c.workloads, bench.WorkloadSingle)
	concurrent := slices.Contains(c.workloads, bench.WorkloadRoundTrip) || slices.Contains(c.workloads, bench.WorkloadMixed)
	for _, name := range c.impls {
		impl, err := bench.NewImpl(name, nil, false)
		if err != nil {
			return config{}, err
		}
		if single && c.singleItems > impl.MaxCapacity {
			return config{}, fmt.Errorf("-single-items %d exceeds the %s capacity limit %d", c.singleItems, name, impl.MaxCapacity)
		}
		if concurrent && c.cfg.Threads > 0 && c.cfg.Items > impl.MaxCapacity/c.cfg.Threads {
			return config{}, fmt.Errorf("-threads %d x -items %d exceeds the %s capacity limit %d", c.cfg.Threads, c.cfg.Items, name, impl.MaxCapacity)
		}
	}
	return c, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func run(ctx context.Context, c config, stdout io.Writer, logger *slog.Logger) error {
	obs := vq.NewLogObserver(logger)

	var store *bench.Store
	if c.db != "" {
		s, err := bench.OpenStore(ctx, c.db)
		if err != nil {
			return err
		}
		defer s.Close()
		store = s
	}

	var results []bench.Result
	for _, name := range c.impls {
		impl, err := bench.NewImpl(name, obs, c.verbose)
		if err != nil {
			return err
		}
		for _, w := range c.workloads {
			logger.Info("running", slog.String("impl", name), slog.String("workload", w))
			switch w {
			case bench.WorkloadSingle:
				push, pop, err := bench.Single(ctx, impl, c.singleItems)
				if err != nil {
					return err
				}
				results = append(results, push, pop)
			case bench.WorkloadRoundTrip:
				r, err := bench.RoundTrip(ctx, impl, c.cfg)
				if err != nil {
					return err
				}
				results = append(results, r)
			case bench.WorkloadMixed:
				r, err := bench.Mixed(ctx, impl, c.cfg)
				if err != nil {
					return err
				}
				results = append(results, r)
			}
		}
	}

	if store != nil {
		now := time.Now()
		for _, r := range results {
			if err := store.Record(ctx, now, r); err != nil {
				return err
			}
		}
		logger.Info("recorded", slog.String("db", c.db), slog.Int("results", len(results)))
	}

	if c.json {
		return bench.WriteJSON(stdout, results)
	}
	return bench.WriteTable(stdout, results)
}

func main() {
	c, err := parseFlags(os.Args[1:], os.Stderr)
	if err != nil {
		if !errors.Is(err, flag.ErrHelp) {
			fmt.Fprintln(os.Stderr, "vqbench:", err)
		}
		os.Exit(2)
	}

	level := slog.LevelInfo
	if c.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, c, os.Stdout, logger); err != nil {
		logger.Error("vqbench failed", slog.Any("err", err))
		stop()
		os.Exit(1)
	}
}
