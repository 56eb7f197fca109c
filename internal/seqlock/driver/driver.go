// Package driver runs one seqlock experiment: N writers and one reader over a
// shared record.
//
// Flow:
//  1. Validate the configuration
//  2. Start the writer goroutines
//  3. Run the reader for its fixed iteration budget
//  4. Raise the stop flag and wait for every writer
//  5. Return the reader tally and per-writer counters
package driver

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/kolkov/seqlock/internal/seqlock/clock"
	"github.com/kolkov/seqlock/internal/seqlock/guard"
	"github.com/kolkov/seqlock/internal/seqlock/reader"
	"github.com/kolkov/seqlock/internal/seqlock/record"
	"github.com/kolkov/seqlock/internal/seqlock/writer"
)

// MaxWriters bounds the writer count accepted by Validate.
const MaxWriters = 1024

// Config configures a run.
type Config struct {
	// Writers is the number of concurrent writer goroutines (>= 1).
	Writers int

	// Iterations is the reader's attempt budget (>= 0).
	Iterations int64

	// Backoff applied by writers after a failed acquisition. Disabled by
	// default.
	Backoff writer.Backoff

	// MaxTornSamples bounds the torn snapshots kept for reporting.
	MaxTornSamples int

	// Critical is passed to every writer; see writer.Config.
	Critical func()

	// Clock times the reader. Nil uses the monotonic clock.
	Clock clock.Clock

	// Logger receives run-level events. Nil uses slog.Default().
	Logger *slog.Logger
}

// DefaultConfig returns the contended variant: three writers, 400M reads.
func DefaultConfig() Config {
	return Config{
		Writers:        3,
		Iterations:     reader.DefaultIterations,
		MaxTornSamples: reader.DefaultConfig().MaxTornSamples,
	}
}

// Validate checks the configuration and returns a *ConfigError on failure.
func (c Config) Validate() error {
	if c.Writers < 1 {
		return &ConfigError{
			Field:      "writers",
			Value:      c.Writers,
			Message:    "at least one writer is required",
			Suggestion: "use 1 for the single-writer variant or 3 for the contended one",
		}
	}
	if c.Writers > MaxWriters {
		return &ConfigError{
			Field:   "writers",
			Value:   c.Writers,
			Message: "too many writers",
		}
	}
	if c.Iterations < 0 {
		return &ConfigError{
			Field:   "iterations",
			Value:   c.Iterations,
			Message: "iteration budget cannot be negative",
		}
	}
	if c.Backoff.MaxSpins < 0 {
		return &ConfigError{
			Field:      "backoff",
			Value:      c.Backoff.MaxSpins,
			Message:    "backoff cannot be negative",
			Suggestion: "use 0 to disable backoff",
		}
	}
	return nil
}

// Result is the outcome of one run.
type Result struct {
	// Writers is the number of writers that ran.
	Writers int

	// Reader is the reader's tally.
	Reader reader.Result

	// WriterStats holds one entry per writer, in writer order.
	WriterStats []writer.Stats

	// FinalGuard is the guard word after every writer stopped.
	FinalGuard guard.Word
}

// Publishes returns the total number of generations published.
func (r Result) Publishes() uint64 {
	var n uint64
	for _, s := range r.WriterStats {
		n += s.Publishes
	}
	return n
}

// Run executes one experiment.
//
// The reader runs on the calling goroutine while the writers run on their
// own. Writers are always stopped and joined before Run returns, including
// when ctx is cancelled mid-run.
func Run(ctx context.Context, cfg Config) (Result, error) {
	if err := cfg.Validate(); err != nil {
		return Result{}, err
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	clk := cfg.Clock
	if clk == nil {
		clk = clock.New()
	}

	rec := record.New()

	var (
		stop atomic.Bool
		wg   sync.WaitGroup
	)

	wcfg := writer.Config{Backoff: cfg.Backoff, Critical: cfg.Critical}
	writers := make([]*writer.Writer, cfg.Writers)
	for i := range writers {
		writers[i] = writer.New(i, rec, &stop, wcfg)
	}

	logger.Debug("starting seqlock run",
		"writers", cfg.Writers,
		"iterations", cfg.Iterations,
		"backoff", cfg.Backoff.MaxSpins)

	for _, w := range writers {
		wg.Add(1)
		go func(w *writer.Writer) {
			defer wg.Done()
			w.Run()
		}(w)
	}

	r := reader.New(rec, clk, reader.Config{
		Iterations:     cfg.Iterations,
		MaxTornSamples: cfg.MaxTornSamples,
		CheckEvery:     reader.DefaultConfig().CheckEvery,
	})

	rres := r.Run(ctx)

	stop.Store(true)
	wg.Wait()

	res := Result{
		Writers:     cfg.Writers,
		Reader:      rres,
		WriterStats: make([]writer.Stats, len(writers)),
		FinalGuard:  rec.Guard().Load(),
	}
	for i, w := range writers {
		res.WriterStats[i] = w.Stats()
	}

	logTornReads(logger, rres.Torn)

	logger.Debug("seqlock run finished",
		"iterations", rres.Iterations,
		"inconsistencies", rres.Inconsistencies,
		"elapsed", rres.Elapsed,
		"publishes", res.Publishes(),
		"final_guard", res.FinalGuard.String())

	return res, nil
}

// logTornReads reports every retained torn snapshot at warn level.
func logTornReads(logger *slog.Logger, torn []reader.TornRead) {
	for _, tr := range torn {
		logger.Warn("torn read passed guard validation",
			"iteration", tr.Iteration,
			"guard", tr.Guard.String(),
			"a", tr.Fields.A,
			"b", tr.Fields.B,
			"c", tr.Fields.C,
			"res", tr.Fields.Res)
	}
}
