// Package seqlock is the public entry point for running the seqlock
// experiment.
//
// See doc.go for detailed documentation and examples.
package seqlock

import (
	"context"
	"io"
	"log/slog"

	"github.com/kolkov/seqlock/internal/seqlock/driver"
	"github.com/kolkov/seqlock/internal/seqlock/report"
	"github.com/kolkov/seqlock/internal/seqlock/writer"
)

// ErrInvalidConfig is returned (wrapped) for a rejected Config.
var ErrInvalidConfig = driver.ErrInvalidConfig

// Config configures a run.
type Config struct {
	// Writers is the number of concurrent writers. 1 gives the single-writer
	// variant, 3 the contended one.
	Writers int

	// Iterations is the number of read attempts.
	Iterations int64

	// Backoff caps the yields a writer performs after a failed acquisition.
	// 0 disables backoff.
	Backoff int

	// Logger receives torn-read warnings and debug events.
	// Nil uses slog.Default().
	Logger *slog.Logger
}

// DefaultConfig returns the contended variant: three writers and 400M reads.
func DefaultConfig() Config {
	d := driver.DefaultConfig()
	return Config{
		Writers:    d.Writers,
		Iterations: d.Iterations,
	}
}

// Result is the outcome of a run.
type Result struct {
	// Inconsistencies is the number of validated snapshots that were torn.
	// Zero for a correct implementation.
	Inconsistencies int64

	// Iterations is the number of read attempts actually performed.
	Iterations int64

	// Elapsed is the reader's wall time in seconds.
	Elapsed float64

	// Publishes is the total generations published by all writers.
	Publishes uint64

	run driver.Result
}

// Throughput returns read attempts per second, or 0 for an empty run.
func (r Result) Throughput() float64 {
	return r.run.Reader.Throughput()
}

// Run executes one experiment and blocks until the reader finishes its
// budget or ctx is cancelled.
//
// Example:
//
//	res, err := seqlock.Run(ctx, seqlock.DefaultConfig())
//	if err != nil {
//		return err
//	}
//	seqlock.WriteReport(os.Stdout, res)
func Run(ctx context.Context, cfg Config) (Result, error) {
	d := driver.DefaultConfig()
	d.Writers = cfg.Writers
	d.Iterations = cfg.Iterations
	d.Backoff = writer.Backoff{MaxSpins: cfg.Backoff}
	d.Logger = cfg.Logger

	res, err := driver.Run(ctx, d)
	if err != nil {
		return Result{}, err
	}
	return Result{
		Inconsistencies: res.Reader.Inconsistencies,
		Iterations:      res.Reader.Iterations,
		Elapsed:         res.Reader.Elapsed,
		Publishes:       res.Publishes(),
		run:             res,
	}, nil
}

// WriteReport writes the two-line summary:
//
//	Detected no data races!
//	Reader time: 1.234567 seconds (324000000.00 iterations/sec)
func WriteReport(w io.Writer, res Result) error {
	return report.WriteSummary(w, res.run.Reader)
}

// WriteDetails writes captured torn reads followed by discard statistics.
func WriteDetails(w io.Writer, res Result) error {
	if err := report.WriteTornReads(w, res.run.Reader.Torn); err != nil {
		return err
	}
	return report.WriteStats(w, res.run.Reader, res.run.WriterStats)
}
