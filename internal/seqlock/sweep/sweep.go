// Package sweep runs the seqlock experiment across writer counts and fits a
// contention model to the measured publish throughput.
package sweep

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/kolkov/seqlock/internal/seqlock/driver"
	"github.com/kolkov/seqlock/internal/seqlock/writer"
)

// Config controls a sweep.
type Config struct {
	// Levels are the writer counts to run (default: 1,2,3,4).
	Levels []int

	// Iterations is the reader budget for every run (default: 50M when
	// zero or negative).
	Iterations int64

	// Runs is the number of repetitions per level (default: 1).
	Runs int

	// Backoff is passed to every writer.
	Backoff writer.Backoff

	// Logger receives progress at info level. Nil uses slog.Default().
	Logger *slog.Logger
}

// DefaultConfig returns a sweep over one to four writers.
func DefaultConfig() Config {
	return Config{
		Levels:     []int{1, 2, 3, 4},
		Iterations: 50_000_000,
		Runs:       1,
	}
}

func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if len(c.Levels) == 0 {
		c.Levels = def.Levels
	}
	if c.Iterations <= 0 {
		c.Iterations = def.Iterations
	}
	if c.Runs <= 0 {
		c.Runs = def.Runs
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	return c
}

// Level aggregates the runs at one writer count.
type Level struct {
	Writers          int
	Runs             int
	Iterations       int64   // reader attempts summed over runs
	Publishes        uint64  // publishes summed over runs
	Elapsed          float64 // reader seconds summed over runs
	Inconsistencies  int64
	ReaderThroughput float64 // reader attempts per second
	PublishRate      float64 // publishes per second
}

func (l *Level) add(res driver.Result) {
	l.Runs++
	l.Iterations += res.Reader.Iterations
	l.Publishes += res.Publishes()
	l.Elapsed += res.Reader.Elapsed
	l.Inconsistencies += res.Reader.Inconsistencies
	if l.Elapsed > 0 {
		l.ReaderThroughput = float64(l.Iterations) / l.Elapsed
		l.PublishRate = float64(l.Publishes) / l.Elapsed
	}
}

// Inconsistencies returns the total across all levels.
func Inconsistencies(levels []Level) int64 {
	var n int64
	for _, l := range levels {
		n += l.Inconsistencies
	}
	return n
}

// Run executes the driver at every level, Runs times each.
//
// A cancelled ctx stops the sweep after the current run; the levels measured
// so far are returned together with ctx.Err().
func Run(ctx context.Context, cfg Config) ([]Level, error) {
	cfg = cfg.withDefaults()

	levels := make([]Level, 0, len(cfg.Levels))
	for _, n := range cfg.Levels {
		lvl := Level{Writers: n}
		for run := 0; run < cfg.Runs; run++ {
			if err := ctx.Err(); err != nil {
				return levels, err
			}

			res, err := driver.Run(ctx, driver.Config{
				Writers:    n,
				Iterations: cfg.Iterations,
				Backoff:    cfg.Backoff,
				Logger:     cfg.Logger,
			})
			if err != nil {
				return levels, fmt.Errorf("sweep level %d: %w", n, err)
			}
			lvl.add(res)
		}

		cfg.Logger.Info("sweep level done",
			"writers", n,
			"reader_its", fmt.Sprintf("%.0f", lvl.ReaderThroughput),
			"publishes_per_sec", fmt.Sprintf("%.0f", lvl.PublishRate),
			"inconsistencies", lvl.Inconsistencies)

		levels = append(levels, lvl)
	}
	return levels, nil
}
