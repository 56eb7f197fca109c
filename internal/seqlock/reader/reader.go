// Package reader implements the seqlock reader role.
//
// The reader never blocks writers. Each attempt brackets a plain copy of the
// record between two guard observations and keeps the copy only if both
// observations are the same unlocked word. A kept copy that still violates
// the generation relationship is a verified inconsistency: evidence that the
// protocol let a torn read through.
package reader

import (
	"context"
	"sync/atomic"

	"github.com/kolkov/seqlock/internal/seqlock/clock"
	"github.com/kolkov/seqlock/internal/seqlock/guard"
	"github.com/kolkov/seqlock/internal/seqlock/record"
)

// DefaultIterations is the reader's fixed iteration budget.
const DefaultIterations = 400_000_000

// Outcome classifies one read attempt.
type Outcome int

const (
	// OutcomeConsistent is a validated snapshot that satisfies the
	// generation relationship.
	OutcomeConsistent Outcome = iota
	// OutcomeLocked means the first guard observation had the lock flag set.
	OutcomeLocked
	// OutcomeMismatch means the guard changed during the copy.
	OutcomeMismatch
	// OutcomeInconsistent is a validated snapshot whose fields are torn.
	OutcomeInconsistent
)

// String returns the string representation of an Outcome.
func (o Outcome) String() string {
	switch o {
	case OutcomeConsistent:
		return "consistent"
	case OutcomeLocked:
		return "locked"
	case OutcomeMismatch:
		return "mismatch"
	case OutcomeInconsistent:
		return "inconsistent"
	default:
		return "unknown"
	}
}

// Config configures a Reader.
type Config struct {
	// Iterations is the number of read attempts. Zero is allowed and yields
	// an empty result.
	Iterations int64

	// MaxTornSamples bounds how many inconsistent snapshots are retained
	// for reporting. Counting is unaffected.
	MaxTornSamples int

	// CheckEvery is how many attempts run between context checks.
	CheckEvery int64
}

// DefaultConfig returns the standard budget of 400M attempts.
func DefaultConfig() Config {
	return Config{
		Iterations:     DefaultIterations,
		MaxTornSamples: 8,
		CheckEvery:     1 << 16,
	}
}

// TornRead is a retained inconsistent snapshot.
type TornRead struct {
	// Iteration is the attempt index at which the snapshot was taken.
	Iteration int64

	// Guard is the word observed before and after the copy.
	Guard guard.Word

	// Fields is the copy that failed the relationship check.
	Fields record.Fields
}

// Result summarises a reader run.
type Result struct {
	Iterations       int64 // Attempts performed.
	Inconsistencies  int64 // Verified torn reads.
	LockedDiscards   int64 // Attempts discarded on a set lock flag.
	MismatchDiscards int64 // Attempts discarded on s1 != s2.
	Validated        int64 // Snapshots that passed the guard check.
	Elapsed          float64
	Torn             []TornRead
}

// Throughput returns attempts per second. A run with no elapsed time reports
// zero rather than dividing by zero.
func (r Result) Throughput() float64 {
	if r.Elapsed <= 0 {
		return 0
	}
	return float64(r.Iterations) / r.Elapsed
}

// Reader is the single reader actor.
type Reader struct {
	rec *record.Shared
	clk clock.Clock
	cfg Config

	// barrier is written after every field copy. The atomic store keeps the
	// compiler from moving the plain loads below the guard re-check.
	barrier atomic.Uint32

	// afterCopy runs between the field copy and the guard re-check. Nil
	// outside tests.
	afterCopy func()
}

// New creates a reader over rec timed by clk.
func New(rec *record.Shared, clk clock.Clock, cfg Config) *Reader {
	if cfg.Iterations < 0 {
		cfg.Iterations = 0
	}
	if cfg.MaxTornSamples < 0 {
		cfg.MaxTornSamples = 0
	}
	if cfg.CheckEvery <= 0 {
		cfg.CheckEvery = DefaultConfig().CheckEvery
	}
	return &Reader{rec: rec, clk: clk, cfg: cfg}
}

// TryRead performs one read attempt.
//
// Algorithm:
//  1. s1 := Snapshot()
//  2. Lock flag set in s1 → OutcomeLocked
//  3. Copy a, b, c, res
//  4. Barrier store so the copies stay above the re-check
//  5. s2 := PeekUnordered()
//  6. s1 != s2 → OutcomeMismatch
//  7. Relationship violated → OutcomeInconsistent, else OutcomeConsistent
//
// The fields are only meaningful for the last two outcomes.
func (r *Reader) TryRead() (record.Fields, guard.Word, Outcome) {
	g := r.rec.Guard()

	s1 := g.Snapshot()
	if s1.IsLocked() {
		return record.Fields{}, s1, OutcomeLocked
	}

	f := r.rec.Read()

	r.barrier.Store(uint32(s1))

	if r.afterCopy != nil {
		r.afterCopy()
	}

	s2 := g.PeekUnordered()
	if s1 != s2 {
		return f, s1, OutcomeMismatch
	}

	if !f.Consistent() {
		return f, s1, OutcomeInconsistent
	}
	return f, s1, OutcomeConsistent
}

// Run performs the configured number of attempts and returns the tally.
//
// Cancelling ctx stops the run early; the result then covers the attempts
// actually made.
func (r *Reader) Run(ctx context.Context) Result {
	var res Result

	n := r.cfg.Iterations
	untilCheck := r.cfg.CheckEvery

	start := r.clk.Now()

	var i int64
	for i = 0; i < n; i++ {
		untilCheck--
		if untilCheck == 0 {
			untilCheck = r.cfg.CheckEvery
			if ctx.Err() != nil {
				break
			}
		}

		f, s, out := r.TryRead()
		switch out {
		case OutcomeLocked:
			res.LockedDiscards++
		case OutcomeMismatch:
			res.MismatchDiscards++
		case OutcomeConsistent:
			res.Validated++
		case OutcomeInconsistent:
			res.Validated++
			res.Inconsistencies++
			if len(res.Torn) < r.cfg.MaxTornSamples {
				res.Torn = append(res.Torn, TornRead{Iteration: i, Guard: s, Fields: f})
			}
		}
	}

	res.Elapsed = r.clk.Now() - start
	res.Iterations = i

	return res
}
