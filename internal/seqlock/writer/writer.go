// Package writer implements the seqlock writer role.
//
// A writer repeatedly claims the record through the guard word, writes a new
// generation with plain stores and publishes it. Any number of writers may
// run against the same record; the guard's compare-and-swap admits exactly
// one at a time. Failed acquisitions retry immediately unless a Backoff is
// configured.
package writer

import (
	"runtime"
	"sync/atomic"

	"github.com/kolkov/seqlock/internal/seqlock/record"
)

// Backoff configures an optional bounded backoff after a failed acquisition.
//
// Each consecutive failure doubles the number of scheduler yields, starting at
// one and capped at MaxSpins. A successful publish resets it.
//
// Default: MaxSpins=0 (busy retry, no backoff).
type Backoff struct {
	MaxSpins int
}

// Enabled reports whether backoff is active.
func (b Backoff) Enabled() bool {
	return b.MaxSpins > 0
}

// Config configures a Writer.
type Config struct {
	// Backoff applied after a failed acquisition. Zero value disables it.
	Backoff Backoff

	// Critical, if set, runs while the writer holds the lock, after the
	// fields are written and before the publish. Used to instrument the
	// critical section in tests; nil in normal runs.
	Critical func()
}

// DefaultConfig returns the stress-test configuration: no backoff, no hooks.
func DefaultConfig() Config {
	return Config{}
}

// Stats counts what a writer did. Owned by the writer goroutine; read it only
// after Run has returned.
type Stats struct {
	// Publishes is the number of generations this writer published.
	Publishes uint64

	// Busy counts attempts abandoned because the lock flag was set.
	Busy uint64

	// LostRaces counts compare-and-swap failures against another writer.
	LostRaces uint64

	// FirstValue and LastValue are the source values of this writer's first
	// and last publish (zero if it never published).
	FirstValue uint64
	LastValue  uint64
}

// Writer is one writer actor.
type Writer struct {
	id    int
	rec   *record.Shared
	stop  *atomic.Bool
	cfg   Config
	stats Stats
	spins int
}

// New creates a writer that publishes into rec until stop is raised.
func New(id int, rec *record.Shared, stop *atomic.Bool, cfg Config) *Writer {
	if cfg.Backoff.MaxSpins < 0 {
		cfg.Backoff.MaxSpins = 0
	}
	return &Writer{
		id:   id,
		rec:  rec,
		stop: stop,
		cfg:  cfg,
	}
}

// ID returns the writer's index within its run.
func (w *Writer) ID() int {
	return w.id
}

// Run publishes generations until the stop flag is raised.
func (w *Writer) Run() {
	for !w.stop.Load() {
		w.Attempt()
	}
}

// PublishOnce retries until one generation is published or the stop flag is
// raised. It returns the published source value, or 0 if stopped first.
func (w *Writer) PublishOnce() uint64 {
	for !w.stop.Load() {
		if val, ok := w.Attempt(); ok {
			return val
		}
	}
	return 0
}

// Attempt performs one writer attempt.
//
// Algorithm:
//  1. Load the guard word
//  2. Lock flag set → give up this attempt (another writer owns the record)
//  3. Compare-and-swap to LOCKED → on failure give up (lost the race)
//  4. Write a = val, b = val*2, c = val*3, res = val*6
//  5. Publish UNLOCKED(val mod 2^30)
//
// val is one past the source value of the record's previous publish, so
// versions stay unique across writers and a reader can never match a guard
// value installed by one writer against a generation from another.
//
// Returns the published value and true on success.
func (w *Writer) Attempt() (uint64, bool) {
	g := w.rec.Guard()

	observed := g.Load()
	if observed.IsLocked() {
		w.stats.Busy++
		w.backoff()
		return 0, false
	}

	if !g.TryAcquire(observed) {
		w.stats.LostRaces++
		w.backoff()
		return 0, false
	}

	// Critical section: this writer alone may touch the fields.
	val := w.rec.Last() + 1
	w.rec.Write(val)
	if w.cfg.Critical != nil {
		w.cfg.Critical()
	}
	g.Publish(val)

	if w.stats.Publishes == 0 {
		w.stats.FirstValue = val
	}
	w.stats.Publishes++
	w.stats.LastValue = val
	w.spins = 0

	return val, true
}

// Stats returns the writer's counters. Only valid once Run has returned.
func (w *Writer) Stats() Stats {
	return w.stats
}

// backoff yields the processor for a bounded, exponentially growing number
// of times. No-op unless Backoff is enabled.
func (w *Writer) backoff() {
	if !w.cfg.Backoff.Enabled() {
		return
	}

	if w.spins == 0 {
		w.spins = 1
	} else if w.spins < w.cfg.Backoff.MaxSpins {
		w.spins *= 2
	}
	if w.spins > w.cfg.Backoff.MaxSpins {
		w.spins = w.cfg.Backoff.MaxSpins
	}

	for i := 0; i < w.spins; i++ {
		runtime.Gosched()
	}
}
