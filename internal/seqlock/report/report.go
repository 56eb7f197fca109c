// Package report renders run results for the console.
//
// The summary is exactly two lines on stdout:
//
//	Detected no data races!
//	Reader time: 1.234567 seconds (324000000.00 iterations/sec)
//
// Torn-read samples and discard statistics are rendered separately so that
// the summary format stays fixed.
package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/kolkov/seqlock/internal/seqlock/reader"
	"github.com/kolkov/seqlock/internal/seqlock/writer"
)

// separator frames each torn-read block, as in Go's race detector output.
const separator = "=================="

// WriteSummary writes the inconsistency line and the throughput line.
func WriteSummary(w io.Writer, res reader.Result) error {
	if _, err := io.WriteString(w, InconsistencyLine(res.Inconsistencies)+"\n"); err != nil {
		return err
	}
	_, err := io.WriteString(w, ThroughputLine(res)+"\n")
	return err
}

// InconsistencyLine returns the first summary line.
func InconsistencyLine(n int64) string {
	if n > 0 {
		return fmt.Sprintf("Detected a data race %d times!", n)
	}
	return "Detected no data races!"
}

// ThroughputLine returns the second summary line.
func ThroughputLine(res reader.Result) string {
	return fmt.Sprintf("Reader time: %.6f seconds (%.2f iterations/sec)", res.Elapsed, res.Throughput())
}

// WriteTornReads renders retained torn snapshots.
//
// Each field is shown divided back to its source value, so a torn read shows
// up as disagreeing values:
//
//	==================
//	WARNING: TORN READ
//	Snapshot at iteration 1234 under UNLOCKED(77):
//	  a=77 b/2=78 c/3=77 res/6=77
//	==================
func WriteTornReads(w io.Writer, torn []reader.TornRead) error {
	var buf strings.Builder
	for _, tr := range torn {
		buf.WriteString(separator + "\n")
		buf.WriteString("WARNING: TORN READ\n")
		fmt.Fprintf(&buf, "Snapshot at iteration %d under %s:\n", tr.Iteration, tr.Guard)
		fmt.Fprintf(&buf, "  a=%d b/2=%d c/3=%d res/6=%d\n",
			tr.Fields.A, tr.Fields.B/2, tr.Fields.C/3, tr.Fields.Res/6)
		buf.WriteString(separator + "\n")
	}
	_, err := io.WriteString(w, buf.String())
	return err
}

// WriteStats renders reader discard statistics and per-writer counters.
func WriteStats(w io.Writer, res reader.Result, writers []writer.Stats) error {
	var buf strings.Builder

	pct := func(n int64) float64 {
		if res.Iterations == 0 {
			return 0
		}
		return float64(n) * 100 / float64(res.Iterations)
	}

	fmt.Fprintf(&buf, "Reader attempts:   %d\n", res.Iterations)
	fmt.Fprintf(&buf, "  validated:       %d (%.2f%%)\n", res.Validated, pct(res.Validated))
	fmt.Fprintf(&buf, "  locked discards: %d (%.2f%%)\n", res.LockedDiscards, pct(res.LockedDiscards))
	fmt.Fprintf(&buf, "  guard changed:   %d (%.2f%%)\n", res.MismatchDiscards, pct(res.MismatchDiscards))

	var total uint64
	for _, s := range writers {
		total += s.Publishes
	}
	fmt.Fprintf(&buf, "Writer publishes:  %d\n", total)
	for i, s := range writers {
		fmt.Fprintf(&buf, "  writer %d: publishes=%d busy=%d lost=%d\n", i, s.Publishes, s.Busy, s.LostRaces)
	}

	_, err := io.WriteString(w, buf.String())
	return err
}
