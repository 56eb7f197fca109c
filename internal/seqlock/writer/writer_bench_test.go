package writer

import (
	"sync/atomic"
	"testing"

	"github.com/kolkov/seqlock/internal/seqlock/record"
)

// BenchmarkAttempt_Uncontended measures one acquire, write and publish.
func BenchmarkAttempt_Uncontended(b *testing.B) {
	var stop atomic.Bool
	w := New(0, record.New(), &stop, DefaultConfig())

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		w.Attempt()
	}
}

// BenchmarkAttempt_Parallel measures attempts from GOMAXPROCS writers on one
// record.
func BenchmarkAttempt_Parallel(b *testing.B) {
	rec := record.New()
	var stop atomic.Bool
	var ids atomic.Int32

	b.RunParallel(func(pb *testing.PB) {
		w := New(int(ids.Add(1)), rec, &stop, DefaultConfig())
		for pb.Next() {
			w.Attempt()
		}
	})
}
