// Package record implements the shared record protected by the seqlock guard.
package record

import (
	"golang.org/x/sys/cpu"

	"github.com/kolkov/seqlock/internal/seqlock/guard"
)

// Fields is one generation of the shared record.
//
// A consistent generation produced from source value val has
// A = val, B = val*2, C = val*3, Res = val*6 (wrapping uint64 arithmetic).
type Fields struct {
	A   uint64
	B   uint64
	C   uint64
	Res uint64
}

// Generation returns the consistent generation for source value val.
//
//go:nosplit
func Generation(val uint64) Fields {
	return Fields{A: val, B: val * 2, C: val * 3, Res: val * 6}
}

// Consistent reports whether the fields satisfy the generation relationship.
//
//go:nosplit
func (f Fields) Consistent() bool {
	return f.A*2 == f.B && f.A*3 == f.C && f.A*6 == f.Res
}

// Shared is the record plus its guard word.
//
// The guard sits on its own cache line so that the reader's two guard loads do
// not contend with the writer's field stores more than the protocol requires.
//
// The zero value is generation zero under UNLOCKED(0).
type Shared struct {
	guard guard.Guard
	_     cpu.CacheLinePad

	fields Fields

	// last is the source value of the most recent publish. Only the lock
	// holder reads or writes it.
	last uint64
}

// New returns a record at generation zero.
func New() *Shared {
	return &Shared{}
}

// Guard returns the guard word protecting the record.
func (s *Shared) Guard() *guard.Guard {
	return &s.guard
}

// Last returns the source value of the most recent publish.
// The caller must hold the lock.
func (s *Shared) Last() uint64 {
	return s.last
}

// Write stores the generation for val. The caller must hold the lock.
//
// Field stores are plain memory writes; exclusion comes from the guard.
func (s *Shared) Write(val uint64) {
	storeFields(&s.fields, Generation(val))
	s.last = val
}

// WriteFields stores f verbatim, consistent or not. The caller must hold the
// lock. It exists to inject torn generations when checking that a reader
// notices them.
func (s *Shared) WriteFields(f Fields) {
	storeFields(&s.fields, f)
	s.last = f.A
}

// Read copies the fields without synchronisation. The copy is only
// meaningful if the caller brackets it with matching guard observations.
func (s *Shared) Read() Fields {
	return loadFields(&s.fields)
}
