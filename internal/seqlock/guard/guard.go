// Package guard implements the seqlock guard word.
//
// The guard word is a single 32-bit value with two logical sub-fields:
//   - Top 2 bits: lock flag (nonzero while a writer is publishing)
//   - Bottom 30 bits: version of the last fully published generation
//
// Layout: [Lock:2][Version:30]
//
// Example: 0x00000005 is UNLOCKED(5); 0xC0000000 is LOCKED.
//
// Everything outside this package works with [Word] and [State]; the raw
// masks only appear here.
package guard

import "sync/atomic"

const (
	// LockBits is the number of bits reserved for the lock flag.
	LockBits = 2

	// VersionBits is the number of bits reserved for the version counter.
	VersionBits = 30

	// VersionMask extracts the version counter (0x3FFFFFFF).
	VersionMask = (1 << VersionBits) - 1

	// LockMask extracts the lock flag (0xC0000000).
	LockMask = ((1 << LockBits) - 1) << VersionBits
)

// Word is a raw guard word value as stored in memory.
type Word uint32

// Locked is the word a writer installs while it owns the record.
const Locked Word = LockMask

// Unlocked packs a version into an unlocked guard word.
//
// Versions beyond 30 bits wrap (v mod 2^30).
//
//go:nosplit
func Unlocked(version uint64) Word {
	return Word(version & VersionMask)
}

// IsLocked reports whether the lock flag is set.
//
//go:nosplit
func (w Word) IsLocked() bool {
	return w&LockMask != 0
}

// Decode unpacks the word into its tagged form.
//
//go:nosplit
func (w Word) Decode() State {
	if w.IsLocked() {
		return State{locked: true}
	}
	return State{version: uint32(w) & VersionMask}
}

// String returns "UNLOCKED(v)" or "LOCKED".
func (w Word) String() string {
	return w.Decode().String()
}

// State is the decoded guard word: either Unlocked(version) or Locked.
type State struct {
	locked  bool
	version uint32
}

// Locked reports whether a publication is in progress.
func (s State) Locked() bool { return s.locked }

// Version returns the published version. It is zero for a locked state.
func (s State) Version() uint32 { return s.version }

// Encode packs the state back into a word.
func (s State) Encode() Word {
	if s.locked {
		return Locked
	}
	return Unlocked(uint64(s.version))
}

// String returns a human-readable representation used in logs and reports.
func (s State) String() string {
	if s.locked {
		return "LOCKED"
	}
	return "UNLOCKED(" + itoa(s.version) + ")"
}

// Guard is the atomically accessed guard word.
//
// The zero value is UNLOCKED(0) and ready to use.
//
// Go's sync/atomic operations are sequentially consistent, so every method
// here is at least as strong as the acquire/release/relaxed ordering the
// protocol asks for. The method names keep the protocol roles visible at the
// call sites.
type Guard struct {
	word atomic.Uint32
}

// Load returns the current word. Writers use it to observe the lock flag
// before attempting acquisition.
//
//go:nosplit
func (g *Guard) Load() Word {
	return Word(g.word.Load())
}

// TryAcquire attempts to move the guard from the observed word to LOCKED.
//
// It fails without touching the guard if observed already has the lock flag
// set, or if another writer changed the word since it was observed. A single
// compare-and-swap decides ownership, so two writers can never both succeed
// from the same unlocked word.
//
//go:nosplit
func (g *Guard) TryAcquire(observed Word) bool {
	if observed.IsLocked() {
		return false
	}
	return g.word.CompareAndSwap(uint32(observed), uint32(Locked))
}

// Publish installs UNLOCKED(version mod 2^30).
//
// Must only be called by the writer that holds the lock, after all record
// fields have been written. The store releases those writes to any reader
// that subsequently loads the word.
//
//go:nosplit
func (g *Guard) Publish(version uint64) {
	g.word.Store(uint32(Unlocked(version)))
}

// Snapshot loads the word at the start of a speculative read (acquire side).
//
//go:nosplit
func (g *Guard) Snapshot() Word {
	return Word(g.word.Load())
}

// PeekUnordered loads the word for the validating re-check at the end of a
// speculative read. Ordering against the preceding field copies is provided
// by the reader's barrier, not by this load.
//
//go:nosplit
func (g *Guard) PeekUnordered() Word {
	return Word(g.word.Load())
}

// itoa converts a version to decimal without pulling fmt into the hot package.
func itoa(n uint32) string {
	if n == 0 {
		return "0"
	}

	var buf [10]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	return string(buf[i:])
}
