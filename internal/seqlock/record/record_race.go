//go:build race

package record

import "sync/atomic"

// The race detector reports the speculative reads as races, correctly: they
// are. Under -race each field access is atomic so the detector stays quiet,
// while the reader still has to validate the copy against the guard because
// the four loads are not atomic as a group.

func storeFields(dst *Fields, f Fields) {
	atomic.StoreUint64(&dst.A, f.A)
	atomic.StoreUint64(&dst.B, f.B)
	atomic.StoreUint64(&dst.C, f.C)
	atomic.StoreUint64(&dst.Res, f.Res)
}

func loadFields(src *Fields) Fields {
	return Fields{
		A:   atomic.LoadUint64(&src.A),
		B:   atomic.LoadUint64(&src.B),
		C:   atomic.LoadUint64(&src.C),
		Res: atomic.LoadUint64(&src.Res),
	}
}
