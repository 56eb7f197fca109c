//go:build !race

package record

// storeFields writes every field with ordinary stores.
//
//go:nosplit
func storeFields(dst *Fields, f Fields) {
	dst.A = f.A
	dst.B = f.B
	dst.C = f.C
	dst.Res = f.Res
}

// loadFields reads every field with ordinary loads.
//
//go:nosplit
func loadFields(src *Fields) Fields {
	return Fields{A: src.A, B: src.B, C: src.C, Res: src.Res}
}
