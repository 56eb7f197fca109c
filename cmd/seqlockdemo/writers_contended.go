//go:build !seqlock_single

package main

// defaultWriters selects the contended variant.
const defaultWriters = 3
