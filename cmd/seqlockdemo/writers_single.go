//go:build seqlock_single

package main

// defaultWriters selects the single-writer variant.
const defaultWriters = 1
