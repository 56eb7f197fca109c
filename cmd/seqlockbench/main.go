// Package main implements the seqlockbench CLI.
//
// Usage:
//
//	seqlockbench run --writers 3 --iterations 400000000
//	seqlockbench sweep --levels 1,2,3,4 --runs 3
//	seqlockbench version
//
// Every flag also reads a SEQLOCK_* environment variable. The exit status is
// non-zero on a configuration error or when any inconsistency was detected.
package main

import (
	"fmt"
	"os"

	_ "go.uber.org/automaxprocs"
)

func main() {
	if err := newApp(os.Stdout, os.Stderr).Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
