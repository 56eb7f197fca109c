// Package main runs the fixed seqlock experiment and prints the two-line
// report.
//
// Usage:
//
//	go run ./cmd/seqlockdemo                        # three writers
//	go run -tags seqlock_single ./cmd/seqlockdemo   # one writer
//
// The program takes no arguments and always exits 0. The first report line
// says whether any torn read was detected; a failure to run or print is
// logged to stderr.
package main

import (
	"context"
	"io"
	"log/slog"
	"os"

	_ "go.uber.org/automaxprocs"

	"github.com/kolkov/seqlock/internal/logging"
	"github.com/kolkov/seqlock/internal/seqlock/driver"
	"github.com/kolkov/seqlock/internal/seqlock/report"
)

func main() {
	logger := logging.Setup(slog.LevelWarn)
	run(context.Background(), os.Stdout, logger, demoConfig(logger))
}

// demoConfig is the compiled-in experiment for this build variant.
func demoConfig(logger *slog.Logger) driver.Config {
	cfg := driver.DefaultConfig()
	cfg.Writers = defaultWriters
	cfg.Logger = logger
	return cfg
}

// run executes cfg and writes the summary to w. Failures are logged, never
// turned into an exit status.
func run(ctx context.Context, w io.Writer, logger *slog.Logger, cfg driver.Config) {
	res, err := driver.Run(ctx, cfg)
	if err != nil {
		logger.Warn("seqlock run failed", "error", err)
		return
	}
	if err := report.WriteSummary(w, res.Reader); err != nil {
		logger.Warn("writing report failed", "error", err)
	}
}
