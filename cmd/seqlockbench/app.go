package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/urfave/cli"

	"github.com/kolkov/seqlock/internal/logging"
	"github.com/kolkov/seqlock/internal/seqlock/driver"
	"github.com/kolkov/seqlock/internal/seqlock/report"
	"github.com/kolkov/seqlock/internal/seqlock/sweep"
	"github.com/kolkov/seqlock/internal/seqlock/writer"
	"github.com/kolkov/seqlock/seqlock"
)

// errInconsistent is returned after the report when torn reads were seen.
var errInconsistent = errors.New("inconsistent snapshots detected")

var (
	flagWriters = cli.IntFlag{
		Name:   "writers, w",
		Usage:  "number of concurrent writers",
		EnvVar: "SEQLOCK_WRITERS",
		Value:  3,
	}
	flagIterations = cli.Int64Flag{
		Name:   "iterations, n",
		Usage:  "reader attempts per run",
		EnvVar: "SEQLOCK_ITERATIONS",
		Value:  400_000_000,
	}
	flagBackoff = cli.IntFlag{
		Name:   "backoff, b",
		Usage:  "max yields after a failed acquisition, 0 disables backoff",
		EnvVar: "SEQLOCK_BACKOFF",
	}
	flagLogLevel = cli.StringFlag{
		Name:   "log-level, l",
		Usage:  "log level, debug|info|warn|error",
		EnvVar: "SEQLOCK_LOG_LEVEL",
		Value:  "warn",
	}
	flagLevels = cli.StringFlag{
		Name:   "levels",
		Usage:  "comma-separated writer counts",
		EnvVar: "SEQLOCK_LEVELS",
		Value:  "1,2,3,4",
	}
	flagRuns = cli.IntFlag{
		Name:   "runs, r",
		Usage:  "repetitions per level",
		EnvVar: "SEQLOCK_RUNS",
		Value:  1,
	}
)

// newApp builds the CLI writing reports to stdout and logs to stderr.
func newApp(stdout, stderr io.Writer) *cli.App {
	app := cli.NewApp()
	app.Name = "seqlockbench"
	app.Version = seqlock.Version
	app.Usage = "stress a sequence lock and report torn reads"
	app.Writer = stdout
	app.ErrWriter = stderr

	app.Commands = []cli.Command{
		{
			Name:  "run",
			Usage: "run one experiment and print the report",
			Flags: []cli.Flag{flagWriters, flagIterations, flagBackoff, flagLogLevel},
			Action: func(c *cli.Context) error {
				logger, err := newLogger(stderr, c.String("log-level"))
				if err != nil {
					return err
				}
				ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
				defer stop()

				return runCommand(ctx, stdout, driver.Config{
					Writers:        c.Int("writers"),
					Iterations:     c.Int64("iterations"),
					Backoff:        writer.Backoff{MaxSpins: c.Int("backoff")},
					MaxTornSamples: driver.DefaultConfig().MaxTornSamples,
					Logger:         logger,
				})
			},
		},
		{
			Name:  "sweep",
			Usage: "run every writer level and fit a contention model",
			Flags: []cli.Flag{flagLevels, flagIterations, flagRuns, flagBackoff, flagLogLevel},
			Action: func(c *cli.Context) error {
				logger, err := newLogger(stderr, c.String("log-level"))
				if err != nil {
					return err
				}
				levels, err := parseLevels(c.String("levels"))
				if err != nil {
					return err
				}
				ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
				defer stop()

				return sweepCommand(ctx, stdout, sweep.Config{
					Levels:     levels,
					Iterations: c.Int64("iterations"),
					Runs:       c.Int("runs"),
					Backoff:    writer.Backoff{MaxSpins: c.Int("backoff")},
					Logger:     logger,
				})
			},
		},
		{
			Name:  "version",
			Usage: "print version information",
			Action: func(c *cli.Context) error {
				info := seqlock.GetInfo()
				fmt.Fprintf(stdout, "seqlockbench %s (%s)\n", info.Version, info.Protocol)
				return nil
			},
		},
	}
	return app
}

func newLogger(w io.Writer, level string) (*slog.Logger, error) {
	lvl, err := logging.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	return logging.New(w, lvl), nil
}

// runCommand prints the summary, any torn reads and the discard statistics.
func runCommand(ctx context.Context, w io.Writer, cfg driver.Config) error {
	res, err := driver.Run(ctx, cfg)
	if err != nil {
		return err
	}

	if err := report.WriteSummary(w, res.Reader); err != nil {
		return err
	}
	if err := report.WriteTornReads(w, res.Reader.Torn); err != nil {
		return err
	}
	fmt.Fprintln(w)
	if err := report.WriteStats(w, res.Reader, res.WriterStats); err != nil {
		return err
	}

	if res.Reader.Inconsistencies > 0 {
		return errInconsistent
	}
	return nil
}

// sweepCommand prints one row per level and the fitted USL coefficients.
func sweepCommand(ctx context.Context, w io.Writer, cfg sweep.Config) error {
	levels, err := sweep.Run(ctx, cfg)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "WRITERS\tREADER IT/S\tPUBLISHES/S\tINCONSISTENCIES")
	for _, l := range levels {
		fmt.Fprintf(tw, "%d\t%.2f\t%.2f\t%d\n", l.Writers, l.ReaderThroughput, l.PublishRate, l.Inconsistencies)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fit, err := sweep.FitContention(levels)
	if err != nil {
		fmt.Fprintf(w, "\nUSL fit skipped: %v\n", err)
	} else {
		fmt.Fprintf(w, "\nUSL fit: lambda=%.2f alpha=%.4f beta=%.6f R2=%.4f\n",
			fit.Lambda, fit.Alpha, fit.Beta, fit.RSquared)
		if peak := fit.Peak(); peak > 0 {
			fmt.Fprintf(w, "Publish rate peaks near %.1f writers\n", peak)
		}
	}

	if sweep.Inconsistencies(levels) > 0 {
		return errInconsistent
	}
	return nil
}

// parseLevels parses "1,2,3,4" into writer counts.
func parseLevels(s string) ([]int, error) {
	var levels []int
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		n, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("invalid level %q: %w", part, err)
		}
		levels = append(levels, n)
	}
	if len(levels) == 0 {
		return nil, fmt.Errorf("no writer levels in %q", s)
	}
	return levels, nil
}
