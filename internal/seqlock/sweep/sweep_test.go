package sweep

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"math"
	"testing"

	"github.com/kolkov/seqlock/internal/logging"
	"github.com/kolkov/seqlock/internal/seqlock/driver"
)

func quietLogger() *slog.Logger {
	return logging.New(&bytes.Buffer{}, slog.LevelError)
}

// syntheticLevels samples an exact USL curve.
func syntheticLevels(lambda, alpha, beta float64, ns ...int) []Level {
	levels := make([]Level, len(ns))
	for i, n := range ns {
		levels[i] = Level{Writers: n, PublishRate: usl(float64(n), lambda, alpha, beta)}
	}
	return levels
}

func near(got, want, rel float64) bool {
	if want == 0 {
		return math.Abs(got) < rel
	}
	return math.Abs(got-want)/math.Abs(want) < rel
}

// TestFitContention_RecoversModel fits points sampled from known curves.
func TestFitContention_RecoversModel(t *testing.T) {
	tests := []struct {
		name                string
		lambda, alpha, beta float64
		ns                  []int
	}{
		{name: "linear", lambda: 1000, ns: []int{1, 2, 3, 4}},
		{name: "contention only", lambda: 5e6, alpha: 0.3, ns: []int{1, 2, 3, 4}},
		{name: "retrograde", lambda: 2e7, alpha: 0.05, beta: 0.02, ns: []int{1, 2, 3, 4, 6, 8}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fit, err := FitContention(syntheticLevels(tt.lambda, tt.alpha, tt.beta, tt.ns...))
			if err != nil {
				t.Fatalf("FitContention() error = %v", err)
			}

			if !near(fit.Lambda, tt.lambda, 1e-6) {
				t.Errorf("Lambda = %v, want %v", fit.Lambda, tt.lambda)
			}
			if !near(fit.Alpha, tt.alpha, 1e-6) {
				t.Errorf("Alpha = %v, want %v", fit.Alpha, tt.alpha)
			}
			if !near(fit.Beta, tt.beta, 1e-6) {
				t.Errorf("Beta = %v, want %v", fit.Beta, tt.beta)
			}
			if fit.RSquared < 0.999999 {
				t.Errorf("RSquared = %v, want ~1", fit.RSquared)
			}
			t.Logf("λ=%.1f α=%.4f β=%.5f R²=%.6f", fit.Lambda, fit.Alpha, fit.Beta, fit.RSquared)
		})
	}
}

// TestFitContention_NegativeBeta checks the contention-only fallback.
func TestFitContention_NegativeBeta(t *testing.T) {
	// N/C(N) is concave here, which a free fit reads as β < 0.
	var levels []Level
	for _, n := range []int{1, 2, 3, 4, 5} {
		x := float64(n)
		obs := 0.001 + 0.0003*(x-1) - 0.00001*x*(x-1)
		levels = append(levels, Level{Writers: n, PublishRate: x / obs})
	}

	fit, err := FitContention(levels)
	if err != nil {
		t.Fatalf("FitContention() error = %v", err)
	}
	if fit.Beta != 0 {
		t.Errorf("Beta = %v, want clamped to 0", fit.Beta)
	}
	if fit.Alpha <= 0 {
		t.Errorf("Alpha = %v, want > 0", fit.Alpha)
	}
	if fit.Peak() != 0 {
		t.Errorf("Peak() = %v, want 0 without coherency cost", fit.Peak())
	}
}

// TestFitContention_Errors covers inputs that cannot be fitted.
func TestFitContention_Errors(t *testing.T) {
	tests := []struct {
		name   string
		levels []Level
	}{
		{name: "empty"},
		{name: "two levels", levels: syntheticLevels(100, 0.1, 0, 1, 2)},
		{name: "zero rates skipped", levels: []Level{
			{Writers: 1, PublishRate: 100},
			{Writers: 2, PublishRate: 150},
			{Writers: 3},
		}},
		{name: "repeated level", levels: syntheticLevels(100, 0.1, 0, 2, 2, 2)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := FitContention(tt.levels); err == nil {
				t.Error("FitContention() error = nil, want error")
			}
		})
	}
}

// TestUSL_Peak tests the turnover point sqrt((1-α)/β).
func TestUSL_Peak(t *testing.T) {
	u := USL{Lambda: 1, Alpha: 0.05, Beta: 0.002}
	want := math.Sqrt(0.95 / 0.002)
	if got := u.Peak(); !near(got, want, 1e-12) {
		t.Errorf("Peak() = %v, want %v", got, want)
	}
	if got := u.Predict(1); got != 1 {
		t.Errorf("Predict(1) = %v, want λ", got)
	}
}

// TestRun_Levels runs a small real sweep.
func TestRun_Levels(t *testing.T) {
	levels, err := Run(context.Background(), Config{
		Levels:     []int{1, 2},
		Iterations: 200_000,
		Runs:       2,
		Logger:     quietLogger(),
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(levels) != 2 {
		t.Fatalf("len(levels) = %d, want 2", len(levels))
	}

	for i, l := range levels {
		if l.Writers != i+1 {
			t.Errorf("level %d: Writers = %d", i, l.Writers)
		}
		if l.Runs != 2 {
			t.Errorf("level %d: Runs = %d, want 2", i, l.Runs)
		}
		if l.Iterations != 400_000 {
			t.Errorf("level %d: Iterations = %d, want 400000", i, l.Iterations)
		}
		if l.Inconsistencies != 0 {
			t.Errorf("level %d: %d inconsistencies", i, l.Inconsistencies)
		}
		t.Logf("writers=%d reader=%.0f it/s publishes=%.0f/s", l.Writers, l.ReaderThroughput, l.PublishRate)
	}
	if n := Inconsistencies(levels); n != 0 {
		t.Errorf("Inconsistencies() = %d", n)
	}
}

// TestRun_InvalidLevel propagates driver config errors.
func TestRun_InvalidLevel(t *testing.T) {
	_, err := Run(context.Background(), Config{Levels: []int{0}, Iterations: 10, Logger: quietLogger()})
	if !errors.Is(err, driver.ErrInvalidConfig) {
		t.Errorf("Run() error = %v, want ErrInvalidConfig", err)
	}
}

// TestRun_Cancelled stops before the first run.
func TestRun_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	levels, err := Run(ctx, Config{Levels: []int{1, 2}, Iterations: 10, Logger: quietLogger()})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Run() error = %v, want context.Canceled", err)
	}
	if len(levels) != 0 {
		t.Errorf("len(levels) = %d, want 0", len(levels))
	}
}

// TestConfig_Defaults fills zero values.
func TestConfig_Defaults(t *testing.T) {
	c := Config{}.withDefaults()
	if len(c.Levels) != 4 || c.Levels[3] != 4 {
		t.Errorf("Levels = %v, want [1 2 3 4]", c.Levels)
	}
	if c.Iterations != 50_000_000 {
		t.Errorf("Iterations = %d, want 50000000", c.Iterations)
	}
	if c.Runs != 1 {
		t.Errorf("Runs = %d, want 1", c.Runs)
	}
	if c.Logger == nil {
		t.Error("Logger not defaulted")
	}
}

// TestRun_DefaultIterations runs a level with the budget left unset.
func TestRun_DefaultIterations(t *testing.T) {
	if testing.Short() {
		t.Skip("runs the full 50M reader budget")
	}

	levels, err := Run(context.Background(), Config{Levels: []int{1}, Logger: quietLogger()})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if got := levels[0].Iterations; got != DefaultConfig().Iterations {
		t.Errorf("Iterations = %d, want %d", got, DefaultConfig().Iterations)
	}
	if levels[0].ReaderThroughput <= 0 {
		t.Errorf("ReaderThroughput = %v, want > 0", levels[0].ReaderThroughput)
	}
}
