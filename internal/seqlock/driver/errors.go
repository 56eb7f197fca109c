package driver

import (
	"errors"
	"fmt"
)

// ErrInvalidConfig is wrapped by every ConfigError.
var ErrInvalidConfig = errors.New("invalid configuration")

// ConfigError describes a rejected configuration value.
//
// Example output:
//
//	writers=0: at least one writer is required
//
//	Suggestion: use 1 for the single-writer variant or 3 for the contended one
type ConfigError struct {
	Field      string // Config field name as shown to the user
	Value      any    // Rejected value
	Message    string // What is wrong
	Suggestion string // Optional hint (empty if none)
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	result := fmt.Sprintf("%s=%v: %s", e.Field, e.Value, e.Message)
	if e.Suggestion != "" {
		result += fmt.Sprintf("\n\nSuggestion: %s", e.Suggestion)
	}
	return result
}

// Unwrap lets errors.Is(err, ErrInvalidConfig) match.
func (e *ConfigError) Unwrap() error {
	return ErrInvalidConfig
}
