package backtest

import (
	"errors"
	"fmt"
	"time"
)

// ConfigError is fatal and aborts a run before any candle is processed.
// It indicates invalid run parameters or input data that violates the
// data contract (non-ascending or duplicate timestamps).
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid configuration: %s: %s", e.Field, e.Reason)
}

// InvariantError is fatal and aborts a run immediately. It indicates a
// defect in engine or strategy wiring, not bad input data, and is
// surfaced distinctly from ConfigError.
type InvariantError struct {
	Op     string
	Detail string
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("invariant violation in %s: %s", e.Op, e.Detail)
}

// ErrSizingRejected classifies recoverable position-sizing failures.
// The candle is skipped and a warning is recorded; the run continues.
var ErrSizingRejected = errors.New("position sizing rejected")

func sizingRejectedf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: "+format, append([]interface{}{ErrSizingRejected}, args...)...)
}

// SizingWarning records one skipped entry due to a sizing rejection.
type SizingWarning struct {
	Timestamp time.Time `json:"timestamp"`
	Price     float64   `json:"price"`
	Reason    string    `json:"reason"`
}

// IsConfigError reports whether err is a fatal configuration error.
func IsConfigError(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}

// IsInvariantError reports whether err is a fatal invariant violation.
func IsInvariantError(err error) bool {
	var ie *InvariantError
	return errors.As(err, &ie)
}
