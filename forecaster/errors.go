package forecaster

import (
	"errors"
	"fmt"
	"time"
)

// Sentinel errors matched with errors.Is against the typed errors below.
var (
	ErrInvalidConfiguration = errors.New("invalid configuration")
	ErrInsufficientData     = errors.New("insufficient data")
	ErrDegenerateDesign     = errors.New("degenerate design matrix")
	ErrOutOfRange           = errors.New("query outside training range")
	ErrInvalidSnapshot      = errors.New("invalid model snapshot")
)

// InvalidConfigurationError reports a rejected configuration field.
type InvalidConfigurationError struct {
	Field  string
	Reason string
}

func (e *InvalidConfigurationError) Error() string {
	return fmt.Sprintf("invalid configuration: %s: %s", e.Field, e.Reason)
}

func (e *InvalidConfigurationError) Unwrap() error { return ErrInvalidConfiguration }

func invalid(field, reason string) error {
	return &InvalidConfigurationError{Field: field, Reason: reason}
}

// InsufficientDataError is returned by Fit when fewer than two distinct
// timestamps remain after dropping missing values.
type InsufficientDataError struct {
	Distinct int
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("insufficient data: %d distinct timestamps, need at least 2", e.Distinct)
}

func (e *InsufficientDataError) Unwrap() error { return ErrInsufficientData }

// DegenerateDesignError is returned by Fit when the regression cannot be
// solved: the design is rank deficient with no regularization configured, or
// the regularized system cannot be factorized.
type DegenerateDesignError struct {
	Rank    int
	Columns int
	Reason  string
}

func (e *DegenerateDesignError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("degenerate design: rank %d of %d columns: %s", e.Rank, e.Columns, e.Reason)
	}
	return fmt.Sprintf("degenerate design: rank %d of %d columns", e.Rank, e.Columns)
}

func (e *DegenerateDesignError) Unwrap() error { return ErrDegenerateDesign }

// OutOfRangeQueryWarning is a non-fatal warning attached to a Forecast when
// some query timestamps fall outside the training range. Intervals at those
// timestamps include trend uncertainty that grows with the horizon.
type OutOfRangeQueryWarning struct {
	Count      int
	MaxHorizon time.Duration
	Start      time.Time
	End        time.Time
}

func (w *OutOfRangeQueryWarning) Error() string {
	return fmt.Sprintf("%d query timestamps outside training range [%s, %s], up to %s away",
		w.Count, w.Start.Format(time.RFC3339), w.End.Format(time.RFC3339), w.MaxHorizon)
}

func (w *OutOfRangeQueryWarning) Unwrap() error { return ErrOutOfRange }
