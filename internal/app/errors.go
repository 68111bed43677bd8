package app

import (
	"errors"
	"fmt"

	"github.com/sartorproj/goforecast/forecaster"
	"github.com/sartorproj/goforecast/pkg/metrics"
)

// ErrInvalidRequest marks malformed requests that never reached the model.
var ErrInvalidRequest = errors.New("invalid request")

// ErrLimitExceeded marks requests larger than the service accepts.
var ErrLimitExceeded = errors.New("limit exceeded")

// LimitError names the request field that exceeded a service limit.
type LimitError struct {
	Field string
	Limit int
	Value int
}

func (e *LimitError) Error() string {
	return fmt.Sprintf("%s: %d exceeds the limit of %d", e.Field, e.Value, e.Limit)
}

func (e *LimitError) Unwrap() error { return ErrLimitExceeded }

// outcome maps a fit error to its metrics label.
func outcome(err error) string {
	switch {
	case err == nil:
		return metrics.OutcomeOK
	case errors.Is(err, forecaster.ErrInvalidConfiguration), errors.Is(err, ErrLimitExceeded):
		return metrics.OutcomeInvalidConfig
	case errors.Is(err, forecaster.ErrInsufficientData):
		return metrics.OutcomeInsufficientData
	case errors.Is(err, forecaster.ErrDegenerateDesign):
		return metrics.OutcomeDegenerateDesign
	default:
		return metrics.OutcomeError
	}
}
