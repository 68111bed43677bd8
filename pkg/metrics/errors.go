package metrics

import (
	"errors"
)

// Outcome labels recorded for fits.
const (
	OutcomeOK               = "ok"
	OutcomeInvalidConfig    = "invalid_config"
	OutcomeInsufficientData = "insufficient_data"
	OutcomeDegenerateDesign = "degenerate_design"
	OutcomeError            = "error"
)

// ErrDisabled is returned by Gather when collection is disabled.
var ErrDisabled = errors.New("metrics disabled")
