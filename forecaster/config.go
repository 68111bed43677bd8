package forecaster

import (
	"fmt"
	"math"
	"sort"
	"time"
)

// Growth selects the trend model.
type Growth string

// GrowthLinear is a piecewise-linear trend with changepoints.
const GrowthLinear Growth = "linear"

// Defaults applied by DefaultConfig and to zero-valued fields.
const (
	DefaultChangepointCount          = 25
	DefaultChangepointRange          = 0.8
	DefaultChangepointRegularization = 0.01
	DefaultIntervalWidth             = 0.8
	DefaultUncertaintySamples        = 1000
	DefaultTimeUnit                  = 24 * time.Hour
)

// Seasonality is a periodic component represented by a truncated Fourier
// series. Period is measured in Config.TimeUnit.
type Seasonality struct {
	Name      string  `json:"name"`
	Period    float64 `json:"period"`
	Harmonics int     `json:"harmonics"`
}

// Weekly returns a seasonality with a 7 unit period.
func Weekly(harmonics int) Seasonality {
	return Seasonality{Name: "weekly", Period: 7, Harmonics: harmonics}
}

// Yearly returns a seasonality with a 365.25 unit period.
func Yearly(harmonics int) Seasonality {
	return Seasonality{Name: "yearly", Period: 365.25, Harmonics: harmonics}
}

// Daily returns a seasonality with a 1 unit period.
func Daily(harmonics int) Seasonality {
	return Seasonality{Name: "daily", Period: 1, Harmonics: harmonics}
}

// Event marks a dated occurrence of a labelled holiday or event. The effect
// covers [Date+LowerWindow, Date+UpperWindow+1) time units.
type Event struct {
	Date        time.Time `json:"ds"`
	Label       string    `json:"holiday"`
	LowerWindow int       `json:"lower_window"`
	UpperWindow int       `json:"upper_window"`
}

// Config holds the model settings.
type Config struct {
	Growth Growth `json:"growth"`

	// ChangepointCount is the number of automatically placed changepoints.
	// It is ignored when Changepoints is set.
	ChangepointCount int `json:"changepoint_count"`
	// ChangepointRange is the leading fraction of the history in which
	// changepoints are placed.
	ChangepointRange float64 `json:"changepoint_range"`
	// Changepoints overrides automatic placement. Each must lie strictly
	// inside the training range.
	Changepoints []time.Time `json:"changepoints,omitempty"`
	// ChangepointRegularization is the L1 penalty on rate deltas. Zero
	// leaves them unconstrained.
	ChangepointRegularization float64 `json:"changepoint_regularization"`

	Seasonalities             []Seasonality `json:"seasonalities,omitempty"`
	SeasonalityRegularization float64       `json:"seasonality_regularization"`

	Events                []Event `json:"events,omitempty"`
	HolidayRegularization float64 `json:"holiday_regularization"`

	// IntervalWidth is the coverage of the uncertainty interval.
	IntervalWidth float64 `json:"interval_width"`
	// UncertaintySamples is the number of simulated draws. Zero disables
	// intervals.
	UncertaintySamples int    `json:"uncertainty_samples"`
	Seed               uint64 `json:"seed"`

	// TimeUnit is the unit for periods, windows and rates.
	TimeUnit time.Duration `json:"time_unit"`
}

// DefaultConfig returns a linear-growth configuration with no seasonalities.
// Harmonic counts depend on the data and are left to the caller.
func DefaultConfig() *Config {
	return &Config{
		Growth:                    GrowthLinear,
		ChangepointCount:          DefaultChangepointCount,
		ChangepointRange:          DefaultChangepointRange,
		ChangepointRegularization: DefaultChangepointRegularization,
		IntervalWidth:             DefaultIntervalWidth,
		UncertaintySamples:        DefaultUncertaintySamples,
		TimeUnit:                  DefaultTimeUnit,
	}
}

// withDefaults returns a copy with zero-valued Growth, ChangepointRange,
// IntervalWidth and TimeUnit filled in. Counts and regularization strengths
// are meaningful at zero and are left alone.
func (c *Config) withDefaults() Config {
	out := *c
	if out.Growth == "" {
		out.Growth = GrowthLinear
	}
	if out.ChangepointRange == 0 {
		out.ChangepointRange = DefaultChangepointRange
	}
	if out.IntervalWidth == 0 {
		out.IntervalWidth = DefaultIntervalWidth
	}
	if out.TimeUnit == 0 {
		out.TimeUnit = DefaultTimeUnit
	}
	out.Changepoints = append([]time.Time(nil), c.Changepoints...)
	out.Seasonalities = append([]Seasonality(nil), c.Seasonalities...)
	out.Events = append([]Event(nil), c.Events...)
	sort.Slice(out.Changepoints, func(i, j int) bool {
		return out.Changepoints[i].Before(out.Changepoints[j])
	})
	return out
}

// Validate reports the first invalid setting as an
// *InvalidConfigurationError. Zero values that take defaults are accepted.
func (c *Config) Validate() error {
	cfg := c.withDefaults()

	if cfg.Growth != GrowthLinear {
		return invalid("Growth", fmt.Sprintf("unsupported growth %q", cfg.Growth))
	}
	if cfg.ChangepointCount < 0 {
		return invalid("ChangepointCount", "must be >= 0")
	}
	if !(cfg.ChangepointRange > 0 && cfg.ChangepointRange <= 1) {
		return invalid("ChangepointRange", "must be in (0, 1]")
	}
	for i := 1; i < len(cfg.Changepoints); i++ {
		if cfg.Changepoints[i].Equal(cfg.Changepoints[i-1]) {
			return invalid("Changepoints", "duplicate changepoint "+cfg.Changepoints[i].Format(time.RFC3339))
		}
	}
	if !nonNegative(cfg.ChangepointRegularization) {
		return invalid("ChangepointRegularization", "must be a finite value >= 0")
	}
	if !nonNegative(cfg.SeasonalityRegularization) {
		return invalid("SeasonalityRegularization", "must be a finite value >= 0")
	}
	if !nonNegative(cfg.HolidayRegularization) {
		return invalid("HolidayRegularization", "must be a finite value >= 0")
	}

	names := make(map[string]bool, len(cfg.Seasonalities))
	for _, s := range cfg.Seasonalities {
		field := "Seasonalities[" + s.Name + "]"
		switch {
		case s.Name == "":
			return invalid("Seasonalities", "name is required")
		case names[s.Name]:
			return invalid(field, "duplicate name")
		case !(s.Period > 0) || math.IsInf(s.Period, 0):
			return invalid(field, "period must be > 0")
		case s.Harmonics < 1:
			return invalid(field, "harmonics must be >= 1")
		}
		names[s.Name] = true
	}

	for i, e := range cfg.Events {
		field := fmt.Sprintf("Events[%d]", i)
		switch {
		case e.Label == "":
			return invalid(field, "label is required")
		case e.Date.IsZero():
			return invalid(field, "date is required")
		case e.LowerWindow > 0:
			return invalid(field, "lower window must be <= 0")
		case e.UpperWindow < 0:
			return invalid(field, "upper window must be >= 0")
		}
	}

	if !(cfg.IntervalWidth > 0 && cfg.IntervalWidth < 1) {
		return invalid("IntervalWidth", "must be in (0, 1)")
	}
	if cfg.UncertaintySamples < 0 {
		return invalid("UncertaintySamples", "must be >= 0")
	}
	if cfg.TimeUnit < 0 {
		return invalid("TimeUnit", "must be positive")
	}
	return nil
}

func nonNegative(v float64) bool {
	return v >= 0 && !math.IsInf(v, 0)
}

// NumColumns returns an upper bound on the design matrix width a fit with
// this configuration would build. It saturates at math.MaxInt.
func (c *Config) NumColumns() int {
	changepoints := c.ChangepointCount
	if len(c.Changepoints) > 0 {
		changepoints = len(c.Changepoints)
	}

	total := 2
	add := func(n int) {
		if n <= 0 {
			return
		}
		if total > math.MaxInt-n {
			total = math.MaxInt
			return
		}
		total += n
	}
	add(changepoints)
	for _, s := range c.Seasonalities {
		if s.Harmonics > math.MaxInt/2 {
			add(math.MaxInt)
			continue
		}
		add(2 * s.Harmonics)
	}
	labels := make(map[string]bool, len(c.Events))
	for _, e := range c.Events {
		labels[e.Label] = true
	}
	add(len(labels))
	return total
}
