package forecaster

import (
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/sartorproj/goforecast/timeseries"
)

// Fitter fits a model to a series.
type Fitter interface {
	Fit(series *timeseries.Series) (Predictor, error)
}

// Predictor evaluates a fitted model at arbitrary timestamps.
type Predictor interface {
	Predict(timestamps []time.Time) *Forecast
}

// Additive is a Fitter for the additive trend + seasonality + holiday model.
type Additive struct {
	config Config
}

// New creates an Additive fitter. A nil config uses DefaultConfig.
func New(config *Config) *Additive {
	if config == nil {
		config = DefaultConfig()
	}
	return &Additive{config: config.withDefaults()}
}

// Fit implements Fitter.
func (a *Additive) Fit(series *timeseries.Series) (Predictor, error) {
	return Fit(series, &a.config)
}

// Fit estimates trend, seasonality and holiday effects jointly. Missing
// (NaN) values are dropped and the remaining observations sorted by time;
// repeated timestamps are kept as separate observations. The returned Model
// is immutable.
func Fit(series *timeseries.Series, config *Config) (*Model, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	cfg := config.withDefaults()

	if series == nil {
		return nil, &InsufficientDataError{}
	}
	if len(series.Timestamps) != len(series.Values) {
		return nil, fmt.Errorf("%d timestamps, %d values: %w",
			len(series.Timestamps), len(series.Values), timeseries.ErrLengthMismatch)
	}
	data := series.DropNaN().Sorted()
	distinct := distinctTimes(data.Timestamps)
	if len(distinct) < 2 {
		return nil, &InsufficientDataError{Distinct: len(distinct)}
	}
	start, end := distinct[0], distinct[len(distinct)-1]

	cps := cfg.Changepoints
	if len(cps) == 0 {
		cps = placeChangepoints(distinct, cfg.ChangepointCount, cfg.ChangepointRange)
	}
	for _, c := range cps {
		if !c.After(start) || !c.Before(end) {
			return nil, invalid("Changepoints", fmt.Sprintf("%s outside training range (%s, %s)",
				c.Format(time.RFC3339), start.Format(time.RFC3339), end.Format(time.RFC3339)))
		}
	}

	events := newEventSet(cfg.Events, cfg.TimeUnit)
	observed, unobserved := events.partition(data.Timestamps)
	b := newBasis(start, end, cfg.TimeUnit, cps, cfg.Seasonalities, events, observed)

	yScale := floats.Norm(data.Values, math.Inf(1))
	if yScale == 0 {
		yScale = 1
	}
	scaled := make([]float64, data.Len())
	floats.ScaleTo(scaled, 1/yScale, data.Values)

	x := b.matrix(data.Timestamps)
	y := mat.NewVecDense(len(scaled), scaled)

	pen := penaltyFor(&cfg, b)
	var sol *solution
	var err error
	if pen.active() {
		sol, err = solvePenalized(x, y, pen)
	} else {
		sol, err = solveLeastSquares(x, y)
	}
	if err != nil {
		return nil, err
	}

	m := &Model{
		config:     cfg,
		basis:      b,
		yScale:     yScale,
		beta:       sol.beta,
		ainv:       sol.ainv,
		timestamps: data.Timestamps,
		values:     data.Values,
		unobserved: unobserved,
	}
	m.finish()
	return m, nil
}

// finish derives fitted values, residuals and the noise scale from the
// coefficients. Fitted values go through the same evaluation as Predict.
func (m *Model) finish() {
	n := len(m.timestamps)
	m.fitted = make([]float64, n)
	m.residuals = make([]float64, n)
	sse := 0.0
	for i, t := range m.timestamps {
		m.fitted[i] = m.evaluate(t).yhat(m.yScale)
		m.residuals[i] = m.values[i] - m.fitted[i]
		r := m.residuals[i] / m.yScale
		sse += r * r
	}

	dof := n - len(m.beta)
	if dof <= 0 {
		dof = n
	}
	m.sigma = math.Sqrt(sse / float64(dof))
}

func penaltyFor(cfg *Config, b *basis) penalty {
	p := b.cols()
	pen := penalty{l1: cfg.ChangepointRegularization, ridge: make([]float64, p)}
	for j := 2; j < b.trendCols(); j++ {
		pen.l1Cols = append(pen.l1Cols, j)
	}
	for j := b.trendCols(); j < b.eventOffset(); j++ {
		pen.ridge[j] = cfg.SeasonalityRegularization
	}
	for j := b.eventOffset(); j < p; j++ {
		pen.ridge[j] = cfg.HolidayRegularization
	}
	return pen
}

func distinctTimes(sorted []time.Time) []time.Time {
	var out []time.Time
	for i, t := range sorted {
		if i == 0 || !t.Equal(sorted[i-1]) {
			out = append(out, t)
		}
	}
	return out
}
