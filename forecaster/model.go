package forecaster

import (
	"math"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/sartorproj/goforecast/stats"
)

// Model is a fitted additive model. It is never modified after Fit or
// Restore returns and is safe for concurrent use.
type Model struct {
	config Config
	basis  *basis
	yScale float64

	// Coefficients and noise scale on the scaled target y / yScale.
	beta  []float64
	ainv  *mat.SymDense
	sigma float64

	timestamps []time.Time
	values     []float64
	fitted     []float64
	residuals  []float64
	unobserved []string
}

// components holds one evaluation on the scaled target.
type components struct {
	trend    float64
	seasonal []float64 // per seasonality
	holidays []float64 // per fitted label, zero when inactive
}

func (c components) yhat(scale float64) float64 {
	s := c.trend
	for _, v := range c.seasonal {
		s += v
	}
	for _, v := range c.holidays {
		s += v
	}
	return s * scale
}

func (c components) holidayTotal() float64 {
	return floats.Sum(c.holidays)
}

func (m *Model) evaluate(t time.Time) components {
	b := m.basis
	c := components{
		trend:    trendValue(b.norm(t), b.cpNorm, m.beta[:b.trendCols()]),
		seasonal: make([]float64, len(b.seasons)),
		holidays: make([]float64, len(b.labels)),
	}

	x := epochUnits(t, b.unit)
	for i, s := range b.seasons {
		off := b.seasonOffset(i)
		cols := make([]float64, 2*s.Harmonics)
		fourierColumns(x, s.Period, s.Harmonics, cols)
		c.seasonal[i] = floats.Dot(cols, m.beta[off:off+len(cols)])
	}

	off := b.eventOffset()
	for j, l := range b.labels {
		if b.events.covers(l, t) {
			c.holidays[j] = m.beta[off+j]
		}
	}
	return c
}

// Config returns the configuration the model was fitted with, defaults
// applied.
func (m *Model) Config() Config {
	return m.config.withDefaults()
}

// Start returns the first training timestamp.
func (m *Model) Start() time.Time { return m.basis.start }

// End returns the last training timestamp.
func (m *Model) End() time.Time { return m.basis.end }

// Sigma returns the residual standard deviation in observation units.
func (m *Model) Sigma() float64 { return m.sigma * m.yScale }

// Trend returns g(t).
func (m *Model) Trend(t time.Time) float64 {
	return m.evaluate(t).trend * m.yScale
}

// Seasonal returns the named seasonal component at t, or 0 for an unknown
// name.
func (m *Model) Seasonal(name string, t time.Time) float64 {
	c := m.evaluate(t)
	for i, s := range m.basis.seasons {
		if s.Name == name {
			return c.seasonal[i] * m.yScale
		}
	}
	return 0
}

// Holidays returns h(t), the summed offsets of every label active at t.
func (m *Model) Holidays(t time.Time) float64 {
	return m.evaluate(t).holidayTotal() * m.yScale
}

// Changepoints returns the changepoint timestamps used by the trend.
func (m *Model) Changepoints() []time.Time {
	return append([]time.Time(nil), m.basis.changepoints...)
}

// Segments returns the trend as explicit linear pieces. Rate is per time
// unit, and adjacent segments agree at the changepoint between them.
func (m *Model) Segments() []Segment {
	b := m.basis
	rates, intercepts := segments(b.cpNorm, m.beta[:b.trendCols()])
	span := b.span()
	out := make([]Segment, len(rates))
	for i := range rates {
		start := b.start
		if i > 0 {
			start = b.changepoints[i-1]
		}
		out[i] = Segment{
			Start:     start,
			Rate:      rates[i] * m.yScale / span,
			Intercept: intercepts[i] * m.yScale,
		}
	}
	return out
}

// Deltas returns the rate change at each changepoint, per time unit.
func (m *Model) Deltas() []float64 {
	b := m.basis
	out := make([]float64, len(b.cpNorm))
	for j := range out {
		out[j] = m.beta[2+j] * m.yScale / b.span()
	}
	return out
}

// Seasonalities returns the fitted Fourier coefficients of every seasonality.
func (m *Model) Seasonalities() []SeasonalityFit {
	b := m.basis
	out := make([]SeasonalityFit, len(b.seasons))
	for i, s := range b.seasons {
		off := b.seasonOffset(i)
		coef := make([]float64, 2*s.Harmonics)
		floats.ScaleTo(coef, m.yScale, m.beta[off:off+len(coef)])
		out[i] = SeasonalityFit{Seasonality: s, Coefficients: coef}
	}
	return out
}

// EventOffsets returns the fitted offset per event label. Labels with no
// training observation inside their windows map to 0.
func (m *Model) EventOffsets() map[string]float64 {
	b := m.basis
	out := make(map[string]float64, len(b.events.labels))
	for _, l := range m.unobserved {
		out[l] = 0
	}
	off := b.eventOffset()
	for j, l := range b.labels {
		out[l] = m.beta[off+j] * m.yScale
	}
	return out
}

// UnobservedEvents returns the labels that never covered a training
// timestamp.
func (m *Model) UnobservedEvents() []string {
	return append([]string(nil), m.unobserved...)
}

// Timestamps returns the training timestamps in sorted order.
func (m *Model) Timestamps() []time.Time {
	return append([]time.Time(nil), m.timestamps...)
}

// Values returns the training observations aligned with Timestamps.
func (m *Model) Values() []float64 {
	return append([]float64(nil), m.values...)
}

// FittedValues returns the in-sample predictions aligned with Timestamps.
func (m *Model) FittedValues() []float64 {
	return append([]float64(nil), m.fitted...)
}

// Residuals returns observations minus fitted values.
func (m *Model) Residuals() []float64 {
	return append([]float64(nil), m.residuals...)
}

// NumParams returns the number of regression coefficients.
func (m *Model) NumParams() int { return len(m.beta) }

// Summary describes the fit and its residuals. Measures that are undefined
// for the data (for example MAPE with all-zero observations) are 0.
type Summary struct {
	NObs          int                    `json:"n_obs"`
	NParams       int                    `json:"n_params"`
	Start         time.Time              `json:"start"`
	End           time.Time              `json:"end"`
	Sigma         float64                `json:"sigma"`
	RMSE          float64                `json:"rmse"`
	MAE           float64                `json:"mae"`
	MAPE          float64                `json:"mape"`
	RSquared      float64                `json:"r_squared"`
	AIC           float64                `json:"aic"`
	BIC           float64                `json:"bic"`
	DurbinWatson  float64                `json:"durbin_watson"`
	LjungBox      *stats.LjungBoxResult  `json:"ljung_box,omitempty"`
	ResidualACF   []float64              `json:"residual_acf,omitempty"`
	AutocorrLags  []int                  `json:"autocorrelated_lags,omitempty"`
	Segments      []Segment              `json:"segments"`
	Seasonalities []SeasonalityFit       `json:"seasonalities,omitempty"`
	EventOffsets  map[string]float64     `json:"event_offsets,omitempty"`
	Unobserved    []string               `json:"unobserved_events,omitempty"`
}

// Summary returns a summary of the fitted model.
func (m *Model) Summary() *Summary {
	n := len(m.values)
	sse := floats.Dot(m.residuals, m.residuals)
	aic, bic := stats.InformationCriteria(sse, n, len(m.beta))

	s := &Summary{
		NObs:          n,
		NParams:       len(m.beta),
		Start:         m.Start(),
		End:           m.End(),
		Sigma:         m.Sigma(),
		RMSE:          finite(stats.RMSE(m.values, m.fitted)),
		MAE:           finite(stats.MAE(m.values, m.fitted)),
		MAPE:          finite(stats.MAPE(m.values, m.fitted)),
		RSquared:      finite(stats.RSquared(m.values, m.fitted)),
		AIC:           finite(aic),
		BIC:           finite(bic),
		DurbinWatson:  finite(stats.DurbinWatson(m.residuals)),
		LjungBox:      stats.LjungBox(m.residuals, min(10, n/5), 0),
		Segments:      m.Segments(),
		Seasonalities: m.Seasonalities(),
		EventOffsets:  m.EventOffsets(),
		Unobserved:    m.UnobservedEvents(),
	}
	if acf := stats.ACFWithConfidence(m.residuals, min(20, n-1), 0.95); acf != nil {
		s.ResidualACF = acf.Values
		s.AutocorrLags = stats.SignificantLags(acf.Values, acf.ConfBounds)
	}
	return s
}

func finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
