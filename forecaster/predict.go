package forecaster

import (
	"time"

	"github.com/sartorproj/goforecast/timeseries"
)

// Point is the forecast at one timestamp. Component values are in
// observation units and Yhat is their sum.
type Point struct {
	Time         time.Time          `json:"ds"`
	Yhat         float64            `json:"yhat"`
	Lower        float64            `json:"yhat_lower"`
	Upper        float64            `json:"yhat_upper"`
	Trend        float64            `json:"trend"`
	Seasonal     map[string]float64 `json:"seasonal,omitempty"`
	Holidays     float64            `json:"holidays"`
	HolidayTerms map[string]float64 `json:"holiday_terms,omitempty"`
	Extrapolated bool               `json:"extrapolated"`
}

// Forecast is the result of Predict, with points in query order.
type Forecast struct {
	Points   []Point `json:"points"`
	Warnings []error `json:"-"`
}

// Yhat returns the point estimates in query order.
func (f *Forecast) Yhat() []float64 {
	out := make([]float64, len(f.Points))
	for i, p := range f.Points {
		out[i] = p.Yhat
	}
	return out
}

// Predict evaluates the model at each timestamp. Point estimates are
// deterministic; intervals are simulated from Config.Seed and do not depend
// on which other timestamps are queried. Timestamps outside the training
// range are flagged Extrapolated and summarized in one
// OutOfRangeQueryWarning.
func (m *Model) Predict(timestamps []time.Time) *Forecast {
	f := &Forecast{Points: make([]Point, len(timestamps))}

	tns := make([]float64, len(timestamps))
	for i, t := range timestamps {
		tns[i] = m.basis.norm(t)
	}
	widths := m.intervalWidths(tns)

	var outside int
	var horizon time.Duration
	for i, t := range timestamps {
		c := m.evaluate(t)
		yhat := c.yhat(m.yScale)
		p := Point{
			Time:     t,
			Yhat:     yhat,
			Lower:    yhat - widths[i]*m.yScale,
			Upper:    yhat + widths[i]*m.yScale,
			Trend:    c.trend * m.yScale,
			Holidays: c.holidayTotal() * m.yScale,
		}

		if len(c.seasonal) > 0 {
			p.Seasonal = make(map[string]float64, len(c.seasonal))
			for j, s := range m.basis.seasons {
				p.Seasonal[s.Name] = c.seasonal[j] * m.yScale
			}
		}
		if active := m.basis.events.active(t); len(active) > 0 {
			p.HolidayTerms = make(map[string]float64, len(active))
			for _, l := range active {
				p.HolidayTerms[l] = 0
			}
			for j, l := range m.basis.labels {
				if _, ok := p.HolidayTerms[l]; ok {
					p.HolidayTerms[l] = c.holidays[j] * m.yScale
				}
			}
		}

		if d := m.outside(t); d > 0 {
			p.Extrapolated = true
			outside++
			horizon = max(horizon, d)
		}
		f.Points[i] = p
	}

	if outside > 0 {
		f.Warnings = append(f.Warnings, &OutOfRangeQueryWarning{
			Count:      outside,
			MaxHorizon: horizon,
			Start:      m.Start(),
			End:        m.End(),
		})
	}
	return f
}

// PredictFuture predicts periods steps of freq after the training end,
// optionally preceded by the training timestamps.
func (m *Model) PredictFuture(periods int, freq time.Duration, includeHistory bool) *Forecast {
	history := &timeseries.Series{Timestamps: m.timestamps}
	ts := history.MakeFuture(periods, freq, includeHistory)
	return m.Predict(ts)
}

// outside returns how far t lies outside the training range, or 0.
func (m *Model) outside(t time.Time) time.Duration {
	switch {
	case t.After(m.End()):
		return t.Sub(m.End())
	case t.Before(m.Start()):
		return m.Start().Sub(t)
	}
	return 0
}
