package diagnostics

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/sartorproj/goforecast/forecaster"
	"github.com/sartorproj/goforecast/timeseries"
)

// Sentinel errors returned by Cutoffs.
var (
	// ErrNoCutoffs is returned when the series is too short for the
	// requested initial window and horizon.
	ErrNoCutoffs = errors.New("series too short for cross-validation")
	// ErrTooManyCutoffs is returned when the period would place more than
	// Config.MaxCutoffs cutoffs.
	ErrTooManyCutoffs = errors.New("too many cross-validation cutoffs")
)

// DefaultMaxCutoffs bounds the cutoffs of one run when Config.MaxCutoffs is
// zero.
const DefaultMaxCutoffs = 1000

// Config holds rolling-origin cross-validation settings.
type Config struct {
	Horizon time.Duration // Forecast horizon after each cutoff (required)
	Period  time.Duration // Spacing between cutoffs (default: Horizon/2)
	Initial time.Duration // Minimum training window (default: 3*Horizon)
	Workers int           // Folds fitted concurrently (default: 1)

	// MaxCutoffs rejects periods that would place more cutoffs than this
	// (default: DefaultMaxCutoffs).
	MaxCutoffs int
}

// DefaultConfig returns the default settings for a horizon.
func DefaultConfig(horizon time.Duration) *Config {
	return &Config{
		Horizon:    horizon,
		Period:     horizon / 2,
		Initial:    3 * horizon,
		Workers:    1,
		MaxCutoffs: DefaultMaxCutoffs,
	}
}

func (c *Config) withDefaults() Config {
	out := *c
	if out.Period <= 0 {
		out.Period = max(out.Horizon/2, 1)
	}
	if out.Initial <= 0 {
		out.Initial = 3 * out.Horizon
	}
	if out.Workers <= 0 {
		out.Workers = 1
	}
	if out.MaxCutoffs <= 0 {
		out.MaxCutoffs = DefaultMaxCutoffs
	}
	return out
}

// Row is one held-out observation with its forecast.
type Row struct {
	Time   time.Time `json:"ds"`
	Cutoff time.Time `json:"cutoff"`
	Actual float64   `json:"y"`
	Yhat   float64   `json:"yhat"`
	Lower  float64   `json:"yhat_lower"`
	Upper  float64   `json:"yhat_upper"`
}

// Horizon returns the distance from the cutoff to the forecast time.
func (r Row) Horizon() time.Duration { return r.Time.Sub(r.Cutoff) }

// Result holds the cross-validation forecasts ordered by cutoff then time.
type Result struct {
	Cutoffs []time.Time `json:"cutoffs"`
	Rows    []Row       `json:"rows"`
}

// Cutoffs returns the cutoffs in ascending order. The last cutoff is one
// horizon before the end of the series; earlier ones step back by Period
// while at least Initial of history precedes them. Cutoffs whose horizon
// window holds no observation are skipped. The number of steps is checked
// against MaxCutoffs before any is placed.
func Cutoffs(ctx context.Context, series *timeseries.Series, config *Config) ([]time.Time, error) {
	if config == nil || config.Horizon <= 0 {
		return nil, errors.New("cross-validation horizon must be positive")
	}
	if config.Period < 0 || config.Initial < 0 {
		return nil, errors.New("cross-validation period and initial must not be negative")
	}
	cfg := config.withDefaults()
	data := series.DropNaN().Sorted()
	if data.Len() == 0 {
		return nil, ErrNoCutoffs
	}

	earliest := data.Start().Add(cfg.Initial)
	last := data.End().Add(-cfg.Horizon)
	if last.Before(earliest) {
		return nil, fmt.Errorf("%w: initial %s and horizon %s exceed %s of history",
			ErrNoCutoffs, cfg.Initial, cfg.Horizon, data.End().Sub(data.Start()))
	}
	steps := int64(last.Sub(earliest)/cfg.Period) + 1
	if steps > int64(cfg.MaxCutoffs) {
		return nil, fmt.Errorf("%w: period %s over %s gives %d cutoffs, limit %d",
			ErrTooManyCutoffs, cfg.Period, last.Sub(earliest), steps, cfg.MaxCutoffs)
	}

	ts := data.Timestamps
	cutoffs := make([]time.Time, 0, steps)
	for k := int64(0); k < steps; k++ {
		if k%64 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		c := last.Add(-time.Duration(k) * cfg.Period)
		i := sort.Search(len(ts), func(i int) bool { return ts[i].After(c) })
		if i < len(ts) && !ts[i].After(c.Add(cfg.Horizon)) {
			cutoffs = append(cutoffs, c)
		}
	}
	if len(cutoffs) == 0 {
		return nil, fmt.Errorf("%w: no observations within %s of any cutoff", ErrNoCutoffs, cfg.Horizon)
	}
	slices.Reverse(cutoffs)
	return cutoffs, nil
}

// CrossValidate fits fitter on the history up to each cutoff and forecasts
// the observations in the following horizon. Folds run on up to
// config.Workers goroutines; the first fold error cancels the rest.
func CrossValidate(ctx context.Context, series *timeseries.Series, fitter forecaster.Fitter, config *Config) (*Result, error) {
	cutoffs, err := Cutoffs(ctx, series, config)
	if err != nil {
		return nil, err
	}
	cfg := config.withDefaults()
	data := series.DropNaN().Sorted()

	rows := make([][]Row, len(cutoffs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Workers)
	for i, cutoff := range cutoffs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			r, err := runFold(data, fitter, cutoff, cfg.Horizon)
			if err != nil {
				return fmt.Errorf("cutoff %s: %w", cutoff.Format(time.RFC3339), err)
			}
			rows[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result := &Result{Cutoffs: cutoffs}
	for _, r := range rows {
		result.Rows = append(result.Rows, r...)
	}
	return result, nil
}

func runFold(data *timeseries.Series, fitter forecaster.Fitter, cutoff time.Time, horizon time.Duration) ([]Row, error) {
	train := data.Between(time.Time{}, cutoff)
	test := data.Between(cutoff, cutoff.Add(horizon))

	model, err := fitter.Fit(train)
	if err != nil {
		return nil, err
	}
	forecast := model.Predict(test.Timestamps)

	rows := make([]Row, test.Len())
	for i, p := range forecast.Points {
		rows[i] = Row{
			Time:   p.Time,
			Cutoff: cutoff,
			Actual: test.Values[i],
			Yhat:   p.Yhat,
			Lower:  p.Lower,
			Upper:  p.Upper,
		}
	}
	return rows, nil
}
