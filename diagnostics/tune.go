package diagnostics

import (
	"context"
	"errors"
	"math"
	"sort"

	"github.com/sartorproj/goforecast/forecaster"
	"github.com/sartorproj/goforecast/timeseries"
)

// ErrNoCandidates is returned when every candidate configuration fails.
var ErrNoCandidates = errors.New("no candidate configuration could be fitted")

// Grid lists candidate values. Empty dimensions keep the base value.
type Grid struct {
	ChangepointRegularization []float64        `json:"changepoint_regularization,omitempty"`
	SeasonalityRegularization []float64        `json:"seasonality_regularization,omitempty"`
	Harmonics                 map[string][]int `json:"harmonics,omitempty"` // by seasonality name
}

// Candidate is one evaluated configuration. Candidates that failed carry
// Err and zero scores.
type Candidate struct {
	Config    forecaster.Config `json:"config"`
	Score     Metric            `json:"score"`
	Criterion float64           `json:"criterion"`
	Err       string            `json:"error,omitempty"`
}

// TuneResult holds the best configuration found.
type TuneResult struct {
	Best            *forecaster.Config `json:"best"`
	Criterion       float64            `json:"criterion"`
	Candidates      []Candidate        `json:"candidates"`
	ModelsEvaluated int                `json:"models_evaluated"`
}

// Criterion selects the metric minimized by Tune: "rmse" (default), "mae",
// "mape" or "smape".
func criterionOf(m Metric, criterion string) float64 {
	switch criterion {
	case "mae":
		return m.MAE
	case "mape":
		return m.MAPE
	case "smape":
		return m.SMAPE
	default:
		return m.RMSE
	}
}

// Tune cross-validates every combination in grid and returns the
// configuration with the lowest criterion. Candidates that fail to fit are
// recorded with their error and skipped.
func Tune(ctx context.Context, series *timeseries.Series, base *forecaster.Config, grid Grid, cv *Config, criterion string) (*TuneResult, error) {
	if base == nil {
		base = forecaster.DefaultConfig()
	}
	if _, err := Cutoffs(ctx, series, cv); err != nil {
		return nil, err
	}

	result := &TuneResult{Criterion: math.Inf(1)}
	for _, cfg := range grid.Expand(base) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		cand := Candidate{Config: *cfg}
		cvResult, err := CrossValidate(ctx, series, forecaster.New(cfg), cv)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			cand.Err = err.Error()
			result.Candidates = append(result.Candidates, cand)
			continue
		}
		result.ModelsEvaluated++

		cand.Score = Score(cvResult.Rows)
		cand.Criterion = criterionOf(cand.Score, criterion)
		result.Candidates = append(result.Candidates, cand)

		if cand.Criterion < result.Criterion {
			best := cand.Config
			result.Best = &best
			result.Criterion = cand.Criterion
		}
	}

	if result.Best == nil {
		return result, ErrNoCandidates
	}
	return result, nil
}

// Size returns the number of configurations Expand produces, saturating at
// math.MaxInt.
func (grid Grid) Size() int {
	size := 1
	mul := func(n int) {
		if n == 0 {
			return
		}
		if size > math.MaxInt/n {
			size = math.MaxInt
			return
		}
		size *= n
	}
	mul(len(grid.ChangepointRegularization))
	mul(len(grid.SeasonalityRegularization))
	for _, values := range grid.Harmonics {
		mul(len(values))
	}
	return size
}

// Expand returns the cartesian product of grid applied to base. Harmonics
// for a seasonality missing from base still multiply the count but change
// nothing.
func (grid Grid) Expand(base *forecaster.Config) []*forecaster.Config {
	configs := []*forecaster.Config{cloneConfig(base)}

	if len(grid.ChangepointRegularization) > 0 {
		configs = vary(configs, len(grid.ChangepointRegularization), func(c *forecaster.Config, i int) {
			c.ChangepointRegularization = grid.ChangepointRegularization[i]
		})
	}
	if len(grid.SeasonalityRegularization) > 0 {
		configs = vary(configs, len(grid.SeasonalityRegularization), func(c *forecaster.Config, i int) {
			c.SeasonalityRegularization = grid.SeasonalityRegularization[i]
		})
	}

	names := make([]string, 0, len(grid.Harmonics))
	for name := range grid.Harmonics {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		values := grid.Harmonics[name]
		if len(values) == 0 {
			continue
		}
		configs = vary(configs, len(values), func(c *forecaster.Config, i int) {
			for j := range c.Seasonalities {
				if c.Seasonalities[j].Name == name {
					c.Seasonalities[j].Harmonics = values[i]
				}
			}
		})
	}
	return configs
}

func vary(configs []*forecaster.Config, n int, set func(*forecaster.Config, int)) []*forecaster.Config {
	out := make([]*forecaster.Config, 0, len(configs)*n)
	for _, c := range configs {
		for i := 0; i < n; i++ {
			next := cloneConfig(c)
			set(next, i)
			out = append(out, next)
		}
	}
	return out
}

func cloneConfig(c *forecaster.Config) *forecaster.Config {
	out := *c
	out.Changepoints = append(out.Changepoints[:0:0], c.Changepoints...)
	out.Seasonalities = append(out.Seasonalities[:0:0], c.Seasonalities...)
	out.Events = append(out.Events[:0:0], c.Events...)
	return &out
}
