package diagnostics

import (
	"math"
	"sort"
	"time"

	"github.com/sartorproj/goforecast/stats"
)

// Metric summarizes forecast accuracy over a set of rows. MAPE is 0 when
// every actual value is zero.
type Metric struct {
	Horizon  time.Duration `json:"horizon"`
	N        int           `json:"n"`
	MSE      float64       `json:"mse"`
	RMSE     float64       `json:"rmse"`
	MAE      float64       `json:"mae"`
	MAPE     float64       `json:"mape"`
	SMAPE    float64       `json:"smape"`
	Coverage float64       `json:"coverage"`
}

// Score computes the accuracy of rows, ignoring their horizons.
func Score(rows []Row) Metric {
	actual := make([]float64, len(rows))
	yhat := make([]float64, len(rows))
	lower := make([]float64, len(rows))
	upper := make([]float64, len(rows))
	for i, r := range rows {
		actual[i], yhat[i], lower[i], upper[i] = r.Actual, r.Yhat, r.Lower, r.Upper
	}

	mse := stats.MSE(actual, yhat)
	return Metric{
		N:        len(rows),
		MSE:      zeroNaN(mse),
		RMSE:     zeroNaN(math.Sqrt(mse)),
		MAE:      zeroNaN(stats.MAE(actual, yhat)),
		MAPE:     zeroNaN(stats.MAPE(actual, yhat)),
		SMAPE:    zeroNaN(stats.SMAPE(actual, yhat)),
		Coverage: zeroNaN(stats.Coverage(actual, lower, upper)),
	}
}

// PerformanceMetrics computes accuracy per horizon. Rows are sorted by
// horizon and each distinct horizon is scored over a rolling window of the
// closest window*len(rows) rows ending at it (at least one row). A window
// of 0 scores each horizon on its own rows only.
func PerformanceMetrics(rows []Row, window float64) []Metric {
	if len(rows) == 0 {
		return nil
	}
	sorted := append([]Row(nil), rows...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Horizon() < sorted[j].Horizon() })

	size := int(window * float64(len(sorted)))
	var out []Metric
	for i := 0; i < len(sorted); {
		h := sorted[i].Horizon()
		j := i
		for j < len(sorted) && sorted[j].Horizon() == h {
			j++
		}

		from := i
		if size > 0 {
			from = max(0, j-max(size, j-i))
		}
		m := Score(sorted[from:j])
		m.Horizon = h
		out = append(out, m)
		i = j
	}
	return out
}

func zeroNaN(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
