package diagnostics

import (
	"math"
	"testing"
	"time"

	"github.com/sartorproj/goforecast/timeseries"
)

// horizonRows builds rows for cutoffs c with horizons 1..h days where the
// error equals the horizon in days. Only horizon 1 covers the actual value.
func horizonRows(cutoffs, h int) []Row {
	var rows []Row
	for c := 0; c < cutoffs; c++ {
		cutoff := timeseries.Epoch.AddDate(0, 0, 10*c)
		for k := 1; k <= h; k++ {
			rows = append(rows, Row{
				Time:   cutoff.AddDate(0, 0, k),
				Cutoff: cutoff,
				Actual: 100,
				Yhat:   100 + float64(k),
				Lower:  98.5 + float64(k),
				Upper:  101.5 + float64(k),
			})
		}
	}
	return rows
}

func TestScore(t *testing.T) {
	rows := []Row{
		{Actual: 10, Yhat: 12, Lower: 9, Upper: 13},
		{Actual: 20, Yhat: 18, Lower: 19, Upper: 25},
	}

	m := Score(rows)
	if m.N != 2 {
		t.Errorf("Expected N=2, got %d", m.N)
	}
	if math.Abs(m.MSE-4) > 1e-12 {
		t.Errorf("Expected MSE 4, got %f", m.MSE)
	}
	if math.Abs(m.RMSE-2) > 1e-12 {
		t.Errorf("Expected RMSE 2, got %f", m.RMSE)
	}
	if math.Abs(m.MAE-2) > 1e-12 {
		t.Errorf("Expected MAE 2, got %f", m.MAE)
	}
	if math.Abs(m.MAPE-0.15) > 1e-12 {
		t.Errorf("Expected MAPE 0.15, got %f", m.MAPE)
	}
	if m.Coverage != 1 {
		t.Errorf("Expected coverage 1, got %f", m.Coverage)
	}
}

func TestScoreEmpty(t *testing.T) {
	m := Score(nil)
	if m.N != 0 || m.RMSE != 0 || m.MAPE != 0 {
		t.Errorf("Expected zero metric for no rows, got %+v", m)
	}
}

func TestPerformanceMetricsPerHorizon(t *testing.T) {
	rows := horizonRows(5, 3)

	metrics := PerformanceMetrics(rows, 0)
	if len(metrics) != 3 {
		t.Fatalf("Expected 3 horizons, got %d", len(metrics))
	}
	for i, m := range metrics {
		k := i + 1
		if m.Horizon != time.Duration(k)*day {
			t.Errorf("Metric %d: expected horizon %d days, got %v", i, k, m.Horizon)
		}
		if m.N != 5 {
			t.Errorf("Metric %d: expected 5 rows, got %d", i, m.N)
		}
		if math.Abs(m.MAE-float64(k)) > 1e-12 {
			t.Errorf("Metric %d: expected MAE %d, got %f", i, k, m.MAE)
		}
	}
	if metrics[0].Coverage != 1 || metrics[2].Coverage != 0 {
		t.Errorf("Unexpected coverage: %f, %f", metrics[0].Coverage, metrics[2].Coverage)
	}
}

func TestPerformanceMetricsRollingWindow(t *testing.T) {
	rows := horizonRows(5, 3)

	// 15 rows * 0.67 = 10 rows per window.
	metrics := PerformanceMetrics(rows, 0.67)
	if len(metrics) != 3 {
		t.Fatalf("Expected 3 horizons, got %d", len(metrics))
	}
	if metrics[0].N != 5 {
		t.Errorf("Expected first window of 5 rows, got %d", metrics[0].N)
	}
	if metrics[1].N != 10 || math.Abs(metrics[1].MAE-1.5) > 1e-12 {
		t.Errorf("Expected second window of 10 rows with MAE 1.5, got %d rows MAE %f", metrics[1].N, metrics[1].MAE)
	}
	if metrics[2].N != 10 || math.Abs(metrics[2].MAE-2.5) > 1e-12 {
		t.Errorf("Expected third window of 10 rows with MAE 2.5, got %d rows MAE %f", metrics[2].N, metrics[2].MAE)
	}

	if PerformanceMetrics(nil, 0.1) != nil {
		t.Error("Expected nil metrics for no rows")
	}
}
