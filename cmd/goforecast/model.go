package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/sartorproj/goforecast/forecaster"
	"github.com/sartorproj/goforecast/timeseries"
)

// dataFlags select the training CSV.
type dataFlags struct {
	path     string
	dateCol  string
	valueCol string
	idCol    string
	id       string
}

func (f *dataFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.path, "data", "", "CSV file with the training series")
	cmd.Flags().StringVar(&f.dateCol, "date-col", "ds", "Date column")
	cmd.Flags().StringVar(&f.valueCol, "value-col", "y", "Value column")
	cmd.Flags().StringVar(&f.idCol, "id-col", "", "Column identifying the series in a long CSV")
	cmd.Flags().StringVar(&f.id, "id", "", "Series to select with --id-col")
	_ = cmd.MarkFlagRequired("data")
}

func (f *dataFlags) load() (*timeseries.Series, error) {
	opts := timeseries.DefaultCSVOptions()
	opts.DateColumn = f.dateCol
	opts.ValueColumn = f.valueCol
	opts.IDColumn = f.idCol
	opts.IDFilter = f.id
	return timeseries.LoadCSV(f.path, opts)
}

// modelFlags build a forecaster.Config.
type modelFlags struct {
	daily, weekly, yearly int
	changepoints          int
	changepointRange      float64
	changepointReg        float64
	seasonalityReg        float64
	holidayReg            float64
	intervalWidth         float64
	samples               int
	seed                  uint64
	timeUnit              time.Duration
	events                string
}

func (f *modelFlags) register(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.IntVar(&f.daily, "daily", 0, "Daily seasonality harmonics (0 disables)")
	fs.IntVar(&f.weekly, "weekly", 0, "Weekly seasonality harmonics (0 disables)")
	fs.IntVar(&f.yearly, "yearly", 0, "Yearly seasonality harmonics (0 disables)")
	fs.IntVar(&f.changepoints, "changepoints", forecaster.DefaultChangepointCount, "Number of automatic changepoints")
	fs.Float64Var(&f.changepointRange, "changepoint-range", forecaster.DefaultChangepointRange, "Fraction of history eligible for changepoints")
	fs.Float64Var(&f.changepointReg, "changepoint-reg", forecaster.DefaultChangepointRegularization, "L1 penalty on changepoint deltas")
	fs.Float64Var(&f.seasonalityReg, "seasonality-reg", 0, "Ridge penalty on Fourier coefficients")
	fs.Float64Var(&f.holidayReg, "holiday-reg", 0, "Ridge penalty on event offsets")
	fs.Float64Var(&f.intervalWidth, "interval", forecaster.DefaultIntervalWidth, "Uncertainty interval coverage")
	fs.IntVar(&f.samples, "samples", forecaster.DefaultUncertaintySamples, "Uncertainty samples (0 disables intervals)")
	fs.Uint64Var(&f.seed, "seed", 0, "Seed for uncertainty simulation")
	fs.DurationVar(&f.timeUnit, "time-unit", forecaster.DefaultTimeUnit, "Unit for periods, windows and rates")
	fs.StringVar(&f.events, "events", "", "CSV with ds,holiday[,lower_window,upper_window] columns")
}

func (f *modelFlags) config() (*forecaster.Config, error) {
	cfg := forecaster.DefaultConfig()
	cfg.ChangepointCount = f.changepoints
	cfg.ChangepointRange = f.changepointRange
	cfg.ChangepointRegularization = f.changepointReg
	cfg.SeasonalityRegularization = f.seasonalityReg
	cfg.HolidayRegularization = f.holidayReg
	cfg.IntervalWidth = f.intervalWidth
	cfg.UncertaintySamples = f.samples
	cfg.Seed = f.seed
	cfg.TimeUnit = f.timeUnit

	if f.daily > 0 {
		cfg.Seasonalities = append(cfg.Seasonalities, forecaster.Daily(f.daily))
	}
	if f.weekly > 0 {
		cfg.Seasonalities = append(cfg.Seasonalities, forecaster.Weekly(f.weekly))
	}
	if f.yearly > 0 {
		cfg.Seasonalities = append(cfg.Seasonalities, forecaster.Yearly(f.yearly))
	}
	if f.events != "" {
		events, err := forecaster.LoadEventsCSV(f.events)
		if err != nil {
			return nil, fmt.Errorf("load events: %w", err)
		}
		cfg.Events = events
	}
	return cfg, cfg.Validate()
}

func writeSnapshot(path string, snap *forecaster.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func readSnapshot(path string) (*forecaster.Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var snap forecaster.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return forecaster.Restore(&snap)
}
