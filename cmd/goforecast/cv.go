package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/sartorproj/goforecast/diagnostics"
	"github.com/sartorproj/goforecast/forecaster"
	"github.com/sartorproj/goforecast/pkg/logger"
)

func (c *cli) cvCmd() *cobra.Command {
	var data dataFlags
	var model modelFlags
	var (
		horizon time.Duration
		period  time.Duration
		initial time.Duration
		window  float64
		workers int
	)

	cmd := &cobra.Command{
		Use:   "cv",
		Short: "Cross-validate a configuration with rolling origins",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			series, err := data.load()
			if err != nil {
				return err
			}
			cfg, err := model.config()
			if err != nil {
				return err
			}
			if workers <= 0 {
				workers = c.cfg.CrossValWorkers
			}

			start := time.Now()
			result, err := diagnostics.CrossValidate(ctx, series, forecaster.New(cfg), &diagnostics.Config{
				Horizon: horizon,
				Period:  period,
				Initial: initial,
				Workers: workers,

				MaxCutoffs: c.cfg.MaxCrossValCutoffs,
			})
			if err != nil {
				return err
			}
			logger.Named("cv").Info(ctx, "cross-validation finished",
				logger.Int("folds", len(result.Cutoffs)),
				logger.Int("rows", len(result.Rows)),
				logger.Duration("elapsed", time.Since(start)))

			tw := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', tabwriter.AlignRight)
			fmt.Fprintln(tw, "horizon\tn\trmse\tmae\tmape\tsmape\tcoverage\t")
			for _, m := range diagnostics.PerformanceMetrics(result.Rows, window) {
				writeMetric(tw, m.Horizon.String(), m)
			}
			writeMetric(tw, "all", diagnostics.Score(result.Rows))
			return tw.Flush()
		},
	}
	data.register(cmd)
	model.register(cmd)
	cmd.Flags().DurationVar(&horizon, "horizon", 30*24*time.Hour, "Forecast horizon after each cutoff")
	cmd.Flags().DurationVar(&period, "period", 0, "Spacing between cutoffs (default horizon/2)")
	cmd.Flags().DurationVar(&initial, "initial", 0, "Minimum training window (default 3*horizon)")
	cmd.Flags().Float64Var(&window, "window", 0.1, "Rolling window fraction for per-horizon metrics")
	cmd.Flags().IntVar(&workers, "workers", 0, "Folds fitted concurrently (default from config)")
	return cmd
}

func writeMetric(tw *tabwriter.Writer, label string, m diagnostics.Metric) {
	fmt.Fprintf(tw, "%s\t%d\t%.4f\t%.4f\t%.4f\t%.4f\t%.3f\t\n", label, m.N, m.RMSE, m.MAE, m.MAPE, m.SMAPE, m.Coverage)
}
