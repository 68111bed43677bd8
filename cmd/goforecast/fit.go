package main

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/sartorproj/goforecast/forecaster"
	"github.com/sartorproj/goforecast/pkg/logger"
)

func (c *cli) fitCmd() *cobra.Command {
	var data dataFlags
	var model modelFlags
	var out string

	cmd := &cobra.Command{
		Use:   "fit",
		Short: "Fit a model to a CSV series and print its summary",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			log := logger.Named("fit")

			series, err := data.load()
			if err != nil {
				return err
			}
			cfg, err := model.config()
			if err != nil {
				return err
			}

			start := time.Now()
			m, err := forecaster.Fit(series, cfg)
			if err != nil {
				return err
			}
			log.Info(ctx, "model fitted",
				logger.Int("n_obs", series.Len()),
				logger.Int("n_params", m.NumParams()),
				logger.Duration("elapsed", time.Since(start)))
			if unobserved := m.UnobservedEvents(); len(unobserved) > 0 {
				log.Warn(ctx, "events without training observations", logger.Any("labels", unobserved))
			}

			if out != "" {
				if err := writeSnapshot(out, m.Snapshot()); err != nil {
					return fmt.Errorf("write model: %w", err)
				}
				log.Info(ctx, "model saved", logger.String("path", out))
			}

			enc := json.NewEncoder(c.out)
			enc.SetIndent("", "  ")
			return enc.Encode(m.Summary())
		},
	}
	data.register(cmd)
	model.register(cmd)
	cmd.Flags().StringVarP(&out, "out", "o", "", "Write the fitted model to this file")
	return cmd
}

func (c *cli) predictCmd() *cobra.Command {
	var (
		modelPath      string
		periods        int
		freq           time.Duration
		includeHistory bool
		format         string
		out            string
	)

	cmd := &cobra.Command{
		Use:   "predict",
		Short: "Forecast from a saved model",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			log := logger.Named("predict")

			if periods <= 0 && !includeHistory {
				return fmt.Errorf("--periods must be positive")
			}
			m, err := readSnapshot(modelPath)
			if err != nil {
				return fmt.Errorf("read model: %w", err)
			}

			forecast := m.PredictFuture(periods, freq, includeHistory)
			for _, w := range forecast.Warnings {
				log.Warn(ctx, "prediction outside training range", logger.Error(w))
			}

			w := c.out
			if out != "" {
				f, err := os.Create(out)
				if err != nil {
					return err
				}
				defer f.Close()
				w = f
			}

			switch format {
			case "json":
				enc := json.NewEncoder(w)
				enc.SetIndent("", "  ")
				err = enc.Encode(forecast.Points)
			case "csv":
				err = writeForecastCSV(w, m.Config().Seasonalities, forecast.Points)
			default:
				return fmt.Errorf("unknown format %q", format)
			}
			if err != nil {
				return err
			}
			log.Debug(ctx, "forecast written", logger.Int("points", len(forecast.Points)))
			return nil
		},
	}
	cmd.Flags().StringVarP(&modelPath, "model", "m", "", "Saved model file")
	cmd.Flags().IntVarP(&periods, "periods", "p", 0, "Steps to forecast after the training end")
	cmd.Flags().DurationVar(&freq, "freq", 24*time.Hour, "Step between forecast timestamps")
	cmd.Flags().BoolVar(&includeHistory, "include-history", false, "Also predict at the training timestamps")
	cmd.Flags().StringVarP(&format, "format", "f", "csv", "Output format: csv or json")
	cmd.Flags().StringVarP(&out, "out", "o", "", "Output file (default stdout)")
	_ = cmd.MarkFlagRequired("model")
	return cmd
}

// writeForecastCSV writes one row per point with a column per seasonality.
func writeForecastCSV(w io.Writer, seasons []forecaster.Seasonality, points []forecaster.Point) error {
	cw := csv.NewWriter(w)
	header := []string{"ds", "yhat", "yhat_lower", "yhat_upper", "trend"}
	for _, s := range seasons {
		header = append(header, s.Name)
	}
	header = append(header, "holidays", "extrapolated")
	if err := cw.Write(header); err != nil {
		return err
	}

	format := func(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }
	for _, p := range points {
		row := []string{p.Time.Format(time.RFC3339), format(p.Yhat), format(p.Lower), format(p.Upper), format(p.Trend)}
		for _, s := range seasons {
			row = append(row, format(p.Seasonal[s.Name]))
		}
		row = append(row, format(p.Holidays), strconv.FormatBool(p.Extrapolated))
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
