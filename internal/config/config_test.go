package config_test

import (
	"errors"
	"testing"

	"github.com/smartystreets/goconvey/convey"

	"github.com/sartorproj/goforecast/internal/config"
)

func TestConfigValidate(t *testing.T) {
	convey.Convey("Given the default config", t, func() {
		cfg := config.New()

		convey.Convey("Then it is valid", func() {
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})

		convey.Convey("When a setting is out of range", func() {
			cases := map[string]func(*config.Config){
				"rate_limit":              func(c *config.Config) { c.RateLimit = -1 },
				"rate_burst":              func(c *config.Config) { c.RateBurst = 0 },
				"max_body_bytes":          func(c *config.Config) { c.MaxBodyBytes = 0 },
				"max_forecast_points":     func(c *config.Config) { c.MaxForecastPoints = 0 },
				"crossval_workers":        func(c *config.Config) { c.CrossValWorkers = 0 },
				"max_crossval_cutoffs":    func(c *config.Config) { c.MaxCrossValCutoffs = 0 },
				"max_uncertainty_samples": func(c *config.Config) { c.MaxUncertaintySamples = -1 },
				"max_design_columns":      func(c *config.Config) { c.MaxDesignColumns = 0 },
				"max_tune_candidates":     func(c *config.Config) { c.MaxTuneCandidates = 0 },
				"db_pool_max_conns":       func(c *config.Config) { c.DBPoolMaxConns = 0 },
				"log_format":              func(c *config.Config) { c.LogFormat = "xml" },
			}

			convey.Convey("Then Validate names it", func() {
				for key, mutate := range cases {
					c := config.New()
					mutate(c)
					err := c.Validate()
					convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
					convey.So(err.Error(), convey.ShouldContainSubstring, key)
				}
			})
		})

		convey.Convey("When rate limiting is disabled", func() {
			cfg.RateLimit = 0
			cfg.RateBurst = 0

			convey.Convey("Then the burst is not required", func() {
				convey.So(cfg.Validate(), convey.ShouldBeNil)
			})
		})
	})
}
