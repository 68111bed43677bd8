// Command goforecast fits additive forecasting models and serves them over
// HTTP.
//
// Usage:
//
//	goforecast fit --data sales.csv --weekly 3 --yearly 10 --out model.json
//	goforecast predict --model model.json --periods 90 --freq 1d
//	goforecast cv --data sales.csv --weekly 3 --horizon 30d
//	goforecast serve
package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/sartorproj/goforecast/internal/config"
	"github.com/sartorproj/goforecast/pkg/logger"
)

// cli carries state shared by the subcommands.
type cli struct {
	cfg *config.Config
	out io.Writer
	log io.Writer
}

func main() {
	root := newRootCmd(os.Stdout, os.Stderr)
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(out, logOut io.Writer) *cobra.Command {
	c := &cli{out: out, log: logOut}

	root := &cobra.Command{
		Use:           "goforecast",
		Short:         "Additive time-series forecasting",
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return c.init(cmd.Context())
		},
	}
	root.SetOut(out)
	root.SetErr(logOut)

	root.AddCommand(c.fitCmd())
	root.AddCommand(c.predictCmd())
	root.AddCommand(c.cvCmd())
	root.AddCommand(c.serveCmd())
	return root
}

// init loads configuration and sets up the global logger. Logs go to the
// log writer so command output on stdout stays machine-readable.
func (c *cli) init(ctx context.Context) error {
	cfg, err := config.Load(ctx)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	c.cfg = cfg

	if err := logger.InitWithWriter(c.log, cfg.LogFormat); err != nil {
		return err
	}
	return logger.SetLevelString(cfg.LogLevel)
}
