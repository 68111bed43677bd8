package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/sartorproj/goforecast/internal/api"
	"github.com/sartorproj/goforecast/internal/app"
	"github.com/sartorproj/goforecast/internal/config"
	"github.com/sartorproj/goforecast/internal/store"
	"github.com/sartorproj/goforecast/pkg/logger"
	"github.com/sartorproj/goforecast/pkg/metrics"
)

func (c *cli) serveCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the forecasting HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if addr != "" {
				c.cfg.Addr = addr
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, c.cfg, logger.Named("server"))
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (overrides config)")
	return cmd
}

// openStore selects Postgres when a database URL is configured and memory
// otherwise.
func openStore(ctx context.Context, cfg *config.Config, log logger.Logger) (store.Store, error) {
	if cfg.DatabaseURL == "" {
		log.Info(ctx, "using in-memory model store")
		return store.NewMemory(), nil
	}
	pg, err := store.NewPostgres(ctx, cfg.DatabaseURL, cfg.DBPoolMaxConns)
	if err != nil {
		return nil, err
	}
	log.Info(ctx, "database connected", logger.Int("max_conns", int(cfg.DBPoolMaxConns)))
	return pg, nil
}

func newServer(ctx context.Context, cfg *config.Config, log logger.Logger) (*http.Server, store.Store, error) {
	st, err := openStore(ctx, cfg, log)
	if err != nil {
		return nil, nil, err
	}

	var m *metrics.Manager
	if cfg.MetricsEnabled {
		m = metrics.NewManager(metrics.WithNamespace("goforecast"))
	}

	svc := app.New(
		app.WithStore(st),
		app.WithLogger(logger.Named("service")),
		app.WithMetrics(m),
		app.WithCrossValWorkers(cfg.CrossValWorkers),
		app.WithMaxForecastPoints(cfg.MaxForecastPoints),
		app.WithMaxCrossValCutoffs(cfg.MaxCrossValCutoffs),
		app.WithMaxUncertaintySamples(cfg.MaxUncertaintySamples),
		app.WithMaxDesignColumns(cfg.MaxDesignColumns),
		app.WithMaxTuneCandidates(cfg.MaxTuneCandidates),
	)
	if n, err := st.Count(ctx); err == nil {
		m.SetModelsStored(n)
	}

	srv := &http.Server{
		Addr:         cfg.Addr,
		Handler:      api.NewRouter(svc, cfg, logger.Named("http"), m),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}
	return srv, st, nil
}

func serve(ctx context.Context, cfg *config.Config, log logger.Logger) error {
	srv, st, err := newServer(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer st.Close()

	errCh := make(chan error, 1)
	go func() {
		log.Info(ctx, "server starting", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return err
		}
	case <-ctx.Done():
	}

	log.Info(context.Background(), "shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	log.Info(context.Background(), "server stopped")
	return nil
}
