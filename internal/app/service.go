// Package app implements the forecasting operations served by the API and
// the command line.
package app

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/sartorproj/goforecast/diagnostics"
	"github.com/sartorproj/goforecast/forecaster"
	"github.com/sartorproj/goforecast/internal/store"
	"github.com/sartorproj/goforecast/pkg/logger"
	"github.com/sartorproj/goforecast/pkg/metrics"
	"github.com/sartorproj/goforecast/timeseries"
)

// Service fits, stores and evaluates forecasting models.
type Service struct {
	store     store.Store
	logger    logger.Logger
	metrics   *metrics.Manager
	cvWorkers int
	maxPoints int

	maxSamples    int
	maxColumns    int
	maxCandidates int
	maxCutoffs    int
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithStore sets the model store.
func WithStore(s store.Store) Option {
	return func(svc *Service) {
		if s != nil {
			svc.store = s
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(svc *Service) {
		if l != nil {
			svc.logger = l
		}
	}
}

// WithMetrics sets the metrics manager.
func WithMetrics(m *metrics.Manager) Option {
	return func(svc *Service) {
		svc.metrics = m
	}
}

// WithCrossValWorkers sets how many folds are fitted concurrently.
func WithCrossValWorkers(n int) Option {
	return func(svc *Service) {
		if n > 0 {
			svc.cvWorkers = n
		}
	}
}

// WithMaxForecastPoints caps the timestamps of one prediction.
func WithMaxForecastPoints(n int) Option {
	return func(svc *Service) {
		if n > 0 {
			svc.maxPoints = n
		}
	}
}

// WithMaxUncertaintySamples caps the simulated draws of one model.
func WithMaxUncertaintySamples(n int) Option {
	return func(svc *Service) {
		if n > 0 {
			svc.maxSamples = n
		}
	}
}

// WithMaxDesignColumns caps the regression columns of one model.
func WithMaxDesignColumns(n int) Option {
	return func(svc *Service) {
		if n > 0 {
			svc.maxColumns = n
		}
	}
}

// WithMaxTuneCandidates caps the configurations of one grid search.
func WithMaxTuneCandidates(n int) Option {
	return func(svc *Service) {
		if n > 0 {
			svc.maxCandidates = n
		}
	}
}

// WithMaxCrossValCutoffs caps the folds of one cross-validation run.
func WithMaxCrossValCutoffs(n int) Option {
	return func(svc *Service) {
		if n > 0 {
			svc.maxCutoffs = n
		}
	}
}

// New constructs a Service. Without options models are kept in memory and
// nothing is logged.
func New(opts ...Option) *Service {
	svc := &Service{
		store:     store.NewMemory(),
		logger:    logger.Nop(),
		cvWorkers: runtime.NumCPU(),
		maxPoints: 100_000,

		maxSamples:    10_000,
		maxColumns:    1_000,
		maxCandidates: 100,
		maxCutoffs:    diagnostics.DefaultMaxCutoffs,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// FitRequest describes a model to fit.
type FitRequest struct {
	Name   string
	Series *timeseries.Series
	Config *forecaster.Config
}

// ModelDetail is a stored model with its fit summary.
type ModelDetail struct {
	store.Info
	Config  forecaster.Config   `json:"config"`
	Summary *forecaster.Summary `json:"summary"`
}

// Fit fits and stores a model.
func (s *Service) Fit(ctx context.Context, req FitRequest) (*ModelDetail, error) {
	if req.Series == nil || req.Series.Len() == 0 {
		return nil, fmt.Errorf("%w: series is empty", ErrInvalidRequest)
	}
	if req.Config != nil {
		if err := s.checkModel(req.Config); err != nil {
			s.metrics.RecordFit(outcome(err), req.Series.Len(), 0)
			return nil, err
		}
	}

	started := time.Now()
	model, err := forecaster.Fit(req.Series, req.Config)
	elapsed := time.Since(started)
	s.metrics.RecordFit(outcome(err), req.Series.Len(), elapsed)
	if err != nil {
		s.logger.Warn(ctx, "fit failed",
			logger.String("name", req.Name),
			logger.Int("n_obs", req.Series.Len()),
			logger.Error(err))
		return nil, err
	}

	rec := store.NewRecord(req.Name, model.Snapshot())
	if err := s.store.Put(ctx, rec); err != nil {
		return nil, fmt.Errorf("store model: %w", err)
	}
	s.refreshStored(ctx)

	if unobserved := model.UnobservedEvents(); len(unobserved) > 0 {
		s.logger.Warn(ctx, "events without training observations",
			logger.String("model_id", rec.ID),
			logger.Any("labels", unobserved))
	}
	s.logger.Info(ctx, "model fitted",
		logger.String("model_id", rec.ID),
		logger.String("name", req.Name),
		logger.Int("n_obs", rec.NObs),
		logger.Int("n_params", model.NumParams()),
		logger.Duration("elapsed", elapsed))

	return &ModelDetail{Info: rec.Info, Config: model.Config(), Summary: model.Summary()}, nil
}

// Model returns a stored model's detail.
func (s *Service) Model(ctx context.Context, id string) (*ModelDetail, error) {
	rec, model, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return &ModelDetail{Info: rec.Info, Config: model.Config(), Summary: model.Summary()}, nil
}

// Models lists stored models, newest first.
func (s *Service) Models(ctx context.Context) ([]store.Info, error) {
	return s.store.List(ctx)
}

// Delete removes a stored model.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	s.refreshStored(ctx)
	s.logger.Info(ctx, "model deleted", logger.String("model_id", id))
	return nil
}

// PredictRequest selects the timestamps to predict: either explicit
// Timestamps or Periods steps of Freq after the training end.
type PredictRequest struct {
	Timestamps     []time.Time
	Periods        int
	Freq           time.Duration
	IncludeHistory bool
}

// Predict evaluates a stored model.
func (s *Service) Predict(ctx context.Context, id string, req PredictRequest) (*forecaster.Forecast, error) {
	switch {
	case len(req.Timestamps) > 0 && req.Periods > 0:
		return nil, fmt.Errorf("%w: give either timestamps or periods, not both", ErrInvalidRequest)
	case len(req.Timestamps) == 0 && req.Periods <= 0 && !req.IncludeHistory:
		return nil, fmt.Errorf("%w: no timestamps requested", ErrInvalidRequest)
	case req.Periods > 0 && req.Freq <= 0:
		return nil, fmt.Errorf("%w: freq must be positive", ErrInvalidRequest)
	case len(req.Timestamps) > s.maxPoints || req.Periods > s.maxPoints:
		return nil, fmt.Errorf("%w: at most %d timestamps per request", ErrInvalidRequest, s.maxPoints)
	}

	rec, model, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.IncludeHistory && rec.NObs+req.Periods > s.maxPoints {
		return nil, fmt.Errorf("%w: at most %d timestamps per request", ErrInvalidRequest, s.maxPoints)
	}

	var forecast *forecaster.Forecast
	if len(req.Timestamps) > 0 {
		forecast = model.Predict(req.Timestamps)
	} else {
		forecast = model.PredictFuture(req.Periods, req.Freq, req.IncludeHistory)
	}

	extrapolated := 0
	for _, w := range forecast.Warnings {
		s.logger.Warn(ctx, "prediction outside training range",
			logger.String("model_id", id),
			logger.Error(w))
	}
	for _, p := range forecast.Points {
		if p.Extrapolated {
			extrapolated++
		}
	}
	s.metrics.RecordPrediction(len(forecast.Points), extrapolated)
	return forecast, nil
}

// CrossValRequest describes a cross-validation run.
type CrossValRequest struct {
	Series   *timeseries.Series
	Config   *forecaster.Config
	CrossVal diagnostics.Config
	// Window is the rolling window fraction for per-horizon metrics.
	Window float64
}

// CrossValResult summarizes a cross-validation run.
type CrossValResult struct {
	Cutoffs []time.Time          `json:"cutoffs"`
	Overall diagnostics.Metric   `json:"overall"`
	Metrics []diagnostics.Metric `json:"horizons"`
	Rows    []diagnostics.Row    `json:"rows,omitempty"`
}

// CrossValidate runs rolling-origin cross-validation without storing
// anything.
func (s *Service) CrossValidate(ctx context.Context, req CrossValRequest) (*CrossValResult, error) {
	if req.Series == nil || req.Series.Len() == 0 {
		return nil, fmt.Errorf("%w: series is empty", ErrInvalidRequest)
	}
	if req.Config == nil {
		req.Config = forecaster.DefaultConfig()
	}
	if err := req.Config.Validate(); err != nil {
		return nil, err
	}
	if err := s.checkModel(req.Config); err != nil {
		return nil, err
	}
	cv, err := s.crossValConfig(req.CrossVal)
	if err != nil {
		return nil, err
	}

	started := time.Now()
	result, err := diagnostics.CrossValidate(ctx, req.Series, forecaster.New(req.Config), &cv)
	if err != nil {
		s.logger.Warn(ctx, "cross-validation failed", logger.Error(err))
		return nil, err
	}
	s.metrics.RecordCrossValidation(len(result.Cutoffs))
	s.logger.Info(ctx, "cross-validation finished",
		logger.Int("folds", len(result.Cutoffs)),
		logger.Int("rows", len(result.Rows)),
		logger.Duration("elapsed", time.Since(started)))

	return &CrossValResult{
		Cutoffs: result.Cutoffs,
		Overall: diagnostics.Score(result.Rows),
		Metrics: diagnostics.PerformanceMetrics(result.Rows, req.Window),
		Rows:    result.Rows,
	}, nil
}

// TuneRequest describes a grid search.
type TuneRequest struct {
	Series    *timeseries.Series
	Config    *forecaster.Config
	Grid      diagnostics.Grid
	CrossVal  diagnostics.Config
	Criterion string
}

// Tune searches Grid around Config by cross-validation.
func (s *Service) Tune(ctx context.Context, req TuneRequest) (*diagnostics.TuneResult, error) {
	if req.Series == nil || req.Series.Len() == 0 {
		return nil, fmt.Errorf("%w: series is empty", ErrInvalidRequest)
	}
	base := req.Config
	if base == nil {
		base = forecaster.DefaultConfig()
	}
	if err := base.Validate(); err != nil {
		return nil, err
	}
	if size := req.Grid.Size(); size > s.maxCandidates {
		return nil, &LimitError{Field: "grid", Limit: s.maxCandidates, Value: size}
	}
	for _, cfg := range req.Grid.Expand(base) {
		if err := s.checkModel(cfg); err != nil {
			return nil, err
		}
	}
	cv, err := s.crossValConfig(req.CrossVal)
	if err != nil {
		return nil, err
	}

	result, err := diagnostics.Tune(ctx, req.Series, base, req.Grid, &cv, req.Criterion)
	if err != nil {
		return nil, err
	}
	s.logger.Info(ctx, "tuning finished",
		logger.Int("candidates", len(result.Candidates)),
		logger.Int("evaluated", result.ModelsEvaluated),
		logger.Float64("criterion", result.Criterion))
	return result, nil
}

// Ping checks the model store.
func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

// checkModel enforces the per-model size limits on a valid configuration.
func (s *Service) checkModel(cfg *forecaster.Config) error {
	if cfg.UncertaintySamples > s.maxSamples {
		return &LimitError{Field: "uncertainty_samples", Limit: s.maxSamples, Value: cfg.UncertaintySamples}
	}
	if cols := cfg.NumColumns(); cols > s.maxColumns {
		return &LimitError{Field: "columns", Limit: s.maxColumns, Value: cols}
	}
	return nil
}

func (s *Service) crossValConfig(cv diagnostics.Config) (diagnostics.Config, error) {
	switch {
	case cv.Horizon <= 0:
		return cv, fmt.Errorf("%w: horizon must be positive", ErrInvalidRequest)
	case cv.Period < 0:
		return cv, fmt.Errorf("%w: period must not be negative", ErrInvalidRequest)
	case cv.Initial < 0:
		return cv, fmt.Errorf("%w: initial must not be negative", ErrInvalidRequest)
	}
	if cv.Workers <= 0 || cv.Workers > s.cvWorkers {
		cv.Workers = s.cvWorkers
	}
	cv.MaxCutoffs = s.maxCutoffs
	return cv, nil
}

func (s *Service) load(ctx context.Context, id string) (*store.Record, *forecaster.Model, error) {
	rec, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	model, err := forecaster.Restore(rec.Snapshot)
	if err != nil {
		return nil, nil, fmt.Errorf("restore model %s: %w", id, err)
	}
	return rec, model, nil
}

func (s *Service) refreshStored(ctx context.Context) {
	if n, err := s.store.Count(ctx); err == nil {
		s.metrics.SetModelsStored(n)
	}
}
