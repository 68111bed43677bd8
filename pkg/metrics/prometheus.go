// Package metrics provides Prometheus metrics for the forecasting service.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	dto "github.com/prometheus/client_model/go"
)

// Manager owns the service's Prometheus collectors. A nil or disabled
// Manager records nothing.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	constLabels      map[string]string
	registry         *prometheus.Registry

	fits          *prometheus.CounterVec
	fitDuration   prometheus.Histogram
	fitRows       prometheus.Histogram
	predictions   prometheus.Counter
	points        prometheus.Counter
	extrapolated  prometheus.Counter
	crossvalFolds prometheus.Counter
	modelsStored  prometheus.Gauge

	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
}

// NewManager creates a Manager. Without WithRegistry a fresh registry
// holding the Go runtime collectors is used.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "goforecast",
		histogramBuckets: prometheus.DefBuckets,
		enabled:          true,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.registry == nil {
		m.registry = prometheus.NewRegistry()
		m.registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.fits = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "fits_total",
		Help:        "Total number of model fits by outcome",
		ConstLabels: m.constLabels,
	}, []string{"outcome"})

	m.fitDuration = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "fit_duration_seconds",
		Help:        "Histogram of model fit duration in seconds",
		Buckets:     m.histogramBuckets,
		ConstLabels: m.constLabels,
	})

	m.fitRows = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "fit_observations",
		Help:        "Number of observations per fitted model",
		Buckets:     prometheus.ExponentialBuckets(10, 4, 8),
		ConstLabels: m.constLabels,
	})

	m.predictions = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "predictions_total",
		Help:        "Total number of prediction requests",
		ConstLabels: m.constLabels,
	})

	m.points = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "predicted_points_total",
		Help:        "Total number of timestamps predicted",
		ConstLabels: m.constLabels,
	})

	m.extrapolated = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "extrapolated_points_total",
		Help:        "Total number of predicted timestamps outside the training range",
		ConstLabels: m.constLabels,
	})

	m.crossvalFolds = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "crossval_folds_total",
		Help:        "Total number of cross-validation folds evaluated",
		ConstLabels: m.constLabels,
	})

	m.modelsStored = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "models_stored",
		Help:        "Current number of stored models",
		ConstLabels: m.constLabels,
	})

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "http_requests_total",
		Help:        "Total number of HTTP requests by route, method and status",
		ConstLabels: m.constLabels,
	}, []string{"route", "method", "status_code"})

	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "http_request_duration_seconds",
		Help:        "HTTP request duration in seconds",
		Buckets:     m.histogramBuckets,
		ConstLabels: m.constLabels,
	}, []string{"route", "method", "status_code"})
}

func (m *Manager) active() bool { return m != nil && m.enabled }

// RecordFit records one fit attempt.
func (m *Manager) RecordFit(outcome string, observations int, elapsed time.Duration) {
	if !m.active() {
		return
	}
	m.fits.WithLabelValues(outcome).Inc()
	if outcome == OutcomeOK {
		m.fitDuration.Observe(elapsed.Seconds())
		m.fitRows.Observe(float64(observations))
	}
}

// RecordPrediction records one prediction request.
func (m *Manager) RecordPrediction(points, extrapolated int) {
	if !m.active() {
		return
	}
	m.predictions.Inc()
	m.points.Add(float64(points))
	m.extrapolated.Add(float64(extrapolated))
}

// RecordCrossValidation records evaluated folds.
func (m *Manager) RecordCrossValidation(folds int) {
	if !m.active() {
		return
	}
	m.crossvalFolds.Add(float64(folds))
}

// SetModelsStored sets the stored model gauge.
func (m *Manager) SetModelsStored(n int) {
	if !m.active() {
		return
	}
	m.modelsStored.Set(float64(n))
}

// RecordHTTPRequest records an HTTP request and its duration.
func (m *Manager) RecordHTTPRequest(route, method string, status int, elapsed time.Duration) {
	if !m.active() {
		return
	}
	code := strconv.Itoa(status)
	m.httpRequests.WithLabelValues(route, method, code).Inc()
	m.httpRequestDuration.WithLabelValues(route, method, code).Observe(elapsed.Seconds())
}

// Registry returns the registry holding the metrics.
func (m *Manager) Registry() *prometheus.Registry {
	return m.registry
}

// Gather returns the current metric families.
func (m *Manager) Gather() ([]*dto.MetricFamily, error) {
	if !m.active() {
		return nil, ErrDisabled
	}
	return m.registry.Gather()
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Manager) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
