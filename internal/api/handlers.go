package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/sartorproj/goforecast/diagnostics"
	"github.com/sartorproj/goforecast/forecaster"
	"github.com/sartorproj/goforecast/internal/api/respond"
	"github.com/sartorproj/goforecast/internal/app"
	"github.com/sartorproj/goforecast/internal/store"
	"github.com/sartorproj/goforecast/pkg/logger"
)

// Handler serves the API routes.
type Handler struct {
	svc     *app.Service
	log     logger.Logger
	maxBody int64
}

// HealthCheck reports that the process is serving.
func (h *Handler) HealthCheck(w http.ResponseWriter, _ *http.Request) {
	respond.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// HealthCheckStore reports whether the model store is reachable.
func (h *Handler) HealthCheckStore(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Ping(r.Context()); err != nil {
		respond.WriteError(w, http.StatusServiceUnavailable, "STORE_UNAVAILABLE", err.Error())
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type createModelRequest struct {
	Name string `json:"name"`
	seriesBody
	Config *configBody `json:"config"`
}

// CreateModel fits and stores a model.
func (h *Handler) CreateModel(w http.ResponseWriter, r *http.Request) {
	req := createModelRequest{Config: defaultConfigBody()}
	if err := h.decode(w, r, &req); err != nil {
		writeServiceError(w, err)
		return
	}
	series, err := req.series()
	if err != nil {
		writeServiceError(w, err)
		return
	}

	detail, err := h.svc.Fit(r.Context(), app.FitRequest{Name: req.Name, Series: series, Config: req.Config.config()})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	w.Header().Set("Location", "/api/v1/models/"+detail.ID)
	respond.WriteJSON(w, http.StatusCreated, detail)
}

// ListModels lists stored models.
func (h *Handler) ListModels(w http.ResponseWriter, r *http.Request) {
	models, err := h.svc.Models(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if models == nil {
		models = []store.Info{}
	}
	respond.WriteJSON(w, http.StatusOK, map[string]any{"models": models})
}

// GetModel returns a stored model with its summary.
func (h *Handler) GetModel(w http.ResponseWriter, r *http.Request) {
	detail, err := h.svc.Model(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, detail)
}

// DeleteModel removes a stored model.
func (h *Handler) DeleteModel(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type predictRequest struct {
	DS             []string `json:"ds"`
	Periods        int      `json:"periods"`
	Freq           duration `json:"freq"`
	IncludeHistory bool     `json:"include_history"`
}

type predictResponse struct {
	ModelID  string             `json:"model_id"`
	Points   []forecaster.Point `json:"points"`
	Warnings []string           `json:"warnings,omitempty"`
}

// Predict evaluates a stored model at the requested timestamps.
func (h *Handler) Predict(w http.ResponseWriter, r *http.Request) {
	var req predictRequest
	if err := h.decode(w, r, &req); err != nil {
		writeServiceError(w, err)
		return
	}
	ts, err := parseTimes(req.DS)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	id := chi.URLParam(r, "id")
	forecast, err := h.svc.Predict(r.Context(), id, app.PredictRequest{
		Timestamps:     ts,
		Periods:        req.Periods,
		Freq:           time.Duration(req.Freq),
		IncludeHistory: req.IncludeHistory,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	resp := predictResponse{ModelID: id, Points: forecast.Points}
	for _, warning := range forecast.Warnings {
		resp.Warnings = append(resp.Warnings, warning.Error())
	}
	respond.WriteJSON(w, http.StatusOK, resp)
}

type crossValRequest struct {
	seriesBody
	Config      *configBody `json:"config"`
	Horizon     duration    `json:"horizon"`
	Period      duration    `json:"period"`
	Initial     duration    `json:"initial"`
	Workers     int         `json:"workers"`
	Window      float64     `json:"window"`
	IncludeRows bool        `json:"include_rows"`
}

func (c crossValRequest) crossVal() diagnostics.Config {
	return diagnostics.Config{
		Horizon: time.Duration(c.Horizon),
		Period:  time.Duration(c.Period),
		Initial: time.Duration(c.Initial),
		Workers: c.Workers,
	}
}

// CrossValidate runs rolling-origin cross-validation on the posted series.
func (h *Handler) CrossValidate(w http.ResponseWriter, r *http.Request) {
	req := crossValRequest{Config: defaultConfigBody(), Window: 0.1}
	if err := h.decode(w, r, &req); err != nil {
		writeServiceError(w, err)
		return
	}
	series, err := req.series()
	if err != nil {
		writeServiceError(w, err)
		return
	}

	result, err := h.svc.CrossValidate(r.Context(), app.CrossValRequest{
		Series:   series,
		Config:   req.Config.config(),
		CrossVal: req.crossVal(),
		Window:   req.Window,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if !req.IncludeRows {
		result.Rows = nil
	}
	respond.WriteJSON(w, http.StatusOK, result)
}

type tuneRequest struct {
	crossValRequest
	Grid      diagnostics.Grid `json:"grid"`
	Criterion string           `json:"criterion"`
}

// Tune searches a configuration grid by cross-validation.
func (h *Handler) Tune(w http.ResponseWriter, r *http.Request) {
	req := tuneRequest{crossValRequest: crossValRequest{Config: defaultConfigBody()}, Criterion: "rmse"}
	if err := h.decode(w, r, &req); err != nil {
		writeServiceError(w, err)
		return
	}
	series, err := req.series()
	if err != nil {
		writeServiceError(w, err)
		return
	}

	result, err := h.svc.Tune(r.Context(), app.TuneRequest{
		Series:    series,
		Config:    req.Config.config(),
		Grid:      req.Grid,
		CrossVal:  req.crossVal(),
		Criterion: req.Criterion,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, result)
}
