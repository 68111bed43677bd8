package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/sartorproj/goforecast/diagnostics"
	"github.com/sartorproj/goforecast/forecaster"
	"github.com/sartorproj/goforecast/internal/api/respond"
	"github.com/sartorproj/goforecast/internal/app"
	"github.com/sartorproj/goforecast/internal/store"
	"github.com/sartorproj/goforecast/timeseries"
)

// errBadRequest marks request decoding failures.
var errBadRequest = errors.New("bad request")

func writeNotFound(w http.ResponseWriter) {
	respond.WriteError(w, http.StatusNotFound, "NOT_FOUND", "resource not found")
}

// writeServiceError maps service and model errors to HTTP responses.
func writeServiceError(w http.ResponseWriter, err error) {
	var cfgErr *forecaster.InvalidConfigurationError
	var maxBytes *http.MaxBytesError
	var limitErr *app.LimitError

	switch {
	case errors.As(err, &cfgErr):
		respond.WriteFieldError(w, http.StatusUnprocessableEntity, "INVALID_CONFIGURATION", cfgErr.Error(), cfgErr.Field)
	case errors.As(err, &limitErr):
		respond.WriteFieldError(w, http.StatusUnprocessableEntity, "LIMIT_EXCEEDED", limitErr.Error(), limitErr.Field)
	case errors.Is(err, diagnostics.ErrTooManyCutoffs):
		respond.WriteFieldError(w, http.StatusUnprocessableEntity, "LIMIT_EXCEEDED", err.Error(), "period")
	case errors.As(err, &maxBytes):
		respond.WriteError(w, http.StatusRequestEntityTooLarge, "BODY_TOO_LARGE", err.Error())
	case errors.Is(err, errBadRequest), errors.Is(err, app.ErrInvalidRequest), errors.Is(err, timeseries.ErrLengthMismatch):
		respond.WriteError(w, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
	case errors.Is(err, forecaster.ErrInsufficientData):
		respond.WriteError(w, http.StatusUnprocessableEntity, "INSUFFICIENT_DATA", err.Error())
	case errors.Is(err, forecaster.ErrDegenerateDesign):
		respond.WriteError(w, http.StatusUnprocessableEntity, "DEGENERATE_DESIGN", err.Error())
	case errors.Is(err, diagnostics.ErrNoCutoffs), errors.Is(err, diagnostics.ErrNoCandidates):
		respond.WriteError(w, http.StatusUnprocessableEntity, "NO_CUTOFFS", err.Error())
	case errors.Is(err, store.ErrNotFound):
		respond.WriteError(w, http.StatusNotFound, "NOT_FOUND", err.Error())
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		respond.WriteError(w, http.StatusServiceUnavailable, "CANCELED", err.Error())
	default:
		respond.WriteError(w, http.StatusInternalServerError, "INTERNAL", err.Error())
	}
}
