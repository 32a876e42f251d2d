package controller

import (
	"context"
	"errors"
	"log"
	"math"
	"net/http"

	"CapIot.telemetry/internal/middleware"
	"CapIot.telemetry/internal/models"
	"CapIot.telemetry/internal/service"
	"CapIot.telemetry/internal/utils"
)

// TelemetryController handles HTTP requests for voltage telemetry.
type TelemetryController struct {
	service *service.TelemetryService
}

// NewTelemetryController creates a new TelemetryController.
func NewTelemetryController(service *service.TelemetryService) *TelemetryController {
	return &TelemetryController{
		service: service,
	}
}

// HandleHealth reports liveness without touching the store.
func (c *TelemetryController) HandleHealth(w http.ResponseWriter, r *http.Request) {
	utils.RespondWithJSON(w, http.StatusOK, c.service.Health())
}

// HandleCurrentReadings serves the latest voltages.
func (c *TelemetryController) HandleCurrentReadings(w http.ResponseWriter, r *http.Request) {
	reading, err := c.service.GetCurrentReadings(storeContext(r))
	if err != nil {
		respondWithServiceError(w, r, err, "no data found", "error fetching data from store")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, reading)
}

// HandleHistory serves the history window selected by the hours query
// parameter (default 24).
func (c *TelemetryController) HandleHistory(w http.ResponseWriter, r *http.Request) {
	history, err := c.service.GetHistory(storeContext(r), parseHours(r))
	if err != nil {
		respondWithServiceError(w, r, err, "no history data found", "error fetching history")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, history)
}

// HandleStats serves aggregates over the most recent history entries.
func (c *TelemetryController) HandleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := c.service.GetStats(storeContext(r))
	if err != nil {
		respondWithServiceError(w, r, err, "no history data found", "error computing statistics")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, stats)
}

// storeContext keeps the request's values but not its cancellation: a client
// hanging up does not abort the store read.
func storeContext(r *http.Request) context.Context {
	return context.WithoutCancel(r.Context())
}

// parseHours reads the hours parameter. An absent parameter means the default;
// one that is not a number yields NaN, which matches no entry.
func parseHours(r *http.Request) float64 {
	values, ok := r.URL.Query()["hours"]
	if !ok || len(values) == 0 {
		return service.DefaultHistoryHours
	}
	hours, ok := models.StringValue(values[0]).Number()
	if !ok {
		return math.NaN()
	}
	return hours
}

func respondWithServiceError(w http.ResponseWriter, r *http.Request, err error, notFoundMessage, failureMessage string) {
	requestID := middleware.RequestIDFromContext(r.Context())
	switch {
	case errors.Is(err, service.ErrNotFound):
		utils.RespondWithError(w, models.NewAPIError(models.ErrorCodeNotFound, notFoundMessage, nil, http.StatusNotFound))
	case errors.Is(err, service.ErrComputeFailed):
		log.Printf("[%s] Error serving %s: %v", requestID, r.URL.Path, err)
		utils.RespondWithError(w, models.NewAPIError(models.ErrorCodeComputeFailed, failureMessage, nil, http.StatusInternalServerError))
	case errors.Is(err, service.ErrFetchFailed):
		log.Printf("[%s] Error serving %s: %v", requestID, r.URL.Path, err)
		utils.RespondWithError(w, models.NewAPIError(models.ErrorCodeStoreUnavailable, failureMessage, nil, http.StatusInternalServerError))
	default:
		log.Printf("[%s] Unexpected error serving %s: %v", requestID, r.URL.Path, err)
		utils.RespondWithError(w, models.NewAPIError(models.ErrorCodeInternalServerError, failureMessage, nil, http.StatusInternalServerError))
	}
}
