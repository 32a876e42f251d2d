package routes

import (
	"net/http"
	"os"

	"CapIot.telemetry/internal/controller"
	"CapIot.telemetry/internal/metrics"
	"CapIot.telemetry/internal/middleware"
	"CapIot.telemetry/internal/models"
	"CapIot.telemetry/internal/utils"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/rs/cors"
)

// RegisterRoutes registers all application routes
func RegisterRoutes(router *mux.Router, controller *controller.TelemetryController) {
	router.HandleFunc("/health", controller.HandleHealth).Methods(http.MethodGet)

	router.HandleFunc("/api/voltages", controller.HandleCurrentReadings).Methods(http.MethodGet)
	router.HandleFunc("/api/voltages/history", controller.HandleHistory).Methods(http.MethodGet)
	router.HandleFunc("/api/voltages/stats", controller.HandleStats).Methods(http.MethodGet)

	router.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)
}

// NewRouter builds the mux router with JSON fallbacks for unknown routes and
// methods.
func NewRouter(controller *controller.TelemetryController) *mux.Router {
	router := mux.NewRouter()
	router.Use(middleware.Instrument)
	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		utils.RespondWithError(w, models.NewAPIError(models.ErrorCodeNotFound, "route not found", nil, http.StatusNotFound))
	})
	router.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		utils.RespondWithError(w, models.NewAPIError(models.ErrorCodeMethodNotAllowed, "method not allowed", nil, http.StatusMethodNotAllowed))
	})
	RegisterRoutes(router, controller)
	return router
}

// NewHandler wraps the router with CORS, panic recovery, request ids and
// access logging, outermost last.
func NewHandler(controller *controller.TelemetryController, allowedOrigins []string) http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Authorization", middleware.RequestIDHeader},
		ExposedHeaders: []string{middleware.RequestIDHeader},
	})

	var handler http.Handler = NewRouter(controller)
	handler = c.Handler(handler)
	handler = middleware.Recover(handler)
	handler = middleware.RequestID(handler)
	return handlers.CombinedLoggingHandler(os.Stdout, handler)
}
