package middleware

import (
	"log"
	"net/http"
	"runtime/debug"

	"CapIot.telemetry/internal/models"
	"CapIot.telemetry/internal/utils"
)

// Recover turns a panicking handler into a 500 with a generic body. The stack
// only goes to the log.
func Recover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}
			log.Printf("[%s] panic serving %s %s: %v\n%s", RequestIDFromContext(r.Context()), r.Method, r.URL.Path, rec, debug.Stack())
			apiErr := models.NewAPIError(models.ErrorCodeInternalServerError, "internal server error", nil, http.StatusInternalServerError)
			utils.RespondWithError(w, apiErr)
		}()
		next.ServeHTTP(w, r)
	})
}
