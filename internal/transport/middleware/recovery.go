package middleware

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/frahmantamala/opentna/internal"
)

// RecoveryMiddleware turns a panic into a 500 carrying the standard error body.
func RecoveryMiddleware(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					logger.Error("panic recovered",
						"error", rec,
						"method", r.Method,
						"url", r.URL.String(),
						"trace_id", TraceIDFromContext(r.Context()),
						"stack", string(debug.Stack()))

					appErr := internal.NewInternalError("Internal server error", fmt.Errorf("panic: %v", rec))
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(internal.Response{Error: appErr})
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
