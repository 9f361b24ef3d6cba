package middleware

import (
	"context"
	"net/http"

	"github.com/frahmantamala/opentna/pkg/logger"

	"github.com/google/uuid"
)

const TraceHeader = "X-Trace-ID"

type traceKey struct{}

// RequestID reuses the caller's X-Trace-ID or mints one, attaches it to the
// request logger and echoes it on the response.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		traceID := r.Header.Get(TraceHeader)
		if traceID == "" {
			traceID = uuid.NewString()
		}

		ctx := context.WithValue(r.Context(), traceKey{}, traceID)
		ctx = logger.With(ctx, "traceID", traceID)

		w.Header().Set(TraceHeader, traceID)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func TraceIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(traceKey{}).(string); ok {
		return id
	}
	return ""
}
