package middleware

import (
	"net/http"

	"github.com/go-chi/cors"
)

// CORS allows the configured origins; an empty list allows any origin.
func CORS(origins []string) func(http.Handler) http.Handler {
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", TraceHeader},
		ExposedHeaders:   []string{TraceHeader, "X-Total-Count", "X-Total-Pages"},
		AllowCredentials: false,
		MaxAge:           300,
	})
}
