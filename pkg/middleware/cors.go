package middleware

import (
	"net/http"

	"github.com/go-chi/cors"

	"cohort-roster-backend/pkg/config"
)

// CORS builds the CORS middleware from configuration.
func CORS(cfg *config.Config) func(http.Handler) http.Handler {
	corsOptions := cors.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodPut,
			http.MethodDelete,
			http.MethodOptions,
		},
		AllowedHeaders: []string{
			"Accept",
			"Authorization",
			"Content-Type",
			"X-Requested-With",
		},
		AllowCredentials: true,
		MaxAge:           300,
	}

	// Wildcard origins cannot be combined with credentials.
	if len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*" {
		corsOptions.AllowCredentials = false
	}

	return cors.Handler(corsOptions)
}
