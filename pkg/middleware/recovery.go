package middleware

import (
	"net/http"
	"runtime/debug"

	"go.uber.org/zap"

	"cohort-roster-backend/pkg/utils"
)

// Recovery turns panics into 500 responses. The panic value and stack go to
// the log, never to the client.
func Recovery(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					logger.Error("panic recovered",
						zap.Any("panic", rec),
						zap.String("path", r.URL.Path),
						zap.ByteString("stack", debug.Stack()),
					)
					utils.WriteInternalServerErrorResponse(w, "Internal server error")
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
