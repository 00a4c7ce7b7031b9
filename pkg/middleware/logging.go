package middleware

import (
	"context"
	"net/http"
	"time"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// identityRecord carries the authenticated identity back upstream to the
// request logger. The logger runs outside AuthMiddleware, so a context value
// set downstream never reaches it; a pointer installed before the chain and
// filled during auth does.
type identityRecord struct {
	email string
}

const identityRecordKey ContextKey = "identityRecord"

// RequestLogger logs one structured line per request with method, path,
// status, duration, and the authenticated user when present.
func RequestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)

			record := &identityRecord{}
			r = r.WithContext(context.WithValue(r.Context(), identityRecordKey, record))

			next.ServeHTTP(ww, r)

			userInfo := "anonymous"
			if record.email != "" {
				userInfo = record.email
			}

			logger.Info("request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("duration", time.Since(start)),
				zap.String("user", userInfo),
				zap.String("ip", clientIP(r)),
			)
		})
	}
}

// clientIP resolves the caller address through common proxy headers.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		return xff
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	return r.RemoteAddr
}
