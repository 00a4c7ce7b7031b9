package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"cohort-roster-backend/pkg/database"
	"cohort-roster-backend/pkg/models"
	"cohort-roster-backend/pkg/utils"
)

// ContextKey is the type for values stored in the request context.
type ContextKey string

const (
	UserContextKey ContextKey = "user"
)

// AuthMiddleware authenticates requests via the Authorization bearer header.
// A missing or malformed header is a 401; a token that fails validation, or
// whose user no longer exists in the store, is a 403. The resolved identity
// is attached to the request context.
func AuthMiddleware(jwtService *utils.JWTService, db database.DatabaseInterface) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				utils.WriteUnauthorizedResponse(w, "Access token required")
				return
			}

			tokenString := strings.TrimPrefix(authHeader, "Bearer ")
			if tokenString == authHeader {
				utils.WriteUnauthorizedResponse(w, "Access token required")
				return
			}

			claims, err := jwtService.ValidateToken(tokenString)
			if err != nil {
				utils.WriteForbiddenResponse(w, "Invalid or expired token")
				return
			}

			// Re-resolve the claim against the store: a token for a user
			// deleted after issuance must not authenticate.
			user, err := db.GetUserByID(claims.UserID)
			if err != nil {
				if errors.Is(err, database.ErrNotFound) {
					utils.WriteForbiddenResponse(w, "Invalid or expired token")
					return
				}
				utils.WriteInternalServerErrorResponse(w, "Internal server error")
				return
			}

			identity := &models.AuthUser{ID: user.ID, Email: user.Email}
			ctx := context.WithValue(r.Context(), UserContextKey, identity)
			if record, ok := ctx.Value(identityRecordKey).(*identityRecord); ok {
				record.email = user.Email
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetUserFromContext returns the authenticated identity, if any.
func GetUserFromContext(ctx context.Context) (*models.AuthUser, bool) {
	user, ok := ctx.Value(UserContextKey).(*models.AuthUser)
	return user, ok
}

// RequireUser returns the authenticated identity or an error when the
// request passed no auth middleware.
func RequireUser(ctx context.Context) (*models.AuthUser, error) {
	user, ok := GetUserFromContext(ctx)
	if !ok || user == nil {
		return nil, fmt.Errorf("user not authenticated")
	}
	return user, nil
}
