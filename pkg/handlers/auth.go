package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"cohort-roster-backend/pkg/config"
	"cohort-roster-backend/pkg/database"
	"cohort-roster-backend/pkg/middleware"
	"cohort-roster-backend/pkg/models"
	"cohort-roster-backend/pkg/utils"
)

// Both login failure modes collapse into one message so callers cannot
// probe which emails are registered.
const loginFailedMessage = "Invalid email or password"

// AuthHandler serves registration, login, and token verification.
type AuthHandler struct {
	config *config.Config
	db     database.DatabaseInterface
	jwt    *utils.JWTService
	logger *zap.Logger
}

// NewAuthHandler creates the auth handler.
func NewAuthHandler(cfg *config.Config, db database.DatabaseInterface, jwtService *utils.JWTService, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{config: cfg, db: db, jwt: jwtService, logger: logger}
}

// Register handles POST /api/auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if err := utils.ParseJSONBody(r, &req); err != nil {
		utils.WriteBadRequestResponse(w, "Invalid request body")
		return
	}

	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		utils.WriteBadRequestResponse(w, "Email and password are required")
		return
	}

	// Exact-match lookup; emails are case-sensitive as stored.
	if _, err := h.db.GetUserByEmail(req.Email); err == nil {
		utils.WriteBadRequestResponse(w, "User with this email already exists")
		return
	} else if !errors.Is(err, database.ErrNotFound) {
		h.logger.Error("register: email lookup failed", zap.Error(err))
		utils.WriteInternalServerErrorResponse(w, "Internal server error")
		return
	}

	hash, err := utils.HashPassword(req.Password, h.config.BcryptCost)
	if err != nil {
		h.logger.Error("register: password hashing failed", zap.Error(err))
		utils.WriteInternalServerErrorResponse(w, "Internal server error")
		return
	}

	user := &models.User{
		Email:    req.Email,
		Password: hash,
	}
	if err := h.db.CreateUser(user); err != nil {
		h.logger.Error("register: create user failed", zap.Error(err))
		utils.WriteInternalServerErrorResponse(w, "Internal server error")
		return
	}

	token, err := h.jwt.GenerateToken(user.ID, user.Email)
	if err != nil {
		h.logger.Error("register: token generation failed", zap.Error(err))
		utils.WriteInternalServerErrorResponse(w, "Internal server error")
		return
	}

	utils.WriteCreatedResponse(w, models.AuthResponse{
		Message: "User registered successfully",
		User:    models.AuthUser{ID: user.ID, Email: user.Email},
		Token:   token,
	})
}

// Login handles POST /api/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := utils.ParseJSONBody(r, &req); err != nil {
		utils.WriteBadRequestResponse(w, "Invalid request body")
		return
	}

	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		utils.WriteBadRequestResponse(w, "Email and password are required")
		return
	}

	user, err := h.db.GetUserByEmail(req.Email)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			utils.WriteUnauthorizedResponse(w, loginFailedMessage)
			return
		}
		h.logger.Error("login: email lookup failed", zap.Error(err))
		utils.WriteInternalServerErrorResponse(w, "Internal server error")
		return
	}

	if !utils.CheckPassword(req.Password, user.Password) {
		utils.WriteUnauthorizedResponse(w, loginFailedMessage)
		return
	}

	token, err := h.jwt.GenerateToken(user.ID, user.Email)
	if err != nil {
		h.logger.Error("login: token generation failed", zap.Error(err))
		utils.WriteInternalServerErrorResponse(w, "Internal server error")
		return
	}

	utils.WriteSuccessResponse(w, models.AuthResponse{
		Message: "Login successful",
		User:    models.AuthUser{ID: user.ID, Email: user.Email},
		Token:   token,
	})
}

// Verify handles GET /api/auth/verify. The auth middleware has already
// validated the token and resolved the identity.
func (h *AuthHandler) Verify(w http.ResponseWriter, r *http.Request) {
	user, err := middleware.RequireUser(r.Context())
	if err != nil {
		utils.WriteUnauthorizedResponse(w, "User not authenticated")
		return
	}

	utils.WriteSuccessResponse(w, map[string]interface{}{"user": user})
}

// HealthCheck handles GET /api/health
func (h *AuthHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	if err := h.db.HealthCheck(); err != nil {
		h.logger.Error("health check failed", zap.Error(err))
		utils.WriteInternalServerErrorResponse(w, "Database unavailable")
		return
	}

	utils.WriteSuccessResponse(w, map[string]interface{}{
		"status":    "OK",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
