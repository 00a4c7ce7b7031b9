package handlers

import (
	"errors"
	"net/http"
	"strings"

	chiRoute "github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"cohort-roster-backend/pkg/access"
	"cohort-roster-backend/pkg/database"
	"cohort-roster-backend/pkg/middleware"
	"cohort-roster-backend/pkg/models"
	"cohort-roster-backend/pkg/utils"
)

// CohortsHandler serves cohort CRUD and sharing.
type CohortsHandler struct {
	db        database.DatabaseInterface
	evaluator *access.Evaluator
	logger    *zap.Logger
}

// NewCohortsHandler creates the cohorts handler.
func NewCohortsHandler(db database.DatabaseInterface, evaluator *access.Evaluator, logger *zap.Logger) *CohortsHandler {
	return &CohortsHandler{db: db, evaluator: evaluator, logger: logger}
}

// ==== helpers: permission/ownership checks ====

// requirePermission writes the failure response and returns false when the
// user lacks the permission on the cohort. Existence must already have been
// checked: a missing cohort would read as a bare denial here.
func (h *CohortsHandler) requirePermission(w http.ResponseWriter, userID, cohortID string, perm models.Permission, denyMessage string) bool {
	allowed, err := h.evaluator.Authorize(userID, cohortID, perm)
	if err != nil {
		h.logger.Error("authorization check failed", zap.Error(err))
		utils.WriteInternalServerErrorResponse(w, "Internal server error")
		return false
	}
	if !allowed {
		utils.WriteForbiddenResponse(w, denyMessage)
		return false
	}
	return true
}

func (h *CohortsHandler) requireOwner(w http.ResponseWriter, userID, cohortID, denyMessage string) bool {
	isOwner, err := h.evaluator.IsOwner(userID, cohortID)
	if err != nil {
		h.logger.Error("ownership check failed", zap.Error(err))
		utils.WriteInternalServerErrorResponse(w, "Internal server error")
		return false
	}
	if !isOwner {
		utils.WriteForbiddenResponse(w, denyMessage)
		return false
	}
	return true
}

// getCohort loads a cohort, writing a 404 or 500 and returning nil on failure.
func (h *CohortsHandler) getCohort(w http.ResponseWriter, cohortID string) *models.Cohort {
	cohort, err := h.db.GetCohortByID(cohortID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			utils.WriteNotFoundResponse(w, "Cohort not found")
			return nil
		}
		h.logger.Error("get cohort failed", zap.Error(err))
		utils.WriteInternalServerErrorResponse(w, "Internal server error")
		return nil
	}
	return cohort
}

// List handles GET /api/cohorts
func (h *CohortsHandler) List(w http.ResponseWriter, r *http.Request) {
	user, err := middleware.RequireUser(r.Context())
	if err != nil {
		utils.WriteUnauthorizedResponse(w, "User not authenticated")
		return
	}

	cohorts, err := h.db.ListCohortsByUser(user.ID)
	if err != nil {
		h.logger.Error("list cohorts failed", zap.String("user", user.ID), zap.Error(err))
		utils.WriteInternalServerErrorResponse(w, "Internal server error")
		return
	}
	if cohorts == nil {
		cohorts = []models.Cohort{}
	}

	utils.WriteSuccessResponse(w, cohorts)
}

// Get handles GET /api/cohorts/{id}
func (h *CohortsHandler) Get(w http.ResponseWriter, r *http.Request) {
	user, err := middleware.RequireUser(r.Context())
	if err != nil {
		utils.WriteUnauthorizedResponse(w, "User not authenticated")
		return
	}

	cohortID := chiRoute.URLParam(r, "id")
	cohort := h.getCohort(w, cohortID)
	if cohort == nil {
		return
	}
	if !h.requirePermission(w, user.ID, cohortID, models.PermissionView, "Access denied") {
		return
	}

	utils.WriteSuccessResponse(w, cohort)
}

// Create handles POST /api/cohorts
func (h *CohortsHandler) Create(w http.ResponseWriter, r *http.Request) {
	user, err := middleware.RequireUser(r.Context())
	if err != nil {
		utils.WriteUnauthorizedResponse(w, "User not authenticated")
		return
	}

	var req models.CohortCreateRequest
	if err := utils.ParseJSONBody(r, &req); err != nil {
		utils.WriteBadRequestResponse(w, "Invalid request body")
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		utils.WriteBadRequestResponse(w, "Name is required")
		return
	}

	cohort := &models.Cohort{
		Name:    req.Name,
		OwnerID: user.ID,
	}
	if err := h.db.CreateCohort(cohort); err != nil {
		h.logger.Error("create cohort failed", zap.String("user", user.ID), zap.Error(err))
		utils.WriteInternalServerErrorResponse(w, "Internal server error")
		return
	}

	utils.WriteCreatedResponse(w, cohort)
}

// Update handles PUT /api/cohorts/{id}
func (h *CohortsHandler) Update(w http.ResponseWriter, r *http.Request) {
	user, err := middleware.RequireUser(r.Context())
	if err != nil {
		utils.WriteUnauthorizedResponse(w, "User not authenticated")
		return
	}

	cohortID := chiRoute.URLParam(r, "id")
	cohort := h.getCohort(w, cohortID)
	if cohort == nil {
		return
	}
	if !h.requirePermission(w, user.ID, cohortID, models.PermissionEdit, "Edit access denied") {
		return
	}

	var req models.CohortUpdateRequest
	if err := utils.ParseJSONBody(r, &req); err != nil {
		utils.WriteBadRequestResponse(w, "Invalid request body")
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		utils.WriteBadRequestResponse(w, "Name is required")
		return
	}

	cohort.Name = req.Name
	if err := h.db.UpdateCohort(cohort); err != nil {
		h.logger.Error("update cohort failed", zap.String("cohort", cohortID), zap.Error(err))
		utils.WriteInternalServerErrorResponse(w, "Internal server error")
		return
	}

	utils.WriteSuccessResponse(w, cohort)
}

// Delete handles DELETE /api/cohorts/{id}
func (h *CohortsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user, err := middleware.RequireUser(r.Context())
	if err != nil {
		utils.WriteUnauthorizedResponse(w, "User not authenticated")
		return
	}

	cohortID := chiRoute.URLParam(r, "id")
	if h.getCohort(w, cohortID) == nil {
		return
	}
	if !h.requireOwner(w, user.ID, cohortID, "Only the owner can delete a cohort") {
		return
	}

	if err := h.db.DeleteCohort(cohortID); err != nil {
		h.logger.Error("delete cohort failed", zap.String("cohort", cohortID), zap.Error(err))
		utils.WriteInternalServerErrorResponse(w, "Internal server error")
		return
	}

	utils.WriteNoContentResponse(w)
}

// Share handles POST /api/cohorts/{id}/share
func (h *CohortsHandler) Share(w http.ResponseWriter, r *http.Request) {
	user, err := middleware.RequireUser(r.Context())
	if err != nil {
		utils.WriteUnauthorizedResponse(w, "User not authenticated")
		return
	}

	cohortID := chiRoute.URLParam(r, "id")
	if h.getCohort(w, cohortID) == nil {
		return
	}
	if !h.requireOwner(w, user.ID, cohortID, "Only the owner can share a cohort") {
		return
	}

	var req models.ShareRequest
	if err := utils.ParseJSONBody(r, &req); err != nil {
		utils.WriteBadRequestResponse(w, "Invalid request body")
		return
	}
	if req.UserID == "" {
		utils.WriteBadRequestResponse(w, "user_id is required")
		return
	}
	if req.Permission == "" {
		req.Permission = models.PermissionView
	}
	if !req.Permission.Valid() {
		utils.WriteBadRequestResponse(w, "permissions must be 'view' or 'edit'")
		return
	}

	// Resolve the grantee up front so a typo'd user id is a 404 instead of
	// a foreign key failure.
	if _, err := h.db.GetUserByID(req.UserID); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			utils.WriteNotFoundResponse(w, "User not found")
			return
		}
		h.logger.Error("share: grantee lookup failed", zap.Error(err))
		utils.WriteInternalServerErrorResponse(w, "Internal server error")
		return
	}

	grant := &models.CohortAccess{
		CohortID:   cohortID,
		UserID:     req.UserID,
		Permission: req.Permission,
	}
	if err := h.db.CreateAccessGrant(grant); err != nil {
		h.logger.Error("create access grant failed", zap.String("cohort", cohortID), zap.Error(err))
		utils.WriteInternalServerErrorResponse(w, "Internal server error")
		return
	}

	utils.WriteCreatedResponse(w, grant)
}

// ListAccess handles GET /api/cohorts/{id}/access
func (h *CohortsHandler) ListAccess(w http.ResponseWriter, r *http.Request) {
	user, err := middleware.RequireUser(r.Context())
	if err != nil {
		utils.WriteUnauthorizedResponse(w, "User not authenticated")
		return
	}

	cohortID := chiRoute.URLParam(r, "id")
	if h.getCohort(w, cohortID) == nil {
		return
	}
	if !h.requirePermission(w, user.ID, cohortID, models.PermissionView, "Access denied") {
		return
	}

	grants, err := h.db.ListAccessGrants(cohortID)
	if err != nil {
		h.logger.Error("list access grants failed", zap.String("cohort", cohortID), zap.Error(err))
		utils.WriteInternalServerErrorResponse(w, "Internal server error")
		return
	}
	if grants == nil {
		grants = []models.CohortAccess{}
	}

	utils.WriteSuccessResponse(w, grants)
}

// RemoveAccess handles DELETE /api/cohorts/access/{accessId}. Only the
// owner of the grant's parent cohort may remove it.
func (h *CohortsHandler) RemoveAccess(w http.ResponseWriter, r *http.Request) {
	user, err := middleware.RequireUser(r.Context())
	if err != nil {
		utils.WriteUnauthorizedResponse(w, "User not authenticated")
		return
	}

	accessID := chiRoute.URLParam(r, "accessId")
	grant, err := h.db.GetAccessGrantByID(accessID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			utils.WriteNotFoundResponse(w, "Access grant not found")
			return
		}
		h.logger.Error("get access grant failed", zap.Error(err))
		utils.WriteInternalServerErrorResponse(w, "Internal server error")
		return
	}

	if !h.requireOwner(w, user.ID, grant.CohortID, "Only the owner can remove access") {
		return
	}

	if err := h.db.DeleteAccessGrant(accessID); err != nil {
		h.logger.Error("delete access grant failed", zap.String("grant", accessID), zap.Error(err))
		utils.WriteInternalServerErrorResponse(w, "Internal server error")
		return
	}

	utils.WriteNoContentResponse(w)
}
