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

// StudentsHandler serves student CRUD. Every operation authorizes against
// the student's parent cohort.
type StudentsHandler struct {
	db        database.DatabaseInterface
	evaluator *access.Evaluator
	logger    *zap.Logger
}

// NewStudentsHandler creates the students handler.
func NewStudentsHandler(db database.DatabaseInterface, evaluator *access.Evaluator, logger *zap.Logger) *StudentsHandler {
	return &StudentsHandler{db: db, evaluator: evaluator, logger: logger}
}

func (h *StudentsHandler) requirePermission(w http.ResponseWriter, userID, cohortID string, perm models.Permission, denyMessage string) bool {
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

// getStudent loads a student, writing a 404 or 500 and returning nil on failure.
func (h *StudentsHandler) getStudent(w http.ResponseWriter, studentID string) *models.Student {
	student, err := h.db.GetStudentByID(studentID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			utils.WriteNotFoundResponse(w, "Student not found")
			return nil
		}
		h.logger.Error("get student failed", zap.Error(err))
		utils.WriteInternalServerErrorResponse(w, "Internal server error")
		return nil
	}
	return student
}

// ListByCohort handles GET /api/students/cohort/{cohortId}
func (h *StudentsHandler) ListByCohort(w http.ResponseWriter, r *http.Request) {
	user, err := middleware.RequireUser(r.Context())
	if err != nil {
		utils.WriteUnauthorizedResponse(w, "User not authenticated")
		return
	}

	cohortID := chiRoute.URLParam(r, "cohortId")
	if _, err := h.db.GetCohortByID(cohortID); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			utils.WriteNotFoundResponse(w, "Cohort not found")
			return
		}
		h.logger.Error("get cohort failed", zap.Error(err))
		utils.WriteInternalServerErrorResponse(w, "Internal server error")
		return
	}
	if !h.requirePermission(w, user.ID, cohortID, models.PermissionView, "Access denied") {
		return
	}

	students, err := h.db.ListStudentsByCohort(cohortID)
	if err != nil {
		h.logger.Error("list students failed", zap.String("cohort", cohortID), zap.Error(err))
		utils.WriteInternalServerErrorResponse(w, "Internal server error")
		return
	}
	if students == nil {
		students = []models.Student{}
	}

	utils.WriteSuccessResponse(w, students)
}

// Get handles GET /api/students/{id}. The permission check runs against
// the cohort stored on the student, not anything from the request.
func (h *StudentsHandler) Get(w http.ResponseWriter, r *http.Request) {
	user, err := middleware.RequireUser(r.Context())
	if err != nil {
		utils.WriteUnauthorizedResponse(w, "User not authenticated")
		return
	}

	student := h.getStudent(w, chiRoute.URLParam(r, "id"))
	if student == nil {
		return
	}
	if !h.requirePermission(w, user.ID, student.CohortID, models.PermissionView, "Access denied") {
		return
	}

	utils.WriteSuccessResponse(w, student)
}

// Create handles POST /api/students. The target cohort comes from the
// request payload and requires edit permission.
func (h *StudentsHandler) Create(w http.ResponseWriter, r *http.Request) {
	user, err := middleware.RequireUser(r.Context())
	if err != nil {
		utils.WriteUnauthorizedResponse(w, "User not authenticated")
		return
	}

	var req models.StudentCreateRequest
	if err := utils.ParseJSONBody(r, &req); err != nil {
		utils.WriteBadRequestResponse(w, "Invalid request body")
		return
	}
	if strings.TrimSpace(req.Name) == "" || req.CohortID == "" {
		utils.WriteBadRequestResponse(w, "Name and cohort_id are required")
		return
	}
	if !models.ValidSubgroup(req.Subgroup) {
		utils.WriteBadRequestResponse(w, "Subgroup must be 1, 2 or 3")
		return
	}

	if _, err := h.db.GetCohortByID(req.CohortID); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			utils.WriteNotFoundResponse(w, "Cohort not found")
			return
		}
		h.logger.Error("get cohort failed", zap.Error(err))
		utils.WriteInternalServerErrorResponse(w, "Internal server error")
		return
	}
	if !h.requirePermission(w, user.ID, req.CohortID, models.PermissionEdit, "Edit access denied") {
		return
	}

	student := &models.Student{
		Name:     req.Name,
		Subgroup: req.Subgroup,
		PhotoURL: req.PhotoURL,
		CohortID: req.CohortID,
	}
	if err := h.db.CreateStudent(student); err != nil {
		// A cohort deleted between the check and the insert lands here as
		// a referential failure.
		h.logger.Error("create student failed", zap.String("cohort", req.CohortID), zap.Error(err))
		utils.WriteInternalServerErrorResponse(w, "Internal server error")
		return
	}

	utils.WriteCreatedResponse(w, student)
}

// Update handles PUT /api/students/{id}
func (h *StudentsHandler) Update(w http.ResponseWriter, r *http.Request) {
	user, err := middleware.RequireUser(r.Context())
	if err != nil {
		utils.WriteUnauthorizedResponse(w, "User not authenticated")
		return
	}

	student := h.getStudent(w, chiRoute.URLParam(r, "id"))
	if student == nil {
		return
	}
	if !h.requirePermission(w, user.ID, student.CohortID, models.PermissionEdit, "Edit access denied") {
		return
	}

	var req models.StudentUpdateRequest
	if err := utils.ParseJSONBody(r, &req); err != nil {
		utils.WriteBadRequestResponse(w, "Invalid request body")
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		utils.WriteBadRequestResponse(w, "Name is required")
		return
	}
	if !models.ValidSubgroup(req.Subgroup) {
		utils.WriteBadRequestResponse(w, "Subgroup must be 1, 2 or 3")
		return
	}

	student.Name = req.Name
	student.Subgroup = req.Subgroup
	student.PhotoURL = req.PhotoURL
	if err := h.db.UpdateStudent(student); err != nil {
		h.logger.Error("update student failed", zap.String("student", student.ID), zap.Error(err))
		utils.WriteInternalServerErrorResponse(w, "Internal server error")
		return
	}

	utils.WriteSuccessResponse(w, student)
}

// Delete handles DELETE /api/students/{id}
func (h *StudentsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user, err := middleware.RequireUser(r.Context())
	if err != nil {
		utils.WriteUnauthorizedResponse(w, "User not authenticated")
		return
	}

	student := h.getStudent(w, chiRoute.URLParam(r, "id"))
	if student == nil {
		return
	}
	if !h.requirePermission(w, user.ID, student.CohortID, models.PermissionEdit, "Edit access denied") {
		return
	}

	if err := h.db.DeleteStudent(student.ID); err != nil {
		h.logger.Error("delete student failed", zap.String("student", student.ID), zap.Error(err))
		utils.WriteInternalServerErrorResponse(w, "Internal server error")
		return
	}

	utils.WriteNoContentResponse(w)
}
