package utils

import (
	"encoding/json"
	"net/http"
)

// ErrorResponse is the body of every error response: a single message
// field, no structured codes.
type ErrorResponse struct {
	Error string `json:"error"`
}

// WriteJSONResponse writes data as JSON with the given status code.
func WriteJSONResponse(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

// WriteSuccessResponse writes data with a 200 status.
func WriteSuccessResponse(w http.ResponseWriter, data interface{}) {
	WriteJSONResponse(w, http.StatusOK, data)
}

// WriteCreatedResponse writes data with a 201 status.
func WriteCreatedResponse(w http.ResponseWriter, data interface{}) {
	WriteJSONResponse(w, http.StatusCreated, data)
}

// WriteNoContentResponse writes an empty 204 response.
func WriteNoContentResponse(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// WriteErrorResponse writes an error message with the given status code.
func WriteErrorResponse(w http.ResponseWriter, statusCode int, message string) {
	WriteJSONResponse(w, statusCode, ErrorResponse{Error: message})
}

// WriteBadRequestResponse writes a 400 error response.
func WriteBadRequestResponse(w http.ResponseWriter, message string) {
	WriteErrorResponse(w, http.StatusBadRequest, message)
}

// WriteUnauthorizedResponse writes a 401 error response.
func WriteUnauthorizedResponse(w http.ResponseWriter, message string) {
	WriteErrorResponse(w, http.StatusUnauthorized, message)
}

// WriteForbiddenResponse writes a 403 error response.
func WriteForbiddenResponse(w http.ResponseWriter, message string) {
	WriteErrorResponse(w, http.StatusForbidden, message)
}

// WriteNotFoundResponse writes a 404 error response.
func WriteNotFoundResponse(w http.ResponseWriter, message string) {
	WriteErrorResponse(w, http.StatusNotFound, message)
}

// WriteInternalServerErrorResponse writes a 500 error response. Callers log
// the underlying failure and pass a generic message here.
func WriteInternalServerErrorResponse(w http.ResponseWriter, message string) {
	WriteErrorResponse(w, http.StatusInternalServerError, message)
}

// ParseJSONBody decodes the request body into v.
func ParseJSONBody(r *http.Request, v interface{}) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}
