package handlers

import (
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"cohort-roster-backend/pkg/config"
	"cohort-roster-backend/pkg/utils"
)

// UploadHandler stores student photos and returns their public locator.
type UploadHandler struct {
	config *config.Config
	logger *zap.Logger
}

// NewUploadHandler creates the upload handler.
func NewUploadHandler(cfg *config.Config, logger *zap.Logger) *UploadHandler {
	return &UploadHandler{config: cfg, logger: logger}
}

// Upload handles POST /api/upload. Expects a multipart form with a "photo"
// field containing an image; anything else is rejected.
func (h *UploadHandler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.config.MaxUploadSize)

	file, header, err := r.FormFile("photo")
	if err != nil {
		utils.WriteBadRequestResponse(w, "No file uploaded")
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		utils.WriteBadRequestResponse(w, "Only image files are allowed")
		return
	}

	if err := os.MkdirAll(h.config.UploadDir, 0o755); err != nil {
		h.logger.Error("upload: create upload dir failed", zap.Error(err))
		utils.WriteInternalServerErrorResponse(w, "Internal server error")
		return
	}

	// Never reuse the client-supplied name; keep only the extension.
	filename := uuid.New().String() + filepath.Ext(header.Filename)
	dst, err := os.Create(filepath.Join(h.config.UploadDir, filename))
	if err != nil {
		h.logger.Error("upload: create file failed", zap.Error(err))
		utils.WriteInternalServerErrorResponse(w, "Internal server error")
		return
	}
	defer dst.Close()

	if _, err := io.Copy(dst, file); err != nil {
		h.logger.Error("upload: write file failed", zap.Error(err))
		utils.WriteInternalServerErrorResponse(w, "Internal server error")
		return
	}

	utils.WriteSuccessResponse(w, map[string]string{
		"url": "/uploads/" + filename,
	})
}
