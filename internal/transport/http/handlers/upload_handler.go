package handlers

import (
	"errors"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/mlukic/duet/internal/service"
	"github.com/mlukic/duet/internal/transport/http/middleware"
)

type UploadHandler struct {
	uploadService *service.UploadService
	logger        *zap.Logger
}

func NewUploadHandler(uploadService *service.UploadService, logger *zap.Logger) *UploadHandler {
	return &UploadHandler{uploadService: uploadService, logger: logger}
}

// Upload accepts a multipart file, pushes it to blob storage and returns
// the durable URL the client will reference in a FILE_URL message.
func (h *UploadHandler) Upload(w http.ResponseWriter, r *http.Request) {
	identity := middleware.GetIdentity(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, service.MaxUploadBytes+4096)
	if err := r.ParseMultipartForm(service.MaxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_UPLOAD", "Could not parse multipart body")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "MISSING_FILE", "No file provided")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		h.logger.Error("reading upload failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "INTERNAL", "Could not read file data")
		return
	}

	info, err := h.uploadService.Upload(r.Context(), data, header.Filename, header.Header.Get("Content-Type"))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrFileEmpty):
			writeError(w, http.StatusBadRequest, "MISSING_FILE", "No file provided")
		case errors.Is(err, service.ErrFileType):
			h.logger.Warn("upload denied",
				zap.String("username", identity.Username),
				zap.String("content_type", header.Header.Get("Content-Type")))
			writeError(w, http.StatusBadRequest, "INVALID_FILE_TYPE", "File type not allowed")
		case errors.Is(err, service.ErrFileTooLarge):
			writeError(w, http.StatusRequestEntityTooLarge, "FILE_TOO_LARGE", "File exceeds the size limit")
		default:
			h.logger.Error("upload failed",
				zap.String("username", identity.Username), zap.Error(err))
			writeError(w, http.StatusInternalServerError, "UPLOAD_FAILED", "File upload failed")
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message":    "File uploaded successfully",
		"fileName":   info.FileName,
		"fileUrl":    info.FileURL,
		"fileType":   info.FileType,
		"fileSize":   info.FileSize,
		"uploadedBy": identity.Username,
	})
}
