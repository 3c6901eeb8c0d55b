package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"clausecheck-backend/repository"
	"clausecheck-backend/service"
	"clausecheck-backend/storage"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// FileHandler serves archived contract originals
type FileHandler struct {
	analysisService *service.AnalysisService
}

// NewFileHandler creates a new file handler
func NewFileHandler(analysisService *service.AnalysisService) *FileHandler {
	return &FileHandler{analysisService: analysisService}
}

func fileError(c *gin.Context, status int, code, message string) {
	c.JSON(status, gin.H{
		"success": false,
		"error": gin.H{
			"code":    code,
			"message": message,
		},
	})
}

// ListFiles handles GET /api/v1/files
func (h *FileHandler) ListFiles(c *gin.Context) {
	limit := 50
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 || n > 500 {
			fileError(c, http.StatusBadRequest, "INVALID_LIMIT", "limit must be between 1 and 500")
			return
		}
		limit = n
	}

	files, err := h.analysisService.ListFiles(c.Request.Context(), limit)
	if errors.Is(err, service.ErrArchiveDisabled) {
		fileError(c, http.StatusNotFound, "ARCHIVE_DISABLED", err.Error())
		return
	}
	if err != nil {
		fileError(c, http.StatusInternalServerError, "DATABASE_ERROR", fmt.Sprintf("Failed to list files: %v", err))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    files,
	})
}

// GetFile handles GET /api/v1/files/:id
func (h *FileHandler) GetFile(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		fileError(c, http.StatusBadRequest, "INVALID_ID", "Invalid file ID format")
		return
	}

	file, reader, err := h.analysisService.GetFile(c.Request.Context(), id)
	switch {
	case errors.Is(err, service.ErrArchiveDisabled),
		errors.Is(err, repository.ErrFileNotFound),
		errors.Is(err, storage.ErrNotFound):
		fileError(c, http.StatusNotFound, "NOT_FOUND", "File not found")
		return
	case err != nil:
		fileError(c, http.StatusInternalServerError, "DOWNLOAD_FAILED", fmt.Sprintf("Failed to download file: %v", err))
		return
	}
	defer reader.Close()

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file.Filename))
	c.DataFromReader(http.StatusOK, file.Size, file.MimeType, reader, nil)
}
