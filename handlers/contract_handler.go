package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"strings"

	"clausecheck-backend/models"
	"clausecheck-backend/service"

	"github.com/gin-gonic/gin"
)

// DefaultMaxUploadSize is the per-file upload limit
const DefaultMaxUploadSize = 10 << 20

// statusClientClosedRequest is reported when the client goes away mid-analysis
const statusClientClosedRequest = 499

// ContractHandler handles HTTP requests for contract analysis
type ContractHandler struct {
	analysisService *service.AnalysisService
	maxUploadSize   int64
}

// NewContractHandler creates a new contract handler. A non-positive limit uses DefaultMaxUploadSize.
func NewContractHandler(analysisService *service.AnalysisService, maxUploadSize int64) *ContractHandler {
	if maxUploadSize <= 0 {
		maxUploadSize = DefaultMaxUploadSize
	}
	return &ContractHandler{
		analysisService: analysisService,
		maxUploadSize:   maxUploadSize,
	}
}

// Health handles GET /health
func (h *ContractHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":      "ok",
		"regulations": len(h.analysisService.ListRegulations()),
	})
}

// ListRegulations handles GET /api/v1/regulations
func (h *ContractHandler) ListRegulations(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    h.analysisService.ListRegulations(),
	})
}

// AnalyzeContract handles POST /api/v1/contracts/analyze
func (h *ContractHandler) AnalyzeContract(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		respondError(c, models.NewError(models.KindInvalidRequest, "file is required"))
		return
	}

	upload, err := h.readUpload(fileHeader)
	if err != nil {
		respondError(c, err)
		return
	}

	result, err := h.analysisService.AnalyzeContract(c.Request.Context(), service.AnalyzeContractRequest{
		File:        upload,
		Regulations: regulationsParam(c),
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"file_id": result.FileID,
			"report":  result.Report,
		},
	})
}

// AnalyzeBatch handles POST /api/v1/contracts/analyze-batch
func (h *ContractHandler) AnalyzeBatch(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		respondError(c, models.NewError(models.KindInvalidRequest, "multipart form with files is required"))
		return
	}
	headers := form.File["files"]
	if len(headers) == 0 {
		respondError(c, models.NewError(models.KindInvalidRequest, "at least one file is required"))
		return
	}

	uploads := make([]service.Upload, 0, len(headers))
	for _, fh := range headers {
		upload, err := h.readUpload(fh)
		if err != nil {
			upload = service.Upload{Filename: fh.Filename, Err: err}
		}
		uploads = append(uploads, upload)
	}

	result, err := h.analysisService.AnalyzeBatch(c.Request.Context(), service.AnalyzeBatchRequest{
		Files:       uploads,
		Regulations: regulationsParam(c),
	})
	if err != nil {
		respondError(c, err)
		return
	}

	failed := 0
	for _, item := range result.Items {
		if item.Error != nil {
			failed++
		}
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"items":  result.Items,
			"total":  len(result.Items),
			"failed": failed,
		},
	})
}

func (h *ContractHandler) readUpload(fh *multipart.FileHeader) (service.Upload, error) {
	if fh.Size > h.maxUploadSize {
		return service.Upload{}, models.NewError(models.KindInvalidRequest,
			"file %s exceeds the maximum size of %d bytes", fh.Filename, h.maxUploadSize)
	}

	f, err := fh.Open()
	if err != nil {
		return service.Upload{}, fmt.Errorf("failed to open upload: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, h.maxUploadSize+1))
	if err != nil {
		return service.Upload{}, fmt.Errorf("failed to read upload: %w", err)
	}
	if int64(len(data)) > h.maxUploadSize {
		return service.Upload{}, models.NewError(models.KindInvalidRequest,
			"file %s exceeds the maximum size of %d bytes", fh.Filename, h.maxUploadSize)
	}

	return service.Upload{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Data:        data,
	}, nil
}

// regulationsParam accepts repeated and comma-separated regulation codes
func regulationsParam(c *gin.Context) []string {
	values := c.PostFormArray("regulations")
	if len(values) == 0 {
		values = c.QueryArray("regulations")
	}

	var codes []string
	for _, v := range values {
		for _, code := range strings.Split(v, ",") {
			if code = strings.TrimSpace(code); code != "" {
				codes = append(codes, code)
			}
		}
	}
	return codes
}

// statusFor maps an error kind onto its HTTP status
func statusFor(kind models.ErrorKind) int {
	switch kind {
	case models.KindInvalidRequest, models.KindUnknownRegulation:
		return http.StatusBadRequest
	case models.KindUnsupportedFormat:
		return http.StatusUnsupportedMediaType
	case models.KindInvalidDocument, models.KindExtraction:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c *gin.Context, err error) {
	if errors.Is(err, context.Canceled) {
		log.Printf("Request cancelled: %s %s", c.Request.Method, c.Request.URL.Path)
		c.AbortWithStatus(statusClientClosedRequest)
		return
	}

	detail := models.Detail(err)
	status := statusFor(detail.Kind)
	if status == http.StatusInternalServerError {
		log.Printf("Error handling %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
	}
	c.JSON(status, gin.H{
		"success": false,
		"error": gin.H{
			"code":    detail.Kind,
			"message": detail.Message,
		},
	})
}
