// Package handlers contains HTTP request handlers and presentation layer logic for the API endpoints
package handlers

import (
	"context"
	"errors"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
	"github.com/revinity/pacing-targets/app/dto"
	"github.com/revinity/pacing-targets/app/middleware"
	businessflow "github.com/revinity/pacing-targets/business_flow"
	"github.com/revinity/pacing-targets/config"
)

// UploadHandlerInterface defines the contract for CSV upload handlers
type UploadHandlerInterface interface {
	Validate(c fiber.Ctx) error
	Import(c fiber.Ctx) error
	Template(c fiber.Ctx) error
}

// UploadHandler handles CSV validation, import, and template HTTP requests.
// Unlike the rest of the API, the validate and import endpoints return the
// report documents directly rather than the standard response envelope, so
// row-level errors keep their flat shape.
type UploadHandler struct {
	importFlow businessflow.ImportFlow
	cfg        config.UploadConfig
}

// NewUploadHandler creates a new upload handler
func NewUploadHandler(importFlow businessflow.ImportFlow, cfg config.UploadConfig) *UploadHandler {
	if cfg.StagingDir != "" {
		if err := os.MkdirAll(cfg.StagingDir, 0o755); err != nil {
			log.Println("Creating upload staging directory failed", err)
		}
	}
	return &UploadHandler{
		importFlow: importFlow,
		cfg:        cfg,
	}
}

func (h *UploadHandler) ErrorResponse(c fiber.Ctx, statusCode int, message, errorCode string, details any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: false,
		Message: message,
		Error: dto.ErrorDetail{
			Code:    errorCode,
			Details: details,
		},
	})
}

// Validate checks an uploaded CSV without persisting anything
// @Summary Validate CSV
// @Description Validate an uploaded pacing-targets CSV and report row-level errors
// @Tags Upload
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "CSV file"
// @Success 200 {object} dto.ValidationReport "Validation report"
// @Failure 400 {object} dto.APIResponse "No file, wrong type, or unparseable CSV"
// @Failure 413 {object} dto.APIResponse "File too large"
// @Router /api/upload/validate [post]
func (h *UploadHandler) Validate(c fiber.Ctx) error {
	path, cleanup, errResp := h.stageUpload(c)
	if errResp != nil {
		return errResp
	}
	defer cleanup()

	file, err := os.Open(path)
	if err != nil {
		log.Println("Opening staged upload failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to read uploaded file", "UPLOAD_READ_FAILED", nil)
	}
	defer file.Close()

	report, err := h.importFlow.ValidateCSV(h.createRequestContext(c, "/api/upload/validate"), file)
	if err != nil {
		return h.parseError(c, err)
	}

	middleware.RecordImportRows(report.ValidRows, report.ErrorRows, report.EmptyRows)

	return c.Status(fiber.StatusOK).JSON(report)
}

// Import validates an uploaded CSV and persists every row, all or nothing
// @Summary Import CSV
// @Description Validate and persist an uploaded pacing-targets CSV
// @Tags Upload
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "CSV file"
// @Success 200 {object} dto.ImportResult "Import result"
// @Failure 400 {object} dto.ImportResult "Row errors or no valid data"
// @Failure 413 {object} dto.APIResponse "File too large"
// @Failure 500 {object} dto.ImportResult "Store failure"
// @Router /api/upload/csv [post]
func (h *UploadHandler) Import(c fiber.Ctx) error {
	path, cleanup, errResp := h.stageUpload(c)
	if errResp != nil {
		return errResp
	}
	defer cleanup()

	file, err := os.Open(path)
	if err != nil {
		log.Println("Opening staged upload failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to read uploaded file", "UPLOAD_READ_FAILED", nil)
	}
	defer file.Close()

	userID, _ := middleware.GetUserIDFromContext(c)

	result, err := h.importFlow.ImportCSV(h.createRequestContext(c, "/api/upload/csv"), file, userID)
	if err != nil {
		if result != nil {
			middleware.RecordImportRows(result.ValidRows, result.ErrorRows, 0)
		}
		switch {
		case businessflow.IsImportBlocked(err), businessflow.IsNoValidData(err):
			return c.Status(fiber.StatusBadRequest).JSON(result)
		case result != nil:
			// Store-level failure after validation passed
			return c.Status(fiber.StatusInternalServerError).JSON(result)
		default:
			return h.parseError(c, err)
		}
	}

	middleware.RecordImportRows(result.ValidRows, result.ErrorRows, 0)
	middleware.RecordImportedTargets(result.SavedTargets)

	return c.Status(fiber.StatusOK).JSON(result)
}

// Template serves the canonical CSV template with the header row only
// @Summary Download CSV Template
// @Tags Upload
// @Produce text/csv
// @Success 200 {file} binary "CSV template"
// @Router /api/upload/template [get]
func (h *UploadHandler) Template(c fiber.Ctx) error {
	filename, content := h.importFlow.Template()

	c.Set(fiber.HeaderContentType, "text/csv")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+filename+`"`)
	return c.SendString(content)
}

// stageUpload validates the multipart file and writes it to the staging
// directory under a random name. The returned cleanup removes the staged copy.
func (h *UploadHandler) stageUpload(c fiber.Ctx) (path string, cleanup func(), errResp error) {
	fileHeader, err := c.FormFile("file")
	if err != nil || fileHeader == nil {
		return "", nil, h.ErrorResponse(c, fiber.StatusBadRequest, "No file uploaded", dto.ErrorCodeNoFileUploaded, nil)
	}

	if !strings.EqualFold(filepath.Ext(fileHeader.Filename), ".csv") {
		return "", nil, h.ErrorResponse(c, fiber.StatusBadRequest, "Only CSV files are allowed", dto.ErrorCodeNotCSVFile, nil)
	}

	if h.cfg.MaxFileSize > 0 && fileHeader.Size > h.cfg.MaxFileSize {
		return "", nil, h.ErrorResponse(c, fiber.StatusRequestEntityTooLarge, "Uploaded file is too large", dto.ErrorCodeFileTooLarge, nil)
	}

	path = filepath.Join(h.cfg.StagingDir, uuid.NewString()+".csv")
	if err := c.SaveFile(fileHeader, path); err != nil {
		log.Println("Staging upload failed", err)
		return "", nil, h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to store uploaded file", "UPLOAD_STAGING_FAILED", nil)
	}

	return path, func() { _ = os.Remove(path) }, nil
}

// parseError maps file-level flow errors onto HTTP responses.
func (h *UploadHandler) parseError(c fiber.Ctx, err error) error {
	if businessflow.IsFileTooLarge(err) {
		return h.ErrorResponse(c, fiber.StatusRequestEntityTooLarge, "CSV has too many rows", dto.ErrorCodeFileTooLarge, nil)
	}
	if businessflow.IsNoValidData(err) {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "No valid data found in CSV", dto.ErrorCodeNoValidData, nil)
	}

	var businessErr *businessflow.BusinessError
	if errors.As(err, &businessErr) && businessErr.Code == "CSV_PARSE_ERROR" {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Could not parse CSV file", "CSV_PARSE_ERROR", businessErr.Message)
	}

	log.Println("CSV processing failed", err)
	return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to process CSV file", dto.ErrorCodeImportFailed, nil)
}

// createRequestContext creates a context with request-scoped values for observability and timeout
func (h *UploadHandler) createRequestContext(c fiber.Ctx, endpoint string) context.Context {
	// Imports may touch many rows; give them more headroom than the default
	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)

	ctx = context.WithValue(ctx, "request_id", c.Get(businessflow.RequestIDKey))
	ctx = context.WithValue(ctx, "user_agent", c.Get("User-Agent"))
	ctx = context.WithValue(ctx, "ip_address", c.IP())
	ctx = context.WithValue(ctx, "endpoint", endpoint)
	ctx = context.WithValue(ctx, "cancel_func", cancel) // Store cancel function for cleanup

	return ctx
}
