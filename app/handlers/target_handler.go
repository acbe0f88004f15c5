// Package handlers contains HTTP request handlers and presentation layer logic for the API endpoints
package handlers

import (
	"context"
	"log"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/revinity/pacing-targets/app/dto"
	"github.com/revinity/pacing-targets/app/middleware"
	businessflow "github.com/revinity/pacing-targets/business_flow"
)

// TargetHandlerInterface defines the contract for pacing target handlers
type TargetHandlerInterface interface {
	List(c fiber.Ctx) error
	Get(c fiber.Ctx) error
	Create(c fiber.Ctx) error
	Update(c fiber.Ctx) error
	ToggleStatus(c fiber.Ctx) error
	Delete(c fiber.Ctx) error
	Export(c fiber.Ctx) error
}

// TargetHandler handles pacing-target CRUD and export HTTP requests
type TargetHandler struct {
	targetFlow businessflow.TargetFlow
	validator  *validator.Validate
}

// NewTargetHandler creates a new pacing target handler
func NewTargetHandler(targetFlow businessflow.TargetFlow) *TargetHandler {
	return &TargetHandler{
		targetFlow: targetFlow,
		validator:  validator.New(),
	}
}

func (h *TargetHandler) ErrorResponse(c fiber.Ctx, statusCode int, message, errorCode string, details any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: false,
		Message: message,
		Error: dto.ErrorDetail{
			Code:    errorCode,
			Details: details,
		},
	})
}

func (h *TargetHandler) SuccessResponse(c fiber.Ctx, statusCode int, message string, data any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// List returns pacing targets filtered by month, client subgroup, and tag name search
// @Summary List Pacing Targets
// @Tags Targets
// @Produce json
// @Param month query string false "Month filter (YYYY-MM)"
// @Param clientSubgroupId query string false "Client subgroup filter, or 'all'"
// @Param search query string false "Case-insensitive substring on tag name"
// @Success 200 {object} dto.APIResponse{data=dto.ListTargetsData} "Targets listed"
// @Failure 400 {object} dto.APIResponse "Invalid filters"
// @Router /api/targets [get]
func (h *TargetHandler) List(c fiber.Ctx) error {
	var req dto.ListTargetsRequest
	if err := c.Bind().Query(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid query parameters", "INVALID_REQUEST", err.Error())
	}

	if err := h.validator.Struct(&req); err != nil {
		var validationErrors []string
		for _, err := range err.(validator.ValidationErrors) {
			validationErrors = append(validationErrors, getValidationErrorMessage(err))
		}
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationErrors)
	}

	result, err := h.targetFlow.List(h.createRequestContext(c, "/api/targets"), &req)
	if err != nil {
		if businessflow.IsInvalidMonthFormat(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid month format, expected YYYY-MM", dto.ErrorCodeInvalidMonthFormat, nil)
		}

		log.Println("Listing targets failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to list targets", "LIST_TARGETS_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Targets retrieved successfully", result)
}

// Get returns a single pacing target by its identifier
// @Summary Get Pacing Target
// @Tags Targets
// @Produce json
// @Param id path string true "Target ID"
// @Success 200 {object} dto.APIResponse{data=dto.PacingTargetDTO} "Target found"
// @Failure 400 {object} dto.APIResponse "Invalid target ID"
// @Failure 404 {object} dto.APIResponse "Target not found"
// @Router /api/targets/{id} [get]
func (h *TargetHandler) Get(c fiber.Ctx) error {
	id := c.Params("id")

	result, err := h.targetFlow.Get(h.createRequestContext(c, "/api/targets/:id"), id)
	if err != nil {
		return h.targetError(c, err, "Fetching target failed")
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Target retrieved successfully", result)
}

// Create inserts a new pacing target
// @Summary Create Pacing Target
// @Tags Targets
// @Accept json
// @Produce json
// @Param request body dto.CreateTargetRequest true "Target data"
// @Success 201 {object} dto.APIResponse{data=dto.PacingTargetDTO} "Target created"
// @Failure 400 {object} dto.APIResponse "Validation error"
// @Failure 409 {object} dto.APIResponse "Target already exists"
// @Router /api/targets [post]
func (h *TargetHandler) Create(c fiber.Ctx) error {
	var req dto.CreateTargetRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}

	if err := h.validator.Struct(&req); err != nil {
		var validationErrors []string
		for _, err := range err.(validator.ValidationErrors) {
			validationErrors = append(validationErrors, getValidationErrorMessage(err))
		}
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationErrors)
	}

	userID, _ := middleware.GetUserIDFromContext(c)

	result, err := h.targetFlow.Create(h.createRequestContext(c, "/api/targets"), &req, userID)
	if err != nil {
		if businessflow.IsTargetAlreadyExists(err) {
			return h.ErrorResponse(c, fiber.StatusConflict, "A target with this combination already exists", dto.ErrorCodeTargetAlreadyExists, nil)
		}
		if businessflow.IsInvalidMonthFormat(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid month format, expected YYYY-MM", dto.ErrorCodeInvalidMonthFormat, nil)
		}
		if businessflow.IsInvalidChannel(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid channel", "INVALID_CHANNEL", nil)
		}
		if businessflow.IsInvalidTagType(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid tag type", "INVALID_TAG_TYPE", nil)
		}
		if businessflow.IsTagNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Tag not found for this client", "TAG_NOT_FOUND", nil)
		}

		log.Println("Creating target failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to create target", "CREATE_TARGET_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusCreated, "Target created successfully", result)
}

// Update changes the spend goal of an existing pacing target
// @Summary Update Pacing Target
// @Tags Targets
// @Accept json
// @Produce json
// @Param id path string true "Target ID"
// @Param request body dto.UpdateTargetRequest true "New spend goal"
// @Success 200 {object} dto.APIResponse{data=dto.PacingTargetDTO} "Target updated"
// @Failure 400 {object} dto.APIResponse "Validation error"
// @Failure 404 {object} dto.APIResponse "Target not found"
// @Router /api/targets/{id} [put]
func (h *TargetHandler) Update(c fiber.Ctx) error {
	id := c.Params("id")

	var req dto.UpdateTargetRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}

	if err := h.validator.Struct(&req); err != nil {
		var validationErrors []string
		for _, err := range err.(validator.ValidationErrors) {
			validationErrors = append(validationErrors, getValidationErrorMessage(err))
		}
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationErrors)
	}

	userID, _ := middleware.GetUserIDFromContext(c)

	result, err := h.targetFlow.UpdateSpendsTarget(h.createRequestContext(c, "/api/targets/:id"), id, &req, userID)
	if err != nil {
		return h.targetError(c, err, "Updating target failed")
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Target updated successfully", result)
}

// ToggleStatus flips a pacing target between active and inactive
// @Summary Toggle Target Status
// @Tags Targets
// @Produce json
// @Param id path string true "Target ID"
// @Success 200 {object} dto.APIResponse{data=dto.ToggleStatusData} "Status toggled"
// @Failure 404 {object} dto.APIResponse "Target not found"
// @Router /api/targets/{id}/toggle-status [patch]
func (h *TargetHandler) ToggleStatus(c fiber.Ctx) error {
	id := c.Params("id")

	userID, _ := middleware.GetUserIDFromContext(c)

	result, err := h.targetFlow.ToggleStatus(h.createRequestContext(c, "/api/targets/:id/toggle-status"), id, userID)
	if err != nil {
		return h.targetError(c, err, "Toggling target status failed")
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Target status updated successfully", result)
}

// Delete removes a pacing target
// @Summary Delete Pacing Target
// @Tags Targets
// @Produce json
// @Param id path string true "Target ID"
// @Success 200 {object} dto.APIResponse "Target deleted"
// @Failure 404 {object} dto.APIResponse "Target not found"
// @Router /api/targets/{id} [delete]
func (h *TargetHandler) Delete(c fiber.Ctx) error {
	id := c.Params("id")

	if err := h.targetFlow.Delete(h.createRequestContext(c, "/api/targets/:id"), id); err != nil {
		return h.targetError(c, err, "Deleting target failed")
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Target deleted successfully", nil)
}

// Export streams the filtered target list as an XLSX attachment
// @Summary Export Pacing Targets
// @Tags Targets
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param month query string false "Month filter (YYYY-MM)"
// @Param clientSubgroupId query string false "Client subgroup filter, or 'all'"
// @Param search query string false "Case-insensitive substring on tag name"
// @Success 200 {file} binary "XLSX workbook"
// @Router /api/targets/export [get]
func (h *TargetHandler) Export(c fiber.Ctx) error {
	var req dto.ListTargetsRequest
	if err := c.Bind().Query(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid query parameters", "INVALID_REQUEST", err.Error())
	}

	ctx := h.createRequestContextWithTimeout(c, "/api/targets/export", 60*time.Second)
	filename, content, err := h.targetFlow.Export(ctx, &req)
	if err != nil {
		if businessflow.IsInvalidMonthFormat(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid month format, expected YYYY-MM", dto.ErrorCodeInvalidMonthFormat, nil)
		}

		log.Println("Exporting targets failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to export targets", "EXPORT_FAILED", nil)
	}

	c.Set(fiber.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+filename+`"`)
	return c.Send(content)
}

// targetError maps the shared not-found and bad-id flow errors onto HTTP responses.
func (h *TargetHandler) targetError(c fiber.Ctx, err error, logPrefix string) error {
	if businessflow.IsInvalidTargetID(err) {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid target ID", dto.ErrorCodeInvalidTargetID, nil)
	}
	if businessflow.IsTargetNotFound(err) {
		return h.ErrorResponse(c, fiber.StatusNotFound, "Target not found", dto.ErrorCodeTargetNotFound, nil)
	}

	log.Println(logPrefix, err)
	return h.ErrorResponse(c, fiber.StatusInternalServerError, "Target operation failed", "TARGET_OPERATION_FAILED", nil)
}

// createRequestContext creates a context with request-scoped values for observability and timeout
func (h *TargetHandler) createRequestContext(c fiber.Ctx, endpoint string) context.Context {
	return h.createRequestContextWithTimeout(c, endpoint, 30*time.Second)
}

// createRequestContextWithTimeout creates a context with custom timeout and request-scoped values
func (h *TargetHandler) createRequestContextWithTimeout(c fiber.Ctx, endpoint string, timeout time.Duration) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)

	ctx = context.WithValue(ctx, "request_id", c.Get(businessflow.RequestIDKey))
	ctx = context.WithValue(ctx, "user_agent", c.Get("User-Agent"))
	ctx = context.WithValue(ctx, "ip_address", c.IP())
	ctx = context.WithValue(ctx, "endpoint", endpoint)
	ctx = context.WithValue(ctx, "timeout", timeout)
	ctx = context.WithValue(ctx, "cancel_func", cancel) // Store cancel function for cleanup

	return ctx
}
