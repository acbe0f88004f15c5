// Package handlers contains HTTP request handlers and presentation layer logic for the API endpoints
package handlers

import (
	"context"
	"log"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/revinity/pacing-targets/app/dto"
	businessflow "github.com/revinity/pacing-targets/business_flow"
)

// TagHandlerInterface defines the contract for reference tag handlers
type TagHandlerInterface interface {
	ClientTags(c fiber.Ctx) error
	Clients(c fiber.Ctx) error
	Search(c fiber.Ctx) error
	Filtered(c fiber.Ctx) error
	TagByID(c fiber.Ctx) error
}

// TagHandler handles reference tag and client lookup HTTP requests
type TagHandler struct {
	tagFlow businessflow.TagFlow
}

// NewTagHandler creates a new tag handler
func NewTagHandler(tagFlow businessflow.TagFlow) *TagHandler {
	return &TagHandler{tagFlow: tagFlow}
}

func (h *TagHandler) ErrorResponse(c fiber.Ctx, statusCode int, message, errorCode string, details any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: false,
		Message: message,
		Error: dto.ErrorDetail{
			Code:    errorCode,
			Details: details,
		},
	})
}

func (h *TagHandler) SuccessResponse(c fiber.Ctx, statusCode int, message string, data any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// ClientTags returns all active tags for a client subgroup
// @Summary List Client Tags
// @Tags Tags
// @Produce json
// @Param clientSubgroupId path int true "Client subgroup ID"
// @Success 200 {object} dto.APIResponse{data=dto.TagListData} "Tags listed"
// @Failure 400 {object} dto.APIResponse "Invalid client subgroup ID"
// @Router /api/tags/client/{clientSubgroupId} [get]
func (h *TagHandler) ClientTags(c fiber.Ctx) error {
	clientID, err := h.clientSubgroupParam(c)
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid client subgroup ID", "INVALID_CLIENT_ID", nil)
	}

	result, err := h.tagFlow.ClientTags(h.createRequestContext(c, "/api/tags/client/:clientSubgroupId"), clientID)
	if err != nil {
		log.Println("Listing client tags failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to list tags", "LIST_TAGS_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Tags retrieved successfully", result)
}

// Clients returns all client subgroups
// @Summary List Clients
// @Tags Tags
// @Produce json
// @Success 200 {object} dto.APIResponse{data=dto.ClientListData} "Clients listed"
// @Router /api/tags/clients [get]
func (h *TagHandler) Clients(c fiber.Ctx) error {
	result, err := h.tagFlow.Clients(h.createRequestContext(c, "/api/tags/clients"))
	if err != nil {
		log.Println("Listing clients failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to list clients", "LIST_CLIENTS_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Clients retrieved successfully", result)
}

// Search finds tags by name substring within a client subgroup
// @Summary Search Client Tags
// @Tags Tags
// @Produce json
// @Param clientSubgroupId path int true "Client subgroup ID"
// @Param q query string true "Search query, minimum 2 characters"
// @Success 200 {object} dto.APIResponse{data=dto.TagListData} "Matching tags"
// @Failure 400 {object} dto.APIResponse "Query too short or invalid client subgroup ID"
// @Router /api/tags/search/{clientSubgroupId} [get]
func (h *TagHandler) Search(c fiber.Ctx) error {
	clientID, err := h.clientSubgroupParam(c)
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid client subgroup ID", "INVALID_CLIENT_ID", nil)
	}

	query := c.Query("q")

	result, err := h.tagFlow.Search(h.createRequestContext(c, "/api/tags/search/:clientSubgroupId"), clientID, query)
	if err != nil {
		if businessflow.IsSearchQueryTooShort(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Search query must be at least 2 characters", "SEARCH_QUERY_TOO_SHORT", nil)
		}

		log.Println("Searching tags failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to search tags", "SEARCH_TAGS_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Tags retrieved successfully", result)
}

// Filtered returns tags of a given type for a client subgroup. The Account
// type yields a single synthetic row since accounts are not stored as tags.
// @Summary Filter Client Tags by Type
// @Tags Tags
// @Produce json
// @Param clientSubgroupId path int true "Client subgroup ID"
// @Param tagType query string true "Tag type: Category, Sub Category, or Account"
// @Success 200 {object} dto.APIResponse{data=dto.TagListData} "Matching tags"
// @Failure 400 {object} dto.APIResponse "Invalid tag type or client subgroup ID"
// @Router /api/tags/filtered/{clientSubgroupId} [get]
func (h *TagHandler) Filtered(c fiber.Ctx) error {
	clientID, err := h.clientSubgroupParam(c)
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid client subgroup ID", "INVALID_CLIENT_ID", nil)
	}

	tagType := c.Query("tagType")

	result, err := h.tagFlow.Filtered(h.createRequestContext(c, "/api/tags/filtered/:clientSubgroupId"), clientID, tagType)
	if err != nil {
		if businessflow.IsInvalidTagType(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid tag type", "INVALID_TAG_TYPE", nil)
		}

		log.Println("Filtering tags failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to filter tags", "FILTER_TAGS_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Tags retrieved successfully", result)
}

// TagByID returns a single reference tag
// @Summary Get Tag
// @Tags Tags
// @Produce json
// @Param tagId path int true "Tag ID"
// @Success 200 {object} dto.APIResponse{data=dto.TagDTO} "Tag found"
// @Failure 404 {object} dto.APIResponse "Tag not found"
// @Router /api/tags/tag/{tagId} [get]
func (h *TagHandler) TagByID(c fiber.Ctx) error {
	tagID, err := strconv.ParseInt(c.Params("tagId"), 10, 64)
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid tag ID", "INVALID_TAG_ID", nil)
	}

	result, err := h.tagFlow.TagByID(h.createRequestContext(c, "/api/tags/tag/:tagId"), tagID)
	if err != nil {
		if businessflow.IsTagNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Tag not found", "TAG_NOT_FOUND", nil)
		}

		log.Println("Fetching tag failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to fetch tag", "FETCH_TAG_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Tag retrieved successfully", result)
}

func (h *TagHandler) clientSubgroupParam(c fiber.Ctx) (int64, error) {
	return strconv.ParseInt(c.Params("clientSubgroupId"), 10, 64)
}

// createRequestContext creates a context with request-scoped values for observability and timeout
func (h *TagHandler) createRequestContext(c fiber.Ctx, endpoint string) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)

	ctx = context.WithValue(ctx, "request_id", c.Get(businessflow.RequestIDKey))
	ctx = context.WithValue(ctx, "user_agent", c.Get("User-Agent"))
	ctx = context.WithValue(ctx, "ip_address", c.IP())
	ctx = context.WithValue(ctx, "endpoint", endpoint)
	ctx = context.WithValue(ctx, "cancel_func", cancel) // Store cancel function for cleanup

	return ctx
}
