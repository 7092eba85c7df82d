// Package handlers contains HTTP request handlers and presentation layer logic for the API endpoints
package handlers

import (
	"context"
	"io"
	"log"
	"strconv"
	"time"

	"github.com/amirphl/Susanoo/app/dto"
	businessflow "github.com/amirphl/Susanoo/business_flow"
	"github.com/amirphl/Susanoo/utils"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
)

// CampaignHandlerInterface defines the contract for campaign handlers
type CampaignHandlerInterface interface {
	CreateCampaign(c fiber.Ctx) error
	GetCampaign(c fiber.Ctx) error
	ListCampaigns(c fiber.Ctx) error
	StartCampaign(c fiber.Ctx) error
	PauseCampaign(c fiber.Ctx) error
	ResumeCampaign(c fiber.Ctx) error
	CancelCampaign(c fiber.Ctx) error
	GetCampaignProgress(c fiber.Ctx) error
	ListRecipients(c fiber.Ctx) error
	ImportRecipients(c fiber.Ctx) error
}

// CampaignHandler handles campaign-related HTTP requests
type CampaignHandler struct {
	campaignFlow businessflow.CampaignFlow
	importFlow   businessflow.ImportFlow
	validator    *validator.Validate
}

func (h *CampaignHandler) ErrorResponse(c fiber.Ctx, statusCode int, message, errorCode string, details any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: false,
		Message: message,
		Error: dto.ErrorDetail{
			Code:    errorCode,
			Details: details,
		},
	})
}

func (h *CampaignHandler) SuccessResponse(c fiber.Ctx, statusCode int, message string, data any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// NewCampaignHandler creates a new campaign handler
func NewCampaignHandler(campaignFlow businessflow.CampaignFlow, importFlow businessflow.ImportFlow) *CampaignHandler {
	handler := &CampaignHandler{
		campaignFlow: campaignFlow,
		importFlow:   importFlow,
		validator:    validator.New(),
	}

	// Setup custom validations
	handler.setupCustomValidations()

	return handler
}

// CreateCampaign handles the campaign creation process
// @Summary Create Campaign
// @Description Create a new campaign with messages, recipients, delay bounds, and an optional send window
// @Tags Campaigns
// @Accept json
// @Produce json
// @Param request body dto.CreateCampaignRequest true "Campaign creation data"
// @Success 201 {object} dto.APIResponse{data=dto.CreateCampaignResponse} "Campaign created successfully"
// @Failure 400 {object} dto.APIResponse "Validation error or invalid request"
// @Failure 401 {object} dto.APIResponse "Unauthorized - customer not found or inactive"
// @Failure 403 {object} dto.APIResponse "Inbox does not belong to the customer's workspace"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/campaigns [post]
func (h *CampaignHandler) CreateCampaign(c fiber.Ctx) error {
	var req dto.CreateCampaignRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}

	// Validate request
	if err := h.validator.Struct(&req); err != nil {
		var validationErrors []string
		for _, err := range err.(validator.ValidationErrors) {
			validationErrors = append(validationErrors, getValidationErrorMessage(err))
		}
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationErrors)
	}

	// Get client information
	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))

	// Get authenticated customer ID from context
	customerID, ok := c.Locals("customer_id").(uint)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "Customer ID not found in context", "MISSING_CUSTOMER_ID", nil)
	}

	// Set the authenticated customer ID in the request
	req.CustomerID = customerID

	// Call business logic with proper context
	result, err := h.campaignFlow.CreateCampaign(h.createRequestContext(c, "/api/v1/campaigns"), &req, metadata)
	if err != nil {
		// Handle specific business errors
		if businessflow.IsCustomerNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusUnauthorized, "Customer not found", "CUSTOMER_NOT_FOUND", nil)
		}
		if businessflow.IsAccountInactive(err) {
			return h.ErrorResponse(c, fiber.StatusUnauthorized, "Customer account is inactive", "ACCOUNT_INACTIVE", nil)
		}
		if businessflow.IsInboxNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Inbox not found", "INBOX_NOT_FOUND", nil)
		}
		if businessflow.IsInboxAccessDenied(err) {
			return h.ErrorResponse(c, fiber.StatusForbidden, "Inbox does not belong to your workspace", "INBOX_ACCESS_DENIED", nil)
		}
		if businessflow.IsInboxDisconnected(err) {
			return h.ErrorResponse(c, fiber.StatusConflict, "Inbox is disconnected", "INBOX_DISCONNECTED", nil)
		}
		if businessflow.IsEmptySendWindow(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Send window permits no send time", "EMPTY_SEND_WINDOW", nil)
		}
		if businessflow.IsDelayBoundsInvalid(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Delay bounds are invalid", "INVALID_DELAY_BOUNDS", nil)
		}
		if businessflow.IsScheduleTimeInPast(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Schedule time is in the past", "SCHEDULE_IN_PAST", nil)
		}
		if businessflow.IsTooManyMessages(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Too many message items", "TOO_MANY_MESSAGES", nil)
		}
		if businessflow.IsTooManyRecipients(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Too many recipients", "TOO_MANY_RECIPIENTS", nil)
		}
		if businessflow.IsMessageTextRequired(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Text message items require text", "MESSAGE_TEXT_REQUIRED", nil)
		}
		if businessflow.IsMessageMediaURLRequired(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Media message items require a media URL", "MESSAGE_MEDIA_URL_REQUIRED", nil)
		}

		log.Println("Campaign creation failed", err)
		// Handle generic business errors
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Campaign creation failed", "CAMPAIGN_CREATION_FAILED", nil)
	}

	// Successful campaign creation
	return h.SuccessResponse(c, fiber.StatusCreated, "Campaign created successfully", fiber.Map{
		"message":          result.Message,
		"uuid":             result.UUID,
		"status":           result.Status,
		"total_recipients": result.TotalRecipients,
		"created_at":       result.CreatedAt,
	})
}

// GetCampaign returns a single campaign owned by the authenticated customer
// @Summary Get Campaign
// @Description Retrieve a campaign by UUID, including its messages, window, and progress counters
// @Tags Campaigns
// @Accept json
// @Produce json
// @Param uuid path string true "Campaign UUID"
// @Success 200 {object} dto.APIResponse{data=dto.GetCampaignResponse}
// @Failure 401 {object} dto.APIResponse "Unauthorized"
// @Failure 403 {object} dto.APIResponse "Campaign belongs to another customer"
// @Failure 404 {object} dto.APIResponse "Campaign not found"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/campaigns/{uuid} [get]
func (h *CampaignHandler) GetCampaign(c fiber.Ctx) error {
	campaignUUID := c.Params("uuid")
	if campaignUUID == "" {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Campaign UUID is required", "MISSING_CAMPAIGN_UUID", nil)
	}

	customerID, ok := c.Locals("customer_id").(uint)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "Customer ID not found in context", "MISSING_CUSTOMER_ID", nil)
	}

	req := &dto.GetCampaignRequest{
		UUID:       campaignUUID,
		CustomerID: customerID,
	}

	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))

	result, err := h.campaignFlow.GetCampaign(h.createRequestContext(c, "/api/v1/campaigns/"+campaignUUID), req, metadata)
	if err != nil {
		if businessflow.IsCampaignNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Campaign not found", "CAMPAIGN_NOT_FOUND", nil)
		}
		if businessflow.IsCampaignAccessDenied(err) {
			return h.ErrorResponse(c, fiber.StatusForbidden, "Campaign belongs to another customer", "CAMPAIGN_ACCESS_DENIED", nil)
		}

		log.Println("Get campaign failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to retrieve campaign", "GET_CAMPAIGN_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Campaign retrieved successfully", result)
}

// ListCampaigns returns the authenticated customer's campaigns
// @Summary List Campaigns
// @Description Retrieve the authenticated user's campaigns with pagination, ordering, and filters
// @Tags Campaigns
// @Accept json
// @Produce json
// @Param page query int true "Page number"
// @Param limit query int true "Items per page (max 100)"
// @Param orderby query string false "Order by (newest|oldest)" default(newest)
// @Param title query string false "Filter by title (contains)"
// @Param status query string false "Filter by status (pending|scheduled|running|paused|completed|cancelled)"
// @Success 200 {object} dto.APIResponse{data=dto.ListCampaignsResponse}
// @Failure 400 {object} dto.APIResponse "Validation error"
// @Failure 401 {object} dto.APIResponse "Unauthorized"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/campaigns [get]
func (h *CampaignHandler) ListCampaigns(c fiber.Ctx) error {
	// Parse query params
	pageStr := c.Query("page", "1")
	limitStr := c.Query("limit", "10")
	page := 1
	if v, err := strconv.Atoi(pageStr); err == nil && v > 0 {
		page = v
	}
	limit := 10
	if v, err := strconv.Atoi(limitStr); err == nil && v > 0 {
		limit = v
	}
	if limit > 100 {
		limit = 100
	}
	orderby := c.Query("orderby", "newest")
	title := c.Query("title")
	status := c.Query("status")

	// Get authenticated customer ID
	customerID, ok := c.Locals("customer_id").(uint)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "Customer ID not found in context", "MISSING_CUSTOMER_ID", nil)
	}

	// Build request DTO
	var filter *dto.ListCampaignsFilter
	if title != "" || status != "" {
		filter = &dto.ListCampaignsFilter{}
		if title != "" {
			filter.Title = &title
		}
		if status != "" {
			filter.Status = &status
		}
	}
	req := &dto.ListCampaignsRequest{
		CustomerID: customerID,
		Page:       page,
		Limit:      limit,
		OrderBy:    orderby,
		Filter:     filter,
	}

	// Client metadata
	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))

	// Call business logic
	result, err := h.campaignFlow.ListCampaigns(h.createRequestContext(c, "/api/v1/campaigns"), req, metadata)
	if err != nil {
		if businessflow.IsCustomerNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusUnauthorized, "Customer not found", "CUSTOMER_NOT_FOUND", nil)
		}
		if businessflow.IsAccountInactive(err) {
			return h.ErrorResponse(c, fiber.StatusUnauthorized, "Customer account is inactive", "ACCOUNT_INACTIVE", nil)
		}

		log.Println("List campaigns failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to retrieve campaigns", "LIST_CAMPAIGNS_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Campaigns retrieved successfully", fiber.Map{
		"items":      result.Items,
		"pagination": result.Pagination,
	})
}

// StartCampaign schedules a pending campaign for execution
// @Summary Start Campaign
// @Description Schedule a pending campaign, optionally overriding the schedule time
// @Tags Campaigns
// @Accept json
// @Produce json
// @Param uuid path string true "Campaign UUID"
// @Param request body dto.StartCampaignRequest false "Optional schedule override"
// @Success 200 {object} dto.APIResponse{data=dto.StartCampaignResponse}
// @Failure 400 {object} dto.APIResponse "Schedule time in the past"
// @Failure 401 {object} dto.APIResponse "Unauthorized"
// @Failure 403 {object} dto.APIResponse "Campaign belongs to another customer"
// @Failure 404 {object} dto.APIResponse "Campaign not found"
// @Failure 409 {object} dto.APIResponse "Campaign is not pending"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/campaigns/{uuid}/start [post]
func (h *CampaignHandler) StartCampaign(c fiber.Ctx) error {
	campaignUUID := c.Params("uuid")
	if campaignUUID == "" {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Campaign UUID is required", "MISSING_CAMPAIGN_UUID", nil)
	}

	// Body is optional; an empty body means start at the stored schedule or now
	var req dto.StartCampaignRequest
	if len(c.Body()) > 0 {
		if err := c.Bind().JSON(&req); err != nil {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
		}
	}

	customerID, ok := c.Locals("customer_id").(uint)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "Customer ID not found in context", "MISSING_CUSTOMER_ID", nil)
	}

	req.UUID = campaignUUID
	req.CustomerID = customerID

	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))

	result, err := h.campaignFlow.StartCampaign(h.createRequestContext(c, "/api/v1/campaigns/"+campaignUUID+"/start"), &req, metadata)
	if err != nil {
		if businessflow.IsCampaignNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Campaign not found", "CAMPAIGN_NOT_FOUND", nil)
		}
		if businessflow.IsCampaignAccessDenied(err) {
			return h.ErrorResponse(c, fiber.StatusForbidden, "Campaign belongs to another customer", "CAMPAIGN_ACCESS_DENIED", nil)
		}
		if businessflow.IsCampaignNotPending(err) {
			return h.ErrorResponse(c, fiber.StatusConflict, "Campaign is not pending", "CAMPAIGN_NOT_PENDING", nil)
		}
		if businessflow.IsScheduleTimeInPast(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Schedule time is in the past", "SCHEDULE_IN_PAST", nil)
		}

		log.Println("Start campaign failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to start campaign", "START_CAMPAIGN_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Campaign scheduled successfully", fiber.Map{
		"message":      result.Message,
		"status":       result.Status,
		"scheduled_at": result.ScheduledAt,
	})
}

// PauseCampaign pauses a running campaign
// @Summary Pause Campaign
// @Description Pause a running campaign; delivery stops after the in-flight send completes
// @Tags Campaigns
// @Accept json
// @Produce json
// @Param uuid path string true "Campaign UUID"
// @Success 200 {object} dto.APIResponse{data=dto.PauseCampaignResponse}
// @Failure 401 {object} dto.APIResponse "Unauthorized"
// @Failure 403 {object} dto.APIResponse "Campaign belongs to another customer"
// @Failure 404 {object} dto.APIResponse "Campaign not found"
// @Failure 409 {object} dto.APIResponse "Campaign is not running"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/campaigns/{uuid}/pause [post]
func (h *CampaignHandler) PauseCampaign(c fiber.Ctx) error {
	campaignUUID := c.Params("uuid")
	if campaignUUID == "" {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Campaign UUID is required", "MISSING_CAMPAIGN_UUID", nil)
	}

	customerID, ok := c.Locals("customer_id").(uint)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "Customer ID not found in context", "MISSING_CUSTOMER_ID", nil)
	}

	req := &dto.PauseCampaignRequest{
		UUID:       campaignUUID,
		CustomerID: customerID,
	}

	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))

	result, err := h.campaignFlow.PauseCampaign(h.createRequestContext(c, "/api/v1/campaigns/"+campaignUUID+"/pause"), req, metadata)
	if err != nil {
		if businessflow.IsCampaignNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Campaign not found", "CAMPAIGN_NOT_FOUND", nil)
		}
		if businessflow.IsCampaignAccessDenied(err) {
			return h.ErrorResponse(c, fiber.StatusForbidden, "Campaign belongs to another customer", "CAMPAIGN_ACCESS_DENIED", nil)
		}
		if businessflow.IsCampaignNotRunning(err) {
			return h.ErrorResponse(c, fiber.StatusConflict, "Campaign is not running", "CAMPAIGN_NOT_RUNNING", nil)
		}

		log.Println("Pause campaign failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to pause campaign", "PAUSE_CAMPAIGN_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Campaign paused successfully", fiber.Map{
		"message": result.Message,
		"status":  result.Status,
	})
}

// ResumeCampaign resumes a paused campaign
// @Summary Resume Campaign
// @Description Resume a paused campaign from the next unsent recipient
// @Tags Campaigns
// @Accept json
// @Produce json
// @Param uuid path string true "Campaign UUID"
// @Success 200 {object} dto.APIResponse{data=dto.ResumeCampaignResponse}
// @Failure 401 {object} dto.APIResponse "Unauthorized"
// @Failure 403 {object} dto.APIResponse "Campaign belongs to another customer"
// @Failure 404 {object} dto.APIResponse "Campaign not found"
// @Failure 409 {object} dto.APIResponse "Campaign is not paused"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/campaigns/{uuid}/resume [post]
func (h *CampaignHandler) ResumeCampaign(c fiber.Ctx) error {
	campaignUUID := c.Params("uuid")
	if campaignUUID == "" {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Campaign UUID is required", "MISSING_CAMPAIGN_UUID", nil)
	}

	customerID, ok := c.Locals("customer_id").(uint)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "Customer ID not found in context", "MISSING_CUSTOMER_ID", nil)
	}

	req := &dto.ResumeCampaignRequest{
		UUID:       campaignUUID,
		CustomerID: customerID,
	}

	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))

	result, err := h.campaignFlow.ResumeCampaign(h.createRequestContext(c, "/api/v1/campaigns/"+campaignUUID+"/resume"), req, metadata)
	if err != nil {
		if businessflow.IsCampaignNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Campaign not found", "CAMPAIGN_NOT_FOUND", nil)
		}
		if businessflow.IsCampaignAccessDenied(err) {
			return h.ErrorResponse(c, fiber.StatusForbidden, "Campaign belongs to another customer", "CAMPAIGN_ACCESS_DENIED", nil)
		}
		if businessflow.IsCampaignNotPaused(err) {
			return h.ErrorResponse(c, fiber.StatusConflict, "Campaign is not paused", "CAMPAIGN_NOT_PAUSED", nil)
		}

		log.Println("Resume campaign failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to resume campaign", "RESUME_CAMPAIGN_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Campaign resumed successfully", fiber.Map{
		"message": result.Message,
		"status":  result.Status,
	})
}

// CancelCampaign cancels a campaign in any non-terminal state
// @Summary Cancel Campaign
// @Description Cancel a campaign; remaining unsent recipients are marked cancelled
// @Tags Campaigns
// @Accept json
// @Produce json
// @Param uuid path string true "Campaign UUID"
// @Success 200 {object} dto.APIResponse{data=dto.CancelCampaignResponse}
// @Failure 401 {object} dto.APIResponse "Unauthorized"
// @Failure 403 {object} dto.APIResponse "Campaign belongs to another customer"
// @Failure 404 {object} dto.APIResponse "Campaign not found"
// @Failure 409 {object} dto.APIResponse "Campaign already finished"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/campaigns/{uuid}/cancel [post]
func (h *CampaignHandler) CancelCampaign(c fiber.Ctx) error {
	campaignUUID := c.Params("uuid")
	if campaignUUID == "" {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Campaign UUID is required", "MISSING_CAMPAIGN_UUID", nil)
	}

	customerID, ok := c.Locals("customer_id").(uint)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "Customer ID not found in context", "MISSING_CUSTOMER_ID", nil)
	}

	req := &dto.CancelCampaignRequest{
		UUID:       campaignUUID,
		CustomerID: customerID,
	}

	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))

	result, err := h.campaignFlow.CancelCampaign(h.createRequestContext(c, "/api/v1/campaigns/"+campaignUUID+"/cancel"), req, metadata)
	if err != nil {
		if businessflow.IsCampaignNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Campaign not found", "CAMPAIGN_NOT_FOUND", nil)
		}
		if businessflow.IsCampaignAccessDenied(err) {
			return h.ErrorResponse(c, fiber.StatusForbidden, "Campaign belongs to another customer", "CAMPAIGN_ACCESS_DENIED", nil)
		}
		if businessflow.IsCampaignAlreadyFinished(err) {
			return h.ErrorResponse(c, fiber.StatusConflict, "Campaign already finished", "CAMPAIGN_ALREADY_FINISHED", nil)
		}

		log.Println("Cancel campaign failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to cancel campaign", "CANCEL_CAMPAIGN_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Campaign cancelled successfully", fiber.Map{
		"message":              result.Message,
		"status":               result.Status,
		"cancelled_recipients": result.CancelledRecipients,
	})
}

// GetCampaignProgress returns delivery counters for a campaign
// @Summary Get Campaign Progress
// @Description Retrieve cursor position and sent/failed/remaining counters for a campaign
// @Tags Campaigns
// @Accept json
// @Produce json
// @Param uuid path string true "Campaign UUID"
// @Success 200 {object} dto.APIResponse{data=dto.CampaignProgressResponse}
// @Failure 401 {object} dto.APIResponse "Unauthorized"
// @Failure 403 {object} dto.APIResponse "Campaign belongs to another customer"
// @Failure 404 {object} dto.APIResponse "Campaign not found"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/campaigns/{uuid}/progress [get]
func (h *CampaignHandler) GetCampaignProgress(c fiber.Ctx) error {
	campaignUUID := c.Params("uuid")
	if campaignUUID == "" {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Campaign UUID is required", "MISSING_CAMPAIGN_UUID", nil)
	}

	customerID, ok := c.Locals("customer_id").(uint)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "Customer ID not found in context", "MISSING_CUSTOMER_ID", nil)
	}

	req := &dto.GetCampaignRequest{
		UUID:       campaignUUID,
		CustomerID: customerID,
	}

	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))

	result, err := h.campaignFlow.GetCampaignProgress(h.createRequestContext(c, "/api/v1/campaigns/"+campaignUUID+"/progress"), req, metadata)
	if err != nil {
		if businessflow.IsCampaignNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Campaign not found", "CAMPAIGN_NOT_FOUND", nil)
		}
		if businessflow.IsCampaignAccessDenied(err) {
			return h.ErrorResponse(c, fiber.StatusForbidden, "Campaign belongs to another customer", "CAMPAIGN_ACCESS_DENIED", nil)
		}

		log.Println("Get campaign progress failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to retrieve campaign progress", "GET_PROGRESS_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Campaign progress retrieved successfully", result)
}

// ListRecipients returns a page of a campaign's recipients
// @Summary List Campaign Recipients
// @Description Retrieve a campaign's recipients in send order with pagination and status filter
// @Tags Campaigns
// @Accept json
// @Produce json
// @Param uuid path string true "Campaign UUID"
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Items per page (max 500)" default(50)
// @Param status query string false "Filter by status (pending|sent|failed|cancelled)"
// @Success 200 {object} dto.APIResponse{data=dto.ListRecipientsResponse}
// @Failure 400 {object} dto.APIResponse "Unknown recipient status"
// @Failure 401 {object} dto.APIResponse "Unauthorized"
// @Failure 403 {object} dto.APIResponse "Campaign belongs to another customer"
// @Failure 404 {object} dto.APIResponse "Campaign not found"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/campaigns/{uuid}/recipients [get]
func (h *CampaignHandler) ListRecipients(c fiber.Ctx) error {
	campaignUUID := c.Params("uuid")
	if campaignUUID == "" {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Campaign UUID is required", "MISSING_CAMPAIGN_UUID", nil)
	}

	page := 1
	if v, err := strconv.Atoi(c.Query("page", "1")); err == nil && v > 0 {
		page = v
	}
	limit := 50
	if v, err := strconv.Atoi(c.Query("limit", "50")); err == nil && v > 0 {
		limit = v
	}

	var status *string
	if s := c.Query("status"); s != "" {
		status = &s
	}

	customerID, ok := c.Locals("customer_id").(uint)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "Customer ID not found in context", "MISSING_CUSTOMER_ID", nil)
	}

	req := &dto.ListRecipientsRequest{
		UUID:       campaignUUID,
		CustomerID: customerID,
		Page:       page,
		Limit:      limit,
		Status:     status,
	}

	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))

	result, err := h.campaignFlow.ListRecipients(h.createRequestContext(c, "/api/v1/campaigns/"+campaignUUID+"/recipients"), req, metadata)
	if err != nil {
		if businessflow.IsCampaignNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Campaign not found", "CAMPAIGN_NOT_FOUND", nil)
		}
		if businessflow.IsCampaignAccessDenied(err) {
			return h.ErrorResponse(c, fiber.StatusForbidden, "Campaign belongs to another customer", "CAMPAIGN_ACCESS_DENIED", nil)
		}
		if businessflow.IsRecipientStatusUnknown(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Unknown recipient status filter", "UNKNOWN_STATUS", nil)
		}

		log.Println("List recipients failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to retrieve recipients", "LIST_RECIPIENTS_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Recipients retrieved successfully", result)
}

// ImportRecipients accepts a multipart/form-data upload with an XLSX recipient list
// @Summary Import Recipients
// @Description Upload an XLSX file with a phone_number column and optional variable columns; the parsed list replaces the draft's recipients
// @Tags Campaigns
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "XLSX file with phone_number column"
// @Success 200 {object} dto.APIResponse{data=dto.ImportRecipientsResponse}
// @Failure 400 {object} dto.APIResponse "Invalid or empty file"
// @Failure 401 {object} dto.APIResponse "Unauthorized"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/campaigns/recipients/import [post]
func (h *CampaignHandler) ImportRecipients(c fiber.Ctx) error {
	fileHeader, err := c.FormFile("file")
	if err != nil || fileHeader == nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "file is required", "INVALID_REQUEST", nil)
	}

	fh, err := fileHeader.Open()
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "invalid file", "INVALID_FILE", err.Error())
	}
	defer fh.Close()

	data, err := io.ReadAll(fh)
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "invalid file", "INVALID_FILE", err.Error())
	}

	customerID, ok := c.Locals("customer_id").(uint)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "Customer ID not found in context", "MISSING_CUSTOMER_ID", nil)
	}

	req := &dto.ImportRecipientsRequest{
		CustomerID: customerID,
		FileName:   fileHeader.Filename,
		Data:       data,
	}

	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))

	result, err := h.importFlow.ImportRecipients(h.createRequestContext(c, "/api/v1/campaigns/recipients/import"), req, metadata)
	if err != nil {
		if businessflow.IsCustomerNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusUnauthorized, "Customer not found", "CUSTOMER_NOT_FOUND", nil)
		}
		if businessflow.IsAccountInactive(err) {
			return h.ErrorResponse(c, fiber.StatusUnauthorized, "Customer account is inactive", "ACCOUNT_INACTIVE", nil)
		}
		if businessflow.IsImportFileEmpty(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "File contains no recipients", "IMPORT_FILE_EMPTY", nil)
		}
		if businessflow.IsImportHeaderMissing(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "First column must be phone_number", "IMPORT_HEADER_MISSING", nil)
		}
		if businessflow.IsImportUnsupportedFormat(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "File is not a valid XLSX workbook", "IMPORT_UNSUPPORTED_FORMAT", nil)
		}
		if businessflow.IsTooManyRecipients(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Too many recipients", "TOO_MANY_RECIPIENTS", nil)
		}

		log.Println("Import recipients failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to import recipients", "IMPORT_RECIPIENTS_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Recipients imported successfully", result)
}

// createRequestContext creates a context with request-scoped values for observability and timeout
func (h *CampaignHandler) createRequestContext(c fiber.Ctx, endpoint string) context.Context {
	return h.createRequestContextWithTimeout(c, endpoint, 30*time.Second)
}

// createRequestContextWithTimeout creates a context with custom timeout and request-scoped values
func (h *CampaignHandler) createRequestContextWithTimeout(c fiber.Ctx, endpoint string, timeout time.Duration) context.Context {
	// Create context with custom timeout
	ctx, cancel := context.WithTimeout(context.Background(), timeout)

	// Add request-scoped values for observability
	ctx = context.WithValue(ctx, utils.RequestIDKey, c.Get("X-Request-ID"))
	ctx = context.WithValue(ctx, utils.UserAgentKey, c.Get("User-Agent"))
	ctx = context.WithValue(ctx, utils.IPAddressKey, c.IP())
	ctx = context.WithValue(ctx, utils.EndpointKey, endpoint)
	ctx = context.WithValue(ctx, utils.TimeoutKey, timeout)
	ctx = context.WithValue(ctx, utils.CancelFuncKey, cancel) // Store cancel function for cleanup

	return ctx
}

// setupCustomValidations sets up custom validation rules
func (h *CampaignHandler) setupCustomValidations() {
	// Add custom validation rules if needed
	// Example: h.validator.RegisterValidation("custom_rule", customValidationFunc)
}
