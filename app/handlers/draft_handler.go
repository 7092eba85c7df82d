package handlers

import (
	"context"
	"log"
	"time"

	"github.com/amirphl/Susanoo/app/dto"
	businessflow "github.com/amirphl/Susanoo/business_flow"
	"github.com/amirphl/Susanoo/utils"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
)

type DraftHandlerInterface interface {
	SaveDraft(c fiber.Ctx) error
	GetDraft(c fiber.Ctx) error
	ClearDraft(c fiber.Ctx) error
}

type DraftHandler struct {
	flow      businessflow.DraftFlow
	validator *validator.Validate
}

func NewDraftHandler(flow businessflow.DraftFlow) *DraftHandler {
	return &DraftHandler{flow: flow, validator: validator.New()}
}

func (h *DraftHandler) ErrorResponse(c fiber.Ctx, statusCode int, message, errorCode string, details any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: false,
		Message: message,
		Error: dto.ErrorDetail{
			Code:    errorCode,
			Details: details,
		},
	})
}

func (h *DraftHandler) SuccessResponse(c fiber.Ctx, statusCode int, message string, data any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// SaveDraft stores the customer's single campaign draft, replacing any previous one
// @Summary Save Campaign Draft
// @Description Save the in-progress campaign form; each customer keeps at most one draft
// @Tags Drafts
// @Accept json
// @Produce json
// @Param request body dto.SaveDraftRequest true "Draft payload"
// @Success 200 {object} dto.APIResponse{data=dto.SaveDraftResponse} "Draft saved"
// @Failure 400 {object} dto.APIResponse "Invalid request"
// @Failure 401 {object} dto.APIResponse "Unauthorized"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/campaigns/draft [put]
func (h *DraftHandler) SaveDraft(c fiber.Ctx) error {
	var req dto.SaveDraftRequest
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

	customerID, ok := c.Locals("customer_id").(uint)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "Customer ID not found in context", "MISSING_CUSTOMER_ID", nil)
	}
	req.CustomerID = customerID

	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))

	result, err := h.flow.SaveDraft(h.createRequestContext(c, "/api/v1/campaigns/draft"), &req, metadata)
	if err != nil {
		if businessflow.IsCustomerNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusUnauthorized, "Customer not found", "CUSTOMER_NOT_FOUND", nil)
		}
		if businessflow.IsAccountInactive(err) {
			return h.ErrorResponse(c, fiber.StatusUnauthorized, "Customer account is inactive", "ACCOUNT_INACTIVE", nil)
		}

		log.Println("Save draft failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to save draft", "SAVE_DRAFT_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Draft saved successfully", result)
}

// GetDraft returns the customer's current campaign draft
// @Summary Get Campaign Draft
// @Description Retrieve the customer's saved campaign draft, if any
// @Tags Drafts
// @Produce json
// @Success 200 {object} dto.APIResponse{data=dto.GetDraftResponse} "Draft retrieved"
// @Failure 401 {object} dto.APIResponse "Unauthorized"
// @Failure 404 {object} dto.APIResponse "No draft saved"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/campaigns/draft [get]
func (h *DraftHandler) GetDraft(c fiber.Ctx) error {
	customerID, ok := c.Locals("customer_id").(uint)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "Customer ID not found in context", "MISSING_CUSTOMER_ID", nil)
	}

	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))

	result, err := h.flow.GetDraft(h.createRequestContext(c, "/api/v1/campaigns/draft"), customerID, metadata)
	if err != nil {
		if businessflow.IsDraftNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "No draft saved", "DRAFT_NOT_FOUND", nil)
		}

		log.Println("Get draft failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to retrieve draft", "GET_DRAFT_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Draft retrieved successfully", result)
}

// ClearDraft deletes the customer's campaign draft
// @Summary Clear Campaign Draft
// @Description Delete the customer's saved campaign draft; succeeds even if none exists
// @Tags Drafts
// @Produce json
// @Success 200 {object} dto.APIResponse{data=dto.ClearDraftResponse} "Draft cleared"
// @Failure 401 {object} dto.APIResponse "Unauthorized"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/campaigns/draft [delete]
func (h *DraftHandler) ClearDraft(c fiber.Ctx) error {
	customerID, ok := c.Locals("customer_id").(uint)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "Customer ID not found in context", "MISSING_CUSTOMER_ID", nil)
	}

	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))

	result, err := h.flow.ClearDraft(h.createRequestContext(c, "/api/v1/campaigns/draft"), customerID, metadata)
	if err != nil {
		log.Println("Clear draft failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to clear draft", "CLEAR_DRAFT_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Draft cleared successfully", result)
}

func (h *DraftHandler) createRequestContext(c fiber.Ctx, endpoint string) context.Context {
	return h.createRequestContextWithTimeout(c, endpoint, 30*time.Second)
}

func (h *DraftHandler) createRequestContextWithTimeout(c fiber.Ctx, endpoint string, timeout time.Duration) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	ctx = context.WithValue(ctx, utils.RequestIDKey, c.Get("X-Request-ID"))
	ctx = context.WithValue(ctx, utils.UserAgentKey, c.Get("User-Agent"))
	ctx = context.WithValue(ctx, utils.IPAddressKey, c.IP())
	ctx = context.WithValue(ctx, utils.EndpointKey, endpoint)
	ctx = context.WithValue(ctx, utils.TimeoutKey, timeout)
	ctx = context.WithValue(ctx, utils.CancelFuncKey, cancel)
	return ctx
}
