package handlers

import (
	"context"
	"log"
	"time"

	"github.com/amirphl/Susanoo/app/dto"
	businessflow "github.com/amirphl/Susanoo/business_flow"
	"github.com/amirphl/Susanoo/utils"
	"github.com/gofiber/fiber/v3"
)

type InboxHandlerInterface interface {
	ListInboxes(c fiber.Ctx) error
	RefreshInbox(c fiber.Ctx) error
}

type InboxHandler struct {
	flow businessflow.InboxFlow
}

func NewInboxHandler(flow businessflow.InboxFlow) *InboxHandler {
	return &InboxHandler{flow: flow}
}

func (h *InboxHandler) ErrorResponse(c fiber.Ctx, statusCode int, message, errorCode string, details any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: false,
		Message: message,
		Error: dto.ErrorDetail{
			Code:    errorCode,
			Details: details,
		},
	})
}

func (h *InboxHandler) SuccessResponse(c fiber.Ctx, statusCode int, message string, data any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// ListInboxes returns the workspace's connected messaging inboxes
// @Summary List Inboxes
// @Description Retrieve the inboxes registered in the authenticated customer's workspace
// @Tags Inboxes
// @Produce json
// @Success 200 {object} dto.APIResponse{data=dto.ListInboxesResponse} "Inboxes retrieved"
// @Failure 401 {object} dto.APIResponse "Unauthorized"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/inboxes [get]
func (h *InboxHandler) ListInboxes(c fiber.Ctx) error {
	customerID, ok := c.Locals("customer_id").(uint)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "Customer ID not found in context", "MISSING_CUSTOMER_ID", nil)
	}

	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))

	result, err := h.flow.ListInboxes(h.createRequestContext(c, "/api/v1/inboxes"), customerID, metadata)
	if err != nil {
		if businessflow.IsCustomerNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusUnauthorized, "Customer not found", "CUSTOMER_NOT_FOUND", nil)
		}
		if businessflow.IsAccountInactive(err) {
			return h.ErrorResponse(c, fiber.StatusUnauthorized, "Customer account is inactive", "ACCOUNT_INACTIVE", nil)
		}

		log.Println("List inboxes failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to retrieve inboxes", "LIST_INBOXES_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Inboxes retrieved successfully", result)
}

// RefreshInbox re-checks an inbox's connection against the messaging provider
// @Summary Refresh Inbox Status
// @Description Query the messaging provider for the inbox's current connection state and store it
// @Tags Inboxes
// @Produce json
// @Param uuid path string true "Inbox UUID"
// @Success 200 {object} dto.APIResponse{data=dto.RefreshInboxResponse} "Inbox status refreshed"
// @Failure 401 {object} dto.APIResponse "Unauthorized"
// @Failure 403 {object} dto.APIResponse "Inbox belongs to another workspace"
// @Failure 404 {object} dto.APIResponse "Inbox not found"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/inboxes/{uuid}/refresh [post]
func (h *InboxHandler) RefreshInbox(c fiber.Ctx) error {
	inboxUUID := c.Params("uuid")
	if inboxUUID == "" {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Inbox UUID is required", "MISSING_INBOX_UUID", nil)
	}

	customerID, ok := c.Locals("customer_id").(uint)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "Customer ID not found in context", "MISSING_CUSTOMER_ID", nil)
	}

	req := &dto.RefreshInboxRequest{
		UUID:       inboxUUID,
		CustomerID: customerID,
	}

	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))

	result, err := h.flow.RefreshInbox(h.createRequestContext(c, "/api/v1/inboxes/"+inboxUUID+"/refresh"), req, metadata)
	if err != nil {
		if businessflow.IsInboxNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Inbox not found", "INBOX_NOT_FOUND", nil)
		}
		if businessflow.IsInboxAccessDenied(err) {
			return h.ErrorResponse(c, fiber.StatusForbidden, "Inbox belongs to another workspace", "INBOX_ACCESS_DENIED", nil)
		}

		log.Println("Refresh inbox failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to refresh inbox", "REFRESH_INBOX_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Inbox status refreshed", fiber.Map{
		"uuid":   result.UUID,
		"status": result.Status,
	})
}

func (h *InboxHandler) createRequestContext(c fiber.Ctx, endpoint string) context.Context {
	return h.createRequestContextWithTimeout(c, endpoint, 30*time.Second)
}

func (h *InboxHandler) createRequestContextWithTimeout(c fiber.Ctx, endpoint string, timeout time.Duration) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	ctx = context.WithValue(ctx, utils.RequestIDKey, c.Get("X-Request-ID"))
	ctx = context.WithValue(ctx, utils.UserAgentKey, c.Get("User-Agent"))
	ctx = context.WithValue(ctx, utils.IPAddressKey, c.IP())
	ctx = context.WithValue(ctx, utils.EndpointKey, endpoint)
	ctx = context.WithValue(ctx, utils.TimeoutKey, timeout)
	ctx = context.WithValue(ctx, utils.CancelFuncKey, cancel)
	return ctx
}
