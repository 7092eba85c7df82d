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

type QuotaHandlerInterface interface {
	GetQuota(c fiber.Ctx) error
}

type QuotaHandler struct {
	flow businessflow.QuotaFlow
}

func NewQuotaHandler(flow businessflow.QuotaFlow) *QuotaHandler {
	return &QuotaHandler{flow: flow}
}

func (h *QuotaHandler) ErrorResponse(c fiber.Ctx, statusCode int, message, errorCode string, details any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: false,
		Message: message,
		Error: dto.ErrorDetail{
			Code:    errorCode,
			Details: details,
		},
	})
}

func (h *QuotaHandler) SuccessResponse(c fiber.Ctx, statusCode int, message string, data any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// GetQuota returns the workspace's daily and monthly send quota usage
// @Summary Get Quota
// @Description Retrieve the authenticated customer's workspace quota counters for the current day and month
// @Tags Quota
// @Produce json
// @Success 200 {object} dto.APIResponse{data=dto.GetQuotaResponse} "Quota retrieved"
// @Failure 401 {object} dto.APIResponse "Unauthorized"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/quota [get]
func (h *QuotaHandler) GetQuota(c fiber.Ctx) error {
	customerID, ok := c.Locals("customer_id").(uint)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "Customer ID not found in context", "MISSING_CUSTOMER_ID", nil)
	}

	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))

	result, err := h.flow.GetQuota(h.createRequestContext(c, "/api/v1/quota"), customerID, metadata)
	if err != nil {
		if businessflow.IsCustomerNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusUnauthorized, "Customer not found", "CUSTOMER_NOT_FOUND", nil)
		}
		if businessflow.IsAccountInactive(err) {
			return h.ErrorResponse(c, fiber.StatusUnauthorized, "Customer account is inactive", "ACCOUNT_INACTIVE", nil)
		}
		if businessflow.IsWorkspaceNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Workspace not found", "WORKSPACE_NOT_FOUND", nil)
		}

		log.Println("Get quota failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to retrieve quota", "GET_QUOTA_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, result.Message, fiber.Map{
		"daily":     result.Daily,
		"monthly":   result.Monthly,
		"exhausted": result.Exhausted,
	})
}

func (h *QuotaHandler) createRequestContext(c fiber.Ctx, endpoint string) context.Context {
	return h.createRequestContextWithTimeout(c, endpoint, 30*time.Second)
}

func (h *QuotaHandler) createRequestContextWithTimeout(c fiber.Ctx, endpoint string, timeout time.Duration) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	ctx = context.WithValue(ctx, utils.RequestIDKey, c.Get("X-Request-ID"))
	ctx = context.WithValue(ctx, utils.UserAgentKey, c.Get("User-Agent"))
	ctx = context.WithValue(ctx, utils.IPAddressKey, c.IP())
	ctx = context.WithValue(ctx, utils.EndpointKey, endpoint)
	ctx = context.WithValue(ctx, utils.TimeoutKey, timeout)
	ctx = context.WithValue(ctx, utils.CancelFuncKey, cancel)
	return ctx
}
