// Package businessflow contains the business logic for the application.
package businessflow

import (
	"context"
	"time"

	"github.com/amirphl/Susanoo/app/dto"
	"github.com/amirphl/Susanoo/models"
	"github.com/amirphl/Susanoo/repository"
)

const RequestIDKey = "X-Request-ID"

// ClientMetadata holds all client-related information for audit logging and session tracking
type ClientMetadata struct {
	IPAddress  string            `json:"ip_address"`
	UserAgent  string            `json:"user_agent"`
	DeviceInfo map[string]string `json:"device_info,omitempty"`
	RequestID  string            `json:"request_id,omitempty"`
	SessionID  string            `json:"session_id,omitempty"`
	Additional map[string]string `json:"additional,omitempty"`
}

// NewClientMetadata creates a new ClientMetadata instance with basic information
func NewClientMetadata(ipAddress, userAgent string) *ClientMetadata {
	return &ClientMetadata{
		IPAddress:  ipAddress,
		UserAgent:  userAgent,
		DeviceInfo: make(map[string]string),
		Additional: make(map[string]string),
	}
}

// AddDeviceInfo adds device information to the metadata
func (cm *ClientMetadata) AddDeviceInfo(key, value string) {
	if cm.DeviceInfo == nil {
		cm.DeviceInfo = make(map[string]string)
	}
	cm.DeviceInfo[key] = value
}

// AddAdditional adds additional custom information to the metadata
func (cm *ClientMetadata) AddAdditional(key, value string) {
	if cm.Additional == nil {
		cm.Additional = make(map[string]string)
	}
	cm.Additional[key] = value
}

// SetRequestID sets the request ID
func (cm *ClientMetadata) SetRequestID(requestID string) {
	cm.RequestID = requestID
}

// SetSessionID sets the session ID
func (cm *ClientMetadata) SetSessionID(sessionID string) {
	cm.SessionID = sessionID
}

// getCustomer loads a customer and rejects missing or inactive accounts
func getCustomer(ctx context.Context, repo repository.CustomerRepository, customerID uint) (models.Customer, error) {
	customer, err := repo.ByID(ctx, customerID)
	if err != nil {
		return models.Customer{}, err
	}
	if customer == nil {
		return models.Customer{}, ErrCustomerNotFound
	}
	if !customer.IsActive {
		return models.Customer{}, ErrAccountInactive
	}
	return *customer, nil
}

// writeAuditLog records one audit entry; failures are reported but never block a flow
func writeAuditLog(ctx context.Context, repo repository.AuditLogRepository, customer *models.Customer, action, description string, success bool, errMsg *string, metadata *ClientMetadata) error {
	var customerID *uint
	if customer != nil {
		customerID = &customer.ID
	}

	ipAddress := "127.0.0.1"
	userAgent := ""
	if metadata != nil {
		ipAddress = metadata.IPAddress
		userAgent = metadata.UserAgent
	}

	audit := &models.AuditLog{
		CustomerID:   customerID,
		Action:       action,
		Description:  &description,
		Success:      &success,
		IPAddress:    &ipAddress,
		UserAgent:    &userAgent,
		ErrorMessage: errMsg,
	}

	// Extract request ID from context if available
	requestID := ctx.Value(RequestIDKey)
	if requestID != nil {
		requestIDStr, ok := requestID.(string)
		if ok {
			audit.RequestID = &requestIDStr
		}
	}

	return repo.Save(ctx, audit)
}

// ToAuthCustomerDTO converts a customer model to AuthCustomerDTO for authentication responses
func ToAuthCustomerDTO(customer models.Customer) dto.AuthCustomerDTO {
	return dto.AuthCustomerDTO{
		ID:          customer.ID,
		UUID:        customer.UUID.String(),
		Email:       customer.Email,
		FullName:    customer.FullName,
		WorkspaceID: customer.WorkspaceID,
		IsActive:    customer.IsActive,
		CreatedAt:   customer.CreatedAt.Format(time.RFC3339),
	}
}

// ToMessageItemDTOs converts a stored message sequence to its DTO shape
func ToMessageItemDTOs(items models.MessageList) []dto.MessageItemDTO {
	out := make([]dto.MessageItemDTO, 0, len(items))
	for _, item := range items {
		out = append(out, dto.MessageItemDTO{
			Kind:     string(item.Kind),
			Text:     item.Text,
			MediaURL: item.MediaURL,
			Caption:  item.Caption,
		})
	}
	return out
}

// FromMessageItemDTOs converts request message items to the stored shape
func FromMessageItemDTOs(items []dto.MessageItemDTO) models.MessageList {
	out := make(models.MessageList, 0, len(items))
	for _, item := range items {
		out = append(out, models.MessageItem{
			Kind:     models.MessageKind(item.Kind),
			Text:     item.Text,
			MediaURL: item.MediaURL,
			Caption:  item.Caption,
		})
	}
	return out
}

// ToSendWindowDTO converts a stored send window to its DTO shape
func ToSendWindowDTO(w *models.SendWindow) *dto.SendWindowDTO {
	if w == nil {
		return nil
	}
	return &dto.SendWindowDTO{
		AllowedHours:    w.AllowedHours,
		AllowedWeekdays: w.AllowedWeekdays,
	}
}

// FromSendWindowDTO converts a request send window to the stored shape
func FromSendWindowDTO(w *dto.SendWindowDTO) *models.SendWindow {
	if w == nil {
		return nil
	}
	return &models.SendWindow{
		AllowedHours:    w.AllowedHours,
		AllowedWeekdays: w.AllowedWeekdays,
	}
}

// ToCampaignResponse converts a campaign model to its response shape
func ToCampaignResponse(c *models.Campaign) dto.GetCampaignResponse {
	resp := dto.GetCampaignResponse{
		UUID:            c.UUID.String(),
		Title:           c.Title,
		Status:          c.Status.String(),
		Messages:        ToMessageItemDTOs(c.Messages),
		DelayMinMinutes: c.DelayMinMinutes,
		DelayMaxMinutes: c.DelayMaxMinutes,
		RandomizeOrder:  c.RandomizeOrder,
		ScheduledAt:     c.ScheduledAt,
		Window:          ToSendWindowDTO(c.Window),
		Cursor:          c.Cursor,
		TotalRecipients: c.TotalRecipients,
		SentCount:       c.SentCount,
		FailedCount:     c.FailedCount,
		Diagnostic:      c.Diagnostic,
		CreatedAt:       c.CreatedAt,
		UpdatedAt:       c.UpdatedAt,
	}

	if c.Inbox != nil {
		resp.InboxUUID = c.Inbox.UUID.String()
	}
	if c.PauseReason != nil {
		reason := c.PauseReason.String()
		resp.PauseReason = &reason
	}

	return resp
}
