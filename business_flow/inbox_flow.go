// Package businessflow contains the core business logic and use cases for campaign workflows
package businessflow

import (
	"context"

	"github.com/amirphl/Susanoo/app/dto"
	"github.com/amirphl/Susanoo/app/services"
	"github.com/amirphl/Susanoo/repository"
	"github.com/amirphl/Susanoo/utils"
)

// InboxFlow handles the WhatsApp inbox business logic
type InboxFlow interface {
	ListInboxes(ctx context.Context, customerID uint, metadata *ClientMetadata) (*dto.ListInboxesResponse, error)
	RefreshInbox(ctx context.Context, req *dto.RefreshInboxRequest, metadata *ClientMetadata) (*dto.RefreshInboxResponse, error)
}

// InboxFlowImpl implements the inbox business flow
type InboxFlowImpl struct {
	inboxRepo    repository.InboxRepository
	customerRepo repository.CustomerRepository
	whatsappSvc  services.WhatsAppService
}

// NewInboxFlow creates a new inbox flow instance
func NewInboxFlow(
	inboxRepo repository.InboxRepository,
	customerRepo repository.CustomerRepository,
	whatsappSvc services.WhatsAppService,
) InboxFlow {
	return &InboxFlowImpl{
		inboxRepo:    inboxRepo,
		customerRepo: customerRepo,
		whatsappSvc:  whatsappSvc,
	}
}

// ListInboxes retrieves the inboxes of the caller's workspace
func (f *InboxFlowImpl) ListInboxes(ctx context.Context, customerID uint, metadata *ClientMetadata) (*dto.ListInboxesResponse, error) {
	customer, err := getCustomer(ctx, f.customerRepo, customerID)
	if err != nil {
		return nil, NewBusinessError("CUSTOMER_LOOKUP_FAILED", "Failed to lookup customer", err)
	}

	inboxes, err := f.inboxRepo.ListByWorkspace(ctx, customer.WorkspaceID)
	if err != nil {
		return nil, NewBusinessError("INBOX_LIST_FAILED", "Failed to list inboxes", err)
	}

	items := make([]dto.InboxView, 0, len(inboxes))
	for _, inbox := range inboxes {
		items = append(items, dto.InboxView{
			UUID:        inbox.UUID.String(),
			DisplayName: inbox.DisplayName,
			PhoneNumber: inbox.PhoneNumber,
			Status:      inbox.Status.String(),
			LastSeenAt:  inbox.LastSeenAt,
		})
	}

	return &dto.ListInboxesResponse{
		Message: "Inboxes retrieved successfully",
		Items:   items,
	}, nil
}

// RefreshInbox re-checks an inbox connection against the gateway and stores
// the observed status. The periodic supervisor refresh does the same for
// inboxes with running campaigns; this endpoint covers the rest on demand.
func (f *InboxFlowImpl) RefreshInbox(ctx context.Context, req *dto.RefreshInboxRequest, metadata *ClientMetadata) (*dto.RefreshInboxResponse, error) {
	customer, err := getCustomer(ctx, f.customerRepo, req.CustomerID)
	if err != nil {
		return nil, NewBusinessError("CUSTOMER_LOOKUP_FAILED", "Failed to lookup customer", err)
	}

	if req.UUID == "" {
		return nil, NewBusinessError("INBOX_UUID_REQUIRED", "Inbox UUID is required", ErrInboxUUIDRequired)
	}

	inbox, err := f.inboxRepo.ByUUID(ctx, req.UUID)
	if err != nil {
		return nil, NewBusinessError("INBOX_LOOKUP_FAILED", "Failed to lookup inbox", err)
	}
	if inbox == nil {
		return nil, NewBusinessError("INBOX_NOT_FOUND", "Inbox not found", ErrInboxNotFound)
	}
	if inbox.WorkspaceID != customer.WorkspaceID {
		return nil, NewBusinessError("INBOX_ACCESS_DENIED", "Inbox belongs to another workspace", ErrInboxAccessDenied)
	}

	status, err := f.whatsappSvc.CheckConnection(ctx, inbox.UUID.String())
	if err != nil {
		return nil, NewBusinessError("INBOX_STATUS_CHECK_FAILED", "Failed to check inbox connection", err)
	}

	if err := f.inboxRepo.UpdateConnectionStatus(ctx, inbox.ID, status, utils.UTCNow()); err != nil {
		return nil, NewBusinessError("INBOX_STATUS_UPDATE_FAILED", "Failed to store inbox connection status", err)
	}

	return &dto.RefreshInboxResponse{
		Message: "Inbox status refreshed successfully",
		UUID:    inbox.UUID.String(),
		Status:  status.String(),
	}, nil
}
