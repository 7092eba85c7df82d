// Package businessflow contains the core business logic and use cases for campaign workflows
package businessflow

import (
	"context"
	"fmt"
	"time"

	"github.com/amirphl/Susanoo/app/dto"
	"github.com/amirphl/Susanoo/models"
	"github.com/amirphl/Susanoo/repository"
	"github.com/amirphl/Susanoo/utils"
)

// DraftFlow handles the campaign draft business logic. Each customer holds at
// most one draft; saving replaces it wholesale and no validation runs until
// the draft is promoted to a campaign.
type DraftFlow interface {
	SaveDraft(ctx context.Context, req *dto.SaveDraftRequest, metadata *ClientMetadata) (*dto.SaveDraftResponse, error)
	GetDraft(ctx context.Context, customerID uint, metadata *ClientMetadata) (*dto.GetDraftResponse, error)
	ClearDraft(ctx context.Context, customerID uint, metadata *ClientMetadata) (*dto.ClearDraftResponse, error)
}

// DraftFlowImpl implements the draft business flow
type DraftFlowImpl struct {
	draftRepo    repository.CampaignDraftRepository
	customerRepo repository.CustomerRepository
	auditRepo    repository.AuditLogRepository
}

// NewDraftFlow creates a new draft flow instance
func NewDraftFlow(
	draftRepo repository.CampaignDraftRepository,
	customerRepo repository.CustomerRepository,
	auditRepo repository.AuditLogRepository,
) DraftFlow {
	return &DraftFlowImpl{
		draftRepo:    draftRepo,
		customerRepo: customerRepo,
		auditRepo:    auditRepo,
	}
}

// SaveDraft overwrites the customer's draft with the given payload
func (f *DraftFlowImpl) SaveDraft(ctx context.Context, req *dto.SaveDraftRequest, metadata *ClientMetadata) (*dto.SaveDraftResponse, error) {
	customer, err := getCustomer(ctx, f.customerRepo, req.CustomerID)
	if err != nil {
		return nil, NewBusinessError("CUSTOMER_LOOKUP_FAILED", "Failed to lookup customer", err)
	}

	now := utils.UTCNow()
	draft := &models.CampaignDraft{
		CustomerID: customer.ID,
		Payload:    fromDraftPayloadDTO(req.Payload),
		CreatedAt:  now,
		UpdatedAt:  &now,
	}

	if err := f.draftRepo.Upsert(ctx, draft); err != nil {
		errMsg := fmt.Sprintf("Draft save failed: %s", err.Error())
		_ = writeAuditLog(ctx, f.auditRepo, &customer, models.AuditActionDraftSaved, errMsg, false, &errMsg, metadata)

		return nil, NewBusinessError("DRAFT_SAVE_FAILED", "Draft save failed", err)
	}

	_ = writeAuditLog(ctx, f.auditRepo, &customer, models.AuditActionDraftSaved, "Draft saved", true, nil, metadata)

	return &dto.SaveDraftResponse{
		Message:   "Draft saved successfully",
		UpdatedAt: now.Format(time.RFC3339),
	}, nil
}

// GetDraft retrieves the customer's current draft
func (f *DraftFlowImpl) GetDraft(ctx context.Context, customerID uint, metadata *ClientMetadata) (*dto.GetDraftResponse, error) {
	customer, err := getCustomer(ctx, f.customerRepo, customerID)
	if err != nil {
		return nil, NewBusinessError("CUSTOMER_LOOKUP_FAILED", "Failed to lookup customer", err)
	}

	draft, err := f.draftRepo.ByCustomerID(ctx, customer.ID)
	if err != nil {
		return nil, NewBusinessError("DRAFT_LOOKUP_FAILED", "Failed to lookup draft", err)
	}
	if draft == nil {
		return nil, NewBusinessError("DRAFT_NOT_FOUND", "Draft not found", ErrDraftNotFound)
	}

	return &dto.GetDraftResponse{
		Message:   "Draft retrieved successfully",
		Payload:   toDraftPayloadDTO(draft.Payload),
		CreatedAt: draft.CreatedAt,
		UpdatedAt: draft.UpdatedAt,
	}, nil
}

// ClearDraft deletes the customer's draft. Clearing an absent draft succeeds.
func (f *DraftFlowImpl) ClearDraft(ctx context.Context, customerID uint, metadata *ClientMetadata) (*dto.ClearDraftResponse, error) {
	customer, err := getCustomer(ctx, f.customerRepo, customerID)
	if err != nil {
		return nil, NewBusinessError("CUSTOMER_LOOKUP_FAILED", "Failed to lookup customer", err)
	}

	if err := f.draftRepo.DeleteByCustomerID(ctx, customer.ID); err != nil {
		return nil, NewBusinessError("DRAFT_CLEAR_FAILED", "Draft clear failed", err)
	}

	_ = writeAuditLog(ctx, f.auditRepo, &customer, models.AuditActionDraftCleared, "Draft cleared", true, nil, metadata)

	return &dto.ClearDraftResponse{
		Message: "Draft cleared successfully",
	}, nil
}

func fromDraftPayloadDTO(p dto.DraftPayloadDTO) models.DraftPayload {
	targets := make([]models.DraftTarget, 0, len(p.Recipients))
	for _, rec := range p.Recipients {
		targets = append(targets, models.DraftTarget{
			PhoneNumber: rec.PhoneNumber,
			Variables:   rec.Variables,
		})
	}

	return models.DraftPayload{
		Title:           p.Title,
		InboxUUID:       p.InboxUUID,
		Messages:        FromMessageItemDTOs(p.Messages),
		DelayMinMinutes: p.DelayMinMinutes,
		DelayMaxMinutes: p.DelayMaxMinutes,
		RandomizeOrder:  p.RandomizeOrder,
		ScheduledAt:     p.ScheduleAt,
		Window:          FromSendWindowDTO(p.Window),
		Recipients:      targets,
	}
}

func toDraftPayloadDTO(p models.DraftPayload) dto.DraftPayloadDTO {
	recipients := make([]dto.RecipientEntry, 0, len(p.Recipients))
	for _, rec := range p.Recipients {
		recipients = append(recipients, dto.RecipientEntry{
			PhoneNumber: rec.PhoneNumber,
			Variables:   rec.Variables,
		})
	}

	return dto.DraftPayloadDTO{
		Title:           p.Title,
		InboxUUID:       p.InboxUUID,
		Messages:        ToMessageItemDTOs(p.Messages),
		DelayMinMinutes: p.DelayMinMinutes,
		DelayMaxMinutes: p.DelayMaxMinutes,
		RandomizeOrder:  p.RandomizeOrder,
		ScheduleAt:      p.ScheduledAt,
		Window:          ToSendWindowDTO(p.Window),
		Recipients:      recipients,
	}
}
