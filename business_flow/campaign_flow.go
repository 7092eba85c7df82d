// Package businessflow contains the core business logic and use cases for campaign workflows
package businessflow

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/amirphl/Susanoo/app/dto"
	"github.com/amirphl/Susanoo/app/scheduler"
	"github.com/amirphl/Susanoo/models"
	"github.com/amirphl/Susanoo/repository"
	"github.com/amirphl/Susanoo/utils"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ExecutorResumer admits a resumed campaign for execution without waiting for
// the next supervisor scan. The scan re-admits on its own, so a failed call
// here only delays the restart.
type ExecutorResumer interface {
	ResumeNow(ctx context.Context, campaignID uint) error
}

// CampaignFlow handles the campaign business logic
type CampaignFlow interface {
	CreateCampaign(ctx context.Context, req *dto.CreateCampaignRequest, metadata *ClientMetadata) (*dto.CreateCampaignResponse, error)
	GetCampaign(ctx context.Context, req *dto.GetCampaignRequest, metadata *ClientMetadata) (*dto.GetCampaignResponse, error)
	ListCampaigns(ctx context.Context, req *dto.ListCampaignsRequest, metadata *ClientMetadata) (*dto.ListCampaignsResponse, error)
	StartCampaign(ctx context.Context, req *dto.StartCampaignRequest, metadata *ClientMetadata) (*dto.StartCampaignResponse, error)
	PauseCampaign(ctx context.Context, req *dto.PauseCampaignRequest, metadata *ClientMetadata) (*dto.PauseCampaignResponse, error)
	ResumeCampaign(ctx context.Context, req *dto.ResumeCampaignRequest, metadata *ClientMetadata) (*dto.ResumeCampaignResponse, error)
	CancelCampaign(ctx context.Context, req *dto.CancelCampaignRequest, metadata *ClientMetadata) (*dto.CancelCampaignResponse, error)
	GetCampaignProgress(ctx context.Context, req *dto.GetCampaignRequest, metadata *ClientMetadata) (*dto.CampaignProgressResponse, error)
	ListRecipients(ctx context.Context, req *dto.ListRecipientsRequest, metadata *ClientMetadata) (*dto.ListRecipientsResponse, error)
}

// CampaignFlowImpl implements the campaign business flow
type CampaignFlowImpl struct {
	campaignRepo  repository.CampaignRepository
	recipientRepo repository.RecipientRepository
	customerRepo  repository.CustomerRepository
	inboxRepo     repository.InboxRepository
	draftRepo     repository.CampaignDraftRepository
	auditRepo     repository.AuditLogRepository
	resumer       ExecutorResumer
	db            *gorm.DB
}

// NewCampaignFlow creates a new campaign flow instance
func NewCampaignFlow(
	campaignRepo repository.CampaignRepository,
	recipientRepo repository.RecipientRepository,
	customerRepo repository.CustomerRepository,
	inboxRepo repository.InboxRepository,
	draftRepo repository.CampaignDraftRepository,
	auditRepo repository.AuditLogRepository,
	resumer ExecutorResumer,
	db *gorm.DB,
) CampaignFlow {
	return &CampaignFlowImpl{
		campaignRepo:  campaignRepo,
		recipientRepo: recipientRepo,
		customerRepo:  customerRepo,
		inboxRepo:     inboxRepo,
		draftRepo:     draftRepo,
		auditRepo:     auditRepo,
		resumer:       resumer,
		db:            db,
	}
}

// CreateCampaign validates the full campaign configuration, materializes the
// recipient rows, and drops the customer's draft. The campaign starts in
// pending and sends nothing until started.
func (s *CampaignFlowImpl) CreateCampaign(ctx context.Context, req *dto.CreateCampaignRequest, metadata *ClientMetadata) (*dto.CreateCampaignResponse, error) {
	// Validate business rules
	if err := s.validateCreateCampaignRequest(req); err != nil {
		return nil, NewBusinessError("CAMPAIGN_VALIDATION_FAILED", "Campaign validation failed", err)
	}

	customer, err := getCustomer(ctx, s.customerRepo, req.CustomerID)
	if err != nil {
		return nil, NewBusinessError("CUSTOMER_LOOKUP_FAILED", "Failed to lookup customer", err)
	}

	inbox, err := s.inboxRepo.ByUUID(ctx, req.InboxUUID)
	if err != nil {
		return nil, NewBusinessError("INBOX_LOOKUP_FAILED", "Failed to lookup inbox", err)
	}
	if inbox == nil {
		return nil, NewBusinessError("INBOX_NOT_FOUND", "Inbox not found", ErrInboxNotFound)
	}
	if inbox.WorkspaceID != customer.WorkspaceID {
		return nil, NewBusinessError("INBOX_ACCESS_DENIED", "Inbox belongs to another workspace", ErrInboxAccessDenied)
	}

	// Use transaction for atomicity
	var campaign *models.Campaign

	err = repository.WithTransaction(ctx, s.db, func(txCtx context.Context) error {
		var err error
		campaign, err = s.createCampaign(txCtx, req, &customer, inbox)
		if err != nil {
			return err
		}

		// Committing the configuration consumes the draft it came from
		return s.draftRepo.DeleteByCustomerID(txCtx, req.CustomerID)
	})

	if err != nil {
		errMsg := fmt.Sprintf("Campaign creation failed: %s", err.Error())
		_ = s.createAuditLog(ctx, &customer, models.AuditActionCampaignCreated, errMsg, false, &errMsg, metadata)

		return nil, NewBusinessError("CAMPAIGN_CREATION_FAILED", "Campaign creation failed", err)
	}

	// Log successful creation
	msg := fmt.Sprintf("Campaign created successfully: %s", campaign.UUID.String())
	_ = s.createAuditLog(ctx, &customer, models.AuditActionCampaignCreated, msg, true, nil, metadata)

	response := &dto.CreateCampaignResponse{
		Message:         "Campaign created successfully",
		UUID:            campaign.UUID.String(),
		Status:          campaign.Status.String(),
		TotalRecipients: campaign.TotalRecipients,
		CreatedAt:       campaign.CreatedAt.Format(time.RFC3339),
	}

	return response, nil
}

// GetCampaign retrieves one campaign owned by the caller
func (s *CampaignFlowImpl) GetCampaign(ctx context.Context, req *dto.GetCampaignRequest, metadata *ClientMetadata) (*dto.GetCampaignResponse, error) {
	customer, err := getCustomer(ctx, s.customerRepo, req.CustomerID)
	if err != nil {
		return nil, NewBusinessError("CUSTOMER_LOOKUP_FAILED", "Failed to lookup customer", err)
	}

	campaign, err := s.getOwnedCampaign(ctx, req.UUID, customer.ID)
	if err != nil {
		return nil, err
	}

	response := ToCampaignResponse(campaign)
	return &response, nil
}

// ListCampaigns retrieves the caller's campaigns with pagination, ordering and filters
func (s *CampaignFlowImpl) ListCampaigns(ctx context.Context, req *dto.ListCampaignsRequest, metadata *ClientMetadata) (*dto.ListCampaignsResponse, error) {
	_, err := getCustomer(ctx, s.customerRepo, req.CustomerID)
	if err != nil {
		return nil, NewBusinessError("CUSTOMER_LOOKUP_FAILED", "Failed to lookup customer", err)
	}

	// Normalize pagination
	page := req.Page
	if page < 1 {
		page = 1
	}
	limit := req.Limit
	if limit <= 0 {
		limit = 10
	}
	if limit > 100 {
		limit = 100
	}
	offset := (page - 1) * limit

	// Build filter
	filter := models.CampaignFilter{CustomerID: &req.CustomerID}
	if req.Filter != nil {
		if req.Filter.Title != nil && *req.Filter.Title != "" {
			filter.Title = req.Filter.Title
		}
		if req.Filter.Status != nil && *req.Filter.Status != "" {
			status := models.CampaignStatus(*req.Filter.Status)
			if status.Valid() {
				filter.Status = &status
			}
		}
	}

	// Order by
	orderBy := "created_at DESC"
	switch req.OrderBy {
	case "oldest":
		orderBy = "created_at ASC"
	case "newest":
		orderBy = "created_at DESC"
	}

	total64, err := s.campaignRepo.Count(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to count campaigns: %w", err)
	}

	items, err := s.campaignRepo.ByFilter(ctx, filter, orderBy, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list campaigns: %w", err)
	}

	respItems := make([]dto.GetCampaignResponse, 0, len(items))
	for _, c := range items {
		respItems = append(respItems, ToCampaignResponse(c))
	}

	totalPages := int((total64 + int64(limit) - 1) / int64(limit))

	return &dto.ListCampaignsResponse{
		Message:    "Campaigns retrieved successfully",
		Items:      respItems,
		Pagination: dto.PaginationInfo{Total: total64, Page: page, Limit: limit, TotalPages: totalPages},
	}, nil
}

// StartCampaign schedules a pending campaign for execution. Without an
// explicit schedule time the campaign becomes due immediately and the next
// supervisor scan picks it up.
func (s *CampaignFlowImpl) StartCampaign(ctx context.Context, req *dto.StartCampaignRequest, metadata *ClientMetadata) (*dto.StartCampaignResponse, error) {
	customer, err := getCustomer(ctx, s.customerRepo, req.CustomerID)
	if err != nil {
		return nil, NewBusinessError("CUSTOMER_LOOKUP_FAILED", "Failed to lookup customer", err)
	}

	campaign, err := s.getOwnedCampaign(ctx, req.UUID, customer.ID)
	if err != nil {
		return nil, err
	}

	now := utils.UTCNow()
	scheduleAt := now
	switch {
	case req.ScheduleAt != nil:
		if req.ScheduleAt.Before(now) {
			return nil, NewBusinessError("SCHEDULE_TIME_IN_PAST", "Schedule time cannot be in the past", ErrScheduleTimeInPast)
		}
		scheduleAt = req.ScheduleAt.UTC()
	case campaign.ScheduledAt != nil:
		scheduleAt = campaign.ScheduledAt.UTC()
	}

	moved, err := s.campaignRepo.Schedule(ctx, campaign.ID, scheduleAt)
	if err != nil {
		errMsg := fmt.Sprintf("Campaign start failed: %s", err.Error())
		_ = s.createAuditLog(ctx, &customer, models.AuditActionCampaignStarted, errMsg, false, &errMsg, metadata)

		return nil, NewBusinessError("CAMPAIGN_START_FAILED", "Campaign start failed", err)
	}
	if !moved {
		return nil, NewBusinessError("CAMPAIGN_NOT_PENDING", "Only pending campaigns can be started", ErrCampaignNotPending)
	}

	msg := fmt.Sprintf("Campaign scheduled: %s at %s", campaign.UUID.String(), scheduleAt.Format(time.RFC3339))
	_ = s.createAuditLog(ctx, &customer, models.AuditActionCampaignStarted, msg, true, nil, metadata)

	return &dto.StartCampaignResponse{
		Message:     "Campaign scheduled successfully",
		Status:      models.CampaignStatusScheduled.String(),
		ScheduledAt: scheduleAt,
	}, nil
}

// PauseCampaign asks a running campaign to stop sending. The executor
// observes the new status within its poll interval; messages already
// dispatched are unaffected.
func (s *CampaignFlowImpl) PauseCampaign(ctx context.Context, req *dto.PauseCampaignRequest, metadata *ClientMetadata) (*dto.PauseCampaignResponse, error) {
	customer, err := getCustomer(ctx, s.customerRepo, req.CustomerID)
	if err != nil {
		return nil, NewBusinessError("CUSTOMER_LOOKUP_FAILED", "Failed to lookup customer", err)
	}

	campaign, err := s.getOwnedCampaign(ctx, req.UUID, customer.ID)
	if err != nil {
		return nil, err
	}

	paused, err := s.campaignRepo.Pause(ctx, campaign.ID, models.PauseReasonUserRequested, nil)
	if err != nil {
		return nil, NewBusinessError("CAMPAIGN_PAUSE_FAILED", "Campaign pause failed", err)
	}
	if !paused {
		return nil, NewBusinessError("CAMPAIGN_NOT_RUNNING", "Only running campaigns can be paused", ErrCampaignNotRunning)
	}

	msg := fmt.Sprintf("Campaign paused: %s", campaign.UUID.String())
	_ = s.createAuditLog(ctx, &customer, models.AuditActionCampaignPaused, msg, true, nil, metadata)

	return &dto.PauseCampaignResponse{
		Message: "Campaign paused successfully",
		Status:  models.CampaignStatusPaused.String(),
	}, nil
}

// ResumeCampaign moves a paused campaign back to running. The send order and
// cursor survive the pause, so dispatch continues exactly where it stopped.
func (s *CampaignFlowImpl) ResumeCampaign(ctx context.Context, req *dto.ResumeCampaignRequest, metadata *ClientMetadata) (*dto.ResumeCampaignResponse, error) {
	customer, err := getCustomer(ctx, s.customerRepo, req.CustomerID)
	if err != nil {
		return nil, NewBusinessError("CUSTOMER_LOOKUP_FAILED", "Failed to lookup customer", err)
	}

	campaign, err := s.getOwnedCampaign(ctx, req.UUID, customer.ID)
	if err != nil {
		return nil, err
	}

	resumed, err := s.campaignRepo.Resume(ctx, campaign.ID)
	if err != nil {
		return nil, NewBusinessError("CAMPAIGN_RESUME_FAILED", "Campaign resume failed", err)
	}
	if !resumed {
		return nil, NewBusinessError("CAMPAIGN_NOT_PAUSED", "Only paused campaigns can be resumed", ErrCampaignNotPaused)
	}

	// The supervisor scan would re-admit the campaign on its own; asking
	// directly just skips the wait.
	if s.resumer != nil {
		_ = s.resumer.ResumeNow(ctx, campaign.ID)
	}

	msg := fmt.Sprintf("Campaign resumed: %s", campaign.UUID.String())
	_ = s.createAuditLog(ctx, &customer, models.AuditActionCampaignResumed, msg, true, nil, metadata)

	return &dto.ResumeCampaignResponse{
		Message: "Campaign resumed successfully",
		Status:  models.CampaignStatusRunning.String(),
	}, nil
}

// CancelCampaign terminally stops a campaign from any non-terminal state and
// marks every recipient the executor never reached as cancelled
func (s *CampaignFlowImpl) CancelCampaign(ctx context.Context, req *dto.CancelCampaignRequest, metadata *ClientMetadata) (*dto.CancelCampaignResponse, error) {
	customer, err := getCustomer(ctx, s.customerRepo, req.CustomerID)
	if err != nil {
		return nil, NewBusinessError("CUSTOMER_LOOKUP_FAILED", "Failed to lookup customer", err)
	}

	campaign, err := s.getOwnedCampaign(ctx, req.UUID, customer.ID)
	if err != nil {
		return nil, err
	}

	var cancelled int64

	err = repository.WithTransaction(ctx, s.db, func(txCtx context.Context) error {
		moved, err := s.campaignRepo.UpdateStatusIf(txCtx, campaign.ID, models.CampaignStatusCancelled,
			models.CampaignStatusPending, models.CampaignStatusScheduled,
			models.CampaignStatusRunning, models.CampaignStatusPaused)
		if err != nil {
			return err
		}
		if !moved {
			return ErrCampaignAlreadyFinished
		}

		cancelled, err = s.campaignRepo.CancelRemaining(txCtx, campaign.ID)
		return err
	})

	if err != nil {
		errMsg := fmt.Sprintf("Campaign cancel failed: %s", err.Error())
		_ = s.createAuditLog(ctx, &customer, models.AuditActionCampaignCancelled, errMsg, false, &errMsg, metadata)

		return nil, NewBusinessError("CAMPAIGN_CANCEL_FAILED", "Campaign cancel failed", err)
	}

	msg := fmt.Sprintf("Campaign cancelled: %s (%d recipients untouched)", campaign.UUID.String(), cancelled)
	_ = s.createAuditLog(ctx, &customer, models.AuditActionCampaignCancelled, msg, true, nil, metadata)

	return &dto.CancelCampaignResponse{
		Message:             "Campaign cancelled successfully",
		Status:              models.CampaignStatusCancelled.String(),
		CancelledRecipients: cancelled,
	}, nil
}

// GetCampaignProgress reports cursor position and delivery counters
func (s *CampaignFlowImpl) GetCampaignProgress(ctx context.Context, req *dto.GetCampaignRequest, metadata *ClientMetadata) (*dto.CampaignProgressResponse, error) {
	customer, err := getCustomer(ctx, s.customerRepo, req.CustomerID)
	if err != nil {
		return nil, NewBusinessError("CUSTOMER_LOOKUP_FAILED", "Failed to lookup customer", err)
	}

	campaign, err := s.getOwnedCampaign(ctx, req.UUID, customer.ID)
	if err != nil {
		return nil, err
	}

	response := &dto.CampaignProgressResponse{
		Message:         "Campaign progress retrieved successfully",
		UUID:            campaign.UUID.String(),
		Status:          campaign.Status.String(),
		Cursor:          campaign.Cursor,
		TotalRecipients: campaign.TotalRecipients,
		SentCount:       campaign.SentCount,
		FailedCount:     campaign.FailedCount,
		Remaining:       campaign.RemainingRecipients(),
		Diagnostic:      campaign.Diagnostic,
	}
	if campaign.PauseReason != nil {
		reason := campaign.PauseReason.String()
		response.PauseReason = &reason
	}

	return response, nil
}

// ListRecipients retrieves the recipients of one campaign with pagination
func (s *CampaignFlowImpl) ListRecipients(ctx context.Context, req *dto.ListRecipientsRequest, metadata *ClientMetadata) (*dto.ListRecipientsResponse, error) {
	customer, err := getCustomer(ctx, s.customerRepo, req.CustomerID)
	if err != nil {
		return nil, NewBusinessError("CUSTOMER_LOOKUP_FAILED", "Failed to lookup customer", err)
	}

	campaign, err := s.getOwnedCampaign(ctx, req.UUID, customer.ID)
	if err != nil {
		return nil, err
	}

	page := req.Page
	if page < 1 {
		page = 1
	}
	limit := req.Limit
	if limit <= 0 {
		limit = 50
	}
	if limit > 500 {
		limit = 500
	}
	offset := (page - 1) * limit

	filter := models.RecipientFilter{CampaignID: &campaign.ID}
	if req.Status != nil && *req.Status != "" {
		status := models.RecipientStatus(*req.Status)
		if !status.Valid() {
			return nil, NewBusinessError("RECIPIENT_STATUS_UNKNOWN", "Unknown recipient status filter", ErrRecipientStatusUnknown)
		}
		filter.Status = &status
	}

	total64, err := s.recipientRepo.Count(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to count recipients: %w", err)
	}

	items, err := s.recipientRepo.ByFilter(ctx, filter, "position ASC", limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list recipients: %w", err)
	}

	respItems := make([]dto.RecipientView, 0, len(items))
	for _, r := range items {
		respItems = append(respItems, dto.RecipientView{
			Position:          r.Position,
			PhoneNumber:       r.PhoneNumber,
			Variables:         r.Variables,
			Status:            r.Status.String(),
			AttemptedAt:       r.AttemptedAt,
			ErrorDetail:       r.ErrorDetail,
			ProviderMessageID: r.ProviderMessageID,
		})
	}

	totalPages := int((total64 + int64(limit) - 1) / int64(limit))

	return &dto.ListRecipientsResponse{
		Message:    "Recipients retrieved successfully",
		Items:      respItems,
		Pagination: dto.PaginationInfo{Total: total64, Page: page, Limit: limit, TotalPages: totalPages},
	}, nil
}

// validateCreateCampaignRequest validates the campaign creation request
func (s *CampaignFlowImpl) validateCreateCampaignRequest(req *dto.CreateCampaignRequest) error {
	if req.CustomerID == 0 {
		return fmt.Errorf("customer ID is required")
	}
	if strings.TrimSpace(req.Title) == "" {
		return ErrCampaignTitleRequired
	}
	if strings.TrimSpace(req.InboxUUID) == "" {
		return ErrInboxUUIDRequired
	}

	if len(req.Messages) == 0 {
		return ErrCampaignMessagesRequired
	}
	if len(req.Messages) > utils.MaxMessageItems {
		return ErrTooManyMessages
	}
	for i, item := range req.Messages {
		switch models.MessageKind(item.Kind) {
		case models.MessageKindText:
			if strings.TrimSpace(item.Text) == "" {
				return fmt.Errorf("message %d: %w", i, ErrMessageTextRequired)
			}
		case models.MessageKindMedia:
			if strings.TrimSpace(item.MediaURL) == "" {
				return fmt.Errorf("message %d: %w", i, ErrMessageMediaURLRequired)
			}
		default:
			return fmt.Errorf("message %d: unknown kind %q", i, item.Kind)
		}
	}

	if req.DelayMinMinutes < utils.MinDelayMinutes || req.DelayMaxMinutes > utils.MaxDelayMinutes ||
		req.DelayMinMinutes > req.DelayMaxMinutes {
		return ErrDelayBoundsInvalid
	}

	if len(req.Recipients) == 0 {
		return ErrRecipientsRequired
	}
	if len(req.Recipients) > utils.MaxRecipientsPerCampaign {
		return ErrTooManyRecipients
	}
	for i, rec := range req.Recipients {
		if strings.TrimSpace(rec.PhoneNumber) == "" {
			return fmt.Errorf("recipient %d: %w", i, ErrRecipientPhoneRequired)
		}
	}

	// A present but unsatisfiable window would park the executor forever, so
	// it is rejected at the door
	if req.Window != nil {
		if err := scheduler.ValidateWindow(FromSendWindowDTO(req.Window)); err != nil {
			return fmt.Errorf("%w: %v", ErrEmptySendWindow, err)
		}
	}

	if req.ScheduleAt != nil && req.ScheduleAt.Before(utils.UTCNow()) {
		return ErrScheduleTimeInPast
	}

	return nil
}

// createCampaign persists the campaign and its recipient rows
func (s *CampaignFlowImpl) createCampaign(ctx context.Context, req *dto.CreateCampaignRequest, customer *models.Customer, inbox *models.Inbox) (*models.Campaign, error) {
	var scheduledAt *time.Time
	if req.ScheduleAt != nil {
		at := req.ScheduleAt.UTC()
		scheduledAt = &at
	}

	campaign := &models.Campaign{
		UUID:            uuid.New(),
		CustomerID:      customer.ID,
		WorkspaceID:     customer.WorkspaceID,
		InboxID:         inbox.ID,
		Title:           strings.TrimSpace(req.Title),
		Status:          models.CampaignStatusPending,
		Messages:        FromMessageItemDTOs(req.Messages),
		DelayMinMinutes: req.DelayMinMinutes,
		DelayMaxMinutes: req.DelayMaxMinutes,
		RandomizeOrder:  req.RandomizeOrder,
		ScheduledAt:     scheduledAt,
		Window:          FromSendWindowDTO(req.Window),
		TotalRecipients: len(req.Recipients),
		CreatedAt:       utils.UTCNow(),
	}

	if err := s.campaignRepo.Save(ctx, campaign); err != nil {
		return nil, fmt.Errorf("failed to save campaign to database: %w", err)
	}

	// Positions are assigned in request order; the send order decided at
	// first run indexes into these positions
	recipients := make([]*models.Recipient, 0, len(req.Recipients))
	for i, rec := range req.Recipients {
		recipients = append(recipients, &models.Recipient{
			CampaignID:  campaign.ID,
			Position:    i,
			PhoneNumber: strings.TrimSpace(rec.PhoneNumber),
			Variables:   rec.Variables,
			Status:      models.RecipientStatusPending,
			CreatedAt:   utils.UTCNow(),
		})
	}

	if err := s.recipientRepo.SaveBatch(ctx, recipients); err != nil {
		return nil, fmt.Errorf("failed to save campaign recipients: %w", err)
	}

	return campaign, nil
}

// getOwnedCampaign loads a campaign and verifies the caller owns it
func (s *CampaignFlowImpl) getOwnedCampaign(ctx context.Context, campaignUUID string, customerID uint) (*models.Campaign, error) {
	if campaignUUID == "" {
		return nil, NewBusinessError("CAMPAIGN_UUID_REQUIRED", "Campaign UUID is required", ErrCampaignUUIDRequired)
	}

	campaign, err := s.campaignRepo.ByUUID(ctx, campaignUUID)
	if err != nil {
		return nil, NewBusinessError("CAMPAIGN_LOOKUP_FAILED", "Failed to lookup campaign", err)
	}
	if campaign == nil {
		return nil, NewBusinessError("CAMPAIGN_NOT_FOUND", "Campaign not found", ErrCampaignNotFound)
	}
	if campaign.CustomerID != customerID {
		return nil, NewBusinessError("CAMPAIGN_ACCESS_DENIED", "Access denied: campaign belongs to another customer", ErrCampaignAccessDenied)
	}

	return campaign, nil
}

// createAuditLog creates an audit log entry for the campaign operation
func (s *CampaignFlowImpl) createAuditLog(ctx context.Context, customer *models.Customer, action, description string, success bool, errorMsg *string, metadata *ClientMetadata) error {
	return writeAuditLog(ctx, s.auditRepo, customer, action, description, success, errorMsg, metadata)
}
