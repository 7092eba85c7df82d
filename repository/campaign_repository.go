package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/amirphl/Susanoo/models"
	"github.com/amirphl/Susanoo/utils"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

// CampaignRepositoryImpl implements the CampaignRepository interface
type CampaignRepositoryImpl struct {
	*BaseRepository[models.Campaign, models.CampaignFilter]
}

// NewCampaignRepository creates a new campaign repository
func NewCampaignRepository(db *gorm.DB) CampaignRepository {
	return &CampaignRepositoryImpl{
		BaseRepository: NewBaseRepository[models.Campaign, models.CampaignFilter](db),
	}
}

// ByID retrieves a campaign by ID
func (r *CampaignRepositoryImpl) ByID(ctx context.Context, id uint) (*models.Campaign, error) {
	db := r.getDB(ctx)

	var campaign models.Campaign
	err := db.Preload("Inbox").Last(&campaign, id).Error
	if err != nil {
		if err.Error() == "record not found" { // GORM error check
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find campaign by ID %d: %w", id, err)
	}

	return &campaign, nil
}

// ByUUID retrieves a campaign by UUID
func (r *CampaignRepositoryImpl) ByUUID(ctx context.Context, uuid string) (*models.Campaign, error) {
	parsedUUID, err := utils.ParseUUID(uuid)
	if err != nil {
		return nil, fmt.Errorf("invalid UUID format: %w", err)
	}

	filter := models.CampaignFilter{UUID: &parsedUUID}
	campaigns, err := r.ByFilter(ctx, filter, "", 0, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to find campaign by UUID: %w", err)
	}

	if len(campaigns) == 0 {
		return nil, nil
	}

	return campaigns[0], nil
}

// ListByCustomer retrieves campaigns by customer ID with pagination
func (r *CampaignRepositoryImpl) ListByCustomer(ctx context.Context, customerID uint, limit, offset int) ([]*models.Campaign, error) {
	filter := models.CampaignFilter{CustomerID: &customerID}
	return r.ByFilter(ctx, filter, "created_at DESC", limit, offset)
}

// ListByWorkspace retrieves campaigns by workspace ID with pagination
func (r *CampaignRepositoryImpl) ListByWorkspace(ctx context.Context, workspaceID uint, limit, offset int) ([]*models.Campaign, error) {
	filter := models.CampaignFilter{WorkspaceID: &workspaceID}
	return r.ByFilter(ctx, filter, "created_at DESC", limit, offset)
}

// UpdateStatusIf transitions the campaign status only from the listed source
// statuses. The WHERE clause makes concurrent transitions race-safe: exactly
// one caller observes a row change.
func (r *CampaignRepositoryImpl) UpdateStatusIf(ctx context.Context, campaignID uint, to models.CampaignStatus, from ...models.CampaignStatus) (bool, error) {
	db, shouldCommit, err := r.getDBForWrite(ctx)
	if err != nil {
		return false, err
	}

	if shouldCommit {
		defer func() {
			if err != nil {
				db.Rollback()
			} else {
				db.Commit()
			}
		}()
	}

	result := db.Model(&models.Campaign{}).
		Where("id = ? AND status IN ?", campaignID, from).
		Updates(map[string]any{
			"status":     to,
			"updated_at": utils.UTCNow(),
		})

	if result.Error != nil {
		err = fmt.Errorf("failed to update campaign status: %w", result.Error)
		return false, err
	}

	return result.RowsAffected > 0, nil
}

// Schedule moves a pending campaign to scheduled and stamps its due time
func (r *CampaignRepositoryImpl) Schedule(ctx context.Context, campaignID uint, at time.Time) (bool, error) {
	db, shouldCommit, err := r.getDBForWrite(ctx)
	if err != nil {
		return false, err
	}

	if shouldCommit {
		defer func() {
			if err != nil {
				db.Rollback()
			} else {
				db.Commit()
			}
		}()
	}

	result := db.Model(&models.Campaign{}).
		Where("id = ? AND status = ?", campaignID, models.CampaignStatusPending).
		Updates(map[string]any{
			"status":       models.CampaignStatusScheduled,
			"scheduled_at": at,
			"updated_at":   utils.UTCNow(),
		})

	if result.Error != nil {
		err = fmt.Errorf("failed to schedule campaign: %w", result.Error)
		return false, err
	}

	return result.RowsAffected > 0, nil
}

// Pause moves a running campaign to paused and records the reason
func (r *CampaignRepositoryImpl) Pause(ctx context.Context, campaignID uint, reason models.PauseReason, diagnostic *string) (bool, error) {
	db, shouldCommit, err := r.getDBForWrite(ctx)
	if err != nil {
		return false, err
	}

	if shouldCommit {
		defer func() {
			if err != nil {
				db.Rollback()
			} else {
				db.Commit()
			}
		}()
	}

	updates := map[string]any{
		"status":       models.CampaignStatusPaused,
		"pause_reason": reason,
		"updated_at":   utils.UTCNow(),
	}
	if diagnostic != nil {
		updates["diagnostic"] = *diagnostic
	}

	result := db.Model(&models.Campaign{}).
		Where("id = ? AND status = ?", campaignID, models.CampaignStatusRunning).
		Updates(updates)

	if result.Error != nil {
		err = fmt.Errorf("failed to pause campaign: %w", result.Error)
		return false, err
	}

	return result.RowsAffected > 0, nil
}

// Resume moves a paused campaign back to running and clears the pause marker
func (r *CampaignRepositoryImpl) Resume(ctx context.Context, campaignID uint) (bool, error) {
	db, shouldCommit, err := r.getDBForWrite(ctx)
	if err != nil {
		return false, err
	}

	if shouldCommit {
		defer func() {
			if err != nil {
				db.Rollback()
			} else {
				db.Commit()
			}
		}()
	}

	result := db.Model(&models.Campaign{}).
		Where("id = ? AND status = ?", campaignID, models.CampaignStatusPaused).
		Updates(map[string]any{
			"status":       models.CampaignStatusRunning,
			"pause_reason": nil,
			"diagnostic":   nil,
			"updated_at":   utils.UTCNow(),
		})

	if result.Error != nil {
		err = fmt.Errorf("failed to resume campaign: %w", result.Error)
		return false, err
	}

	return result.RowsAffected > 0, nil
}

// SetSendOrder persists the dispatch order exactly once. The IS NULL guard
// keeps a resumed or re-admitted campaign from reshuffling.
func (r *CampaignRepositoryImpl) SetSendOrder(ctx context.Context, campaignID uint, order []int64) (bool, error) {
	db, shouldCommit, err := r.getDBForWrite(ctx)
	if err != nil {
		return false, err
	}

	if shouldCommit {
		defer func() {
			if err != nil {
				db.Rollback()
			} else {
				db.Commit()
			}
		}()
	}

	result := db.Model(&models.Campaign{}).
		Where("id = ? AND send_order IS NULL", campaignID).
		Updates(map[string]any{
			"send_order": pq.Int64Array(order),
			"updated_at": utils.UTCNow(),
		})

	if result.Error != nil {
		err = fmt.Errorf("failed to set campaign send order: %w", result.Error)
		return false, err
	}

	return result.RowsAffected > 0, nil
}

// AdvanceCursor finalizes one recipient attempt and moves the cursor forward.
// Both writes happen in one transaction so a crash can never record an attempt
// without consuming its slot. The cursor guard rejects a stale executor.
func (r *CampaignRepositoryImpl) AdvanceCursor(ctx context.Context, campaignID uint, cursor int, rec RecipientOutcome) (bool, error) {
	db, shouldCommit, err := r.getDBForWrite(ctx)
	if err != nil {
		return false, err
	}

	if shouldCommit {
		defer func() {
			if err != nil {
				db.Rollback()
			} else {
				db.Commit()
			}
		}()
	}

	campaignUpdates := map[string]any{
		"cursor":     gorm.Expr("cursor + 1"),
		"updated_at": utils.UTCNow(),
	}
	recipientStatus := models.RecipientStatusFailed
	if rec.Delivered {
		recipientStatus = models.RecipientStatusSent
		campaignUpdates["sent_count"] = gorm.Expr("sent_count + 1")
	} else {
		campaignUpdates["failed_count"] = gorm.Expr("failed_count + 1")
	}

	result := db.Model(&models.Campaign{}).
		Where("id = ? AND cursor = ?", campaignID, cursor).
		Updates(campaignUpdates)
	if result.Error != nil {
		err = fmt.Errorf("failed to advance campaign cursor: %w", result.Error)
		return false, err
	}
	if result.RowsAffected == 0 {
		return false, nil
	}

	recipientUpdates := map[string]any{
		"status":       recipientStatus,
		"attempted_at": rec.AttemptedAt,
	}
	if rec.ErrorDetail != nil {
		recipientUpdates["error_detail"] = *rec.ErrorDetail
	}
	if rec.ProviderMessageID != nil {
		recipientUpdates["provider_message_id"] = *rec.ProviderMessageID
	}

	err = db.Model(&models.Recipient{}).
		Where("campaign_id = ? AND position = ?", campaignID, rec.Position).
		Updates(recipientUpdates).Error
	if err != nil {
		err = fmt.Errorf("failed to record recipient outcome: %w", err)
		return false, err
	}

	return true, nil
}

// CancelRemaining marks every still-pending recipient of the campaign as cancelled
func (r *CampaignRepositoryImpl) CancelRemaining(ctx context.Context, campaignID uint) (int64, error) {
	db, shouldCommit, err := r.getDBForWrite(ctx)
	if err != nil {
		return 0, err
	}

	if shouldCommit {
		defer func() {
			if err != nil {
				db.Rollback()
			} else {
				db.Commit()
			}
		}()
	}

	result := db.Model(&models.Recipient{}).
		Where("campaign_id = ? AND status = ?", campaignID, models.RecipientStatusPending).
		Update("status", models.RecipientStatusCancelled)

	if result.Error != nil {
		err = fmt.Errorf("failed to cancel remaining recipients: %w", result.Error)
		return 0, err
	}

	return result.RowsAffected, nil
}

// ListDueScheduled retrieves scheduled campaigns whose start time has arrived
func (r *CampaignRepositoryImpl) ListDueScheduled(ctx context.Context, now time.Time, limit int) ([]*models.Campaign, error) {
	status := models.CampaignStatusScheduled
	filter := models.CampaignFilter{Status: &status, ScheduledTo: &now}
	return r.ByFilter(ctx, filter, "scheduled_at ASC", limit, 0)
}

// ListRunning retrieves campaigns currently in the running state
func (r *CampaignRepositoryImpl) ListRunning(ctx context.Context) ([]*models.Campaign, error) {
	status := models.CampaignStatusRunning
	filter := models.CampaignFilter{Status: &status}
	return r.ByFilter(ctx, filter, "id ASC", 0, 0)
}

// ByFilter retrieves campaigns based on filter criteria
func (r *CampaignRepositoryImpl) ByFilter(ctx context.Context, filter models.CampaignFilter, orderBy string, limit, offset int) ([]*models.Campaign, error) {
	db := r.getDB(ctx)

	var campaigns []*models.Campaign
	query := r.applyFilter(db, filter)

	// Apply ordering
	if orderBy != "" {
		query = query.Order(orderBy)
	}

	// Apply pagination
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	// Preload relationships
	query = query.Preload("Inbox")

	err := query.Find(&campaigns).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find campaigns by filter: %w", err)
	}

	return campaigns, nil
}

// Count returns the number of campaigns matching the filter
func (r *CampaignRepositoryImpl) Count(ctx context.Context, filter models.CampaignFilter) (int64, error) {
	db := r.getDB(ctx)

	var count int64
	var campaign models.Campaign
	query := r.applyFilter(db.Model(&campaign), filter)

	err := query.Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count campaigns: %w", err)
	}

	return count, nil
}

// Exists checks if any campaign matching the filter exists
func (r *CampaignRepositoryImpl) Exists(ctx context.Context, filter models.CampaignFilter) (bool, error) {
	count, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}

	return count > 0, nil
}

// applyFilter applies filter conditions to the GORM query
func (r *CampaignRepositoryImpl) applyFilter(db *gorm.DB, filter models.CampaignFilter) *gorm.DB {
	if filter.ID != nil {
		db = db.Where("id = ?", *filter.ID)
	}
	if filter.UUID != nil {
		db = db.Where("uuid = ?", *filter.UUID)
	}
	if filter.CustomerID != nil {
		db = db.Where("customer_id = ?", *filter.CustomerID)
	}
	if filter.WorkspaceID != nil {
		db = db.Where("workspace_id = ?", *filter.WorkspaceID)
	}
	if filter.InboxID != nil {
		db = db.Where("inbox_id = ?", *filter.InboxID)
	}
	if filter.Status != nil {
		db = db.Where("status = ?", *filter.Status)
	}
	if filter.Title != nil {
		db = db.Where("title ILIKE ?", "%"+*filter.Title+"%")
	}
	if filter.CreatedAfter != nil {
		db = db.Where("created_at >= ?", *filter.CreatedAfter)
	}
	if filter.CreatedBefore != nil {
		db = db.Where("created_at <= ?", *filter.CreatedBefore)
	}
	if filter.ScheduledTo != nil {
		db = db.Where("scheduled_at <= ?", *filter.ScheduledTo)
	}

	return db
}
