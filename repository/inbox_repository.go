package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/amirphl/Susanoo/models"
	"github.com/amirphl/Susanoo/utils"
	"gorm.io/gorm"
)

// InboxRepositoryImpl implements the InboxRepository interface
type InboxRepositoryImpl struct {
	*BaseRepository[models.Inbox, models.InboxFilter]
}

// NewInboxRepository creates a new inbox repository
func NewInboxRepository(db *gorm.DB) InboxRepository {
	return &InboxRepositoryImpl{
		BaseRepository: NewBaseRepository[models.Inbox, models.InboxFilter](db),
	}
}

// ByUUID retrieves an inbox by UUID
func (r *InboxRepositoryImpl) ByUUID(ctx context.Context, uuid string) (*models.Inbox, error) {
	parsedUUID, err := utils.ParseUUID(uuid)
	if err != nil {
		return nil, fmt.Errorf("invalid UUID format: %w", err)
	}

	filter := models.InboxFilter{UUID: &parsedUUID}
	inboxes, err := r.ByFilter(ctx, filter, "", 1, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to find inbox by UUID: %w", err)
	}

	if len(inboxes) == 0 {
		return nil, nil
	}

	return inboxes[0], nil
}

// ListByWorkspace retrieves all inboxes of a workspace
func (r *InboxRepositoryImpl) ListByWorkspace(ctx context.Context, workspaceID uint) ([]*models.Inbox, error) {
	filter := models.InboxFilter{WorkspaceID: &workspaceID}
	return r.ByFilter(ctx, filter, "created_at ASC", 0, 0)
}

// UpdateConnectionStatus records the latest connection state reported by the
// messaging provider
func (r *InboxRepositoryImpl) UpdateConnectionStatus(ctx context.Context, inboxID uint, status models.InboxStatus, seenAt time.Time) error {
	db, shouldCommit, err := r.getDBForWrite(ctx)
	if err != nil {
		return err
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

	err = db.Model(&models.Inbox{}).
		Where("id = ?", inboxID).
		Updates(map[string]any{
			"status":       status,
			"last_seen_at": seenAt,
			"updated_at":   utils.UTCNow(),
		}).Error
	if err != nil {
		err = fmt.Errorf("failed to update inbox connection status: %w", err)
		return err
	}

	return nil
}

// ByFilter retrieves inboxes based on filter criteria
func (r *InboxRepositoryImpl) ByFilter(ctx context.Context, filter models.InboxFilter, orderBy string, limit, offset int) ([]*models.Inbox, error) {
	db := r.getDB(ctx)

	var inboxes []*models.Inbox
	query := r.applyFilter(db, filter)

	if orderBy != "" {
		query = query.Order(orderBy)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	err := query.Find(&inboxes).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find inboxes by filter: %w", err)
	}

	return inboxes, nil
}

// Count returns the number of inboxes matching the filter
func (r *InboxRepositoryImpl) Count(ctx context.Context, filter models.InboxFilter) (int64, error) {
	db := r.getDB(ctx)

	var count int64
	query := r.applyFilter(db.Model(&models.Inbox{}), filter)

	err := query.Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count inboxes: %w", err)
	}

	return count, nil
}

// Exists checks if any inbox matching the filter exists
func (r *InboxRepositoryImpl) Exists(ctx context.Context, filter models.InboxFilter) (bool, error) {
	count, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}

	return count > 0, nil
}

// applyFilter applies filter conditions to the GORM query
func (r *InboxRepositoryImpl) applyFilter(db *gorm.DB, filter models.InboxFilter) *gorm.DB {
	if filter.ID != nil {
		db = db.Where("id = ?", *filter.ID)
	}
	if filter.UUID != nil {
		db = db.Where("uuid = ?", *filter.UUID)
	}
	if filter.WorkspaceID != nil {
		db = db.Where("workspace_id = ?", *filter.WorkspaceID)
	}
	if filter.Status != nil {
		db = db.Where("status = ?", *filter.Status)
	}

	return db
}
