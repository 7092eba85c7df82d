package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/amirphl/Susanoo/models"
	"gorm.io/gorm"
)

// RecipientRepositoryImpl implements the RecipientRepository interface
type RecipientRepositoryImpl struct {
	*BaseRepository[models.Recipient, models.RecipientFilter]
}

// NewRecipientRepository creates a new recipient repository
func NewRecipientRepository(db *gorm.DB) RecipientRepository {
	return &RecipientRepositoryImpl{
		BaseRepository: NewBaseRepository[models.Recipient, models.RecipientFilter](db),
	}
}

// ListByCampaign retrieves all recipients of a campaign ordered by position
func (r *RecipientRepositoryImpl) ListByCampaign(ctx context.Context, campaignID uint) ([]*models.Recipient, error) {
	filter := models.RecipientFilter{CampaignID: &campaignID}
	return r.ByFilter(ctx, filter, "position ASC", 0, 0)
}

// ByCampaignAndPosition retrieves one recipient of a campaign by its position
func (r *RecipientRepositoryImpl) ByCampaignAndPosition(ctx context.Context, campaignID uint, position int) (*models.Recipient, error) {
	db := r.getDB(ctx)

	var recipient models.Recipient
	err := db.Where("campaign_id = ? AND position = ?", campaignID, position).
		First(&recipient).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find recipient at position %d: %w", position, err)
	}

	return &recipient, nil
}

// CountByStatus counts recipients of a campaign in the given status
func (r *RecipientRepositoryImpl) CountByStatus(ctx context.Context, campaignID uint, status models.RecipientStatus) (int64, error) {
	filter := models.RecipientFilter{CampaignID: &campaignID, Status: &status}
	return r.Count(ctx, filter)
}

// ByFilter retrieves recipients based on filter criteria
func (r *RecipientRepositoryImpl) ByFilter(ctx context.Context, filter models.RecipientFilter, orderBy string, limit, offset int) ([]*models.Recipient, error) {
	db := r.getDB(ctx)

	var recipients []*models.Recipient
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

	err := query.Find(&recipients).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find recipients by filter: %w", err)
	}

	return recipients, nil
}

// Count returns the number of recipients matching the filter
func (r *RecipientRepositoryImpl) Count(ctx context.Context, filter models.RecipientFilter) (int64, error) {
	db := r.getDB(ctx)

	var count int64
	query := r.applyFilter(db.Model(&models.Recipient{}), filter)

	err := query.Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count recipients: %w", err)
	}

	return count, nil
}

// Exists checks if any recipient matching the filter exists
func (r *RecipientRepositoryImpl) Exists(ctx context.Context, filter models.RecipientFilter) (bool, error) {
	count, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}

	return count > 0, nil
}

// applyFilter applies filter conditions to the GORM query
func (r *RecipientRepositoryImpl) applyFilter(db *gorm.DB, filter models.RecipientFilter) *gorm.DB {
	if filter.ID != nil {
		db = db.Where("id = ?", *filter.ID)
	}
	if filter.CampaignID != nil {
		db = db.Where("campaign_id = ?", *filter.CampaignID)
	}
	if filter.Status != nil {
		db = db.Where("status = ?", *filter.Status)
	}
	if filter.Phone != nil {
		db = db.Where("phone_number = ?", *filter.Phone)
	}

	return db
}
