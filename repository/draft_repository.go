package repository

import (
	"context"
	"fmt"

	"github.com/amirphl/Susanoo/models"
	"github.com/amirphl/Susanoo/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CampaignDraftRepositoryImpl implements the CampaignDraftRepository interface
type CampaignDraftRepositoryImpl struct {
	*BaseRepository[models.CampaignDraft, models.CampaignDraftFilter]
}

// NewCampaignDraftRepository creates a new campaign draft repository
func NewCampaignDraftRepository(db *gorm.DB) CampaignDraftRepository {
	return &CampaignDraftRepositoryImpl{
		BaseRepository: NewBaseRepository[models.CampaignDraft, models.CampaignDraftFilter](db),
	}
}

// ByCustomerID retrieves the draft of a customer, nil when none is saved
func (r *CampaignDraftRepositoryImpl) ByCustomerID(ctx context.Context, customerID uint) (*models.CampaignDraft, error) {
	filter := models.CampaignDraftFilter{CustomerID: &customerID}
	drafts, err := r.ByFilter(ctx, filter, "", 1, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to find draft by customer: %w", err)
	}

	if len(drafts) == 0 {
		return nil, nil
	}

	return drafts[0], nil
}

// Upsert saves the draft, replacing any previous draft of the same customer.
// Each customer holds at most one draft; the unique index on customer_id
// backs the ON CONFLICT clause.
func (r *CampaignDraftRepositoryImpl) Upsert(ctx context.Context, draft *models.CampaignDraft) error {
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

	err = db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "customer_id"}},
		DoUpdates: clause.Assignments(map[string]any{
			"payload":    clause.Expr{SQL: "EXCLUDED.payload"},
			"updated_at": utils.UTCNow(),
		}),
	}).Create(draft).Error
	if err != nil {
		err = fmt.Errorf("failed to upsert campaign draft: %w", err)
		return err
	}

	return nil
}

// DeleteByCustomerID removes the draft of a customer, if any
func (r *CampaignDraftRepositoryImpl) DeleteByCustomerID(ctx context.Context, customerID uint) error {
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

	err = db.Where("customer_id = ?", customerID).
		Delete(&models.CampaignDraft{}).Error
	if err != nil {
		err = fmt.Errorf("failed to delete campaign draft: %w", err)
		return err
	}

	return nil
}

// ByFilter retrieves campaign drafts based on filter criteria
func (r *CampaignDraftRepositoryImpl) ByFilter(ctx context.Context, filter models.CampaignDraftFilter, orderBy string, limit, offset int) ([]*models.CampaignDraft, error) {
	db := r.getDB(ctx)

	var drafts []*models.CampaignDraft
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

	err := query.Find(&drafts).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find drafts by filter: %w", err)
	}

	return drafts, nil
}

// Count returns the number of campaign drafts matching the filter
func (r *CampaignDraftRepositoryImpl) Count(ctx context.Context, filter models.CampaignDraftFilter) (int64, error) {
	db := r.getDB(ctx)

	var count int64
	query := r.applyFilter(db.Model(&models.CampaignDraft{}), filter)

	err := query.Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count drafts: %w", err)
	}

	return count, nil
}

// Exists checks if any campaign draft matching the filter exists
func (r *CampaignDraftRepositoryImpl) Exists(ctx context.Context, filter models.CampaignDraftFilter) (bool, error) {
	count, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}

	return count > 0, nil
}

// applyFilter applies filter conditions to the GORM query
func (r *CampaignDraftRepositoryImpl) applyFilter(db *gorm.DB, filter models.CampaignDraftFilter) *gorm.DB {
	if filter.ID != nil {
		db = db.Where("id = ?", *filter.ID)
	}
	if filter.CustomerID != nil {
		db = db.Where("customer_id = ?", *filter.CustomerID)
	}

	return db
}
