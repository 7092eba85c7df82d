package repository

import (
	"context"
	"fmt"

	"github.com/amirphl/Susanoo/models"
	"github.com/amirphl/Susanoo/utils"
	"gorm.io/gorm"
)

// WorkspaceRepositoryImpl implements the WorkspaceRepository interface
type WorkspaceRepositoryImpl struct {
	*BaseRepository[models.Workspace, models.WorkspaceFilter]
}

// NewWorkspaceRepository creates a new workspace repository
func NewWorkspaceRepository(db *gorm.DB) WorkspaceRepository {
	return &WorkspaceRepositoryImpl{
		BaseRepository: NewBaseRepository[models.Workspace, models.WorkspaceFilter](db),
	}
}

// ByUUID retrieves a workspace by UUID
func (r *WorkspaceRepositoryImpl) ByUUID(ctx context.Context, uuid string) (*models.Workspace, error) {
	parsedUUID, err := utils.ParseUUID(uuid)
	if err != nil {
		return nil, fmt.Errorf("invalid UUID format: %w", err)
	}

	filter := models.WorkspaceFilter{UUID: &parsedUUID}
	workspaces, err := r.ByFilter(ctx, filter, "", 1, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to find workspace by UUID: %w", err)
	}

	if len(workspaces) == 0 {
		return nil, nil
	}

	return workspaces[0], nil
}

// ByFilter retrieves workspaces based on filter criteria
func (r *WorkspaceRepositoryImpl) ByFilter(ctx context.Context, filter models.WorkspaceFilter, orderBy string, limit, offset int) ([]*models.Workspace, error) {
	db := r.getDB(ctx)

	var workspaces []*models.Workspace
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

	err := query.Find(&workspaces).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find workspaces by filter: %w", err)
	}

	return workspaces, nil
}

// Count returns the number of workspaces matching the filter
func (r *WorkspaceRepositoryImpl) Count(ctx context.Context, filter models.WorkspaceFilter) (int64, error) {
	db := r.getDB(ctx)

	var count int64
	query := r.applyFilter(db.Model(&models.Workspace{}), filter)

	err := query.Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count workspaces: %w", err)
	}

	return count, nil
}

// Exists checks if any workspace matching the filter exists
func (r *WorkspaceRepositoryImpl) Exists(ctx context.Context, filter models.WorkspaceFilter) (bool, error) {
	count, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}

	return count > 0, nil
}

// applyFilter applies filter conditions to the GORM query
func (r *WorkspaceRepositoryImpl) applyFilter(db *gorm.DB, filter models.WorkspaceFilter) *gorm.DB {
	if filter.ID != nil {
		db = db.Where("id = ?", *filter.ID)
	}
	if filter.UUID != nil {
		db = db.Where("uuid = ?", *filter.UUID)
	}
	if filter.Name != nil {
		db = db.Where("name = ?", *filter.Name)
	}
	if filter.IsActive != nil {
		db = db.Where("is_active = ?", *filter.IsActive)
	}

	return db
}
