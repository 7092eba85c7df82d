package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/amirphl/Susanoo/models"
	"github.com/amirphl/Susanoo/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// QuotaLedgerRepositoryImpl implements the QuotaLedgerRepository interface
type QuotaLedgerRepositoryImpl struct {
	*BaseRepository[models.QuotaLedger, models.QuotaLedgerFilter]
}

// NewQuotaLedgerRepository creates a new quota ledger repository
func NewQuotaLedgerRepository(db *gorm.DB) QuotaLedgerRepository {
	return &QuotaLedgerRepositoryImpl{
		BaseRepository: NewBaseRepository[models.QuotaLedger, models.QuotaLedgerFilter](db),
	}
}

// ByWorkspaceID retrieves the ledger row for a workspace
func (r *QuotaLedgerRepositoryImpl) ByWorkspaceID(ctx context.Context, workspaceID uint) (*models.QuotaLedger, error) {
	filter := models.QuotaLedgerFilter{WorkspaceID: &workspaceID}
	ledgers, err := r.ByFilter(ctx, filter, "", 1, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to find quota ledger by workspace: %w", err)
	}

	if len(ledgers) == 0 {
		return nil, nil
	}

	return ledgers[0], nil
}

// EnsureForWorkspace creates the ledger row when missing. The unique index on
// workspace_id plus DO NOTHING makes concurrent calls converge on one row.
func (r *QuotaLedgerRepositoryImpl) EnsureForWorkspace(ctx context.Context, workspaceID uint, dailyLimit, monthlyLimit int, now time.Time) error {
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

	ledger := models.QuotaLedger{
		WorkspaceID:  workspaceID,
		DailyLimit:   dailyLimit,
		MonthlyLimit: monthlyLimit,
		DayStart:     utils.StartOfDay(now),
		MonthStart:   utils.StartOfMonth(now),
		CreatedAt:    now.UTC(),
	}

	err = db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "workspace_id"}},
		DoNothing: true,
	}).Create(&ledger).Error
	if err != nil {
		err = fmt.Errorf("failed to ensure quota ledger: %w", err)
		return err
	}

	return nil
}

// TryReserve grabs one send unit against both period counters. The WHERE
// clause is the whole concurrency story: the database evaluates the headroom
// check and the increment in one statement, so parallel reservations on the
// same workspace serialize on the row and can never jointly exceed a limit.
func (r *QuotaLedgerRepositoryImpl) TryReserve(ctx context.Context, workspaceID uint) (bool, error) {
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

	result := db.Model(&models.QuotaLedger{}).
		Where("workspace_id = ?", workspaceID).
		Where("daily_used + daily_reserved < daily_limit").
		Where("monthly_used + monthly_reserved < monthly_limit").
		Updates(map[string]any{
			"daily_reserved":   gorm.Expr("daily_reserved + 1"),
			"monthly_reserved": gorm.Expr("monthly_reserved + 1"),
			"updated_at":       utils.UTCNow(),
		})

	if result.Error != nil {
		err = fmt.Errorf("failed to reserve quota unit: %w", result.Error)
		return false, err
	}

	return result.RowsAffected > 0, nil
}

// Commit converts one reserved unit into a used unit
func (r *QuotaLedgerRepositoryImpl) Commit(ctx context.Context, workspaceID uint) error {
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

	result := db.Model(&models.QuotaLedger{}).
		Where("workspace_id = ? AND daily_reserved > 0 AND monthly_reserved > 0", workspaceID).
		Updates(map[string]any{
			"daily_reserved":   gorm.Expr("daily_reserved - 1"),
			"daily_used":       gorm.Expr("daily_used + 1"),
			"monthly_reserved": gorm.Expr("monthly_reserved - 1"),
			"monthly_used":     gorm.Expr("monthly_used + 1"),
			"updated_at":       utils.UTCNow(),
		})

	if result.Error != nil {
		err = fmt.Errorf("failed to commit quota unit: %w", result.Error)
		return err
	}
	if result.RowsAffected == 0 {
		err = fmt.Errorf("no reserved quota unit to commit for workspace %d", workspaceID)
		return err
	}

	return nil
}

// Release returns one reserved unit without consuming it
func (r *QuotaLedgerRepositoryImpl) Release(ctx context.Context, workspaceID uint) error {
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

	result := db.Model(&models.QuotaLedger{}).
		Where("workspace_id = ? AND daily_reserved > 0 AND monthly_reserved > 0", workspaceID).
		Updates(map[string]any{
			"daily_reserved":   gorm.Expr("daily_reserved - 1"),
			"monthly_reserved": gorm.Expr("monthly_reserved - 1"),
			"updated_at":       utils.UTCNow(),
		})

	if result.Error != nil {
		err = fmt.Errorf("failed to release quota unit: %w", result.Error)
		return err
	}
	if result.RowsAffected == 0 {
		err = fmt.Errorf("no reserved quota unit to release for workspace %d", workspaceID)
		return err
	}

	return nil
}

// RolloverDaily resets daily usage for ledgers whose day started before the
// given period start. Both reserved columns are zeroed too: the job runs a few
// minutes past midnight and a reservation lives for one send attempt, so
// anything still open by then is an orphan from a crashed or paused executor.
func (r *QuotaLedgerRepositoryImpl) RolloverDaily(ctx context.Context, dayStart time.Time) (int64, error) {
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

	result := db.Model(&models.QuotaLedger{}).
		Where("day_start < ?", dayStart).
		Updates(map[string]any{
			"daily_used":       0,
			"daily_reserved":   0,
			"monthly_reserved": 0,
			"day_start":        dayStart,
			"updated_at":       utils.UTCNow(),
		})

	if result.Error != nil {
		err = fmt.Errorf("failed to roll over daily quotas: %w", result.Error)
		return 0, err
	}

	return result.RowsAffected, nil
}

// RolloverMonthly resets monthly usage for ledgers whose month started before
// the given period start. Reserved columns are cleared the same way the daily
// job clears them, so the two stay in lockstep even if one job misses a run.
func (r *QuotaLedgerRepositoryImpl) RolloverMonthly(ctx context.Context, monthStart time.Time) (int64, error) {
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

	result := db.Model(&models.QuotaLedger{}).
		Where("month_start < ?", monthStart).
		Updates(map[string]any{
			"monthly_used":     0,
			"monthly_reserved": 0,
			"daily_reserved":   0,
			"month_start":      monthStart,
			"updated_at":       utils.UTCNow(),
		})

	if result.Error != nil {
		err = fmt.Errorf("failed to roll over monthly quotas: %w", result.Error)
		return 0, err
	}

	return result.RowsAffected, nil
}

// ByFilter retrieves quota ledgers based on filter criteria
func (r *QuotaLedgerRepositoryImpl) ByFilter(ctx context.Context, filter models.QuotaLedgerFilter, orderBy string, limit, offset int) ([]*models.QuotaLedger, error) {
	db := r.getDB(ctx)

	var ledgers []*models.QuotaLedger
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

	err := query.Find(&ledgers).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find quota ledgers by filter: %w", err)
	}

	return ledgers, nil
}

// Count returns the number of quota ledgers matching the filter
func (r *QuotaLedgerRepositoryImpl) Count(ctx context.Context, filter models.QuotaLedgerFilter) (int64, error) {
	db := r.getDB(ctx)

	var count int64
	query := r.applyFilter(db.Model(&models.QuotaLedger{}), filter)

	err := query.Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count quota ledgers: %w", err)
	}

	return count, nil
}

// Exists checks if any quota ledger matching the filter exists
func (r *QuotaLedgerRepositoryImpl) Exists(ctx context.Context, filter models.QuotaLedgerFilter) (bool, error) {
	count, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}

	return count > 0, nil
}

// applyFilter applies filter conditions to the GORM query
func (r *QuotaLedgerRepositoryImpl) applyFilter(db *gorm.DB, filter models.QuotaLedgerFilter) *gorm.DB {
	if filter.ID != nil {
		db = db.Where("id = ?", *filter.ID)
	}
	if filter.WorkspaceID != nil {
		db = db.Where("workspace_id = ?", *filter.WorkspaceID)
	}

	return db
}
