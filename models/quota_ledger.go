package models

import (
	"time"

	"gorm.io/gorm"
)

// QuotaLedger tracks message quota usage for one workspace. There is exactly
// one row per workspace; reservations and commits are applied with
// conditional single-statement updates so concurrent executors sending on the
// same workspace can never jointly exceed a limit.
//
// Reserved units are provisional deductions made before a send attempt. A
// confirmed send moves one unit from reserved to used; a failed attempt
// releases the unit without consuming quota.
type QuotaLedger struct {
	ID          uint `gorm:"primaryKey" json:"id"`
	WorkspaceID uint `gorm:"not null;uniqueIndex:uk_quota_ledgers_workspace_id" json:"workspace_id"`

	DailyLimit    int `gorm:"not null" json:"daily_limit"`
	DailyUsed     int `gorm:"not null;default:0" json:"daily_used"`
	DailyReserved int `gorm:"not null;default:0" json:"daily_reserved"`

	MonthlyLimit    int `gorm:"not null" json:"monthly_limit"`
	MonthlyUsed     int `gorm:"not null;default:0" json:"monthly_used"`
	MonthlyReserved int `gorm:"not null;default:0" json:"monthly_reserved"`

	DayStart   time.Time `gorm:"type:date;not null" json:"day_start"`
	MonthStart time.Time `gorm:"type:date;not null" json:"month_start"`

	CreatedAt time.Time  `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`

	// Relations
	Workspace *Workspace `gorm:"foreignKey:WorkspaceID;references:ID" json:"workspace,omitempty"`
}

// TableName returns the table name for the model
func (QuotaLedger) TableName() string {
	return "quota_ledgers"
}

// BeforeUpdate is called before updating a record
func (q *QuotaLedger) BeforeUpdate(tx *gorm.DB) error {
	now := time.Now().UTC()
	q.UpdatedAt = &now
	return nil
}

// RemainingDaily returns how many units are still reservable today
func (q *QuotaLedger) RemainingDaily() int {
	remaining := q.DailyLimit - q.DailyUsed - q.DailyReserved
	if remaining < 0 {
		return 0
	}
	return remaining
}

// RemainingMonthly returns how many units are still reservable this month
func (q *QuotaLedger) RemainingMonthly() int {
	remaining := q.MonthlyLimit - q.MonthlyUsed - q.MonthlyReserved
	if remaining < 0 {
		return 0
	}
	return remaining
}

// Exhausted reports whether either ceiling blocks a new reservation
func (q *QuotaLedger) Exhausted() bool {
	return q.RemainingDaily() == 0 || q.RemainingMonthly() == 0
}

// QuotaLedgerFilter represents filter criteria for quota ledgers
type QuotaLedgerFilter struct {
	ID          *uint `json:"id,omitempty"`
	WorkspaceID *uint `json:"workspace_id,omitempty"`
}
