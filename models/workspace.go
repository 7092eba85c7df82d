package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Workspace is the billing entity whose quota is charged for sends. Several
// customers may belong to one workspace, so the actor initiating a campaign
// is not necessarily the owner being billed.
type Workspace struct {
	ID   uint      `gorm:"primaryKey" json:"id"`
	UUID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uk_workspaces_uuid" json:"uuid"`
	Name string    `gorm:"type:varchar(255);not null" json:"name"`

	// Ledger bootstrap values used when the workspace's quota ledger is
	// created lazily on first reservation.
	DefaultDailyQuota   int `gorm:"not null;default:1000" json:"default_daily_quota"`
	DefaultMonthlyQuota int `gorm:"not null;default:20000" json:"default_monthly_quota"`

	IsActive  bool       `gorm:"not null;default:true" json:"is_active"`
	CreatedAt time.Time  `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

// TableName returns the table name for the model
func (Workspace) TableName() string {
	return "workspaces"
}

// BeforeCreate ensures UUID and timestamps are set
func (w *Workspace) BeforeCreate(tx *gorm.DB) error {
	if w.UUID == uuid.Nil {
		w.UUID = uuid.New()
	}
	if w.CreatedAt.IsZero() {
		w.CreatedAt = time.Now().UTC()
	}
	return nil
}

// WorkspaceFilter represents filter criteria for workspaces
type WorkspaceFilter struct {
	ID       *uint      `json:"id,omitempty"`
	UUID     *uuid.UUID `json:"uuid,omitempty"`
	Name     *string    `json:"name,omitempty"`
	IsActive *bool      `json:"is_active,omitempty"`
}
