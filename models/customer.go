package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Customer is an authenticated actor. Every customer belongs to exactly one
// workspace; quota for the campaigns a customer starts is charged to that
// workspace, which is how an actor id resolves to a billing owner.
type Customer struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	UUID        uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uk_customers_uuid" json:"uuid"`
	WorkspaceID uint      `gorm:"not null;index:idx_customers_workspace_id" json:"workspace_id"`

	Email        string `gorm:"type:varchar(255);not null;uniqueIndex:uk_customers_email" json:"email"`
	PasswordHash string `gorm:"type:varchar(255);not null" json:"-"`
	FullName     string `gorm:"type:varchar(255);not null" json:"full_name"`

	IsActive    bool       `gorm:"not null;default:true" json:"is_active"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
	CreatedAt   time.Time  `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"created_at"`
	UpdatedAt   *time.Time `json:"updated_at,omitempty"`

	// Relations
	Workspace *Workspace `gorm:"foreignKey:WorkspaceID;references:ID" json:"workspace,omitempty"`
}

// TableName returns the table name for the model
func (Customer) TableName() string {
	return "customers"
}

// BeforeCreate ensures UUID and timestamps are set
func (c *Customer) BeforeCreate(tx *gorm.DB) error {
	if c.UUID == uuid.Nil {
		c.UUID = uuid.New()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	return nil
}

// CustomerFilter represents filter criteria for customers
type CustomerFilter struct {
	ID          *uint      `json:"id,omitempty"`
	UUID        *uuid.UUID `json:"uuid,omitempty"`
	WorkspaceID *uint      `json:"workspace_id,omitempty"`
	Email       *string    `json:"email,omitempty"`
	IsActive    *bool      `json:"is_active,omitempty"`
}
