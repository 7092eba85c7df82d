package models

import (
	"database/sql/driver"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// InboxStatus represents the connectivity state of a WhatsApp inbox
type InboxStatus string

const (
	InboxStatusConnected    InboxStatus = "connected"
	InboxStatusConnecting   InboxStatus = "connecting"
	InboxStatusDisconnected InboxStatus = "disconnected"
)

// String returns the string representation of the status
func (s InboxStatus) String() string {
	return string(s)
}

// Valid checks if the status is valid
func (s InboxStatus) Valid() bool {
	switch s {
	case InboxStatusConnected, InboxStatusConnecting, InboxStatusDisconnected:
		return true
	default:
		return false
	}
}

// Scan implements the sql.Scanner interface for InboxStatus
func (s *InboxStatus) Scan(value any) error {
	if value == nil {
		*s = ""
		return nil
	}

	switch v := value.(type) {
	case string:
		*s = InboxStatus(v)
	case []byte:
		*s = InboxStatus(string(v))
	default:
		return fmt.Errorf("cannot scan %T into InboxStatus", value)
	}

	return nil
}

// Value implements the driver.Valuer interface for InboxStatus
func (s InboxStatus) Value() (driver.Value, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("invalid InboxStatus: %s", s)
	}
	return string(s), nil
}

// Inbox is a WhatsApp sending channel owned by a workspace. Campaigns name
// the inbox they send through; an executor checks the stored connectivity
// status before reserving quota so a disconnected channel never consumes
// quota for sends doomed to fail.
type Inbox struct {
	ID          uint        `gorm:"primaryKey" json:"id"`
	UUID        uuid.UUID   `gorm:"type:uuid;not null;uniqueIndex:uk_inboxes_uuid" json:"uuid"`
	WorkspaceID uint        `gorm:"not null;index:idx_inboxes_workspace_id" json:"workspace_id"`
	DisplayName string      `gorm:"type:varchar(255);not null" json:"display_name"`
	PhoneNumber string      `gorm:"type:varchar(32);not null" json:"phone_number"`
	Status      InboxStatus `gorm:"type:inbox_status;not null;default:'disconnected'" json:"status"`
	LastSeenAt  *time.Time  `json:"last_seen_at,omitempty"`
	CreatedAt   time.Time   `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"created_at"`
	UpdatedAt   *time.Time  `json:"updated_at,omitempty"`

	// Relations
	Workspace *Workspace `gorm:"foreignKey:WorkspaceID;references:ID" json:"workspace,omitempty"`
}

// TableName returns the table name for the model
func (Inbox) TableName() string {
	return "inboxes"
}

// BeforeCreate ensures UUID and timestamps are set
func (i *Inbox) BeforeCreate(tx *gorm.DB) error {
	if i.UUID == uuid.Nil {
		i.UUID = uuid.New()
	}
	if i.Status == "" {
		i.Status = InboxStatusDisconnected
	}
	if i.CreatedAt.IsZero() {
		i.CreatedAt = time.Now().UTC()
	}
	return nil
}

// IsConnected reports whether the inbox can currently dispatch messages
func (i *Inbox) IsConnected() bool {
	return i.Status == InboxStatusConnected
}

// InboxFilter represents filter criteria for inboxes
type InboxFilter struct {
	ID          *uint        `json:"id,omitempty"`
	UUID        *uuid.UUID   `json:"uuid,omitempty"`
	WorkspaceID *uint        `json:"workspace_id,omitempty"`
	Status      *InboxStatus `json:"status,omitempty"`
}
