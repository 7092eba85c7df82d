package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// RecipientStatus represents the delivery state of a single recipient
type RecipientStatus string

const (
	RecipientStatusPending   RecipientStatus = "pending"
	RecipientStatusSent      RecipientStatus = "sent"
	RecipientStatusFailed    RecipientStatus = "failed"
	RecipientStatusCancelled RecipientStatus = "cancelled"
)

// String returns the string representation of the status
func (s RecipientStatus) String() string {
	return string(s)
}

// Valid checks if the status is valid
func (s RecipientStatus) Valid() bool {
	switch s {
	case RecipientStatusPending, RecipientStatusSent,
		RecipientStatusFailed, RecipientStatusCancelled:
		return true
	default:
		return false
	}
}

// Scan implements the sql.Scanner interface for RecipientStatus
func (s *RecipientStatus) Scan(value any) error {
	if value == nil {
		*s = ""
		return nil
	}

	switch v := value.(type) {
	case string:
		*s = RecipientStatus(v)
	case []byte:
		*s = RecipientStatus(string(v))
	default:
		return fmt.Errorf("cannot scan %T into RecipientStatus", value)
	}

	return nil
}

// Value implements the driver.Valuer interface for RecipientStatus
func (s RecipientStatus) Value() (driver.Value, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("invalid RecipientStatus: %s", s)
	}
	return string(s), nil
}

// VariableMap holds per-recipient template variables stored as JSONB
type VariableMap map[string]string

// Value implements the driver.Valuer interface for VariableMap
func (m VariableMap) Value() (driver.Value, error) {
	if m == nil {
		return json.Marshal(map[string]string{})
	}
	return json.Marshal(m)
}

// Scan implements the sql.Scanner interface for VariableMap
func (m *VariableMap) Scan(value any) error {
	if value == nil {
		*m = nil
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into VariableMap", value)
	}

	return json.Unmarshal(bytes, m)
}

// Recipient is one target of a campaign. Rows are bulk-created at campaign
// creation and each is written at most once afterwards, by the executor when
// its turn to send arrives. A recipient that reached sent is never mutated
// again.
type Recipient struct {
	ID                uint            `gorm:"primaryKey" json:"id"`
	CampaignID        uint            `gorm:"not null;index:idx_campaign_recipients_campaign_id" json:"campaign_id"`
	Position          int             `gorm:"not null" json:"position"`
	PhoneNumber       string          `gorm:"type:varchar(32);not null" json:"phone_number"`
	Variables         VariableMap     `gorm:"type:jsonb;not null;default:'{}'" json:"variables"`
	Status            RecipientStatus `gorm:"type:recipient_status;not null;default:'pending';index:idx_campaign_recipients_status" json:"status"`
	AttemptedAt       *time.Time      `json:"attempted_at,omitempty"`
	ErrorDetail       *string         `gorm:"type:text" json:"error_detail,omitempty"`
	ProviderMessageID *string         `gorm:"type:varchar(128)" json:"provider_message_id,omitempty"`
	CreatedAt         time.Time       `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"created_at"`

	// Relations
	Campaign *Campaign `gorm:"foreignKey:CampaignID;references:ID" json:"campaign,omitempty"`
}

// TableName returns the table name for the model
func (Recipient) TableName() string {
	return "campaign_recipients"
}

// BeforeCreate ensures status and timestamps are set
func (r *Recipient) BeforeCreate(tx *gorm.DB) error {
	if r.Status == "" {
		r.Status = RecipientStatusPending
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	return nil
}

// IsProcessed reports whether the executor already handled this recipient
func (r *Recipient) IsProcessed() bool {
	return r.Status != RecipientStatusPending
}

// RecipientFilter represents filter criteria for campaign recipients
type RecipientFilter struct {
	ID         *uint            `json:"id,omitempty"`
	CampaignID *uint            `json:"campaign_id,omitempty"`
	Status     *RecipientStatus `json:"status,omitempty"`
	Phone      *string          `json:"phone,omitempty"`
}
