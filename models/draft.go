package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// DraftPayload is an uncommitted campaign configuration. It mirrors the
// campaign creation request: no recipient materialization, no cursor, no
// status. Promoting a draft to a campaign validates and persists all of
// this and deletes the draft.
type DraftPayload struct {
	Title           string        `json:"title,omitempty"`
	InboxUUID       string        `json:"inbox_uuid,omitempty"`
	Messages        []MessageItem `json:"messages,omitempty"`
	DelayMinMinutes int           `json:"delay_min_minutes,omitempty"`
	DelayMaxMinutes int           `json:"delay_max_minutes,omitempty"`
	RandomizeOrder  bool          `json:"randomize_order,omitempty"`
	ScheduledAt     *time.Time    `json:"scheduled_at,omitempty"`
	Window          *SendWindow   `json:"window,omitempty"`
	Recipients      []DraftTarget `json:"recipients,omitempty"`
}

// DraftTarget is one recipient entry inside a draft payload
type DraftTarget struct {
	PhoneNumber string            `json:"phone_number"`
	Variables   map[string]string `json:"variables,omitempty"`
}

// Value implements the driver.Valuer interface for DraftPayload
func (p DraftPayload) Value() (driver.Value, error) {
	return json.Marshal(p)
}

// Scan implements the sql.Scanner interface for DraftPayload
func (p *DraftPayload) Scan(value any) error {
	if value == nil {
		*p = DraftPayload{}
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into DraftPayload", value)
	}

	return json.Unmarshal(bytes, p)
}

// CampaignDraft holds one customer's uncommitted campaign configuration.
// Saves overwrite the previous draft; committing the draft to a campaign
// deletes it.
type CampaignDraft struct {
	ID         uint         `gorm:"primaryKey" json:"id"`
	CustomerID uint         `gorm:"not null;uniqueIndex:uk_campaign_drafts_customer_id" json:"customer_id"`
	Payload    DraftPayload `gorm:"type:jsonb;not null" json:"payload"`
	CreatedAt  time.Time    `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"created_at"`
	UpdatedAt  *time.Time   `json:"updated_at,omitempty"`

	// Relations
	Customer *Customer `gorm:"foreignKey:CustomerID;references:ID" json:"customer,omitempty"`
}

// TableName returns the table name for the model
func (CampaignDraft) TableName() string {
	return "campaign_drafts"
}

// BeforeUpdate is called before updating a record
func (d *CampaignDraft) BeforeUpdate(tx *gorm.DB) error {
	now := time.Now().UTC()
	d.UpdatedAt = &now
	return nil
}

// CampaignDraftFilter represents filter criteria for campaign drafts
type CampaignDraftFilter struct {
	ID         *uint `json:"id,omitempty"`
	CustomerID *uint `json:"customer_id,omitempty"`
}
