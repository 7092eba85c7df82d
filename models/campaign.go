package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

// CampaignStatus represents the lifecycle state of a campaign
type CampaignStatus string

const (
	CampaignStatusPending   CampaignStatus = "pending"
	CampaignStatusScheduled CampaignStatus = "scheduled"
	CampaignStatusRunning   CampaignStatus = "running"
	CampaignStatusPaused    CampaignStatus = "paused"
	CampaignStatusCompleted CampaignStatus = "completed"
	CampaignStatusCancelled CampaignStatus = "cancelled"
)

// String returns the string representation of the status
func (s CampaignStatus) String() string {
	return string(s)
}

// Valid checks if the status is valid
func (s CampaignStatus) Valid() bool {
	switch s {
	case CampaignStatusPending, CampaignStatusScheduled, CampaignStatusRunning,
		CampaignStatusPaused, CampaignStatusCompleted, CampaignStatusCancelled:
		return true
	default:
		return false
	}
}

// IsTerminal reports whether the status permits no further transitions
func (s CampaignStatus) IsTerminal() bool {
	return s == CampaignStatusCompleted || s == CampaignStatusCancelled
}

// Scan implements the sql.Scanner interface for CampaignStatus
func (s *CampaignStatus) Scan(value any) error {
	if value == nil {
		*s = ""
		return nil
	}

	switch v := value.(type) {
	case string:
		*s = CampaignStatus(v)
	case []byte:
		*s = CampaignStatus(string(v))
	default:
		return fmt.Errorf("cannot scan %T into CampaignStatus", value)
	}

	return nil
}

// Value implements the driver.Valuer interface for CampaignStatus
func (s CampaignStatus) Value() (driver.Value, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("invalid CampaignStatus: %s", s)
	}
	return string(s), nil
}

// PauseReason records why a campaign entered the paused state
type PauseReason string

const (
	PauseReasonUserRequested     PauseReason = "user_requested"
	PauseReasonQuotaExhausted    PauseReason = "quota_exhausted"
	PauseReasonInboxDisconnected PauseReason = "inbox_disconnected"
	PauseReasonInfrastructure    PauseReason = "infrastructure"
)

// String returns the string representation of the pause reason
func (r PauseReason) String() string {
	return string(r)
}

// Valid checks if the pause reason is valid
func (r PauseReason) Valid() bool {
	switch r {
	case PauseReasonUserRequested, PauseReasonQuotaExhausted,
		PauseReasonInboxDisconnected, PauseReasonInfrastructure:
		return true
	default:
		return false
	}
}

// Value implements the driver.Valuer interface for PauseReason
func (r PauseReason) Value() (driver.Value, error) {
	if !r.Valid() {
		return nil, fmt.Errorf("invalid PauseReason: %s", r)
	}
	return string(r), nil
}

// Scan implements the sql.Scanner interface for PauseReason
func (r *PauseReason) Scan(value any) error {
	if value == nil {
		*r = ""
		return nil
	}

	switch v := value.(type) {
	case string:
		*r = PauseReason(v)
	case []byte:
		*r = PauseReason(string(v))
	default:
		return fmt.Errorf("cannot scan %T into PauseReason", value)
	}

	return nil
}

// MessageKind distinguishes text and media message items
type MessageKind string

const (
	MessageKindText  MessageKind = "text"
	MessageKindMedia MessageKind = "media"
)

// MessageItem is one entry in a campaign's ordered message sequence.
// Text and caption fields may contain {{variable}} placeholders substituted
// per recipient at send time.
type MessageItem struct {
	Kind     MessageKind `json:"kind"`
	Text     string      `json:"text,omitempty"`
	MediaURL string      `json:"media_url,omitempty"`
	Caption  string      `json:"caption,omitempty"`
}

// MessageList is the ordered message sequence stored as JSONB
type MessageList []MessageItem

// Value implements the driver.Valuer interface for MessageList
func (m MessageList) Value() (driver.Value, error) {
	return json.Marshal(m)
}

// Scan implements the sql.Scanner interface for MessageList
func (m *MessageList) Scan(value any) error {
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
		return fmt.Errorf("cannot scan %T into MessageList", value)
	}

	return json.Unmarshal(bytes, m)
}

// SendWindow restricts sending to a set of hours of day and weekdays.
// Hours are 0-23, weekdays 0-6 with Sunday = 0, both evaluated in UTC.
// A nil window means always eligible.
type SendWindow struct {
	AllowedHours    []int `json:"allowed_hours"`
	AllowedWeekdays []int `json:"allowed_weekdays"`
}

// Value implements the driver.Valuer interface for SendWindow
func (w *SendWindow) Value() (driver.Value, error) {
	if w == nil {
		return nil, nil
	}
	return json.Marshal(w)
}

// Scan implements the sql.Scanner interface for SendWindow
func (w *SendWindow) Scan(value any) error {
	if value == nil {
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into SendWindow", value)
	}

	return json.Unmarshal(bytes, w)
}

// AllowsHour reports whether the given hour of day is in the allowed set
func (w *SendWindow) AllowsHour(hour int) bool {
	for _, h := range w.AllowedHours {
		if h == hour {
			return true
		}
	}
	return false
}

// AllowsWeekday reports whether the given weekday is in the allowed set
func (w *SendWindow) AllowsWeekday(day time.Weekday) bool {
	for _, d := range w.AllowedWeekdays {
		if d == int(day) {
			return true
		}
	}
	return false
}

// Campaign represents a bulk messaging campaign in the database.
// The executor is the only writer of Cursor, SendOrder, and the counters
// while the campaign is running; pause/resume/cancel requests touch only
// Status, PauseReason, and Diagnostic.
type Campaign struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	UUID        uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex:uk_campaigns_uuid" json:"uuid"`
	CustomerID  uint           `gorm:"not null;index:idx_campaigns_customer_id" json:"customer_id"`
	WorkspaceID uint           `gorm:"not null;index:idx_campaigns_workspace_id" json:"workspace_id"`
	InboxID     uint           `gorm:"not null" json:"inbox_id"`
	Title       string         `gorm:"type:varchar(255);not null" json:"title"`
	Status      CampaignStatus `gorm:"type:campaign_status;not null;default:'pending';index:idx_campaigns_status" json:"status"`

	Messages MessageList `gorm:"type:jsonb;not null" json:"messages"`

	DelayMinMinutes int  `gorm:"not null" json:"delay_min_minutes"`
	DelayMaxMinutes int  `gorm:"not null" json:"delay_max_minutes"`
	RandomizeOrder  bool `gorm:"not null;default:false" json:"randomize_order"`

	ScheduledAt *time.Time  `gorm:"index:idx_campaigns_scheduled_at" json:"scheduled_at,omitempty"`
	Window      *SendWindow `gorm:"type:jsonb" json:"window,omitempty"`

	Cursor          int           `gorm:"not null;default:0" json:"cursor"`
	TotalRecipients int           `gorm:"not null;default:0" json:"total_recipients"`
	SentCount       int           `gorm:"not null;default:0" json:"sent_count"`
	FailedCount     int           `gorm:"not null;default:0" json:"failed_count"`
	SendOrder       pq.Int64Array `gorm:"type:bigint[]" json:"send_order,omitempty"`

	PauseReason *PauseReason `gorm:"type:varchar(32)" json:"pause_reason,omitempty"`
	Diagnostic  *string      `gorm:"type:text" json:"diagnostic,omitempty"`

	CreatedAt time.Time  `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC');index:idx_campaigns_created_at" json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`

	// Relations
	Customer  *Customer  `gorm:"foreignKey:CustomerID;references:ID" json:"customer,omitempty"`
	Workspace *Workspace `gorm:"foreignKey:WorkspaceID;references:ID" json:"workspace,omitempty"`
	Inbox     *Inbox     `gorm:"foreignKey:InboxID;references:ID" json:"inbox,omitempty"`
}

// TableName returns the table name for the model
func (Campaign) TableName() string {
	return "campaigns"
}

// BeforeCreate ensures UUID and timestamps are set
func (c *Campaign) BeforeCreate(tx *gorm.DB) error {
	if c.UUID == uuid.Nil {
		c.UUID = uuid.New()
	}
	if c.Status == "" {
		c.Status = CampaignStatusPending
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	return nil
}

// BeforeUpdate is called before updating a record
func (c *Campaign) BeforeUpdate(tx *gorm.DB) error {
	now := time.Now().UTC()
	c.UpdatedAt = &now
	return nil
}

// CanTransitionTo checks if the campaign can transition to the given status.
// Pending and scheduled are pre-execution, running is the only active state,
// paused is resumable, completed and cancelled are terminal.
func (c *Campaign) CanTransitionTo(newStatus CampaignStatus) bool {
	switch c.Status {
	case CampaignStatusPending:
		return newStatus == CampaignStatusScheduled ||
			newStatus == CampaignStatusCancelled
	case CampaignStatusScheduled:
		return newStatus == CampaignStatusRunning ||
			newStatus == CampaignStatusCancelled
	case CampaignStatusRunning:
		return newStatus == CampaignStatusPaused ||
			newStatus == CampaignStatusCompleted ||
			newStatus == CampaignStatusCancelled
	case CampaignStatusPaused:
		return newStatus == CampaignStatusRunning ||
			newStatus == CampaignStatusCancelled
	default:
		return false
	}
}

// OrderFixed reports whether the send order has been persisted.
// The order is decided once, at the first transition into running, and is
// never recomputed on resume.
func (c *Campaign) OrderFixed() bool {
	return len(c.SendOrder) > 0
}

// RemainingRecipients returns the number of unprocessed recipients
func (c *Campaign) RemainingRecipients() int {
	if c.Cursor >= c.TotalRecipients {
		return 0
	}
	return c.TotalRecipients - c.Cursor
}

// CampaignFilter represents filter criteria for campaigns
type CampaignFilter struct {
	ID            *uint           `json:"id,omitempty"`
	UUID          *uuid.UUID      `json:"uuid,omitempty"`
	CustomerID    *uint           `json:"customer_id,omitempty"`
	WorkspaceID   *uint           `json:"workspace_id,omitempty"`
	InboxID       *uint           `json:"inbox_id,omitempty"`
	Status        *CampaignStatus `json:"status,omitempty"`
	Title         *string         `json:"title,omitempty"`
	CreatedAfter  *time.Time      `json:"created_after,omitempty"`
	CreatedBefore *time.Time      `json:"created_before,omitempty"`
	ScheduledTo   *time.Time      `json:"scheduled_to,omitempty"`
}

// GetStatusDisplayName returns a human-readable status name
func (c *Campaign) GetStatusDisplayName() string {
	switch c.Status {
	case CampaignStatusPending:
		return "Pending"
	case CampaignStatusScheduled:
		return "Scheduled"
	case CampaignStatusRunning:
		return "Running"
	case CampaignStatusPaused:
		return "Paused"
	case CampaignStatusCompleted:
		return "Completed"
	case CampaignStatusCancelled:
		return "Cancelled"
	default:
		return "Unknown"
	}
}

// GetStatusColor returns a color code for the status (for UI purposes)
func (c *Campaign) GetStatusColor() string {
	switch c.Status {
	case CampaignStatusPending:
		return "#6c757d" // gray
	case CampaignStatusScheduled:
		return "#17a2b8" // teal
	case CampaignStatusRunning:
		return "#007bff" // blue
	case CampaignStatusPaused:
		return "#ffc107" // yellow
	case CampaignStatusCompleted:
		return "#28a745" // green
	case CampaignStatusCancelled:
		return "#dc3545" // red
	default:
		return "#6c757d" // gray
	}
}
