package dto

import (
	"time"
)

// MessageItemDTO is one entry of a campaign's ordered message sequence.
// Text and caption may contain {{variable}} placeholders resolved per
// recipient at send time.
type MessageItemDTO struct {
	Kind     string `json:"kind" validate:"required,oneof=text media"`
	Text     string `json:"text,omitempty"`
	MediaURL string `json:"media_url,omitempty"`
	Caption  string `json:"caption,omitempty"`
}

// SendWindowDTO restricts sending to hours of day (0-23) and weekdays
// (0-6, Sunday = 0), both in UTC
type SendWindowDTO struct {
	AllowedHours    []int `json:"allowed_hours" validate:"required,min=1,dive,gte=0,lte=23"`
	AllowedWeekdays []int `json:"allowed_weekdays" validate:"required,min=1,dive,gte=0,lte=6"`
}

// RecipientEntry is one target in a campaign creation request
type RecipientEntry struct {
	PhoneNumber string            `json:"phone_number" validate:"required,min=5,max=32"`
	Variables   map[string]string `json:"variables,omitempty"`
}

// CreateCampaignRequest represents the request to create a new campaign
type CreateCampaignRequest struct {
	CustomerID      uint             `json:"-"`
	Title           string           `json:"title" validate:"required,min=1,max=255"`
	InboxUUID       string           `json:"inbox_uuid" validate:"required,uuid4"`
	Messages        []MessageItemDTO `json:"messages" validate:"required,min=1,dive"`
	DelayMinMinutes int              `json:"delay_min_minutes" validate:"required,gte=1,lte=30"`
	DelayMaxMinutes int              `json:"delay_max_minutes" validate:"required,gte=1,lte=30"`
	RandomizeOrder  bool             `json:"randomize_order"`
	ScheduleAt      *time.Time       `json:"schedule_at,omitempty"`
	Window          *SendWindowDTO   `json:"window,omitempty"`
	Recipients      []RecipientEntry `json:"recipients" validate:"required,min=1,dive"`
}

// CreateCampaignResponse represents the response to create a new campaign
type CreateCampaignResponse struct {
	Message         string `json:"message"`
	UUID            string `json:"uuid"`
	Status          string `json:"status"`
	TotalRecipients int    `json:"total_recipients"`
	CreatedAt       string `json:"created_at"`
}

// GetCampaignRequest represents the request to get an existing campaign
type GetCampaignRequest struct {
	UUID       string `json:"-"`
	CustomerID uint   `json:"-"`
}

// GetCampaignResponse represents one campaign in responses
type GetCampaignResponse struct {
	UUID            string           `json:"uuid"`
	Title           string           `json:"title"`
	Status          string           `json:"status"`
	InboxUUID       string           `json:"inbox_uuid,omitempty"`
	Messages        []MessageItemDTO `json:"messages"`
	DelayMinMinutes int              `json:"delay_min_minutes"`
	DelayMaxMinutes int              `json:"delay_max_minutes"`
	RandomizeOrder  bool             `json:"randomize_order"`
	ScheduledAt     *time.Time       `json:"scheduled_at,omitempty"`
	Window          *SendWindowDTO   `json:"window,omitempty"`
	Cursor          int              `json:"cursor"`
	TotalRecipients int              `json:"total_recipients"`
	SentCount       int              `json:"sent_count"`
	FailedCount     int              `json:"failed_count"`
	PauseReason     *string          `json:"pause_reason,omitempty"`
	Diagnostic      *string          `json:"diagnostic,omitempty"`
	CreatedAt       time.Time        `json:"created_at"`
	UpdatedAt       *time.Time       `json:"updated_at,omitempty"`
}

// ListCampaignsFilter represents filter criteria for listing campaigns in request layer
type ListCampaignsFilter struct {
	Title  *string `json:"title,omitempty"`
	Status *string `json:"status,omitempty"`
}

// ListCampaignsRequest represents a paginated list request for user's campaigns
type ListCampaignsRequest struct {
	CustomerID uint                 `json:"-"`
	Page       int                  `json:"page"`
	Limit      int                  `json:"limit"`
	OrderBy    string               `json:"orderby"` // newest, oldest
	Filter     *ListCampaignsFilter `json:"filter,omitempty"`
}

// ListCampaignsResponse represents a paginated list of campaigns
type ListCampaignsResponse struct {
	Message    string                `json:"message"`
	Items      []GetCampaignResponse `json:"items"`
	Pagination PaginationInfo        `json:"pagination"`
}

// StartCampaignRequest represents the request to schedule a pending campaign.
// A nil schedule time means start as soon as possible.
type StartCampaignRequest struct {
	UUID       string     `json:"-"`
	CustomerID uint       `json:"-"`
	ScheduleAt *time.Time `json:"schedule_at,omitempty"`
}

// StartCampaignResponse represents the response to schedule a campaign
type StartCampaignResponse struct {
	Message     string    `json:"message"`
	Status      string    `json:"status"`
	ScheduledAt time.Time `json:"scheduled_at"`
}

// PauseCampaignRequest represents the request to pause a running campaign
type PauseCampaignRequest struct {
	UUID       string `json:"-"`
	CustomerID uint   `json:"-"`
}

// PauseCampaignResponse represents the response to pause a campaign
type PauseCampaignResponse struct {
	Message string `json:"message"`
	Status  string `json:"status"`
}

// ResumeCampaignRequest represents the request to resume a paused campaign
type ResumeCampaignRequest struct {
	UUID       string `json:"-"`
	CustomerID uint   `json:"-"`
}

// ResumeCampaignResponse represents the response to resume a campaign
type ResumeCampaignResponse struct {
	Message string `json:"message"`
	Status  string `json:"status"`
}

// CancelCampaignRequest represents the request to cancel a campaign
type CancelCampaignRequest struct {
	UUID       string `json:"-"`
	CustomerID uint   `json:"-"`
}

// CancelCampaignResponse represents the response to cancel a campaign
type CancelCampaignResponse struct {
	Message             string `json:"message"`
	Status              string `json:"status"`
	CancelledRecipients int64  `json:"cancelled_recipients"`
}

// CampaignProgressResponse reports how far a campaign's dispatch has moved
type CampaignProgressResponse struct {
	Message         string  `json:"message"`
	UUID            string  `json:"uuid"`
	Status          string  `json:"status"`
	Cursor          int     `json:"cursor"`
	TotalRecipients int     `json:"total_recipients"`
	SentCount       int     `json:"sent_count"`
	FailedCount     int     `json:"failed_count"`
	Remaining       int     `json:"remaining"`
	PauseReason     *string `json:"pause_reason,omitempty"`
	Diagnostic      *string `json:"diagnostic,omitempty"`
}

// ListRecipientsRequest represents a paginated list request for a campaign's recipients
type ListRecipientsRequest struct {
	UUID       string  `json:"-"`
	CustomerID uint    `json:"-"`
	Page       int     `json:"page"`
	Limit      int     `json:"limit"`
	Status     *string `json:"status,omitempty"`
}

// RecipientView represents one recipient in responses
type RecipientView struct {
	Position          int               `json:"position"`
	PhoneNumber       string            `json:"phone_number"`
	Variables         map[string]string `json:"variables,omitempty"`
	Status            string            `json:"status"`
	AttemptedAt       *time.Time        `json:"attempted_at,omitempty"`
	ErrorDetail       *string           `json:"error_detail,omitempty"`
	ProviderMessageID *string           `json:"provider_message_id,omitempty"`
}

// ListRecipientsResponse represents a paginated list of campaign recipients
type ListRecipientsResponse struct {
	Message    string          `json:"message"`
	Items      []RecipientView `json:"items"`
	Pagination PaginationInfo  `json:"pagination"`
}

// ImportRecipientsRequest carries an uploaded spreadsheet of recipients.
// The first sheet must have a header row whose first column is the phone
// number; remaining columns become per-recipient template variables.
type ImportRecipientsRequest struct {
	CustomerID uint   `json:"-"`
	FileName   string `json:"-"`
	Data       []byte `json:"-"`
}

// ImportRecipientsResponse represents the result of a recipient import
type ImportRecipientsResponse struct {
	Message  string           `json:"message"`
	Imported int              `json:"imported"`
	Skipped  int              `json:"skipped"`
	Preview  []RecipientEntry `json:"preview,omitempty"`
}
