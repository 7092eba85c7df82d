package dto

import (
	"time"
)

// DraftPayloadDTO mirrors the campaign creation request so a draft can be
// promoted to a campaign without reshaping
type DraftPayloadDTO struct {
	Title           string           `json:"title,omitempty"`
	InboxUUID       string           `json:"inbox_uuid,omitempty"`
	Messages        []MessageItemDTO `json:"messages,omitempty"`
	DelayMinMinutes int              `json:"delay_min_minutes,omitempty"`
	DelayMaxMinutes int              `json:"delay_max_minutes,omitempty"`
	RandomizeOrder  bool             `json:"randomize_order,omitempty"`
	ScheduleAt      *time.Time       `json:"schedule_at,omitempty"`
	Window          *SendWindowDTO   `json:"window,omitempty"`
	Recipients      []RecipientEntry `json:"recipients,omitempty"`
}

// SaveDraftRequest represents the request to save a customer's campaign draft.
// Saving overwrites the previous draft unconditionally.
type SaveDraftRequest struct {
	CustomerID uint            `json:"-"`
	Payload    DraftPayloadDTO `json:"payload" validate:"required"`
}

// SaveDraftResponse represents the response to save a draft
type SaveDraftResponse struct {
	Message   string `json:"message"`
	UpdatedAt string `json:"updated_at"`
}

// GetDraftResponse represents a customer's current draft
type GetDraftResponse struct {
	Message   string          `json:"message"`
	Payload   DraftPayloadDTO `json:"payload"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt *time.Time      `json:"updated_at,omitempty"`
}

// ClearDraftResponse represents the response to delete a draft
type ClearDraftResponse struct {
	Message string `json:"message"`
}
