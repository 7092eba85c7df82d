package dto

import (
	"time"
)

// InboxView represents one WhatsApp inbox in responses
type InboxView struct {
	UUID        string     `json:"uuid"`
	DisplayName string     `json:"display_name"`
	PhoneNumber string     `json:"phone_number"`
	Status      string     `json:"status"`
	LastSeenAt  *time.Time `json:"last_seen_at,omitempty"`
}

// ListInboxesResponse represents the inboxes of the caller's workspace
type ListInboxesResponse struct {
	Message string      `json:"message"`
	Items   []InboxView `json:"items"`
}

// RefreshInboxRequest represents the request to re-check an inbox connection
type RefreshInboxRequest struct {
	UUID       string `json:"-"`
	CustomerID uint   `json:"-"`
}

// RefreshInboxResponse represents the refreshed connection state
type RefreshInboxResponse struct {
	Message string `json:"message"`
	UUID    string `json:"uuid"`
	Status  string `json:"status"`
}
