// Package services provides external service integrations and technical concerns like notifications and tokens
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/amirphl/Susanoo/config"
	"github.com/amirphl/Susanoo/models"
	"github.com/amirphl/Susanoo/utils"
	"golang.org/x/time/rate"
)

// WhatsAppService handles message delivery through the WhatsApp gateway
type WhatsAppService interface {
	SendMessage(ctx context.Context, inboxUUID, phoneNumber string, msg models.MessageItem) (*SendResult, error)
	CheckConnection(ctx context.Context, inboxUUID string) (models.InboxStatus, error)
}

// SendResult represents the gateway's answer for one message
type SendResult struct {
	Accepted          bool   `json:"accepted"`
	ProviderMessageID string `json:"provider_message_id"`
	Detail            string `json:"detail,omitempty"`
}

// WhatsAppServiceImpl implements WhatsAppService
type WhatsAppServiceImpl struct {
	config  *config.WhatsAppConfig
	client  *http.Client
	limiter *rate.Limiter
}

// whatsappSendRequest represents the request payload for the gateway send API
type whatsappSendRequest struct {
	Recipient string `json:"recipient"` // Format: E.164 without plus
	Kind      string `json:"kind"`      // "text" or "media"
	Body      string `json:"body,omitempty"`
	MediaURL  string `json:"media_url,omitempty"`
	Caption   string `json:"caption,omitempty"`
}

// whatsappSendResponse represents the gateway send API response
type whatsappSendResponse struct {
	MessageID string `json:"messageId"`
	Status    string `json:"status"`
	Detail    string `json:"detail,omitempty"`
}

// whatsappStatusResponse represents the gateway inbox status response
type whatsappStatusResponse struct {
	Status     string  `json:"status"`
	LastSeenAt *string `json:"lastSeenAt,omitempty"`
}

// NewWhatsAppService creates a new WhatsApp gateway client. The rate limiter
// caps outbound calls across all campaigns sharing this client; the gateway
// bans accounts that exceed its request ceiling.
func NewWhatsAppService(cfg *config.WhatsAppConfig) WhatsAppService {
	return &WhatsAppServiceImpl{
		config: cfg,
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
		limiter: rate.NewLimiter(rate.Limit(cfg.RatePerSecond), cfg.Burst),
	}
}

// SendMessage delivers a single message through the gateway
func (s *WhatsAppServiceImpl) SendMessage(ctx context.Context, inboxUUID, phoneNumber string, msg models.MessageItem) (*SendResult, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter wait interrupted: %w", err)
	}

	payload := whatsappSendRequest{
		Recipient: phoneNumber,
		Kind:      string(msg.Kind),
		Body:      msg.Text,
		MediaURL:  msg.MediaURL,
		Caption:   msg.Caption,
	}

	requestBody, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal send request: %w", err)
	}

	url := fmt.Sprintf("https://%s/api/v1/inboxes/%s/messages", s.config.APIDomain, inboxUUID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(requestBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", s.config.APIKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send message request: %w", err)
	}
	defer resp.Body.Close()

	var result whatsappSendResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode send response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return &SendResult{
			Accepted: false,
			Detail:   fmt.Sprintf("gateway returned %d: %s", resp.StatusCode, result.Detail),
		}, nil
	}

	accepted := result.Status == "sent" || result.Status == "queued"
	return &SendResult{
		Accepted:          accepted,
		ProviderMessageID: result.MessageID,
		Detail:            result.Detail,
	}, nil
}

// CheckConnection asks the gateway for the current session state of an inbox
func (s *WhatsAppServiceImpl) CheckConnection(ctx context.Context, inboxUUID string) (models.InboxStatus, error) {
	url := fmt.Sprintf("https://%s/api/v1/inboxes/%s/status", s.config.APIDomain, inboxUUID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create HTTP request: %w", err)
	}
	req.Header.Set("x-api-key", s.config.APIKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to check inbox status: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("gateway returned %d for inbox status", resp.StatusCode)
	}

	var result whatsappStatusResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("failed to decode inbox status response: %w", err)
	}

	status := models.InboxStatus(result.Status)
	if !status.Valid() {
		return "", fmt.Errorf("gateway reported unknown inbox status: %s", result.Status)
	}

	return status, nil
}

// MockWhatsAppService implements WhatsAppService for testing
type MockWhatsAppService struct {
	mu           sync.Mutex
	SentMessages []MockSentMessage
	// RejectNumbers maps phone numbers to a rejection detail; sends to these
	// numbers come back as not accepted.
	RejectNumbers map[string]string
	// Err, when set, is returned as a transport error from SendMessage
	Err error
	// InboxStatuses maps inbox UUIDs to reported connection states
	InboxStatuses map[string]models.InboxStatus
}

// MockSentMessage represents one recorded mock delivery
type MockSentMessage struct {
	InboxUUID   string
	PhoneNumber string
	Message     models.MessageItem
	SentAt      time.Time
}

// NewMockWhatsAppService creates a new mock WhatsApp service
func NewMockWhatsAppService() *MockWhatsAppService {
	return &MockWhatsAppService{
		SentMessages:  make([]MockSentMessage, 0),
		RejectNumbers: make(map[string]string),
		InboxStatuses: make(map[string]models.InboxStatus),
	}
}

// SendMessage records a mock delivery
func (m *MockWhatsAppService) SendMessage(ctx context.Context, inboxUUID, phoneNumber string, msg models.MessageItem) (*SendResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.Err != nil {
		return nil, m.Err
	}

	if detail, rejected := m.RejectNumbers[phoneNumber]; rejected {
		return &SendResult{Accepted: false, Detail: detail}, nil
	}

	m.SentMessages = append(m.SentMessages, MockSentMessage{
		InboxUUID:   inboxUUID,
		PhoneNumber: phoneNumber,
		Message:     msg,
		SentAt:      utils.UTCNow(),
	})

	return &SendResult{
		Accepted:          true,
		ProviderMessageID: fmt.Sprintf("mock-%d", len(m.SentMessages)),
	}, nil
}

// CheckConnection reports the scripted connection state, connected by default
func (m *MockWhatsAppService) CheckConnection(ctx context.Context, inboxUUID string) (models.InboxStatus, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if status, ok := m.InboxStatuses[inboxUUID]; ok {
		return status, nil
	}
	return models.InboxStatusConnected, nil
}

// GetSentMessages returns all recorded mock deliveries
func (m *MockWhatsAppService) GetSentMessages() []MockSentMessage {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]MockSentMessage, len(m.SentMessages))
	copy(out, m.SentMessages)
	return out
}

// ClearSentMessages clears the recorded deliveries
func (m *MockWhatsAppService) ClearSentMessages() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.SentMessages = make([]MockSentMessage, 0)
}
