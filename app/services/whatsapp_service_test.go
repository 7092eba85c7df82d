package services

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amirphl/Susanoo/models"
)

func TestMockWhatsAppServiceRecordsMessages(t *testing.T) {
	mock := NewMockWhatsAppService()
	ctx := context.Background()

	first, err := mock.SendMessage(ctx, "inbox-1", "+15551230001", models.MessageItem{Kind: models.MessageKindText, Text: "Hello"})
	require.NoError(t, err)
	assert.True(t, first.Accepted)
	assert.Equal(t, "mock-1", first.ProviderMessageID)

	second, err := mock.SendMessage(ctx, "inbox-1", "+15551230002", models.MessageItem{Kind: models.MessageKindMedia, MediaURL: "https://cdn.example.com/a.jpg", Caption: "Look"})
	require.NoError(t, err)
	assert.True(t, second.Accepted)
	assert.Equal(t, "mock-2", second.ProviderMessageID)

	sent := mock.GetSentMessages()
	require.Len(t, sent, 2)
	assert.Equal(t, "inbox-1", sent[0].InboxUUID)
	assert.Equal(t, "+15551230001", sent[0].PhoneNumber)
	assert.Equal(t, "Hello", sent[0].Message.Text)
	assert.False(t, sent[0].SentAt.IsZero())
	assert.Equal(t, models.MessageKindMedia, sent[1].Message.Kind)
	assert.Equal(t, "Look", sent[1].Message.Caption)
}

func TestMockWhatsAppServiceRejectsScriptedNumbers(t *testing.T) {
	mock := NewMockWhatsAppService()
	mock.RejectNumbers["+15559990000"] = "number not on whatsapp"

	result, err := mock.SendMessage(context.Background(), "inbox-1", "+15559990000", models.MessageItem{Kind: models.MessageKindText, Text: "Hi"})
	require.NoError(t, err)
	assert.False(t, result.Accepted)
	assert.Equal(t, "number not on whatsapp", result.Detail)

	// Rejected sends are not recorded as deliveries
	assert.Empty(t, mock.GetSentMessages())
}

func TestMockWhatsAppServiceTransportError(t *testing.T) {
	mock := NewMockWhatsAppService()
	mock.Err = fmt.Errorf("connection reset")

	result, err := mock.SendMessage(context.Background(), "inbox-1", "+15551230001", models.MessageItem{Kind: models.MessageKindText, Text: "Hi"})
	require.Error(t, err)
	assert.Nil(t, result)
	assert.Empty(t, mock.GetSentMessages())
}

func TestMockWhatsAppServiceCheckConnection(t *testing.T) {
	mock := NewMockWhatsAppService()
	ctx := context.Background()

	// Unscripted inboxes report connected
	status, err := mock.CheckConnection(ctx, "inbox-1")
	require.NoError(t, err)
	assert.Equal(t, models.InboxStatusConnected, status)

	mock.InboxStatuses["inbox-2"] = models.InboxStatusDisconnected
	status, err = mock.CheckConnection(ctx, "inbox-2")
	require.NoError(t, err)
	assert.Equal(t, models.InboxStatusDisconnected, status)
}

func TestMockWhatsAppServiceClearSentMessages(t *testing.T) {
	mock := NewMockWhatsAppService()

	_, err := mock.SendMessage(context.Background(), "inbox-1", "+15551230001", models.MessageItem{Kind: models.MessageKindText, Text: "Hi"})
	require.NoError(t, err)
	require.Len(t, mock.GetSentMessages(), 1)

	mock.ClearSentMessages()
	assert.Empty(t, mock.GetSentMessages())
}
