package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCampaignStatusValid(t *testing.T) {
	valid := []CampaignStatus{
		CampaignStatusPending,
		CampaignStatusScheduled,
		CampaignStatusRunning,
		CampaignStatusPaused,
		CampaignStatusCompleted,
		CampaignStatusCancelled,
	}
	for _, s := range valid {
		assert.True(t, s.Valid(), "status %s should be valid", s)
	}

	assert.False(t, CampaignStatus("unknown").Valid())
	assert.False(t, CampaignStatus("").Valid())
}

func TestCampaignStatusTerminal(t *testing.T) {
	assert.True(t, CampaignStatusCompleted.IsTerminal())
	assert.True(t, CampaignStatusCancelled.IsTerminal())

	assert.False(t, CampaignStatusPending.IsTerminal())
	assert.False(t, CampaignStatusScheduled.IsTerminal())
	assert.False(t, CampaignStatusRunning.IsTerminal())
	assert.False(t, CampaignStatusPaused.IsTerminal())
}

func TestCampaignStatusTransitions(t *testing.T) {
	all := []CampaignStatus{
		CampaignStatusPending,
		CampaignStatusScheduled,
		CampaignStatusRunning,
		CampaignStatusPaused,
		CampaignStatusCompleted,
		CampaignStatusCancelled,
	}

	allowed := map[CampaignStatus][]CampaignStatus{
		CampaignStatusPending:   {CampaignStatusScheduled, CampaignStatusCancelled},
		CampaignStatusScheduled: {CampaignStatusRunning, CampaignStatusCancelled},
		CampaignStatusRunning:   {CampaignStatusPaused, CampaignStatusCompleted, CampaignStatusCancelled},
		CampaignStatusPaused:    {CampaignStatusRunning, CampaignStatusCancelled},
		CampaignStatusCompleted: {},
		CampaignStatusCancelled: {},
	}

	for from, targets := range allowed {
		campaign := &Campaign{Status: from}

		permitted := make(map[CampaignStatus]bool, len(targets))
		for _, to := range targets {
			permitted[to] = true
		}

		for _, to := range all {
			got := campaign.CanTransitionTo(to)
			assert.Equal(t, permitted[to], got, "transition %s -> %s", from, to)
		}
	}
}

func TestPauseReasonValid(t *testing.T) {
	valid := []PauseReason{
		PauseReasonUserRequested,
		PauseReasonQuotaExhausted,
		PauseReasonInboxDisconnected,
		PauseReasonInfrastructure,
	}
	for _, r := range valid {
		assert.True(t, r.Valid(), "reason %s should be valid", r)
	}

	assert.False(t, PauseReason("bored").Valid())
}

func TestCampaignOrderFixed(t *testing.T) {
	campaign := &Campaign{}
	assert.False(t, campaign.OrderFixed())

	campaign.SendOrder = []int64{2, 0, 1}
	assert.True(t, campaign.OrderFixed())
}

func TestCampaignRemainingRecipients(t *testing.T) {
	campaign := &Campaign{TotalRecipients: 10, Cursor: 0}
	assert.Equal(t, 10, campaign.RemainingRecipients())

	campaign.Cursor = 7
	assert.Equal(t, 3, campaign.RemainingRecipients())

	campaign.Cursor = 10
	assert.Equal(t, 0, campaign.RemainingRecipients())

	// A cursor past the end still reports zero, never negative
	campaign.Cursor = 12
	assert.Equal(t, 0, campaign.RemainingRecipients())
}

func TestSendWindowAllows(t *testing.T) {
	window := &SendWindow{
		AllowedHours:    []int{9, 10, 11, 14},
		AllowedWeekdays: []int{1, 2, 3, 4, 5},
	}

	assert.True(t, window.AllowsHour(9))
	assert.True(t, window.AllowsHour(14))
	assert.False(t, window.AllowsHour(8))
	assert.False(t, window.AllowsHour(23))

	assert.True(t, window.AllowsWeekday(time.Monday))
	assert.True(t, window.AllowsWeekday(time.Friday))
	assert.False(t, window.AllowsWeekday(time.Sunday))
	assert.False(t, window.AllowsWeekday(time.Saturday))
}

func TestRecipientIsProcessed(t *testing.T) {
	recipient := &Recipient{Status: RecipientStatusPending}
	assert.False(t, recipient.IsProcessed())

	for _, s := range []RecipientStatus{RecipientStatusSent, RecipientStatusFailed, RecipientStatusCancelled} {
		recipient.Status = s
		assert.True(t, recipient.IsProcessed(), "status %s should count as processed", s)
	}
}

func TestQuotaLedgerRemaining(t *testing.T) {
	ledger := &QuotaLedger{
		DailyLimit:    100,
		DailyUsed:     40,
		DailyReserved: 10,

		MonthlyLimit:    1000,
		MonthlyUsed:     999,
		MonthlyReserved: 0,
	}

	assert.Equal(t, 50, ledger.RemainingDaily())
	assert.Equal(t, 1, ledger.RemainingMonthly())
	assert.False(t, ledger.Exhausted())

	ledger.MonthlyReserved = 1
	assert.Equal(t, 0, ledger.RemainingMonthly())
	assert.True(t, ledger.Exhausted())

	// Over-consumption clamps at zero
	ledger.DailyUsed = 120
	assert.Equal(t, 0, ledger.RemainingDaily())
}

func TestInboxIsConnected(t *testing.T) {
	inbox := &Inbox{Status: InboxStatusConnected}
	assert.True(t, inbox.IsConnected())

	inbox.Status = InboxStatusConnecting
	assert.False(t, inbox.IsConnected())

	inbox.Status = InboxStatusDisconnected
	assert.False(t, inbox.IsConnected())
}
