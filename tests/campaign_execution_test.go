// Package tests contains test cases spanning models, repository, and flow packages to avoid circular imports
package tests

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/amirphl/Susanoo/app/dto"
	"github.com/amirphl/Susanoo/app/scheduler"
	"github.com/amirphl/Susanoo/app/services"
	businessflow "github.com/amirphl/Susanoo/business_flow"
	"github.com/amirphl/Susanoo/models"
	"github.com/amirphl/Susanoo/repository"
	testingutil "github.com/amirphl/Susanoo/testing"
	"github.com/amirphl/Susanoo/utils"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// flashHumanizer paces the engine at test speed: ascending send order and a
// fixed near-zero delay between recipients
type flashHumanizer struct {
	delay time.Duration
}

func (h flashHumanizer) Order(total int, randomize bool) []int64 {
	order := make([]int64, total)
	for i := range order {
		order[i] = int64(i)
	}
	return order
}

func (h flashHumanizer) NextDelay(minMinutes, maxMinutes int) time.Duration {
	return h.delay
}

// engineHarness wires the supervisor, the quota gate, and the campaign flow
// over real repositories, the way main assembles them
type engineHarness struct {
	campaignRepo  repository.CampaignRepository
	recipientRepo repository.RecipientRepository
	ledgerRepo    repository.QuotaLedgerRepository
	sender        *services.MockWhatsAppService
	sup           *scheduler.CampaignSupervisor
	flow          businessflow.CampaignFlow
}

func newEngineHarness(t *testing.T, testDB *testingutil.TestDB) *engineHarness {
	t.Helper()

	campaignRepo := repository.NewCampaignRepository(testDB.DB)
	recipientRepo := repository.NewRecipientRepository(testDB.DB)
	inboxRepo := repository.NewInboxRepository(testDB.DB)
	ledgerRepo := repository.NewQuotaLedgerRepository(testDB.DB)
	workspaceRepo := repository.NewWorkspaceRepository(testDB.DB)

	gate := services.NewLedgerQuotaGate(ledgerRepo, workspaceRepo)
	sender := services.NewMockWhatsAppService()
	sup := scheduler.NewCampaignSupervisor(
		campaignRepo,
		recipientRepo,
		inboxRepo,
		ledgerRepo,
		gate,
		sender,
		flashHumanizer{delay: time.Millisecond},
		25*time.Millisecond,
		5*time.Millisecond,
		t.TempDir(),
	)

	flow := businessflow.NewCampaignFlow(
		campaignRepo,
		recipientRepo,
		repository.NewCustomerRepository(testDB.DB),
		inboxRepo,
		repository.NewCampaignDraftRepository(testDB.DB),
		repository.NewAuditLogRepository(testDB.DB),
		sup,
		testDB.DB,
	)

	return &engineHarness{
		campaignRepo:  campaignRepo,
		recipientRepo: recipientRepo,
		ledgerRepo:    ledgerRepo,
		sender:        sender,
		sup:           sup,
		flow:          flow,
	}
}

func (h *engineHarness) statusIs(ctx context.Context, campaignID uint, want models.CampaignStatus) func() bool {
	return func() bool {
		campaign, err := h.campaignRepo.ByID(ctx, campaignID)
		return err == nil && campaign != nil && campaign.Status == want
	}
}

func (h *engineHarness) noExecutors() func() bool {
	return func() bool { return h.sup.ActiveExecutors() == 0 }
}

// launchCampaign creates a campaign through the flow, starts it immediately,
// and returns the persisted row
func (h *engineHarness) launchCampaign(t *testing.T, ctx context.Context, customerID uint, inboxUUID string, recipients int) *models.Campaign {
	t.Helper()

	campaignUUID := createCampaignThroughFlow(t, h.flow, customerID, inboxUUID, recipients)
	_, err := h.flow.StartCampaign(ctx, &dto.StartCampaignRequest{UUID: campaignUUID, CustomerID: customerID}, testClientMetadata())
	require.NoError(t, err)

	campaign, err := h.campaignRepo.ByUUID(ctx, campaignUUID)
	require.NoError(t, err)
	require.NotNil(t, campaign)
	return campaign
}

func TestEngineDeliversCampaignEndToEnd(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		fixtures := testingutil.NewTestFixtures(testDB)
		ctx := testingutil.CreateTestContext()

		workspace, customer, err := fixtures.CreateWorkspaceWithCustomer()
		require.NoError(t, err)
		inbox, err := fixtures.CreateTestInbox(workspace.ID, models.InboxStatusConnected)
		require.NoError(t, err)
		_, err = fixtures.CreateTestLedger(workspace.ID, 100, 1000)
		require.NoError(t, err)

		h := newEngineHarness(t, testDB)
		stop := h.sup.Start(context.Background())
		defer stop()

		campaign := h.launchCampaign(t, ctx, customer.ID, inbox.UUID.String(), 3)

		require.Eventually(t, h.statusIs(ctx, campaign.ID, models.CampaignStatusCompleted),
			10*time.Second, 25*time.Millisecond, "campaign should run to completion")

		final, err := h.campaignRepo.ByID(ctx, campaign.ID)
		require.NoError(t, err)
		assert.Equal(t, 3, final.Cursor)
		assert.Equal(t, 3, final.SentCount)
		assert.Equal(t, 0, final.FailedCount)
		assert.Equal(t, pq.Int64Array{0, 1, 2}, final.SendOrder)
		assert.Nil(t, final.PauseReason)

		recipients, err := h.recipientRepo.ListByCampaign(ctx, campaign.ID)
		require.NoError(t, err)
		require.Len(t, recipients, 3)
		for _, rec := range recipients {
			assert.Equal(t, models.RecipientStatusSent, rec.Status)
			assert.NotNil(t, rec.AttemptedAt)
			require.NotNil(t, rec.ProviderMessageID)
			assert.NotEmpty(t, *rec.ProviderMessageID)
		}

		sent := h.sender.GetSentMessages()
		require.Len(t, sent, 3)
		for i, msg := range sent {
			assert.Equal(t, fmt.Sprintf("+1777%07d", i), msg.PhoneNumber, "flash order dispatches by ascending position")
			assert.Equal(t, fmt.Sprintf("Hi Contact %d, our autumn offer is live", i), msg.Message.Text, "variables are rendered per recipient")
			assert.Equal(t, inbox.UUID.String(), msg.InboxUUID)
		}

		ledger, err := h.ledgerRepo.ByWorkspaceID(ctx, workspace.ID)
		require.NoError(t, err)
		assert.Equal(t, 3, ledger.DailyUsed)
		assert.Equal(t, 3, ledger.MonthlyUsed)
		assert.Equal(t, 0, ledger.DailyReserved)
		assert.Equal(t, 0, ledger.MonthlyReserved)

		require.Eventually(t, h.noExecutors(), 5*time.Second, 25*time.Millisecond,
			"completed campaigns should release their executor")

		return nil
	})
	require.NoError(t, err)
}

func TestEngineQuotaExhaustionPausesAndResumes(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		fixtures := testingutil.NewTestFixtures(testDB)
		ctx := testingutil.CreateTestContext()

		workspace, customer, err := fixtures.CreateWorkspaceWithCustomer()
		require.NoError(t, err)
		inbox, err := fixtures.CreateTestInbox(workspace.ID, models.InboxStatusConnected)
		require.NoError(t, err)
		_, err = fixtures.CreateTestLedger(workspace.ID, 2, 1000)
		require.NoError(t, err)

		h := newEngineHarness(t, testDB)
		stop := h.sup.Start(context.Background())
		defer stop()

		campaign := h.launchCampaign(t, ctx, customer.ID, inbox.UUID.String(), 3)

		require.Eventually(t, h.statusIs(ctx, campaign.ID, models.CampaignStatusPaused),
			10*time.Second, 25*time.Millisecond, "campaign should pause when the daily budget runs out")

		paused, err := h.campaignRepo.ByID(ctx, campaign.ID)
		require.NoError(t, err)
		assert.Equal(t, 2, paused.SentCount)
		assert.Equal(t, 2, paused.Cursor)
		require.NotNil(t, paused.PauseReason)
		assert.Equal(t, models.PauseReasonQuotaExhausted, *paused.PauseReason)

		ledger, err := h.ledgerRepo.ByWorkspaceID(ctx, workspace.ID)
		require.NoError(t, err)
		assert.Equal(t, 2, ledger.DailyUsed)
		assert.Equal(t, 0, ledger.DailyReserved, "the denied unit is never held")

		require.Eventually(t, h.noExecutors(), 5*time.Second, 25*time.Millisecond,
			"paused campaigns should release their executor")

		// Lift the budget and resume through the flow; the supervisor is the
		// flow's resumer, so dispatch restarts without waiting for a scan
		err = testDB.DB.Model(&models.QuotaLedger{}).
			Where("workspace_id = ?", workspace.ID).
			Update("daily_limit", 10).Error
		require.NoError(t, err)

		_, err = h.flow.ResumeCampaign(ctx, &dto.ResumeCampaignRequest{UUID: campaign.UUID.String(), CustomerID: customer.ID}, testClientMetadata())
		require.NoError(t, err)

		require.Eventually(t, h.statusIs(ctx, campaign.ID, models.CampaignStatusCompleted),
			10*time.Second, 25*time.Millisecond, "resumed campaign should finish the remaining recipient")

		final, err := h.campaignRepo.ByID(ctx, campaign.ID)
		require.NoError(t, err)
		assert.Equal(t, 3, final.SentCount)
		assert.Nil(t, final.PauseReason)

		ledger, err = h.ledgerRepo.ByWorkspaceID(ctx, workspace.ID)
		require.NoError(t, err)
		assert.Equal(t, 3, ledger.DailyUsed)
		assert.Equal(t, 0, ledger.DailyReserved)

		return nil
	})
	require.NoError(t, err)
}

func TestEngineRejectedRecipientMarkedFailed(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		fixtures := testingutil.NewTestFixtures(testDB)
		ctx := testingutil.CreateTestContext()

		workspace, customer, err := fixtures.CreateWorkspaceWithCustomer()
		require.NoError(t, err)
		inbox, err := fixtures.CreateTestInbox(workspace.ID, models.InboxStatusConnected)
		require.NoError(t, err)
		_, err = fixtures.CreateTestLedger(workspace.ID, 100, 1000)
		require.NoError(t, err)

		h := newEngineHarness(t, testDB)
		h.sender.RejectNumbers["+17770000001"] = "recipient is not on whatsapp"
		stop := h.sup.Start(context.Background())
		defer stop()

		campaign := h.launchCampaign(t, ctx, customer.ID, inbox.UUID.String(), 3)

		require.Eventually(t, h.statusIs(ctx, campaign.ID, models.CampaignStatusCompleted),
			10*time.Second, 25*time.Millisecond, "a rejected recipient must not stall the campaign")

		final, err := h.campaignRepo.ByID(ctx, campaign.ID)
		require.NoError(t, err)
		assert.Equal(t, 3, final.Cursor)
		assert.Equal(t, 2, final.SentCount)
		assert.Equal(t, 1, final.FailedCount)

		rejected, err := h.recipientRepo.ByCampaignAndPosition(ctx, campaign.ID, 1)
		require.NoError(t, err)
		require.NotNil(t, rejected)
		assert.Equal(t, models.RecipientStatusFailed, rejected.Status)
		require.NotNil(t, rejected.ErrorDetail)
		assert.Contains(t, *rejected.ErrorDetail, "rejected")
		assert.Nil(t, rejected.ProviderMessageID)

		ledger, err := h.ledgerRepo.ByWorkspaceID(ctx, workspace.ID)
		require.NoError(t, err)
		assert.Equal(t, 2, ledger.DailyUsed, "rejections hand their quota unit back")
		assert.Equal(t, 0, ledger.DailyReserved)

		return nil
	})
	require.NoError(t, err)
}

func TestEngineRecoversMidFlightCampaign(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		fixtures := testingutil.NewTestFixtures(testDB)
		ctx := testingutil.CreateTestContext()

		workspace, customer, err := fixtures.CreateWorkspaceWithCustomer()
		require.NoError(t, err)
		inbox, err := fixtures.CreateTestInbox(workspace.ID, models.InboxStatusConnected)
		require.NoError(t, err)
		_, err = fixtures.CreateTestLedger(workspace.ID, 100, 1000)
		require.NoError(t, err)

		h := newEngineHarness(t, testDB)
		campaign := h.launchCampaign(t, ctx, customer.ID, inbox.UUID.String(), 3)

		// Age the campaign into the state a crashed engine leaves behind:
		// running, order fixed, first recipient already delivered
		err = testDB.DB.Model(&models.Campaign{}).
			Where("id = ?", campaign.ID).
			Updates(map[string]any{
				"status":     models.CampaignStatusRunning,
				"send_order": pq.Int64Array{0, 1, 2},
				"cursor":     1,
				"sent_count": 1,
			}).Error
		require.NoError(t, err)
		err = testDB.DB.Model(&models.Recipient{}).
			Where("campaign_id = ? AND position = ?", campaign.ID, 0).
			Updates(map[string]any{
				"status":       models.RecipientStatusSent,
				"attempted_at": utils.UTCNow(),
			}).Error
		require.NoError(t, err)

		stop := h.sup.Start(context.Background())
		defer stop()

		require.Eventually(t, h.statusIs(ctx, campaign.ID, models.CampaignStatusCompleted),
			10*time.Second, 25*time.Millisecond, "restart should pick the campaign up from its cursor")

		final, err := h.campaignRepo.ByID(ctx, campaign.ID)
		require.NoError(t, err)
		assert.Equal(t, 3, final.Cursor)
		assert.Equal(t, 3, final.SentCount)
		assert.Equal(t, pq.Int64Array{0, 1, 2}, final.SendOrder, "recovery keeps the original send order")

		sent := h.sender.GetSentMessages()
		require.Len(t, sent, 2, "already-delivered recipients are not re-sent")
		assert.Equal(t, "+17770000001", sent[0].PhoneNumber)
		assert.Equal(t, "+17770000002", sent[1].PhoneNumber)

		ledger, err := h.ledgerRepo.ByWorkspaceID(ctx, workspace.ID)
		require.NoError(t, err)
		assert.Equal(t, 2, ledger.DailyUsed, "only the recipients sent after recovery consume quota")

		return nil
	})
	require.NoError(t, err)
}
