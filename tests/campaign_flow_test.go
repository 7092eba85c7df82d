// Package tests contains test cases spanning models, repository, and flow packages to avoid circular imports
package tests

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/amirphl/Susanoo/app/dto"
	businessflow "github.com/amirphl/Susanoo/business_flow"
	"github.com/amirphl/Susanoo/models"
	"github.com/amirphl/Susanoo/repository"
	testingutil "github.com/amirphl/Susanoo/testing"
	"github.com/amirphl/Susanoo/utils"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingResumer captures the campaign IDs the flow asks to admit so resume
// tests can run without a live supervisor
type recordingResumer struct {
	mu  sync.Mutex
	ids []uint
}

func (r *recordingResumer) ResumeNow(ctx context.Context, campaignID uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ids = append(r.ids, campaignID)
	return nil
}

func (r *recordingResumer) admitted() []uint {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]uint, len(r.ids))
	copy(out, r.ids)
	return out
}

func newCampaignFlowForTest(testDB *testingutil.TestDB, resumer businessflow.ExecutorResumer) businessflow.CampaignFlow {
	return businessflow.NewCampaignFlow(
		repository.NewCampaignRepository(testDB.DB),
		repository.NewRecipientRepository(testDB.DB),
		repository.NewCustomerRepository(testDB.DB),
		repository.NewInboxRepository(testDB.DB),
		repository.NewCampaignDraftRepository(testDB.DB),
		repository.NewAuditLogRepository(testDB.DB),
		resumer,
		testDB.DB,
	)
}

func testClientMetadata() *businessflow.ClientMetadata {
	return businessflow.NewClientMetadata("203.0.113.7", "susanoo-tests/1.0")
}

func buildCreateCampaignRequest(customerID uint, inboxUUID string, recipients int) *dto.CreateCampaignRequest {
	entries := make([]dto.RecipientEntry, 0, recipients)
	for i := 0; i < recipients; i++ {
		entries = append(entries, dto.RecipientEntry{
			PhoneNumber: fmt.Sprintf("+1777%07d", i),
			Variables:   map[string]string{"name": fmt.Sprintf("Contact %d", i)},
		})
	}
	return &dto.CreateCampaignRequest{
		CustomerID:      customerID,
		Title:           "Autumn promotion",
		InboxUUID:       inboxUUID,
		Messages:        []dto.MessageItemDTO{{Kind: "text", Text: "Hi {{name}}, our autumn offer is live"}},
		DelayMinMinutes: 1,
		DelayMaxMinutes: 2,
		Recipients:      entries,
	}
}

// createCampaignThroughFlow persists a pending campaign via the flow and
// returns its UUID
func createCampaignThroughFlow(t *testing.T, flow businessflow.CampaignFlow, customerID uint, inboxUUID string, recipients int) string {
	t.Helper()

	resp, err := flow.CreateCampaign(context.Background(), buildCreateCampaignRequest(customerID, inboxUUID, recipients), testClientMetadata())
	require.NoError(t, err)
	require.NotNil(t, resp)
	return resp.UUID
}

func TestCampaignFlowCreate(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		fixtures := testingutil.NewTestFixtures(testDB)
		ctx := testingutil.CreateTestContext()
		metadata := testClientMetadata()

		_, customer, err := fixtures.CreateWorkspaceWithCustomer()
		require.NoError(t, err)
		inbox, err := fixtures.CreateTestInbox(customer.WorkspaceID, models.InboxStatusConnected)
		require.NoError(t, err)

		campaignRepo := repository.NewCampaignRepository(testDB.DB)
		recipientRepo := repository.NewRecipientRepository(testDB.DB)
		draftRepo := repository.NewCampaignDraftRepository(testDB.DB)
		auditRepo := repository.NewAuditLogRepository(testDB.DB)
		flow := newCampaignFlowForTest(testDB, nil)

		t.Run("SuccessfulCreateMaterializesRecipients", func(t *testing.T) {
			req := buildCreateCampaignRequest(customer.ID, inbox.UUID.String(), 3)
			resp, err := flow.CreateCampaign(ctx, req, metadata)
			require.NoError(t, err)
			require.NotNil(t, resp)
			assert.Equal(t, "Campaign created successfully", resp.Message)
			assert.Equal(t, models.CampaignStatusPending.String(), resp.Status)
			assert.Equal(t, 3, resp.TotalRecipients)
			_, err = uuid.Parse(resp.UUID)
			require.NoError(t, err)

			campaign, err := campaignRepo.ByUUID(ctx, resp.UUID)
			require.NoError(t, err)
			require.NotNil(t, campaign)
			assert.Equal(t, "Autumn promotion", campaign.Title)
			assert.Equal(t, inbox.ID, campaign.InboxID)
			assert.Equal(t, customer.WorkspaceID, campaign.WorkspaceID)
			assert.Equal(t, 0, campaign.Cursor)
			assert.Equal(t, 3, campaign.TotalRecipients)
			assert.False(t, campaign.OrderFixed(), "send order is fixed at execution time, not at creation")
			assert.Nil(t, campaign.ScheduledAt)

			recipients, err := recipientRepo.ListByCampaign(ctx, campaign.ID)
			require.NoError(t, err)
			require.Len(t, recipients, 3)
			for i, rec := range recipients {
				assert.Equal(t, i, rec.Position, "recipients keep request order")
				assert.Equal(t, fmt.Sprintf("+1777%07d", i), rec.PhoneNumber)
				assert.Equal(t, fmt.Sprintf("Contact %d", i), rec.Variables["name"])
				assert.Equal(t, models.RecipientStatusPending, rec.Status)
			}

			logs, err := auditRepo.ListByAction(ctx, models.AuditActionCampaignCreated, 10, 0)
			require.NoError(t, err)
			require.NotEmpty(t, logs)
			assert.False(t, logs[0].IsFailed())
			require.NotNil(t, logs[0].CustomerID)
			assert.Equal(t, customer.ID, *logs[0].CustomerID)
		})

		t.Run("CreateConsumesDraft", func(t *testing.T) {
			err := draftRepo.Upsert(ctx, &models.CampaignDraft{
				CustomerID: customer.ID,
				Payload:    models.DraftPayload{Title: "Half-finished idea"},
				CreatedAt:  utils.UTCNow(),
			})
			require.NoError(t, err)

			createCampaignThroughFlow(t, flow, customer.ID, inbox.UUID.String(), 2)

			draft, err := draftRepo.ByCustomerID(ctx, customer.ID)
			require.NoError(t, err)
			assert.Nil(t, draft, "committing a campaign consumes the draft")
		})

		t.Run("RejectsForeignInbox", func(t *testing.T) {
			_, otherCustomer, err := fixtures.CreateWorkspaceWithCustomer()
			require.NoError(t, err)
			foreignInbox, err := fixtures.CreateTestInbox(otherCustomer.WorkspaceID, models.InboxStatusConnected)
			require.NoError(t, err)

			req := buildCreateCampaignRequest(customer.ID, foreignInbox.UUID.String(), 1)
			resp, err := flow.CreateCampaign(ctx, req, metadata)
			require.Error(t, err)
			assert.Nil(t, resp)
			assert.True(t, businessflow.IsInboxAccessDenied(err))

			var bizErr *businessflow.BusinessError
			require.True(t, errors.As(err, &bizErr))
			assert.Equal(t, "INBOX_ACCESS_DENIED", bizErr.Code)
		})

		t.Run("RejectsUnknownInbox", func(t *testing.T) {
			req := buildCreateCampaignRequest(customer.ID, uuid.NewString(), 1)
			_, err := flow.CreateCampaign(ctx, req, metadata)
			require.Error(t, err)
			assert.True(t, businessflow.IsInboxNotFound(err))
		})

		t.Run("ValidationFailures", func(t *testing.T) {
			pastSchedule := utils.UTCNow().Add(-time.Hour)

			cases := []struct {
				name   string
				mutate func(req *dto.CreateCampaignRequest)
				check  func(err error) bool
			}{
				{
					name:   "DelayBelowMinimum",
					mutate: func(req *dto.CreateCampaignRequest) { req.DelayMinMinutes = 0 },
					check:  businessflow.IsDelayBoundsInvalid,
				},
				{
					name: "DelayMinAboveMax",
					mutate: func(req *dto.CreateCampaignRequest) {
						req.DelayMinMinutes = 5
						req.DelayMaxMinutes = 2
					},
					check: businessflow.IsDelayBoundsInvalid,
				},
				{
					name: "WindowWithNoHours",
					mutate: func(req *dto.CreateCampaignRequest) {
						req.Window = &dto.SendWindowDTO{AllowedHours: []int{}, AllowedWeekdays: []int{1}}
					},
					check: businessflow.IsEmptySendWindow,
				},
				{
					name:   "ScheduleInPast",
					mutate: func(req *dto.CreateCampaignRequest) { req.ScheduleAt = &pastSchedule },
					check:  businessflow.IsScheduleTimeInPast,
				},
				{
					name:   "MissingMessages",
					mutate: func(req *dto.CreateCampaignRequest) { req.Messages = nil },
					check: func(err error) bool {
						return errors.Is(err, businessflow.ErrCampaignMessagesRequired)
					},
				},
				{
					name:   "TextMessageWithoutBody",
					mutate: func(req *dto.CreateCampaignRequest) { req.Messages = []dto.MessageItemDTO{{Kind: "text"}} },
					check:  businessflow.IsMessageTextRequired,
				},
				{
					name:   "MissingRecipients",
					mutate: func(req *dto.CreateCampaignRequest) { req.Recipients = nil },
					check: func(err error) bool {
						return errors.Is(err, businessflow.ErrRecipientsRequired)
					},
				},
			}

			for _, tc := range cases {
				t.Run(tc.name, func(t *testing.T) {
					req := buildCreateCampaignRequest(customer.ID, inbox.UUID.String(), 1)
					tc.mutate(req)

					_, err := flow.CreateCampaign(ctx, req, metadata)
					require.Error(t, err)
					assert.True(t, tc.check(err))

					var bizErr *businessflow.BusinessError
					require.True(t, errors.As(err, &bizErr))
					assert.Equal(t, "CAMPAIGN_VALIDATION_FAILED", bizErr.Code)
				})
			}
		})

		return nil
	})
	require.NoError(t, err)
}

func TestCampaignFlowStart(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		fixtures := testingutil.NewTestFixtures(testDB)
		ctx := testingutil.CreateTestContext()
		metadata := testClientMetadata()

		_, customer, err := fixtures.CreateWorkspaceWithCustomer()
		require.NoError(t, err)
		inbox, err := fixtures.CreateTestInbox(customer.WorkspaceID, models.InboxStatusConnected)
		require.NoError(t, err)

		campaignRepo := repository.NewCampaignRepository(testDB.DB)
		flow := newCampaignFlowForTest(testDB, nil)

		t.Run("StartSchedulesImmediately", func(t *testing.T) {
			campaignUUID := createCampaignThroughFlow(t, flow, customer.ID, inbox.UUID.String(), 2)

			before := utils.UTCNow()
			resp, err := flow.StartCampaign(ctx, &dto.StartCampaignRequest{UUID: campaignUUID, CustomerID: customer.ID}, metadata)
			require.NoError(t, err)
			require.NotNil(t, resp)
			assert.Equal(t, models.CampaignStatusScheduled.String(), resp.Status)
			assert.WithinDuration(t, before, resp.ScheduledAt, 5*time.Second)

			campaign, err := campaignRepo.ByUUID(ctx, campaignUUID)
			require.NoError(t, err)
			require.NotNil(t, campaign)
			assert.Equal(t, models.CampaignStatusScheduled, campaign.Status)
			require.NotNil(t, campaign.ScheduledAt)
			assert.WithinDuration(t, resp.ScheduledAt, *campaign.ScheduledAt, time.Second)
		})

		t.Run("StartWithFutureSchedule", func(t *testing.T) {
			campaignUUID := createCampaignThroughFlow(t, flow, customer.ID, inbox.UUID.String(), 2)
			at := utils.UTCNow().Add(2 * time.Hour)

			resp, err := flow.StartCampaign(ctx, &dto.StartCampaignRequest{UUID: campaignUUID, CustomerID: customer.ID, ScheduleAt: &at}, metadata)
			require.NoError(t, err)
			assert.WithinDuration(t, at, resp.ScheduledAt, time.Second)

			campaign, err := campaignRepo.ByUUID(ctx, campaignUUID)
			require.NoError(t, err)
			require.NotNil(t, campaign.ScheduledAt)
			assert.WithinDuration(t, at, *campaign.ScheduledAt, time.Second)
		})

		t.Run("StartRejectsPastSchedule", func(t *testing.T) {
			campaignUUID := createCampaignThroughFlow(t, flow, customer.ID, inbox.UUID.String(), 1)
			at := utils.UTCNow().Add(-time.Minute)

			_, err := flow.StartCampaign(ctx, &dto.StartCampaignRequest{UUID: campaignUUID, CustomerID: customer.ID, ScheduleAt: &at}, metadata)
			require.Error(t, err)
			assert.True(t, businessflow.IsScheduleTimeInPast(err))

			campaign, err := campaignRepo.ByUUID(ctx, campaignUUID)
			require.NoError(t, err)
			assert.Equal(t, models.CampaignStatusPending, campaign.Status, "rejected start leaves the campaign untouched")
		})

		t.Run("StartTwiceConflicts", func(t *testing.T) {
			campaignUUID := createCampaignThroughFlow(t, flow, customer.ID, inbox.UUID.String(), 1)

			_, err := flow.StartCampaign(ctx, &dto.StartCampaignRequest{UUID: campaignUUID, CustomerID: customer.ID}, metadata)
			require.NoError(t, err)

			_, err = flow.StartCampaign(ctx, &dto.StartCampaignRequest{UUID: campaignUUID, CustomerID: customer.ID}, metadata)
			require.Error(t, err)
			assert.True(t, businessflow.IsCampaignNotPending(err))

			var bizErr *businessflow.BusinessError
			require.True(t, errors.As(err, &bizErr))
			assert.Equal(t, "CAMPAIGN_NOT_PENDING", bizErr.Code)
		})

		t.Run("StartForeignCampaignDenied", func(t *testing.T) {
			campaignUUID := createCampaignThroughFlow(t, flow, customer.ID, inbox.UUID.String(), 1)

			_, stranger, err := fixtures.CreateWorkspaceWithCustomer()
			require.NoError(t, err)

			_, err = flow.StartCampaign(ctx, &dto.StartCampaignRequest{UUID: campaignUUID, CustomerID: stranger.ID}, metadata)
			require.Error(t, err)
			assert.True(t, businessflow.IsCampaignAccessDenied(err))
		})

		t.Run("StartUnknownCampaign", func(t *testing.T) {
			_, err := flow.StartCampaign(ctx, &dto.StartCampaignRequest{UUID: uuid.NewString(), CustomerID: customer.ID}, metadata)
			require.Error(t, err)
			assert.True(t, businessflow.IsCampaignNotFound(err))
		})

		return nil
	})
	require.NoError(t, err)
}

func TestCampaignFlowPauseResume(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		fixtures := testingutil.NewTestFixtures(testDB)
		ctx := testingutil.CreateTestContext()
		metadata := testClientMetadata()

		_, customer, err := fixtures.CreateWorkspaceWithCustomer()
		require.NoError(t, err)
		inbox, err := fixtures.CreateTestInbox(customer.WorkspaceID, models.InboxStatusConnected)
		require.NoError(t, err)

		campaignRepo := repository.NewCampaignRepository(testDB.DB)
		resumer := &recordingResumer{}
		flow := newCampaignFlowForTest(testDB, resumer)

		// startRunning drives a fresh campaign to running the way the
		// supervisor would: schedule it, then admit it.
		startRunning := func(t *testing.T) (string, uint) {
			t.Helper()
			campaignUUID := createCampaignThroughFlow(t, flow, customer.ID, inbox.UUID.String(), 2)
			_, err := flow.StartCampaign(ctx, &dto.StartCampaignRequest{UUID: campaignUUID, CustomerID: customer.ID}, metadata)
			require.NoError(t, err)

			campaign, err := campaignRepo.ByUUID(ctx, campaignUUID)
			require.NoError(t, err)
			moved, err := campaignRepo.UpdateStatusIf(ctx, campaign.ID, models.CampaignStatusRunning, models.CampaignStatusScheduled)
			require.NoError(t, err)
			require.True(t, moved)
			return campaignUUID, campaign.ID
		}

		t.Run("PauseRequiresRunning", func(t *testing.T) {
			campaignUUID := createCampaignThroughFlow(t, flow, customer.ID, inbox.UUID.String(), 1)

			_, err := flow.PauseCampaign(ctx, &dto.PauseCampaignRequest{UUID: campaignUUID, CustomerID: customer.ID}, metadata)
			require.Error(t, err)
			assert.True(t, businessflow.IsCampaignNotRunning(err))
		})

		t.Run("PauseRunningRecordsReason", func(t *testing.T) {
			campaignUUID, _ := startRunning(t)

			resp, err := flow.PauseCampaign(ctx, &dto.PauseCampaignRequest{UUID: campaignUUID, CustomerID: customer.ID}, metadata)
			require.NoError(t, err)
			assert.Equal(t, models.CampaignStatusPaused.String(), resp.Status)

			campaign, err := campaignRepo.ByUUID(ctx, campaignUUID)
			require.NoError(t, err)
			assert.Equal(t, models.CampaignStatusPaused, campaign.Status)
			require.NotNil(t, campaign.PauseReason)
			assert.Equal(t, models.PauseReasonUserRequested, *campaign.PauseReason)
		})

		t.Run("ResumeClearsPauseAndNotifiesSupervisor", func(t *testing.T) {
			campaignUUID, campaignID := startRunning(t)

			_, err := flow.PauseCampaign(ctx, &dto.PauseCampaignRequest{UUID: campaignUUID, CustomerID: customer.ID}, metadata)
			require.NoError(t, err)

			resp, err := flow.ResumeCampaign(ctx, &dto.ResumeCampaignRequest{UUID: campaignUUID, CustomerID: customer.ID}, metadata)
			require.NoError(t, err)
			assert.Equal(t, models.CampaignStatusRunning.String(), resp.Status)

			campaign, err := campaignRepo.ByUUID(ctx, campaignUUID)
			require.NoError(t, err)
			assert.Equal(t, models.CampaignStatusRunning, campaign.Status)
			assert.Nil(t, campaign.PauseReason)
			assert.Contains(t, resumer.admitted(), campaignID, "resume asks the supervisor to re-admit right away")
		})

		t.Run("ResumeRequiresPaused", func(t *testing.T) {
			campaignUUID, _ := startRunning(t)

			_, err := flow.ResumeCampaign(ctx, &dto.ResumeCampaignRequest{UUID: campaignUUID, CustomerID: customer.ID}, metadata)
			require.Error(t, err)
			assert.True(t, businessflow.IsCampaignNotPaused(err))
		})

		return nil
	})
	require.NoError(t, err)
}

func TestCampaignFlowCancel(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		fixtures := testingutil.NewTestFixtures(testDB)
		ctx := testingutil.CreateTestContext()
		metadata := testClientMetadata()

		_, customer, err := fixtures.CreateWorkspaceWithCustomer()
		require.NoError(t, err)
		inbox, err := fixtures.CreateTestInbox(customer.WorkspaceID, models.InboxStatusConnected)
		require.NoError(t, err)

		campaignRepo := repository.NewCampaignRepository(testDB.DB)
		recipientRepo := repository.NewRecipientRepository(testDB.DB)
		flow := newCampaignFlowForTest(testDB, nil)

		t.Run("CancelPendingCancelsAllRecipients", func(t *testing.T) {
			campaignUUID := createCampaignThroughFlow(t, flow, customer.ID, inbox.UUID.String(), 4)

			resp, err := flow.CancelCampaign(ctx, &dto.CancelCampaignRequest{UUID: campaignUUID, CustomerID: customer.ID}, metadata)
			require.NoError(t, err)
			assert.Equal(t, models.CampaignStatusCancelled.String(), resp.Status)
			assert.Equal(t, int64(4), resp.CancelledRecipients)

			campaign, err := campaignRepo.ByUUID(ctx, campaignUUID)
			require.NoError(t, err)
			assert.Equal(t, models.CampaignStatusCancelled, campaign.Status)

			cancelled, err := recipientRepo.CountByStatus(ctx, campaign.ID, models.RecipientStatusCancelled)
			require.NoError(t, err)
			assert.Equal(t, int64(4), cancelled)
		})

		t.Run("CancelAfterPartialProgressKeepsOutcomes", func(t *testing.T) {
			campaignUUID := createCampaignThroughFlow(t, flow, customer.ID, inbox.UUID.String(), 3)
			campaign, err := campaignRepo.ByUUID(ctx, campaignUUID)
			require.NoError(t, err)

			moved, err := campaignRepo.Schedule(ctx, campaign.ID, utils.UTCNow())
			require.NoError(t, err)
			require.True(t, moved)
			moved, err = campaignRepo.UpdateStatusIf(ctx, campaign.ID, models.CampaignStatusRunning, models.CampaignStatusScheduled)
			require.NoError(t, err)
			require.True(t, moved)
			fixed, err := campaignRepo.SetSendOrder(ctx, campaign.ID, []int64{0, 1, 2})
			require.NoError(t, err)
			require.True(t, fixed)

			providerID := "mock-1"
			advanced, err := campaignRepo.AdvanceCursor(ctx, campaign.ID, 0, repository.RecipientOutcome{
				Position:          0,
				Delivered:         true,
				ProviderMessageID: &providerID,
				AttemptedAt:       utils.UTCNow(),
			})
			require.NoError(t, err)
			require.True(t, advanced)

			resp, err := flow.CancelCampaign(ctx, &dto.CancelCampaignRequest{UUID: campaignUUID, CustomerID: customer.ID}, metadata)
			require.NoError(t, err)
			assert.Equal(t, int64(2), resp.CancelledRecipients, "only unreached recipients are cancelled")

			campaign, err = campaignRepo.ByUUID(ctx, campaignUUID)
			require.NoError(t, err)
			assert.Equal(t, models.CampaignStatusCancelled, campaign.Status)
			assert.Equal(t, 1, campaign.SentCount, "delivered counters survive the cancel")

			sent, err := recipientRepo.CountByStatus(ctx, campaign.ID, models.RecipientStatusSent)
			require.NoError(t, err)
			assert.Equal(t, int64(1), sent)
		})

		t.Run("DoubleCancelConflicts", func(t *testing.T) {
			campaignUUID := createCampaignThroughFlow(t, flow, customer.ID, inbox.UUID.String(), 1)

			_, err := flow.CancelCampaign(ctx, &dto.CancelCampaignRequest{UUID: campaignUUID, CustomerID: customer.ID}, metadata)
			require.NoError(t, err)

			_, err = flow.CancelCampaign(ctx, &dto.CancelCampaignRequest{UUID: campaignUUID, CustomerID: customer.ID}, metadata)
			require.Error(t, err)
			assert.True(t, businessflow.IsCampaignAlreadyFinished(err))

			var bizErr *businessflow.BusinessError
			require.True(t, errors.As(err, &bizErr))
			assert.Equal(t, "CAMPAIGN_CANCEL_FAILED", bizErr.Code)
		})

		return nil
	})
	require.NoError(t, err)
}

func TestCampaignFlowProgressAndLists(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		fixtures := testingutil.NewTestFixtures(testDB)
		ctx := testingutil.CreateTestContext()
		metadata := testClientMetadata()

		_, customer, err := fixtures.CreateWorkspaceWithCustomer()
		require.NoError(t, err)
		inbox, err := fixtures.CreateTestInbox(customer.WorkspaceID, models.InboxStatusConnected)
		require.NoError(t, err)

		campaignRepo := repository.NewCampaignRepository(testDB.DB)
		flow := newCampaignFlowForTest(testDB, nil)

		t.Run("ProgressTracksCursorAndCounters", func(t *testing.T) {
			campaignUUID := createCampaignThroughFlow(t, flow, customer.ID, inbox.UUID.String(), 3)

			progress, err := flow.GetCampaignProgress(ctx, &dto.GetCampaignRequest{UUID: campaignUUID, CustomerID: customer.ID}, metadata)
			require.NoError(t, err)
			assert.Equal(t, 0, progress.Cursor)
			assert.Equal(t, 3, progress.TotalRecipients)
			assert.Equal(t, 3, progress.Remaining)

			campaign, err := campaignRepo.ByUUID(ctx, campaignUUID)
			require.NoError(t, err)
			moved, err := campaignRepo.Schedule(ctx, campaign.ID, utils.UTCNow())
			require.NoError(t, err)
			require.True(t, moved)
			moved, err = campaignRepo.UpdateStatusIf(ctx, campaign.ID, models.CampaignStatusRunning, models.CampaignStatusScheduled)
			require.NoError(t, err)
			require.True(t, moved)
			fixed, err := campaignRepo.SetSendOrder(ctx, campaign.ID, []int64{0, 1, 2})
			require.NoError(t, err)
			require.True(t, fixed)

			providerID := "mock-1"
			advanced, err := campaignRepo.AdvanceCursor(ctx, campaign.ID, 0, repository.RecipientOutcome{
				Position: 0, Delivered: true, ProviderMessageID: &providerID, AttemptedAt: utils.UTCNow(),
			})
			require.NoError(t, err)
			require.True(t, advanced)

			detail := "recipient is not on whatsapp"
			advanced, err = campaignRepo.AdvanceCursor(ctx, campaign.ID, 1, repository.RecipientOutcome{
				Position: 1, Delivered: false, ErrorDetail: &detail, AttemptedAt: utils.UTCNow(),
			})
			require.NoError(t, err)
			require.True(t, advanced)

			progress, err = flow.GetCampaignProgress(ctx, &dto.GetCampaignRequest{UUID: campaignUUID, CustomerID: customer.ID}, metadata)
			require.NoError(t, err)
			assert.Equal(t, 2, progress.Cursor)
			assert.Equal(t, 1, progress.SentCount)
			assert.Equal(t, 1, progress.FailedCount)
			assert.Equal(t, 1, progress.Remaining)
			assert.Nil(t, progress.PauseReason)
		})

		t.Run("GetCampaignReturnsConfiguration", func(t *testing.T) {
			campaignUUID := createCampaignThroughFlow(t, flow, customer.ID, inbox.UUID.String(), 2)

			resp, err := flow.GetCampaign(ctx, &dto.GetCampaignRequest{UUID: campaignUUID, CustomerID: customer.ID}, metadata)
			require.NoError(t, err)
			assert.Equal(t, campaignUUID, resp.UUID)
			assert.Equal(t, "Autumn promotion", resp.Title)
			assert.Equal(t, inbox.UUID.String(), resp.InboxUUID)
			require.Len(t, resp.Messages, 1)
			assert.Equal(t, "text", resp.Messages[0].Kind)
			assert.Equal(t, 1, resp.DelayMinMinutes)
			assert.Equal(t, 2, resp.DelayMaxMinutes)
			assert.Equal(t, 2, resp.TotalRecipients)
		})

		t.Run("ListCampaignsPaginatesAndFilters", func(t *testing.T) {
			err := testDB.ClearAllTables()
			require.NoError(t, err)
			_, customer, err = fixtures.CreateWorkspaceWithCustomer()
			require.NoError(t, err)
			inbox, err = fixtures.CreateTestInbox(customer.WorkspaceID, models.InboxStatusConnected)
			require.NoError(t, err)

			first := createCampaignThroughFlow(t, flow, customer.ID, inbox.UUID.String(), 1)
			createCampaignThroughFlow(t, flow, customer.ID, inbox.UUID.String(), 1)
			createCampaignThroughFlow(t, flow, customer.ID, inbox.UUID.String(), 1)

			_, err = flow.StartCampaign(ctx, &dto.StartCampaignRequest{UUID: first, CustomerID: customer.ID}, metadata)
			require.NoError(t, err)

			all, err := flow.ListCampaigns(ctx, &dto.ListCampaignsRequest{CustomerID: customer.ID}, metadata)
			require.NoError(t, err)
			assert.Equal(t, int64(3), all.Pagination.Total)
			assert.Len(t, all.Items, 3)

			pending := models.CampaignStatusPending.String()
			filtered, err := flow.ListCampaigns(ctx, &dto.ListCampaignsRequest{
				CustomerID: customer.ID,
				Filter:     &dto.ListCampaignsFilter{Status: &pending},
			}, metadata)
			require.NoError(t, err)
			assert.Equal(t, int64(2), filtered.Pagination.Total)
			for _, item := range filtered.Items {
				assert.Equal(t, pending, item.Status)
			}

			paged, err := flow.ListCampaigns(ctx, &dto.ListCampaignsRequest{CustomerID: customer.ID, Page: 2, Limit: 2}, metadata)
			require.NoError(t, err)
			assert.Len(t, paged.Items, 1)
			assert.Equal(t, 2, paged.Pagination.TotalPages)
		})

		t.Run("ListRecipientsOrdersByPosition", func(t *testing.T) {
			campaignUUID := createCampaignThroughFlow(t, flow, customer.ID, inbox.UUID.String(), 5)

			resp, err := flow.ListRecipients(ctx, &dto.ListRecipientsRequest{UUID: campaignUUID, CustomerID: customer.ID}, metadata)
			require.NoError(t, err)
			require.Len(t, resp.Items, 5)
			for i, item := range resp.Items {
				assert.Equal(t, i, item.Position)
			}

			bogus := "zombie"
			_, err = flow.ListRecipients(ctx, &dto.ListRecipientsRequest{UUID: campaignUUID, CustomerID: customer.ID, Status: &bogus}, metadata)
			require.Error(t, err)
			assert.True(t, businessflow.IsRecipientStatusUnknown(err))
		})

		return nil
	})
	require.NoError(t, err)
}
