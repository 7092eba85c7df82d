package repository

import (
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amirphl/Susanoo/models"
	testingutil "github.com/amirphl/Susanoo/testing"
	"github.com/amirphl/Susanoo/utils"
)

func TestCampaignRepositoryStatusTransitions(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		fixtures := testingutil.NewTestFixtures(testDB)
		ctx := testingutil.CreateTestContext()

		workspace, customer, err := fixtures.CreateWorkspaceWithCustomer()
		if err != nil {
			return err
		}
		inbox, err := fixtures.CreateTestInbox(workspace.ID, models.InboxStatusConnected)
		if err != nil {
			return err
		}
		campaign, err := fixtures.CreateTestCampaign(customer.ID, workspace.ID, inbox.ID, 2)
		if err != nil {
			return err
		}

		repo := NewCampaignRepository(testDB.DB)

		t.Run("MatchingSourceStatusMoves", func(t *testing.T) {
			moved, err := repo.UpdateStatusIf(ctx, campaign.ID, models.CampaignStatusScheduled, models.CampaignStatusPending)
			require.NoError(t, err)
			assert.True(t, moved)

			reloaded, err := repo.ByID(ctx, campaign.ID)
			require.NoError(t, err)
			require.NotNil(t, reloaded)
			assert.Equal(t, models.CampaignStatusScheduled, reloaded.Status)
		})

		t.Run("StaleSourceStatusDoesNotMove", func(t *testing.T) {
			// The campaign is scheduled now, so a pending precondition fails
			moved, err := repo.UpdateStatusIf(ctx, campaign.ID, models.CampaignStatusCancelled, models.CampaignStatusPending)
			require.NoError(t, err)
			assert.False(t, moved)

			reloaded, err := repo.ByID(ctx, campaign.ID)
			require.NoError(t, err)
			assert.Equal(t, models.CampaignStatusScheduled, reloaded.Status)
		})

		t.Run("AnyListedSourceStatusMatches", func(t *testing.T) {
			moved, err := repo.UpdateStatusIf(ctx, campaign.ID, models.CampaignStatusRunning,
				models.CampaignStatusPending, models.CampaignStatusScheduled)
			require.NoError(t, err)
			assert.True(t, moved)
		})

		t.Run("ByIDPreloadsInbox", func(t *testing.T) {
			reloaded, err := repo.ByID(ctx, campaign.ID)
			require.NoError(t, err)
			require.NotNil(t, reloaded.Inbox)
			assert.Equal(t, inbox.UUID, reloaded.Inbox.UUID)
		})

		return nil
	})
	require.NoError(t, err)
}

func TestCampaignRepositorySchedule(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		fixtures := testingutil.NewTestFixtures(testDB)
		ctx := testingutil.CreateTestContext()

		workspace, customer, err := fixtures.CreateWorkspaceWithCustomer()
		if err != nil {
			return err
		}
		inbox, err := fixtures.CreateTestInbox(workspace.ID, models.InboxStatusConnected)
		if err != nil {
			return err
		}
		campaign, err := fixtures.CreateTestCampaign(customer.ID, workspace.ID, inbox.ID, 2)
		if err != nil {
			return err
		}

		repo := NewCampaignRepository(testDB.DB)
		at := utils.UTCNow().Add(time.Hour).Truncate(time.Second)

		moved, err := repo.Schedule(ctx, campaign.ID, at)
		require.NoError(t, err)
		require.True(t, moved)

		reloaded, err := repo.ByID(ctx, campaign.ID)
		require.NoError(t, err)
		assert.Equal(t, models.CampaignStatusScheduled, reloaded.Status)
		require.NotNil(t, reloaded.ScheduledAt)
		assert.True(t, reloaded.ScheduledAt.UTC().Equal(at))

		// Scheduling is a one-way door out of pending
		moved, err = repo.Schedule(ctx, campaign.ID, at.Add(time.Hour))
		require.NoError(t, err)
		assert.False(t, moved, "a scheduled campaign cannot be scheduled again")

		reloaded, err = repo.ByID(ctx, campaign.ID)
		require.NoError(t, err)
		assert.True(t, reloaded.ScheduledAt.UTC().Equal(at), "the stamped due time must survive the refused call")

		return nil
	})
	require.NoError(t, err)
}

func TestCampaignRepositoryPauseAndResume(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		fixtures := testingutil.NewTestFixtures(testDB)
		ctx := testingutil.CreateTestContext()

		workspace, customer, err := fixtures.CreateWorkspaceWithCustomer()
		if err != nil {
			return err
		}
		inbox, err := fixtures.CreateTestInbox(workspace.ID, models.InboxStatusConnected)
		if err != nil {
			return err
		}
		campaign, err := fixtures.CreateTestCampaign(customer.ID, workspace.ID, inbox.ID, 2)
		if err != nil {
			return err
		}

		repo := NewCampaignRepository(testDB.DB)

		t.Run("PauseRequiresRunning", func(t *testing.T) {
			paused, err := repo.Pause(ctx, campaign.ID, models.PauseReasonUserRequested, nil)
			require.NoError(t, err)
			assert.False(t, paused, "a pending campaign cannot be paused")
		})

		t.Run("PauseRecordsReasonAndDiagnostic", func(t *testing.T) {
			_, err := repo.UpdateStatusIf(ctx, campaign.ID, models.CampaignStatusRunning,
				models.CampaignStatusPending)
			require.NoError(t, err)

			diagnostic := "gateway timeout after 3 attempts"
			paused, err := repo.Pause(ctx, campaign.ID, models.PauseReasonInfrastructure, &diagnostic)
			require.NoError(t, err)
			require.True(t, paused)

			reloaded, err := repo.ByID(ctx, campaign.ID)
			require.NoError(t, err)
			assert.Equal(t, models.CampaignStatusPaused, reloaded.Status)
			require.NotNil(t, reloaded.PauseReason)
			assert.Equal(t, models.PauseReasonInfrastructure, *reloaded.PauseReason)
			require.NotNil(t, reloaded.Diagnostic)
			assert.Equal(t, diagnostic, *reloaded.Diagnostic)
		})

		t.Run("ResumeClearsPauseMarker", func(t *testing.T) {
			resumed, err := repo.Resume(ctx, campaign.ID)
			require.NoError(t, err)
			require.True(t, resumed)

			reloaded, err := repo.ByID(ctx, campaign.ID)
			require.NoError(t, err)
			assert.Equal(t, models.CampaignStatusRunning, reloaded.Status)
			assert.Nil(t, reloaded.PauseReason)
			assert.Nil(t, reloaded.Diagnostic)
		})

		t.Run("ResumeRequiresPaused", func(t *testing.T) {
			resumed, err := repo.Resume(ctx, campaign.ID)
			require.NoError(t, err)
			assert.False(t, resumed, "a running campaign cannot be resumed")
		})

		return nil
	})
	require.NoError(t, err)
}

func TestCampaignRepositorySetSendOrderOnce(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		fixtures := testingutil.NewTestFixtures(testDB)
		ctx := testingutil.CreateTestContext()

		workspace, customer, err := fixtures.CreateWorkspaceWithCustomer()
		if err != nil {
			return err
		}
		inbox, err := fixtures.CreateTestInbox(workspace.ID, models.InboxStatusConnected)
		if err != nil {
			return err
		}
		campaign, err := fixtures.CreateTestCampaign(customer.ID, workspace.ID, inbox.ID, 3)
		if err != nil {
			return err
		}

		repo := NewCampaignRepository(testDB.DB)

		set, err := repo.SetSendOrder(ctx, campaign.ID, []int64{2, 0, 1})
		require.NoError(t, err)
		assert.True(t, set)

		// A second write must not overwrite the fixed order
		set, err = repo.SetSendOrder(ctx, campaign.ID, []int64{0, 1, 2})
		require.NoError(t, err)
		assert.False(t, set)

		reloaded, err := repo.ByID(ctx, campaign.ID)
		require.NoError(t, err)
		assert.Equal(t, pq.Int64Array{2, 0, 1}, reloaded.SendOrder)

		return nil
	})
	require.NoError(t, err)
}

func TestCampaignRepositoryAdvanceCursor(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		fixtures := testingutil.NewTestFixtures(testDB)
		ctx := testingutil.CreateTestContext()

		workspace, customer, err := fixtures.CreateWorkspaceWithCustomer()
		if err != nil {
			return err
		}
		inbox, err := fixtures.CreateTestInbox(workspace.ID, models.InboxStatusConnected)
		if err != nil {
			return err
		}
		campaign, err := fixtures.CreateTestCampaign(customer.ID, workspace.ID, inbox.ID, 3)
		if err != nil {
			return err
		}

		repo := NewCampaignRepository(testDB.DB)
		recipientRepo := NewRecipientRepository(testDB.DB)

		_, err = repo.SetSendOrder(ctx, campaign.ID, []int64{0, 1, 2})
		require.NoError(t, err)

		t.Run("DeliveredOutcome", func(t *testing.T) {
			advanced, err := repo.AdvanceCursor(ctx, campaign.ID, 0, RecipientOutcome{
				Position:          0,
				Delivered:         true,
				ProviderMessageID: utils.ToPtr("wamid-1"),
				AttemptedAt:       utils.UTCNow(),
			})
			require.NoError(t, err)
			require.True(t, advanced)

			reloaded, err := repo.ByID(ctx, campaign.ID)
			require.NoError(t, err)
			assert.Equal(t, 1, reloaded.Cursor)
			assert.Equal(t, 1, reloaded.SentCount)
			assert.Equal(t, 0, reloaded.FailedCount)

			recipient, err := recipientRepo.ByCampaignAndPosition(ctx, campaign.ID, 0)
			require.NoError(t, err)
			require.NotNil(t, recipient)
			assert.Equal(t, models.RecipientStatusSent, recipient.Status)
			require.NotNil(t, recipient.ProviderMessageID)
			assert.Equal(t, "wamid-1", *recipient.ProviderMessageID)
			assert.NotNil(t, recipient.AttemptedAt)
		})

		t.Run("StaleCursorDoesNotAdvance", func(t *testing.T) {
			advanced, err := repo.AdvanceCursor(ctx, campaign.ID, 0, RecipientOutcome{
				Position:    0,
				Delivered:   true,
				AttemptedAt: utils.UTCNow(),
			})
			require.NoError(t, err)
			assert.False(t, advanced, "cursor already moved past 0")

			reloaded, err := repo.ByID(ctx, campaign.ID)
			require.NoError(t, err)
			assert.Equal(t, 1, reloaded.Cursor)
			assert.Equal(t, 1, reloaded.SentCount)
		})

		t.Run("FailedOutcome", func(t *testing.T) {
			advanced, err := repo.AdvanceCursor(ctx, campaign.ID, 1, RecipientOutcome{
				Position:    1,
				Delivered:   false,
				ErrorDetail: utils.ToPtr("message 1 rejected: number not on whatsapp"),
				AttemptedAt: utils.UTCNow(),
			})
			require.NoError(t, err)
			require.True(t, advanced)

			reloaded, err := repo.ByID(ctx, campaign.ID)
			require.NoError(t, err)
			assert.Equal(t, 2, reloaded.Cursor)
			assert.Equal(t, 1, reloaded.SentCount)
			assert.Equal(t, 1, reloaded.FailedCount)

			recipient, err := recipientRepo.ByCampaignAndPosition(ctx, campaign.ID, 1)
			require.NoError(t, err)
			assert.Equal(t, models.RecipientStatusFailed, recipient.Status)
			require.NotNil(t, recipient.ErrorDetail)
			assert.Contains(t, *recipient.ErrorDetail, "rejected")
		})

		return nil
	})
	require.NoError(t, err)
}

func TestCampaignRepositoryCancelRemaining(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		fixtures := testingutil.NewTestFixtures(testDB)
		ctx := testingutil.CreateTestContext()

		workspace, customer, err := fixtures.CreateWorkspaceWithCustomer()
		if err != nil {
			return err
		}
		inbox, err := fixtures.CreateTestInbox(workspace.ID, models.InboxStatusConnected)
		if err != nil {
			return err
		}
		campaign, err := fixtures.CreateTestCampaign(customer.ID, workspace.ID, inbox.ID, 5)
		if err != nil {
			return err
		}

		repo := NewCampaignRepository(testDB.DB)
		recipientRepo := NewRecipientRepository(testDB.DB)

		// Process the first two slots so two recipients are already sent
		_, err = repo.SetSendOrder(ctx, campaign.ID, []int64{0, 1, 2, 3, 4})
		require.NoError(t, err)
		for cursor := 0; cursor < 2; cursor++ {
			advanced, err := repo.AdvanceCursor(ctx, campaign.ID, cursor, RecipientOutcome{
				Position:    cursor,
				Delivered:   true,
				AttemptedAt: utils.UTCNow(),
			})
			require.NoError(t, err)
			require.True(t, advanced)
		}

		cancelled, err := repo.CancelRemaining(ctx, campaign.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(3), cancelled, "only pending recipients are cancelled")

		sent, err := recipientRepo.CountByStatus(ctx, campaign.ID, models.RecipientStatusSent)
		require.NoError(t, err)
		assert.Equal(t, int64(2), sent)

		cancelledCount, err := recipientRepo.CountByStatus(ctx, campaign.ID, models.RecipientStatusCancelled)
		require.NoError(t, err)
		assert.Equal(t, int64(3), cancelledCount)

		// Already-delivered slots keep their outcome
		delivered, err := recipientRepo.ByCampaignAndPosition(ctx, campaign.ID, 1)
		require.NoError(t, err)
		require.NotNil(t, delivered)
		assert.Equal(t, models.RecipientStatusSent, delivered.Status)

		remainder, err := recipientRepo.ByCampaignAndPosition(ctx, campaign.ID, 2)
		require.NoError(t, err)
		require.NotNil(t, remainder)
		assert.Equal(t, models.RecipientStatusCancelled, remainder.Status)

		return nil
	})
	require.NoError(t, err)
}

func TestCampaignRepositoryListDueScheduled(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		fixtures := testingutil.NewTestFixtures(testDB)
		ctx := testingutil.CreateTestContext()

		workspace, customer, err := fixtures.CreateWorkspaceWithCustomer()
		if err != nil {
			return err
		}
		inbox, err := fixtures.CreateTestInbox(workspace.ID, models.InboxStatusConnected)
		if err != nil {
			return err
		}

		due, err := fixtures.CreateTestCampaign(customer.ID, workspace.ID, inbox.ID, 1)
		if err != nil {
			return err
		}
		future, err := fixtures.CreateTestCampaign(customer.ID, workspace.ID, inbox.ID, 1)
		if err != nil {
			return err
		}
		// A third campaign stays pending and must never be listed
		if _, err := fixtures.CreateTestCampaign(customer.ID, workspace.ID, inbox.ID, 1); err != nil {
			return err
		}

		repo := NewCampaignRepository(testDB.DB)
		now := utils.UTCNow()

		moved, err := repo.Schedule(ctx, due.ID, now.Add(-time.Minute))
		require.NoError(t, err)
		require.True(t, moved)
		moved, err = repo.Schedule(ctx, future.ID, now.Add(time.Hour))
		require.NoError(t, err)
		require.True(t, moved)

		listed, err := repo.ListDueScheduled(ctx, now, 100)
		require.NoError(t, err)
		require.Len(t, listed, 1)
		assert.Equal(t, due.ID, listed[0].ID)

		// Later the future campaign becomes due too; the pending one never does
		listed, err = repo.ListDueScheduled(ctx, now.Add(2*time.Hour), 100)
		require.NoError(t, err)
		assert.Len(t, listed, 2)

		return nil
	})
	require.NoError(t, err)
}

func TestCampaignRepositoryListRunning(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		fixtures := testingutil.NewTestFixtures(testDB)
		ctx := testingutil.CreateTestContext()

		workspace, customer, err := fixtures.CreateWorkspaceWithCustomer()
		if err != nil {
			return err
		}
		inbox, err := fixtures.CreateTestInbox(workspace.ID, models.InboxStatusConnected)
		if err != nil {
			return err
		}

		running, err := fixtures.CreateTestCampaign(customer.ID, workspace.ID, inbox.ID, 1)
		if err != nil {
			return err
		}
		// A second campaign stays pending and must not be listed
		if _, err := fixtures.CreateTestCampaign(customer.ID, workspace.ID, inbox.ID, 1); err != nil {
			return err
		}

		repo := NewCampaignRepository(testDB.DB)

		_, err = repo.UpdateStatusIf(ctx, running.ID, models.CampaignStatusScheduled, models.CampaignStatusPending)
		require.NoError(t, err)
		_, err = repo.UpdateStatusIf(ctx, running.ID, models.CampaignStatusRunning, models.CampaignStatusScheduled)
		require.NoError(t, err)

		listed, err := repo.ListRunning(ctx)
		require.NoError(t, err)
		require.Len(t, listed, 1)
		assert.Equal(t, running.ID, listed[0].ID)
		require.NotNil(t, listed[0].Inbox, "running campaigns carry their inbox for the executor")

		return nil
	})
	require.NoError(t, err)
}

func TestCampaignRepositoryLookupAndOwnership(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		fixtures := testingutil.NewTestFixtures(testDB)
		ctx := testingutil.CreateTestContext()

		workspace, customer, err := fixtures.CreateWorkspaceWithCustomer()
		if err != nil {
			return err
		}
		inbox, err := fixtures.CreateTestInbox(workspace.ID, models.InboxStatusConnected)
		if err != nil {
			return err
		}
		campaign, err := fixtures.CreateTestCampaign(customer.ID, workspace.ID, inbox.ID, 1)
		if err != nil {
			return err
		}

		other, err := fixtures.CreateTestCustomer(workspace.ID)
		if err != nil {
			return err
		}
		if _, err := fixtures.CreateTestCampaign(other.ID, workspace.ID, inbox.ID, 1); err != nil {
			return err
		}

		repo := NewCampaignRepository(testDB.DB)

		t.Run("ByUUID", func(t *testing.T) {
			found, err := repo.ByUUID(ctx, campaign.UUID.String())
			require.NoError(t, err)
			require.NotNil(t, found)
			assert.Equal(t, campaign.ID, found.ID)

			missing, err := repo.ByUUID(ctx, "00000000-0000-0000-0000-000000000000")
			require.NoError(t, err)
			assert.Nil(t, missing)
		})

		t.Run("ListByCustomerScopesRows", func(t *testing.T) {
			mine, err := repo.ListByCustomer(ctx, customer.ID, 10, 0)
			require.NoError(t, err)
			require.Len(t, mine, 1)
			assert.Equal(t, campaign.ID, mine[0].ID)
		})

		return nil
	})
	require.NoError(t, err)
}
