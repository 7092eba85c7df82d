// Package tests contains test cases spanning models, repository, and flow packages to avoid circular imports
package tests

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/amirphl/Susanoo/models"
	"github.com/amirphl/Susanoo/repository"
	testingutil "github.com/amirphl/Susanoo/testing"
	"github.com/amirphl/Susanoo/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildCampaignModel(customerID, workspaceID, inboxID uint, title string) *models.Campaign {
	return &models.Campaign{
		CustomerID:      customerID,
		WorkspaceID:     workspaceID,
		InboxID:         inboxID,
		Title:           title,
		Messages:        models.MessageList{{Kind: models.MessageKindText, Text: "Hello {{name}}"}},
		DelayMinMinutes: 1,
		DelayMaxMinutes: 2,
	}
}

func buildRecipientModels(campaignID uint, count int) []*models.Recipient {
	recipients := make([]*models.Recipient, 0, count)
	for i := 0; i < count; i++ {
		recipients = append(recipients, &models.Recipient{
			CampaignID:  campaignID,
			Position:    i,
			PhoneNumber: fmt.Sprintf("+1666%07d", i),
			Variables:   models.VariableMap{"name": fmt.Sprintf("Contact %d", i)},
		})
	}
	return recipients
}

func TestWithTransaction(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		fixtures := testingutil.NewTestFixtures(testDB)
		ctx := testingutil.CreateTestContext()

		workspace, customer, err := fixtures.CreateWorkspaceWithCustomer()
		require.NoError(t, err)
		inbox, err := fixtures.CreateTestInbox(workspace.ID, models.InboxStatusConnected)
		require.NoError(t, err)

		campaignRepo := repository.NewCampaignRepository(testDB.DB)
		recipientRepo := repository.NewRecipientRepository(testDB.DB)

		t.Run("CommitPersistsWritesAcrossRepositories", func(t *testing.T) {
			campaign := buildCampaignModel(customer.ID, workspace.ID, inbox.ID, "Committed")

			err := repository.WithTransaction(ctx, testDB.DB, func(txCtx context.Context) error {
				if err := campaignRepo.Save(txCtx, campaign); err != nil {
					return err
				}
				return recipientRepo.SaveBatch(txCtx, buildRecipientModels(campaign.ID, 3))
			})
			require.NoError(t, err)

			got, err := campaignRepo.ByUUID(ctx, campaign.UUID.String())
			require.NoError(t, err)
			require.NotNil(t, got)

			count, err := recipientRepo.CountByStatus(ctx, campaign.ID, models.RecipientStatusPending)
			require.NoError(t, err)
			assert.Equal(t, int64(3), count)
		})

		t.Run("ErrorRollsBackEveryWrite", func(t *testing.T) {
			errAbort := errors.New("quota preflight failed")
			campaign := buildCampaignModel(customer.ID, workspace.ID, inbox.ID, "Aborted")

			err := repository.WithTransaction(ctx, testDB.DB, func(txCtx context.Context) error {
				if err := campaignRepo.Save(txCtx, campaign); err != nil {
					return err
				}
				if err := recipientRepo.SaveBatch(txCtx, buildRecipientModels(campaign.ID, 2)); err != nil {
					return err
				}
				return errAbort
			})
			require.ErrorIs(t, err, errAbort)

			got, err := campaignRepo.ByUUID(ctx, campaign.UUID.String())
			require.NoError(t, err)
			assert.Nil(t, got)

			count, err := recipientRepo.CountByStatus(ctx, campaign.ID, models.RecipientStatusPending)
			require.NoError(t, err)
			assert.Zero(t, count)
		})

		t.Run("PanicRollsBackAndSurfacesError", func(t *testing.T) {
			campaign := buildCampaignModel(customer.ID, workspace.ID, inbox.ID, "Panicked")

			err := repository.WithTransaction(ctx, testDB.DB, func(txCtx context.Context) error {
				if err := campaignRepo.Save(txCtx, campaign); err != nil {
					return err
				}
				panic("connection pool on fire")
			})
			require.Error(t, err)
			assert.Contains(t, err.Error(), "panic in transaction")

			got, err := campaignRepo.ByUUID(ctx, campaign.UUID.String())
			require.NoError(t, err)
			assert.Nil(t, got)
		})

		return nil
	})
	require.NoError(t, err)
}

func TestTransactionContextVisibility(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		fixtures := testingutil.NewTestFixtures(testDB)
		ctx := testingutil.CreateTestContext()

		workspace, customer, err := fixtures.CreateWorkspaceWithCustomer()
		require.NoError(t, err)
		inbox, err := fixtures.CreateTestInbox(workspace.ID, models.InboxStatusConnected)
		require.NoError(t, err)

		campaignRepo := repository.NewCampaignRepository(testDB.DB)

		t.Run("UncommittedWritesVisibleOnlyInsideTransaction", func(t *testing.T) {
			campaign := buildCampaignModel(customer.ID, workspace.ID, inbox.ID, "Visibility")

			err := repository.WithTransaction(ctx, testDB.DB, func(txCtx context.Context) error {
				if err := campaignRepo.Save(txCtx, campaign); err != nil {
					return err
				}

				inside, err := campaignRepo.ByUUID(txCtx, campaign.UUID.String())
				require.NoError(t, err)
				require.NotNil(t, inside, "the transaction context must route reads through the open transaction")

				// A context without the transaction key reads over a separate
				// connection and must not see the uncommitted row.
				outside, err := campaignRepo.ByUUID(ctx, campaign.UUID.String())
				require.NoError(t, err)
				assert.Nil(t, outside)

				return nil
			})
			require.NoError(t, err)

			committed, err := campaignRepo.ByUUID(ctx, campaign.UUID.String())
			require.NoError(t, err)
			assert.NotNil(t, committed)
		})

		t.Run("ConditionalUpdatesJoinTheTransaction", func(t *testing.T) {
			errAbort := errors.New("abort after transitions")
			campaign := buildCampaignModel(customer.ID, workspace.ID, inbox.ID, "Transitions")

			err := repository.WithTransaction(ctx, testDB.DB, func(txCtx context.Context) error {
				if err := campaignRepo.Save(txCtx, campaign); err != nil {
					return err
				}

				scheduled, err := campaignRepo.Schedule(txCtx, campaign.ID, utils.UTCNow())
				require.NoError(t, err)
				require.True(t, scheduled)

				started, err := campaignRepo.UpdateStatusIf(txCtx, campaign.ID, models.CampaignStatusRunning, models.CampaignStatusScheduled)
				require.NoError(t, err)
				require.True(t, started)

				inside, err := campaignRepo.ByID(txCtx, campaign.ID)
				require.NoError(t, err)
				require.NotNil(t, inside)
				assert.Equal(t, models.CampaignStatusRunning, inside.Status)

				return errAbort
			})
			require.ErrorIs(t, err, errAbort)

			got, err := campaignRepo.ByID(ctx, campaign.ID)
			require.NoError(t, err)
			assert.Nil(t, got, "the insert and both transitions roll back together")
		})

		return nil
	})
	require.NoError(t, err)
}

func TestRecipientSaveBatch(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		fixtures := testingutil.NewTestFixtures(testDB)
		ctx := testingutil.CreateTestContext()

		workspace, customer, err := fixtures.CreateWorkspaceWithCustomer()
		require.NoError(t, err)
		inbox, err := fixtures.CreateTestInbox(workspace.ID, models.InboxStatusConnected)
		require.NoError(t, err)
		campaign, err := fixtures.CreateTestCampaign(customer.ID, workspace.ID, inbox.ID, 0)
		require.NoError(t, err)

		recipientRepo := repository.NewRecipientRepository(testDB.DB)

		t.Run("InsertsPastTheBatchBoundary", func(t *testing.T) {
			require.NoError(t, recipientRepo.SaveBatch(ctx, buildRecipientModels(campaign.ID, 120)))

			listed, err := recipientRepo.ListByCampaign(ctx, campaign.ID)
			require.NoError(t, err)
			require.Len(t, listed, 120)
			for i, rec := range listed {
				assert.Equal(t, i, rec.Position)
			}
			assert.Equal(t, "+16660000119", listed[119].PhoneNumber)
		})

		t.Run("EmptySliceIsANoOp", func(t *testing.T) {
			assert.NoError(t, recipientRepo.SaveBatch(ctx, nil))
		})

		return nil
	})
	require.NoError(t, err)
}

func TestRepositoryNotFoundConventions(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		ctx := testingutil.CreateTestContext()

		t.Run("CustomerByEmail", func(t *testing.T) {
			got, err := repository.NewCustomerRepository(testDB.DB).ByEmail(ctx, "nobody@susanoo.dev")
			require.NoError(t, err)
			assert.Nil(t, got)
		})

		t.Run("InboxByUUID", func(t *testing.T) {
			got, err := repository.NewInboxRepository(testDB.DB).ByUUID(ctx, "11111111-2222-3333-4444-555555555555")
			require.NoError(t, err)
			assert.Nil(t, got)
		})

		t.Run("RecipientByCampaignAndPosition", func(t *testing.T) {
			got, err := repository.NewRecipientRepository(testDB.DB).ByCampaignAndPosition(ctx, 424242, 0)
			require.NoError(t, err)
			assert.Nil(t, got)
		})

		t.Run("LedgerByWorkspaceID", func(t *testing.T) {
			got, err := repository.NewQuotaLedgerRepository(testDB.DB).ByWorkspaceID(ctx, 424242)
			require.NoError(t, err)
			assert.Nil(t, got)
		})

		t.Run("DraftByCustomerID", func(t *testing.T) {
			got, err := repository.NewCampaignDraftRepository(testDB.DB).ByCustomerID(ctx, 424242)
			require.NoError(t, err)
			assert.Nil(t, got)
		})

		return nil
	})
	require.NoError(t, err)
}
