package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amirphl/Susanoo/models"
	testingutil "github.com/amirphl/Susanoo/testing"
)

func TestCampaignDraftRepositoryUpsert(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		fixtures := testingutil.NewTestFixtures(testDB)
		ctx := testingutil.CreateTestContext()

		_, customer, err := fixtures.CreateWorkspaceWithCustomer()
		if err != nil {
			return err
		}

		repo := NewCampaignDraftRepository(testDB.DB)

		t.Run("InsertOnFirstSave", func(t *testing.T) {
			err := repo.Upsert(ctx, &models.CampaignDraft{
				CustomerID: customer.ID,
				Payload: models.DraftPayload{
					Title: "Spring promo",
					Messages: []models.MessageItem{
						{Kind: models.MessageKindText, Text: "Hello {{name}}"},
					},
				},
			})
			require.NoError(t, err)

			draft, err := repo.ByCustomerID(ctx, customer.ID)
			require.NoError(t, err)
			require.NotNil(t, draft)
			assert.Equal(t, "Spring promo", draft.Payload.Title)
			require.Len(t, draft.Payload.Messages, 1)
		})

		t.Run("SecondSaveReplacesPayload", func(t *testing.T) {
			err := repo.Upsert(ctx, &models.CampaignDraft{
				CustomerID: customer.ID,
				Payload: models.DraftPayload{
					Title: "Spring promo v2",
					Recipients: []models.DraftTarget{
						{PhoneNumber: "+15551230001", Variables: map[string]string{"name": "Dana"}},
					},
				},
			})
			require.NoError(t, err)

			// Still one row per customer, holding the newest payload
			count, err := repo.Count(ctx, models.CampaignDraftFilter{CustomerID: &customer.ID})
			require.NoError(t, err)
			assert.Equal(t, int64(1), count)

			draft, err := repo.ByCustomerID(ctx, customer.ID)
			require.NoError(t, err)
			assert.Equal(t, "Spring promo v2", draft.Payload.Title)
			require.Len(t, draft.Payload.Recipients, 1)
			assert.Equal(t, "Dana", draft.Payload.Recipients[0].Variables["name"])
		})

		return nil
	})
	require.NoError(t, err)
}

func TestCampaignDraftRepositoryByCustomerID(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		fixtures := testingutil.NewTestFixtures(testDB)
		ctx := testingutil.CreateTestContext()

		_, customer, err := fixtures.CreateWorkspaceWithCustomer()
		if err != nil {
			return err
		}

		repo := NewCampaignDraftRepository(testDB.DB)

		// No draft yet
		draft, err := repo.ByCustomerID(ctx, customer.ID)
		require.NoError(t, err)
		assert.Nil(t, draft)

		return nil
	})
	require.NoError(t, err)
}

func TestCampaignDraftRepositoryDelete(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		fixtures := testingutil.NewTestFixtures(testDB)
		ctx := testingutil.CreateTestContext()

		_, customer, err := fixtures.CreateWorkspaceWithCustomer()
		if err != nil {
			return err
		}

		repo := NewCampaignDraftRepository(testDB.DB)

		err = repo.Upsert(ctx, &models.CampaignDraft{
			CustomerID: customer.ID,
			Payload:    models.DraftPayload{Title: "To be discarded"},
		})
		require.NoError(t, err)

		require.NoError(t, repo.DeleteByCustomerID(ctx, customer.ID))

		draft, err := repo.ByCustomerID(ctx, customer.ID)
		require.NoError(t, err)
		assert.Nil(t, draft)

		// Deleting an absent draft is not an error
		require.NoError(t, repo.DeleteByCustomerID(ctx, customer.ID))

		return nil
	})
	require.NoError(t, err)
}
