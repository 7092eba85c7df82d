package scheduler

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amirphl/Susanoo/app/services"
	"github.com/amirphl/Susanoo/models"
)

func (s *fakeStore) ListDueScheduled(ctx context.Context, now time.Time, limit int) ([]*models.Campaign, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	due := make([]*models.Campaign, 0)
	for _, c := range s.campaigns {
		if c.Status != models.CampaignStatusScheduled {
			continue
		}
		if c.ScheduledAt != nil && c.ScheduledAt.After(now) {
			continue
		}
		cp := *c
		due = append(due, &cp)
		if len(due) == limit {
			break
		}
	}
	return due, nil
}

func (s *fakeStore) ListRunning(ctx context.Context) ([]*models.Campaign, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	running := make([]*models.Campaign, 0)
	for _, c := range s.campaigns {
		if c.Status == models.CampaignStatusRunning {
			cp := *c
			running = append(running, &cp)
		}
	}
	return running, nil
}

type fakeInboxStore struct {
	mu      sync.Mutex
	updates []models.InboxStatus
}

func (f *fakeInboxStore) UpdateConnectionStatus(ctx context.Context, inboxID uint, status models.InboxStatus, seenAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates = append(f.updates, status)
	return nil
}

type fakeRollover struct{}

func (fakeRollover) RolloverDaily(ctx context.Context, dayStart time.Time) (int64, error) {
	return 0, nil
}

func (fakeRollover) RolloverMonthly(ctx context.Context, monthStart time.Time) (int64, error) {
	return 0, nil
}

func newTestSupervisor(t *testing.T, store *fakeStore, gate *fakeGate, sender services.WhatsAppService, humanizer Humanizer, interval time.Duration) *CampaignSupervisor {
	t.Helper()
	return NewCampaignSupervisor(
		store,
		store,
		&fakeInboxStore{},
		fakeRollover{},
		gate,
		sender,
		humanizer,
		interval,
		5*time.Millisecond,
		t.TempDir(),
	)
}

func TestSupervisorAdmitsDueScheduledCampaign(t *testing.T) {
	store := newFakeStore()
	camp := store.seedCampaign(2, false)

	past := time.Now().UTC().Add(-time.Minute)
	store.mu.Lock()
	store.campaigns[camp.ID].Status = models.CampaignStatusScheduled
	store.campaigns[camp.ID].ScheduledAt = &past
	store.mu.Unlock()

	gate := newFakeGate(100)
	sender := services.NewMockWhatsAppService()

	sup := newTestSupervisor(t, store, gate, sender, newPacedHumanizer(time.Millisecond), 25*time.Millisecond)
	stop := sup.Start(context.Background())
	defer stop()

	require.Eventually(t, func() bool {
		return store.campaign(t, camp.ID).Status == models.CampaignStatusCompleted
	}, 3*time.Second, 10*time.Millisecond, "scheduled campaign was never driven to completion")

	final := store.campaign(t, camp.ID)
	assert.Equal(t, 2, final.SentCount)
	assert.Len(t, sender.GetSentMessages(), 2)
}

func TestSupervisorKeepsSingleExecutorPerCampaign(t *testing.T) {
	store := newFakeStore()
	store.seedCampaign(2, false)
	gate := newFakeGate(100)
	sender := services.NewMockWhatsAppService()

	// The hour-long delay parks the executor after its first send while the
	// admission loop keeps re-listing the campaign as running
	sup := newTestSupervisor(t, store, gate, sender, newPacedHumanizer(time.Hour), 20*time.Millisecond)
	stop := sup.Start(context.Background())

	require.Eventually(t, func() bool {
		return len(sender.GetSentMessages()) == 1
	}, 3*time.Second, 10*time.Millisecond, "first send never happened")

	// Several admission ticks later there is still exactly one executor and
	// no duplicate delivery
	time.Sleep(150 * time.Millisecond)
	assert.Equal(t, 1, sup.ActiveExecutors())
	assert.Len(t, sender.GetSentMessages(), 1)

	stop()

	require.Eventually(t, func() bool {
		return sup.ActiveExecutors() == 0
	}, 3*time.Second, 10*time.Millisecond, "executor did not unregister after stop")

	// Shutdown leaves the campaign running for the next start to recover
	assert.Equal(t, models.CampaignStatusRunning, store.campaign(t, 1).Status)
}

func TestSupervisorRecoversMidFlightCampaign(t *testing.T) {
	store := newFakeStore()
	camp := store.seedCampaign(3, false)

	// A campaign left in running with a fixed order and a consumed slot looks
	// exactly like the aftermath of a crash
	store.mu.Lock()
	stored := store.campaigns[camp.ID]
	stored.SendOrder = pq.Int64Array{0, 1, 2}
	stored.Cursor = 1
	stored.SentCount = 1
	store.recipientRows[camp.ID][0].Status = models.RecipientStatusSent
	store.mu.Unlock()

	gate := newFakeGate(100)
	sender := services.NewMockWhatsAppService()

	sup := newTestSupervisor(t, store, gate, sender, newPacedHumanizer(time.Millisecond), 25*time.Millisecond)
	stop := sup.Start(context.Background())
	defer stop()

	require.Eventually(t, func() bool {
		return store.campaign(t, camp.ID).Status == models.CampaignStatusCompleted
	}, 3*time.Second, 10*time.Millisecond, "recovered campaign was never completed")

	final := store.campaign(t, camp.ID)
	assert.Equal(t, 3, final.SentCount)
	assert.Equal(t, pq.Int64Array{0, 1, 2}, final.SendOrder)

	// Only the two unprocessed slots were delivered again
	sent := sender.GetSentMessages()
	require.Len(t, sent, 2)
	assert.Equal(t, "+15550000001", sent[0].PhoneNumber)
	assert.Equal(t, "+15550000002", sent[1].PhoneNumber)
}

func TestSupervisorResumeNow(t *testing.T) {
	store := newFakeStore()
	camp := store.seedCampaign(1, false)

	store.mu.Lock()
	store.campaigns[camp.ID].Status = models.CampaignStatusPending
	store.mu.Unlock()

	gate := newFakeGate(100)
	sender := services.NewMockWhatsAppService()

	// A long admission interval keeps the loop out of the way
	sup := newTestSupervisor(t, store, gate, sender, newPacedHumanizer(time.Millisecond), time.Hour)
	stop := sup.Start(context.Background())
	defer stop()

	// Not running yet, so the supervisor refuses
	err := sup.ResumeNow(context.Background(), camp.ID)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not running")

	moved, err := store.UpdateStatusIf(context.Background(), camp.ID, models.CampaignStatusRunning, models.CampaignStatusPending)
	require.NoError(t, err)
	require.True(t, moved)

	require.NoError(t, sup.ResumeNow(context.Background(), camp.ID))

	require.Eventually(t, func() bool {
		return store.campaign(t, camp.ID).Status == models.CampaignStatusCompleted
	}, 3*time.Second, 10*time.Millisecond, "resumed campaign was never driven")

	assert.Len(t, sender.GetSentMessages(), 1)
}

func TestSupervisorResumeNowUnknownCampaign(t *testing.T) {
	store := newFakeStore()
	gate := newFakeGate(100)
	sender := services.NewMockWhatsAppService()

	sup := newTestSupervisor(t, store, gate, sender, newPacedHumanizer(time.Millisecond), time.Hour)
	stop := sup.Start(context.Background())
	defer stop()

	err := sup.ResumeNow(context.Background(), 404)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}
