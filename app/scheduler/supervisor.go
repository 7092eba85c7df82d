package scheduler

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/amirphl/Susanoo/app/services"
	"github.com/amirphl/Susanoo/models"
	"github.com/amirphl/Susanoo/utils"
	"github.com/robfig/cron/v3"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	defaultAdmissionInterval = 5 * time.Second
	inboxRefreshInterval     = time.Minute

	// Rollover jobs run shortly after the period boundary, in UTC
	dailyRolloverSpec   = "5 0 * * *"
	monthlyRolloverSpec = "10 0 1 * *"
)

// CampaignAdmissionStore extends the executor's campaign store with the
// queries the supervisor needs to find work
type CampaignAdmissionStore interface {
	CampaignStore
	ListDueScheduled(ctx context.Context, now time.Time, limit int) ([]*models.Campaign, error)
	ListRunning(ctx context.Context) ([]*models.Campaign, error)
}

// InboxStore is the slice of inbox persistence the supervisor needs
type InboxStore interface {
	UpdateConnectionStatus(ctx context.Context, inboxID uint, status models.InboxStatus, seenAt time.Time) error
}

// QuotaRollover resets quota periods; the supervisor drives it on a cron
type QuotaRollover interface {
	RolloverDaily(ctx context.Context, dayStart time.Time) (int64, error)
	RolloverMonthly(ctx context.Context, monthStart time.Time) (int64, error)
}

// CampaignSupervisor owns the executor registry. It admits due scheduled
// campaigns, re-admits running campaigns that have no executor (the recovery
// path after a crash and the resume path after a pause), refreshes inbox
// connectivity, and rolls quota periods over. The registry guarantees at most
// one executor per campaign in this process.
type CampaignSupervisor struct {
	campaigns    CampaignAdmissionStore
	recipients   RecipientStore
	inboxes      InboxStore
	ledgers      QuotaRollover
	gate         services.QuotaGate
	sender       services.WhatsAppService
	humanizer    Humanizer
	logger       *log.Logger
	interval     time.Duration
	pollInterval time.Duration

	cron *cron.Cron

	mu      sync.Mutex
	runCtx  context.Context
	handles map[uint]context.CancelFunc
}

// NewCampaignSupervisor creates a supervisor. logDir receives the rotating
// engine log next to stdout; an empty value defaults to data/.
func NewCampaignSupervisor(
	campaigns CampaignAdmissionStore,
	recipients RecipientStore,
	inboxes InboxStore,
	ledgers QuotaRollover,
	gate services.QuotaGate,
	sender services.WhatsAppService,
	humanizer Humanizer,
	interval time.Duration,
	pollInterval time.Duration,
	logDir string,
) *CampaignSupervisor {
	if interval <= 0 {
		interval = defaultAdmissionInterval
	}
	if humanizer == nil {
		humanizer = NewTaggedHumanizer("engine")
	}

	s := &CampaignSupervisor{
		campaigns:    campaigns,
		recipients:   recipients,
		inboxes:      inboxes,
		ledgers:      ledgers,
		gate:         gate,
		sender:       sender,
		humanizer:    humanizer,
		interval:     interval,
		pollInterval: pollInterval,
		handles:      make(map[uint]context.CancelFunc),
	}
	s.initEngineLogger(logDir)

	return s
}

// initEngineLogger configures a logger that writes to both stdout and a
// rotating file so long-running engines don't fill the disk
func (s *CampaignSupervisor) initEngineLogger(logDir string) {
	if logDir == "" {
		logDir = "data"
	}

	rotator := &lumberjack.Logger{
		Filename:   filepath.Join(logDir, "engine.log"),
		MaxSize:    100, // megabytes
		MaxBackups: 3,
		MaxAge:     28, // days
		Compress:   true,
	}

	mw := io.MultiWriter(os.Stdout, rotator)
	s.logger = log.New(mw, "engine ", log.LstdFlags|log.Lmicroseconds|log.LUTC)
}

// Start launches the supervisor loop in a background goroutine and returns a
// stop function. Stopping cancels every executor; campaigns they were driving
// stay in running and are re-admitted on the next start.
func (s *CampaignSupervisor) Start(parent context.Context) func() {
	ctx, cancel := context.WithCancel(parent)

	s.mu.Lock()
	s.runCtx = ctx
	s.mu.Unlock()

	s.startRolloverJobs()

	go func() {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		refresh := time.NewTicker(inboxRefreshInterval)
		defer refresh.Stop()

		s.runOnce(ctx)

		for {
			select {
			case <-ctx.Done():
				if s.cron != nil {
					s.cron.Stop()
				}
				return
			case <-ticker.C:
				s.runOnce(ctx)
			case <-refresh.C:
				s.refreshInboxes(ctx)
			}
		}
	}()

	return cancel
}

// runOnce admits everything that should have an executor right now
func (s *CampaignSupervisor) runOnce(ctx context.Context) {
	now := utils.UTCNow()

	due, err := s.campaigns.ListDueScheduled(ctx, now, 100)
	if err != nil {
		s.logger.Printf("supervisor: list due scheduled campaigns failed: %v", err)
	}
	for _, c := range due {
		moved, err := s.campaigns.UpdateStatusIf(ctx, c.ID, models.CampaignStatusRunning, models.CampaignStatusScheduled)
		if err != nil {
			s.logger.Printf("supervisor: move campaign id=%d to running failed: %v", c.ID, err)
			continue
		}
		if !moved {
			// Cancelled between listing and admission
			continue
		}
		s.logger.Printf("supervisor: campaign id=%d due, moved to running", c.ID)
		s.admit(c.ID)
	}

	// Running campaigns without an executor: freshly resumed ones, and
	// everything that was mid-flight when the previous process died.
	running, err := s.campaigns.ListRunning(ctx)
	if err != nil {
		s.logger.Printf("supervisor: list running campaigns failed: %v", err)
		return
	}
	for _, c := range running {
		s.admit(c.ID)
	}
}

// admit starts an executor for the campaign unless one is already registered.
// Executors are always parented on the supervisor's run context, never on a
// request context.
func (s *CampaignSupervisor) admit(campaignID uint) {
	s.mu.Lock()
	if s.runCtx == nil || s.runCtx.Err() != nil {
		s.mu.Unlock()
		return
	}
	if _, exists := s.handles[campaignID]; exists {
		s.mu.Unlock()
		return
	}
	execCtx, cancel := context.WithCancel(s.runCtx)
	s.handles[campaignID] = cancel
	s.mu.Unlock()

	engineActiveExecutors.Inc()
	s.logger.Printf("supervisor: admitting executor for campaign id=%d", campaignID)

	exec := NewCampaignExecutor(
		campaignID,
		s.campaigns,
		s.recipients,
		s.gate,
		s.sender,
		s.humanizer,
		s.logger,
		s.pollInterval,
	)

	go func() {
		defer func() {
			cancel()
			s.mu.Lock()
			delete(s.handles, campaignID)
			s.mu.Unlock()
			engineActiveExecutors.Dec()
		}()

		if err := exec.Run(execCtx); err != nil && execCtx.Err() == nil {
			s.logger.Printf("supervisor: executor for campaign id=%d stopped with error: %v", campaignID, err)
		}
	}()
}

// ActiveExecutors returns the number of currently registered executors
func (s *CampaignSupervisor) ActiveExecutors() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.handles)
}

// refreshInboxes re-checks gateway connectivity for every inbox that a
// running campaign depends on. Executors read the persisted status and pause
// when their inbox drops.
func (s *CampaignSupervisor) refreshInboxes(ctx context.Context) {
	running, err := s.campaigns.ListRunning(ctx)
	if err != nil {
		s.logger.Printf("supervisor: list running campaigns for inbox refresh failed: %v", err)
		return
	}

	seen := make(map[uint]struct{}, len(running))
	for _, c := range running {
		if c.Inbox == nil {
			continue
		}
		if _, ok := seen[c.Inbox.ID]; ok {
			continue
		}
		seen[c.Inbox.ID] = struct{}{}

		status, err := s.sender.CheckConnection(ctx, c.Inbox.UUID.String())
		if err != nil {
			s.logger.Printf("supervisor: connection check for inbox id=%d failed: %v", c.Inbox.ID, err)
			continue
		}
		if err := s.inboxes.UpdateConnectionStatus(ctx, c.Inbox.ID, status, utils.UTCNow()); err != nil {
			s.logger.Printf("supervisor: update inbox id=%d status failed: %v", c.Inbox.ID, err)
		}
	}
}

// startRolloverJobs schedules the daily and monthly quota period resets
func (s *CampaignSupervisor) startRolloverJobs() {
	s.cron = cron.New(cron.WithLocation(time.UTC))

	if _, err := s.cron.AddFunc(dailyRolloverSpec, func() {
		jobCtx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()

		n, err := s.ledgers.RolloverDaily(jobCtx, utils.StartOfDay(utils.UTCNow()))
		if err != nil {
			s.logger.Printf("supervisor: daily quota rollover failed: %v", err)
			return
		}
		s.logger.Printf("supervisor: daily quota rollover reset %d ledgers", n)
	}); err != nil {
		s.logger.Printf("supervisor: register daily rollover failed: %v", err)
	}

	if _, err := s.cron.AddFunc(monthlyRolloverSpec, func() {
		jobCtx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()

		n, err := s.ledgers.RolloverMonthly(jobCtx, utils.StartOfMonth(utils.UTCNow()))
		if err != nil {
			s.logger.Printf("supervisor: monthly quota rollover failed: %v", err)
			return
		}
		s.logger.Printf("supervisor: monthly quota rollover reset %d ledgers", n)
	}); err != nil {
		s.logger.Printf("supervisor: register monthly rollover failed: %v", err)
	}

	s.cron.Start()
}

// ResumeNow asks the supervisor to admit a campaign without waiting for the
// next tick. Used by the API layer right after a resume or start so the
// customer sees delivery begin immediately.
func (s *CampaignSupervisor) ResumeNow(ctx context.Context, campaignID uint) error {
	camp, err := s.campaigns.ByID(ctx, campaignID)
	if err != nil {
		return err
	}
	if camp == nil {
		return fmt.Errorf("campaign %d not found", campaignID)
	}
	if camp.Status != models.CampaignStatusRunning {
		return fmt.Errorf("campaign %d is not running", campaignID)
	}

	s.admit(campaignID)
	return nil
}
