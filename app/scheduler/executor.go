package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/amirphl/Susanoo/app/services"
	"github.com/amirphl/Susanoo/models"
	"github.com/amirphl/Susanoo/repository"
	"github.com/amirphl/Susanoo/utils"
)

const (
	// defaultPollInterval bounds how stale an executor's view of the campaign
	// status can get during sleeps. Pause and cancel requests take effect
	// within one interval.
	defaultPollInterval = time.Second

	// maxSendAttempts bounds retries for one recipient on transport errors.
	// Exhausting them pauses the campaign with the recipient still pending;
	// gateway rejections are never retried and mark the recipient failed.
	maxSendAttempts = 2

	sendRetryDelay = 2 * time.Second
)

// errTransport marks a send that got no gateway verdict after retries. The
// recipient's slot is not consumed and the campaign pauses for manual resume.
var errTransport = errors.New("transport failure")

// CampaignStore is the slice of campaign persistence the executor needs.
// ByID must return the campaign with its Inbox relation populated.
type CampaignStore interface {
	ByID(ctx context.Context, id uint) (*models.Campaign, error)
	UpdateStatusIf(ctx context.Context, campaignID uint, to models.CampaignStatus, from ...models.CampaignStatus) (bool, error)
	Pause(ctx context.Context, campaignID uint, reason models.PauseReason, diagnostic *string) (bool, error)
	SetSendOrder(ctx context.Context, campaignID uint, order []int64) (bool, error)
	AdvanceCursor(ctx context.Context, campaignID uint, cursor int, rec repository.RecipientOutcome) (bool, error)
}

// RecipientStore is the slice of recipient persistence the executor needs
type RecipientStore interface {
	ByCampaignAndPosition(ctx context.Context, campaignID uint, position int) (*models.Recipient, error)
}

// CampaignExecutor drives one campaign from running to a terminal or paused
// state. It is the only writer of the campaign's cursor and counters while
// active; concurrent pause, resume, and cancel requests only ever touch the
// status column, which the executor re-reads at every suspension point.
type CampaignExecutor struct {
	campaignID   uint
	campaigns    CampaignStore
	recipients   RecipientStore
	gate         services.QuotaGate
	sender       services.WhatsAppService
	humanizer    Humanizer
	logger       *log.Logger
	pollInterval time.Duration
}

// NewCampaignExecutor creates an executor for one campaign
func NewCampaignExecutor(
	campaignID uint,
	campaigns CampaignStore,
	recipients RecipientStore,
	gate services.QuotaGate,
	sender services.WhatsAppService,
	humanizer Humanizer,
	logger *log.Logger,
	pollInterval time.Duration,
) *CampaignExecutor {
	if pollInterval <= 0 || pollInterval > time.Second {
		pollInterval = defaultPollInterval
	}
	if logger == nil {
		logger = log.Default()
	}

	return &CampaignExecutor{
		campaignID:   campaignID,
		campaigns:    campaigns,
		recipients:   recipients,
		gate:         gate,
		sender:       sender,
		humanizer:    humanizer,
		logger:       logger,
		pollInterval: pollInterval,
	}
}

// Run executes the campaign until it completes, pauses, is cancelled, or the
// context is cancelled. A context cancellation leaves the campaign in running
// so recovery can re-admit it after a restart.
func (e *CampaignExecutor) Run(ctx context.Context) error {
	camp, err := e.campaigns.ByID(ctx, e.campaignID)
	if err != nil {
		return fmt.Errorf("load campaign %d: %w", e.campaignID, err)
	}
	if camp == nil {
		return fmt.Errorf("campaign %d not found", e.campaignID)
	}
	if camp.Status != models.CampaignStatusRunning {
		e.logger.Printf("executor: campaign id=%d not running (status=%s), nothing to do", camp.ID, camp.Status)
		return nil
	}

	// Fix the dispatch order exactly once. A resumed or recovered campaign
	// keeps the order from its first run; SetSendOrder refuses to overwrite.
	if !camp.OrderFixed() {
		order := e.humanizer.Order(camp.TotalRecipients, camp.RandomizeOrder)
		if _, err := e.campaigns.SetSendOrder(ctx, camp.ID, order); err != nil {
			e.pauseInfrastructure(ctx, camp.ID, fmt.Sprintf("persist send order: %v", err))
			return nil
		}
		e.logger.Printf("executor: campaign id=%d send order fixed, recipients=%d randomized=%t", camp.ID, camp.TotalRecipients, camp.RandomizeOrder)
	}

	for {
		camp, err = e.campaigns.ByID(ctx, e.campaignID)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("reload campaign %d: %w", e.campaignID, err)
		}
		if camp == nil {
			return fmt.Errorf("campaign %d disappeared", e.campaignID)
		}

		switch camp.Status {
		case models.CampaignStatusRunning:
			// Keep going
		case models.CampaignStatusPaused, models.CampaignStatusCancelled, models.CampaignStatusCompleted:
			e.logger.Printf("executor: campaign id=%d left running (status=%s), stopping", camp.ID, camp.Status)
			return nil
		default:
			e.logger.Printf("executor: campaign id=%d in unexpected status %s, stopping", camp.ID, camp.Status)
			return nil
		}

		if camp.Cursor >= camp.TotalRecipients {
			if _, err := e.campaigns.UpdateStatusIf(ctx, camp.ID, models.CampaignStatusCompleted, models.CampaignStatusRunning); err != nil {
				return fmt.Errorf("complete campaign %d: %w", camp.ID, err)
			}
			engineCampaignsCompletedTotal.Inc()
			e.logger.Printf("executor: campaign id=%d completed, sent=%d failed=%d", camp.ID, camp.SentCount, camp.FailedCount)
			return nil
		}

		now := utils.UTCNow()
		if !WindowEligibleAt(camp.Window, now) {
			next := NextEligibleInstant(camp.Window, now)
			if next.IsZero() {
				e.pauseInfrastructure(ctx, camp.ID, "send window permits no instant")
				return nil
			}
			e.logger.Printf("executor: campaign id=%d outside send window, waiting until %s", camp.ID, next.Format(time.RFC3339))
			if err := e.waitFor(ctx, next.Sub(now)); err != nil {
				return err
			}
			continue
		}

		if camp.Inbox != nil && !camp.Inbox.IsConnected() {
			e.pause(ctx, camp.ID, models.PauseReasonInboxDisconnected, nil)
			return nil
		}

		reserved, err := e.gate.TryReserve(ctx, camp.WorkspaceID)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			e.pauseInfrastructure(ctx, camp.ID, fmt.Sprintf("quota reservation: %v", err))
			return nil
		}
		if !reserved {
			engineQuotaDenialsTotal.Inc()
			e.pause(ctx, camp.ID, models.PauseReasonQuotaExhausted, nil)
			e.logger.Printf("executor: campaign id=%d paused, workspace %d quota exhausted", camp.ID, camp.WorkspaceID)
			return nil
		}

		// The unit is reserved from here on. Every path below either commits
		// it (message went out) or releases it (it did not).
		if err := e.processNext(ctx, camp); err != nil {
			return err
		}

		// Reload to learn whether the campaign is done before sleeping; the
		// final recipient should not be followed by a delay.
		camp, err = e.campaigns.ByID(ctx, e.campaignID)
		if err != nil || camp == nil {
			continue
		}
		if camp.Status == models.CampaignStatusRunning && camp.Cursor < camp.TotalRecipients {
			delay := e.humanizer.NextDelay(camp.DelayMinMinutes, camp.DelayMaxMinutes)
			e.logger.Printf("executor: campaign id=%d sleeping %s before next recipient", camp.ID, delay)
			if err := e.waitFor(ctx, delay); err != nil {
				return err
			}
		}
	}
}

// processNext delivers to the recipient at the cursor and settles the
// reserved quota unit. Infrastructure failures pause the campaign; a
// cancelled context releases the unit and propagates so the recipient stays
// pending for the next run.
func (e *CampaignExecutor) processNext(ctx context.Context, camp *models.Campaign) error {
	if camp.Cursor >= len(camp.SendOrder) {
		e.releaseUnit(camp.WorkspaceID)
		e.pauseInfrastructure(ctx, camp.ID, fmt.Sprintf("send order has %d entries, cursor at %d", len(camp.SendOrder), camp.Cursor))
		return nil
	}
	position := int(camp.SendOrder[camp.Cursor])

	recipient, err := e.recipients.ByCampaignAndPosition(ctx, camp.ID, position)
	if err != nil {
		if ctx.Err() != nil {
			e.releaseUnit(camp.WorkspaceID)
			return ctx.Err()
		}
		e.releaseUnit(camp.WorkspaceID)
		e.pauseInfrastructure(ctx, camp.ID, fmt.Sprintf("load recipient at position %d: %v", position, err))
		return nil
	}
	if recipient == nil {
		e.releaseUnit(camp.WorkspaceID)
		e.pauseInfrastructure(ctx, camp.ID, fmt.Sprintf("recipient at position %d missing", position))
		return nil
	}

	start := time.Now()
	outcome, err := e.deliver(ctx, camp, recipient)
	if err != nil {
		// Either way the recipient stays pending and the slot is not
		// consumed, so the next run retries it.
		e.releaseUnit(camp.WorkspaceID)
		if errors.Is(err, errTransport) {
			e.pauseInfrastructure(ctx, camp.ID, err.Error())
			return nil
		}
		// Shutdown mid-delivery
		return err
	}
	engineSendDuration.Observe(time.Since(start).Seconds())

	if outcome.Delivered {
		engineMessagesTotal.WithLabelValues("sent").Inc()
		if err := e.gate.Commit(ctx, camp.WorkspaceID); err != nil {
			e.pauseInfrastructure(ctx, camp.ID, fmt.Sprintf("commit quota unit: %v", err))
			return nil
		}
	} else {
		engineMessagesTotal.WithLabelValues("failed").Inc()
		e.releaseUnit(camp.WorkspaceID)
		detail := ""
		if outcome.ErrorDetail != nil {
			detail = *outcome.ErrorDetail
		}
		e.logger.Printf("executor: campaign id=%d recipient position=%d failed: %s", camp.ID, position, detail)
	}

	advanced, err := e.campaigns.AdvanceCursor(ctx, camp.ID, camp.Cursor, outcome)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		e.pauseInfrastructure(ctx, camp.ID, fmt.Sprintf("advance cursor: %v", err))
		return nil
	}
	if !advanced {
		return fmt.Errorf("campaign %d cursor moved underneath executor, expected %d", camp.ID, camp.Cursor)
	}

	return nil
}

// deliver sends the campaign's message sequence to one recipient. All items
// must be accepted for the recipient to count as delivered; the first
// rejection aborts the rest of the sequence. A non-nil error means no verdict
// was reached: the context was cancelled or transport retries ran out.
func (e *CampaignExecutor) deliver(ctx context.Context, camp *models.Campaign, recipient *models.Recipient) (repository.RecipientOutcome, error) {
	outcome := repository.RecipientOutcome{
		Position:    recipient.Position,
		AttemptedAt: utils.UTCNow(),
	}

	inboxUUID := ""
	if camp.Inbox != nil {
		inboxUUID = camp.Inbox.UUID.String()
	}

	for i, item := range camp.Messages {
		rendered := renderMessage(item, recipient.Variables)

		var result *services.SendResult
		var err error
		for attempt := 1; attempt <= maxSendAttempts; attempt++ {
			result, err = e.sender.SendMessage(ctx, inboxUUID, recipient.PhoneNumber, rendered)
			if err == nil {
				break
			}
			if ctx.Err() != nil {
				return outcome, ctx.Err()
			}
			if attempt < maxSendAttempts {
				e.logger.Printf("executor: campaign id=%d send attempt %d failed for position %d: %v", camp.ID, attempt, recipient.Position, err)
				if waitErr := e.waitFor(ctx, sendRetryDelay); waitErr != nil {
					return outcome, waitErr
				}
			}
		}
		if err != nil {
			return outcome, fmt.Errorf("%w: message %d for position %d: %v", errTransport, i+1, recipient.Position, err)
		}
		if !result.Accepted {
			outcome.ErrorDetail = utils.ToPtr(fmt.Sprintf("message %d rejected: %s", i+1, result.Detail))
			return outcome, nil
		}

		if outcome.ProviderMessageID == nil && result.ProviderMessageID != "" {
			outcome.ProviderMessageID = utils.ToPtr(result.ProviderMessageID)
		}
	}

	outcome.Delivered = true
	return outcome, nil
}

// waitFor sleeps for d in pollInterval steps, waking early when the campaign
// leaves the running state or the context is cancelled
func (e *CampaignExecutor) waitFor(ctx context.Context, d time.Duration) error {
	deadline := time.Now().Add(d)

	for {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return nil
		}

		step := e.pollInterval
		if remaining < step {
			step = remaining
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(step):
		}

		camp, err := e.campaigns.ByID(ctx, e.campaignID)
		if err != nil {
			// Transient read failures should not abort a long sleep
			continue
		}
		if camp == nil || camp.Status != models.CampaignStatusRunning {
			return nil
		}
	}
}

func (e *CampaignExecutor) pause(ctx context.Context, campaignID uint, reason models.PauseReason, diagnostic *string) {
	paused, err := e.campaigns.Pause(ctx, campaignID, reason, diagnostic)
	if err != nil {
		e.logger.Printf("executor: campaign id=%d pause (%s) failed: %v", campaignID, reason, err)
		return
	}
	if paused {
		engineCampaignPausesTotal.WithLabelValues(reason.String()).Inc()
	}
}

func (e *CampaignExecutor) pauseInfrastructure(ctx context.Context, campaignID uint, diagnostic string) {
	e.logger.Printf("executor: campaign id=%d pausing on infrastructure failure: %s", campaignID, diagnostic)
	e.pause(ctx, campaignID, models.PauseReasonInfrastructure, &diagnostic)
}

// releaseUnit returns a reserved quota unit on a fresh context so cleanup
// still happens when the executor's context is already cancelled
func (e *CampaignExecutor) releaseUnit(workspaceID uint) {
	releaseCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := e.gate.Release(releaseCtx, workspaceID); err != nil {
		e.logger.Printf("executor: release quota unit for workspace %d failed: %v", workspaceID, err)
	}
}

// renderMessage substitutes {{variable}} placeholders in text and caption
func renderMessage(item models.MessageItem, vars models.VariableMap) models.MessageItem {
	if len(vars) == 0 {
		return item
	}

	for key, value := range vars {
		placeholder := "{{" + key + "}}"
		item.Text = strings.ReplaceAll(item.Text, placeholder, value)
		item.Caption = strings.ReplaceAll(item.Caption, placeholder, value)
	}

	return item
}
