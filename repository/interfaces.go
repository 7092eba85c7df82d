// Package repository provides data access layer implementations and interfaces for database operations
package repository

import (
	"context"
	"time"

	"github.com/amirphl/Susanoo/models"
)

// RepositoryContext key for transaction in context
type contextKey string

const TxContextKey contextKey = "tx"

type Repository[T any, F any] interface {
	ByID(ctx context.Context, id uint) (*T, error)
	ByFilter(ctx context.Context, filter F, orderBy string, limit, offset int) ([]*T, error)
	Save(ctx context.Context, entity *T) error
	SaveBatch(ctx context.Context, entities []*T) error
	Count(ctx context.Context, filter F) (int64, error)
	Exists(ctx context.Context, filter F) (bool, error)
}

// CustomerRepository defines operations for customers
type CustomerRepository interface {
	Repository[models.Customer, models.CustomerFilter]
	ByEmail(ctx context.Context, email string) (*models.Customer, error)
	ByUUID(ctx context.Context, uuid string) (*models.Customer, error)
	UpdateLastLogin(ctx context.Context, customerID uint, at time.Time) error
}

// WorkspaceRepository defines operations for workspaces
type WorkspaceRepository interface {
	Repository[models.Workspace, models.WorkspaceFilter]
	ByUUID(ctx context.Context, uuid string) (*models.Workspace, error)
}

// InboxRepository defines operations for WhatsApp inboxes
type InboxRepository interface {
	Repository[models.Inbox, models.InboxFilter]
	ByUUID(ctx context.Context, uuid string) (*models.Inbox, error)
	ListByWorkspace(ctx context.Context, workspaceID uint) ([]*models.Inbox, error)
	UpdateConnectionStatus(ctx context.Context, inboxID uint, status models.InboxStatus, seenAt time.Time) error
}

// CampaignRepository defines operations for campaigns
type CampaignRepository interface {
	Repository[models.Campaign, models.CampaignFilter]
	ByUUID(ctx context.Context, uuid string) (*models.Campaign, error)
	ListByCustomer(ctx context.Context, customerID uint, limit, offset int) ([]*models.Campaign, error)
	ListByWorkspace(ctx context.Context, workspaceID uint, limit, offset int) ([]*models.Campaign, error)

	// UpdateStatusIf transitions the campaign to the target status only when its
	// current status is one of the listed source statuses. Returns false when no
	// row matched, which means the campaign changed state under us.
	UpdateStatusIf(ctx context.Context, campaignID uint, to models.CampaignStatus, from ...models.CampaignStatus) (bool, error)

	// Schedule moves a pending campaign to scheduled and stamps when it becomes
	// due. Returns false when the campaign was not pending anymore.
	Schedule(ctx context.Context, campaignID uint, at time.Time) (bool, error)

	// Pause moves a running campaign to paused and records why. Returns false
	// when the campaign was not running anymore.
	Pause(ctx context.Context, campaignID uint, reason models.PauseReason, diagnostic *string) (bool, error)

	// Resume moves a paused campaign back to running and clears the pause marker.
	Resume(ctx context.Context, campaignID uint) (bool, error)

	// SetSendOrder persists the dispatch order exactly once. Returns false when
	// an order was already recorded for the campaign.
	SetSendOrder(ctx context.Context, campaignID uint, order []int64) (bool, error)

	// AdvanceCursor finalizes one recipient attempt and moves the cursor forward
	// in a single transaction. Returns false when the cursor was not at the
	// expected position.
	AdvanceCursor(ctx context.Context, campaignID uint, cursor int, rec RecipientOutcome) (bool, error)

	// CancelRemaining marks every still-pending recipient of the campaign as cancelled.
	CancelRemaining(ctx context.Context, campaignID uint) (int64, error)

	ListDueScheduled(ctx context.Context, now time.Time, limit int) ([]*models.Campaign, error)
	ListRunning(ctx context.Context) ([]*models.Campaign, error)
}

// RecipientOutcome carries the result of one delivery attempt
type RecipientOutcome struct {
	Position          int
	Delivered         bool
	ErrorDetail       *string
	ProviderMessageID *string
	AttemptedAt       time.Time
}

// RecipientRepository defines operations for campaign recipients
type RecipientRepository interface {
	Repository[models.Recipient, models.RecipientFilter]
	ListByCampaign(ctx context.Context, campaignID uint) ([]*models.Recipient, error)
	ByCampaignAndPosition(ctx context.Context, campaignID uint, position int) (*models.Recipient, error)
	CountByStatus(ctx context.Context, campaignID uint, status models.RecipientStatus) (int64, error)
}

// QuotaLedgerRepository defines operations for per-workspace quota ledgers
type QuotaLedgerRepository interface {
	Repository[models.QuotaLedger, models.QuotaLedgerFilter]
	ByWorkspaceID(ctx context.Context, workspaceID uint) (*models.QuotaLedger, error)

	// EnsureForWorkspace creates the ledger row when missing. Safe to call
	// concurrently; the unique index on workspace_id resolves races.
	EnsureForWorkspace(ctx context.Context, workspaceID uint, dailyLimit, monthlyLimit int, now time.Time) error

	// TryReserve grabs one send unit against both period counters. Returns false
	// when either the daily or the monthly budget is exhausted.
	TryReserve(ctx context.Context, workspaceID uint) (bool, error)

	// Commit converts one reserved unit into a used unit.
	Commit(ctx context.Context, workspaceID uint) error

	// Release returns one reserved unit without consuming it.
	Release(ctx context.Context, workspaceID uint) error

	// RolloverDaily resets daily usage for every ledger whose day started before
	// the given period start. Returns the number of ledgers rolled over.
	RolloverDaily(ctx context.Context, dayStart time.Time) (int64, error)

	// RolloverMonthly resets monthly usage for every ledger whose month started
	// before the given period start.
	RolloverMonthly(ctx context.Context, monthStart time.Time) (int64, error)
}

// CampaignDraftRepository defines operations for per-customer campaign drafts
type CampaignDraftRepository interface {
	Repository[models.CampaignDraft, models.CampaignDraftFilter]
	ByCustomerID(ctx context.Context, customerID uint) (*models.CampaignDraft, error)
	Upsert(ctx context.Context, draft *models.CampaignDraft) error
	DeleteByCustomerID(ctx context.Context, customerID uint) error
}

// AuditLogRepository defines operations for audit logs
type AuditLogRepository interface {
	Repository[models.AuditLog, models.AuditLogFilter]
	ListByCustomer(ctx context.Context, customerID uint, limit, offset int) ([]*models.AuditLog, error)
	ListByAction(ctx context.Context, action string, limit, offset int) ([]*models.AuditLog, error)
	ListFailedActions(ctx context.Context, limit, offset int) ([]*models.AuditLog, error)
}
