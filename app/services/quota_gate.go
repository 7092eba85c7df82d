// Package services provides external service integrations and technical concerns like notifications and tokens
package services

import (
	"context"
	"fmt"

	"github.com/amirphl/Susanoo/models"
	"github.com/amirphl/Susanoo/repository"
	"github.com/amirphl/Susanoo/utils"
)

// QuotaGate controls how many messages a workspace may send per day and per
// month. Every send follows the same protocol: TryReserve before the attempt,
// then exactly one of Commit (the message went out) or Release (it did not).
// A denied reservation leaves the ledger untouched.
type QuotaGate interface {
	TryReserve(ctx context.Context, workspaceID uint) (bool, error)
	Commit(ctx context.Context, workspaceID uint) error
	Release(ctx context.Context, workspaceID uint) error
	Snapshot(ctx context.Context, workspaceID uint) (*models.QuotaLedger, error)
}

// LedgerQuotaGate implements QuotaGate on top of the quota ledger table
type LedgerQuotaGate struct {
	ledgerRepo    repository.QuotaLedgerRepository
	workspaceRepo repository.WorkspaceRepository
}

// NewLedgerQuotaGate creates a new ledger-backed quota gate
func NewLedgerQuotaGate(ledgerRepo repository.QuotaLedgerRepository, workspaceRepo repository.WorkspaceRepository) QuotaGate {
	return &LedgerQuotaGate{
		ledgerRepo:    ledgerRepo,
		workspaceRepo: workspaceRepo,
	}
}

// TryReserve grabs one send unit for the workspace. Both the daily and the
// monthly ceiling must have headroom; the ledger repository enforces the check
// and the increment in one statement.
func (g *LedgerQuotaGate) TryReserve(ctx context.Context, workspaceID uint) (bool, error) {
	if err := g.ensureFreshLedger(ctx, workspaceID); err != nil {
		return false, err
	}

	return g.ledgerRepo.TryReserve(ctx, workspaceID)
}

// Commit converts one reserved unit into consumed quota
func (g *LedgerQuotaGate) Commit(ctx context.Context, workspaceID uint) error {
	return g.ledgerRepo.Commit(ctx, workspaceID)
}

// Release returns one reserved unit without consuming quota
func (g *LedgerQuotaGate) Release(ctx context.Context, workspaceID uint) error {
	return g.ledgerRepo.Release(ctx, workspaceID)
}

// Snapshot returns the current ledger state for the workspace
func (g *LedgerQuotaGate) Snapshot(ctx context.Context, workspaceID uint) (*models.QuotaLedger, error) {
	if err := g.ensureFreshLedger(ctx, workspaceID); err != nil {
		return nil, err
	}

	ledger, err := g.ledgerRepo.ByWorkspaceID(ctx, workspaceID)
	if err != nil {
		return nil, err
	}
	if ledger == nil {
		return nil, fmt.Errorf("quota ledger missing for workspace %d", workspaceID)
	}

	return ledger, nil
}

// ensureFreshLedger creates the ledger on first use and rolls stale periods
// forward. The periodic rollover job does the same in bulk; doing it lazily
// here keeps a workspace from being blocked by yesterday's usage between job
// runs.
func (g *LedgerQuotaGate) ensureFreshLedger(ctx context.Context, workspaceID uint) error {
	now := utils.UTCNow()

	ledger, err := g.ledgerRepo.ByWorkspaceID(ctx, workspaceID)
	if err != nil {
		return err
	}

	if ledger == nil {
		workspace, err := g.workspaceRepo.ByID(ctx, workspaceID)
		if err != nil {
			return err
		}
		if workspace == nil {
			return fmt.Errorf("workspace %d not found", workspaceID)
		}

		return g.ledgerRepo.EnsureForWorkspace(ctx, workspaceID, workspace.DefaultDailyQuota, workspace.DefaultMonthlyQuota, now)
	}

	if ledger.DayStart.Before(utils.StartOfDay(now)) {
		if _, err := g.ledgerRepo.RolloverDaily(ctx, utils.StartOfDay(now)); err != nil {
			return err
		}
	}
	if ledger.MonthStart.Before(utils.StartOfMonth(now)) {
		if _, err := g.ledgerRepo.RolloverMonthly(ctx, utils.StartOfMonth(now)); err != nil {
			return err
		}
	}

	return nil
}
