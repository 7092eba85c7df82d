// Package businessflow contains the core business logic and use cases for campaign workflows
package businessflow

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/amirphl/Susanoo/app/dto"
	"github.com/amirphl/Susanoo/app/services"
	"github.com/amirphl/Susanoo/config"
	"github.com/amirphl/Susanoo/repository"
	"github.com/amirphl/Susanoo/utils"
	"github.com/redis/go-redis/v9"
)

// QuotaFlow exposes the current quota state of the caller's workspace
type QuotaFlow interface {
	GetQuota(ctx context.Context, customerID uint, metadata *ClientMetadata) (*dto.GetQuotaResponse, error)
}

// QuotaFlowImpl implements the quota business flow. Reads go through a short
// redis cache; the executors never touch this path, so a stale snapshot can
// only mislead a dashboard, not oversell quota.
type QuotaFlowImpl struct {
	customerRepo repository.CustomerRepository
	gate         services.QuotaGate
	cacheConfig  *config.CacheConfig
	rc           *redis.Client
}

// NewQuotaFlow creates a new quota flow instance
func NewQuotaFlow(
	customerRepo repository.CustomerRepository,
	gate services.QuotaGate,
	cacheConfig *config.CacheConfig,
	rc *redis.Client,
) QuotaFlow {
	return &QuotaFlowImpl{
		customerRepo: customerRepo,
		gate:         gate,
		cacheConfig:  cacheConfig,
		rc:           rc,
	}
}

// GetQuota returns the daily and monthly quota state of the caller's workspace
func (q *QuotaFlowImpl) GetQuota(ctx context.Context, customerID uint, metadata *ClientMetadata) (*dto.GetQuotaResponse, error) {
	customer, err := getCustomer(ctx, q.customerRepo, customerID)
	if err != nil {
		return nil, NewBusinessError("CUSTOMER_LOOKUP_FAILED", "Failed to lookup customer", err)
	}

	cacheKey := redisKey(*q.cacheConfig, fmt.Sprintf("%s:%d", utils.QuotaCacheKey, customer.WorkspaceID))

	// try redis first
	if q.rc != nil {
		if bs, err := q.rc.Get(ctx, cacheKey).Bytes(); err == nil && len(bs) > 0 {
			var out dto.GetQuotaResponse
			if err := json.Unmarshal(bs, &out); err == nil {
				out.Message = "Quota retrieved from cache"
				return &out, nil
			}
		}
	}

	ledger, err := q.gate.Snapshot(ctx, customer.WorkspaceID)
	if err != nil {
		return nil, NewBusinessError("QUOTA_LOOKUP_FAILED", "Failed to read quota ledger", err)
	}

	out := &dto.GetQuotaResponse{
		Message: "Quota retrieved successfully",
		Daily: dto.QuotaPeriodDTO{
			Limit:       ledger.DailyLimit,
			Used:        ledger.DailyUsed,
			Reserved:    ledger.DailyReserved,
			Remaining:   ledger.RemainingDaily(),
			PeriodStart: ledger.DayStart.Format("2006-01-02"),
		},
		Monthly: dto.QuotaPeriodDTO{
			Limit:       ledger.MonthlyLimit,
			Used:        ledger.MonthlyUsed,
			Reserved:    ledger.MonthlyReserved,
			Remaining:   ledger.RemainingMonthly(),
			PeriodStart: ledger.MonthStart.Format("2006-01-02"),
		},
		Exhausted: ledger.Exhausted(),
	}

	if q.rc != nil {
		if bs, err := json.Marshal(out); err == nil {
			_ = q.rc.Set(ctx, cacheKey, bs, utils.QuotaCacheTTL).Err()
		}
	}

	return out, nil
}

// redisKey prefixes a cache key with the configured namespace
func redisKey(cfg config.CacheConfig, key string) string {
	if cfg.RedisPrefix == "" {
		return key
	}
	return fmt.Sprintf("%s:%s", cfg.RedisPrefix, key)
}
