package utils

import (
	"time"
)

// Token and session time constants
const (
	// AccessTokenTTL is the time-to-live for access tokens (24 hours)
	AccessTokenTTL = 24 * time.Hour

	// RefreshTokenTTL is the time-to-live for refresh tokens (7 days)
	RefreshTokenTTL = 7 * 24 * time.Hour
)

// CORS and security constants
const (
	// CORSMaxAge is the maximum age for CORS preflight requests (24 hours)
	CORSMaxAge = 86400
)

// Request context keys for request-scoped values
const (
	RequestIDKey  = "X-Request-ID"
	UserAgentKey  = "User-Agent"
	IPAddressKey  = "ip_address"
	EndpointKey   = "endpoint"
	TimeoutKey    = "timeout"
	CancelFuncKey = "cancel_func"
)

// Campaign engine constants
const (
	// MinDelayMinutes is the smallest allowed humanization delay bound
	MinDelayMinutes = 1

	// MaxDelayMinutes is the largest allowed humanization delay bound
	MaxDelayMinutes = 30

	// MaxRecipientsPerCampaign caps the recipient list accepted at creation
	MaxRecipientsPerCampaign = 10000

	// MaxMessageItems caps the number of message items per campaign
	MaxMessageItems = 10

	// QuotaCacheKey is the redis key prefix for cached quota snapshots
	QuotaCacheKey = "quota:workspace"

	// QuotaCacheTTL bounds staleness of cached quota snapshots
	QuotaCacheTTL = 30 * time.Second
)
