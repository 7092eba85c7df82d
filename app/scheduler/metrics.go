package scheduler

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Messages delivered to the gateway, partitioned by outcome
	engineMessagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "engine_messages_total",
			Help: "Total number of recipient sends attempted by campaign executors",
		},
		[]string{"outcome"},
	)

	// Gateway call latency for a full recipient delivery
	engineSendDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "engine_send_duration_seconds",
			Help:    "Latency of delivering one recipient's message sequence",
			Buckets: prometheus.DefBuckets,
		},
	)

	// Reservations the quota gate turned down
	engineQuotaDenialsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "engine_quota_denials_total",
			Help: "Total number of send reservations denied by the quota gate",
		},
	)

	// Campaign state changes driven by executors
	engineCampaignsCompletedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "engine_campaigns_completed_total",
			Help: "Total number of campaigns run to completion",
		},
	)
	engineCampaignPausesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "engine_campaign_pauses_total",
			Help: "Total number of executor-initiated campaign pauses",
		},
		[]string{"reason"},
	)

	// Executors currently admitted by the supervisor
	engineActiveExecutors = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "engine_active_executors",
			Help: "Number of campaign executors currently running",
		},
	)
)
