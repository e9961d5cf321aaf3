package businessflow

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Per-recipient dispatch outcomes: success, failed or credit_limit
	campaignEmailsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "campaign_emails_total",
			Help: "Campaign emails by dispatch outcome",
		},
		[]string{"result"},
	)

	// Campaigns persisted, partitioned by schedule type
	campaignsCreatedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "campaigns_created_total",
			Help: "Total number of campaigns created",
		},
		[]string{"schedule_type"},
	)

	campaignCreditsDeductedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "campaign_credits_deducted_total",
			Help: "Total email send credits consumed by campaigns",
		},
	)
)

const (
	dispatchResultSuccess     = "success"
	dispatchResultFailed      = "failed"
	dispatchResultCreditLimit = "credit_limit"
)
