// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	WebhooksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vip_relay_webhooks_total",
			Help: "Total number of inbound webhooks by outcome",
		},
		[]string{"source", "outcome"},
	)

	WebhookDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "vip_relay_webhook_duration_seconds",
			Help:    "Duration of webhook handling in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		},
		[]string{"source"},
	)

	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vip_relay_api_requests_total",
			Help: "Total number of helpdesk API requests sent",
		},
		[]string{"method", "budget_class", "status"},
	)

	APIRateLimitedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vip_relay_api_rate_limited_total",
			Help: "Total number of 429 responses received from the helpdesk",
		},
		[]string{"budget_class"},
	)

	BudgetWaitSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "vip_relay_budget_wait_seconds",
			Help:    "Time spent waiting for the local rate budget window to reset",
			Buckets: []float64{0.1, 1, 5, 15, 30, 60},
		},
		[]string{"budget_class"},
	)

	TicketUpdatesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vip_relay_ticket_updates_total",
			Help: "Total number of ticket updates attempted by result",
		},
		[]string{"result"},
	)

	AlertsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vip_relay_alerts_total",
			Help: "Total number of sync failure alerts published by result",
		},
		[]string{"result"},
	)
)
