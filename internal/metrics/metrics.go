package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RPCDuration tracks the latency of every RPC by procedure and code
	RPCDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "runpool_rpc_duration_seconds",
			Help: "Duration of RPC requests in seconds",
			Buckets: []float64{
				0.001, // 1ms
				0.005, // 5ms
				0.01,  // 10ms
				0.025, // 25ms
				0.05,  // 50ms
				0.1,   // 100ms
				0.25,  // 250ms
				0.5,   // 500ms
				1.0,   // 1s
				2.5,   // 2.5s
				5.0,   // 5s
			},
		},
		[]string{"procedure", "code"},
	)

	// InviteResolutions counts invite token resolutions by result
	InviteResolutions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "runpool_invite_resolutions_total",
			Help: "Invite token resolutions by result",
		},
		[]string{"result"},
	)

	// Admissions counts membership admissions by result
	Admissions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "runpool_admissions_total",
			Help: "Membership admissions by result",
		},
		[]string{"result"}, // created, existing, reactivated, error
	)

	// PaymentEvents counts reconciled processor events by type and outcome
	PaymentEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "runpool_payment_events_total",
			Help: "Processor events handled by reconciliation",
		},
		[]string{"type", "outcome"},
	)

	// CampaignSends counts campaign deliveries by campaign and outcome
	CampaignSends = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "runpool_campaign_sends_total",
			Help: "Campaign messages by outcome",
		},
		[]string{"campaign", "outcome"}, // sent, skipped, failed
	)
)

// RecordRPC records the duration of an RPC
func RecordRPC(procedure, code string, duration float64) {
	RPCDuration.WithLabelValues(procedure, code).Observe(duration)
}

// RecordInviteResolution records one invite resolution result
func RecordInviteResolution(result string) {
	InviteResolutions.WithLabelValues(result).Inc()
}

// RecordAdmission records one admission result
func RecordAdmission(result string) {
	Admissions.WithLabelValues(result).Inc()
}

// RecordPaymentEvent records how a processor event was handled
func RecordPaymentEvent(eventType, outcome string) {
	PaymentEvents.WithLabelValues(eventType, outcome).Inc()
}

// RecordCampaignSend records one campaign recipient outcome
func RecordCampaignSend(campaign, outcome string) {
	CampaignSends.WithLabelValues(campaign, outcome).Inc()
}
