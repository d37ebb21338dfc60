// Package metrics registers the Prometheus instruments for the claim and
// verification pipelines.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	ClaimsCreated      prometheus.Counter
	ClaimsDuplicate    prometheus.Counter
	ClaimsVerified     prometheus.Counter
	ClaimsCompleted    prometheus.Counter
	ClaimsRejected     prometheus.Counter
	AttributeDecisions *prometheus.CounterVec
	NotificationsSent  prometheus.Counter
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		ClaimsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "bayanihan_claims_created_total",
			Help: "Total number of claims created",
		}),
		ClaimsDuplicate: promauto.NewCounter(prometheus.CounterOpts{
			Name: "bayanihan_claims_duplicate_total",
			Help: "Total number of claim attempts rejected as duplicates",
		}),
		ClaimsVerified: promauto.NewCounter(prometheus.CounterOpts{
			Name: "bayanihan_claims_verified_total",
			Help: "Total number of claims verified by staff",
		}),
		ClaimsCompleted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "bayanihan_claims_completed_total",
			Help: "Total number of claims marked physically claimed",
		}),
		ClaimsRejected: promauto.NewCounter(prometheus.CounterOpts{
			Name: "bayanihan_claims_rejected_total",
			Help: "Total number of claims rejected by staff",
		}),
		AttributeDecisions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "bayanihan_attribute_decisions_total",
			Help: "Attribute verification decisions by kind and outcome",
		}, []string{"kind", "decision"}),
		NotificationsSent: promauto.NewCounter(prometheus.CounterOpts{
			Name: "bayanihan_notifications_sent_total",
			Help: "Total number of SMS notifications dispatched",
		}),
	}
}
