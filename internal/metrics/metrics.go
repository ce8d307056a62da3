// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "estatehub_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "estatehub_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	RecommendationsServed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "estatehub_recommendations_served_total",
			Help: "Recommendation lists served, by source",
		},
		[]string{"source"}, // "similar", "ai", "fallback"
	)

	ImageResolutions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "estatehub_image_resolutions_total",
			Help: "Image references resolved, by the rule that matched",
		},
		[]string{"rule"},
	)

	AdvisorOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "estatehub_ai_advisor_outcomes_total",
			Help: "AI advisor calls by outcome",
		},
		[]string{"outcome"},
	)

	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "estatehub_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	NotificationsSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "estatehub_notifications_total",
			Help: "Inquiry notifications by result",
		},
		[]string{"result"}, // "sent", "filtered", "failed"
	)

	ImageAuditReferences = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "estatehub_image_audit_references",
			Help: "Image references per resolution rule at the last audit",
		},
		[]string{"rule"},
	)
)
