// Package metrics provides Prometheus metrics for the Clover service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// SearchesTotal tracks federated searches by resource type and status
	SearchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "clover",
			Subsystem: "federation",
			Name:      "searches_total",
			Help:      "Total number of federated searches by resource type and status",
		},
		[]string{"resource", "status"},
	)

	// SearchDuration tracks end-to-end federated search duration
	SearchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "clover",
			Subsystem: "federation",
			Name:      "search_duration_seconds",
			Help:      "Duration of federated searches in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"resource"},
	)

	// PartnerFetchesTotal tracks per-partner fan-out calls by outcome
	PartnerFetchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "clover",
			Subsystem: "federation",
			Name:      "partner_fetches_total",
			Help:      "Total number of per-partner fan-out calls by outcome",
		},
		[]string{"tenant_id", "status"},
	)

	// PartnerFetchDuration tracks per-partner fan-out call duration
	PartnerFetchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "clover",
			Subsystem: "federation",
			Name:      "partner_fetch_duration_seconds",
			Help:      "Duration of per-partner fan-out calls in seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"tenant_id"},
	)

	// SearchesSuperseded tracks in-flight searches cancelled by a newer one
	SearchesSuperseded = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "clover",
			Subsystem: "federation",
			Name:      "searches_superseded_total",
			Help:      "Total number of in-flight searches cancelled by a newer request from the same session",
		},
	)

	// TrustRecomputesTotal tracks trust score recomputations by trigger
	TrustRecomputesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "clover",
			Subsystem: "trust",
			Name:      "recomputes_total",
			Help:      "Total number of trust score recomputations by trigger",
		},
		[]string{"trigger"},
	)

	// TrustRecomputeDuration tracks trust score recomputation duration
	TrustRecomputeDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "clover",
			Subsystem: "trust",
			Name:      "recompute_duration_seconds",
			Help:      "Duration of trust score recomputations in seconds",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		},
	)

	// ReviewsSubmitted tracks review submissions by outcome
	ReviewsSubmitted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "clover",
			Subsystem: "reviews",
			Name:      "submitted_total",
			Help:      "Total number of review submissions by outcome",
		},
		[]string{"status"},
	)

	// QueueJobsProcessed tracks jobs processed from the recompute queue
	QueueJobsProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "clover",
			Subsystem: "queue",
			Name:      "jobs_processed_total",
			Help:      "Total number of jobs processed from the queue",
		},
		[]string{"status"},
	)

	// QueueJobsInFlight tracks jobs currently being processed
	QueueJobsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "clover",
			Subsystem: "queue",
			Name:      "jobs_in_flight",
			Help:      "Number of jobs currently being processed",
		},
	)

	// KafkaMessagesPublished tracks Kafka messages published
	KafkaMessagesPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "clover",
			Subsystem: "kafka",
			Name:      "messages_published_total",
			Help:      "Total number of messages published to Kafka",
		},
		[]string{"topic", "status"},
	)
)

// RecordSearch records a federated search metric
func RecordSearch(resource, status string, durationSeconds float64) {
	SearchesTotal.WithLabelValues(resource, status).Inc()
	SearchDuration.WithLabelValues(resource).Observe(durationSeconds)
}

// RecordPartnerFetch records a per-partner fan-out call
func RecordPartnerFetch(tenantID, status string, durationSeconds float64) {
	PartnerFetchesTotal.WithLabelValues(tenantID, status).Inc()
	PartnerFetchDuration.WithLabelValues(tenantID).Observe(durationSeconds)
}

// RecordTrustRecompute records a trust score recomputation
func RecordTrustRecompute(trigger string, durationSeconds float64) {
	TrustRecomputesTotal.WithLabelValues(trigger).Inc()
	TrustRecomputeDuration.Observe(durationSeconds)
}

// RecordReviewSubmission records a review submission outcome
func RecordReviewSubmission(status string) {
	ReviewsSubmitted.WithLabelValues(status).Inc()
}

// RecordQueueJob records a queue job processing metric
func RecordQueueJob(status string) {
	QueueJobsProcessed.WithLabelValues(status).Inc()
}

// RecordKafkaPublish records a Kafka publish operation
func RecordKafkaPublish(topic, status string) {
	KafkaMessagesPublished.WithLabelValues(topic, status).Inc()
}
