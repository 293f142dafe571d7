package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// DatabaseQueryLatency records database query latency by operation and table.
	DatabaseQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "talenthub_database_query_latency_seconds",
		Help:    "Database query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "table"})

	// ChallengeParticipations counts participation attempts by outcome.
	ChallengeParticipations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "talenthub_challenge_participations_total",
		Help: "Total challenge participation attempts by outcome",
	}, []string{"outcome"})

	// AdminRequestsProcessed counts resolved admin requests by decision.
	AdminRequestsProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "talenthub_admin_requests_processed_total",
		Help: "Total admin requests resolved by a super admin",
	}, []string{"decision"})

	// MediaUploads counts upload attempts by kind and outcome.
	MediaUploads = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "talenthub_media_uploads_total",
		Help: "Total media uploads by kind and outcome",
	}, []string{"kind", "outcome"})

	// MediaUploadBytes observes accepted upload sizes by kind.
	MediaUploadBytes = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "talenthub_media_upload_bytes",
		Help:    "Size of accepted media uploads in bytes",
		Buckets: prometheus.ExponentialBuckets(16*1024, 4, 8),
	}, []string{"kind"})
)

// ObserveQuery records the latency of a database query.
func ObserveQuery(operation, table string, start time.Time) {
	DatabaseQueryLatency.WithLabelValues(operation, table).Observe(time.Since(start).Seconds())
}

// RecordUpload counts one upload attempt and, when accepted, its size.
func RecordUpload(kind, outcome string, size int64) {
	MediaUploads.WithLabelValues(kind, outcome).Inc()
	if outcome == "accepted" {
		MediaUploadBytes.WithLabelValues(kind).Observe(float64(size))
	}
}
