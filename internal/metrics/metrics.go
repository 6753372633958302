package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	MessagesSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rently_messages_sent_total",
			Help: "Total messages persisted",
		},
		[]string{"kind"}, // "text" or "attachment"
	)

	MessagesRead = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "rently_messages_read_total",
			Help: "Total messages marked read",
		},
	)

	UploadFallbacks = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "rently_upload_fallbacks_total",
			Help: "Uploads that fell back to the public bucket after a primary failure",
		},
	)

	UploadFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "rently_upload_failures_total",
			Help: "Uploads that failed on both buckets",
		},
	)

	PushEventsDeduped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "rently_push_events_deduped_total",
			Help: "Push events discarded because the message id was already rendered",
		},
	)
)
