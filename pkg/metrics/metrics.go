package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// DrawsCompleted records finished draw runs by result (perfect|imperfect|failed).
	DrawsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "giftloop_draws_completed_total",
			Help: "Total number of completed draw runs",
		},
		[]string{"result"},
	)

	// DrawAttempts measures how many shuffle attempts a draw run consumed.
	DrawAttempts = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "giftloop_draw_attempts",
			Help:    "Shuffle attempts consumed per draw run",
			Buckets: prometheus.ExponentialBuckets(1, 2, 10),
		},
	)

	// DrawScore measures the winning score of each draw run (0 is a perfect draw).
	DrawScore = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "giftloop_draw_score",
			Help:    "Historical-repeat score of the winning assignment",
			Buckets: prometheus.LinearBuckets(0, 1, 10),
		},
	)

	// TransitionsEnqueued counts lifecycle transitions handed to the job queue.
	TransitionsEnqueued = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "giftloop_transitions_enqueued_total",
			Help: "Lifecycle transitions marked started and enqueued",
		},
		[]string{"transition"},
	)

	// AssignmentEmails counts assignment notification sends by result (sent|failed).
	AssignmentEmails = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "giftloop_assignment_emails_total",
			Help: "Assignment notification emails by result",
		},
		[]string{"result"},
	)

	// APILatency measures HTTP request latencies.
	APILatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "giftloop_api_latency_seconds",
			Help:    "API endpoint latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)
