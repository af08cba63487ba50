package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the lifecycle core.
type Metrics struct {
	ApplicationsSubmitted prometheus.Counter
	StatusTransitions     *prometheus.CounterVec
	InterviewsScheduled   prometheus.Counter
	NotificationsCreated  *prometheus.CounterVec
	PushDropped           prometheus.Counter
	RelayFailures         prometheus.Counter
	RequestDuration       *prometheus.HistogramVec
}

// New registers all metrics with the default registry.
func New() *Metrics {
	return NewWith(prometheus.DefaultRegisterer)
}

// NewWith registers against an explicit registerer. Tests pass a fresh
// registry so repeated construction never collides.
func NewWith(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		ApplicationsSubmitted: factory.NewCounter(prometheus.CounterOpts{
			Name: "tradematch_applications_submitted_total",
			Help: "Total number of applications submitted",
		}),
		StatusTransitions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "tradematch_status_transitions_total",
			Help: "Application status transitions by edge",
		}, []string{"from", "to"}),
		InterviewsScheduled: factory.NewCounter(prometheus.CounterOpts{
			Name: "tradematch_interviews_scheduled_total",
			Help: "Total number of interviews scheduled",
		}),
		NotificationsCreated: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "tradematch_notifications_created_total",
			Help: "Durable notification inserts by type",
		}, []string{"type"}),
		PushDropped: factory.NewCounter(prometheus.CounterOpts{
			Name: "tradematch_notification_push_dropped_total",
			Help: "Live pushes dropped because the subscriber buffer was full or closed",
		}),
		RelayFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "tradematch_event_relay_failures_total",
			Help: "Domain events that could not be published to Kafka",
		}),
		RequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "tradematch_http_request_duration_seconds",
			Help:    "HTTP request latency by route and status",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "status"}),
	}
}
