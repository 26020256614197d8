package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Scheduler directory metrics
	TopicsActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "pubsub_topics_active",
			Help: "Number of topics with at least one publisher or subscriber",
		},
	)

	PublishersTotal = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "pubsub_publishers_total",
			Help: "Total number of registered worker publishers across all topics",
		},
	)

	WorkerSubscribersTotal = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "pubsub_worker_subscribers_total",
			Help: "Total number of registered worker subscribers across all topics",
		},
	)

	ClientSubscribersTotal = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "pubsub_client_subscribers_total",
			Help: "Total number of registered client subscribers across all topics",
		},
	)

	AddPublisherDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "pubsub_add_publisher_duration_seconds",
			Help:    "Time taken to service a pubsub_add_publisher control call",
			Buckets: prometheus.DefBuckets,
		},
	)

	// Message fan-out metrics
	MessagesPublishedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pubsub_messages_published_total",
			Help: "Total number of messages published, by path",
		},
		[]string{"path"}, // "direct" (worker->worker fast path) or "scheduler" (slow path)
	)

	MessagesDeliveredTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pubsub_messages_delivered_total",
			Help: "Total number of message deliveries to a subscriber endpoint",
		},
		[]string{"endpoint"}, // "worker" or "client"
	)

	CleanupEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pubsub_cleanup_events_total",
			Help: "Total number of subscriber/publisher cleanup events, by kind",
		},
		[]string{"kind"}, // "finalizer", "disconnect", "eager-gc"
	)

	// Transport metrics
	StreamSendsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pubsub_stream_sends_total",
			Help: "Total number of Stream.Send calls by transport and result",
		},
		[]string{"transport", "result"}, // transport: "local"|"grpcwire"; result: "ok"|"error"
	)

	DirectSendsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pubsub_direct_sends_total",
			Help: "Total number of Direct.SendDirect calls by result",
		},
		[]string{"result"},
	)

	GRPCRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pubsub_grpc_request_duration_seconds",
			Help:    "Duration of grpcwire unary and stream-open calls",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method"},
	)
)

func init() {
	prometheus.MustRegister(TopicsActive)
	prometheus.MustRegister(PublishersTotal)
	prometheus.MustRegister(WorkerSubscribersTotal)
	prometheus.MustRegister(ClientSubscribersTotal)
	prometheus.MustRegister(AddPublisherDuration)

	prometheus.MustRegister(MessagesPublishedTotal)
	prometheus.MustRegister(MessagesDeliveredTotal)
	prometheus.MustRegister(CleanupEventsTotal)

	prometheus.MustRegister(StreamSendsTotal)
	prometheus.MustRegister(DirectSendsTotal)
	prometheus.MustRegister(GRPCRequestDuration)
}

// Handler returns the Prometheus HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}

// Timer is a helper for timing operations
type Timer struct {
	start time.Time
}

// NewTimer creates a new timer
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// ObserveDuration records the duration to a histogram
func (t *Timer) ObserveDuration(histogram prometheus.Histogram) {
	duration := time.Since(t.start).Seconds()
	histogram.Observe(duration)
}

// ObserveDurationVec records the duration to a histogram vec with labels
func (t *Timer) ObserveDurationVec(histogram prometheus.ObserverVec, labels ...string) {
	duration := time.Since(t.start).Seconds()
	histogram.WithLabelValues(labels...).Observe(duration)
}

// Duration returns the elapsed time since timer started
func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}
