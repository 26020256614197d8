/*
Package metrics provides Prometheus metrics collection and exposition for
the pub/sub fabric.

It defines and registers all fabric metrics using the Prometheus client
library: topic directory size, message fan-out counts, transport send
results, and health/readiness state. Metrics are exposed via HTTP for
scraping by Prometheus servers.

# Architecture

	┌──────────────────── METRICS SYSTEM ──────────────────────┐
	│                                                            │
	│  ┌────────────────────────────────────────────┐          │
	│  │          Prometheus Registry                │          │
	│  │  - Global DefaultRegistry                   │          │
	│  │  - MustRegister at package init             │          │
	│  └──────────────────┬─────────────────────────┘          │
	│                     │                                      │
	│  ┌──────────────────▼─────────────────────────┐          │
	│  │           Metric Categories                  │          │
	│  │                                              │          │
	│  │  Directory: topics, publishers, subscribers │          │
	│  │  Fan-out: messages published/delivered      │          │
	│  │  Cleanup: finalizer/disconnect/eager-gc     │          │
	│  │  Transport: stream/direct send results      │          │
	│  └──────────────────┬─────────────────────────┘          │
	│                     │                                      │
	│  ┌──────────────────▼─────────────────────────┐          │
	│  │          HTTP Metrics Endpoint              │          │
	│  │  - Path: /metrics                           │          │
	│  │  - Handler: promhttp.Handler()              │          │
	│  └────────────────────────────────────────────┘           │
	└────────────────────────────────────────────────────────┘

SchedulerSink adapts these gauges to scheduler.MetricsSink so
pkg/scheduler pushes directory counts synchronously on every mutation,
without importing this package. Collector polls the same directory
every 15s as a backstop for deployments that never wired a sink.

# Metrics Catalog

pubsub_topics_active:
  - Type: Gauge
  - Description: topics with at least one publisher or subscriber

pubsub_publishers_total / pubsub_worker_subscribers_total / pubsub_client_subscribers_total:
  - Type: Gauge
  - Description: registered endpoints across all topics

pubsub_add_publisher_duration_seconds:
  - Type: Histogram
  - Description: time to service a pubsub_add_publisher control call

pubsub_messages_published_total{path}:
  - Type: Counter
  - Labels: path = "direct" | "scheduler"

pubsub_messages_delivered_total{endpoint}:
  - Type: Counter
  - Labels: endpoint = "worker" | "client"

pubsub_cleanup_events_total{kind}:
  - Type: Counter
  - Labels: kind = "finalizer" | "disconnect" | "eager-gc"

pubsub_stream_sends_total{transport,result} / pubsub_direct_sends_total{result}:
  - Type: Counter
  - Labels: transport = "local" | "grpcwire"; result = "ok" | "error"

pubsub_grpc_request_duration_seconds{method}:
  - Type: Histogram
  - Description: duration of grpcwire unary and stream-open calls

Only the gauges and the two histograms are updated by this module's
code: pkg/scheduler pushes the gauges and the add-publisher histogram
through SchedulerSink, and transport/grpcwire observes
pubsub_grpc_request_duration_seconds. The counters are registered and
exported, but nothing in this module increments them, so they stay at
zero.

# Health and readiness

HealthChecker tracks named components independently of the Prometheus
registry: RegisterComponent sets a component's status (a second call
with the same name replaces it), GetHealth/
GetReadiness compute the aggregate, and HealthHandler/ReadyHandler/
LivenessHandler expose them over HTTP for container orchestrators.
GetReadiness additionally requires "scheduler" and "grpcwire" to both
be registered and healthy.

# Monitoring

PromQL starting points:

  - Directory size: pubsub_topics_active
  - Fan-out rate: rate(pubsub_messages_published_total[1m])
  - Cleanup churn: rate(pubsub_cleanup_events_total[5m])
  - Transport error rate: rate(pubsub_stream_sends_total{result="error"}[1m])
  - p95 add-publisher latency: histogram_quantile(0.95, pubsub_add_publisher_duration_seconds_bucket)

# See Also

  - Prometheus documentation: https://prometheus.io/docs/
  - Prometheus client library: https://github.com/prometheus/client_golang
*/
package metrics
