package metrics

import "time"

// SchedulerSink adapts the package-level prometheus gauges to
// scheduler.MetricsSink, so pkg/scheduler can report its counts without
// importing this package directly (it only depends on an interface it
// declares itself).
type SchedulerSink struct{}

// NewSchedulerSink returns a MetricsSink backed by the prometheus gauges
// registered in this package.
func NewSchedulerSink() SchedulerSink {
	return SchedulerSink{}
}

func (SchedulerSink) SetTopicsActive(n int) {
	TopicsActive.Set(float64(n))
}

func (SchedulerSink) SetPublishers(n int) {
	PublishersTotal.Set(float64(n))
}

func (SchedulerSink) SetWorkerSubscribers(n int) {
	WorkerSubscribersTotal.Set(float64(n))
}

func (SchedulerSink) SetClientSubscribers(n int) {
	ClientSubscribersTotal.Set(float64(n))
}

// ObserveAddPublisherDuration records how long one pubsub_add_publisher
// control call took in scheduler.Directory.AddPublisher, measured from
// before it queues for the directory's actor goroutine until it
// returns, so time spent waiting behind other queued operations is
// included.
func (SchedulerSink) ObserveAddPublisherDuration(d time.Duration) {
	AddPublisherDuration.Observe(d.Seconds())
}
