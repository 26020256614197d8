package metrics

import (
	"testing"
	"time"
)

// TestTimerDuration covers the timing primitive transport/grpcwire's
// SchedulerServer builds on: the Events/AddPublisher entries in
// GRPCRequestDuration are populated by a Timer started at the top of
// the call. (pubsub_add_publisher_duration_seconds is fed by
// pkg/scheduler's own time.Since measurement through SchedulerSink,
// not by a Timer.)
func TestTimerDuration(t *testing.T) {
	timer := NewTimer()

	sleepDuration := 50 * time.Millisecond
	time.Sleep(sleepDuration)

	duration := timer.Duration()
	if duration < sleepDuration {
		t.Errorf("Timer.Duration() = %v, want >= %v", duration, sleepDuration)
	}
}

// TestTimerObserveDuration exercises a Timer feeding a single,
// unlabeled prometheus.Histogram. No call site in this module takes
// this path: scheduler_server.go's "AddPublisher" label goes through
// ObserveDurationVec, like "Events".
func TestTimerObserveDuration(t *testing.T) {
	timer := NewTimer()
	time.Sleep(10 * time.Millisecond)

	timer.ObserveDuration(AddPublisherDuration)

	if timer.Duration() == 0 {
		t.Error("Timer.ObserveDuration() recorded zero duration")
	}
}

// TestTimerObserveDurationVec exercises the path GRPCRequestDuration's
// "Events" and "AddPublisher" labels take in scheduler_server.go: a
// Timer feeding a method-labeled HistogramVec.
func TestTimerObserveDurationVec(t *testing.T) {
	timer := NewTimer()
	time.Sleep(10 * time.Millisecond)

	timer.ObserveDurationVec(GRPCRequestDuration, "Events")

	if timer.Duration() == 0 {
		t.Error("Timer.ObserveDurationVec() recorded zero duration")
	}
}

// TestTimerMultipleCalls checks that Duration can be sampled more than
// once without resetting the start time.
func TestTimerMultipleCalls(t *testing.T) {
	timer := NewTimer()

	time.Sleep(20 * time.Millisecond)
	first := timer.Duration()

	time.Sleep(20 * time.Millisecond)
	second := timer.Duration()

	if second <= first {
		t.Errorf("second Duration() call should be longer: first=%v, second=%v", first, second)
	}
}
