package framework

import (
	"context"
	"strings"
	"time"

	"github.com/cuemby/warren-pubsub/pkg/transport"
)

// Assertions provides test assertion helpers.
type Assertions struct {
	t TestingT
}

// NewAssertions creates a new Assertions instance.
func NewAssertions(t TestingT) *Assertions {
	return &Assertions{t: t}
}

// TopicPresent asserts that the scheduler currently tracks topic.
func (a *Assertions) TopicPresent(ctx context.Context, cluster *Cluster, topic transport.Topic) {
	a.t.Helper()

	present, err := cluster.Scheduler.HasTopic(ctx, topic)
	if err != nil {
		a.t.Fatalf("HasTopic(%s) failed: %v", topic, err)
	}
	if !present {
		a.t.Fatalf("expected topic %s to be present", topic)
	}
}

// TopicGone asserts that the scheduler no longer tracks topic.
func (a *Assertions) TopicGone(ctx context.Context, cluster *Cluster, topic transport.Topic) {
	a.t.Helper()

	present, err := cluster.Scheduler.HasTopic(ctx, topic)
	if err != nil {
		a.t.Fatalf("HasTopic(%s) failed: %v", topic, err)
	}
	if present {
		a.t.Fatalf("expected topic %s to be evicted", topic)
	}
}

// WorkerSubscriberCount asserts the number of worker subscribers currently registered for topic.
func (a *Assertions) WorkerSubscriberCount(ctx context.Context, cluster *Cluster, topic transport.Topic, expected int) {
	a.t.Helper()

	subs, err := cluster.Scheduler.WorkerSubscribersOf(ctx, topic)
	if err != nil {
		a.t.Fatalf("WorkerSubscribersOf(%s) failed: %v", topic, err)
	}
	if len(subs) != expected {
		a.t.Fatalf("topic %s has %d worker subscribers, expected %d", topic, len(subs), expected)
	}
}

// Stats asserts the scheduler's current point-in-time Stats.
func (a *Assertions) Stats(ctx context.Context, cluster *Cluster, expectTopics, expectPublishers, expectWorkerSubs, expectClientSubs int) {
	a.t.Helper()

	stats, err := cluster.Stat(ctx)
	if err != nil {
		a.t.Fatalf("Stat failed: %v", err)
	}
	if stats.Topics != expectTopics {
		a.t.Fatalf("Topics = %d, expected %d", stats.Topics, expectTopics)
	}
	if stats.Publishers != expectPublishers {
		a.t.Fatalf("Publishers = %d, expected %d", stats.Publishers, expectPublishers)
	}
	if stats.WorkerSubscribers != expectWorkerSubs {
		a.t.Fatalf("WorkerSubscribers = %d, expected %d", stats.WorkerSubscribers, expectWorkerSubs)
	}
	if stats.ClientSubscribers != expectClientSubs {
		a.t.Fatalf("ClientSubscribers = %d, expected %d", stats.ClientSubscribers, expectClientSubs)
	}
}

// MessageCount asserts that r has received exactly expected messages so far.
func (a *Assertions) MessageCount(r *Recorder, expected int) {
	a.t.Helper()

	if got := r.Count(); got != expected {
		a.t.Fatalf("recorder received %d messages, expected %d", got, expected)
	}
}

// Eventually repeatedly runs a condition until it returns true or timeout occurs.
func (a *Assertions) Eventually(condition func() bool, timeout, interval time.Duration, msg string) {
	a.t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	if condition() {
		return
	}

	for {
		select {
		case <-ctx.Done():
			a.t.Fatalf("Timeout waiting for condition: %s (timeout: %v)", msg, timeout)
		case <-ticker.C:
			if condition() {
				return
			}
		}
	}
}

// EventuallyWithContext is like Eventually but uses a provided context.
func (a *Assertions) EventuallyWithContext(ctx context.Context, condition func() bool, interval time.Duration, msg string) {
	a.t.Helper()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	if condition() {
		return
	}

	for {
		select {
		case <-ctx.Done():
			a.t.Fatalf("Context cancelled waiting for condition: %s (error: %v)", msg, ctx.Err())
		case <-ticker.C:
			if condition() {
				return
			}
		}
	}
}

// NoError asserts that the error is nil.
func (a *Assertions) NoError(err error, msg string) {
	a.t.Helper()

	if err != nil {
		a.t.Fatalf("%s: %v", msg, err)
	}
}

// Error asserts that the error is not nil.
func (a *Assertions) Error(err error, msg string) {
	a.t.Helper()

	if err == nil {
		a.t.Fatalf("%s: expected error but got nil", msg)
	}
}

// Equal asserts that two values are equal.
func (a *Assertions) Equal(expected, actual interface{}, msg string) {
	a.t.Helper()

	if expected != actual {
		a.t.Fatalf("%s: expected %v, got %v", msg, expected, actual)
	}
}

// NotEqual asserts that two values are not equal.
func (a *Assertions) NotEqual(expected, actual interface{}, msg string) {
	a.t.Helper()

	if expected == actual {
		a.t.Fatalf("%s: expected values to be different, but both are %v", msg, expected)
	}
}

// True asserts that a condition is true.
func (a *Assertions) True(condition bool, msg string) {
	a.t.Helper()

	if !condition {
		a.t.Fatalf("%s: expected true, got false", msg)
	}
}

// False asserts that a condition is false.
func (a *Assertions) False(condition bool, msg string) {
	a.t.Helper()

	if condition {
		a.t.Fatalf("%s: expected false, got true", msg)
	}
}

// Contains asserts that a string contains a substring.
func (a *Assertions) Contains(haystack, needle, msg string) {
	a.t.Helper()

	if !strings.Contains(haystack, needle) {
		a.t.Fatalf("%s: expected %q to contain %q", msg, haystack, needle)
	}
}

// NotContains asserts that a string does not contain a substring.
func (a *Assertions) NotContains(haystack, needle, msg string) {
	a.t.Helper()

	if strings.Contains(haystack, needle) {
		a.t.Fatalf("%s: expected %q not to contain %q", msg, haystack, needle)
	}
}

// Len asserts that a slice or map has a specific length.
func (a *Assertions) Len(obj interface{}, expected int, msg string) {
	a.t.Helper()

	var length int

	switch v := obj.(type) {
	case []interface{}:
		length = len(v)
	case []any:
		length = len(v)
	case map[string]interface{}:
		length = len(v)
	case string:
		length = len(v)
	default:
		a.t.Fatalf("%s: unsupported type for Len assertion: %T", msg, obj)
		return
	}

	if length != expected {
		a.t.Fatalf("%s: expected length %d, got %d", msg, expected, length)
	}
}

// Nil asserts that a value is nil.
func (a *Assertions) Nil(obj interface{}, msg string) {
	a.t.Helper()

	if obj != nil {
		a.t.Fatalf("%s: expected nil, got %v", msg, obj)
	}
}

// NotNil asserts that a value is not nil.
func (a *Assertions) NotNil(obj interface{}, msg string) {
	a.t.Helper()

	if obj == nil {
		a.t.Fatalf("%s: expected non-nil value", msg)
	}
}

// Logf logs a formatted message (non-failing).
func (a *Assertions) Logf(format string, args ...interface{}) {
	a.t.Helper()
	a.t.Logf(format, args...)
}

// Log logs a message (non-failing).
func (a *Assertions) Log(msg string) {
	a.t.Helper()
	a.t.Logf("%s", msg)
}

// Step logs a test step (for visibility in test output).
func (a *Assertions) Step(step string) {
	a.t.Helper()
	a.t.Logf("\n==> %s", step)
}

// Errorf logs an error and fails the test.
func (a *Assertions) Errorf(format string, args ...interface{}) {
	a.t.Helper()
	a.t.Errorf(format, args...)
}

// Fatalf logs a fatal error and stops the test immediately.
func (a *Assertions) Fatalf(format string, args ...interface{}) {
	a.t.Helper()
	a.t.Fatalf(format, args...)
}

// FailNow fails the test immediately without logging.
func (a *Assertions) FailNow() {
	a.t.Helper()
	a.t.FailNow()
}
