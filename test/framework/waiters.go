package framework

import (
	"context"
	"fmt"
	"time"

	"github.com/cuemby/warren-pubsub/pkg/transport"
)

// Waiter provides utilities for waiting on conditions with timeouts.
type Waiter struct {
	timeout  time.Duration
	interval time.Duration
}

// NewWaiter creates a new Waiter with the given timeout and polling interval.
func NewWaiter(timeout, interval time.Duration) *Waiter {
	return &Waiter{
		timeout:  timeout,
		interval: interval,
	}
}

// DefaultWaiter returns a waiter with sensible defaults (5s timeout, 10ms
// interval). Pub/sub state changes propagate through an in-process
// actor goroutine, not a consensus log, so convergence is expected in
// milliseconds rather than seconds.
func DefaultWaiter() *Waiter {
	return NewWaiter(5*time.Second, 10*time.Millisecond)
}

// WaitFor waits for a condition to become true.
func (w *Waiter) WaitFor(ctx context.Context, condition func() bool, description string) error {
	ctx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	if condition() {
		return nil
	}

	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("timeout waiting for: %s (timeout: %v)", description, w.timeout)
		case <-ticker.C:
			if condition() {
				return nil
			}
		}
	}
}

// WaitForSubscriberCount waits for a topic's worker-subscriber set on
// the scheduler to reach exactly count members.
func (w *Waiter) WaitForSubscriberCount(ctx context.Context, cluster *Cluster, topic transport.Topic, count int) error {
	return w.WaitFor(ctx, func() bool {
		subs, err := cluster.Scheduler.WorkerSubscribersOf(ctx, topic)
		if err != nil {
			return false
		}
		return len(subs) == count
	}, fmt.Sprintf("topic %s to have %d worker subscribers", topic, count))
}

// WaitForTopicPresent waits for the scheduler to track topic at all
// (it has at least one publisher or subscriber).
func (w *Waiter) WaitForTopicPresent(ctx context.Context, cluster *Cluster, topic transport.Topic) error {
	return w.WaitFor(ctx, func() bool {
		present, err := cluster.Scheduler.HasTopic(ctx, topic)
		return err == nil && present
	}, fmt.Sprintf("topic %s to appear", topic))
}

// WaitForTopicGone waits for the scheduler to evict topic entirely -
// its publisher, worker-subscriber, and client-subscriber sets all
// empty (the topic retention rule in spec section 9).
func (w *Waiter) WaitForTopicGone(ctx context.Context, cluster *Cluster, topic transport.Topic) error {
	return w.WaitFor(ctx, func() bool {
		present, err := cluster.Scheduler.HasTopic(ctx, topic)
		return err == nil && !present
	}, fmt.Sprintf("topic %s to be evicted", topic))
}

// WaitForMessageCount waits for r to have received at least count messages.
func (w *Waiter) WaitForMessageCount(ctx context.Context, r *Recorder, count int) error {
	return w.WaitFor(ctx, func() bool {
		return r.Count() >= count
	}, fmt.Sprintf("recorder to receive %d messages", count))
}

// PollUntil polls a condition until it returns true or context is cancelled.
func PollUntil(ctx context.Context, interval time.Duration, condition func() bool) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	if condition() {
		return nil
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if condition() {
				return nil
			}
		}
	}
}

// PollUntilWithError polls a condition that can return an error.
func PollUntilWithError(ctx context.Context, interval time.Duration, condition func() (bool, error)) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	if ok, err := condition(); err != nil {
		return err
	} else if ok {
		return nil
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if ok, err := condition(); err != nil {
				return err
			} else if ok {
				return nil
			}
		}
	}
}

// Retry retries an operation with exponential backoff.
func Retry(ctx context.Context, attempts int, initialDelay time.Duration, operation func() error) error {
	var err error
	delay := initialDelay

	for i := 0; i < attempts; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < attempts-1 {
			select {
			case <-ctx.Done():
				return fmt.Errorf("retry cancelled: %w", ctx.Err())
			case <-time.After(delay):
				delay = delay * 2
			}
		}
	}

	return fmt.Errorf("operation failed after %d attempts: %w", attempts, err)
}
