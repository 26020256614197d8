package framework

import (
	"context"
	"sync"

	"github.com/cuemby/warren-pubsub/pkg/pubsub"
)

// Recorder wraps a pubsub.Subscriber with a test-friendly collector
// that drains Iter into a slice, so tests can assert on everything
// received so far without juggling channels by hand.
type Recorder struct {
	sub *pubsub.Subscriber

	mu  sync.Mutex
	got []any
}

// NewRecorder starts draining sub's Iter channel in the background
// until ctx is done or sub is closed.
func NewRecorder(ctx context.Context, sub *pubsub.Subscriber) *Recorder {
	r := &Recorder{sub: sub}
	go func() {
		for msg := range sub.Iter(ctx) {
			r.mu.Lock()
			r.got = append(r.got, msg)
			r.mu.Unlock()
		}
	}()
	return r
}

// Messages returns a snapshot of every message received so far.
func (r *Recorder) Messages() []any {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]any, len(r.got))
	copy(out, r.got)
	return out
}

// Count returns how many messages have been received so far.
func (r *Recorder) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.got)
}

// Close closes the underlying subscriber, ending the drain goroutine.
func (r *Recorder) Close() {
	r.sub.Close()
}
