package pubsub

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/cuemby/warren-pubsub/pkg/transport"
)

// SubscribeHost is everything a Subscriber needs from the directory
// that created it. StartSubscriber registers the subscription with
// the host (and, transitively, with the scheduler) before returning.
// StopSubscriber retracts it; it must be safe to call more than once.
type SubscribeHost interface {
	StartSubscriber(ctx context.Context, name transport.Topic, sub *Subscriber) error
	StopSubscriber(name transport.Topic, sub *Subscriber)
}

// Subscriber receives messages published under a topic name. Messages
// are buffered in the order the host calls Deliver. Under
// transport/local that is the order a single counterparty sent them;
// transport/grpcwire opens a separate stream for each Direct send and
// does not guarantee that order. No ordering is guaranteed across
// distinct publishers (spec Non-goals).
type Subscriber struct {
	name transport.Topic
	host SubscribeHost

	mu     sync.Mutex
	cond   *sync.Cond
	buffer []any
	closed bool
}

// NewSubscriber creates a Subscriber for name on host, registering it
// before returning.
func NewSubscriber(ctx context.Context, host SubscribeHost, name transport.Topic) (*Subscriber, error) {
	if host == nil {
		return nil, ErrNoHost
	}
	s := &Subscriber{name: name, host: host}
	s.cond = sync.NewCond(&s.mu)

	if err := host.StartSubscriber(ctx, name, s); err != nil {
		return nil, err
	}

	runtime.SetFinalizer(s, func(dead *Subscriber) {
		dead.host.StopSubscriber(dead.name, dead)
	})
	return s, nil
}

// Deliver appends msg to the subscriber's buffer and wakes any waiting
// Get call. Called from the owning host's HandleFrame: under
// transport/local that is one mailbox goroutine per host, while under
// transport/grpcwire it may be called concurrently from several
// inbound streams, which the mutex makes safe.
func (s *Subscriber) Deliver(msg any) {
	s.mu.Lock()
	s.buffer = append(s.buffer, msg)
	s.cond.Broadcast()
	s.mu.Unlock()
}

// Get blocks until a message arrives, ctx is done, or timeout elapses
// (timeout <= 0 means no timeout). It returns ErrTimeout if the
// timeout elapses first, or ctx.Err() if ctx is done first.
func (s *Subscriber) Get(ctx context.Context, timeout time.Duration) (any, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for len(s.buffer) == 0 {
		if s.closed {
			return nil, ErrTimeout
		}
		if err := ctx.Err(); err != nil {
			return nil, classifyCtxErr(err, timeout)
		}

		waitDone := make(chan struct{})
		go func() {
			select {
			case <-ctx.Done():
				s.mu.Lock()
				s.cond.Broadcast()
				s.mu.Unlock()
			case <-waitDone:
			}
		}()
		s.cond.Wait()
		close(waitDone)

		if err := ctx.Err(); err != nil && len(s.buffer) == 0 {
			return nil, classifyCtxErr(err, timeout)
		}
	}

	msg := s.buffer[0]
	s.buffer = s.buffer[1:]
	return msg, nil
}

func classifyCtxErr(err error, timeout time.Duration) error {
	if timeout > 0 && err == context.DeadlineExceeded {
		return ErrTimeout
	}
	return err
}

// GetSync is a convenience wrapper over Get using context.Background,
// for callers outside an existing context (e.g. synchronous CLI code).
func (s *Subscriber) GetSync(timeout time.Duration) (any, error) {
	return s.Get(context.Background(), timeout)
}

// Iter returns a channel that receives every message delivered to this
// subscriber until ctx is done, at which point the channel is closed.
func (s *Subscriber) Iter(ctx context.Context) <-chan any {
	out := make(chan any)
	go func() {
		defer close(out)
		for {
			msg, err := s.Get(ctx, 0)
			if err != nil {
				return
			}
			select {
			case out <- msg:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

// Close retracts the subscription immediately rather than waiting for
// garbage collection to run the finalizer, and wakes any blocked Get.
func (s *Subscriber) Close() {
	runtime.SetFinalizer(s, nil)
	s.mu.Lock()
	s.closed = true
	s.cond.Broadcast()
	s.mu.Unlock()
	s.host.StopSubscriber(s.name, s)
}

// Name reports the topic this Subscriber is subscribed to.
func (s *Subscriber) Name() transport.Topic { return s.name }

func (s *Subscriber) String() string {
	return fmt.Sprintf("<Sub: %s>", s.name)
}
