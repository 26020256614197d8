package pubsub

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	"github.com/cuemby/warren-pubsub/pkg/transport"
)

// PublishHost is everything a Publisher needs from the directory that
// created it. StartPublisher performs whatever registration that host
// kind requires (a pubsub_add_publisher control call for a worker,
// nothing for a client) and must not return until the publisher may
// start sending. Publish delivers one message to the host's current
// view of the topic's subscriber set. StopPublisher retracts the
// registration; it must be safe to call more than once.
type PublishHost interface {
	StartPublisher(ctx context.Context, name transport.Topic) error
	Publish(ctx context.Context, name transport.Topic, msg any) error
	StopPublisher(name transport.Topic)
	// Subscribers reports the host's current view of name's worker
	// subscriber set. A client host, which never tracks subscribers
	// locally (every client publish goes through the scheduler), always
	// returns nil.
	Subscribers(name transport.Topic) []transport.WorkerAddr
}

// Publisher publishes messages under a topic name. Many Publishers may
// exist for the same topic, on the same or different hosts; every
// currently-connected Subscriber on that topic receives every message.
//
// Publishers and Subscribers find each other through the scheduler but
// communicate directly once registered, so there is very little
// overhead - and also no delivery guarantee if a peer disappears
// without notice (see package pubsub doc and spec Non-goals).
type Publisher struct {
	name transport.Topic
	host PublishHost

	mu      sync.Mutex
	started bool
	buffer  []any
}

// NewPublisher creates a Publisher for name on host and begins
// asynchronous registration. Put calls made before registration
// completes are buffered and flushed in order once it does.
func NewPublisher(ctx context.Context, host PublishHost, name transport.Topic) (*Publisher, error) {
	if host == nil {
		return nil, ErrNoHost
	}
	p := &Publisher{name: name, host: host}

	go func() {
		if err := host.StartPublisher(ctx, name); err != nil {
			return
		}
		// Flush with mu held so that a Put arriving during the flush
		// waits and is sent after every buffered message.
		p.mu.Lock()
		p.started = true
		for _, msg := range p.buffer {
			_ = host.Publish(ctx, name, msg)
		}
		p.buffer = nil
		p.mu.Unlock()
	}()

	runtime.SetFinalizer(p, func(dead *Publisher) {
		dead.host.StopPublisher(dead.name)
	})
	return p, nil
}

// Put publishes a message to every current subscriber of this topic.
// If the publisher has not finished registering yet, msg is buffered
// and sent once registration completes.
func (p *Publisher) Put(ctx context.Context, msg any) error {
	p.mu.Lock()
	if !p.started {
		p.buffer = append(p.buffer, msg)
		p.mu.Unlock()
		return nil
	}
	p.mu.Unlock()
	return p.host.Publish(ctx, p.name, msg)
}

// Close retracts the publisher's registration immediately rather than
// waiting for garbage collection to run the finalizer.
func (p *Publisher) Close() {
	runtime.SetFinalizer(p, nil)
	p.host.StopPublisher(p.name)
}

// Name reports the topic this Publisher publishes to.
func (p *Publisher) Name() transport.Topic { return p.name }

// Subscribers reports the host's current worker-subscriber set for
// this Publisher's topic: a read-only view of the same state Put uses
// to fan a message out, kept on the host rather than duplicated onto
// every local Publisher handle (see DESIGN.md, pkg/pubsub entry).
func (p *Publisher) Subscribers() []transport.WorkerAddr {
	return p.host.Subscribers(p.name)
}

func (p *Publisher) String() string {
	return fmt.Sprintf("<Pub: %s>", p.name)
}
