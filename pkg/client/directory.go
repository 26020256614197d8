package client

import (
	"context"
	"sync"

	"github.com/cuemby/warren-pubsub/pkg/log"
	"github.com/cuemby/warren-pubsub/pkg/pubsub"
	"github.com/cuemby/warren-pubsub/pkg/transport"
	"github.com/rs/zerolog"
)

// Config holds ClientDirectory configuration.
type Config struct {
	ID     transport.ClientID
	Stream transport.Stream
}

// Directory is the ClientDirectory. All exported methods are safe for
// concurrent use.
type Directory struct {
	id     transport.ClientID
	stream transport.Stream
	logger zerolog.Logger

	mu          sync.RWMutex
	subscribers map[transport.Topic]map[*pubsub.Subscriber]struct{}
}

// New creates a ClientDirectory bound to the Stream the hosting
// transport hands out when the client registers.
func New(cfg Config) *Directory {
	return &Directory{
		id:          cfg.ID,
		stream:      cfg.Stream,
		logger:      log.WithClient(string(cfg.ID)),
		subscribers: make(map[transport.Topic]map[*pubsub.Subscriber]struct{}),
	}
}

// ID reports this client's transport identity.
func (d *Directory) ID() transport.ClientID { return d.id }

// StartPublisher implements pubsub.PublishHost. The scheduler has no
// concept of a client publisher registration, so there is nothing to
// register - every publish from a client goes straight to the
// scheduler (spec section 1, client is always on the slow path).
func (d *Directory) StartPublisher(ctx context.Context, name transport.Topic) error {
	return nil
}

// Publish implements pubsub.PublishHost: send to the scheduler, which
// fans the message out to every client and worker subscriber.
func (d *Directory) Publish(ctx context.Context, name transport.Topic, msg any) error {
	frame := transport.Frame{Op: transport.OpMsg, Name: name, Client: d.id, Msg: msg, Source: transport.SourceClient}
	return d.stream.Send(ctx, frame)
}

// StopPublisher implements pubsub.PublishHost; a no-op for the same
// reason StartPublisher is.
func (d *Directory) StopPublisher(name transport.Topic) {}

// Subscribers implements pubsub.PublishHost. A client never tracks a
// local worker-subscriber set - the scheduler owns fan-out for every
// client publish - so this always returns nil.
func (d *Directory) Subscribers(name transport.Topic) []transport.WorkerAddr { return nil }

// StartSubscriber implements pubsub.SubscribeHost: register sub
// locally and tell the scheduler this client subscribes to name.
func (d *Directory) StartSubscriber(ctx context.Context, name transport.Topic, sub *pubsub.Subscriber) error {
	d.mu.Lock()
	set, ok := d.subscribers[name]
	if !ok {
		set = make(map[*pubsub.Subscriber]struct{})
		d.subscribers[name] = set
	}
	set[sub] = struct{}{}
	d.mu.Unlock()

	frame := transport.Frame{Op: transport.OpAddSubscriber, Name: name, Client: d.id}
	return d.stream.Send(ctx, frame)
}

// StopSubscriber implements pubsub.SubscribeHost. Once the last local
// Subscriber for name goes away, tell the scheduler this client is no
// longer subscribed (spec section 9, open question 2: the plural
// pubsub-remove-subscribers signal from the original is treated as
// exactly this call).
func (d *Directory) StopSubscriber(name transport.Topic, sub *pubsub.Subscriber) {
	d.mu.Lock()
	set, ok := d.subscribers[name]
	if !ok {
		d.mu.Unlock()
		return
	}
	delete(set, sub)
	empty := len(set) == 0
	if empty {
		delete(d.subscribers, name)
	}
	d.mu.Unlock()

	if empty {
		frame := transport.Frame{Op: transport.OpRemoveSubscriber, Name: name, Client: d.id}
		if err := d.stream.Send(context.Background(), frame); err != nil {
			d.logger.Debug().Err(err).Str("topic", string(name)).Msg("remove-subscriber notify failed")
		}
	}
}

// HandleFrame processes one frame the scheduler streams to this
// client: always an OpMsg delivery. It is the Handler passed to the
// hosting transport when this client registers.
func (d *Directory) HandleFrame(ctx context.Context, frame transport.Frame) {
	if frame.Op != transport.OpMsg {
		d.logger.Warn().Str("op", string(frame.Op)).Msg("unexpected client frame op")
		return
	}

	d.mu.RLock()
	set := d.subscribers[frame.Name]
	subs := make([]*pubsub.Subscriber, 0, len(set))
	for s := range set {
		subs = append(subs, s)
	}
	d.mu.RUnlock()

	for _, s := range subs {
		s.Deliver(frame.Msg)
	}
}

// NewPublisher is a convenience wrapper creating a pubsub.Publisher
// hosted by this directory.
func (d *Directory) NewPublisher(ctx context.Context, name transport.Topic) (*pubsub.Publisher, error) {
	return pubsub.NewPublisher(ctx, d, name)
}

// NewSubscriber is a convenience wrapper creating a pubsub.Subscriber
// hosted by this directory.
func (d *Directory) NewSubscriber(ctx context.Context, name transport.Topic) (*pubsub.Subscriber, error) {
	return pubsub.NewSubscriber(ctx, d, name)
}
