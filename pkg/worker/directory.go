package worker

import (
	"context"
	"sync"

	"github.com/cuemby/warren-pubsub/pkg/log"
	"github.com/cuemby/warren-pubsub/pkg/pubsub"
	"github.com/cuemby/warren-pubsub/pkg/transport"
	"github.com/rs/zerolog"
)

// pubEntry is the local, shared state for every Publisher registered
// for one topic on this worker: the current worker-subscriber set and
// whether messages must also be copied to the scheduler. refs counts
// live local Publisher handles so the last one to go away can retract
// the worker's publisher registration.
type pubEntry struct {
	subscribers        map[transport.WorkerAddr]transport.SubscriberInfo
	publishToScheduler bool
	refs               int
}

// Config holds WorkerDirectory configuration.
type Config struct {
	Addr    transport.WorkerAddr
	Control transport.ControlRPC
	Stream  transport.Stream
	Direct  transport.Direct
}

// Directory is the WorkerDirectory. All exported methods are safe for
// concurrent use.
type Directory struct {
	addr    transport.WorkerAddr
	control transport.ControlRPC
	stream  transport.Stream
	direct  transport.Direct
	logger  zerolog.Logger

	mu          sync.RWMutex
	publishers  map[transport.Topic]*pubEntry
	subscribers map[transport.Topic]map[*pubsub.Subscriber]struct{}
}

// New creates a WorkerDirectory bound to the three transport facilities
// the hosting transport (transport/local or transport/grpcwire) hands
// out when the worker registers.
func New(cfg Config) *Directory {
	return &Directory{
		addr:        cfg.Addr,
		control:     cfg.Control,
		stream:      cfg.Stream,
		direct:      cfg.Direct,
		logger:      log.WithWorker(string(cfg.Addr)),
		publishers:  make(map[transport.Topic]*pubEntry),
		subscribers: make(map[transport.Topic]map[*pubsub.Subscriber]struct{}),
	}
}

// Addr reports this worker's transport address.
func (d *Directory) Addr() transport.WorkerAddr { return d.addr }

// StartPublisher implements pubsub.PublishHost. It always performs the
// pubsub_add_publisher round trip, matching Pub._start: multiple local
// Publisher handles for the same topic each register independently,
// and the scheduler-side set dedupes by worker address.
func (d *Directory) StartPublisher(ctx context.Context, name transport.Topic) error {
	snap, err := d.control.AddPublisher(ctx, name, d.addr)
	if err != nil {
		d.logger.Warn().Err(err).Str("topic", string(name)).Msg("add-publisher failed")
		return err
	}

	d.mu.Lock()
	e, ok := d.publishers[name]
	if !ok {
		e = &pubEntry{subscribers: make(map[transport.WorkerAddr]transport.SubscriberInfo)}
		d.publishers[name] = e
	}
	for addr, info := range snap.Subscribers {
		e.subscribers[addr] = info
	}
	e.publishToScheduler = snap.PublishToScheduler
	e.refs++
	d.mu.Unlock()
	return nil
}

// Publish implements pubsub.PublishHost: send directly to every cached
// worker subscriber, and additionally copy to the scheduler if a
// client subscriber exists for this topic.
func (d *Directory) Publish(ctx context.Context, name transport.Topic, msg any) error {
	d.mu.RLock()
	e, ok := d.publishers[name]
	var addrs []transport.WorkerAddr
	var toScheduler bool
	if ok {
		addrs = make([]transport.WorkerAddr, 0, len(e.subscribers))
		for addr := range e.subscribers {
			addrs = append(addrs, addr)
		}
		toScheduler = e.publishToScheduler
	}
	d.mu.RUnlock()

	for _, addr := range addrs {
		frame := transport.Frame{Op: transport.OpMsg, Name: name, Msg: msg, Source: transport.SourceWorker}
		if err := d.direct.SendDirect(ctx, addr, frame); err != nil {
			d.logger.Debug().Err(err).Str("topic", string(name)).Str("to", string(addr)).Msg("direct publish failed")
		}
	}

	if toScheduler {
		frame := transport.Frame{Op: transport.OpMsg, Name: name, Worker: d.addr, Msg: msg, Source: transport.SourceWorker}
		if err := d.stream.Send(ctx, frame); err != nil {
			d.logger.Debug().Err(err).Str("topic", string(name)).Msg("scheduler-copy publish failed")
		}
	}
	return nil
}

// StopPublisher implements pubsub.PublishHost. The last local handle
// to go away retracts the worker's publisher registration.
func (d *Directory) StopPublisher(name transport.Topic) {
	d.mu.Lock()
	e, ok := d.publishers[name]
	if !ok {
		d.mu.Unlock()
		return
	}
	e.refs--
	done := e.refs <= 0
	if done {
		delete(d.publishers, name)
	}
	d.mu.Unlock()

	if done {
		frame := transport.Frame{Op: transport.OpRemovePublisher, Name: name, Worker: d.addr}
		if err := d.stream.Send(context.Background(), frame); err != nil {
			d.logger.Debug().Err(err).Str("topic", string(name)).Msg("remove-publisher notify failed")
		}
	}
}

// Subscribers implements pubsub.PublishHost: the worker addresses this
// worker currently fans name's messages out to directly.
func (d *Directory) Subscribers(name transport.Topic) []transport.WorkerAddr {
	d.mu.RLock()
	defer d.mu.RUnlock()
	e, ok := d.publishers[name]
	if !ok {
		return nil
	}
	addrs := make([]transport.WorkerAddr, 0, len(e.subscribers))
	for addr := range e.subscribers {
		addrs = append(addrs, addr)
	}
	return addrs
}

// StartSubscriber implements pubsub.SubscribeHost: register sub
// locally and tell the scheduler this worker subscribes to name.
func (d *Directory) StartSubscriber(ctx context.Context, name transport.Topic, sub *pubsub.Subscriber) error {
	d.mu.Lock()
	set, ok := d.subscribers[name]
	if !ok {
		set = make(map[*pubsub.Subscriber]struct{})
		d.subscribers[name] = set
	}
	set[sub] = struct{}{}
	d.mu.Unlock()

	frame := transport.Frame{Op: transport.OpAddSubscriber, Name: name, Worker: d.addr}
	return d.stream.Send(ctx, frame)
}

// StopSubscriber implements pubsub.SubscribeHost. Once the last local
// Subscriber for name goes away, tell the scheduler this worker is no
// longer subscribed.
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
		frame := transport.Frame{Op: transport.OpRemoveSubscriber, Name: name, Worker: d.addr}
		if err := d.stream.Send(context.Background(), frame); err != nil {
			d.logger.Debug().Err(err).Str("topic", string(name)).Msg("remove-subscriber notify failed")
		}
	}
}

// HandleFrame processes one frame addressed to this worker: either a
// control notification relayed by the scheduler (add/remove
// subscriber, publish-scheduler toggle) or an OpMsg delivery, which may
// have arrived via the scheduler's slow path or another worker's
// Direct fast path. It is the Handler passed to the hosting transport
// when this worker registers.
func (d *Directory) HandleFrame(ctx context.Context, frame transport.Frame) {
	switch frame.Op {
	case transport.OpAddSubscriber:
		d.mu.Lock()
		if e, ok := d.publishers[frame.Name]; ok {
			e.subscribers[frame.Addr] = transport.SubscriberInfo{}
		}
		d.mu.Unlock()

	case transport.OpRemoveSubscriber:
		d.mu.Lock()
		if e, ok := d.publishers[frame.Name]; ok {
			delete(e.subscribers, frame.Addr)
		}
		d.mu.Unlock()

	case transport.OpPublishScheduler:
		d.mu.Lock()
		if e, ok := d.publishers[frame.Name]; ok {
			e.publishToScheduler = frame.Publish
		}
		d.mu.Unlock()

	case transport.OpMsg:
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

	default:
		d.logger.Warn().Str("op", string(frame.Op)).Msg("unknown worker frame op")
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
