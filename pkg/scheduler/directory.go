package scheduler

import (
	"context"
	"time"

	"github.com/cuemby/warren-pubsub/pkg/log"
	"github.com/cuemby/warren-pubsub/pkg/transport"
	"github.com/rs/zerolog"
)

// StreamDialer hands out a Stream addressed to a specific worker or
// client, so the directory can notify counterparties without knowing
// anything about the underlying transport. transport/local.Hub and
// transport/grpcwire.Server both satisfy this shape.
type StreamDialer interface {
	StreamToWorker(addr transport.WorkerAddr) transport.Stream
	StreamToClient(id transport.ClientID) transport.Stream
}

// MetricsSink receives point-in-time counts after every mutation. It is
// optional; a nil sink (the zero value behavior) is a no-op. Defined
// here rather than depending on pkg/metrics directly so this package
// never imports anything that could import it back.
type MetricsSink interface {
	SetTopicsActive(n int)
	SetPublishers(n int)
	SetWorkerSubscribers(n int)
	SetClientSubscribers(n int)
	ObserveAddPublisherDuration(d time.Duration)
}

type topicState struct {
	publishers        map[transport.WorkerAddr]struct{}
	subscribers       map[transport.WorkerAddr]struct{}
	clientSubscribers map[transport.ClientID]struct{}
}

func newTopicState() *topicState {
	return &topicState{
		publishers:        make(map[transport.WorkerAddr]struct{}),
		subscribers:       make(map[transport.WorkerAddr]struct{}),
		clientSubscribers: make(map[transport.ClientID]struct{}),
	}
}

func (t *topicState) empty() bool {
	return len(t.publishers) == 0 && len(t.subscribers) == 0 && len(t.clientSubscribers) == 0
}

// Directory is the SchedulerDirectory: the authoritative, in-memory
// registry of topic membership. All state is owned exclusively by one
// goroutine (run), reached through the actions channel, so nothing
// else in this type needs a mutex.
type Directory struct {
	logger  zerolog.Logger
	dialer  StreamDialer
	metrics MetricsSink

	actions chan func()
	stopCh  chan struct{}

	topics map[transport.Topic]*topicState
}

// New creates a Directory. metrics may be nil.
func New(dialer StreamDialer, metrics MetricsSink) *Directory {
	d := &Directory{
		logger:  log.WithComponent("scheduler"),
		dialer:  dialer,
		metrics: metrics,
		actions: make(chan func(), 256),
		stopCh:  make(chan struct{}),
		topics:  make(map[transport.Topic]*topicState),
	}
	go d.run()
	return d
}

// Close stops the directory's actor goroutine.
func (d *Directory) Close() {
	close(d.stopCh)
}

func (d *Directory) run() {
	for {
		select {
		case fn := <-d.actions:
			fn()
		case <-d.stopCh:
			return
		}
	}
}

// submit runs fn on the directory's own goroutine and blocks until it
// has run, or ctx is done first.
func (d *Directory) submit(ctx context.Context, fn func()) error {
	done := make(chan struct{})
	wrapped := func() {
		fn()
		close(done)
	}
	select {
	case d.actions <- wrapped:
	case <-ctx.Done():
		return ctx.Err()
	case <-d.stopCh:
		return context.Canceled
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// AddPublisher implements transport.ControlRPC / local.SchedulerHandler:
// pubsub_add_publisher. It inserts worker into the topic's publisher
// set and returns a snapshot of the current worker-subscriber set plus
// whether a scheduler copy is required.
func (d *Directory) AddPublisher(ctx context.Context, name transport.Topic, worker transport.WorkerAddr) (transport.Snapshot, error) {
	start := time.Now()
	var snap transport.Snapshot
	err := d.submit(ctx, func() {
		ts := d.topicOrCreate(name)
		ts.publishers[worker] = struct{}{}

		subs := make(map[transport.WorkerAddr]transport.SubscriberInfo, len(ts.subscribers))
		for w := range ts.subscribers {
			subs[w] = transport.SubscriberInfo{}
		}
		snap = transport.Snapshot{
			Subscribers:        subs,
			PublishToScheduler: len(ts.clientSubscribers) > 0,
		}
		d.reportMetrics()
	})
	if d.metrics != nil {
		d.metrics.ObserveAddPublisherDuration(time.Since(start))
	}
	return snap, err
}

// HandleAddPublisher satisfies local.SchedulerHandler.
func (d *Directory) HandleAddPublisher(ctx context.Context, name transport.Topic, worker transport.WorkerAddr) (transport.Snapshot, error) {
	return d.AddPublisher(ctx, name, worker)
}

// HandleFrame dispatches a fire-and-forget stream event. It satisfies
// local.SchedulerHandler and is also the entry point used by
// transport/grpcwire's server-side stream loop.
func (d *Directory) HandleFrame(ctx context.Context, frame transport.Frame) {
	select {
	case d.actions <- func() { d.dispatch(ctx, frame) }:
	case <-ctx.Done():
	case <-d.stopCh:
	}
}

func (d *Directory) dispatch(ctx context.Context, frame transport.Frame) {
	switch frame.Op {
	case transport.OpAddSubscriber:
		d.addSubscriber(ctx, frame)
	case transport.OpRemovePublisher:
		d.removePublisher(frame)
	case transport.OpRemoveSubscriber, transport.OpRemoveSubscribers:
		d.removeSubscriber(ctx, frame)
	case transport.OpMsg:
		d.msg(ctx, frame)
	default:
		d.logger.Warn().Str("op", string(frame.Op)).Msg("unknown scheduler frame op")
	}
	d.reportMetrics()
}

func (d *Directory) addSubscriber(ctx context.Context, frame transport.Frame) {
	ts := d.topicOrCreate(frame.Name)

	switch {
	case frame.Worker != "":
		ts.subscribers[frame.Worker] = struct{}{}
		for pub := range ts.publishers {
			notify := transport.Frame{Op: transport.OpAddSubscriber, Name: frame.Name, Addr: frame.Worker}
			if err := d.dialer.StreamToWorker(pub).Send(ctx, notify); err != nil {
				// Swallowed: a transport disconnect notification is
				// expected to trigger the publisher's own cleanup.
				d.logger.Debug().Err(err).Str("publisher", string(pub)).Msg("add-subscriber notify failed")
			}
		}
	case frame.Client != "":
		for pub := range ts.publishers {
			notify := transport.Frame{Op: transport.OpPublishScheduler, Name: frame.Name, Publish: true}
			if err := d.dialer.StreamToWorker(pub).Send(ctx, notify); err != nil {
				d.logger.Debug().Err(err).Str("publisher", string(pub)).Msg("publish-scheduler notify failed")
			}
		}
		ts.clientSubscribers[frame.Client] = struct{}{}
	}
}

func (d *Directory) removePublisher(frame transport.Frame) {
	ts, ok := d.topics[frame.Name]
	if !ok {
		return
	}
	if _, present := ts.publishers[frame.Worker]; !present {
		return
	}
	delete(ts.publishers, frame.Worker)
	d.maybeEvict(frame.Name, ts)
}

func (d *Directory) removeSubscriber(ctx context.Context, frame transport.Frame) {
	ts, ok := d.topics[frame.Name]
	if !ok {
		return
	}

	switch {
	case frame.Worker != "":
		if _, present := ts.subscribers[frame.Worker]; !present {
			return
		}
		delete(ts.subscribers, frame.Worker)
		for pub := range ts.publishers {
			notify := transport.Frame{Op: transport.OpRemoveSubscriber, Name: frame.Name, Addr: frame.Worker}
			if err := d.dialer.StreamToWorker(pub).Send(ctx, notify); err != nil {
				d.logger.Debug().Err(err).Str("publisher", string(pub)).Msg("remove-subscriber notify failed")
			}
		}
	case frame.Client != "":
		if _, present := ts.clientSubscribers[frame.Client]; !present {
			return
		}
		delete(ts.clientSubscribers, frame.Client)
		if len(ts.clientSubscribers) == 0 {
			for pub := range ts.publishers {
				notify := transport.Frame{Op: transport.OpPublishScheduler, Name: frame.Name, Publish: false}
				if err := d.dialer.StreamToWorker(pub).Send(ctx, notify); err != nil {
					d.logger.Debug().Err(err).Str("publisher", string(pub)).Msg("publish-scheduler notify failed")
				}
			}
		}
	}

	d.maybeEvict(frame.Name, ts)
}

func (d *Directory) msg(ctx context.Context, frame transport.Frame) {
	ts, ok := d.topics[frame.Name]
	if !ok {
		return
	}

	clients := make([]transport.ClientID, 0, len(ts.clientSubscribers))
	for c := range ts.clientSubscribers {
		clients = append(clients, c)
	}
	for _, c := range clients {
		out := transport.Frame{Op: transport.OpMsg, Name: frame.Name, Msg: frame.Msg}
		if err := d.dialer.StreamToClient(c).Send(ctx, out); err != nil {
			// The scheduler owns the client stream directly, so a send
			// failure here means the client is already known gone:
			// convert it into a remove-subscriber rather than wait for
			// a separate disconnect signal (spec section 4.1).
			d.removeSubscriber(ctx, transport.Frame{Op: transport.OpRemoveSubscriber, Name: frame.Name, Client: c})
		}
	}

	if frame.Source == transport.SourceClient {
		for w := range ts.subscribers {
			out := transport.Frame{Op: transport.OpMsg, Name: frame.Name, Msg: frame.Msg}
			if err := d.dialer.StreamToWorker(w).Send(ctx, out); err != nil {
				d.logger.Debug().Err(err).Str("worker", string(w)).Msg("msg relay to worker subscriber failed")
			}
		}
	}
}

// maybeEvict deletes the topic once every membership set is empty
// (Open Question 1 in spec section 9: a topic is retained iff any of
// publishers, worker-subscribers, or client-subscribers is non-empty).
func (d *Directory) maybeEvict(name transport.Topic, ts *topicState) {
	if ts.empty() {
		delete(d.topics, name)
	}
}

func (d *Directory) topicOrCreate(name transport.Topic) *topicState {
	ts, ok := d.topics[name]
	if !ok {
		ts = newTopicState()
		d.topics[name] = ts
	}
	return ts
}

func (d *Directory) reportMetrics() {
	if d.metrics == nil {
		return
	}
	var publishers, workerSubs, clientSubs int
	for _, ts := range d.topics {
		publishers += len(ts.publishers)
		workerSubs += len(ts.subscribers)
		clientSubs += len(ts.clientSubscribers)
	}
	d.metrics.SetTopicsActive(len(d.topics))
	d.metrics.SetPublishers(publishers)
	d.metrics.SetWorkerSubscribers(workerSubs)
	d.metrics.SetClientSubscribers(clientSubs)
}

// Stats is a point-in-time, read-only snapshot of directory size,
// useful for tests and for the debug CLI. It goes through the same
// actor goroutine as every mutation.
type Stats struct {
	Topics            int
	Publishers        int
	WorkerSubscribers int
	ClientSubscribers int
}

// Stat returns the current Stats. It never fails unless ctx is done or
// the directory has been closed.
func (d *Directory) Stat(ctx context.Context) (Stats, error) {
	var s Stats
	err := d.submit(ctx, func() {
		s.Topics = len(d.topics)
		for _, ts := range d.topics {
			s.Publishers += len(ts.publishers)
			s.WorkerSubscribers += len(ts.subscribers)
			s.ClientSubscribers += len(ts.clientSubscribers)
		}
	})
	return s, err
}

// HasTopic reports whether the scheduler currently tracks name. Test
// helper; goes through the actor goroutine like everything else.
func (d *Directory) HasTopic(ctx context.Context, name transport.Topic) (bool, error) {
	var present bool
	err := d.submit(ctx, func() {
		_, present = d.topics[name]
	})
	return present, err
}

// WorkerSubscribersOf returns a copy of the current worker-subscriber
// set for name. Test helper.
func (d *Directory) WorkerSubscribersOf(ctx context.Context, name transport.Topic) ([]transport.WorkerAddr, error) {
	var out []transport.WorkerAddr
	err := d.submit(ctx, func() {
		ts, ok := d.topics[name]
		if !ok {
			return
		}
		for w := range ts.subscribers {
			out = append(out, w)
		}
	})
	return out, err
}
