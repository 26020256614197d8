package transport

// Topic is an opaque, comparable name under which publishers and
// subscribers are grouped. Topics come into existence on first
// registration and are discarded once both the publisher and
// subscriber sets for that name are empty.
type Topic string

// WorkerAddr is an opaque identity of a worker, usable as a map key and
// as a destination for Direct sends and scheduler<->worker streams.
type WorkerAddr string

// ClientID is an opaque identity of a connected client, usable as a map
// key and as a destination for scheduler->client streams.
type ClientID string

// Op identifies the kind of event carried by a Frame.
type Op string

const (
	// OpAddSubscriber is sent worker/client -> scheduler to register a
	// subscriber, and scheduler -> worker to notify a publisher that a
	// new worker subscriber has appeared.
	OpAddSubscriber Op = "pubsub-add-subscriber"

	// OpRemoveSubscriber is sent in both directions to retract a
	// subscriber registration.
	OpRemoveSubscriber Op = "pubsub-remove-subscriber"

	// OpRemoveSubscribers (plural) is the client-side eager-GC signal.
	// The scheduler handles it identically to OpRemoveSubscriber with
	// Client set (spec section 9, open question 2). pkg/client itself
	// sends OpRemoveSubscriber when a topic's local subscriber set
	// drains to empty; nothing in this module sends the plural form.
	OpRemoveSubscribers Op = "pubsub-remove-subscribers"

	// OpRemovePublisher retracts a worker publisher registration.
	OpRemovePublisher Op = "pubsub-remove-publisher"

	// OpPublishScheduler toggles whether a worker publisher must also
	// copy messages to the scheduler stream, because the scheduler has
	// at least one client subscriber for that topic.
	OpPublishScheduler Op = "pubsub-publish-scheduler"

	// OpMsg carries an actual published message.
	OpMsg Op = "pubsub-msg"
)

// Source identifies which kind of endpoint originated a Frame carrying
// OpMsg, used by the scheduler to decide whether to additionally relay
// to worker subscribers (spec section 4.1).
type Source string

const (
	SourceWorker Source = "worker"
	SourceClient Source = "client"
)

// Frame is the shape of every event exchanged between hosts. Only the
// fields relevant to Op are populated; the rest are left zero.
type Frame struct {
	Op     Op
	Name   Topic
	Worker WorkerAddr
	Client ClientID
	Addr   WorkerAddr // peer address for OpAddSubscriber/OpRemoveSubscriber notifications to a publisher
	Info   map[string]string
	Publish bool // OpPublishScheduler payload
	Msg     any  // OpMsg payload
	Source  Source
}

// SubscriberInfo is the per-subscriber payload carried in a snapshot.
// It is currently always empty but is typed so it can be extended
// without changing the wire shape (spec section 3).
type SubscriberInfo map[string]string

// Snapshot is returned by ControlRPC.AddPublisher: the current set of
// worker subscribers for the topic, and whether the scheduler must
// additionally be copied on every publish because at least one client
// subscriber exists.
type Snapshot struct {
	Subscribers        map[WorkerAddr]SubscriberInfo
	PublishToScheduler bool
}
