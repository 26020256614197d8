/*
Package worker implements the WorkerDirectory: the per-worker local
view of publisher and subscriber registrations, and the fast path that
lets publishers reach subscribers without going through the scheduler.

A Directory tracks, for every topic with at least one local Publisher
or Subscriber handle, the current set of worker addresses subscribed
to it and whether messages must also be copied to the scheduler (because
at least one client has subscribed). Registering a local Publisher
triggers a pubsub_add_publisher control call; registering a local
Subscriber sends a pubsub-add-subscriber stream event. Publishing walks
the cached subscriber set and uses transport.Direct to reach each one
directly - the scheduler is never on the hot path unless a client
subscriber requires it.

Directory implements pkg/pubsub.PublishHost and pkg/pubsub.SubscribeHost,
so application code creates a Publisher or Subscriber by passing a
*Directory in explicitly rather than through any ambient lookup.

Where distributed's PubSubWorkerExtension keeps weakref.WeakSets of Pub/
Sub objects and periodically rescans them for ones that emptied out
(trigger_cleanup/cleanup), Directory instead reacts immediately: each
Publisher/Subscriber's runtime.SetFinalizer calls StopPublisher/
StopSubscriber directly, naming exactly the topic to retire, so no
polling sweep is needed.
*/
package worker
