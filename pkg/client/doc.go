/*
Package client implements the ClientDirectory: the per-client local
subscriber registry used by application code running outside the
cluster's workers.

Unlike a worker, a client never publishes through a registered
publisher slot - the scheduler has no concept of a "client publisher",
so Directory.StartPublisher/StopPublisher are no-ops and every message
a client Publisher sends goes straight to the scheduler, which fans it
out to both client and worker subscribers (the slow path is the only
path available to a client, per spec section 1).

Directory implements pkg/pubsub.PublishHost and pkg/pubsub.SubscribeHost
the same way pkg/worker.Directory does, so the two endpoint kinds are
interchangeable from a Publisher/Subscriber's point of view.

HandleFrame only ever delivers; StopSubscriber is the sole path that
removes a subscriber, and once a topic's local set is empty it sends
pubsub-remove-subscriber with this client's ID set. The scheduler
handles the plural pubsub-remove-subscribers the same way, but this
package never sends it (see DESIGN.md, Open Questions decision 2).
*/
package client
