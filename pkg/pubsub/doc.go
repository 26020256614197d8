/*
Package pubsub implements the Publisher/Subscriber endpoint handles that
application code on a worker or a client actually holds.

A Publisher and a Subscriber are thin, host-agnostic wrappers: all of
the protocol work (registering with the scheduler, tracking the current
subscriber set, choosing the fast or slow delivery path) is done by
whichever directory embeds them — pkg/worker.Directory or
pkg/client.Directory, both of which implement PublishHost and
SubscribeHost. This mirrors distributed/pubsub.py's split between the
Pub/Sub classes (thin, symmetric, a few dozen lines) and the
WorkerPubSubExtension/ClientPubSubExtension classes that do the actual
bookkeeping.

Messages published before a Publisher finishes registering are buffered
and flushed once registration completes, exactly as Pub._start/_buffer
does. A Subscriber's Get blocks until a message arrives, ctx is
cancelled, or an optional timeout elapses (Sub._get/get).

Lifetimes need not be explicitly closed: Close retracts a registration
immediately, and a Publisher or Subscriber that goes out of scope
without Close is retracted once it is garbage collected, when its
runtime.SetFinalizer hook tells the host to retract the registration
(weakref.finalize in the original).
*/
package pubsub
