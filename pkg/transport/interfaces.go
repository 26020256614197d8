package transport

import "context"

// ControlRPC is the request/response facility used for
// pubsub_add_publisher: a worker asks the scheduler to register it as
// a publisher and learns the current subscriber snapshot in return.
type ControlRPC interface {
	AddPublisher(ctx context.Context, name Topic, worker WorkerAddr) (Snapshot, error)
}

// Stream is a unidirectional, ordered, best-effort batched send to a
// single destination: worker->scheduler, client->scheduler, or
// scheduler->{worker,client}. Send never blocks the caller's directory
// actor for long; a failed send is reported to the caller, who decides
// whether it is swallowed (worker destinations) or converted into a
// cleanup (client destinations), per spec section 4.1's failure
// semantics.
type Stream interface {
	Send(ctx context.Context, frame Frame) error
}

// Direct is an unreliable-but-usually-reliable worker->worker send of a
// single message, used on the fast path.
type Direct interface {
	SendDirect(ctx context.Context, to WorkerAddr, frame Frame) error
}

// Finalizer schedules a callback to run when a local endpoint object
// (Publisher or Subscriber) becomes unreachable. Implementations need
// not run the callback immediately or synchronously. RuntimeFinalizer
// runs it on the Go runtime's finalizer goroutine once the garbage
// collector finds obj unreachable, not on any directory's own
// goroutine.
type Finalizer interface {
	OnUnreachable(obj any, cleanup func())
}
