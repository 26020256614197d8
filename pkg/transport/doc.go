/*
Package transport defines the wire vocabulary and the black-box
collaborator interfaces the rest of this module is built against.

The scheduler, worker, and client processes, their RPC/streaming
transport, their serialization layer, their event loop, and their
address/identity scheme are all external to this module (see spec
section 1). This package gives that boundary a concrete Go shape:

  - Topic, WorkerAddr, ClientID — opaque, comparable identity types.
  - Op and Frame — the wire-event vocabulary every control and data
    message is shaped as.
  - ControlRPC, Stream, Direct, Finalizer — the four facilities the
    scheduler/worker/client directories and the Publisher/Subscriber
    endpoints are programmed against.

Two implementations ship in subpackages: transport/local (in-process,
channel-based, used by every test and the demo CLI) and
transport/grpcwire (a real gRPC-based transport for separate
processes).
*/
package transport
