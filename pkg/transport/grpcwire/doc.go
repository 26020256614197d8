/*
Package grpcwire is the cross-process transport: one gRPC connection
per peer link, carrying transport.Frame values instead of a generated
protobuf message.

There is no .proto source or generated *.pb.go for this service
anywhere in reach - the teacher's own api/proto package is consumed by
pkg/client and pkg/api/server.go but was never itself part of what this
module was built from. So the service is declared the same way
protoc-gen-go-grpc would have emitted it, by hand: a literal
grpc.ServiceDesc naming two methods, AddPublisher (unary) and Events
(bidirectional streaming), registered against google.golang.org/grpc's
server and invoked through its generic grpc.ClientConn.Invoke/NewStream
calls. Payloads are gob-encoded and carried through a custom
encoding.Codec registered under the content-subtype "gob", so no
protobuf marshaling ever happens on the wire.

One Events stream carries every Frame exchanged on a link, in both
directions: worker<->scheduler, client<->scheduler, and worker<->worker
(the fast path dials the target worker's own Events endpoint directly,
bypassing the scheduler entirely). Each process that can receive frames
- the scheduler, and every worker - runs a grpc.Server exposing Events;
AddPublisher is implemented only by the scheduler.

gob requires concrete types carried in a Frame.Msg field to be
registered with encoding/gob before they cross the wire. Callers
publishing custom message types must gob.Register them once at
startup, exactly as they would need to register a type with any other
interface-carrying Go codec.
*/
package grpcwire
