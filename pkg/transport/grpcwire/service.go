package grpcwire

import (
	"context"

	"google.golang.org/grpc"
)

// controlServer is implemented only by the scheduler process: it is
// the only peer that answers AddPublisher.
type controlServer interface {
	handleAddPublisher(ctx context.Context, req *addPublisherRequest) (*addPublisherResponse, error)
}

// eventsServer is implemented by every process that can receive
// frames: the scheduler (worker/client frames) and each worker (other
// workers' Direct sends).
type eventsServer interface {
	handleEvents(stream grpc.ServerStream) error
}

func addPublisherHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(addPublisherRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(controlServer).handleAddPublisher(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + controlServiceDesc.ServiceName + "/AddPublisher"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(controlServer).handleAddPublisher(ctx, req.(*addPublisherRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func eventsHandler(srv any, stream grpc.ServerStream) error {
	return srv.(eventsServer).handleEvents(stream)
}

// controlServiceDesc and eventsServiceDesc are hand-declared the same
// way protoc-gen-go-grpc would emit them from a .proto file; see
// package doc for why there is no .proto here.
var controlServiceDesc = grpc.ServiceDesc{
	ServiceName: "grpcwire.Control",
	HandlerType: (*controlServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "AddPublisher", Handler: addPublisherHandler},
	},
}

var eventsServiceDesc = grpc.ServiceDesc{
	ServiceName: "grpcwire.Events",
	HandlerType: (*eventsServer)(nil),
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "Events",
			Handler:       eventsHandler,
			ServerStreams: true,
			ClientStreams: true,
		},
	},
}
