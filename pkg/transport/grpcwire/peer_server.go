package grpcwire

import (
	"context"
	"fmt"
	"io"
	"net"

	"github.com/cuemby/warren-pubsub/pkg/log"
	"github.com/cuemby/warren-pubsub/pkg/transport"
	"github.com/rs/zerolog"
	"google.golang.org/grpc"
)

// FrameHandler processes one frame received off the wire. It is the
// shape both pkg/worker.Directory.HandleFrame and
// pkg/client.Directory.HandleFrame already have.
type FrameHandler func(ctx context.Context, frame transport.Frame)

// PeerServer is the worker-side gRPC endpoint that exists solely to
// receive Direct sends from other workers - the fast path never goes
// through the scheduler, so every worker that wants to be a publish
// destination must also accept inbound connections. Scheduler pushes
// arrive on the same Events stream the worker opened outbound via
// DialScheduler and never need a PeerServer.
type PeerServer struct {
	grpcServer *grpc.Server
	handler    FrameHandler
	logger     zerolog.Logger
}

// NewPeerServer creates a worker's inbound Direct endpoint.
func NewPeerServer(addr transport.WorkerAddr, handler FrameHandler) *PeerServer {
	s := &PeerServer{
		handler: handler,
		logger:  log.WithWorker(string(addr)),
	}
	s.grpcServer = grpc.NewServer()
	s.grpcServer.RegisterService(&eventsServiceDesc, s)
	return s
}

// Serve blocks accepting connections on addr until Stop is called.
func (s *PeerServer) Serve(addr string) error {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("grpcwire: listen on %s: %w", addr, err)
	}
	s.logger.Info().Str("addr", addr).Msg("peer wire listening")
	return s.grpcServer.Serve(lis)
}

// Stop gracefully shuts the server down.
func (s *PeerServer) Stop() {
	s.grpcServer.GracefulStop()
}

func (s *PeerServer) handleEvents(stream grpc.ServerStream) error {
	ctx := stream.Context()
	for {
		var frame transport.Frame
		if err := stream.RecvMsg(&frame); err != nil {
			if err == io.EOF {
				return nil
			}
			return err
		}
		s.handler(ctx, frame)
	}
}
