package grpcwire

import (
	"context"
	"fmt"
	"io"
	"net"
	"sync"

	"github.com/cuemby/warren-pubsub/pkg/log"
	"github.com/cuemby/warren-pubsub/pkg/metrics"
	"github.com/cuemby/warren-pubsub/pkg/transport"
	"github.com/rs/zerolog"
	"google.golang.org/grpc"
)

// SchedulerHandler is the interface pkg/scheduler.Directory satisfies:
// the unary AddPublisher call and fire-and-forget frame delivery. It
// is declared locally so this package does not import pkg/scheduler,
// mirroring transport/local's SchedulerHandler.
type SchedulerHandler interface {
	HandleAddPublisher(ctx context.Context, name transport.Topic, worker transport.WorkerAddr) (transport.Snapshot, error)
	HandleFrame(ctx context.Context, frame transport.Frame)
}

// SchedulerServer is the scheduler-side gRPC endpoint. Every worker and
// client dials it once and keeps one Events stream open for the life
// of the connection; the scheduler answers AddPublisher over that same
// connection and pushes frames back down whichever peer's stream is
// currently open, without dialing out itself.
type SchedulerServer struct {
	grpcServer *grpc.Server
	handler    SchedulerHandler
	logger     zerolog.Logger

	mu      sync.Mutex
	workers map[transport.WorkerAddr]grpc.ServerStream
	clients map[transport.ClientID]grpc.ServerStream
}

// NewSchedulerServer creates a scheduler endpoint with no handler
// attached yet. Call SetHandler before Serve - the server itself
// satisfies pkg/scheduler.StreamDialer, so the usual construction
// order is: build the server, build the scheduler.Directory passing
// the server in as its dialer, then SetHandler(directory) to close the
// loop, the same two-phase wiring transport/local.Hub uses.
func NewSchedulerServer() *SchedulerServer {
	s := &SchedulerServer{
		logger:  log.WithComponent("grpcwire-scheduler"),
		workers: make(map[transport.WorkerAddr]grpc.ServerStream),
		clients: make(map[transport.ClientID]grpc.ServerStream),
	}
	s.grpcServer = grpc.NewServer()
	s.grpcServer.RegisterService(&controlServiceDesc, s)
	s.grpcServer.RegisterService(&eventsServiceDesc, s)
	return s
}

// SetHandler installs the scheduler.Directory this server dispatches
// AddPublisher calls and received frames to. Must be called once,
// before Serve.
func (s *SchedulerServer) SetHandler(handler SchedulerHandler) {
	s.handler = handler
}

// Serve blocks accepting connections on addr until Stop is called.
func (s *SchedulerServer) Serve(addr string) error {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("grpcwire: listen on %s: %w", addr, err)
	}
	s.logger.Info().Str("addr", addr).Msg("scheduler wire listening")
	return s.grpcServer.Serve(lis)
}

// Stop gracefully shuts the server down, waiting for in-flight RPCs.
func (s *SchedulerServer) Stop() {
	s.grpcServer.GracefulStop()
}

func (s *SchedulerServer) handleAddPublisher(ctx context.Context, req *addPublisherRequest) (*addPublisherResponse, error) {
	timer := metrics.NewTimer()
	snap, err := s.handler.HandleAddPublisher(ctx, req.Name, req.Worker)
	timer.ObserveDurationVec(metrics.GRPCRequestDuration, "AddPublisher")
	if err != nil {
		return nil, err
	}
	return &addPublisherResponse{Snapshot: snap}, nil
}

// handleEvents services one peer's long-lived Events stream. The first
// frame it sends is enough to learn whether the peer is a worker or a
// client - every frame a worker/client stream sends already carries
// its own address (transport/local's stream wrappers fill this in the
// same way), so no separate handshake message is needed.
func (s *SchedulerServer) handleEvents(stream grpc.ServerStream) error {
	ctx := stream.Context()
	var addr transport.WorkerAddr
	var client transport.ClientID
	timer := metrics.NewTimer()
	registered := false

	defer func() {
		s.mu.Lock()
		if addr != "" {
			delete(s.workers, addr)
		}
		if client != "" {
			delete(s.clients, client)
		}
		s.mu.Unlock()
	}()

	for {
		var frame transport.Frame
		if err := stream.RecvMsg(&frame); err != nil {
			if err == io.EOF {
				return nil
			}
			return err
		}

		if frame.Worker != "" && addr == "" {
			addr = frame.Worker
			s.mu.Lock()
			s.workers[addr] = stream
			s.mu.Unlock()
		}
		if frame.Client != "" && client == "" {
			client = frame.Client
			s.mu.Lock()
			s.clients[client] = stream
			s.mu.Unlock()
		}
		if !registered && (addr != "" || client != "") {
			registered = true
			timer.ObserveDurationVec(metrics.GRPCRequestDuration, "Events")
		}

		s.handler.HandleFrame(ctx, frame)
	}
}

// StreamToWorker implements pkg/scheduler.StreamDialer.
func (s *SchedulerServer) StreamToWorker(addr transport.WorkerAddr) transport.Stream {
	return &schedulerPushStream{server: s, workerAddr: addr}
}

// StreamToClient implements pkg/scheduler.StreamDialer.
func (s *SchedulerServer) StreamToClient(id transport.ClientID) transport.Stream {
	return &schedulerPushStream{server: s, clientID: id}
}

// schedulerPushStream sends on whichever peer's Events stream is
// currently registered, returning transport.ErrPeerGone if none is.
type schedulerPushStream struct {
	server     *SchedulerServer
	workerAddr transport.WorkerAddr
	clientID   transport.ClientID
}

func (p *schedulerPushStream) Send(ctx context.Context, frame transport.Frame) error {
	p.server.mu.Lock()
	var stream grpc.ServerStream
	var ok bool
	if p.workerAddr != "" {
		stream, ok = p.server.workers[p.workerAddr]
	} else {
		stream, ok = p.server.clients[p.clientID]
	}
	p.server.mu.Unlock()

	if !ok {
		return fmt.Errorf("grpcwire: no open stream to %s%s: %w", p.workerAddr, p.clientID, transport.ErrPeerGone)
	}
	if err := stream.SendMsg(&frame); err != nil {
		return fmt.Errorf("grpcwire: send failed: %w", transport.ErrPeerGone)
	}
	return nil
}
