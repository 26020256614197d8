package grpcwire

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/cuemby/warren-pubsub/pkg/transport"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// SchedulerConn is a worker or client's outbound connection to the
// scheduler: one persistent Events stream carrying every frame in
// both directions, plus the unary AddPublisher call. This layer
// carries no authentication or transport encryption of its own
// (non-goal: auth/encryption belong to whatever deploys this module,
// not to the pub/sub layer itself) and dials with insecure
// credentials.
type SchedulerConn struct {
	conn   *grpc.ClientConn
	mu     sync.Mutex
	stream grpc.ClientStream
}

// DialScheduler opens a connection to the scheduler at addr and starts
// pumping received frames into handler on a background goroutine. The
// returned SchedulerConn implements transport.ControlRPC and
// transport.Stream.
func DialScheduler(ctx context.Context, addr string, handler FrameHandler) (*SchedulerConn, error) {
	conn, err := grpc.NewClient(addr,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(grpc.CallContentSubtype(codecName)),
	)
	if err != nil {
		return nil, fmt.Errorf("grpcwire: dial scheduler %s: %w", addr, err)
	}

	streamDesc := eventsServiceDesc.Streams[0]
	stream, err := conn.NewStream(ctx, &streamDesc, "/"+eventsServiceDesc.ServiceName+"/Events")
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("grpcwire: open events stream to %s: %w", addr, err)
	}

	c := &SchedulerConn{conn: conn, stream: stream}
	go c.recvLoop(handler)
	return c, nil
}

func (c *SchedulerConn) recvLoop(handler FrameHandler) {
	for {
		var frame transport.Frame
		if err := c.stream.RecvMsg(&frame); err != nil {
			if err != io.EOF {
				// Peer gone; nothing further to pump. Callers observe
				// this as Send starting to fail on the same stream.
			}
			return
		}
		handler(context.Background(), frame)
	}
}

// Send implements transport.Stream.
func (c *SchedulerConn) Send(ctx context.Context, frame transport.Frame) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.stream.SendMsg(&frame); err != nil {
		return fmt.Errorf("grpcwire: send to scheduler: %w", transport.ErrPeerGone)
	}
	return nil
}

// AddPublisher implements transport.ControlRPC.
func (c *SchedulerConn) AddPublisher(ctx context.Context, name transport.Topic, worker transport.WorkerAddr) (transport.Snapshot, error) {
	req := &addPublisherRequest{Name: name, Worker: worker}
	resp := new(addPublisherResponse)
	err := c.conn.Invoke(ctx, "/"+controlServiceDesc.ServiceName+"/AddPublisher", req, resp, grpc.CallContentSubtype(codecName))
	if err != nil {
		return transport.Snapshot{}, err
	}
	return resp.Snapshot, nil
}

// Close tears down the connection and its Events stream.
func (c *SchedulerConn) Close() error {
	c.mu.Lock()
	_ = c.stream.CloseSend()
	c.mu.Unlock()
	return c.conn.Close()
}
