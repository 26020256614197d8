package grpcwire

import (
	"context"
	"fmt"
	"sync"

	"github.com/cuemby/warren-pubsub/pkg/transport"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// DirectDialer implements transport.Direct by dialing each destination
// worker's PeerServer directly, caching one *grpc.ClientConn per
// address across calls. Every send opens a short-lived stream, writes
// one frame, and half-closes - matching the interface's documented
// unreliable-but-usually-reliable, single-message semantics.
type DirectDialer struct {
	mu    sync.Mutex
	conns map[transport.WorkerAddr]*grpc.ClientConn
}

// NewDirectDialer creates an empty connection pool.
func NewDirectDialer() *DirectDialer {
	return &DirectDialer{conns: make(map[transport.WorkerAddr]*grpc.ClientConn)}
}

func (d *DirectDialer) connFor(to transport.WorkerAddr) (*grpc.ClientConn, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if conn, ok := d.conns[to]; ok {
		return conn, nil
	}
	conn, err := grpc.NewClient(string(to), grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, err
	}
	d.conns[to] = conn
	return conn, nil
}

// SendDirect implements transport.Direct.
func (d *DirectDialer) SendDirect(ctx context.Context, to transport.WorkerAddr, frame transport.Frame) error {
	conn, err := d.connFor(to)
	if err != nil {
		return fmt.Errorf("grpcwire: dial %s: %w", to, transport.ErrPeerGone)
	}

	streamDesc := eventsServiceDesc.Streams[0]
	stream, err := conn.NewStream(ctx, &streamDesc, "/"+eventsServiceDesc.ServiceName+"/Events", grpc.CallContentSubtype(codecName))
	if err != nil {
		return fmt.Errorf("grpcwire: open direct stream to %s: %w", to, transport.ErrPeerGone)
	}
	if err := stream.SendMsg(&frame); err != nil {
		return fmt.Errorf("grpcwire: direct send to %s: %w", to, transport.ErrPeerGone)
	}
	return stream.CloseSend()
}

// Close tears down every cached connection.
func (d *DirectDialer) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	var firstErr error
	for addr, conn := range d.conns {
		if err := conn.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("grpcwire: close conn to %s: %w", addr, err)
		}
	}
	return firstErr
}
