package grpcwire

import (
	"context"
	"encoding/gob"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/cuemby/warren-pubsub/pkg/transport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gob.Register("")
}

// fakeScheduler is a minimal SchedulerHandler double that echoes a
// canned snapshot and records every frame it receives.
type fakeScheduler struct {
	mu     sync.Mutex
	frames []transport.Frame
	snap   transport.Snapshot
}

func (f *fakeScheduler) HandleAddPublisher(ctx context.Context, name transport.Topic, worker transport.WorkerAddr) (transport.Snapshot, error) {
	return f.snap, nil
}

func (f *fakeScheduler) HandleFrame(ctx context.Context, frame transport.Frame) {
	f.mu.Lock()
	f.frames = append(f.frames, frame)
	f.mu.Unlock()
}

func (f *fakeScheduler) snapshot() []transport.Frame {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]transport.Frame, len(f.frames))
	copy(out, f.frames)
	return out
}

func listenAddr(t *testing.T) string {
	t.Helper()
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := lis.Addr().String()
	require.NoError(t, lis.Close())
	return addr
}

func TestAddPublisherRoundTrip(t *testing.T) {
	sched := &fakeScheduler{snap: transport.Snapshot{PublishToScheduler: true}}
	srv := NewSchedulerServer()
	srv.SetHandler(sched)
	addr := listenAddr(t)
	go srv.Serve(addr)
	defer srv.Stop()
	require.Eventually(t, func() bool { return dialable(addr) }, time.Second, 10*time.Millisecond)

	conn, err := DialScheduler(context.Background(), addr, func(ctx context.Context, frame transport.Frame) {})
	require.NoError(t, err)
	defer conn.Close()

	snap, err := conn.AddPublisher(context.Background(), "prices", "worker-1")
	require.NoError(t, err)
	assert.True(t, snap.PublishToScheduler)
}

func TestEventsStreamDeliversBothDirections(t *testing.T) {
	sched := &fakeScheduler{}
	srv := NewSchedulerServer()
	srv.SetHandler(sched)
	addr := listenAddr(t)
	go srv.Serve(addr)
	defer srv.Stop()
	require.Eventually(t, func() bool { return dialable(addr) }, time.Second, 10*time.Millisecond)

	received := make(chan transport.Frame, 1)
	conn, err := DialScheduler(context.Background(), addr, func(ctx context.Context, frame transport.Frame) {
		received <- frame
	})
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.Send(context.Background(), transport.Frame{
		Op: transport.OpAddSubscriber, Name: "prices", Worker: "worker-1",
	}))

	require.Eventually(t, func() bool { return len(sched.snapshot()) == 1 }, time.Second, 10*time.Millisecond)
	assert.Equal(t, transport.WorkerAddr("worker-1"), sched.snapshot()[0].Worker)

	require.Eventually(t, func() bool {
		srv.mu.Lock()
		_, ok := srv.workers["worker-1"]
		srv.mu.Unlock()
		return ok
	}, time.Second, 10*time.Millisecond)

	require.NoError(t, srv.StreamToWorker("worker-1").Send(context.Background(), transport.Frame{
		Op: transport.OpMsg, Name: "prices", Msg: "hello",
	}))

	select {
	case frame := <-received:
		assert.Equal(t, "hello", frame.Msg)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for scheduler push")
	}
}

func TestDirectSendReachesPeerServer(t *testing.T) {
	received := make(chan transport.Frame, 1)
	peer := NewPeerServer("worker-2", func(ctx context.Context, frame transport.Frame) {
		received <- frame
	})
	addr := listenAddr(t)
	go peer.Serve(addr)
	defer peer.Stop()
	require.Eventually(t, func() bool { return dialable(addr) }, time.Second, 10*time.Millisecond)

	dialer := NewDirectDialer()
	defer dialer.Close()

	require.NoError(t, dialer.SendDirect(context.Background(), transport.WorkerAddr(addr), transport.Frame{
		Op: transport.OpMsg, Name: "prices", Msg: "direct-hello",
	}))

	select {
	case frame := <-received:
		assert.Equal(t, "direct-hello", frame.Msg)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for direct delivery")
	}
}

func dialable(addr string) bool {
	c, err := net.DialTimeout("tcp", addr, 100*time.Millisecond)
	if err != nil {
		return false
	}
	c.Close()
	return true
}
