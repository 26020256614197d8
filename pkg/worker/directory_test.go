package worker

import (
	"context"
	"runtime"
	"sync"
	"testing"
	"time"

	"github.com/cuemby/warren-pubsub/pkg/transport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeControl struct {
	mu    sync.Mutex
	calls []transport.Topic
	snap  transport.Snapshot
	err   error
}

func (f *fakeControl) AddPublisher(ctx context.Context, name transport.Topic, worker transport.WorkerAddr) (transport.Snapshot, error) {
	f.mu.Lock()
	f.calls = append(f.calls, name)
	f.mu.Unlock()
	return f.snap, f.err
}

type fakeStream struct {
	mu     sync.Mutex
	frames []transport.Frame
}

func (f *fakeStream) Send(ctx context.Context, frame transport.Frame) error {
	f.mu.Lock()
	f.frames = append(f.frames, frame)
	f.mu.Unlock()
	return nil
}

func (f *fakeStream) snapshot() []transport.Frame {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]transport.Frame, len(f.frames))
	copy(out, f.frames)
	return out
}

type fakeDirect struct {
	mu    sync.Mutex
	sends []transport.Frame
}

func (f *fakeDirect) SendDirect(ctx context.Context, to transport.WorkerAddr, frame transport.Frame) error {
	f.mu.Lock()
	f.sends = append(f.sends, frame)
	f.mu.Unlock()
	return nil
}

func newTestDirectory(control *fakeControl, stream *fakeStream, direct *fakeDirect) *Directory {
	return New(Config{
		Addr:    "worker-1",
		Control: control,
		Stream:  stream,
		Direct:  direct,
	})
}

func TestStartPublisherRegistersAndCachesSnapshot(t *testing.T) {
	control := &fakeControl{snap: transport.Snapshot{
		Subscribers: map[transport.WorkerAddr]transport.SubscriberInfo{"worker-2": {}},
	}}
	d := newTestDirectory(control, &fakeStream{}, &fakeDirect{})

	require.NoError(t, d.StartPublisher(context.Background(), "prices"))

	d.mu.RLock()
	e := d.publishers["prices"]
	d.mu.RUnlock()
	require.NotNil(t, e)
	assert.Equal(t, 1, e.refs)
	assert.Contains(t, e.subscribers, transport.WorkerAddr("worker-2"))
}

func TestPublishSendsDirectAndSchedulerCopy(t *testing.T) {
	control := &fakeControl{snap: transport.Snapshot{
		Subscribers:        map[transport.WorkerAddr]transport.SubscriberInfo{"worker-2": {}},
		PublishToScheduler: true,
	}}
	stream := &fakeStream{}
	direct := &fakeDirect{}
	d := newTestDirectory(control, stream, direct)

	require.NoError(t, d.StartPublisher(context.Background(), "prices"))
	require.NoError(t, d.Publish(context.Background(), "prices", "hello"))

	require.Len(t, direct.sends, 1)
	assert.Equal(t, "hello", direct.sends[0].Msg)

	frames := stream.snapshot()
	require.Len(t, frames, 1)
	assert.Equal(t, transport.OpMsg, frames[0].Op)
}

func TestStopPublisherRetractsOnLastRef(t *testing.T) {
	control := &fakeControl{}
	stream := &fakeStream{}
	d := newTestDirectory(control, stream, &fakeDirect{})

	require.NoError(t, d.StartPublisher(context.Background(), "prices"))
	require.NoError(t, d.StartPublisher(context.Background(), "prices"))

	d.StopPublisher("prices")
	assert.Empty(t, stream.snapshot(), "first stop should not retract while a second ref remains")

	d.StopPublisher("prices")
	frames := stream.snapshot()
	require.Len(t, frames, 1)
	assert.Equal(t, transport.OpRemovePublisher, frames[0].Op)

	d.mu.RLock()
	_, exists := d.publishers["prices"]
	d.mu.RUnlock()
	assert.False(t, exists)
}

func TestSubscriberLifecycleNotifiesScheduler(t *testing.T) {
	stream := &fakeStream{}
	d := newTestDirectory(&fakeControl{}, stream, &fakeDirect{})

	sub, err := d.NewSubscriber(context.Background(), "prices")
	require.NoError(t, err)

	frames := stream.snapshot()
	require.Len(t, frames, 1)
	assert.Equal(t, transport.OpAddSubscriber, frames[0].Op)

	sub.Close()
	frames = stream.snapshot()
	require.Len(t, frames, 2)
	assert.Equal(t, transport.OpRemoveSubscriber, frames[1].Op)
}

// TestSubscriberFinalizerTriggersCleanupOnGC drops the only reference
// to a Subscriber without calling Close, forces a collection, and
// waits for the finalizer pubsub.NewSubscriber installs to run
// StopSubscriber on our behalf - the weakref-decay path spec.md §9's
// second Open Question maps onto runtime.SetFinalizer (see DESIGN.md).
func TestSubscriberFinalizerTriggersCleanupOnGC(t *testing.T) {
	stream := &fakeStream{}
	d := newTestDirectory(&fakeControl{}, stream, &fakeDirect{})

	func() {
		_, err := d.NewSubscriber(context.Background(), "prices")
		require.NoError(t, err)
	}()

	require.Eventually(t, func() bool {
		runtime.GC()
		frames := stream.snapshot()
		for _, f := range frames {
			if f.Op == transport.OpRemoveSubscriber {
				return true
			}
		}
		return false
	}, 5*time.Second, 10*time.Millisecond, "finalizer never ran StopSubscriber")
}

func TestHandleFrameDeliversMsgToLocalSubscribers(t *testing.T) {
	d := newTestDirectory(&fakeControl{}, &fakeStream{}, &fakeDirect{})

	sub, err := d.NewSubscriber(context.Background(), "prices")
	require.NoError(t, err)

	d.HandleFrame(context.Background(), transport.Frame{Op: transport.OpMsg, Name: "prices", Msg: 7})

	msg, err := sub.Get(context.Background(), time.Second)
	require.NoError(t, err)
	assert.Equal(t, 7, msg)
}

func TestHandleFrameUpdatesPublisherSubscriberSet(t *testing.T) {
	d := newTestDirectory(&fakeControl{}, &fakeStream{}, &fakeDirect{})
	require.NoError(t, d.StartPublisher(context.Background(), "prices"))

	d.HandleFrame(context.Background(), transport.Frame{Op: transport.OpAddSubscriber, Name: "prices", Addr: "worker-9"})

	d.mu.RLock()
	_, present := d.publishers["prices"].subscribers["worker-9"]
	d.mu.RUnlock()
	assert.True(t, present)

	d.HandleFrame(context.Background(), transport.Frame{Op: transport.OpRemoveSubscriber, Name: "prices", Addr: "worker-9"})

	d.mu.RLock()
	_, present = d.publishers["prices"].subscribers["worker-9"]
	d.mu.RUnlock()
	assert.False(t, present)
}
