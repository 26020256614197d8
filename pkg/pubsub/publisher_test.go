package pubsub

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/cuemby/warren-pubsub/pkg/transport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePubHost struct {
	mu        sync.Mutex
	startErr  error
	startGate chan struct{}
	published []any
	stopped   []transport.Topic
	subs      []transport.WorkerAddr
}

func newFakePubHost() *fakePubHost {
	return &fakePubHost{startGate: make(chan struct{})}
}

func (h *fakePubHost) StartPublisher(ctx context.Context, name transport.Topic) error {
	<-h.startGate
	return h.startErr
}

func (h *fakePubHost) Publish(ctx context.Context, name transport.Topic, msg any) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.published = append(h.published, msg)
	return nil
}

func (h *fakePubHost) StopPublisher(name transport.Topic) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.stopped = append(h.stopped, name)
}

func (h *fakePubHost) Subscribers(name transport.Topic) []transport.WorkerAddr {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.subs
}

func (h *fakePubHost) release() { close(h.startGate) }

func (h *fakePubHost) snapshot() []any {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]any, len(h.published))
	copy(out, h.published)
	return out
}

func TestPublisherBuffersUntilStarted(t *testing.T) {
	host := newFakePubHost()
	pub, err := NewPublisher(context.Background(), host, "prices")
	require.NoError(t, err)

	require.NoError(t, pub.Put(context.Background(), "early-1"))
	require.NoError(t, pub.Put(context.Background(), "early-2"))

	assert.Empty(t, host.snapshot(), "messages should be buffered before start completes")

	host.release()

	require.Eventually(t, func() bool {
		return len(host.snapshot()) == 2
	}, time.Second, 5*time.Millisecond)

	assert.Equal(t, []any{"early-1", "early-2"}, host.snapshot())
}

func TestPublisherPutAfterStartedGoesStraightThrough(t *testing.T) {
	host := newFakePubHost()
	pub, err := NewPublisher(context.Background(), host, "prices")
	require.NoError(t, err)

	host.release()
	require.Eventually(t, func() bool {
		pub.mu.Lock()
		defer pub.mu.Unlock()
		return pub.started
	}, time.Second, 5*time.Millisecond)

	require.NoError(t, pub.Put(context.Background(), "late"))
	assert.Equal(t, []any{"late"}, host.snapshot())
}

func TestPublisherCloseRetractsRegistration(t *testing.T) {
	host := newFakePubHost()
	host.release()
	pub, err := NewPublisher(context.Background(), host, "prices")
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		pub.mu.Lock()
		defer pub.mu.Unlock()
		return pub.started
	}, time.Second, 5*time.Millisecond)

	pub.Close()
	assert.Equal(t, []transport.Topic{"prices"}, host.stopped)
}

func TestPublisherString(t *testing.T) {
	host := newFakePubHost()
	host.release()
	pub, err := NewPublisher(context.Background(), host, "prices")
	require.NoError(t, err)
	assert.Equal(t, "<Pub: prices>", pub.String())
}

func TestNewPublisherRejectsNilHost(t *testing.T) {
	_, err := NewPublisher(context.Background(), nil, "prices")
	assert.ErrorIs(t, err, ErrNoHost)
}

func TestPublisherSubscribersDelegatesToHost(t *testing.T) {
	host := newFakePubHost()
	host.release()
	host.subs = []transport.WorkerAddr{"worker-1", "worker-2"}

	pub, err := NewPublisher(context.Background(), host, "prices")
	require.NoError(t, err)

	assert.ElementsMatch(t, []transport.WorkerAddr{"worker-1", "worker-2"}, pub.Subscribers())
}
