package pubsub

import (
	"context"
	"testing"
	"time"

	"github.com/cuemby/warren-pubsub/pkg/transport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSubHost struct {
	started chan transport.Topic
	stopped chan transport.Topic
}

func newFakeSubHost() *fakeSubHost {
	return &fakeSubHost{
		started: make(chan transport.Topic, 8),
		stopped: make(chan transport.Topic, 8),
	}
}

func (h *fakeSubHost) StartSubscriber(ctx context.Context, name transport.Topic, sub *Subscriber) error {
	h.started <- name
	return nil
}

func (h *fakeSubHost) StopSubscriber(name transport.Topic, sub *Subscriber) {
	h.stopped <- name
}

func TestSubscriberGetBlocksUntilDelivered(t *testing.T) {
	host := newFakeSubHost()
	sub, err := NewSubscriber(context.Background(), host, "prices")
	require.NoError(t, err)

	result := make(chan any, 1)
	go func() {
		msg, err := sub.Get(context.Background(), 0)
		require.NoError(t, err)
		result <- msg
	}()

	time.Sleep(20 * time.Millisecond)
	sub.Deliver(42)

	select {
	case msg := <-result:
		assert.Equal(t, 42, msg)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for delivered message")
	}
}

func TestSubscriberGetTimesOut(t *testing.T) {
	host := newFakeSubHost()
	sub, err := NewSubscriber(context.Background(), host, "prices")
	require.NoError(t, err)

	_, err = sub.Get(context.Background(), 10*time.Millisecond)
	assert.ErrorIs(t, err, ErrTimeout)
}

func TestSubscriberGetRespectsContextCancel(t *testing.T) {
	host := newFakeSubHost()
	sub, err := NewSubscriber(context.Background(), host, "prices")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		_, err := sub.Get(ctx, 0)
		errCh <- err
	}()

	time.Sleep(10 * time.Millisecond)
	cancel()

	select {
	case err := <-errCh:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("Get did not observe context cancellation")
	}
}

func TestSubscriberFIFOOrdering(t *testing.T) {
	host := newFakeSubHost()
	sub, err := NewSubscriber(context.Background(), host, "prices")
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		sub.Deliver(i)
	}

	for i := 0; i < 5; i++ {
		msg, err := sub.Get(context.Background(), time.Second)
		require.NoError(t, err)
		assert.Equal(t, i, msg)
	}
}

func TestSubscriberCloseWakesGet(t *testing.T) {
	host := newFakeSubHost()
	sub, err := NewSubscriber(context.Background(), host, "prices")
	require.NoError(t, err)

	errCh := make(chan error, 1)
	go func() {
		_, err := sub.Get(context.Background(), 0)
		errCh <- err
	}()

	time.Sleep(10 * time.Millisecond)
	sub.Close()

	select {
	case err := <-errCh:
		assert.ErrorIs(t, err, ErrTimeout)
	case <-time.After(time.Second):
		t.Fatal("Get did not wake up on Close")
	}

	require.Len(t, host.stopped, 1)
	assert.Equal(t, transport.Topic("prices"), <-host.stopped)
}

func TestSubscriberIter(t *testing.T) {
	host := newFakeSubHost()
	sub, err := NewSubscriber(context.Background(), host, "prices")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	msgs := sub.Iter(ctx)

	sub.Deliver("a")
	sub.Deliver("b")

	assert.Equal(t, "a", <-msgs)
	assert.Equal(t, "b", <-msgs)

	cancel()
	_, ok := <-msgs
	assert.False(t, ok)
}
