package local

import (
	"context"
	"sync"

	"github.com/cuemby/warren-pubsub/pkg/transport"
)

// mailbox delivers frames to a single Handler in FIFO order through one
// dedicated goroutine, the way SaidDjapbarov-subpub-service's
// subscription.worker() drains its per-subscriber channel. A mailbox
// closes its channel exactly once regardless of how many callers
// observe the peer as gone.
type mailbox struct {
	handler Handler
	ch      chan frameCtx
	once    sync.Once
	done    chan struct{}
}

type frameCtx struct {
	ctx   context.Context
	frame transport.Frame
}

func newMailbox(handler Handler) *mailbox {
	mb := &mailbox{
		handler: handler,
		ch:      make(chan frameCtx, 64),
		done:    make(chan struct{}),
	}
	go mb.run()
	return mb
}

func (mb *mailbox) run() {
	defer close(mb.done)
	for fc := range mb.ch {
		mb.handler(fc.ctx, fc.frame)
	}
}

func (mb *mailbox) enqueue(ctx context.Context, frame transport.Frame) error {
	select {
	case mb.ch <- frameCtx{ctx: ctx, frame: frame}:
		return nil
	case <-mb.done:
		return transport.ErrPeerGone
	}
}

func (mb *mailbox) close() {
	mb.once.Do(func() { close(mb.ch) })
}
