package local

import (
	"context"
	"fmt"
	"sync"

	"github.com/cuemby/warren-pubsub/pkg/transport"
)

// Handler processes one frame delivered to a registered peer. It is
// invoked sequentially, in delivery order, from the peer's own mailbox
// goroutine — never concurrently with itself.
type Handler func(ctx context.Context, frame transport.Frame)

// SchedulerHandler is the scheduler side of the hub: it answers the
// unary AddPublisher control call and receives every fire-and-forget
// frame sent to it.
type SchedulerHandler interface {
	HandleAddPublisher(ctx context.Context, name transport.Topic, worker transport.WorkerAddr) (transport.Snapshot, error)
	HandleFrame(ctx context.Context, frame transport.Frame)
}

// Hub is an in-process rendezvous point for a scheduler, any number of
// workers, and any number of clients. It never crosses a process
// boundary; all delivery is plain goroutines and channels.
type Hub struct {
	mu        sync.Mutex
	scheduler SchedulerHandler
	workers   map[transport.WorkerAddr]*mailbox
	clients   map[transport.ClientID]*mailbox
}

// NewHub creates an empty hub. Register a scheduler and any number of
// workers/clients on it before sending traffic.
func NewHub() *Hub {
	return &Hub{
		workers: make(map[transport.WorkerAddr]*mailbox),
		clients: make(map[transport.ClientID]*mailbox),
	}
}

// RegisterScheduler installs the scheduler's handler. Only one
// scheduler may be registered at a time.
func (h *Hub) RegisterScheduler(handler SchedulerHandler) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.scheduler = handler
}

// RegisterWorker installs a worker's frame handler and returns the
// three facilities that worker needs: a ControlRPC/Stream pair talking
// to the scheduler, and a Direct sender reaching any other registered
// worker.
func (h *Hub) RegisterWorker(addr transport.WorkerAddr, handler Handler) (transport.ControlRPC, transport.Stream, transport.Direct) {
	h.mu.Lock()
	h.workers[addr] = newMailbox(handler)
	h.mu.Unlock()
	return &hubControlRPC{hub: h}, &workerStream{hub: h, addr: addr}, &directSender{hub: h}
}

// RegisterClient installs a client's frame handler and returns the
// Stream it uses to reach the scheduler.
func (h *Hub) RegisterClient(id transport.ClientID, handler Handler) transport.Stream {
	h.mu.Lock()
	h.clients[id] = newMailbox(handler)
	h.mu.Unlock()
	return &clientStream{hub: h, id: id}
}

// UnregisterWorker removes a worker's mailbox, closing it. Safe to call
// more than once.
func (h *Hub) UnregisterWorker(addr transport.WorkerAddr) {
	h.mu.Lock()
	mb, ok := h.workers[addr]
	delete(h.workers, addr)
	h.mu.Unlock()
	if ok {
		mb.close()
	}
}

// UnregisterClient removes a client's mailbox, closing it.
func (h *Hub) UnregisterClient(id transport.ClientID) {
	h.mu.Lock()
	mb, ok := h.clients[id]
	delete(h.clients, id)
	h.mu.Unlock()
	if ok {
		mb.close()
	}
}

func (h *Hub) sendToScheduler(ctx context.Context, frame transport.Frame) error {
	h.mu.Lock()
	sched := h.scheduler
	h.mu.Unlock()
	if sched == nil {
		return fmt.Errorf("local: no scheduler registered")
	}
	sched.HandleFrame(ctx, frame)
	return nil
}

func (h *Hub) sendToWorker(ctx context.Context, addr transport.WorkerAddr, frame transport.Frame) error {
	h.mu.Lock()
	mb, ok := h.workers[addr]
	h.mu.Unlock()
	if !ok {
		return fmt.Errorf("local: unknown worker %q: %w", addr, transport.ErrPeerGone)
	}
	return mb.enqueue(ctx, frame)
}

func (h *Hub) sendToClient(ctx context.Context, id transport.ClientID, frame transport.Frame) error {
	h.mu.Lock()
	mb, ok := h.clients[id]
	h.mu.Unlock()
	if !ok {
		return fmt.Errorf("local: unknown client %q: %w", id, transport.ErrPeerGone)
	}
	return mb.enqueue(ctx, frame)
}

// hubControlRPC implements transport.ControlRPC by calling straight
// into the scheduler's handler; there is no network round-trip to
// await in-process, but the call still goes through the scheduler's
// own serialized handler so ordering with concurrent stream events is
// preserved.
type hubControlRPC struct{ hub *Hub }

func (c *hubControlRPC) AddPublisher(ctx context.Context, name transport.Topic, worker transport.WorkerAddr) (transport.Snapshot, error) {
	c.hub.mu.Lock()
	sched := c.hub.scheduler
	c.hub.mu.Unlock()
	if sched == nil {
		return transport.Snapshot{}, fmt.Errorf("local: no scheduler registered")
	}
	return sched.HandleAddPublisher(ctx, name, worker)
}

type workerStream struct {
	hub  *Hub
	addr transport.WorkerAddr
}

func (s *workerStream) Send(ctx context.Context, frame transport.Frame) error {
	if frame.Worker == "" {
		frame.Worker = s.addr
	}
	return s.hub.sendToScheduler(ctx, frame)
}

type clientStream struct {
	hub *Hub
	id  transport.ClientID
}

func (s *clientStream) Send(ctx context.Context, frame transport.Frame) error {
	if frame.Client == "" {
		frame.Client = s.id
	}
	return s.hub.sendToScheduler(ctx, frame)
}

// schedulerToWorkerStream and schedulerToClientStream are handed out by
// the scheduler directory per destination; Hub exposes constructors for
// them since only the scheduler side needs to address an arbitrary
// peer by name.
type schedulerToWorkerStream struct {
	hub  *Hub
	addr transport.WorkerAddr
}

func (s *schedulerToWorkerStream) Send(ctx context.Context, frame transport.Frame) error {
	return s.hub.sendToWorker(ctx, s.addr, frame)
}

type schedulerToClientStream struct {
	hub *Hub
	id  transport.ClientID
}

func (s *schedulerToClientStream) Send(ctx context.Context, frame transport.Frame) error {
	return s.hub.sendToClient(ctx, s.id, frame)
}

// StreamToWorker returns a Stream the scheduler can use to push frames
// to a specific worker.
func (h *Hub) StreamToWorker(addr transport.WorkerAddr) transport.Stream {
	return &schedulerToWorkerStream{hub: h, addr: addr}
}

// StreamToClient returns a Stream the scheduler can use to push frames
// to a specific client.
func (h *Hub) StreamToClient(id transport.ClientID) transport.Stream {
	return &schedulerToClientStream{hub: h, id: id}
}

type directSender struct{ hub *Hub }

func (d *directSender) SendDirect(ctx context.Context, to transport.WorkerAddr, frame transport.Frame) error {
	return d.hub.sendToWorker(ctx, to, frame)
}
