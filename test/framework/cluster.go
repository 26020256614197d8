package framework

import (
	"context"
	"fmt"

	"github.com/cuemby/warren-pubsub/pkg/client"
	"github.com/cuemby/warren-pubsub/pkg/metrics"
	"github.com/cuemby/warren-pubsub/pkg/scheduler"
	"github.com/cuemby/warren-pubsub/pkg/transport"
	"github.com/cuemby/warren-pubsub/pkg/transport/local"
	"github.com/cuemby/warren-pubsub/pkg/worker"
)

// NewCluster creates a new in-process test cluster with the given
// configuration. Unlike a real deployment, there are no child
// processes and no network: everything rides transport/local's Hub in
// the same goroutine tree as the test, so Close is synchronous and
// there is nothing left behind for the caller to clean up.
func NewCluster(config *ClusterConfig) (*Cluster, error) {
	if config == nil {
		config = DefaultClusterConfig()
	}
	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid cluster config: %w", err)
	}

	hub := local.NewHub()
	dir := scheduler.New(hub, metrics.NewSchedulerSink())
	hub.RegisterScheduler(dir)

	c := &Cluster{
		Config:    config,
		Scheduler: dir,
		hub:       hub,
	}

	for i := 0; i < config.NumWorkers; i++ {
		addr := workerAddr(i)
		var w *worker.Directory
		control, stream, direct := hub.RegisterWorker(addr, func(ctx context.Context, frame transport.Frame) {
			w.HandleFrame(ctx, frame)
		})
		w = worker.New(worker.Config{Addr: addr, Control: control, Stream: stream, Direct: direct})
		c.Workers = append(c.Workers, w)
	}

	for i := 0; i < config.NumClients; i++ {
		id := clientID(i)
		var cl *client.Directory
		stream := hub.RegisterClient(id, func(ctx context.Context, frame transport.Frame) {
			cl.HandleFrame(ctx, frame)
		})
		cl = client.New(client.Config{ID: id, Stream: stream})
		c.Clients = append(c.Clients, cl)
	}

	return c, nil
}

// Close stops the scheduler's actor goroutine and unregisters every
// worker and client from the hub.
func (c *Cluster) Close() {
	for i := range c.Workers {
		c.hub.UnregisterWorker(workerAddr(i))
	}
	for i := range c.Clients {
		c.hub.UnregisterClient(clientID(i))
	}
	c.Scheduler.Close()
}

// Stat returns the scheduler's current point-in-time Stats.
func (c *Cluster) Stat(ctx context.Context) (scheduler.Stats, error) {
	return c.Scheduler.Stat(ctx)
}
