package main

import (
	"context"
	"fmt"
	"time"

	"github.com/cuemby/warren-pubsub/pkg/client"
	"github.com/cuemby/warren-pubsub/pkg/metrics"
	"github.com/cuemby/warren-pubsub/pkg/scheduler"
	"github.com/cuemby/warren-pubsub/pkg/transport"
	"github.com/cuemby/warren-pubsub/pkg/transport/local"
	"github.com/cuemby/warren-pubsub/pkg/worker"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Run a self-contained in-process pub/sub demo",
	Long: `demo wires one scheduler, two workers, and one client together
over transport/local (no network involved) and walks through the three
delivery paths described in the spec: a worker publishing to a worker
subscriber on the fast path, a worker publishing to a client subscriber
on the slow path, and a client publishing to everyone.`,
	RunE: runDemo,
}

func runDemo(cmd *cobra.Command, args []string) error {
	hub := local.NewHub()
	dir := scheduler.New(hub, metrics.NewSchedulerSink())
	defer dir.Close()
	hub.RegisterScheduler(dir)

	var w1, w2 *worker.Directory
	var c *client.Directory

	w1Addr := transport.WorkerAddr("worker-" + uuid.New().String())
	w2Addr := transport.WorkerAddr("worker-" + uuid.New().String())
	cID := transport.ClientID("client-" + uuid.New().String())

	w1Control, w1Stream, w1Direct := hub.RegisterWorker(w1Addr, func(ctx context.Context, frame transport.Frame) { w1.HandleFrame(ctx, frame) })
	w1 = worker.New(worker.Config{Addr: w1Addr, Control: w1Control, Stream: w1Stream, Direct: w1Direct})

	w2Control, w2Stream, w2Direct := hub.RegisterWorker(w2Addr, func(ctx context.Context, frame transport.Frame) { w2.HandleFrame(ctx, frame) })
	w2 = worker.New(worker.Config{Addr: w2Addr, Control: w2Control, Stream: w2Stream, Direct: w2Direct})

	cStream := hub.RegisterClient(cID, func(ctx context.Context, frame transport.Frame) { c.HandleFrame(ctx, frame) })
	c = client.New(client.Config{ID: cID, Stream: cStream})

	ctx := context.Background()

	fmt.Println("=== fast path: worker-1 publishes, worker-2 subscribes ===")
	w2Sub, err := w2.NewSubscriber(ctx, "prices")
	if err != nil {
		return err
	}
	defer w2Sub.Close()

	w1Pub, err := w1.NewPublisher(ctx, "prices")
	if err != nil {
		return err
	}
	defer w1Pub.Close()

	time.Sleep(50 * time.Millisecond) // let registration settle for the demo's benefit
	if err := w1Pub.Put(ctx, "AAPL: 214.10"); err != nil {
		return err
	}
	msg, err := w2Sub.Get(ctx, time.Second)
	if err != nil {
		return err
	}
	fmt.Printf("worker-2 received: %v\n", msg)

	fmt.Println("\n=== slow path: worker-1 publishes, client-1 subscribes ===")
	cSub, err := c.NewSubscriber(ctx, "prices")
	if err != nil {
		return err
	}
	defer cSub.Close()

	time.Sleep(50 * time.Millisecond)
	if err := w1Pub.Put(ctx, "AAPL: 214.25"); err != nil {
		return err
	}
	msg, err = cSub.Get(ctx, time.Second)
	if err != nil {
		return err
	}
	fmt.Printf("client-1 received: %v\n", msg)
	msg, err = w2Sub.Get(ctx, time.Second)
	if err != nil {
		return err
	}
	fmt.Printf("worker-2 also received on the fast path: %v\n", msg)

	fmt.Println("\n=== client publish: client-1 publishes, worker-2 receives via the scheduler ===")
	cPub, err := c.NewPublisher(ctx, "prices")
	if err != nil {
		return err
	}
	defer cPub.Close()

	time.Sleep(50 * time.Millisecond)
	if err := cPub.Put(ctx, "AAPL: 214.40 (client feed)"); err != nil {
		return err
	}
	msg, err = w2Sub.Get(ctx, time.Second)
	if err != nil {
		return err
	}
	fmt.Printf("worker-2 received: %v\n", msg)

	stats, err := dir.Stat(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("\nscheduler stats: topics=%d publishers=%d worker-subs=%d client-subs=%d\n",
		stats.Topics, stats.Publishers, stats.WorkerSubscribers, stats.ClientSubscribers)
	return nil
}
