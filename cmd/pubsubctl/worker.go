package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/cuemby/warren-pubsub/pkg/config"
	"github.com/cuemby/warren-pubsub/pkg/transport"
	"github.com/cuemby/warren-pubsub/pkg/transport/grpcwire"
	"github.com/cuemby/warren-pubsub/pkg/worker"
	"github.com/spf13/cobra"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Run a worker directory process",
	Long: `Run a worker: registers publishers with the scheduler, caches
the worker-subscriber set for anything it publishes, and accepts
Direct sends from other workers on the fast path.`,
	RunE: runWorker,
}

func init() {
	workerCmd.Flags().String("id", "", "Worker address/identity (defaults to the listen address)")
	workerCmd.Flags().String("listen", "127.0.0.1:7960", "Address this worker accepts Direct sends on")
	workerCmd.Flags().String("scheduler", "", "Scheduler address to dial (overrides config)")
	workerCmd.Flags().String("sub", "", "Topic to subscribe to and print messages from, for manual testing")
	workerCmd.Flags().String("pub", "", "Topic to publish stdin lines to, for manual testing")
}

func runWorker(cmd *cobra.Command, args []string) error {
	cfgPath, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}
	listen, _ := cmd.Flags().GetString("listen")
	schedulerAddr, _ := cmd.Flags().GetString("scheduler")
	if schedulerAddr != "" {
		cfg.Worker.SchedulerAddr = schedulerAddr
	}
	addr, _ := cmd.Flags().GetString("id")
	if addr == "" {
		addr = listen
	}

	var dir *worker.Directory
	peer := grpcwire.NewPeerServer(transport.WorkerAddr(addr), func(ctx context.Context, frame transport.Frame) {
		dir.HandleFrame(ctx, frame)
	})
	go func() {
		if err := peer.Serve(listen); err != nil {
			fmt.Fprintf(os.Stderr, "peer server stopped: %v\n", err)
		}
	}()
	defer peer.Stop()

	conn, err := grpcwire.DialScheduler(context.Background(), cfg.Worker.SchedulerAddr, func(ctx context.Context, frame transport.Frame) {
		dir.HandleFrame(ctx, frame)
	})
	if err != nil {
		return fmt.Errorf("connect to scheduler %s: %w", cfg.Worker.SchedulerAddr, err)
	}
	defer conn.Close()

	dir = worker.New(worker.Config{
		Addr:    transport.WorkerAddr(addr),
		Control: conn,
		Stream:  conn,
		Direct:  grpcwire.NewDirectDialer(),
	})

	fmt.Printf("Worker %q connected to scheduler %s, accepting Direct sends on %s\n", addr, cfg.Worker.SchedulerAddr, listen)

	if sub, _ := cmd.Flags().GetString("sub"); sub != "" {
		s, err := dir.NewSubscriber(context.Background(), transport.Topic(sub))
		if err != nil {
			return fmt.Errorf("subscribe to %s: %w", sub, err)
		}
		defer s.Close()
		go func() {
			for msg := range s.Iter(context.Background()) {
				fmt.Printf("[%s] %v\n", sub, msg)
			}
		}()
	}

	if pub, _ := cmd.Flags().GetString("pub"); pub != "" {
		p, err := dir.NewPublisher(context.Background(), transport.Topic(pub))
		if err != nil {
			return fmt.Errorf("publish to %s: %w", pub, err)
		}
		defer p.Close()
		go func() {
			scanner := bufio.NewScanner(os.Stdin)
			for scanner.Scan() {
				if err := p.Put(context.Background(), scanner.Text()); err != nil {
					fmt.Fprintf(os.Stderr, "publish failed: %v\n", err)
				}
			}
		}()
	}

	fmt.Println("Press Ctrl+C to stop.")
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh
	fmt.Println("\nShutting down...")
	return nil
}
