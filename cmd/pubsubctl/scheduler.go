package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cuemby/warren-pubsub/pkg/config"
	"github.com/cuemby/warren-pubsub/pkg/log"
	"github.com/cuemby/warren-pubsub/pkg/metrics"
	"github.com/cuemby/warren-pubsub/pkg/scheduler"
	"github.com/cuemby/warren-pubsub/pkg/storage"
	"github.com/cuemby/warren-pubsub/pkg/transport"
	"github.com/cuemby/warren-pubsub/pkg/transport/grpcwire"
	"github.com/spf13/cobra"
)

var schedulerCmd = &cobra.Command{
	Use:   "scheduler",
	Short: "Run the scheduler directory process",
	Long: `Run the scheduler: the single source of truth for which
worker and client is publishing or subscribed on which topic.
Workers and clients connect to it over gRPC and never to each other
except on the worker->worker fast path.`,
	RunE: runScheduler,
}

func init() {
	schedulerCmd.Flags().String("addr", "", "Listen address for worker/client connections (overrides config)")
	schedulerCmd.Flags().String("metrics-addr", "", "Listen address for /metrics, /health, /ready (overrides config)")
	schedulerCmd.Flags().String("trace-db", "", "Directory for an optional BoltDB mutation trace (disabled if empty)")
}

// tracingHandler wraps a grpcwire.SchedulerHandler, recording every
// AddPublisher call and received frame to a BoltStore before
// delegating. The trace is never read back by the running scheduler -
// see pkg/storage's doc comment.
type tracingHandler struct {
	grpcwire.SchedulerHandler
	store *storage.BoltStore
}

func (h tracingHandler) HandleAddPublisher(ctx context.Context, name transport.Topic, worker transport.WorkerAddr) (transport.Snapshot, error) {
	if err := h.store.Record(storage.TraceRecord{Op: transport.Op("add-publisher"), Topic: name, Worker: worker, At: time.Now()}); err != nil {
		log.Logger.Warn().Err(err).Msg("trace record failed")
	}
	return h.SchedulerHandler.HandleAddPublisher(ctx, name, worker)
}

func (h tracingHandler) HandleFrame(ctx context.Context, frame transport.Frame) {
	if err := h.store.Record(storage.TraceRecord{Op: frame.Op, Topic: frame.Name, Worker: frame.Worker, Client: frame.Client, At: time.Now()}); err != nil {
		log.Logger.Warn().Err(err).Msg("trace record failed")
	}
	h.SchedulerHandler.HandleFrame(ctx, frame)
}

func runScheduler(cmd *cobra.Command, args []string) error {
	cfgPath, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}
	if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
		cfg.Scheduler.Addr = addr
	}
	if addr, _ := cmd.Flags().GetString("metrics-addr"); addr != "" {
		cfg.Scheduler.MetricsAddr = addr
	}

	wire := grpcwire.NewSchedulerServer()
	dir := scheduler.New(wire, metrics.NewSchedulerSink())
	defer dir.Close()

	var handler grpcwire.SchedulerHandler = dir
	if traceDir, _ := cmd.Flags().GetString("trace-db"); traceDir != "" {
		store, err := storage.NewBoltStore(traceDir)
		if err != nil {
			return fmt.Errorf("open trace db: %w", err)
		}
		defer store.Close()
		handler = tracingHandler{SchedulerHandler: dir, store: store}
		fmt.Printf("Recording mutation trace to %s\n", traceDir)
	}
	wire.SetHandler(handler)

	collector := metrics.NewCollector(dir)
	collector.Start()
	defer collector.Stop()

	metrics.RegisterComponent("scheduler", true, "directory actor running")
	metrics.RegisterComponent("grpcwire", false, "not yet listening")

	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	mux.Handle("/health", metrics.HealthHandler())
	mux.Handle("/ready", metrics.ReadyHandler())
	mux.Handle("/live", metrics.LivenessHandler())
	metricsSrv := &http.Server{Addr: cfg.Scheduler.MetricsAddr, Handler: mux}
	go func() {
		if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Logger.Error().Err(err).Msg("metrics server stopped")
		}
	}()
	defer metricsSrv.Close()

	errCh := make(chan error, 1)
	go func() {
		errCh <- wire.Serve(cfg.Scheduler.Addr)
	}()

	fmt.Printf("Scheduler listening on %s (metrics on %s)\n", cfg.Scheduler.Addr, cfg.Scheduler.MetricsAddr)
	metrics.RegisterComponent("grpcwire", true, "listening")
	fmt.Println("Press Ctrl+C to stop.")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case <-sigCh:
		fmt.Println("\nShutting down...")
		wire.Stop()
	case err := <-errCh:
		return err
	}
	return nil
}
