package framework

import (
	"fmt"

	"github.com/cuemby/warren-pubsub/pkg/client"
	"github.com/cuemby/warren-pubsub/pkg/scheduler"
	"github.com/cuemby/warren-pubsub/pkg/transport"
	"github.com/cuemby/warren-pubsub/pkg/transport/local"
	"github.com/cuemby/warren-pubsub/pkg/worker"
)

// TestingT is an interface matching testing.T, so assertion and wait
// helpers work from both test functions and subtests.
type TestingT interface {
	Logf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
	Fatalf(format string, args ...interface{})
	FailNow()
	Failed() bool
	Name() string
	Helper()
}

// ClusterConfig configures an in-process test cluster.
type ClusterConfig struct {
	// NumWorkers is the number of worker.Directory instances to wire.
	NumWorkers int
	// NumClients is the number of client.Directory instances to wire.
	NumClients int
}

// DefaultClusterConfig returns a one-worker, one-client cluster, the
// shape most scenarios in spec section 8.3 need.
func DefaultClusterConfig() *ClusterConfig {
	return &ClusterConfig{NumWorkers: 1, NumClients: 1}
}

// Cluster wires a scheduler.Directory, Config.NumWorkers worker
// directories and Config.NumClients client directories together over
// transport/local - the same in-process wiring cmd/pubsubctl's demo
// command builds by hand, packaged here so tests don't repeat it.
type Cluster struct {
	Config    *ClusterConfig
	Scheduler *scheduler.Directory
	Workers   []*worker.Directory
	Clients   []*client.Directory

	hub *local.Hub
}

func workerAddr(i int) transport.WorkerAddr { return transport.WorkerAddr(fmt.Sprintf("worker-%d", i+1)) }
func clientID(i int) transport.ClientID     { return transport.ClientID(fmt.Sprintf("client-%d", i+1)) }

func validateConfig(config *ClusterConfig) error {
	if config.NumWorkers < 0 {
		return fmt.Errorf("NumWorkers must be >= 0, got %d", config.NumWorkers)
	}
	if config.NumClients < 0 {
		return fmt.Errorf("NumClients must be >= 0, got %d", config.NumClients)
	}
	return nil
}
