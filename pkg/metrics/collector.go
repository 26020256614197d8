package metrics

import (
	"context"
	"time"

	"github.com/cuemby/warren-pubsub/pkg/scheduler"
)

// Collector periodically polls a scheduler.Directory and republishes its
// Stats as gauges, as a belt-and-suspenders backstop to the directory's
// own synchronous SchedulerSink pushes (it also means Stats is visible
// even when the directory was built without a sink attached).
type Collector struct {
	dir    *scheduler.Directory
	stopCh chan struct{}
}

// NewCollector creates a new metrics collector for dir.
func NewCollector(dir *scheduler.Directory) *Collector {
	return &Collector{
		dir:    dir,
		stopCh: make(chan struct{}),
	}
}

// Start begins collecting metrics every 15 seconds.
func (c *Collector) Start() {
	ticker := time.NewTicker(15 * time.Second)
	go func() {
		c.collect()

		for {
			select {
			case <-ticker.C:
				c.collect()
			case <-c.stopCh:
				ticker.Stop()
				return
			}
		}
	}()
}

// Stop stops the collector.
func (c *Collector) Stop() {
	close(c.stopCh)
}

func (c *Collector) collect() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	stats, err := c.dir.Stat(ctx)
	if err != nil {
		return
	}

	TopicsActive.Set(float64(stats.Topics))
	PublishersTotal.Set(float64(stats.Publishers))
	WorkerSubscribersTotal.Set(float64(stats.WorkerSubscribers))
	ClientSubscribersTotal.Set(float64(stats.ClientSubscribers))
}
