/*
Package scheduler implements the SchedulerDirectory: the authoritative
registry of topic membership across the cluster.

A Directory tracks, per topic, which workers publish, which workers
subscribe, and which clients subscribe. It routes control events
(add/remove publisher or subscriber) to the affected publishers and
never mediates worker-to-worker data traffic — once a publisher learns
its subscriber set it sends directly (see pkg/pubsub and
pkg/transport/local or pkg/transport/grpcwire for the data path). The
scheduler only carries message bytes itself when a client is the
source or a sink.

All mutating operations run on one goroutine (the "directory actor"),
reached through a buffered command channel, so the map-shaped state in
Directory never needs its own lock and handlers never race each other
or the periodic metrics collector.
*/
package scheduler
