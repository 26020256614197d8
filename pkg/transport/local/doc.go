/*
Package local implements transport.ControlRPC, transport.Stream, and
transport.Direct entirely in-process with Go channels, for same-binary
topologies: unit tests, the integration suite, and the `pubsubctl demo`
command.

It is grounded on two shapes from the retrieved examples: the
teacher's pkg/events.Broker (a single dispatch goroutine reading one
buffered channel and fanning out to per-subscriber channels) and the
SaidDjapbarov-subpub-service reference (one FIFO worker goroutine per
subscriber, guarding unsubscribe with sync.Once so it only runs once
even under concurrent callers).
*/
package local
