/*
Package storage is an optional, append-only debug trace of scheduler
mutations: every AddPublisher call, every subscriber add/remove, every
delivered message, recorded as JSON in one BoltDB bucket keyed by a
monotonic sequence number.

It is never on the read path. A freshly started scheduler.Directory
never consults it - topic state does not survive a restart by design
(spec Non-goal: no topic persistence across restarts). The only
consumer is Replay, used by an operator after an incident to
reconstruct what a topic's membership looked like over time.

Wiring is left to the caller: cmd/pubsubctl's scheduler command can be
pointed at a BoltStore via --trace-db, wrapping the grpcwire
SchedulerHandler it installs so every AddPublisher/frame also gets
Recorded before being handled.
*/
package storage
