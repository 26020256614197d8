package grpcwire

import "github.com/cuemby/warren-pubsub/pkg/transport"

// addPublisherRequest/addPublisherResponse are the gob-encoded bodies
// of the unary AddPublisher call.
type addPublisherRequest struct {
	Name   transport.Topic
	Worker transport.WorkerAddr
}

type addPublisherResponse struct {
	Snapshot transport.Snapshot
}

// directRequest/directResponse are not used by any method declared in
// controlServiceDesc or eventsServiceDesc: Direct sends travel as plain
// Frames on the Events stream (see DirectDialer).
type directRequest struct {
	Frame transport.Frame
}

type directResponse struct{}
