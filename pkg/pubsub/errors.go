package pubsub

import "errors"

// ErrTimeout is returned by Subscriber.Get when a timeout elapses
// before a message arrives.
var ErrTimeout = errors.New("pubsub: timeout waiting for message")

// ErrNoHost is returned by NewPublisher/NewSubscriber when called with
// a nil host.
var ErrNoHost = errors.New("pubsub: no host given")
