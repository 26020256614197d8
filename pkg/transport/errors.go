package transport

import "errors"

// ErrPeerGone indicates an underlying Stream or Direct send failed
// because the destination is no longer reachable. Transports wrap it
// so callers can distinguish "peer vanished" from other send failures
// (spec section 7).
var ErrPeerGone = errors.New("transport: peer gone")
