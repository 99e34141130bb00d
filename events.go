package http2

import (
	"time"

	"github.com/valyala/fasthttp"
)

// EventKind tags the upward event kinds. Events are delivered on the
// channel Conn.Events returns, in arrival order.
type EventKind uint8

const (
	EventStreamCompleted EventKind = iota
	EventPushPromise
	EventPing
	EventPong
	EventConnectionClosed
)

// Event is the single upward-facing message type. Only the fields relevant
// to Kind are populated; the rest are zero.
type Event struct {
	Kind EventKind

	// EventStreamCompleted / EventPushPromise
	StreamID uint32
	Response *fasthttp.Response
	Err      error

	// EventPushPromise
	PromisedRequest *fasthttp.Request

	// EventPing / EventPong
	PingData [8]byte
	RTT      time.Duration

	// EventConnectionClosed
	Reason error
}
