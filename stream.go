package http2

import (
	"time"
)

// StreamState is one of the RFC 7540 §5.1 stream states. Unlike the
// flattened 5-value enum a server-only implementation can get away with, a
// client core must track reserved-local and reserved-remote separately: a
// client-initiated stream never sees reserved-local, but a server push
// promise puts a stream directly into reserved-remote, and only from there
// can it become half-closed-local without ever passing through "open".
type StreamState int8

const (
	StreamIdle StreamState = iota
	StreamReservedLocal
	StreamReservedRemote
	StreamOpen
	StreamHalfClosedLocal
	StreamHalfClosedRemote
	StreamClosed
)

func (s StreamState) String() string {
	switch s {
	case StreamIdle:
		return "idle"
	case StreamReservedLocal:
		return "reserved (local)"
	case StreamReservedRemote:
		return "reserved (remote)"
	case StreamOpen:
		return "open"
	case StreamHalfClosedLocal:
		return "half-closed (local)"
	case StreamHalfClosedRemote:
		return "half-closed (remote)"
	case StreamClosed:
		return "closed"
	}
	return "unknown"
}

// Stream is the per-stream state record. It lives entirely inside the
// owning Conn's registry; there are no back-pointers and nothing outside
// the connection actor ever mutates it.
type Stream struct {
	id    uint32
	state StreamState

	sendWindow int32
	recvWindow int32

	// headerFrag accumulates a HEADERS/PUSH_PROMISE block across
	// CONTINUATION frames; non-empty only while assembly is in progress.
	headerFrag []byte
	// body accumulates DATA payloads until the response is complete.
	body []byte

	endHeadersSeen bool
	gotHeaders     bool // at least one response HEADERS block decoded

	// pendingEndStreamFlag remembers the initiating HEADERS/PUSH_PROMISE
	// frame's END_STREAM flag across a CONTINUATION sequence, since the
	// half-closed transition only applies once the header block is whole.
	pendingEndStreamFlag bool

	// isPush marks a stream opened by a PUSH_PROMISE: its header block
	// decodes into a synthetic request, not a response.
	isPush bool

	// promisedBy, if non-zero, is the id of the stream that received the
	// PUSH_PROMISE announcing this one (0 for client-initiated streams).
	promisedBy uint32

	// pendingBody is request-body bytes still waiting for flow-control
	// credit (connection or stream window) to be sent as DATA frames.
	pendingBody      []byte
	pendingOffset    int
	pendingEndStream bool

	ctx       *Ctx
	startedAt time.Time

	// respTimer enforces ConnOpts.MaxResponseTime; nil when the timeout is
	// disabled or the stream is a server push (pushes have no ctx to cancel).
	respTimer Timer
}

func newStream(id uint32, sendWindow, recvWindow int32) *Stream {
	return &Stream{
		id:         id,
		state:      StreamIdle,
		sendWindow: sendWindow,
		recvWindow: recvWindow,
		startedAt:  time.Now(),
	}
}

func (s *Stream) ID() uint32          { return s.id }
func (s *Stream) State() StreamState  { return s.state }
func (s *Stream) SendWindow() int32   { return s.sendWindow }
func (s *Stream) RecvWindow() int32   { return s.recvWindow }

// active reports whether the stream still occupies a concurrency slot:
// count(open ∪ half-closed-*) must stay ≤ peer.max_concurrent_streams.
func (s *Stream) active() bool {
	switch s.state {
	case StreamOpen, StreamHalfClosedLocal, StreamHalfClosedRemote:
		return true
	}
	return false
}

// streamEvent enumerates the transition-triggering actions of RFC 7540
// §5.1's state diagram, from the client's point of view.
type streamEvent int

const (
	evtSendHeaders streamEvent = iota
	evtRecvHeaders
	evtRecvPushPromise
	evtSendEndStream
	evtRecvEndStream
	evtSendRst
	evtRecvRst
)

// transition applies event to the stream's state, returning a *StreamError
// when the event is not permitted from the current state (RFC 7540 §5.1's
// "receiving/sending a frame in an unexpected state" table). Terminal
// transitions to closed are always allowed for RST_STREAM.
func (s *Stream) transition(evt streamEvent) error {
	switch evt {
	case evtSendHeaders:
		if s.state != StreamIdle {
			return NewStreamError(s.id, ProtocolError)
		}
		s.state = StreamOpen

	case evtRecvPushPromise:
		if s.state != StreamIdle {
			return NewStreamError(s.id, ProtocolError)
		}
		s.state = StreamReservedRemote

	case evtRecvHeaders:
		switch s.state {
		case StreamOpen, StreamHalfClosedLocal:
			// no state change; a later END_STREAM drives the transition.
		case StreamReservedRemote:
			s.state = StreamHalfClosedLocal
		default:
			return NewStreamError(s.id, StreamClosedError)
		}

	case evtSendEndStream:
		switch s.state {
		case StreamOpen:
			s.state = StreamHalfClosedLocal
		case StreamHalfClosedRemote:
			s.state = StreamClosed
		default:
			return NewStreamError(s.id, ProtocolError)
		}

	case evtRecvEndStream:
		switch s.state {
		case StreamOpen:
			s.state = StreamHalfClosedRemote
		case StreamHalfClosedLocal:
			s.state = StreamClosed
		default:
			return NewStreamError(s.id, StreamClosedError)
		}

	case evtSendRst, evtRecvRst:
		if s.state == StreamClosed {
			return nil
		}
		s.state = StreamClosed

	default:
		return NewStreamError(s.id, InternalError)
	}

	return nil
}

// beginHeaderBlock opens the continuation window: only one may be open on
// the entire connection, enforced by the caller (Conn), not here.
func (s *Stream) beginHeaderBlock(fragment []byte, endHeaders, endStream bool) {
	s.headerFrag = append(s.headerFrag[:0], fragment...)
	s.endHeadersSeen = endHeaders
	s.pendingEndStreamFlag = endStream
}

func (s *Stream) appendContinuation(fragment []byte, endHeaders bool) {
	s.headerFrag = append(s.headerFrag, fragment...)
	s.endHeadersSeen = endHeaders
}

func (s *Stream) headerBlockDone() bool { return s.endHeadersSeen }

func (s *Stream) takeHeaderBlock() []byte {
	block := s.headerFrag
	s.headerFrag = nil
	s.endHeadersSeen = false
	return block
}

func (s *Stream) appendBody(b []byte) { s.body = append(s.body, b...) }

// hasPendingBody reports whether request-body bytes remain to be sent.
func (s *Stream) hasPendingBody() bool { return s.pendingOffset < len(s.pendingBody) }
