package http2

import (
	"errors"
	"fmt"
)

// ErrorCode is an RFC 7540 §7 / §11.4 error code. It implements the error
// interface directly so it can be returned (and matched with errors.Is) from
// any operation that fails with a specific protocol reason, without forcing
// every caller through a wrapper type.
type ErrorCode uint32

const (
	NoError ErrorCode = iota
	ProtocolError
	InternalError
	FlowControlError
	SettingsTimeout
	StreamClosedError
	FrameSizeError
	RefusedStream
	StreamCanceled
	CompressionError
	ConnectError
	EnhanceYourCalm
	InadequateSecurity
	HTTP11Required
)

func (e ErrorCode) String() string {
	switch e {
	case NoError:
		return "NO_ERROR"
	case ProtocolError:
		return "PROTOCOL_ERROR"
	case InternalError:
		return "INTERNAL_ERROR"
	case FlowControlError:
		return "FLOW_CONTROL_ERROR"
	case SettingsTimeout:
		return "SETTINGS_TIMEOUT"
	case StreamClosedError:
		return "STREAM_CLOSED"
	case FrameSizeError:
		return "FRAME_SIZE_ERROR"
	case RefusedStream:
		return "REFUSED_STREAM"
	case StreamCanceled:
		return "CANCEL"
	case CompressionError:
		return "COMPRESSION_ERROR"
	case ConnectError:
		return "CONNECT_ERROR"
	case EnhanceYourCalm:
		return "Enhance your calm"
	case InadequateSecurity:
		return "INADEQUATE_SECURITY"
	case HTTP11Required:
		return "HTTP_1_1_REQUIRED"
	}
	return "Unknown"
}

// Error implements the error interface so an ErrorCode can be returned and
// compared bare, e.g. `return FlowControlError`, `errors.Is(err, FlowControlError)`.
func (e ErrorCode) Error() string { return e.String() }

// ConnError is a connection-level error: it always terminates the
// connection, carrying the GOAWAY error code and optional debug text.
type ConnError struct {
	Code  ErrorCode
	Debug string
}

// NewGoAwayError builds a ConnError with the given code and debug text; it is
// the error value the connection actor turns into an outbound GOAWAY frame.
func NewGoAwayError(code ErrorCode, debug string) *ConnError {
	return &ConnError{Code: code, Debug: debug}
}

func (e *ConnError) Error() string {
	if e.Debug == "" {
		return fmt.Sprintf("http2: connection error: %s", e.Code)
	}
	return fmt.Sprintf("http2: connection error: %s: %s", e.Code, e.Debug)
}

// Is reports whether e carries the given error code. Kept as a direct method
// (in addition to being usable through errors.Is via code equality) because
// call sites read more plainly as `err.Is(InternalError)`.
func (e *ConnError) Is(code ErrorCode) bool { return e != nil && e.Code == code }

// Unwrap exposes the underlying ErrorCode so errors.Is(err, SomeCode) also works.
func (e *ConnError) Unwrap() error { return e.Code }

// StreamError is a stream-scoped error: it resets one stream (RST_STREAM)
// without affecting the rest of the connection.
type StreamError struct {
	StreamID uint32
	Code     ErrorCode
}

func NewStreamError(id uint32, code ErrorCode) *StreamError {
	return &StreamError{StreamID: id, Code: code}
}

func (e *StreamError) Error() string {
	return fmt.Sprintf("http2: stream %d error: %s", e.StreamID, e.Code)
}

func (e *StreamError) Is(code ErrorCode) bool { return e != nil && e.Code == code }

func (e *StreamError) Unwrap() error { return e.Code }

// Sentinel errors for conditions that aren't wire-level protocol errors.
var (
	ErrNeedMore        = errors.New("http2: not enough bytes buffered to parse a frame")
	ErrStreamNotReady  = errors.New("http2: stream is not associated with a connection yet")
	ErrConnClosed      = errors.New("http2: connection is closed")
	ErrRequestCanceled = errors.New("http2: request timed out")
	ErrPushDisabled    = errors.New("http2: server push disabled by local settings")
)
