package http2

import (
	"encoding/binary"
	"io"
	"sync"

	"github.com/kianmeng/h2core/http2utils"
)

// FrameType is the one-byte frame type field of the RFC 7540 §4.1 frame
// header.
type FrameType uint8

const (
	FrameData FrameType = iota
	FrameHeaders
	FramePriority
	FrameRstStream
	FrameSettings
	FramePushPromise
	FramePing
	FrameGoAway
	FrameWindowUpdate
	FrameContinuation
)

func (t FrameType) String() string {
	switch t {
	case FrameData:
		return "DATA"
	case FrameHeaders:
		return "HEADERS"
	case FramePriority:
		return "PRIORITY"
	case FrameRstStream:
		return "RST_STREAM"
	case FrameSettings:
		return "SETTINGS"
	case FramePushPromise:
		return "PUSH_PROMISE"
	case FramePing:
		return "PING"
	case FrameGoAway:
		return "GOAWAY"
	case FrameWindowUpdate:
		return "WINDOW_UPDATE"
	case FrameContinuation:
		return "CONTINUATION"
	}
	return itoa(uint32(t))
}

func itoa(v uint32) string {
	if v == 0 {
		return "0"
	}
	var b [10]byte
	i := len(b)
	for v > 0 {
		i--
		b[i] = byte('0' + v%10)
		v /= 10
	}
	return string(b[i:])
}

// FrameFlags is the one-byte flags field. The same bit means different things
// for different frame types (e.g. 0x1 is END_STREAM on DATA/HEADERS but ACK on
// SETTINGS/PING); callers interpret it in context of the frame type.
type FrameFlags uint8

const (
	FlagEndStream  FrameFlags = 0x1
	FlagAck        FrameFlags = 0x1
	FlagEndHeaders FrameFlags = 0x4
	FlagPadded     FrameFlags = 0x8
	FlagPriority   FrameFlags = 0x20
)

func (f FrameFlags) Has(flag FrameFlags) bool { return f&flag == flag }
func (f FrameFlags) Add(flag FrameFlags) FrameFlags { return f | flag }
func (f FrameFlags) Del(flag FrameFlags) FrameFlags { return f &^ flag }

// DefaultMaxFrameSize is the RFC 7540 §6.5.2 default for SETTINGS_MAX_FRAME_SIZE.
const DefaultMaxFrameSize = 1 << 14

// FrameBody is implemented by every concrete frame payload (Data, Headers,
// Settings, ...). Serialize appends the wire payload to fr and sets whatever
// flags the body implies; Deserialize does the inverse, reading fr.payload
// and fr.Flags().
type FrameBody interface {
	Type() FrameType
	Serialize(fr *FrameHeader)
	Deserialize(fr *FrameHeader) error
}

// FrameHeader is the 9-byte frame header plus the (owned) payload buffer and
// the parsed/to-be-serialized body. It is pooled: callers must call
// ReleaseFrameHeader when done to avoid a per-frame allocation on the hot
// path.
type FrameHeader struct {
	length  int
	typ     FrameType
	flags   FrameFlags
	stream  uint32
	payload []byte

	body FrameBody

	maxLen int
}

var frameHeaderPool = sync.Pool{
	New: func() any { return &FrameHeader{} },
}

func AcquireFrameHeader() *FrameHeader {
	fr := frameHeaderPool.Get().(*FrameHeader)
	fr.Reset()
	return fr
}

func ReleaseFrameHeader(fr *FrameHeader) {
	if fr == nil {
		return
	}
	frameHeaderPool.Put(fr)
}

func (fr *FrameHeader) Reset() {
	fr.length = 0
	fr.typ = FrameData
	fr.flags = 0
	fr.stream = 0
	fr.payload = fr.payload[:0]
	fr.body = nil
	fr.maxLen = DefaultMaxFrameSize
}

func (fr *FrameHeader) Type() FrameType       { return fr.typ }
func (fr *FrameHeader) Flags() FrameFlags     { return fr.flags }
func (fr *FrameHeader) SetFlags(f FrameFlags) { fr.flags = f }
func (fr *FrameHeader) Stream() uint32        { return fr.stream }
func (fr *FrameHeader) SetStream(id uint32)   { fr.stream = id & (1<<31 - 1) }
func (fr *FrameHeader) Len() int              { return len(fr.payload) }

// MaxLen returns the maximum payload length this header will parse or
// serialize (peer's SETTINGS_MAX_FRAME_SIZE for reads, ours for writes).
func (fr *FrameHeader) MaxLen() int {
	if fr.maxLen <= 0 {
		return DefaultMaxFrameSize
	}
	return fr.maxLen
}

func (fr *FrameHeader) SetMaxLen(n int) { fr.maxLen = n }

func (fr *FrameHeader) Body() FrameBody { return fr.body }

// SetBody attaches a body and derives the type field from it. Serialize must
// still be called by the caller to populate the payload.
func (fr *FrameHeader) SetBody(b FrameBody) {
	fr.body = b
	if b != nil {
		fr.typ = b.Type()
	}
}

func (fr *FrameHeader) setPayload(b []byte) { fr.payload = append(fr.payload[:0], b...) }

// stripPadding strips PADDED framing (RFC 7540 §6.1/§6.2/§6.6 all define the
// same one-byte-length-plus-trailer shape) from a frame body's payload.
// Every frame type that can carry padding — DATA, HEADERS, PUSH_PROMISE —
// calls this instead of touching http2utils.CutPadding directly, so a
// malformed pad length always surfaces as the connection-level
// PROTOCOL_ERROR RFC 7540 §6.1 requires rather than a bare decode error.
func stripPadding(payload []byte, frameLen int, frameName string) ([]byte, error) {
	out, err := http2utils.CutPadding(payload, frameLen)
	if err != nil {
		return nil, NewGoAwayError(ProtocolError, frameName+" has an invalid pad length")
	}
	return out, nil
}

// framePool holds one sync.Pool per frame type so AcquireFrame avoids an
// allocation for the common case of parsing a stream of frames.
var framePool = map[FrameType]*sync.Pool{
	FrameData:         {New: func() any { return &Data{} }},
	FrameHeaders:      {New: func() any { return &Headers{} }},
	FramePriority:     {New: func() any { return &Priority{} }},
	FrameRstStream:    {New: func() any { return &RstStream{} }},
	FrameSettings:     {New: func() any { return &Settings{} }},
	FramePushPromise:  {New: func() any { return &PushPromise{} }},
	FramePing:         {New: func() any { return &Ping{} }},
	FrameGoAway:       {New: func() any { return &GoAway{} }},
	FrameWindowUpdate: {New: func() any { return &WindowUpdate{} }},
	FrameContinuation: {New: func() any { return &Continuation{} }},
}

// AcquireFrame returns a pooled, reset FrameBody for the given type, or nil
// for a type unknown to this codec (RFC 7540 §4.1: unknown types are
// discarded by the caller, not an error).
func AcquireFrame(t FrameType) FrameBody {
	p, ok := framePool[t]
	if !ok {
		return nil
	}
	body := p.Get().(FrameBody)
	if r, ok := body.(interface{ Reset() }); ok {
		r.Reset()
	}
	return body
}

// ReleaseFrame returns b to its type's pool. Passing an unknown-type body is
// a silent no-op.
func ReleaseFrame(b FrameBody) {
	if b == nil {
		return
	}
	if p, ok := framePool[b.Type()]; ok {
		p.Put(b)
	}
}

// frameHeaderByteLen is the fixed RFC 7540 §4.1 header size.
const frameHeaderByteLen = 9

// ParseFrame parses one frame from buf. It returns the number of bytes
// consumed and either a decoded body (attached to fr) or ErrNeedMore if buf
// does not yet hold a complete frame. peerMaxFrameSize bounds the accepted
// payload length (FRAME_SIZE_ERROR otherwise).
func ParseFrame(fr *FrameHeader, buf []byte, peerMaxFrameSize int) (int, error) {
	if len(buf) < frameHeaderByteLen {
		return 0, ErrNeedMore
	}

	length := int(http2utils.BytesToUint24(buf[0:3]))
	typ := FrameType(buf[3])
	flags := FrameFlags(buf[4])
	stream := http2utils.BytesToUint32(buf[5:9]) & (1<<31 - 1)

	if peerMaxFrameSize <= 0 {
		peerMaxFrameSize = DefaultMaxFrameSize
	}
	if length > peerMaxFrameSize {
		return 0, NewGoAwayError(FrameSizeError, "frame length exceeds SETTINGS_MAX_FRAME_SIZE")
	}

	total := frameHeaderByteLen + length
	if len(buf) < total {
		return 0, ErrNeedMore
	}

	fr.length = length
	fr.typ = typ
	fr.flags = flags
	fr.stream = stream
	fr.setPayload(buf[frameHeaderByteLen:total])

	body := AcquireFrame(typ)
	fr.body = body
	if body == nil {
		// Unknown frame type: discarded per RFC 7540 §4.1, but the bytes
		// still count as consumed.
		return total, nil
	}

	if err := body.Deserialize(fr); err != nil {
		return total, err
	}

	return total, nil
}

// ReadFrom reads exactly one frame from r, blocking until the header and
// payload are available. It is a convenience used by tests and by any code
// path that already has an io.Reader instead of an accumulating buffer.
func (fr *FrameHeader) ReadFrom(r io.Reader) (int64, error) {
	var hdr [frameHeaderByteLen]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return 0, err
	}

	length := int(http2utils.BytesToUint24(hdr[0:3]))
	fr.typ = FrameType(hdr[3])
	fr.flags = FrameFlags(hdr[4])
	fr.stream = http2utils.BytesToUint32(hdr[5:9]) & (1<<31 - 1)
	fr.length = length

	if length > fr.MaxLen() {
		return 0, NewGoAwayError(FrameSizeError, "frame length exceeds SETTINGS_MAX_FRAME_SIZE")
	}

	fr.payload = http2utils.Resize(fr.payload, length)
	if length > 0 {
		if _, err := io.ReadFull(r, fr.payload); err != nil {
			return 0, err
		}
	}

	body := AcquireFrame(fr.typ)
	fr.body = body
	if body != nil {
		if err := body.Deserialize(fr); err != nil {
			return int64(frameHeaderByteLen + length), err
		}
	}

	return int64(frameHeaderByteLen + length), nil
}

// ReadFrameFrom is the acquire+ReadFrom convenience pair used by tests that
// read a serialized stream of frames back out of a buffer.
func ReadFrameFrom(r io.Reader) (*FrameHeader, error) {
	fr := AcquireFrameHeader()
	_, err := fr.ReadFrom(r)
	if err != nil {
		ReleaseFrameHeader(fr)
		return nil, err
	}
	return fr, nil
}

// WriteTo serializes the frame header and its body's already-populated
// payload to w. Callers must call fr.body.Serialize(fr) (or otherwise set
// fr.payload) before WriteTo.
func (fr *FrameHeader) WriteTo(w io.Writer) (int64, error) {
	var hdr [frameHeaderByteLen]byte
	http2utils.Uint24ToBytes(hdr[0:3], uint32(len(fr.payload)))
	hdr[3] = byte(fr.typ)
	hdr[4] = byte(fr.flags)
	binary.BigEndian.PutUint32(hdr[5:9], fr.stream&(1<<31-1))

	n, err := w.Write(hdr[:])
	if err != nil {
		return int64(n), err
	}
	m, err := w.Write(fr.payload)
	return int64(n + m), err
}

// Serialize is a convenience that calls fr.body.Serialize(fr) and records
// the resulting payload length, returning fr so it can be chained into
// WriteTo.
func (fr *FrameHeader) Serialize() (*FrameHeader, error) {
	if fr.body == nil {
		return fr, nil
	}
	if len(fr.payload) > fr.MaxLen() {
		return fr, NewGoAwayError(FrameSizeError, "payload exceeds MAX_FRAME_SIZE before serialize")
	}
	fr.body.Serialize(fr)
	fr.length = len(fr.payload)
	if fr.length > fr.MaxLen() {
		return fr, NewGoAwayError(FrameSizeError, "serialized frame exceeds MAX_FRAME_SIZE")
	}
	return fr, nil
}
