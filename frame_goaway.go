package http2

import "github.com/kianmeng/h2core/http2utils"

// GoAway signals connection shutdown (RFC 7540 §6.8): the highest stream id
// the sender will still process, an error code, and optional debug data.
type GoAway struct {
	lastStream uint32
	code       ErrorCode
	debug      []byte
}

var _ FrameBody = (*GoAway)(nil)

func (g *GoAway) Type() FrameType { return FrameGoAway }

func (g *GoAway) Reset() {
	g.lastStream = 0
	g.code = NoError
	g.debug = g.debug[:0]
}

// Stream reports the last-stream-id field. Named Stream (not LastStreamID)
// to match how the codec's other frame types expose their primary id field.
func (g *GoAway) Stream() uint32      { return g.lastStream }
func (g *GoAway) SetStream(id uint32) { g.lastStream = id & (1<<31 - 1) }
func (g *GoAway) Code() ErrorCode     { return g.code }
func (g *GoAway) SetCode(c ErrorCode) { g.code = c }
func (g *GoAway) Data() []byte        { return g.debug }
func (g *GoAway) SetData(b []byte)    { g.debug = append(g.debug[:0], b...) }

func (g *GoAway) Error() string { return g.code.String() }

func (g *GoAway) CopyTo(dst *GoAway) {
	dst.lastStream = g.lastStream
	dst.code = g.code
	dst.SetData(g.debug)
}

func (g *GoAway) Copy() *GoAway {
	dst := &GoAway{}
	g.CopyTo(dst)
	return dst
}

func (g *GoAway) Serialize(fr *FrameHeader) {
	payload := http2utils.AppendUint32Bytes(fr.payload[:0], g.lastStream)
	payload = http2utils.AppendUint32Bytes(payload, uint32(g.code))
	payload = append(payload, g.debug...)
	fr.setPayload(payload)
}

func (g *GoAway) Deserialize(fr *FrameHeader) error {
	if len(fr.payload) < 8 {
		return NewGoAwayError(FrameSizeError, "GOAWAY payload is shorter than 8 bytes")
	}
	g.lastStream = http2utils.BytesToUint32(fr.payload[:4]) & (1<<31 - 1)
	g.code = ErrorCode(http2utils.BytesToUint32(fr.payload[4:8]))
	g.SetData(fr.payload[8:])
	return nil
}
