package http2

import "github.com/kianmeng/h2core/http2utils"

// RstStream aborts a stream (RFC 7540 §6.4).
type RstStream struct {
	code ErrorCode
}

var _ FrameBody = (*RstStream)(nil)

func (r *RstStream) Type() FrameType { return FrameRstStream }

func (r *RstStream) Reset() { r.code = NoError }

func (r *RstStream) Code() ErrorCode     { return r.code }
func (r *RstStream) SetCode(c ErrorCode) { r.code = c }

func (r *RstStream) CopyTo(dst *RstStream) { dst.code = r.code }

func (r *RstStream) Serialize(fr *FrameHeader) {
	fr.setPayload(http2utils.AppendUint32Bytes(fr.payload[:0], uint32(r.code)))
}

func (r *RstStream) Deserialize(fr *FrameHeader) error {
	if len(fr.payload) != 4 {
		return NewGoAwayError(FrameSizeError, "RST_STREAM payload is not 4 bytes")
	}
	r.code = ErrorCode(http2utils.BytesToUint32(fr.payload[:4]))
	return nil
}
