package http2

import (
	"github.com/kianmeng/h2core/http2utils"
)

// promisedStreamFieldLen is the fixed-size Promised Stream ID field that
// precedes the header block fragment (RFC 7540 §6.6).
const promisedStreamFieldLen = 4

// PushPromise announces a stream the peer intends to open on our behalf
// (RFC 7540 §6.6). The client core only ever decodes these; a client never
// originates a PUSH_PROMISE, so Serialize exists solely for the test
// harness's fake peer.
type PushPromise struct {
	promisedStream uint32
	rawHeaders     []byte

	hasPadding bool
	endHeaders bool
}

var _ FrameBody = (*PushPromise)(nil)

func (pp *PushPromise) Type() FrameType { return FramePushPromise }

func (pp *PushPromise) Reset() {
	*pp = PushPromise{rawHeaders: pp.rawHeaders[:0]}
}

// PromisedStreamID is the id the peer reserved for the pushed response.
// Always even: only the server side of the RFC's stream-id parity ever
// initiates a push.
func (pp *PushPromise) PromisedStreamID() uint32 { return pp.promisedStream }
func (pp *PushPromise) SetPromisedStreamID(id uint32) { pp.promisedStream = id & (1<<31 - 1) }

func (pp *PushPromise) Headers() []byte     { return pp.rawHeaders }
func (pp *PushPromise) SetHeaders(b []byte) { pp.rawHeaders = append(pp.rawHeaders[:0], b...) }

func (pp *PushPromise) Padding() bool        { return pp.hasPadding }
func (pp *PushPromise) SetPadding(v bool)    { pp.hasPadding = v }
func (pp *PushPromise) EndHeaders() bool     { return pp.endHeaders }
func (pp *PushPromise) SetEndHeaders(v bool) { pp.endHeaders = v }

func (pp *PushPromise) Serialize(fr *FrameHeader) {
	payload := http2utils.AppendUint32Bytes(fr.payload[:0], pp.promisedStream)
	payload = append(payload, pp.rawHeaders...)

	if pp.hasPadding {
		fr.SetFlags(fr.Flags().Add(FlagPadded))
		payload = http2utils.AddPadding(payload)
	}
	if pp.endHeaders {
		fr.SetFlags(fr.Flags().Add(FlagEndHeaders))
	}

	fr.setPayload(payload)
}

// Deserialize unwraps padding once, then splits what remains into the fixed
// promised-stream-id field and the header block fragment. Unlike Headers,
// there's no variable-length priority prefix to peel off first, so the whole
// payload after unpadding needs exactly one length check.
func (pp *PushPromise) Deserialize(fr *FrameHeader) error {
	pp.hasPadding = fr.Flags().Has(FlagPadded)
	pp.endHeaders = fr.Flags().Has(FlagEndHeaders)

	payload := fr.payload
	if pp.hasPadding {
		var err error
		payload, err = stripPadding(payload, fr.Len(), "PUSH_PROMISE")
		if err != nil {
			return err
		}
	}

	if len(payload) < promisedStreamFieldLen {
		return NewGoAwayError(FrameSizeError, "PUSH_PROMISE payload is shorter than the promised stream id field")
	}

	pp.promisedStream = http2utils.BytesToUint32(payload[:promisedStreamFieldLen]) & (1<<31 - 1)
	pp.SetHeaders(payload[promisedStreamFieldLen:])

	return nil
}
