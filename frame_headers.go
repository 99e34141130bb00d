package http2

import (
	"github.com/kianmeng/h2core/http2utils"
)

// Headers carries a header block fragment plus optional priority
// information (RFC 7540 §6.2).
type Headers struct {
	hasPadding bool
	endStream  bool
	endHeaders bool
	priority   bool

	stream     uint32 // priority stream dependency
	exclusive  bool
	weight     uint8

	rawHeaders []byte
}

var _ FrameBody = (*Headers)(nil)

func (h *Headers) Type() FrameType { return FrameHeaders }

func (h *Headers) Reset() {
	h.hasPadding = false
	h.endStream = false
	h.endHeaders = false
	h.priority = false
	h.stream = 0
	h.exclusive = false
	h.weight = 0
	h.rawHeaders = h.rawHeaders[:0]
}

func (h *Headers) Padding() bool       { return h.hasPadding }
func (h *Headers) SetPadding(v bool)   { h.hasPadding = v }
func (h *Headers) EndStream() bool     { return h.endStream }
func (h *Headers) SetEndStream(v bool) { h.endStream = v }
func (h *Headers) EndHeaders() bool    { return h.endHeaders }
func (h *Headers) SetEndHeaders(v bool){ h.endHeaders = v }
func (h *Headers) Priority() bool      { return h.priority }
func (h *Headers) SetPriority(v bool)  { h.priority = v }
func (h *Headers) Stream() uint32      { return h.stream }
func (h *Headers) SetStream(id uint32) { h.stream = id & (1<<31 - 1) }
func (h *Headers) Exclusive() bool     { return h.exclusive }
func (h *Headers) SetExclusive(v bool) { h.exclusive = v }
func (h *Headers) Weight() uint8       { return h.weight }
func (h *Headers) SetWeight(w uint8)   { h.weight = w }
func (h *Headers) Headers() []byte     { return h.rawHeaders }

func (h *Headers) SetHeaders(b []byte)      { h.rawHeaders = append(h.rawHeaders[:0], b...) }
func (h *Headers) AppendRawHeaders(b []byte) { h.rawHeaders = append(h.rawHeaders, b...) }

func (h *Headers) Write(b []byte) (int, error) {
	h.rawHeaders = append(h.rawHeaders, b...)
	return len(b), nil
}

func (h *Headers) CopyTo(dst *Headers) {
	dst.hasPadding = h.hasPadding
	dst.endStream = h.endStream
	dst.endHeaders = h.endHeaders
	dst.priority = h.priority
	dst.stream = h.stream
	dst.exclusive = h.exclusive
	dst.weight = h.weight
	dst.SetHeaders(h.rawHeaders)
}

func (h *Headers) Serialize(fr *FrameHeader) {
	payload := make([]byte, 0, 5+len(h.rawHeaders))

	if h.priority {
		dep := h.stream
		if h.exclusive {
			dep |= 1 << 31
		}
		payload = http2utils.AppendUint32Bytes(payload, dep)
		payload = append(payload, h.weight)
		fr.SetFlags(fr.Flags().Add(FlagPriority))
	}

	payload = append(payload, h.rawHeaders...)

	if h.hasPadding {
		fr.SetFlags(fr.Flags().Add(FlagPadded))
		payload = http2utils.AddPadding(payload)
	}
	if h.endStream {
		fr.SetFlags(fr.Flags().Add(FlagEndStream))
	}
	if h.endHeaders {
		fr.SetFlags(fr.Flags().Add(FlagEndHeaders))
	}

	fr.setPayload(payload)
}

func (h *Headers) Deserialize(fr *FrameHeader) error {
	payload := fr.payload

	if fr.Flags().Has(FlagPadded) {
		h.hasPadding = true
		var err error
		payload, err = stripPadding(payload, fr.Len(), "HEADERS")
		if err != nil {
			return err
		}
	}

	if fr.Flags().Has(FlagPriority) {
		h.priority = true
		if len(payload) < 5 {
			return NewGoAwayError(FrameSizeError, "HEADERS priority fields truncated")
		}
		dep := http2utils.BytesToUint32(payload[:4])
		h.exclusive = dep&(1<<31) != 0
		h.stream = dep & (1<<31 - 1)
		h.weight = payload[4]
		payload = payload[5:]
	}

	h.SetHeaders(payload)
	h.endStream = fr.Flags().Has(FlagEndStream)
	h.endHeaders = fr.Flags().Has(FlagEndHeaders)

	return nil
}
