package http2

import "github.com/kianmeng/h2core/http2utils"

// Priority reprioritizes or reparents a stream (RFC 7540 §6.3). The client
// core parses and can emit it but never acts on priority signals — treated as
// an opaque courtesy to the peer.
type Priority struct {
	stream    uint32
	exclusive bool
	weight    uint8
}

var _ FrameBody = (*Priority)(nil)

func (p *Priority) Type() FrameType { return FramePriority }

func (p *Priority) Reset() { *p = Priority{} }

func (p *Priority) Stream() uint32      { return p.stream }
func (p *Priority) SetStream(id uint32) { p.stream = id & (1<<31 - 1) }
func (p *Priority) Exclusive() bool     { return p.exclusive }
func (p *Priority) SetExclusive(v bool) { p.exclusive = v }
func (p *Priority) Weight() uint8       { return p.weight }
func (p *Priority) SetWeight(w uint8)   { p.weight = w }

func (p *Priority) CopyTo(dst *Priority) { *dst = *p }

func (p *Priority) Serialize(fr *FrameHeader) {
	dep := p.stream
	if p.exclusive {
		dep |= 1 << 31
	}
	payload := http2utils.AppendUint32Bytes(fr.payload[:0], dep)
	payload = append(payload, p.weight)
	fr.setPayload(payload)
}

func (p *Priority) Deserialize(fr *FrameHeader) error {
	if len(fr.payload) != 5 {
		return NewGoAwayError(FrameSizeError, "PRIORITY payload is not 5 bytes")
	}
	dep := http2utils.BytesToUint32(fr.payload[:4])
	p.exclusive = dep&(1<<31) != 0
	p.stream = dep & (1<<31 - 1)
	p.weight = fr.payload[4]
	return nil
}
