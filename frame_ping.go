package http2

import (
	"encoding/binary"
	"time"
)

// Ping is a connectivity/RTT probe carrying 8 opaque bytes (RFC 7540 §6.7).
type Ping struct {
	ack  bool
	data [8]byte
}

var _ FrameBody = (*Ping)(nil)

func (p *Ping) Type() FrameType { return FramePing }

func (p *Ping) Reset() {
	p.ack = false
	p.data = [8]byte{}
}

func (p *Ping) IsAck() bool     { return p.ack }
func (p *Ping) SetAck(v bool)   { p.ack = v }
func (p *Ping) Data() []byte    { return p.data[:] }

func (p *Ping) SetData(b []byte) {
	n := copy(p.data[:], b)
	for ; n < len(p.data); n++ {
		p.data[n] = 0
	}
}

// SetCurrentTime encodes time.Now() into the opaque payload so a reply's
// round-trip time can be measured without a side table of outstanding pings.
func (p *Ping) SetCurrentTime() {
	binary.BigEndian.PutUint64(p.data[:], uint64(time.Now().UnixNano()))
}

// DataAsTime decodes a payload previously written by SetCurrentTime.
func (p *Ping) DataAsTime() time.Time {
	return time.Unix(0, int64(binary.BigEndian.Uint64(p.data[:])))
}

func (p *Ping) Write(b []byte) (int, error) {
	p.SetData(b)
	return len(b), nil
}

func (p *Ping) CopyTo(dst *Ping) {
	dst.ack = p.ack
	dst.data = p.data
}

func (p *Ping) Serialize(fr *FrameHeader) {
	if p.ack {
		fr.SetFlags(fr.Flags().Add(FlagAck))
	}
	fr.setPayload(p.data[:])
}

func (p *Ping) Deserialize(fr *FrameHeader) error {
	if len(fr.payload) != 8 {
		return NewGoAwayError(FrameSizeError, "PING payload is not 8 bytes")
	}
	copy(p.data[:], fr.payload[:8])
	p.ack = fr.Flags().Has(FlagAck)
	return nil
}
