package http2

import "github.com/kianmeng/h2core/http2utils"

// WindowUpdate grants additional flow-control credit (RFC 7540 §6.9). A zero
// increment is a protocol error on stream 0 and a flow-control error on any
// other stream; the codec itself only parses the value, the connection
// state machine enforces the distinction since it alone knows the stream
// id's role.
type WindowUpdate struct {
	increment uint32
}

var _ FrameBody = (*WindowUpdate)(nil)

func (w *WindowUpdate) Type() FrameType { return FrameWindowUpdate }

func (w *WindowUpdate) Reset() { w.increment = 0 }

func (w *WindowUpdate) Increment() int         { return int(w.increment) }
func (w *WindowUpdate) SetIncrement(n uint32)  { w.increment = n & (1<<31 - 1) }

func (w *WindowUpdate) CopyTo(dst *WindowUpdate) { dst.increment = w.increment }

func (w *WindowUpdate) Serialize(fr *FrameHeader) {
	fr.setPayload(http2utils.AppendUint32Bytes(fr.payload[:0], w.increment&(1<<31-1)))
}

func (w *WindowUpdate) Deserialize(fr *FrameHeader) error {
	if len(fr.payload) != 4 {
		return NewGoAwayError(FrameSizeError, "WINDOW_UPDATE payload is not 4 bytes")
	}
	w.increment = http2utils.BytesToUint32(fr.payload[:4]) & (1<<31 - 1)
	return nil
}
