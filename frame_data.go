package http2

import (
	"github.com/kianmeng/h2core/http2utils"
)

// Data carries the body of a request/response (RFC 7540 §6.1).
type Data struct {
	data      []byte
	endStream bool
	pad       bool
}

var _ FrameBody = (*Data)(nil)

func (d *Data) Type() FrameType { return FrameData }

func (d *Data) Reset() {
	d.data = d.data[:0]
	d.endStream = false
	d.pad = false
}

func (d *Data) Data() []byte           { return d.data }
func (d *Data) SetData(b []byte)       { d.data = append(d.data[:0], b...) }
func (d *Data) EndStream() bool        { return d.endStream }
func (d *Data) SetEndStream(v bool)    { d.endStream = v }
func (d *Data) Padding() bool          { return d.pad }
func (d *Data) SetPadding(v bool)      { d.pad = v }
func (d *Data) Len() int               { return len(d.data) }

// Write implements io.Writer so a Data body can be built incrementally.
func (d *Data) Write(b []byte) (int, error) {
	d.data = append(d.data, b...)
	return len(b), nil
}

func (d *Data) CopyTo(dst *Data) {
	dst.SetData(d.data)
	dst.endStream = d.endStream
	dst.pad = d.pad
}

func (d *Data) Serialize(fr *FrameHeader) {
	payload := d.data
	if d.pad {
		fr.SetFlags(fr.Flags().Add(FlagPadded))
		payload = http2utils.AddPadding(payload)
	}
	if d.endStream {
		fr.SetFlags(fr.Flags().Add(FlagEndStream))
	}
	fr.setPayload(payload)
}

func (d *Data) Deserialize(fr *FrameHeader) error {
	payload := fr.payload

	if fr.Flags().Has(FlagPadded) {
		d.pad = true
		var err error
		payload, err = stripPadding(payload, fr.Len(), "DATA")
		if err != nil {
			return err
		}
	}

	d.SetData(payload)
	d.endStream = fr.Flags().Has(FlagEndStream)

	return nil
}
