package http2

// Continuation carries the remainder of a header block that didn't fit in
// the initiating HEADERS/PUSH_PROMISE frame (RFC 7540 §6.10).
type Continuation struct {
	endHeaders bool
	header     []byte
}

var _ FrameBody = (*Continuation)(nil)

func (c *Continuation) Type() FrameType { return FrameContinuation }

func (c *Continuation) Reset() {
	c.endHeaders = false
	c.header = c.header[:0]
}

func (c *Continuation) EndHeaders() bool     { return c.endHeaders }
func (c *Continuation) SetEndHeaders(v bool) { c.endHeaders = v }
func (c *Continuation) Headers() []byte      { return c.header }
func (c *Continuation) SetHeader(b []byte)   { c.header = append(c.header[:0], b...) }
func (c *Continuation) AppendHeader(b []byte) { c.header = append(c.header, b...) }

func (c *Continuation) Write(b []byte) (int, error) {
	c.header = append(c.header, b...)
	return len(b), nil
}

func (c *Continuation) CopyTo(dst *Continuation) {
	dst.endHeaders = c.endHeaders
	dst.SetHeader(c.header)
}

func (c *Continuation) Serialize(fr *FrameHeader) {
	if c.endHeaders {
		fr.SetFlags(fr.Flags().Add(FlagEndHeaders))
	}
	fr.setPayload(c.header)
}

func (c *Continuation) Deserialize(fr *FrameHeader) error {
	c.SetHeader(fr.payload)
	c.endHeaders = fr.Flags().Has(FlagEndHeaders)
	return nil
}
