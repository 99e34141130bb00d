package http2

import (
	"bytes"
	"sync"

	"golang.org/x/net/http2/hpack"
)

// HeaderField is the codec-facing header representation: name, value, and
// the two HPACK "don't index this" hints RFC 7541 §6.2.2/§6.2.3 define.
// Sensitive fields (e.g. Authorization, Cookie) are always emitted as
// "never indexed" literals so they can never leak into a dynamic table that
// a connection-level compromise could later dump.
type HeaderField struct {
	Name      string
	Value     string
	Sensitive bool
}

var headerFieldPool = sync.Pool{New: func() any { return &HeaderField{} }}

func AcquireHeaderField() *HeaderField {
	hf := headerFieldPool.Get().(*HeaderField)
	hf.Name, hf.Value, hf.Sensitive = "", "", false
	return hf
}

func ReleaseHeaderField(hf *HeaderField) {
	if hf != nil {
		headerFieldPool.Put(hf)
	}
}

func (hf *HeaderField) Key() string      { return hf.Name }
func (hf *HeaderField) IsSensible() bool { return hf.Sensitive }
func (hf *HeaderField) Empty() bool      { return hf.Name == "" }

func (hf *HeaderField) Set(name, value string) {
	hf.Name = name
	hf.Value = value
}

func (hf *HeaderField) SetBytes(name, value []byte) {
	hf.Name = string(name)
	hf.Value = string(value)
}

// sensitiveHeaders never get incremental HPACK indexing.
var sensitiveHeaders = map[string]bool{
	"authorization": true,
	"cookie":        true,
	"set-cookie":    true,
	"proxy-authorization": true,
}

// HPACK is the per-direction, per-connection HPACK context: a dynamic table
// plus the encode/decode operations built on top of it. One
// value is used for outbound (encoder) header blocks and a second, entirely
// independent value for inbound (decoder) header blocks — HPACK state is
// never shared across directions.
//
// It wraps golang.org/x/net/http2/hpack, the ecosystem-standard HPACK
// implementation, rather than hand-rolling a Huffman table and static
// table (see DESIGN.md).
type HPACK struct {
	enc *hpack.Encoder
	buf bytes.Buffer
	dec *hpack.Decoder

	// DisableCompression forces literal (never-indexed) representations for
	// every field, so the encoded bytes do not depend on dynamic table
	// state. String literals are still Huffman-coded when that is shorter.
	DisableCompression bool

	maxHeaderList uint32
}

func newHPACK() *HPACK {
	h := &HPACK{maxHeaderList: 0}
	h.enc = hpack.NewEncoder(&h.buf)
	h.dec = hpack.NewDecoder(defaultHeaderTableSize, nil)
	return h
}

var hpackPool = sync.Pool{New: func() any { return newHPACK() }}

func AcquireHPACK() *HPACK {
	return hpackPool.Get().(*HPACK)
}

func ReleaseHPACK(h *HPACK) {
	if h == nil {
		return
	}
	h.Reset()
	hpackPool.Put(h)
}

// Reset returns the context to a fresh state (both dynamic tables empty).
// A pooled HPACK reused for a new connection MUST be reset first, since
// unlike a fresh connection its tables would otherwise carry stale entries.
func (h *HPACK) Reset() {
	h.buf.Reset()
	h.enc = hpack.NewEncoder(&h.buf)
	h.dec = hpack.NewDecoder(defaultHeaderTableSize, nil)
	h.DisableCompression = false
	h.maxHeaderList = 0
}

// SetMaxTableSize applies a new SETTINGS_HEADER_TABLE_SIZE to the encoder
// side, issued when the peer advertises one: the encoder will emit a
// dynamic table size update at the start of the next header block it
// produces.
func (h *HPACK) SetMaxTableSize(n uint32) {
	h.enc.SetMaxDynamicTableSize(n)
}

// SetMaxDecoderTableSize bounds our own decoder-side dynamic table — the
// value we advertise to the peer via our own local SETTINGS_HEADER_TABLE_SIZE.
func (h *HPACK) SetMaxDecoderTableSize(n uint32) {
	h.dec.SetMaxDynamicTableSize(n)
}

// SetMaxHeaderListSize enforces SETTINGS_MAX_HEADER_LIST_SIZE: DecodeHeaders
// returns CompressionError once the cumulative decoded size exceeds it.
func (h *HPACK) SetMaxHeaderListSize(n uint32) {
	h.maxHeaderList = n
	h.dec.SetMaxStringLength(int(n))
}

// EncodeHeaders serializes fields into one HPACK header block. Sensitive
// fields are always literal-never-indexed; everything else is indexed
// normally unless DisableCompression forces literals.
func (h *HPACK) EncodeHeaders(fields []HeaderField) []byte {
	h.buf.Reset()

	for _, f := range fields {
		sensitive := f.Sensitive || sensitiveHeaders[f.Name]

		hf := hpack.HeaderField{
			Name:      f.Name,
			Value:     f.Value,
			Sensitive: sensitive,
		}

		if h.DisableCompression {
			// Never-indexed literal, so encoded bytes are stable and easy
			// to assert on in tests regardless of dynamic table state.
			hf.Sensitive = true
		}

		_ = h.enc.WriteField(hf)
	}

	out := make([]byte, h.buf.Len())
	copy(out, h.buf.Bytes())
	return out
}

// DecodeHeaders decodes a complete header block into a list of fields. Any
// decode error is fatal to the connection.
func (h *HPACK) DecodeHeaders(block []byte) ([]HeaderField, error) {
	raw, err := h.dec.DecodeFull(block)
	if err != nil {
		return nil, NewGoAwayError(CompressionError, err.Error())
	}

	totalSize := 0
	out := make([]HeaderField, len(raw))
	for i, f := range raw {
		out[i] = HeaderField{Name: f.Name, Value: f.Value, Sensitive: f.Sensitive}
		totalSize += len(f.Name) + len(f.Value) + 32
	}

	if h.maxHeaderList > 0 && uint32(totalSize) > h.maxHeaderList {
		return nil, NewGoAwayError(CompressionError, "decoded header list exceeds SETTINGS_MAX_HEADER_LIST_SIZE")
	}

	return out, nil
}

// Close releases the decoder's resources; safe to call multiple times.
func (h *HPACK) Close() error {
	return h.dec.Close()
}
