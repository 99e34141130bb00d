// Package http2utils holds small byte-level helpers shared by the frame codec
// and HPACK context: big-endian integer packing, ASCII case folding, buffer
// resizing, and RFC 7540 frame padding.
package http2utils

import (
	"errors"
	"fmt"
	"unsafe"
)

// ErrPadding is returned when a frame's declared pad length does not fit
// inside its payload.
var ErrPadding = errors.New("http2utils: invalid padding length")

// Uint24ToBytes writes the low 24 bits of v into b (big-endian). b must have
// length >= 3.
func Uint24ToBytes(b []byte, v uint32) {
	_ = b[2]
	b[0] = byte(v >> 16)
	b[1] = byte(v >> 8)
	b[2] = byte(v)
}

// BytesToUint24 reads a big-endian 24-bit integer from b.
func BytesToUint24(b []byte) uint32 {
	_ = b[2]
	return uint32(b[0])<<16 | uint32(b[1])<<8 | uint32(b[2])
}

// Uint32ToBytes writes v into b (big-endian). b must have length >= 4.
func Uint32ToBytes(b []byte, v uint32) {
	_ = b[3]
	b[0] = byte(v >> 24)
	b[1] = byte(v >> 16)
	b[2] = byte(v >> 8)
	b[3] = byte(v)
}

// BytesToUint32 reads a big-endian 32-bit integer from b.
func BytesToUint32(b []byte) uint32 {
	_ = b[3]
	return uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])
}

// AppendUint32Bytes appends the big-endian encoding of v to dst.
func AppendUint32Bytes(dst []byte, v uint32) []byte {
	return append(dst, byte(v>>24), byte(v>>16), byte(v>>8), byte(v))
}

// EqualsFold reports whether a and b are equal ignoring ASCII case, without
// allocating. Used for header-name comparisons in HPACK and pseudo-header
// validation.
func EqualsFold(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		ca, cb := a[i], b[i]
		if ca >= 'A' && ca <= 'Z' {
			ca += 'a' - 'A'
		}
		if cb >= 'A' && cb <= 'Z' {
			cb += 'a' - 'A'
		}
		if ca != cb {
			return false
		}
	}
	return true
}

// Resize returns b with length n, reusing its capacity when possible.
func Resize(b []byte, n int) []byte {
	if cap(b) >= n {
		return b[:n]
	}
	return make([]byte, n)
}

// FastBytesToString converts b to a string without copying. The caller must
// not mutate b after the conversion.
func FastBytesToString(b []byte) string {
	if len(b) == 0 {
		return ""
	}
	return unsafe.String(&b[0], len(b))
}

// AddPadding prepends a one-byte pad length and appends that many zero bytes
// to src, per RFC 7540 §6.1. The pad length is always at least 1 so padded
// frames are distinguishable from unpadded ones in tests and traces.
func AddPadding(src []byte) []byte {
	padLen := byte(1 + len(src)%8)

	out := make([]byte, 0, 1+len(src)+int(padLen))
	out = append(out, padLen)
	out = append(out, src...)
	for i := byte(0); i < padLen; i++ {
		out = append(out, 0)
	}
	return out
}

// CutPadding strips the leading pad-length byte and trailing padding from a
// PADDED frame's payload, which is frameLen bytes long. It returns
// ErrPadding if the declared pad length does not fit.
func CutPadding(payload []byte, frameLen int) ([]byte, error) {
	if len(payload) == 0 {
		return nil, ErrPadding
	}

	padLen := int(payload[0])
	if padLen+1 > frameLen || padLen+1 > len(payload) {
		return nil, ErrPadding
	}

	return payload[1 : len(payload)-padLen], nil
}

// AssertEqual is a tiny table-test helper: it fails tb with a formatted
// diff when expect != result.
func AssertEqual(tb testingTB, expect, result any, description ...string) {
	if fmt.Sprint(expect) == fmt.Sprint(result) {
		return
	}

	desc := ""
	if len(description) > 0 {
		desc = description[0]
	}

	tb.Fatalf("%s: Description: %s\nExpect: %v\nResult: %v", tb.Name(), desc, expect, result)
}

// testingTB is the minimal subset of testing.TB that AssertEqual needs, kept
// as an interface so tests can supply a recording fake.
type testingTB interface {
	Name() string
	Fatalf(format string, args ...any)
}
