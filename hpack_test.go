package http2

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHPACKEncodeDecodeRoundTrip(t *testing.T) {
	enc := newHPACK()
	dec := newHPACK()

	fields := []HeaderField{
		{Name: ":method", Value: "GET"},
		{Name: ":path", Value: "/"},
		{Name: "accept-encoding", Value: "gzip"},
	}

	block := enc.EncodeHeaders(fields)
	require.NotEmpty(t, block)

	got, err := dec.DecodeHeaders(block)
	require.NoError(t, err)
	require.Len(t, got, len(fields))
	for i, f := range fields {
		require.Equal(t, f.Name, got[i].Name)
		require.Equal(t, f.Value, got[i].Value)
	}
}

func TestHPACKSensitiveHeaderNeverIndexed(t *testing.T) {
	enc := newHPACK()
	dec := newHPACK()

	block := enc.EncodeHeaders([]HeaderField{
		{Name: "authorization", Value: "Bearer secret"},
	})

	got, err := dec.DecodeHeaders(block)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.True(t, got[0].Sensitive)
	require.Equal(t, "Bearer secret", got[0].Value)
}

func TestHPACKDisableCompressionIsStable(t *testing.T) {
	enc := newHPACK()
	enc.DisableCompression = true

	first := enc.EncodeHeaders([]HeaderField{{Name: "x-a", Value: "1"}})
	second := enc.EncodeHeaders([]HeaderField{{Name: "x-a", Value: "1"}})
	require.Equal(t, first, second, "literal-never-indexed encoding should not depend on dynamic table state")
}

func TestHPACKMaxHeaderListSizeRejectsOversizedBlock(t *testing.T) {
	enc := newHPACK()
	dec := newHPACK()
	dec.SetMaxHeaderListSize(1)

	block := enc.EncodeHeaders([]HeaderField{
		{Name: "x-long", Value: "this value is long enough to blow the tiny limit"},
	})

	_, err := dec.DecodeHeaders(block)
	require.Error(t, err)
	require.ErrorIs(t, err, CompressionError)
}

func TestHPACKResetClearsDynamicTable(t *testing.T) {
	h := newHPACK()
	first := h.EncodeHeaders([]HeaderField{{Name: "x-a", Value: "1"}})
	h.Reset()
	require.False(t, h.DisableCompression)
	require.Equal(t, first, h.EncodeHeaders([]HeaderField{{Name: "x-a", Value: "1"}}),
		"after Reset the field is encoded as a new literal, not as a dynamic table index")
}
