package http2

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStreamRequestLifecycle(t *testing.T) {
	s := newStream(1, defaultWindowSize, defaultWindowSize)
	require.Equal(t, StreamIdle, s.State())

	require.NoError(t, s.transition(evtSendHeaders))
	require.Equal(t, StreamOpen, s.State())

	require.NoError(t, s.transition(evtSendEndStream))
	require.Equal(t, StreamHalfClosedLocal, s.State())
	require.True(t, s.active())

	require.NoError(t, s.transition(evtRecvEndStream))
	require.Equal(t, StreamClosed, s.State())
	require.False(t, s.active())
}

func TestStreamPushPromiseLifecycle(t *testing.T) {
	s := newStream(2, defaultWindowSize, defaultWindowSize)
	s.isPush = true

	require.NoError(t, s.transition(evtRecvPushPromise))
	require.Equal(t, StreamReservedRemote, s.State())

	require.NoError(t, s.transition(evtRecvHeaders))
	require.Equal(t, StreamHalfClosedLocal, s.State())

	require.NoError(t, s.transition(evtRecvEndStream))
	require.Equal(t, StreamClosed, s.State())
}

func TestStreamSendHeadersFromNonIdleIsProtocolError(t *testing.T) {
	s := newStream(1, defaultWindowSize, defaultWindowSize)
	require.NoError(t, s.transition(evtSendHeaders))

	err := s.transition(evtSendHeaders)
	require.ErrorIs(t, err, ProtocolError)
}

func TestStreamFramesOnClosedStreamAreStreamClosedError(t *testing.T) {
	s := newStream(1, defaultWindowSize, defaultWindowSize)
	require.NoError(t, s.transition(evtSendHeaders))
	require.NoError(t, s.transition(evtSendRst))
	require.Equal(t, StreamClosed, s.State())

	err := s.transition(evtRecvHeaders)
	require.ErrorIs(t, err, StreamClosedError)
}

func TestStreamRstIsIdempotent(t *testing.T) {
	s := newStream(1, defaultWindowSize, defaultWindowSize)
	require.NoError(t, s.transition(evtSendRst))
	require.NoError(t, s.transition(evtRecvRst))
	require.Equal(t, StreamClosed, s.State())
}

func TestHeaderBlockAssemblyAcrossContinuation(t *testing.T) {
	s := newStream(1, defaultWindowSize, defaultWindowSize)
	s.beginHeaderBlock([]byte("part1"), false, true)
	require.False(t, s.headerBlockDone())

	s.appendContinuation([]byte("part2"), true)
	require.True(t, s.headerBlockDone())

	block := s.takeHeaderBlock()
	require.Equal(t, "part1part2", string(block))
	require.False(t, s.headerBlockDone(), "taking the block clears the assembly flag")
}

func TestHasPendingBody(t *testing.T) {
	s := newStream(1, defaultWindowSize, defaultWindowSize)
	require.False(t, s.hasPendingBody())

	s.pendingBody = []byte("abc")
	require.True(t, s.hasPendingBody())

	s.pendingOffset = 3
	require.False(t, s.hasPendingBody())
}
