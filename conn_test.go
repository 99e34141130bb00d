package http2

import (
	"encoding/binary"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"
)

// sendRawFrame writes a frame header and payload directly to the wire,
// bypassing the codec's own Serialize so a test can produce byte sequences
// no well-formed FrameBody would ever build, like an invalid pad length.
func sendRawFrame(t *testing.T, nc net.Conn, typ FrameType, flags FrameFlags, stream uint32, payload []byte) {
	t.Helper()
	var hdr [9]byte
	hdr[0] = byte(len(payload) >> 16)
	hdr[1] = byte(len(payload) >> 8)
	hdr[2] = byte(len(payload))
	hdr[3] = byte(typ)
	hdr[4] = byte(flags)
	binary.BigEndian.PutUint32(hdr[5:9], stream&(1<<31-1))

	_, err := nc.Write(hdr[:])
	require.NoError(t, err)
	_, err = nc.Write(payload)
	require.NoError(t, err)
}

// fakePeer drives the far end of a net.Pipe as a minimal HTTP/2 server: it
// consumes the client preface and then hands every frame it reads, starting
// with the client's SETTINGS, to the test through frames. The test sends the
// server's frames itself with send/sendSettings.
type fakePeer struct {
	nc     net.Conn
	dec    *HPACK
	enc    *HPACK
	frames chan *FrameHeader
}

func newFakePeer(t *testing.T, nc net.Conn) *fakePeer {
	p := &fakePeer{nc: nc, dec: newHPACK(), enc: newHPACK(), frames: make(chan *FrameHeader, 16)}

	go func() {
		var preface [24]byte
		if _, err := nc.Read(preface[:]); err != nil {
			return
		}
		for {
			fr, err := ReadFrameFrom(nc)
			if err != nil {
				close(p.frames)
				return
			}
			p.frames <- fr
		}
	}()

	return p
}

func (p *fakePeer) send(t *testing.T, stream uint32, body FrameBody) {
	t.Helper()
	fr := AcquireFrameHeader()
	fr.SetStream(stream)
	fr.SetBody(body)
	_, err := fr.Serialize()
	require.NoError(t, err)
	_, err = fr.WriteTo(p.nc)
	require.NoError(t, err)
	ReleaseFrameHeader(fr)
}

func (p *fakePeer) sendSettings(t *testing.T, s *Settings) {
	p.send(t, 0, s)
}

func (p *fakePeer) next(t *testing.T) *FrameHeader {
	t.Helper()
	select {
	case fr, ok := <-p.frames:
		require.True(t, ok, "peer connection closed while waiting for a frame")
		return fr
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for a frame from the client")
		return nil
	}
}

// nextOfType drains frames until it finds one of type want, tolerating
// interleaved PING/WINDOW_UPDATE traffic the actor may also send.
func (p *fakePeer) nextOfType(t *testing.T, want FrameType) *FrameHeader {
	t.Helper()
	for i := 0; i < 10; i++ {
		fr := p.next(t)
		if fr.Type() == want {
			return fr
		}
	}
	t.Fatalf("did not see a %s frame", want)
	return nil
}

func dialTestConn(t *testing.T) (*Conn, *fakePeer) {
	t.Helper()
	clientSide, serverSide := net.Pipe()
	peer := newFakePeer(t, serverSide)

	connCh := make(chan *Conn, 1)
	errCh := make(chan error, 1)
	go func() {
		c, err := newConn(clientSide, ConnOpts{PingInterval: -1, Debug: false})
		if err != nil {
			errCh <- err
			return
		}
		connCh <- c
	}()

	// Drain the handshake SETTINGS frame and ack it, then announce generous
	// server settings so the admission queue has credit to open streams.
	settingsFrame := peer.nextOfType(t, FrameSettings)
	require.False(t, settingsFrame.Body().(*Settings).IsAck())

	ack := AcquireFrame(FrameSettings).(*Settings)
	ack.SetAck(true)
	peer.sendSettings(t, ack)

	srv := AcquireFrame(FrameSettings).(*Settings)
	srv.SetMaxConcurrentStreams(10)
	srv.SetMaxWindowSize(1 << 20)
	peer.sendSettings(t, srv)

	select {
	case c := <-connCh:
		t.Cleanup(func() { _ = c.Close() })
		// Consume the SETTINGS ack the client sends in response to srv.
		peer.nextOfType(t, FrameSettings)
		return c, peer
	case err := <-errCh:
		t.Fatalf("dial failed: %v", err)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out establishing connection")
	}
	return nil, nil
}

func TestConnRequestResponseRoundTrip(t *testing.T) {
	c, peer := dialTestConn(t)

	req := fasthttp.AcquireRequest()
	req.SetRequestURI("https://example.com/hello")
	req.Header.SetMethod("GET")
	res := fasthttp.AcquireResponse()

	errCh := make(chan error, 1)
	ctx := &Ctx{Request: req, Response: res, Err: errCh}
	require.NoError(t, c.Submit(ctx))

	hfr := peer.nextOfType(t, FrameHeaders)
	h := hfr.Body().(*Headers)
	require.True(t, h.EndHeaders())
	require.True(t, h.EndStream())

	fields, err := peer.dec.DecodeHeaders(h.Headers())
	require.NoError(t, err)
	byName := map[string]string{}
	for _, f := range fields {
		byName[f.Name] = f.Value
	}
	require.Equal(t, "GET", byName[":method"])
	require.Equal(t, "/hello", byName[":path"])

	respBlock := peer.enc.EncodeHeaders([]HeaderField{
		{Name: ":status", Value: "200"},
		{Name: "content-type", Value: "text/plain"},
	})
	respHeaders := AcquireFrame(FrameHeaders).(*Headers)
	respHeaders.SetHeaders(respBlock)
	respHeaders.SetEndHeaders(true)
	peer.send(t, hfr.Stream(), respHeaders)

	data := AcquireFrame(FrameData).(*Data)
	data.SetData([]byte("hello world"))
	data.SetEndStream(true)
	peer.send(t, hfr.Stream(), data)

	select {
	case err := <-errCh:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for the response")
	}

	require.Equal(t, 200, res.StatusCode())
	require.Equal(t, "hello world", string(res.Body()))
	require.Equal(t, "text/plain", string(res.Header.ContentType()))
}

func TestConnPingReplyEchoesPayload(t *testing.T) {
	c, peer := dialTestConn(t)

	ping := AcquireFrame(FramePing).(*Ping)
	ping.SetData([]byte("12345678"))
	peer.send(t, 0, ping)

	reply := peer.nextOfType(t, FramePing)
	got := reply.Body().(*Ping)
	require.True(t, got.IsAck())
	require.Equal(t, []byte("12345678"), got.Data())

	_ = c
}

func TestConnGoAwayRefusesUnprocessedStream(t *testing.T) {
	c, peer := dialTestConn(t)

	goAway := AcquireFrame(FrameGoAway).(*GoAway)
	goAway.SetStream(0)
	goAway.SetCode(NoError)
	peer.send(t, 0, goAway)

	req := fasthttp.AcquireRequest()
	req.SetRequestURI("https://example.com/late")
	res := fasthttp.AcquireResponse()
	ctx := &Ctx{Request: req, Response: res, Err: make(chan error, 1)}

	result := make(chan error, 1)
	// The connection tears down once GOAWAY leaves it with no streams, so
	// Submit racing that teardown must resolve rather than hang forever,
	// whether it fails outright or is accepted and then aborted.
	go func() {
		if err := c.Submit(ctx); err != nil {
			result <- err
			return
		}
		result <- <-ctx.Err
	}()

	select {
	case err := <-result:
		require.Error(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("submit after GOAWAY never resolved")
	}
}

// TestConnMalformedPaddingSendsGoAway checks that a DATA frame claiming a
// pad length longer than its own payload — invalid per RFC 7540 §6.1 — tears
// the connection down via an outbound GOAWAY(PROTOCOL_ERROR) rather than a
// silent close.
func TestConnMalformedPaddingSendsGoAway(t *testing.T) {
	c, peer := dialTestConn(t)

	// Pad Length byte claims 255 bytes of trailing padding, but the frame
	// carries only that one byte total.
	sendRawFrame(t, peer.nc, FrameData, FlagPadded, 1, []byte{0xFF})

	fr := peer.nextOfType(t, FrameGoAway)
	ga := fr.Body().(*GoAway)
	require.Equal(t, ProtocolError, ga.Code())

	_ = c
}

// TestConnUnboundedAdmissionWithoutMaxConcurrentStreams checks that a peer
// which never sends SETTINGS_MAX_CONCURRENT_STREAMS still admits requests,
// per the RFC 7540 §6.5.2 "unbounded" default rather than a zero-value
// admission limit that would leave everything queued forever.
func TestConnUnboundedAdmissionWithoutMaxConcurrentStreams(t *testing.T) {
	clientSide, serverSide := net.Pipe()
	peer := newFakePeer(t, serverSide)

	connCh := make(chan *Conn, 1)
	go func() {
		c, err := newConn(clientSide, ConnOpts{PingInterval: -1})
		require.NoError(t, err)
		connCh <- c
	}()

	peer.nextOfType(t, FrameSettings)
	ack := AcquireFrame(FrameSettings).(*Settings)
	ack.SetAck(true)
	peer.sendSettings(t, ack)

	// The peer's SETTINGS deliberately omits SETTINGS_MAX_CONCURRENT_STREAMS.
	srv := AcquireFrame(FrameSettings).(*Settings)
	srv.SetMaxWindowSize(1 << 20)
	peer.sendSettings(t, srv)

	c := <-connCh
	t.Cleanup(func() { _ = c.Close() })
	peer.nextOfType(t, FrameSettings) // client's ack of srv

	req := fasthttp.AcquireRequest()
	req.SetRequestURI("https://example.com/unbounded")
	req.Header.SetMethod("GET")
	res := fasthttp.AcquireResponse()
	ctx := &Ctx{Request: req, Response: res, Err: make(chan error, 1)}
	require.NoError(t, c.Submit(ctx))

	// A stream actually opens instead of sitting in the admission queue
	// forever waiting for credit that a HasMaxConcurrentStreams()-gated
	// grant would never supply.
	peer.nextOfType(t, FrameHeaders)
}

// TestConnHandleSettingsPreservesPushWhenUnspecified checks that a second
// SETTINGS frame which doesn't repeat ENABLE_PUSH leaves the previously
// negotiated push state alone, per RFC 7540 §6.5.2's "unspecified parameters
// are left unchanged."
func TestConnHandleSettingsPreservesPushWhenUnspecified(t *testing.T) {
	c, peer := dialTestConn(t)

	disablePush := AcquireFrame(FrameSettings).(*Settings)
	disablePush.SetPush(false)
	peer.sendSettings(t, disablePush)
	peer.nextOfType(t, FrameSettings) // client's ack

	require.False(t, c.peer.Push())

	again := AcquireFrame(FrameSettings).(*Settings)
	again.SetMaxWindowSize(1 << 21)
	peer.sendSettings(t, again)
	peer.nextOfType(t, FrameSettings) // client's ack

	require.False(t, c.peer.Push())
}
