package http2

import (
	"bufio"
	"errors"
	"log"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/valyala/fasthttp"
)

// Conn is one HTTP/2 connection's actor. Every field below except the small
// atomic status flags is touched only from the goroutine run() starts;
// external callers interact exclusively through the channel-based API
// (Submit, cancel, Events, Close) or the atomics, so the actor itself never
// takes a lock.
type Conn struct {
	nc net.Conn
	br *bufio.Reader
	bw *bufio.Writer

	opts   ConnOpts
	logger *log.Logger

	local *Settings
	peer  *Settings

	enc *HPACK // outbound header blocks
	dec *HPACK // inbound header blocks

	streams            map[uint32]*Stream
	nextStreamID       uint32
	highestPushStream  uint32

	sendWindow         int32
	recvWindow         int32
	localInitialWindow int32
	peerInitialWindow  int32

	admission      *AdmissionQueue
	admissionLimit uint32

	// continuationStream is the non-zero id of the stream whose header
	// block is mid-CONTINUATION, or 0 when none is open.
	continuationStream uint32

	goingAway bool
	goAwayErr *ConnError

	// pendingOpens holds requests the admission queue just released
	// (either a settings change raised the limit, or a stream finished and
	// freed a slot); run() opens them after every select iteration so that
	// no code path outside run() ever calls openStream directly.
	pendingOpens []*Ctx

	events chan Event

	submitCh  chan *Ctx
	cancelCh  chan *Ctx
	frameCh   chan *FrameHeader
	readErrCh chan error
	closeCh   chan struct{}
	closeOnce sync.Once
	doneCh    chan struct{}

	closed        atomic.Bool
	activeStreams atomic.Int32
	maxStreams    atomic.Uint32

	closeErr error
}

// newConn runs the client-side handshake (preface + local SETTINGS) over an
// already-established transport and starts the connection's actor
// goroutines. It does not wait for the peer's SETTINGS; requests submitted
// before it arrives are admitted against the unbounded default limit
// (clamped to ConnOpts.MaxAdmissionCeiling).
func newConn(nc net.Conn, opts ConnOpts) (*Conn, error) {
	opts.sanitize()

	c := &Conn{
		nc:     nc,
		br:     bufio.NewReaderSize(nc, 16*1024),
		bw:     bufio.NewWriterSize(nc, 16*1024),
		opts:   opts,
		logger: opts.Logger,
		local:  opts.LocalSettings,
		peer:   &Settings{},

		streams:      make(map[uint32]*Stream),
		nextStreamID: 1,
		admission:    newAdmissionQueue(),

		events:    make(chan Event, 64),
		submitCh:  make(chan *Ctx),
		cancelCh:  make(chan *Ctx),
		frameCh:   make(chan *FrameHeader, 16),
		readErrCh: make(chan error, 1),
		closeCh:   make(chan struct{}),
		doneCh:    make(chan struct{}),
	}

	c.enc = AcquireHPACK()
	c.dec = AcquireHPACK()
	c.dec.SetMaxDecoderTableSize(c.local.HeaderTableSize())
	if c.local.HasMaxHeaderListSize() {
		c.dec.SetMaxHeaderListSize(c.local.MaxHeaderListSize())
	}

	c.localInitialWindow = int32(c.local.MaxWindowSize())
	c.recvWindow = c.localInitialWindow
	c.peerInitialWindow = int32(defaultWindowSize)
	c.sendWindow = int32(defaultWindowSize)

	// RFC 7540 §6.5.2: SETTINGS_MAX_CONCURRENT_STREAMS is unbounded until
	// the peer says otherwise, so admission starts at the configured
	// ceiling rather than zero. handleSettings narrows this the same way
	// once an explicit value arrives.
	c.applyAdmissionLimit(defaultConcurrentStreams)

	if err := WritePreface(c.bw); err != nil {
		return nil, err
	}

	fr := AcquireFrameHeader()
	fr.SetBody(c.local)
	if _, err := fr.Serialize(); err != nil {
		ReleaseFrameHeader(fr)
		return nil, err
	}
	err := c.writeFrame(fr)
	ReleaseFrameHeader(fr)
	if err != nil {
		return nil, err
	}

	go c.readLoop(int(c.local.MaxFrameSize()))
	go c.run()

	return c, nil
}

// readLoop parses frames off the wire and hands them to run(); it never
// touches Conn state directly, since the frame codec is self-contained.
func (c *Conn) readLoop(maxFrameSize int) {
	for {
		fr := AcquireFrameHeader()
		fr.SetMaxLen(maxFrameSize)

		if _, err := fr.ReadFrom(c.br); err != nil {
			ReleaseFrameHeader(fr)
			select {
			case c.readErrCh <- err:
			case <-c.doneCh:
			}
			return
		}

		select {
		case c.frameCh <- fr:
		case <-c.doneCh:
			ReleaseFrame(fr.Body())
			ReleaseFrameHeader(fr)
			return
		}
	}
}

// run is the connection actor's loop: the only place that ever mutates
// Conn's protocol state.
func (c *Conn) run() {
	defer close(c.doneCh)
	defer c.teardown()

	var pingTimer Timer
	if c.opts.PingInterval > 0 {
		pingTimer = c.opts.Clock.NewTimer(c.opts.PingInterval)
		defer pingTimer.Stop()
	}

	firstFrame := true

	for {
		var pingC <-chan time.Time
		if pingTimer != nil {
			pingC = pingTimer.C()
		}

		select {
		case <-c.closeCh:
			_ = c.sendGoAway(NoError, "")
			c.fail(ErrConnClosed)
			return

		case err := <-c.readErrCh:
			c.fail(err)
			return

		case fr := <-c.frameCh:
			err := c.dispatchFirst(fr, &firstFrame)
			ReleaseFrame(fr.Body())
			ReleaseFrameHeader(fr)
			if err != nil {
				c.fail(err)
				return
			}

		case ctx := <-c.submitCh:
			if err := c.handleSubmit(ctx); err != nil {
				c.fail(err)
				return
			}

		case ctx := <-c.cancelCh:
			if err := c.handleCancel(ctx); err != nil {
				c.fail(err)
				return
			}

		case <-pingC:
			if err := c.sendPing(); err != nil {
				c.fail(err)
				return
			}
			pingTimer.Reset(c.opts.Clock.JitteredPingInterval(c.opts.PingInterval))
		}

		for len(c.pendingOpens) > 0 {
			ctx := c.pendingOpens[0]
			c.pendingOpens = c.pendingOpens[1:]
			if err := c.openStream(ctx); err != nil {
				c.fail(err)
				return
			}
		}

		if c.goingAway && len(c.streams) == 0 {
			c.fail(c.goAwayErr)
			return
		}
	}
}

func (c *Conn) dispatchFirst(fr *FrameHeader, firstFrame *bool) error {
	if *firstFrame {
		*firstFrame = false
		if fr.Type() != FrameSettings {
			return NewGoAwayError(ProtocolError, "first frame from peer was not SETTINGS")
		}
	}
	return c.dispatch(fr)
}

func (c *Conn) dispatch(fr *FrameHeader) error {
	if c.opts.Debug {
		c.logger.Printf("http2: recv %s stream=%d len=%d flags=%02x", fr.Type(), fr.Stream(), fr.Len(), fr.Flags())
	}

	if c.continuationStream != 0 {
		cont, ok := fr.Body().(*Continuation)
		if !ok || fr.Stream() != c.continuationStream {
			return NewGoAwayError(ProtocolError, "expected CONTINUATION frame")
		}
		return c.handleContinuation(fr, cont)
	}

	switch b := fr.Body().(type) {
	case *Settings:
		return c.handleSettings(b)
	case *WindowUpdate:
		err := c.applyWindowUpdate(fr.Stream(), int32(b.Increment()))
		var se *StreamError
		if errors.As(err, &se) {
			if s, ok := c.streams[se.StreamID]; ok {
				return c.resetOrFail(s, err)
			}
			return c.sendRstStream(se.StreamID, se.Code)
		}
		return err
	case *Ping:
		return c.handlePing(b)
	case *GoAway:
		return c.handleGoAway(b)
	case *Headers:
		return c.handleHeaders(fr, b)
	case *Data:
		return c.handleData(fr, b)
	case *RstStream:
		return c.handleRstStream(fr, b)
	case *PushPromise:
		return c.handlePushPromise(fr, b)
	case *Priority:
		return nil // parsed, never acted on: priority is a peer hint we don't schedule on
	default:
		return nil // unknown frame type: discarded per RFC 7540 §4.1
	}
}

func (c *Conn) handleSettings(s *Settings) error {
	if s.IsAck() {
		return nil
	}

	if s.HasHeaderTableSize() {
		c.peer.SetHeaderTableSize(s.HeaderTableSize())
		c.enc.SetMaxTableSize(s.HeaderTableSize())
	}
	if s.HasMaxFrameSize() {
		c.peer.SetMaxFrameSize(s.MaxFrameSize())
	}
	if s.HasMaxHeaderListSize() {
		c.peer.SetMaxHeaderListSize(s.MaxHeaderListSize())
	}
	if s.HasPush() {
		c.peer.SetPush(s.Push())
	}

	if s.HasMaxWindowSize() {
		newInitial := int32(s.MaxWindowSize())
		if err := c.adjustStreamWindowsOnSettingsChange(c.peerInitialWindow, newInitial); err != nil {
			return err
		}
		c.peer.SetMaxWindowSize(s.MaxWindowSize())
		c.peerInitialWindow = newInitial
	}

	if s.HasMaxConcurrentStreams() {
		c.applyAdmissionLimit(s.MaxConcurrentStreams())
		c.peer.SetMaxConcurrentStreams(c.admissionLimit)
	}

	return c.sendSettingsAck()
}

// applyAdmissionLimit resizes the admission credit pool to newLimit, clamped
// to the configured ceiling, and releases whatever queued requests the
// resulting credit delta admits. A lower limit debits the banked credits by
// the difference, possibly below zero, so streams already open keep running
// but no new one is admitted until enough of them finish. Used both for an
// explicit SETTINGS_MAX_CONCURRENT_STREAMS and, at connection setup, for the
// RFC 7540 §6.5.2 "unbounded until told otherwise" default.
func (c *Conn) applyAdmissionLimit(newLimit uint32) {
	if newLimit > uint32(c.opts.MaxAdmissionCeiling) {
		newLimit = uint32(c.opts.MaxAdmissionCeiling)
	}
	delta := int(newLimit) - int(c.admissionLimit)
	c.admissionLimit = newLimit
	c.maxStreams.Store(newLimit)

	if delta < 0 {
		c.admission.credits += delta
		return
	}
	c.pendingOpens = append(c.pendingOpens, c.admission.Grant(delta)...)
}

func (c *Conn) sendSettingsAck() error {
	fr := AcquireFrameHeader()
	defer ReleaseFrameHeader(fr)
	ack := AcquireFrame(FrameSettings).(*Settings)
	defer ReleaseFrame(ack)
	ack.SetAck(true)
	fr.SetBody(ack)
	if _, err := fr.Serialize(); err != nil {
		return err
	}
	return c.writeFrame(fr)
}

func (c *Conn) handlePing(p *Ping) error {
	if p.IsAck() {
		rtt := time.Since(p.DataAsTime())
		if c.opts.OnRTT != nil {
			c.opts.OnRTT(rtt)
		}
		var data [8]byte
		copy(data[:], p.Data())
		c.emit(Event{Kind: EventPong, PingData: data, RTT: rtt})
		return nil
	}

	fr := AcquireFrameHeader()
	defer ReleaseFrameHeader(fr)
	reply := AcquireFrame(FramePing).(*Ping)
	defer ReleaseFrame(reply)
	reply.SetData(p.Data())
	reply.SetAck(true)
	fr.SetBody(reply)
	if _, err := fr.Serialize(); err != nil {
		return err
	}

	var data [8]byte
	copy(data[:], p.Data())
	c.emit(Event{Kind: EventPing, PingData: data})

	return c.writeFrame(fr)
}

func (c *Conn) sendPing() error {
	fr := AcquireFrameHeader()
	defer ReleaseFrameHeader(fr)
	p := AcquireFrame(FramePing).(*Ping)
	defer ReleaseFrame(p)
	p.SetCurrentTime()
	fr.SetBody(p)
	if _, err := fr.Serialize(); err != nil {
		return err
	}
	return c.writeFrame(fr)
}

func (c *Conn) sendGoAway(code ErrorCode, debug string) error {
	fr := AcquireFrameHeader()
	defer ReleaseFrameHeader(fr)
	g := AcquireFrame(FrameGoAway).(*GoAway)
	defer ReleaseFrame(g)
	// The last stream id we announce is the highest stream we ourselves
	// opened (RFC 7540 §6.8): as the client we never accept server-initiated
	// request streams, only pushes, which are tracked separately.
	lastStreamID := uint32(0)
	if c.nextStreamID > 2 {
		lastStreamID = c.nextStreamID - 2
	}
	g.SetStream(lastStreamID)
	g.SetCode(code)
	g.SetData([]byte(debug))
	fr.SetBody(g)
	if _, err := fr.Serialize(); err != nil {
		return err
	}
	return c.writeFrame(fr)
}

func (c *Conn) sendRstStream(id uint32, code ErrorCode) error {
	fr := AcquireFrameHeader()
	defer ReleaseFrameHeader(fr)
	fr.SetStream(id)
	r := AcquireFrame(FrameRstStream).(*RstStream)
	defer ReleaseFrame(r)
	r.SetCode(code)
	fr.SetBody(r)
	if _, err := fr.Serialize(); err != nil {
		return err
	}
	return c.writeFrame(fr)
}

// handleGoAway implements the retry boundary RFC 7540 §6.8 describes: streams
// above the announced last-stream-id never reached the peer and are failed
// as immediately retryable elsewhere; streams at or below it are left to run
// to completion, and the connection only tears down once none remain.
func (c *Conn) handleGoAway(g *GoAway) error {
	c.logger.Printf("http2: received GOAWAY last_stream=%d code=%s", g.Stream(), g.Code())
	c.goingAway = true
	c.goAwayErr = NewGoAwayError(g.Code(), string(g.Data()))

	for id, s := range c.streams {
		if id > g.Stream() {
			c.finishStream(s, NewStreamError(id, RefusedStream))
		}
	}

	for _, ctx := range c.admission.pending {
		ctx.resolve(RefusedStream)
	}
	c.admission.pending = nil

	if len(c.streams) == 0 {
		return c.goAwayErr
	}
	return nil
}

func (c *Conn) handleHeaders(fr *FrameHeader, h *Headers) error {
	id := fr.Stream()
	s, ok := c.streams[id]
	if !ok {
		return NewGoAwayError(ProtocolError, "HEADERS for unknown stream")
	}

	if err := s.transition(evtRecvHeaders); err != nil {
		return c.resetOrFail(s, err)
	}

	s.beginHeaderBlock(h.Headers(), h.EndHeaders(), h.EndStream())
	if !h.EndHeaders() {
		c.continuationStream = id
		return nil
	}

	return c.finishHeaderBlock(s)
}

func (c *Conn) handleContinuation(fr *FrameHeader, cont *Continuation) error {
	id := fr.Stream()
	s, ok := c.streams[id]
	if !ok {
		return NewGoAwayError(ProtocolError, "CONTINUATION for unknown stream")
	}

	s.appendContinuation(cont.Headers(), cont.EndHeaders())
	if !cont.EndHeaders() {
		return nil
	}

	c.continuationStream = 0
	return c.finishHeaderBlock(s)
}

func (c *Conn) finishHeaderBlock(s *Stream) error {
	block := s.takeHeaderBlock()
	fields, err := c.dec.DecodeHeaders(block)
	if err != nil {
		return err
	}

	if s.isPush {
		req := fasthttp.AcquireRequest()
		applyPseudoRequest(req, fields)
		c.emit(Event{Kind: EventPushPromise, StreamID: s.id, PromisedRequest: req})
	} else {
		if s.ctx == nil || s.ctx.Response == nil {
			return NewGoAwayError(InternalError, "HEADERS for a stream without a response target")
		}
		applyResponseHeaders(s.ctx.Response, fields)
		s.gotHeaders = true
	}

	endStream := s.pendingEndStreamFlag
	s.pendingEndStreamFlag = false
	if endStream {
		return c.finishStreamIfDone(s, evtRecvEndStream)
	}
	return nil
}

func (c *Conn) handleData(fr *FrameHeader, d *Data) error {
	id := fr.Stream()
	s, ok := c.streams[id]
	if !ok {
		return NewGoAwayError(ProtocolError, "DATA for unknown stream")
	}

	updates, err := c.applyDataReceived(s, int32(fr.Len()))
	if err != nil {
		return c.resetOrFail(s, err)
	}
	for _, u := range updates {
		werr := c.writeFrame(u)
		ReleaseFrame(u.Body())
		ReleaseFrameHeader(u)
		if werr != nil {
			return werr
		}
	}

	s.appendBody(d.Data())

	if d.EndStream() {
		if s.ctx != nil && s.ctx.Response != nil {
			s.ctx.Response.SetBody(s.body)
		}
		return c.finishStreamIfDone(s, evtRecvEndStream)
	}
	return nil
}

func (c *Conn) handleRstStream(fr *FrameHeader, r *RstStream) error {
	id := fr.Stream()
	s, ok := c.streams[id]
	if !ok {
		return nil // tolerated for a stream already closed, RFC 7540 §6.4
	}
	_ = s.transition(evtRecvRst)
	c.finishStream(s, NewStreamError(id, r.Code()))
	return nil
}

func (c *Conn) handlePushPromise(fr *FrameHeader, pp *PushPromise) error {
	if !c.local.Push() {
		return NewGoAwayError(ProtocolError, "PUSH_PROMISE received but push disabled locally")
	}

	parentID := fr.Stream()
	if _, ok := c.streams[parentID]; !ok {
		return NewGoAwayError(ProtocolError, "PUSH_PROMISE on unknown parent stream")
	}

	promisedID := pp.PromisedStreamID()
	if promisedID <= c.highestPushStream || promisedID%2 != 0 {
		return NewGoAwayError(ProtocolError, "PUSH_PROMISE announced an invalid stream id")
	}
	c.highestPushStream = promisedID

	ps := newStream(promisedID, c.peerInitialWindow, c.localInitialWindow)
	ps.isPush = true
	ps.promisedBy = parentID
	if err := ps.transition(evtRecvPushPromise); err != nil {
		return err
	}
	c.streams[promisedID] = ps

	ps.beginHeaderBlock(pp.Headers(), pp.EndHeaders(), false)
	if !pp.EndHeaders() {
		c.continuationStream = promisedID
		return nil
	}
	return c.finishHeaderBlock(ps)
}

func (c *Conn) finishStreamIfDone(s *Stream, evt streamEvent) error {
	if err := s.transition(evt); err != nil {
		return c.resetOrFail(s, err)
	}
	if s.state == StreamClosed {
		c.finishStream(s, nil)
	}
	return nil
}

// resetOrFail resets a single stream for a *StreamError (the connection
// survives) or propagates any other error up to tear down the connection.
func (c *Conn) resetOrFail(s *Stream, err error) error {
	var se *StreamError
	if errors.As(err, &se) {
		_ = c.sendRstStream(s.id, se.Code)
		c.finishStream(s, se)
		return nil
	}
	return err
}

func (c *Conn) finishStream(s *Stream, err error) {
	delete(c.streams, s.id)

	if s.respTimer != nil {
		s.respTimer.Stop()
	}

	if !s.isPush {
		c.activeStreams.Add(-1)
		c.pendingOpens = append(c.pendingOpens, c.admission.Grant(1)...)
	}

	if s.ctx != nil {
		s.ctx.resolve(err)
		c.emit(Event{Kind: EventStreamCompleted, StreamID: s.id, Response: s.ctx.Response, Err: err})
	}
}

func (c *Conn) handleSubmit(ctx *Ctx) error {
	if c.closed.Load() || c.goingAway {
		ctx.resolve(ErrConnClosed)
		return nil
	}

	if c.admission.TryConsume() {
		return c.openStream(ctx)
	}

	c.admission.Submit(ctx)
	return nil
}

func (c *Conn) handleCancel(ctx *Ctx) error {
	if ctx.streamID == 0 {
		if c.admission.Cancel(ctx) {
			ctx.resolve(ErrRequestCanceled)
		}
		return nil
	}

	s, ok := c.streams[ctx.streamID]
	if !ok {
		return nil
	}
	err := c.sendRstStream(s.id, StreamCanceled)
	_ = s.transition(evtSendRst)
	c.finishStream(s, ErrRequestCanceled)
	return err
}

func (c *Conn) openStream(ctx *Ctx) error {
	id := c.nextStreamID
	c.nextStreamID += 2

	s := newStream(id, c.peerInitialWindow, c.localInitialWindow)
	s.ctx = ctx
	ctx.streamID = id
	c.streams[id] = s
	c.activeStreams.Add(1)

	if c.opts.MaxResponseTime > 0 {
		s.respTimer = c.opts.Clock.AfterFunc(c.opts.MaxResponseTime, func() {
			c.cancel(ctx)
		})
	}

	if err := s.transition(evtSendHeaders); err != nil {
		return err
	}

	fields := buildRequestHeaders(ctx.Request, c.opts.Scheme)
	block := c.enc.EncodeHeaders(fields)

	body := ctx.Request.Body()
	endStream := len(body) == 0

	if err := c.writeHeaderBlock(id, block, endStream); err != nil {
		return err
	}

	if endStream {
		return c.finishStreamIfDone(s, evtSendEndStream)
	}

	s.pendingBody = body
	s.pendingEndStream = true
	return c.trySendBody(s)
}

func (c *Conn) writeHeaderBlock(id uint32, block []byte, endStream bool) error {
	maxFrame := int(c.peer.MaxFrameSize())

	first := block
	var rest []byte
	endHeaders := true
	if len(block) > maxFrame {
		first = block[:maxFrame]
		rest = block[maxFrame:]
		endHeaders = false
	}

	fr := AcquireFrameHeader()
	fr.SetStream(id)
	h := AcquireFrame(FrameHeaders).(*Headers)
	h.SetHeaders(first)
	h.SetEndHeaders(endHeaders)
	h.SetEndStream(endStream)
	fr.SetBody(h)
	_, err := fr.Serialize()
	if err == nil {
		err = c.writeFrame(fr)
	}
	ReleaseFrame(h)
	ReleaseFrameHeader(fr)
	if err != nil {
		return err
	}

	for len(rest) > 0 {
		chunk := rest
		last := true
		if len(chunk) > maxFrame {
			chunk = rest[:maxFrame]
			last = false
		}
		rest = rest[len(chunk):]

		cfr := AcquireFrameHeader()
		cfr.SetStream(id)
		cont := AcquireFrame(FrameContinuation).(*Continuation)
		cont.SetHeader(chunk)
		cont.SetEndHeaders(last)
		cfr.SetBody(cont)
		_, err := cfr.Serialize()
		if err == nil {
			err = c.writeFrame(cfr)
		}
		ReleaseFrame(cont)
		ReleaseFrameHeader(cfr)
		if err != nil {
			return err
		}
	}

	return nil
}

// trySendBody drains as much of a stream's pending request body as the
// connection and stream send windows currently allow, chunked to the peer's
// max frame size. It is re-invoked by notifyWindowAvailable once more credit
// arrives.
func (c *Conn) trySendBody(s *Stream) error {
	maxFrame := int(c.peer.MaxFrameSize())

	for s.hasPendingBody() {
		remaining := s.pendingBody[s.pendingOffset:]
		n := len(remaining)
		if n > maxFrame {
			n = maxFrame
		}
		if int32(n) > s.sendWindow {
			n = int(s.sendWindow)
		}
		if int32(n) > c.sendWindow {
			n = int(c.sendWindow)
		}
		if n <= 0 {
			return nil
		}

		chunk := remaining[:n]
		if !c.consumeSend(s, int32(n)) {
			return nil
		}
		s.pendingOffset += n
		last := !s.hasPendingBody()

		fr := AcquireFrameHeader()
		fr.SetStream(s.id)
		d := AcquireFrame(FrameData).(*Data)
		d.SetData(chunk)
		d.SetEndStream(last && s.pendingEndStream)
		fr.SetBody(d)
		_, err := fr.Serialize()
		if err == nil {
			err = c.writeFrame(fr)
		}
		ReleaseFrame(d)
		ReleaseFrameHeader(fr)
		if err != nil {
			return err
		}

		if last && s.pendingEndStream {
			s.pendingBody = nil
			s.pendingOffset = 0
			return c.finishStreamIfDone(s, evtSendEndStream)
		}
	}
	return nil
}

// notifyWindowAvailable is called by flow-control code (flowcontrol.go)
// whenever a WINDOW_UPDATE grows a window, to resume any stream that was
// blocked mid-body.
func (c *Conn) notifyWindowAvailable() error {
	for _, s := range c.streams {
		if s.hasPendingBody() {
			if err := c.trySendBody(s); err != nil {
				return err
			}
		}
	}
	return nil
}

func (c *Conn) emit(e Event) {
	select {
	case c.events <- e:
	default:
		if c.opts.Debug {
			c.logger.Printf("http2: dropped event kind=%d: events channel full", e.Kind)
		}
	}
}

func (c *Conn) writeFrame(fr *FrameHeader) error {
	if c.opts.Debug {
		c.logger.Printf("http2: send %s stream=%d len=%d flags=%02x", fr.Type(), fr.Stream(), fr.Len(), fr.Flags())
	}
	if _, err := fr.WriteTo(c.bw); err != nil {
		return err
	}
	return c.bw.Flush()
}

// fail tears the connection down for err: it best-effort notifies the peer
// with GOAWAY when err carries a connection-level code, resolves every
// pending and in-flight request, and reports the closure upward.
func (c *Conn) fail(err error) {
	if err == nil {
		err = ErrConnClosed
	}
	c.closeErr = err

	var ce *ConnError
	if errors.As(err, &ce) && !c.goingAway {
		_ = c.sendGoAway(ce.Code, ce.Debug)
	}

	c.abortAll(err)
	c.emit(Event{Kind: EventConnectionClosed, Reason: err})
}

func (c *Conn) abortAll(err error) {
	for _, s := range c.streams {
		if s.ctx != nil {
			s.ctx.resolve(err)
		}
	}
	c.streams = nil
	c.activeStreams.Store(0)

	for _, ctx := range c.admission.pending {
		ctx.resolve(err)
	}
	c.admission.pending = nil
}

func (c *Conn) teardown() {
	c.closed.Store(true)
	_ = c.nc.Close()
	ReleaseHPACK(c.enc)
	ReleaseHPACK(c.dec)
	if c.opts.OnDisconnect != nil {
		c.opts.OnDisconnect(c, c.closeErr)
	}
}

// Submit hands a request to the connection actor. It returns ErrConnClosed
// immediately if the connection has already torn down; otherwise the result
// arrives on ctx.Err once the exchange completes.
func (c *Conn) Submit(ctx *Ctx) error {
	select {
	case c.submitCh <- ctx:
		return nil
	case <-c.doneCh:
		return ErrConnClosed
	}
}

// cancel asks the connection actor to abandon ctx, whether it is still
// queued for admission or already has an open stream.
func (c *Conn) cancel(ctx *Ctx) {
	select {
	case c.cancelCh <- ctx:
	case <-c.doneCh:
	}
}

// CanOpenStream is a best-effort hint for a connection pool choosing among
// several connections; the actor's admission queue is the sole source of
// truth for whether a given Submit will have to wait.
func (c *Conn) CanOpenStream() bool {
	if c.closed.Load() {
		return false
	}
	max := c.maxStreams.Load()
	return uint32(c.activeStreams.Load()) < max
}

// Closed reports whether the connection has finished tearing down.
func (c *Conn) Closed() bool { return c.closed.Load() }

// Events returns the channel upward events are delivered on.
func (c *Conn) Events() <-chan Event { return c.events }

// Close asks the connection actor to shut down and waits for it to finish.
func (c *Conn) Close() error {
	c.closeOnce.Do(func() { close(c.closeCh) })
	<-c.doneCh
	return c.closeErr
}
