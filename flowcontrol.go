package http2

// MaxWindowSize is the largest value any flow-control window may hold
// (RFC 7540 §6.9.1), 2^31-1.
const MaxWindowSize = 1<<31 - 1

// adjustStreamWindowsOnSettingsChange applies a peer SETTINGS_INITIAL_WINDOW_SIZE
// change: every open stream's send window shifts by the signed
// delta between the peer's old and new SETTINGS_INITIAL_WINDOW_SIZE, applied
// atomically (single actor, so "atomically" just means "in one pass with no
// intervening send").
func (c *Conn) adjustStreamWindowsOnSettingsChange(oldInitial, newInitial int32) error {
	delta := int64(newInitial) - int64(oldInitial)
	if delta == 0 {
		return nil
	}

	for _, s := range c.streams {
		if !s.active() {
			continue
		}
		nv := int64(s.sendWindow) + delta
		if nv > MaxWindowSize || nv < -MaxWindowSize-1 {
			return NewGoAwayError(FlowControlError, "SETTINGS_INITIAL_WINDOW_SIZE change overflows a stream window")
		}
		s.sendWindow = int32(nv)
	}

	return nil
}

// consumeSend requires both the stream and connection send windows to have
// at least n bytes of credit,
// debits both atomically, and reports whether it succeeded. Callers must
// chunk n to at most peer.max_frame_size before calling.
func (c *Conn) consumeSend(s *Stream, n int32) bool {
	if n < 0 {
		return true
	}
	if s.sendWindow < n || c.sendWindow < n {
		return false
	}
	s.sendWindow -= n
	c.sendWindow -= n
	return true
}

// applyWindowUpdate applies a WINDOW_UPDATE frame. Stream id 0
// updates the connection window; any other id updates that stream's window.
// A zero increment or an increment that would overflow MaxWindowSize is an
// error, connection-scoped for stream 0 and stream-scoped otherwise.
func (c *Conn) applyWindowUpdate(streamID uint32, inc int32) error {
	if inc == 0 {
		if streamID == 0 {
			return NewGoAwayError(ProtocolError, "WINDOW_UPDATE increment of 0 on connection")
		}
		return NewStreamError(streamID, FlowControlError)
	}

	if streamID == 0 {
		nv := int64(c.sendWindow) + int64(inc)
		if nv > MaxWindowSize {
			return NewGoAwayError(FlowControlError, "connection send window overflow")
		}
		c.sendWindow = int32(nv)
		return c.notifyWindowAvailable()
	}

	s, ok := c.streams[streamID]
	if !ok {
		// WINDOW_UPDATE may race a stream's closure; RFC 7540 permits
		// ignoring it once idle/closed as long as it isn't for a stream
		// that was never opened.
		if streamID >= c.nextStreamID && streamID%2 == 1 {
			return NewGoAwayError(ProtocolError, "WINDOW_UPDATE for a stream never opened")
		}
		return nil
	}

	nv := int64(s.sendWindow) + int64(inc)
	if nv > MaxWindowSize {
		return NewStreamError(streamID, FlowControlError)
	}
	s.sendWindow = int32(nv)

	return c.notifyWindowAvailable()
}

// applyDataReceived debits both receive windows by n and returns the
// WINDOW_UPDATE frames (stream and/or connection scoped) needed to
// replenish any window that fell below half of the configured initial
// size — replenish eagerly, tied to delivery rather than to a timer.
func (c *Conn) applyDataReceived(s *Stream, n int32) ([]*FrameHeader, error) {
	if n > c.recvWindow {
		return nil, NewGoAwayError(FlowControlError, "DATA exceeded connection receive window")
	}
	if n > s.recvWindow {
		return nil, NewStreamError(s.id, FlowControlError)
	}

	c.recvWindow -= n
	s.recvWindow -= n

	var updates []*FrameHeader

	half := c.localInitialWindow / 2
	if s.recvWindow < half {
		inc := c.localInitialWindow - s.recvWindow
		s.recvWindow = c.localInitialWindow
		updates = append(updates, windowUpdateFrame(s.id, inc))
	}
	if c.recvWindow < half {
		inc := c.localInitialWindow - c.recvWindow
		c.recvWindow = c.localInitialWindow
		updates = append(updates, windowUpdateFrame(0, inc))
	}

	return updates, nil
}

func windowUpdateFrame(streamID uint32, inc int32) *FrameHeader {
	fr := AcquireFrameHeader()
	fr.SetStream(streamID)
	wu := AcquireFrame(FrameWindowUpdate).(*WindowUpdate)
	wu.SetIncrement(uint32(inc))
	fr.SetBody(wu)
	_, _ = fr.Serialize()
	return fr
}
