package http2

import "github.com/kianmeng/h2core/http2utils"

// Settings parameter identifiers (RFC 7540 §6.5.2).
type settingID uint16

const (
	settingHeaderTableSize      settingID = 0x1
	settingEnablePush           settingID = 0x2
	settingMaxConcurrentStreams settingID = 0x3
	settingInitialWindowSize    settingID = 0x4
	settingMaxFrameSize         settingID = 0x5
	settingMaxHeaderListSize    settingID = 0x6
)

// RFC 7540 §6.5.2 defaults. SETTINGS_MAX_CONCURRENT_STREAMS has no wire
// default and means "unlimited" until the peer sends one; math.MaxUint32
// stands in for that and is clamped to a configurable ceiling by
// Conn.applyAdmissionLimit.
const (
	defaultHeaderTableSize   = 4096
	defaultConcurrentStreams = ^uint32(0)
	defaultWindowSize        = 65535
	defaultDataFrameSize     = DefaultMaxFrameSize
)

// Settings is both the SETTINGS frame body and the settings-parameter set
// itself: the same type is used to decode a peer's SETTINGS frame and to
// hold the effective local/peer values, since decoding
// a SETTINGS frame is exactly "apply these fields on top of what we have".
//
// Each field has a companion "set" bit so an omitted parameter (RFC 7540
// §6.5.2: "any state that has already been established"... "unspecified
// parameters are left unchanged") is distinguishable from an explicit zero.
type Settings struct {
	ack bool

	tableSize    uint32
	tableSizeSet bool

	enablePush    bool
	enablePushSet bool

	maxStreams    uint32
	maxStreamsSet bool

	windowSize uint32
	windowSet  bool

	frameSize    uint32
	frameSizeSet bool

	headerSize    uint32
	headerSizeSet bool
}

var _ FrameBody = (*Settings)(nil)

func (s *Settings) Type() FrameType { return FrameSettings }

func (s *Settings) Reset() { *s = Settings{} }

func (s *Settings) IsAck() bool   { return s.ack }
func (s *Settings) SetAck(v bool) { s.ack = v }

func (s *Settings) HeaderTableSize() uint32 {
	if s.tableSizeSet {
		return s.tableSize
	}
	return defaultHeaderTableSize
}
func (s *Settings) HasHeaderTableSize() bool { return s.tableSizeSet }
func (s *Settings) SetHeaderTableSize(v uint32) {
	s.tableSize = v
	s.tableSizeSet = true
}

func (s *Settings) Push() bool       { return !s.enablePushSet || s.enablePush }
func (s *Settings) HasPush() bool    { return s.enablePushSet }
func (s *Settings) SetPush(v bool) {
	s.enablePush = v
	s.enablePushSet = true
}

func (s *Settings) MaxConcurrentStreams() uint32 {
	if s.maxStreamsSet {
		return s.maxStreams
	}
	return defaultConcurrentStreams
}
func (s *Settings) HasMaxConcurrentStreams() bool { return s.maxStreamsSet }
func (s *Settings) SetMaxConcurrentStreams(v uint32) {
	s.maxStreams = v
	s.maxStreamsSet = true
}

func (s *Settings) MaxWindowSize() uint32 {
	if s.windowSet {
		return s.windowSize
	}
	return defaultWindowSize
}
func (s *Settings) HasMaxWindowSize() bool { return s.windowSet }
func (s *Settings) SetMaxWindowSize(v uint32) {
	s.windowSize = v
	s.windowSet = true
}

func (s *Settings) MaxFrameSize() uint32 {
	if s.frameSizeSet {
		return s.frameSize
	}
	return defaultDataFrameSize
}
func (s *Settings) HasMaxFrameSize() bool { return s.frameSizeSet }
func (s *Settings) SetMaxFrameSize(v uint32) {
	s.frameSize = v
	s.frameSizeSet = true
}

func (s *Settings) MaxHeaderListSize() uint32 {
	if s.headerSizeSet {
		return s.headerSize
	}
	return 0 // 0 == unlimited, RFC 7540 §6.5.2
}
func (s *Settings) HasMaxHeaderListSize() bool { return s.headerSizeSet }
func (s *Settings) SetMaxHeaderListSize(v uint32) {
	s.headerSize = v
	s.headerSizeSet = true
}

// Encode is Serialize without a FrameHeader dependency, used by benchmarks
// and by anything building a SETTINGS payload outside the frame codec.
func (s *Settings) Encode() []byte {
	fr := &FrameHeader{}
	s.Serialize(fr)
	return fr.payload
}

func (s *Settings) Serialize(fr *FrameHeader) {
	if s.ack {
		fr.SetFlags(fr.Flags().Add(FlagAck))
		fr.setPayload(nil)
		return
	}

	payload := fr.payload[:0]
	write := func(id settingID, v uint32) {
		var b [6]byte
		b[0] = byte(id >> 8)
		b[1] = byte(id)
		http2utils.Uint32ToBytes(b[2:6], v)
		payload = append(payload, b[:]...)
	}

	if s.tableSizeSet {
		write(settingHeaderTableSize, s.tableSize)
	}
	if s.enablePushSet {
		v := uint32(0)
		if s.enablePush {
			v = 1
		}
		write(settingEnablePush, v)
	}
	if s.maxStreamsSet {
		write(settingMaxConcurrentStreams, s.maxStreams)
	}
	if s.windowSet {
		write(settingInitialWindowSize, s.windowSize)
	}
	if s.frameSizeSet {
		write(settingMaxFrameSize, s.frameSize)
	}
	if s.headerSizeSet {
		write(settingMaxHeaderListSize, s.headerSize)
	}

	fr.setPayload(payload)
}

func (s *Settings) Deserialize(fr *FrameHeader) error {
	if fr.Stream() != 0 {
		return NewGoAwayError(ProtocolError, "SETTINGS on non-zero stream")
	}

	s.ack = fr.Flags().Has(FlagAck)
	if s.ack {
		if len(fr.payload) != 0 {
			return NewGoAwayError(FrameSizeError, "SETTINGS ack carries a payload")
		}
		return nil
	}

	if len(fr.payload)%6 != 0 {
		return NewGoAwayError(FrameSizeError, "SETTINGS length is not a multiple of 6")
	}

	for i := 0; i+6 <= len(fr.payload); i += 6 {
		id := settingID(uint16(fr.payload[i])<<8 | uint16(fr.payload[i+1]))
		v := http2utils.BytesToUint32(fr.payload[i+2 : i+6])

		switch id {
		case settingHeaderTableSize:
			s.SetHeaderTableSize(v)
		case settingEnablePush:
			if v > 1 {
				return NewGoAwayError(ProtocolError, "SETTINGS_ENABLE_PUSH must be 0 or 1")
			}
			s.SetPush(v == 1)
		case settingMaxConcurrentStreams:
			s.SetMaxConcurrentStreams(v)
		case settingInitialWindowSize:
			if v > 1<<31-1 {
				return NewGoAwayError(FlowControlError, "SETTINGS_INITIAL_WINDOW_SIZE exceeds maximum")
			}
			s.SetMaxWindowSize(v)
		case settingMaxFrameSize:
			if v < DefaultMaxFrameSize || v > 1<<24-1 {
				return NewGoAwayError(ProtocolError, "SETTINGS_MAX_FRAME_SIZE out of range")
			}
			s.SetMaxFrameSize(v)
		case settingMaxHeaderListSize:
			s.SetMaxHeaderListSize(v)
		default:
			// unknown setting: ignored per RFC 7540 §6.5.2
		}
	}

	return nil
}
