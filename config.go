package http2

import (
	"log"
	"math"
	"time"

	"github.com/valyala/fastrand"
)

// ConnOpts is the configuration recognized at connection open, plus the
// ambient options (logging, clock, admission ceiling) carried alongside the
// protocol-visible ones. Zero-value fields are replaced by sanitize() at
// Dial time, never checked ad-hoc on the hot path.
type ConnOpts struct {
	// LocalSettings overrides the default local SETTINGS sent in the
	// handshake. Nil fields inside it keep their RFC 7540 defaults.
	LocalSettings *Settings

	// Scheme sets the :scheme pseudo-header on outgoing requests.
	// Informational only.
	Scheme string

	// Reconnect tells the supervising layer (out of scope for the core)
	// whether it should redial on close. The core only stores it; it never
	// acts on it itself.
	Reconnect bool

	// PingInterval is how often the connection sends its own keepalive
	// PING. Zero uses DefaultPingInterval; negative disables keepalive
	// pings (replies to peer-initiated pings are never disabled).
	PingInterval time.Duration

	// MaxResponseTime bounds how long a stream may run before it is
	// canceled client-side with RST_STREAM(CANCEL). Zero uses
	// DefaultMaxResponseTime; negative disables the timeout.
	MaxResponseTime time.Duration

	// OnRTT, when set, is called after every PING round trip this
	// connection initiates.
	OnRTT func(time.Duration)

	// OnDisconnect is called once when the connection tears down, for any
	// reason (GOAWAY, transport error, local close).
	OnDisconnect func(*Conn, error)

	// MaxAdmissionCeiling clamps an "unbounded" peer
	// SETTINGS_MAX_CONCURRENT_STREAMS to a finite number of admission
	// credits. Zero uses DefaultAdmissionCeiling.
	MaxAdmissionCeiling int

	// Clock controls time-related operations; nil uses the real clock.
	Clock Clock

	// Logger receives connection lifecycle and (if Debug) per-frame trace
	// lines; nil uses log.Default().
	Logger *log.Logger

	// Debug enables verbose per-frame logging.
	Debug bool
}

const (
	DefaultPingInterval        = 3 * time.Second
	DefaultMaxResponseTime     = time.Minute
	DefaultAdmissionCeiling    = math.MaxInt32
	DefaultLocalWindowSize     = 1 << 22
	DefaultLocalMaxFrameSize   = DefaultMaxFrameSize
	DefaultLocalHeaderTableSz  = defaultHeaderTableSize
)

func (o *ConnOpts) sanitize() {
	if o.Scheme == "" {
		o.Scheme = "https"
	}
	if o.PingInterval == 0 {
		o.PingInterval = DefaultPingInterval
	}
	if o.MaxResponseTime == 0 {
		o.MaxResponseTime = DefaultMaxResponseTime
	}
	if o.MaxAdmissionCeiling <= 0 {
		o.MaxAdmissionCeiling = DefaultAdmissionCeiling
	}
	if o.Clock == nil {
		o.Clock = realClock{}
	}
	if o.Logger == nil {
		o.Logger = log.Default()
	}
	if o.LocalSettings == nil {
		o.LocalSettings = defaultLocalSettings()
	}
}

// defaultLocalSettings is what this core advertises to the peer at
// handshake time absent an override.
func defaultLocalSettings() *Settings {
	s := &Settings{}
	s.SetHeaderTableSize(DefaultLocalHeaderTableSz)
	s.SetPush(true)
	s.SetMaxConcurrentStreams(100)
	s.SetMaxWindowSize(DefaultLocalWindowSize)
	s.SetMaxFrameSize(DefaultLocalMaxFrameSize)
	return s
}

// Clock is the seam ConnOpts.Clock and ClientOpts.Clock hang timers off of,
// so ping keepalive and response-timeout scheduling can run against a fake
// clock in tests instead of real wall time.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, fn func()) Timer
	NewTimer(d time.Duration) Timer

	// JitteredPingInterval returns d plus a random amount up to d/4, so
	// keepalive pings from many connections dialed at once don't all land
	// on the wire in the same instant. The result is the value the caller
	// reschedules its ping timer with next.
	JitteredPingInterval(d time.Duration) time.Duration
}

// Timer is the subset of *time.Timer the connection actor's keepalive ping
// and response timeouts need: read the fire channel, stop it, or reschedule
// it.
type Timer interface {
	C() <-chan time.Time
	Stop() bool
	Reset(d time.Duration) bool
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

func (realClock) AfterFunc(d time.Duration, fn func()) Timer {
	return &realTimer{t: time.AfterFunc(d, fn)}
}

func (realClock) NewTimer(d time.Duration) Timer {
	return &realTimer{t: time.NewTimer(d)}
}

func (realClock) JitteredPingInterval(d time.Duration) time.Duration {
	if d <= 0 {
		return d
	}
	return d + time.Duration(fastrand.Uint32n(uint32(d/4+1)))
}

type realTimer struct {
	t *time.Timer
}

func (rt *realTimer) C() <-chan time.Time        { return rt.t.C }
func (rt *realTimer) Stop() bool                 { return rt.t.Stop() }
func (rt *realTimer) Reset(d time.Duration) bool { return rt.t.Reset(d) }
