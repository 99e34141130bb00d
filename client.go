package http2

import (
	"container/list"
	"sync"
	"time"

	"github.com/valyala/fasthttp"
)

// ClientOpts configures a Client, the multi-connection pool sitting above a
// single Conn. The core connection actor stays free of pooling policy; a
// minimal pool is the natural client-facing entry point above it.
type ClientOpts struct {
	// PingInterval and MaxResponseTime are forwarded to every Conn this
	// client dials; see ConnOpts for their meaning.
	PingInterval    time.Duration
	MaxResponseTime time.Duration

	// OnRTT is forwarded to every Conn this client dials.
	OnRTT func(time.Duration)

	// Clock controls time-related operations. If nil, a real clock is used.
	Clock Clock
}

func (opts *ClientOpts) sanitize() {
	if opts.MaxResponseTime == 0 {
		opts.MaxResponseTime = DefaultMaxResponseTime
	}
	if opts.PingInterval == 0 {
		opts.PingInterval = DefaultPingInterval
	}
	if opts.Clock == nil {
		opts.Clock = realClock{}
	}
}

// Ctx represents one request/response exchange. Every stream the connection
// actor opens is driven by exactly one Ctx; submitting the same Ctx twice is
// a caller bug.
type Ctx struct {
	Request  *fasthttp.Request
	Response *fasthttp.Response
	Err      chan error

	streamID    uint32
	resolveOnce sync.Once
}

// resolve completes the exchange exactly once, delivering err (nil on
// success) to the waiting RoundTrip call.
func (ctx *Ctx) resolve(err error) {
	ctx.resolveOnce.Do(func() {
		select {
		case ctx.Err <- err:
		default:
		}
	})
}

// Client pools connections to a single dial target. Each request goes to the
// most recently dialed open connection that can still open a stream; a new
// connection is dialed only when none can, and closed ones are dropped.
type Client struct {
	d    *Dialer
	opts ClientOpts

	lck   sync.Mutex
	conns list.List
}

// NewClient creates a Client dialing through d.
func NewClient(d *Dialer, opts ClientOpts) *Client {
	opts.sanitize()
	return &Client{d: d, opts: opts}
}

func (cl *Client) onConnectionDropped(c *Conn, _ error) {
	cl.lck.Lock()
	defer cl.lck.Unlock()

	for e := cl.conns.Front(); e != nil; e = e.Next() {
		if e.Value.(*Conn) == c {
			cl.conns.Remove(e)
			break
		}
	}
}

func (cl *Client) createConn() (*Conn, error) {
	c, err := cl.d.Dial(ConnOpts{
		PingInterval:    cl.opts.PingInterval,
		MaxResponseTime: cl.opts.MaxResponseTime,
		OnRTT:           cl.opts.OnRTT,
		OnDisconnect:    cl.onConnectionDropped,
		Clock:           cl.opts.Clock,
	})
	if err != nil {
		return nil, err
	}

	cl.conns.PushFront(c)
	return c, nil
}

// RoundTrip implements fasthttp.HostClient's RoundTrip interface, so a
// *Client can be dropped straight into an *fasthttp.HostClient.
func (cl *Client) RoundTrip(_ *fasthttp.HostClient, req *fasthttp.Request, res *fasthttp.Response) (retry bool, err error) {
	cl.lck.Lock()

	var c *Conn
	for e := cl.conns.Front(); e != nil; {
		next := e.Next()
		cand := e.Value.(*Conn)
		if cand.Closed() {
			cl.conns.Remove(e)
			e = next
			continue
		}
		if cand.CanOpenStream() {
			c = cand
			break
		}
		e = next
	}

	if c == nil {
		c, err = cl.createConn()
	}
	cl.lck.Unlock()

	if err != nil {
		return false, err
	}

	ch := make(chan error, 1)
	ctx := &Ctx{Request: req, Response: res, Err: ch}

	if err := c.Submit(ctx); err != nil {
		return false, err
	}

	err = <-ch
	return false, err
}
