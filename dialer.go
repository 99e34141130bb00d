package http2

import (
	"crypto/tls"
	"net"
	"time"
)

// Dialer is the socket-provider collaborator: it knows how to open a TLS
// connection to one address and hands the result to newConn to run the
// HTTP/2 handshake over. Kept separate from ConnOpts because a Dialer is
// reused across many Dial calls (Client redials through the same one) while
// ConnOpts is per-connection.
type Dialer struct {
	// Addr is the "host:port" to dial.
	Addr string

	// TLSConfig is cloned and completed (ServerName, NextProtos) by
	// configureDialer before every dial; a nil TLSConfig starts from an
	// empty one.
	TLSConfig *tls.Config

	// Timeout bounds the TCP+TLS handshake. Zero means no timeout.
	Timeout time.Duration
}

// configureDialer returns a TLS config ready to negotiate h2: ServerName is
// derived from Addr when the caller left it unset, and "h2" is appended to
// NextProtos unless already present. An explicitly set ServerName is never
// overridden.
func configureDialer(d *Dialer) *tls.Config {
	var cfg *tls.Config
	if d.TLSConfig != nil {
		cfg = d.TLSConfig.Clone()
	} else {
		cfg = &tls.Config{}
	}

	if cfg.ServerName == "" {
		host, _, err := net.SplitHostPort(d.Addr)
		if err != nil {
			host = d.Addr
		}
		cfg.ServerName = host
	}

	if !hasProto(cfg.NextProtos, "h2") {
		cfg.NextProtos = append(cfg.NextProtos, "h2")
	}

	return cfg
}

func hasProto(protos []string, want string) bool {
	for _, p := range protos {
		if p == want {
			return true
		}
	}
	return false
}

// Dial opens a fresh HTTP/2 connection and sends the client side of the
// handshake: preface and local SETTINGS. It does not wait for the peer's
// first frame; the connection actor checks that it is SETTINGS (RFC 7540
// §3.5) when it arrives.
func (d *Dialer) Dial(opts ConnOpts) (*Conn, error) {
	tlsConfig := configureDialer(d)

	netDialer := net.Dialer{Timeout: d.Timeout}
	nc, err := tls.DialWithDialer(&netDialer, "tcp", d.Addr, tlsConfig)
	if err != nil {
		return nil, err
	}

	return newConn(nc, opts)
}
