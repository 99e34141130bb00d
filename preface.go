package http2

import "io"

// ClientPreface is the fixed 24-byte magic every HTTP/2 client connection
// opens with (RFC 7540 §3.5).
const ClientPreface = "PRI * HTTP/2.0\r\n\r\nSM\r\n\r\n"

// WritePreface writes the client connection preface to w.
func WritePreface(w io.Writer) error {
	_, err := io.WriteString(w, ClientPreface)
	return err
}
