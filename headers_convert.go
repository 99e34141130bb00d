package http2

import (
	"strconv"

	"github.com/kianmeng/h2core/http2utils"
	"github.com/valyala/fasthttp"
)

// connectionSpecificHeaders lists the header fields RFC 7540 §8.1.2.2
// forbids on an HTTP/2 message; fasthttp models them as request/response
// metadata that this codec re-expresses as pseudo-headers instead.
var connectionSpecificHeaders = map[string]bool{
	"connection":        true,
	"keep-alive":        true,
	"proxy-connection":  true,
	"transfer-encoding": true,
	"upgrade":           true,
	"host":              true,
}

// buildRequestHeaders converts a fasthttp.Request into the pseudo-header +
// regular-header field list HPACK encodes, lower-casing names per RFC 7540
// §8.1.2.
func buildRequestHeaders(req *fasthttp.Request, scheme string) []HeaderField {
	uri := req.URI()

	fields := make([]HeaderField, 0, 4+req.Header.Len())
	fields = append(fields,
		HeaderField{Name: ":method", Value: string(req.Header.Method())},
		HeaderField{Name: ":scheme", Value: scheme},
		HeaderField{Name: ":authority", Value: string(uri.Host())},
		HeaderField{Name: ":path", Value: string(uri.RequestURI())},
	)

	req.Header.VisitAll(func(key, value []byte) {
		name := lowerHeaderName(key)
		if connectionSpecificHeaders[name] {
			return
		}
		fields = append(fields, HeaderField{Name: name, Value: string(value)})
	})

	return fields
}

// applyResponseHeaders decodes a server's HEADERS block into res: :status
// sets the status line, everything else becomes a regular header.
func applyResponseHeaders(res *fasthttp.Response, fields []HeaderField) {
	for _, f := range fields {
		if f.Name == ":status" {
			if code, err := strconv.Atoi(f.Value); err == nil {
				res.SetStatusCode(code)
			}
			continue
		}
		if len(f.Name) > 0 && f.Name[0] == ':' {
			continue // unexpected response pseudo-header, ignored
		}
		res.Header.Add(f.Name, f.Value)
	}
}

// applyPseudoRequest decodes a PUSH_PROMISE header block into a synthetic
// request describing what the server intends to push.
func applyPseudoRequest(req *fasthttp.Request, fields []HeaderField) {
	for _, f := range fields {
		switch f.Name {
		case ":method":
			req.Header.SetMethod(f.Value)
		case ":authority":
			req.URI().SetHost(f.Value)
			req.Header.SetHost(f.Value)
		case ":path":
			req.URI().SetPath(f.Value)
		case ":scheme":
			req.URI().SetScheme(f.Value)
		default:
			if len(f.Name) > 0 && f.Name[0] == ':' {
				continue
			}
			req.Header.Add(f.Name, f.Value)
		}
	}
}

// lowerHeaderName copies b lower-cased; it cannot use http2utils.EqualsFold
// (comparison only) or FastBytesToString (b is fasthttp's reused buffer, so
// the string must own its bytes).
func lowerHeaderName(b []byte) string {
	out := make([]byte, len(b))
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			c += 'a' - 'A'
		}
		out[i] = c
	}
	return http2utils.FastBytesToString(out)
}
