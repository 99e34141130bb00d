package http2

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"
)

func TestBuildRequestHeadersSetsPseudoHeaders(t *testing.T) {
	req := fasthttp.AcquireRequest()
	defer fasthttp.ReleaseRequest(req)
	req.SetRequestURI("https://example.com/a/b?x=1")
	req.Header.SetMethod("POST")
	req.Header.Set("X-Custom", "yes")
	req.Header.Set("Connection", "keep-alive")

	fields := buildRequestHeaders(req, "https")

	byName := map[string]string{}
	for _, f := range fields {
		byName[f.Name] = f.Value
	}

	require.Equal(t, "POST", byName[":method"])
	require.Equal(t, "https", byName[":scheme"])
	require.Equal(t, "example.com", byName[":authority"])
	require.Equal(t, "/a/b?x=1", byName[":path"])
	require.Equal(t, "yes", byName["x-custom"])
	_, hasConnection := byName["connection"]
	require.False(t, hasConnection, "connection-specific headers must be filtered")
}

func TestApplyResponseHeadersSetsStatusAndHeaders(t *testing.T) {
	res := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseResponse(res)

	applyResponseHeaders(res, []HeaderField{
		{Name: ":status", Value: "404"},
		{Name: "x-reason", Value: "not-found"},
	})

	require.Equal(t, 404, res.StatusCode())
	require.Equal(t, "not-found", string(res.Header.Peek("X-Reason")))
}

func TestApplyPseudoRequestBuildsPushRequest(t *testing.T) {
	req := fasthttp.AcquireRequest()
	defer fasthttp.ReleaseRequest(req)

	applyPseudoRequest(req, []HeaderField{
		{Name: ":method", Value: "GET"},
		{Name: ":authority", Value: "example.com"},
		{Name: ":path", Value: "/style.css"},
		{Name: ":scheme", Value: "https"},
		{Name: "accept", Value: "text/css"},
	})

	require.Equal(t, "GET", string(req.Header.Method()))
	require.Equal(t, "/style.css", string(req.URI().Path()))
	require.Equal(t, "example.com", string(req.URI().Host()))
	require.Equal(t, "text/css", string(req.Header.Peek("Accept")))
}

func TestLowerHeaderNameCopiesRatherThanAliases(t *testing.T) {
	b := []byte("X-Test")
	got := lowerHeaderName(b)
	require.Equal(t, "x-test", got)

	b[0] = 'Z'
	require.Equal(t, "x-test", got, "mutating the source buffer must not affect an already-lowered name")
}
