package http2

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClientOptsSanitizeAppliesDefaults(t *testing.T) {
	var opts ClientOpts
	opts.sanitize()

	require.Equal(t, DefaultMaxResponseTime, opts.MaxResponseTime)
	require.Equal(t, DefaultPingInterval, opts.PingInterval)
	require.NotNil(t, opts.Clock)
}

func TestClientOptsSanitizeKeepsExplicitValues(t *testing.T) {
	opts := ClientOpts{MaxResponseTime: 5, PingInterval: 5}
	opts.sanitize()

	require.EqualValues(t, 5, opts.MaxResponseTime)
	require.EqualValues(t, 5, opts.PingInterval)
}

func TestCtxResolveDeliversExactlyOnce(t *testing.T) {
	ch := make(chan error, 1)
	ctx := &Ctx{Err: ch}

	ctx.resolve(nil)
	ctx.resolve(ErrRequestCanceled)

	select {
	case err := <-ch:
		require.NoError(t, err)
	default:
		t.Fatal("expected the first resolve to deliver a value")
	}

	select {
	case <-ch:
		t.Fatal("resolve must not deliver a second time")
	default:
	}
}
