package resilience

import (
	"errors"
	"syscall"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
)

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"plain_error", errors.New("boom"), false},
		{"transient_error", NewTransientError(errors.New("throttled"), 429), true},
		{"wrapped_transient", eris.Wrap(NewTransientError(errors.New("busy"), 503), "llm: chat"), true},
		{"conn_reset", syscall.ECONNRESET, true},
		{"conn_refused", syscall.ECONNREFUSED, true},
		{"message_io_timeout", errors.New("read tcp: i/o timeout"), true},
		{"message_conn_reset", errors.New("read: connection reset by peer"), true},
		{"message_tls_timeout", errors.New("net/http: TLS handshake timeout"), true},
		{"message_unexpected_eof", errors.New("unexpected EOF"), true},
		{"message_no_such_host", errors.New("dial tcp: lookup api.exa.ai: no such host"), false},
		{"validation_error", errors.New("invalid answer format"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsTransient(tt.err))
		})
	}
}

func TestTransientError_Unwrap(t *testing.T) {
	inner := errors.New("rate limited")
	te := NewTransientError(inner, 429)

	assert.ErrorIs(t, te, inner)
	assert.Equal(t, "rate limited", te.Error())
	assert.Equal(t, 429, te.StatusCode)
}

func TestIsTransientHTTPStatus(t *testing.T) {
	for _, code := range []int{408, 429, 500, 502, 503, 504} {
		assert.True(t, IsTransientHTTPStatus(code), "status %d", code)
	}
	for _, code := range []int{200, 201, 400, 401, 403, 404, 422} {
		assert.False(t, IsTransientHTTPStatus(code), "status %d", code)
	}
}
