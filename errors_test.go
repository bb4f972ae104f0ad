package dcpclient

import (
	"errors"
	"io"
	"net"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorKind_String(t *testing.T) {
	cases := []struct {
		kind ErrorKind
		want string
	}{
		{NoError, "No Error"},
		{ConnectionRefusedError, "Connection Refused"},
		{RemoteHostClosedError, "Remote Host Closed"},
		{HostNotFoundError, "Host Not Found"},
		{SocketAccessError, "Socket Access Error"},
		{SocketResourceError, "Socket Resource Error"},
		{SocketTimeoutError, "Socket Timeout"},
		{NetworkError, "Network Error"},
		{UnsupportedSocketOperationError, "Unsupported Socket Operation"},
		{UnknownSocketError, "Unknown Socket Error"},
	}
	for _, tc := range cases {
		t.Run(tc.want, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.kind.String())
		})
	}
}

func TestError_Interface(t *testing.T) {
	underlying := errors.New("boom")
	e := &Error{Kind: NetworkError, Err: underlying}

	assert.Equal(t, "boom", e.Error())
	assert.Equal(t, uint32(NetworkError), e.Code())
	assert.Equal(t, "Network Error", e.Message())
	assert.ErrorIs(t, e, underlying)

	nilErr := &Error{Kind: NoError}
	assert.Equal(t, "No Error", nilErr.Error())
}

func TestClassifyError(t *testing.T) {
	t.Run("Nil", func(t *testing.T) {
		assert.Equal(t, NoError, classifyError(nil).Kind)
	})

	t.Run("ClosedConnection", func(t *testing.T) {
		assert.Equal(t, RemoteHostClosedError, classifyError(net.ErrClosed).Kind)
	})

	t.Run("EOF", func(t *testing.T) {
		assert.Equal(t, RemoteHostClosedError, classifyError(io.EOF).Kind)
	})

	t.Run("DNSFailure", func(t *testing.T) {
		err := &net.DNSError{Err: "no such host", Name: "nope.invalid", IsNotFound: true}
		assert.Equal(t, HostNotFoundError, classifyError(err).Kind)
	})

	t.Run("ConnectionRefused", func(t *testing.T) {
		assert.Equal(t, ConnectionRefusedError, classifyError(syscall.ECONNREFUSED).Kind)
	})

	t.Run("ConnectionReset", func(t *testing.T) {
		assert.Equal(t, RemoteHostClosedError, classifyError(syscall.ECONNRESET).Kind)
	})

	t.Run("BrokenPipe", func(t *testing.T) {
		assert.Equal(t, RemoteHostClosedError, classifyError(syscall.EPIPE).Kind)
	})

	t.Run("PermissionDenied", func(t *testing.T) {
		assert.Equal(t, SocketAccessError, classifyError(syscall.EACCES).Kind)
		assert.Equal(t, SocketAccessError, classifyError(syscall.EPERM).Kind)
	})

	t.Run("ResourceExhaustion", func(t *testing.T) {
		assert.Equal(t, SocketResourceError, classifyError(syscall.EMFILE).Kind)
		assert.Equal(t, SocketResourceError, classifyError(syscall.ENFILE).Kind)
		assert.Equal(t, SocketResourceError, classifyError(syscall.ENOBUFS).Kind)
	})

	t.Run("Unsupported", func(t *testing.T) {
		assert.Equal(t, UnsupportedSocketOperationError, classifyError(syscall.EOPNOTSUPP).Kind)
	})

	t.Run("Timeout", func(t *testing.T) {
		err := &timeoutError{}
		assert.Equal(t, SocketTimeoutError, classifyError(err).Kind)
	})

	t.Run("GenericOpError", func(t *testing.T) {
		err := &net.OpError{Op: "dial", Err: errors.New("refused by firewall")}
		assert.Equal(t, NetworkError, classifyError(err).Kind)
	})

	t.Run("Unknown", func(t *testing.T) {
		assert.Equal(t, UnknownSocketError, classifyError(errors.New("mystery")).Kind)
	})
}

type timeoutError struct{}

func (*timeoutError) Error() string   { return "i/o timeout" }
func (*timeoutError) Timeout() bool   { return true }
func (*timeoutError) Temporary() bool { return true }
