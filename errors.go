package dcpclient

import (
	"errors"
	"io"
	"net"
	"syscall"
)

// ErrorKind classifies a transport-level error, mirroring the closed
// set of socket errors the original Dcp::Client exposes via error()/
// errorString(). Unlike a raw net.Error, ErrorKind is stable across
// the standard library's various concrete error types.
type ErrorKind int

const (
	NoError ErrorKind = iota
	ConnectionRefusedError
	RemoteHostClosedError
	HostNotFoundError
	SocketAccessError
	SocketResourceError
	SocketTimeoutError
	NetworkError
	UnsupportedSocketOperationError
	UnknownSocketError
)

func (k ErrorKind) String() string {
	switch k {
	case NoError:
		return "No Error"
	case ConnectionRefusedError:
		return "Connection Refused"
	case RemoteHostClosedError:
		return "Remote Host Closed"
	case HostNotFoundError:
		return "Host Not Found"
	case SocketAccessError:
		return "Socket Access Error"
	case SocketResourceError:
		return "Socket Resource Error"
	case SocketTimeoutError:
		return "Socket Timeout"
	case NetworkError:
		return "Network Error"
	case UnsupportedSocketOperationError:
		return "Unsupported Socket Operation"
	default:
		return "Unknown Socket Error"
	}
}

// Error wraps a transport error with its classified ErrorKind. It
// satisfies the standard error interface and Unwrap, so callers can
// use errors.Is/errors.As to recover the underlying *net.OpError or
// syscall.Errno alongside the coarse Kind.
type Error struct {
	Kind ErrorKind
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Kind.String()
	}
	return e.Err.Error()
}

// Code returns the numeric ErrorKind, for parity with the teacher
// repo's ProtocolError-shaped error types.
func (e *Error) Code() uint32 { return uint32(e.Kind) }

// Message returns a human-readable description of the error kind.
func (e *Error) Message() string { return e.Kind.String() }

func (e *Error) Unwrap() error { return e.Err }

// classifyError maps a transport error from net.Conn/net.Dial into an
// ErrorKind, the Go analogue of ClientPrivate::mapSocketError.
func classifyError(err error) *Error {
	if err == nil {
		return &Error{Kind: NoError}
	}

	if errors.Is(err, net.ErrClosed) || errors.Is(err, io.EOF) {
		return &Error{Kind: RemoteHostClosedError, Err: err}
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return &Error{Kind: HostNotFoundError, Err: err}
	}

	if errors.Is(err, syscall.ECONNREFUSED) {
		return &Error{Kind: ConnectionRefusedError, Err: err}
	}
	if errors.Is(err, syscall.ECONNRESET) || errors.Is(err, syscall.EPIPE) {
		return &Error{Kind: RemoteHostClosedError, Err: err}
	}
	if errors.Is(err, syscall.EACCES) || errors.Is(err, syscall.EPERM) {
		return &Error{Kind: SocketAccessError, Err: err}
	}
	if errors.Is(err, syscall.EMFILE) || errors.Is(err, syscall.ENFILE) || errors.Is(err, syscall.ENOBUFS) {
		return &Error{Kind: SocketResourceError, Err: err}
	}
	if errors.Is(err, syscall.EOPNOTSUPP) {
		return &Error{Kind: UnsupportedSocketOperationError, Err: err}
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &Error{Kind: SocketTimeoutError, Err: err}
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return &Error{Kind: NetworkError, Err: err}
	}

	return &Error{Kind: UnknownSocketError, Err: err}
}
