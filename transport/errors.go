package transport

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"net"
)

// ErrorCode classifies why no response was obtained.
type ErrorCode int

const (
	CodeUnknown ErrorCode = iota + 1
	CodeTimeout
	CodeCanceled
	CodeResolve
	CodeConnect
	CodeTLS
)

func (c ErrorCode) String() string {
	switch c {
	case CodeTimeout:
		return "timeout"
	case CodeCanceled:
		return "canceled"
	case CodeResolve:
		return "resolve"
	case CodeConnect:
		return "connect"
	case CodeTLS:
		return "tls"
	default:
		return "unknown"
	}
}

// Error is returned by a Transport when the request never produced a response.
type Error struct {
	Code    ErrorCode
	Message string
	Err     error
}

func (e *Error) Error() string {
	return fmt.Sprintf("transport %s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewError classifies err. An *Error is returned unchanged.
func NewError(err error) *Error {
	var transportErr *Error
	if errors.As(err, &transportErr) {
		return transportErr
	}
	return &Error{Code: classify(err), Message: err.Error(), Err: err}
}

func classify(err error) ErrorCode {
	var (
		dnsErr    *net.DNSError
		opErr     *net.OpError
		netErr    net.Error
		certErr   *tls.CertificateVerificationError
		unknownCA x509.UnknownAuthorityError
		hostErr   x509.HostnameError
		recordErr tls.RecordHeaderError
	)
	switch {
	case errors.Is(err, context.Canceled):
		return CodeCanceled
	case errors.Is(err, context.DeadlineExceeded):
		return CodeTimeout
	case errors.As(err, &dnsErr):
		return CodeResolve
	case errors.As(err, &certErr), errors.As(err, &unknownCA), errors.As(err, &hostErr), errors.As(err, &recordErr):
		return CodeTLS
	case errors.As(err, &netErr) && netErr.Timeout():
		return CodeTimeout
	case errors.As(err, &opErr) && opErr.Op == "dial":
		return CodeConnect
	default:
		return CodeUnknown
	}
}
