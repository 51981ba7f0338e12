package graph

import (
	"fmt"
	"strings"

	"github.com/jrsteele09/go-graph-client/internal/utils"
	"github.com/jrsteele09/go-graph-client/signedrequest"
	"github.com/jrsteele09/go-graph-client/transport"
	"github.com/pkg/errors"
)

// CodeAuthorizationExpired is the remote error code for an expired or
// invalidated access token.
const CodeAuthorizationExpired = 190

var ErrMissingToken = errors.New("no access token configured")

// Kind classifies an APIError.
type Kind int

const (
	KindTransport Kind = iota + 1
	KindRemote
	KindInvalidSignature
	KindUnsupportedAlgorithm
	KindMalformedPayload
	KindMissingToken
)

func (k Kind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindRemote:
		return "remote"
	case KindInvalidSignature:
		return "invalid_signature"
	case KindUnsupportedAlgorithm:
		return "unsupported_algorithm"
	case KindMalformedPayload:
		return "malformed_payload"
	case KindMissingToken:
		return "missing_token"
	default:
		return "unknown"
	}
}

// APIError is the single error type surfaced by the client and the auth
// service.
type APIError struct {
	Kind    Kind
	Message string
	// Code is the remote error code, or the transport error code for
	// transport failures. Nil when none was reported.
	Code *int

	// Remote envelope details.
	Type       string
	Subcode    int
	TraceID    string
	StatusCode int

	Err error
}

func (e *APIError) Error() string {
	if e.Code != nil {
		return fmt.Sprintf("graph %s error %d: %s", e.Kind, *e.Code, e.Message)
	}
	return fmt.Sprintf("graph %s error: %s", e.Kind, e.Message)
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// HasCode reports whether the error carries the given code.
func (e *APIError) HasCode(code int) bool {
	return e.Code != nil && *e.Code == code
}

// AsAPIError finds an *APIError in err's chain.
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// IsAuthorizationExpired reports whether err is a remote error with code 190.
func IsAuthorizationExpired(err error) bool {
	apiErr, ok := AsAPIError(err)
	return ok && apiErr.Kind == KindRemote && apiErr.HasCode(CodeAuthorizationExpired)
}

// MissingTokenError reports an operation that needs a token when none is set.
func MissingTokenError(operation string) *APIError {
	return &APIError{
		Kind:    KindMissingToken,
		Message: operation + " requires an access token",
		Err:     ErrMissingToken,
	}
}

// WrapVerificationError maps a signedrequest failure to an APIError.
func WrapVerificationError(err error) error {
	if err == nil {
		return nil
	}
	kind := KindMalformedPayload
	switch {
	case errors.Is(err, signedrequest.ErrInvalidSignature):
		kind = KindInvalidSignature
	case errors.Is(err, signedrequest.ErrUnsupportedAlgorithm):
		kind = KindUnsupportedAlgorithm
	}
	return &APIError{Kind: kind, Message: err.Error(), Err: err}
}

func newTransportError(err error) *APIError {
	transportErr := transport.NewError(err)
	return &APIError{
		Kind:    KindTransport,
		Message: transportErr.Message,
		Code:    utils.Ptr(int(transportErr.Code)),
		Err:     transportErr,
	}
}

func remoteMessage(errorType, message string) string {
	message = strings.TrimSpace(message)
	if errorType == "" {
		return message
	}
	return "[" + errorType + "] " + message
}
