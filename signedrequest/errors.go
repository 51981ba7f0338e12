package signedrequest

import "github.com/pkg/errors"

// Verification failures. All of them are terminal: a request carrying a
// payload that fails any of these checks must not be processed.
var (
	ErrInvalidSignature     = errors.New("invalid signature")
	ErrUnsupportedAlgorithm = errors.New("unsupported algorithm")
	ErrMalformedPayload     = errors.New("malformed signed request")
)
