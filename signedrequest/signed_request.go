package signedrequest

import (
	"encoding/base64"
	"encoding/json"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
)

// AlgorithmHMACSHA256 is the only algorithm the platform signs payloads with.
const AlgorithmHMACSHA256 = "HMAC-SHA256"

const segmentSeparator = "."

// signingMethod computes and checks the raw HMAC-SHA256 signature. Verify uses
// hmac.Equal, so the comparison is constant time.
var signingMethod = jwt.SigningMethodHS256

// Verify decodes a raw signed request of the form "signature.payload", checks
// the signature against appSecret and returns the trusted claims.
//
// Nothing in the payload is inspected before the signature has been verified.
func Verify(raw, appSecret string) (*Claims, error) {
	if appSecret == "" {
		return nil, errors.Wrap(ErrInvalidSignature, "app secret is empty")
	}

	segments := strings.Split(strings.TrimSpace(raw), segmentSeparator)
	if len(segments) != 2 || segments[0] == "" || segments[1] == "" {
		return nil, errors.Wrapf(ErrMalformedPayload, "expected 2 segments, got %d", len(segments))
	}

	signature, err := decodeSegment(segments[0])
	if err != nil {
		return nil, errors.Wrapf(ErrInvalidSignature, "signature segment: %v", err)
	}
	payload, err := decodeSegment(segments[1])
	if err != nil {
		return nil, errors.Wrapf(ErrMalformedPayload, "payload segment: %v", err)
	}

	if err := signingMethod.Verify(string(payload), signature, []byte(appSecret)); err != nil {
		return nil, ErrInvalidSignature
	}

	var fields map[string]any
	if err := json.Unmarshal(payload, &fields); err != nil {
		return nil, errors.Wrapf(ErrMalformedPayload, "payload json: %v", err)
	}
	if fields == nil {
		return nil, errors.Wrap(ErrMalformedPayload, "payload is not an object")
	}

	algorithm, _ := fields["algorithm"].(string)
	if algorithm != AlgorithmHMACSHA256 {
		return nil, errors.Wrapf(ErrUnsupportedAlgorithm, "got %q, expected %s", algorithm, AlgorithmHMACSHA256)
	}

	return newClaims(algorithm, fields, payload), nil
}

// Sign produces a raw signed request for payload. It is the inverse of Verify
// and is used to build fixtures for applications and tests.
func Sign(payload map[string]any, appSecret string) (string, error) {
	encoded, err := json.Marshal(payload)
	if err != nil {
		return "", errors.Wrap(err, "[signedrequest Sign] json.Marshal")
	}
	return SignBytes(encoded, appSecret)
}

// SignBytes signs an already encoded payload.
func SignBytes(payload []byte, appSecret string) (string, error) {
	signature, err := signingMethod.Sign(string(payload), []byte(appSecret))
	if err != nil {
		return "", errors.Wrap(err, "[signedrequest SignBytes] sign")
	}
	return encodeSegment(signature) + segmentSeparator + encodeSegment(payload), nil
}

var segmentEncoding = base64.RawStdEncoding.Strict()

// decodeSegment accepts the URL-safe alphabet and tolerates both padded and
// unpadded input. The standard alphabet is accepted as well. Each segment has
// exactly one accepted encoding: unused trailing bits must be zero and line
// breaks are rejected.
func decodeSegment(segment string) ([]byte, error) {
	if strings.ContainsAny(segment, "\r\n") {
		return nil, errors.New("segment contains a line break")
	}
	segment = strings.NewReplacer("-", "+", "_", "/").Replace(segment)
	segment = strings.TrimRight(segment, "=")
	return segmentEncoding.DecodeString(segment)
}

func encodeSegment(b []byte) string {
	return base64.RawURLEncoding.EncodeToString(b)
}
