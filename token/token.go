package token

import "time"

// Source records where the current access token came from.
type Source int

const (
	// SourceExplicit tokens were set by the application, or obtained from the
	// token endpoint.
	SourceExplicit Source = iota
	// SourceSignedRequest tokens were taken from a verified signed request.
	SourceSignedRequest
)

func (s Source) String() string {
	switch s {
	case SourceExplicit:
		return "explicit"
	case SourceSignedRequest:
		return "signed_request"
	default:
		return "unknown"
	}
}

// AccessToken is a bearer credential for API calls. Values are replaced as a
// whole, never modified in place.
type AccessToken struct {
	Value  string
	Source Source
	// ExpiresAt is informational and is only known after an extend; the
	// store never enforces it.
	ExpiresAt time.Time
}

// Expired reports whether the token has a known expiry that is before now.
func (t AccessToken) Expired(now time.Time) bool {
	return !t.ExpiresAt.IsZero() && now.After(t.ExpiresAt)
}
