package auth

import "github.com/pkg/errors"

var (
	ErrMissingCredentials = errors.New("app id and app secret are required")
	ErrMissingRedirectURL = errors.New("no redirect url configured")
	ErrInvalidRedirectURL = errors.New("invalid redirect url")
	ErrStateMismatch      = errors.New("login state does not match")
	ErrNoSignedRequest    = errors.New("no signed request in http request")
	ErrMissingCode        = errors.New("authorization code is empty")
	ErrTokenResponse      = errors.New("token response has no access token")
)
