package auth

import (
	"net/url"

	"github.com/pkg/errors"
)

// parseRedirectURL accepts only absolute http(s) URLs without a fragment.
func parseRedirectURL(raw string) (*url.URL, error) {
	if raw == "" {
		return nil, ErrMissingRedirectURL
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, errors.Wrap(ErrInvalidRedirectURL, err.Error())
	}
	if u.Scheme != "https" && u.Scheme != "http" {
		return nil, errors.Wrapf(ErrInvalidRedirectURL, "scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return nil, errors.Wrap(ErrInvalidRedirectURL, "missing host")
	}
	if u.Fragment != "" {
		return nil, errors.Wrap(ErrInvalidRedirectURL, "fragment not allowed")
	}
	return u, nil
}
