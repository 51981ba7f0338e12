package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"

	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/oauth2"

	"github.com/jrsteele09/go-graph-client/graph"
	"github.com/jrsteele09/go-graph-client/sessions"
)

const loginDialogPath = "dialog/oauth"

// LoginOptions customise the login dialog URL.
type LoginOptions struct {
	// Scope is the comma separated permission list, sent unchanged.
	Scope string
	// AppData is added to the redirect URL as the app_data parameter.
	AppData string
	// RedirectURL overrides the configured app URL.
	RedirectURL string
}

// LoginURL builds the login dialog URL. A fresh state token is generated and
// its hash is kept in the session store for VerifyState.
func (s *Service) LoginURL(ctx context.Context, opts LoginOptions) (string, error) {
	redirect := opts.RedirectURL
	if redirect == "" {
		redirect = s.cfg.AppURL
	}
	redirectURL, err := parseRedirectURL(redirect)
	if err != nil {
		return "", err
	}
	if opts.AppData != "" {
		query := redirectURL.Query()
		query.Set("app_data", opts.AppData)
		redirectURL.RawQuery = query.Encode()
	}

	state, err := newState(s.cfg.StateLength)
	if err != nil {
		return "", err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(state), s.cfg.StateHashCost)
	if err != nil {
		return "", errors.Wrap(err, "[Service LoginURL] bcrypt.GenerateFromPassword")
	}
	if err := s.sessions.Set(ctx, s.cfg.AppID, string(hash), sessions.KeyState...); err != nil {
		return "", errors.Wrap(err, "[Service LoginURL] sessions.Set")
	}

	dialog := oauth2.Config{
		ClientID:    s.cfg.AppID,
		RedirectURL: redirectURL.String(),
		Endpoint:    oauth2.Endpoint{AuthURL: s.client.EndpointURL(graph.EndpointWWW) + loginDialogPath},
	}
	if opts.Scope != "" {
		dialog.Scopes = []string{opts.Scope}
	}
	return dialog.AuthCodeURL(state), nil
}

// VerifyState checks the state returned by the login dialog against the one
// issued by LoginURL. A matching state is consumed.
func (s *Service) VerifyState(ctx context.Context, state string) error {
	hash, ok, err := s.sessions.Get(ctx, s.cfg.AppID, sessions.KeyState...)
	if err != nil {
		return errors.Wrap(err, "[Service VerifyState] sessions.Get")
	}
	if !ok || state == "" {
		return ErrStateMismatch
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(state)); err != nil {
		return ErrStateMismatch
	}
	if err := s.sessions.Delete(ctx, s.cfg.AppID, sessions.KeyState...); err != nil {
		return errors.Wrap(err, "[Service VerifyState] sessions.Delete")
	}
	return nil
}

func newState(length int) (string, error) {
	b := make([]byte, length)
	if _, err := rand.Read(b); err != nil {
		return "", errors.Wrap(err, "[newState] rand.Read")
	}
	return hex.EncodeToString(b), nil
}
