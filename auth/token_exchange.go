package auth

import (
	"context"
	"net/url"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"github.com/tidwall/gjson"
	"golang.org/x/oauth2"

	"github.com/jrsteele09/go-graph-client/graph"
	"github.com/jrsteele09/go-graph-client/token"
)

const tokenEndpointPath = "oauth/access_token"

// ExtendedToken is the long-lived token returned by ExtendToken.
type ExtendedToken struct {
	Token token.AccessToken
	// Values holds every field of the token endpoint response.
	Values url.Values
}

// OAuth2 converts the token for use with golang.org/x/oauth2 clients.
func (t *ExtendedToken) OAuth2() *oauth2.Token {
	return &oauth2.Token{
		AccessToken: t.Token.Value,
		TokenType:   "Bearer",
		Expiry:      t.Token.ExpiresAt,
	}
}

// RawTokenResponse is the unprocessed answer of the token endpoint.
type RawTokenResponse struct {
	Values url.Values
	Body   []byte
}

func (r RawTokenResponse) AccessToken() string {
	return r.Values.Get("access_token")
}

// ExpiresIn returns the lifetime reported by the endpoint, or zero.
func (r RawTokenResponse) ExpiresIn() time.Duration {
	return expiresIn(r.Values)
}

// ExtendToken exchanges a short-lived token for a long-lived one and stores it
// in the token store of ctx (see RequestContext), or the Service's store. An
// empty tokenValue extends the current token.
func (s *Service) ExtendToken(ctx context.Context, tokenValue string) (*ExtendedToken, error) {
	tokens := s.tokensFor(ctx)
	if tokenValue == "" {
		tokenValue = tokens.Value()
	}
	if tokenValue == "" {
		return nil, graph.MissingTokenError("extending a token")
	}

	resp, err := s.requestToken(ctx, map[string]string{
		"client_id":         s.cfg.AppID,
		"client_secret":     s.cfg.AppSecret,
		"grant_type":        "fb_exchange_token",
		"fb_exchange_token": tokenValue,
	})
	if err != nil {
		return nil, err
	}

	extended := token.AccessToken{
		Value:  resp.AccessToken(),
		Source: token.SourceExplicit,
	}
	if ttl := resp.ExpiresIn(); ttl > 0 {
		extended.ExpiresAt = s.clock.Now().Add(ttl)
	}
	tokens.Put(extended)
	s.logger.Debug().Time("expires_at", extended.ExpiresAt).Msg("access token extended")

	return &ExtendedToken{Token: extended, Values: resp.Values}, nil
}

// ExchangeCodeForToken trades an authorization code for a token. The token
// store is left untouched.
func (s *Service) ExchangeCodeForToken(ctx context.Context, code string) (RawTokenResponse, error) {
	if code == "" {
		return RawTokenResponse{}, ErrMissingCode
	}
	return s.requestToken(ctx, map[string]string{
		"client_id":     s.cfg.AppID,
		"redirect_uri":  "",
		"client_secret": s.cfg.AppSecret,
		"code":          code,
	})
}

func (s *Service) requestToken(ctx context.Context, params map[string]string) (RawTokenResponse, error) {
	result, err := s.Do(ctx, graph.Request{Path: tokenEndpointPath, Params: params, NoToken: true})
	if err != nil {
		return RawTokenResponse{}, err
	}

	values, err := tokenValues(result)
	if err != nil {
		return RawTokenResponse{}, err
	}
	resp := RawTokenResponse{Values: values, Body: result.Raw()}
	if resp.AccessToken() == "" {
		return resp, ErrTokenResponse
	}
	return resp, nil
}

// tokenValues reads both the URL-encoded and the JSON form of a token response.
func tokenValues(result *graph.Result) (url.Values, error) {
	if !result.IsJSON() {
		values, err := result.Values()
		if err != nil {
			return nil, errors.Wrap(ErrTokenResponse, err.Error())
		}
		return values, nil
	}

	root := gjson.ParseBytes(result.Raw())
	if !root.IsObject() {
		return nil, ErrTokenResponse
	}
	values := url.Values{}
	root.ForEach(func(key, value gjson.Result) bool {
		switch {
		case value.Type == gjson.Null:
		case value.IsObject(), value.IsArray():
			values.Set(key.String(), value.Raw)
		default:
			values.Set(key.String(), value.String())
		}
		return true
	})
	return values, nil
}

func expiresIn(values url.Values) time.Duration {
	for _, name := range []string{"expires_in", "expires"} {
		if seconds, err := strconv.ParseInt(values.Get(name), 10, 64); err == nil && seconds > 0 {
			return time.Duration(seconds) * time.Second
		}
	}
	return 0
}
