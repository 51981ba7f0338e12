package auth

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jrsteele09/go-graph-client/graph"
	"github.com/jrsteele09/go-graph-client/token"
)

type callState int

const (
	stateNormal callState = iota
	// stateRecovering is terminal: a failure here is returned as is.
	stateRecovering
)

// Call issues a graph call for path. post may be nil for a GET.
func (s *Service) Call(ctx context.Context, path string, params map[string]string, post *graph.PostBody) (*graph.Result, error) {
	return s.Do(ctx, graph.Request{Path: path, Params: params, Post: post})
}

// Do issues req. When it fails because the current token has expired and the
// current signed request carries a different token, the store is switched to
// that token and req is sent exactly once more. The retry's outcome is
// returned either way.
//
// Claims and tokens come from ctx when it was built by RequestContext, and
// from the Service otherwise.
func (s *Service) Do(ctx context.Context, req graph.Request) (*graph.Result, error) {
	logger := s.logger.With().Str("call_id", uuid.NewString()).Logger()
	ctx = logger.WithContext(ctx)
	tokens := s.tokensFor(ctx)

	state := stateNormal
	for {
		used := tokens.Value()
		result, err := s.client.WithTokens(graph.StaticToken(used)).Call(ctx, req)
		if err == nil {
			return result, nil
		}
		if state == stateRecovering || !s.recoverExpiredToken(ctx, tokens, req, used, err, logger) {
			return nil, err
		}
		state = stateRecovering
	}
}

// recoverExpiredToken swaps in the signed request token when err is an
// authorization-expired remote error and that token differs from the one
// used. It reports whether the call should be retried.
func (s *Service) recoverExpiredToken(ctx context.Context, tokens *token.Store, req graph.Request, used string, err error, logger zerolog.Logger) bool {
	if !graph.IsAuthorizationExpired(err) || !usesStoredToken(req) || used == "" {
		return false
	}
	claims := s.claimsFor(ctx)
	if claims == nil {
		return false
	}
	candidate, ok := claims.OAuthToken()
	if !ok || candidate == used {
		return false
	}
	previous, swapped := tokens.SwapIfStale(candidate, token.SourceSignedRequest)
	if !swapped {
		// A concurrent call may already have switched to the payload token.
		if tokens.Value() != candidate {
			return false
		}
		logger.Debug().Err(err).Msg("access token expired, retrying with the already swapped signed request token")
		return true
	}
	logger.Debug().
		Err(err).
		Str("replaced_source", previous.Source.String()).
		Msg("access token expired, retrying with signed request token")
	return true
}

func usesStoredToken(req graph.Request) bool {
	return !req.NoToken && req.Params["access_token"] == ""
}
