package auth

import (
	"context"
	"net/http"

	"github.com/jrsteele09/go-graph-client/signedrequest"
	"github.com/jrsteele09/go-graph-client/token"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

const (
	// ContextKeyClaims stores the verified signed request claims
	ContextKeyClaims ContextKey = "signed_request_claims"
	// ContextKeyTokens stores the token store of a single request
	ContextKeyTokens ContextKey = "request_tokens"
)

// RequireSignedRequest rejects requests without a valid signed request with
// 401 and never calls next for them. Verified claims and a token store seeded
// from them are put in the request context; the Service's own claims and
// token store are left untouched, so one Service can serve many users.
func (s *Service) RequireSignedRequest(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, err := s.signedRequestFromHTTP(r)
		if err != nil {
			http.Error(w, "invalid signed request", http.StatusUnauthorized)
			return
		}
		claims, err := s.VerifySignedRequest(raw)
		if err != nil {
			http.Error(w, "invalid signed request", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r.WithContext(s.RequestContext(r.Context(), claims)))
	})
}

// RequestContext returns a context carrying claims and a token store of its
// own. The store holds the payload token, or the Service's current token when
// the payload has none. Calls made with the returned context use that store.
func (s *Service) RequestContext(ctx context.Context, claims *signedrequest.Claims) context.Context {
	store := token.NewStore(s.cfg.AppID)
	if oauthToken, ok := claims.OAuthToken(); ok {
		store.Set(oauthToken, token.SourceSignedRequest)
	} else if current, ok := s.tokens.Get(); ok {
		store.Put(current)
	}
	ctx = ContextWithClaims(ctx, claims)
	return context.WithValue(ctx, ContextKeyTokens, store)
}

func ContextWithClaims(ctx context.Context, claims *signedrequest.Claims) context.Context {
	return context.WithValue(ctx, ContextKeyClaims, claims)
}

// ClaimsFromContext returns the claims stored by RequireSignedRequest.
func ClaimsFromContext(ctx context.Context) (*signedrequest.Claims, bool) {
	claims, ok := ctx.Value(ContextKeyClaims).(*signedrequest.Claims)
	return claims, ok && claims != nil
}

// TokensFromContext returns the token store of the request, if any.
func TokensFromContext(ctx context.Context) (*token.Store, bool) {
	store, ok := ctx.Value(ContextKeyTokens).(*token.Store)
	return store, ok && store != nil
}

// claimsFor prefers the claims of the request over those last parsed by the
// Service.
func (s *Service) claimsFor(ctx context.Context) *signedrequest.Claims {
	if claims, ok := ClaimsFromContext(ctx); ok {
		return claims
	}
	return s.Claims()
}

func (s *Service) tokensFor(ctx context.Context) *token.Store {
	if store, ok := TokensFromContext(ctx); ok {
		return store
	}
	return s.tokens
}
