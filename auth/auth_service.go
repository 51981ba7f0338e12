package auth

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/jrsteele09/go-graph-client/graph"
	"github.com/jrsteele09/go-graph-client/sessions"
	"github.com/jrsteele09/go-graph-client/signedrequest"
	"github.com/jrsteele09/go-graph-client/token"
	"github.com/jrsteele09/go-graph-client/transport"
)

const (
	defaultLocale      = "en_US"
	defaultStateLength = 16
	minStateLength     = 10
	// bcrypt ignores input past 72 bytes, which is 36 hex-encoded bytes.
	maxStateLength = 36

	signedRequestField  = "signed_request"
	signedRequestCookie = "fbsr_"
)

// Config holds the application settings of a Service.
type Config struct {
	AppID     string
	AppSecret string
	// AppURL is the default redirect target of the login dialog.
	AppURL string

	Domain         string
	UserAgent      string
	ConnectTimeout time.Duration
	TotalTimeout   time.Duration

	// DefaultLocale is stored when no user locale is known. Defaults to en_US.
	DefaultLocale string
	// StateLength is the number of random bytes in a login state token.
	StateLength int
	// StateHashCost is the bcrypt cost used to hash a state before it is
	// stored. Defaults to bcrypt.DefaultCost.
	StateHashCost int
}

// Service verifies signed requests, manages the access token of one
// application and wraps API calls with a single recovery for expired tokens.
type Service struct {
	cfg      Config
	tokens   *token.Store
	client   *graph.Client
	sessions sessions.Store
	clock    clockwork.Clock
	logger   zerolog.Logger

	transport    transport.Transport
	registry     *token.Registry
	graphOptions []graph.Option

	mu     sync.RWMutex // protects claims
	claims *signedrequest.Claims
}

// Option configures a Service.
type Option func(*Service)

func WithTransport(t transport.Transport) Option {
	return func(s *Service) {
		s.transport = t
	}
}

// WithSessionStore sets where the login state and user locale are kept.
// Defaults to an in-memory store.
func WithSessionStore(store sessions.Store) Option {
	return func(s *Service) {
		s.sessions = store
	}
}

// WithTokenRegistry shares token stores between services of the same
// application.
func WithTokenRegistry(registry *token.Registry) Option {
	return func(s *Service) {
		s.registry = registry
	}
}

// WithClock sets the clock used to stamp token expiry (primarily for testing).
func WithClock(clock clockwork.Clock) Option {
	return func(s *Service) {
		s.clock = clock
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithGraphOptions passes extra options to the underlying API client. They
// are applied after those derived from Config.
func WithGraphOptions(opts ...graph.Option) Option {
	return func(s *Service) {
		s.graphOptions = append(s.graphOptions, opts...)
	}
}

// NewService creates a Service for one application.
func NewService(cfg Config, options ...Option) (*Service, error) {
	if cfg.AppID == "" || cfg.AppSecret == "" {
		return nil, ErrMissingCredentials
	}
	if cfg.DefaultLocale == "" {
		cfg.DefaultLocale = defaultLocale
	}
	if cfg.StateLength == 0 {
		cfg.StateLength = defaultStateLength
	}
	if cfg.StateLength < minStateLength || cfg.StateLength > maxStateLength {
		return nil, errors.Errorf("[NewService] state length must be between %d and %d bytes", minStateLength, maxStateLength)
	}
	if cfg.StateHashCost == 0 {
		cfg.StateHashCost = bcrypt.DefaultCost
	}

	s := &Service{
		cfg:    cfg,
		clock:  clockwork.NewRealClock(),
		logger: zerolog.Nop(),
	}
	for _, opt := range options {
		opt(s)
	}

	if s.sessions == nil {
		s.sessions = sessions.NewInMemoryStore()
	}
	if s.registry != nil {
		s.tokens = s.registry.For(cfg.AppID)
	} else {
		s.tokens = token.NewStore(cfg.AppID)
	}
	s.logger = s.logger.With().Str("app_id", cfg.AppID).Logger()

	graphOptions := []graph.Option{
		graph.WithDomain(cfg.Domain),
		graph.WithUserAgent(cfg.UserAgent),
		graph.WithTimeouts(cfg.ConnectTimeout, cfg.TotalTimeout),
		graph.WithTransport(s.transport),
		graph.WithLogger(s.logger),
	}
	s.client = graph.New(
		graph.Credentials{AppID: cfg.AppID, AppSecret: cfg.AppSecret},
		s.tokens,
		append(graphOptions, s.graphOptions...)...,
	)
	return s, nil
}

func (s *Service) AppID() string {
	return s.cfg.AppID
}

func (s *Service) AppURL() string {
	return s.cfg.AppURL
}

// AccessToken returns the current access token value, or an empty string.
func (s *Service) AccessToken() string {
	return s.tokens.Value()
}

// SetAccessToken replaces the current token. An empty value clears it.
func (s *Service) SetAccessToken(value string) {
	s.tokens.Set(value, token.SourceExplicit)
}

func (s *Service) Tokens() *token.Store {
	return s.tokens
}

func (s *Service) Client() *graph.Client {
	return s.client
}

// Claims returns the claims of the last successfully verified signed request.
func (s *Service) Claims() *signedrequest.Claims {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.claims
}

// ParseSignedRequest verifies raw and makes its claims current. A payload
// token seeds the token store when no token is set. On failure the previous
// claims are dropped and a verification APIError is returned.
func (s *Service) ParseSignedRequest(ctx context.Context, raw string) (*signedrequest.Claims, error) {
	claims, err := s.VerifySignedRequest(raw)
	if err != nil {
		s.setClaims(nil)
		return nil, err
	}
	s.setClaims(claims)

	if oauthToken, ok := claims.OAuthToken(); ok && s.tokens.SeedIfEmpty(oauthToken, token.SourceSignedRequest) {
		s.logger.Debug().Msg("access token taken from signed request")
	}
	if err := s.rememberLocale(ctx, claims.Locale()); err != nil {
		s.logger.Warn().Err(err).Msg("storing user locale")
	}
	return claims, nil
}

// VerifySignedRequest verifies raw without changing any state of the Service.
func (s *Service) VerifySignedRequest(raw string) (*signedrequest.Claims, error) {
	claims, err := signedrequest.Verify(raw, s.cfg.AppSecret)
	if err != nil {
		s.logger.Warn().Err(err).Msg("signed request rejected")
		return nil, graph.WrapVerificationError(err)
	}
	return claims, nil
}

// ParseSignedRequestFromHTTP reads the signed_request form field, falling back
// to the fbsr_{appID} cookie.
func (s *Service) ParseSignedRequestFromHTTP(r *http.Request) (*signedrequest.Claims, error) {
	raw, err := s.signedRequestFromHTTP(r)
	if err != nil {
		return nil, err
	}
	return s.ParseSignedRequest(r.Context(), raw)
}

func (s *Service) signedRequestFromHTTP(r *http.Request) (string, error) {
	raw := r.FormValue(signedRequestField)
	if raw == "" {
		if cookie, err := r.Cookie(signedRequestCookie + s.cfg.AppID); err == nil {
			raw = cookie.Value
		}
	}
	if raw == "" {
		return "", ErrNoSignedRequest
	}
	return raw, nil
}

// UserLocale returns the locale of the request's claims when ctx carries
// them. Otherwise it returns the last known user locale, storing the default
// locale when none is known.
func (s *Service) UserLocale(ctx context.Context) (string, error) {
	if claims, ok := ClaimsFromContext(ctx); ok && claims.Locale() != "" {
		return claims.Locale(), nil
	}
	locale, ok, err := s.sessions.Get(ctx, s.cfg.AppID, sessions.KeyUserLocale...)
	if err != nil {
		return "", errors.Wrap(err, "[Service UserLocale] sessions.Get")
	}
	if ok && locale != "" {
		return locale, nil
	}
	if err := s.sessions.Set(ctx, s.cfg.AppID, s.cfg.DefaultLocale, sessions.KeyUserLocale...); err != nil {
		return "", errors.Wrap(err, "[Service UserLocale] sessions.Set")
	}
	return s.cfg.DefaultLocale, nil
}

func (s *Service) rememberLocale(ctx context.Context, locale string) error {
	if locale == "" {
		_, err := s.UserLocale(ctx)
		return err
	}
	return s.sessions.Set(ctx, s.cfg.AppID, locale, sessions.KeyUserLocale...)
}

func (s *Service) setClaims(claims *signedrequest.Claims) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.claims = claims
}
