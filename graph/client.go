package graph

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"

	"github.com/jrsteele09/go-graph-client/internal/utils"
	"github.com/jrsteele09/go-graph-client/transport"
)

const (
	DefaultDomain         = "facebook.com"
	DefaultUserAgent      = "go-graph-client/1.0"
	DefaultConnectTimeout = 10 * time.Second
	DefaultTotalTimeout   = 60 * time.Second
)

const (
	paramAccessToken    = "access_token"
	paramAppSecretProof = "appsecret_proof"
)

// Credentials identify the application.
type Credentials struct {
	AppID     string
	AppSecret string
}

// TokenSource supplies the current access token value; an empty string means
// no token is set. *token.Store satisfies it.
type TokenSource interface {
	Value() string
}

// StaticToken is a TokenSource that always returns the same value.
type StaticToken string

func (t StaticToken) Value() string {
	return string(t)
}

// Client issues API calls and decodes the platform's response envelope.
type Client struct {
	credentials    Credentials
	tokens         TokenSource
	transport      transport.Transport
	domain         string
	userAgent      string
	connectTimeout time.Duration
	totalTimeout   time.Duration
	logger         zerolog.Logger
}

// Option configures a Client.
type Option func(*Client)

func WithDomain(domain string) Option {
	return func(c *Client) {
		if domain != "" {
			c.domain = strings.Trim(domain, ".")
		}
	}
}

func WithTransport(t transport.Transport) Option {
	return func(c *Client) {
		if t != nil {
			c.transport = t
		}
	}
}

// WithTimeouts overrides the connect and total timeouts. Zero values keep the
// defaults.
func WithTimeouts(connect, total time.Duration) Option {
	return func(c *Client) {
		if connect > 0 {
			c.connectTimeout = connect
		}
		if total > 0 {
			c.totalTimeout = total
		}
	}
}

func WithUserAgent(userAgent string) Option {
	return func(c *Client) {
		if userAgent != "" {
			c.userAgent = userAgent
		}
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// New creates a client. tokens may be nil, in which case calls carry no token
// unless one is passed in the request parameters.
func New(credentials Credentials, tokens TokenSource, opts ...Option) *Client {
	c := &Client{
		credentials:    credentials,
		tokens:         tokens,
		domain:         DefaultDomain,
		userAgent:      DefaultUserAgent,
		connectTimeout: DefaultConnectTimeout,
		totalTimeout:   DefaultTotalTimeout,
		logger:         zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.transport == nil {
		c.transport = transport.NewRestyTransport(transport.WithRestyLogger(c.logger))
	}
	return c
}

// WithTokens returns a copy of the client that takes its access token from
// tokens. The copy shares the transport of c.
func (c *Client) WithTokens(tokens TokenSource) *Client {
	clone := *c
	clone.tokens = tokens
	return &clone
}

func (c *Client) Credentials() Credentials {
	return c.credentials
}

func (c *Client) Domain() string {
	return c.domain
}

// EndpointURL returns the base URL of an endpoint, with a trailing slash.
func (c *Client) EndpointURL(endpoint Endpoint) string {
	if endpoint == "" {
		endpoint = EndpointGraph
	}
	return "https://" + string(endpoint) + "." + c.domain + "/"
}

// URL builds the full target URL of a request, including the access token and
// its proof.
func (c *Client) URL(req Request) string {
	return c.buildURL(req)
}

// Call sends req and decodes the response.
//
// A body that decodes to JSON with an "error" object fails with a KindRemote
// APIError. Any other JSON body is returned decoded, and a non-JSON body is
// returned raw.
func (c *Client) Call(ctx context.Context, req Request) (*Result, error) {
	logger := c.loggerFor(ctx).With().
		Str("endpoint", string(endpointOrDefault(req.Endpoint))).
		Str("path", normalizePath(req.Path)).
		Logger()

	treq := transport.Request{
		Method:         requestMethod(req),
		URL:            c.buildURL(req),
		Header:         http.Header{"User-Agent": []string{c.userAgent}},
		ConnectTimeout: c.connectTimeout,
		TotalTimeout:   c.totalTimeout,
	}
	if req.Post != nil {
		form, err := req.Post.form()
		if err != nil {
			return nil, errors.Wrap(err, "[Client Call] encode post body")
		}
		treq.Form = form
	}

	resp, err := c.transport.Send(ctx, treq)
	if err != nil {
		apiErr := newTransportError(err)
		logger.Debug().Int("code", utils.Value(apiErr.Code)).Msg("transport failure")
		return nil, apiErr
	}
	if resp == nil {
		apiErr := newTransportError(errors.New("transport returned no response"))
		logger.Debug().Msg("transport returned no response")
		return nil, apiErr
	}

	result, err := decodeResponse(resp)
	if err != nil {
		if apiErr, ok := AsAPIError(err); ok {
			logger.Debug().Int("code", utils.Value(apiErr.Code)).Int("status", resp.StatusCode).Msg("remote error")
		}
		return nil, err
	}
	logger.Debug().Int("status", resp.StatusCode).Bool("json", result.IsJSON()).Msg("call completed")
	return result, nil
}

func (c *Client) buildURL(req Request) string {
	query := url.Values{}
	for k, v := range req.Params {
		query.Set(k, v)
	}

	accessToken := query.Get(paramAccessToken)
	if accessToken == "" && !req.NoToken && c.tokens != nil {
		accessToken = c.tokens.Value()
	}
	if accessToken != "" {
		query.Set(paramAccessToken, accessToken)
		if c.credentials.AppSecret != "" {
			if proof, err := AppSecretProof(accessToken, c.credentials.AppSecret); err == nil {
				query.Set(paramAppSecretProof, proof)
			}
		}
	}

	target := c.EndpointURL(req.Endpoint) + normalizePath(req.Path)
	if len(query) == 0 {
		return target
	}
	return target + "?" + query.Encode()
}

func (c *Client) loggerFor(ctx context.Context) zerolog.Logger {
	if l := zerolog.Ctx(ctx); l.GetLevel() != zerolog.Disabled {
		return *l
	}
	return c.logger
}

// AppSecretProof returns hex(HMAC-SHA256(accessToken, key=appSecret)).
func AppSecretProof(accessToken, appSecret string) (string, error) {
	sum, err := jwt.SigningMethodHS256.Sign(accessToken, []byte(appSecret))
	if err != nil {
		return "", errors.Wrap(err, "[AppSecretProof] sign")
	}
	return hex.EncodeToString(sum), nil
}

func decodeResponse(resp *transport.Response) (*Result, error) {
	result := &Result{StatusCode: resp.StatusCode, Header: resp.Header, body: resp.Body}

	var value any
	if err := json.Unmarshal(resp.Body, &value); err != nil || value == nil {
		return result, nil
	}

	if envelope := gjson.GetBytes(resp.Body, "error"); envelope.IsObject() && len(envelope.Map()) > 0 {
		return nil, newRemoteError(envelope, resp.StatusCode)
	}

	result.value = value
	result.isJSON = true
	return result, nil
}

func newRemoteError(envelope gjson.Result, statusCode int) *APIError {
	apiErr := &APIError{
		Kind:       KindRemote,
		Type:       envelope.Get("type").String(),
		Message:    remoteMessage(envelope.Get("type").String(), envelope.Get("message").String()),
		Subcode:    int(envelope.Get("error_subcode").Int()),
		TraceID:    envelope.Get("fbtrace_id").String(),
		StatusCode: statusCode,
	}
	if code := int(envelope.Get("code").Int()); code != 0 {
		apiErr.Code = utils.Ptr(code)
	}
	return apiErr
}

func requestMethod(req Request) string {
	switch {
	case req.Method != "":
		return strings.ToUpper(req.Method)
	case req.Post != nil:
		return http.MethodPost
	default:
		return http.MethodGet
	}
}

func endpointOrDefault(endpoint Endpoint) Endpoint {
	if endpoint == "" {
		return EndpointGraph
	}
	return endpoint
}

func normalizePath(path string) string {
	return strings.TrimLeft(strings.TrimSpace(path), "/")
}
