package transport

import (
	"context"
	"crypto/tls"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"
)

var _ Transport = (*RestyTransport)(nil)

// RestyTransport is the default Transport. Peer certificates are always
// verified. One resty client is kept per distinct connect timeout.
type RestyTransport struct {
	tlsConfig *tls.Config
	logger    zerolog.Logger

	mu      sync.Mutex
	clients map[time.Duration]*resty.Client
}

type RestyOption func(*RestyTransport)

// WithTLSConfig sets the TLS configuration used for every connection.
// InsecureSkipVerify is ignored.
func WithTLSConfig(cfg *tls.Config) RestyOption {
	return func(t *RestyTransport) {
		if cfg == nil {
			return
		}
		c := cfg.Clone()
		c.InsecureSkipVerify = false
		t.tlsConfig = c
	}
}

// WithRestyLogger routes resty's internal warnings through logger.
func WithRestyLogger(logger zerolog.Logger) RestyOption {
	return func(t *RestyTransport) {
		t.logger = logger
	}
}

func NewRestyTransport(opts ...RestyOption) *RestyTransport {
	t := &RestyTransport{
		tlsConfig: &tls.Config{MinVersion: tls.VersionTLS12},
		logger:    zerolog.Nop(),
		clients:   make(map[time.Duration]*resty.Client),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func (t *RestyTransport) Send(ctx context.Context, req Request) (*Response, error) {
	if req.TotalTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, req.TotalTimeout)
		defer cancel()
	}

	r := t.client(req.ConnectTimeout).R().SetContext(ctx)
	if len(req.Header) > 0 {
		r.SetHeaderMultiValues(req.Header)
	}
	if req.Form != nil {
		if len(req.Form) == 0 {
			r.SetHeader("Content-Type", "application/x-www-form-urlencoded")
			r.SetBody([]byte{})
		} else {
			r.SetFormDataFromValues(req.Form)
		}
	}

	method := req.Method
	if method == "" {
		method = http.MethodGet
	}
	resp, err := r.Execute(method, req.URL)
	if err != nil {
		return nil, NewError(err)
	}
	return &Response{
		StatusCode: resp.StatusCode(),
		Header:     resp.Header(),
		Body:       resp.Body(),
	}, nil
}

func (t *RestyTransport) client(connectTimeout time.Duration) *resty.Client {
	t.mu.Lock()
	defer t.mu.Unlock()
	if c, ok := t.clients[connectTimeout]; ok {
		return c
	}

	dialer := &net.Dialer{Timeout: connectTimeout, KeepAlive: 30 * time.Second}
	hc := &http.Client{
		Transport: &http.Transport{
			Proxy:               http.ProxyFromEnvironment,
			DialContext:         dialer.DialContext,
			TLSClientConfig:     t.tlsConfig,
			TLSHandshakeTimeout: connectTimeout,
			ForceAttemptHTTP2:   true,
			MaxIdleConns:        100,
			IdleConnTimeout:     90 * time.Second,
		},
	}
	c := resty.NewWithClient(hc).SetLogger(restyLogger{t.logger})
	t.clients[connectTimeout] = c
	return c
}

type restyLogger struct {
	logger zerolog.Logger
}

func (l restyLogger) Errorf(format string, v ...interface{}) {
	l.logger.Error().Msgf(format, v...)
}

func (l restyLogger) Warnf(format string, v ...interface{}) {
	l.logger.Warn().Msgf(format, v...)
}

func (l restyLogger) Debugf(format string, v ...interface{}) {
	l.logger.Debug().Msgf(format, v...)
}
