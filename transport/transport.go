package transport

import (
	"context"
	"net/http"
	"net/url"
	"time"
)

// Request is a single HTTPS exchange. A nil Form sends no body; an empty,
// non-nil Form sends an empty form body.
type Request struct {
	Method         string
	URL            string
	Header         http.Header
	Form           url.Values
	ConnectTimeout time.Duration
	TotalTimeout   time.Duration
}

// Response is whatever the remote answered, regardless of status code.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Transport sends a request and returns the remote's response. It returns an
// *Error only when no response was obtained.
type Transport interface {
	Send(ctx context.Context, req Request) (*Response, error)
}

// Func adapts a function to the Transport interface.
type Func func(ctx context.Context, req Request) (*Response, error)

func (f Func) Send(ctx context.Context, req Request) (*Response, error) {
	return f(ctx, req)
}
