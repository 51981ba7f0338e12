package transport_test

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/jrsteele09/go-graph-client/transport"
	"github.com/stretchr/testify/require"
)

func TestRestyTransport_Get(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodGet, r.Method)
		require.Equal(t, "test-agent/1.0", r.UserAgent())
		require.Equal(t, "tok", r.URL.Query().Get("access_token"))
		w.Header().Set("X-Test", "yes")
		_, _ = w.Write([]byte(`{"id":"4"}`))
	}))
	defer server.Close()

	tr := transport.NewRestyTransport()
	resp, err := tr.Send(context.Background(), transport.Request{
		Method:         http.MethodGet,
		URL:            server.URL + "/4?access_token=tok",
		Header:         http.Header{"User-Agent": []string{"test-agent/1.0"}},
		ConnectTimeout: time.Second,
		TotalTimeout:   5 * time.Second,
	})
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "yes", resp.Header.Get("X-Test"))
	require.JSONEq(t, `{"id":"4"}`, string(resp.Body))
}

func TestRestyTransport_PostForm(t *testing.T) {
	t.Run("Fields", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, http.MethodPost, r.Method)
			require.NoError(t, r.ParseForm())
			require.Equal(t, "hello", r.PostForm.Get("message"))
			require.Equal(t, "1", r.PostForm.Get("published"))
			_, _ = w.Write([]byte(`{"id":"1_2"}`))
		}))
		defer server.Close()

		resp, err := transport.NewRestyTransport().Send(context.Background(), transport.Request{
			Method: http.MethodPost,
			URL:    server.URL + "/me/feed",
			Form:   url.Values{"message": {"hello"}, "published": {"1"}},
		})
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("EmptyForm", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, http.MethodPost, r.Method)
			require.Equal(t, "application/x-www-form-urlencoded", r.Header.Get("Content-Type"))
			body, err := io.ReadAll(r.Body)
			require.NoError(t, err)
			require.Empty(t, body)
			_, _ = w.Write([]byte(`true`))
		}))
		defer server.Close()

		resp, err := transport.NewRestyTransport().Send(context.Background(), transport.Request{
			Method: http.MethodPost,
			URL:    server.URL + "/me/likes",
			Form:   url.Values{},
		})
		require.NoError(t, err)
		require.Equal(t, "true", string(resp.Body))
	})
}

func TestRestyTransport_NonSuccessStatusIsAResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"type":"OAuthException","message":"bad","code":190}}`))
	}))
	defer server.Close()

	resp, err := transport.NewRestyTransport().Send(context.Background(), transport.Request{URL: server.URL})
	require.NoError(t, err)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.Contains(t, string(resp.Body), "OAuthException")
}

func TestRestyTransport_Failures(t *testing.T) {
	t.Run("TotalTimeout", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-r.Context().Done():
			case <-time.After(2 * time.Second):
			}
		}))
		defer server.Close()

		_, err := transport.NewRestyTransport().Send(context.Background(), transport.Request{
			URL:          server.URL,
			TotalTimeout: 50 * time.Millisecond,
		})
		var transportErr *transport.Error
		require.ErrorAs(t, err, &transportErr)
		require.Equal(t, transport.CodeTimeout, transportErr.Code)
	})

	t.Run("ConnectionRefused", func(t *testing.T) {
		listener, err := net.Listen("tcp", "127.0.0.1:0")
		require.NoError(t, err)
		addr := listener.Addr().String()
		require.NoError(t, listener.Close())

		_, err = transport.NewRestyTransport().Send(context.Background(), transport.Request{
			URL:            "http://" + addr + "/",
			ConnectTimeout: time.Second,
		})
		var transportErr *transport.Error
		require.ErrorAs(t, err, &transportErr)
		require.Equal(t, transport.CodeConnect, transportErr.Code)
		require.NotEmpty(t, transportErr.Message)
	})

	t.Run("Canceled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := transport.NewRestyTransport().Send(ctx, transport.Request{URL: "http://127.0.0.1:1/"})
		var transportErr *transport.Error
		require.ErrorAs(t, err, &transportErr)
		require.Equal(t, transport.CodeCanceled, transportErr.Code)
	})
}

func TestNewError(t *testing.T) {
	testCases := []struct {
		name     string
		err      error
		expected transport.ErrorCode
	}{
		{"Deadline", context.DeadlineExceeded, transport.CodeTimeout},
		{"Canceled", context.Canceled, transport.CodeCanceled},
		{"DNS", &url.Error{Op: "Get", URL: "https://graph.invalid", Err: &net.DNSError{Err: "no such host", Name: "graph.invalid"}}, transport.CodeResolve},
		{"Dial", &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("refused")}, transport.CodeConnect},
		{"Other", errors.New("boom"), transport.CodeUnknown},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := transport.NewError(tc.err)
			require.Equal(t, tc.expected, err.Code)
			require.ErrorIs(t, err, tc.err)
		})
	}

	t.Run("PassThrough", func(t *testing.T) {
		existing := &transport.Error{Code: transport.CodeTLS, Message: "x509"}
		require.Same(t, existing, transport.NewError(existing))
	})

	require.Equal(t, "timeout", transport.CodeTimeout.String())
	require.Equal(t, "unknown", transport.ErrorCode(0).String())
}
