package auth_test

import (
	"context"
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jrsteele09/go-graph-client/auth"
	"github.com/jrsteele09/go-graph-client/graph"
	"github.com/jrsteele09/go-graph-client/token"
	"github.com/jrsteele09/go-graph-client/transport"
	"github.com/jrsteele09/go-graph-client/transport/transportfake"
)

// expiredTokenFixture has T1 as the current token and a signed request
// carrying oauthToken.
func expiredTokenFixture(t *testing.T, oauthToken string, replies ...transportfake.Reply) *testFixture {
	t.Helper()
	f := setupTestFixture(t, replies...)
	f.service.SetAccessToken("T1")
	payload := map[string]any{"user_id": "123"}
	if oauthToken != "" {
		payload["oauth_token"] = oauthToken
	}
	_, err := f.service.ParseSignedRequest(context.Background(), signedRequest(t, payload))
	require.NoError(t, err)
	return f
}

func TestService_CallRecoversOnce(t *testing.T) {
	f := expiredTokenFixture(t, "T2",
		remoteError(graph.CodeAuthorizationExpired, "Error validating access token"),
		transportfake.JSON(map[string]any{"id": "123", "name": "Mark"}),
	)

	result, err := f.service.Call(context.Background(), "me", nil, nil)
	require.NoError(t, err)
	require.Equal(t, "Mark", result.Get("name").String())

	requests := f.transport.Requests()
	require.Len(t, requests, 2)
	require.Equal(t, "T1", queryOf(t, requests[0]).Get("access_token"))

	retry := queryOf(t, requests[1])
	proof, err := graph.AppSecretProof("T2", testAppSecret)
	require.NoError(t, err)
	require.Equal(t, "T2", retry.Get("access_token"))
	require.Equal(t, proof, retry.Get("appsecret_proof"))
	require.Equal(t, requests[0].Method, requests[1].Method)

	tok, ok := f.service.Tokens().Get()
	require.True(t, ok)
	require.Equal(t, token.AccessToken{Value: "T2", Source: token.SourceSignedRequest}, tok)
}

func TestService_CallRetriesPostWithSameBody(t *testing.T) {
	f := expiredTokenFixture(t, "T2",
		remoteError(graph.CodeAuthorizationExpired, "expired"),
		transportfake.JSON(map[string]any{"id": "1_2"}),
	)

	_, err := f.service.Call(context.Background(), "me/feed", nil, graph.PostFields(map[string]any{"message": "hi"}))
	require.NoError(t, err)

	requests := f.transport.Requests()
	require.Len(t, requests, 2)
	require.Equal(t, requests[0].Form, requests[1].Form)
	require.Equal(t, "hi", requests[1].Form.Get("message"))
}

func TestService_CallDoesNotRecover(t *testing.T) {
	testCases := []struct {
		name       string
		oauthToken string
		reply      transportfake.Reply
		request    graph.Request
	}{
		{
			name:    "NoPayloadToken",
			reply:   remoteError(graph.CodeAuthorizationExpired, "expired"),
			request: graph.Request{Path: "me"},
		},
		{
			name:       "PayloadTokenEqualsCurrent",
			oauthToken: "T1",
			reply:      remoteError(graph.CodeAuthorizationExpired, "expired"),
			request:    graph.Request{Path: "me"},
		},
		{
			name:       "OtherRemoteCode",
			oauthToken: "T2",
			reply:      remoteError(100, "Unsupported get request"),
			request:    graph.Request{Path: "me"},
		},
		{
			name:       "TransportFailure",
			oauthToken: "T2",
			reply:      transportfake.Failure(transport.CodeTimeout, "timed out"),
			request:    graph.Request{Path: "me"},
		},
		{
			name:       "ExplicitTokenParam",
			oauthToken: "T2",
			reply:      remoteError(graph.CodeAuthorizationExpired, "expired"),
			request:    graph.Request{Path: "me", Params: map[string]string{"access_token": "T0"}},
		},
		{
			name:       "NoTokenRequest",
			oauthToken: "T2",
			reply:      remoteError(graph.CodeAuthorizationExpired, "expired"),
			request:    graph.Request{Path: "oauth/access_token", NoToken: true},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			f := expiredTokenFixture(t, tc.oauthToken, tc.reply)

			_, err := f.service.Do(context.Background(), tc.request)
			require.Error(t, err)
			require.Len(t, f.transport.Requests(), 1)
			require.Equal(t, "T1", f.service.AccessToken())
		})
	}
}

func TestService_CallWithoutClaimsDoesNotRecover(t *testing.T) {
	f := setupTestFixture(t, remoteError(graph.CodeAuthorizationExpired, "expired"))
	f.service.SetAccessToken("T1")

	_, err := f.service.Call(context.Background(), "me", nil, nil)
	require.True(t, graph.IsAuthorizationExpired(err))
	require.Len(t, f.transport.Requests(), 1)
}

func TestService_CallWithoutCurrentTokenDoesNotRecover(t *testing.T) {
	f := setupTestFixture(t, remoteError(graph.CodeAuthorizationExpired, "expired"))
	_, err := f.service.ParseSignedRequest(context.Background(), signedRequest(t, map[string]any{"oauth_token": "T2"}))
	require.NoError(t, err)
	f.service.SetAccessToken("")

	_, err = f.service.Call(context.Background(), "me", nil, nil)
	require.True(t, graph.IsAuthorizationExpired(err))
	require.Len(t, f.transport.Requests(), 1)
	require.Empty(t, f.service.AccessToken())
}

func TestService_CallReturnsSecondError(t *testing.T) {
	f := expiredTokenFixture(t, "T2",
		remoteError(graph.CodeAuthorizationExpired, "first failure"),
		remoteError(graph.CodeAuthorizationExpired, "second failure"),
		transportfake.JSON(map[string]any{"unreachable": true}),
	)

	_, err := f.service.Call(context.Background(), "me", nil, nil)
	apiErr, ok := graph.AsAPIError(err)
	require.True(t, ok)
	require.Equal(t, graph.KindRemote, apiErr.Kind)
	require.Contains(t, apiErr.Message, "second failure")
	require.Len(t, f.transport.Requests(), 2)
	require.Equal(t, "T2", f.service.AccessToken())
}

func TestService_CallRetryFailureOfAnotherKind(t *testing.T) {
	f := expiredTokenFixture(t, "T2",
		remoteError(graph.CodeAuthorizationExpired, "expired"),
		transportfake.Failure(transport.CodeConnect, "connection refused"),
	)

	_, err := f.service.Call(context.Background(), "me", nil, nil)
	apiErr, ok := graph.AsAPIError(err)
	require.True(t, ok)
	require.Equal(t, graph.KindTransport, apiErr.Kind)
	require.Len(t, f.transport.Requests(), 2)
}

// concurrentSwapService answers the first call with code 190 after setting the
// shared store to swapTo, as a concurrent caller would. An empty swapTo clears
// the store.
func concurrentSwapService(t *testing.T, swapTo string) (*auth.Service, *[]string) {
	t.Helper()
	var (
		service *auth.Service
		used    []string
	)
	send := transport.Func(func(_ context.Context, req transport.Request) (*transport.Response, error) {
		u, err := url.Parse(req.URL)
		require.NoError(t, err)
		used = append(used, u.Query().Get("access_token"))
		if len(used) == 1 {
			service.Tokens().Set(swapTo, token.SourceSignedRequest)
			return &transport.Response{
				StatusCode: http.StatusBadRequest,
				Body:       []byte(`{"error":{"type":"OAuthException","message":"expired","code":190}}`),
			}, nil
		}
		return &transport.Response{StatusCode: http.StatusOK, Body: []byte(`{"id":"123"}`)}, nil
	})

	var err error
	service, err = auth.NewService(testConfig(), auth.WithTransport(send))
	require.NoError(t, err)
	service.SetAccessToken("T1")
	_, err = service.ParseSignedRequest(context.Background(), signedRequest(t, map[string]any{"oauth_token": "T2"}))
	require.NoError(t, err)
	return service, &used
}

func TestService_CallRetriesAfterConcurrentSwap(t *testing.T) {
	service, used := concurrentSwapService(t, "T2")

	result, err := service.Call(context.Background(), "me", nil, nil)
	require.NoError(t, err)
	require.Equal(t, "123", result.Get("id").String())
	require.Equal(t, []string{"T1", "T2"}, *used)
	require.Equal(t, "T2", service.AccessToken())
}

func TestService_CallDoesNotRetryAfterConcurrentClear(t *testing.T) {
	service, used := concurrentSwapService(t, "")

	_, err := service.Call(context.Background(), "me", nil, nil)
	require.True(t, graph.IsAuthorizationExpired(err))
	require.Equal(t, []string{"T1"}, *used)
	require.Empty(t, service.AccessToken())
}
