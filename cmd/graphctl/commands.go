package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/spf13/pflag"

	"github.com/jrsteele09/go-graph-client/auth"
	"github.com/jrsteele09/go-graph-client/graph"
	apperrors "github.com/jrsteele09/go-graph-client/internal/errors"
	"github.com/jrsteele09/go-graph-client/signedrequest"
)

type command struct {
	summary string
	run     func(ctx context.Context, env *environment, args []string) error
}

var commands = map[string]command{
	"verify":    {summary: "verify a signed request and print its claims", run: runVerify},
	"sign":      {summary: "sign a JSON payload as a signed request", run: runSign},
	"call":      {summary: "call an API path", run: runCall},
	"extend":    {summary: "exchange a short-lived token for a long-lived one", run: runExtend},
	"exchange":  {summary: "exchange an authorization code for a token", run: runExchange},
	"login-url": {summary: "print a login dialog URL", run: runLoginURL},
}

func commandNames() []string {
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// credentialFlags are accepted by every command that talks to the platform.
type credentialFlags struct {
	appID     string
	appSecret string
}

func (c *credentialFlags) add(flagSet *pflag.FlagSet) {
	flagSet.StringVar(&c.appID, "app-id", "", "application id (overrides GRAPH_APP_ID)")
	flagSet.StringVar(&c.appSecret, "app-secret", "", "application secret (overrides GRAPH_APP_SECRET)")
}

func newFlagSet(name string, env *environment) *pflag.FlagSet {
	flagSet := pflag.NewFlagSet(name, pflag.ContinueOnError)
	flagSet.SetOutput(env.stderr)
	return flagSet
}

func runVerify(_ context.Context, env *environment, args []string) error {
	var secret string
	flagSet := newFlagSet("verify", env)
	flagSet.StringVar(&secret, "app-secret", "", "application secret (overrides GRAPH_APP_SECRET)")
	if err := flagSet.Parse(args); err != nil {
		return err
	}
	if flagSet.NArg() != 1 {
		return apperrors.Wrapf(apperrors.ErrMissingArgument, "verify <signed_request>")
	}
	if secret == "" {
		secret = env.cfg.GetAppSecret()
	}

	claims, err := signedrequest.Verify(flagSet.Arg(0), secret)
	if err != nil {
		return graph.WrapVerificationError(err)
	}
	return writeJSON(env.stdout, claims.Payload())
}

func runSign(_ context.Context, env *environment, args []string) error {
	var secret, payload string
	flagSet := newFlagSet("sign", env)
	flagSet.StringVar(&secret, "app-secret", "", "application secret (overrides GRAPH_APP_SECRET)")
	flagSet.StringVar(&payload, "payload", "{}", "JSON object to sign; algorithm is added when missing")
	if err := flagSet.Parse(args); err != nil {
		return err
	}
	if secret == "" {
		secret = env.cfg.GetAppSecret()
	}
	if secret == "" {
		return apperrors.Wrapf(apperrors.ErrMissingArgument, "app secret")
	}

	var fields map[string]any
	if err := json.Unmarshal([]byte(payload), &fields); err != nil || fields == nil {
		return apperrors.Wrapf(apperrors.ErrInvalidArgument, "payload must be a JSON object")
	}
	if _, ok := fields["algorithm"]; !ok {
		fields["algorithm"] = signedrequest.AlgorithmHMACSHA256
	}
	raw, err := signedrequest.Sign(fields, secret)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(env.stdout, raw)
	return err
}

func runCall(ctx context.Context, env *environment, args []string) error {
	var (
		creds         credentialFlags
		accessToken   string
		signedRequest string
		method        string
		endpoint      string
		post          bool
		params        map[string]string
		fields        map[string]string
	)
	flagSet := newFlagSet("call", env)
	creds.add(flagSet)
	flagSet.StringVar(&accessToken, "token", "", "access token")
	flagSet.StringVar(&signedRequest, "signed-request", "", "signed request providing claims and a fallback token")
	flagSet.StringVarP(&method, "method", "X", "", "HTTP method (default GET, or POST with --post/--field)")
	flagSet.StringVar(&endpoint, "endpoint", string(graph.EndpointGraph), "endpoint host prefix")
	flagSet.BoolVar(&post, "post", false, "send a POST without fields")
	flagSet.StringToStringVarP(&params, "param", "p", nil, "query parameter key=value")
	flagSet.StringToStringVarP(&fields, "field", "f", nil, "POST field key=value")
	if err := flagSet.Parse(args); err != nil {
		return err
	}
	if flagSet.NArg() != 1 {
		return apperrors.Wrapf(apperrors.ErrMissingArgument, "call <path>")
	}

	service, err := env.service(creds.appID, creds.appSecret)
	if err != nil {
		return err
	}
	if accessToken != "" {
		service.SetAccessToken(accessToken)
	}
	if signedRequest != "" {
		if _, err := service.ParseSignedRequest(ctx, signedRequest); err != nil {
			return err
		}
	}

	req := graph.Request{Endpoint: graph.Endpoint(endpoint), Method: method, Path: flagSet.Arg(0), Params: params}
	switch {
	case len(fields) > 0:
		body := make(map[string]any, len(fields))
		for k, v := range fields {
			body[k] = v
		}
		req.Post = graph.PostFields(body)
	case post:
		req.Post = graph.PostFlag()
	}

	result, err := service.Do(ctx, req)
	if err != nil {
		return err
	}
	if !result.IsJSON() {
		_, err = fmt.Fprintln(env.stdout, string(result.Raw()))
		return err
	}
	return writeJSON(env.stdout, result.Value())
}

func runExtend(ctx context.Context, env *environment, args []string) error {
	var creds credentialFlags
	var accessToken string
	flagSet := newFlagSet("extend", env)
	creds.add(flagSet)
	flagSet.StringVar(&accessToken, "token", "", "short-lived access token")
	if err := flagSet.Parse(args); err != nil {
		return err
	}

	service, err := env.service(creds.appID, creds.appSecret)
	if err != nil {
		return err
	}
	extended, err := service.ExtendToken(ctx, accessToken)
	if err != nil {
		return err
	}
	return writeJSON(env.stdout, extended.OAuth2())
}

func runExchange(ctx context.Context, env *environment, args []string) error {
	var creds credentialFlags
	flagSet := newFlagSet("exchange", env)
	creds.add(flagSet)
	if err := flagSet.Parse(args); err != nil {
		return err
	}
	if flagSet.NArg() != 1 {
		return apperrors.Wrapf(apperrors.ErrMissingArgument, "exchange <code>")
	}

	service, err := env.service(creds.appID, creds.appSecret)
	if err != nil {
		return err
	}
	resp, err := service.ExchangeCodeForToken(ctx, flagSet.Arg(0))
	if err != nil {
		return err
	}
	out := make(map[string]string, len(resp.Values))
	for k := range resp.Values {
		out[k] = resp.Values.Get(k)
	}
	return writeJSON(env.stdout, out)
}

func runLoginURL(ctx context.Context, env *environment, args []string) error {
	var creds credentialFlags
	var opts auth.LoginOptions
	flagSet := newFlagSet("login-url", env)
	creds.add(flagSet)
	flagSet.StringVar(&opts.Scope, "scope", "", "comma separated permissions")
	flagSet.StringVar(&opts.AppData, "app-data", "", "value passed back as app_data")
	flagSet.StringVar(&opts.RedirectURL, "redirect-url", "", "redirect URL (overrides GRAPH_APP_URL)")
	if err := flagSet.Parse(args); err != nil {
		return err
	}

	service, err := env.service(creds.appID, creds.appSecret)
	if err != nil {
		return err
	}
	loginURL, err := service.LoginURL(ctx, opts)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(env.stdout, loginURL)
	return err
}

func writeJSON(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
