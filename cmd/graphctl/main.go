package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"

	"github.com/common-nighthawk/go-figure"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"

	"github.com/jrsteele09/go-graph-client/auth"
	"github.com/jrsteele09/go-graph-client/internal/config"
	apperrors "github.com/jrsteele09/go-graph-client/internal/errors"
	"github.com/jrsteele09/go-graph-client/internal/logging"
	"github.com/jrsteele09/go-graph-client/sessions"
	"github.com/jrsteele09/go-graph-client/transport"
)

const appName = "graphctl"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	if err != nil {
		log.Fatal().Err(err).Msg(appName + " failed")
	}
}

// globals are the flags accepted before the command name.
type globals struct {
	configPath string
	logLevel   string
	pretty     bool
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(stderr, "Recovered from panic: %v\n", r)
			debug.PrintStack()
			returnError = fmt.Errorf("panic recovered: %v", r)
		}
	}()

	var g globals
	flagSet := pflag.NewFlagSet(appName, pflag.ContinueOnError)
	flagSet.SetOutput(stderr)
	flagSet.SetInterspersed(false)
	flagSet.StringVar(&g.configPath, "config", "", "path to a YAML configuration file")
	flagSet.StringVar(&g.logLevel, "log-level", "", "log level (overrides LOG_LEVEL)")
	flagSet.BoolVar(&g.pretty, "pretty", false, "human readable log output")
	flagSet.Usage = func() { printUsage(stderr, flagSet) }

	if err := flagSet.Parse(args); err != nil {
		if err == pflag.ErrHelp {
			return nil
		}
		return err
	}
	if flagSet.NArg() == 0 {
		printUsage(stderr, flagSet)
		return apperrors.Wrapf(apperrors.ErrMissingArgument, "command")
	}

	cfg, err := config.Load(g.configPath)
	if err != nil {
		return apperrors.Wrapf(apperrors.ErrInvalidConfig, "%v", err)
	}
	level := g.logLevel
	if level == "" {
		level = cfg.GetLogLevel()
	}
	logger := logging.New(level, g.pretty, stderr)

	name, commandArgs := flagSet.Arg(0), flagSet.Args()[1:]
	cmd, ok := commands[name]
	if !ok {
		printUsage(stderr, flagSet)
		return apperrors.Wrapf(apperrors.ErrUnknownCommand, "%q", name)
	}
	env := &environment{cfg: cfg, logger: logger, stdout: stdout, stderr: stderr}
	return cmd.run(logger.WithContext(ctx), env, commandArgs)
}

// environment is what every command needs.
type environment struct {
	cfg    config.Config
	logger zerolog.Logger
	stdout io.Writer
	stderr io.Writer
}

// service builds the auth service from configuration. Values given on the
// command line replace the configured app credentials.
func (e *environment) service(appID, appSecret string) (*auth.Service, error) {
	if appID == "" {
		appID = e.cfg.GetAppID()
	}
	if appSecret == "" {
		appSecret = e.cfg.GetAppSecret()
	}

	store, err := e.sessionStore()
	if err != nil {
		return nil, err
	}
	return auth.NewService(auth.Config{
		AppID:          appID,
		AppSecret:      appSecret,
		AppURL:         e.cfg.GetAppURL(),
		Domain:         e.cfg.GetDomain(),
		UserAgent:      e.cfg.GetUserAgent(),
		ConnectTimeout: e.cfg.GetConnectTimeout(),
		TotalTimeout:   e.cfg.GetTotalTimeout(),
		DefaultLocale:  e.cfg.GetDefaultLocale(),
		StateLength:    e.cfg.GetStateLength(),
		StateHashCost:  e.cfg.GetStateHashCost(),
	},
		auth.WithSessionStore(store),
		auth.WithTransport(transport.NewRestyTransport(transport.WithRestyLogger(e.logger))),
		auth.WithLogger(e.logger),
	)
}

func (e *environment) sessionStore() (sessions.Store, error) {
	dir := e.cfg.GetSessionDir()
	if dir == "" {
		return sessions.NewInMemoryStore(), nil
	}
	return sessions.NewDiskStore(dir, e.cfg.GetSessionCacheSize())
}

func printUsage(w io.Writer, flagSet *pflag.FlagSet) {
	displayAppname(w, appName)
	fmt.Fprintf(w, "Usage:\n  %s [global flags] <command> [flags] [args]\n\nCommands:\n", appName)
	for _, name := range commandNames() {
		fmt.Fprintf(w, "  %-10s %s\n", name, commands[name].summary)
	}
	fmt.Fprintf(w, "\nGlobal flags:\n%s", flagSet.FlagUsages())
}

func displayAppname(w io.Writer, appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	fmt.Fprintln(w, myFigure.String())
}
