// netsuite-mcp serves NetSuite record operations as MCP tools over stdio, or
// as a JSON API over HTTP, backed by a fixture store.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/matiasleandrokruk/netsuite-mcp/internal/api"
	"github.com/matiasleandrokruk/netsuite-mcp/internal/backend"
	"github.com/matiasleandrokruk/netsuite-mcp/internal/domain/cache"
	"github.com/matiasleandrokruk/netsuite-mcp/internal/domain/tool"
	"github.com/matiasleandrokruk/netsuite-mcp/internal/infra/config"
	"github.com/matiasleandrokruk/netsuite-mcp/internal/infra/logging"
	"github.com/matiasleandrokruk/netsuite-mcp/internal/infra/metrics"
	"github.com/matiasleandrokruk/netsuite-mcp/internal/infra/sqlite"
	"github.com/matiasleandrokruk/netsuite-mcp/internal/mcpserver"
	"github.com/matiasleandrokruk/netsuite-mcp/internal/server"
	"github.com/matiasleandrokruk/netsuite-mcp/internal/version"
	"github.com/matiasleandrokruk/netsuite-mcp/pkg/auth"
)

const (
	exitOK    = 0
	exitError = 1
	exitUsage = 2
)

// httpWriteSlack is added to the backend timeout so a slow backend call still
// gets its error response written.
const httpWriteSlack = 15 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet(version.Name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	showVersion := fs.Bool("version", false, "Show version information")
	showHelp := fs.Bool("help", false, "Show help")

	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(stderr, "%v\n\n", err) //nolint:errcheck
		printHelp(stderr)
		return exitUsage
	}

	if *showVersion {
		fmt.Fprintln(stdout, version.String()) //nolint:errcheck
		return exitOK
	}

	if *showHelp {
		printHelp(stdout)
		return exitOK
	}

	cmd, rest := "serve", []string(nil)
	if fs.NArg() > 0 {
		cmd, rest = fs.Arg(0), fs.Args()[1:]
	}

	switch cmd {
	case "serve":
		return runServe(ctx, stderr)
	case "http":
		return runHTTP(ctx, stderr)
	case "token":
		return runToken(rest, stdout, stderr)
	case "fixtures":
		return runFixtures(ctx, rest, stdout, stderr)
	default:
		fmt.Fprintf(stderr, "unknown command %q\n\n", cmd) //nolint:errcheck
		printHelp(stderr)
		return exitUsage
	}
}

// app holds the process-scoped services shared by serve and http.
type app struct {
	cfg        config.Config
	logger     *logrus.Logger
	closeLog   func() error
	guard      *auth.Guard
	metrics    *metrics.Collector
	dispatcher *tool.Dispatcher
}

// loadConfig applies the startup rule: configuration must parse and the
// supplied key must match the expected secret.
func loadConfig() (config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, err
	}
	if err := cfg.CheckAPIKey(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

func bootstrap(ctx context.Context, stderr io.Writer) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	// stdout carries the MCP stream, so logs never go there.
	logger, closeLog, err := logging.New(logging.Config{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
		File:   cfg.LogFile,
		Output: stderr,
	})
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, logger: logger, closeLog: closeLog}
	if err := a.wire(ctx); err != nil {
		_ = closeLog()
		return nil, err
	}
	return a, nil
}

func (a *app) wire(ctx context.Context) error {
	port, err := a.backendPort(ctx)
	if err != nil {
		return err
	}

	descs, err := tool.WithTTL(tool.BuiltinDescriptors(), a.cfg.CacheTTL)
	if err != nil {
		return err
	}
	registry, err := tool.NewRegistry(descs...)
	if err != nil {
		return err
	}

	responses, err := cache.NewMemoryCache(a.cfg.CacheMaxEntries)
	if err != nil {
		return err
	}

	a.guard, err = auth.NewGuard(a.cfg.ExpectedAPIKey, a.cfg.APIKey)
	if err != nil {
		return err
	}
	a.metrics = metrics.New()

	a.dispatcher, err = tool.NewDispatcher(tool.Config{
		Registry: registry,
		Guard:    a.guard,
		Port:     port,
		Cache:    responses,
		Logger:   a.logger,
		Observer: a.metrics,
	})
	return err
}

func (a *app) backendPort(ctx context.Context) (backend.Port, error) {
	if a.cfg.Mode == config.ModeLive {
		return nil, backend.ErrLiveUnavailable
	}

	fixtures, err := backend.LoadFixtureFile(ctx, a.cfg.FixturesPath)
	if err != nil {
		return nil, err
	}
	a.logger.WithFields(logrus.Fields{
		"fixtures": a.cfg.FixturesPath,
		"count":    len(fixtures),
	}).Info("fixture store loaded")

	return backend.WithTimeout(backend.NewMock(fixtures, a.logger), a.cfg.BackendTimeout), nil
}

func runServe(ctx context.Context, stderr io.Writer) int {
	a, err := bootstrap(ctx, stderr)
	if err != nil {
		return startupFailed(stderr, err)
	}
	defer a.closeLog() //nolint:errcheck

	a.logger.WithField("version", version.Version).Info("serving MCP over stdio")
	if err := mcpserver.New(a.dispatcher, a.logger).ServeStdio(ctx); err != nil && !errors.Is(err, context.Canceled) {
		a.logger.WithError(err).Error("MCP server stopped")
		return exitError
	}
	return exitOK
}

func runHTTP(ctx context.Context, stderr io.Writer) int {
	a, err := bootstrap(ctx, stderr)
	if err != nil {
		return startupFailed(stderr, err)
	}
	defer a.closeLog() //nolint:errcheck

	router := api.NewRouter(api.Deps{
		Dispatcher: a.dispatcher,
		Guard:      a.guard,
		Metrics:    a.metrics,
		Logger:     a.logger,
	})

	srvCfg := server.DefaultConfig()
	srvCfg.Addr = a.cfg.HTTPAddr
	srvCfg.WriteTimeout = a.cfg.BackendTimeout + httpWriteSlack

	if err := server.NewServer(router, srvCfg, a.logger).Run(ctx); err != nil {
		a.logger.WithError(err).Error("HTTP server stopped")
		return exitError
	}
	return exitOK
}

func runToken(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("token", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	subject := fs.String("subject", "cli", "Token subject, recorded in request logs")
	ttl := fs.Duration("ttl", 0, "Token lifetime (default TOKEN_TTL)")
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(stderr, "token: %v\n", err) //nolint:errcheck
		return exitUsage
	}

	cfg, err := loadConfig()
	if err != nil {
		return startupFailed(stderr, err)
	}
	if *ttl <= 0 {
		*ttl = cfg.TokenTTL
	}

	guard, err := auth.NewGuard(cfg.ExpectedAPIKey, "")
	if err != nil {
		return startupFailed(stderr, err)
	}
	token, err := guard.IssueToken(*subject, *ttl)
	if err != nil {
		fmt.Fprintf(stderr, "token: %v\n", err) //nolint:errcheck
		return exitError
	}

	fmt.Fprintln(stdout, token) //nolint:errcheck
	return exitOK
}

func runFixtures(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 || args[0] != "import" {
		fmt.Fprintln(stderr, "usage: netsuite-mcp fixtures import --from <file> --to <db>") //nolint:errcheck
		return exitUsage
	}

	fs := flag.NewFlagSet("fixtures import", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	from := fs.String("from", "mocks/netsuite.json", "Source fixture file (.json, .yaml, .yml, .db, .sqlite)")
	to := fs.String("to", "", "Destination SQLite database")
	if err := fs.Parse(args[1:]); err != nil || *to == "" {
		fmt.Fprintln(stderr, "usage: netsuite-mcp fixtures import --from <file> --to <db>") //nolint:errcheck
		return exitUsage
	}

	n, err := importFixtures(ctx, *from, *to)
	if err != nil {
		fmt.Fprintf(stderr, "fixtures import: %v\n", err) //nolint:errcheck
		return exitError
	}

	fmt.Fprintf(stdout, "imported %d fixtures into %s\n", n, *to) //nolint:errcheck
	return exitOK
}

func importFixtures(ctx context.Context, from, to string) (int, error) {
	fixtures, err := backend.LoadFixtureFile(ctx, from)
	if err != nil {
		return 0, err
	}

	db, err := sqlite.NewDB(to)
	if err != nil {
		return 0, err
	}
	defer db.Close()

	if err := sqlite.MigrateUp(ctx, db); err != nil {
		return 0, err
	}
	return sqlite.SaveFixtures(ctx, db, fixtures)
}

func startupFailed(stderr io.Writer, err error) int {
	fmt.Fprintf(stderr, "netsuite-mcp: startup failed: %v\n", err) //nolint:errcheck
	return exitError
}

func printHelp(out io.Writer) {
	helpText := `netsuite-mcp - NetSuite record operations as MCP tools

Usage:
  netsuite-mcp [options] [command]

Options:
  --version    Show version information
  --help       Show this help message

Commands:
  serve                      Serve MCP over stdio (default)
  http                       Serve the JSON API on HTTP_ADDR
  token [--subject] [--ttl]  Issue a bearer token for the HTTP API
  fixtures import --from <file> --to <db>
                             Copy a fixture file into a SQLite fixture store

Environment:
  MCP_API_KEY            Required; must equal MCP_EXPECTED_API_KEY
  MCP_EXPECTED_API_KEY   Shared secret (default "default_key")
  NETSUITE_MODE          mock|live (default mock)
  NETSUITE_FIXTURES      Fixture file (default mocks/netsuite.json)
  NETSUITE_MCP_CONFIG    Optional YAML config file

Examples:
  MCP_API_KEY=default_key netsuite-mcp
  MCP_API_KEY=default_key netsuite-mcp http
  netsuite-mcp fixtures import --from mocks/netsuite.json --to data/fixtures.db`
	fmt.Fprintln(out, helpText) //nolint:errcheck
}
