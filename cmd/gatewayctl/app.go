package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/eaidesk/gateway/internal/config"
	"github.com/eaidesk/gateway/internal/content"
	"github.com/eaidesk/gateway/internal/gateway"
	"github.com/eaidesk/gateway/internal/notify"
	"github.com/eaidesk/gateway/internal/session"
	"github.com/eaidesk/gateway/internal/storage"
	"github.com/eaidesk/gateway/internal/storage/memory"
	"github.com/eaidesk/gateway/internal/storage/sqlite"
	"github.com/eaidesk/gateway/internal/telemetry"
)

// app holds everything a subcommand needs, built once per invocation.
type app struct {
	cfg      *config.Config
	logger   *slog.Logger
	store    storage.TokenStore
	guard    *session.Guard
	client   *gateway.Client
	delegate *content.FileCardDelegate
	errOut   io.Writer

	closers []func(context.Context) error
}

func (a *app) init(ctx context.Context, configPath string, errOut io.Writer) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	a.cfg = cfg
	a.errOut = errOut

	logger, closeLog, err := setupLogger(cfg.Log, errOut)
	if err != nil {
		return fmt.Errorf("failed to set up logging: %w", err)
	}
	a.logger = logger
	a.closers = append(a.closers, func(context.Context) error { return closeLog() })

	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitTracer("gatewayctl", errOut, logger)
		if err != nil {
			return fmt.Errorf("failed to initialize tracer: %w", err)
		}
		a.closers = append(a.closers, shutdown)
	}

	store, err := openStore(cfg.Session)
	if err != nil {
		return err
	}
	a.store = store
	a.closers = append(a.closers, func(context.Context) error { return store.Close() })

	a.guard = session.New(store, session.NavigatorFunc(a.redirect), cfg.Session.LoginLocation, logger)

	notifier := notify.Multi{notify.Log{Logger: logger}, printer{w: errOut}}
	if cfg.Notify.NTFYEndpoint != "" {
		notifier = append(notifier, notify.NTFY{Endpoint: cfg.Notify.NTFYEndpoint, Logger: logger})
	}

	opts := []gateway.Option{
		gateway.WithBaseURL(cfg.API.BaseURL),
		gateway.WithHTTPClient(&http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
			Timeout:   cfg.API.Timeout,
		}),
		gateway.WithTokens(store),
		gateway.WithGuard(a.guard),
		gateway.WithNotifier(notifier),
		gateway.WithIndicator(printer{w: errOut}),
		gateway.WithLogger(logger),
		gateway.WithSystemCode(cfg.API.SystemCode),
		gateway.WithTokenHeader(cfg.API.TokenHeader),
		gateway.WithCodes(gateway.Codes{Fatal: cfg.API.FatalCode, SessionExpired: cfg.API.SessionExpiredCodes}),
		gateway.WithDuplicateMessage(cfg.API.DuplicateMessage),
		gateway.WithSaver(gateway.DirSaver{Dir: cfg.Download.Dir}),
		gateway.WithDownloadPrefixLength(cfg.Download.PrefixLength),
	}
	if cfg.API.CrossDomainGuard {
		opts = append(opts, gateway.WithCrossDomainGuard())
	}
	a.client = gateway.New(opts...)

	a.delegate = &content.FileCardDelegate{}
	a.delegate.Attach(content.SystemOpener{})

	return nil
}

func openStore(cfg config.SessionConfig) (storage.TokenStore, error) {
	switch cfg.Store {
	case "", "memory":
		return memory.New(), nil
	case "sqlite":
		if dir := filepath.Dir(cfg.SQLitePath); dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("failed to create session store directory: %w", err)
			}
		}
		store, err := sqlite.New(cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("failed to open session store: %w", err)
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown session store %q", cfg.Store)
	}
}

// redirect is the CLI's stand-in for navigating to the login page.
func (a *app) redirect(_ context.Context, location string) {
	fmt.Fprintf(a.errOut, "session expired: sign in again (%s), then run `gatewayctl login TOKEN`\n", location)
}

// Close releases resources in reverse order of acquisition.
func (a *app) Close(ctx context.Context) error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

// printResult writes the flattened envelope as indented JSON. Session
// expiry prints nothing: the guard already told the user what to do.
func printResult(w io.Writer, r gateway.Result) error {
	if _, ok := r.(gateway.SessionExpired); ok {
		return errRequestFailed
	}

	env := gateway.Flatten(r)
	out, err := json.MarshalIndent(env, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(w, string(out))

	if !env.OK {
		return errRequestFailed
	}
	return nil
}

// parseFields turns k=v arguments into a parameter map.
func parseFields(args []string) (map[string]any, error) {
	fields := make(map[string]any, len(args))
	for _, arg := range args {
		k, v, ok := strings.Cut(arg, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("expected key=value, got %q", arg)
		}
		fields[k] = v
	}
	return fields, nil
}

// printer reports notices and loading hints on the terminal.
type printer struct {
	w io.Writer
}

func (p printer) Error(_ context.Context, msg string)   { fmt.Fprintln(p.w, "error:", msg) }
func (p printer) Success(_ context.Context, msg string) { fmt.Fprintln(p.w, msg) }

func (p printer) Show(_ context.Context, text string) {
	if text == "" {
		text = "loading..."
	}
	fmt.Fprintln(p.w, text)
}

func (p printer) Hide(context.Context) {}
