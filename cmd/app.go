package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"runtime"

	"golang.org/x/oauth2"

	"github.com/planwell/calsync/internal/auth"
	"github.com/planwell/calsync/internal/catalog"
	"github.com/planwell/calsync/internal/config"
	"github.com/planwell/calsync/internal/events"
	"github.com/planwell/calsync/internal/instrumentation"
	"github.com/planwell/calsync/internal/provider"
	"github.com/planwell/calsync/internal/store"
)

// app wires the full component graph for a command invocation.
type app struct {
	cfg     *config.Config
	logger  *slog.Logger
	store   *store.Store
	auth    *auth.Manager
	client  *provider.Client
	catalog *catalog.Service
	events  *events.Service
	instr   *instrumentation.Provider
}

// appOptions tunes the wiring per command.
type appOptions struct {
	// metricsEnabled switches the OTel meter provider from no-op to the
	// Prometheus-backed one.
	metricsEnabled bool
}

func newApp(ctx context.Context, opts appOptions) (*app, error) {
	path := configPath
	if path == "" {
		path = config.DefaultPath()
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	st, err := store.Open(cfg.DataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to open data store at %s: %w", cfg.DataDir, err)
	}

	instr, err := instrumentation.NewProvider(ctx, instrumentation.Config{
		Enabled:        opts.metricsEnabled,
		ServiceName:    "calsync",
		ServiceVersion: version,
	})
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("failed to initialize metrics: %w", err)
	}

	oauthCfg := &oauth2.Config{
		ClientID:    cfg.Provider.ClientID,
		RedirectURL: cfg.Provider.RedirectURI,
		Scopes:      cfg.Provider.Scopes,
		Endpoint: oauth2.Endpoint{
			AuthURL:  cfg.Provider.Authority + "/oauth2/v2.0/authorize",
			TokenURL: cfg.Provider.Authority + "/oauth2/v2.0/token",
		},
	}

	creds := auth.NewCredentialStore(st)
	refresher := &auth.RefreshAuthenticator{OAuth: oauthCfg, Creds: creds}

	flow := &auth.ShellFlow{
		OAuth:    oauthCfg,
		Opener:   systemOpener{},
		Notifier: terminalNotifier{},
		SSO:      refresher,
		Logger:   logger,
	}

	manager := auth.NewManager(flow, creds, oauthCfg,
		auth.WithLogger(logger),
		auth.WithMetrics(instr.Metrics()),
		auth.WithSilentAuthenticator(refresher))

	// Resume a previously established session when the stored credential
	// is still fresh.
	manager.ReloadToken()

	client := provider.NewClient(cfg.Provider.BaseURL, manager,
		provider.WithLogger(logger),
		provider.WithMetrics(instr.Metrics()))

	catalogSvc := catalog.NewService(client, st, catalog.WithLogger(logger))

	eventsSvc := events.NewService(client, manager,
		events.WithLogger(logger),
		events.WithOngoingDays(cfg.Sync.OngoingDays),
		events.WithCalendarSelector(catalogSvc))

	return &app{
		cfg:     cfg,
		logger:  logger,
		store:   st,
		auth:    manager,
		client:  client,
		catalog: catalogSvc,
		events:  eventsSvc,
		instr:   instr,
	}, nil
}

func (a *app) Close(ctx context.Context) error {
	if err := a.instr.Shutdown(ctx); err != nil {
		a.logger.Error("failed to shut down metrics", "error", err)
	}
	return a.store.Close()
}

// systemOpener opens URLs with the platform's default browser.
type systemOpener struct{}

func (systemOpener) OpenExternal(url string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to open browser: %w", err)
	}
	return nil
}

// terminalNotifier prints user-facing notices to stderr.
type terminalNotifier struct{}

func (terminalNotifier) Notify(title, message string) {
	fmt.Fprintf(os.Stderr, "%s: %s\n", title, message)
}
