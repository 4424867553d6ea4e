package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aussiebroadwan/dentaldesk/internal/portal/domain"
	httpapi "github.com/aussiebroadwan/dentaldesk/internal/portal/http"
	"github.com/aussiebroadwan/dentaldesk/internal/portal/service"
	"github.com/aussiebroadwan/dentaldesk/internal/portal/store"
	"github.com/aussiebroadwan/dentaldesk/pkg/dentalsdk"
	"github.com/aussiebroadwan/dentaldesk/pkg/httpx"
	"github.com/aussiebroadwan/dentaldesk/pkg/slogx"
)

const (
	// BuildVersion should be set at build time via ldflags.
	BuildVersion = "v0.1.0"
)

// Application is one running client: token storage, the API client, the
// session and, when serving, the portal.
type Application struct {
	cfg    Config
	logger *slog.Logger

	kv store.KV

	Client  *dentalsdk.SDKClient
	Session *service.SessionStore
	Auth    *service.AuthService

	// Portal, set up by Listen
	expiry   *service.ExpiryWatcher
	server   *http.Server
	router   *httpapi.Router
	listener net.Listener
}

// New opens storage, wires the API client to the session and restores the
// persisted session.
func New(ctx context.Context, cfg Config) (*Application, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "dentaldesk",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
			Output:  cfg.LogOutput,
		}),
	}

	if err := app.openStorage(ctx); err != nil {
		return nil, err
	}

	app.initServices()
	app.Session.Restore(ctx)

	return app, nil
}

func (app *Application) Logger() *slog.Logger { return app.logger }

// initServices builds the API client and the session around it. Requests go
// through the logging transport and the client-side throttle.
func (app *Application) initServices() {
	client := dentalsdk.NewSDKClient(app.cfg.APIURL)
	client.HTTPClient = &http.Client{
		Timeout: app.cfg.HTTPTimeout,
		Transport: &slogx.Transport{
			Base:   httpx.NewThrottle(http.DefaultTransport, "/api/auth/", httpx.AuthLimit, httpx.APILimit),
			Logger: app.logger,
		},
	}

	app.Session = service.NewSessionStore(client, app.kv, app.logger)
	client.Tokens = app.Session.Token
	client.OnUnauthorized = app.Session.HandleUnauthorized
	app.Session.Subscribe(func(sess domain.Session) {
		app.logger.Debug("session state changed", "state", sess.State.String(), "role", sess.Role())
	})

	app.Client = client
	app.Auth = service.NewAuthService(client, app.Session, app.logger)
}

// initHTTP initializes the portal router and server
func (app *Application) initHTTP() {
	router := httpapi.NewRouter(
		app.Session,
		app.Auth,
		app.Client,
		app.kv,
		BuildVersion,
		app.logger,
	)
	router.ApplyRoutes()
	app.router = router

	app.server = &http.Server{
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
	app.expiry = service.NewExpiryWatcher(app.Session, app.logger, app.cfg.ExpiryCheckInterval)
}

// Listen binds the portal port. Serve calls it when it has not been called.
func (app *Application) Listen() (net.Addr, error) {
	if app.listener != nil {
		return app.listener.Addr(), nil
	}
	ln, err := net.Listen("tcp", fmt.Sprintf("127.0.0.1:%d", app.cfg.Port))
	if err != nil {
		return nil, fmt.Errorf("failed to listen: %w", err)
	}
	app.initHTTP()
	app.listener = ln
	return ln.Addr(), nil
}

// Serve runs the portal until ctx is done, then shuts it down gracefully.
func (app *Application) Serve(ctx context.Context) error {
	addr, err := app.Listen()
	if err != nil {
		return err
	}

	app.expiry.Start()
	defer app.expiry.Stop()
	app.logger.Info("portal starting", "addr", addr.String(), "api", app.cfg.APIURL, "version", BuildVersion)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.Serve(app.listener)
	}()

	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
		app.logger.Info("shutdown requested")
		return app.Shutdown()
	}
}

// Run serves the portal until SIGINT or SIGTERM.
func (app *Application) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return app.Serve(ctx)
}

// Shutdown gracefully stops the portal and releases its port. A running
// Serve returns once the server has closed. Storage stays open; call Close.
func (app *Application) Shutdown() error {
	if app.server == nil {
		return nil
	}
	app.logger.Info("shutting down portal...")

	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	var shutdownErr error
	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
		shutdownErr = err
	}

	// Serve owns the listener once it runs; a bound but unserved port is
	// closed here.
	if err := app.listener.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
		app.logger.Error("error closing listener", "error", err)
	}

	app.logger.Info("portal stopped")
	return shutdownErr
}

// Close releases token storage.
func (app *Application) Close() error {
	if err := app.kv.Close(); err != nil {
		app.logger.Error("error closing session store", "error", err)
		return err
	}
	return nil
}
