package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/quartermasterhq/quartermaster/internal/httpapi"
	"github.com/quartermasterhq/quartermaster/internal/service"
	"github.com/quartermasterhq/quartermaster/internal/session"
	"github.com/quartermasterhq/quartermaster/internal/store"
	"github.com/quartermasterhq/quartermaster/internal/store/drivers/sqlite"
	"github.com/quartermasterhq/quartermaster/pkg/cryptox"
	"github.com/quartermasterhq/quartermaster/pkg/slogx"
)

const (
	// BuildVersion should be set at build time via ldflags. Later problem
	BuildVersion = "v0.1.0"
)

// Application encapsulates the inventory service with all its dependencies.
type Application struct {
	cfg    Config
	logger *slog.Logger

	db       store.Store
	sessions *session.Manager

	authService      *service.AuthService
	bootstrapService *service.BootstrapService
	authzService     *service.AuthzService
	inventoryService *service.InventoryService
	userService      *service.UserService
	auditService     *service.AuditService

	server *http.Server
	router *httpapi.Router
}

// New creates a new Application instance with all dependencies initialized.
func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "quartermaster",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	// Set pepper path for password hashing
	cryptox.SetPepperPath(app.cfg.PepperFile)

	if err := app.initDatabase(); err != nil {
		return nil, err
	}

	app.sessions = session.NewManager(cfg.SessionTTL)
	app.initServices()

	if err := app.bootstrapAdmin(); err != nil {
		_ = app.db.Close()
		return nil, err
	}

	app.initHTTP()

	return app, nil
}

// bootstrapAdmin seeds the initial admin account on an empty database when
// QM_ADMIN_USERNAME/QM_ADMIN_PASSWORD are configured. The enrollment URI is
// written to stderr so it stays out of the structured log stream; it is shown
// exactly once.
func (app *Application) bootstrapAdmin() error {
	if app.cfg.AdminUsername == "" || app.cfg.AdminPassword == "" {
		return nil
	}

	enrollment, err := app.bootstrapService.EnsureAdmin(
		context.Background(), app.cfg.AdminUsername, app.cfg.AdminPassword)
	if err != nil {
		if errors.Is(err, service.ErrBootstrapAlready) {
			return nil
		}
		return fmt.Errorf("failed to bootstrap admin account: %w", err)
	}

	app.logger.Info("initial admin account created", "username", app.cfg.AdminUsername)
	fmt.Fprintf(os.Stderr, "initial admin TOTP enrollment (shown once): %s\n", enrollment.URI)
	return nil
}

// Run starts the application and blocks until shutdown is requested.
func (app *Application) Run() error {
	app.logger.Info("quartermaster starting", "port", app.cfg.Port, "version", BuildVersion)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server failed: %w", err)
		}
	case sig := <-shutdown:
		app.logger.Info("shutdown signal received", "signal", sig)

		if err := app.Shutdown(); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// Shutdown gracefully shuts down the application.
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down quartermaster...")

	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", "error", err)
		return err
	}

	app.logger.Info("quartermaster stopped")
	return nil
}

// initDatabase initializes the database and applies migrations.
func (app *Application) initDatabase() error {
	host := fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL", app.cfg.DatabaseFile)
	db, err := sqlite.NewStore(host)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	app.db = db

	if err := db.ApplyMigrations(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to apply database migrations: %w", err)
	}

	app.logger.Info("database migrations applied successfully")
	return nil
}

// initServices initializes all business logic services.
func (app *Application) initServices() {
	app.auditService = &service.AuditService{Store: app.db}
	app.authzService = &service.AuthzService{Store: app.db}

	app.authService = &service.AuthService{
		Store:  app.db,
		Audit:  app.auditService,
		Issuer: app.cfg.Issuer,
	}

	app.bootstrapService = &service.BootstrapService{
		Store:  app.db,
		Audit:  app.auditService,
		Issuer: app.cfg.Issuer,
	}

	app.inventoryService = &service.InventoryService{
		Store: app.db,
		Authz: app.authzService,
		Audit: app.auditService,
	}

	app.userService = &service.UserService{
		Store:  app.db,
		Authz:  app.authzService,
		Audit:  app.auditService,
		Issuer: app.cfg.Issuer,
	}
}

// initHTTP wires the router and server.
func (app *Application) initHTTP() {
	app.router = httpapi.NewRouter(app.db, app.sessions, app.logger)
	app.router.AuthService = app.authService
	app.router.AuthzService = app.authzService
	app.router.InventoryService = app.inventoryService
	app.router.UserService = app.userService
	app.router.AuditService = app.auditService
	app.router.ApplyRoutes()

	app.server = &http.Server{
		Addr:    fmt.Sprintf(":%d", app.cfg.Port),
		Handler: app.router,
	}
}
