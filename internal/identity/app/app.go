package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/skyfleethq/identity/internal/identity/email"
	httpapi "github.com/skyfleethq/identity/internal/identity/http"
	"github.com/skyfleethq/identity/internal/identity/service"
	"github.com/skyfleethq/identity/internal/identity/store"
	redisdriver "github.com/skyfleethq/identity/internal/identity/store/drivers/redis"
	"github.com/skyfleethq/identity/internal/identity/store/drivers/sqlite"
	"github.com/skyfleethq/identity/pkg/cryptox"
	"github.com/skyfleethq/identity/pkg/jwtx"
	"github.com/skyfleethq/identity/pkg/slogx"
)

// BuildVersion should be set at build time via ldflags.
const BuildVersion = "v0.1.0"

// Application encapsulates the identity service with all its dependencies.
type Application struct {
	cfg    Config
	logger *slog.Logger

	db    store.Store
	cache *redisdriver.Ephemeral

	tokenService *service.TokenService
	authService  *service.AuthService
	resetService *service.PasswordResetService
	mfaService   *service.MFAService
	rbacService  *service.RBACService
	userService  *service.UserService
	linker       *service.LinkerService

	server *http.Server
	router *httpapi.Router
}

// New creates an Application with all dependencies initialized.
func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "identity-service",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	if cfg.PasswordPepper != "" {
		cryptox.SetPepper(cfg.PasswordPepper)
	}

	if err := app.initDatabase(); err != nil {
		return nil, err
	}

	app.cache = redisdriver.NewEphemeral(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)

	if err := app.initServices(); err != nil {
		_ = app.db.Close()
		return nil, err
	}

	// The default roles must exist before the first registration.
	if err := app.rbacService.EnsureDefaultRoles(context.Background()); err != nil {
		_ = app.db.Close()
		return nil, fmt.Errorf("ensure default roles: %w", err)
	}

	app.initHTTP()

	return app, nil
}

// Run starts the application and blocks until shutdown is requested.
func (app *Application) Run() error {
	app.logger.Info("identity service starting", "port", app.cfg.Port, "version", BuildVersion)

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
	app.logger.Info("shutting down identity service...")

	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	if err := app.cache.Close(); err != nil {
		app.logger.Error("error closing ephemeral store", "error", err)
	}

	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", "error", err)
		return err
	}

	app.logger.Info("identity service stopped")
	return nil
}

func (app *Application) initDatabase() error {
	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL", app.cfg.DatabaseFile)
	db, err := sqlite.NewStore(dsn)
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

func (app *Application) initServices() error {
	signer, err := jwtx.NewHS256([]byte(app.cfg.JWTSecret), app.cfg.Issuer)
	if err != nil {
		return fmt.Errorf("token signer: %w", err)
	}

	app.tokenService = &service.TokenService{
		Signer:     signer,
		Issuer:     app.cfg.Issuer,
		AccessTTL:  app.cfg.AccessTTL,
		RefreshTTL: app.cfg.RefreshTTL,
	}

	app.linker = &service.LinkerService{Store: app.db}
	app.authService = &service.AuthService{
		Store:  app.db,
		Tokens: app.tokenService,
		Linker: app.linker,
	}

	app.resetService = &service.PasswordResetService{
		Store:    app.db,
		Email:    app.newEmailSender(),
		AppURL:   app.cfg.AppURL,
		TokenTTL: app.cfg.ResetTokenTTL,
	}

	app.mfaService = &service.MFAService{
		Store:        app.db,
		Ephemeral:    app.cache,
		Issuer:       app.cfg.Issuer,
		ChallengeTTL: app.cfg.MFAChallengeTTL,
	}

	app.rbacService = &service.RBACService{Store: app.db}
	app.userService = &service.UserService{Store: app.db}

	return nil
}

func (app *Application) newEmailSender() service.EmailSender {
	if app.cfg.SMTPHost == "" {
		app.logger.Warn("smtp host not configured, reset links will be logged")
		return &email.LogSender{Logger: app.logger}
	}

	sender, err := email.NewSMTPSender(email.Config{
		Host:     app.cfg.SMTPHost,
		Port:     app.cfg.SMTPPort,
		Username: app.cfg.SMTPUsername,
		Password: app.cfg.SMTPPassword,
		From:     app.cfg.SMTPFrom,
	})
	if err != nil {
		app.logger.Error("smtp sender unavailable, falling back to log", "error", err)
		return &email.LogSender{Logger: app.logger}
	}
	return sender
}

func (app *Application) initHTTP() {
	router := httpapi.NewRouter(BuildVersion, app.db, app.cache, app.logger)

	router.AuthService = app.authService
	router.TokenService = app.tokenService
	router.ResetService = app.resetService
	router.MFAService = app.mfaService
	router.RBACService = app.rbacService
	router.UserService = app.userService
	router.ApplyRoutes()

	app.router = router

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}
