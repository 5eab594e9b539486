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
	"time"

	httpapi "github.com/aussiebroadwan/accounts/internal/accounts/http"
	"github.com/aussiebroadwan/accounts/internal/accounts/service"
	"github.com/aussiebroadwan/accounts/internal/accounts/store"
	"github.com/aussiebroadwan/accounts/internal/accounts/store/drivers/postgres"
	"github.com/aussiebroadwan/accounts/internal/accounts/store/drivers/sqlite"
	"github.com/aussiebroadwan/accounts/pkg/cryptox"
	"github.com/aussiebroadwan/accounts/pkg/httpx"
	"github.com/aussiebroadwan/accounts/pkg/jwtx"
	"github.com/aussiebroadwan/accounts/pkg/mailx"
	"github.com/aussiebroadwan/accounts/pkg/slogx"
)

// BuildVersion is set at build time via -ldflags "-X ...app.BuildVersion=...".
var BuildVersion = "v0.1.0"

// Application encapsulates the accounts service with all its dependencies
type Application struct {
	cfg    Config
	logger *slog.Logger

	// Core dependencies
	db     store.Store
	hasher *cryptox.PasswordHasher
	codec  *jwtx.Codec
	mailer mailx.Sender

	// Services
	accountService       *service.AccountService
	profileService       *service.ProfileService
	passwordResetService *service.PasswordResetService

	// HTTP server
	server *http.Server
	router *httpapi.Router
}

// New creates a new Application instance with all dependencies initialized
func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg:    cfg,
		logger: NewLogger(cfg),
	}

	secrets, err := LoadSecrets(cfg)
	if err != nil {
		return nil, err
	}

	app.hasher = cryptox.NewPasswordHasher(cfg.Argon2Params(), secrets.Pepper)
	hp := app.hasher.Params()
	app.logger.Info("password hashing configured",
		"argon2_memory_kib", hp.Memory,
		"argon2_iterations", hp.Iterations,
		"argon2_parallelism", hp.Parallelism,
	)
	app.codec, err = jwtx.NewCodec(jwtx.CodecConfig{
		Secret:   secrets.TokenSecret,
		Issuer:   cfg.Issuer,
		TTL:      cfg.TokenTTL,
		ResetTTL: cfg.ResetTokenTTL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize token codec: %w", err)
	}

	if err := httpx.SetTrustedProxies(cfg.TrustedProxies); err != nil {
		return nil, err
	}

	if err := app.initMailer(); err != nil {
		return nil, err
	}
	if err := app.initDatabase(context.Background()); err != nil {
		return nil, err
	}

	app.initServices()
	app.initHTTP()

	return app, nil
}

// NewLogger builds the service logger from cfg.
func NewLogger(cfg Config) *slog.Logger {
	return slogx.New(slogx.Config{
		Service: "accounts-service",
		Version: BuildVersion,
		Env:     cfg.Env,
		Level:   cfg.LogLevel,
		Format:  cfg.LogFormat,
	})
}

// Handler returns the root HTTP handler.
func (app *Application) Handler() http.Handler {
	return app.router
}

// Run starts the application and blocks until shutdown is requested
func (app *Application) Run() error {
	app.logger.Info("accounts service starting", "port", app.cfg.Port, "version", BuildVersion)

	// Start server in a goroutine
	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	// Setup signal handling for graceful shutdown
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(shutdown)

	// Block until we receive a shutdown signal or server error
	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			_ = app.db.Close()
			return fmt.Errorf("server failed: %w", err)
		}
	case sig := <-shutdown:
		app.logger.Info("shutdown signal received", "signal", sig)

		// Perform graceful shutdown
		if err := app.Shutdown(); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// Shutdown gracefully shuts down the application
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down accounts service...")

	// Give outstanding requests a deadline for completion
	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	// Shutdown the HTTP server
	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	// Close database connection
	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", "error", err)
		return err
	}

	app.logger.Info("accounts service stopped")
	return nil
}

// OpenStore connects to the database cfg names. Migrations are not applied.
func OpenStore(ctx context.Context, cfg Config) (store.Store, error) {
	if cfg.UsesPostgres() {
		return postgres.NewStore(ctx, cfg.DatabaseURL)
	}
	return sqlite.NewStore(ctx, cfg.DatabaseURL)
}

// Migrate applies database migrations and exits.
func Migrate(ctx context.Context, cfg Config) error {
	logger := NewLogger(cfg)

	db, err := OpenStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if err := db.ApplyMigrations(); err != nil {
		return fmt.Errorf("failed to apply database migrations: %w", err)
	}

	users, err := db.Users().Count(ctx)
	if err != nil {
		return fmt.Errorf("failed to count users: %w", err)
	}
	logger.Info("database migrations applied successfully", "postgres", cfg.UsesPostgres(), "users", users)
	return nil
}

// initDatabase initializes the database and applies migrations
func (app *Application) initDatabase(ctx context.Context) error {
	db, err := OpenStore(ctx, app.cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	app.db = db

	if err := db.ApplyMigrations(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to apply database migrations: %w", err)
	}

	app.logger.Info("database migrations applied successfully", "postgres", app.cfg.UsesPostgres())
	return nil
}

// initMailer picks SMTP when a host is configured, the log sender otherwise.
func (app *Application) initMailer() error {
	if app.cfg.SMTPHost == "" {
		app.logger.Warn("SMTP_HOST not set, reset mails will be logged instead of sent")
		app.mailer = mailx.LogSender{}
		return nil
	}

	sender, err := mailx.NewSMTPSender(app.cfg.SMTP())
	if err != nil {
		return fmt.Errorf("failed to initialize mailer: %w", err)
	}
	app.mailer = sender
	return nil
}

// initServices initializes all business logic services
func (app *Application) initServices() {
	app.accountService = &service.AccountService{
		Store:  app.db,
		Hasher: app.hasher,
		Tokens: app.codec,
	}
	app.profileService = &service.ProfileService{Store: app.db}
	app.passwordResetService = &service.PasswordResetService{
		Store:   app.db,
		Hasher:  app.hasher,
		Tokens:  app.codec,
		Mailer:  app.mailer,
		BaseURL: app.cfg.BaseURL,
	}
}

// initHTTP initializes the HTTP router and server
func (app *Application) initHTTP() {
	router := httpapi.NewRouter(
		app.codec,
		httpx.TokenTransport{MaxAge: app.cfg.TokenTTL, Secure: app.cfg.CookieSecure},
		BuildVersion,
		app.db,
		app.logger,
		app.cfg.IsProduction(),
	)

	// Wire services to router
	router.AccountService = app.accountService
	router.ProfileService = app.profileService
	router.PasswordResetService = app.passwordResetService
	router.ApplyRoutes()

	app.router = router

	// Initialize HTTP server
	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}
