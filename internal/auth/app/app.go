package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpapi "github.com/aussiebroadwan/signet/internal/auth/http"
	"github.com/aussiebroadwan/signet/internal/auth/metrics"
	"github.com/aussiebroadwan/signet/internal/auth/service"
	"github.com/aussiebroadwan/signet/internal/auth/store"
	"github.com/aussiebroadwan/signet/internal/auth/store/drivers/memory"
	"github.com/aussiebroadwan/signet/internal/auth/store/drivers/redis"
	"github.com/aussiebroadwan/signet/internal/auth/store/drivers/sqlite"
	"github.com/aussiebroadwan/signet/pkg/cryptox"
	"github.com/aussiebroadwan/signet/pkg/idx"
	"github.com/aussiebroadwan/signet/pkg/jwtx"
	"github.com/aussiebroadwan/signet/pkg/slogx"
)

const (
	// BuildVersion should be set at build time via ldflags.
	BuildVersion = "v0.1.0"
)

// Application encapsulates the auth service application with all its dependencies
type Application struct {
	cfg     Config
	logger  *slog.Logger
	metrics *metrics.Metrics
	ids     *idx.Generator

	// Core dependencies
	db store.Store
	kv store.ExpiringKV

	// Services
	authService         *service.AuthService
	housekeepingService *service.HousekeepingService // nil when the KV expires keys itself

	// HTTP server
	server *http.Server
	router *httpapi.Router
}

// Option adjusts an Application before it is wired.
type Option func(*Application)

// WithLogger replaces the logger built from the config.
func WithLogger(logger *slog.Logger) Option {
	return func(app *Application) { app.logger = logger }
}

// New creates a new Application instance with all dependencies initialized
func New(cfg Config, opts ...Option) (*Application, error) {
	app := &Application{
		cfg:     cfg,
		logger:  newLogger(cfg, os.Stdout),
		metrics: metrics.New(),
		ids:     idx.NewGenerator(),
	}
	for _, opt := range opts {
		opt(app)
	}

	if err := app.initDatabase(); err != nil {
		return nil, err
	}

	if err := app.initKV(); err != nil {
		_ = app.db.Close()
		return nil, err
	}

	if err := app.initServices(); err != nil {
		app.closeStores()
		return nil, err
	}

	app.initHTTP()

	return app, nil
}

// Handler exposes the root HTTP handler, mainly for in-process tests.
func (app *Application) Handler() http.Handler { return app.router }

// Run starts the application and blocks until shutdown is requested
func (app *Application) Run() error {
	if app.housekeepingService != nil {
		app.housekeepingService.Start()
	}

	app.logger.Info("auth service starting",
		"port", app.cfg.Port,
		"version", BuildVersion,
		"kv_driver", app.cfg.KVDriver,
	)

	// Start server in a goroutine
	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	// Setup signal handling for graceful shutdown
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	// Block until we receive a shutdown signal or server error
	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
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

// Shutdown gracefully shuts down the application
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down auth service...")

	// Give outstanding requests a deadline for completion
	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	if app.housekeepingService != nil {
		app.housekeepingService.Stop()
	}

	if err := app.closeStores(); err != nil {
		return err
	}

	app.logger.Info("auth service stopped")
	return nil
}

// Migrate applies the database migrations and exits.
func Migrate(cfg Config, logger *slog.Logger) error {
	db, err := openDatabase(cfg.DatabaseFile)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.ApplyMigrations(); err != nil {
		return fmt.Errorf("failed to apply database migrations: %w", err)
	}

	logger.Info("database migrations applied successfully", "database", cfg.DatabaseFile)
	return nil
}

func newLogger(cfg Config, out io.Writer) *slog.Logger {
	return slogx.New(slogx.Config{
		Service: "auth-service",
		Version: BuildVersion,
		Env:     cfg.Env,
		Level:   cfg.LogLevel,
		Format:  cfg.LogFormat,
		Output:  out,
	})
}

func openDatabase(file string) (*sqlite.Store, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", file)
	db, err := sqlite.NewStore(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	return db, nil
}

// initDatabase initializes the database and applies migrations
func (app *Application) initDatabase() error {
	db, err := openDatabase(app.cfg.DatabaseFile)
	if err != nil {
		return err
	}
	app.db = db

	if err := db.ApplyMigrations(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to apply database migrations: %w", err)
	}

	app.logger.Info("database migrations applied successfully")
	return nil
}

// initKV selects the OTP challenge store.
func (app *Application) initKV() error {
	switch app.cfg.KVDriver {
	case KVDriverMemory:
		app.kv = memory.NewKV()
	case KVDriverRedis:
		kv, err := redis.NewKV(app.cfg.RedisURL, app.cfg.RedisPrefix)
		if err != nil {
			return fmt.Errorf("failed to parse redis url: %w", err)
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := kv.Ping(ctx); err != nil {
			_ = kv.Close()
			return fmt.Errorf("failed to reach redis: %w", err)
		}
		app.kv = kv
	default:
		app.kv = app.db.KV()
	}

	app.logger.Info("challenge store ready", "driver", app.cfg.KVDriver)
	return nil
}

// initServices initializes all business logic services
func (app *Application) initServices() error {
	hasher, err := cryptox.NewPasswordHasher(cryptox.PasswordHasherOptions{
		Algorithm:  app.cfg.PasswordAlgorithm,
		BcryptCost: app.cfg.BcryptCost,
		Argon2Time: uint32(app.cfg.Argon2Time),
	})
	if err != nil {
		return fmt.Errorf("failed to configure password hashing: %w", err)
	}

	secret, err := app.signingSecret()
	if err != nil {
		return err
	}
	signer, err := jwtx.NewHMACSigner(app.cfg.SigningAlgorithm, secret)
	if err != nil {
		return fmt.Errorf("failed to configure token signer: %w", err)
	}

	challenges, err := service.NewChallengeService(app.kv, service.ChallengeOptions{
		TTL: app.cfg.OTPTTL,
		Min: app.cfg.OTPMin,
		Max: app.cfg.OTPMax,
	})
	if err != nil {
		return fmt.Errorf("failed to configure email otp: %w", err)
	}

	app.authService, err = service.NewAuthService(service.AuthServiceOptions{
		Users:              app.db.Users(),
		Hasher:             hasher,
		Tokens:             service.NewTokenService(signer, app.cfg.TokenTTL),
		Challenges:         challenges,
		IDs:                app.ids,
		ConsumeOTPOnVerify: app.cfg.OTPConsumeOnVerify,
	})
	if err != nil {
		return err
	}

	// Redis expires keys itself; the other drivers keep expired rows until purged.
	if purger, ok := app.kv.(store.Purger); ok {
		app.housekeepingService = service.NewHousekeepingService(
			purger,
			app.logger,
			app.cfg.HousekeepingInterval,
		)
		app.housekeepingService.OnPurge = func(n int64) {
			app.metrics.KVPurgedTotal.Add(float64(n))
		}
	}

	return nil
}

// signingSecret returns the configured secret. In dev an empty secret is
// replaced by a random one, so tokens do not survive a restart.
func (app *Application) signingSecret() ([]byte, error) {
	if app.cfg.SigningSecret != "" {
		return []byte(app.cfg.SigningSecret), nil
	}
	if !app.cfg.IsDev() {
		return nil, errors.New("AUTH_SIGNING_SECRET is required outside dev")
	}

	generated, err := cryptox.GenerateToken(32)
	if err != nil {
		return nil, fmt.Errorf("failed to generate signing secret: %w", err)
	}
	app.logger.Warn("AUTH_SIGNING_SECRET not set, using a random secret; sessions will not survive a restart")
	return []byte(generated), nil
}

// initHTTP initializes the HTTP router and server
func (app *Application) initHTTP() {
	router := httpapi.NewRouter(
		app.db,
		app.kv,
		BuildVersion,
		app.logger,
		app.metrics,
		app.ids,
	)

	router.AuthService = app.authService
	router.RateLimits = app.cfg.RateLimits
	router.ApplyRoutes()

	app.router = router

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}

func (app *Application) closeStores() error {
	if c, ok := app.kv.(io.Closer); ok {
		if err := c.Close(); err != nil {
			app.logger.Error("error closing challenge store", "error", err)
		}
	}

	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", "error", err)
		return err
	}
	return nil
}
