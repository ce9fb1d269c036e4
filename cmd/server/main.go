// Command server runs the creative-studio generation backend: an HTTP API
// that submits prompts to a generative provider, stores produced assets in
// object storage, and tracks the session user's library and point balance.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/mkaran/go-studio-backend/internal/config"
	httpapi "github.com/mkaran/go-studio-backend/internal/http"
	"github.com/mkaran/go-studio-backend/internal/observability"
	"github.com/mkaran/go-studio-backend/internal/provider"
	"github.com/mkaran/go-studio-backend/internal/repo"
	"github.com/mkaran/go-studio-backend/internal/services"
	"github.com/mkaran/go-studio-backend/internal/storage"
	"github.com/mkaran/go-studio-backend/internal/sysutil"
)

// version is stamped at build time via -ldflags "-X main.version=...".
var version = "dev"

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := config.MustLoad()
	version = sysutil.FirstNonEmpty(os.Getenv("APP_VERSION"), version)

	setupLogging(cfg)
	gin.SetMode(cfg.GinMode)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Tracing (no-op unless enabled).
	shutdownTracing, err := observability.SetupOTel(ctx, cfg.OTEL, version)
	if err != nil {
		log.Fatal().Err(err).Msg("otel setup failed")
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(ctx); err != nil {
			log.Warn().Err(err).Msg("otel shutdown")
		}
	}()

	// Database and schema.
	db, err := repo.Open(cfg.DBDSN, cfg.OTEL.Enabled)
	if err != nil {
		log.Fatal().Err(err).Str("dsn", cfg.DBDSN).Msg("database open failed")
	}
	if err := repo.AutoMigrate(db); err != nil {
		log.Fatal().Err(err).Msg("database migration failed")
	}
	if _, err := services.NewProfileService(db, cfg.UserName, cfg.InitialPoints).Ensure(ctx); err != nil {
		log.Fatal().Err(err).Msg("profile seeding failed")
	}

	// Object store for generated asset bytes.
	store, err := storage.NewMinioStore(ctx, cfg.Storage)
	if err != nil {
		log.Fatal().Err(err).Str("endpoint", cfg.Storage.Endpoint).Msg("object store init failed")
	}

	// Provider client and media executor.
	client := provider.NewAPIClient(cfg.Provider, &http.Client{Timeout: cfg.Provider.Timeout})
	exec := provider.NewExecutor(client, store, cfg.Provider.PollInterval, cfg.Provider.MaxPolls)

	r := gin.New()
	genSvc := httpapi.RegisterRoutes(r, db, exec, cfg)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	go func() {
		log.Info().
			Str("version", version).
			Str("port", cfg.Port).
			Str("base_path", cfg.APIBasePath).
			Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown")
	}

	// Let an in-flight generation finish resolving before the process exits;
	// its result is written with a detached context, not the request's.
	genSvc.Wait()

	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	log.Info().Msg("server stopped")
}

// setupLogging configures the global zerolog output and level.
func setupLogging(cfg config.Config) {
	zerolog.TimeFieldFormat = time.RFC3339
	sysutil.SetLogLevel(cfg.LogLevel)
	if cfg.LogPretty || sysutil.IsTruthy(os.Getenv("LOG_CONSOLE")) {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}
}
