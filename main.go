package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/isdelr/calculations-api/internal/api"
	"github.com/isdelr/calculations-api/internal/auth"
	"github.com/isdelr/calculations-api/internal/config"
	"github.com/isdelr/calculations-api/internal/database"
	"github.com/isdelr/calculations-api/internal/logger"
	"github.com/isdelr/calculations-api/internal/services"
	"github.com/isdelr/calculations-api/internal/telemetry"
	"github.com/rs/zerolog/log"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger.Init(cfg.LogLevel, cfg.LogFormat)
	if !cfg.IsProduction() && cfg.SecretKey == "change-me" {
		log.Warn().Msg("SECRET_KEY is the development default; tokens are forgeable")
	}

	shutdownTracing, err := telemetry.Setup(context.Background(), "calculations-api", cfg.OTelEndpoint)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to set up tracing")
	}

	// Set up database
	db, err := database.New(cfg.DatabaseDriver, cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.DatabaseDriver).Msg("Failed to initialize database")
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatal().Err(err).Msg("Failed to apply database migrations")
	}

	// Set up services
	tokens := auth.NewTokenService([]byte(cfg.SecretKey), cfg.TokenTTL, cfg.TokenIssuer)
	userService := services.NewUserService(db, auth.NewBcryptHasher(cfg.BcryptCost))
	calculationService := services.NewCalculationService(db)

	// Set up router
	router := api.NewRouter(api.Dependencies{
		Users:          userService,
		Calculations:   calculationService,
		Tokens:         tokens,
		Resolver:       auth.NewIdentityResolver(tokens, userService),
		DB:             db,
		AllowedOrigins: cfg.CORSAllowedOrigins,
	})

	// Set up server
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.ServerPort),
		Handler: router,
	}

	// Graceful shutdown
	go func() {
		log.Info().Int("port", cfg.ServerPort).Str("driver", cfg.DatabaseDriver).Msg("Server starting")
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("ListenAndServe failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	if err := shutdownTracing(ctx); err != nil {
		log.Error().Err(err).Msg("Failed to flush traces")
	}

	log.Info().Msg("Server exiting")
}
