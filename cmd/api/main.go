// Package main provides the entrypoint for the Sundose API server.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/sundose/sundose/internal/api"
	"github.com/sundose/sundose/internal/api/middleware"
	"github.com/sundose/sundose/internal/auth"
	"github.com/sundose/sundose/internal/database"
	"github.com/sundose/sundose/internal/exposure"
	"github.com/sundose/sundose/internal/health"
	"github.com/sundose/sundose/internal/profile"
	"github.com/sundose/sundose/internal/telemetry"
	"github.com/sundose/sundose/internal/uvindex"
	"github.com/sundose/sundose/internal/uvindex/openmeteo"
	"github.com/sundose/sundose/internal/worker"
)

// Version and BuildTime are set at compile time via ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	const serviceName = "sundose-api"

	// Setup structured logging
	log := zerolog.New(os.Stdout).
		With().
		Timestamp().
		Str("service", serviceName).
		Str("version", Version).
		Logger()

	log.Info().
		Str("build_time", BuildTime).
		Msg("starting Sundose API")

	// Get configuration from environment
	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "8080"
	}

	otlpEndpoint := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")
	if otlpEndpoint == "" {
		otlpEndpoint = "localhost:4317"
	}

	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "development"
	}

	// Initialize OpenTelemetry
	ctx := context.Background()
	telemetryEnabled := os.Getenv("OTEL_ENABLED") == "true"

	sampleRatio := 0.0
	if raw := os.Getenv("OTEL_TRACE_SAMPLE_RATIO"); raw != "" {
		if parsed, perr := strconv.ParseFloat(raw, 64); perr == nil {
			sampleRatio = parsed
		}
	}

	tp, err := telemetry.Init(ctx, telemetry.Config{
		ServiceName:    serviceName,
		ServiceVersion: Version,
		Environment:    env,
		OTLPEndpoint:   otlpEndpoint,
		Enabled:        telemetryEnabled,
		SampleRatio:    sampleRatio,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize telemetry")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if shutdownErr := tp.Shutdown(shutdownCtx); shutdownErr != nil {
			log.Error().Err(shutdownErr).Msg("failed to shutdown telemetry")
		}
	}()

	if telemetryEnabled {
		log.Info().
			Str("otlp_endpoint", otlpEndpoint).
			Msg("OpenTelemetry initialized")
	}

	// Initialize metrics
	metrics, err := middleware.NewMetrics()
	if err != nil {
		log.Error().Err(err).Msg("failed to initialize metrics")
		os.Exit(1) //nolint:gocritic // intentional exit, telemetry cleanup is best-effort
	}

	// Connect to database
	dbConfig := database.ConfigFromEnv()
	pool, err := database.Connect(ctx, dbConfig)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	log.Info().
		Str("host", dbConfig.Host).
		Int("port", dbConfig.Port).
		Str("database", dbConfig.Database).
		Msg("database connected")

	// Initialize JWT service (get signing key from environment)
	jwtSigningKey := os.Getenv("JWT_SIGNING_KEY")
	if jwtSigningKey == "" {
		jwtSigningKey = "local-dev-signing-key-change-in-production"
		log.Warn().Msg("using default JWT signing key - not secure for production")
	}

	jwtService := auth.NewJWTService(auth.JWTConfig{
		SigningKey: jwtSigningKey,
		Issuer:     "https://api.sundose.app",
		Audience:   "sundose-api",
	})

	// Initialize the UV provider and cache
	providerMetrics, err := middleware.NewProviderMetrics(openmeteo.ProviderName)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize provider metrics")
	}
	uvProvider := openmeteo.NewClient(openmeteo.ClientConfig{
		Metrics: providerMetrics,
		Logger:  log,
	})
	uvCache := uvindex.NewService(uvindex.ServiceConfig{
		Provider: uvProvider,
		Metrics:  providerMetrics,
		Logger:   log,
	})
	uvCoordinator := uvindex.NewCoordinator(uvindex.CoordinatorConfig{
		Cache:  uvCache,
		Logger: log,
	})
	log.Info().Str("provider", uvProvider.Name()).Msg("UV cache initialized")

	// Initialize profile service
	profileService := profile.NewService(profile.NewPostgresRepository(pool))
	log.Info().Msg("profile service initialized")

	// Initialize health export (optional; sessions are kept locally either way)
	var exporter exposure.HealthExporter
	if projectID := os.Getenv("PUBSUB_PROJECT_ID"); projectID != "" {
		topicName := os.Getenv("PUBSUB_HEALTH_TOPIC")
		if topicName == "" {
			topicName = "health-sessions"
		}
		pubsubExporter, expErr := health.NewPubSubExporter(ctx, health.PubSubExporterConfig{
			ProjectID: projectID,
			TopicName: topicName,
			Logger:    log,
		})
		if expErr != nil {
			log.Fatal().Err(expErr).Msg("failed to initialize health exporter")
		}
		defer pubsubExporter.Close()
		exporter = pubsubExporter
		log.Info().Str("topic", topicName).Msg("health export enabled")
	} else {
		exporter = health.NoopExporter{}
		log.Warn().Msg("health export not configured - completed sessions stay local")
	}

	// Initialize exposure service
	exposureService, err := exposure.NewService(exposure.ServiceConfig{
		Repo:       exposure.NewPostgresRepository(pool),
		Conditions: uvCoordinator,
		Exporter:   exporter,
		Logger:     log,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize exposure service")
	}
	log.Info().Msg("exposure service initialized")

	// Create router with configuration
	router := api.NewRouter(api.RouterConfig{
		Version:         Version,
		BuildTime:       BuildTime,
		Logger:          log,
		ServiceName:     serviceName,
		Metrics:         metrics,
		TokenValidator:  jwtService,
		UVCoordinator:   uvCoordinator,
		UVCache:         uvCache,
		ExposureService: exposureService,
		ProfileService:  profileService,
		ReadyCheck: func(ctx context.Context) error {
			return pool.Ping(ctx)
		},
	})

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info().
			Str("addr", server.Addr).
			Msg("server listening")

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	// Run the session tick loop in-process so active sessions accumulate
	// even between client polls.
	tickJob := worker.NewTickJob(worker.TickJobConfig{
		Sessions: exposureService,
		Logger:   log,
	})
	tickCtx, stopTicks := context.WithCancel(ctx)
	defer stopTicks()
	go tickJob.Run(tickCtx)

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")
	stopTicks()

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
		os.Exit(1)
	}

	log.Info().Msg("server stopped")
}
