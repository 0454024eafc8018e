// Package main provides the entrypoint for the Sundose background worker.
// It keeps the UV cache warm for the configured refresh targets and,
// optionally, processes refresh jobs from Pub/Sub.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/sundose/sundose/internal/uvindex"
	"github.com/sundose/sundose/internal/uvindex/openmeteo"
	"github.com/sundose/sundose/internal/worker"
)

// Version and BuildTime are set at compile time via ldflags
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	const serviceName = "sundose-worker"

	log := zerolog.New(os.Stdout).
		With().
		Timestamp().
		Str("service", serviceName).
		Str("version", Version).
		Logger()

	log.Info().Str("build_time", BuildTime).Msg("starting Sundose worker")

	// Worker also exposes a health endpoint for Cloud Run
	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "8080"
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// The worker runs its own cache; warmed entries live here and the API
	// has its own. Both hit the same provider, which is rate limited by
	// the resilient client.
	uvProvider := openmeteo.NewClient(openmeteo.ClientConfig{
		Logger: log,
	})
	uvCache := uvindex.NewService(uvindex.ServiceConfig{
		Provider: uvProvider,
		Logger:   log,
	})

	refreshJob := worker.NewRefreshJob(worker.RefreshJobConfig{
		Config: worker.DefaultRefreshConfig(),
		Logger: log,
		Cache:  uvCache,
	})

	// Periodic refresh loop; interval defaults to the cache freshness
	// window so warmed entries never go stale between runs.
	refreshInterval := 5 * time.Minute
	if raw := os.Getenv("REFRESH_INTERVAL_SECONDS"); raw != "" {
		if secs, err := strconv.Atoi(raw); err == nil && secs > 0 {
			refreshInterval = time.Duration(secs) * time.Second
		}
	}

	go func() {
		// Warm the cache once at startup, then on the interval.
		result := refreshJob.Run(ctx)
		log.Info().
			Int("successful", result.Successful).
			Int("failed", result.Failed).
			Msg("initial cache warm completed")

		ticker := time.NewTicker(refreshInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				refreshJob.Run(ctx)
			}
		}
	}()

	// Optional Pub/Sub job processing (manual refreshes, health checks)
	if projectID := os.Getenv("PUBSUB_PROJECT_ID"); projectID != "" {
		subscription := os.Getenv("PUBSUB_SUBSCRIPTION")
		if subscription == "" {
			subscription = "worker-jobs"
		}

		handler, err := worker.NewPubSubHandler(ctx, worker.PubSubConfig{
			ProjectID:        projectID,
			SubscriptionName: subscription,
			RefreshJob:       refreshJob,
			Logger:           log,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("failed to initialize pubsub handler")
		}
		defer handler.Close()

		go func() {
			if err := handler.Start(ctx); err != nil && ctx.Err() == nil {
				log.Error().Err(err).Msg("pubsub handler stopped")
			}
		}()
	} else {
		log.Info().Msg("pubsub not configured, running scheduled refreshes only")
	}

	// Health check server
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, `{"status":"healthy","version":"%s"}`, Version)
	})
	mux.HandleFunc("/metrics/refresh", func(w http.ResponseWriter, r *http.Request) {
		m := refreshJob.Metrics()
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w,
			`{"total_refreshes":%d,"successful":%d,"failed":%d,"served_stale":%d}`,
			m.TotalRefreshes, m.SuccessfulRefresh, m.FailedRefreshes, m.ServedStale)
	})

	server := &http.Server{
		Addr:         ":" + port,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Info().Str("addr", server.Addr).Msg("health server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("health server error")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down worker")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("health server forced to shutdown")
	}

	log.Info().Msg("worker stopped")
}
