package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"time"

	"foodbridge/internal/api"
	"foodbridge/internal/credstore"
	"foodbridge/internal/guard"
	"foodbridge/internal/platform/config"
	"foodbridge/internal/platform/httpserver"
	"foodbridge/internal/platform/logger"
	"foodbridge/internal/platform/metrics"
	platformredis "foodbridge/internal/platform/redis"
	"foodbridge/internal/session"
	httptransport "foodbridge/internal/transport/http"
)

// main wires high-level dependencies and keeps the server lifecycle small.
// Session logic lives in internal packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()

	ctx := context.Background()

	creds, cleanup, err := buildCredentialStore(ctx, cfg)
	if err != nil {
		log.Error("credential store init failed", "error", err)
		os.Exit(1)
	}
	defer cleanup()

	gatewayMetrics, registry := metrics.New()

	client, err := api.New(api.Options{
		BaseURL: cfg.APIBaseURL,
		Creds:   creds,
		Timeout: cfg.HTTPTimeout,
		Logger:  log,
		Metrics: gatewayMetrics,
	})
	if err != nil {
		log.Error("api client init failed", "error", err)
		os.Exit(1)
	}

	sessions := session.NewManager(client, creds, log, gatewayMetrics)
	sessions.Initialize(ctx)

	router := httptransport.NewRouter(httptransport.RouterDeps{
		Sessions: sessions,
		Client:   client,
		Guard:    guard.New(sessions, log, gatewayMetrics),
		Logger:   log,
		Registry: registry,
	})

	srv := httpserver.New(cfg.Addr, router)
	log.Info("starting foodbridge gateway", "addr", cfg.Addr, "api", cfg.APIBaseURL)

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
		os.Exit(1)
	}
}

// buildCredentialStore prefers Redis when configured and falls back to the
// credentials file otherwise.
func buildCredentialStore(ctx context.Context, cfg config.Gateway) (credstore.Store, func(), error) {
	if cfg.RedisURL != "" {
		client, err := platformredis.New(ctx, cfg.RedisURL)
		if err != nil {
			return nil, nil, err
		}
		return credstore.NewRedisStore(client.Client), func() { _ = client.Close() }, nil
	}
	return credstore.NewFileStore(cfg.CredentialsPath), func() {}, nil
}
