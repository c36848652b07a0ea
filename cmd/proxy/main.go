package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kalam360/intake-agent/internal/config"
	"github.com/kalam360/intake-agent/internal/livekit"
	"github.com/kalam360/intake-agent/internal/observability"
	"github.com/kalam360/intake-agent/internal/proxy"
)

func main() {
	cfg, err := config.LoadProxy()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	observability.InitLogger(cfg.LogLevel, cfg.LogPretty)
	logger := observability.GetLogger()

	logger.Info().
		Str("port", cfg.Port).
		Str("upstream", cfg.IntakeAPIURL).
		Str("conn_details_endpoint", cfg.ConnDetailsEndpoint).
		Msg("Intake edge proxy starting")

	minter := livekit.NewTokenMinter(cfg.LiveKitURL, cfg.LiveKitAPIKey, cfg.LiveKitAPISecret,
		time.Duration(cfg.TokenTTLMinutes)*time.Minute)

	mux := http.NewServeMux()
	mux.Handle("/api/intake/", proxy.NewForwarder(cfg.IntakeAPIURL))
	mux.HandleFunc(cfg.ConnDetailsEndpoint, proxy.ConnectionDetailsHandler(minter))
	mux.HandleFunc("/health", observability.HealthCheckHandler("intake-proxy"))

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info().Str("port", cfg.Port).Msg("Proxy listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("Proxy failed to start")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("Shutting down proxy...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("Proxy forced to shutdown")
	}

	logger.Info().Msg("Proxy exited")
}
