package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/kalam360/intake-agent/internal/agent"
	"github.com/kalam360/intake-agent/internal/api"
	"github.com/kalam360/intake-agent/internal/config"
	"github.com/kalam360/intake-agent/internal/costs"
	"github.com/kalam360/intake-agent/internal/livekit"
	"github.com/kalam360/intake-agent/internal/llm"
	"github.com/kalam360/intake-agent/internal/observability"
	"github.com/kalam360/intake-agent/internal/session"
	"github.com/kalam360/intake-agent/internal/voice"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		// Use fmt for fatal errors before logger is initialized
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize structured logger
	observability.InitLogger(cfg.LogLevel, cfg.LogPretty)
	logger := observability.GetLogger()

	logger.Info().
		Str("port", cfg.Port).
		Str("llm_model", cfg.OpenAIModel).
		Str("session_store", cfg.SessionStore).
		Bool("metrics_enabled", cfg.MetricsEnabled).
		Msg("Intake agent service starting")

	// Session store
	var store session.Store
	var redisClient *redis.Client
	if cfg.SessionStore == "redis" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		store = session.NewRedisStore(redisClient, time.Duration(cfg.SessionTTLHours)*time.Hour)
		logger.Info().Str("addr", cfg.RedisAddr).Msg("Using Redis session store")
	} else {
		store = session.NewMemoryStore()
		logger.Info().Msg("Using in-memory session store")
	}
	defer store.Close()

	// Core services
	registry := costs.NewRegistry()
	llmClient := llm.NewOpenAIClient(cfg)
	intakeAgent := agent.New(llmClient, store, registry, cfg.HistoryWindow)
	minter := livekit.NewTokenMinter(cfg.LiveKitURL, cfg.LiveKitAPIKey, cfg.LiveKitAPISecret,
		time.Duration(cfg.TokenTTLMinutes)*time.Minute)

	// HTTP routes
	mux := http.NewServeMux()
	api.NewHandler(cfg, intakeAgent, store, registry, minter).Register(mux)
	mux.HandleFunc("/ws/voice", voice.Handler(cfg, intakeAgent, registry))
	mux.HandleFunc("/health", observability.HealthCheckHandler("intake-agent"))

	checks := map[string]observability.HealthCheckFunc{
		"llm": func(ctx context.Context) (bool, error) {
			if cfg.OpenAIAPIKey == "" {
				return false, fmt.Errorf("OpenAI API key not configured")
			}
			return true, nil
		},
	}
	if redisClient != nil {
		checks["redis"] = func(ctx context.Context) (bool, error) {
			if err := redisClient.Ping(ctx).Err(); err != nil {
				return false, err
			}
			return true, nil
		}
	}
	mux.HandleFunc("/ready", observability.ReadinessHandler("intake-agent", checks))

	if cfg.MetricsEnabled {
		mux.Handle("/metrics", promhttp.Handler())
		logger.Info().Msg("Prometheus metrics enabled at /metrics")
	}

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info().
			Str("port", cfg.Port).
			Str("endpoint", fmt.Sprintf("http://localhost:%s/api/intake", cfg.Port)).
			Msg("Server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("Server failed to start")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("Server forced to shutdown")
	}

	logger.Info().Msg("Server exited")
}
