package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/driveline-ai/lucid-booking-bot/internal/api/router"
	"github.com/driveline-ai/lucid-booking-bot/internal/chat"
	"github.com/driveline-ai/lucid-booking-bot/internal/config"
	"github.com/driveline-ai/lucid-booking-bot/internal/intent"
	"github.com/driveline-ai/lucid-booking-bot/internal/observability/metrics"
	"github.com/driveline-ai/lucid-booking-bot/internal/recorder"
	"github.com/driveline-ai/lucid-booking-bot/internal/store"
	"github.com/driveline-ai/lucid-booking-bot/pkg/logging"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	logger := logging.New(cfg.LogLevel)
	logger.Info("starting booking bot", "env", cfg.Env, "port", cfg.Port)

	ctx := context.Background()
	m := metrics.NewConversationMetrics(nil)

	// Without an API key the bot runs on deterministic fallbacks only.
	var llm intent.LLMClient
	if cfg.GeminiAPIKey != "" {
		gemini, err := intent.NewGeminiClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModelID)
		if err != nil {
			logger.Error("failed to create gemini client", "error", err)
			os.Exit(1)
		}
		defer gemini.Close()
		llm = gemini
		logger.Info("gemini client ready", "model", cfg.GeminiModelID)
	} else {
		logger.Warn("GEMINI_API_KEY not set; using keyword fallbacks only")
	}

	var contextStore store.ContextStore
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			logger.Error("failed to connect to redis", "addr", cfg.RedisAddr, "error", err)
			os.Exit(1)
		}
		defer client.Close()
		contextStore = store.NewRedisStore(client, cfg.ContextTTL, logger, m)
		logger.Info("using redis context store", "addr", cfg.RedisAddr)
	} else {
		fileStore, err := store.NewFileStore(cfg.HistoryDir, logger, m)
		if err != nil {
			logger.Error("failed to create file store", "error", err)
			os.Exit(1)
		}
		contextStore = fileStore
		logger.Info("using file context store", "dir", cfg.HistoryDir)
	}

	rec := recorder.NewCSVRecorder(cfg.AppointmentsFile, logger, m)
	analyzer := intent.NewAnalyzer(llm, cfg.LLMTimeout, logger, m)
	responder := chat.NewResponder(llm, cfg.LLMTimeout, logger)
	service := chat.NewService(contextStore, analyzer, responder, rec, logger)
	handler := chat.NewHandler(service, logger)

	mux := router.New(&router.Config{
		Logger:         logger,
		ChatHandler:    handler,
		MetricsHandler: promhttp.Handler(),
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Periodic eviction of idle in-memory contexts.
	cleanupCtx, stopCleanup := context.WithCancel(ctx)
	defer stopCleanup()
	go func() {
		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()
		maxAge := time.Duration(cfg.CleanupMaxAgeDays) * 24 * time.Hour
		for {
			select {
			case <-cleanupCtx.Done():
				return
			case <-ticker.C:
				if evicted := service.Cleanup(maxAge); evicted > 0 {
					logger.Info("evicted idle contexts", "count", evicted)
				}
			}
		}
	}()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", "addr", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server failed", "error", err)
			os.Exit(1)
		}
	case sig := <-stop:
		logger.Info("shutting down", "signal", sig.String())
		shutdownCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", "error", err)
		}
	}
}
