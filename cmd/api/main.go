package main

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/atendezap/dialogue-engine/cmd/mainconfig"
	"github.com/atendezap/dialogue-engine/internal/api/router"
	appconfig "github.com/atendezap/dialogue-engine/internal/config"
	"github.com/atendezap/dialogue-engine/internal/dialogue"
	"github.com/atendezap/dialogue-engine/internal/http/handlers"
	"github.com/atendezap/dialogue-engine/internal/observability/metrics"
	"github.com/atendezap/dialogue-engine/internal/session"
	"github.com/atendezap/dialogue-engine/pkg/logging"
)

func main() {
	// Load .env in development; silently ignored when absent
	_ = godotenv.Load()

	cfg := appconfig.Load()

	// Initialize logger
	logger := logging.New(cfg.LogLevel)
	logger.Info("starting dialogue-engine API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	ctx := context.Background()

	// Metrics registry
	reg := prometheus.NewRegistry()
	engineMetrics := metrics.NewEngineMetrics(reg)

	// Hot session store
	redisOpts := &redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	}
	if cfg.RedisTLS {
		redisOpts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	rdb := redis.NewClient(redisOpts)
	sessions := session.NewRedisStore(rdb, cfg.SessionTTL)

	// Durable archive, optional
	var archive session.Store
	if cfg.DatabaseURL != "" {
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Error("failed to connect to postgres", "error", err)
			os.Exit(1)
		}
		defer pool.Close()
		archive = session.NewPostgresStore(pool)
	}

	// LLM extraction layer
	llmClient, modelID, err := buildLLMClient(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialize LLM client", "error", err)
		os.Exit(1)
	}
	var aiExtractor dialogue.AIExtractor
	if llmClient != nil {
		aiExtractor = dialogue.NewLLMNameGenderExtractor(llmClient, modelID, cfg.AITimeout, logger)
	} else {
		logger.Warn("no LLM provider configured, name extraction runs deterministic-only")
	}

	// Dialogue engine
	classifier := dialogue.NewMessageClassifier(logger)
	extractor := dialogue.NewHybridExtractor(aiExtractor, logger, engineMetrics)
	responder := dialogue.NewResponder(classifier, extractor, logger, engineMetrics)
	intentDetector := dialogue.NewIntentDetector(logger, engineMetrics)

	// Webhook handler
	webhookHandler := handlers.NewWhatsAppWebhookHandler(
		responder, intentDetector, sessions, archive,
		cfg.WhatsAppVerifyToken, cfg.DefaultTenantName, logger,
	)

	// Setup router
	r := router.New(&router.Config{
		Logger:          logger,
		WhatsAppWebhook: webhookHandler,
		MetricsHandler:  promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
	})

	// Create HTTP server
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
	fmt.Println("Server exited gracefully")
}

// buildLLMClient assembles the configured provider chain. With AI_PROVIDER
// "auto" and both providers configured, Bedrock is primary and Gemini the
// fallback. Returns a nil client when nothing is configured.
func buildLLMClient(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) (dialogue.LLMClient, string, error) {
	var bedrockClient dialogue.LLMClient
	if cfg.BedrockModelID != "" && cfg.AIProvider != "gemini" {
		awsCfg, err := mainconfig.LoadAWSConfig(ctx, cfg)
		if err != nil {
			return nil, "", fmt.Errorf("load AWS config: %w", err)
		}
		bedrockClient = dialogue.NewBedrockLLMClient(bedrockruntime.NewFromConfig(awsCfg))
	}

	var geminiClient dialogue.LLMClient
	if cfg.GeminiAPIKey != "" && cfg.AIProvider != "bedrock" {
		g, err := dialogue.NewGeminiLLMClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModelID)
		if err != nil {
			return nil, "", fmt.Errorf("init gemini client: %w", err)
		}
		geminiClient = g
	}

	switch {
	case bedrockClient != nil && geminiClient != nil:
		logger.Info("LLM provider chain ready", "primary", "bedrock", "fallback", "gemini")
		return dialogue.NewFallbackLLMClient(bedrockClient, geminiClient, logger), cfg.BedrockModelID, nil
	case bedrockClient != nil:
		logger.Info("LLM provider ready", "provider", "bedrock")
		return bedrockClient, cfg.BedrockModelID, nil
	case geminiClient != nil:
		logger.Info("LLM provider ready", "provider", "gemini")
		return geminiClient, cfg.GeminiModelID, nil
	default:
		return nil, "", nil
	}
}
