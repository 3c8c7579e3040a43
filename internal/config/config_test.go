package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("ENV", "")
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("BEDROCK_MODEL_ID", "")
	t.Setenv("SESSION_TTL", "")
	t.Setenv("AI_PROVIDER", "")
	cfg := Load()
	if cfg.Port != "8080" {
		t.Fatalf("expected default port, got %s", cfg.Port)
	}
	if cfg.Env != "development" {
		t.Fatalf("expected default env, got %s", cfg.Env)
	}
	if cfg.BedrockModelID != "" {
		t.Fatalf("expected default bedrock model empty, got %s", cfg.BedrockModelID)
	}
	if cfg.SessionTTL != 24*time.Hour {
		t.Fatalf("expected default session TTL 24h, got %s", cfg.SessionTTL)
	}
	if cfg.AIProvider != "auto" {
		t.Fatalf("expected default ai provider auto, got %s", cfg.AIProvider)
	}
	if cfg.AITimeout != 10*time.Second {
		t.Fatalf("expected default ai timeout 10s, got %s", cfg.AITimeout)
	}
	if cfg.GeminiModelID != "gemini-2.5-flash" {
		t.Fatalf("expected default gemini model, got %s", cfg.GeminiModelID)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("ENV", "production")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("DATABASE_URL", "postgres://user@host/db")
	t.Setenv("REDIS_ADDR", "redis.internal:6380")
	t.Setenv("SESSION_TTL", "1h")
	t.Setenv("AI_PROVIDER", " Gemini ")
	t.Setenv("GEMINI_API_KEY", "secret")
	t.Setenv("AI_TIMEOUT", "3s")
	t.Setenv("WHATSAPP_VERIFY_TOKEN", "verify-secret")
	cfg := Load()
	if cfg.Port != "9090" {
		t.Fatalf("expected override port, got %s", cfg.Port)
	}
	if cfg.Env != "production" {
		t.Fatalf("expected env override, got %s", cfg.Env)
	}
	if cfg.DatabaseURL != "postgres://user@host/db" {
		t.Fatalf("expected db override, got %s", cfg.DatabaseURL)
	}
	if cfg.RedisAddr != "redis.internal:6380" {
		t.Fatalf("expected redis override, got %s", cfg.RedisAddr)
	}
	if cfg.SessionTTL != time.Hour {
		t.Fatalf("expected session TTL override, got %s", cfg.SessionTTL)
	}
	if cfg.AIProvider != "gemini" {
		t.Fatalf("expected ai provider normalized to gemini, got %q", cfg.AIProvider)
	}
	if cfg.AITimeout != 3*time.Second {
		t.Fatalf("expected ai timeout override, got %s", cfg.AITimeout)
	}
	if cfg.WhatsAppVerifyToken != "verify-secret" {
		t.Fatalf("expected verify token override, got %s", cfg.WhatsAppVerifyToken)
	}
}
