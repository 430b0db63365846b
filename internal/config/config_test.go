package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("ENV", "")
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("GEMINI_MODEL_ID", "")
	t.Setenv("HISTORY_DIR", "")
	cfg := Load()
	if cfg.Port != "8080" {
		t.Fatalf("expected default port, got %s", cfg.Port)
	}
	if cfg.Env != "development" {
		t.Fatalf("expected default env, got %s", cfg.Env)
	}
	if cfg.GeminiModelID != "gemini-2.0-flash" {
		t.Fatalf("expected default model, got %s", cfg.GeminiModelID)
	}
	if cfg.LLMTimeout != 15*time.Second {
		t.Fatalf("expected default llm timeout, got %s", cfg.LLMTimeout)
	}
	if cfg.HistoryDir != "History" {
		t.Fatalf("expected default history dir, got %s", cfg.HistoryDir)
	}
	if cfg.CleanupMaxAgeDays != 7 {
		t.Fatalf("expected default cleanup age, got %d", cfg.CleanupMaxAgeDays)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("ENV", "production")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("GEMINI_API_KEY", "test-key")
	t.Setenv("LLM_TIMEOUT", "5s")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("CONTEXT_TTL", "48h")
	t.Setenv("CLEANUP_MAX_AGE_DAYS", "14")
	cfg := Load()
	if cfg.Port != "9090" {
		t.Fatalf("expected override port, got %s", cfg.Port)
	}
	if cfg.GeminiAPIKey != "test-key" {
		t.Fatalf("expected api key override, got %s", cfg.GeminiAPIKey)
	}
	if cfg.LLMTimeout != 5*time.Second {
		t.Fatalf("expected llm timeout override, got %s", cfg.LLMTimeout)
	}
	if cfg.RedisAddr != "localhost:6379" {
		t.Fatalf("expected redis addr override, got %s", cfg.RedisAddr)
	}
	if cfg.ContextTTL != 48*time.Hour {
		t.Fatalf("expected context ttl override, got %s", cfg.ContextTTL)
	}
	if cfg.CleanupMaxAgeDays != 14 {
		t.Fatalf("expected cleanup age override, got %d", cfg.CleanupMaxAgeDays)
	}
}

func TestLoadBadDurationFallsBack(t *testing.T) {
	t.Setenv("LLM_TIMEOUT", "not-a-duration")
	cfg := Load()
	if cfg.LLMTimeout != 15*time.Second {
		t.Fatalf("expected fallback timeout, got %s", cfg.LLMTimeout)
	}
}
