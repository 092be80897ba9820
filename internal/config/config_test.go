package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	if cfg.HTTP.Port != "8000" {
		t.Errorf("default port = %q, want 8000", cfg.HTTP.Port)
	}
	if cfg.Qdrant.Collection != "gdpr_articles" {
		t.Errorf("default collection = %q", cfg.Qdrant.Collection)
	}
	if cfg.LLM.DefaultProvider != "openai" {
		t.Errorf("default provider = %q", cfg.LLM.DefaultProvider)
	}
	if cfg.Cache.ChatTTL != time.Hour {
		t.Errorf("chat TTL = %v, want 1h", cfg.Cache.ChatTTL)
	}
	if cfg.Cache.ArticleTTL != 24*time.Hour {
		t.Errorf("article TTL = %v, want 24h", cfg.Cache.ArticleTTL)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("LLM_PROVIDER", "gemini")
	t.Setenv("CACHE_TTL_CHAT", "60")
	t.Setenv("REDIS_PORT", "6380")

	cfg := Load()

	if cfg.HTTP.Port != "9090" {
		t.Errorf("port override ignored: %q", cfg.HTTP.Port)
	}
	if cfg.LLM.DefaultProvider != "gemini" {
		t.Errorf("provider override ignored: %q", cfg.LLM.DefaultProvider)
	}
	if cfg.Cache.ChatTTL != time.Minute {
		t.Errorf("TTL override ignored: %v", cfg.Cache.ChatTTL)
	}
	if cfg.Redis.Port != 6380 {
		t.Errorf("redis port override ignored: %d", cfg.Redis.Port)
	}
}
