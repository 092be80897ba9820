package services

import (
	"context"
	"strings"
	"testing"
)

func TestGenerateKeyNormalizesIdentifier(t *testing.T) {
	service := &CacheService{}

	a := service.generateKey("chat", "  Encryption  ", map[string]string{"model": "openai", "lang": "en"})
	b := service.generateKey("chat", "encryption", map[string]string{"model": "openai", "lang": "en"})

	if a != b {
		t.Errorf("case/whitespace variants must collide: %q != %q", a, b)
	}
}

func TestGenerateKeyParamsAreSorted(t *testing.T) {
	service := &CacheService{}

	key := service.generateKey("chat", "query", map[string]string{"model": "openai", "lang": "en"})

	if !strings.HasPrefix(key, "chat:") {
		t.Errorf("key must be namespaced: %q", key)
	}
	if !strings.HasSuffix(key, ":lang=en:model=openai") {
		t.Errorf("params must be sorted alphabetically: %q", key)
	}
}

func TestGenerateKeySkipsEmptyParams(t *testing.T) {
	service := &CacheService{}

	with := service.generateKey("search", "query", map[string]string{"limit": ""})
	without := service.generateKey("search", "query", nil)

	if with != without {
		t.Errorf("empty param values must be omitted: %q != %q", with, without)
	}
}

func TestGenerateKeyDistinguishesNamespaces(t *testing.T) {
	service := &CacheService{}

	if service.generateKey("chat", "q", nil) == service.generateKey("search", "q", nil) {
		t.Error("different namespaces must not collide")
	}
}

func TestDisabledCacheDegradesGracefully(t *testing.T) {
	service := &CacheService{} // enabled == false, no client
	ctx := context.Background()

	var target string
	if service.Get(ctx, "chat", "q", nil, &target) {
		t.Error("disabled cache Get must report a miss")
	}
	if service.Set(ctx, "chat", "q", "value", nil) {
		t.Error("disabled cache Set must report failure")
	}
	if service.Delete(ctx, "chat", "q", nil) {
		t.Error("disabled cache Delete must report failure")
	}
	if n := service.InvalidatePattern(ctx, "*"); n != 0 {
		t.Errorf("disabled cache InvalidatePattern must delete nothing, got %d", n)
	}
	if stats := service.Stats(ctx); stats.Enabled {
		t.Error("disabled cache must report Enabled=false")
	}
	if err := service.HealthCheck(ctx); err == nil {
		t.Error("disabled cache must fail its health check")
	}
}
