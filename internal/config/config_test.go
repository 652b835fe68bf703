package config

import (
	"testing"
	"time"
)

func TestLoadCacheConfigDefaults(t *testing.T) {
	cfg := LoadCacheConfig()
	if !cfg.Enabled {
		t.Fatal("cache should default to enabled")
	}
	if !cfg.Methods["GET"] {
		t.Fatal("GET should be cached by default")
	}
	if cfg.TTL != 30*time.Second {
		t.Fatalf("TTL = %s, want 30s", cfg.TTL)
	}
	if cfg.Prefix != "cache" || cfg.KeyStrategy != "route_query" {
		t.Fatalf("unexpected defaults: prefix=%q strategy=%q", cfg.Prefix, cfg.KeyStrategy)
	}
}

func TestLoadCacheConfigOverrides(t *testing.T) {
	t.Setenv("CACHE_ENABLED", "false")
	t.Setenv("CACHE_METHODS", "get, head")
	t.Setenv("CACHE_TTL", "2m")
	cfg := LoadCacheConfig()
	if cfg.Enabled {
		t.Fatal("CACHE_ENABLED=false ignored")
	}
	if !cfg.Methods["GET"] || !cfg.Methods["HEAD"] {
		t.Fatalf("methods not upper-cased/split: %v", cfg.Methods)
	}
	if cfg.TTL != 2*time.Minute {
		t.Fatalf("TTL = %s, want 2m", cfg.TTL)
	}
}

func TestLoadRateLimitConfigDefaults(t *testing.T) {
	cfg := LoadRateLimitConfig()
	if !cfg.Enabled || cfg.Capacity != 60 || cfg.RefillTokens != 1 {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.RefillInterval != time.Second {
		t.Fatalf("refill interval = %s, want 1s", cfg.RefillInterval)
	}
}

func TestLoadRateLimitConfigClamping(t *testing.T) {
	t.Setenv("RATE_LIMIT_CAPACITY", "0")
	t.Setenv("RATE_LIMIT_REFILL_TOKENS", "-3")
	t.Setenv("RATE_LIMIT_TTL", "1s")
	t.Setenv("RATE_LIMIT_REFILL_INTERVAL", "10s")
	cfg := LoadRateLimitConfig()
	if cfg.Capacity != 1 {
		t.Fatalf("capacity = %d, want clamp to 1", cfg.Capacity)
	}
	if cfg.RefillTokens != 1 {
		t.Fatalf("refill tokens = %d, want clamp to 1", cfg.RefillTokens)
	}
	if cfg.TTL < 5*cfg.RefillInterval {
		t.Fatalf("TTL = %s not clamped to 5x interval", cfg.TTL)
	}
}

func TestLoadRateLimitConfigShorthand(t *testing.T) {
	t.Setenv("RATE_LIMIT_BURST", "10")
	t.Setenv("RATE_LIMIT_REFILL_EVERY", "500ms")
	cfg := LoadRateLimitConfig()
	if cfg.Capacity != 10 {
		t.Fatalf("capacity = %d, want burst override 10", cfg.Capacity)
	}
	if cfg.RefillTokens != 1 || cfg.RefillInterval != 500*time.Millisecond {
		t.Fatalf("refill = %d per %s, want 1 per 500ms", cfg.RefillTokens, cfg.RefillInterval)
	}
}
