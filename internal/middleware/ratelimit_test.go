package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/jirayus/yoga-studio-reservation/internal/config"
)

func TestAsInt64(t *testing.T) {
	cases := []struct {
		in   interface{}
		want int64
	}{
		{int64(5), 5},
		{int32(5), 5},
		{5, 5},
		{float64(5.9), 5},
		{"5", 5},
		{"nope", 0},
		{nil, 0},
	}
	for _, tc := range cases {
		if got := asInt64(tc.in); got != tc.want {
			t.Errorf("asInt64(%v) = %d, want %d", tc.in, got, tc.want)
		}
	}
}

func TestBuildRateKeyStrategies(t *testing.T) {
	e := echo.New()
	newCtx := func(userID any) echo.Context {
		req := httptest.NewRequest(http.MethodPost, "/v1/reservations", nil)
		req.RemoteAddr = "10.0.0.7:1234"
		c := e.NewContext(req, httptest.NewRecorder())
		c.SetPath("/v1/reservations")
		if userID != nil {
			c.Set("user_id", userID)
		}
		return c
	}

	cfg := config.RateLimitConfig{Prefix: "rl", KeyStrategy: "user"}
	key := buildRateKey(cfg, newCtx(float64(12)))
	if key != "rl:user:12" {
		t.Fatalf("user strategy key = %q", key)
	}
	if anon := buildRateKey(cfg, newCtx(nil)); anon != "rl:user:anon" {
		t.Fatalf("anon key = %q", anon)
	}

	cfg.KeyStrategy = "user_route"
	key = buildRateKey(cfg, newCtx(float64(12)))
	if !strings.Contains(key, "POST /v1/reservations") {
		t.Fatalf("user_route key %q missing route", key)
	}

	cfg.KeyStrategy = "ip_user_route"
	key = buildRateKey(cfg, newCtx(float64(12)))
	for _, part := range []string{"ip", "user:12", "route"} {
		if !strings.Contains(key, part) {
			t.Fatalf("default strategy key %q missing %q", key, part)
		}
	}
}

func TestTokenBucketNoopWithoutRedis(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/v1/reservations", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	mw := NewTokenBucket(config.RateLimitConfig{Enabled: true}, nil)
	h := mw(func(c echo.Context) error { return c.NoContent(http.StatusCreated) })
	if err := h(c); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201", rec.Code)
	}
}
